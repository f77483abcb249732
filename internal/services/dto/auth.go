package dto

import "github.com/basit/forumfiles-backend/internal/models"

type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type SendCodeRequest struct {
	Email string `json:"email" binding:"required"`
}

type VerifyCodeRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// UserInfo is the public shape of a user in auth responses.
type UserInfo struct {
	ID       string          `json:"id"`
	Email    string          `json:"email"`
	Role     models.UserRole `json:"role"`
	IsActive bool            `json:"isActive"`
}

type AuthResponse struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
}

func NewUserInfo(u *models.User) UserInfo {
	return UserInfo{
		ID:       u.ID.String(),
		Email:    u.Email,
		Role:     u.Role,
		IsActive: u.IsActive,
	}
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/basit/forumfiles-backend/internal/apperrors"
	"github.com/basit/forumfiles-backend/internal/middleware"
	"github.com/basit/forumfiles-backend/internal/services"
	"github.com/basit/forumfiles-backend/internal/services/dto"
)

type AuthHandler struct {
	auth services.AuthService
}

func NewAuthHandler(auth services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.POST("/register", h.Register)
	public.POST("/login", h.Login)
	public.POST("/send-verification-code", h.SendVerificationCode)
	public.POST("/verify-code-login", h.VerifyCodeLogin)
	protected.GET("/me", h.Me)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.ValidationError("Email and password are required"))
		return
	}

	resp, err := h.auth.Register(&req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.ValidationError("Email and password are required"))
		return
	}

	resp, err := h.auth.Login(&req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) SendVerificationCode(c *gin.Context) {
	var req dto.SendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.ValidationError("Email is required"))
		return
	}

	expiresIn, err := h.auth.SendVerificationCode(req.Email)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "Verification code sent",
		"expiresIn": expiresIn,
	})
}

func (h *AuthHandler) VerifyCodeLogin(c *gin.Context) {
	var req dto.VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.ValidationError("Email and code are required"))
		return
	}

	resp, err := h.auth.VerifyCodeLogin(&req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		apperrors.Respond(c, apperrors.ErrUnauthenticated)
		return
	}

	info, err := h.auth.Me(claims.UserID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": info})
}

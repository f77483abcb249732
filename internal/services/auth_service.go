package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/basit/forumfiles-backend/internal/apperrors"
	"github.com/basit/forumfiles-backend/internal/auth"
	"github.com/basit/forumfiles-backend/internal/config"
	"github.com/basit/forumfiles-backend/internal/email"
	"github.com/basit/forumfiles-backend/internal/logger"
	"github.com/basit/forumfiles-backend/internal/models"
	"github.com/basit/forumfiles-backend/internal/repositories"
	"github.com/basit/forumfiles-backend/internal/services/dto"
)

const codeTTL = 10 * time.Minute

var validate = validator.New()

type AuthService interface {
	Register(req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(req *dto.LoginRequest) (*dto.AuthResponse, error)
	// SendVerificationCode issues a one-time login code and returns its
	// lifetime in seconds.
	SendVerificationCode(emailAddr string) (int, error)
	VerifyCodeLogin(req *dto.VerifyCodeRequest) (*dto.AuthResponse, error)
	Me(userID uuid.UUID) (*dto.UserInfo, error)
	// GetOrCreateOAuthUser resolves the account for a completed OAuth
	// exchange, creating one on first login.
	GetOrCreateOAuthUser(googleID, emailAddr string) (*dto.AuthResponse, error)
}

type authService struct {
	users    repositories.UserRepository
	codes    repositories.VerificationCodeRepository
	mailer   email.Provider
	cfg      *config.Config
}

func NewAuthService(users repositories.UserRepository, codes repositories.VerificationCodeRepository, mailer email.Provider, cfg *config.Config) AuthService {
	return &authService{users: users, codes: codes, mailer: mailer, cfg: cfg}
}

func (s *authService) Register(req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if err := validate.Var(req.Email, "required,email"); err != nil {
		return nil, apperrors.ErrInvalidEmail
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		IsActive:     true,
	}

	// the unique index catches exact duplicates; the lookup catches
	// case-variant ones
	if _, err := s.users.FindByEmail(req.Email); err == nil {
		return nil, apperrors.ErrEmailExists
	} else if !apperrors.Is(err, repositories.ErrUserNotFound) {
		return nil, apperrors.InternalError(err)
	}

	if err := s.users.Create(user); err != nil {
		if apperrors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, apperrors.ErrEmailExists
		}
		return nil, apperrors.InternalError(err)
	}

	return s.tokenResponse(user)
}

func (s *authService) Login(req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.users.FindByEmail(req.Email)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			// same error as a wrong password, so accounts cannot be
			// enumerated
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.InternalError(err)
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDeactivated
	}

	return s.tokenResponse(user)
}

func (s *authService) SendVerificationCode(emailAddr string) (int, error) {
	if err := validate.Var(emailAddr, "required,email"); err != nil {
		return 0, apperrors.ErrInvalidEmail
	}

	if _, err := s.users.FindByEmail(emailAddr); err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return 0, apperrors.NotFound("Email not registered")
		}
		return 0, apperrors.InternalError(err)
	}

	// issuance cooldown, one code per window per address
	last, err := s.codes.LastIssuedAt(emailAddr)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	if last != nil && time.Since(*last) < s.cfg.RateLimit.CodeCooldown {
		return 0, apperrors.New(apperrors.CodeValidationFailed,
			"Please wait before requesting another verification code", 429)
	}

	code, err := randomDigits(6)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}

	vc := &models.VerificationCode{
		Email:     emailAddr,
		Code:      code,
		ExpiresAt: time.Now().Add(codeTTL),
	}
	if err := s.codes.Create(vc); err != nil {
		return 0, apperrors.InternalError(err)
	}

	msg, err := email.VerificationCodeMessage(emailAddr, code)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	if err := s.mailer.Send(msg); err != nil {
		return 0, apperrors.Wrap(err, apperrors.CodeInternal, "Failed to send verification code", 500)
	}

	return int(codeTTL.Seconds()), nil
}

func (s *authService) VerifyCodeLogin(req *dto.VerifyCodeRequest) (*dto.AuthResponse, error) {
	vc, err := s.codes.FindValid(req.Email, req.Code, time.Now())
	if err != nil {
		if apperrors.Is(err, repositories.ErrCodeNotFound) {
			return nil, apperrors.New(apperrors.CodeInvalidCredentials,
				"Invalid or expired verification code", 401)
		}
		return nil, apperrors.InternalError(err)
	}

	// single-use: burn the code before issuing the token
	if err := s.codes.MarkUsed(vc.ID); err != nil {
		return nil, apperrors.InternalError(err)
	}

	user, err := s.users.FindByEmail(req.Email)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NotFound("User not found")
		}
		return nil, apperrors.InternalError(err)
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDeactivated
	}

	return s.tokenResponse(user)
}

func (s *authService) Me(userID uuid.UUID) (*dto.UserInfo, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NotFound("User not found")
		}
		return nil, apperrors.InternalError(err)
	}
	info := dto.NewUserInfo(user)
	return &info, nil
}

func (s *authService) GetOrCreateOAuthUser(googleID, emailAddr string) (*dto.AuthResponse, error) {
	user, err := s.users.FindByGoogleID(googleID)
	if apperrors.Is(err, repositories.ErrUserNotFound) {
		// link by email when the account already exists
		user, err = s.users.FindByEmail(emailAddr)
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			// password login is impossible for OAuth-created accounts: the
			// stored hash is a bcrypt hash of random bytes nobody knows
			placeholder, hashErr := randomDigits(32)
			if hashErr != nil {
				return nil, apperrors.InternalError(hashErr)
			}
			hash, hashErr := auth.HashPassword(placeholder)
			if hashErr != nil {
				return nil, apperrors.InternalError(hashErr)
			}
			user = &models.User{
				Email:        emailAddr,
				PasswordHash: hash,
				Role:         models.RoleUser,
				IsActive:     true,
				GoogleID:     &googleID,
			}
			if createErr := s.users.Create(user); createErr != nil {
				return nil, apperrors.InternalError(createErr)
			}
			logger.Info("created user from oauth login", "email", emailAddr)
			return s.tokenResponse(user)
		}
	}
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	if !user.IsActive {
		return nil, apperrors.ErrAccountDeactivated
	}
	return s.tokenResponse(user)
}

func (s *authService) tokenResponse(user *models.User) (*dto.AuthResponse, error) {
	token, err := auth.GenerateToken(s.cfg.JWT.Secret, user, s.cfg.JWT.TTL)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.AuthResponse{Token: token, User: dto.NewUserInfo(user)}, nil
}

// randomDigits returns n crypto-random decimal digits.
func randomDigits(n int) (string, error) {
	digits := make([]byte, n)
	for i := range digits {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate random digit: %w", err)
		}
		digits[i] = byte('0' + d.Int64())
	}
	return string(digits), nil
}

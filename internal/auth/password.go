package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/basit/forumfiles-backend/internal/apperrors"
)

// HashPassword creates a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a plaintext password against a bcrypt hash.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePassword enforces the minimum strength for registration.
func ValidatePassword(password string) error {
	if len(password) < 6 {
		return apperrors.ErrWeakPassword
	}
	return nil
}

package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/basit/forumfiles-backend/internal/apperrors"
	"github.com/basit/forumfiles-backend/internal/auth"
	"github.com/basit/forumfiles-backend/internal/models"
)

const claimsKey = "authClaims"

// AuthMiddleware rejects requests without a valid Bearer token and stores
// the parsed claims on the gin context for the handlers downstream.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			apperrors.Respond(c, apperrors.ErrUnauthenticated)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			apperrors.Respond(c, apperrors.ErrUnauthenticated)
			c.Abort()
			return
		}

		claims, err := auth.ParseToken(jwtSecret, parts[1])
		if err != nil {
			apperrors.Respond(c, apperrors.ErrUnauthenticated)
			c.Abort()
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// AdminMiddleware must run after AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok || claims.Role != models.RoleAdmin {
			apperrors.Respond(c, apperrors.Forbidden("Admin access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func GetClaims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

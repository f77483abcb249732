package apperrors

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/basit/forumfiles-backend/internal/logger"
)

// ErrorResponse is the uniform error payload shape.
type ErrorResponse struct {
	Error *AppError `json:"error"`
}

// Respond writes err as a structured payload. Unknown errors become a generic
// internal error; the cause is logged, never sent to the client.
func Respond(c *gin.Context, err error) {
	appErr := From(err)
	if appErr == nil {
		logger.WithError(err).Error("unhandled error", "path", c.FullPath())
		appErr = New(CodeInternal, "Internal server error", http.StatusInternalServerError)
	} else if appErr.HTTPCode >= 500 {
		logger.WithError(err).Error("server error", "path", c.FullPath())
		// strip the cause before serialization just in case
		appErr = New(appErr.Code, appErr.Message, appErr.HTTPCode)
	}

	c.AbortWithStatusJSON(appErr.HTTPCode, ErrorResponse{Error: appErr})
}

package oauth

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"

	"github.com/basit/forumfiles-backend/internal/apperrors"
	"github.com/basit/forumfiles-backend/internal/config"
	"github.com/basit/forumfiles-backend/internal/logger"
	"github.com/basit/forumfiles-backend/internal/services"
)

// Handler serves the Google OAuth begin/callback pair. Goth keeps its state
// in a cookie session store shared with the gin session middleware.
type Handler struct {
	auth        services.AuthService
	frontendURL string
	enabled     bool
}

func NewHandler(auth services.AuthService, cfg *config.Config) *Handler {
	h := &Handler{auth: auth, frontendURL: cfg.FrontendURL}

	if cfg.OAuth.GoogleClientID == "" || cfg.OAuth.SessionSecret == "" {
		logger.Warn("google oauth not configured, /auth/google disabled")
		return h
	}

	store := cookie.NewStore([]byte(cfg.OAuth.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400,
		HttpOnly: true,
		Secure:   cfg.Server.Env != "development",
	})
	gothic.Store = store

	goth.UseProviders(google.New(
		cfg.OAuth.GoogleClientID,
		cfg.OAuth.GoogleSecret,
		cfg.OAuth.GoogleRedirectURL,
		"email",
		"profile",
	))

	h.enabled = true
	return h
}

func (h *Handler) RegisterRoutes(g *gin.RouterGroup) {
	g.GET("/google", h.Begin)
	g.GET("/google/callback", h.Callback)
}

func (h *Handler) Begin(c *gin.Context) {
	if !h.enabled {
		apperrors.Respond(c, apperrors.NotFound("OAuth login is not available"))
		return
	}

	// goth reads the provider from the query string
	q := c.Request.URL.Query()
	q.Set("provider", "google")
	c.Request.URL.RawQuery = q.Encode()

	gothic.BeginAuthHandler(c.Writer, c.Request)
}

func (h *Handler) Callback(c *gin.Context) {
	if !h.enabled {
		apperrors.Respond(c, apperrors.NotFound("OAuth login is not available"))
		return
	}

	q := c.Request.URL.Query()
	q.Set("provider", "google")
	c.Request.URL.RawQuery = q.Encode()

	gothUser, err := gothic.CompleteUserAuth(c.Writer, c.Request)
	if err != nil {
		logger.WithError(err).Warn("oauth exchange failed")
		apperrors.Respond(c, apperrors.ErrUnauthenticated)
		return
	}

	resp, err := h.auth.GetOrCreateOAuthUser(gothUser.UserID, gothUser.Email)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	redirect := fmt.Sprintf("%s/auth/success?token=%s", h.frontendURL, resp.Token)
	c.Redirect(http.StatusTemporaryRedirect, redirect)
}

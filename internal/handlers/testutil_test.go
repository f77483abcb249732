package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/basit/forumfiles-backend/internal/auth"
	"github.com/basit/forumfiles-backend/internal/config"
	"github.com/basit/forumfiles-backend/internal/email"
	"github.com/basit/forumfiles-backend/internal/middleware"
	"github.com/basit/forumfiles-backend/internal/models"
	"github.com/basit/forumfiles-backend/internal/repositories"
	"github.com/basit/forumfiles-backend/internal/services"
	"github.com/basit/forumfiles-backend/internal/storage"
	"github.com/basit/forumfiles-backend/internal/upload"
)

type discardMailer struct{}

func (discardMailer) Send(*email.Message) error { return nil }

var _ email.Provider = discardMailer{}

// env is a full HTTP stack over an in-memory database and a temp-dir
// storage backend.
type env struct {
	router *gin.Engine
	cfg    *config.Config
	db     *gorm.DB
	users  repositories.UserRepository
	files  repositories.FileRepository
	links  services.LinkService
	store  storage.Storage
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.File{},
		&models.PublicLink{},
		&models.VerificationCode{},
		&models.FileShare{},
	))

	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Server.Env = "development"
	cfg.JWT.Secret = "handler-test-secret"
	cfg.JWT.TTL = time.Hour
	cfg.Upload.MaxSize = 1024 * 1024
	cfg.Upload.AllowedTypes = config.DefaultAllowedTypes
	cfg.RateLimit.CodeCooldown = time.Minute
	cfg.FrontendURL = "http://localhost:5173"

	users := repositories.NewUserRepository(db)
	files := repositories.NewFileRepository(db)
	links := repositories.NewLinkRepository(db)
	codes := repositories.NewVerificationCodeRepository(db)
	shares := repositories.NewFileShareRepository(db)

	validator := upload.NewValidator(cfg.Upload.MaxSize, cfg.Upload.AllowedTypes)
	authSvc := services.NewAuthService(users, codes, discardMailer{}, cfg)
	fileSvc := services.NewFileService(files, store, validator)
	linkSvc := services.NewLinkService(links, files, store)
	adminSvc := services.NewAdminService(users, files, shares, store, discardMailer{}, cfg)

	authRequired := middleware.AuthMiddleware(cfg.JWT.Secret)

	router := gin.New()
	api := router.Group("/api")

	NewAuthHandler(authSvc).RegisterRoutes(api.Group("/auth"), api.Group("/auth", authRequired))
	NewFileHandler(fileSvc, cfg.Upload.MaxSize).
		RegisterRoutes(api.Group("/files"), api.Group("/files", authRequired))
	NewAdminHandler(adminSvc, fileSvc, linkSvc, cfg.FrontendURL, cfg.Upload.MaxSize).
		RegisterRoutes(api.Group("/admin", authRequired, middleware.AdminMiddleware()))
	NewPublicHandler(linkSvc, cfg.FrontendURL).RegisterRoutes(api.Group("/public"))

	return &env{
		router: router,
		cfg:    cfg,
		db:     db,
		users:  users,
		files:  files,
		links:  linkSvc,
		store:  store,
	}
}

func (e *env) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) upload(t *testing.T, token, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/files/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// signup creates a user directly and returns a valid token for it.
func (e *env) signup(t *testing.T, addr string, role models.UserRole) (*models.User, string) {
	t.Helper()

	hash, err := auth.HashPassword("secret1")
	require.NoError(t, err)
	user := &models.User{Email: addr, PasswordHash: hash, Role: role, IsActive: true}
	require.NoError(t, e.users.Create(user))

	token, err := auth.GenerateToken(e.cfg.JWT.Secret, user, e.cfg.JWT.TTL)
	require.NoError(t, err)
	return user, token
}

func (e *env) seedFile(t *testing.T, owner *models.User) *models.File {
	t.Helper()

	key := storage.NewKey(time.Now())
	content := []byte("seeded file body")
	require.NoError(t, e.store.Save(context.Background(), key, bytes.NewReader(content), int64(len(content)), "text/plain"))

	file := &models.File{
		UserID:       owner.ID,
		OriginalName: "seed.txt",
		StorageKey:   key,
		FileSize:     int64(len(content)),
		ContentType:  "text/plain",
		FileHash:     "cafebabe",
	}
	require.NoError(t, e.files.Create(file))
	return file
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

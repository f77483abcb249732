package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/basit/forumfiles-backend/internal/config"
	"github.com/basit/forumfiles-backend/internal/email"
	"github.com/basit/forumfiles-backend/internal/models"
	"github.com/basit/forumfiles-backend/internal/repositories"
	"github.com/basit/forumfiles-backend/internal/storage"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

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
	return db
}

func newTestStorage(t *testing.T) storage.Storage {
	t.Helper()
	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	return store
}

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Env = "development"
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.TTL = time.Hour
	cfg.Upload.MaxSize = 10 * 1024 * 1024
	cfg.Upload.AllowedTypes = config.DefaultAllowedTypes
	cfg.RateLimit.CodeCooldown = time.Minute
	cfg.FrontendURL = "http://localhost:5173"
	return cfg
}

// fakeMailer records outbound messages instead of delivering them.
type fakeMailer struct {
	sent []*email.Message
	err  error
}

func (m *fakeMailer) Send(msg *email.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func createTestUser(t *testing.T, users repositories.UserRepository, addr string, role models.UserRole) *models.User {
	t.Helper()
	user := &models.User{
		Email:        addr,
		PasswordHash: "$2a$10$invalidhashfortestingonly0000000000000000000000000000",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, users.Create(user))
	return user
}

// createTestFile writes a small blob and indexes it for ownerID.
func createTestFile(t *testing.T, files repositories.FileRepository, store storage.Storage, ownerID uuid.UUID) *models.File {
	t.Helper()

	key := storage.NewKey(time.Now())
	content := []byte("hello test content")
	require.NoError(t, store.Save(context.Background(), key, bytes.NewReader(content), int64(len(content)), "text/plain"))

	file := &models.File{
		UserID:       ownerID,
		OriginalName: "report.txt",
		StorageKey:   key,
		FileSize:     int64(len(content)),
		ContentType:  "text/plain",
		FileHash:     "deadbeef",
	}
	require.NoError(t, files.Create(file))
	return file
}

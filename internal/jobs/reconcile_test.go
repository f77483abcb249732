package jobs

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/basit/forumfiles-backend/internal/models"
	"github.com/basit/forumfiles-backend/internal/repositories"
	"github.com/basit/forumfiles-backend/internal/storage"
)

type sweepEnv struct {
	db    *gorm.DB
	links repositories.LinkRepository
	files repositories.FileRepository
	codes repositories.VerificationCodeRepository
	store storage.Storage
	rec   *Reconciler
}

func newSweepEnv(t *testing.T) *sweepEnv {
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
	))

	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	e := &sweepEnv{
		db:    db,
		links: repositories.NewLinkRepository(db),
		files: repositories.NewFileRepository(db),
		codes: repositories.NewVerificationCodeRepository(db),
		store: store,
	}
	e.rec = NewReconciler(e.links, e.files, e.codes, store)
	return e
}

func TestSweepDeactivatesExpiredLinks(t *testing.T) {
	e := newSweepEnv(t)

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	expired := &models.PublicLink{LinkCode: "expiredlinkcode0000000000000dead", Password: "1234", ExpiresAt: &past, IsActive: true}
	live := &models.PublicLink{LinkCode: "livelinkcode00000000000000000001", Password: "5678", ExpiresAt: &future, IsActive: true}
	require.NoError(t, e.links.Create(expired))
	require.NoError(t, e.links.Create(live))

	e.rec.Sweep(context.Background())

	// the expired row persists but is unreachable by code lookup
	_, err := e.links.FindActiveByCode(expired.LinkCode)
	assert.ErrorIs(t, err, repositories.ErrLinkNotFound)

	_, err = e.links.FindActiveByCode(live.LinkCode)
	assert.NoError(t, err)

	var count int64
	require.NoError(t, e.db.Model(&models.PublicLink{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestSweepReclaimsOrphanedBlobs(t *testing.T) {
	e := newSweepEnv(t)

	key := storage.NewKey(time.Now())
	require.NoError(t, e.store.Save(context.Background(), key, bytes.NewReader([]byte("bytes")), 5, "text/plain"))

	file := &models.File{OriginalName: "orphan.txt", StorageKey: key, FileSize: 5, ContentType: "text/plain", IsDeleted: true}
	require.NoError(t, e.db.Create(file).Error)

	e.rec.Sweep(context.Background())

	_, err := e.store.Open(context.Background(), key)
	assert.Error(t, err)

	// the key is cleared so the next sweep skips the row
	var stored models.File
	require.NoError(t, e.db.First(&stored, "id = ?", file.ID).Error)
	assert.Empty(t, stored.StorageKey)
	assert.True(t, stored.IsDeleted)
}

func TestSweepDropsExpiredCodes(t *testing.T) {
	e := newSweepEnv(t)

	stale := &models.VerificationCode{Email: "a@example.com", Code: "111111", ExpiresAt: time.Now().Add(-time.Hour)}
	fresh := &models.VerificationCode{Email: "b@example.com", Code: "222222", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, e.codes.Create(stale))
	require.NoError(t, e.codes.Create(fresh))

	e.rec.Sweep(context.Background())

	var count int64
	require.NoError(t, e.db.Model(&models.VerificationCode{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

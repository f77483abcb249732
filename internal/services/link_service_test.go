package services

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/basit/forumfiles-backend/internal/apperrors"
	"github.com/basit/forumfiles-backend/internal/models"
	"github.com/basit/forumfiles-backend/internal/repositories"
	"github.com/basit/forumfiles-backend/internal/storage"
)

type linkFixture struct {
	db    *gorm.DB
	svc   LinkService
	links repositories.LinkRepository
	files repositories.FileRepository
	users repositories.UserRepository
	store storage.Storage
	owner *models.User
	file  *models.File
}

func newLinkFixture(t *testing.T) *linkFixture {
	db := newTestDB(t)
	store := newTestStorage(t)

	f := &linkFixture{
		db:    db,
		links: repositories.NewLinkRepository(db),
		files: repositories.NewFileRepository(db),
		users: repositories.NewUserRepository(db),
		store: store,
	}
	f.svc = NewLinkService(f.links, f.files, store)
	f.owner = createTestUser(t, f.users, "admin@example.com", models.RoleAdmin)
	f.file = createTestFile(t, f.files, store, f.owner.ID)
	return f
}

func TestIssueLink(t *testing.T) {
	f := newLinkFixture(t)

	res, err := f.svc.Issue(f.file.ID, f.owner.ID, 24, nil)
	require.NoError(t, err)

	assert.Len(t, res.LinkCode, 32)
	assert.Regexp(t, "^[0-9a-f]{32}$", res.LinkCode)
	assert.Regexp(t, "^[0-9]{4}$", res.Password)
	require.NotNil(t, res.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), *res.ExpiresAt, time.Minute)
}

func TestIssueLinkNeverExpires(t *testing.T) {
	f := newLinkFixture(t)

	res, err := f.svc.Issue(f.file.ID, f.owner.ID, 0, nil)
	require.NoError(t, err)
	assert.Nil(t, res.ExpiresAt)
}

func TestIssueLinkInvalidExpiry(t *testing.T) {
	f := newLinkFixture(t)

	_, err := f.svc.Issue(f.file.ID, f.owner.ID, 48, nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.From(err).Code)
}

func TestIssueLinkInvalidCap(t *testing.T) {
	f := newLinkFixture(t)

	zero := int64(0)
	_, err := f.svc.Issue(f.file.ID, f.owner.ID, 24, &zero)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.From(err).Code)
}

func TestIssueLinkSoftDeletedFile(t *testing.T) {
	f := newLinkFixture(t)
	require.NoError(t, f.files.SoftDelete(f.file.ID))

	_, err := f.svc.Issue(f.file.ID, f.owner.ID, 24, nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.From(err).Code)
}

func TestIssueLinkCodesIndependent(t *testing.T) {
	f := newLinkFixture(t)

	a, err := f.svc.Issue(f.file.ID, f.owner.ID, 0, nil)
	require.NoError(t, err)
	b, err := f.svc.Issue(f.file.ID, f.owner.ID, 0, nil)
	require.NoError(t, err)

	// two links for the same file must not share a code
	assert.NotEqual(t, a.LinkCode, b.LinkCode)
}

func TestResolveActiveLink(t *testing.T) {
	f := newLinkFixture(t)
	cap := int64(5)
	res, err := f.svc.Issue(f.file.ID, f.owner.ID, 24, &cap)
	require.NoError(t, err)

	info, err := f.svc.Resolve(res.LinkCode)
	require.NoError(t, err)

	assert.Equal(t, LinkActive, info.Status)
	assert.Equal(t, "report.txt", info.Filename)
	assert.Equal(t, f.file.FileSize, info.FileSize)
	assert.True(t, info.RequiresPassword)
	assert.Equal(t, int64(0), info.DownloadCount)
	require.NotNil(t, info.MaxDownloads)
	assert.Equal(t, cap, *info.MaxDownloads)
	// the password never appears in landing metadata
	assert.NotContains(t, []string{info.Filename, info.Description, info.MimeType}, res.Password)
}

func TestResolveUnknownCode(t *testing.T) {
	f := newLinkFixture(t)

	info, err := f.svc.Resolve("0000000000000000000000000000dead")
	assert.Nil(t, info)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.From(err).Code)
}

func TestResolveDeactivatedIndistinguishableFromAbsent(t *testing.T) {
	f := newLinkFixture(t)
	res, err := f.svc.Issue(f.file.ID, f.owner.ID, 0, nil)
	require.NoError(t, err)

	link, err := f.links.FindActiveByCode(res.LinkCode)
	require.NoError(t, err)
	require.NoError(t, f.links.Deactivate(link.ID))

	_, errDeactivated := f.svc.Resolve(res.LinkCode)
	_, errAbsent := f.svc.Resolve("0000000000000000000000000000dead")

	require.Error(t, errDeactivated)
	require.Error(t, errAbsent)
	assert.Equal(t, apperrors.From(errAbsent).Code, apperrors.From(errDeactivated).Code)
	assert.Equal(t, apperrors.From(errAbsent).Message, apperrors.From(errDeactivated).Message)
}

func TestResolveExpiredStillDisclosesMetadata(t *testing.T) {
	f := newLinkFixture(t)
	res, err := f.svc.Issue(f.file.ID, f.owner.ID, 24, nil)
	require.NoError(t, err)

	expireLink(t, f, res.LinkCode)

	info, err := f.svc.Resolve(res.LinkCode)
	require.Error(t, err)
	appErr := apperrors.From(err)
	assert.Equal(t, apperrors.CodeGone, appErr.Code)
	assert.Equal(t, http.StatusGone, appErr.HTTPCode)

	require.NotNil(t, info)
	assert.Equal(t, LinkExpired, info.Status)
	assert.Equal(t, "report.txt", info.Filename)
}

func TestResolveExhausted(t *testing.T) {
	f := newLinkFixture(t)
	cap := int64(1)
	res, err := f.svc.Issue(f.file.ID, f.owner.ID, 0, &cap)
	require.NoError(t, err)

	redeemOK(t, f, res.LinkCode, res.Password)

	info, err := f.svc.Resolve(res.LinkCode)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeGone, apperrors.From(err).Code)
	require.NotNil(t, info)
	assert.Equal(t, LinkExhausted, info.Status)
	assert.Equal(t, int64(1), info.DownloadCount)
}

func TestRedeemSuccess(t *testing.T) {
	f := newLinkFixture(t)
	res, err := f.svc.Issue(f.file.ID, f.owner.ID, 24, nil)
	require.NoError(t, err)

	file, rc, err := f.svc.Redeem(context.Background(), res.LinkCode, res.Password)
	require.NoError(t, err)
	defer rc.Close()

	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello test content", string(content))
	assert.Equal(t, f.file.ID, file.ID)

	// both counters advanced
	link, err := f.links.FindActiveByCode(res.LinkCode)
	require.NoError(t, err)
	assert.Equal(t, int64(1), link.DownloadCount)

	stored, err := f.files.FindByID(f.file.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.DownloadCount)
}

func TestRedeemWrongPassword(t *testing.T) {
	f := newLinkFixture(t)
	res, err := f.svc.Issue(f.file.ID, f.owner.ID, 0, nil)
	require.NoError(t, err)

	wrong := "0000"
	if res.Password == wrong {
		wrong = "0001"
	}

	_, _, err = f.svc.Redeem(context.Background(), res.LinkCode, wrong)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidLinkPassword, apperrors.From(err).Code)

	// a failed attempt consumes nothing
	link, err := f.links.FindActiveByCode(res.LinkCode)
	require.NoError(t, err)
	assert.Equal(t, int64(0), link.DownloadCount)
}

func TestRedeemExpired(t *testing.T) {
	f := newLinkFixture(t)
	res, err := f.svc.Issue(f.file.ID, f.owner.ID, 24, nil)
	require.NoError(t, err)

	expireLink(t, f, res.LinkCode)

	_, _, err = f.svc.Redeem(context.Background(), res.LinkCode, res.Password)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeGone, apperrors.From(err).Code)
}

// Expiry wins over a wrong password: state checks run before the password
// compare, so a dead link leaks nothing about its secret.
func TestRedeemExpiredBeforePasswordCheck(t *testing.T) {
	f := newLinkFixture(t)
	res, err := f.svc.Issue(f.file.ID, f.owner.ID, 24, nil)
	require.NoError(t, err)

	expireLink(t, f, res.LinkCode)

	_, _, err = f.svc.Redeem(context.Background(), res.LinkCode, "wrong")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeGone, apperrors.From(err).Code)
}

func TestRedeemCapEnforcedExactly(t *testing.T) {
	f := newLinkFixture(t)
	cap := int64(3)
	res, err := f.svc.Issue(f.file.ID, f.owner.ID, 0, &cap)
	require.NoError(t, err)

	succeeded := 0
	for i := 0; i < 10; i++ {
		_, rc, err := f.svc.Redeem(context.Background(), res.LinkCode, res.Password)
		if err == nil {
			io.Copy(io.Discard, rc) //nolint:errcheck
			rc.Close()
			succeeded++
			continue
		}
		assert.Equal(t, apperrors.CodeGone, apperrors.From(err).Code)
	}
	assert.Equal(t, int(cap), succeeded)

	link, err := f.links.FindActiveByCode(res.LinkCode)
	require.NoError(t, err)
	assert.Equal(t, cap, link.DownloadCount)
}

func TestRedeemSoftDeletedFile(t *testing.T) {
	f := newLinkFixture(t)
	res, err := f.svc.Issue(f.file.ID, f.owner.ID, 0, nil)
	require.NoError(t, err)

	require.NoError(t, f.files.SoftDelete(f.file.ID))

	_, _, err = f.svc.Redeem(context.Background(), res.LinkCode, res.Password)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.From(err).Code)
}

func TestRedeemMissingBlob(t *testing.T) {
	f := newLinkFixture(t)
	res, err := f.svc.Issue(f.file.ID, f.owner.ID, 0, nil)
	require.NoError(t, err)

	require.NoError(t, f.store.Delete(context.Background(), f.file.StorageKey))

	_, _, err = f.svc.Redeem(context.Background(), res.LinkCode, res.Password)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.From(err).Code)

	// nothing was claimed
	link, err := f.links.FindActiveByCode(res.LinkCode)
	require.NoError(t, err)
	assert.Equal(t, int64(0), link.DownloadCount)
}

func TestClaimRedemptionAtomicUnderConcurrency(t *testing.T) {
	f := newLinkFixture(t)
	cap := int64(2)
	res, err := f.svc.Issue(f.file.ID, f.owner.ID, 0, &cap)
	require.NoError(t, err)

	link, err := f.links.FindActiveByCode(res.LinkCode)
	require.NoError(t, err)

	claimed := 0
	for i := 0; i < 5; i++ {
		ok, err := f.links.ClaimRedemption(link.ID, f.file.ID)
		require.NoError(t, err)
		if ok {
			claimed++
		}
	}
	// the conditional update admits exactly cap claims no matter how many
	// are attempted against the same snapshot
	assert.Equal(t, int(cap), claimed)
}

// expireLink backdates the expiry so the link is dead but still flagged
// active, the state before the hourly sweep catches it.
func expireLink(t *testing.T, f *linkFixture, code string) {
	t.Helper()
	past := time.Now().Add(-time.Hour)
	err := f.db.Model(&models.PublicLink{}).
		Where("link_code = ?", code).
		Update("expires_at", past).Error
	require.NoError(t, err)
}

func redeemOK(t *testing.T, f *linkFixture, code, password string) {
	t.Helper()
	_, rc, err := f.svc.Redeem(context.Background(), code, password)
	require.NoError(t, err)
	io.Copy(io.Discard, rc) //nolint:errcheck
	rc.Close()
}

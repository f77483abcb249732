package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/basit/forumfiles-backend/internal/apperrors"
	"github.com/basit/forumfiles-backend/internal/logger"
	"github.com/basit/forumfiles-backend/internal/models"
	"github.com/basit/forumfiles-backend/internal/repositories"
	"github.com/basit/forumfiles-backend/internal/storage"
)

// LinkStatus is the landing-page state of a public link.
type LinkStatus string

const (
	LinkActive    LinkStatus = "active"
	LinkExpired   LinkStatus = "expired"
	LinkExhausted LinkStatus = "exhausted"
)

// codeBytes gives 128 bits of entropy, 32 hex characters on the wire.
const codeBytes = 16

// codeRetries bounds the collision-retry loop. A collision needs two equal
// 128-bit random values, so one retry is already overkill; the loop exists so
// a collision is handled rather than assumed away.
const codeRetries = 3

// linkExpiryHours is the enumerated set of issuable lifetimes.
var linkExpiryHours = map[int]time.Duration{
	0:   0, // never expires
	24:  24 * time.Hour,
	72:  72 * time.Hour,
	168: 168 * time.Hour,
}

// IssueResult is returned to the issuing admin. This response is the only
// place the password is ever disclosed; it must not be logged.
type IssueResult struct {
	LinkCode  string
	Password  string
	ExpiresAt *time.Time
}

// LinkInfo is the redacted landing-page view of a link.
type LinkInfo struct {
	Status           LinkStatus `json:"status"`
	Filename         string     `json:"filename"`
	Description      string     `json:"description"`
	FileSize         int64      `json:"fileSize"`
	MimeType         string     `json:"mimeType"`
	RequiresPassword bool       `json:"requiresPassword"`
	ExpiresAt        *time.Time `json:"expiresAt"`
	DownloadCount    int64      `json:"downloadCount"`
	MaxDownloads     *int64     `json:"maxDownloads"`
}

type LinkService interface {
	// Issue creates a link for the file. expiresIn is one of 0, 24, 72 or
	// 168 hours; the absolute expiry is fixed at issuance time.
	Issue(fileID, createdBy uuid.UUID, expiresIn int, maxDownloads *int64) (*IssueResult, error)
	// Resolve returns landing-page metadata. Nonexistent and deactivated
	// codes are indistinguishable (NotFound); expired and exhausted links
	// return their info alongside a Gone error so the page can say why.
	Resolve(code string) (*LinkInfo, error)
	// Redeem validates the code/password pair against every link
	// constraint, consumes one download, and returns the file bytes.
	Redeem(ctx context.Context, code, password string) (*models.File, io.ReadCloser, error)
}

type linkService struct {
	links repositories.LinkRepository
	files repositories.FileRepository
	store storage.Storage
}

func NewLinkService(links repositories.LinkRepository, files repositories.FileRepository, store storage.Storage) LinkService {
	return &linkService{links: links, files: files, store: store}
}

func (s *linkService) Issue(fileID, createdBy uuid.UUID, expiresIn int, maxDownloads *int64) (*IssueResult, error) {
	ttl, ok := linkExpiryHours[expiresIn]
	if !ok {
		return nil, apperrors.ValidationError("expiresIn must be one of 0, 24, 72 or 168 hours")
	}
	if maxDownloads != nil && *maxDownloads <= 0 {
		return nil, apperrors.ValidationError("maxDownloads must be a positive integer")
	}

	if _, err := s.files.FindByID(fileID); err != nil {
		if apperrors.Is(err, repositories.ErrFileNotFound) {
			return nil, apperrors.NotFound("File not found")
		}
		return nil, apperrors.InternalError(err)
	}

	password, err := randomDigits(4)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	var expiresAt *time.Time
	if ttl > 0 {
		t := time.Now().Add(ttl)
		expiresAt = &t
	}

	// uniqueness is enforced by the store; regenerate on the (astronomically
	// rare) collision instead of assuming it away
	for attempt := 0; attempt < codeRetries; attempt++ {
		code, err := randomCode()
		if err != nil {
			return nil, apperrors.InternalError(err)
		}

		link := &models.PublicLink{
			FileID:       fileID,
			LinkCode:     code,
			Password:     password,
			CreatedBy:    createdBy,
			ExpiresAt:    expiresAt,
			MaxDownloads: maxDownloads,
			IsActive:     true,
		}

		err = s.links.Create(link)
		if err == nil {
			logger.Info("public link issued", "file_id", fileID)
			return &IssueResult{LinkCode: code, Password: password, ExpiresAt: expiresAt}, nil
		}
		if !apperrors.Is(err, repositories.ErrLinkCodeCollision) {
			return nil, apperrors.InternalError(err)
		}
	}

	return nil, apperrors.Conflict("Failed to generate a unique link code")
}

func (s *linkService) Resolve(code string) (*LinkInfo, error) {
	link, err := s.links.FindActiveByCode(code)
	if err != nil {
		if apperrors.Is(err, repositories.ErrLinkNotFound) {
			return nil, apperrors.NotFound("Link not found or expired")
		}
		return nil, apperrors.InternalError(err)
	}

	file, err := s.files.FindByID(link.FileID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrFileNotFound) {
			return nil, apperrors.NotFound("File not found")
		}
		return nil, apperrors.InternalError(err)
	}

	info := &LinkInfo{
		Status:           LinkActive,
		Filename:         file.OriginalName,
		Description:      file.Description,
		FileSize:         file.FileSize,
		MimeType:         file.ContentType,
		RequiresPassword: true,
		ExpiresAt:        link.ExpiresAt,
		DownloadCount:    link.DownloadCount,
		MaxDownloads:     link.MaxDownloads,
	}

	// unlike redeem, the landing page distinguishes a dead-but-real link
	// from a nonexistent one so it can explain why the link stopped working
	if link.Expired(time.Now()) {
		info.Status = LinkExpired
		return info, apperrors.Gone("Link has expired")
	}
	if link.Exhausted() {
		info.Status = LinkExhausted
		return info, apperrors.Gone("Download limit reached")
	}

	return info, nil
}

func (s *linkService) Redeem(ctx context.Context, code, password string) (*models.File, io.ReadCloser, error) {
	// (1) link exists and is active
	link, err := s.links.FindActiveByCode(code)
	if err != nil {
		if apperrors.Is(err, repositories.ErrLinkNotFound) {
			return nil, nil, apperrors.NotFound("Link not found or expired")
		}
		return nil, nil, apperrors.InternalError(err)
	}

	// (2) not expired, absolute-time compare
	if link.Expired(time.Now()) {
		return nil, nil, apperrors.Gone("Link has expired")
	}

	// (3) not exhausted
	if link.Exhausted() {
		return nil, nil, apperrors.Gone("Download limit reached")
	}

	// (4) password matches; constant-time since the secret is short
	if subtle.ConstantTimeCompare([]byte(password), []byte(link.Password)) != 1 {
		return nil, nil, apperrors.ErrInvalidLinkPass
	}

	// (5) bound file exists and is not soft-deleted
	file, err := s.files.FindByID(link.FileID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrFileNotFound) {
			return nil, nil, apperrors.NotFound("File not found")
		}
		return nil, nil, apperrors.InternalError(err)
	}

	// (6) physical bytes are retrievable
	rc, err := s.store.Open(ctx, file.StorageKey)
	if err != nil {
		return nil, nil, apperrors.NotFound("File not found on server")
	}

	// claim one cap unit and bump both counters as one logical unit; the
	// conditional update loses the race cleanly when concurrent redemptions
	// exceed the cap between the snapshot above and here
	claimed, err := s.links.ClaimRedemption(link.ID, file.ID)
	if err != nil {
		rc.Close()
		return nil, nil, apperrors.InternalError(err)
	}
	if !claimed {
		rc.Close()
		return nil, nil, apperrors.Gone("Download limit reached")
	}

	// a stream failure past this point leaves the counters one ahead; the
	// over-count is accepted rather than compensated
	return file, rc, nil
}

func randomCode() (string, error) {
	buf := make([]byte, codeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate link code: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

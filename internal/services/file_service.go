package services

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/basit/forumfiles-backend/internal/apperrors"
	"github.com/basit/forumfiles-backend/internal/logger"
	"github.com/basit/forumfiles-backend/internal/models"
	"github.com/basit/forumfiles-backend/internal/repositories"
	"github.com/basit/forumfiles-backend/internal/storage"
	"github.com/basit/forumfiles-backend/internal/upload"
)

// UploadInput carries a validated-to-be upload into the file service.
type UploadInput struct {
	OwnerID     uuid.UUID
	Filename    string
	Description string
	Structured  bool
	IsPublic    bool
	Content     []byte
}

type FileService interface {
	Upload(ctx context.Context, in *UploadInput) (*models.File, error)
	ListMine(ownerID uuid.UUID, page, limit int) ([]models.File, int64, error)
	// Get enforces ownership: a caller who is not the owner gets Forbidden,
	// not NotFound.
	Get(callerID, fileID uuid.UUID) (*models.File, error)
	Download(ctx context.Context, callerID, fileID uuid.UUID) (*models.File, io.ReadCloser, error)
	// Delete soft-deletes the index row. Physical removal is best-effort
	// and never rolls the flag back.
	Delete(ctx context.Context, callerID, fileID uuid.UUID) error
	ListPublic() ([]models.File, error)
	DownloadPublic(ctx context.Context, fileID uuid.UUID) (*models.File, io.ReadCloser, error)
}

type fileService struct {
	files     repositories.FileRepository
	store     storage.Storage
	validator *upload.Validator
}

func NewFileService(files repositories.FileRepository, store storage.Storage, validator *upload.Validator) FileService {
	return &fileService{files: files, store: store, validator: validator}
}

func (s *fileService) Upload(ctx context.Context, in *UploadInput) (*models.File, error) {
	if len(in.Content) == 0 {
		return nil, apperrors.ValidationError("No file uploaded")
	}

	result, err := s.validator.Validate(in.Content, in.Filename)
	if err != nil {
		return nil, err
	}

	key := storage.NewKey(time.Now())
	if err := s.store.Save(ctx, key, bytes.NewReader(in.Content), result.Size, result.MimeType); err != nil {
		return nil, apperrors.InternalError(err)
	}

	file := &models.File{
		UserID:       in.OwnerID,
		OriginalName: result.SanitizedFilename,
		Description:  in.Description,
		Structured:   in.Structured,
		StorageKey:   key,
		FileSize:     result.Size,
		ContentType:  result.MimeType,
		FileHash:     result.Hash,
		IsPublic:     in.IsPublic,
	}

	if err := s.files.Create(file); err != nil {
		// the blob is orphaned; reclaim it rather than leave it behind
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			logger.WithError(delErr).Warn("failed to remove orphaned blob", "key", key)
		}
		return nil, apperrors.InternalError(err)
	}

	return file, nil
}

func (s *fileService) ListMine(ownerID uuid.UUID, page, limit int) ([]models.File, int64, error) {
	files, total, err := s.files.ListByOwner(ownerID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, apperrors.InternalError(err)
	}
	return files, total, nil
}

func (s *fileService) Get(callerID, fileID uuid.UUID) (*models.File, error) {
	file, err := s.files.FindByID(fileID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrFileNotFound) {
			return nil, apperrors.NotFound("File not found")
		}
		return nil, apperrors.InternalError(err)
	}
	if file.UserID != callerID {
		return nil, apperrors.Forbidden("Access denied")
	}
	return file, nil
}

func (s *fileService) Download(ctx context.Context, callerID, fileID uuid.UUID) (*models.File, io.ReadCloser, error) {
	file, err := s.Get(callerID, fileID)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.store.Open(ctx, file.StorageKey)
	if err != nil {
		return nil, nil, apperrors.NotFound("File not found on server")
	}

	if err := s.files.IncrementDownloadCount(file.ID); err != nil {
		rc.Close()
		return nil, nil, apperrors.InternalError(err)
	}
	file.DownloadCount++

	return file, rc, nil
}

func (s *fileService) Delete(ctx context.Context, callerID, fileID uuid.UUID) error {
	file, err := s.Get(callerID, fileID)
	if err != nil {
		return err
	}

	if err := s.files.SoftDelete(file.ID); err != nil {
		if apperrors.Is(err, repositories.ErrFileNotFound) {
			return apperrors.NotFound("File not found")
		}
		return apperrors.InternalError(err)
	}

	// index visibility and blob lifecycle are separate transitions; a blob
	// failure here is retried later by reconciliation
	if err := s.store.Delete(ctx, file.StorageKey); err != nil {
		logger.WithError(err).Warn("failed to remove blob, reconciliation will retry", "key", file.StorageKey)
	} else if err := s.files.MarkBlobReclaimed(file.ID); err != nil {
		logger.WithError(err).Warn("failed to mark blob reclaimed", "file_id", file.ID)
	}

	return nil
}

func (s *fileService) ListPublic() ([]models.File, error) {
	files, err := s.files.ListPublic()
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return files, nil
}

func (s *fileService) DownloadPublic(ctx context.Context, fileID uuid.UUID) (*models.File, io.ReadCloser, error) {
	file, err := s.files.FindPublicByID(fileID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrFileNotFound) {
			return nil, nil, apperrors.NotFound("File not found")
		}
		return nil, nil, apperrors.InternalError(err)
	}

	rc, err := s.store.Open(ctx, file.StorageKey)
	if err != nil {
		return nil, nil, apperrors.NotFound("File not found on server")
	}

	if err := s.files.IncrementDownloadCount(file.ID); err != nil {
		rc.Close()
		return nil, nil, apperrors.InternalError(err)
	}
	file.DownloadCount++

	return file, rc, nil
}

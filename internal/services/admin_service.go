package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/basit/forumfiles-backend/internal/apperrors"
	"github.com/basit/forumfiles-backend/internal/config"
	"github.com/basit/forumfiles-backend/internal/email"
	"github.com/basit/forumfiles-backend/internal/logger"
	"github.com/basit/forumfiles-backend/internal/models"
	"github.com/basit/forumfiles-backend/internal/repositories"
	"github.com/basit/forumfiles-backend/internal/services/dto"
	"github.com/basit/forumfiles-backend/internal/storage"
)

type AdminService interface {
	ListUsers(page, limit int, search string) ([]dto.AdminUserInfo, int64, error)
	// SetUserActive flips the active flag. An admin cannot deactivate their
	// own account.
	SetUserActive(actorID, targetID uuid.UUID, active bool) error
	// DeleteUser removes the account and soft-deletes every file it owns.
	// Self-deletion is blocked.
	DeleteUser(actorID, targetID uuid.UUID) (*models.User, error)
	MakeAdmin(targetID uuid.UUID) (*models.User, error)
	// RemoveAdmin demotes an admin. Self-demotion is blocked.
	RemoveAdmin(actorID, targetID uuid.UUID) (*models.User, error)
	ListAdmins() ([]models.User, error)
	ListFiles(page, limit int, filter repositories.FileFilter) ([]models.File, int64, error)
	DeleteFile(ctx context.Context, fileID uuid.UUID) error
	DeletePublicFile(ctx context.Context, fileID uuid.UUID) error
	// ShareFile records the share and emails the recipient a download link.
	ShareFile(actorID uuid.UUID, req *dto.ShareFileRequest) error
}

type adminService struct {
	users  repositories.UserRepository
	files  repositories.FileRepository
	shares repositories.FileShareRepository
	store  storage.Storage
	mailer email.Provider
	cfg    *config.Config
}

func NewAdminService(
	users repositories.UserRepository,
	files repositories.FileRepository,
	shares repositories.FileShareRepository,
	store storage.Storage,
	mailer email.Provider,
	cfg *config.Config,
) AdminService {
	return &adminService{users: users, files: files, shares: shares, store: store, mailer: mailer, cfg: cfg}
}

func (s *adminService) ListUsers(page, limit int, search string) ([]dto.AdminUserInfo, int64, error) {
	users, total, err := s.users.FindAll(limit, (page-1)*limit, search)
	if err != nil {
		return nil, 0, apperrors.InternalError(err)
	}

	infos := make([]dto.AdminUserInfo, 0, len(users))
	for i := range users {
		stats, err := s.users.StatsFor(users[i].ID)
		if err != nil {
			return nil, 0, apperrors.InternalError(err)
		}
		infos = append(infos, dto.AdminUserInfo{
			UserInfo:      dto.NewUserInfo(&users[i]),
			FilesCount:    stats.FilesCount,
			TotalFileSize: stats.TotalFileSize,
			CreatedAt:     users[i].CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return infos, total, nil
}

func (s *adminService) SetUserActive(actorID, targetID uuid.UUID, active bool) error {
	if !active && actorID == targetID {
		return apperrors.ValidationError("Cannot deactivate your own account")
	}

	if err := s.users.UpdateActive(targetID, active); err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.NotFound("User not found")
		}
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *adminService) DeleteUser(actorID, targetID uuid.UUID) (*models.User, error) {
	if actorID == targetID {
		return nil, apperrors.ValidationError("Cannot delete your own account")
	}

	user, err := s.users.FindByID(targetID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NotFound("User not found")
		}
		return nil, apperrors.InternalError(err)
	}

	// owned files become invisible everywhere; rows stay for audit
	if err := s.files.SoftDeleteByOwner(targetID); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := s.users.Delete(targetID); err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.Info("user deleted", "email", user.Email, "by", actorID)
	return user, nil
}

func (s *adminService) MakeAdmin(targetID uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(targetID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NotFound("User not found")
		}
		return nil, apperrors.InternalError(err)
	}

	if err := s.users.UpdateRole(targetID, models.RoleAdmin); err != nil {
		return nil, apperrors.InternalError(err)
	}
	user.Role = models.RoleAdmin
	return user, nil
}

func (s *adminService) RemoveAdmin(actorID, targetID uuid.UUID) (*models.User, error) {
	if actorID == targetID {
		return nil, apperrors.ValidationError("Cannot remove your own admin role")
	}

	user, err := s.users.FindByID(targetID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NotFound("User not found")
		}
		return nil, apperrors.InternalError(err)
	}

	if err := s.users.UpdateRole(targetID, models.RoleUser); err != nil {
		return nil, apperrors.InternalError(err)
	}
	user.Role = models.RoleUser
	return user, nil
}

func (s *adminService) ListAdmins() ([]models.User, error) {
	admins, err := s.users.FindAdmins()
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return admins, nil
}

func (s *adminService) ListFiles(page, limit int, filter repositories.FileFilter) ([]models.File, int64, error) {
	files, total, err := s.files.ListAll(limit, (page-1)*limit, filter)
	if err != nil {
		return nil, 0, apperrors.InternalError(err)
	}
	return files, total, nil
}

func (s *adminService) DeleteFile(ctx context.Context, fileID uuid.UUID) error {
	return s.softDeleteWithBlob(ctx, fileID, false)
}

func (s *adminService) DeletePublicFile(ctx context.Context, fileID uuid.UUID) error {
	return s.softDeleteWithBlob(ctx, fileID, true)
}

func (s *adminService) softDeleteWithBlob(ctx context.Context, fileID uuid.UUID, publicOnly bool) error {
	var (
		file *models.File
		err  error
	)
	if publicOnly {
		file, err = s.files.FindPublicByID(fileID)
	} else {
		file, err = s.files.FindByID(fileID)
	}
	if err != nil {
		if apperrors.Is(err, repositories.ErrFileNotFound) {
			return apperrors.NotFound("File not found")
		}
		return apperrors.InternalError(err)
	}

	if err := s.files.SoftDelete(file.ID); err != nil {
		return apperrors.InternalError(err)
	}

	if err := s.store.Delete(ctx, file.StorageKey); err != nil {
		logger.WithError(err).Warn("failed to remove blob, reconciliation will retry", "key", file.StorageKey)
	} else if err := s.files.MarkBlobReclaimed(file.ID); err != nil {
		logger.WithError(err).Warn("failed to mark blob reclaimed", "file_id", file.ID)
	}
	return nil
}

func (s *adminService) ShareFile(actorID uuid.UUID, req *dto.ShareFileRequest) error {
	if err := validate.Var(req.RecipientEmail, "required,email"); err != nil {
		return apperrors.ErrInvalidEmail
	}

	fileID, err := uuid.Parse(req.FileID)
	if err != nil {
		return apperrors.ValidationError("Invalid file ID")
	}

	file, err := s.files.FindByID(fileID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrFileNotFound) {
			return apperrors.NotFound("File not found")
		}
		return apperrors.InternalError(err)
	}

	share := &models.FileShare{
		FileID:         file.ID,
		SharedBy:       actorID,
		RecipientEmail: req.RecipientEmail,
		Message:        req.Message,
	}
	if err := s.shares.Create(share); err != nil {
		return apperrors.InternalError(err)
	}

	downloadURL := fmt.Sprintf("%s/admin/file/%s/download", s.cfg.FrontendURL, file.ID)
	msg, err := email.FileShareMessage(req.RecipientEmail, file.OriginalName, downloadURL, req.Message)
	if err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.mailer.Send(msg); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "Failed to share file", 500)
	}

	return nil
}

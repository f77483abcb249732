package jobs

import (
	"context"
	"time"

	"github.com/basit/forumfiles-backend/internal/logger"
	"github.com/basit/forumfiles-backend/internal/repositories"
	"github.com/basit/forumfiles-backend/internal/storage"
)

const reclaimBatchSize = 100

// Reconciler is the hourly background sweep. It deactivates expired links,
// retries blob removal for soft-deleted files whose best-effort delete
// failed, and drops stale verification codes. The soft-delete index stays
// authoritative throughout; this job only catches the storage layer up.
type Reconciler struct {
	links repositories.LinkRepository
	files repositories.FileRepository
	codes repositories.VerificationCodeRepository
	store storage.Storage
}

func NewReconciler(
	links repositories.LinkRepository,
	files repositories.FileRepository,
	codes repositories.VerificationCodeRepository,
	store storage.Storage,
) *Reconciler {
	return &Reconciler{links: links, files: files, codes: codes, store: store}
}

// Start runs the sweep every hour until ctx is cancelled.
func (r *Reconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Hour)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Sweep(ctx)
			}
		}
	}()
}

func (r *Reconciler) Sweep(ctx context.Context) {
	now := time.Now()

	if n, err := r.links.DeactivateExpired(now); err != nil {
		logger.WithError(err).Error("failed to deactivate expired links")
	} else if n > 0 {
		logger.Info("deactivated expired links", "count", n)
	}

	r.reclaimBlobs(ctx)

	if n, err := r.codes.DeleteExpired(now); err != nil {
		logger.WithError(err).Error("failed to delete expired verification codes")
	} else if n > 0 {
		logger.Info("deleted expired verification codes", "count", n)
	}
}

func (r *Reconciler) reclaimBlobs(ctx context.Context) {
	files, err := r.files.ListDeletedKeys(reclaimBatchSize)
	if err != nil {
		logger.WithError(err).Error("failed to list reclaimable blobs")
		return
	}

	for i := range files {
		f := &files[i]
		if err := r.store.Delete(ctx, f.StorageKey); err != nil {
			logger.WithError(err).Warn("blob removal failed, will retry next sweep", "key", f.StorageKey)
			continue
		}
		if err := r.files.MarkBlobReclaimed(f.ID); err != nil {
			logger.WithError(err).Warn("failed to mark blob reclaimed", "file_id", f.ID)
		}
	}
	if len(files) > 0 {
		logger.Info("blob reclamation pass finished", "candidates", len(files))
	}
}

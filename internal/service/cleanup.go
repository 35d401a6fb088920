package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/blog-api/pkg/jobs"
	"github.com/noah-isme/blog-api/pkg/storage"
)

const jobTypeBannerCleanup = "banner_cleanup"

// BannerCleanup removes orphaned banner files off the request path. Deletes
// run through the shared job queue so a slow disk never blocks a response.
type BannerCleanup struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewBannerCleanup builds the cleanup worker on top of a job queue.
func NewBannerCleanup(store *storage.LocalStorage, cfg jobs.QueueConfig) *BannerCleanup {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	handler := func(ctx context.Context, job jobs.Job) error {
		for _, p := range job.Paths {
			if err := store.Delete(p); err != nil {
				return err
			}
		}
		logger.Debug("banner files removed", zap.Int("count", len(job.Paths)))
		return nil
	}

	return &BannerCleanup{
		queue:  jobs.NewQueue(jobTypeBannerCleanup, handler, cfg),
		logger: logger,
	}
}

// Start begins background processing.
func (b *BannerCleanup) Start(ctx context.Context) {
	b.queue.Start(ctx)
}

// Stop drains the workers.
func (b *BannerCleanup) Stop() {
	b.queue.Stop()
}

// EnqueueCleanup schedules removal of the given stored file paths.
func (b *BannerCleanup) EnqueueCleanup(paths []string) {
	if len(paths) == 0 {
		return
	}
	job := jobs.Job{ID: uuid.NewString(), Paths: paths}
	if err := b.queue.Enqueue(job); err != nil {
		b.logger.Warn("failed to enqueue banner cleanup", zap.Error(err))
	}
}

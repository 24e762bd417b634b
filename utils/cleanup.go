package utils

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cppla/idportal/models"
)

const cleanerBatchSize = 100

// StagedUploadSweeper is the storage side of the staged upload cleaner.
type StagedUploadSweeper interface {
	ListExpired(ctx context.Context, before time.Time, limit int) ([]models.StagedUpload, error)
	// Attached reports whether an application row exists for applicationID.
	Attached(ctx context.Context, applicationID string) (bool, error)
	Delete(ctx context.Context, id uint) error
}

// ObjectDeleter removes an object from storage.
type ObjectDeleter interface {
	Delete(ctx context.Context, key string) error
}

// SweepStagedUploads deletes the objects of expired staged uploads and then their rows.
// Objects of an application that was committed are kept and only the leftover row goes.
// A row whose ownership cannot be checked is left for the next sweep. Otherwise rows are
// removed regardless of the object delete outcome. It returns the number of rows handled.
func SweepStagedUploads(ctx context.Context, repo StagedUploadSweeper, store ObjectDeleter, now time.Time) int {
	items, err := repo.ListExpired(ctx, now, cleanerBatchSize)
	if err != nil {
		Sugar.Warnw("upload cleaner query failed", "error", err)
		return 0
	}
	handled := 0
	for _, it := range items {
		attached, err := repo.Attached(ctx, it.ApplicationID)
		if err != nil {
			Sugar.Warnw("upload cleaner ownership check failed", "id", it.ID, "application_id", it.ApplicationID, "error", err)
			continue
		}
		if !attached && it.ObjectKey != "" {
			if err := store.Delete(ctx, it.ObjectKey); err != nil {
				Sugar.Warnw("upload cleaner delete object failed", "key", it.ObjectKey, "error", err)
			}
		}
		handled++
		if err := repo.Delete(ctx, it.ID); err != nil {
			Sugar.Warnw("upload cleaner delete row failed", "id", it.ID, "error", err)
		}
	}
	if handled > 0 {
		Sugar.Infow("upload cleaner swept staged uploads", "count", handled)
	}
	return handled
}

// StartUploadCleaner schedules SweepStagedUploads on spec (cron syntax, e.g. "@every 5m").
// The returned cron must be stopped on shutdown.
func StartUploadCleaner(spec string, repo StagedUploadSweeper, store ObjectDeleter) (*cron.Cron, error) {
	if spec == "" {
		spec = "@every 5m"
	}
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		SweepStagedUploads(ctx, repo, store, time.Now())
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

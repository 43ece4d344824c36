package service

import (
	"bitwise74/file-share-api/internal/metrics"
	"bitwise74/file-share-api/internal/model"
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// S3 can delete at most 1000 objects in one request
const deleteBatchSize = 1000

// ObjectCleanup removes objects whose file rows were deleted. Rows are only
// dropped after the bucket confirmed the delete, so a failed run is retried
// on the next tick.
type ObjectCleanup struct {
	db      *gorm.DB
	store   ObjectStore
	timeout time.Duration
	metrics *metrics.Metrics
}

func NewObjectCleanup(db *gorm.DB, s ObjectStore, timeout time.Duration, m *metrics.Metrics) *ObjectCleanup {
	return &ObjectCleanup{
		db:      db,
		store:   s,
		timeout: timeout,
		metrics: m,
	}
}

// Run deletes up to one batch of orphaned objects and returns how many were removed
func (o *ObjectCleanup) Run(ctx context.Context) (int, error) {
	var orphans []model.OrphanObject

	err := o.db.WithContext(ctx).
		Order("id asc").
		Limit(deleteBatchSize).
		Find(&orphans).
		Error
	if err != nil {
		return 0, dbErr("list orphans", err)
	}

	if len(orphans) == 0 {
		return 0, nil
	}

	keys := make([]string, len(orphans))
	ids := make([]uint, len(orphans))
	for i, orphan := range orphans {
		keys[i] = orphan.StorageKey
		ids[i] = orphan.ID
	}

	sctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	if err := o.store.Delete(sctx, keys...); err != nil {
		return 0, depErr("delete objects", err)
	}

	if err := o.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.OrphanObject{}).Error; err != nil {
		return 0, dbErr("forget orphans", err)
	}

	o.metrics.OrphansRemoved.Add(float64(len(orphans)))
	return len(orphans), nil
}

// Job adapts Run for the scheduler
func (o *ObjectCleanup) Job() {
	ctx, cancel := context.WithTimeout(context.Background(), o.timeout*2)
	defer cancel()

	n, err := o.Run(ctx)
	if err != nil {
		zap.L().Error("Failed to cleanup orphaned objects", zap.Error(err))
		return
	}

	if n > 0 {
		zap.L().Debug("Orphaned objects removed", zap.Int("count", n))
	}
}

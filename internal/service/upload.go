package service

import (
	"bitwise74/file-share-api/internal/metrics"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Uploader writes file contents to object storage under a key that is never
// reused, so two uploads with the same name by the same owner don't collide
type Uploader struct {
	store   ObjectStore
	timeout time.Duration
	metrics *metrics.Metrics
}

func NewUploader(s ObjectStore, timeout time.Duration, m *metrics.Metrics) *Uploader {
	return &Uploader{
		store:   s,
		timeout: timeout,
		metrics: m,
	}
}

// StorageKey builds the object key for an upload of name by ownerID
func StorageKey(ownerID, name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	return fmt.Sprintf("%s/%s_%s", ownerID, uuid.NewString(), base)
}

// Do stores body and returns the key it was stored under. The call is bounded
// by the uploader timeout on top of whatever deadline ctx already carries.
func (u *Uploader) Do(ctx context.Context, ownerID, name string, body io.Reader, size int64, contentType string) (string, error) {
	key := StorageKey(ownerID, name)

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	if err := u.store.Put(ctx, key, body, size, contentType); err != nil {
		return "", depErr("put object", err)
	}

	u.metrics.BytesUploaded.Add(float64(size))
	zap.L().Debug("Object stored", zap.String("key", key), zap.Int64("size", size))

	return key, nil
}

// Discard removes an object that was stored but never recorded
func (u *Uploader) Discard(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), u.timeout)
	defer cancel()

	if err := u.store.Delete(ctx, key); err != nil {
		zap.L().Error("Failed to cleanup after failed upload", zap.String("key", key), zap.Error(err))
		return
	}

	zap.L().Debug("Cleaned up after failed upload", zap.String("key", key))
}

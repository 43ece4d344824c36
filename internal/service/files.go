package service

import (
	"bitwise74/file-share-api/internal/metrics"
	"bitwise74/file-share-api/internal/model"
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Files is the registry of uploaded files and their owners
type Files struct {
	db         *gorm.DB
	store      ObjectStore
	uploader   *Uploader
	presignTTL time.Duration
	timeout    time.Duration
	metrics    *metrics.Metrics
	now        func() time.Time
}

func NewFiles(db *gorm.DB, s ObjectStore, u *Uploader, presignTTL, timeout time.Duration, m *metrics.Metrics) *Files {
	return &Files{
		db:         db,
		store:      s,
		uploader:   u,
		presignTTL: presignTTL,
		timeout:    timeout,
		metrics:    m,
		now:        utcNow,
	}
}

// Listing is everything a user can see: files they own with the shares on
// them, and shares other owners granted to them
type Listing struct {
	Owned  []model.File
	Shared []model.Share
}

// Create records a stored object as a file owned by ownerID
func (f *Files) Create(ctx context.Context, ownerID, filename, storageKey string, size int64) (*model.File, error) {
	if filename == "" || storageKey == "" || size < 0 {
		return nil, fmt.Errorf("file: %w", ErrValidation)
	}

	now := f.now()
	file := &model.File{
		UserID:       ownerID,
		StorageKey:   storageKey,
		Filename:     filename,
		Size:         size,
		UploadTime:   now,
		LastModified: now,
	}

	err := f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner int64
		if err := tx.Model(model.User{}).Where("id = ?", ownerID).Count(&owner).Error; err != nil {
			return err
		}

		if owner == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Omit(clause.Associations).Create(file).Error; err != nil {
			return err
		}

		return tx.
			Model(model.Stats{}).
			Where("user_id = ?", ownerID).
			Updates(map[string]any{
				"used_storage":   gorm.Expr("used_storage + ?", size),
				"uploaded_files": gorm.Expr("uploaded_files + ?", 1),
			}).
			Error
	})
	if err != nil {
		return nil, dbErr("create file", err)
	}

	f.metrics.Files.WithLabelValues("created").Inc()
	return file, nil
}

// Upload stores body in object storage and records it. If the record can't
// be written the stored object is removed again.
func (f *Files) Upload(ctx context.Context, ownerID, filename string, body io.Reader, size int64, contentType string) (*model.File, error) {
	if filename == "" {
		return nil, fmt.Errorf("filename: %w", ErrValidation)
	}

	key, err := f.uploader.Do(ctx, ownerID, filename, body, size, contentType)
	if err != nil {
		return nil, err
	}

	file, err := f.Create(ctx, ownerID, filename, key, size)
	if err != nil {
		f.uploader.Discard(key)
		return nil, err
	}

	return file, nil
}

// Delete removes a file owned by requesterID together with every share on
// it. The storage key is queued as an orphan in the same transaction and
// removed from the bucket by the object cleanup.
func (f *Files) Delete(ctx context.Context, fileID uint, requesterID string) error {
	err := f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		file, err := ownedFile(tx, fileID, requesterID)
		if err != nil {
			return err
		}

		if err := tx.Where("file_id = ?", file.ID).Delete(&model.Share{}).Error; err != nil {
			return err
		}

		if err := tx.Delete(&model.File{}, file.ID).Error; err != nil {
			return err
		}

		if err := tx.Create(&model.OrphanObject{StorageKey: file.StorageKey, CreatedAt: f.now()}).Error; err != nil {
			return err
		}

		return tx.
			Model(model.Stats{}).
			Where("user_id = ?", requesterID).
			Updates(map[string]any{
				"used_storage":   gorm.Expr("used_storage - ?", file.Size),
				"uploaded_files": gorm.Expr("uploaded_files - ?", 1),
			}).
			Error
	})
	if err != nil {
		return dbErr("delete file", err)
	}

	f.metrics.Files.WithLabelValues("deleted").Inc()
	zap.L().Debug("File deleted", zap.Uint("fileID", fileID), zap.String("userID", requesterID))

	return nil
}

// ListFor returns both halves of what userID can see, read in one transaction
func (f *Files) ListFor(ctx context.Context, userID string) (*Listing, error) {
	var l Listing

	err := f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.
			Preload("Shares", func(db *gorm.DB) *gorm.DB { return db.Order("granted_at asc") }).
			Preload("Shares.Grantee").
			Where("user_id = ?", userID).
			Order("upload_time desc").
			Find(&l.Owned).
			Error
		if err != nil {
			return err
		}

		return tx.
			Preload("File").
			Preload("File.Owner").
			Where("grantee_id = ?", userID).
			Order("granted_at desc").
			Find(&l.Shared).
			Error
	})
	if err != nil {
		return nil, dbErr("list files", err)
	}

	return &l, nil
}

// DownloadURL returns a time limited link to the contents of a file the
// requester can read. Files the requester can't read are reported as missing.
func (f *Files) DownloadURL(ctx context.Context, fileID uint, requesterID string) (string, error) {
	var file model.File
	err := f.db.WithContext(ctx).
		Where("id = ?", fileID).
		Where(readableBy(f.db, requesterID)).
		First(&file).
		Error
	if err != nil {
		return "", dbErr("lookup file", err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	url, err := f.store.PresignGet(ctx, file.StorageKey, f.presignTTL)
	if err != nil {
		return "", depErr("presign", err)
	}

	f.metrics.DownloadLinks.Inc()
	return url, nil
}

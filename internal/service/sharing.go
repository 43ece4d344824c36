package service

import (
	"bitwise74/file-share-api/internal/metrics"
	"bitwise74/file-share-api/internal/model"
	"bitwise74/file-share-api/pkg/validators"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sharing manages grants from a file's owner to other users and answers
// whether a user may read a file
type Sharing struct {
	db      *gorm.DB
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewSharing(db *gorm.DB, m *metrics.Metrics) *Sharing {
	return &Sharing{
		db:      db,
		metrics: m,
		now:     utcNow,
	}
}

// Share grants the user registered under recipientEmail access to a file
// owned by ownerID. An empty access level means read.
func (s *Sharing) Share(ctx context.Context, fileID uint, ownerID, recipientEmail string, access model.AccessLevel) (*model.Share, error) {
	if err := validators.EmailValidator(recipientEmail); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	if access == "" {
		access = model.AccessRead
	}

	if !access.Valid() {
		return nil, fmt.Errorf("access level %q: %w", access, ErrValidation)
	}

	var share *model.Share
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		file, err := ownedFile(tx, fileID, ownerID)
		if err != nil {
			return err
		}

		var recipient model.User
		if err := tx.Where("email = ?", recipientEmail).First(&recipient).Error; err != nil {
			return dbErr("lookup recipient", err)
		}

		if recipient.ID == ownerID {
			return fmt.Errorf("cannot share a file with yourself: %w", ErrValidation)
		}

		share = &model.Share{
			FileID:    file.ID,
			GranteeID: recipient.ID,
			Access:    access,
			GrantedAt: s.now(),
		}

		// idx_share_file_grantee turns a second grant into ErrDuplicatedKey
		return tx.Omit(clause.Associations).Create(share).Error
	})
	if err != nil {
		return nil, dbErr("share file", err)
	}

	s.metrics.Shares.WithLabelValues("granted").Inc()
	zap.L().Debug("File shared", zap.Uint("fileID", fileID), zap.String("granteeID", share.GranteeID))

	return share, nil
}

// Unshare revokes the grant targetUserID holds on a file owned by ownerID
func (s *Sharing) Unshare(ctx context.Context, fileID uint, ownerID, targetUserID string) error {
	if targetUserID == "" {
		return fmt.Errorf("user id: %w", ErrValidation)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownedFile(tx, fileID, ownerID); err != nil {
			return err
		}

		res := tx.Where("file_id = ? AND grantee_id = ?", fileID, targetUserID).Delete(&model.Share{})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return fmt.Errorf("share: %w", ErrNotFound)
		}

		return nil
	})
	if err != nil {
		return dbErr("unshare file", err)
	}

	s.metrics.Shares.WithLabelValues("revoked").Inc()
	return nil
}

// Leave removes granteeID's own access to a file
func (s *Sharing) Leave(ctx context.Context, fileID uint, granteeID string) error {
	res := s.db.WithContext(ctx).
		Where("file_id = ? AND grantee_id = ?", fileID, granteeID).
		Delete(&model.Share{})
	if res.Error != nil {
		return dbErr("leave file", res.Error)
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("share: %w", ErrNotFound)
	}

	s.metrics.Shares.WithLabelValues("left").Inc()
	return nil
}

// CanRead reports whether requesterID owns the file or holds a share on it
func (s *Sharing) CanRead(ctx context.Context, fileID uint, requesterID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(model.File{}).
		Where("id = ?", fileID).
		Where(readableBy(s.db, requesterID)).
		Count(&n).
		Error
	if err != nil {
		return false, dbErr("check access", err)
	}

	return n > 0, nil
}

// readableBy is the condition every read of a file goes through
func readableBy(db *gorm.DB, userID string) *gorm.DB {
	return db.
		Where("files.user_id = ?", userID).
		Or("EXISTS (SELECT 1 FROM shares WHERE shares.file_id = files.id AND shares.grantee_id = ?)", userID)
}

// ownedFile loads a file for a mutation only its owner may perform
func ownedFile(tx *gorm.DB, fileID uint, userID string) (*model.File, error) {
	var file model.File
	if err := tx.Where("id = ?", fileID).First(&file).Error; err != nil {
		return nil, dbErr("lookup file", err)
	}

	if file.UserID != userID {
		return nil, fmt.Errorf("file %d: %w", fileID, ErrForbidden)
	}

	return &file, nil
}

package service

import (
	"bitwise74/file-share-api/internal/metrics"
	"bitwise74/file-share-api/internal/model"
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Directory holds confirmed identities
type Directory struct {
	db      *gorm.DB
	hasher  Hasher
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewDirectory(db *gorm.DB, h Hasher, m *metrics.Metrics) *Directory {
	return &Directory{
		db:      db,
		hasher:  h,
		metrics: m,
		now:     utcNow,
	}
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// RegisterDirect creates a user without email verification
func (d *Directory) RegisterDirect(ctx context.Context, username, email, password string) (*model.User, error) {
	if err := validateSignup(username, email, password); err != nil {
		return nil, err
	}

	var taken bool
	err := d.db.WithContext(ctx).
		Model(model.User{}).
		Select("count(*) > 0").
		Where("email = ? OR username = ?", email, username).
		Find(&taken).
		Error
	if err != nil {
		return nil, dbErr("check identity", err)
	}

	if taken {
		d.metrics.Registrations.WithLabelValues("conflict").Inc()
		return nil, fmt.Errorf("username or email: %w", ErrConflict)
	}

	hash, err := d.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// The unique indexes still decide if two requests race past the check above
	var u *model.User
	err = d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		u, err = createUser(tx, username, email, hash, d.now())
		return err
	})
	if err != nil {
		return nil, dbErr("create user", err)
	}

	d.metrics.Registrations.WithLabelValues("direct").Inc()
	return u, nil
}

// Authenticate finds the user by username or email and checks the password.
// Unknown identifiers and wrong passwords fail the same way.
func (d *Directory) Authenticate(ctx context.Context, identifier, password string) (*model.User, error) {
	if identifier == "" || password == "" {
		return nil, fmt.Errorf("identifier and password: %w", ErrValidation)
	}

	var u model.User
	err := d.db.WithContext(ctx).
		Where("username = ? OR email = ?", identifier, identifier).
		First(&u).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			d.hasher.Burn(password)
			return nil, fmt.Errorf("authenticate: %w", ErrUnauthenticated)
		}

		return nil, dbErr("lookup user", err)
	}

	ok, err := d.hasher.Verify(password, u.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !ok {
		return nil, fmt.Errorf("authenticate: %w", ErrUnauthenticated)
	}

	return &u, nil
}

// Get returns the user with its storage stats
func (d *Directory) Get(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := d.db.WithContext(ctx).Preload("Stats").Where("id = ?", id).First(&u).Error; err != nil {
		return nil, dbErr("get user", err)
	}

	return &u, nil
}

// createUser must run inside a transaction
func createUser(tx *gorm.DB, username, email, hash string, now time.Time) (*model.User, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}

	u := &model.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		Stats:        model.Stats{UserID: id},
	}

	if err := tx.Create(u).Error; err != nil {
		return nil, err
	}

	return u, nil
}

package service

import (
	"bitwise74/file-share-api/config"
	"bitwise74/file-share-api/internal/metrics"
	"bitwise74/file-share-api/internal/model"
	"bitwise74/file-share-api/pkg/security"
	"context"
	"errors"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

func newID() (string, error) {
	return gonanoid.Generate(charset, 16)
}

// Registrations is the ledger of signups waiting for email proof
type Registrations struct {
	db       *gorm.DB
	hasher   Hasher
	notifier Notifier
	cfg      *config.RegistrationConfig
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewRegistrations(db *gorm.DB, h Hasher, n Notifier, c *config.RegistrationConfig, m *metrics.Metrics) *Registrations {
	return &Registrations{
		db:       db,
		hasher:   h,
		notifier: n,
		cfg:      c,
		metrics:  m,
		now:      utcNow,
	}
}

// Initiate starts a signup. The code is mailed before anything is written, so
// a failed delivery leaves no record behind. A second initiation for the same
// email replaces the first one once the resend interval has passed.
func (r *Registrations) Initiate(ctx context.Context, username, email, password string) (*model.PendingRegistration, error) {
	if err := validateSignup(username, email, password); err != nil {
		return nil, err
	}

	var taken bool
	err := r.db.WithContext(ctx).
		Model(model.User{}).
		Select("count(*) > 0").
		Where("email = ? OR username = ?", email, username).
		Find(&taken).
		Error
	if err != nil {
		return nil, dbErr("check identity", err)
	}

	if taken {
		r.metrics.Registrations.WithLabelValues("conflict").Inc()
		return nil, fmt.Errorf("username or email: %w", ErrConflict)
	}

	now := r.now()

	var previous model.PendingRegistration
	err = r.db.WithContext(ctx).Where("email = ?", email).First(&previous).Error
	switch {
	case err == nil:
		if now.Sub(previous.LastSentAt) < r.cfg.ResendInterval {
			return nil, fmt.Errorf("initiate: %w", ErrRateLimited)
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, dbErr("lookup pending", err)
	}

	hash, err := r.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	id, err := newID()
	if err != nil {
		return nil, fmt.Errorf("generate id: %w", err)
	}

	secret, err := security.NewCodeSecret(email)
	if err != nil {
		return nil, fmt.Errorf("generate code secret: %w", err)
	}

	code, err := security.MakeCode(secret, 0)
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	if err := r.notifier.SendCode(ctx, email, code, r.cfg.CodeTTL); err != nil {
		r.metrics.Registrations.WithLabelValues("notify_failed").Inc()
		return nil, depErr("send code", err)
	}

	p := &model.PendingRegistration{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Secret:       secret,
		Counter:      0,
		ExpiresAt:    now.Add(r.cfg.CodeTTL),
		LastSentAt:   now,
		CreatedAt:    now,
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", email).Delete(&model.PendingRegistration{}).Error; err != nil {
			return err
		}

		return tx.Create(p).Error
	})
	if err != nil {
		return nil, dbErr("create pending", err)
	}

	r.metrics.Registrations.WithLabelValues("initiated").Inc()
	return p, nil
}

// Resend issues a new code for a pending registration. It resets the attempt
// counter and the expiry. The previous code stops working once the new one
// has been stored.
func (r *Registrations) Resend(ctx context.Context, id string) (*model.PendingRegistration, error) {
	if id == "" {
		return nil, fmt.Errorf("verification id: %w", ErrValidation)
	}

	var p model.PendingRegistration
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, dbErr("lookup pending", err)
	}

	now := r.now()
	if now.Sub(p.LastSentAt) < r.cfg.ResendInterval {
		return nil, fmt.Errorf("resend: %w", ErrRateLimited)
	}

	next := p.Counter + 1

	code, err := security.MakeCode(p.Secret, next)
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	if err := r.notifier.SendCode(ctx, p.Email, code, r.cfg.CodeTTL); err != nil {
		return nil, depErr("send code", err)
	}

	// Guarded by the old counter so two concurrent resends can't both win
	res := r.db.WithContext(ctx).
		Model(&model.PendingRegistration{}).
		Where("id = ? AND counter = ?", p.ID, p.Counter).
		Updates(map[string]any{
			"counter":      next,
			"attempts":     0,
			"expires_at":   now.Add(r.cfg.CodeTTL),
			"last_sent_at": now,
		})
	if res.Error != nil {
		return nil, dbErr("update pending", res.Error)
	}

	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("resend: %w", ErrRateLimited)
	}

	p.Counter = next
	p.Attempts = 0
	p.ExpiresAt = now.Add(r.cfg.CodeTTL)
	p.LastSentAt = now

	r.metrics.Registrations.WithLabelValues("resent").Inc()
	return &p, nil
}

// Verify checks code against the pending registration and, when it matches,
// promotes it to a user. The attempt is counted before the code is compared.
// The user row and the removal of the pending row commit together.
func (r *Registrations) Verify(ctx context.Context, id, code string) (*model.User, error) {
	if id == "" || code == "" {
		return nil, fmt.Errorf("verification id and code: %w", ErrValidation)
	}

	var p model.PendingRegistration
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, dbErr("lookup pending", err)
	}

	now := r.now()
	if now.After(p.ExpiresAt) {
		r.metrics.Verifications.WithLabelValues("expired").Inc()
		return nil, fmt.Errorf("verify: %w", ErrExpired)
	}

	if p.Attempts >= r.cfg.MaxAttempts {
		r.metrics.Verifications.WithLabelValues("exhausted").Inc()
		return nil, fmt.Errorf("verify: %w", ErrTooManyAttempts)
	}

	res := r.db.WithContext(ctx).
		Model(&model.PendingRegistration{}).
		Where("id = ? AND counter = ? AND attempts < ?", p.ID, p.Counter, r.cfg.MaxAttempts).
		UpdateColumn("attempts", gorm.Expr("attempts + 1"))
	if res.Error != nil {
		return nil, dbErr("count attempt", res.Error)
	}

	// Someone else used up the last attempt or a resend replaced the code
	// between the read and the update
	if res.RowsAffected == 0 {
		r.metrics.Verifications.WithLabelValues("exhausted").Inc()
		return nil, fmt.Errorf("verify: %w", ErrTooManyAttempts)
	}

	if !security.CheckCode(code, p.Secret, p.Counter) {
		r.metrics.Verifications.WithLabelValues("invalid_code").Inc()
		return nil, fmt.Errorf("verify: %w", ErrInvalidCode)
	}

	var u *model.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		del := tx.Where("id = ? AND counter = ?", p.ID, p.Counter).Delete(&model.PendingRegistration{})
		if del.Error != nil {
			return del.Error
		}

		// Already promoted by a concurrent request
		if del.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		var err error
		u, err = createUser(tx, p.Username, p.Email, p.PasswordHash, now)
		return err
	})
	if err != nil {
		return nil, dbErr("promote pending", err)
	}

	r.metrics.Verifications.WithLabelValues("verified").Inc()
	zap.L().Info("Registration verified", zap.String("userID", u.ID))

	return u, nil
}

// Sweep deletes pending registrations that expired more than the configured
// retention ago. Expired records are inert, this only keeps the table small.
func (r *Registrations) Sweep(ctx context.Context) (int64, error) {
	cutoff := r.now().Add(-r.cfg.Retention)

	res := r.db.WithContext(ctx).
		Where("expires_at < ?", cutoff).
		Delete(&model.PendingRegistration{})
	if res.Error != nil {
		return 0, dbErr("sweep pending", res.Error)
	}

	r.metrics.SweptPending.Add(float64(res.RowsAffected))
	return res.RowsAffected, nil
}

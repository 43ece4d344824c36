package service

import (
	"bitwise74/file-share-api/internal/model"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrations_InitiateAndVerify(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p, err := e.regs.Initiate(ctx, "alice", "alice@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, e.clock.now().Add(10*time.Minute), p.ExpiresAt)
	assert.Len(t, e.notifier.last(t), 6)

	u, err := e.regs.Verify(ctx, p.ID, e.notifier.last(t))
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "alice@example.com", u.Email)

	ok, err := e.hasher.Verify("password123", u.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	var pending int64
	require.NoError(t, e.db.Model(model.PendingRegistration{}).Count(&pending).Error)
	assert.Zero(t, pending)

	var users int64
	require.NoError(t, e.db.Model(model.User{}).Where("email = ?", "alice@example.com").Count(&users).Error)
	assert.EqualValues(t, 1, users)

	// The record is gone, so the same code can't promote twice
	_, err = e.regs.Verify(ctx, p.ID, e.notifier.last(t))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistrations_InitiateRejects(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.user(t, "taken")

	tests := []struct {
		name     string
		username string
		email    string
		password string
		want     error
	}{
		{"bad email", "bob", "not-an-email", "password123", ErrValidation},
		{"short password", "bob", "bob@example.com", "short", ErrValidation},
		{"bad username", "b b", "bob@example.com", "password123", ErrValidation},
		{"email taken", "bob", "taken@example.com", "password123", ErrConflict},
		{"username taken", "taken", "bob@example.com", "password123", ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.regs.Initiate(ctx, tt.username, tt.email, tt.password)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Empty(t, e.notifier.sent)
}

func TestRegistrations_InitiateFailsClosed(t *testing.T) {
	e := newEnv(t)
	e.notifier.err = errors.New("smtp down")

	_, err := e.regs.Initiate(context.Background(), "alice", "alice@example.com", "password123")
	assert.ErrorIs(t, err, ErrDependency)

	var n int64
	require.NoError(t, e.db.Model(model.PendingRegistration{}).Count(&n).Error)
	assert.Zero(t, n, "nothing may persist when the code wasn't sent")
}

func TestRegistrations_Reinitiate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	first, err := e.regs.Initiate(ctx, "alice", "alice@example.com", "password123")
	require.NoError(t, err)

	_, err = e.regs.Initiate(ctx, "alice2", "alice@example.com", "password123")
	assert.ErrorIs(t, err, ErrRateLimited)

	e.clock.advance(time.Minute)

	second, err := e.regs.Initiate(ctx, "alice2", "alice@example.com", "password123")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	_, err = e.regs.Verify(ctx, first.ID, "000000")
	assert.ErrorIs(t, err, ErrNotFound, "the first record was replaced")

	u, err := e.regs.Verify(ctx, second.ID, e.notifier.last(t))
	require.NoError(t, err)
	assert.Equal(t, "alice2", u.Username)
}

func TestRegistrations_VerifyAttempts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p, err := e.regs.Initiate(ctx, "alice", "alice@example.com", "password123")
	require.NoError(t, err)

	code := e.notifier.last(t)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	for i := 0; i < 5; i++ {
		_, err := e.regs.Verify(ctx, p.ID, wrong)
		require.ErrorIs(t, err, ErrInvalidCode)
	}

	var stored model.PendingRegistration
	require.NoError(t, e.db.Where("id = ?", p.ID).First(&stored).Error)
	assert.Equal(t, 5, stored.Attempts)

	// The sixth attempt fails even with the right code and the row stays
	_, err = e.regs.Verify(ctx, p.ID, code)
	assert.ErrorIs(t, err, ErrTooManyAttempts)

	require.NoError(t, e.db.Where("id = ?", p.ID).First(&stored).Error)
	assert.Equal(t, 5, stored.Attempts)
}

func TestRegistrations_VerifyExpired(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p, err := e.regs.Initiate(ctx, "alice", "alice@example.com", "password123")
	require.NoError(t, err)

	e.clock.advance(10*time.Minute + time.Second)

	_, err = e.regs.Verify(ctx, p.ID, e.notifier.last(t))
	assert.ErrorIs(t, err, ErrExpired)

	_, err = e.regs.Verify(ctx, "missing", "123456")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.regs.Verify(ctx, p.ID, "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRegistrations_Resend(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p, err := e.regs.Initiate(ctx, "alice", "alice@example.com", "password123")
	require.NoError(t, err)
	firstCode := e.notifier.last(t)

	_, err = e.regs.Resend(ctx, p.ID)
	assert.ErrorIs(t, err, ErrRateLimited)

	_, err = e.regs.Verify(ctx, p.ID, "999999x")
	require.ErrorIs(t, err, ErrInvalidCode)

	e.clock.advance(time.Minute)

	r, err := e.regs.Resend(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, r.Attempts)
	assert.Equal(t, e.clock.now().Add(10*time.Minute), r.ExpiresAt)
	secondCode := e.notifier.last(t)

	// A second resend inside the window is refused and the code from the
	// first resend keeps working
	e.clock.advance(30 * time.Second)
	_, err = e.regs.Resend(ctx, p.ID)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, secondCode, e.notifier.last(t))

	if firstCode != secondCode {
		_, err = e.regs.Verify(ctx, p.ID, firstCode)
		assert.ErrorIs(t, err, ErrInvalidCode, "the replaced code must not work")
	}

	u, err := e.regs.Verify(ctx, p.ID, secondCode)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	_, err = e.regs.Resend(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistrations_ResendRevivesExhausted(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p, err := e.regs.Initiate(ctx, "alice", "alice@example.com", "password123")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, _ = e.regs.Verify(ctx, p.ID, "abcdef")
	}

	e.clock.advance(time.Minute)
	_, err = e.regs.Resend(ctx, p.ID)
	require.NoError(t, err)

	_, err = e.regs.Verify(ctx, p.ID, e.notifier.last(t))
	assert.NoError(t, err)
}

func TestRegistrations_Sweep(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	old, err := e.regs.Initiate(ctx, "old", "old@example.com", "password123")
	require.NoError(t, err)

	e.clock.advance(20 * time.Hour)

	fresh, err := e.regs.Initiate(ctx, "fresh", "fresh@example.com", "password123")
	require.NoError(t, err)

	// old expired more than a day ago, fresh a few hours ago
	e.clock.advance(4*time.Hour + 20*time.Minute)

	n, err := e.regs.Sweep(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	var left []model.PendingRegistration
	require.NoError(t, e.db.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, fresh.ID, left[0].ID)
	assert.NotEqual(t, old.ID, left[0].ID)
}

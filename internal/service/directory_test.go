package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectory_RegisterDirect(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, err := e.dir.RegisterDirect(ctx, "alice", "alice@example.com", "password123")
	require.NoError(t, err)
	assert.Len(t, u.ID, 16)
	assert.Equal(t, e.clock.now(), u.CreatedAt)

	_, err = e.dir.RegisterDirect(ctx, "alice", "other@example.com", "password123")
	assert.ErrorIs(t, err, ErrConflict)

	_, err = e.dir.RegisterDirect(ctx, "other", "alice@example.com", "password123")
	assert.ErrorIs(t, err, ErrConflict)

	_, err = e.dir.RegisterDirect(ctx, "x", "x@example.com", "password123")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDirectory_CreateUserUniqueIndex(t *testing.T) {
	e := newEnv(t)
	e.user(t, "alice")

	// Skips the precheck, the same as a request that raced past it
	_, err := createUser(e.db, "alice", "new@example.com", "hash", e.clock.now())
	assert.ErrorIs(t, dbErr("create user", err), ErrConflict)
}

func TestDirectory_Authenticate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice")

	tests := []struct {
		name       string
		identifier string
		password   string
		want       error
	}{
		{"by username", "alice", "password123", nil},
		{"by email", "alice@example.com", "password123", nil},
		{"wrong password", "alice", "password124", ErrUnauthenticated},
		{"unknown user", "nobody", "password123", ErrUnauthenticated},
		{"empty identifier", "", "password123", ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := e.dir.Authenticate(ctx, tt.identifier, tt.password)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, alice.ID, u.ID)
		})
	}
}

func TestDirectory_Get(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice")
	e.upload(t, alice, "a.txt", "hello")

	u, err := e.dir.Get(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.EqualValues(t, 5, u.Stats.UsedStorage)
	assert.Equal(t, 1, u.Stats.UploadedFiles)

	_, err = e.dir.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

package service

import (
	"context"
	"io"
	"time"
)

// Hasher is the credential store. Implemented by security.ArgonHash.
type Hasher interface {
	Hash(p string) (string, error)
	Verify(p, encoded string) (bool, error)
	Burn(p string)
}

// Notifier delivers one-time codes out of band. Implemented by Mailer.
type Notifier interface {
	SendCode(ctx context.Context, to, code string, validFor time.Duration) error
}

// ObjectStore is the object storage gateway. Implemented by aws.S3Client.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, keys ...string) error
}

package model

import "time"

// PendingRegistration holds a signup until the owner of the email proves it
// by submitting the one-time code. The code itself is never stored, only the
// HOTP secret and the counter it was generated with.
type PendingRegistration struct {
	ID           string    `gorm:"primaryKey"`
	Username     string    `gorm:"size:80;not null"`
	Email        string    `gorm:"uniqueIndex;size:120;not null"`
	PasswordHash string    `gorm:"size:256;not null"`
	Secret       string    `gorm:"not null"`
	Counter      uint64    `gorm:"not null"`
	ExpiresAt    time.Time `gorm:"index;not null"`
	LastSentAt   time.Time `gorm:"not null"`
	Attempts     int       `gorm:"not null;default:0"`
	CreatedAt    time.Time
}

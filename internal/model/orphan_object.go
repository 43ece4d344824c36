package model

import "time"

// OrphanObject is a storage key whose file row is gone. It is written in the
// same transaction that deletes the file so the object can be removed from
// the bucket later without holding the transaction open.
type OrphanObject struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	StorageKey string    `gorm:"uniqueIndex;size:512;not null"`
	CreatedAt  time.Time `gorm:"index"`
}

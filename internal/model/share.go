package model

import "time"

type AccessLevel string

const (
	AccessRead  AccessLevel = "read"
	AccessWrite AccessLevel = "write"
)

// Valid reports whether a is one of the known access levels
func (a AccessLevel) Valid() bool {
	return a == AccessRead || a == AccessWrite
}

// Share grants GranteeID access to FileID. At most one row may exist for a
// (file, grantee) pair, enforced by idx_share_file_grantee.
type Share struct {
	ID        uint        `gorm:"primaryKey;autoIncrement"`
	FileID    uint        `gorm:"uniqueIndex:idx_share_file_grantee;not null"`
	GranteeID string      `gorm:"uniqueIndex:idx_share_file_grantee;index;not null"`
	Access    AccessLevel `gorm:"size:20;not null;default:read"`
	GrantedAt time.Time   `gorm:"not null"`

	File    File `gorm:"foreignKey:FileID"`
	Grantee User `gorm:"foreignKey:GranteeID;constraint:OnDelete:CASCADE"`
}

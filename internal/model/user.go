// Package model defines database models
package model

import "time"

// User is a confirmed identity. Rows are only ever created by a successful
// verification or by the direct registration path.
type User struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:80;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;size:120;not null" json:"email"`
	PasswordHash string    `gorm:"size:256;not null" json:"-"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`

	Stats Stats `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

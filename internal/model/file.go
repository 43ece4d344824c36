package model

import "time"

type File struct {
	ID     uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID string `gorm:"index;not null" json:"-"`

	// Since we want to allow different users to have files with the same name we
	// need to keep the S3 objects under a different key
	StorageKey string `gorm:"uniqueIndex;size:512;not null" json:"s3_key"`

	// Original file name as sent by the client
	Filename     string    `gorm:"size:255;not null" json:"filename"`
	Size         int64     `json:"size"`
	UploadTime   time.Time `gorm:"not null" json:"upload_time"`
	LastModified time.Time `gorm:"not null" json:"last_modified"`

	Owner  User    `gorm:"foreignKey:UserID" json:"-"`
	Shares []Share `gorm:"foreignKey:FileID;constraint:OnDelete:CASCADE" json:"-"`
}

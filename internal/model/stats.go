package model

type Stats struct {
	UserID        string `gorm:"primaryKey" json:"-"`
	UsedStorage   int64  `gorm:"not null;default:0" json:"used_storage"`
	UploadedFiles int    `gorm:"not null;default:0" json:"uploaded_files"`
}

package internal

import (
	"bitwise74/file-share-api/config"
	"bitwise74/file-share-api/internal/metrics"
	"bitwise74/file-share-api/internal/service"
	"bitwise74/file-share-api/pkg/security"

	"gorm.io/gorm"
)

// Deps is everything a handler may touch. Built once in main.
type Deps struct {
	Config        *config.Config
	DB            *gorm.DB
	Argon         *security.ArgonHash
	Store         service.ObjectStore
	Metrics       *metrics.Metrics
	Registrations *service.Registrations
	Directory     *service.Directory
	Files         *service.Files
	Sharing       *service.Sharing
}

// NewDeps wires the services on top of the given collaborators
func NewDeps(c *config.Config, db *gorm.DB, argon *security.ArgonHash, store service.ObjectStore, n service.Notifier, m *metrics.Metrics) *Deps {
	uploader := service.NewUploader(store, c.Storage.Timeout, m)

	return &Deps{
		Config:        c,
		DB:            db,
		Argon:         argon,
		Store:         store,
		Metrics:       m,
		Registrations: service.NewRegistrations(db, argon, n, &c.Registration, m),
		Directory:     service.NewDirectory(db, argon, m),
		Files:         service.NewFiles(db, store, uploader, c.Storage.PresignTTL, c.Storage.Timeout, m),
		Sharing:       service.NewSharing(db, m),
	}
}

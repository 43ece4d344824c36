// Package db opens the database used by the application
package db

import (
	"bitwise74/file-share-api/config"
	"bitwise74/file-share-api/internal/model"
	"bitwise74/file-share-api/pkg/util"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func New(c *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch c.Type {
	case "postgres":
		dialector = postgres.Open(c.DSN)
	case "sqlite":
		// If running in a docker container don't allow the sqlite file to be created.
		// The host should instead mount it using volumes
		if util.IsRunningInDocker() {
			if _, err := os.Stat(c.DSN); errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("SQLite database file not mounted, please use docker volumes to mount it to /app/%s", c.DSN)
			}
		}

		dialector = sqlite.Open(c.DSN + "?_foreign_keys=on")
	default:
		return nil, fmt.Errorf("unsupported database type %q", c.Type)
	}

	db, err := Open(dialector)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Database ready", zap.String("type", c.Type))
	return db, nil
}

// Open connects using an already built dialector and migrates every model
func Open(d gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(d, &gorm.Config{
		// Unique constraint violations come back as gorm.ErrDuplicatedKey
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database, %w", err)
	}

	if err := db.AutoMigrate(model.All()...); err != nil {
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return db, nil
}

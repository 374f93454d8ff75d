package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/camden-git/namerecall/logging"
	"github.com/camden-git/namerecall/models"
)

// InitGormDB initializes and returns a GORM database instance
func InitGormDB(dataSourceName string, zl *zap.Logger) (*gorm.DB, error) {
	gormLogger := logger.New(
		logging.StdLogger(zl, "gorm"),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(dataSourceName), &gorm.Config{
		Logger: gormLogger,
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database using GORM: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB from GORM: %w", err)
	}

	// one logical writer; a single connection also keeps ":memory:" databases shared
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	zl.Info("GORM database initialized", zap.String("path", dataSourceName))
	return db, nil
}

// AutoMigrateModels migrates the schemas the gorm store driver relies on.
func AutoMigrateModels(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.StateEntry{},
	)
	if err != nil {
		return fmt.Errorf("GORM AutoMigrate failed: %w", err)
	}
	return nil
}

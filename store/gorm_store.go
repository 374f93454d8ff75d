package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/camden-git/namerecall/database"
	"github.com/camden-git/namerecall/models"
)

// GormStore keeps the blob in the state table through gorm.
type GormStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormStore opens the sqlite file at path and migrates the state table.
func NewGormStore(path string, logger *zap.Logger) (*GormStore, error) {
	db, err := database.InitGormDB(path, logger)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrateModels(db); err != nil {
		return nil, err
	}
	return &GormStore{db: db, logger: logger.Named("store.gorm")}, nil
}

func (s *GormStore) Driver() Driver { return DriverGorm }

func (s *GormStore) Load(ctx context.Context) ([]models.Person, error) {
	var entry models.StateEntry
	err := s.db.WithContext(ctx).First(&entry, "key = ?", Key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []models.Person{}, nil
		}
		return nil, loadErr(DriverGorm, err)
	}
	people, err := Decode(entry.Payload)
	if err != nil {
		return nil, loadErr(DriverGorm, err)
	}
	return people, nil
}

func (s *GormStore) Save(ctx context.Context, people []models.Person) error {
	payload, err := Encode(people)
	if err != nil {
		return saveErr(DriverGorm, err)
	}
	entry := models.StateEntry{Key: Key, Payload: payload, UpdatedAt: time.Now().UnixMilli()}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return saveErr(DriverGorm, err)
	}
	s.logger.Debug("saved people", zap.Int("count", len(people)))
	return nil
}

// Clear removes the stored blob.
func (s *GormStore) Clear(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Delete(&models.StateEntry{}, "key = ?", Key).Error; err != nil {
		return saveErr(DriverGorm, err)
	}
	return nil
}

// DB exposes the gorm handle for tests.
func (s *GormStore) DB() *gorm.DB { return s.db }

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB from gorm: %w", err)
	}
	return sqlDB.Close()
}

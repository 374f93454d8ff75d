package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/camden-git/namerecall/database"
	"github.com/camden-git/namerecall/models"
)

// SQLStore keeps the blob in the sqlite state table through database/sql.
type SQLStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLStore opens (and creates, if needed) the sqlite file at path.
func NewSQLStore(path string, logger *zap.Logger) (*SQLStore, error) {
	db, err := database.InitDB(path, logger)
	if err != nil {
		return nil, err
	}
	return &SQLStore{db: db, logger: logger.Named("store.sql")}, nil
}

func (s *SQLStore) Driver() Driver { return DriverSQL }

func (s *SQLStore) Load(ctx context.Context) ([]models.Person, error) {
	row, err := database.GetState(ctx, s.db, Key)
	if err != nil {
		if errors.Is(err, database.ErrNoState) {
			return []models.Person{}, nil
		}
		return nil, loadErr(DriverSQL, err)
	}
	people, err := Decode(row.Payload)
	if err != nil {
		return nil, loadErr(DriverSQL, err)
	}
	s.logger.Debug("loaded people", zap.Int("count", len(people)))
	return people, nil
}

func (s *SQLStore) Save(ctx context.Context, people []models.Person) error {
	payload, err := Encode(people)
	if err != nil {
		return saveErr(DriverSQL, err)
	}
	if err := database.SetState(ctx, s.db, Key, payload, time.Now().UnixMilli()); err != nil {
		return saveErr(DriverSQL, err)
	}
	s.logger.Debug("saved people", zap.Int("count", len(people)), zap.Int("bytes", len(payload)))
	return nil
}

// Clear removes the stored blob.
func (s *SQLStore) Clear(ctx context.Context) error {
	if err := database.DeleteState(ctx, s.db, Key); err != nil {
		return saveErr(DriverSQL, err)
	}
	return nil
}

// DB exposes the underlying sql.DB for tests.
func (s *SQLStore) DB() *sql.DB { return s.db }

func (s *SQLStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// ErrNoState is returned by GetState when nothing is stored under the key.
var ErrNoState = sql.ErrNoRows

// StateRow is one serialized blob from the state table.
type StateRow struct {
	Key       string
	Payload   []byte
	UpdatedAt int64
}

func InitDB(dataSourceName string, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	// write-ahead logging keeps readers off the writer's lock
	_, err = db.Exec("PRAGMA journal_mode=WAL;")
	if err != nil {
		logger.Warn("failed to set WAL mode", zap.Error(err))
	}

	sqlStmt := `
	CREATE TABLE IF NOT EXISTS state (
		key TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	_, err = db.Exec(sqlStmt)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create state table: %w", err)
	}

	logger.Info("database initialized", zap.String("path", dataSourceName))
	return db, nil
}

// GetState retrieves the blob stored under key.
func GetState(ctx context.Context, db *sql.DB, key string) (StateRow, error) {
	var row StateRow

	queryBuilder := psql.Select("key", "payload", "updated_at").
		From("state").
		Where(sq.Eq{"key": key}).
		Limit(1)

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return StateRow{}, fmt.Errorf("failed to build SQL query for GetState: %w", err)
	}

	err = db.QueryRowContext(ctx, sqlStr, args...).Scan(&row.Key, &row.Payload, &row.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return StateRow{}, ErrNoState
		}
		return StateRow{}, fmt.Errorf("failed to query or scan state for %s: %w", key, err)
	}
	return row, nil
}

// SetState inserts or overwrites the blob stored under key.
func SetState(ctx context.Context, db *sql.DB, key string, payload []byte, updatedAt int64) error {
	queryBuilder := psql.Insert("state").
		Columns("key", "payload", "updated_at").
		Values(key, payload, updatedAt).
		Suffix("ON CONFLICT(key) DO UPDATE SET").
		Suffix("payload = excluded.payload,").
		Suffix("updated_at = excluded.updated_at")

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL query for SetState: %w", err)
	}

	_, err = db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("failed to execute set state for %s: %w", key, err)
	}
	return nil
}

// DeleteState removes the blob stored under key. Missing keys are not an error.
func DeleteState(ctx context.Context, db *sql.DB, key string) error {
	queryBuilder := psql.Delete("state").Where(sq.Eq{"key": key})
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for DeleteState: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("failed to execute DeleteState for %s: %w", key, err)
	}
	return nil
}

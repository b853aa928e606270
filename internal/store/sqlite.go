package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/NadhiyaSeelam/MindCare-AI/internal/shared"
	_ "modernc.org/sqlite"
)

const (
	recordsTable     = "records"
	writeRetries     = 3
	writeRetryDelay  = 50 * time.Millisecond
	maxOpenConns     = 25
	maxIdleConns     = 5
	connMaxLifetime  = 5 * time.Minute
	sqliteDSNOptions = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
)

// SQLiteStore implements Repository using a single SQLite records table.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens (or creates) the database at dbPath and migrates its schema.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+sqliteDSNOptions)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return newSQLiteStore(db), nil
}

func newSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Get returns the stored record. Returns nil, nil if no row exists.
func (s *SQLiteStore) Get(ctx context.Context, kind Kind, key string) ([]byte, error) {
	if err := checkKey(kind, key); err != nil {
		return nil, err
	}

	query, args, err := sq.Select("data").
		From(recordsTable).
		Where(sq.Eq{"kind": string(kind), "key": key}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var data []byte
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan %s record: %w", kind, err)
	}
	return data, nil
}

// Put upserts the record, retrying when the database is busy.
func (s *SQLiteStore) Put(ctx context.Context, kind Kind, key string, data []byte) error {
	if err := checkKey(kind, key); err != nil {
		return err
	}

	now := s.now().Unix()
	query, args, err := sq.Insert(recordsTable).
		Columns("kind", "key", "data", "created_at", "updated_at").
		Values(string(kind), key, string(data), now, now).
		Suffix("ON CONFLICT(kind, key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	err = shared.RetryOnConflict(ctx, "put "+string(kind), writeRetries, writeRetryDelay, func() error {
		_, execErr := s.db.ExecContext(ctx, query, args...)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("upsert %s record: %w", kind, err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

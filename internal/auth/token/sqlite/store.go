// Package sqlite implements durable token persistence over SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/meridianvest/meridian/internal/auth/token/sqlite/migrations"
	sqlitemigrate "github.com/meridianvest/meridian/internal/platform/storage/sqlitemigrate"
	_ "modernc.org/sqlite"
)

// State keys persisted in the client_state table. Cleared together on
// logout, matching the web client's storage layout.
const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyProfile      = "profile"
)

// Store implements token.Store over a single SQLite file.
//
// A keyed single-table layout keeps the token pair and the cached
// profile under the same transaction and visibility boundaries.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a token SQLite store and applies bundled migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return store, nil
}

// Close releases the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SetTokens atomically replaces the token pair in one transaction.
func (s *Store) SetTokens(ctx context.Context, access, refresh string) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set tokens: %w", err)
	}
	now := time.Now().UTC().UnixMilli()
	for name, value := range map[string]string{
		keyAccessToken:  access,
		keyRefreshToken: refresh,
	} {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO client_state (name, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			name, []byte(value), now,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit set tokens: %w", err)
	}
	return nil
}

// AccessToken returns the stored access token, or "" when absent.
func (s *Store) AccessToken(ctx context.Context) (string, error) {
	value, err := s.read(ctx, keyAccessToken)
	return string(value), err
}

// RefreshToken returns the stored refresh token, or "" when absent.
func (s *Store) RefreshToken(ctx context.Context) (string, error) {
	value, err := s.read(ctx, keyRefreshToken)
	return string(value), err
}

// SetProfile replaces the cached profile snapshot.
func (s *Store) SetProfile(ctx context.Context, raw []byte) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO client_state (name, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		keyProfile, raw, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}

// Profile returns the cached profile snapshot, or nil when absent.
func (s *Store) Profile(ctx context.Context) ([]byte, error) {
	value, err := s.read(ctx, keyProfile)
	if err != nil {
		return nil, err
	}
	if len(value) == 0 {
		return nil, nil
	}
	return value, nil
}

// ClearAll removes tokens and profile in one transaction. Idempotent.
func (s *Store) ClearAll(ctx context.Context) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM client_state WHERE name IN (?, ?, ?)`,
		keyAccessToken, keyRefreshToken, keyProfile,
	)
	if err != nil {
		return fmt.Errorf("clear client state: %w", err)
	}
	return nil
}

func (s *Store) read(ctx context.Context, name string) ([]byte, error) {
	var value []byte
	row := s.sqlDB.QueryRowContext(ctx, `SELECT value FROM client_state WHERE name = ?`, name)
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return value, nil
}

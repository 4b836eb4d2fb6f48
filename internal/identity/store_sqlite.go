package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sessionSchema = `
CREATE TABLE IF NOT EXISTS session (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	principal  TEXT    NOT NULL,
	token      TEXT    NOT NULL,
	expires_at INTEGER NOT NULL
)`

// SQLiteStore keeps the credential in a single-row SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the database at path and enables WAL
// journal mode.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	// ensure parent directory exists to avoid SQLITE_CANTOPEN errors
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(sessionSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create session table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*Credential, error) {
	var (
		c       Credential
		expires int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT principal, token, expires_at FROM session WHERE id = 1`,
	).Scan(&c.Principal, &c.Token, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if expires != 0 {
		c.Expiration = time.Unix(0, expires).UTC()
	}
	return &c, nil
}

func (s *SQLiteStore) Save(ctx context.Context, c Credential) error {
	var expires int64
	if !c.Expiration.IsZero() {
		expires = c.Expiration.UnixNano()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session (id, principal, token, expires_at) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			principal = excluded.principal,
			token = excluded.token,
			expires_at = excluded.expires_at`,
		c.Principal, c.Token, expires)
	return err
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session`)
	return err
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Package sqlite persists pool records in a SQLite table using the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	_ "modernc.org/sqlite"

	pr "github.com/unkn0wn-root/poolcache/provider"
)

const defaultTable = "pool_records"

var validTable = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLite stores records as (key TEXT PRIMARY KEY, body BLOB).
type SQLite struct {
	db      *sql.DB
	closeDB bool

	getStmt *sql.Stmt
	setStmt *sql.Stmt
	delStmt *sql.Stmt
}

var _ pr.Provider = (*SQLite)(nil)

type Config struct {
	// DSN passed to sql.Open("sqlite", DSN). Ignored when DB is set.
	// ":memory:" is supported; the pool is then limited to one connection.
	DSN string
	// DB is an already opened handle. The provider does not close it.
	DB *sql.DB
	// Table name; "" => pool_records.
	Table string
}

func Open(ctx context.Context, cfg Config) (*SQLite, error) {
	table := cfg.Table
	if table == "" {
		table = defaultTable
	}
	if !validTable.MatchString(table) {
		return nil, fmt.Errorf("sqlite provider: invalid table name %q", table)
	}

	s := &SQLite{db: cfg.DB}
	if s.db == nil {
		if cfg.DSN == "" {
			return nil, errors.New("sqlite provider: DSN or DB is required")
		}
		db, err := sql.Open("sqlite", cfg.DSN)
		if err != nil {
			return nil, err
		}
		if cfg.DSN == ":memory:" {
			// each connection would otherwise see its own empty database
			db.SetMaxOpenConns(1)
		}
		s.db, s.closeDB = db, true
	}

	if err := s.prepare(ctx, table); err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	return s, nil
}

func (s *SQLite) prepare(ctx context.Context, table string) error {
	ddl := `CREATE TABLE IF NOT EXISTS ` + table + ` (
		key  TEXT PRIMARY KEY,
		body BLOB NOT NULL
	)`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("sqlite provider: create table: %w", err)
	}

	var err error
	if s.getStmt, err = s.db.PrepareContext(ctx, `SELECT body FROM `+table+` WHERE key = ?`); err != nil {
		return err
	}
	if s.setStmt, err = s.db.PrepareContext(ctx,
		`INSERT INTO `+table+` (key, body) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET body = excluded.body`); err != nil {
		return err
	}
	if s.delStmt, err = s.db.PrepareContext(ctx, `DELETE FROM `+table+` WHERE key = ?`); err != nil {
		return err
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var body []byte
	err := s.getStmt.QueryRowContext(ctx, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return body, true, nil
}

func (s *SQLite) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{} // body is NOT NULL
	}
	_, err := s.setStmt.ExecContext(ctx, key, value)
	return err
}

func (s *SQLite) Del(ctx context.Context, key string) error {
	_, err := s.delStmt.ExecContext(ctx, key)
	return err
}

func (s *SQLite) Close(context.Context) error {
	for _, st := range []*sql.Stmt{s.getStmt, s.setStmt, s.delStmt} {
		if st != nil {
			_ = st.Close()
		}
	}
	if s.closeDB {
		s.closeDB = false
		return s.db.Close()
	}
	return nil
}

// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/leseb/fileindexer/pkg/textcache"

	_ "modernc.org/sqlite"
)

func init() {
	textcache.Providers.Register("sqlite", func(_ context.Context, params map[string]string) (textcache.Cache, error) {
		return New(params["path"])
	})
}

// compile-time check
var _ textcache.Cache = (*Cache)(nil)

var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 10000",
	"PRAGMA synchronous = NORMAL",
}

// Cache is a SQLite-backed result cache.
type Cache struct {
	db *sql.DB
}

// New opens (or creates) the database at path. ":memory:" gives a private
// in-memory database.
func New(path string) (*Cache, error) {
	if path == "" {
		return nil, errors.New("sqlite cache: path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// one connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite %s: %w", p, err)
		}
	}

	c := &Cache{db: db}
	if err := c.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) createTables() error {
	_, err := c.db.Exec(`CREATE TABLE IF NOT EXISTS extractions (
		key TEXT PRIMARY KEY,
		size INTEGER NOT NULL,
		mod_time INTEGER NOT NULL,
		fingerprint TEXT NOT NULL DEFAULT '',
		text TEXT NOT NULL DEFAULT '',
		ok INTEGER NOT NULL DEFAULT 0,
		extractor TEXT NOT NULL DEFAULT '',
		truncated INTEGER NOT NULL DEFAULT 0,
		reason TEXT NOT NULL DEFAULT '',
		updated_at INTEGER NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("sqlite create tables: %w", err)
	}
	return nil
}

// Get loads the entry for key.
func (c *Cache) Get(ctx context.Context, key string) (*textcache.Entry, error) {
	var (
		e         textcache.Entry
		modTime   int64
		updatedAt int64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT key, size, mod_time, fingerprint, text, ok, extractor, truncated, reason, updated_at
		 FROM extractions WHERE key = ?`, key,
	).Scan(&e.Key, &e.Size, &modTime, &e.Fingerprint, &e.Text, &e.OK, &e.Extractor, &e.Truncated, &e.Reason, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("key %s: %w", key, textcache.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite get: %w", err)
	}
	e.ModTime = time.Unix(0, modTime).UTC()
	e.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &e, nil
}

// Put upserts the entry.
func (c *Cache) Put(ctx context.Context, e *textcache.Entry) error {
	updated := e.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO extractions (key, size, mod_time, fingerprint, text, ok, extractor, truncated, reason, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET
			size = excluded.size,
			mod_time = excluded.mod_time,
			fingerprint = excluded.fingerprint,
			text = excluded.text,
			ok = excluded.ok,
			extractor = excluded.extractor,
			truncated = excluded.truncated,
			reason = excluded.reason,
			updated_at = excluded.updated_at`,
		e.Key, e.Size, e.ModTime.UnixNano(), e.Fingerprint, e.Text, e.OK, e.Extractor, e.Truncated, e.Reason, updated.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("sqlite put: %w", err)
	}
	return nil
}

// Delete removes the entry for key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM extractions WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("sqlite delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("key %s: %w", key, textcache.ErrNotFound)
	}
	return nil
}

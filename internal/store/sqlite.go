package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rohmanhakim/offcache/pkg/fileutil"
)

/*
SQLiteHost persists cache stores in a single SQLite database so cached
responses survive process restarts, the way a browser's cache storage
outlives the page that filled it.

Layout:
- cache_stores: one row per named store
- cache_entries: one row per entry, keyed by (store, key)

Per-entry writes are single INSERTs and therefore atomic; a failed write
never leaves a partial entry behind.
*/

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cache_stores (
	name       TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS cache_entries (
	store       TEXT NOT NULL,
	key         TEXT NOT NULL,
	url         TEXT NOT NULL,
	method      TEXT NOT NULL,
	status_code INTEGER NOT NULL,
	headers     TEXT NOT NULL,
	body        BLOB NOT NULL,
	stored_at   INTEGER NOT NULL,
	PRIMARY KEY (store, key)
);
`

type SQLiteHost struct {
	sqlDB *sql.DB
}

// OpenSQLiteHost opens (creating if needed) the cache database at path and
// applies the schema.
func OpenSQLiteHost(path string) (*SQLiteHost, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := fileutil.EnsureDir(dir); err != nil {
			return nil, fmt.Errorf("ensure storage dir: %w", err)
		}
	}
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteHost{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (h *SQLiteHost) Close() error {
	if h == nil || h.sqlDB == nil {
		return nil
	}
	return h.sqlDB.Close()
}

// Open returns the store with the given name, registering it if absent.
func (h *SQLiteHost) Open(ctx context.Context, name string) (Store, error) {
	_, err := h.sqlDB.ExecContext(ctx,
		`INSERT OR IGNORE INTO cache_stores (name, created_at) VALUES (?, ?)`,
		name, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return nil, &StoreError{
			Message:   fmt.Sprintf("register store %q: %v", name, err),
			Retryable: true,
			Cause:     ErrCauseStorageIO,
		}
	}
	return &sqliteStore{sqlDB: h.sqlDB, name: name}, nil
}

// Delete removes the named store and all of its entries.
func (h *SQLiteHost) Delete(ctx context.Context, name string) (bool, error) {
	if _, err := h.sqlDB.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE store = ?`, name,
	); err != nil {
		return false, &StoreError{
			Message:   fmt.Sprintf("delete entries of store %q: %v", name, err),
			Retryable: true,
			Cause:     ErrCauseStorageIO,
		}
	}
	result, err := h.sqlDB.ExecContext(ctx,
		`DELETE FROM cache_stores WHERE name = ?`, name,
	)
	if err != nil {
		return false, &StoreError{
			Message:   fmt.Sprintf("delete store %q: %v", name, err),
			Retryable: true,
			Cause:     ErrCauseStorageIO,
		}
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, nil
	}
	return affected > 0, nil
}

// Names enumerates all existing store names.
func (h *SQLiteHost) Names(ctx context.Context) ([]string, error) {
	rows, err := h.sqlDB.QueryContext(ctx,
		`SELECT name FROM cache_stores ORDER BY name`,
	)
	if err != nil {
		return nil, &StoreError{
			Message:   fmt.Sprintf("list stores: %v", err),
			Retryable: true,
			Cause:     ErrCauseStorageIO,
		}
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &StoreError{
				Message:   fmt.Sprintf("scan store name: %v", err),
				Retryable: false,
				Cause:     ErrCauseDecodeFailure,
			}
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{
			Message:   fmt.Sprintf("iterate store names: %v", err),
			Retryable: true,
			Cause:     ErrCauseStorageIO,
		}
	}
	return names, nil
}

type sqliteStore struct {
	sqlDB *sql.DB
	name  string
}

func (s *sqliteStore) Match(ctx context.Context, key string) (Entry, bool, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT url, method, status_code, headers, body, stored_at
		 FROM cache_entries WHERE store = ? AND key = ?`,
		s.name, key,
	)

	var (
		entryUrl   string
		method     string
		statusCode int
		headersRaw string
		body       []byte
		storedAt   int64
	)
	if err := row.Scan(&entryUrl, &method, &statusCode, &headersRaw, &body, &storedAt); err != nil {
		if err == sql.ErrNoRows {
			return Entry{}, false, nil
		}
		return Entry{}, false, &StoreError{
			Message:   fmt.Sprintf("match entry %q: %v", key, err),
			Retryable: true,
			Cause:     ErrCauseStorageIO,
		}
	}

	var headers map[string]string
	if err := json.Unmarshal([]byte(headersRaw), &headers); err != nil {
		return Entry{}, false, &StoreError{
			Message:   fmt.Sprintf("decode headers of entry %q: %v", key, err),
			Retryable: false,
			Cause:     ErrCauseDecodeFailure,
		}
	}

	entry := NewEntry(
		key,
		entryUrl,
		method,
		statusCode,
		headers,
		body,
		time.UnixMilli(storedAt).UTC(),
	)
	return entry, true, nil
}

func (s *sqliteStore) Put(ctx context.Context, key string, entry Entry) error {
	headersRaw, err := json.Marshal(entry.Headers())
	if err != nil {
		return &StoreError{
			Message:   fmt.Sprintf("encode headers of entry %q: %v", key, err),
			Retryable: false,
			Cause:     ErrCauseEncodeFailure,
		}
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO cache_entries (store, key, url, method, status_code, headers, body, stored_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (store, key) DO UPDATE SET
			url = excluded.url,
			method = excluded.method,
			status_code = excluded.status_code,
			headers = excluded.headers,
			body = excluded.body,
			stored_at = excluded.stored_at`,
		s.name, key, entry.URL(), entry.Method(), entry.Code(),
		string(headersRaw), entry.Body(), entry.StoredAt().UTC().UnixMilli(),
	)
	if err != nil {
		return &StoreError{
			Message:   fmt.Sprintf("put entry %q: %v", key, err),
			Retryable: true,
			Cause:     ErrCauseStorageIO,
		}
	}
	return nil
}

func (s *sqliteStore) Delete(ctx context.Context, key string) (bool, error) {
	result, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE store = ? AND key = ?`,
		s.name, key,
	)
	if err != nil {
		return false, &StoreError{
			Message:   fmt.Sprintf("delete entry %q: %v", key, err),
			Retryable: true,
			Cause:     ErrCauseStorageIO,
		}
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, nil
	}
	return affected > 0, nil
}

func (s *sqliteStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT key FROM cache_entries WHERE store = ? ORDER BY key`,
		s.name,
	)
	if err != nil {
		return nil, &StoreError{
			Message:   fmt.Sprintf("list keys: %v", err),
			Retryable: true,
			Cause:     ErrCauseStorageIO,
		}
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, &StoreError{
				Message:   fmt.Sprintf("scan key: %v", err),
				Retryable: false,
				Cause:     ErrCauseDecodeFailure,
			}
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{
			Message:   fmt.Sprintf("iterate keys: %v", err),
			Retryable: true,
			Cause:     ErrCauseStorageIO,
		}
	}
	return keys, nil
}

func (s *sqliteStore) Size(ctx context.Context) (int, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cache_entries WHERE store = ?`,
		s.name,
	)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, &StoreError{
			Message:   fmt.Sprintf("count entries: %v", err),
			Retryable: true,
			Cause:     ErrCauseStorageIO,
		}
	}
	return count, nil
}

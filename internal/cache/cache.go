// Package cache provides a SQLite-backed cache of per-file summary results.
// Entries are keyed by (path, filter) and validated against a content hash,
// so unchanged files skip the parse entirely on repeat batch runs.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite" // register sqlite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS summary_cache (
	path    TEXT NOT NULL,
	filter  TEXT NOT NULL,
	hash    TEXT NOT NULL,
	result  TEXT NOT NULL,
	created INTEGER NOT NULL,
	PRIMARY KEY (path, filter)
);

CREATE INDEX IF NOT EXISTS idx_summary_created ON summary_cache(created);
`

// ContentHash returns the hex content hash used to validate cache entries.
func ContentHash(src []byte) string {
	h := sha256.Sum256(src)
	return hex.EncodeToString(h[:])
}

// Cache is a SQLite-backed summary cache.
type Cache struct {
	mu  sync.Mutex
	db  *sql.DB
	ttl time.Duration
}

// Open creates or opens a cache database at the given path.
// ttl controls how long entries remain fresh.
func Open(dbPath string, ttl time.Duration) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	// SQLite pragmas for performance.
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	c := &Cache{db: db, ttl: ttl}
	c.purgeStale()
	return c, nil
}

// Close closes the database. Safe on a nil receiver.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.db.Close()
}

// Get returns the cached result JSON for (path, filter) when the stored
// content hash matches and the entry is fresh. Safe to call on a nil
// receiver (returns miss).
func (c *Cache) Get(path, filter, hash string) (string, bool) {
	if c == nil {
		return "", false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-c.ttl).Unix()
	var result string
	err := c.db.QueryRow(
		"SELECT result FROM summary_cache WHERE path = ? AND filter = ? AND hash = ? AND created > ?",
		path, filter, hash, cutoff,
	).Scan(&result)
	if err != nil {
		return "", false
	}
	return result, true
}

// Set stores a result JSON for (path, filter). No-op on nil receiver.
func (c *Cache) Set(path, filter, hash, result string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.Exec(
		"INSERT OR REPLACE INTO summary_cache (path, filter, hash, result, created) VALUES (?, ?, ?, ?, ?)",
		path, filter, hash, result, time.Now().Unix(),
	)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("failed to cache summary")
	}
}

// purgeStale deletes entries older than the TTL. Best-effort.
func (c *Cache) purgeStale() {
	cutoff := time.Now().Add(-c.ttl).Unix()
	if _, err := c.db.Exec("DELETE FROM summary_cache WHERE created <= ?", cutoff); err != nil {
		log.Warn().Err(err).Msg("failed to purge stale cache entries")
	}
}

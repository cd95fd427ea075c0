package resolve

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"

	_ "modernc.org/sqlite"
)

// ModuleCache is a content-addressed on-disk cache of compiled LKRB module
// bytes, backed by modernc.org/sqlite. Keyed by the SHA-256 of the
// module's source text, so recompiling an unchanged module is a single
// indexed lookup instead of a full compile+encode pass. This is the one
// teacher dependency (modernc.org/sqlite) that funxy's own code never
// imports itself — see DESIGN.md.
type ModuleCache struct {
	db *sql.DB
}

// OpenModuleCache opens (creating if necessary) a sqlite-backed cache at
// path. Use ":memory:" for an ephemeral, process-local cache.
func OpenModuleCache(path string) (*ModuleCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open module cache: %w", err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS modules (
	hash       TEXT PRIMARY KEY,
	lkrb       BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init module cache schema: %w", err)
	}
	return &ModuleCache{db: db}, nil
}

// Close releases the underlying database handle.
func (c *ModuleCache) Close() error { return c.db.Close() }

// Hash returns the cache key for a module's source text.
func Hash(source []byte) string {
	sum := sha256.Sum256(source)
	return hex.EncodeToString(sum[:])
}

// Lookup returns the cached LKRB bytes for hash, if present.
func (c *ModuleCache) Lookup(hash string) ([]byte, bool, error) {
	var lkrb []byte
	err := c.db.QueryRow(`SELECT lkrb FROM modules WHERE hash = ?`, hash).Scan(&lkrb)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup module cache: %w", err)
	}
	return lkrb, true, nil
}

// Store records hash → lkrb, replacing any prior entry.
func (c *ModuleCache) Store(hash string, lkrb []byte, updatedAtUnix int64) error {
	_, err := c.db.Exec(
		`INSERT INTO modules (hash, lkrb, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(hash) DO UPDATE SET lkrb = excluded.lkrb, updated_at = excluded.updated_at`,
		hash, lkrb, updatedAtUnix,
	)
	if err != nil {
		return fmt.Errorf("store module cache entry: %w", err)
	}
	return nil
}

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/matsen/litmerge/internal/normalize"
	_ "modernc.org/sqlite"
)

// MetadataCache keeps registry responses keyed by normalized DOI so repeated
// import runs do not refetch the same works.
type MetadataCache struct {
	db *sql.DB
}

// OpenMetadataCache opens or creates a cache database at path.
func OpenMetadataCache(path string) (*MetadataCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if err := createCacheSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return &MetadataCache{db: db}, nil
}

// Close closes the database connection.
func (c *MetadataCache) Close() error {
	return c.db.Close()
}

func createCacheSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS works (
			doi TEXT PRIMARY KEY,
			body BLOB NOT NULL,
			fetched_at INTEGER NOT NULL
		);
	`
	_, err := db.Exec(schema)
	return err
}

// Get returns the cached body for doi.
func (c *MetadataCache) Get(doi string) ([]byte, bool, error) {
	key := normalize.KeyText(doi)
	if key == "" {
		return nil, false, nil
	}

	var body []byte
	err := c.db.QueryRow(`SELECT body FROM works WHERE doi = ?`, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("querying cache: %w", err)
	}
	return body, true, nil
}

// Put stores body for doi, replacing any earlier entry.
func (c *MetadataCache) Put(doi string, body []byte) error {
	key := normalize.KeyText(doi)
	if key == "" {
		return nil
	}
	_, err := c.db.Exec(`
		INSERT INTO works (doi, body, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(doi) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at
	`, key, body, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

// Count returns the number of cached works.
func (c *MetadataCache) Count() (int, error) {
	var n int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM works`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache: %w", err)
	}
	return n, nil
}

// Clear removes every cached work.
func (c *MetadataCache) Clear() error {
	_, err := c.db.Exec(`DELETE FROM works`)
	return err
}

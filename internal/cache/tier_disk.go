package cache

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	_ "github.com/mattn/go-sqlite3"

	"github.com/repoanalysis/engine/internal/corerr"
)

// diskTier is the T2 on-disk embedded relational store. All accesses are
// serialized through a single *sql.DB connection to honor the
// at-most-one-writer contract.
type diskTier struct {
	mu    sync.Mutex
	db    *sql.DB
	stats TierStats
}

const diskSchema = `
CREATE TABLE IF NOT EXISTS file_cache (
	path TEXT PRIMARY KEY,
	content_blob BLOB,
	hash TEXT,
	language TEXT,
	size INTEGER,
	cached_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS analysis_cache (
	key TEXT PRIMARY KEY,
	data_blob BLOB NOT NULL,
	cached_at DATETIME NOT NULL,
	ttl INTEGER
);

CREATE TABLE IF NOT EXISTS session_state (
	codebase_id TEXT PRIMARY KEY,
	state_blob BLOB NOT NULL,
	updated_at DATETIME NOT NULL
);
`

func newDiskTier(path string) (*diskTier, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, corerr.Wrap(corerr.CacheError, "failed to create t2 directory", errors.WithStack(err))
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, corerr.Wrap(corerr.CacheError, "failed to open t2 database", errors.WithStack(err))
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(diskSchema); err != nil {
		db.Close()
		return nil, corerr.Wrap(corerr.CacheError, "failed to initialize t2 schema", errors.WithStack(err))
	}

	return &diskTier{db: db}, nil
}

func (d *diskTier) close() error {
	return d.db.Close()
}

// get retrieves a value by fully-qualified key ("namespace:key"). Session
// state uses the codebase_id as its key directly.
func (d *diskTier) get(namespace, key string) ([]byte, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if namespace == "session" {
		return d.getSession(key)
	}
	if namespace == "file" {
		return d.getFile(key)
	}
	return d.getAnalysis(fqKey(namespace, key))
}

func (d *diskTier) getSession(codebaseID string) ([]byte, bool, error) {
	var blob []byte
	err := d.db.QueryRow(`SELECT state_blob FROM session_state WHERE codebase_id = ?`, codebaseID).Scan(&blob)
	if err == sql.ErrNoRows {
		d.stats.Misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, corerr.Wrap(corerr.CacheError, "t2 session_state query failed", errors.WithStack(err))
	}
	d.stats.Hits.Add(1)
	return blob, true, nil
}

func (d *diskTier) getFile(contentHash string) ([]byte, bool, error) {
	var blob []byte
	err := d.db.QueryRow(`SELECT content_blob FROM file_cache WHERE path = ?`, contentHash).Scan(&blob)
	if err == sql.ErrNoRows {
		d.stats.Misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, corerr.Wrap(corerr.CacheError, "t2 file_cache query failed", errors.WithStack(err))
	}
	d.stats.Hits.Add(1)
	return blob, true, nil
}

func (d *diskTier) getAnalysis(key string) ([]byte, bool, error) {
	var blob []byte
	var cachedAt time.Time
	var ttl sql.NullInt64
	err := d.db.QueryRow(`SELECT data_blob, cached_at, ttl FROM analysis_cache WHERE key = ?`, key).
		Scan(&blob, &cachedAt, &ttl)
	if err == sql.ErrNoRows {
		d.stats.Misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, corerr.Wrap(corerr.CacheError, "t2 analysis_cache query failed", errors.WithStack(err))
	}
	if ttl.Valid && ttl.Int64 > 0 {
		if time.Now().After(cachedAt.Add(time.Duration(ttl.Int64) * time.Millisecond)) {
			d.db.Exec(`DELETE FROM analysis_cache WHERE key = ?`, key)
			d.stats.Misses.Add(1)
			return nil, false, nil
		}
	}
	d.stats.Hits.Add(1)
	return blob, true, nil
}

func (d *diskTier) set(namespace, key string, value []byte, ttl time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.db.Begin()
	if err != nil {
		return corerr.Wrap(corerr.CacheError, "t2 transaction begin failed", errors.WithStack(err))
	}

	now := time.Now()
	switch namespace {
	case "session":
		_, err = tx.Exec(`
			INSERT INTO session_state (codebase_id, state_blob, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(codebase_id) DO UPDATE SET state_blob = excluded.state_blob, updated_at = excluded.updated_at
		`, key, value, now)
	case "file":
		_, err = tx.Exec(`
			INSERT INTO file_cache (path, content_blob, hash, language, size, cached_at) VALUES (?, ?, ?, '', ?, ?)
			ON CONFLICT(path) DO UPDATE SET content_blob = excluded.content_blob, size = excluded.size, cached_at = excluded.cached_at
		`, key, value, key, len(value), now)
	default:
		// ttl is stored in milliseconds so sub-second TTLs still expire;
		// 0 means no expiry.
		ttlMillis := int64(0)
		if ttl > 0 {
			ttlMillis = ttl.Milliseconds()
			if ttlMillis == 0 {
				ttlMillis = 1
			}
		}
		_, err = tx.Exec(`
			INSERT INTO analysis_cache (key, data_blob, cached_at, ttl) VALUES (?, ?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET data_blob = excluded.data_blob, cached_at = excluded.cached_at, ttl = excluded.ttl
		`, fqKey(namespace, key), value, now, ttlMillis)
	}

	if err != nil {
		tx.Rollback()
		return corerr.Wrap(corerr.CacheError, "t2 write failed", errors.WithStack(err))
	}
	if err := tx.Commit(); err != nil {
		return corerr.Wrap(corerr.CacheError, "t2 transaction commit failed", errors.WithStack(err))
	}
	return nil
}

func (d *diskTier) invalidateCodebase(codebaseID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.db.Begin()
	if err != nil {
		return corerr.Wrap(corerr.CacheError, "t2 transaction begin failed", errors.WithStack(err))
	}
	if _, err := tx.Exec(`DELETE FROM session_state WHERE codebase_id = ?`, codebaseID); err != nil {
		tx.Rollback()
		return corerr.Wrap(corerr.CacheError, "t2 session_state invalidation failed", errors.WithStack(err))
	}
	if _, err := tx.Exec(`DELETE FROM analysis_cache WHERE key LIKE ?`, "%"+codebaseID+"%"); err != nil {
		tx.Rollback()
		return corerr.Wrap(corerr.CacheError, "t2 analysis_cache invalidation failed", errors.WithStack(err))
	}
	if _, err := tx.Exec(`DELETE FROM file_cache WHERE path LIKE ?`, "%"+codebaseID+"%"); err != nil {
		tx.Rollback()
		return corerr.Wrap(corerr.CacheError, "t2 file_cache invalidation failed", errors.WithStack(err))
	}
	return tx.Commit()
}

func fqKey(namespace, key string) string {
	if strings.HasPrefix(key, namespace+":") {
		return key
	}
	return namespace + ":" + key
}

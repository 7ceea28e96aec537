// Package calculations provides the persistent cache for derived
// analytics. Entries are msgpack-encoded and bound to the portfolio
// value epoch they were computed under, so any trade invalidates them.
package calculations

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// DefaultTTL bounds cache entry lifetime even when the epoch never moves.
const DefaultTTL = 15 * time.Minute

// Cache stores computed results in the cache database.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
	log zerolog.Logger
}

// NewCache creates a cache with the given TTL. A non-positive TTL falls
// back to DefaultTTL.
func NewCache(db *sql.DB, ttl time.Duration, log zerolog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		db:  db,
		ttl: ttl,
		log: log.With().Str("component", "calc_cache").Logger(),
	}
}

// Set stores a value under a key, stamped with the portfolio epoch it was
// computed at.
func (c *Cache) Set(key string, epoch uint64, value interface{}) error {
	blob, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value for %s: %w", key, err)
	}
	now := time.Now().Unix()
	_, err = c.db.Exec(`
		INSERT INTO calc_cache (key, value, epoch, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			epoch = excluded.epoch,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at
	`, key, blob, int64(epoch), now, now+int64(c.ttl.Seconds()))
	if err != nil {
		return fmt.Errorf("failed to store cache entry %s: %w", key, err)
	}
	return nil
}

// Get loads a value into dest. It reports a miss when the key is absent,
// expired, or was written at a different portfolio epoch.
func (c *Cache) Get(key string, epoch uint64, dest interface{}) (bool, error) {
	var blob []byte
	var storedEpoch, expiresAt int64
	err := c.db.QueryRow(`
		SELECT value, epoch, expires_at FROM calc_cache WHERE key = ?
	`, key).Scan(&blob, &storedEpoch, &expiresAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache entry %s: %w", key, err)
	}
	if storedEpoch != int64(epoch) || expiresAt <= time.Now().Unix() {
		return false, nil
	}
	if err := msgpack.Unmarshal(blob, dest); err != nil {
		// A corrupt entry is treated as a miss and overwritten on the
		// next Set.
		c.log.Warn().Str("key", key).Err(err).Msg("Discarding undecodable cache entry")
		return false, nil
	}
	return true, nil
}

// Invalidate removes a single cache entry.
func (c *Cache) Invalidate(key string) error {
	if _, err := c.db.Exec(`DELETE FROM calc_cache WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to invalidate cache entry %s: %w", key, err)
	}
	return nil
}

// Purge deletes expired entries. Run periodically by the scheduler.
func (c *Cache) Purge() (int64, error) {
	res, err := c.db.Exec(`DELETE FROM calc_cache WHERE expires_at <= ?`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		c.log.Debug().Int64("entries", n).Msg("Purged expired cache entries")
	}
	return n, nil
}

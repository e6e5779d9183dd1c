package devdraft

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/devdraft/saligen/internal/constants"
)

// NATSKVConfig configures a NATS JetStream key-value cache.
type NATSKVConfig struct {
	// URL of the NATS server. Ignored when Conn is set.
	URL string
	// Bucket name. Defaults to "devdraft_responses".
	Bucket string
	// TTL is the bucket-level maximum age of every entry. Zero keeps entries
	// until their own expiry is checked on read.
	TTL time.Duration
	// Conn reuses an existing connection, which Close leaves open.
	Conn *nats.Conn
}

// NATSKVCache stores cache entries in a JetStream key-value bucket so that
// several processes can share responses.
type NATSKVCache struct {
	conn    *nats.Conn
	ownConn bool
	kv      jetstream.KeyValue
}

// NewNATSKVCache connects to NATS and creates or updates the bucket.
func NewNATSKVCache(ctx context.Context, config *NATSKVConfig) (*NATSKVCache, error) {
	if config == nil || (config.URL == "" && config.Conn == nil) {
		return nil, ErrNATSConfigRequired
	}

	bucket := config.Bucket
	if bucket == "" {
		bucket = constants.DefaultNATSBucket
	}

	conn := config.Conn
	ownConn := false

	if conn == nil {
		var err error

		conn, err = nats.Connect(config.URL, nats.Name("devdraft-sdk"))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}

		ownConn = true
	}

	js, err := jetstream.New(conn)
	if err != nil {
		if ownConn {
			conn.Close()
		}

		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, constants.NATSOperationTimeout)
	defer cancel()

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "DevDraft SDK response cache",
		TTL:         config.TTL,
	})
	if err != nil {
		if ownConn {
			conn.Close()
		}

		return nil, fmt.Errorf("failed to create key-value bucket %s: %w", bucket, err)
	}

	return &NATSKVCache{conn: conn, ownConn: ownConn, kv: kv}, nil
}

// natsKey maps an arbitrary cache key onto the KV key alphabet.
func natsKey(key string) string {
	sum := sha256.Sum256([]byte(key))

	return hex.EncodeToString(sum[:])
}

// Get returns the entry for key.
func (c *NATSKVCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	kvEntry, err := c.kv.Get(ctx, natsKey(key))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, ErrKeyNotFound
		}

		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}

	var entry CacheEntry

	err = json.Unmarshal(kvEntry.Value(), &entry)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cache entry: %w", err)
	}

	if entry.Expired() {
		_ = c.kv.Delete(ctx, natsKey(key))

		return nil, ErrEntryExpired
	}

	return &entry, nil
}

// Set stores entry under key.
func (c *NATSKVCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	_, err = c.kv.Put(ctx, natsKey(key), data)
	if err != nil {
		return fmt.Errorf("failed to put cache entry: %w", err)
	}

	return nil
}

// Delete removes key.
func (c *NATSKVCache) Delete(ctx context.Context, key string) error {
	err := c.kv.Delete(ctx, natsKey(key))
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}

	return nil
}

// Clear removes every key in the bucket.
func (c *NATSKVCache) Clear(ctx context.Context) error {
	lister, err := c.kv.ListKeys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil
		}

		return fmt.Errorf("failed to list cache keys: %w", err)
	}

	defer func() { _ = lister.Stop() }()

	for key := range lister.Keys() {
		err = c.kv.Delete(ctx, key)
		if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
			return fmt.Errorf("failed to delete cache entry: %w", err)
		}
	}

	return nil
}

// Has reports whether an unexpired entry exists for key.
func (c *NATSKVCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

// Close releases the connection when the cache opened it.
func (c *NATSKVCache) Close() {
	if c.ownConn {
		c.conn.Close()
	}
}

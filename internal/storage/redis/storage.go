package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/clubhouse/internal/storage/document"
)

// Bucket is a Redis-backed implementation of document.Bucket.
// Each document is a hash {doc, rev}; writes are WATCH/MULTI transactions.
type Bucket struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis bucket
func New(cfg Config) (*Bucket, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Bucket{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis bucket with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Bucket {
	return &Bucket{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (b *Bucket) Close() error {
	return b.client.Close()
}

// Ensure Bucket implements the interface
var _ document.Bucket = (*Bucket)(nil)

func (b *Bucket) Ping(ctx context.Context) error {
	return classify(b.client.Ping(ctx).Err(), nil)
}

func (b *Bucket) Create(ctx context.Context, key string, doc []byte) (document.Revision, error) {
	var rev uint64
	err := b.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return document.ErrKeyExists
		}

		rev, err = b.nextRevision(ctx, tx)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, docField, doc, revField, rev)
			return nil
		})
		return err
	}, key)
	if err != nil {
		// a racing writer created the key after our check
		return 0, classify(err, document.ErrKeyExists)
	}
	return document.Revision(rev), nil
}

func (b *Bucket) Read(ctx context.Context, key string) ([]byte, document.Revision, error) {
	fields, err := b.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, 0, classify(err, nil)
	}
	if len(fields) == 0 {
		return nil, 0, document.ErrKeyNotFound
	}
	rev, err := strconv.ParseUint(fields[revField], 10, 64)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: bad revision on %s: %w", document.ErrUnavailable, key, err)
	}
	return []byte(fields[docField]), document.Revision(rev), nil
}

func (b *Bucket) Replace(ctx context.Context, key string, doc []byte, expected document.Revision) (document.Revision, error) {
	var rev uint64
	err := b.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, key, revField).Uint64()
		if errors.Is(err, redis.Nil) {
			return document.ErrKeyNotFound
		}
		if err != nil {
			return err
		}
		if document.Revision(current) != expected {
			return document.ErrRevisionMismatch
		}

		rev, err = b.nextRevision(ctx, tx)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, docField, doc, revField, rev)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return 0, classify(err, document.ErrRevisionMismatch)
	}
	return document.Revision(rev), nil
}

func (b *Bucket) Remove(ctx context.Context, key string, expected document.Revision) error {
	err := b.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, key, revField).Uint64()
		if errors.Is(err, redis.Nil) {
			return document.ErrKeyNotFound
		}
		if err != nil {
			return err
		}
		if document.Revision(current) != expected {
			return document.ErrRevisionMismatch
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		return err
	}, key)
	return classify(err, document.ErrRevisionMismatch)
}

func (b *Bucket) Keys(ctx context.Context, prefix string) ([]string, error) {
	seen := make(map[string]struct{})
	iter := b.client.Scan(ctx, 0, prefixPattern(prefix), b.cfg.ScanCount).Iterator()
	for iter.Next(ctx) {
		seen[iter.Val()] = struct{}{}
	}
	if err := iter.Err(); err != nil {
		return nil, classify(err, nil)
	}

	// SCAN may return a key more than once
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *Bucket) ReadMany(ctx context.Context, keys []string) ([][]byte, error) {
	cmds := make([]*redis.StringCmd, len(keys))
	_, err := b.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, k := range keys {
			cmds[i] = pipe.HGet(ctx, k, docField)
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, classify(err, nil)
	}

	docs := make([][]byte, len(keys))
	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, classify(err, nil)
		}
		docs[i] = data
	}
	return docs, nil
}

func (b *Bucket) nextRevision(ctx context.Context, tx *redis.Tx) (uint64, error) {
	n, err := tx.Incr(ctx, revisionKey(b.cfg.Namespace)).Result()
	if err != nil {
		return 0, err
	}
	return uint64(n), nil
}

// classify passes bucket conditions through, maps a failed optimistic
// transaction to onTxFailed and wraps anything else as unavailable
func classify(err error, onTxFailed error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, document.ErrKeyExists),
		errors.Is(err, document.ErrKeyNotFound),
		errors.Is(err, document.ErrRevisionMismatch):
		return err
	case errors.Is(err, redis.TxFailedErr) && onTxFailed != nil:
		return onTxFailed
	default:
		return fmt.Errorf("%w: %w", document.ErrUnavailable, err)
	}
}

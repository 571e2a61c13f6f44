// Package redis implements the hashtable backend contract on top of
// github.com/redis/go-redis. It is a direct pass-through to the client's
// primitives; namespacing, negative caching, and lock orchestration all live
// in the dispatcher.
package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	be "github.com/Youniwemi/HashTable/backend"
)

var ErrNilClient = errors.New("redis backend: nil client")

type Redis struct {
	rdb         goredis.UniversalClient
	closeClient bool
}

var (
	_ be.Backend = (*Redis)(nil)
	_ be.Locker  = (*Redis)(nil)
)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool // set true only if this backend exclusively owns the client
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Redis{rdb: cfg.Client, closeClient: cfg.CloseClient}, nil
}

func (b *Redis) BatchGet(ctx context.Context, keys []string) (map[string]string, error) {
	if len(keys) == 0 {
		return map[string]string{}, nil
	}
	vals, err := b.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(keys))
	for i, v := range vals {
		switch vv := v.(type) {
		case nil:
			// miss; leave the key out
		case string:
			out[keys[i]] = vv
		case []byte:
			out[keys[i]] = string(vv)
		}
	}
	return out, nil
}

// BatchExists pipelines one EXISTS per key so the caller learns which keys
// exist, not just how many.
func (b *Redis) BatchExists(ctx context.Context, keys []string) (map[string]bool, error) {
	if len(keys) == 0 {
		return map[string]bool{}, nil
	}
	cmds := make([]*goredis.IntCmd, len(keys))
	_, err := b.rdb.Pipelined(ctx, func(p goredis.Pipeliner) error {
		for i, k := range keys {
			cmds[i] = p.Exists(ctx, k)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(keys))
	for i, k := range keys {
		out[k] = cmds[i].Val() > 0
	}
	return out, nil
}

func (b *Redis) BatchDelete(ctx context.Context, keys []string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	return b.rdb.Del(ctx, keys...).Result()
}

func (b *Redis) ConditionalSet(ctx context.Context, key, value string, opts be.SetOptions) (bool, error) {
	ttl := opts.TTL
	if ttl < 0 {
		ttl = 0
	}
	if opts.RequireExisting {
		return b.rdb.SetXX(ctx, key, value, ttl).Result()
	}
	if err := b.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return false, err
	}
	return true, nil
}

// ScanByPattern walks the keyspace with SCAN rather than KEYS to avoid
// blocking the server on large databases.
func (b *Redis) ScanByPattern(ctx context.Context, pattern string) ([]string, error) {
	var out []string
	iter := b.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		out = append(out, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Redis) SetIfAbsent(ctx context.Context, key, value string) (bool, error) {
	return b.rdb.SetNX(ctx, key, value, 0).Result()
}

func (b *Redis) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return b.rdb.Expire(ctx, key, ttl).Result()
}

// Persistent is true: Redis keeps data beyond this process's lifetime.
func (b *Redis) Persistent() bool { return true }

// Close releases the underlying redis client only when this backend owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (b *Redis) Close(context.Context) error {
	if b.closeClient {
		if err := b.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}

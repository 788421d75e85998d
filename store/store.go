package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zeu5/rl-planner/types"
)

var (
	// ErrNotFound is returned when no value table is saved under a name
	ErrNotFound = errors.New("store: value table not found")
	// ErrCorrupt is returned when a saved value cannot be parsed
	ErrCorrupt = errors.New("store: corrupt value")
)

// ValueStore persists value tables by name, for exports and warm starts
type ValueStore interface {
	Save(context.Context, string, map[types.StateKey]float64) error
	Load(context.Context, string) (map[types.StateKey]float64, error)
}

// RedisValueStore keeps every value table as a redis hash from state key to value
type RedisValueStore struct {
	client *redis.Client
	prefix string
}

var _ ValueStore = &RedisValueStore{}

func NewRedisValueStore(addr, prefix string) *RedisValueStore {
	return NewRedisValueStoreWithClient(redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 500 * time.Millisecond,
	}), prefix)
}

func NewRedisValueStoreWithClient(client *redis.Client, prefix string) *RedisValueStore {
	return &RedisValueStore{
		client: client,
		prefix: prefix,
	}
}

func (r *RedisValueStore) key(name string) string {
	return r.prefix + ":values:" + name
}

// Ping checks the connection
func (r *RedisValueStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Save replaces the table stored under name
func (r *RedisValueStore) Save(ctx context.Context, name string, values map[types.StateKey]float64) error {
	key := r.key(name)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(values) > 0 {
			pipe.HSet(ctx, key, EncodeValues(values))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}

func (r *RedisValueStore) Load(ctx context.Context, name string) (map[types.StateKey]float64, error) {
	key := r.key(name)
	fields, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", key, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return DecodeValues(fields)
}

func (r *RedisValueStore) Delete(ctx context.Context, name string) error {
	return r.client.Del(ctx, r.key(name)).Err()
}

// List returns the names of the saved tables
func (r *RedisValueStore) List(ctx context.Context) ([]string, error) {
	prefix := r.key("")
	names := make([]string, 0)
	iter := r.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		names = append(names, iter.Val()[len(prefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

func (r *RedisValueStore) Close() error {
	return r.client.Close()
}

// EncodeValues converts a value table to redis hash fields
func EncodeValues(values map[types.StateKey]float64) map[string]interface{} {
	fields := make(map[string]interface{}, len(values))
	for key, v := range values {
		fields[string(key)] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return fields
}

// DecodeValues parses redis hash fields back to a value table
func DecodeValues(fields map[string]string) (map[types.StateKey]float64, error) {
	values := make(map[types.StateKey]float64, len(fields))
	for field, raw := range fields {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q", ErrCorrupt, field, raw)
		}
		values[types.StateKey(field)] = v
	}
	return values, nil
}

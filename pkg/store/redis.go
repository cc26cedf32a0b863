package store

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/newtron-network/epaudit/pkg/record"
)

// RedisMirror keeps one hash per endpoint at ENDPOINT|<address>.
type RedisMirror struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisMirror creates a mirror and checks the server is reachable.
func NewRedisMirror(ctx context.Context, addr, password string, db int) (*RedisMirror, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return &RedisMirror{client: client, now: time.Now}, nil
}

// Reset deletes every ENDPOINT|* key.
func (m *RedisMirror) Reset(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := m.client.Scan(ctx, cursor, Table+"|*", 100).Result()
		if err != nil {
			return fmt.Errorf("scanning %s keys: %w", Table, err)
		}
		if len(keys) > 0 {
			if err := m.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("deleting %s keys: %w", Table, err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Put replaces the endpoint's hash with the record's fields.
func (m *RedisMirror) Put(ctx context.Context, rec *record.Record, status string) error {
	key := Key(rec.Address)
	fields := Fields(rec, status, m.now())

	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}

	_, err := m.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		p.HSet(ctx, key, args...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Get reads the hash for address. An unknown address yields an empty map.
func (m *RedisMirror) Get(ctx context.Context, address string) (map[string]string, error) {
	return m.client.HGetAll(ctx, Key(address)).Result()
}

// Close closes the connection
func (m *RedisMirror) Close() error {
	return m.client.Close()
}

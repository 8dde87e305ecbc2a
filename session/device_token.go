package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable is returned when the Redis-backed device token store
// cannot be reached.
var ErrRedisUnavailable = errors.New("redis unavailable")

// DeviceTokenStore persists the opaque device token the server hands out in the
// Authorization response header. It identifies this device's client across
// restarts.
type DeviceTokenStore interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// MemoryDeviceTokenStore keeps the device token for the process lifetime.
type MemoryDeviceTokenStore struct {
	mu    sync.RWMutex
	token string
}

func NewMemoryDeviceTokenStore() *MemoryDeviceTokenStore {
	return &MemoryDeviceTokenStore{}
}

func (m *MemoryDeviceTokenStore) Get(context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

func (m *MemoryDeviceTokenStore) Set(_ context.Context, token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *MemoryDeviceTokenStore) Clear(context.Context) error {
	return m.Set(context.Background(), "")
}

// RedisDeviceTokenStore shares the device token between processes acting as the
// same device, keyed by device id.
type RedisDeviceTokenStore struct {
	redis redis.UniversalClient
	key   string
}

// NewRedisDeviceTokenStore stores the token under "<prefix>:dt:<deviceID>".
func NewRedisDeviceTokenStore(client redis.UniversalClient, prefix, deviceID string) *RedisDeviceTokenStore {
	return &RedisDeviceTokenStore{
		redis: client,
		key:   prefix + ":dt:" + deviceID,
	}
}

func (r *RedisDeviceTokenStore) Get(ctx context.Context) (string, error) {
	v, err := r.redis.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return v, nil
}

func (r *RedisDeviceTokenStore) Set(ctx context.Context, token string) error {
	if err := r.redis.Set(ctx, r.key, token, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (r *RedisDeviceTokenStore) Clear(ctx context.Context) error {
	if err := r.redis.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

package tokencache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const minIndexTTL = 24 * time.Hour

// Redis is a token cache shared by every process using the same Redis keyspace.
// Entries carry a Redis TTL equal to the token's remaining lifetime.
//
//	Performance: Get is 1 GET; Set is one MULTI with SET, SADD, PEXPIRE.
type Redis struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedis creates a cache under the "<prefix>:tok:{<session>}" namespace.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "gac"
	}
	return &Redis{
		redis:  client,
		prefix: prefix,
		now:    time.Now,
	}
}

// Keys of one session share a hash tag so the MULTI in Set and the DEL in
// DeleteSession stay in a single cluster slot.
func (r *Redis) key(k CacheKey) string {
	key := r.prefix + ":tok:{" + k.SessionID + "}"
	if k.Template != "" {
		key += "-" + k.Template
	}
	return key
}

func (r *Redis) indexKey(sessionID string) string {
	return r.prefix + ":tokidx:{" + sessionID + "}"
}

func (r *Redis) Get(ctx context.Context, key CacheKey) (Token, bool, error) {
	data, err := r.redis.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Token{}, false, nil
	}
	if err != nil {
		return Token{}, false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	token, _, err := decodeEntry(data)
	if err != nil {
		// Unreadable blobs are treated as a miss and dropped.
		_ = r.redis.Del(ctx, r.key(key)).Err()
		return Token{}, false, nil
	}
	return token, true, nil
}

func (r *Redis) Set(ctx context.Context, key CacheKey, token Token) error {
	now := r.now()
	ttl := token.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return nil
	}

	data, err := encodeEntry(token, now)
	if err != nil {
		return err
	}

	indexTTL := ttl
	if indexTTL < minIndexTTL {
		indexTTL = minIndexTTL
	}

	entryKey := r.key(key)
	indexKey := r.indexKey(key.SessionID)
	_, err = r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, entryKey, data, ttl)
		pipe.SAdd(ctx, indexKey, entryKey)
		pipe.PExpire(ctx, indexKey, indexTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key CacheKey) error {
	entryKey := r.key(key)
	_, err := r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, entryKey)
		pipe.SRem(ctx, r.indexKey(key.SessionID), entryKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

func (r *Redis) DeleteSession(ctx context.Context, sessionID string) error {
	indexKey := r.indexKey(sessionID)
	members, err := r.redis.SMembers(ctx, indexKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	keys := append(members, indexKey)
	if err := r.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

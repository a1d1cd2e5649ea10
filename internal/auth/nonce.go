package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// NonceStore hands out single-use login nonces. A nonce is valid for the
// store's TTL and is deleted on first consumption.
type NonceStore interface {
	Issue(ctx context.Context) (string, error)
	Consume(ctx context.Context, nonce string) error
	Sweep(ctx context.Context) int
}

// ErrNonceInvalid covers unknown, expired, and already-consumed nonces alike;
// callers must not be able to distinguish the three.
var ErrNonceInvalid = fmt.Errorf("invalid or expired nonce")

func newNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// MemoryNonceStore keeps nonces in process memory with per-entry expiry.
// Entries expire lazily on Consume and eagerly via Sweep. Suitable only for
// single-instance deployments; use the Redis store when scaling out.
type MemoryNonceStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]time.Time
}

func NewMemoryNonceStore(ttl time.Duration) *MemoryNonceStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &MemoryNonceStore{ttl: ttl, entries: make(map[string]time.Time)}
}

func (s *MemoryNonceStore) Issue(ctx context.Context) (string, error) {
	n, err := newNonce()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.entries[n] = time.Now().Add(s.ttl)
	s.mu.Unlock()

	return n, nil
}

func (s *MemoryNonceStore) Consume(ctx context.Context, nonce string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.entries[nonce]
	if !ok {
		return ErrNonceInvalid
	}
	// delete-on-use: the nonce is gone whether or not it was still fresh
	delete(s.entries, nonce)
	if time.Now().After(exp) {
		return ErrNonceInvalid
	}

	return nil
}

// Sweep drops expired entries and returns how many were removed.
func (s *MemoryNonceStore) Sweep(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for n, exp := range s.entries {
		if now.After(exp) {
			delete(s.entries, n)
			removed++
		}
	}

	return removed
}

// Len reports the live entry count, for tests and diagnostics.
func (s *MemoryNonceStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// RedisNonceStore backs nonces with a shared Redis so consumption stays
// exclusive across instances. Redis owns expiry via key TTLs.
type RedisNonceStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisNonceStore(client *redis.Client, ttl time.Duration) *RedisNonceStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisNonceStore{client: client, ttl: ttl}
}

func (s *RedisNonceStore) key(nonce string) string {
	return "login_nonce:" + nonce
}

func (s *RedisNonceStore) Issue(ctx context.Context) (string, error) {
	n, err := newNonce()
	if err != nil {
		return "", err
	}

	if err := s.client.Set(ctx, s.key(n), "1", s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store nonce: %w", err)
	}

	return n, nil
}

func (s *RedisNonceStore) Consume(ctx context.Context, nonce string) error {
	res, err := s.client.GetDel(ctx, s.key(nonce)).Result()
	if err == redis.Nil {
		return ErrNonceInvalid
	}
	if err != nil {
		return fmt.Errorf("consume nonce: %w", err)
	}
	if res == "" {
		return ErrNonceInvalid
	}

	return nil
}

// Sweep is a no-op for Redis; key TTLs expire entries server-side.
func (s *RedisNonceStore) Sweep(ctx context.Context) int {
	return 0
}

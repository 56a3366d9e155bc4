package geocode

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	platformredis "alumport/internal/platform/redis"
)

// ErrNoMatch means the geocoding service knows no location for the address.
var ErrNoMatch = errors.New("no match for address")

// Cache stores geocoding results keyed by normalized address.
type Cache interface {
	Get(ctx context.Context, address string) (Result, bool, error)
	Set(ctx context.Context, address string, result Result, ttl time.Duration) error
}

// cacheKey normalizes the address and hashes it so arbitrary user input
// never lands in a Redis key.
func cacheKey(address string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(address), " "))
	sum := sha256.Sum256([]byte(normalized))
	return "geocode:" + hex.EncodeToString(sum[:16])
}

// RedisCache keeps results in Redis, shared across API instances.
type RedisCache struct {
	client *platformredis.Client
}

func NewRedisCache(client *platformredis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, address string) (Result, bool, error) {
	payload, err := c.client.Get(ctx, cacheKey(address)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Result{}, false, nil
		}
		return Result{}, false, fmt.Errorf("geocode cache get: %w", err)
	}

	var result Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return Result{}, false, fmt.Errorf("geocode cache decode: %w", err)
	}
	return result, true, nil
}

func (c *RedisCache) Set(ctx context.Context, address string, result Result, ttl time.Duration) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("geocode cache encode: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(address), payload, ttl).Err(); err != nil {
		return fmt.Errorf("geocode cache set: %w", err)
	}
	return nil
}

// MemoryCache is an in-process Cache for tests and broker-less deployments.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	result    Result
	expiresAt time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Get(_ context.Context, address string) (Result, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[cacheKey(address)]
	if !ok || time.Now().After(entry.expiresAt) {
		return Result{}, false, nil
	}
	return entry.result, true, nil
}

func (c *MemoryCache) Set(_ context.Context, address string, result Result, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(address)] = memoryEntry{result: result, expiresAt: time.Now().Add(ttl)}
	return nil
}

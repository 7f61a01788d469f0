package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Cache TTL constants
const (
	ServiceCacheTTL = 5 * time.Minute // catalog prices change rarely
)

const serviceCachePrefix = "cache:service:"

// CachedService is the cached form of a catalog service entry. The price is
// kept as its exact decimal string so nothing is lost in transit.
type CachedService struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	UnitPrice   string  `json:"unit_price"`
	Currency    string  `json:"currency"`
	MaxWeightKg float64 `json:"max_weight_kg"`
}

// GetService returns a cached catalog entry, or nil on a miss.
func (s *CacheStore) GetService(ctx context.Context, serviceID string) (*CachedService, error) {
	data, err := s.client.Get(ctx, serviceCachePrefix+serviceID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cached CachedService
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}

	return &cached, nil
}

// SetService caches a catalog entry.
func (s *CacheStore) SetService(ctx context.Context, svc *CachedService) error {
	data, err := json.Marshal(svc)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, serviceCachePrefix+svc.ID, data, ServiceCacheTTL).Err()
}

// InvalidateService drops a cached catalog entry.
func (s *CacheStore) InvalidateService(ctx context.Context, serviceID string) error {
	return s.client.Del(ctx, serviceCachePrefix+serviceID).Err()
}

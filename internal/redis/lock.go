package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireCartLock serializes cart mutations for one customer.
// Returns true if the lock was acquired, false if already held.
func (s *LockStore) AcquireCartLock(ctx context.Context, customerID string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:cart:%s", customerID)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseCartLock releases the cart lock for the given customer.
func (s *LockStore) ReleaseCartLock(ctx context.Context, customerID string) error {
	key := fmt.Sprintf("lock:cart:%s", customerID)

	return s.client.Del(ctx, key).Err()
}

// PlaceOffer records an exclusive dispatch offer: at most one driver holds an
// open offer for an order. The TTL is the acceptance window, so an ignored
// offer expires on its own.
func (s *LockStore) PlaceOffer(ctx context.Context, orderID, driverID string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("offer:order:%s", orderID)

	ok, err := s.client.SetNX(ctx, key, driverID, ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// GetOffer returns the driver currently holding the offer for an order,
// or "" if no offer is open.
func (s *LockStore) GetOffer(ctx context.Context, orderID string) (string, error) {
	key := fmt.Sprintf("offer:order:%s", orderID)

	driverID, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	return driverID, nil
}

// withdrawOfferScript deletes the offer only if the named driver still holds
// it, so a late withdrawal cannot clobber the next candidate's offer.
var withdrawOfferScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// WithdrawOffer removes the offer for an order if held by the given driver.
// Returns true if an offer was removed.
func (s *LockStore) WithdrawOffer(ctx context.Context, orderID, driverID string) (bool, error) {
	key := fmt.Sprintf("offer:order:%s", orderID)

	n, err := withdrawOfferScript.Run(ctx, s.client, []string{key}, driverID).Int()
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

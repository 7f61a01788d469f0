package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// One geo set holds every online driver; going offline removes the member.
const driverGeoKey = "geo:drivers"

// DriverLocation is a driver's last reported position. DistKm is only set on
// results of a radius query, measured from the query point.
type DriverLocation struct {
	DriverID string
	Lat      float64
	Lng      float64
	DistKm   float64
}

// LocationStore keeps the live driver geo index in Redis.
type LocationStore struct {
	client *redis.Client
}

// NewLocationStore creates a new LocationStore.
func NewLocationStore(client *redis.Client) *LocationStore {
	return &LocationStore{client: client}
}

// UpdateLocation upserts a driver's position in the geo index.
func (s *LocationStore) UpdateLocation(ctx context.Context, driverID string, lat, lng float64) error {
	return s.client.GeoAdd(ctx, driverGeoKey, &redis.GeoLocation{
		Name:      driverID,
		Latitude:  lat,
		Longitude: lng,
	}).Err()
}

// FindNearbyDrivers returns drivers within radiusKm of the pickup point,
// nearest first with distances filled in.
func (s *LocationStore) FindNearbyDrivers(ctx context.Context, lat, lng, radiusKm float64) ([]DriverLocation, error) {
	results, err := s.client.GeoRadius(ctx, driverGeoKey, lng, lat, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		WithDist:  true,
		Sort:      "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}

	nearby := make([]DriverLocation, 0, len(results))
	for _, r := range results {
		nearby = append(nearby, DriverLocation{
			DriverID: r.Name,
			Lat:      r.Latitude,
			Lng:      r.Longitude,
			DistKm:   r.Dist,
		})
	}
	return nearby, nil
}

// RemoveLocation drops a driver from the geo index so dispatch stops seeing
// them.
func (s *LocationStore) RemoveLocation(ctx context.Context, driverID string) error {
	return s.client.ZRem(ctx, driverGeoKey, driverID).Err()
}

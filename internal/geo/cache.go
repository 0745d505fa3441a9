package geo

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedResolver caches resolved coordinates in Redis in front of another
// resolver. Cache misses and Redis errors fall through to the inner resolver;
// unresolved pincodes are cached too so a dead pincode is not re-looked-up on
// every checkout.
type CachedResolver struct {
	inner Resolver
	rdb   *redis.Client
	ttl   time.Duration
}

const unresolvedMarker = "none"

// NewCachedResolver wraps inner with a Redis coordinate cache.
func NewCachedResolver(inner Resolver, rdb *redis.Client, ttl time.Duration) *CachedResolver {
	return &CachedResolver{inner: inner, rdb: rdb, ttl: ttl}
}

func cacheKey(pincode string) string {
	return "geo:pincode:" + pincode
}

func (r *CachedResolver) Resolve(ctx context.Context, pincode string) (Coordinate, bool, error) {
	if !ValidPincode(pincode) {
		return Coordinate{}, false, nil
	}

	if val, err := r.rdb.Get(ctx, cacheKey(pincode)).Result(); err == nil {
		if val == unresolvedMarker {
			return Coordinate{}, false, nil
		}
		if c, ok := decodeCoordinate(val); ok {
			return c, true, nil
		}
		// corrupt entry: drop it and re-resolve
		_ = r.rdb.Del(ctx, cacheKey(pincode)).Err()
	}

	c, ok, err := r.inner.Resolve(ctx, pincode)
	if err != nil {
		// do not cache transient failures
		return c, ok, err
	}

	val := unresolvedMarker
	if ok {
		val = encodeCoordinate(c)
	}
	_ = r.rdb.Set(ctx, cacheKey(pincode), val, r.ttl).Err()

	return c, ok, nil
}

func encodeCoordinate(c Coordinate) string {
	return fmt.Sprintf("%s,%s",
		strconv.FormatFloat(c.Lat, 'f', -1, 64),
		strconv.FormatFloat(c.Lon, 'f', -1, 64))
}

func decodeCoordinate(s string) (Coordinate, bool) {
	lat, lon, found := strings.Cut(s, ",")
	if !found {
		return Coordinate{}, false
	}
	la, err1 := strconv.ParseFloat(lat, 64)
	lo, err2 := strconv.ParseFloat(lon, 64)
	if err1 != nil || err2 != nil {
		return Coordinate{}, false
	}
	return Coordinate{Lat: la, Lon: lo}, true
}

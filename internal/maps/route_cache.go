package maps

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"transporter/internal/types"
)

const routeKeyPrefix = "maps:route:"

// CachedRouter memoises successful lookups in Redis. Failures are never cached.
type CachedRouter struct {
	next  Router
	redis *redis.Client
	ttl   time.Duration
}

func NewCachedRouter(next Router, rdb *redis.Client, ttl time.Duration) *CachedRouter {
	return &CachedRouter{next: next, redis: rdb, ttl: ttl}
}

func (c *CachedRouter) Lookup(ctx context.Context, origin, destination types.RoutePoint) (types.RouteResult, error) {
	key := routeKey(origin, destination)

	val, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var res types.RouteResult
		if jerr := json.Unmarshal(val, &res); jerr == nil {
			return res, nil
		}
	case !errors.Is(err, redis.Nil):
		slog.WarnContext(ctx, "route cache read failed", "key", key, "error", err)
	}

	res, err := c.next.Lookup(ctx, origin, destination)
	if err != nil {
		return types.RouteResult{}, err
	}
	if data, jerr := json.Marshal(res); jerr == nil {
		if serr := c.redis.Set(ctx, key, data, c.ttl).Err(); serr != nil {
			slog.WarnContext(ctx, "route cache write failed", "key", key, "error", serr)
		}
	}
	return res, nil
}

func routeKey(origin, destination types.RoutePoint) string {
	return routeKeyPrefix + strings.ToLower(origin.Query()) + "|" + strings.ToLower(destination.Query())
}

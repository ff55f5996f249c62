// Package lock guards a user's checkout against concurrent double submits.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"example/waxroom/internal/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ErrHeld is returned when another checkout for the same user is running.
var ErrHeld = errors.New("checkout already in progress")

// Guard hands out per-user checkout locks.
type Guard interface {
	Lock(ctx context.Context, userID int64) (unlock func(), err error)
}

// Noop never blocks. It is used when no Redis is configured.
type Noop struct{}

func (Noop) Lock(context.Context, int64) (func(), error) { return func() {}, nil }

// releaseScript deletes the key only if it still holds our token, so an
// expired lock re-acquired by another request is left alone.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// Redis implements Guard with SET NX and a TTL.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedis returns a guard whose locks expire after ttl if never released.
func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func key(userID int64) string {
	return fmt.Sprintf("checkout-lock:%d", userID)
}

func (g *Redis) Lock(ctx context.Context, userID int64) (func(), error) {
	k := key(userID)
	token := uuid.NewString()

	ok, err := g.rdb.SetNX(ctx, k, token, g.ttl).Result()
	if err != nil {
		logger.Log.Errorw("Failed to acquire checkout lock", "user_id", userID, "error", err)
		return nil, fmt.Errorf("acquire checkout lock: %w", err)
	}
	if !ok {
		logger.Log.Infow("Checkout lock held, rejecting concurrent checkout", "user_id", userID)
		return nil, ErrHeld
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, g.rdb, []string{k}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			logger.Log.Warnw("Failed to release checkout lock", "user_id", userID, "error", err)
		}
	}, nil
}

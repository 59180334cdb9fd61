package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

var ErrTagReserved = errors.New("deposit tag already reserved")

// DepositGuard reserves client transaction tags so a retried deposit is
// rejected before it reaches the database.
type DepositGuard interface {
	Reserve(ctx context.Context, tag string) (Reservation, error)
}

// Reservation is held until the deposit either commits (Keep) or fails
// (Release, which lets the client retry with the same tag).
type Reservation interface {
	Keep(ctx context.Context) error
	Release(ctx context.Context) error
}

type RedisGuard struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisGuard(rdb *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{rdb: rdb, ttl: ttl, prefix: "deposit:tag:"}
}

// Connect dials Redis and verifies the connection.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.WithField("addr", addr).Info("Connected to Redis")
	return rdb, nil
}

func (g *RedisGuard) Reserve(ctx context.Context, tag string) (Reservation, error) {
	key := g.prefix + tag
	token := uuid.NewString()

	ok, err := g.rdb.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to reserve deposit tag: %w", err)
	}
	if !ok {
		return nil, ErrTagReserved
	}
	return &redisReservation{guard: g, key: key, token: token}, nil
}

type redisReservation struct {
	guard *RedisGuard
	key   string
	token string
}

func (r *redisReservation) Keep(ctx context.Context) error {
	return nil
}

// releaseScript deletes the key only if this reservation still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

func (r *redisReservation) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, r.guard.rdb, []string{r.key}, r.token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to release deposit tag: %w", err)
	}
	return nil
}

// NoopGuard is used when Redis is not configured; the database unique index
// on transactions.external_id remains the source of truth.
type NoopGuard struct{}

func (NoopGuard) Reserve(ctx context.Context, tag string) (Reservation, error) {
	return noopReservation{}, nil
}

type noopReservation struct{}

func (noopReservation) Keep(ctx context.Context) error    { return nil }
func (noopReservation) Release(ctx context.Context) error { return nil }

package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/jhoicas/reco-api/internal/application/ports"
	"github.com/jhoicas/reco-api/internal/domain"
	"github.com/jhoicas/reco-api/pkg/config"
	"github.com/jhoicas/reco-api/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var _ ports.AccountLocker = (*RedisLocker)(nil)

const (
	keyPrefix    = "reco:lock:"
	retryBackoff = 50 * time.Millisecond
)

// RedisLocker serializa mutaciones por cuenta entre varias instancias del servicio.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	wait   time.Duration
	log    *logger.Logger
}

// NewRedisClient abre el cliente de Redis y verifica la conexión.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: 50,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// NewRedisLocker construye el locker sobre un cliente ya conectado.
func NewRedisLocker(rdb redislock.RedisClient, cfg config.LockConfig, log *logger.Logger) *RedisLocker {
	if log == nil {
		log = logger.Nop()
	}
	return &RedisLocker{
		client: redislock.New(rdb),
		ttl:    cfg.TTL(),
		wait:   cfg.Wait(),
		log:    log.Named("redis_locker"),
	}
}

// Lock intenta obtener la clave reintentando cada 50ms hasta agotar la espera.
func (r *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	obtainCtx := ctx
	if r.wait > 0 {
		var cancel context.CancelFunc
		obtainCtx, cancel = context.WithTimeout(ctx, r.wait)
		defer cancel()
	}

	l, err := r.client.Obtain(obtainCtx, keyPrefix+key, r.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(retryBackoff),
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: clave %s ocupada", domain.ErrConcurrency, key)
		}
		return nil, fmt.Errorf("obtener lock %s: %w", key, err)
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := l.Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			r.log.Warn().Err(err).Str("key", key).Msg("no se pudo liberar el lock")
		}
	}, nil
}

package container

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/quotagate/internal/health"
	"github.com/serroba/quotagate/internal/ratelimit"
	"github.com/serroba/quotagate/internal/store"
	"go.uber.org/zap"
)

const connectTimeout = 5 * time.Second

// RedisClient is the shared Redis connection of the quota store and the event streams.
type RedisClient struct {
	*redis.Client
}

func (c *RedisClient) Shutdown() error {
	return c.Close()
}

// RedisPackage provides the shared Redis client.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*RedisClient, error) {
		opts := do.MustInvoke[*Options](i)

		return &RedisClient{Client: redis.NewClient(&redis.Options{Addr: opts.RedisAddr})}, nil
	})
}

type kv interface {
	ratelimit.Store
	health.Checker
}

// Backend is the quota store selected by Options.Store.
type Backend struct {
	Name     string
	kv       kv
	shutdown func() error
}

// Store returns the shared state used by the limiter.
func (b *Backend) Store() ratelimit.Store {
	return b.kv
}

// Checker returns the health check of the store.
func (b *Backend) Checker() health.Checker {
	return b.kv
}

func (b *Backend) Shutdown() error {
	if b.shutdown == nil {
		return nil
	}

	return b.shutdown()
}

// StorePackage provides the quota store backend.
func StorePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*Backend, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		backend, err := openBackend(i, opts, logger)
		if err != nil {
			return nil, err
		}

		logger.Info("quota store ready", zap.String("backend", backend.Name))

		return backend, nil
	})
}

func openBackend(i *do.Injector, opts *Options, logger *zap.Logger) (*Backend, error) {
	switch opts.Store {
	case "", StoreMemory:
		return &Backend{Name: StoreMemory, kv: store.NewMemoryKV()}, nil
	case StoreRedis:
		client := do.MustInvoke[*RedisClient](i)

		return &Backend{Name: StoreRedis, kv: store.NewRedisKV(client.Client)}, nil
	case StorePostgres:
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		pool, err := pgxpool.New(ctx, opts.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("postgres: connect: %w", err)
		}

		kv := store.NewPostgresKV(pool)
		if err := kv.Migrate(ctx); err != nil {
			pool.Close()

			return nil, err
		}

		return &Backend{Name: StorePostgres, kv: kv, shutdown: kv.Shutdown}, nil
	case StoreBadger:
		kv, err := store.OpenBadgerKV(opts.BadgerPath, logger)
		if err != nil {
			return nil, err
		}

		return &Backend{Name: StoreBadger, kv: kv, shutdown: kv.Shutdown}, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Store)
	}
}

// Package kvdriver opens the KV store selected by KV_DRIVER together with
// the Redis client the session and rate-limit layers share.
package kvdriver

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/scent-recommender/config"
	"github.com/oksasatya/scent-recommender/internal/domain/repository"
	"github.com/oksasatya/scent-recommender/internal/infrastructure/memory"
	"github.com/oksasatya/scent-recommender/internal/infrastructure/postgres"
	"github.com/oksasatya/scent-recommender/internal/infrastructure/rediskv"
	"github.com/oksasatya/scent-recommender/pkg/helpers"
)

// Handles owns the opened connections. Redis is nil when it is unreachable
// and the KV driver does not need it.
type Handles struct {
	KV    repository.KVStore
	Redis *redis.Client
	Pool  *pgxpool.Pool
}

func (h *Handles) Close() {
	if h.KV != nil {
		_ = h.KV.Close()
	}
	if h.Redis != nil {
		_ = h.Redis.Close()
	}
	if h.Pool != nil {
		h.Pool.Close()
	}
}

// Open connects to Redis and to the configured KV backend. Postgres
// migrations run before the store is returned.
func Open(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Handles, error) {
	h := &Handles{}

	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := helpers.PingRedis(ctx, rdb); err != nil {
		_ = rdb.Close()
		if cfg.KVDriver == config.KVDriverRedis {
			return nil, fmt.Errorf("redis: %w", err)
		}
		logger.WithError(err).WithField("addr", cfg.RedisAddr).Warn("redis unavailable; server-side sessions and rate limits disabled")
	} else {
		h.Redis = rdb
	}

	switch cfg.KVDriver {
	case config.KVDriverRedis:
		h.KV = rediskv.NewKVStore(h.Redis)
	case config.KVDriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.PostgresDSN(), postgres.PoolOptions{
			MaxConns:    cfg.DBMaxConns,
			MinConns:    cfg.DBMinConns,
			MaxConnLife: cfg.DBMaxConnLife,
		})
		if err != nil {
			h.Close()
			return nil, fmt.Errorf("postgres: %w", err)
		}
		h.Pool = pool
		if err := postgres.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
			h.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		h.KV = postgres.NewKVStore(pool)
	case config.KVDriverMemory:
		logger.Warn("KV_DRIVER=memory: preferences are lost on restart")
		h.KV = memory.NewKVStore()
	default:
		h.Close()
		return nil, fmt.Errorf("unknown KV driver %q", cfg.KVDriver)
	}

	logger.WithField("driver", cfg.KVDriver).Info("kv store ready")
	return h, nil
}

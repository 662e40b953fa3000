package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"todoapi/internal/cache"
	"todoapi/internal/config"
	"todoapi/internal/repo"
	"todoapi/migrations"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
)

type App struct {
	cfg    config.Config
	log    *slog.Logger
	store  repo.TodoRepo
	closer func() error
	redis  *redis.Client
	router *gin.Engine
}

func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	store, closer, err := newStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a.store, a.closer = store, closer

	var todoCache *cache.TodoCache
	if cfg.Redis.Enabled() {
		rdb, err := newRedis(ctx, cfg.Redis)
		if err != nil {
			_ = a.closer()
			return nil, err
		}
		a.redis = rdb
		todoCache = cache.NewTodoCache(rdb, cfg.Redis.DefaultTTL.Duration())
		log.Info("redis cache enabled", "addr", cfg.Redis.Addr)
	} else {
		log.Info("redis cache disabled")
	}

	a.router = newRouter(cfg, log, a.store, todoCache)
	return a, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Close(ctx context.Context) error {
	_ = ctx
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.closer != nil {
		errs = append(errs, a.closer())
	}
	return errors.Join(errs...)
}

// newStore opens the configured store and applies migrations.
func newStore(ctx context.Context, cfg config.Config, log *slog.Logger) (repo.TodoRepo, func() error, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := newPostgres(ctx, cfg.PG)
		if err != nil {
			return nil, nil, err
		}
		if err := runMigrations(ctx, pool, log); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info("store ready", "driver", "postgres")
		return repo.NewPGTodoRepo(pool), func() error { pool.Close(); return nil }, nil
	case config.DriverSQLite:
		r, err := repo.NewSQLiteTodoRepo(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite: %w", err)
		}
		log.Info("store ready", "driver", "sqlite", "path", cfg.Store.SQLitePath)
		return r, r.Close, nil
	case config.DriverMemory:
		log.Warn("store ready", "driver", "memory", "note", "data is lost on restart")
		return repo.NewMemoryTodoRepo(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func newPostgres(ctx context.Context, pg config.PGConfig) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(pg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg parse config: %w", err)
	}
	cfg.MaxConns = pg.MaxConns
	cfg.MinConns = 2
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}

	return pool, nil
}

func newRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return rdb, nil
}

// runMigrations applies the embedded goose migrations through a database/sql
// handle borrowed from the pool.
func runMigrations(ctx context.Context, pool *pgxpool.Pool, log *slog.Logger) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	n, err := migrations.Up(ctx, db, "postgres")
	if err != nil {
		return err
	}
	log.Info("migrations applied", "count", n)
	return nil
}

func newRouter(cfg config.Config, log *slog.Logger, store repo.TodoRepo, todoCache *cache.TodoCache) *gin.Engine {
	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(requestLogger(log), gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.HTTP.AllowOrigins,
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length", "Content-Type"},
		MaxAge:        12 * time.Hour,
	}))

	Setup(r, cfg, log, store, todoCache)
	return r
}

package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"Directory/internal/cache"
	"Directory/internal/config"
	"Directory/internal/logger"
	"Directory/internal/repo"
	"Directory/internal/service"
	"Directory/migrations"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"
)

type App struct {
	cfg     config.Config
	log     *slog.Logger
	pg      *pgxpool.Pool
	sqlite  *sql.DB
	redis   *redis.Client
	service *service.AccountService
	router  *gin.Engine
}

// New opens the configured store and cache and builds the router.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	accounts, err := a.openStore(ctx)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	opts := []service.Option{}
	if cfg.Redis.Enabled() {
		rdb, err := newRedis(ctx, cfg.Redis)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		a.redis = rdb
		opts = append(opts, service.WithCache(cache.NewAccountCache(rdb, cfg.Redis.DefaultTTL.Duration())))
		log.Info("redis cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.DefaultTTL.Duration())
	}
	a.service = service.NewAccountService(accounts, opts...)

	a.router = newRouter(cfg, log, a.service)
	return a, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

// Service returns the directory service backing the router.
func (a *App) Service() *service.AccountService {
	return a.service
}

func (a *App) Close(ctx context.Context) error {
	_ = ctx
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pg != nil {
		a.pg.Close()
	}
	if a.sqlite != nil {
		return a.sqlite.Close()
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (repo.AccountRepo, error) {
	switch a.cfg.Store.Driver {
	case config.DriverPostgres:
		if err := runPGMigrations(ctx, a.cfg.PG.DSN); err != nil {
			return nil, err
		}
		pool, err := newPostgres(ctx, a.cfg.PG.DSN)
		if err != nil {
			return nil, err
		}
		a.pg = pool
		a.log.Info("store opened", "driver", config.DriverPostgres)
		return repo.NewPGAccountRepo(pool), nil
	case config.DriverSQLite:
		db, err := newSQLite(ctx, a.cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		a.sqlite = db
		a.log.Info("store opened", "driver", config.DriverSQLite, "path", a.cfg.SQLite.Path)
		return repo.NewSQLiteAccountRepo(db), nil
	case config.DriverMemory:
		a.log.Warn("store opened", "driver", config.DriverMemory, "durable", false)
		return repo.NewMemoryAccountRepo(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", a.cfg.Store.Driver)
}

func newPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg parse config: %w", err)
	}
	cfg.MaxConns = 10
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

func runPGMigrations(ctx context.Context, dsn string) error {
	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return fmt.Errorf("goose open db: %w", err)
	}
	defer db.Close()

	return migrations.Up(ctx, db, goose.DialectPostgres)
}

func newSQLite(ctx context.Context, path string) (*sql.DB, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single writer keeps inserts from racing into SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := migrations.Up(ctx, db, goose.DialectSQLite3); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
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

func newRouter(cfg config.Config, log *slog.Logger, svc *service.AccountService) *gin.Engine {
	if cfg.App.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), logger.Middleware(log))

	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS", "HEAD"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	Setup(r, cfg, log, svc)
	return r
}

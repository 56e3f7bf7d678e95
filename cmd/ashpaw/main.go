package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/ashpawlabs/ashpaw/internal/cache"
	"github.com/ashpawlabs/ashpaw/internal/config"
	"github.com/ashpawlabs/ashpaw/internal/federation"
	"github.com/ashpawlabs/ashpaw/internal/http/router"
	adminsvc "github.com/ashpawlabs/ashpaw/internal/http/services/admin"
	authsvc "github.com/ashpawlabs/ashpaw/internal/http/services/auth"
	"github.com/ashpawlabs/ashpaw/internal/infra/appcache"
	"github.com/ashpawlabs/ashpaw/internal/metrics"
	"github.com/ashpawlabs/ashpaw/internal/observability/logger"
	"github.com/ashpawlabs/ashpaw/internal/store/core"
	"github.com/ashpawlabs/ashpaw/internal/store/memory"
	"github.com/ashpawlabs/ashpaw/internal/store/pg"
	"github.com/ashpawlabs/ashpaw/internal/worker"
)

func main() {
	// Load .env if present; system env still wins.
	_ = godotenv.Load()

	configPath := flag.String("config", defaultConfigPath(), "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.L().Fatal("config load failed", logger.Err(err))
	}

	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
	defer func() { _ = logger.Sync() }()
	log := logger.L().With(logger.Component("main"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("store init failed", logger.Err(err))
	}
	defer repo.Close()

	cacheClient, err := cache.New(cacheConfig(cfg))
	if err != nil {
		log.Fatal("cache init failed", logger.Err(err))
	}
	defer func() { _ = cacheClient.Close() }()

	if err := metrics.RegisterAuth(nil); err != nil {
		log.Fatal("metrics registration failed", logger.Err(err))
	}
	if err := metrics.RegisterHTTP(nil); err != nil {
		log.Fatal("metrics registration failed", logger.Err(err))
	}

	apps := appcache.New(repo, cacheClient, cfg.CacheTTL())

	handler := router.New(router.Deps{
		Repo: repo,
		Apps: adminsvc.NewAppsService(repo, apps),
		Auth: authsvc.NewService(repo, apps, federation.NewMockWeChat(), authsvc.Options{
			ExchangeTTL: cfg.ExchangeTTL(),
			TOTPSkew:    uint(cfg.Auth.TOTPSkew),
		}),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	sweeper := worker.NewTokenSweeper(repo, cfg.TokenRetention(), cfg.SweepInterval())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("listening", logger.String("addr", cfg.Server.Addr), logger.String("driver", cfg.Storage.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.TokenRetention() > 0 {
		g.Go(func() error {
			err := sweeper.Run(gctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server error", logger.Err(err))
	}
	log.Info("shutdown complete")
}

func openStore(ctx context.Context, cfg *config.Config) (core.Repository, error) {
	switch cfg.Storage.Driver {
	case "memory":
		return memory.New(), nil
	default:
		repo, err := pg.New(ctx, cfg.Storage.DSN, pg.Config{
			MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Storage.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		if cfg.Storage.Migrate {
			if err := repo.Migrate(ctx); err != nil {
				repo.Close()
				return nil, err
			}
		}
		return repo, nil
	}
}

func cacheConfig(cfg *config.Config) cache.Config {
	var c cache.Config
	c.Kind = cfg.Cache.Kind
	c.Redis.Addr = cfg.Cache.Redis.Addr
	c.Redis.Password = cfg.Cache.Redis.Password
	c.Redis.DB = cfg.Cache.Redis.DB
	c.Redis.Prefix = cfg.Cache.Redis.Prefix
	c.Memory.DefaultTTL = cfg.CacheTTL()
	return c
}

// defaultConfigPath prefers ASHPAW_CONFIG, then a local config.yaml if one
// exists. Empty means env-and-defaults only.
func defaultConfigPath() string {
	if p := os.Getenv("ASHPAW_CONFIG"); p != "" {
		return p
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}
	return ""
}

package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/coursetrack-backend/internal/data/db"
	httpapi "github.com/yungbote/coursetrack-backend/internal/http"
	"github.com/yungbote/coursetrack-backend/internal/observability"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	PG       *db.PostgresService
	Repos    Repos
	Services Services
	Clients  Clients
	Metrics  *observability.Metrics
	Server   *httpapi.Server

	otelShutdown func(context.Context) error
}

// New loads configuration from configPath (optional app.env) and the environment
// and wires every dependency. The caller owns the result and must Close it.
func New(ctx context.Context, configPath string) (*App, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	cfg.Log(log)

	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel())
	metrics := observability.Init(log, cfg.MetricsEnabled)

	pg, err := db.NewPostgresService(log, cfg.Postgres())
	if err != nil {
		_ = otelShutdown(ctx)
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if cfg.AutoMigrate {
		if err := pg.AutoMigrateAll(); err != nil {
			_ = pg.Close()
			_ = otelShutdown(ctx)
			log.Sync()
			return nil, fmt.Errorf("postgres automigrate: %w", err)
		}
	}

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = pg.Close()
		_ = otelShutdown(ctx)
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(pg.DB(), log)
	serviceset := wireServices(pg.DB(), log, cfg, reposet, clients, metrics)
	middleware := wireMiddleware(log, serviceset, clients, metrics)
	handlerset := wireHandlers(log, pg, serviceset, clients)
	server := wireServer(log, cfg, handlerset, middleware, metrics)

	return &App{
		Log:          log,
		Cfg:          cfg,
		PG:           pg,
		Repos:        reposet,
		Services:     serviceset,
		Clients:      clients,
		Metrics:      metrics,
		Server:       server,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP until ctx is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	g, gctx := errgroup.WithContext(ctx)

	if a.Metrics != nil {
		a.Metrics.StartPostgresCollector(gctx, a.Log, a.PG.DB())
		a.Metrics.StartRedisCollector(gctx, a.Log, a.Clients.Redis)
		if srv := a.Metrics.StartServer(gctx, a.Log, a.Cfg.MetricsAddr); srv != nil {
			a.Log.Info("metrics server listening", "addr", a.Cfg.MetricsAddr)
		}
	}

	g.Go(func() error {
		addr := ":" + a.Cfg.Port
		a.Log.Info("http server listening", "addr", addr)
		return a.Server.Run(gctx, addr)
	})

	return g.Wait()
}

// Close releases clients, the database pool and the tracer, in that order.
func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.PG != nil {
		if err := a.PG.Close(); err != nil {
			a.Log.Warn("postgres close failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	a.Log.Sync()
}

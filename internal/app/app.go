package app

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/lattice-backend/internal/curriculum"
	"github.com/yungbote/lattice-backend/internal/data/db"
	"github.com/yungbote/lattice-backend/internal/http"
	"github.com/yungbote/lattice-backend/internal/observability"
	"github.com/yungbote/lattice-backend/internal/platform/logger"
)

// Version is set at build time with -ldflags "-X .../internal/app.Version=...".
var Version = "dev"

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *http.Server
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services
	Catalog  *curriculum.Catalog
	Metrics  *observability.Metrics

	dbService    *db.Service
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// OpenDB connects with cfg and migrates the schema.
func OpenDB(log *logger.Logger, cfg Config) (*db.Service, error) {
	svc, err := db.Open(log, db.Options{Driver: cfg.DBDriver, DSN: cfg.DSN})
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := svc.AutoMigrateAll(); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return svc, nil
}

func New(log *logger.Logger, cfg Config) (*App, error) {
	otelShutdown := observability.InitOTel(context.Background(), log, cfg.Otel)

	dbService, err := OpenDB(log, cfg)
	if err != nil {
		_ = otelShutdown(context.Background())
		return nil, err
	}
	theDB := dbService.DB()

	catalog, err := curriculum.Open(cfg.CurriculumDir, log)
	if err != nil {
		_ = dbService.Close()
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("load curriculum: %w", err)
	}

	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.NewMetrics()
	}

	reposet := wireRepos(theDB, log)
	clientset := wireClients(log, cfg)
	serviceset, err := wireServices(theDB, log, cfg, reposet, clientset, catalog, metrics)
	if err != nil {
		clientset.Close()
		_ = dbService.Close()
		_ = otelShutdown(context.Background())
		return nil, err
	}

	// A nil *sql.DB leaves the health check without a ping.
	sqlDB, _ := theDB.DB()
	handlerset := wireHandlers(log, sqlDB, serviceset, catalog)
	middleware := wireMiddleware(log, serviceset)
	router := wireRouter(log, cfg, handlerset, middleware, metrics)

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       &http.Server{Engine: router},
		Cfg:          cfg,
		Repos:        reposet,
		Clients:      clientset,
		Services:     serviceset,
		Catalog:      catalog,
		Metrics:      metrics,
		dbService:    dbService,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches background work: the curriculum watcher when enabled.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Cfg.CurriculumWatch {
		if err := a.Catalog.Watch(ctx, a.Cfg.CurriculumDebounce); err != nil {
			a.Log.Warn("curriculum watch disabled", "error", err)
		}
	}
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := ":" + a.Cfg.Port
	a.Log.Info("server listening", "addr", addr)
	return a.Server.Run(ctx, addr, a.Cfg.ShutdownTimeout)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Clients.Close()
	if a.dbService != nil {
		_ = a.dbService.Close()
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelShutdown(ctx)
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}

package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/de-tools/sales-atlas/pkg/services/aggregate"
	"github.com/de-tools/sales-atlas/pkg/services/config"
	"github.com/de-tools/sales-atlas/pkg/services/dashboard"
	"github.com/de-tools/sales-atlas/pkg/services/loader"
	"github.com/de-tools/sales-atlas/pkg/store/duckdb"
	"github.com/de-tools/sales-atlas/pkg/store/duckdb/sales"
	"github.com/rs/zerolog"
)

// App holds the services built from a configuration.
type App struct {
	Config    *config.Config
	Registry  config.Registry
	Dashboard dashboard.Service

	db *sql.DB
}

// New wires the dataset registry, the source resolver and the configured
// aggregation engine into a dashboard service.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := zerolog.Ctx(ctx)

	registry, err := config.RegistryFor(cfg.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset registry: %w", err)
	}

	a := &App{
		Config:   cfg,
		Registry: registry,
	}

	var backend aggregate.Backend
	switch cfg.Engine {
	case config.EngineDuckDB:
		db, err := duckdb.NewDB(duckdb.Settings{
			DbPath:  cfg.DuckDB.Path,
			Threads: cfg.DuckDB.Threads,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create DuckDB instance: %w", err)
		}
		store, err := sales.NewStore(db)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create sales store: %w", err)
		}
		a.db = db
		backend = sales.NewBackend(store)
	default:
		backend = aggregate.NewMemoryBackend()
	}

	resolver := loader.NewResolver(loader.NewS3Client(cfg.AWS.Region))
	a.Dashboard = dashboard.NewService(registry, resolver, backend, dashboard.Settings{
		TopN:         cfg.Dashboard.TopN,
		CacheEnabled: cfg.Cache.Enabled,
		MaxEntries:   cfg.Cache.MaxEntries,
	})

	logger.Info().
		Str("engine", cfg.Engine).
		Bool("cache", cfg.Cache.Enabled).
		Msg("dashboard service ready")

	return a, nil
}

// Warm loads every registered dataset so the first request is served from
// cache. Failures are logged and counted; they do not stop the others.
func (a *App) Warm(ctx context.Context) int {
	logger := zerolog.Ctx(ctx)

	profiles, err := a.Registry.GetProfiles(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list datasets")
		return 0
	}

	failed := 0
	for _, p := range profiles {
		if _, err := a.Dashboard.Dashboard(ctx, p.Name, dashboard.Request{}); err != nil {
			failed++
			logger.Warn().Err(err).Str("dataset", p.Name).Msg("failed to preload dataset")
			continue
		}
		logger.Debug().Str("dataset", p.Name).Msg("dataset preloaded")
	}
	return failed
}

// Close releases the DuckDB handle, if any.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// ParseLevel maps log.level to a zerolog level, falling back to info.
func ParseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(s)
	if err != nil || s == "" {
		return zerolog.InfoLevel
	}
	return level
}

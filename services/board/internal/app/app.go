package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"msgboard/internal/metrics"
	"msgboard/internal/util"
	"msgboard/pkg/domain"
	"msgboard/pkg/store"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config holds runtime configuration for the core application.
type Config struct {
	StoreKind         string
	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	// DBSkipMigrate leaves the schema to an external migration step.
	DBSkipMigrate bool
	// Store overrides StoreKind when set.
	Store store.MessageStore
}

// App runs the create and list flows against a shared message store.
type App struct {
	store store.MessageStore
}

// New constructs the application with the configured message store.
func New(cfg Config) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil {
		switch strings.ToLower(strings.TrimSpace(cfg.StoreKind)) {
		case StoreMemory:
			dataStore = store.NewMemoryStore()
		case StorePostgres, "":
			if cfg.DatabaseURL == "" {
				return nil, fmt.Errorf("database URL required")
			}
			gormStore, err := store.NewGormStore(cfg.DatabaseURL, gormOptions(cfg)...)
			if err != nil {
				return nil, fmt.Errorf("init postgres store: %w", err)
			}
			dataStore = gormStore
		default:
			return nil, fmt.Errorf("unknown store %q", cfg.StoreKind)
		}
	}
	return &App{store: dataStore}, nil
}

func gormOptions(cfg Config) []store.GormStoreOption {
	opts := []store.GormStoreOption{
		store.WithPool(cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime),
	}
	if cfg.DBSkipMigrate {
		opts = append(opts, store.WithoutMigrate())
	}
	return opts
}

// PostMessage stores msg and returns the timestamp assigned by the store.
func (a *App) PostMessage(ctx context.Context, msg domain.PendingMessage) (int64, error) {
	ts, err := a.store.InsertMessage(ctx, msg)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("insert").Inc()
		util.LoggerFromContext(ctx).Error("error writing to database", "err", err)
		return 0, persistenceError(err)
	}
	metrics.MessagesPosted.Inc()
	return ts, nil
}

// ListMessages returns messages inside r, oldest first.
func (a *App) ListMessages(ctx context.Context, r domain.TimeRange) ([]domain.Message, error) {
	msgs, err := a.store.QueryMessages(ctx, r)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("query").Inc()
		util.LoggerFromContext(ctx).Error("failed querying database", "err", err)
		return nil, persistenceError(err)
	}
	metrics.MessagesListed.Add(float64(len(msgs)))
	return msgs, nil
}

// Ready reports whether the store is reachable.
func (a *App) Ready(ctx context.Context) error {
	return a.store.Ping(ctx)
}

// Close releases the store's connections.
func (a *App) Close() error {
	return a.store.Close()
}

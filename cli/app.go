// ABOUTME: Shared wiring for CLI commands
// ABOUTME: Opens the database, picks the mock or live CRM source, and builds the service
package cli

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/harperreed/fieldforce/config"
	"github.com/harperreed/fieldforce/crm"
	"github.com/harperreed/fieldforce/db"
	"github.com/harperreed/fieldforce/fieldops"
	"github.com/harperreed/fieldforce/logging"
	"github.com/harperreed/fieldforce/sync"
)

// App holds everything a command needs.
type App struct {
	Config  *config.Config
	DB      *sql.DB
	Source  crm.Source
	Service *fieldops.Service
	Worker  *sync.Worker
	Out     io.Writer
}

// NewApp opens the configured database and CRM source. In mock mode the
// database is seeded with sample visits and travels on first use.
func NewApp(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	database, err := db.OpenDatabase(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	app, err := newApp(cfg, database)
	if err != nil {
		_ = database.Close()
		return nil, err
	}
	return app, nil
}

func newApp(cfg *config.Config, database *sql.DB) (*App, error) {
	source, err := newSource(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.CRM.Mode == config.ModeMock {
		if err := db.Seed(database, time.Now()); err != nil {
			return nil, err
		}
	}

	logging.Debug("app ready", "db", cfg.DatabasePath, "crm_mode", cfg.CRM.Mode)
	return &App{
		Config:  cfg,
		DB:      database,
		Source:  source,
		Service: fieldops.NewService(database, source, cfg),
		Worker:  sync.NewWorker(database, source, cfg.Sync),
		Out:     os.Stdout,
	}, nil
}

func newSource(cfg *config.Config) (crm.Source, error) {
	switch cfg.CRM.Mode {
	case config.ModeMock:
		return crm.NewMockSource(), nil
	case config.ModeLive:
		client, err := crm.NewClient(cfg.CRMClientConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to create crm client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown crm mode: %s", cfg.CRM.Mode)
	}
}

func (a *App) Close() error {
	return a.DB.Close()
}

func (a *App) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.Out, format, args...)
}

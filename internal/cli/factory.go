// Package cli assembles the application graph for the heydev commands.
package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JonnyTran/heydev/internal/adapters/redis"
	"github.com/JonnyTran/heydev/internal/adapters/sqlite"
	"github.com/JonnyTran/heydev/internal/analyze"
	"github.com/JonnyTran/heydev/internal/config"
	"github.com/JonnyTran/heydev/internal/draft"
	"github.com/JonnyTran/heydev/internal/github"
	"github.com/JonnyTran/heydev/pkg/adapters/memory"
	"github.com/JonnyTran/heydev/pkg/flow"
	"github.com/JonnyTran/heydev/pkg/observability"
	"github.com/JonnyTran/heydev/pkg/persistence/middleware"
	"github.com/JonnyTran/heydev/pkg/ports"
	"github.com/JonnyTran/heydev/pkg/session"
)

// App bundles everything a command needs to run sessions.
type App struct {
	Hub      *flow.Hub
	Sessions *session.Manager
	Metrics  *observability.Metrics

	closers []io.Closer
}

// Close releases the backing stores.
func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Build wires the configured store, the GitHub analyzer, the drafter and the
// SQLite publisher into a hub.
func Build(cfg config.Config, logger *slog.Logger, registry *prometheus.Registry) (*App, error) {
	app := &App{}

	store, err := buildStore(cfg, app)
	if err != nil {
		return nil, err
	}
	app.Sessions = session.NewManager(store, session.WithLogger(logger))

	var ghOpts []github.Option
	if cfg.GitHub.Token != "" {
		ghOpts = append(ghOpts, github.WithToken(cfg.GitHub.Token))
	}
	if cfg.GitHub.APIURL != "" {
		ghOpts = append(ghOpts, github.WithBaseURL(cfg.GitHub.APIURL))
	}

	publisher, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening content database: %w", err)
	}
	app.closers = append(app.closers, publisher)

	if registry != nil {
		app.Metrics = observability.NewMetrics(registry)
	} else {
		app.Metrics = observability.NewNopMetrics()
	}

	app.Hub = flow.NewHub(flow.Config{
		Sessions:    app.Sessions,
		Analyzer:    analyze.New(github.NewClient(ghOpts...), analyze.WithLogger(logger)),
		Drafter:     draft.New(),
		Publisher:   publisher,
		Logger:      logger,
		Metrics:     app.Metrics,
		GateTimeout: cfg.GateTimeout,
	})
	return app, nil
}

func buildStore(cfg config.Config, app *App) (ports.StateStore, error) {
	var store ports.StateStore
	switch cfg.Store.Backend {
	case "redis":
		rs := redis.New(cfg.Store.Redis.Addr, cfg.Store.Redis.Password, cfg.Store.Redis.DB,
			redis.WithTTL(cfg.Store.Redis.TTL))
		app.closers = append(app.closers, rs)
		store = rs
	default:
		store = memory.NewStore()
	}

	var mws []middleware.Middleware
	if cfg.Store.Redact {
		mws = append(mws, middleware.NewRedactMiddleware(middleware.DefaultRedactPatterns))
	}
	key, err := cfg.Store.EncryptionKeyBytes()
	if err != nil {
		return nil, err
	}
	if key != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}
	return middleware.Chain(store, mws...), nil
}

package heydev

import (
	"log/slog"

	"github.com/JonnyTran/heydev/pkg/adapters/memory"
	"github.com/JonnyTran/heydev/pkg/flow"
	"github.com/JonnyTran/heydev/pkg/ports"
	"github.com/JonnyTran/heydev/pkg/session"
)

// Version is the library version reported by the CLI and the MCP server.
var Version = "0.3.0"

// Config configures an embedded heydev hub.
type Config struct {
	// Store holds session state. Defaults to the in-memory store.
	Store ports.StateStore

	// Analyzer, Drafter and Publisher are the pipeline collaborators.
	// All three are required.
	Analyzer  ports.Analyzer
	Drafter   ports.Drafter
	Publisher ports.Publisher

	// Logger defaults to a no-op logger.
	Logger *slog.Logger
}

// New assembles a hub for embedding heydev as a library. Hosts that want
// the full CLI or server wiring should use the heydev command instead.
func New(cfg Config) *flow.Hub {
	store := cfg.Store
	if store == nil {
		store = memory.NewStore()
	}

	var sessionOpts []session.Option
	if cfg.Logger != nil {
		sessionOpts = append(sessionOpts, session.WithLogger(cfg.Logger))
	}

	return flow.NewHub(flow.Config{
		Sessions:  session.NewManager(store, sessionOpts...),
		Analyzer:  cfg.Analyzer,
		Drafter:   cfg.Drafter,
		Publisher: cfg.Publisher,
		Logger:    cfg.Logger,
	})
}

// Package flow implements the publishing workflow sequencer: the fixed
// pipeline of gated actions that drives one HeyDev session from repository
// selection to confirmed publication.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonnyTran/heydev/internal/logging"
	"github.com/JonnyTran/heydev/pkg/action"
	"github.com/JonnyTran/heydev/pkg/domain"
	"github.com/JonnyTran/heydev/pkg/gate"
	"github.com/JonnyTran/heydev/pkg/observability"
	"github.com/JonnyTran/heydev/pkg/ports"
	"github.com/JonnyTran/heydev/pkg/schema"
	"github.com/JonnyTran/heydev/pkg/session"
)

// Config wires a Flow's dependencies.
type Config struct {
	Sessions  *session.Manager
	Analyzer  ports.Analyzer
	Drafter   ports.Drafter
	Publisher ports.Publisher

	Registry *action.Registry // defaults to DefaultRegistry
	Logger   *slog.Logger
	Metrics  *observability.Metrics

	// GateTimeout cancels a gate that gets no response in time.
	// Zero means wait forever.
	GateTimeout time.Duration
}

// Flow runs the gated pipeline for a single session. One logical thread of
// control: the flow suspends only at gate boundaries, so at most one gate
// is ever pending and each gate's render reflects the state produced by the
// previous gate's resolution.
type Flow struct {
	sessionID string
	board     *gate.Board

	registry  *action.Registry
	sessions  *session.Manager
	analyzer  ports.Analyzer
	drafter   ports.Drafter
	publisher ports.Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	timeout   time.Duration
}

// New creates a Flow for the given session.
func New(sessionID string, cfg Config) *Flow {
	registry := cfg.Registry
	if registry == nil {
		registry = DefaultRegistry()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observability.NewNopMetrics()
	}
	return &Flow{
		sessionID: sessionID,
		board:     gate.NewBoard(),
		registry:  registry,
		sessions:  cfg.Sessions,
		analyzer:  cfg.Analyzer,
		drafter:   cfg.Drafter,
		publisher: cfg.Publisher,
		logger:    logger.With("session_id", sessionID),
		metrics:   metrics,
		timeout:   cfg.GateTimeout,
	}
}

// Board returns the session's gate board, the surface the presentation
// layer pulls pending gates from and responds through.
func (f *Flow) Board() *gate.Board {
	return f.board
}

// Run executes the pipeline until publication, a collaborator failure, or
// cancellation. Collaborator failures are fail-stop: the session error is
// set and no further gate opens.
func (f *Flow) Run(ctx context.Context) error {
	if _, err := f.sessions.LoadOrStart(ctx, f.sessionID); err != nil {
		return err
	}

	// Stage 1: repository selection.
	repoVal, err := f.await(ctx, ActionSetRepo, nil)
	if err != nil {
		return f.halt(ctx, err)
	}
	repoURL := repoVal.(string)
	if _, err := f.commit(ctx, func(s *domain.State) error {
		s.RepoURL = repoURL
		s.SetStatus("Repository set")
		return nil
	}); err != nil {
		return err
	}

	// Stage 2: date range.
	dateVal, err := f.await(ctx, ActionSetDateRange, nil)
	if err != nil {
		return f.halt(ctx, err)
	}
	startDate := dateVal.(string)
	if _, err := f.commit(ctx, func(s *domain.State) error {
		s.StartDate = startDate
		s.SetStatus("Analyzing repository...")
		return nil
	}); err != nil {
		return err
	}

	// Repository analysis (external collaborator).
	if err := f.analyze(ctx, repoURL, startDate); err != nil {
		return f.halt(ctx, err)
	}

	// Stage 3: topic selection, validated against state at resolution time.
	// A snapshot Apply can still shrink the topic list between resolution
	// and commit; that race re-opens the gate instead of ending the session.
	for {
		topicVal, err := f.await(ctx, ActionSelectTopic, f.checkTopicIndex)
		if err != nil {
			return f.halt(ctx, err)
		}
		index, _ := asInt(topicVal)
		_, err = f.commit(ctx, func(s *domain.State) error {
			if index < 0 || index >= len(s.Topics) {
				return &domain.StaleResponseError{
					Action: ActionSelectTopic,
					Reason: fmt.Sprintf("topic index %d out of bounds", index),
				}
			}
			topic := s.Topics[index]
			s.SelectedTopic = &topic
			s.SetStatus(fmt.Sprintf("Selected topic: %s", topic.Title))
			return nil
		})
		if err == nil {
			break
		}
		var stale *domain.StaleResponseError
		if !errors.As(err, &stale) {
			return f.halt(ctx, err)
		}
		f.metrics.StaleResponses.Inc()
		f.logger.Warn("topic list changed before commit", "err", err)
	}

	// Draft generation (external collaborator).
	if err := f.draft(ctx); err != nil {
		return f.halt(ctx, err)
	}

	// Stage 4: confirmation. CANCEL re-enters the same gate so the human
	// can keep editing the record; CONFIRM is irreversible.
	for {
		verdict, err := f.await(ctx, ActionConfirmContent, nil)
		if err != nil {
			return f.halt(ctx, err)
		}
		if verdict == ResponseCancel {
			f.logger.Info("content edit round requested")
			continue
		}

		state, err := f.commit(ctx, func(s *domain.State) error {
			s.Confirmed = true
			s.SetStatus("Publishing content...")
			return nil
		})
		if err != nil {
			return err
		}

		id, err := f.publisher.Publish(ctx, state.ContentRecord)
		if err != nil {
			return f.halt(ctx, &domain.PersistenceError{Err: err})
		}

		if _, err := f.commit(ctx, func(s *domain.State) error {
			s.ContentRecord.ID = id
			s.SetStatus(fmt.Sprintf("Content saved to database with ID: %d", id))
			return nil
		}); err != nil {
			return err
		}

		f.logger.Info("content published", "record_id", id)
		return nil
	}
}

// await opens a gate for the named action and suspends until it resolves.
func (f *Flow) await(ctx context.Context, name string, check gate.CheckFunc) (any, error) {
	act, err := f.registry.Lookup(name)
	if err != nil {
		return nil, err
	}

	state, err := f.sessions.Load(ctx, f.sessionID)
	if err != nil {
		return nil, err
	}

	prompt := act.Description
	if act.Render != nil {
		prompt = act.Render(nil, state)
	}

	g := gate.New(name,
		gate.WithPrompt(prompt),
		gate.WithOptions(act.Options...),
		gate.WithTimeout(f.timeout),
		gate.WithCheck(f.responseCheck(act, check)),
	)
	if err := f.board.Open(g); err != nil {
		return nil, err
	}

	f.metrics.GatesOpened.WithLabelValues(name).Inc()
	f.logger.Info("gate opened", "action", name, "gate_id", g.ID())

	value, err := g.Await(ctx)
	if err != nil {
		outcome := observability.OutcomeCancelled
		if errors.Is(err, domain.ErrGateTimeout) {
			outcome = observability.OutcomeTimeout
		}
		f.metrics.GateResolutions.WithLabelValues(name, outcome).Inc()
		f.logger.Warn("gate cancelled", "action", name, "gate_id", g.ID(), "err", err)
		return nil, err
	}

	f.metrics.GateResolutions.WithLabelValues(name, observability.OutcomeResolved).Inc()
	f.logger.Info("gate resolved", "action", name, "gate_id", g.ID())
	return value, nil
}

// responseCheck combines the action's declared response type, its parameter
// schema and the stage-specific check into one resolution-time validator.
func (f *Flow) responseCheck(act *action.Action, check gate.CheckFunc) gate.CheckFunc {
	return func(value any) error {
		if act.Response != nil {
			if err := act.Response.Validate(value); err != nil {
				return &schema.ValidationError{Key: act.Name, Reason: err.Error(), Value: value}
			}
		}
		if len(act.Parameters) == 1 {
			args := map[string]any{act.Parameters[0].Name: value}
			if err := act.Parameters.Validate(args); err != nil {
				var missing *schema.MissingError
				if errors.As(err, &missing) {
					return &domain.MissingParameterError{Action: act.Name, Parameter: missing.Parameter}
				}
				return fmt.Errorf("action %q: %w", act.Name, err)
			}
		}
		if check != nil {
			if err := check(value); err != nil {
				var stale *domain.StaleResponseError
				if errors.As(err, &stale) {
					f.metrics.StaleResponses.Inc()
				}
				return err
			}
		}
		return nil
	}
}

// checkTopicIndex validates a select_topic response against the topic list
// as it exists when the response arrives, not when the gate was rendered.
func (f *Flow) checkTopicIndex(value any) error {
	index, ok := asInt(value)
	if !ok {
		return fmt.Errorf("action %q: expected integer index, got %T", ActionSelectTopic, value)
	}

	state, err := f.sessions.Load(context.Background(), f.sessionID)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(state.Topics) {
		return &domain.StaleResponseError{
			Action: ActionSelectTopic,
			Reason: fmt.Sprintf("topic index %d out of bounds (have %d topics)", index, len(state.Topics)),
		}
	}
	return nil
}

// analyze runs the analyzer collaborator and commits its findings.
func (f *Flow) analyze(ctx context.Context, repoURL, startDate string) error {
	started := time.Now()

	analysis, err := f.analyzer.Analyze(ctx, ports.AnalysisRequest{
		RepoURL:   repoURL,
		StartDate: startDate,
	}, f.progress)
	if err != nil {
		return &domain.AnalysisError{Err: err}
	}
	f.metrics.AnalysisSeconds.Observe(time.Since(started).Seconds())

	if len(analysis.Topics) == 0 {
		return &domain.AnalysisError{Err: fmt.Errorf("no topics derived from %s since %s", repoURL, startDate)}
	}

	_, err = f.commit(ctx, func(s *domain.State) error {
		s.Commits = analysis.Commits
		s.Issues = analysis.Issues
		s.PullRequests = analysis.PullRequests
		s.DocChanges = analysis.DocChanges
		s.Topics = analysis.Topics
		s.SetStatus(fmt.Sprintf("Generated %d topics", len(analysis.Topics)))
		return nil
	})
	return err
}

// draft runs the drafter collaborator for the selected topic.
func (f *Flow) draft(ctx context.Context) error {
	state, err := f.sessions.Load(ctx, f.sessionID)
	if err != nil {
		return err
	}
	if state.SelectedTopic == nil {
		return fmt.Errorf("no topic selected")
	}

	set, err := f.drafter.Draft(ctx, *state.SelectedTopic, f.progress)
	if err != nil {
		return &domain.AnalysisError{Err: err}
	}

	_, err = f.commit(ctx, func(s *domain.State) error {
		for kind, draft := range set.Drafts {
			s.ContentDrafts[kind] = draft
		}
		s.ContentRecord = set.Record
		s.SetStatus("Draft ready for review")
		return nil
	})
	return err
}

// progress forwards collaborator progress messages to the status channel so
// the client renders them live.
func (f *Flow) progress(ctx context.Context, msg string) {
	if _, err := f.commit(ctx, func(s *domain.State) error {
		s.SetStatus(msg)
		return nil
	}); err != nil {
		f.logger.Warn("failed to publish progress", "err", err)
	}
	f.logger.Debug("progress", "msg", msg)
}

// commit performs one agent-side state mutation.
func (f *Flow) commit(ctx context.Context, fn func(*domain.State) error) (*domain.State, error) {
	return f.sessions.Update(ctx, f.sessionID, fn)
}

// halt records a stop condition on the session and returns the cause.
// Cancellation during teardown is tolerated; the error is still returned.
func (f *Flow) halt(ctx context.Context, cause error) error {
	_, err := f.sessions.Update(context.WithoutCancel(ctx), f.sessionID, func(s *domain.State) error {
		s.SetError(cause.Error())
		return nil
	})
	if err != nil {
		f.logger.Warn("failed to record session error", "err", err)
	}
	f.logger.Error("flow halted", "err", cause)
	return cause
}

// asInt coerces JSON-ish numeric responses to an int.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int64(n)) {
			return int(n), true
		}
	}
	return 0, false
}

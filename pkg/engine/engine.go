package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/ladder/pkg/ladder/ast"
)

// LadderSource provides ladders to the engine.
type LadderSource interface {
	// LoadLadders loads all ladders from the source.
	LoadLadders(ctx context.Context) ([]*ast.Ladder, error)

	// Watch watches for ladder changes and sends events on the returned channel.
	// The channel is closed when the context is cancelled.
	Watch(ctx context.Context) (<-chan LadderEvent, error)
}

// MetricsRecorder receives evaluation and reload measurements.
type MetricsRecorder interface {
	RecordEvaluation(ladder, rule string, outcome Outcome, duration time.Duration)
	RecordReload(success bool, ladders int)
}

// DecisionRecorder persists decisions. Implementations must not block
// the caller for long; the engine calls it on the evaluation path.
type DecisionRecorder interface {
	RecordDecision(d *Decision)
}

// Engine evaluates inputs against named, compiled ladders.
type Engine struct {
	// ladders maps ladder name to its compiled form
	ladders map[string]*Ladder

	// mu protects ladders and the optional hooks
	mu sync.RWMutex

	metrics  MetricsRecorder
	recorder DecisionRecorder

	config *EngineConfig
	logger *slog.Logger
	source LadderSource

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
	closed    bool
}

// NewEngine creates an engine and loads the initial ladders from source.
// When config.Watch is set, source changes trigger a reload in the
// background until Close is called.
func NewEngine(config *EngineConfig, source LadderSource, logger *slog.Logger) (*Engine, error) {
	if config == nil {
		config = DefaultEngineConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if source == nil {
		return nil, fmt.Errorf("ladder source cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		ladders: make(map[string]*Ladder),
		config:  config,
		logger:  logger,
		source:  source,
	}

	if err := e.Reload(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to load initial ladders: %w", err)
	}

	if config.Watch {
		e.startWatching()
	}

	return e, nil
}

// SetMetrics attaches a metrics recorder. Passing nil detaches it.
func (e *Engine) SetMetrics(m MetricsRecorder) {
	e.mu.Lock()
	e.metrics = m
	e.mu.Unlock()
}

// SetRecorder attaches a decision recorder. Passing nil detaches it.
func (e *Engine) SetRecorder(r DecisionRecorder) {
	e.mu.Lock()
	e.recorder = r
	e.mu.Unlock()
}

// Evaluate runs input through the named ladder.
func (e *Engine) Evaluate(ctx context.Context, name string, input interface{}) (*Decision, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContextCancelled, err)
	}

	e.mu.RLock()
	ladder, ok := e.ladders[name]
	metrics, recorder := e.metrics, e.recorder
	closed := e.closed
	e.mu.RUnlock()

	if closed {
		return nil, ErrEngineClosed
	}
	if !ok {
		if metrics != nil {
			metrics.RecordEvaluation(name, "", OutcomeError, 0)
		}
		return nil, &LadderNotFoundError{Name: name}
	}

	start := time.Now()
	match, err := ladder.Evaluate(input)
	duration := time.Since(start)

	if err != nil {
		if metrics != nil {
			metrics.RecordEvaluation(name, "", OutcomeError, duration)
		}
		e.logger.Debug("ladder evaluation failed",
			"ladder", name,
			"error", err,
		)
		return nil, &EvaluationError{Ladder: name, Cause: err}
	}

	decision := &Decision{
		ID:        uuid.NewString(),
		Ladder:    name,
		Input:     input,
		Result:    match.Result,
		RuleIndex: match.Index,
		RuleName:  match.Name,
		Defaulted: match.Defaulted(),
		Duration:  duration,
		Timestamp: start,
	}

	if threshold := e.config.SlowEvaluationThreshold; threshold > 0 && duration > threshold {
		e.logger.Warn("slow ladder evaluation",
			"ladder", name,
			"duration", duration,
			"threshold", threshold,
		)
	}

	if metrics != nil {
		metrics.RecordEvaluation(name, decision.RuleName, decision.Outcome(), duration)
	}
	if recorder != nil {
		recorder.RecordDecision(decision)
	}

	return decision, nil
}

// Reload loads and compiles all ladders from the source, then swaps them
// in atomically. On failure the previously loaded ladders stay active.
func (e *Engine) Reload(ctx context.Context) error {
	e.logger.Info("reloading ladders")

	compiled, err := e.load(ctx)

	e.mu.RLock()
	metrics := e.metrics
	e.mu.RUnlock()

	if err != nil {
		if metrics != nil {
			metrics.RecordReload(false, 0)
		}
		return err
	}

	totalRules := 0
	for _, l := range compiled {
		totalRules += l.Len()
	}

	e.mu.Lock()
	e.ladders = compiled
	e.mu.Unlock()

	if metrics != nil {
		metrics.RecordReload(true, len(compiled))
	}

	e.logger.Info("ladders reloaded successfully",
		"ladder_count", len(compiled),
		"rule_count", totalRules,
	)

	return nil
}

func (e *Engine) load(ctx context.Context) (map[string]*Ladder, error) {
	defs, err := e.source.LoadLadders(ctx)
	if err != nil {
		return nil, &ReloadError{Source: "source", Cause: err}
	}

	if len(defs) > e.config.MaxLadders {
		return nil, &ValidationError{
			Ladder: "global",
			Errors: []string{
				fmt.Sprintf("too many ladders: %d (max: %d)", len(defs), e.config.MaxLadders),
			},
		}
	}

	compiled := make(map[string]*Ladder, len(defs))
	for _, def := range defs {
		if len(def.Rules) > e.config.MaxRulesPerLadder {
			return nil, &ValidationError{
				Ladder: def.Name,
				Errors: []string{
					fmt.Sprintf("too many rules: %d (max: %d)", len(def.Rules), e.config.MaxRulesPerLadder),
				},
			}
		}
		if prev, dup := compiled[def.Name]; dup {
			return nil, &ValidationError{
				Ladder: def.Name,
				Errors: []string{
					fmt.Sprintf("duplicate ladder name (also defined in %q)", prev.def.SourceFile),
				},
			}
		}

		l, err := Compile(def)
		if err != nil {
			return nil, err
		}
		compiled[def.Name] = l
	}

	return compiled, nil
}

// Ladder returns the compiled ladder with the given name.
func (e *Engine) Ladder(name string) (*Ladder, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	l, ok := e.ladders[name]
	return l, ok
}

// Ladders describes all loaded ladders, sorted by name.
func (e *Engine) Ladders() []LadderInfo {
	e.mu.RLock()
	infos := make([]LadderInfo, 0, len(e.ladders))
	for _, l := range e.ladders {
		infos = append(infos, l.Info())
	}
	e.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})
	return infos
}

// startWatching reloads ladders whenever the source reports a change.
func (e *Engine) startWatching() {
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	eventCh, err := e.source.Watch(ctx)
	if err != nil {
		e.logger.Error("failed to start ladder watcher", "error", err)
		return
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-eventCh:
				if !ok {
					return
				}
				e.handleLadderEvent(ctx, event)
			}
		}
	}()
}

// handleLadderEvent handles a ladder source change event.
func (e *Engine) handleLadderEvent(ctx context.Context, event LadderEvent) {
	if event.Error != nil {
		e.logger.Error("ladder watch error", "error", event.Error)
		return
	}

	e.logger.Info("ladder source changed",
		"type", event.Type,
		"path", event.Path,
	)

	if err := e.Reload(ctx); err != nil {
		e.logger.Error("failed to reload ladders after change",
			"error", err,
			"path", event.Path,
		)
	}
}

// Close stops watching and rejects further evaluations.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		e.mu.Unlock()

		if e.cancel != nil {
			e.cancel()
		}
		e.wg.Wait()
	})
	return nil
}

// Package noesis is the deterministic rule-based reasoning engine
// facade: it wires the knowledge base, the inference strategies, the
// consistency checker, and a persistence backend into one object.
package noesis

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cognicore/noesis/pkg/noesis/config"
	"github.com/cognicore/noesis/pkg/noesis/consistency"
	"github.com/cognicore/noesis/pkg/noesis/ingest"
	"github.com/cognicore/noesis/pkg/noesis/internalerr"
	"github.com/cognicore/noesis/pkg/noesis/kb"
	"github.com/cognicore/noesis/pkg/noesis/logic"
	"github.com/cognicore/noesis/pkg/noesis/reason"
	"github.com/cognicore/noesis/pkg/noesis/sched"
	"github.com/cognicore/noesis/pkg/noesis/solver"
	"github.com/cognicore/noesis/pkg/noesis/store"
	"github.com/cognicore/noesis/pkg/noesis/store/filestore"
	"github.com/cognicore/noesis/pkg/noesis/store/sqlite"
)

// Options configures an Engine. A nil Store is built from the Config:
// SQLite when DatabasePath is set, flat files otherwise.
type Options struct {
	Config config.Config
	Store  store.Store
	Logger *log.Logger
}

// Engine is the reasoning engine facade.
type Engine struct {
	base      *kb.Base
	st        store.Store
	reasoner  *reason.Reasoner
	checker   *consistency.Checker
	pool      *sched.Pool
	extractor *ingest.Extractor
	logger    *log.Logger

	mu      sync.Mutex
	queries map[logic.Method]int64
	checks  int64
	started time.Time
}

// Stats is a point-in-time view of engine activity.
type Stats struct {
	Facts             int
	Rules             int
	Queries           int64
	ForwardRuns       int64
	BackwardRuns      int64
	ConstraintRuns    int64
	HybridRuns        int64
	ConsistencyChecks int64
	CacheHits         int64
	CacheMisses       int64
	CacheSize         int
	SolverAvailable   bool
	Uptime            time.Duration
}

// Open builds an engine from options, loads the persisted snapshot,
// and seeds the built-in axioms when configured. A solver that fails
// to initialize downgrades the engine to basic consistency checking
// rather than failing Open.
func Open(ctx context.Context, opts Options) (*Engine, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	st := opts.Store
	if st == nil {
		var err error
		if cfg.DatabasePath != "" {
			st, err = sqlite.Open(ctx, cfg.DatabasePath)
		} else {
			st, err = filestore.Open(cfg.DataDir)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
		}
	}

	base := kb.New(logger)
	facts, rules, err := st.LoadSnapshot(ctx)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	base.Replace(facts, rules)

	if cfg.SeedAxioms {
		seedAxioms(base)
	}

	var prover reason.Prover
	var backend consistency.SolverBackend
	if cfg.EnableSolver {
		sv, err := solver.New(logger)
		if err != nil {
			logger.Printf("warning: solver unavailable, constraint solving disabled: %v", err)
		} else {
			prover = sv
			backend = sv
		}
	}

	reasoner, err := reason.New(base, reason.Config{
		MaxDepth:      cfg.MaxInferenceDepth,
		MaxIterations: cfg.MaxIterations,
		CacheSize:     cfg.CacheSize,
	}, prover, logger)
	if err != nil {
		st.Close()
		return nil, err
	}

	return &Engine{
		base:      base,
		st:        st,
		reasoner:  reasoner,
		checker:   consistency.New(base, backend, logger),
		pool:      sched.New(cfg.Workers),
		extractor: ingest.NewExtractor("ingest"),
		logger:    logger,
		queries:   make(map[logic.Method]int64),
		started:   time.Now(),
	}, nil
}

// AddFact adds a fact to the in-memory base. It is not persisted until
// the next Save; a crash in between loses the addition.
func (e *Engine) AddFact(f logic.Fact) bool {
	return e.base.AddFact(f)
}

// AddRule validates and adds a rule to the in-memory base.
func (e *Engine) AddRule(r logic.Rule) bool {
	return e.base.AddRule(r)
}

// Base exposes the underlying knowledge base.
func (e *Engine) Base() *kb.Base { return e.base }

// Store exposes the persistence backend, for callers that reconcile
// facts directly into the persistent store.
func (e *Engine) Store() store.Store { return e.st }

// Reason answers a query with the requested inference method. The call
// is gated through the worker pool so at most Workers reasoning calls
// run concurrently.
func (e *Engine) Reason(ctx context.Context, query string, method logic.Method) logic.ReasoningResult {
	e.mu.Lock()
	e.queries[method]++
	e.mu.Unlock()

	var result logic.ReasoningResult
	err := e.pool.Do(ctx, func() error {
		result = e.reasoner.Reason(ctx, query, method)
		return nil
	})
	if err != nil {
		return logic.ReasoningResult{
			Query:       query,
			Explanation: fmt.Sprintf("reasoning not scheduled: %v", err),
			Method:      method,
		}
	}
	return result
}

// CheckConsistency scans the base for contradictions.
func (e *Engine) CheckConsistency(ctx context.Context) logic.ConsistencyCheck {
	e.mu.Lock()
	e.checks++
	e.mu.Unlock()

	var check logic.ConsistencyCheck
	err := e.pool.Do(ctx, func() error {
		check = e.checker.Check(ctx)
		return nil
	})
	if err != nil {
		return logic.ConsistencyCheck{
			Consistent: true,
			Warnings:   []string{fmt.Sprintf("check not scheduled: %v", err)},
		}
	}
	return check
}

// Learn extracts candidate facts from free text and adds them to the
// base, returning how many were added.
func (e *Engine) Learn(text string) int {
	added := 0
	for _, f := range e.extractor.FromText(text) {
		if e.base.AddFact(f) {
			added++
		}
	}
	return added
}

// Process is the plain-text surface: it runs hybrid reasoning over the
// query and stringifies the result.
func (e *Engine) Process(ctx context.Context, text string) string {
	result := e.Reason(ctx, text, logic.MethodHybrid)
	if !result.Success {
		return fmt.Sprintf("unknown: %s", result.Explanation)
	}
	return fmt.Sprintf("yes (confidence %.2f): %s", result.Confidence, result.Explanation)
}

// Save persists the current base to the store.
func (e *Engine) Save(ctx context.Context) error {
	if err := e.st.SaveSnapshot(ctx, e.base.Facts(), e.base.Rules()); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Stats reports engine activity counters.
func (e *Engine) Stats() Stats {
	facts, rules := e.base.Counts()
	hits, misses := e.reasoner.CacheStats()

	e.mu.Lock()
	defer e.mu.Unlock()

	var total int64
	for _, n := range e.queries {
		total += n
	}
	return Stats{
		Facts:             facts,
		Rules:             rules,
		Queries:           total,
		ForwardRuns:       e.queries[logic.MethodForward],
		BackwardRuns:      e.queries[logic.MethodBackward],
		ConstraintRuns:    e.queries[logic.MethodConstraint],
		HybridRuns:        e.queries[logic.MethodHybrid],
		ConsistencyChecks: e.checks,
		CacheHits:         hits,
		CacheMisses:       misses,
		CacheSize:         e.reasoner.CacheLen(),
		SolverAvailable:   e.checker.Mode() == consistency.ModeWithSolver,
		Uptime:            time.Since(e.started),
	}
}

// Close saves the base and closes the store.
func (e *Engine) Close(ctx context.Context) error {
	if err := e.Save(ctx); err != nil {
		e.st.Close()
		return err
	}
	return e.st.Close()
}

// Package reason implements the inference strategies of the engine:
// forward chaining, backward chaining, and the cached entry point that
// dispatches between them.
package reason

import (
	"context"
	"crypto/md5"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cognicore/noesis/pkg/noesis/internalerr"
	"github.com/cognicore/noesis/pkg/noesis/kb"
	"github.com/cognicore/noesis/pkg/noesis/logic"
)

const (
	DefaultMaxDepth      = 10
	DefaultMaxIterations = 100
	DefaultCacheSize     = 1000
)

// Prover proves a single query term against a fact/rule snapshot using
// an external solver. Implementations live outside this package so the
// engine works without one.
type Prover interface {
	Prove(ctx context.Context, query logic.Term, facts []logic.Fact, rules []logic.Rule) (proved bool, detail string, err error)
}

// Config bounds a Reasoner. Zero values fall back to the defaults.
type Config struct {
	MaxDepth      int
	MaxIterations int
	CacheSize     int
}

// Reasoner runs inference over a knowledge base.
type Reasoner struct {
	base   *kb.Base
	cfg    Config
	cache  *lru.Cache[string, logic.ReasoningResult]
	prover Prover
	logger *log.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a Reasoner over the given base. The prover may be nil, in
// which case the constraint-solving method reports itself unavailable.
func New(base *kb.Base, cfg Config, prover Prover, logger *log.Logger) (*Reasoner, error) {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if logger == nil {
		logger = log.Default()
	}
	cache, err := lru.New[string, logic.ReasoningResult](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("reason cache: %w", err)
	}
	return &Reasoner{base: base, cfg: cfg, cache: cache, prover: prover, logger: logger}, nil
}

// Reason parses the query and dispatches to the requested inference
// method. Results are memoized per (query, method) in a bounded LRU;
// the cache is not invalidated when facts are added, so a repeated
// query can return a stale result after mutation. Results produced
// under a cancelled context are not memoized.
func (r *Reasoner) Reason(ctx context.Context, query string, method logic.Method) (result logic.ReasoningResult) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Printf("error during reasoning %q: %v", query, rec)
			result = logic.ReasoningResult{
				Query:       query,
				Explanation: fmt.Sprintf("error during reasoning: %v", rec),
				Method:      method,
			}
		}
	}()

	key := cacheKey(query, method)
	if cached, ok := r.cache.Get(key); ok {
		r.hits.Add(1)
		return cached
	}
	r.misses.Add(1)

	term := logic.ParseTerm(query)
	start := time.Now()

	switch method {
	case logic.MethodForward:
		r.Forward(ctx, r.cfg.MaxIterations)
		result = r.checkSatisfaction(term)
	case logic.MethodBackward:
		result = r.Backward(ctx, term, 0)
	case logic.MethodConstraint:
		result = r.constraintSolve(ctx, term)
	default: // hybrid
		result = r.Backward(ctx, term, 0)
		if !result.Success {
			r.Forward(ctx, r.cfg.MaxIterations)
			result = r.checkSatisfaction(term)
		}
		if !result.Success && r.prover != nil {
			if alt := r.constraintSolve(ctx, term); alt.Success {
				result = alt
			}
		}
	}

	result.Query = query
	result.Duration = time.Since(start)

	// A cancelled context yields a transient failure, not an answer;
	// memoizing it would replay the cancellation to healthy callers.
	if ctx.Err() == nil {
		r.cache.Add(key, result)
	}
	return result
}

// CacheLen returns the number of memoized results.
func (r *Reasoner) CacheLen() int { return r.cache.Len() }

// CacheStats returns cumulative cache hit and miss counts.
func (r *Reasoner) CacheStats() (hits, misses int64) {
	return r.hits.Load(), r.misses.Load()
}

// MaxDepth returns the configured backward-chaining depth cap.
func (r *Reasoner) MaxDepth() int { return r.cfg.MaxDepth }

func cacheKey(query string, method logic.Method) string {
	sum := md5.Sum([]byte(query + "|" + string(method)))
	return fmt.Sprintf("%x", sum)
}

// checkSatisfaction reports whether the query term is matched by any
// stored fact, without deriving anything new.
func (r *Reasoner) checkSatisfaction(query logic.Term) logic.ReasoningResult {
	start := time.Now()
	matches := r.base.MatchFacts(query)
	if len(matches) == 0 {
		return logic.ReasoningResult{
			Query:       query.String(),
			Explanation: "query not satisfied by any known facts",
			Method:      logic.MethodForward,
			Duration:    time.Since(start),
		}
	}

	confidence := matches[0].Confidence
	for _, f := range matches[1:] {
		if f.Confidence > confidence {
			confidence = f.Confidence
		}
	}
	return logic.ReasoningResult{
		Query:       query.String(),
		Success:     true,
		Results:     matches,
		Explanation: fmt.Sprintf("query satisfied by %d facts", len(matches)),
		Confidence:  confidence,
		Method:      logic.MethodForward,
		Duration:    time.Since(start),
	}
}

// constraintSolve asks the external prover whether the query is
// derivable from the current fact/rule snapshot.
func (r *Reasoner) constraintSolve(ctx context.Context, query logic.Term) logic.ReasoningResult {
	start := time.Now()
	if r.prover == nil {
		return logic.ReasoningResult{
			Query:       query.String(),
			Explanation: internalerr.ErrSolverUnavailable.Error(),
			Method:      logic.MethodConstraint,
			Duration:    time.Since(start),
		}
	}

	proved, detail, err := r.prover.Prove(ctx, query, r.base.Facts(), r.base.Rules())
	if err != nil {
		r.logger.Printf("error in constraint solving: %v", err)
		return logic.ReasoningResult{
			Query:       query.String(),
			Explanation: fmt.Sprintf("error in constraint solving: %v", err),
			Method:      logic.MethodConstraint,
			Duration:    time.Since(start),
		}
	}
	if !proved {
		return logic.ReasoningResult{
			Query:       query.String(),
			Explanation: "query cannot be satisfied by constraint solving",
			Method:      logic.MethodConstraint,
			Duration:    time.Since(start),
		}
	}

	// Solver-derived conclusions carry a fixed, reduced confidence.
	derived := logic.Fact{
		ID:          r.base.NewID(),
		Term:        query,
		Confidence:  0.8,
		Source:      "constraint_solving",
		CreatedAt:   time.Now(),
		Derived:     true,
		DerivedFrom: []string{"solver"},
	}
	return logic.ReasoningResult{
		Query:       query.String(),
		Success:     true,
		Results:     []logic.Fact{derived},
		Explanation: "query satisfied by constraint solving: " + detail,
		Confidence:  0.8,
		Method:      logic.MethodConstraint,
		Duration:    time.Since(start),
	}
}

// explain renders inference steps as a numbered human-readable trace.
func explain(steps []logic.InferenceStep) string {
	if len(steps) == 0 {
		return "no inference steps performed"
	}
	var b strings.Builder
	for i, step := range steps {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "step %d: applied rule %q using premises %v to derive %v (confidence %.2f)",
			i+1, step.RuleApplied, step.PremisesIDs, step.DerivedIDs, step.Confidence)
	}
	return b.String()
}

// Package kb holds the in-memory knowledge base: the fact and rule
// mappings every reasoning component reads from.
package kb

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/cognicore/noesis/pkg/noesis/logic"
)

// Base is the mutable fact/rule store. A single RWMutex serializes all
// mutation; concurrent readers are allowed. Facts and rules are never
// deleted.
type Base struct {
	mu     sync.RWMutex
	facts  map[string]logic.Fact
	rules  map[string]logic.Rule
	byPred map[string][]string // predicate name → fact IDs
	ids    *logic.IDGenerator
	logger *log.Logger
}

// New creates an empty knowledge base. A nil logger falls back to
// log.Default().
func New(logger *log.Logger) *Base {
	if logger == nil {
		logger = log.Default()
	}
	return &Base{
		facts:  make(map[string]logic.Fact),
		rules:  make(map[string]logic.Rule),
		byPred: make(map[string][]string),
		ids:    logic.NewIDGenerator(),
		logger: logger,
	}
}

// NewID issues a fresh identifier from the base's generator.
func (b *Base) NewID() string { return b.ids.Next() }

// AddFact validates and stores a fact, assigning an ID when missing.
// A contradiction with an existing fact is logged as a warning but does
// not reject the addition. Returns false only on validation failure.
func (b *Base) AddFact(f logic.Fact) bool {
	if !f.Valid() {
		b.logger.Printf("warning: fact validation failed: %s", f.Term)
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if f.ID == "" {
		f.ID = b.ids.Next()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}

	neg := f.Term.Negate()
	for _, id := range b.byPred[f.Term.Name] {
		if b.facts[id].Term.Matches(neg) {
			b.logger.Printf("warning: fact %s contradicts %s", f.ID, id)
		}
	}

	b.facts[f.ID] = f
	b.byPred[f.Term.Name] = append(b.byPred[f.Term.Name], f.ID)
	return true
}

// AddRule validates and stores a rule, assigning an ID when missing.
// Returns false when validation fails; the failure is logged as a
// warning only.
func (b *Base) AddRule(r logic.Rule) bool {
	if r.ID == "" {
		r.ID = b.ids.Next()
	}
	if err := r.Validate(); err != nil {
		b.logger.Printf("warning: rule validation failed: %v", err)
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	b.rules[r.ID] = r
	return true
}

// SeedRule stores a rule without validation. Built-in axioms such as
// modus ponens reuse a predicate on both sides and would fail the naive
// circularity check applied to user rules.
func (b *Base) SeedRule(r logic.Rule) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if r.ID == "" {
		r.ID = b.ids.Next()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	b.rules[r.ID] = r
}

// Fact returns a fact by ID.
func (b *Base) Fact(id string) (logic.Fact, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	f, ok := b.facts[id]
	return f, ok
}

// Rule returns a rule by ID.
func (b *Base) Rule(id string) (logic.Rule, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	r, ok := b.rules[id]
	return r, ok
}

// Facts returns a snapshot of all facts.
func (b *Base) Facts() []logic.Fact {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]logic.Fact, 0, len(b.facts))
	for _, f := range b.facts {
		out = append(out, f)
	}
	return out
}

// Rules returns a snapshot of all rules sorted by ID, so callers that
// iterate apply rules in a reproducible order.
func (b *Base) Rules() []logic.Rule {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]logic.Rule, 0, len(b.rules))
	for _, r := range b.rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// MatchFacts returns every fact whose term matches t, using the
// predicate index to avoid a full scan.
func (b *Base) MatchFacts(t logic.Term) []logic.Fact {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []logic.Fact
	for _, id := range b.byPred[t.Name] {
		if f := b.facts[id]; f.Term.Matches(t) {
			out = append(out, f)
		}
	}
	return out
}

// ContainsTerm reports whether any stored fact matches t.
func (b *Base) ContainsTerm(t logic.Term) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, id := range b.byPred[t.Name] {
		if b.facts[id].Term.Matches(t) {
			return true
		}
	}
	return false
}

// FactsByPredicate returns a snapshot of all facts grouped by predicate
// name. The consistency checker scans within these buckets instead of
// pairing every fact with every other.
func (b *Base) FactsByPredicate() map[string][]logic.Fact {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string][]logic.Fact, len(b.byPred))
	for name, ids := range b.byPred {
		bucket := make([]logic.Fact, 0, len(ids))
		for _, id := range ids {
			bucket = append(bucket, b.facts[id])
		}
		out[name] = bucket
	}
	return out
}

// Counts returns the number of facts and rules.
func (b *Base) Counts() (facts, rules int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.facts), len(b.rules)
}

// Replace swaps in a loaded snapshot, rebuilding the predicate index.
// Used when restoring persisted state at startup.
func (b *Base) Replace(facts []logic.Fact, rules []logic.Rule) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.facts = make(map[string]logic.Fact, len(facts))
	b.rules = make(map[string]logic.Rule, len(rules))
	b.byPred = make(map[string][]string)

	for _, f := range facts {
		if f.ID == "" {
			f.ID = b.ids.Next()
		}
		b.facts[f.ID] = f
		b.byPred[f.Term.Name] = append(b.byPred[f.Term.Name], f.ID)
	}
	for _, r := range rules {
		if r.ID == "" {
			r.ID = b.ids.Next()
		}
		b.rules[r.ID] = r
	}
}

// Package logic defines the data model of the reasoning engine: logical
// terms, asserted facts, inference rules, and the records produced by a
// reasoning run.
package logic

import (
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// RuleKind classifies a rule.
type RuleKind string

const (
	KindImplication RuleKind = "implication"
	KindEquivalence RuleKind = "equivalence"
	KindConstraint  RuleKind = "constraint"
	KindFact        RuleKind = "fact"
	KindQuery       RuleKind = "query"
)

// Method selects an inference strategy.
type Method string

const (
	MethodForward    Method = "forward_chaining"
	MethodBackward   Method = "backward_chaining"
	MethodConstraint Method = "constraint_solving"
	MethodHybrid     Method = "hybrid"
)

// Term is a named predicate applied to an ordered list of string arguments,
// with an optional negation flag. It is the atomic unit of knowledge.
type Term struct {
	Name      string
	Arguments []string
	Negated   bool
}

// Matches reports whether two terms are identical: same name, same
// arguments in the same positions, same negation flag.
//
// Matching is literal string equality. There is no unification: an
// argument like "X" is not a variable, it only ever matches another
// term whose argument is the literal string "X". Rules written with
// placeholder arguments therefore fire only against facts that carry
// the same placeholder verbatim.
func (t Term) Matches(other Term) bool {
	if t.Name != other.Name || t.Negated != other.Negated {
		return false
	}
	if len(t.Arguments) != len(other.Arguments) {
		return false
	}
	for i, a := range t.Arguments {
		if a != other.Arguments[i] {
			return false
		}
	}
	return true
}

// Negate returns a copy of the term with the negation flag flipped.
func (t Term) Negate() Term {
	out := t
	out.Negated = !t.Negated
	out.Arguments = append([]string(nil), t.Arguments...)
	return out
}

// Key returns a canonical string identifying name+arguments, ignoring
// negation. Facts sharing a Key but differing in negation contradict.
func (t Term) Key() string {
	return t.Name + "(" + strings.Join(t.Arguments, ",") + ")"
}

// String renders the term in predicate notation, e.g. "¬human(socrates)".
func (t Term) String() string {
	var b strings.Builder
	if t.Negated {
		b.WriteString("¬")
	}
	b.WriteString(t.Name)
	if len(t.Arguments) > 0 {
		b.WriteString("(")
		b.WriteString(strings.Join(t.Arguments, ", "))
		b.WriteString(")")
	}
	return b.String()
}

// Fact is a ground term asserted with a confidence and provenance.
// Facts are immutable once created; there is no delete operation.
type Fact struct {
	ID          string
	Term        Term
	Confidence  float64
	Source      string
	CreatedAt   time.Time
	Derived     bool
	DerivedFrom []string // rule IDs that produced a derived fact
}

// Valid reports whether the fact is well formed.
func (f Fact) Valid() bool {
	return f.Term.Name != "" && f.Confidence >= 0.0 && f.Confidence <= 1.0
}

// Rule is a premise-to-conclusion implication used to derive new facts.
// Rules are immutable after creation; no update operation exists.
type Rule struct {
	ID          string
	Kind        RuleKind
	Premises    []Term
	Conclusions []Term
	Confidence  float64
	Priority    int
	Source      string
	CreatedAt   time.Time
	Metadata    map[string]string
}

// Validate checks a rule for well-formedness: non-empty premises and
// conclusions, confidence within [0,1], and no predicate name appearing
// on both sides (naively treated as circular).
func (r Rule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("rule has no id")
	}
	if len(r.Premises) == 0 || len(r.Conclusions) == 0 {
		return fmt.Errorf("rule %s: empty premises or conclusions", r.ID)
	}
	if r.Confidence < 0.0 || r.Confidence > 1.0 {
		return fmt.Errorf("rule %s: confidence %.3f out of range", r.ID, r.Confidence)
	}
	premiseNames := make(map[string]struct{}, len(r.Premises))
	for _, p := range r.Premises {
		premiseNames[p.Name] = struct{}{}
	}
	for _, c := range r.Conclusions {
		if _, ok := premiseNames[c.Name]; ok {
			return fmt.Errorf("rule %s: predicate %q appears in both premises and conclusions", r.ID, c.Name)
		}
	}
	return nil
}

// String renders the rule, e.g. "human(X) → mortal(X)".
func (r Rule) String() string {
	connective := " → "
	if r.Kind == KindEquivalence {
		connective = " ↔ "
	}
	return joinTerms(r.Premises) + connective + joinTerms(r.Conclusions)
}

func joinTerms(terms []Term) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ∧ ")
}

// InferenceStep records one rule application during a reasoning run.
// It is an audit artifact only; nothing consults it afterwards.
type InferenceStep struct {
	ID          string
	RuleApplied string
	PremisesIDs []string
	DerivedIDs  []string
	Method      Method
	Confidence  float64
	At          time.Time
}

// ReasoningResult is what a reasoning call returns. Callers inspect the
// Success flag and the natural-language Explanation; there is no error
// code scheme.
type ReasoningResult struct {
	Query       string
	Success     bool
	Results     []Fact
	Steps       []InferenceStep
	Explanation string
	Confidence  float64
	Duration    time.Duration
	Method      Method
}

// Contradiction identifies a pair of directly contradictory facts.
type Contradiction struct {
	Kind        string
	FactA       string
	FactB       string
	Description string
}

// ConsistencyCheck is the result of scanning the knowledge base for
// contradictions.
type ConsistencyCheck struct {
	Consistent     bool
	Contradictions []Contradiction
	Warnings       []string
	Duration       time.Duration
}

// IDGenerator issues lexicographically sortable unique IDs for facts and
// rules.
type IDGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewIDGenerator creates a generator backed by monotonic entropy.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// Next returns a fresh ID.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Now(), g.entropy).String()
}

// Package consistency scans the knowledge base for contradictory facts.
// Detection is term-level only: two facts with the same predicate and
// arguments but opposite negation. A solver backend, when configured,
// additionally surfaces rule-implied contradictions.
package consistency

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cognicore/noesis/pkg/noesis/kb"
	"github.com/cognicore/noesis/pkg/noesis/logic"
)

// Mode names the capability level selected at construction.
type Mode string

const (
	ModeBasic      Mode = "basic"
	ModeWithSolver Mode = "with-solver"
)

// SolverBackend finds contradictions a pairwise fact scan cannot, by
// deriving through rules. Warnings report solver trouble without
// failing the check.
type SolverBackend interface {
	Refute(ctx context.Context, facts []logic.Fact, rules []logic.Rule) ([]logic.Contradiction, []string, error)
}

// Checker runs consistency checks over a knowledge base. It is
// read-only: no check mutates the base.
type Checker struct {
	base   *kb.Base
	solver SolverBackend
	logger *log.Logger
}

// New creates a Checker. A nil solver selects basic mode.
func New(base *kb.Base, solver SolverBackend, logger *log.Logger) *Checker {
	if logger == nil {
		logger = log.Default()
	}
	return &Checker{base: base, solver: solver, logger: logger}
}

// Mode reports which capability level the checker runs at.
func (c *Checker) Mode() Mode {
	if c.solver != nil {
		return ModeWithSolver
	}
	return ModeBasic
}

// Check scans all facts for direct contradictions, pairing only facts
// that share a predicate name. When a solver backend is configured its
// findings are appended; a solver failure downgrades to a warning.
//
// Rule-conflict detection is declared but not implemented: no pair of
// rules is ever reported as conflicting.
func (c *Checker) Check(ctx context.Context) logic.ConsistencyCheck {
	start := time.Now()

	var contradictions []logic.Contradiction
	var warnings []string

	for _, bucket := range c.base.FactsByPredicate() {
		for i := 0; i < len(bucket); i++ {
			for j := i + 1; j < len(bucket); j++ {
				if !factsContradict(bucket[i], bucket[j]) {
					continue
				}
				contradictions = append(contradictions, logic.Contradiction{
					Kind:  "fact_contradiction",
					FactA: bucket[i].ID,
					FactB: bucket[j].ID,
					Description: fmt.Sprintf("facts %s and %s contradict each other",
						bucket[i].ID, bucket[j].ID),
				})
			}
		}
	}

	if c.solver != nil {
		solved, solverWarnings, err := c.solver.Refute(ctx, c.base.Facts(), c.base.Rules())
		if err != nil {
			c.logger.Printf("error in solver consistency check: %v", err)
			warnings = append(warnings, fmt.Sprintf("solver check failed: %v", err))
		} else {
			contradictions = append(contradictions, solved...)
			warnings = append(warnings, solverWarnings...)
		}
	}

	return logic.ConsistencyCheck{
		Consistent:     len(contradictions) == 0,
		Contradictions: contradictions,
		Warnings:       warnings,
		Duration:       time.Since(start),
	}
}

// factsContradict reports a direct term-level contradiction: identical
// name and arguments, opposite negation.
func factsContradict(a, b logic.Fact) bool {
	return a.Term.Matches(b.Term.Negate())
}

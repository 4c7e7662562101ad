package reason

import (
	"context"
	"time"

	"github.com/cognicore/noesis/pkg/noesis/logic"
)

// Forward runs forward chaining for up to maxIterations rounds,
// applying every implication and equivalence rule against the current
// fact set. Newly derived facts whose terms are not already present
// are added to the knowledge base. A round that derives nothing stops
// the loop early.
//
// Rules are applied in ascending ID order so runs over the same base
// are reproducible. Cancellation is checked between rounds only; a
// single round runs to completion.
func (r *Reasoner) Forward(ctx context.Context, maxIterations int) []logic.Fact {
	var newFacts []logic.Fact

	for iteration := 0; iteration < maxIterations; iteration++ {
		if ctx.Err() != nil {
			r.logger.Printf("forward chaining cancelled after %d iterations", iteration)
			break
		}

		var derivedThisRound []logic.Fact
		for _, rule := range r.base.Rules() {
			if rule.Kind != logic.KindImplication && rule.Kind != logic.KindEquivalence {
				continue
			}
			derivedThisRound = append(derivedThisRound, r.applyRuleForward(rule)...)
		}

		added := false
		for _, fact := range derivedThisRound {
			if r.base.ContainsTerm(fact.Term) {
				continue
			}
			if r.base.AddFact(fact) {
				newFacts = append(newFacts, fact)
				added = true
			}
		}
		if !added {
			break
		}
	}

	return newFacts
}

// applyRuleForward finds every combination of stored facts matching the
// rule's premises in order and derives the rule's conclusions for each
// complete combination. A failure inside one rule is logged and skipped
// so the remaining rules still run.
func (r *Reasoner) applyRuleForward(rule logic.Rule) (derived []logic.Fact) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Printf("error applying rule %s: %v", rule.ID, rec)
			derived = nil
		}
	}()

	for _, combination := range r.premiseMatches(rule.Premises) {
		confidence := rule.Confidence
		for _, f := range combination {
			if f.Confidence < confidence {
				confidence = f.Confidence
			}
		}

		for _, conclusion := range rule.Conclusions {
			if r.base.ContainsTerm(conclusion) {
				continue
			}
			derived = append(derived, logic.Fact{
				ID:          r.base.NewID(),
				Term:        conclusion,
				Confidence:  confidence,
				Source:      "forward_chaining",
				CreatedAt:   time.Now(),
				Derived:     true,
				DerivedFrom: []string{rule.ID},
			})
		}
	}
	return derived
}

// premiseMatches returns every ordered combination of facts matching
// the premise list: the cartesian product of per-premise matches.
func (r *Reasoner) premiseMatches(premises []logic.Term) [][]logic.Fact {
	if len(premises) == 0 {
		return [][]logic.Fact{{}}
	}

	var combos [][]logic.Fact
	for _, fact := range r.base.MatchFacts(premises[0]) {
		if len(premises) == 1 {
			combos = append(combos, []logic.Fact{fact})
			continue
		}
		for _, rest := range r.premiseMatches(premises[1:]) {
			combo := append([]logic.Fact{fact}, rest...)
			combos = append(combos, combo)
		}
	}
	return combos
}

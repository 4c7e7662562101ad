package reason

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cognicore/noesis/pkg/noesis/internalerr"
	"github.com/cognicore/noesis/pkg/noesis/logic"
)

// Backward attempts to prove the query term: first by matching a known
// fact, otherwise by finding implication rules whose conclusions match
// the query and recursively proving all their premises. Results from
// every rule that proves the query are collected, not just the first.
//
// Recursion is bounded only by the depth cap; there is no memoization
// across branches, so deep rule chains can be expensive.
func (r *Reasoner) Backward(ctx context.Context, query logic.Term, depth int) logic.ReasoningResult {
	start := time.Now()

	if depth > r.cfg.MaxDepth {
		return logic.ReasoningResult{
			Query:       query.String(),
			Explanation: internalerr.ErrDepthExceeded.Error(),
			Method:      logic.MethodBackward,
			Duration:    time.Since(start),
		}
	}
	if err := ctx.Err(); err != nil {
		return logic.ReasoningResult{
			Query:       query.String(),
			Explanation: fmt.Sprintf("reasoning cancelled: %v", err),
			Method:      logic.MethodBackward,
			Duration:    time.Since(start),
		}
	}

	// Direct match against a known fact wins immediately.
	if matches := r.base.MatchFacts(query); len(matches) > 0 {
		fact := matches[0]
		return logic.ReasoningResult{
			Query:       query.String(),
			Success:     true,
			Results:     []logic.Fact{fact},
			Explanation: fmt.Sprintf("query matches known fact %s", fact.ID),
			Confidence:  fact.Confidence,
			Method:      logic.MethodBackward,
			Duration:    time.Since(start),
		}
	}

	var steps []logic.InferenceStep
	var results []logic.Fact

	for _, rule := range r.base.Rules() {
		if rule.Kind != logic.KindImplication {
			continue
		}
		for _, conclusion := range rule.Conclusions {
			if !query.Matches(conclusion) {
				continue
			}

			var premiseFacts []logic.Fact
			var premiseSteps []logic.InferenceStep
			canProve := true

			for _, premise := range rule.Premises {
				sub := r.Backward(ctx, premise, depth+1)
				if !sub.Success {
					canProve = false
					break
				}
				premiseFacts = append(premiseFacts, sub.Results...)
				premiseSteps = append(premiseSteps, sub.Steps...)
			}
			if !canProve {
				continue
			}

			confidence := rule.Confidence
			premiseIDs := make([]string, len(premiseFacts))
			for i, f := range premiseFacts {
				premiseIDs[i] = f.ID
				if f.Confidence < confidence {
					confidence = f.Confidence
				}
			}

			derived := logic.Fact{
				ID:          r.base.NewID(),
				Term:        query,
				Confidence:  confidence,
				Source:      "backward_chaining",
				CreatedAt:   time.Now(),
				Derived:     true,
				DerivedFrom: []string{rule.ID},
			}
			step := logic.InferenceStep{
				ID:          uuid.NewString(),
				RuleApplied: rule.ID,
				PremisesIDs: premiseIDs,
				DerivedIDs:  []string{derived.ID},
				Method:      logic.MethodBackward,
				Confidence:  confidence,
				At:          time.Now(),
			}

			steps = append(steps, premiseSteps...)
			steps = append(steps, step)
			results = append(results, derived)
		}
	}

	if len(results) == 0 {
		return logic.ReasoningResult{
			Query:       query.String(),
			Steps:       steps,
			Explanation: "could not prove query using available rules and facts",
			Method:      logic.MethodBackward,
			Duration:    time.Since(start),
		}
	}

	confidence := results[0].Confidence
	for _, f := range results[1:] {
		if f.Confidence > confidence {
			confidence = f.Confidence
		}
	}
	return logic.ReasoningResult{
		Query:       query.String(),
		Success:     true,
		Results:     results,
		Steps:       steps,
		Explanation: explain(steps),
		Confidence:  confidence,
		Method:      logic.MethodBackward,
		Duration:    time.Since(start),
	}
}

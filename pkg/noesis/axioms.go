package noesis

import (
	"time"

	"github.com/cognicore/noesis/pkg/noesis/kb"
	"github.com/cognicore/noesis/pkg/noesis/logic"
)

// seedAxioms installs the built-in inference rules. They are seeded
// directly because modus ponens and modus tollens reuse the holds
// predicate on both sides, which the normal validation rejects as
// circular.
//
// The axiom premises use the placeholder arguments "X", "Y", "Z": with
// literal term matching they only fire against facts that carry those
// placeholders verbatim.
func seedAxioms(base *kb.Base) {
	now := time.Now()

	base.SeedRule(logic.Rule{
		ID:   "transitivity_implication",
		Kind: logic.KindImplication,
		Premises: []logic.Term{
			{Name: "implies", Arguments: []string{"X", "Y"}},
			{Name: "implies", Arguments: []string{"Y", "Z"}},
		},
		Conclusions: []logic.Term{
			{Name: "implies", Arguments: []string{"X", "Z"}},
		},
		Confidence: 1.0,
		Priority:   100,
		Source:     "system",
		CreatedAt:  now,
		Metadata:   map[string]string{"description": "transitivity of implication"},
	})

	base.SeedRule(logic.Rule{
		ID:   "modus_ponens",
		Kind: logic.KindImplication,
		Premises: []logic.Term{
			{Name: "implies", Arguments: []string{"X", "Y"}},
			{Name: "holds", Arguments: []string{"X"}},
		},
		Conclusions: []logic.Term{
			{Name: "holds", Arguments: []string{"Y"}},
		},
		Confidence: 1.0,
		Priority:   100,
		Source:     "system",
		CreatedAt:  now,
		Metadata:   map[string]string{"description": "modus ponens"},
	})

	base.SeedRule(logic.Rule{
		ID:   "modus_tollens",
		Kind: logic.KindImplication,
		Premises: []logic.Term{
			{Name: "implies", Arguments: []string{"X", "Y"}},
			{Name: "holds", Arguments: []string{"Y"}, Negated: true},
		},
		Conclusions: []logic.Term{
			{Name: "holds", Arguments: []string{"X"}, Negated: true},
		},
		Confidence: 1.0,
		Priority:   100,
		Source:     "system",
		CreatedAt:  now,
		Metadata:   map[string]string{"description": "modus tollens"},
	})
}

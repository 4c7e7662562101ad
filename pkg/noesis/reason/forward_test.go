package reason

import (
	"context"
	"testing"

	"github.com/cognicore/noesis/pkg/noesis/logic"
)

func TestForwardDerivesConclusion(t *testing.T) {
	r, base := newTestReasoner(t)

	base.AddFact(logic.Fact{Term: term("human", "socrates"), Confidence: 1.0, Source: "test"})
	base.AddRule(logic.Rule{
		ID:          "humans_are_mortal",
		Kind:        logic.KindImplication,
		Premises:    []logic.Term{term("human", "socrates")},
		Conclusions: []logic.Term{term("mortal", "socrates")},
		Confidence:  1.0,
	})

	derived := r.Forward(context.Background(), 10)
	if len(derived) != 1 {
		t.Fatalf("Expected 1 derived fact, got %d", len(derived))
	}
	if !derived[0].Term.Matches(term("mortal", "socrates")) {
		t.Errorf("Unexpected derived term: %s", derived[0].Term)
	}
	if derived[0].Source != "forward_chaining" {
		t.Errorf("Expected provenance forward_chaining, got %s", derived[0].Source)
	}
	if !derived[0].Derived {
		t.Error("Expected derived flag set")
	}
	if !base.ContainsTerm(term("mortal", "socrates")) {
		t.Error("Expected derived fact added to the base")
	}
}

func TestForwardConfidenceIsMin(t *testing.T) {
	r, base := newTestReasoner(t)

	base.AddFact(logic.Fact{Term: term("human", "socrates"), Confidence: 0.9, Source: "test"})
	base.AddFact(logic.Fact{Term: term("alive", "socrates"), Confidence: 0.5, Source: "test"})
	base.AddRule(logic.Rule{
		ID:          "breathing",
		Kind:        logic.KindImplication,
		Premises:    []logic.Term{term("human", "socrates"), term("alive", "socrates")},
		Conclusions: []logic.Term{term("breathes", "socrates")},
		Confidence:  0.8,
	})

	derived := r.Forward(context.Background(), 10)
	if len(derived) != 1 {
		t.Fatalf("Expected 1 derived fact, got %d", len(derived))
	}
	if derived[0].Confidence != 0.5 {
		t.Errorf("Expected min confidence 0.5, got %f", derived[0].Confidence)
	}
}

func TestForwardZeroIterations(t *testing.T) {
	r, base := newTestReasoner(t)

	base.AddFact(logic.Fact{Term: term("human", "socrates"), Confidence: 1.0, Source: "test"})
	base.AddRule(logic.Rule{
		ID:          "humans_are_mortal",
		Kind:        logic.KindImplication,
		Premises:    []logic.Term{term("human", "socrates")},
		Conclusions: []logic.Term{term("mortal", "socrates")},
		Confidence:  1.0,
	})

	derived := r.Forward(context.Background(), 0)
	if len(derived) != 0 {
		t.Errorf("Expected zero rule applications, got %d derived facts", len(derived))
	}
}

func TestForwardReachesFixpoint(t *testing.T) {
	r, base := newTestReasoner(t)

	base.AddFact(logic.Fact{Term: term("a"), Confidence: 1.0, Source: "test"})
	base.AddRule(logic.Rule{ID: "r1", Kind: logic.KindImplication,
		Premises: []logic.Term{term("a")}, Conclusions: []logic.Term{term("b")}, Confidence: 1.0})
	base.AddRule(logic.Rule{ID: "r2", Kind: logic.KindImplication,
		Premises: []logic.Term{term("b")}, Conclusions: []logic.Term{term("c")}, Confidence: 1.0})

	derived := r.Forward(context.Background(), 100)
	if len(derived) != 2 {
		t.Fatalf("Expected 2 derived facts, got %d", len(derived))
	}

	// Running again derives nothing: the fixpoint was reached.
	if again := r.Forward(context.Background(), 100); len(again) != 0 {
		t.Errorf("Expected no new facts at fixpoint, got %d", len(again))
	}
}

func TestForwardSkipsExistingFacts(t *testing.T) {
	r, base := newTestReasoner(t)

	base.AddFact(logic.Fact{Term: term("human", "socrates"), Confidence: 1.0, Source: "test"})
	base.AddFact(logic.Fact{Term: term("mortal", "socrates"), Confidence: 1.0, Source: "test"})
	base.AddRule(logic.Rule{
		ID:          "humans_are_mortal",
		Kind:        logic.KindImplication,
		Premises:    []logic.Term{term("human", "socrates")},
		Conclusions: []logic.Term{term("mortal", "socrates")},
		Confidence:  1.0,
	})

	if derived := r.Forward(context.Background(), 10); len(derived) != 0 {
		t.Errorf("Expected no derivation for an already-known term, got %d", len(derived))
	}
}

func TestForwardIgnoresConstraintRules(t *testing.T) {
	r, base := newTestReasoner(t)

	base.AddFact(logic.Fact{Term: term("a"), Confidence: 1.0, Source: "test"})
	base.SeedRule(logic.Rule{ID: "c1", Kind: logic.KindConstraint,
		Premises: []logic.Term{term("a")}, Conclusions: []logic.Term{term("b")}, Confidence: 1.0})

	if derived := r.Forward(context.Background(), 10); len(derived) != 0 {
		t.Errorf("Expected constraint rules to be skipped, got %d derived facts", len(derived))
	}
}

func TestForwardCancelledBetweenIterations(t *testing.T) {
	r, base := newTestReasoner(t)

	base.AddFact(logic.Fact{Term: term("a"), Confidence: 1.0, Source: "test"})
	base.AddRule(logic.Rule{ID: "r1", Kind: logic.KindImplication,
		Premises: []logic.Term{term("a")}, Conclusions: []logic.Term{term("b")}, Confidence: 1.0})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if derived := r.Forward(ctx, 10); len(derived) != 0 {
		t.Errorf("Expected no work under a cancelled context, got %d facts", len(derived))
	}
}

func TestForwardMultipleConclusions(t *testing.T) {
	r, base := newTestReasoner(t)

	base.AddFact(logic.Fact{Term: term("penguin", "pingu"), Confidence: 1.0, Source: "test"})
	base.AddRule(logic.Rule{
		ID:          "penguin_props",
		Kind:        logic.KindImplication,
		Premises:    []logic.Term{term("penguin", "pingu")},
		Conclusions: []logic.Term{term("bird", "pingu"), term("swims", "pingu")},
		Confidence:  1.0,
	})

	derived := r.Forward(context.Background(), 10)
	if len(derived) != 2 {
		t.Fatalf("Expected 2 derived facts, got %d", len(derived))
	}
}

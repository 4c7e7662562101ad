package kb

import (
	"io"
	"log"
	"strings"
	"testing"

	"github.com/cognicore/noesis/pkg/noesis/logic"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestAddFact(t *testing.T) {
	b := New(quietLogger())

	ok := b.AddFact(logic.Fact{
		Term:       logic.Term{Name: "human", Arguments: []string{"socrates"}},
		Confidence: 1.0,
		Source:     "test",
	})
	if !ok {
		t.Fatal("Expected fact to be added")
	}

	facts := b.Facts()
	if len(facts) != 1 {
		t.Fatalf("Expected 1 fact, got %d", len(facts))
	}
	if facts[0].ID == "" {
		t.Error("Expected an assigned ID")
	}
	if facts[0].CreatedAt.IsZero() {
		t.Error("Expected a creation timestamp")
	}
}

func TestAddFactValidation(t *testing.T) {
	b := New(quietLogger())

	if b.AddFact(logic.Fact{Term: logic.Term{Name: ""}, Confidence: 1.0}) {
		t.Error("Expected rejection for empty predicate name")
	}
	if b.AddFact(logic.Fact{Term: logic.Term{Name: "p"}, Confidence: 1.5}) {
		t.Error("Expected rejection for out-of-range confidence")
	}
	if facts, _ := b.Counts(); facts != 0 {
		t.Errorf("Expected empty base, got %d facts", facts)
	}
}

func TestAddFactContradictionWarnsButAdds(t *testing.T) {
	var buf strings.Builder
	b := New(log.New(&buf, "", 0))

	term := logic.Term{Name: "human", Arguments: []string{"socrates"}}
	b.AddFact(logic.Fact{Term: term, Confidence: 1.0})
	if !b.AddFact(logic.Fact{Term: term.Negate(), Confidence: 1.0}) {
		t.Fatal("Expected contradictory fact to still be added")
	}

	if facts, _ := b.Counts(); facts != 2 {
		t.Errorf("Expected 2 facts, got %d", facts)
	}
	if !strings.Contains(buf.String(), "contradicts") {
		t.Error("Expected a contradiction warning in the log")
	}
}

func TestAddRuleValidation(t *testing.T) {
	b := New(quietLogger())

	ok := b.AddRule(logic.Rule{
		Kind:        logic.KindImplication,
		Premises:    []logic.Term{{Name: "human", Arguments: []string{"socrates"}}},
		Conclusions: []logic.Term{{Name: "mortal", Arguments: []string{"socrates"}}},
		Confidence:  1.0,
	})
	if !ok {
		t.Fatal("Expected rule to be added")
	}

	// Premise predicate reused as conclusion predicate is rejected.
	ok = b.AddRule(logic.Rule{
		Kind:        logic.KindImplication,
		Premises:    []logic.Term{{Name: "human", Arguments: []string{"a"}}},
		Conclusions: []logic.Term{{Name: "human", Arguments: []string{"b"}}},
		Confidence:  1.0,
	})
	if ok {
		t.Error("Expected circular rule to be rejected")
	}

	if _, rules := b.Counts(); rules != 1 {
		t.Errorf("Expected 1 rule, got %d", rules)
	}
}

func TestSeedRuleBypassesValidation(t *testing.T) {
	b := New(quietLogger())

	b.SeedRule(logic.Rule{
		ID:          "modus_ponens",
		Kind:        logic.KindImplication,
		Premises:    []logic.Term{{Name: "implies", Arguments: []string{"X", "Y"}}, {Name: "holds", Arguments: []string{"X"}}},
		Conclusions: []logic.Term{{Name: "holds", Arguments: []string{"Y"}}},
		Confidence:  1.0,
	})

	if _, ok := b.Rule("modus_ponens"); !ok {
		t.Error("Expected seeded rule to be stored despite shared predicate")
	}
}

func TestMatchFacts(t *testing.T) {
	b := New(quietLogger())

	b.AddFact(logic.Fact{Term: logic.Term{Name: "human", Arguments: []string{"socrates"}}, Confidence: 1.0})
	b.AddFact(logic.Fact{Term: logic.Term{Name: "human", Arguments: []string{"plato"}}, Confidence: 1.0})
	b.AddFact(logic.Fact{Term: logic.Term{Name: "city", Arguments: []string{"athens"}}, Confidence: 1.0})

	matches := b.MatchFacts(logic.Term{Name: "human", Arguments: []string{"socrates"}})
	if len(matches) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(matches))
	}

	if b.ContainsTerm(logic.Term{Name: "human", Arguments: []string{"aristotle"}}) {
		t.Error("Expected no match for unknown argument")
	}
}

func TestRulesSortedByID(t *testing.T) {
	b := New(quietLogger())

	b.SeedRule(logic.Rule{ID: "z_rule", Premises: []logic.Term{{Name: "a"}}, Conclusions: []logic.Term{{Name: "b"}}, Confidence: 1.0})
	b.SeedRule(logic.Rule{ID: "a_rule", Premises: []logic.Term{{Name: "c"}}, Conclusions: []logic.Term{{Name: "d"}}, Confidence: 1.0})

	rules := b.Rules()
	if rules[0].ID != "a_rule" || rules[1].ID != "z_rule" {
		t.Errorf("Expected rules sorted by ID, got %s then %s", rules[0].ID, rules[1].ID)
	}
}

func TestReplace(t *testing.T) {
	b := New(quietLogger())
	b.AddFact(logic.Fact{Term: logic.Term{Name: "old"}, Confidence: 1.0})

	b.Replace(
		[]logic.Fact{{ID: "f1", Term: logic.Term{Name: "human", Arguments: []string{"socrates"}}, Confidence: 1.0}},
		[]logic.Rule{{ID: "r1", Premises: []logic.Term{{Name: "a"}}, Conclusions: []logic.Term{{Name: "b"}}, Confidence: 1.0}},
	)

	facts, rules := b.Counts()
	if facts != 1 || rules != 1 {
		t.Fatalf("Expected 1 fact and 1 rule, got %d and %d", facts, rules)
	}
	if !b.ContainsTerm(logic.Term{Name: "human", Arguments: []string{"socrates"}}) {
		t.Error("Expected predicate index rebuilt after Replace")
	}
}

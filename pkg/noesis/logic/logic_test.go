package logic

import (
	"testing"
)

func TestTermMatches(t *testing.T) {
	a := Term{Name: "human", Arguments: []string{"socrates"}}
	b := Term{Name: "human", Arguments: []string{"socrates"}}

	if !a.Matches(b) {
		t.Error("Expected identical terms to match")
	}

	if a.Matches(Term{Name: "human", Arguments: []string{"plato"}}) {
		t.Error("Expected different arguments not to match")
	}

	if a.Matches(Term{Name: "mortal", Arguments: []string{"socrates"}}) {
		t.Error("Expected different names not to match")
	}

	if a.Matches(Term{Name: "human", Arguments: []string{"socrates"}, Negated: true}) {
		t.Error("Expected opposite negation not to match")
	}

	if a.Matches(Term{Name: "human", Arguments: []string{"socrates", "athens"}}) {
		t.Error("Expected different arity not to match")
	}
}

func TestTermMatchesIsLiteral(t *testing.T) {
	// "X" is not a variable: it only matches the literal string "X".
	placeholder := Term{Name: "human", Arguments: []string{"X"}}
	ground := Term{Name: "human", Arguments: []string{"socrates"}}

	if placeholder.Matches(ground) {
		t.Error("Expected placeholder argument not to match a ground term")
	}
	if !placeholder.Matches(Term{Name: "human", Arguments: []string{"X"}}) {
		t.Error("Expected literal X to match literal X")
	}
}

func TestTermString(t *testing.T) {
	tm := Term{Name: "human", Arguments: []string{"socrates"}, Negated: true}
	if got := tm.String(); got != "¬human(socrates)" {
		t.Errorf("Expected ¬human(socrates), got %s", got)
	}

	bare := Term{Name: "raining"}
	if got := bare.String(); got != "raining" {
		t.Errorf("Expected raining, got %s", got)
	}
}

func TestTermNegate(t *testing.T) {
	tm := Term{Name: "human", Arguments: []string{"socrates"}}
	neg := tm.Negate()

	if !neg.Negated {
		t.Error("Expected negated copy")
	}
	if tm.Negated {
		t.Error("Expected original unchanged")
	}
	if neg.Key() != tm.Key() {
		t.Error("Expected Key to ignore negation")
	}
}

func TestRuleValidate(t *testing.T) {
	valid := Rule{
		ID:          "r1",
		Kind:        KindImplication,
		Premises:    []Term{{Name: "human", Arguments: []string{"socrates"}}},
		Conclusions: []Term{{Name: "mortal", Arguments: []string{"socrates"}}},
		Confidence:  1.0,
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected valid rule, got %v", err)
	}

	noPremises := valid
	noPremises.Premises = nil
	if err := noPremises.Validate(); err == nil {
		t.Error("Expected rejection for empty premises")
	}

	badConf := valid
	badConf.Confidence = 1.5
	if err := badConf.Validate(); err == nil {
		t.Error("Expected rejection for out-of-range confidence")
	}

	circular := valid
	circular.Conclusions = []Term{{Name: "human", Arguments: []string{"plato"}}}
	if err := circular.Validate(); err == nil {
		t.Error("Expected rejection for premise predicate reused in conclusions")
	}
}

func TestIDGenerator(t *testing.T) {
	g := NewIDGenerator()
	a := g.Next()
	b := g.Next()

	if a == b {
		t.Error("Expected distinct IDs")
	}
	if len(a) != 26 {
		t.Errorf("Expected 26-char ULID, got %d chars", len(a))
	}
}

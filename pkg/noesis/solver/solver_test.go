package solver

import (
	"bytes"
	"context"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/cognicore/noesis/pkg/noesis/logic"
)

func newSolver(t *testing.T) *Solver {
	t.Helper()
	s, err := New(log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func fact(name string, negated bool, args ...string) logic.Fact {
	return logic.Fact{
		ID:         name,
		Term:       logic.Term{Name: name, Arguments: args, Negated: negated},
		Confidence: 1.0,
		Source:     "test",
	}
}

func TestRefuteCleanBase(t *testing.T) {
	s := newSolver(t)

	contradictions, warnings, err := s.Refute(context.Background(),
		[]logic.Fact{fact("human", false, "socrates")}, nil)
	if err != nil {
		t.Fatalf("Refute: %v", err)
	}
	if len(contradictions) != 0 {
		t.Errorf("Expected no contradictions, got %d", len(contradictions))
	}
	if len(warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", warnings)
	}
}

func TestRefuteDirectContradiction(t *testing.T) {
	s := newSolver(t)

	contradictions, _, err := s.Refute(context.Background(), []logic.Fact{
		fact("human", false, "socrates"),
		fact("human", true, "socrates"),
	}, nil)
	if err != nil {
		t.Fatalf("Refute: %v", err)
	}
	if len(contradictions) != 1 {
		t.Fatalf("Expected 1 contradiction, got %d", len(contradictions))
	}
	if !strings.Contains(contradictions[0].Description, "human(socrates)") {
		t.Errorf("Expected the term named in the description, got %q", contradictions[0].Description)
	}
}

func TestRefuteRuleImpliedContradiction(t *testing.T) {
	s := newSolver(t)

	// penguin(pingu) and penguin(pingu) -> ¬flies(pingu), plus the
	// asserted flies(pingu): only derivable through the rule.
	facts := []logic.Fact{
		fact("penguin", false, "pingu"),
		fact("flies", false, "pingu"),
	}
	rules := []logic.Rule{{
		ID:          "penguins_dont_fly",
		Kind:        logic.KindImplication,
		Premises:    []logic.Term{{Name: "penguin", Arguments: []string{"pingu"}}},
		Conclusions: []logic.Term{{Name: "flies", Arguments: []string{"pingu"}, Negated: true}},
		Confidence:  1.0,
	}}

	contradictions, _, err := s.Refute(context.Background(), facts, rules)
	if err != nil {
		t.Fatalf("Refute: %v", err)
	}
	if len(contradictions) != 1 {
		t.Fatalf("Expected the rule-implied contradiction, got %d", len(contradictions))
	}
}

func TestProveThroughRuleChain(t *testing.T) {
	s := newSolver(t)

	facts := []logic.Fact{fact("human", false, "socrates")}
	rules := []logic.Rule{{
		ID:          "humans_are_mortal",
		Kind:        logic.KindImplication,
		Premises:    []logic.Term{{Name: "human", Arguments: []string{"socrates"}}},
		Conclusions: []logic.Term{{Name: "mortal", Arguments: []string{"socrates"}}},
		Confidence:  1.0,
	}}

	proved, detail, err := s.Prove(context.Background(),
		logic.Term{Name: "mortal", Arguments: []string{"socrates"}}, facts, rules)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if !proved {
		t.Fatal("Expected the query to be derivable through the rule")
	}
	if !strings.Contains(detail, "mortal(socrates)") {
		t.Errorf("Unexpected detail: %q", detail)
	}
}

func TestProveUnderivable(t *testing.T) {
	s := newSolver(t)

	proved, _, err := s.Prove(context.Background(),
		logic.Term{Name: "immortal", Arguments: []string{"socrates"}},
		[]logic.Fact{fact("human", false, "socrates")}, nil)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if proved {
		t.Error("Expected an underivable query to fail")
	}
}

func TestProveCancelled(t *testing.T) {
	s := newSolver(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := s.Prove(ctx, logic.Term{Name: "p"}, nil, nil); err == nil {
		t.Error("Expected an error under a cancelled context")
	}
}

func TestWarnLogsAndReturnsMessage(t *testing.T) {
	var buf bytes.Buffer
	s, err := New(log.New(&buf, "", 0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	warnings := s.warn("solver query failed: %v", "boom")
	if len(warnings) != 1 || warnings[0] != "solver query failed: boom" {
		t.Fatalf("Unexpected warnings: %v", warnings)
	}
	if !strings.Contains(buf.String(), "warning: solver query failed: boom") {
		t.Errorf("Expected warning in log output, got %q", buf.String())
	}
}

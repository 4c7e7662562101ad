package ingest

import (
	"strings"
	"testing"
)

func TestFromTextIsA(t *testing.T) {
	e := NewExtractor("test")

	facts := e.FromText("Socrates is a human.")
	if len(facts) != 1 {
		t.Fatalf("Expected 1 fact, got %d", len(facts))
	}

	f := facts[0]
	if f.Term.Name != "is_a" {
		t.Errorf("Expected is_a, got %s", f.Term.Name)
	}
	if f.Term.Arguments[0] != "socrates" || f.Term.Arguments[1] != "human" {
		t.Errorf("Unexpected arguments: %v", f.Term.Arguments)
	}
	if f.Source != "test" {
		t.Errorf("Expected provenance test, got %s", f.Source)
	}
	if f.Confidence != 0.6 {
		t.Errorf("Expected extraction confidence 0.6, got %f", f.Confidence)
	}
}

func TestFromTextNegation(t *testing.T) {
	e := NewExtractor("")

	facts := e.FromText("Water is not dry.")
	if len(facts) != 1 {
		t.Fatalf("Expected 1 fact, got %d", len(facts))
	}
	if !facts[0].Term.Negated {
		t.Error("Expected negated fact")
	}
}

func TestFromTextHas(t *testing.T) {
	e := NewExtractor("")

	facts := e.FromText("A dog has a tail.")
	if len(facts) != 1 {
		t.Fatalf("Expected 1 fact, got %d", len(facts))
	}
	if facts[0].Term.Name != "has" {
		t.Errorf("Expected has, got %s", facts[0].Term.Name)
	}
	if facts[0].Term.Arguments[0] != "dog" || facts[0].Term.Arguments[1] != "tail" {
		t.Errorf("Unexpected arguments: %v", facts[0].Term.Arguments)
	}
}

func TestFromTextMultipleSentences(t *testing.T) {
	e := NewExtractor("")

	facts := e.FromText("Socrates is a human. Plato is a human. The weather was nice.")
	if len(facts) != 2 {
		t.Errorf("Expected 2 facts, got %d", len(facts))
	}
}

func TestFromTextNoPattern(t *testing.T) {
	e := NewExtractor("")

	if facts := e.FromText("The quick brown fox jumped."); len(facts) != 0 {
		t.Errorf("Expected no facts, got %d", len(facts))
	}
}

func TestFromHTML(t *testing.T) {
	e := NewExtractor("")

	page := `<html><head><style>body { color: red }</style></head>
<body><p>Socrates is a human.</p><script>var x = 1;</script></body></html>`

	facts, err := e.FromHTML(strings.NewReader(page))
	if err != nil {
		t.Fatalf("FromHTML: %v", err)
	}
	if len(facts) != 1 {
		t.Fatalf("Expected 1 fact, got %d", len(facts))
	}
	if facts[0].Term.Name != "is_a" {
		t.Errorf("Expected is_a, got %s", facts[0].Term.Name)
	}
}

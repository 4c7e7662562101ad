// Package maintenance holds offline knowledge-base upkeep: exporting
// the base to the text knowledge format and pruning stale derivations.
package maintenance

import (
	"context"
	"fmt"
	"strings"

	"github.com/cognicore/noesis/pkg/noesis/kb"
	"github.com/cognicore/noesis/pkg/noesis/logic"
)

// Writer persists exported knowledge to a destination (file, DB, etc.).
type Writer interface {
	WriteKnowledge(ctx context.Context, content string) error
}

// Exporter renders the knowledge base in the text knowledge format:
// one fact or rule per line, confidence in a trailing bracket. The
// output parses back through logic.ReadKnowledge.
type Exporter struct {
	Writer Writer
}

func (e *Exporter) Export(ctx context.Context, base *kb.Base) error {
	if e.Writer == nil {
		return fmt.Errorf("exporter: nil writer")
	}

	var b strings.Builder
	b.WriteString("# facts\n")
	for _, f := range base.Facts() {
		if f.Derived {
			continue
		}
		fmt.Fprintf(&b, "%s [%.2f]\n", renderTerm(f.Term), f.Confidence)
	}

	b.WriteString("\n# rules\n")
	for _, r := range base.Rules() {
		connective := "->"
		if r.Kind == logic.KindEquivalence {
			connective = "<->"
		}
		fmt.Fprintf(&b, "%s %s %s [%.2f]\n",
			renderTerms(r.Premises), connective, renderTerms(r.Conclusions), r.Confidence)
	}

	return e.Writer.WriteKnowledge(ctx, b.String())
}

// renderTerm uses "!" for negation so the line stays ASCII and
// round-trips through the parser.
func renderTerm(t logic.Term) string {
	var b strings.Builder
	if t.Negated {
		b.WriteString("!")
	}
	b.WriteString(t.Name)
	if len(t.Arguments) > 0 {
		b.WriteString("(")
		b.WriteString(strings.Join(t.Arguments, ", "))
		b.WriteString(")")
	}
	return b.String()
}

func renderTerms(terms []logic.Term) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = renderTerm(t)
	}
	return strings.Join(parts, " & ")
}

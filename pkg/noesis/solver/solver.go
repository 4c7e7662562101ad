// Package solver encodes the knowledge base as a propositional Prolog
// program and uses an embedded interpreter to find rule-implied
// contradictions and to prove queries the chaining strategies cannot
// reach. It is the optional capability behind constraint solving; the
// engine runs without it.
package solver

import (
	"context"
	"fmt"
	"hash/fnv"
	"log"
	"strings"

	"github.com/ichiban/prolog"

	"github.com/cognicore/noesis/pkg/noesis/internalerr"
	"github.com/cognicore/noesis/pkg/noesis/logic"
)

// Solver wraps a pure-Go Prolog interpreter. Each call builds a fresh
// interpreter so no state leaks between checks.
type Solver struct {
	logger *log.Logger
}

// New probes the interpreter once and returns a Solver. An error means
// the capability is unavailable and the caller should fall back to the
// basic consistency check.
func New(logger *log.Logger) (*Solver, error) {
	if logger == nil {
		logger = log.Default()
	}
	p := prolog.New(nil, nil)
	if err := p.Exec(`probe(ok).`); err != nil {
		return nil, fmt.Errorf("%w: interpreter probe: %v", internalerr.ErrSolverUnavailable, err)
	}
	return &Solver{logger: logger}, nil
}

// program encodes facts and implication rules as holds/1 and neg/1
// clauses over proposition atoms. Equivalence and constraint rules are
// not encoded, matching the scope of the original constraint pass.
type program struct {
	text  string
	names map[string]string // proposition atom → term key
}

func encode(facts []logic.Fact, rules []logic.Rule) program {
	var b strings.Builder
	names := make(map[string]string)

	b.WriteString(":- dynamic(holds/1).\n")
	b.WriteString(":- dynamic(neg/1).\n")

	prop := func(t logic.Term) string {
		atom := propAtom(t)
		names[atom] = t.Key()
		return atom
	}

	for _, f := range facts {
		if f.Term.Negated {
			fmt.Fprintf(&b, "neg(%s).\n", prop(f.Term))
		} else {
			fmt.Fprintf(&b, "holds(%s).\n", prop(f.Term))
		}
	}

	for _, r := range rules {
		if r.Kind != logic.KindImplication {
			continue
		}
		body := make([]string, len(r.Premises))
		for i, p := range r.Premises {
			if p.Negated {
				body[i] = fmt.Sprintf("neg(%s)", prop(p))
			} else {
				body[i] = fmt.Sprintf("holds(%s)", prop(p))
			}
		}
		for _, c := range r.Conclusions {
			head := fmt.Sprintf("holds(%s)", prop(c))
			if c.Negated {
				head = fmt.Sprintf("neg(%s)", prop(c))
			}
			fmt.Fprintf(&b, "%s :- %s.\n", head, strings.Join(body, ", "))
		}
	}

	return program{text: b.String(), names: names}
}

// propAtom maps a term's name+arguments to a stable Prolog atom.
// Negation is deliberately excluded so a proposition and its negation
// share an atom.
func propAtom(t logic.Term) string {
	h := fnv.New64a()
	h.Write([]byte(t.Key()))
	return fmt.Sprintf("p%x", h.Sum64())
}

// Refute searches for a proposition that is both derivable and negated.
// Found contradictions include rule-implied ones the pairwise fact scan
// cannot see. A solver failure is reported as a warning, not as an
// inconsistency.
func (s *Solver) Refute(ctx context.Context, facts []logic.Fact, rules []logic.Rule) ([]logic.Contradiction, []string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	prog := encode(facts, rules)
	p := prolog.New(nil, nil)
	if err := p.Exec(prog.text); err != nil {
		return nil, s.warn("solver could not load program: %v", err), nil
	}

	sols, err := p.Query(`holds(X), neg(X).`)
	if err != nil {
		return nil, s.warn("solver query failed: %v", err), nil
	}
	defer sols.Close()

	var contradictions []logic.Contradiction
	seen := make(map[string]struct{})
	for sols.Next() {
		var row struct{ X string }
		if err := sols.Scan(&row); err != nil {
			return contradictions, s.warn("solver scan failed: %v", err), nil
		}
		if _, dup := seen[row.X]; dup {
			continue
		}
		seen[row.X] = struct{}{}
		contradictions = append(contradictions, logic.Contradiction{
			Kind:        "solver_contradiction",
			Description: fmt.Sprintf("proposition %s is both derivable and negated", prog.names[row.X]),
		})
	}
	if err := sols.Err(); err != nil {
		return contradictions, s.warn("solver enumeration failed: %v", err), nil
	}
	return contradictions, nil, nil
}

// warn logs a downgraded solver failure and returns it as a warning
// slice for the caller's report.
func (s *Solver) warn(format string, args ...any) []string {
	msg := fmt.Sprintf(format, args...)
	s.logger.Printf("warning: %s", msg)
	return []string{msg}
}

// Prove reports whether the query proposition is derivable from the
// encoded facts and rules.
func (s *Solver) Prove(ctx context.Context, query logic.Term, facts []logic.Fact, rules []logic.Rule) (bool, string, error) {
	if err := ctx.Err(); err != nil {
		return false, "", err
	}

	prog := encode(facts, rules)
	p := prolog.New(nil, nil)
	if err := p.Exec(prog.text); err != nil {
		return false, "", fmt.Errorf("load program: %w", err)
	}

	goal := fmt.Sprintf("holds(%s).", propAtom(query))
	if query.Negated {
		goal = fmt.Sprintf("neg(%s).", propAtom(query))
	}

	sols, err := p.Query(goal)
	if err != nil {
		return false, "", fmt.Errorf("query: %w", err)
	}
	defer sols.Close()

	if sols.Next() {
		return true, fmt.Sprintf("derived %s", query.Key()), nil
	}
	if err := sols.Err(); err != nil {
		return false, "", fmt.Errorf("enumerate: %w", err)
	}
	return false, "", nil
}

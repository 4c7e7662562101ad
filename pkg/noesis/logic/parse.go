package logic

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cognicore/noesis/pkg/noesis/internalerr"
)

// ParseTerm parses predicate notation into a Term.
//
// The convention is naive: text before "(" is the predicate name,
// comma-separated text inside the parentheses is the argument list. A
// string without parentheses is a bare predicate with no arguments.
// A leading "!" or "¬" negates the term.
func ParseTerm(s string) Term {
	s = strings.TrimSpace(s)

	var negated bool
	for {
		if rest, ok := strings.CutPrefix(s, "!"); ok {
			negated = !negated
			s = strings.TrimSpace(rest)
			continue
		}
		if rest, ok := strings.CutPrefix(s, "¬"); ok {
			negated = !negated
			s = strings.TrimSpace(rest)
			continue
		}
		break
	}

	open := strings.Index(s, "(")
	if open < 0 {
		return Term{Name: s, Negated: negated}
	}

	name := strings.TrimSpace(s[:open])
	inner := s[open+1:]
	if close := strings.LastIndex(inner, ")"); close >= 0 {
		inner = inner[:close]
	}

	var args []string
	for _, a := range strings.Split(inner, ",") {
		if a = strings.TrimSpace(a); a != "" {
			args = append(args, a)
		}
	}
	return Term{Name: name, Arguments: args, Negated: negated}
}

// ParseRuleLine parses one line of the rule file format:
//
//	human(X) & alive(X) -> mortal(X) [0.9]
//	day(X) <-> !night(X)
//
// Premises are joined with "&", "->" introduces the conclusions ("<->"
// makes the rule an equivalence), and an optional trailing "[conf]"
// sets the confidence (default 1.0).
func ParseRuleLine(line string) (premises, conclusions []Term, kind RuleKind, confidence float64, err error) {
	confidence = 1.0
	line, confidence, err = cutConfidence(line, confidence)
	if err != nil {
		return nil, nil, "", 0, err
	}

	kind = KindImplication
	lhs, rhs, found := strings.Cut(line, "<->")
	if found {
		kind = KindEquivalence
	} else {
		lhs, rhs, found = strings.Cut(line, "->")
		if !found {
			return nil, nil, "", 0, fmt.Errorf("%w: no -> in rule %q", internalerr.ErrInvalidInput, line)
		}
	}

	for _, part := range strings.Split(lhs, "&") {
		if part = strings.TrimSpace(part); part != "" {
			premises = append(premises, ParseTerm(part))
		}
	}
	for _, part := range strings.Split(rhs, "&") {
		if part = strings.TrimSpace(part); part != "" {
			conclusions = append(conclusions, ParseTerm(part))
		}
	}
	if len(premises) == 0 || len(conclusions) == 0 {
		return nil, nil, "", 0, fmt.Errorf("%w: rule %q has an empty side", internalerr.ErrInvalidInput, line)
	}
	return premises, conclusions, kind, confidence, nil
}

// ParseFactLine parses one line of the fact file format:
//
//	human(socrates) [1.0]
//	!flies(penguin)
func ParseFactLine(line string) (Term, float64, error) {
	confidence := 1.0
	line, confidence, err := cutConfidence(line, confidence)
	if err != nil {
		return Term{}, 0, err
	}
	t := ParseTerm(line)
	if t.Name == "" {
		return Term{}, 0, fmt.Errorf("%w: empty fact %q", internalerr.ErrInvalidInput, line)
	}
	return t, confidence, nil
}

// cutConfidence strips an optional trailing "[0.9]" annotation.
func cutConfidence(line string, def float64) (string, float64, error) {
	line = strings.TrimSpace(line)
	if !strings.HasSuffix(line, "]") {
		return line, def, nil
	}
	open := strings.LastIndex(line, "[")
	if open < 0 {
		return line, def, nil
	}
	raw := strings.TrimSpace(line[open+1 : len(line)-1])
	conf, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", 0, fmt.Errorf("%w: bad confidence %q: %v", internalerr.ErrInvalidInput, raw, err)
	}
	if conf < 0.0 || conf > 1.0 {
		return "", 0, fmt.Errorf("%w: confidence %.3f out of range", internalerr.ErrInvalidInput, conf)
	}
	return strings.TrimSpace(line[:open]), conf, nil
}

// ParsedEntry is one line of a knowledge file: either a fact or a rule.
type ParsedEntry struct {
	IsRule      bool
	Term        Term
	Premises    []Term
	Conclusions []Term
	Kind        RuleKind
	Confidence  float64
}

// ReadKnowledge reads a knowledge file mixing facts and rules, one per
// line. Blank lines and "#" comments are skipped. Lines containing "->"
// are rules, everything else is a fact.
func ReadKnowledge(r io.Reader) ([]ParsedEntry, error) {
	var entries []ParsedEntry
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.Contains(line, "->") {
			premises, conclusions, kind, conf, err := ParseRuleLine(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			entries = append(entries, ParsedEntry{
				IsRule:      true,
				Premises:    premises,
				Conclusions: conclusions,
				Kind:        kind,
				Confidence:  conf,
			})
			continue
		}

		term, conf, err := ParseFactLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		entries = append(entries, ParsedEntry{Term: term, Confidence: conf})
	}
	return entries, scanner.Err()
}

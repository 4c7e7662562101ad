// Package filestore persists the knowledge base as two flat JSON files,
// rules.json and facts.json, each a mapping from id to record.
//
// There is no schema versioning: loading assumes the current record
// shape, so a format change silently breaks old saves.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/cognicore/noesis/pkg/noesis/logic"
	"github.com/cognicore/noesis/pkg/noesis/store"
)

const (
	factsFile = "facts.json"
	rulesFile = "rules.json"
)

// Store writes the knowledge base under a single directory.
type Store struct {
	dir string
}

var _ store.Store = (*Store)(nil)

// Open creates the data directory if needed and returns a Store.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Close implements store.Store. File handles are not held open.
func (s *Store) Close() error { return nil }

// factRecord is the on-disk shape of a fact, term fields flattened.
type factRecord struct {
	Name        string    `json:"name"`
	Arguments   []string  `json:"arguments"`
	Negated     bool      `json:"negated"`
	Confidence  float64   `json:"confidence"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
	Derived     bool      `json:"derived"`
	DerivedFrom []string  `json:"derived_from,omitempty"`
}

type termRecord struct {
	Name      string   `json:"name"`
	Arguments []string `json:"arguments"`
	Negated   bool     `json:"negated"`
}

type ruleRecord struct {
	Kind        string            `json:"kind"`
	Premises    []termRecord      `json:"premises"`
	Conclusions []termRecord      `json:"conclusions"`
	Confidence  float64           `json:"confidence"`
	Priority    int               `json:"priority"`
	Source      string            `json:"source"`
	CreatedAt   time.Time         `json:"created_at"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// SaveSnapshot writes all facts and rules, replacing both files.
func (s *Store) SaveSnapshot(ctx context.Context, facts []logic.Fact, rules []logic.Rule) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	factMap := make(map[string]factRecord, len(facts))
	for _, f := range facts {
		factMap[f.ID] = toFactRecord(f)
	}
	if err := writeJSON(filepath.Join(s.dir, factsFile), factMap); err != nil {
		return fmt.Errorf("save facts: %w", err)
	}

	ruleMap := make(map[string]ruleRecord, len(rules))
	for _, r := range rules {
		ruleMap[r.ID] = toRuleRecord(r)
	}
	if err := writeJSON(filepath.Join(s.dir, rulesFile), ruleMap); err != nil {
		return fmt.Errorf("save rules: %w", err)
	}
	return nil
}

// LoadSnapshot reads both files. Missing files yield an empty base, not
// an error.
func (s *Store) LoadSnapshot(ctx context.Context) ([]logic.Fact, []logic.Rule, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	factMap, err := readFacts(filepath.Join(s.dir, factsFile))
	if err != nil {
		return nil, nil, fmt.Errorf("load facts: %w", err)
	}
	facts := make([]logic.Fact, 0, len(factMap))
	for id, rec := range factMap {
		facts = append(facts, fromFactRecord(id, rec))
	}

	var ruleMap map[string]ruleRecord
	if err := readJSON(filepath.Join(s.dir, rulesFile), &ruleMap); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("load rules: %w", err)
		}
	}
	rules := make([]logic.Rule, 0, len(ruleMap))
	for id, rec := range ruleMap {
		rules = append(rules, fromRuleRecord(id, rec))
	}
	return facts, rules, nil
}

// UpsertFact reconciles one fact into facts.json: an existing record
// with the same term is overwritten only when the new confidence is
// higher; an unseen term is appended.
func (s *Store) UpsertFact(ctx context.Context, f logic.Fact) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := filepath.Join(s.dir, factsFile)
	factMap, err := readFacts(path)
	if err != nil {
		return fmt.Errorf("upsert fact: %w", err)
	}
	if factMap == nil {
		factMap = make(map[string]factRecord)
	}

	for id, rec := range factMap {
		if rec.Name == f.Term.Name && rec.Negated == f.Term.Negated && equalArgs(rec.Arguments, f.Term.Arguments) {
			if f.Confidence > rec.Confidence {
				factMap[id] = toFactRecord(f)
			}
			return writeJSON(path, factMap)
		}
	}

	id := f.ID
	if id == "" {
		return fmt.Errorf("upsert fact: fact has no id")
	}
	factMap[id] = toFactRecord(f)
	return writeJSON(path, factMap)
}

func readFacts(path string) (map[string]factRecord, error) {
	var factMap map[string]factRecord
	if err := readJSON(path, &factMap); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return factMap, nil
}

func toFactRecord(f logic.Fact) factRecord {
	return factRecord{
		Name:        f.Term.Name,
		Arguments:   f.Term.Arguments,
		Negated:     f.Term.Negated,
		Confidence:  f.Confidence,
		Source:      f.Source,
		CreatedAt:   f.CreatedAt,
		Derived:     f.Derived,
		DerivedFrom: f.DerivedFrom,
	}
}

func fromFactRecord(id string, rec factRecord) logic.Fact {
	return logic.Fact{
		ID:          id,
		Term:        logic.Term{Name: rec.Name, Arguments: rec.Arguments, Negated: rec.Negated},
		Confidence:  rec.Confidence,
		Source:      rec.Source,
		CreatedAt:   rec.CreatedAt,
		Derived:     rec.Derived,
		DerivedFrom: rec.DerivedFrom,
	}
}

func toRuleRecord(r logic.Rule) ruleRecord {
	return ruleRecord{
		Kind:        string(r.Kind),
		Premises:    toTermRecords(r.Premises),
		Conclusions: toTermRecords(r.Conclusions),
		Confidence:  r.Confidence,
		Priority:    r.Priority,
		Source:      r.Source,
		CreatedAt:   r.CreatedAt,
		Metadata:    r.Metadata,
	}
}

func fromRuleRecord(id string, rec ruleRecord) logic.Rule {
	return logic.Rule{
		ID:          id,
		Kind:        logic.RuleKind(rec.Kind),
		Premises:    fromTermRecords(rec.Premises),
		Conclusions: fromTermRecords(rec.Conclusions),
		Confidence:  rec.Confidence,
		Priority:    rec.Priority,
		Source:      rec.Source,
		CreatedAt:   rec.CreatedAt,
		Metadata:    rec.Metadata,
	}
}

func toTermRecords(terms []logic.Term) []termRecord {
	out := make([]termRecord, len(terms))
	for i, t := range terms {
		out[i] = termRecord{Name: t.Name, Arguments: t.Arguments, Negated: t.Negated}
	}
	return out
}

func fromTermRecords(recs []termRecord) []logic.Term {
	out := make([]logic.Term, len(recs))
	for i, rec := range recs {
		out[i] = logic.Term{Name: rec.Name, Arguments: rec.Arguments, Negated: rec.Negated}
	}
	return out
}

func equalArgs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

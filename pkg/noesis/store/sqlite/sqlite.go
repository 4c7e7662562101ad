// Package sqlite implements the persistent knowledge store on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/noesis/pkg/noesis/logic"
	"github.com/cognicore/noesis/pkg/noesis/store"
)

// sqliteStore implements store.Store using SQLite.
type sqliteStore struct {
	db *sql.DB
}

// Open opens a SQLite database with WAL mode enabled and initializes
// the schema.
func Open(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS facts (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	arguments TEXT NOT NULL,
	negated INTEGER NOT NULL DEFAULT 0,
	confidence REAL NOT NULL,
	source TEXT,
	created_at TEXT,
	derived INTEGER NOT NULL DEFAULT 0,
	derived_from TEXT
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_facts_term ON facts(name, arguments, negated);

CREATE TABLE IF NOT EXISTS rules (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	premises TEXT NOT NULL,
	conclusions TEXT NOT NULL,
	confidence REAL NOT NULL,
	priority INTEGER NOT NULL DEFAULT 0,
	source TEXT,
	created_at TEXT,
	metadata TEXT
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveSnapshot replaces the stored base with the given facts and rules
// in a single transaction.
func (s *sqliteStore) SaveSnapshot(ctx context.Context, facts []logic.Fact, rules []logic.Rule) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM facts"); err != nil {
		return fmt.Errorf("clear facts: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM rules"); err != nil {
		return fmt.Errorf("clear rules: %w", err)
	}

	for _, f := range facts {
		if err := insertFact(ctx, tx, f); err != nil {
			return fmt.Errorf("insert fact %s: %w", f.ID, err)
		}
	}
	for _, r := range rules {
		if err := insertRule(ctx, tx, r); err != nil {
			return fmt.Errorf("insert rule %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// LoadSnapshot reads all stored facts and rules.
func (s *sqliteStore) LoadSnapshot(ctx context.Context) ([]logic.Fact, []logic.Rule, error) {
	facts, err := s.loadFacts(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load facts: %w", err)
	}
	rules, err := s.loadRules(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load rules: %w", err)
	}
	return facts, rules, nil
}

// UpsertFact inserts the fact, or overwrites the stored row for the
// same term only when the new confidence is higher.
func (s *sqliteStore) UpsertFact(ctx context.Context, f logic.Fact) error {
	args, err := json.Marshal(f.Term.Arguments)
	if err != nil {
		return err
	}
	derivedFrom, err := json.Marshal(f.DerivedFrom)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO facts (id, name, arguments, negated, confidence, source, created_at, derived, derived_from)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(name, arguments, negated) DO UPDATE SET
	confidence = excluded.confidence,
	source = excluded.source,
	created_at = excluded.created_at,
	derived = excluded.derived,
	derived_from = excluded.derived_from
WHERE excluded.confidence > facts.confidence`,
		f.ID, f.Term.Name, string(args), boolToInt(f.Term.Negated),
		f.Confidence, f.Source, f.CreatedAt.UTC().Format(time.RFC3339Nano),
		boolToInt(f.Derived), string(derivedFrom))
	return err
}

func insertFact(ctx context.Context, tx *sql.Tx, f logic.Fact) error {
	args, err := json.Marshal(f.Term.Arguments)
	if err != nil {
		return err
	}
	derivedFrom, err := json.Marshal(f.DerivedFrom)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO facts (id, name, arguments, negated, confidence, source, created_at, derived, derived_from)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.Term.Name, string(args), boolToInt(f.Term.Negated),
		f.Confidence, f.Source, f.CreatedAt.UTC().Format(time.RFC3339Nano),
		boolToInt(f.Derived), string(derivedFrom))
	return err
}

func insertRule(ctx context.Context, tx *sql.Tx, r logic.Rule) error {
	premises, err := json.Marshal(r.Premises)
	if err != nil {
		return err
	}
	conclusions, err := json.Marshal(r.Conclusions)
	if err != nil {
		return err
	}
	metadata, err := json.Marshal(r.Metadata)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO rules (id, kind, premises, conclusions, confidence, priority, source, created_at, metadata)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, string(r.Kind), string(premises), string(conclusions),
		r.Confidence, r.Priority, r.Source, r.CreatedAt.UTC().Format(time.RFC3339Nano), string(metadata))
	return err
}

func (s *sqliteStore) loadFacts(ctx context.Context) ([]logic.Fact, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, arguments, negated, confidence, source, created_at, derived, derived_from
FROM facts`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var facts []logic.Fact
	for rows.Next() {
		var f logic.Fact
		var args, createdAt, derivedFrom string
		var negated, derived int
		if err := rows.Scan(&f.ID, &f.Term.Name, &args, &negated, &f.Confidence,
			&f.Source, &createdAt, &derived, &derivedFrom); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(args), &f.Term.Arguments); err != nil {
			return nil, fmt.Errorf("fact %s arguments: %w", f.ID, err)
		}
		if derivedFrom != "" {
			if err := json.Unmarshal([]byte(derivedFrom), &f.DerivedFrom); err != nil {
				return nil, fmt.Errorf("fact %s derived_from: %w", f.ID, err)
			}
		}
		f.Term.Negated = negated != 0
		f.Derived = derived != 0
		f.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

func (s *sqliteStore) loadRules(ctx context.Context) ([]logic.Rule, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, kind, premises, conclusions, confidence, priority, source, created_at, metadata
FROM rules`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []logic.Rule
	for rows.Next() {
		var r logic.Rule
		var kind, premises, conclusions, createdAt, metadata string
		if err := rows.Scan(&r.ID, &kind, &premises, &conclusions, &r.Confidence,
			&r.Priority, &r.Source, &createdAt, &metadata); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(premises), &r.Premises); err != nil {
			return nil, fmt.Errorf("rule %s premises: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(conclusions), &r.Conclusions); err != nil {
			return nil, fmt.Errorf("rule %s conclusions: %w", r.ID, err)
		}
		if metadata != "" && metadata != "null" {
			if err := json.Unmarshal([]byte(metadata), &r.Metadata); err != nil {
				return nil, fmt.Errorf("rule %s metadata: %w", r.ID, err)
			}
		}
		r.Kind = logic.RuleKind(kind)
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

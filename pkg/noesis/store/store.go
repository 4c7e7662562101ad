// Package store defines the persistence interface for the knowledge
// base and its implementations.
package store

import (
	"context"

	"github.com/cognicore/noesis/pkg/noesis/logic"
)

// Store persists facts and rules between engine runs.
//
// SaveSnapshot/LoadSnapshot move the whole knowledge base at shutdown
// and startup; there is no transactional coupling between an in-memory
// add and the next save, so a crash in between loses the addition.
//
// UpsertFact reconciles a single fact into the persistent store:
// a fact whose term already exists is overwritten in place only when
// the new confidence is higher.
type Store interface {
	SaveSnapshot(ctx context.Context, facts []logic.Fact, rules []logic.Rule) error
	LoadSnapshot(ctx context.Context) (facts []logic.Fact, rules []logic.Rule, err error)
	UpsertFact(ctx context.Context, f logic.Fact) error
	Close() error
}

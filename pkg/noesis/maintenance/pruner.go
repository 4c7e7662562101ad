package maintenance

import (
	"errors"

	"github.com/cognicore/noesis/pkg/noesis/kb"
	"github.com/cognicore/noesis/pkg/noesis/logic"
)

// Pruner sweeps derived facts out of the knowledge base. Derivations
// are cheap to recompute, so pruning them after rule changes keeps the
// base from accumulating conclusions that no longer follow.
type Pruner struct {
	Base *kb.Base

	// MinConfidence keeps derived facts at or above this confidence.
	// Zero prunes every derived fact.
	MinConfidence float64
}

// Result summarizes a pruning run.
type Result struct {
	Scanned int
	Pruned  int
}

// Prune rebuilds the base without the derived facts below the
// threshold. Asserted facts are never touched.
func (p *Pruner) Prune() (Result, error) {
	var res Result
	if p.Base == nil {
		return res, errors.New("pruner: nil base")
	}

	facts := p.Base.Facts()
	kept := make([]logic.Fact, 0, len(facts))
	for _, f := range facts {
		res.Scanned++
		if f.Derived && (p.MinConfidence == 0 || f.Confidence < p.MinConfidence) {
			res.Pruned++
			continue
		}
		kept = append(kept, f)
	}

	if res.Pruned > 0 {
		p.Base.Replace(kept, p.Base.Rules())
	}
	return res, nil
}

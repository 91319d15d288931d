package assembler

import (
	"cmp"
	"math"
	"slices"

	"github.com/alchemy-game-studios/game-planner/pkg/common"
	"github.com/alchemy-game-studios/game-planner/pkg/resolver"
)

const (
	depthPenalty = 0.1
	minDepthKeep = 0.5
)

// merge flattens provider results in descending priority and keeps the first
// occurrence of every id. A later duplicate never replaces the kept framing,
// but its user selection carries over so an explicit pick is still honored.
func merge(results []common.ProviderResult) []common.ContextEntity {
	ordered := slices.Clone(results)
	slices.SortStableFunc(ordered, func(a, b common.ProviderResult) int {
		return cmp.Compare(b.Priority, a.Priority)
	})

	index := make(map[string]int)
	var out []common.ContextEntity
	for _, res := range ordered {
		for _, ce := range res.Entities {
			id := ce.ID()
			if id == "" {
				continue
			}
			if i, ok := index[id]; ok {
				if ce.UserSelected && !out[i].UserSelected {
					out[i].UserSelected = true
					out[i].SelectionOrder = ce.SelectionOrder
				}
				continue
			}
			index[id] = len(out)
			out = append(out, ce)
		}
	}
	return out
}

// score returns matrix[target][nodeType], forced to 1 for user picks, scaled
// by max(0.5, 1 - depth*0.1) and clamped to [0,1].
func score(matrix resolver.RelevanceMatrix, ce common.ContextEntity, target common.NodeType) float64 {
	base := matrix.Lookup(target, ce.Entity.NodeType)
	if ce.UserSelected {
		base = 1.0
	}
	decay := math.Max(minDepthKeep, 1-float64(max(ce.Depth, 0))*depthPenalty)
	return math.Min(1, math.Max(0, base*decay))
}

// rank scores and orders the merged entities, drops those under the
// threshold and truncates to limit. Survivors come first, then the dropped.
func rank(entities []common.ContextEntity, matrix resolver.RelevanceMatrix, target common.NodeType, threshold float64, limit int) ([]common.ContextEntity, []common.ContextEntity) {
	scored := make([]common.ContextEntity, len(entities))
	for i, ce := range entities {
		ce.RelevanceScore = score(matrix, ce, target)
		scored[i] = ce
	}
	slices.SortStableFunc(scored, func(a, b common.ContextEntity) int {
		if c := cmp.Compare(b.RelevanceScore, a.RelevanceScore); c != 0 {
			return c
		}
		return cmp.Compare(b.ProviderPriority, a.ProviderPriority)
	})

	kept := make([]common.ContextEntity, 0, len(scored))
	var dropped []common.ContextEntity
	for _, ce := range scored {
		if ce.RelevanceScore < threshold || (limit > 0 && len(kept) >= limit) {
			dropped = append(dropped, ce)
			continue
		}
		kept = append(kept, ce)
	}
	return kept, dropped
}

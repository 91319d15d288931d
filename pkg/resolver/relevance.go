package resolver

import (
	"cmp"
	"context"
	"math"
	"slices"

	"github.com/alchemy-game-studios/game-planner/pkg/common"
	"github.com/alchemy-game-studios/game-planner/pkg/store"
)

// DefaultBaseRelevance is used for (target, nodeType) pairs the matrix does
// not list.
const DefaultBaseRelevance = 0.5

// RelevanceMatrix maps a generation target to the base relevance of each node
// type as context for it.
type RelevanceMatrix map[common.NodeType]map[common.NodeType]float64

// Lookup returns matrix[target][nodeType], or DefaultBaseRelevance.
func (m RelevanceMatrix) Lookup(target, nodeType common.NodeType) float64 {
	if row, ok := m[target]; ok {
		if v, ok := row[nodeType]; ok {
			return v
		}
	}
	return DefaultBaseRelevance
}

// Clone returns a deep copy.
func (m RelevanceMatrix) Clone() RelevanceMatrix {
	out := make(RelevanceMatrix, len(m))
	for target, row := range m {
		r := make(map[common.NodeType]float64, len(row))
		for k, v := range row {
			r[k] = v
		}
		out[target] = r
	}
	return out
}

func DefaultRelevanceMatrix() RelevanceMatrix {
	productRow := map[common.NodeType]float64{
		common.NodeProduct:    1.0,
		common.NodeAttribute:  0.9,
		common.NodeMechanic:   0.9,
		common.NodeAdaptation: 0.8,
		common.NodeCharacter:  0.7,
		common.NodeItem:       0.7,
		common.NodePlace:      0.6,
		common.NodeEvent:      0.6,
		common.NodeUniverse:   0.6,
		common.NodeNarrative:  0.5,
		common.NodeTag:        0.5,
	}
	adaptationRow := make(map[common.NodeType]float64, len(productRow))
	for k, v := range productRow {
		adaptationRow[k] = v
	}
	adaptationRow[common.NodeAdaptation] = 0.9

	return RelevanceMatrix{
		common.NodeCharacter: {
			common.NodeCharacter: 0.9,
			common.NodePlace:     0.8,
			common.NodeEvent:     0.8,
			common.NodeUniverse:  0.7,
			common.NodeNarrative: 0.7,
			common.NodeItem:      0.6,
			common.NodeTag:       0.6,
			common.NodeProduct:   0.2,
		},
		common.NodePlace: {
			common.NodePlace:     0.9,
			common.NodeUniverse:  0.8,
			common.NodeCharacter: 0.6,
			common.NodeEvent:     0.6,
			common.NodeTag:       0.6,
			common.NodeNarrative: 0.5,
			common.NodeItem:      0.4,
			common.NodeProduct:   0.2,
		},
		common.NodeItem: {
			common.NodeItem:      0.9,
			common.NodeCharacter: 0.7,
			common.NodePlace:     0.7,
			common.NodeUniverse:  0.7,
			common.NodeTag:       0.6,
			common.NodeEvent:     0.5,
			common.NodeNarrative: 0.4,
			common.NodeProduct:   0.2,
		},
		common.NodeEvent: {
			common.NodeEvent:     0.9,
			common.NodeCharacter: 0.8,
			common.NodePlace:     0.8,
			common.NodeNarrative: 0.8,
			common.NodeUniverse:  0.7,
			common.NodeItem:      0.5,
			common.NodeTag:       0.5,
			common.NodeProduct:   0.2,
		},
		common.NodeNarrative: {
			common.NodeNarrative: 0.9,
			common.NodeEvent:     0.9,
			common.NodeCharacter: 0.8,
			common.NodeUniverse:  0.7,
			common.NodePlace:     0.6,
			common.NodeTag:       0.5,
			common.NodeItem:      0.4,
			common.NodeProduct:   0.2,
		},
		common.NodeTag: {
			common.NodeTag:       0.9,
			common.NodeUniverse:  0.7,
			common.NodeCharacter: 0.4,
			common.NodePlace:     0.4,
			common.NodeItem:      0.4,
			common.NodeEvent:     0.3,
			common.NodeNarrative: 0.3,
			common.NodeProduct:   0.1,
		},
		common.NodeUniverse: {
			common.NodeUniverse:  1.0,
			common.NodeTag:       0.7,
			common.NodePlace:     0.6,
			common.NodeNarrative: 0.6,
			common.NodeCharacter: 0.5,
			common.NodeEvent:     0.5,
			common.NodeItem:      0.4,
			common.NodeProduct:   0.2,
		},
		common.NodeProduct:    productRow,
		common.NodeAdaptation: adaptationRow,
		common.NodeAttribute:  productRow,
		common.NodeMechanic:   productRow,
	}
}

// ScoreOptions describe how a candidate was found.
type ScoreOptions struct {
	Depth        int
	UserSelected bool
	SharedTags   int
}

const (
	depthPenalty    = 0.1
	sharedTagBonus  = 0.05
	maxSharedTagAdd = 0.2
)

// RelevanceResolver scores candidates for a generation target. It issues no
// graph queries and keeps no cache.
type RelevanceResolver struct {
	matrix RelevanceMatrix
}

var _ Resolver = (*RelevanceResolver)(nil)

func NewRelevanceResolver(matrix RelevanceMatrix) *RelevanceResolver {
	if matrix == nil {
		matrix = DefaultRelevanceMatrix()
	}
	return &RelevanceResolver{matrix: matrix}
}

func (r *RelevanceResolver) Name() string { return "relevance" }

func (r *RelevanceResolver) ClearCache(context.Context) error { return nil }

func (r *RelevanceResolver) Relevance(_, targetType, generationTarget common.NodeType) float64 {
	return r.matrix.Lookup(generationTarget, targetType)
}

// ScoreEntity returns
//
//	min(1, base × max(0, 1 − depth×0.1) + min(sharedTags×0.05, 0.2))
//
// where base comes from the matrix. User selected entities score 1.
func (r *RelevanceResolver) ScoreEntity(e common.Entity, target common.NodeType, opts ScoreOptions) float64 {
	if opts.UserSelected {
		return 1.0
	}
	base := r.matrix.Lookup(target, e.NodeType)
	decay := math.Max(0, 1-float64(opts.Depth)*depthPenalty)
	bonus := math.Min(float64(max(opts.SharedTags, 0))*sharedTagBonus, maxSharedTagAdd)
	return math.Min(1, base*decay+bonus)
}

// FilterByRelevance scores every candidate, sorts by score descending and
// keeps at most limit. Ties keep name then id order. limit <= 0 keeps all.
func (r *RelevanceResolver) FilterByRelevance(candidates []common.ContextEntity, target common.NodeType, limit int) []common.ContextEntity {
	out := make([]common.ContextEntity, len(candidates))
	for i, c := range candidates {
		c.RelevanceScore = r.ScoreEntity(c.Entity, target, ScoreOptions{
			Depth:        c.Depth,
			UserSelected: c.UserSelected,
			SharedTags:   c.SharedCount,
		})
		out[i] = c
	}
	slices.SortStableFunc(out, func(a, b common.ContextEntity) int {
		if c := cmp.Compare(b.RelevanceScore, a.RelevanceScore); c != 0 {
			return c
		}
		return store.CompareEntities(a.Entity, b.Entity)
	})
	return store.Limit(out, limit)
}

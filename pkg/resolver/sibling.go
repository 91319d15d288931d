package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/alchemy-game-studios/game-planner/pkg/cache"
	"github.com/alchemy-game-studios/game-planner/pkg/common"
	"github.com/alchemy-game-studios/game-planner/pkg/store"
)

// SiblingOptions narrow a sibling query.
type SiblingOptions struct {
	NodeType common.NodeType `json:"nodeType,omitempty"`
	Limit    int             `json:"limit,omitempty"`
}

// SiblingResolver finds entities sharing an immediate container.
type SiblingResolver struct {
	base
}

var _ Resolver = (*SiblingResolver)(nil)

func NewSiblingResolver(graph store.GraphStorage, c cache.Store, ttl time.Duration) *SiblingResolver {
	return &SiblingResolver{base: newBase("sibling", graph, c, ttl)}
}

func (r *SiblingResolver) all(ctx context.Context, id string) ([]common.Entity, error) {
	return cached(ctx, &r.base, "siblings", id, nil, func(ctx context.Context) ([]common.Entity, error) {
		siblings, err := r.graph.Siblings(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve siblings of %s: %w", id, err)
		}
		return siblings, nil
	})
}

// Resolve returns id's siblings, optionally restricted to one node type.
func (r *SiblingResolver) Resolve(ctx context.Context, id string, opts SiblingOptions) ([]common.Entity, error) {
	siblings, err := r.all(ctx, id)
	if err != nil {
		return nil, err
	}
	if opts.NodeType != "" {
		filtered := siblings[:0]
		for _, s := range siblings {
			if s.NodeType == opts.NodeType {
				filtered = append(filtered, s)
			}
		}
		siblings = filtered
	}
	return store.Limit(siblings, opts.Limit), nil
}

// SameTypeSiblings restricts siblings to entity's own node type.
func (r *SiblingResolver) SameTypeSiblings(ctx context.Context, entity common.Entity, limit int) ([]common.Entity, error) {
	return r.Resolve(ctx, entity.ID, SiblingOptions{NodeType: entity.NodeType, Limit: limit})
}

// SiblingCounts returns how many siblings of each node type id has.
func (r *SiblingResolver) SiblingCounts(ctx context.Context, id string) (map[common.NodeType]int, error) {
	siblings, err := r.all(ctx, id)
	if err != nil {
		return nil, err
	}
	counts := make(map[common.NodeType]int)
	for _, s := range siblings {
		counts[s.NodeType]++
	}
	return counts, nil
}

func (r *SiblingResolver) Relevance(_, _, generationTarget common.NodeType) float64 {
	switch generationTarget {
	case common.NodeCharacter, common.NodeItem, common.NodePlace, common.NodeEvent:
		return 0.6
	}
	return 0.3
}

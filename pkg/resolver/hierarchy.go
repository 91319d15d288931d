package resolver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alchemy-game-studios/game-planner/pkg/cache"
	"github.com/alchemy-game-studios/game-planner/pkg/common"
	"github.com/alchemy-game-studios/game-planner/pkg/store"
)

// HierarchyOptions shape a containment path query.
type HierarchyOptions struct {
	MaxDepth int `json:"maxDepth"`
}

// HierarchyResolver answers containment questions: the path from the world
// root down to an entity, direct children, the parent and the universe.
type HierarchyResolver struct {
	base
	maxDepth int
}

var _ Resolver = (*HierarchyResolver)(nil)

func NewHierarchyResolver(graph store.GraphStorage, c cache.Store, ttl time.Duration, maxDepth int) *HierarchyResolver {
	if maxDepth <= 0 {
		maxDepth = DefaultOptions().MaxDepth
	}
	return &HierarchyResolver{base: newBase("hierarchy", graph, c, ttl), maxDepth: maxDepth}
}

// Resolve returns the chain from the outermost container down to and
// including id. The chain is empty when id has no container or is unknown.
func (r *HierarchyResolver) Resolve(ctx context.Context, id string, opts HierarchyOptions) ([]common.Entity, error) {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = r.maxDepth
	}
	return cached(ctx, &r.base, "path", id, opts, func(ctx context.Context) ([]common.Entity, error) {
		path, err := r.graph.ContainmentPath(ctx, id, opts.MaxDepth)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve containment path of %s: %w", id, err)
		}
		return path, nil
	})
}

// Path is Resolve with the configured maximum depth.
func (r *HierarchyResolver) Path(ctx context.Context, id string) ([]common.Entity, error) {
	return r.Resolve(ctx, id, HierarchyOptions{})
}

func (r *HierarchyResolver) Children(ctx context.Context, id string) ([]common.Entity, error) {
	return cached(ctx, &r.base, "children", id, nil, func(ctx context.Context) ([]common.Entity, error) {
		children, err := r.graph.Children(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve children of %s: %w", id, err)
		}
		return children, nil
	})
}

// Parent returns the immediate container, or nil.
func (r *HierarchyResolver) Parent(ctx context.Context, id string) (*common.Entity, error) {
	return cached(ctx, &r.base, "parent", id, nil, func(ctx context.Context) (*common.Entity, error) {
		parent, err := r.graph.Parent(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve parent of %s: %w", id, err)
		}
		return parent, nil
	})
}

// Universe returns the root of id's containment path. An entity outside any
// chain is its own universe only if it is one; otherwise the result is nil.
func (r *HierarchyResolver) Universe(ctx context.Context, id string) (*common.Entity, error) {
	path, err := r.Path(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(path) > 0 {
		root := path[0]
		return &root, nil
	}
	self, err := r.GetEntity(ctx, id)
	if err != nil || self == nil {
		return nil, err
	}
	if self.NodeType == common.NodeUniverse {
		return self, nil
	}
	return nil, nil
}

// GetEntity is a cached point lookup. Unknown ids yield nil without error
// and are not cached.
func (r *HierarchyResolver) GetEntity(ctx context.Context, id string) (*common.Entity, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	e, err := cached(ctx, &r.base, "entity", id, nil, func(ctx context.Context) (common.Entity, error) {
		return r.graph.GetEntity(ctx, id)
	})
	return notFoundAsNil(e, err)
}

// GetEntities fetches several entities, skipping unknown ids and keeping the
// input order.
func (r *HierarchyResolver) GetEntities(ctx context.Context, ids []string) ([]common.Entity, error) {
	ids = store.DedupeStrings(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	return cached(ctx, &r.base, "entities", strings.Join(ids, ","), nil, func(ctx context.Context) ([]common.Entity, error) {
		entities, err := r.graph.GetEntities(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch entities: %w", err)
		}
		return entities, nil
	})
}

func (r *HierarchyResolver) Relevance(_, _, generationTarget common.NodeType) float64 {
	switch generationTarget {
	case common.NodeTag:
		return 0.6
	case common.NodeProduct, common.NodeAdaptation, common.NodeAttribute, common.NodeMechanic:
		return 0.7
	}
	return 0.9
}

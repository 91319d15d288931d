package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/alchemy-game-studios/game-planner/pkg/cache"
	"github.com/alchemy-game-studios/game-planner/pkg/common"
	"github.com/alchemy-game-studios/game-planner/pkg/store"
	"golang.org/x/sync/errgroup"
)

// ProductOptions bound a product context query.
type ProductOptions struct {
	Limit           int `json:"limit,omitempty"`
	AdaptationLimit int `json:"adaptationLimit,omitempty"`
}

// ProductContext is what a product adaptation needs to know about a product.
type ProductContext struct {
	Attributes  []common.Entity `json:"attributes,omitempty"`
	Mechanics   []common.Entity `json:"mechanics,omitempty"`
	Adaptations []common.Entity `json:"adaptations,omitempty"`
}

// ProductResolver reads product attributes, mechanics and the existing
// adaptations of an entity.
type ProductResolver struct {
	base
}

var _ Resolver = (*ProductResolver)(nil)

func NewProductResolver(graph store.GraphStorage, c cache.Store, ttl time.Duration) *ProductResolver {
	return &ProductResolver{base: newBase("product", graph, c, ttl)}
}

// Resolve reads all three lists concurrently. entityID may be empty, in which
// case no adaptations are looked up.
func (r *ProductResolver) Resolve(ctx context.Context, productID, entityID string, opts ProductOptions) (ProductContext, error) {
	var pc ProductContext
	eg, ectx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		attrs, err := r.Attributes(ectx, productID)
		pc.Attributes = store.Limit(attrs, opts.Limit)
		return err
	})
	eg.Go(func() error {
		mechanics, err := r.Mechanics(ectx, productID)
		pc.Mechanics = store.Limit(mechanics, opts.Limit)
		return err
	})
	if entityID != "" {
		eg.Go(func() error {
			adaptations, err := r.Adaptations(ectx, productID, entityID)
			pc.Adaptations = store.Limit(adaptations, opts.AdaptationLimit)
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return ProductContext{}, err
	}
	return pc, nil
}

func (r *ProductResolver) Attributes(ctx context.Context, productID string) ([]common.Entity, error) {
	return cached(ctx, &r.base, "attributes", productID, nil, func(ctx context.Context) ([]common.Entity, error) {
		attrs, err := r.graph.ProductAttributes(ctx, productID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve attributes of %s: %w", productID, err)
		}
		return attrs, nil
	})
}

func (r *ProductResolver) Mechanics(ctx context.Context, productID string) ([]common.Entity, error) {
	return cached(ctx, &r.base, "mechanics", productID, nil, func(ctx context.Context) ([]common.Entity, error) {
		mechanics, err := r.graph.ProductMechanics(ctx, productID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve mechanics of %s: %w", productID, err)
		}
		return mechanics, nil
	})
}

func (r *ProductResolver) Adaptations(ctx context.Context, productID, entityID string) ([]common.Entity, error) {
	return cached(ctx, &r.base, "adaptations", productID+"/"+entityID, nil, func(ctx context.Context) ([]common.Entity, error) {
		adaptations, err := r.graph.Adaptations(ctx, productID, entityID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve adaptations of %s for %s: %w", entityID, productID, err)
		}
		return adaptations, nil
	})
}

func (r *ProductResolver) Relevance(_, _, generationTarget common.NodeType) float64 {
	if IsProductFamily(generationTarget) {
		return 1.0
	}
	return 0
}

// IsProductFamily reports whether t is generated for a product adaptation.
func IsProductFamily(t common.NodeType) bool {
	switch t {
	case common.NodeProduct, common.NodeAdaptation, common.NodeAttribute, common.NodeMechanic:
		return true
	}
	return false
}

package provider

import (
	"context"
	"fmt"

	"github.com/alchemy-game-studios/game-planner/pkg/common"
	"github.com/alchemy-game-studios/game-planner/pkg/resolver"
)

// ProductProvider emits the product being adapted for, its attributes and
// mechanics, and adaptations of the focal entity already made for it.
type ProductProvider struct {
	meta
	set    *resolver.Set
	limits Limits
}

var _ Provider = (*ProductProvider)(nil)

func NewProductProvider(set *resolver.Set, limits Limits) *ProductProvider {
	return &ProductProvider{meta: meta{name: "product", priority: PriorityProduct}, set: set, limits: limits}
}

func (p *ProductProvider) IsRelevant(target common.NodeType) bool {
	return resolver.IsProductFamily(target)
}

func (p *ProductProvider) Gather(ctx context.Context, params Params) (common.ProviderResult, error) {
	product := params.Product
	if product == nil && params.ProductID != "" {
		var err error
		if product, err = p.set.Hierarchy.GetEntity(ctx, params.ProductID); err != nil {
			return common.ProviderResult{}, err
		}
	}
	if product == nil {
		return p.result(nil, "no product supplied"), nil
	}

	pc, err := p.set.Product.Resolve(ctx, product.ID, params.EntityID, resolver.ProductOptions{
		Limit:           p.limits.ProductLimit,
		AdaptationLimit: p.limits.AdaptationLimit,
	})
	if err != nil {
		return common.ProviderResult{}, err
	}

	out := make([]common.ContextEntity, 0, 1+len(pc.Attributes)+len(pc.Mechanics)+len(pc.Adaptations))
	out = append(out, p.annotate(*product, common.RoleProduct, 1))
	out = append(out, p.annotateAll(pc.Attributes, common.RoleProductAttribute, 1)...)
	out = append(out, p.annotateAll(pc.Mechanics, common.RoleProductMechanic, 1)...)
	out = append(out, p.annotateAll(pc.Adaptations, common.RoleExistingAdaptation, 1)...)
	return p.result(out, fmt.Sprintf("%s: %d attributes, %d mechanics, %d existing adaptations",
		product.Name, len(pc.Attributes), len(pc.Mechanics), len(pc.Adaptations))), nil
}

package provider

import (
	"context"
	"fmt"

	"github.com/alchemy-game-studios/game-planner/pkg/common"
	"github.com/alchemy-game-studios/game-planner/pkg/resolver"
)

// SourceProvider emits the focal entity and its own tags.
type SourceProvider struct {
	meta
	set *resolver.Set
}

var _ Provider = (*SourceProvider)(nil)

func NewSourceProvider(set *resolver.Set) *SourceProvider {
	return &SourceProvider{meta: meta{name: "source", priority: PrioritySource}, set: set}
}

func (p *SourceProvider) IsRelevant(common.NodeType) bool { return true }

func (p *SourceProvider) Gather(ctx context.Context, params Params) (common.ProviderResult, error) {
	entity, err := focal(ctx, p.set, params)
	if err != nil {
		return common.ProviderResult{}, err
	}
	if entity == nil {
		return p.result(nil, fmt.Sprintf("entity %s not found", params.EntityID)), nil
	}

	tags, err := p.set.Tag.Resolve(ctx, entity.ID)
	if err != nil {
		return common.ProviderResult{}, err
	}

	out := make([]common.ContextEntity, 0, 1+len(tags))
	out = append(out, p.annotate(*entity, common.RoleSource, 0))
	out = append(out, p.annotateAll(tags, common.RoleSourceTag, 1)...)
	return p.result(out, fmt.Sprintf("%s (%s) with %d tags", entity.Name, entity.NodeType, len(tags))), nil
}

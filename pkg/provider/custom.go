package provider

import (
	"context"
	"fmt"

	"github.com/alchemy-game-studios/game-planner/pkg/common"
	"github.com/alchemy-game-studios/game-planner/pkg/resolver"
	"github.com/alchemy-game-studios/game-planner/pkg/store"
)

// CustomProvider emits everything the caller picked, in selection order.
// Picks always score 1 downstream. Unknown ids are dropped.
type CustomProvider struct {
	meta
	set *resolver.Set
}

var _ Provider = (*CustomProvider)(nil)

func NewCustomProvider(set *resolver.Set) *CustomProvider {
	return &CustomProvider{meta: meta{name: "custom", priority: PriorityCustom}, set: set}
}

func (p *CustomProvider) IsRelevant(common.NodeType) bool { return true }

func (p *CustomProvider) Gather(ctx context.Context, params Params) (common.ProviderResult, error) {
	ids := store.DedupeStrings(append(params.SelectedContext.EntityIDs(), params.AdditionalContextIDs...))
	if len(ids) == 0 {
		return p.result(nil, "no entities selected"), nil
	}
	entities, err := p.set.Hierarchy.GetEntities(ctx, ids)
	if err != nil {
		return common.ProviderResult{}, err
	}

	out := make([]common.ContextEntity, 0, len(entities))
	for i, e := range entities {
		ce := p.annotate(e, common.RoleUserSelected, 0)
		ce.UserSelected = true
		ce.SelectionOrder = i
		out = append(out, ce)
	}
	return p.result(out, fmt.Sprintf("%d of %d selected entities found", len(out), len(ids))), nil
}

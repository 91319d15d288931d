package provider

import (
	"context"
	"fmt"

	"github.com/alchemy-game-studios/game-planner/pkg/common"
	"github.com/alchemy-game-studios/game-planner/pkg/resolver"
	"github.com/alchemy-game-studios/game-planner/pkg/store"
)

// SiblingProvider emits siblings only when the caller selected them.
// Siblings are numerous, so none are included by default.
type SiblingProvider struct {
	meta
	set    *resolver.Set
	limits Limits
}

var _ Provider = (*SiblingProvider)(nil)

func NewSiblingProvider(set *resolver.Set, limits Limits) *SiblingProvider {
	return &SiblingProvider{meta: meta{name: "sibling", priority: PrioritySibling}, set: set, limits: limits}
}

func (p *SiblingProvider) IsRelevant(target common.NodeType) bool {
	switch target {
	case common.NodeCharacter, common.NodeItem, common.NodePlace, common.NodeEvent:
		return true
	}
	return false
}

func (p *SiblingProvider) Gather(ctx context.Context, params Params) (common.ProviderResult, error) {
	selected := params.SelectedContext.EntityIDs()
	if len(selected) == 0 {
		return p.result(nil, "no siblings selected"), nil
	}
	wanted := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		wanted[id] = struct{}{}
	}

	siblings, err := p.set.Sibling.Resolve(ctx, params.EntityID, resolver.SiblingOptions{})
	if err != nil {
		return common.ProviderResult{}, err
	}
	picked := make([]common.Entity, 0, len(selected))
	for _, s := range siblings {
		if _, ok := wanted[s.ID]; ok {
			picked = append(picked, s)
		}
	}
	picked = store.Limit(picked, p.limits.SiblingLimit)

	return p.result(
		p.annotateAll(picked, common.RoleSibling, 1),
		fmt.Sprintf("%d of %d siblings selected", len(picked), len(siblings)),
	), nil
}

package provider

import (
	"context"
	"fmt"

	"github.com/alchemy-game-studios/game-planner/pkg/common"
	"github.com/alchemy-game-studios/game-planner/pkg/resolver"
)

// HierarchyProvider emits the ancestor chain. The outermost ancestor is the
// universe; depth is the distance from the focal entity.
type HierarchyProvider struct {
	meta
	set *resolver.Set
}

var _ Provider = (*HierarchyProvider)(nil)

func NewHierarchyProvider(set *resolver.Set) *HierarchyProvider {
	return &HierarchyProvider{meta: meta{name: "hierarchy", priority: PriorityHierarchy}, set: set}
}

func (p *HierarchyProvider) IsRelevant(common.NodeType) bool { return true }

func (p *HierarchyProvider) Gather(ctx context.Context, params Params) (common.ProviderResult, error) {
	path := params.Path
	if len(path) == 0 {
		var err error
		if path, err = p.set.Hierarchy.Path(ctx, params.EntityID); err != nil {
			return common.ProviderResult{}, err
		}
	}
	if n := len(path); n > 0 && path[n-1].ID == params.EntityID {
		path = path[:n-1]
	}
	if len(path) == 0 {
		return p.result(nil, "no ancestors"), nil
	}

	out := make([]common.ContextEntity, 0, len(path))
	for i, e := range path {
		role := common.RoleAncestor
		if i == 0 {
			role = common.RoleUniverse
		}
		out = append(out, p.annotate(e, role, len(path)-i))
	}
	return p.result(out, fmt.Sprintf("%d ancestors up to %s", len(path), path[0].Name)), nil
}

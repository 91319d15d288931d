package assembler

import (
	"cmp"
	"context"
	"slices"

	"github.com/alchemy-game-studios/game-planner/pkg/common"
)

// LegacyContext is the flat view older consumers read: one structured map per
// entity, grouped by how it relates to the focal entity.
type LegacyContext struct {
	SourceEntity      map[string]any   `json:"sourceEntity"`
	ParentChain       []map[string]any `json:"parentChain"`
	Universe          map[string]any   `json:"universe,omitempty"`
	Siblings          []map[string]any `json:"siblings"`
	AvailableTags     []map[string]any `json:"availableTags"`
	AdditionalContext []map[string]any `json:"additionalContext"`
}

// AssembleEntityContext runs a structured assembly and reshapes it. The parent
// chain starts at the immediate parent.
func (a *Assembler) AssembleEntityContext(ctx context.Context, req Request) (LegacyContext, error) {
	assembled, err := a.Assemble(ctx, req, common.FormatStructured)
	if err != nil {
		return LegacyContext{}, err
	}
	return toLegacy(assembled), nil
}

func toLegacy(assembled common.AssembledContext) LegacyContext {
	out := LegacyContext{
		ParentChain:       []map[string]any{},
		Siblings:          []map[string]any{},
		AvailableTags:     []map[string]any{},
		AdditionalContext: []map[string]any{},
	}

	var ancestors []common.SerializedEntity
	for _, se := range assembled.Entities {
		switch se.ContextRole {
		case common.RoleSource:
			out.SourceEntity = se.Structured
			if se.NodeType == common.NodeUniverse {
				out.Universe = se.Structured
			}
		case common.RoleUniverse:
			out.Universe = se.Structured
		case common.RoleAncestor:
			ancestors = append(ancestors, se)
		case common.RoleSibling:
			out.Siblings = append(out.Siblings, se.Structured)
		case common.RoleSourceTag, common.RoleSelectedTag, common.RoleUniverseTag:
			out.AvailableTags = append(out.AvailableTags, se.Structured)
		default:
			out.AdditionalContext = append(out.AdditionalContext, se.Structured)
		}
	}

	slices.SortStableFunc(ancestors, func(a, b common.SerializedEntity) int {
		return cmp.Compare(a.Depth, b.Depth)
	})
	for _, se := range ancestors {
		out.ParentChain = append(out.ParentChain, se.Structured)
	}
	return out
}

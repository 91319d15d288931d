// Package provider gathers context entities from one source each: the focal
// entity, its ancestors, siblings, tags, event involvement, product and the
// caller's own picks.
package provider

import (
	"context"

	"github.com/alchemy-game-studios/game-planner/pkg/common"
	"github.com/alchemy-game-studios/game-planner/pkg/resolver"
)

// Fixed provider priorities; higher sorts first and wins deduplication.
const (
	PrioritySource      = 100
	PriorityHierarchy   = 90
	PriorityTag         = 80
	PrioritySibling     = 70
	PriorityInvolvement = 60
	PriorityProduct     = 55
	PriorityCustom      = 50
)

// Params is the per-assembly input shared by every provider. Providers must
// treat it as read-only.
type Params struct {
	EntityID             string
	TargetType           common.NodeType
	UniverseID           string
	SelectedContext      common.SelectedContext
	Product              *common.Entity
	ProductID            string
	AdditionalContextIDs []string

	// Path is the focal entity's containment path (root first, focal last)
	// as resolved before fan-out. Empty for entities outside any chain.
	Path []common.Entity
	// Focal is the focal entity itself when it is already known.
	Focal *common.Entity
}

// Limits bound how much each provider emits.
type Limits struct {
	TagLimit           int
	SiblingLimit       int
	EventLimit         int
	CoParticipantLimit int
	LocationLimit      int
	ProductLimit       int
	AdaptationLimit    int
}

func DefaultLimits() Limits {
	return Limits{
		TagLimit:           20,
		SiblingLimit:       25,
		EventLimit:         10,
		CoParticipantLimit: 10,
		LocationLimit:      2,
		ProductLimit:       10,
		AdaptationLimit:    5,
	}
}

// Provider gathers entities from one context source.
type Provider interface {
	Name() string
	Priority() int
	IsRelevant(target common.NodeType) bool
	Gather(ctx context.Context, params Params) (common.ProviderResult, error)
}

// Defaults returns every built-in provider in descending priority.
func Defaults(set *resolver.Set, limits Limits) []Provider {
	return []Provider{
		NewSourceProvider(set),
		NewHierarchyProvider(set),
		NewTagProvider(set, limits),
		NewSiblingProvider(set, limits),
		NewInvolvementProvider(set, limits),
		NewProductProvider(set, limits),
		NewCustomProvider(set),
	}
}

type meta struct {
	name     string
	priority int
}

func (m meta) Name() string  { return m.name }
func (m meta) Priority() int { return m.priority }

func (m meta) annotate(e common.Entity, role common.ContextRole, depth int) common.ContextEntity {
	return common.ContextEntity{
		Entity:           e,
		ContextRole:      role,
		Depth:            depth,
		Provider:         m.name,
		ProviderPriority: m.priority,
	}
}

func (m meta) annotateAll(entities []common.Entity, role common.ContextRole, depth int) []common.ContextEntity {
	out := make([]common.ContextEntity, 0, len(entities))
	for _, e := range entities {
		out = append(out, m.annotate(e, role, depth))
	}
	return out
}

func (m meta) result(entities []common.ContextEntity, summary string) common.ProviderResult {
	if entities == nil {
		entities = []common.ContextEntity{}
	}
	return common.ProviderResult{
		Provider: m.name,
		Priority: m.priority,
		Entities: entities,
		Count:    len(entities),
		Summary:  summary,
	}
}

// focal returns the focal entity, preferring what the assembler already
// resolved. An entity outside any containment chain (an event, a tag) falls
// back to a point lookup. The result is nil when the entity does not exist.
func focal(ctx context.Context, set *resolver.Set, params Params) (*common.Entity, error) {
	if params.Focal != nil && params.Focal.ID == params.EntityID {
		e := *params.Focal
		return &e, nil
	}
	path := params.Path
	if len(path) == 0 {
		var err error
		if path, err = set.Hierarchy.Path(ctx, params.EntityID); err != nil {
			return nil, err
		}
	}
	if n := len(path); n > 0 && path[n-1].ID == params.EntityID {
		e := path[n-1]
		return &e, nil
	}
	return set.Hierarchy.GetEntity(ctx, params.EntityID)
}

// dedupeByID keeps the first entity per id.
func dedupeByID(entities []common.ContextEntity) []common.ContextEntity {
	seen := make(map[string]struct{}, len(entities))
	out := entities[:0]
	for _, e := range entities {
		if _, ok := seen[e.ID()]; ok {
			continue
		}
		seen[e.ID()] = struct{}{}
		out = append(out, e)
	}
	return out
}

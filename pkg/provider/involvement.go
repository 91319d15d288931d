package provider

import (
	"context"
	"fmt"

	"github.com/alchemy-game-studios/game-planner/pkg/common"
	"github.com/alchemy-game-studios/game-planner/pkg/resolver"
	"golang.org/x/sync/errgroup"
)

// InvolvementProvider emits the event neighbourhood. For an event it emits
// participants and locations; otherwise the events the entity takes part in
// and, one hop further, the entities it shares events with.
type InvolvementProvider struct {
	meta
	set    *resolver.Set
	limits Limits
}

var _ Provider = (*InvolvementProvider)(nil)

func NewInvolvementProvider(set *resolver.Set, limits Limits) *InvolvementProvider {
	return &InvolvementProvider{meta: meta{name: "involvement", priority: PriorityInvolvement}, set: set, limits: limits}
}

func (p *InvolvementProvider) IsRelevant(target common.NodeType) bool {
	switch target {
	case common.NodeEvent, common.NodeCharacter, common.NodeNarrative:
		return true
	}
	return false
}

func (p *InvolvementProvider) Gather(ctx context.Context, params Params) (common.ProviderResult, error) {
	entity, err := focal(ctx, p.set, params)
	if err != nil {
		return common.ProviderResult{}, err
	}
	if entity == nil {
		return p.result(nil, "focal entity not found"), nil
	}

	if entity.NodeType == common.NodeEvent {
		inv, err := p.set.Involvement.Resolve(ctx, *entity, resolver.InvolvementOptions{LocationLimit: p.limits.LocationLimit})
		if err != nil {
			return common.ProviderResult{}, err
		}
		out := p.annotateAll(inv.Participants, common.RoleParticipant, 1)
		out = append(out, p.annotateAll(inv.Locations, common.RoleEventLocation, 1)...)
		return p.result(out, fmt.Sprintf("%d participants, %d locations", len(inv.Participants), len(inv.Locations))), nil
	}

	var (
		inv resolver.Involvement
		co  []resolver.SharedEntity
	)
	eg, ectx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		inv, err = p.set.Involvement.Resolve(ectx, *entity, resolver.InvolvementOptions{EventLimit: p.limits.EventLimit})
		return err
	})
	eg.Go(func() error {
		var err error
		co, err = p.set.Involvement.CoParticipants(ectx, entity.ID, 0)
		return err
	})
	if err := eg.Wait(); err != nil {
		return common.ProviderResult{}, err
	}

	candidates := make([]common.ContextEntity, 0, len(co))
	for _, c := range co {
		ce := p.annotate(c.Entity, common.RoleCoParticipant, 2)
		ce.SharedCount = c.SharedCount
		candidates = append(candidates, ce)
	}
	ranked := p.set.Relevance.FilterByRelevance(candidates, params.TargetType, p.limits.CoParticipantLimit)

	out := p.annotateAll(inv.Events, common.RoleRelatedEvent, 1)
	out = append(out, ranked...)
	return p.result(out, fmt.Sprintf("%d events, %d co-participants", len(inv.Events), len(ranked))), nil
}

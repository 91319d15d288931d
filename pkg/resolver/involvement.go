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

// InvolvementOptions bound an involvement query. Zero means unbounded.
type InvolvementOptions struct {
	EventLimit    int `json:"eventLimit,omitempty"`
	LocationLimit int `json:"locationLimit,omitempty"`
}

// Involvement is the event neighbourhood of an entity. For an event,
// Participants and Locations are set; for anything else, Events is.
type Involvement struct {
	Participants []common.Entity `json:"participants,omitempty"`
	Locations    []common.Entity `json:"locations,omitempty"`
	Events       []common.Entity `json:"events,omitempty"`
}

// InvolvementResolver answers event participation questions.
type InvolvementResolver struct {
	base
}

var _ Resolver = (*InvolvementResolver)(nil)

func NewInvolvementResolver(graph store.GraphStorage, c cache.Store, ttl time.Duration) *InvolvementResolver {
	return &InvolvementResolver{base: newBase("involvement", graph, c, ttl)}
}

// Resolve returns participants and locations when entity is an event, or the
// events entity takes part in otherwise.
func (r *InvolvementResolver) Resolve(ctx context.Context, entity common.Entity, opts InvolvementOptions) (Involvement, error) {
	if entity.NodeType != common.NodeEvent {
		events, err := r.Events(ctx, entity.ID)
		if err != nil {
			return Involvement{}, err
		}
		return Involvement{Events: store.Limit(events, opts.EventLimit)}, nil
	}

	var inv Involvement
	eg, ectx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		participants, err := r.Participants(ectx, entity.ID)
		inv.Participants = participants
		return err
	})
	eg.Go(func() error {
		locations, err := r.Locations(ectx, entity.ID)
		inv.Locations = store.Limit(locations, opts.LocationLimit)
		return err
	})
	if err := eg.Wait(); err != nil {
		return Involvement{}, err
	}
	return inv, nil
}

func (r *InvolvementResolver) Participants(ctx context.Context, eventID string) ([]common.Entity, error) {
	return cached(ctx, &r.base, "participants", eventID, nil, func(ctx context.Context) ([]common.Entity, error) {
		participants, err := r.graph.EventParticipants(ctx, eventID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve participants of %s: %w", eventID, err)
		}
		return participants, nil
	})
}

func (r *InvolvementResolver) Locations(ctx context.Context, eventID string) ([]common.Entity, error) {
	return cached(ctx, &r.base, "locations", eventID, nil, func(ctx context.Context) ([]common.Entity, error) {
		locations, err := r.graph.EventLocations(ctx, eventID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve locations of %s: %w", eventID, err)
		}
		return locations, nil
	})
}

func (r *InvolvementResolver) Events(ctx context.Context, id string) ([]common.Entity, error) {
	return cached(ctx, &r.base, "events", id, nil, func(ctx context.Context) ([]common.Entity, error) {
		events, err := r.graph.EventsInvolving(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve events of %s: %w", id, err)
		}
		return events, nil
	})
}

// CoParticipants ranks entities sharing at least one event with id by the
// number of shared events.
func (r *InvolvementResolver) CoParticipants(ctx context.Context, id string, limit int) ([]SharedEntity, error) {
	opts := struct {
		Limit int `json:"limit"`
	}{limit}
	return cached(ctx, &r.base, "coparticipants", id, opts, func(ctx context.Context) ([]SharedEntity, error) {
		events, err := r.Events(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(events) == 0 {
			return nil, nil
		}
		groups, err := fanOut(ctx, entityIDs(events), r.Participants)
		if err != nil {
			return nil, err
		}
		return rankShared(groups, id, "", limit), nil
	})
}

func (r *InvolvementResolver) Relevance(_, _, generationTarget common.NodeType) float64 {
	switch generationTarget {
	case common.NodeEvent, common.NodeNarrative:
		return 0.9
	case common.NodeCharacter:
		return 0.8
	}
	return 0.4
}

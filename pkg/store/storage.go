package store

import (
	"context"
	"errors"

	"github.com/alchemy-game-studios/game-planner/pkg/common"
)

// ErrNotFound is returned by point lookups for ids the graph does not hold.
var ErrNotFound = errors.New("entity not found")

// Relationship types stored on canon edges. Each edge points From -> To.
const (
	EdgeContains       = "CONTAINS"        // container -> contained
	EdgeTagged         = "TAGGED"          // entity -> tag
	EdgeParticipatesIn = "PARTICIPATES_IN" // participant -> event
	EdgeOccursAt       = "OCCURS_AT"       // event -> place
	EdgeHasAttribute   = "HAS_ATTRIBUTE"   // product -> attribute
	EdgeHasMechanic    = "HAS_MECHANIC"    // product -> mechanic
	EdgeAdapts         = "ADAPTS"          // adaptation -> entity
	EdgeForProduct     = "FOR_PRODUCT"     // adaptation -> product
)

// TagUsage is a tag together with the number of entities under a root that
// carry it.
type TagUsage struct {
	Tag   common.Entity `json:"tag"`
	Count int           `json:"count"`
}

// GraphStorage is the read-only traversal contract the context engine
// depends on. It never writes.
//
// Every list is returned in a deterministic order (see SortEntities) so that
// repeated assemblies over the same graph produce the same output.
type GraphStorage interface {
	GetEntity(ctx context.Context, id string) (common.Entity, error)
	// GetEntities skips unknown ids and keeps the order of ids.
	GetEntities(ctx context.Context, ids []string) ([]common.Entity, error)

	// ContainmentPath returns the chain from the outermost container down to
	// and including id. It is empty when id has no container or is unknown.
	ContainmentPath(ctx context.Context, id string, maxDepth int) ([]common.Entity, error)
	Children(ctx context.Context, id string) ([]common.Entity, error)
	Parent(ctx context.Context, id string) (*common.Entity, error)
	// Siblings returns nodes sharing id's immediate container, excluding id.
	Siblings(ctx context.Context, id string) ([]common.Entity, error)

	TagsOf(ctx context.Context, id string) ([]common.Entity, error)
	TaggedWith(ctx context.Context, tagID string, limit int) ([]common.Entity, error)
	// TagUsage counts tag usage over rootID and all of its descendants,
	// most used first.
	TagUsage(ctx context.Context, rootID string, limit int) ([]TagUsage, error)

	EventParticipants(ctx context.Context, eventID string) ([]common.Entity, error)
	EventLocations(ctx context.Context, eventID string) ([]common.Entity, error)
	EventsInvolving(ctx context.Context, id string) ([]common.Entity, error)

	ProductAttributes(ctx context.Context, productID string) ([]common.Entity, error)
	ProductMechanics(ctx context.Context, productID string) ([]common.Entity, error)
	// Adaptations lists adaptations of entityID made for productID.
	Adaptations(ctx context.Context, productID, entityID string) ([]common.Entity, error)
}

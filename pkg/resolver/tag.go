package resolver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alchemy-game-studios/game-planner/pkg/cache"
	"github.com/alchemy-game-studios/game-planner/pkg/common"
	"github.com/alchemy-game-studios/game-planner/pkg/store"
)

// SameTagOptions narrow a shared tag query.
type SameTagOptions struct {
	NodeType common.NodeType `json:"nodeType,omitempty"`
	Limit    int             `json:"limit,omitempty"`
}

// TagResolver answers tagging questions.
type TagResolver struct {
	base
}

var _ Resolver = (*TagResolver)(nil)

func NewTagResolver(graph store.GraphStorage, c cache.Store, ttl time.Duration) *TagResolver {
	return &TagResolver{base: newBase("tag", graph, c, ttl)}
}

// Resolve returns the tags attached directly to id.
func (r *TagResolver) Resolve(ctx context.Context, id string) ([]common.Entity, error) {
	return cached(ctx, &r.base, "tags", id, nil, func(ctx context.Context) ([]common.Entity, error) {
		tags, err := r.graph.TagsOf(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve tags of %s: %w", id, err)
		}
		return tags, nil
	})
}

// UniverseTags returns the tags used anywhere under rootID, most used first.
func (r *TagResolver) UniverseTags(ctx context.Context, rootID string, limit int) ([]store.TagUsage, error) {
	if rootID == "" {
		return nil, nil
	}
	opts := struct {
		Limit int `json:"limit"`
	}{limit}
	return cached(ctx, &r.base, "usage", rootID, opts, func(ctx context.Context) ([]store.TagUsage, error) {
		usage, err := r.graph.TagUsage(ctx, rootID, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve tag usage under %s: %w", rootID, err)
		}
		return usage, nil
	})
}

// SameTagEntities ranks entities by how many of id's tags they also carry.
func (r *TagResolver) SameTagEntities(ctx context.Context, id string, opts SameTagOptions) ([]SharedEntity, error) {
	return cached(ctx, &r.base, "same", id, opts, func(ctx context.Context) ([]SharedEntity, error) {
		tags, err := r.Resolve(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(tags) == 0 {
			return nil, nil
		}
		groups, err := fanOut(ctx, entityIDs(tags), func(ctx context.Context, tagID string) ([]common.Entity, error) {
			return r.TaggedEntities(ctx, tagID, 0)
		})
		if err != nil {
			return nil, err
		}
		return rankShared(groups, id, opts.NodeType, opts.Limit), nil
	})
}

// TaggedEntities returns entities carrying tagID.
func (r *TagResolver) TaggedEntities(ctx context.Context, tagID string, limit int) ([]common.Entity, error) {
	opts := struct {
		Limit int `json:"limit"`
	}{limit}
	return cached(ctx, &r.base, "tagged", tagID, opts, func(ctx context.Context) ([]common.Entity, error) {
		entities, err := r.graph.TaggedWith(ctx, tagID, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve entities tagged %s: %w", tagID, err)
		}
		return entities, nil
	})
}

// GetTag looks up one tag. Unknown ids and non-tag nodes yield nil.
func (r *TagResolver) GetTag(ctx context.Context, tagID string) (*common.Entity, error) {
	if strings.TrimSpace(tagID) == "" {
		return nil, nil
	}
	e, err := cached(ctx, &r.base, "tag", tagID, nil, func(ctx context.Context) (common.Entity, error) {
		return r.graph.GetEntity(ctx, tagID)
	})
	tag, err := notFoundAsNil(e, err)
	if err != nil || tag == nil || tag.NodeType != common.NodeTag {
		return nil, err
	}
	return tag, nil
}

// GetTags looks up several tags, keeping input order and dropping ids that
// are unknown or not tags.
func (r *TagResolver) GetTags(ctx context.Context, tagIDs []string) ([]common.Entity, error) {
	tagIDs = store.DedupeStrings(tagIDs)
	if len(tagIDs) == 0 {
		return nil, nil
	}
	found, err := cached(ctx, &r.base, "tagset", strings.Join(tagIDs, ","), nil, func(ctx context.Context) ([]common.Entity, error) {
		entities, err := r.graph.GetEntities(ctx, tagIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch tags: %w", err)
		}
		return entities, nil
	})
	if err != nil {
		return nil, err
	}
	out := found[:0]
	for _, e := range found {
		if e.NodeType == common.NodeTag {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *TagResolver) Relevance(_, _, generationTarget common.NodeType) float64 {
	if generationTarget == common.NodeTag || generationTarget == common.NodeUniverse {
		return 0.9
	}
	return 0.7
}

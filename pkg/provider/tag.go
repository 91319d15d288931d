package provider

import (
	"context"
	"fmt"

	"github.com/alchemy-game-studios/game-planner/pkg/common"
	"github.com/alchemy-game-studios/game-planner/pkg/resolver"
	"github.com/alchemy-game-studios/game-planner/pkg/store"
	"golang.org/x/sync/errgroup"
)

// TagProvider emits the caller's selected tags and the most used tags of the
// universe. Universe tags get half the tag budget.
type TagProvider struct {
	meta
	set    *resolver.Set
	limits Limits
}

var _ Provider = (*TagProvider)(nil)

func NewTagProvider(set *resolver.Set, limits Limits) *TagProvider {
	return &TagProvider{meta: meta{name: "tag", priority: PriorityTag}, set: set, limits: limits}
}

func (p *TagProvider) IsRelevant(common.NodeType) bool { return true }

func (p *TagProvider) Gather(ctx context.Context, params Params) (common.ProviderResult, error) {
	var (
		selected []common.Entity
		usage    []store.TagUsage
	)
	eg, ectx := errgroup.WithContext(ctx)
	if len(params.SelectedContext.Tags) > 0 {
		eg.Go(func() error {
			var err error
			selected, err = p.set.Tag.GetTags(ectx, params.SelectedContext.Tags)
			return err
		})
	}
	if params.UniverseID != "" {
		eg.Go(func() error {
			var err error
			usage, err = p.set.Tag.UniverseTags(ectx, params.UniverseID, max(p.limits.TagLimit/2, 1))
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return common.ProviderResult{}, err
	}

	out := make([]common.ContextEntity, 0, len(selected)+len(usage))
	out = append(out, p.annotateAll(selected, common.RoleSelectedTag, 0)...)
	for _, u := range usage {
		out = append(out, p.annotate(u.Tag, common.RoleUniverseTag, 2))
	}
	out = dedupeByID(out)
	out = store.Limit(out, p.limits.TagLimit)

	return p.result(out, fmt.Sprintf("%d selected tags, %d universe tags", len(selected), len(usage))), nil
}

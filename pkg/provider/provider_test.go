package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alchemy-game-studios/game-planner/pkg/common"
	"github.com/alchemy-game-studios/game-planner/pkg/resolver"
	"github.com/alchemy-game-studios/game-planner/pkg/store/memory"
	"github.com/alchemy-game-studios/game-planner/pkg/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSet(t *testing.T) (*resolver.Set, *storetest.Storage) {
	t.Helper()
	graph := storetest.Wrap(memory.Demo())
	return resolver.NewSet(graph, nil, resolver.Options{CacheTTL: time.Minute}), graph
}

type row struct {
	id    string
	role  common.ContextRole
	depth int
}

func rows(res common.ProviderResult) []row {
	out := make([]row, len(res.Entities))
	for i, e := range res.Entities {
		out[i] = row{e.ID(), e.ContextRole, e.Depth}
	}
	return out
}

func refs(ids ...string) common.SelectedContext {
	sc := common.SelectedContext{}
	for _, id := range ids {
		sc.Entities = append(sc.Entities, common.Ref{ID: id})
	}
	return sc
}

func TestSourceProvider(t *testing.T) {
	ctx := context.Background()
	set, _ := newSet(t)
	p := NewSourceProvider(set)

	tests := []struct {
		name string
		id   string
		want []row
	}{
		{"character with tags", "c-aria", []row{
			{"c-aria", common.RoleSource, 0},
			{"t-brave", common.RoleSourceTag, 1},
			{"t-noble", common.RoleSourceTag, 1},
		}},
		{"event outside containment", "e-siege", []row{
			{"e-siege", common.RoleSource, 0},
		}},
		{"unknown entity", "missing", []row{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := p.Gather(ctx, Params{EntityID: tt.id})
			require.NoError(t, err)
			assert.Equal(t, tt.want, rows(res))
			assert.Equal(t, len(tt.want), res.Count)
			assert.Equal(t, "source", res.Provider)
			assert.Equal(t, PrioritySource, res.Priority)
		})
	}
}

func TestSourceProviderUsesKnownPath(t *testing.T) {
	ctx := context.Background()
	set, graph := newSet(t)
	path, err := set.Hierarchy.Path(ctx, "c-aria")
	require.NoError(t, err)
	graph.Reset()

	_, err = NewSourceProvider(set).Gather(ctx, Params{EntityID: "c-aria", Path: path})
	require.NoError(t, err)
	assert.Zero(t, graph.Calls("GetEntity"))
	assert.Zero(t, graph.Calls("ContainmentPath"))
}

func TestHierarchyProvider(t *testing.T) {
	ctx := context.Background()
	set, _ := newSet(t)
	p := NewHierarchyProvider(set)

	res, err := p.Gather(ctx, Params{EntityID: "c-aria"})
	require.NoError(t, err)
	assert.Equal(t, []row{
		{"u-aerthos", common.RoleUniverse, 3},
		{"p-valoria", common.RoleAncestor, 2},
		{"p-brightwater", common.RoleAncestor, 1},
	}, rows(res))

	root, err := p.Gather(ctx, Params{EntityID: "u-aerthos"})
	require.NoError(t, err)
	assert.Empty(t, root.Entities)
	assert.Equal(t, "no ancestors", root.Summary)
}

func TestSiblingProviderIsOptIn(t *testing.T) {
	ctx := context.Background()
	set, _ := newSet(t)
	p := NewSiblingProvider(set, DefaultLimits())

	none, err := p.Gather(ctx, Params{EntityID: "c-aria", TargetType: common.NodeCharacter})
	require.NoError(t, err)
	assert.Empty(t, none.Entities)
	assert.Equal(t, "no siblings selected", none.Summary)

	picked, err := p.Gather(ctx, Params{
		EntityID:        "c-aria",
		TargetType:      common.NodeCharacter,
		SelectedContext: refs("c-bram", "c-eron"),
	})
	require.NoError(t, err)
	assert.Equal(t, []row{{"c-bram", common.RoleSibling, 1}}, rows(picked))
	assert.Equal(t, "1 of 5 siblings selected", picked.Summary)
}

func TestRelevance(t *testing.T) {
	set, _ := newSet(t)
	limits := DefaultLimits()
	providers := map[string]Provider{
		"sibling":     NewSiblingProvider(set, limits),
		"involvement": NewInvolvementProvider(set, limits),
		"product":     NewProductProvider(set, limits),
		"custom":      NewCustomProvider(set),
	}
	tests := []struct {
		provider string
		target   common.NodeType
		want     bool
	}{
		{"sibling", common.NodeCharacter, true},
		{"sibling", common.NodeEvent, true},
		{"sibling", common.NodeTag, false},
		{"sibling", common.NodeNarrative, false},
		{"involvement", common.NodeNarrative, true},
		{"involvement", common.NodeTag, false},
		{"involvement", common.NodePlace, false},
		{"product", common.NodeAdaptation, true},
		{"product", common.NodeCharacter, false},
		{"custom", common.NodeTag, true},
	}
	for _, tt := range tests {
		t.Run(tt.provider+"/"+string(tt.target), func(t *testing.T) {
			assert.Equal(t, tt.want, providers[tt.provider].IsRelevant(tt.target))
		})
	}
}

func TestTagProvider(t *testing.T) {
	ctx := context.Background()
	set, _ := newSet(t)
	p := NewTagProvider(set, Limits{TagLimit: 4})

	res, err := p.Gather(ctx, Params{
		EntityID:        "c-aria",
		UniverseID:      "u-aerthos",
		SelectedContext: common.SelectedContext{Tags: []string{"t-magic", "c-bram", "t-brave"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []row{
		{"t-magic", common.RoleSelectedTag, 0},
		{"t-brave", common.RoleSelectedTag, 0},
		{"t-noble", common.RoleUniverseTag, 2},
	}, rows(res))

	noUniverse, err := p.Gather(ctx, Params{EntityID: "c-aria"})
	require.NoError(t, err)
	assert.Empty(t, noUniverse.Entities)
}

func TestInvolvementProvider(t *testing.T) {
	ctx := context.Background()
	set, _ := newSet(t)
	p := NewInvolvementProvider(set, DefaultLimits())

	res, err := p.Gather(ctx, Params{EntityID: "c-aria", TargetType: common.NodeCharacter})
	require.NoError(t, err)
	assert.Equal(t, []row{
		{"e-council", common.RoleRelatedEvent, 1},
		{"e-siege", common.RoleRelatedEvent, 1},
		{"c-eron", common.RoleCoParticipant, 2},
		{"c-fyn", common.RoleCoParticipant, 2},
	}, rows(res))
	assert.Equal(t, 2, res.Entities[2].SharedCount)

	event, err := p.Gather(ctx, Params{EntityID: "e-council", TargetType: common.NodeEvent})
	require.NoError(t, err)
	assert.Equal(t, []row{
		{"c-aria", common.RoleParticipant, 1},
		{"c-eron", common.RoleParticipant, 1},
		{"c-fyn", common.RoleParticipant, 1},
		{"p-valoria", common.RoleEventLocation, 1},
	}, rows(event))
}

func TestInvolvementProviderCoParticipantLimit(t *testing.T) {
	set, _ := newSet(t)
	limits := DefaultLimits()
	limits.CoParticipantLimit = 1
	res, err := NewInvolvementProvider(set, limits).Gather(context.Background(), Params{EntityID: "c-aria", TargetType: common.NodeCharacter})
	require.NoError(t, err)
	require.Len(t, res.Entities, 3)
	assert.Equal(t, "c-eron", res.Entities[2].ID())
}

func TestProductProvider(t *testing.T) {
	ctx := context.Background()
	set, _ := newSet(t)
	p := NewProductProvider(set, DefaultLimits())

	res, err := p.Gather(ctx, Params{EntityID: "c-aria", TargetType: common.NodeAdaptation, ProductID: "pr-cards"})
	require.NoError(t, err)
	assert.Equal(t, []row{
		{"pr-cards", common.RoleProduct, 1},
		{"a-cost", common.RoleProductAttribute, 1},
		{"m-draw", common.RoleProductMechanic, 1},
		{"ad-aria", common.RoleExistingAdaptation, 1},
	}, rows(res))

	supplied := &common.Entity{ID: "pr-cards", Name: "Inline", NodeType: common.NodeProduct}
	inline, err := p.Gather(ctx, Params{EntityID: "c-bram", TargetType: common.NodeProduct, Product: supplied})
	require.NoError(t, err)
	require.Len(t, inline.Entities, 3)
	assert.Equal(t, "Inline", inline.Entities[0].Entity.Name)

	none, err := p.Gather(ctx, Params{EntityID: "c-aria", TargetType: common.NodeProduct})
	require.NoError(t, err)
	assert.Empty(t, none.Entities)
}

func TestCustomProvider(t *testing.T) {
	ctx := context.Background()
	set, _ := newSet(t)
	p := NewCustomProvider(set)

	res, err := p.Gather(ctx, Params{
		EntityID:             "c-aria",
		SelectedContext:      refs("c-bram", " "),
		AdditionalContextIDs: []string{"missing", "c-cora", "c-bram"},
	})
	require.NoError(t, err)
	require.Len(t, res.Entities, 2)
	for i, want := range []string{"c-bram", "c-cora"} {
		e := res.Entities[i]
		assert.Equal(t, want, e.ID())
		assert.True(t, e.UserSelected)
		assert.Equal(t, common.RoleUserSelected, e.ContextRole)
		assert.Equal(t, i, e.SelectionOrder)
	}
	assert.Equal(t, "2 of 3 selected entities found", res.Summary)
}

func TestProviderReturnsStoreErrors(t *testing.T) {
	set, graph := newSet(t)
	boom := errors.New("graph down")
	graph.Fail("TagsOf", boom)

	_, err := NewSourceProvider(set).Gather(context.Background(), Params{EntityID: "c-aria"})
	assert.ErrorIs(t, err, boom)
}

func TestDefaultsAreOrderedByPriority(t *testing.T) {
	set, _ := newSet(t)
	providers := Defaults(set, DefaultLimits())
	require.Len(t, providers, 7)
	for i := 1; i < len(providers); i++ {
		assert.Greater(t, providers[i-1].Priority(), providers[i].Priority())
	}
}

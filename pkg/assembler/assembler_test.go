package assembler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alchemy-game-studios/game-planner/pkg/common"
	"github.com/alchemy-game-studios/game-planner/pkg/resolver"
	"github.com/alchemy-game-studios/game-planner/pkg/store/memory"
	"github.com/alchemy-game-studios/game-planner/pkg/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedCounter charges a flat price for every non-empty text.
type fixedCounter int

func (c fixedCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	return int(c)
}

func newAssembler(t *testing.T, cfg Config, opts ...Option) (*Assembler, *storetest.Storage) {
	t.Helper()
	graph := storetest.Wrap(memory.Demo())
	set := resolver.NewSet(graph, nil, cfg.ResolverOptions())
	opts = append([]Option{WithTokenCounter(ApproxCounter{})}, opts...)
	a, err := New(set, nil, cfg, opts...)
	require.NoError(t, err)
	return a, graph
}

func ariaRequest(target common.NodeType, selected ...string) Request {
	req := Request{EntityID: "c-aria", TargetType: target}
	for _, id := range selected {
		req.SelectedContext.Entities = append(req.SelectedContext.Entities, common.Ref{ID: id})
	}
	return req
}

func ids(entities []common.SerializedEntity) []string {
	out := make([]string, len(entities))
	for i, e := range entities {
		out[i] = e.ID
	}
	return out
}

func providerNames(out common.AssembledContext) []string {
	names := make([]string, len(out.Providers))
	for i, p := range out.Providers {
		names[i] = p.Provider
	}
	return names
}

func TestAssembleCharacterWithSelectedSibling(t *testing.T) {
	a, _ := newAssembler(t, DefaultConfig())

	out, err := a.Assemble(context.Background(), ariaRequest(common.NodeCharacter, "c-bram"), common.FormatMarkdown)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"c-aria", "t-brave", "t-noble",
		"u-aerthos", "p-valoria", "p-brightwater",
		"t-magic", "c-bram",
		"e-council", "e-siege", "c-eron", "c-fyn",
	}, ids(out.Entities))
	assert.NotContains(t, ids(out.Entities), "c-cora")
	assert.NotContains(t, ids(out.Entities), "c-dain")
	assert.NotContains(t, ids(out.Entities), "i-sunblade")

	require.GreaterOrEqual(t, len(out.Entities), 2)
	assert.Equal(t, "c-aria", out.Entities[0].ID)
	assert.Equal(t, common.RoleSource, out.Entities[0].ContextRole)

	bram := out.Entities[1]
	assert.Equal(t, "c-bram", bram.ID)
	assert.Equal(t, common.RoleSibling, bram.ContextRole)
	assert.Equal(t, "sibling", bram.Provider)
	assert.InDelta(t, 0.9, bram.RelevanceScore, 1e-9)

	assert.Equal(t, []string{"source", "hierarchy", "tag", "sibling", "involvement", "custom"}, providerNames(out))
	assert.Equal(t, 6, out.Summary.ProviderCount)
	assert.Equal(t, len(out.Entities), out.Summary.EntityCount)
	assert.Equal(t, "u-aerthos", out.Metadata.UniverseID)
	assert.NotEmpty(t, out.Metadata.AssemblyID)
	assert.Positive(t, out.Summary.TokenEstimate)
}

func TestAssembleTagTargetSkipsIrrelevantProviders(t *testing.T) {
	a, graph := newAssembler(t, DefaultConfig())

	out, err := a.Assemble(context.Background(), ariaRequest(common.NodeTag), common.FormatMarkdown)
	require.NoError(t, err)

	names := providerNames(out)
	assert.NotContains(t, names, "product")
	assert.NotContains(t, names, "involvement")
	assert.NotContains(t, names, "sibling")
	assert.Zero(t, graph.Calls("EventsInvolving"))
	assert.Zero(t, graph.Calls("ProductAttributes"))

	assert.Contains(t, ids(out.Entities), "t-magic")
}

func TestAssembleInvariants(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTotalContext = 4
	cfg.MinRelevanceScore = 0.5
	a, _ := newAssembler(t, cfg)

	targets := []common.NodeType{
		common.NodeCharacter, common.NodePlace, common.NodeEvent,
		common.NodeTag, common.NodeNarrative, common.NodeUniverse,
	}
	for _, target := range targets {
		t.Run(string(target), func(t *testing.T) {
			out, err := a.Assemble(context.Background(), ariaRequest(target, "c-bram", "c-cora"), common.FormatStructured)
			require.NoError(t, err)

			assert.LessOrEqual(t, len(out.Entities), cfg.MaxTotalContext)
			seen := map[string]bool{}
			for i, e := range out.Entities {
				assert.False(t, seen[e.ID], "duplicate %s", e.ID)
				seen[e.ID] = true
				assert.GreaterOrEqual(t, e.RelevanceScore, cfg.MinRelevanceScore)
				assert.LessOrEqual(t, e.RelevanceScore, 1.0)
				if i > 0 {
					assert.GreaterOrEqual(t, out.Entities[i-1].RelevanceScore, e.RelevanceScore)
				}
				assert.NotNil(t, e.Structured)
			}
			assert.Empty(t, out.CombinedContent)
		})
	}
}

func TestAssembleIsDeterministic(t *testing.T) {
	a, _ := newAssembler(t, DefaultConfig())
	req := ariaRequest(common.NodeCharacter, "c-bram")

	first, err := a.Assemble(context.Background(), req, common.FormatMarkdown)
	require.NoError(t, err)
	second, err := a.Assemble(context.Background(), req, common.FormatMarkdown)
	require.NoError(t, err)

	assert.Equal(t, ids(first.Entities), ids(second.Entities))
	assert.Equal(t, first.CombinedContent, second.CombinedContent)
	assert.NotEqual(t, first.Metadata.AssemblyID, second.Metadata.AssemblyID)
}

func TestAssembleMarkdownSections(t *testing.T) {
	a, _ := newAssembler(t, DefaultConfig())
	req := ariaRequest(common.NodeCharacter, "c-bram")
	req.AdditionalContextIDs = []string{"i-lantern"}

	out, err := a.Assemble(context.Background(), req, common.FormatMarkdown)
	require.NoError(t, err)

	content := out.CombinedContent
	order := []string{
		"## Source Entity", "## World Hierarchy", "## Tags", "## Siblings",
		"## Event Involvement", "## Additional Context",
	}
	last := -1
	for _, header := range order {
		i := strings.Index(content, header)
		require.GreaterOrEqual(t, i, 0, header)
		assert.Greater(t, i, last, header)
		last = i
	}
	assert.NotContains(t, content, "## Product")
	assert.True(t, strings.HasPrefix(content, "## Source Entity\n\n### Aria"))
	assert.Contains(t, content, "## Additional Context\n\n### Lantern of Dawn")
}

func TestAssembleUserSelectionScoresOne(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinRelevanceScore = 0.95
	a, _ := newAssembler(t, cfg)

	out, err := a.Assemble(context.Background(), ariaRequest(common.NodeTag, "c-eron"), common.FormatStructured)
	require.NoError(t, err)
	assert.Equal(t, []string{"c-eron"}, ids(out.Entities))
	assert.Equal(t, common.RoleUserSelected, out.Entities[0].ContextRole)
	assert.InDelta(t, 1.0, out.Entities[0].RelevanceScore, 1e-9)
}

func TestAssembleProductTarget(t *testing.T) {
	a, _ := newAssembler(t, DefaultConfig())
	req := ariaRequest(common.NodeAdaptation)
	req.ProductID = "pr-cards"

	out, err := a.Assemble(context.Background(), req, common.FormatDocument)
	require.NoError(t, err)
	assert.Contains(t, providerNames(out), "product")
	got := ids(out.Entities)
	for _, id := range []string{"pr-cards", "a-cost", "m-draw", "ad-aria"} {
		assert.Contains(t, got, id)
	}
	for _, e := range out.Entities {
		require.NotNil(t, e.Document)
		assert.Equal(t, e.ID, e.Document.ID)
	}
}

func TestAssembleUniverseResolution(t *testing.T) {
	a, _ := newAssembler(t, DefaultConfig())
	tests := []struct {
		id, want string
	}{
		{"c-aria", "u-aerthos"},
		{"u-aerthos", "u-aerthos"},
		{"e-siege", ""},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			out, err := a.Assemble(context.Background(), Request{EntityID: tt.id, TargetType: common.NodeEvent}, common.FormatStructured)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Metadata.UniverseID)
		})
	}

	out, err := a.Assemble(context.Background(), Request{EntityID: "c-aria", TargetType: common.NodeEvent, UniverseID: "u-other"}, common.FormatStructured)
	require.NoError(t, err)
	assert.Equal(t, "u-other", out.Metadata.UniverseID)
}

func TestAssembleRejectsBadInput(t *testing.T) {
	a, _ := newAssembler(t, DefaultConfig())
	ctx := context.Background()

	tests := []struct {
		name   string
		req    Request
		format common.Format
		want   error
	}{
		{"missing entity", Request{EntityID: "missing", TargetType: common.NodeCharacter}, common.FormatMarkdown, ErrEntityNotFound},
		{"blank id", Request{EntityID: "  ", TargetType: common.NodeCharacter}, common.FormatMarkdown, ErrInvalidRequest},
		{"bad target", Request{EntityID: "c-aria", TargetType: "spaceship"}, common.FormatMarkdown, ErrInvalidTarget},
		{"bad format", Request{EntityID: "c-aria", TargetType: common.NodeCharacter}, "yaml", ErrInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Assemble(ctx, tt.req, tt.format)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAssembleIsolatesProviderFailure(t *testing.T) {
	a, graph := newAssembler(t, DefaultConfig())
	graph.Fail("EventsInvolving", errors.New("graph down"))

	out, err := a.Assemble(context.Background(), ariaRequest(common.NodeCharacter), common.FormatMarkdown)
	require.NoError(t, err)

	var involvement *common.ProviderSummary
	for i := range out.Providers {
		if out.Providers[i].Provider == "involvement" {
			involvement = &out.Providers[i]
		}
	}
	require.NotNil(t, involvement)
	assert.Zero(t, involvement.Count)
	assert.Contains(t, involvement.Error, "graph down")
	assert.Contains(t, ids(out.Entities), "c-aria")
	assert.NotContains(t, ids(out.Entities), "e-siege")
}

func TestAssembleFailFast(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FailFast = true
	a, graph := newAssembler(t, cfg)
	boom := errors.New("graph down")
	graph.Fail("EventsInvolving", boom)

	_, err := a.Assemble(context.Background(), ariaRequest(common.NodeCharacter), common.FormatMarkdown)
	assert.ErrorIs(t, err, boom)
}

func TestAssembleProviderTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ProviderTimeout = 20 * time.Millisecond
	a, graph := newAssembler(t, cfg)
	graph.Slow(time.Second, "EventsInvolving")

	out, err := a.Assemble(context.Background(), ariaRequest(common.NodeCharacter), common.FormatStructured)
	require.NoError(t, err)
	for _, p := range out.Providers {
		if p.Provider == "involvement" {
			assert.Contains(t, p.Error, context.DeadlineExceeded.Error())
			return
		}
	}
	t.Fatal("involvement provider missing from summaries")
}

func TestAssembleCallerDeadlineFailsWholeAssembly(t *testing.T) {
	a, graph := newAssembler(t, DefaultConfig())
	graph.Slow(time.Second, "EventsInvolving")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	out, err := a.Assemble(ctx, ariaRequest(common.NodeCharacter), common.FormatMarkdown)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, out.Entities)
}

func TestAssembleCanceledContext(t *testing.T) {
	a, _ := newAssembler(t, DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Assemble(ctx, ariaRequest(common.NodeCharacter), common.FormatMarkdown)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAssembleTokenBudget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTokens = 35
	a, _ := newAssembler(t, cfg, WithTokenCounter(fixedCounter(10)))

	out, err := a.Assemble(context.Background(), ariaRequest(common.NodeCharacter, "c-bram"), common.FormatStructured)
	require.NoError(t, err)
	assert.Equal(t, []string{"c-aria", "c-bram"}, ids(out.Entities)[:2])
	assert.Len(t, out.Entities, 3)
	assert.Equal(t, 30, out.Summary.TokenEstimate)
	assert.Equal(t, 9, out.Summary.Dropped)

	cfg.MaxTokens = 1
	tight, _ := newAssembler(t, cfg, WithTokenCounter(fixedCounter(10)))
	out, err = tight.Assemble(context.Background(), ariaRequest(common.NodeCharacter), common.FormatStructured)
	require.NoError(t, err)
	assert.Equal(t, []string{"c-aria"}, ids(out.Entities))
}

func TestAssembleTrace(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTotalContext = 2
	trace := NewAssemblyTrace()
	a, _ := newAssembler(t, cfg, WithTracer(trace))

	out, err := a.Assemble(context.Background(), ariaRequest(common.NodeCharacter, "c-bram"), common.FormatStructured)
	require.NoError(t, err)

	snap := trace.Snapshot()
	assert.Equal(t, []string{"c-aria", "c-bram"}, snap.UsedEntityIDs)
	assert.Len(t, snap.ConsideredEntityIDs, 12)
	assert.Len(t, snap.DroppedEntityIDs, 10)
	assert.Len(t, snap.ProviderRuns, out.Summary.ProviderCount)
	assert.Equal(t, "custom", snap.ProviderRuns[0].Provider)
}

func TestAssembleEntityContext(t *testing.T) {
	a, _ := newAssembler(t, DefaultConfig())

	legacy, err := a.AssembleEntityContext(context.Background(), ariaRequest(common.NodeCharacter, "c-bram"))
	require.NoError(t, err)

	idsOf := func(list []map[string]any) []any {
		out := make([]any, len(list))
		for i, m := range list {
			out[i] = m["id"]
		}
		return out
	}
	assert.Equal(t, "c-aria", legacy.SourceEntity["id"])
	assert.Equal(t, "u-aerthos", legacy.Universe["id"])
	assert.Equal(t, []any{"p-brightwater", "p-valoria"}, idsOf(legacy.ParentChain))
	assert.Equal(t, []any{"c-bram"}, idsOf(legacy.Siblings))
	assert.ElementsMatch(t, []any{"t-brave", "t-noble", "t-magic"}, idsOf(legacy.AvailableTags))
	assert.ElementsMatch(t, []any{"e-council", "e-siege", "c-eron", "c-fyn"}, idsOf(legacy.AdditionalContext))
}

func TestClearAllCaches(t *testing.T) {
	a, graph := newAssembler(t, DefaultConfig())
	ctx := context.Background()
	req := ariaRequest(common.NodeCharacter)

	_, err := a.Assemble(ctx, req, common.FormatStructured)
	require.NoError(t, err)
	graph.Reset()
	_, err = a.Assemble(ctx, req, common.FormatStructured)
	require.NoError(t, err)
	assert.Zero(t, graph.Total())

	require.NoError(t, a.ClearAllCaches(ctx))
	_, err = a.Assemble(ctx, req, common.FormatStructured)
	require.NoError(t, err)
	assert.Positive(t, graph.Total())
}

func TestNewRejectsBadConfig(t *testing.T) {
	set := resolver.NewSet(memory.Demo(), nil, resolver.DefaultOptions())
	cfg := DefaultConfig()
	cfg.MaxTotalContext = 0
	_, err := New(set, nil, cfg)
	assert.Error(t, err)

	_, err = New(nil, nil, DefaultConfig())
	assert.Error(t, err)
}

func TestSchema(t *testing.T) {
	s := Schema()
	require.NotNil(t, s)
	_, ok := s.Properties.Get("entities")
	assert.True(t, ok)
	_, ok = s.Properties.Get("combinedContent")
	assert.True(t, ok)

	legacy := LegacySchema()
	_, ok = legacy.Properties.Get("parentChain")
	assert.True(t, ok)
}

package store

import (
	"strings"
	"testing"

	"github.com/alchemy-game-studios/game-planner/pkg/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowRoundTrip(t *testing.T) {
	e := common.Entity{
		ID:          "c-aria",
		Name:        "Aria",
		Description: "A knight.",
		Type:        "knight",
		NodeType:    common.NodeCharacter,
		Properties:  map[string]any{"role": "protagonist", "age": float64(31)},
		Links: map[string][]common.Ref{
			"tags": {{ID: "t-brave", Name: "Brave", NodeType: common.NodeTag}},
		},
	}
	row, err := EncodeRow(e)
	require.NoError(t, err)
	assert.Equal(t, "character", row.NodeType)

	got, err := row.Entity()
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestRowEmptyDocuments(t *testing.T) {
	row, err := EncodeRow(common.Entity{ID: "t", NodeType: common.NodeTag})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(row.Properties))
	assert.Equal(t, "{}", string(row.Links))

	for _, raw := range []string{"", "null", "{}"} {
		e, err := Row{ID: "t", Properties: []byte(raw), Links: []byte(raw)}.Entity()
		require.NoError(t, err)
		assert.Nil(t, e.Properties)
		assert.Nil(t, e.Links)
	}

	_, err = Row{ID: "bad", Properties: []byte("[1,2]")}.Entity()
	assert.Error(t, err)
}

func TestDecodeSeed(t *testing.T) {
	seed, err := DecodeSeed(strings.NewReader(`{"nodes":[{"id":"u","name":"U","nodeType":"universe"}],"edges":[]}`))
	require.NoError(t, err)
	require.Len(t, seed.Nodes, 1)
	assert.NoError(t, seed.Validate())

	_, err = DecodeSeed(strings.NewReader(`{"nodes":`))
	assert.Error(t, err)

	missingID := Seed{Nodes: []common.Entity{{Name: "nameless", NodeType: common.NodeTag}}}
	assert.ErrorContains(t, missingID.Validate(), "has no id")
}

func TestSortTagUsage(t *testing.T) {
	usage := []TagUsage{
		{Tag: common.Entity{ID: "b", Name: "beta"}, Count: 1},
		{Tag: common.Entity{ID: "a2", Name: "Alpha"}, Count: 3},
		{Tag: common.Entity{ID: "a1", Name: "alpha"}, Count: 3},
	}
	SortTagUsage(usage)
	got := []string{usage[0].Tag.ID, usage[1].Tag.ID, usage[2].Tag.ID}
	assert.Equal(t, []string{"a1", "a2", "b"}, got)
}

func TestChunkRange(t *testing.T) {
	var windows [][2]int
	err := ChunkRange(7, 3, func(start, end int) error {
		windows = append(windows, [2]int{start, end})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{0, 3}, {3, 6}, {6, 7}}, windows)
	assert.NoError(t, ChunkRange(0, 3, func(int, int) error { t.Fatal("called"); return nil }))
}

func TestDedupeAndLimit(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, DedupeStrings([]string{" a", "", "b", "a"}))
	assert.Nil(t, DedupeStrings(nil))
	assert.Equal(t, []int{1, 2}, Limit([]int{1, 2, 3}, 2))
	assert.Equal(t, []int{1, 2, 3}, Limit([]int{1, 2, 3}, 0))
}

package neo4j

import (
	"testing"

	"github.com/alchemy-game-studios/game-planner/pkg/common"
	"github.com/alchemy-game-studios/game-planner/pkg/store"
	"github.com/neo4j/neo4j-go-driver/v6/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropsRoundTrip(t *testing.T) {
	e := common.Entity{
		ID:          "e-siege",
		Name:        "Siege of Brightwater",
		Description: "The fall of the walls.",
		Type:        "battle",
		NodeType:    common.NodeEvent,
		Properties:  map[string]any{"temporalOrder": float64(2)},
		Links: map[string][]common.Ref{
			"locations": {{ID: "p-brightwater", Name: "Brightwater", NodeType: common.NodePlace}},
		},
	}
	props, err := propsFromEntity(e)
	require.NoError(t, err)
	assert.Equal(t, "event", props["nodeType"])
	assert.IsType(t, "", props["properties"])

	got, err := entityFromProps(props)
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestEntityFromValue(t *testing.T) {
	node := neo4j.Node{Labels: []string{"Canon"}, Props: map[string]any{"id": "t-brave", "name": "Brave", "nodeType": "tag"}}
	e, err := entityFromValue(node)
	require.NoError(t, err)
	assert.Equal(t, "t-brave", e.ID)
	assert.Equal(t, common.NodeTag, e.NodeType)
	assert.Nil(t, e.Properties)

	_, err = entityFromValue("not a node")
	assert.Error(t, err)

	_, err = entityFromValue(neo4j.Node{Props: map[string]any{"name": "nameless"}})
	assert.Error(t, err)
}

func TestEntitiesFromList(t *testing.T) {
	list := []any{
		neo4j.Node{Props: map[string]any{"id": "u", "name": "U", "nodeType": "universe"}},
		neo4j.Node{Props: map[string]any{"id": "p", "name": "P", "nodeType": "place"}},
	}
	got, err := entitiesFromList(list)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "u", got[0].ID)
	assert.Equal(t, "p", got[1].ID)

	_, err = entitiesFromList(map[string]any{})
	assert.Error(t, err)
}

func TestGroupEdges(t *testing.T) {
	groups := groupEdges([]store.Edge{
		{From: "u", Type: store.EdgeContains, To: "p"},
		{From: "c", Type: store.EdgeTagged, To: "t"},
		{From: "p", Type: store.EdgeContains, To: "c"},
	})
	assert.Len(t, groups[store.EdgeContains], 2)
	assert.Equal(t, map[string]any{"from": "c", "to": "t"}, groups[store.EdgeTagged][0])
}

func TestGetIntFromRecord(t *testing.T) {
	record := &neo4j.Record{Keys: []string{"uses", "name"}, Values: []any{int64(3), "x"}}
	assert.Equal(t, 3, getIntFromRecord(record, "uses"))
	assert.Equal(t, 0, getIntFromRecord(record, "name"))
	assert.Equal(t, 0, getIntFromRecord(record, "missing"))
}

package memory

import (
	"github.com/alchemy-game-studios/game-planner/pkg/common"
	"github.com/alchemy-game-studios/game-planner/pkg/store"
)

func ref(id, name string, nodeType common.NodeType) common.Ref {
	return common.Ref{ID: id, Name: name, NodeType: nodeType}
}

// DemoSeed is a small but complete canon: one universe with a kingdom, a
// city holding four characters and two items, two events, a narrative, three
// tags and a card game product with one existing adaptation.
//
// The server loads it when GRAPH_BACKEND=memory and no seed file is set.
func DemoSeed() Seed {
	order1, order2 := 1, 2
	nodes := []common.Entity{
		{
			ID: "u-aerthos", Name: "Aerthos", NodeType: common.NodeUniverse, Type: "world",
			Description: "A high fantasy world of drifting sky-isles and old oaths.",
			Properties: map[string]any{
				"genre":        "high fantasy",
				"style":        []any{"mythic", "hopeful"},
				"entityCounts": map[string]any{"place": 2, "character": 6, "item": 2},
			},
		},
		{
			ID: "p-valoria", Name: "Valoria", NodeType: common.NodePlace, Type: "kingdom",
			Description: "The river kingdom at the heart of Aerthos.",
			Links: map[string][]common.Ref{
				"parent":   {ref("u-aerthos", "Aerthos", common.NodeUniverse)},
				"children": {ref("p-brightwater", "Brightwater", common.NodePlace)},
			},
		},
		{
			ID: "p-brightwater", Name: "Brightwater", NodeType: common.NodePlace, Type: "city",
			Description: "A walled harbour city famous for its lantern festival.",
			Links: map[string][]common.Ref{
				"parent": {ref("p-valoria", "Valoria", common.NodePlace)},
				"inhabitants": {
					ref("c-aria", "Aria", common.NodeCharacter),
					ref("c-bram", "Bram", common.NodeCharacter),
				},
				"events": {ref("e-siege", "Siege of Brightwater", common.NodeEvent)},
			},
		},
		{
			ID: "c-aria", Name: "Aria", NodeType: common.NodeCharacter, Type: "knight",
			Description: "A young knight sworn to defend Brightwater.",
			Properties:  map[string]any{"role": "protagonist"},
			Links: map[string][]common.Ref{
				"location":      {ref("p-brightwater", "Brightwater", common.NodePlace)},
				"possessions":   {ref("i-sunblade", "Sunblade", common.NodeItem)},
				"events":        {ref("e-siege", "Siege of Brightwater", common.NodeEvent)},
				"relationships": {{ID: "c-eron", Name: "Eron", NodeType: common.NodeCharacter, Role: "mentor"}},
				"tags":          {ref("t-brave", "Brave", common.NodeTag), ref("t-noble", "Noble", common.NodeTag)},
			},
		},
		{ID: "c-bram", Name: "Bram", NodeType: common.NodeCharacter, Type: "smith", Description: "The city's master smith."},
		{ID: "c-cora", Name: "Cora", NodeType: common.NodeCharacter, Type: "scholar", Description: "Keeper of the harbour archive."},
		{ID: "c-dain", Name: "Dain", NodeType: common.NodeCharacter, Type: "thief", Description: "A pickpocket with a good heart."},
		{ID: "c-eron", Name: "Eron", NodeType: common.NodeCharacter, Type: "general", Description: "Commander of the Valorian host."},
		{ID: "c-fyn", Name: "Fyn", NodeType: common.NodeCharacter, Type: "envoy", Description: "A wandering envoy of the sky-isles."},
		{
			ID: "i-sunblade", Name: "Sunblade", NodeType: common.NodeItem, Type: "sword",
			Description: "A blade that glows at dawn.",
			Links: map[string][]common.Ref{
				"owner":  {ref("c-aria", "Aria", common.NodeCharacter)},
				"origin": {ref("p-valoria", "Valoria", common.NodePlace)},
			},
		},
		{ID: "i-lantern", Name: "Lantern of Dawn", NodeType: common.NodeItem, Type: "relic", Description: "The festival's first lantern."},
		{
			ID: "e-siege", Name: "Siege of Brightwater", NodeType: common.NodeEvent, Type: "battle",
			Description: "Raiders besiege the harbour for nine days.",
			Properties:  map[string]any{"temporalOrder": 2, "eventType": "battle"},
			Links: map[string][]common.Ref{
				"locations":    {ref("p-brightwater", "Brightwater", common.NodePlace)},
				"narrative":    {ref("n-long-war", "The Long War", common.NodeNarrative)},
				"participants": {ref("c-aria", "Aria", common.NodeCharacter), ref("c-eron", "Eron", common.NodeCharacter)},
			},
		},
		{
			ID: "e-council", Name: "Council of Valoria", NodeType: common.NodeEvent, Type: "meeting",
			Description: "The lords gather to answer the raiders.",
			Properties:  map[string]any{"temporalOrder": 1, "eventType": "meeting"},
		},
		{
			ID: "n-long-war", Name: "The Long War", NodeType: common.NodeNarrative, Type: "saga",
			Description: "How Valoria survived the raider years.",
			Links: map[string][]common.Ref{
				"events": {
					{ID: "e-council", Name: "Council of Valoria", NodeType: common.NodeEvent, Order: &order1},
					{ID: "e-siege", Name: "Siege of Brightwater", NodeType: common.NodeEvent, Order: &order2},
				},
				"characters": {ref("c-aria", "Aria", common.NodeCharacter)},
			},
		},
		{ID: "t-brave", Name: "Brave", NodeType: common.NodeTag, Description: "Acts despite fear."},
		{ID: "t-noble", Name: "Noble", NodeType: common.NodeTag, Description: "Of high birth or high principle."},
		{ID: "t-magic", Name: "Magic", NodeType: common.NodeTag, Description: "Touched by old sorcery."},
		{
			ID: "pr-cards", Name: "Aerthos: The Card Game", NodeType: common.NodeProduct, Type: "card game",
			Description: "A two player dueling card game.",
		},
		{ID: "a-cost", Name: "Cost", NodeType: common.NodeAttribute, Description: "Mana needed to play a card."},
		{ID: "m-draw", Name: "Draw", NodeType: common.NodeMechanic, Description: "Take cards from the deck."},
		{ID: "ad-aria", Name: "Aria, Dawn Knight", NodeType: common.NodeAdaptation, Description: "Aria as a 3 cost hero card."},
	}

	edges := []Edge{
		{"u-aerthos", store.EdgeContains, "p-valoria"},
		{"u-aerthos", store.EdgeContains, "c-fyn"},
		{"u-aerthos", store.EdgeContains, "n-long-war"},
		{"p-valoria", store.EdgeContains, "p-brightwater"},
		{"p-valoria", store.EdgeContains, "c-eron"},
		{"p-brightwater", store.EdgeContains, "c-aria"},
		{"p-brightwater", store.EdgeContains, "c-bram"},
		{"p-brightwater", store.EdgeContains, "c-cora"},
		{"p-brightwater", store.EdgeContains, "c-dain"},
		{"p-brightwater", store.EdgeContains, "i-sunblade"},
		{"p-brightwater", store.EdgeContains, "i-lantern"},

		{"c-aria", store.EdgeTagged, "t-brave"},
		{"c-aria", store.EdgeTagged, "t-noble"},
		{"c-bram", store.EdgeTagged, "t-brave"},
		{"c-cora", store.EdgeTagged, "t-noble"},
		{"i-lantern", store.EdgeTagged, "t-magic"},

		{"c-aria", store.EdgeParticipatesIn, "e-siege"},
		{"c-eron", store.EdgeParticipatesIn, "e-siege"},
		{"c-aria", store.EdgeParticipatesIn, "e-council"},
		{"c-eron", store.EdgeParticipatesIn, "e-council"},
		{"c-fyn", store.EdgeParticipatesIn, "e-council"},
		{"e-siege", store.EdgeOccursAt, "p-brightwater"},
		{"e-council", store.EdgeOccursAt, "p-valoria"},

		{"pr-cards", store.EdgeHasAttribute, "a-cost"},
		{"pr-cards", store.EdgeHasMechanic, "m-draw"},
		{"ad-aria", store.EdgeAdapts, "c-aria"},
		{"ad-aria", store.EdgeForProduct, "pr-cards"},
	}
	return Seed{Nodes: nodes, Edges: edges}
}

// Demo returns a store loaded with DemoSeed.
func Demo() *GraphStorage {
	s, err := Load(DemoSeed())
	if err != nil {
		panic(err)
	}
	return s
}

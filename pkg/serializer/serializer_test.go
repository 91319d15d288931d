package serializer

import (
	"strings"
	"testing"

	"github.com/alchemy-game-studios/game-planner/pkg/common"
	"github.com/alchemy-game-studios/game-planner/pkg/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func demoEntity(t *testing.T, id string) common.Entity {
	t.Helper()
	for _, n := range memory.DemoSeed().Nodes {
		if n.ID == id {
			return n
		}
	}
	t.Fatalf("fixture has no node %q", id)
	return common.Entity{}
}

func TestRegistryDispatch(t *testing.T) {
	r := DefaultRegistry()
	tests := []struct {
		nodeType common.NodeType
		want     Serializer
	}{
		{common.NodeCharacter, NewCharacterSerializer()},
		{common.NodeTag, NewTagSerializer()},
		{common.NodeMechanic, NewDefaultSerializer()},
		{common.NodeType("spaceship"), NewDefaultSerializer()},
	}
	for _, tt := range tests {
		t.Run(string(tt.nodeType), func(t *testing.T) {
			assert.IsType(t, tt.want, r.For(tt.nodeType))
		})
	}
}

func TestCharacterMarkdown(t *testing.T) {
	md := NewCharacterSerializer().ToMarkdown(demoEntity(t, "c-aria"), 0, Options{})
	assert.Equal(t, strings.Join([]string{
		"### Aria (knight)",
		"A young knight sworn to defend Brightwater.",
		"- **Role:** protagonist",
		"- **Location:** Brightwater",
		"- **Possessions:** Sunblade",
		"- **Key events:** Siege of Brightwater",
		"- **Relationships:** Eron (mentor)",
		"- **Tags:** Brave, Noble",
	}, "\n"), md)
}

func TestAbsentFieldsAreOmitted(t *testing.T) {
	bram := demoEntity(t, "c-bram")
	md := NewCharacterSerializer().ToMarkdown(bram, 1, Options{})
	assert.Equal(t, "#### Bram (smith)\nThe city's master smith.", md)

	structured := NewCharacterSerializer().ToStructured(bram, Options{})
	assert.Equal(t, map[string]any{
		"id":          "c-bram",
		"name":        "Bram",
		"nodeType":    "character",
		"type":        "smith",
		"description": "The city's master smith.",
	}, structured)
}

func TestTypeSpecificSections(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		s        Serializer
		contains []string
	}{
		{"universe", "u-aerthos", NewUniverseSerializer(), []string{
			"**Genre:** high fantasy",
			"**Contents:** 6 characters, 2 items, 2 places",
			"**Style:** mythic, hopeful",
		}},
		{"place", "p-brightwater", NewPlaceSerializer(), []string{
			"**Located in:** Valoria",
			"**Inhabitants:** Aria, Bram",
			"**Notable events:** Siege of Brightwater",
		}},
		{"item", "i-sunblade", NewItemSerializer(), []string{
			"**Owner:** Aria",
			"**Origin:** Valoria",
		}},
		{"event", "e-siege", NewEventSerializer(), []string{
			"**Temporal order:** 2",
			"**Locations:** Brightwater",
			"**Part of:** The Long War",
			"**Participants:** Aria, Eron",
		}},
		{"narrative", "n-long-war", NewNarrativeSerializer(), []string{
			"**Events:** 1. Council of Valoria, 2. Siege of Brightwater",
			"**Key characters:** Aria",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := tt.s.ToMarkdown(demoEntity(t, tt.id), 0, Options{})
			for _, want := range tt.contains {
				assert.Contains(t, md, want)
			}
		})
	}
}

func TestEventTypeMatchingSubtypeIsNotRepeated(t *testing.T) {
	md := NewEventSerializer().ToMarkdown(demoEntity(t, "e-siege"), 0, Options{})
	assert.NotContains(t, md, "Event type")
}

func TestProductMergesPropertiesAndLinks(t *testing.T) {
	product := common.Entity{
		ID: "p", Name: "Deck", NodeType: common.NodeProduct,
		Properties: map[string]any{"attributes": []any{"Cost", map[string]any{"name": "Power"}}},
		Links: map[string][]common.Ref{
			"attributes":  {{ID: "a1", Name: "Cost"}},
			"mechanics":   {{ID: "m1", Name: "Draw"}},
			"adaptations": {{ID: "ad1", Name: "Aria card"}},
		},
	}
	structured := NewProductSerializer().ToStructured(product, Options{})
	assert.Equal(t, []string{"Cost", "Power"}, structured["attributes"])
	assert.Equal(t, []string{"Draw"}, structured["mechanics"])
	assert.Equal(t, []string{"Aria card"}, structured["adaptations"])
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"disabled", "  hello world ", 0, "hello world"},
		{"short enough", "hello", 5, "hello"},
		{"cut", "hello world", 8, "hello..."},
		{"tiny limit", "hello", 2, "he"},
		{"multibyte", "äöüäöüäöü", 6, "äöü..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.in, tt.max)
			assert.Equal(t, tt.want, got)
			if tt.max > 0 {
				assert.LessOrEqual(t, len([]rune(got)), tt.max)
			}
		})
	}
}

func TestDescriptionTruncatedInAllFormats(t *testing.T) {
	r := DefaultRegistry()
	ce := common.ContextEntity{Entity: demoEntity(t, "c-aria"), ContextRole: common.RoleSource}
	opts := Options{MaxDescriptionLength: 10}

	md, err := r.Serialize(ce, common.FormatMarkdown, opts)
	require.NoError(t, err)
	assert.Contains(t, md.Markdown, "A young...")

	st, err := r.Serialize(ce, common.FormatStructured, opts)
	require.NoError(t, err)
	assert.Equal(t, "A young...", st.Structured["description"])

	doc, err := r.Serialize(ce, common.FormatDocument, opts)
	require.NoError(t, err)
	require.NotNil(t, doc.Document)
	assert.Equal(t, "Aria", doc.Document.Title)
	assert.Equal(t, "source", doc.Document.Metadata["contextRole"])
	assert.Contains(t, doc.Document.Content, "A young...")
}

func TestSerializeUnknownFormat(t *testing.T) {
	_, err := DefaultRegistry().Serialize(common.ContextEntity{}, common.Format("xml"), Options{})
	assert.Error(t, err)
}

func TestDefaultSerializerForUnknownType(t *testing.T) {
	e := common.Entity{ID: "x", Name: "Thing", NodeType: common.NodeType("spaceship"), Description: "odd"}
	out, err := DefaultRegistry().Serialize(common.ContextEntity{Entity: e}, common.FormatMarkdown, Options{})
	require.NoError(t, err)
	assert.Equal(t, "### Thing (spaceship)\nodd", out.Markdown)
}

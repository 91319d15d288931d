package serializer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alchemy-game-studios/game-planner/pkg/common"
)

// UniverseSerializer renders genre, entity counts and style tags.
type UniverseSerializer struct{ fieldSet }

var _ Serializer = UniverseSerializer{}

func NewUniverseSerializer() UniverseSerializer {
	return UniverseSerializer{fieldSet{
		types: []common.NodeType{common.NodeUniverse},
		fields: func(e common.Entity) []field {
			return []field{
				textField("genre", "Genre", e.String("genre")),
				textField("entityCounts", "Contents", countSummary(e)),
				listField("style", "Style", mergeLists(e.Strings("style"), names(e.Refs("tags")))),
			}
		},
	}}
}

// countSummary renders {"place": 2, "character": 1} as "1 character, 2 places".
func countSummary(e common.Entity) string {
	raw, ok := e.Prop("entityCounts")
	if !ok {
		return ""
	}
	counts, ok := raw.(map[string]any)
	if !ok {
		return ""
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		probe := common.Entity{Properties: map[string]any{"n": counts[k]}}
		n, ok := probe.Int("n")
		if !ok || n <= 0 {
			continue
		}
		label := k
		if n != 1 {
			label += "s"
		}
		parts = append(parts, fmt.Sprintf("%d %s", n, label))
	}
	return strings.Join(parts, ", ")
}

// PlaceSerializer renders the parent location, inhabitants, sub-locations and
// notable events.
type PlaceSerializer struct{ fieldSet }

var _ Serializer = PlaceSerializer{}

func NewPlaceSerializer() PlaceSerializer {
	return PlaceSerializer{fieldSet{
		types: []common.NodeType{common.NodePlace},
		fields: func(e common.Entity) []field {
			return []field{
				textField("parentLocation", "Located in", first(e.Refs("parent"))),
				listField("inhabitants", "Inhabitants", names(e.Refs("inhabitants"))),
				listField("subLocations", "Sub-locations", names(e.Refs("children"))),
				listField("notableEvents", "Notable events", names(e.Refs("events"))),
				listField("tags", "Tags", names(e.Refs("tags"))),
			}
		},
	}}
}

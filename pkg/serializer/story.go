package serializer

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"

	"github.com/alchemy-game-studios/game-planner/pkg/common"
)

// EventSerializer renders event type, temporal order, locations, the parent
// narrative, participants and related events.
type EventSerializer struct{ fieldSet }

var _ Serializer = EventSerializer{}

func NewEventSerializer() EventSerializer {
	return EventSerializer{fieldSet{
		types: []common.NodeType{common.NodeEvent},
		fields: func(e common.Entity) []field {
			eventType := e.String("eventType")
			if eventType == e.Type {
				eventType = ""
			}
			order := ""
			if n, ok := e.Int("temporalOrder"); ok {
				order = strconv.Itoa(n)
			}
			return []field{
				textField("eventType", "Event type", eventType),
				textField("temporalOrder", "Temporal order", order),
				listField("locations", "Locations", names(e.Refs("locations"))),
				textField("narrative", "Part of", first(e.Refs("narrative"))),
				listField("participants", "Participants", names(e.Refs("participants"))),
				listField("relatedEvents", "Related events", names(e.Refs("relatedEvents"))),
			}
		},
	}}
}

// NarrativeSerializer renders the ordered events and key characters and
// locations.
type NarrativeSerializer struct{ fieldSet }

var _ Serializer = NarrativeSerializer{}

func NewNarrativeSerializer() NarrativeSerializer {
	return NarrativeSerializer{fieldSet{
		types: []common.NodeType{common.NodeNarrative},
		fields: func(e common.Entity) []field {
			return []field{
				listField("events", "Events", orderedEvents(e.Refs("events"))),
				listField("keyCharacters", "Key characters", names(e.Refs("characters"))),
				listField("keyLocations", "Key locations", names(e.Refs("locations"))),
			}
		},
	}}
}

// orderedEvents sorts by Order (unordered last, stable) and prefixes the
// position, e.g. "1. Council of Valoria".
func orderedEvents(refs []common.Ref) []string {
	if len(refs) == 0 {
		return nil
	}
	sorted := slices.Clone(refs)
	slices.SortStableFunc(sorted, func(a, b common.Ref) int {
		switch {
		case a.Order == nil && b.Order == nil:
			return 0
		case a.Order == nil:
			return 1
		case b.Order == nil:
			return -1
		}
		return cmp.Compare(*a.Order, *b.Order)
	})
	out := make([]string, 0, len(sorted))
	for _, r := range sorted {
		name := first([]common.Ref{r})
		if name == "" {
			continue
		}
		if r.Order != nil {
			name = fmt.Sprintf("%d. %s", *r.Order, name)
		}
		out = append(out, name)
	}
	return out
}

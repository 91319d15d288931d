package serializer

import "github.com/alchemy-game-studios/game-planner/pkg/common"

// CharacterSerializer renders role, location, possessions, key events,
// relationships and tags.
type CharacterSerializer struct{ fieldSet }

var _ Serializer = CharacterSerializer{}

func NewCharacterSerializer() CharacterSerializer {
	return CharacterSerializer{fieldSet{
		types: []common.NodeType{common.NodeCharacter},
		fields: func(e common.Entity) []field {
			return []field{
				textField("role", "Role", e.String("role")),
				textField("location", "Location", first(e.Refs("location"))),
				listField("possessions", "Possessions", names(e.Refs("possessions"))),
				listField("keyEvents", "Key events", names(e.Refs("events"))),
				listField("relationships", "Relationships", names(e.Refs("relationships"))),
				listField("tags", "Tags", names(e.Refs("tags"))),
			}
		},
	}}
}

// ItemSerializer renders owner, origin and appearances.
type ItemSerializer struct{ fieldSet }

var _ Serializer = ItemSerializer{}

func NewItemSerializer() ItemSerializer {
	return ItemSerializer{fieldSet{
		types: []common.NodeType{common.NodeItem},
		fields: func(e common.Entity) []field {
			return []field{
				textField("owner", "Owner", first(e.Refs("owner"))),
				textField("origin", "Origin", first(e.Refs("origin"))),
				listField("appearances", "Appearances", names(e.Refs("appearances"))),
				listField("tags", "Tags", names(e.Refs("tags"))),
			}
		},
	}}
}

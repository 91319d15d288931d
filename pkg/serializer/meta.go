package serializer

import "github.com/alchemy-game-studios/game-planner/pkg/common"

// TagSerializer renders a tag's meaning and example entities. The tag's
// description is its semantic description.
type TagSerializer struct{ fieldSet }

var _ Serializer = TagSerializer{}

func NewTagSerializer() TagSerializer {
	return TagSerializer{fieldSet{
		types: []common.NodeType{common.NodeTag},
		fields: func(e common.Entity) []field {
			return []field{
				listField("examples", "Examples", names(e.Refs("examples"))),
			}
		},
	}}
}

// ProductSerializer renders attributes, mechanics and existing adaptations.
// Attributes and mechanics may come as properties or as links.
type ProductSerializer struct{ fieldSet }

var _ Serializer = ProductSerializer{}

func NewProductSerializer() ProductSerializer {
	return ProductSerializer{fieldSet{
		types: []common.NodeType{common.NodeProduct},
		fields: func(e common.Entity) []field {
			return []field{
				listField("attributes", "Attributes", mergeLists(e.Strings("attributes"), names(e.Refs("attributes")))),
				listField("mechanics", "Mechanics", mergeLists(e.Strings("mechanics"), names(e.Refs("mechanics")))),
				listField("adaptations", "Existing adaptations", names(e.Refs("adaptations"))),
			}
		},
	}}
}

// DefaultSerializer renders name, type and description only. It handles
// every node type without a dedicated serializer.
type DefaultSerializer struct{ fieldSet }

var _ Serializer = DefaultSerializer{}

func NewDefaultSerializer() DefaultSerializer {
	return DefaultSerializer{}
}

package store

import (
	"encoding/json"
	"fmt"

	"github.com/alchemy-game-studios/game-planner/pkg/common"
)

// Row is the flat persisted form of an entity. Properties and links are
// kept as JSON documents since neither SQL columns nor graph node
// properties hold nested maps.
type Row struct {
	ID          string
	Name        string
	Description string
	Type        string
	NodeType    string
	Properties  []byte
	Links       []byte
}

// EncodeRow flattens e. Empty properties and links encode as "{}".
func EncodeRow(e common.Entity) (Row, error) {
	props, err := marshalObject(e.Properties)
	if err != nil {
		return Row{}, fmt.Errorf("encode properties of %s: %w", e.ID, err)
	}
	links, err := marshalObject(e.Links)
	if err != nil {
		return Row{}, fmt.Errorf("encode links of %s: %w", e.ID, err)
	}
	return Row{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Type:        e.Type,
		NodeType:    string(e.NodeType),
		Properties:  props,
		Links:       links,
	}, nil
}

func marshalObject[M ~map[string]V, V any](m M) ([]byte, error) {
	if len(m) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Entity rebuilds the entity. Blank or null documents yield nil maps.
func (r Row) Entity() (common.Entity, error) {
	e := common.Entity{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Type:        r.Type,
		NodeType:    common.NodeType(r.NodeType),
	}
	if err := unmarshalObject(r.Properties, &e.Properties); err != nil {
		return common.Entity{}, fmt.Errorf("decode properties of %s: %w", r.ID, err)
	}
	if err := unmarshalObject(r.Links, &e.Links); err != nil {
		return common.Entity{}, fmt.Errorf("decode links of %s: %w", r.ID, err)
	}
	return e, nil
}

func unmarshalObject[M ~map[string]V, V any](raw []byte, into *M) error {
	if len(raw) == 0 || string(raw) == "null" || string(raw) == "{}" {
		return nil
	}
	return json.Unmarshal(raw, into)
}

package neo4j

import (
	"fmt"

	"github.com/alchemy-game-studios/game-planner/pkg/common"
	"github.com/alchemy-game-studios/game-planner/pkg/store"
	"github.com/neo4j/neo4j-go-driver/v6/neo4j"
)

func getStringProp(props map[string]any, key string) string {
	if s, ok := props[key].(string); ok {
		return s
	}
	return ""
}

func getIntFromRecord(record *neo4j.Record, key string) int {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0
	}
	switch i := val.(type) {
	case int64:
		return int(i)
	case int:
		return i
	}
	return 0
}

// entityFromProps decodes the property map of a Canon node. properties and
// links hold JSON documents.
func entityFromProps(props map[string]any) (common.Entity, error) {
	id := getStringProp(props, "id")
	if id == "" {
		return common.Entity{}, fmt.Errorf("canon node without id")
	}
	return store.Row{
		ID:          id,
		Name:        getStringProp(props, "name"),
		Description: getStringProp(props, "description"),
		Type:        getStringProp(props, "type"),
		NodeType:    getStringProp(props, "nodeType"),
		Properties:  []byte(getStringProp(props, "properties")),
		Links:       []byte(getStringProp(props, "links")),
	}.Entity()
}

// propsFromEntity is the inverse of entityFromProps.
func propsFromEntity(e common.Entity) (map[string]any, error) {
	r, err := store.EncodeRow(e)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"id":          r.ID,
		"name":        r.Name,
		"description": r.Description,
		"type":        r.Type,
		"nodeType":    r.NodeType,
		"properties":  string(r.Properties),
		"links":       string(r.Links),
	}, nil
}

func entityFromValue(v any) (common.Entity, error) {
	node, ok := v.(neo4j.Node)
	if !ok {
		return common.Entity{}, fmt.Errorf("expected node, got %T", v)
	}
	return entityFromProps(node.Props)
}

func entityFromRecord(record *neo4j.Record, key string) (common.Entity, error) {
	v, ok := record.Get(key)
	if !ok {
		return common.Entity{}, fmt.Errorf("record has no %q", key)
	}
	return entityFromValue(v)
}

func entitiesFromList(v any) ([]common.Entity, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected node list, got %T", v)
	}
	out := make([]common.Entity, 0, len(list))
	for _, item := range list {
		e, err := entityFromValue(item)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func orderByIDs(found []common.Entity, ids []string) []common.Entity {
	byID := make(map[string]common.Entity, len(found))
	for _, e := range found {
		byID[e.ID] = e
	}
	out := make([]common.Entity, 0, len(found))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			out = append(out, e)
		}
	}
	return out
}

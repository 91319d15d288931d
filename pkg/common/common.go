package common

import (
	"fmt"
	"strconv"
	"strings"
)

// NodeType is the fixed classification of a canon node. Free-text subtypes
// ("city", "sword", "battle") live in Entity.Type instead.
type NodeType string

const (
	NodeUniverse   NodeType = "universe"
	NodePlace      NodeType = "place"
	NodeCharacter  NodeType = "character"
	NodeItem       NodeType = "item"
	NodeEvent      NodeType = "event"
	NodeNarrative  NodeType = "narrative"
	NodeTag        NodeType = "tag"
	NodeProduct    NodeType = "product"
	NodeAttribute  NodeType = "attribute"
	NodeMechanic   NodeType = "mechanic"
	NodeAdaptation NodeType = "adaptation"
)

// NodeTypes lists every known node type in declaration order.
var NodeTypes = []NodeType{
	NodeUniverse,
	NodePlace,
	NodeCharacter,
	NodeItem,
	NodeEvent,
	NodeNarrative,
	NodeTag,
	NodeProduct,
	NodeAttribute,
	NodeMechanic,
	NodeAdaptation,
}

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	for _, known := range NodeTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseNodeType normalizes s (case and surrounding whitespace) into a NodeType.
func ParseNodeType(s string) (NodeType, error) {
	t := NodeType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown node type %q", s)
	}
	return t, nil
}

// ContextRole describes why an entity was pulled into an assembled context.
type ContextRole string

const (
	RoleSource             ContextRole = "source"
	RoleSourceTag          ContextRole = "sourceTag"
	RoleAncestor           ContextRole = "ancestor"
	RoleUniverse           ContextRole = "universe"
	RoleSibling            ContextRole = "sibling"
	RoleUniverseTag        ContextRole = "universeTag"
	RoleSelectedTag        ContextRole = "selectedTag"
	RoleParticipant        ContextRole = "participant"
	RoleEventLocation      ContextRole = "eventLocation"
	RoleRelatedEvent       ContextRole = "relatedEvent"
	RoleCoParticipant      ContextRole = "coParticipant"
	RoleUserSelected       ContextRole = "userSelected"
	RoleProduct            ContextRole = "product"
	RoleProductAttribute   ContextRole = "productAttribute"
	RoleProductMechanic    ContextRole = "productMechanic"
	RoleExistingAdaptation ContextRole = "existingAdaptation"
)

// Ref is a lightweight pointer to another node, used for caller selections
// and for the named link lists attached to an Entity.
type Ref struct {
	ID       string   `json:"id"`
	Name     string   `json:"name,omitempty"`
	NodeType NodeType `json:"nodeType,omitempty"`
	Type     string   `json:"type,omitempty"`
	Role     string   `json:"role,omitempty"`
	Order    *int     `json:"order,omitempty"`
}

// Entity is a read-only snapshot of a canon graph node.
//
// Properties holds type-specific scalar and list fields (an event's
// temporalOrder, a universe's genre, a product's attributes). Links holds
// named relationship lists that serializers render as sections.
type Entity struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Type        string           `json:"type,omitempty"`
	NodeType    NodeType         `json:"nodeType"`
	Properties  map[string]any   `json:"properties,omitempty"`
	Links       map[string][]Ref `json:"links,omitempty"`
}

// Ref returns a Ref pointing at e.
func (e Entity) Ref() Ref {
	return Ref{ID: e.ID, Name: e.Name, NodeType: e.NodeType, Type: e.Type}
}

// Prop returns the raw property value for key.
func (e Entity) Prop(key string) (any, bool) {
	if e.Properties == nil {
		return nil, false
	}
	v, ok := e.Properties[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// String returns the property as a trimmed string, or "" when absent.
func (e Entity) String(key string) string {
	v, ok := e.Prop(key)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case fmt.Stringer:
		return strings.TrimSpace(s.String())
	case int, int32, int64, float32, float64, bool:
		return fmt.Sprint(s)
	}
	return ""
}

// Int returns the property as an int. JSON numbers and numeric strings are
// accepted.
func (e Entity) Int(key string) (int, bool) {
	v, ok := e.Prop(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float32:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

// Strings returns a list property. A single string is returned as a one
// element list; empty items are skipped.
func (e Entity) Strings(key string) []string {
	v, ok := e.Prop(key)
	if !ok {
		return nil
	}
	var out []string
	appendStr := func(s string) {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	switch list := v.(type) {
	case string:
		appendStr(list)
	case []string:
		for _, s := range list {
			appendStr(s)
		}
	case []any:
		for _, item := range list {
			switch it := item.(type) {
			case string:
				appendStr(it)
			case map[string]any:
				if name, ok := it["name"].(string); ok {
					appendStr(name)
				}
			}
		}
	}
	return out
}

// Refs returns the named link list.
func (e Entity) Refs(key string) []Ref {
	if e.Links == nil {
		return nil
	}
	return e.Links[key]
}

// ContextEntity annotates an entity for one assembly. The wrapped Entity is a
// value copy, so annotating never touches what a resolver cached or what
// another provider returned.
type ContextEntity struct {
	Entity           Entity      `json:"entity"`
	ContextRole      ContextRole `json:"contextRole"`
	Depth            int         `json:"depth"`
	RelevanceScore   float64     `json:"relevanceScore"`
	Provider         string      `json:"provider"`
	ProviderPriority int         `json:"providerPriority"`
	UserSelected     bool        `json:"userSelected,omitempty"`
	SelectionOrder   int         `json:"selectionOrder,omitempty"`
	SharedCount      int         `json:"sharedCount,omitempty"`
}

// ID returns the wrapped entity's id.
func (c ContextEntity) ID() string {
	return c.Entity.ID
}

// ProviderResult is the output of a single provider's gather step.
type ProviderResult struct {
	Provider   string          `json:"provider"`
	Priority   int             `json:"priority"`
	Entities   []ContextEntity `json:"entities"`
	Count      int             `json:"count"`
	Summary    string          `json:"summary"`
	Error      string          `json:"error,omitempty"`
	DurationMs int64           `json:"durationMs"`
}

// Format selects how entities are serialized.
type Format string

const (
	FormatMarkdown   Format = "markdown"
	FormatStructured Format = "structured"
	FormatDocument   Format = "document"
)

// Valid reports whether f is a known format.
func (f Format) Valid() bool {
	switch f {
	case FormatMarkdown, FormatStructured, FormatDocument:
		return true
	}
	return false
}

// Document is a retrieval-friendly record for one entity.
type Document struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// SerializedEntity is an entity that survived ranking, rendered in the
// requested format. Exactly one of Markdown, Structured or Document is set.
type SerializedEntity struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	NodeType       NodeType       `json:"nodeType"`
	ContextRole    ContextRole    `json:"contextRole"`
	Depth          int            `json:"depth"`
	RelevanceScore float64        `json:"relevanceScore"`
	Provider       string         `json:"provider"`
	Markdown       string         `json:"markdown,omitempty"`
	Structured     map[string]any `json:"structured,omitempty"`
	Document       *Document      `json:"document,omitempty"`
}

// ProviderSummary reports one provider's contribution to an assembly.
type ProviderSummary struct {
	Provider   string `json:"provider"`
	Priority   int    `json:"priority"`
	Count      int    `json:"count"`
	Summary    string `json:"summary"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"durationMs"`
}

// AssemblySummary holds the aggregate numbers of an assembly.
type AssemblySummary struct {
	EntityCount   int      `json:"entityCount"`
	ProviderCount int      `json:"providerCount"`
	TargetType    NodeType `json:"targetType"`
	Format        Format   `json:"format"`
	TokenEstimate int      `json:"tokenEstimate"`
	Dropped       int      `json:"dropped"`
}

// AssemblyMetadata identifies what an assembly was built for.
type AssemblyMetadata struct {
	EntityID   string `json:"entityId"`
	UniverseID string `json:"universeId,omitempty"`
	Timestamp  string `json:"timestamp"`
	AssemblyID string `json:"assemblyId"`
}

// AssembledContext is the ranked, size-bounded, serialized context handed to
// a generation backend.
type AssembledContext struct {
	Entities        []SerializedEntity `json:"entities"`
	CombinedContent string             `json:"combinedContent"`
	Providers       []ProviderSummary  `json:"providers"`
	Summary         AssemblySummary    `json:"summary"`
	Metadata        AssemblyMetadata   `json:"metadata"`
}

// SelectedContext lists the caller's explicit picks.
type SelectedContext struct {
	Entities []Ref    `json:"entities,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// EntityIDs returns the ids of the selected entities, skipping blanks.
func (s SelectedContext) EntityIDs() []string {
	ids := make([]string, 0, len(s.Entities))
	for _, ref := range s.Entities {
		if id := strings.TrimSpace(ref.ID); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

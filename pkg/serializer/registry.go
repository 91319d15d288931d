package serializer

import (
	"fmt"

	"github.com/alchemy-game-studios/game-planner/pkg/common"
)

// Registry dispatches by node type, falling back to the default serializer
// for types nobody registered.
type Registry struct {
	byType   map[common.NodeType]Serializer
	fallback Serializer
}

// NewRegistry registers serializers; a later one wins for a shared type.
func NewRegistry(serializers ...Serializer) *Registry {
	r := &Registry{
		byType:   make(map[common.NodeType]Serializer),
		fallback: NewDefaultSerializer(),
	}
	for _, s := range serializers {
		r.Register(s)
	}
	return r
}

// DefaultRegistry has a serializer for every built-in node type that carries
// type-specific fields.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewUniverseSerializer(),
		NewPlaceSerializer(),
		NewCharacterSerializer(),
		NewItemSerializer(),
		NewEventSerializer(),
		NewNarrativeSerializer(),
		NewTagSerializer(),
		NewProductSerializer(),
	)
}

func (r *Registry) Register(s Serializer) {
	for _, t := range s.SupportedTypes() {
		r.byType[t] = s
	}
}

// For returns the serializer for t.
func (r *Registry) For(t common.NodeType) Serializer {
	if s, ok := r.byType[t]; ok {
		return s
	}
	return r.fallback
}

// Serialize renders one context entity in the requested format.
func (r *Registry) Serialize(ce common.ContextEntity, format common.Format, opts Options) (common.SerializedEntity, error) {
	e := ce.Entity
	s := r.For(e.NodeType)
	out := common.SerializedEntity{
		ID:             e.ID,
		Name:           e.Name,
		NodeType:       e.NodeType,
		ContextRole:    ce.ContextRole,
		Depth:          ce.Depth,
		RelevanceScore: ce.RelevanceScore,
		Provider:       ce.Provider,
	}
	switch format {
	case common.FormatMarkdown:
		out.Markdown = s.ToMarkdown(e, ce.Depth, opts)
	case common.FormatStructured:
		out.Structured = s.ToStructured(e, opts)
	case common.FormatDocument:
		doc := ToDocument(s, ce, opts)
		out.Document = &doc
	default:
		return common.SerializedEntity{}, fmt.Errorf("unknown format %q", format)
	}
	return out, nil
}

// ToDocument builds a retrieval record whose content is the markdown body
// and whose metadata carries the assembly annotations.
func ToDocument(s Serializer, ce common.ContextEntity, opts Options) common.Document {
	e := ce.Entity
	meta := map[string]any{
		"nodeType":       string(e.NodeType),
		"contextRole":    string(ce.ContextRole),
		"depth":          ce.Depth,
		"relevanceScore": ce.RelevanceScore,
		"provider":       ce.Provider,
	}
	if e.Type != "" {
		meta["type"] = e.Type
	}
	return common.Document{
		ID:       e.ID,
		Title:    e.Name,
		Content:  s.ToMarkdown(e, 0, opts),
		Metadata: meta,
	}
}

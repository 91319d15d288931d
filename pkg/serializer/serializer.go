// Package serializer renders canon entities as markdown prose, structured
// objects or retrieval documents, with one serializer per node type.
package serializer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/alchemy-game-studios/game-planner/pkg/common"
)

// Options tune rendering.
type Options struct {
	// MaxDescriptionLength truncates free text to this many characters.
	// Zero disables truncation.
	MaxDescriptionLength int
}

// Serializer renders the node types it supports.
type Serializer interface {
	SupportedTypes() []common.NodeType
	ToMarkdown(e common.Entity, depth int, opts Options) string
	ToStructured(e common.Entity, opts Options) map[string]any
}

// field is one rendered attribute of an entity. Exactly one of Text or List
// is used; empty fields are dropped.
type field struct {
	key   string
	label string
	text  string
	list  []string
}

func (f field) empty() bool {
	return strings.TrimSpace(f.text) == "" && len(f.list) == 0
}

func textField(key, label, text string) field {
	return field{key: key, label: label, text: strings.TrimSpace(text)}
}

func listField(key, label string, items []string) field {
	return field{key: key, label: label, list: items}
}

// fieldSet renders a type-specific list of fields in a uniform layout.
type fieldSet struct {
	types  []common.NodeType
	fields func(e common.Entity) []field
}

func (s fieldSet) SupportedTypes() []common.NodeType {
	return s.types
}

func (s fieldSet) ToMarkdown(e common.Entity, depth int, opts Options) string {
	var b strings.Builder
	b.WriteString(heading(depth))
	b.WriteString(e.Name)
	if e.Type != "" {
		fmt.Fprintf(&b, " (%s)", e.Type)
	} else if e.NodeType != "" {
		fmt.Fprintf(&b, " (%s)", e.NodeType)
	}
	b.WriteByte('\n')
	if desc := Truncate(e.Description, opts.MaxDescriptionLength); desc != "" {
		b.WriteString(desc)
		b.WriteByte('\n')
	}
	if s.fields == nil {
		return strings.TrimRight(b.String(), "\n")
	}
	for _, f := range s.fields(e) {
		if f.empty() {
			continue
		}
		if f.text != "" {
			fmt.Fprintf(&b, "- **%s:** %s\n", f.label, Truncate(f.text, opts.MaxDescriptionLength))
			continue
		}
		fmt.Fprintf(&b, "- **%s:** %s\n", f.label, strings.Join(f.list, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s fieldSet) ToStructured(e common.Entity, opts Options) map[string]any {
	out := map[string]any{
		"id":       e.ID,
		"name":     e.Name,
		"nodeType": string(e.NodeType),
	}
	if e.Type != "" {
		out["type"] = e.Type
	}
	if desc := Truncate(e.Description, opts.MaxDescriptionLength); desc != "" {
		out["description"] = desc
	}
	if s.fields == nil {
		return out
	}
	for _, f := range s.fields(e) {
		if f.empty() {
			continue
		}
		if f.text != "" {
			out[f.key] = Truncate(f.text, opts.MaxDescriptionLength)
			continue
		}
		out[f.key] = f.list
	}
	return out
}

func heading(depth int) string {
	if depth <= 0 {
		return "### "
	}
	return "#### "
}

const ellipsis = "..."

// Truncate shortens s to at most max characters, ending with "..." when cut.
// max <= 0 returns s trimmed.
func Truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	if max <= len(ellipsis) {
		return string(runes[:max])
	}
	return strings.TrimSpace(string(runes[:max-len(ellipsis)])) + ellipsis
}

// names renders a link list as display names. Roles are appended in
// parentheses.
func names(refs []common.Ref) []string {
	if len(refs) == 0 {
		return nil
	}
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			name = r.ID
		}
		if name == "" {
			continue
		}
		if r.Role != "" {
			name = fmt.Sprintf("%s (%s)", name, r.Role)
		}
		out = append(out, name)
	}
	return out
}

// first returns the name of the first link, or "".
func first(refs []common.Ref) string {
	if n := names(refs); len(n) > 0 {
		return n[0]
	}
	return ""
}

// mergeLists joins property lists and link names, dropping repeats.
func mergeLists(lists ...[]string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, item := range list {
			if _, ok := seen[item]; ok {
				continue
			}
			seen[item] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}

package assembler

import (
	"encoding/json"
	"strings"

	"github.com/alchemy-game-studios/game-planner/pkg/common"
)

type section struct {
	title string
	roles []common.ContextRole
}

// sections is the fixed order of the combined markdown.
var sections = []section{
	{"Source Entity", []common.ContextRole{common.RoleSource}},
	{"World Hierarchy", []common.ContextRole{common.RoleUniverse, common.RoleAncestor}},
	{"Tags", []common.ContextRole{common.RoleSourceTag, common.RoleSelectedTag, common.RoleUniverseTag}},
	{"Siblings", []common.ContextRole{common.RoleSibling}},
	{"Event Involvement", []common.ContextRole{
		common.RoleParticipant, common.RoleEventLocation, common.RoleRelatedEvent, common.RoleCoParticipant,
	}},
	{"Product", []common.ContextRole{
		common.RoleProduct, common.RoleProductAttribute, common.RoleProductMechanic, common.RoleExistingAdaptation,
	}},
	{"Additional Context", []common.ContextRole{common.RoleUserSelected}},
}

func sectionOf(role common.ContextRole) int {
	for i, s := range sections {
		for _, r := range s.roles {
			if r == role {
				return i
			}
		}
	}
	return len(sections) - 1
}

// combine groups markdown entities into titled sections. Within a section the
// ranked order is kept; empty sections are left out.
func combine(entities []common.SerializedEntity) string {
	grouped := make([][]string, len(sections))
	for _, se := range entities {
		if se.Markdown == "" {
			continue
		}
		i := sectionOf(se.ContextRole)
		grouped[i] = append(grouped[i], se.Markdown)
	}

	var b strings.Builder
	for i, s := range sections {
		if len(grouped[i]) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("## ")
		b.WriteString(s.title)
		b.WriteString("\n\n")
		b.WriteString(strings.Join(grouped[i], "\n\n"))
	}
	return b.String()
}

// text is what an entity costs in a prompt for the token budget.
func text(se common.SerializedEntity) string {
	switch {
	case se.Markdown != "":
		return se.Markdown
	case se.Document != nil:
		return se.Document.Content
	case se.Structured != nil:
		raw, err := json.Marshal(se.Structured)
		if err != nil {
			return ""
		}
		return string(raw)
	}
	return ""
}

// measure estimates the tokens of the output built from entities.
func measure(counter TokenCounter, entities []common.SerializedEntity, format common.Format) int {
	if format == common.FormatMarkdown {
		return counter.Count(combine(entities))
	}
	total := 0
	for _, se := range entities {
		total += counter.Count(text(se))
	}
	return total
}

// fitBudget drops entities from the tail until the estimate fits maxTokens.
// The top ranked entity is always kept. maxTokens <= 0 disables the budget.
func fitBudget(counter TokenCounter, entities []common.SerializedEntity, format common.Format, maxTokens int) ([]common.SerializedEntity, int) {
	tokens := measure(counter, entities, format)
	if maxTokens <= 0 {
		return entities, tokens
	}
	for tokens > maxTokens && len(entities) > 1 {
		entities = entities[:len(entities)-1]
		tokens = measure(counter, entities, format)
	}
	return entities, tokens
}

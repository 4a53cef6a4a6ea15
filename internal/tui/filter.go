package tui

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/studiowebux/dicomkit/internal/types"
)

// tagSource adapts a tag list for fuzzy matching on id, name and value
type tagSource []types.Tag

func (s tagSource) String(i int) string {
	t := s[i]
	return types.FormatTag(t.ID) + " " + t.Name + " " + t.Value
}

func (s tagSource) Len() int { return len(s) }

// filterTags returns the tags matching query in their original order
func filterTags(tags []types.Tag, query string) []types.Tag {
	if strings.TrimSpace(query) == "" {
		return tags
	}

	matches := fuzzy.FindFrom(query, tagSource(tags))
	sort.Slice(matches, func(i, j int) bool { return matches[i].Index < matches[j].Index })

	out := make([]types.Tag, 0, len(matches))
	for _, match := range matches {
		out = append(out, tags[match.Index])
	}
	return out
}

// visibleTags is the tag panel content for the current search query
func (m *Model) visibleTags() []types.Tag {
	return filterTags(m.edits.Tags, m.edits.SearchQuery)
}

// currentTag returns the tag under the tag cursor
func (m *Model) currentTag() (types.Tag, bool) {
	tags := m.visibleTags()
	if m.tagIndex < 0 || m.tagIndex >= len(tags) {
		return types.Tag{}, false
	}
	return tags[m.tagIndex], true
}

// displayValue is the staged value when one exists, otherwise the loaded value
func (m *Model) displayValue(t types.Tag) (string, bool) {
	if v, ok := m.edits.Modified[t.ID]; ok {
		return v, true
	}
	return t.Value, false
}

package types

import (
	"fmt"
	"sort"

	"github.com/suyashkumar/dicom/pkg/tag"
)

// Tag is one extracted metadata element
type Tag struct {
	ID      tag.Tag `json:"tag"`
	Name    string  `json:"name"`
	VR      string  `json:"vr"`
	VM      string  `json:"vm"`
	Value   string  `json:"value"`
	Private bool    `json:"isPrivate"`
}

// NewTag builds a tag, filling Name and VM from the standard dictionary when it
// knows the tag.
func NewTag(id tag.Tag, vr, value string) Tag {
	t := Tag{
		ID:      id,
		VR:      vr,
		VM:      "1",
		Value:   value,
		Private: id.Group%2 == 1,
	}
	if info, err := tag.Find(id); err == nil {
		t.Name = info.Name
		if info.VM != "" {
			t.VM = info.VM
		}
	} else {
		t.Name = FormatTag(id)
	}
	return t
}

// FormatTag renders a tag as (GGGG,EEEE)
func FormatTag(id tag.Tag) string {
	return fmt.Sprintf("(%04X,%04X)", id.Group, id.Element)
}

// LessTag orders tags by group then element
func LessTag(a, b tag.Tag) bool {
	if a.Group != b.Group {
		return a.Group < b.Group
	}
	return a.Element < b.Element
}

// SortTagIDs sorts ids in place by group then element
func SortTagIDs(ids []tag.Tag) {
	sort.Slice(ids, func(i, j int) bool { return LessTag(ids[i], ids[j]) })
}

// TagEditState is the tag set being edited and everything staged against it
type TagEditState struct {
	Tags []Tag
	// Modified holds pending values that differ from the loaded value
	Modified      map[tag.Tag]string
	SearchQuery   string
	Selected      map[tag.Tag]struct{}
	Anonymization *AnonymizationTemplate
}

// AnonymizationAction is what a rule does to its tag
type AnonymizationAction string

const (
	ActionRemove      AnonymizationAction = "remove"
	ActionBlank       AnonymizationAction = "blank"
	ActionReplace     AnonymizationAction = "replace"
	ActionHash        AnonymizationAction = "hash"
	ActionGenerateUID AnonymizationAction = "generate-uid"
	ActionIncrement   AnonymizationAction = "increment"
)

// AnonymizationRule applies one action to one tag
type AnonymizationRule struct {
	Tag    tag.Tag
	Action AnonymizationAction
	// Value is the replacement for ActionReplace
	Value string
}

// AnonymizationTemplate is a named rule set. It is referenced and staged here,
// never executed.
type AnonymizationTemplate struct {
	Name        string
	Description string
	Rules       []AnonymizationRule
}

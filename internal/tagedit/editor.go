package tagedit

import (
	"fmt"

	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/studiowebux/dicomkit/internal/store"
	"github.com/studiowebux/dicomkit/internal/types"
)

// ErrUnknownTag is returned when editing or selecting a tag that is not loaded
var ErrUnknownTag = fmt.Errorf("tag not loaded: %w", types.ErrInvalidReference)

// Editor tracks pending tag edits against the loaded tag set.
//
// The modification map only ever holds values that differ from the loaded
// value: setting a tag back to its original value removes its entry.
type Editor struct {
	state *store.Store[types.TagEditState]
}

// New creates an editor with no tags loaded
func New() *Editor {
	return &Editor{state: store.New(emptyState())}
}

func emptyState() types.TagEditState {
	return types.TagEditState{
		Tags:     []types.Tag{},
		Modified: map[tag.Tag]string{},
		Selected: map[tag.Tag]struct{}{},
	}
}

// State returns the current edit state. Its maps must not be modified.
func (e *Editor) State() types.TagEditState {
	return e.state.Get()
}

// Subscribe registers fn for the current state and every change
func (e *Editor) Subscribe(fn func(types.TagEditState)) (unsubscribe func()) {
	return e.state.Subscribe(fn)
}

// LoadTags replaces the tag set and drops pending modifications and selection.
// The search query and staged template are kept.
func (e *Editor) LoadTags(tags []types.Tag) {
	e.state.Update(func(s types.TagEditState) (types.TagEditState, bool) {
		next := emptyState()
		next.Tags = append(next.Tags, tags...)
		next.SearchQuery = s.SearchQuery
		next.Anonymization = s.Anonymization
		return next, true
	})
}

// SetTagValue stages value for id, or drops the staged value when value equals
// the loaded one.
func (e *Editor) SetTagValue(id tag.Tag, value string) error {
	var err error
	e.state.Update(func(s types.TagEditState) (types.TagEditState, bool) {
		original, ok := findValue(s.Tags, id)
		if !ok {
			err = fmt.Errorf("%w: %s", ErrUnknownTag, types.FormatTag(id))
			return s, false
		}

		pending, staged := s.Modified[id]
		if value == original {
			if !staged {
				return s, false
			}
			s.Modified = cloneModified(s.Modified)
			delete(s.Modified, id)
			return s, true
		}
		if staged && pending == value {
			return s, false
		}
		s.Modified = cloneModified(s.Modified)
		s.Modified[id] = value
		return s, true
	})
	return err
}

// Pending returns the staged value for id
func (e *Editor) Pending(id tag.Tag) (string, bool) {
	v, ok := e.state.Get().Modified[id]
	return v, ok
}

// Value returns the value id would have after a commit
func (e *Editor) Value(id tag.Tag) (string, bool) {
	s := e.state.Get()
	if v, ok := s.Modified[id]; ok {
		return v, true
	}
	return findValue(s.Tags, id)
}

// Commit returns the staged modifications for a collaborator to apply and
// clears them.
func (e *Editor) Commit() map[tag.Tag]string {
	var committed map[tag.Tag]string
	e.state.Update(func(s types.TagEditState) (types.TagEditState, bool) {
		committed = s.Modified
		if len(s.Modified) == 0 {
			return s, false
		}
		s.Modified = map[tag.Tag]string{}
		return s, true
	})
	return cloneModified(committed)
}

// Discard drops every staged modification
func (e *Editor) Discard() {
	e.state.Update(func(s types.TagEditState) (types.TagEditState, bool) {
		if len(s.Modified) == 0 {
			return s, false
		}
		s.Modified = map[tag.Tag]string{}
		return s, true
	})
}

// SetSearchQuery stores the filter text used by the presentation
func (e *Editor) SetSearchQuery(query string) {
	e.state.Update(func(s types.TagEditState) (types.TagEditState, bool) {
		if s.SearchQuery == query {
			return s, false
		}
		s.SearchQuery = query
		return s, true
	})
}

// Select adds id to the selection
func (e *Editor) Select(id tag.Tag) error {
	var err error
	e.state.Update(func(s types.TagEditState) (types.TagEditState, bool) {
		if _, ok := findValue(s.Tags, id); !ok {
			err = fmt.Errorf("%w: %s", ErrUnknownTag, types.FormatTag(id))
			return s, false
		}
		if _, ok := s.Selected[id]; ok {
			return s, false
		}
		s.Selected = cloneSelected(s.Selected)
		s.Selected[id] = struct{}{}
		return s, true
	})
	return err
}

// Deselect removes id from the selection
func (e *Editor) Deselect(id tag.Tag) {
	e.state.Update(func(s types.TagEditState) (types.TagEditState, bool) {
		if _, ok := s.Selected[id]; !ok {
			return s, false
		}
		s.Selected = cloneSelected(s.Selected)
		delete(s.Selected, id)
		return s, true
	})
}

// ToggleSelection flips whether id is selected
func (e *Editor) ToggleSelection(id tag.Tag) error {
	if e.IsSelected(id) {
		e.Deselect(id)
		return nil
	}
	return e.Select(id)
}

// ClearSelection empties the selection
func (e *Editor) ClearSelection() {
	e.state.Update(func(s types.TagEditState) (types.TagEditState, bool) {
		if len(s.Selected) == 0 {
			return s, false
		}
		s.Selected = map[tag.Tag]struct{}{}
		return s, true
	})
}

// IsSelected reports whether id is selected
func (e *Editor) IsSelected(id tag.Tag) bool {
	_, ok := e.state.Get().Selected[id]
	return ok
}

// Selected returns the selection ordered by group then element
func (e *Editor) Selected() []tag.Tag {
	selected := e.state.Get().Selected
	ids := make([]tag.Tag, 0, len(selected))
	for id := range selected {
		ids = append(ids, id)
	}
	types.SortTagIDs(ids)
	return ids
}

// StageTemplate records which anonymization template should be applied on the
// next commit. The template is not executed here.
func (e *Editor) StageTemplate(t types.AnonymizationTemplate) {
	e.state.Update(func(s types.TagEditState) (types.TagEditState, bool) {
		staged := t
		staged.Rules = append([]types.AnonymizationRule(nil), t.Rules...)
		s.Anonymization = &staged
		return s, true
	})
}

// ClearTemplate unstages the anonymization template
func (e *Editor) ClearTemplate() {
	e.state.Update(func(s types.TagEditState) (types.TagEditState, bool) {
		if s.Anonymization == nil {
			return s, false
		}
		s.Anonymization = nil
		return s, true
	})
}

func findValue(tags []types.Tag, id tag.Tag) (string, bool) {
	for _, t := range tags {
		if t.ID == id {
			return t.Value, true
		}
	}
	return "", false
}

func cloneModified(m map[tag.Tag]string) map[tag.Tag]string {
	out := make(map[tag.Tag]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneSelected(m map[tag.Tag]struct{}) map[tag.Tag]struct{} {
	out := make(map[tag.Tag]struct{}, len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}

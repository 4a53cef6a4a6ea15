package keybinds

import (
	"errors"
	"reflect"
	"testing"
)

func TestMatch_ContextBeforeGlobal(t *testing.T) {
	r := NewDefaultRegistry()

	tests := []struct {
		name    string
		context Context
		key     string
		want    Action
		found   bool
	}{
		{"viewer key", ContextViewer, "n", ActionNextInstance, true},
		{"same key other context", ContextTags, "k", ActionTagUp, true},
		{"global fallback", ContextViewer, "q", ActionQuit, true},
		{"global fallback from tags", ContextTags, "tab", ActionSwitchFocus, true},
		{"unbound", ContextViewer, "z", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Match(tt.context, tt.key)
			if ok != tt.found || got != tt.want {
				t.Errorf("Match(%s, %q) = %q, %v; want %q, %v", tt.context, tt.key, got, ok, tt.want, tt.found)
			}
		})
	}
}

func TestMatchExact_IgnoresGlobal(t *testing.T) {
	r := NewDefaultRegistry()

	if _, ok := r.MatchExact(ContextInput, "q"); ok {
		t.Error("q should not match in input context")
	}
	if action, ok := r.MatchExact(ContextInput, "enter"); !ok || action != ActionInputSubmit {
		t.Errorf("enter = %q, %v; want %q", action, ok, ActionInputSubmit)
	}
}

func TestMatchMultiKey_Sequence(t *testing.T) {
	r := NewDefaultRegistry()

	action, complete, partial := r.MatchMultiKey(ContextViewer, "g")
	if complete || !partial || action != "" {
		t.Fatalf("first g = %q, %v, %v; want partial", action, complete, partial)
	}

	action, complete, partial = r.MatchMultiKey(ContextViewer, "g")
	if !complete || partial || action != ActionFirstInstance {
		t.Errorf("second g = %q, %v, %v; want %q", action, complete, partial, ActionFirstInstance)
	}

	// broken sequence matches nothing and resets
	r.MatchMultiKey(ContextViewer, "g")
	if _, complete, _ := r.MatchMultiKey(ContextViewer, "x"); complete {
		t.Error("gx should not match")
	}
	if action, complete, _ := r.MatchMultiKey(ContextViewer, "n"); !complete || action != ActionNextInstance {
		t.Errorf("n after reset = %q, %v", action, complete)
	}
}

func TestMatchMultiKey_ModifierCombosAreNotSequences(t *testing.T) {
	r := NewRegistry()
	r.Register(ContextTags, "ctrl+a", ActionCycleTemplate)
	r.Register(ContextTags, "c", ActionCopyValue)

	action, complete, partial := r.MatchMultiKey(ContextTags, "c")
	if !complete || partial || action != ActionCopyValue {
		t.Errorf("c = %q, %v, %v", action, complete, partial)
	}
}

func TestMatchMultiKey_NamedKeysAreNotSequences(t *testing.T) {
	r := NewDefaultRegistry()

	// "h" prefixes "home" but must act immediately
	action, complete, partial := r.MatchMultiKey(ContextViewer, "h")
	if !complete || partial || action != ActionPrevSeries {
		t.Errorf("h = %q, %v, %v; want %q", action, complete, partial, ActionPrevSeries)
	}
}

func TestGetBindingString(t *testing.T) {
	r := NewDefaultRegistry()

	if got := r.GetBindingString(ContextViewer, ActionNextInstance); got != "down/j/n" {
		t.Errorf("next_instance = %q", got)
	}
	if got := r.GetBindingString(ContextTags, ActionQuit); got != "q" {
		t.Errorf("quit from tags = %q", got)
	}
	if got := r.GetBindingString(ContextTags, ActionNextPreset); got != "unbound" {
		t.Errorf("next_preset from tags = %q", got)
	}
}

func TestListBindings_ContextThenGlobal(t *testing.T) {
	r := NewRegistry()
	r.Register(ContextGlobal, "q", ActionQuit)
	r.Register(ContextInput, "esc", ActionInputCancel)
	r.Register(ContextInput, "enter", ActionInputSubmit)

	want := []Binding{
		{Key: "enter", Action: ActionInputSubmit, Context: ContextInput},
		{Key: "esc", Action: ActionInputCancel, Context: ContextInput},
		{Key: "q", Action: ActionQuit, Context: ContextGlobal},
	}
	if got := r.ListBindings(ContextInput); !reflect.DeepEqual(got, want) {
		t.Errorf("ListBindings = %v, want %v", got, want)
	}
}

func TestClone_IsIndependent(t *testing.T) {
	r := NewDefaultRegistry()
	clone := r.Clone()
	clone.Register(ContextViewer, "n", ActionNextSeries)

	if action, _ := r.Match(ContextViewer, "n"); action != ActionNextInstance {
		t.Errorf("original changed: n = %q", action)
	}
}

func TestLoad_AppliesOverrides(t *testing.T) {
	r, err := Load(Overrides{
		"viewer": {"x": "next_instance", "n": ""},
		"tags":   {"c": "copy_value"},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if action, _ := r.Match(ContextViewer, "x"); action != ActionNextInstance {
		t.Errorf("x = %q", action)
	}
	if r.HasBinding(ContextViewer, "n") {
		t.Error("n should be unbound")
	}
	if action, _ := r.Match(ContextTags, "c"); action != ActionCopyValue {
		t.Errorf("c = %q", action)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name      string
		overrides Overrides
		wantType  string
	}{
		{"unknown context", Overrides{"modal": {"x": "quit"}}, "invalid"},
		{"unknown action", Overrides{"viewer": {"x": "explode"}}, "invalid"},
		{"empty key", Overrides{"viewer": {"": "quit"}}, "invalid"},
		{"reserved key", Overrides{"global": {"ctrl+c": "quit"}}, "reserved"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.overrides)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			if verr.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", verr.Type, tt.wantType)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Type: "reserved", Context: ContextGlobal, Key: "ctrl+c", Message: "reserved key cannot be rebound"}
	want := "[reserved] ctrl+c in context 'global': reserved key cannot be rebound"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

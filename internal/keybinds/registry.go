package keybinds

import (
	"sort"
	"strings"
)

// Binding represents a keybinding mapping
type Binding struct {
	Key     string
	Action  Action
	Context Context
}

// Registry manages keybinding mappings and matching
type Registry struct {
	// bindings maps context -> key -> action
	bindings map[Context]map[string]Action

	// pending tracks multi-key sequences (like 'gg' in vim)
	pending map[Context]string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		bindings: make(map[Context]map[string]Action),
		pending:  make(map[Context]string),
	}
}

// Register adds a keybinding to the registry
func (r *Registry) Register(context Context, key string, action Action) {
	if r.bindings[context] == nil {
		r.bindings[context] = make(map[string]Action)
	}
	r.bindings[context][key] = action
}

// RegisterMultiple registers multiple keys for the same action
func (r *Registry) RegisterMultiple(context Context, keys []string, action Action) {
	for _, key := range keys {
		r.Register(context, key, action)
	}
}

// Unregister removes a key from a context
func (r *Registry) Unregister(context Context, key string) {
	delete(r.bindings[context], key)
}

// Match attempts to match a key to an action in the given context.
// The specific context is checked before global.
func (r *Registry) Match(context Context, key string) (Action, bool) {
	if action, ok := r.bindings[context][key]; ok {
		return action, true
	}
	if action, ok := r.bindings[ContextGlobal][key]; ok {
		return action, true
	}
	return "", false
}

// MatchExact matches a key in context only, ignoring global bindings
func (r *Registry) MatchExact(context Context, key string) (Action, bool) {
	action, ok := r.bindings[context][key]
	return action, ok
}

// MatchMultiKey handles multi-key sequences like 'gg'.
// Returns the action, whether it's a complete match, and whether it's a partial match.
func (r *Registry) MatchMultiKey(context Context, key string) (Action, bool, bool) {
	if prev, ok := r.pending[context]; ok {
		delete(r.pending, context)
		if action, ok := r.Match(context, prev+key); ok {
			return action, true, false
		}
		return "", false, false
	}

	// A key that starts a longer sequence bound in this context waits for the next key
	if r.startsSequence(context, key) {
		r.pending[context] = key
		return "", false, true
	}

	action, ok := r.Match(context, key)
	return action, ok, false
}

// namedKeys are multi-character key names, not sequences
var namedKeys = map[string]struct{}{
	"up": {}, "down": {}, "left": {}, "right": {},
	"home": {}, "end": {}, "pgup": {}, "pgdown": {},
	"enter": {}, "esc": {}, "tab": {}, "space": {}, "backspace": {}, "delete": {},
}

func (r *Registry) startsSequence(context Context, key string) bool {
	for bound := range r.bindings[context] {
		if len(bound) <= len(key) || strings.Contains(bound, "+") {
			continue
		}
		if _, named := namedKeys[bound]; named {
			continue
		}
		if strings.HasPrefix(bound, key) {
			return true
		}
	}
	return false
}

// ClearPending drops any half-typed sequence for a context
func (r *Registry) ClearPending(context Context) {
	delete(r.pending, context)
}

// GetBinding returns the sorted key(s) bound to an action in a context, falling
// back to global.
func (r *Registry) GetBinding(context Context, action Action) []string {
	keys := r.keysFor(context, action)
	if len(keys) == 0 {
		keys = r.keysFor(ContextGlobal, action)
	}
	return keys
}

func (r *Registry) keysFor(context Context, action Action) []string {
	var keys []string
	for key, act := range r.bindings[context] {
		if act == action {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// GetBindingString returns a human-readable string of keys bound to an action
func (r *Registry) GetBindingString(context Context, action Action) string {
	keys := r.GetBinding(context, action)
	if len(keys) == 0 {
		return "unbound"
	}
	return strings.Join(keys, "/")
}

// ListBindings returns all bindings for a context followed by global ones,
// each group sorted by key
func (r *Registry) ListBindings(context Context) []Binding {
	list := func(ctx Context) []Binding {
		var out []Binding
		for key, action := range r.bindings[ctx] {
			out = append(out, Binding{Key: key, Action: action, Context: ctx})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
		return out
	}

	bindings := list(context)
	if context != ContextGlobal {
		bindings = append(bindings, list(ContextGlobal)...)
	}
	return bindings
}

// HasBinding checks if a key is bound in a context or globally
func (r *Registry) HasBinding(context Context, key string) bool {
	_, ok := r.Match(context, key)
	return ok
}

// Clone creates a deep copy of the registry
func (r *Registry) Clone() *Registry {
	clone := NewRegistry()
	clone.Merge(r)
	return clone
}

// Merge combines bindings from another registry, with other taking precedence
func (r *Registry) Merge(other *Registry) {
	for context, contextBindings := range other.bindings {
		for key, action := range contextBindings {
			r.Register(context, key, action)
		}
	}
}

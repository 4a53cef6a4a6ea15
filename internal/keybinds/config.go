package keybinds

import "fmt"

// reservedKeys cannot be rebound so the application can always be closed
var reservedKeys = map[string]Action{
	"ctrl+c": ActionQuitForce,
}

var contexts = map[Context]struct{}{
	ContextGlobal: {},
	ContextViewer: {},
	ContextTags:   {},
	ContextInput:  {},
}

// ValidationError represents a rejected keybinding override
type ValidationError struct {
	Type    string // "invalid" or "reserved"
	Context Context
	Key     string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s in context '%s': %s", e.Type, e.Key, e.Context, e.Message)
}

// Overrides maps context name -> key -> action name. An empty action unbinds
// the key.
type Overrides map[string]map[string]string

// Apply applies user overrides to a registry. Nothing is applied when any
// override is invalid.
func Apply(registry *Registry, overrides Overrides) error {
	if err := Validate(overrides); err != nil {
		return err
	}

	for contextName, bindings := range overrides {
		context := Context(contextName)
		for key, actionName := range bindings {
			if actionName == "" {
				registry.Unregister(context, key)
				continue
			}
			registry.Register(context, key, Action(actionName))
		}
	}
	return nil
}

// Validate checks overrides without applying them
func Validate(overrides Overrides) error {
	for contextName, bindings := range overrides {
		context := Context(contextName)
		if _, ok := contexts[context]; !ok {
			return &ValidationError{Type: "invalid", Context: context, Message: "unknown context"}
		}
		for key, actionName := range bindings {
			if key == "" {
				return &ValidationError{Type: "invalid", Context: context, Message: "empty key"}
			}
			if reserved, ok := reservedKeys[key]; ok && Action(actionName) != reserved {
				return &ValidationError{Type: "reserved", Context: context, Key: key, Message: "reserved key cannot be rebound"}
			}
			if actionName != "" && !Known(Action(actionName)) {
				return &ValidationError{Type: "invalid", Context: context, Key: key, Message: fmt.Sprintf("unknown action %q", actionName)}
			}
		}
	}
	return nil
}

// Load returns the default registry with overrides applied
func Load(overrides Overrides) (*Registry, error) {
	registry := NewDefaultRegistry()
	if err := Apply(registry, overrides); err != nil {
		return nil, fmt.Errorf("failed to apply keybinds config: %w", err)
	}
	return registry, nil
}

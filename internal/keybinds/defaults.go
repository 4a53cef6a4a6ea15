package keybinds

// NewDefaultRegistry creates a registry with all default keybindings
func NewDefaultRegistry() *Registry {
	r := NewRegistry()

	registerGlobalBindings(r)
	registerViewerBindings(r)
	registerTagBindings(r)
	registerInputBindings(r)

	return r
}

// registerGlobalBindings sets up bindings available in every panel
func registerGlobalBindings(r *Registry) {
	r.Register(ContextGlobal, "ctrl+c", ActionQuitForce)
	r.Register(ContextGlobal, "q", ActionQuit)
	r.Register(ContextGlobal, "tab", ActionSwitchFocus)
	r.Register(ContextGlobal, "L", ActionLoadStudy)
	r.Register(ContextGlobal, "E", ActionVerifyPeers)
	r.Register(ContextGlobal, "S", ActionToggleScp)
	r.Register(ContextGlobal, "W", ActionNextEndpoint)
	r.Register(ContextGlobal, "X", ActionClearHistory)
}

func registerViewerBindings(r *Registry) {
	r.RegisterMultiple(ContextViewer, []string{"n", "down", "j"}, ActionNextInstance)
	r.RegisterMultiple(ContextViewer, []string{"p", "up", "k"}, ActionPrevInstance)
	r.RegisterMultiple(ContextViewer, []string{"N", "right", "l"}, ActionNextSeries)
	r.RegisterMultiple(ContextViewer, []string{"P", "left", "h"}, ActionPrevSeries)
	r.Register(ContextViewer, "gg", ActionFirstInstance)
	r.Register(ContextViewer, "home", ActionFirstInstance)
	r.RegisterMultiple(ContextViewer, []string{"G", "end"}, ActionLastInstance)
	r.Register(ContextViewer, "]", ActionNextPreset)
	r.Register(ContextViewer, "[", ActionPrevPreset)
	r.Register(ContextViewer, "+", ActionWindowWider)
	r.Register(ContextViewer, "-", ActionWindowNarrower)
	r.Register(ContextViewer, ">", ActionWindowBrighter)
	r.Register(ContextViewer, "<", ActionWindowDarker)
}

func registerTagBindings(r *Registry) {
	r.RegisterMultiple(ContextTags, []string{"up", "k"}, ActionTagUp)
	r.RegisterMultiple(ContextTags, []string{"down", "j"}, ActionTagDown)
	r.Register(ContextTags, "/", ActionSearch)
	r.RegisterMultiple(ContextTags, []string{" ", "space"}, ActionToggleSelect)
	r.Register(ContextTags, "esc", ActionClearSelection)
	r.RegisterMultiple(ContextTags, []string{"e", "enter"}, ActionEditValue)
	r.Register(ContextTags, "y", ActionCopyValue)
	r.Register(ContextTags, "w", ActionCommitEdits)
	r.Register(ContextTags, "u", ActionDiscardEdits)
	r.Register(ContextTags, "a", ActionCycleTemplate)
}

func registerInputBindings(r *Registry) {
	r.Register(ContextInput, "enter", ActionInputSubmit)
	r.Register(ContextInput, "esc", ActionInputCancel)
}

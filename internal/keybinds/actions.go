package keybinds

// Action represents a user action that can be triggered by a keybinding
type Action string

// Context represents the context in which keybindings are active
type Context string

const (
	ContextGlobal Context = "global" // Available everywhere
	ContextViewer Context = "viewer" // Image panel focused
	ContextTags   Context = "tags"   // Tag panel focused
	ContextInput  Context = "input"  // Search or value input
)

const (
	// Global actions
	ActionQuit         Action = "quit"
	ActionQuitForce    Action = "quit_force"
	ActionSwitchFocus  Action = "switch_focus"
	ActionLoadStudy    Action = "load_study"
	ActionVerifyPeers  Action = "verify_peers"
	ActionToggleScp    Action = "toggle_scp"
	ActionNextEndpoint Action = "next_endpoint"
	ActionClearHistory Action = "clear_history"

	// Viewer actions
	ActionNextInstance   Action = "next_instance"
	ActionPrevInstance   Action = "prev_instance"
	ActionNextSeries     Action = "next_series"
	ActionPrevSeries     Action = "prev_series"
	ActionFirstInstance  Action = "first_instance"
	ActionLastInstance   Action = "last_instance"
	ActionNextPreset     Action = "next_preset"
	ActionPrevPreset     Action = "prev_preset"
	ActionWindowWider    Action = "window_wider"
	ActionWindowNarrower Action = "window_narrower"
	ActionWindowBrighter Action = "window_brighter"
	ActionWindowDarker   Action = "window_darker"

	// Tag panel actions
	ActionTagUp          Action = "tag_up"
	ActionTagDown        Action = "tag_down"
	ActionSearch         Action = "search"
	ActionToggleSelect   Action = "toggle_select"
	ActionClearSelection Action = "clear_selection"
	ActionEditValue      Action = "edit_value"
	ActionCopyValue      Action = "copy_value"
	ActionCommitEdits    Action = "commit_edits"
	ActionDiscardEdits   Action = "discard_edits"
	ActionCycleTemplate  Action = "cycle_template"

	// Input actions
	ActionInputSubmit Action = "input_submit"
	ActionInputCancel Action = "input_cancel"
)

// knownActions lists every action a user may bind
var knownActions = map[Action]struct{}{
	ActionQuit: {}, ActionQuitForce: {}, ActionSwitchFocus: {}, ActionLoadStudy: {},
	ActionVerifyPeers: {}, ActionToggleScp: {}, ActionNextEndpoint: {}, ActionClearHistory: {},
	ActionNextInstance: {}, ActionPrevInstance: {}, ActionNextSeries: {}, ActionPrevSeries: {},
	ActionFirstInstance: {}, ActionLastInstance: {},
	ActionNextPreset: {}, ActionPrevPreset: {},
	ActionWindowWider: {}, ActionWindowNarrower: {}, ActionWindowBrighter: {}, ActionWindowDarker: {},
	ActionTagUp: {}, ActionTagDown: {}, ActionSearch: {}, ActionToggleSelect: {},
	ActionClearSelection: {}, ActionEditValue: {}, ActionCopyValue: {},
	ActionCommitEdits: {}, ActionDiscardEdits: {}, ActionCycleTemplate: {},
	ActionInputSubmit: {}, ActionInputCancel: {},
}

// Known reports whether a is a bindable action
func Known(a Action) bool {
	_, ok := knownActions[a]
	return ok
}

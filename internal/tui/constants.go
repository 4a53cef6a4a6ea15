package tui

// UI Layout Constants
const (
	HeaderHeight       = 1
	StatusBarHeight    = 2  // message line + key hints
	PanelBorderWidth   = 2  // Width consumed by rounded borders
	HistoryPanelHeight = 8  // History rows including border and title
	ViewerPanelPercent = 55 // Share of the width given to the viewer
	MinPreviewWidth    = 16
	MaxPreviewWidth    = 64

	// previewRamp maps dark to bright for the text preview
	previewRamp = " .:-=+*#%@"
)

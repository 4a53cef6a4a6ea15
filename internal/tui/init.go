package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/studiowebux/dicomkit/internal/app"
	"github.com/studiowebux/dicomkit/internal/keybinds"
)

// Run starts the TUI and blocks until the user quits
func Run(a *app.App, keys *keybinds.Registry, opts ...Option) error {
	m := New(a, keys, opts...)
	defer m.Close()

	// Note: Mouse is disabled by default in bubbletea
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}

	return nil
}

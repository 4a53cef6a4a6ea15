package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/studiowebux/dicomkit/internal/app"
	"github.com/studiowebux/dicomkit/internal/clock"
	"github.com/studiowebux/dicomkit/internal/config"
	"github.com/studiowebux/dicomkit/internal/simulate"
)

// CreateTestModel creates a Model over a fresh app with a manual clock
func CreateTestModel(t *testing.T) (*Model, *app.App, *clock.Manual) {
	t.Helper()
	return CreateTestModelWithConfig(t, config.Default())
}

// CreateTestModelWithConfig creates a Model over an app built from cfg, with
// the simulated collaborator attached
func CreateTestModelWithConfig(t *testing.T, cfg *config.Config) (*Model, *app.App, *clock.Manual) {
	t.Helper()

	clk := clock.NewManual(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	a, err := app.New(cfg, nil, clk)
	if err != nil {
		t.Fatalf("Failed to create app: %v", err)
	}
	t.Cleanup(a.Close)

	m := New(a, nil, WithSimulator(simulate.New(a), simulate.DefaultStudyRequest(), false))
	t.Cleanup(m.Close)
	m.Update(tea.WindowSizeMsg{Width: 160, Height: 48})

	return m, a, clk
}

// Sync applies pending container changes the way the program loop would
func Sync(m *Model) {
	m.Update(stateChangedMsg{})
}

// PressKey sends a key by its bubbletea name and runs the resulting command
// when it is synchronous enough to matter for tests
func PressKey(m *Model, key string) tea.Cmd {
	_, cmd := m.Update(keyMsg(key))
	return cmd
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

// AssertModelField is a generic helper for checking model field values
func AssertModelField[T comparable](t *testing.T, fieldName string, got, want T) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %v, want %v", fieldName, got, want)
	}
}

// AssertNoError verifies that an error is nil
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

// AssertError verifies that an error occurred
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Error("Expected error but got nil")
	}
}

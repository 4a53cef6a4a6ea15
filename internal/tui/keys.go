package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/studiowebux/dicomkit/internal/keybinds"
)

// handleKeyPress routes key presses based on current mode
func (m *Model) handleKeyPress(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()

	// Force quit works in every mode
	if action, ok := m.keys.MatchExact(keybinds.ContextGlobal, key); ok && action == keybinds.ActionQuitForce {
		m.Close()
		return tea.Quit
	}

	if m.mode != ModeNormal {
		return m.handleInputKeys(msg)
	}

	context := m.keyContext()
	action, ok, partial := m.keys.MatchMultiKey(context, key)
	if partial || !ok {
		return nil
	}
	return m.dispatch(action)
}

// keyContext maps the focused panel to its keybinding context
func (m *Model) keyContext() keybinds.Context {
	if m.focusedPanel == panelTags {
		return keybinds.ContextTags
	}
	return keybinds.ContextViewer
}

// dispatch performs a normal-mode action
func (m *Model) dispatch(action keybinds.Action) tea.Cmd {
	switch action {
	case keybinds.ActionQuit, keybinds.ActionQuitForce:
		m.Close()
		return tea.Quit
	case keybinds.ActionSwitchFocus:
		if m.focusedPanel == panelViewer {
			m.focusedPanel = panelTags
		} else {
			m.focusedPanel = panelViewer
		}
		m.keys.ClearPending(keybinds.ContextViewer)
		return nil
	case keybinds.ActionLoadStudy:
		return m.loadStudy()
	case keybinds.ActionVerifyPeers:
		return m.verifyPeers()
	case keybinds.ActionToggleScp:
		return m.toggleScp()
	case keybinds.ActionNextEndpoint:
		return m.nextEndpoint()
	case keybinds.ActionClearHistory:
		m.app.History.Clear()
		return nil

	// Viewer
	case keybinds.ActionNextInstance:
		return m.step(func() error { return m.app.Step(1) })
	case keybinds.ActionPrevInstance:
		return m.step(func() error { return m.app.Step(-1) })
	case keybinds.ActionNextSeries:
		return m.step(func() error { return m.app.StepSeries(1) })
	case keybinds.ActionPrevSeries:
		return m.step(func() error { return m.app.StepSeries(-1) })
	case keybinds.ActionFirstInstance:
		return m.firstOrLast(false)
	case keybinds.ActionLastInstance:
		return m.firstOrLast(true)
	case keybinds.ActionNextPreset:
		return m.cyclePreset(1)
	case keybinds.ActionPrevPreset:
		return m.cyclePreset(-1)
	case keybinds.ActionWindowWider:
		return m.adjustWindow(windowStep, 0)
	case keybinds.ActionWindowNarrower:
		return m.adjustWindow(1/windowStep, 0)
	case keybinds.ActionWindowBrighter:
		return m.adjustWindow(1, -0.1)
	case keybinds.ActionWindowDarker:
		return m.adjustWindow(1, 0.1)

	// Tags
	case keybinds.ActionTagUp:
		return m.moveTag(-1)
	case keybinds.ActionTagDown:
		return m.moveTag(1)
	case keybinds.ActionSearch:
		m.beginInput(ModeSearch, m.edits.SearchQuery, "/ ")
		return nil
	case keybinds.ActionToggleSelect:
		return m.toggleSelect()
	case keybinds.ActionClearSelection:
		m.app.Tags.ClearSelection()
		return nil
	case keybinds.ActionEditValue:
		t, ok := m.currentTag()
		if !ok {
			return nil
		}
		value, _ := m.displayValue(t)
		m.beginInput(ModeEditValue, value, t.Name+": ")
		return nil
	case keybinds.ActionCopyValue:
		return m.copyValue()
	case keybinds.ActionCommitEdits:
		return m.commitEdits()
	case keybinds.ActionDiscardEdits:
		return m.discardEdits()
	case keybinds.ActionCycleTemplate:
		return m.cycleTemplate()
	}
	return nil
}

// beginInput switches to an input mode with the field prefilled
func (m *Model) beginInput(mode Mode, value, prompt string) {
	m.mode = mode
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *Model) endInput() {
	m.mode = ModeNormal
	m.input.Blur()
	m.input.SetValue("")
}

// handleInputKeys handles search and value editing
func (m *Model) handleInputKeys(msg tea.KeyMsg) tea.Cmd {
	action, ok := m.keys.MatchExact(keybinds.ContextInput, msg.String())
	if ok {
		switch action {
		case keybinds.ActionInputSubmit:
			return m.submitInput()
		case keybinds.ActionInputCancel:
			if m.mode == ModeSearch {
				m.app.Tags.SetSearchQuery("")
			}
			m.endInput()
			return nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.mode == ModeSearch {
		// live filtering
		m.app.Tags.SetSearchQuery(m.input.Value())
		m.tagIndex = 0
	}
	return cmd
}

func (m *Model) submitInput() tea.Cmd {
	value := m.input.Value()
	mode := m.mode
	m.endInput()

	switch mode {
	case ModeSearch:
		m.app.Tags.SetSearchQuery(value)
	case ModeEditValue:
		t, ok := m.currentTag()
		if !ok {
			return nil
		}
		if err := m.app.Tags.SetTagValue(t.ID, value); err != nil {
			return errorCmd(describeError(err))
		}
	}
	return nil
}

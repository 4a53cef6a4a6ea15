package tui

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/studiowebux/dicomkit/internal/anonymize"
	"github.com/studiowebux/dicomkit/internal/types"
)

// windowStep scales width and shifts center for the window adjust keys
const windowStep = 1.25

// loadStudy runs the simulated retrieve in the background
func (m *Model) loadStudy() tea.Cmd {
	if m.sim == nil {
		return func() tea.Msg { return errorMsg("No collaborator attached (start with --demo)") }
	}
	sim, req := m.sim, m.request
	return func() tea.Msg {
		_, err := sim.LoadStudy(context.Background(), req)
		return operationDoneMsg{operation: "load", err: err}
	}
}

// verifyPeers echoes every configured peer in the background
func (m *Model) verifyPeers() tea.Cmd {
	if m.sim == nil {
		return func() tea.Msg { return errorMsg("No collaborator attached (start with --demo)") }
	}
	sim := m.sim
	return func() tea.Msg {
		return operationDoneMsg{operation: "verify", err: sim.Verify(context.Background())}
	}
}

// decode asks the collaborator for the image under the cursor as it is now.
// Navigation itself leaves the image empty until this returns; a result for a
// cursor that has since moved is rejected by the navigator.
func (m *Model) decode() tea.Cmd {
	c := m.app.Study.State().Cursor
	if m.sim == nil || c == nil {
		return nil
	}
	sim, cursor := m.sim, *c
	return func() tea.Msg {
		return decodedMsg{err: sim.DecodeCursor(cursor)}
	}
}

// step moves the cursor and requests a decode
func (m *Model) step(move func() error) tea.Cmd {
	if err := move(); err != nil {
		m.errorMsg = describeError(err)
		return nil
	}
	m.errorMsg = ""
	return m.decode()
}

// firstOrLast jumps to the first or last instance of the current series
func (m *Model) firstOrLast(last bool) tea.Cmd {
	return m.step(func() error {
		st := m.app.Study.State()
		if st.Cursor == nil {
			return m.app.Step(0)
		}
		series := st.Study.Series[st.Study.FindSeries(st.Cursor.SeriesInstanceUID)]
		inst := series.Instances[0]
		if last {
			inst = series.Instances[len(series.Instances)-1]
		}
		return m.app.NavigateTo(series.SeriesInstanceUID, inst.SOPInstanceUID)
	})
}

// cyclePreset applies the next or previous preset for the study's modality
func (m *Model) cyclePreset(delta int) tea.Cmd {
	m.presetIndex += delta
	if err := m.app.ApplyPreset(m.presetIndex); err != nil {
		m.presetIndex -= delta
		m.errorMsg = describeError(err)
		return nil
	}
	m.errorMsg = ""
	return nil
}

// adjustWindow scales the width by widthFactor and moves the center by
// centerShift widths
func (m *Model) adjustWindow(widthFactor, centerShift float64) tea.Cmd {
	w := m.study.Window
	width := max(1, w.Width*widthFactor)
	center := w.Center + centerShift*w.Width
	if err := m.app.Study.SetWindow(center, width); err != nil {
		m.errorMsg = describeError(err)
	}
	return nil
}

// toggleScp flips the listener status
func (m *Model) toggleScp() tea.Cmd {
	running := !m.connection.ScpRunning
	m.app.Connection.SetScpRunning(running)
	if running {
		return statusCmd(fmt.Sprintf("SCP listening as %s on port %d", m.connection.Scp.AETitle, m.connection.Scp.Port))
	}
	return statusCmd("SCP stopped")
}

// nextEndpoint activates the web endpoint after the current one, or clears the
// selection after the last
func (m *Model) nextEndpoint() tea.Cmd {
	eps := m.connection.WebEndpoints
	if len(eps) == 0 {
		return errorCmd("No web endpoints configured")
	}

	next := 0
	for i, ep := range eps {
		if ep.BaseURL == m.connection.ActiveWebEndpoint {
			next = i + 1
			break
		}
	}
	if next >= len(eps) {
		m.app.Connection.ClearActiveWebServiceEndpoint()
		return statusCmd("No active endpoint")
	}
	if err := m.app.Connection.SetActiveWebServiceEndpoint(eps[next].BaseURL); err != nil {
		return errorCmd(describeError(err))
	}
	return statusCmd("Active endpoint: " + endpointLabel(eps[next]))
}

// moveTag moves the tag cursor within the visible tags
func (m *Model) moveTag(delta int) tea.Cmd {
	n := len(m.visibleTags())
	if n == 0 {
		return nil
	}
	m.tagIndex = min(max(m.tagIndex+delta, 0), n-1)
	return nil
}

func (m *Model) toggleSelect() tea.Cmd {
	t, ok := m.currentTag()
	if !ok {
		return nil
	}
	if err := m.app.Tags.ToggleSelection(t.ID); err != nil {
		return errorCmd(describeError(err))
	}
	return nil
}

// copyValue copies the value under the cursor to the system clipboard
func (m *Model) copyValue() tea.Cmd {
	t, ok := m.currentTag()
	if !ok {
		return nil
	}
	value, _ := m.displayValue(t)
	return func() tea.Msg {
		if err := clipboard.WriteAll(value); err != nil {
			return errorMsg(fmt.Sprintf("Failed to copy: %v", err))
		}
		return statusMsg(fmt.Sprintf("Copied %s", t.Name))
	}
}

// commitEdits hands the staged values to the save collaborator, which for now
// is the log
func (m *Model) commitEdits() tea.Cmd {
	changes := m.app.Tags.Commit()
	if len(changes) == 0 {
		return statusCmd("No pending changes")
	}

	ids := make([]string, 0, len(changes))
	for id := range changes {
		ids = append(ids, types.FormatTag(id))
	}
	m.app.Logger.Info("tag changes committed", "count", len(changes), "tags", ids)
	return statusCmd(fmt.Sprintf("Committed %d change(s)", len(changes)))
}

func (m *Model) discardEdits() tea.Cmd {
	m.app.Tags.Discard()
	return statusCmd("Changes discarded")
}

// cycleTemplate stages the next built-in anonymization template, passing
// through "none" after the last
func (m *Model) cycleTemplate() tea.Cmd {
	templates := anonymize.Builtin()
	m.templateIndex = (m.templateIndex + 1) % (len(templates) + 1)
	if m.templateIndex == 0 {
		m.app.Tags.ClearTemplate()
		return statusCmd("Anonymization template cleared")
	}
	t := templates[m.templateIndex-1]
	m.app.Tags.StageTemplate(t)
	return statusCmd(fmt.Sprintf("Staged template %s (%d rules)", t.Name, len(t.Rules)))
}

func statusCmd(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg(text) }
}

func errorCmd(text string) tea.Cmd {
	return func() tea.Msg { return errorMsg(text) }
}

func endpointLabel(ep types.WebServiceEndpoint) string {
	if ep.Name != "" {
		return ep.Name
	}
	return ep.BaseURL
}

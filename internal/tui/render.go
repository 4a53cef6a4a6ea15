package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/studiowebux/dicomkit/internal/keybinds"
	"github.com/studiowebux/dicomkit/internal/types"
)

// Adaptive color definitions for light/dark terminal support
var (
	colorGreen  = lipgloss.AdaptiveColor{Light: "#006400", Dark: "#00ff00"}
	colorRed    = lipgloss.AdaptiveColor{Light: "#8b0000", Dark: "#ff0000"}
	colorYellow = lipgloss.AdaptiveColor{Light: "#b8860b", Dark: "#ffff00"}
	colorGray   = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#888888"}
	colorCyan   = lipgloss.AdaptiveColor{Light: "#008b8b", Dark: "#00ffff"}
)

// Style definitions
var (
	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	styleSelected = lipgloss.NewStyle().
			Background(lipgloss.AdaptiveColor{Light: "#d3d3d3", Dark: "#3a3a3a"}).
			Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"})

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorGreen)

	styleError = lipgloss.NewStyle().
			Foreground(colorRed)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorYellow)

	styleSubtle = lipgloss.NewStyle().
			Foreground(colorGray)
)

// renderMain renders header, viewer and tag panels, history and status bar
func (m *Model) renderMain() string {
	viewerWidth := m.width * ViewerPanelPercent / 100
	tagsWidth := m.width - viewerWidth
	panelHeight := max(3, m.height-HeaderHeight-StatusBarHeight-HistoryPanelHeight)

	viewer := m.panel(m.renderViewer(viewerWidth-PanelBorderWidth, panelHeight-PanelBorderWidth),
		viewerWidth, panelHeight, m.focusedPanel == panelViewer)
	tags := m.panel(m.renderTags(tagsWidth-PanelBorderWidth, panelHeight-PanelBorderWidth),
		tagsWidth, panelHeight, m.focusedPanel == panelTags)
	history := m.panel(m.renderHistory(HistoryPanelHeight-PanelBorderWidth),
		m.width, HistoryPanelHeight, false)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		lipgloss.JoinHorizontal(lipgloss.Top, viewer, tags),
		history,
		m.renderStatusBar(),
	)
}

// panel draws a rounded border, green when focused
func (m *Model) panel(content string, width, height int, focused bool) string {
	border := colorGray
	if focused {
		border = colorGreen
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(max(1, width-PanelBorderWidth)).
		Height(max(1, height-PanelBorderWidth)).
		Render(content)
}

func (m *Model) renderHeader() string {
	title := styleTitle.Render("dicomkit")
	if m.version != "" {
		title += styleSubtle.Render(" " + m.version)
	}

	scp := styleSubtle.Render("SCP stopped")
	if m.connection.ScpRunning {
		scp = styleSuccess.Render(fmt.Sprintf("SCP %s:%d", m.connection.Scp.AETitle, m.connection.Scp.Port))
	}

	endpoint := "no endpoint"
	for _, ep := range m.connection.WebEndpoints {
		if ep.BaseURL == m.connection.ActiveWebEndpoint {
			endpoint = endpointLabel(ep)
		}
	}

	return strings.Join([]string{
		title,
		scp,
		styleSubtle.Render(fmt.Sprintf("%d peer(s)", len(m.connection.Peers))),
		styleSubtle.Render(endpoint),
	}, "  |  ")
}

// renderViewer shows study metadata, cursor position, window and a preview
func (m *Model) renderViewer(width, height int) string {
	if !m.study.Loaded() {
		hint := m.keys.GetBindingString(keybinds.ContextViewer, keybinds.ActionLoadStudy)
		return styleSubtle.Render(fmt.Sprintf("No study loaded. Press %s to load one.", hint))
	}

	s := m.study.Study
	var b strings.Builder
	b.WriteString(styleTitle.Render(orDash(s.PatientName)) + "  " + styleSubtle.Render(orDash(s.PatientID)) + "\n")
	b.WriteString(fmt.Sprintf("%s  %s  %s\n", orDash(s.StudyDate), orDash(s.Modality), orDash(s.Description)))

	if c := m.study.Cursor; c != nil {
		si := s.FindSeries(c.SeriesInstanceUID)
		series := s.Series[si]
		ii := series.FindInstance(c.SOPInstanceUID)
		b.WriteString(fmt.Sprintf("Series %d/%d %s  Image %d/%d\n",
			si+1, len(s.Series), series.Description, ii+1, len(series.Instances)))
	} else {
		b.WriteString(styleWarning.Render("Study has no instances") + "\n")
	}

	w := m.study.Window
	b.WriteString(fmt.Sprintf("W %.0f  C %.0f\n", w.Width, w.Center))

	previewHeight := height - 4
	switch {
	case m.study.Image != nil:
		b.WriteString(renderPreview(*m.study.Image, w, width, previewHeight))
	case m.study.Cursor != nil:
		b.WriteString(styleSubtle.Render("Decoding..."))
	}
	return b.String()
}

// renderPreview draws the image as text, applying the display window
func renderPreview(img types.ImageData, w types.WindowSetting, width, height int) string {
	if img.Width == 0 || img.Height == 0 || len(img.Pixels) < img.Width*img.Height || height <= 0 {
		return ""
	}

	cols := min(max(width, MinPreviewWidth), MaxPreviewWidth, img.Width)
	// terminal cells are roughly twice as tall as wide
	rows := min(height, max(1, cols*img.Height/img.Width/2))

	low := w.Center - w.Width/2
	ramp := []rune(previewRamp)

	var b strings.Builder
	for r := 0; r < rows; r++ {
		y := r * img.Height / rows
		for c := 0; c < cols; c++ {
			x := c * img.Width / cols
			v := (float64(img.Pixels[y*img.Width+x]) - low) / w.Width
			v = min(max(v, 0), 1)
			b.WriteRune(ramp[int(v*float64(len(ramp)-1))])
		}
		if r < rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// renderTags lists the visible tags with selection and modification markers
func (m *Model) renderTags(width, height int) string {
	tags := m.visibleTags()

	title := fmt.Sprintf("Tags %d/%d", len(tags), len(m.edits.Tags))
	if m.edits.SearchQuery != "" {
		title += "  /" + m.edits.SearchQuery
	}
	if n := len(m.edits.Modified); n > 0 {
		title += styleWarning.Render(fmt.Sprintf("  %d modified", n))
	}
	if n := len(m.edits.Selected); n > 0 {
		title += fmt.Sprintf("  %d selected", n)
	}
	if t := m.edits.Anonymization; t != nil {
		title += styleWarning.Render("  template " + t.Name)
	}

	lines := make([]string, 0, len(tags))
	for i, t := range tags {
		marker := "  "
		if _, ok := m.edits.Selected[t.ID]; ok {
			marker = "* "
		}
		value, modified := m.displayValue(t)
		line := fmt.Sprintf("%s%s %-24s %s", marker, types.FormatTag(t.ID), truncate(t.Name, 24), value)
		line = truncate(line, width)
		switch {
		case i == m.tagIndex && m.focusedPanel == panelTags:
			line = styleSelected.Render(line)
		case modified:
			line = styleWarning.Render(line)
		case t.Private:
			line = styleSubtle.Render(line)
		}
		lines = append(lines, line)
	}

	m.tagView.Width = max(1, width)
	m.tagView.Height = max(1, height-1)
	m.tagView.SetContent(strings.Join(lines, "\n"))
	// keep the cursor row in view
	if m.tagIndex < m.tagView.YOffset {
		m.tagView.SetYOffset(m.tagIndex)
	} else if m.tagIndex >= m.tagView.YOffset+m.tagView.Height {
		m.tagView.SetYOffset(m.tagIndex - m.tagView.Height + 1)
	}

	return styleTitle.Render(title) + "\n" + m.tagView.View()
}

// renderHistory lists the most recent requests, newest first
func (m *Model) renderHistory(height int) string {
	lines := []string{styleTitle.Render(fmt.Sprintf("Requests (%d)", len(m.requests)))}
	for i, r := range m.requests {
		if i >= height-1 {
			break
		}
		status := styleSuccess.Render("OK ")
		if r.Failed() {
			status = styleError.Render("ERR")
		}
		line := fmt.Sprintf("%s %s %-8s %-7s %6s %8s %s",
			r.Timestamp.Format("15:04:05"), status, r.Protocol, r.Operation,
			r.Duration.Round(time.Millisecond), humanize.Bytes(uint64(max(r.Bytes, 0))), r.Endpoint)
		if r.Error != "" {
			line += styleError.Render("  " + r.Error)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// renderStatusBar shows the loading state, local messages and key hints
func (m *Model) renderStatusBar() string {
	var status string
	switch {
	case m.mode != ModeNormal:
		status = m.input.View()
	case m.loading.Active && m.loading.Progress >= 0:
		status = m.progress.ViewAs(float64(m.loading.Progress)/100) + " " + m.loading.Message
	case m.loading.Active:
		status = styleWarning.Render(m.loading.Operation+"...") + " " + m.loading.Message
	case strings.HasPrefix(m.loading.Message, "Error: "):
		status = styleError.Render(m.loading.Message)
	case m.loading.Message != "":
		status = styleSuccess.Render(m.loading.Message)
	case m.errorMsg != "":
		status = styleError.Render(m.errorMsg)
	case m.statusMsg != "":
		status = m.statusMsg
	}

	return status + "\n" + styleSubtle.Render(m.keyHints())
}

// keyHints lists the main bindings for the focused panel
func (m *Model) keyHints() string {
	ctx := m.keyContext()
	actions := []keybinds.Action{keybinds.ActionNextInstance, keybinds.ActionNextSeries, keybinds.ActionNextPreset, keybinds.ActionLoadStudy}
	if ctx == keybinds.ContextTags {
		actions = []keybinds.Action{keybinds.ActionSearch, keybinds.ActionEditValue, keybinds.ActionToggleSelect, keybinds.ActionCopyValue, keybinds.ActionCycleTemplate}
	}
	actions = append(actions, keybinds.ActionSwitchFocus, keybinds.ActionQuit)

	hints := make([]string, 0, len(actions))
	for _, a := range actions {
		hints = append(hints, fmt.Sprintf("%s %s", m.keys.GetBindingString(ctx, a), strings.ReplaceAll(string(a), "_", " ")))
	}
	return strings.Join(hints, " | ")
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return string(r[:1])
	}
	return string(r[:n-1]) + "~"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

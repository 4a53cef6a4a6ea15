package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/studiowebux/dicomkit/internal/app"
	"github.com/studiowebux/dicomkit/internal/keybinds"
	"github.com/studiowebux/dicomkit/internal/simulate"
	"github.com/studiowebux/dicomkit/internal/study"
	"github.com/studiowebux/dicomkit/internal/types"
)

// Mode represents the current TUI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeSearch
	ModeEditValue
)

const (
	panelViewer = "viewer"
	panelTags   = "tags"
)

// Model represents the TUI state. It never mutates its snapshots directly:
// every change goes through the app containers and comes back as a
// stateChangedMsg.
type Model struct {
	app      *app.App
	keys     *keybinds.Registry
	sim      *simulate.Simulator
	request  simulate.StudyRequest
	autoLoad bool
	version  string

	changes     chan struct{}
	unsubscribe []func()

	// Snapshots refreshed on every change notification
	loading    types.LoadingState
	requests   []types.RequestRecord
	connection types.ConnectionState
	study      types.StudyState
	edits      types.TagEditState
	settings   types.Settings

	mode          Mode
	focusedPanel  string
	tagIndex      int
	presetIndex   int
	templateIndex int // 0 = none, i = anonymize.Builtin()[i-1]

	input    textinput.Model
	progress progress.Model
	tagView  viewport.Model

	width     int
	height    int
	statusMsg string
	errorMsg  string
}

// Option configures a Model
type Option func(*Model)

// WithSimulator attaches the simulated collaborator. With autoLoad the study is
// requested as soon as the program starts.
func WithSimulator(sim *simulate.Simulator, req simulate.StudyRequest, autoLoad bool) Option {
	return func(m *Model) {
		m.sim = sim
		m.request = req
		m.autoLoad = autoLoad
	}
}

// WithVersion sets the version shown in the header
func WithVersion(v string) Option {
	return func(m *Model) { m.version = v }
}

// stateChangedMsg is sent when any container notified since the last refresh
type stateChangedMsg struct{}

// operationDoneMsg reports the end of a collaborator command. Failures are
// already visible through the loading container.
type operationDoneMsg struct {
	operation string
	err       error
}

// decodedMsg reports the end of a decode
type decodedMsg struct{ err error }

type statusMsg string

type errorMsg string

// New creates a new TUI model subscribed to every container of a
func New(a *app.App, keys *keybinds.Registry, opts ...Option) *Model {
	if keys == nil {
		keys = keybinds.NewDefaultRegistry()
	}

	input := textinput.New()
	input.CharLimit = 256

	m := &Model{
		app:          a,
		keys:         keys,
		request:      simulate.DefaultStudyRequest(),
		changes:      make(chan struct{}, 1),
		mode:         ModeNormal,
		focusedPanel: panelViewer,
		input:        input,
		progress:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		tagView:      viewport.New(40, 10),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.unsubscribe = []func(){
		a.Loading.Subscribe(func(types.LoadingState) { m.notify() }),
		a.History.Subscribe(func([]types.RequestRecord) { m.notify() }),
		a.Connection.Subscribe(func(types.ConnectionState) { m.notify() }),
		a.Study.Subscribe(func(types.StudyState) { m.notify() }),
		a.Tags.Subscribe(func(types.TagEditState) { m.notify() }),
		a.Settings.Subscribe(func(types.Settings) { m.notify() }),
	}
	m.refresh()

	return m
}

// notify runs on the mutating goroutine and must not block it. One pending
// signal is enough because refresh reads every container.
func (m *Model) notify() {
	select {
	case m.changes <- struct{}{}:
	default:
	}
}

// waitForChange returns a Cmd that waits for the next container change
func (m *Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-m.changes; !ok {
			return nil
		}
		return stateChangedMsg{}
	}
}

// refresh copies the current state of every container
func (m *Model) refresh() {
	m.loading = m.app.Loading.State()
	m.requests = m.app.History.Records()
	m.connection = m.app.Connection.State()
	m.study = m.app.Study.State()
	m.edits = m.app.Tags.State()
	m.settings = m.app.Settings.Settings()

	if n := len(m.visibleTags()); m.tagIndex >= n {
		m.tagIndex = max(0, n-1)
	}
}

// Init initializes the TUI
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForChange(), textinput.Blink}
	if m.autoLoad && m.sim != nil {
		cmds = append(cmds, m.loadStudy())
	}
	return tea.Batch(cmds...)
}

// Close detaches the model from the containers. It is safe to call more than once.
func (m *Model) Close() {
	for _, unsub := range m.unsubscribe {
		unsub()
	}
	m.unsubscribe = nil
}

// Update handles messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(10, msg.Width/3)
		return m, nil

	case stateChangedMsg:
		m.refresh()
		return m, m.waitForChange()

	case operationDoneMsg:
		if msg.err != nil {
			m.app.Logger.Debug("operation ended", "operation", msg.operation, "error", msg.err)
		}
		return m, nil

	case decodedMsg:
		if msg.err != nil && !errors.Is(msg.err, study.ErrStaleImage) {
			m.errorMsg = describeError(msg.err)
		}
		return m, nil

	case statusMsg:
		m.statusMsg = string(msg)
		m.errorMsg = ""
		return m, nil

	case errorMsg:
		m.errorMsg = string(msg)
		m.statusMsg = ""
		return m, nil
	}

	return m, nil
}

// View renders the TUI
func (m *Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}
	return m.renderMain()
}

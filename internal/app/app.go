package app

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/studiowebux/dicomkit/internal/clock"
	"github.com/studiowebux/dicomkit/internal/config"
	"github.com/studiowebux/dicomkit/internal/connection"
	"github.com/studiowebux/dicomkit/internal/history"
	"github.com/studiowebux/dicomkit/internal/loading"
	"github.com/studiowebux/dicomkit/internal/logging"
	"github.com/studiowebux/dicomkit/internal/settings"
	"github.com/studiowebux/dicomkit/internal/study"
	"github.com/studiowebux/dicomkit/internal/tagedit"
	"github.com/studiowebux/dicomkit/internal/types"
)

// App holds one instance of every state container. It is built once at start-up
// and shared by reference between collaborators and views.
type App struct {
	Loading    *loading.Lifecycle
	History    *history.Requests
	Connection *connection.State
	Study      *study.Navigator
	Tags       *tagedit.Editor
	Settings   *settings.State

	Clock  clock.Clock
	Logger *slog.Logger

	// navMu makes a cursor change and the matching tag editor reset one step,
	// so the editor never holds tags of an instance other than the cursor's.
	navMu sync.Mutex

	unsubscribe []func()
}

// New builds the containers from cfg. A nil logger discards, a nil clock uses
// the wall clock.
func New(cfg *config.Config, logger *slog.Logger, clk clock.Clock) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	if clk == nil {
		clk = clock.Real{}
	}

	initialSettings, err := cfg.InitialSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	conn := connection.New(types.DefaultScpConfig)
	if err := conn.ReplaceScpConfig(cfg.Scp); err != nil {
		return nil, fmt.Errorf("failed to apply scp config: %w", err)
	}
	for _, peer := range cfg.Peers {
		conn.AddPeerEndpoint(peer)
	}
	for _, ep := range cfg.WebEndpoints {
		conn.AddWebServiceEndpoint(ep)
	}
	if cfg.ActiveWebEndpoint != "" {
		if err := conn.SetActiveWebServiceEndpoint(cfg.ActiveWebEndpoint); err != nil {
			return nil, fmt.Errorf("failed to activate endpoint: %w", err)
		}
	}

	a := &App{
		Loading: loading.New(
			loading.WithClock(clk),
			loading.WithDelays(cfg.Status.FinishClear, cfg.Status.ErrorClear),
			loading.WithLogger(logger.With("container", "loading")),
		),
		History:    history.NewRequests(cfg.History.MaxEntries, clk),
		Connection: conn,
		Study:      study.New(cfg.Viewer.DefaultWindow),
		Tags:       tagedit.New(),
		Settings:   settings.New(initialSettings),
		Clock:      clk,
		Logger:     logger,
	}

	a.watch()
	return a, nil
}

// watch logs every state change at debug level
func (a *App) watch() {
	log := a.Logger

	a.unsubscribe = append(a.unsubscribe,
		a.Loading.Subscribe(func(s types.LoadingState) {
			log.Debug("loading changed",
				"active", s.Active, "operation", s.Operation,
				"progress", s.Progress, "message", s.Message)
		}),
		a.History.Subscribe(func(records []types.RequestRecord) {
			if len(records) == 0 {
				log.Debug("request history cleared")
				return
			}
			r := records[0]
			attrs := []any{
				"entries", len(records), "protocol", r.Protocol,
				"operation", r.Operation, "endpoint", r.Endpoint, "duration", r.Duration,
			}
			if r.Failed() {
				log.Warn("request failed", append(attrs, "status", r.Status, "error", r.Error)...)
				return
			}
			log.Debug("request recorded", attrs...)
		}),
		a.Connection.Subscribe(func(s types.ConnectionState) {
			log.Debug("connection changed",
				"scp_running", s.ScpRunning, "ae_title", s.Scp.AETitle, "port", s.Scp.Port,
				"peers", len(s.Peers), "web_endpoints", len(s.WebEndpoints),
				"active", s.ActiveWebEndpoint)
		}),
		a.Study.Subscribe(func(s types.StudyState) {
			if !s.Loaded() {
				log.Debug("study unloaded")
				return
			}
			attrs := []any{
				"study", s.Study.StudyInstanceUID,
				"window_center", s.Window.Center, "window_width", s.Window.Width,
				"tags", len(s.Tags), "image", s.Image != nil,
			}
			if s.Cursor != nil {
				attrs = append(attrs, "series", s.Cursor.SeriesInstanceUID, "instance", s.Cursor.SOPInstanceUID)
			}
			log.Debug("study changed", attrs...)
		}),
		a.Tags.Subscribe(func(s types.TagEditState) {
			attrs := []any{
				"tags", len(s.Tags), "modified", len(s.Modified),
				"selected", len(s.Selected), "query", s.SearchQuery,
			}
			if s.Anonymization != nil {
				attrs = append(attrs, "template", s.Anonymization.Name)
			}
			log.Debug("tag edits changed", attrs...)
		}),
		a.Settings.Subscribe(func(s types.Settings) {
			log.Debug("settings changed",
				"workspace_mode", s.WorkspaceMode, "max_disk_usage", s.MaxDiskUsage,
				"thumbnail_size", s.ThumbnailSize, "interpolation", s.ImageInterpolation)
		}),
	)
}

// Close cancels pending timers and detaches the change loggers. It is safe to
// call more than once.
func (a *App) Close() {
	a.Loading.Stop()
	for _, unsub := range a.unsubscribe {
		unsub()
	}
	a.unsubscribe = nil
}

// LoadStudy replaces the loaded study and empties the tag editor until the
// first instance is decoded.
func (a *App) LoadStudy(s types.Study) error {
	a.navMu.Lock()
	defer a.navMu.Unlock()

	if err := a.Study.LoadStudy(s); err != nil {
		return err
	}
	a.Tags.LoadTags(nil)
	return nil
}

// ShowDecoded attaches image data and tags to the instance under the cursor and
// hands the tags to the editor. When the cursor has moved away from img neither
// container changes and the error wraps study.ErrStaleImage.
func (a *App) ShowDecoded(img types.ImageData, tags []types.Tag) error {
	a.navMu.Lock()
	defer a.navMu.Unlock()

	if err := a.Study.SetDecoded(img, tags); err != nil {
		return err
	}
	a.Tags.LoadTags(tags)
	return nil
}

// Step moves delta instances within the current series
func (a *App) Step(delta int) error {
	return a.navigate(func() error { return a.Study.Step(delta) })
}

// StepSeries moves delta series
func (a *App) StepSeries(delta int) error {
	return a.navigate(func() error { return a.Study.StepSeries(delta) })
}

// NavigateTo moves the cursor to the given instance
func (a *App) NavigateTo(seriesUID, instanceUID string) error {
	return a.navigate(func() error { return a.Study.NavigateTo(seriesUID, instanceUID) })
}

// navigate runs move and drops the editor's tags and pending edits when the
// cursor changed
func (a *App) navigate(move func() error) error {
	a.navMu.Lock()
	defer a.navMu.Unlock()

	before := a.Study.State().Cursor
	if err := move(); err != nil {
		return err
	}
	after := a.Study.State().Cursor
	if before == nil || after == nil || *before != *after {
		if n := len(a.Tags.State().Modified); n > 0 {
			a.Logger.Info("pending tag edits dropped on navigation", "count", n)
		}
		a.Tags.LoadTags(nil)
	}
	return nil
}

// ApplyPreset applies the index-th preset for the loaded study's modality,
// wrapping around the preset list.
func (a *App) ApplyPreset(index int) error {
	st := a.Study.State()
	if !st.Loaded() {
		return study.ErrNoStudy
	}
	presets := a.Settings.PresetsFor(st.Study.Modality)
	if len(presets) == 0 {
		return fmt.Errorf("no window presets for modality %q", st.Study.Modality)
	}
	index %= len(presets)
	if index < 0 {
		index += len(presets)
	}
	return a.Study.ApplyPreset(presets[index])
}

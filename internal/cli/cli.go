package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/studiowebux/dicomkit/internal/anonymize"
	"github.com/studiowebux/dicomkit/internal/app"
	"github.com/studiowebux/dicomkit/internal/keybinds"
	"github.com/studiowebux/dicomkit/internal/simulate"
	"github.com/studiowebux/dicomkit/internal/types"
)

// DemoOptions contains options for a headless simulated session
type DemoOptions struct {
	Request     simulate.StudyRequest
	Pace        time.Duration
	Concurrency int
	Verify      bool // echo configured peers after the load
	Browse      int  // instances to step through after the load
	Color       bool
}

// RunDemo drives the simulated collaborator against a and prints every
// loading and request change to w. It fails when the load fails.
func RunDemo(ctx context.Context, a *app.App, w io.Writer, opts DemoOptions) error {
	p := &printer{w: w, color: opts.Color}

	unsubLoading := a.Loading.Subscribe(p.loading)
	defer unsubLoading()
	unsubHistory := a.History.Subscribe(p.requests)
	defer unsubHistory()

	sim := simulate.New(a, simulate.WithPace(opts.Pace), simulate.WithConcurrency(opts.Concurrency))

	study, err := sim.LoadStudy(ctx, opts.Request)
	if err != nil {
		return fmt.Errorf("failed to load study: %w", err)
	}
	p.printf("\nStudy %s: %d series, %d instances\n", study.StudyInstanceUID, len(study.Series), study.InstanceCount())

	for i := 0; i < opts.Browse; i++ {
		if err := a.Step(1); err != nil {
			return err
		}
		if err := sim.Decode(); err != nil {
			return err
		}
		st := a.Study.State()
		p.printf("  viewing %s (%d tags)\n", st.Cursor.SOPInstanceUID, len(st.Tags))
	}

	if opts.Verify {
		if err := sim.Verify(ctx); err != nil {
			return fmt.Errorf("failed to verify peers: %w", err)
		}
	}
	return nil
}

// printer serializes output from subscribers running on transfer goroutines
type printer struct {
	mu          sync.Mutex
	w           io.Writer
	color       bool
	lastMessage string
	lastRequest string
}

func (p *printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format, args...)
}

func (p *printer) loading(s types.LoadingState) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s.Message == "" || s.Message == p.lastMessage {
		return
	}
	p.lastMessage = s.Message

	switch {
	case s.Active && s.Progress >= 0:
		fmt.Fprintf(p.w, "[%3d%%] %s\n", s.Progress, s.Message)
	case s.Active:
		fmt.Fprintf(p.w, "[....] %s\n", s.Message)
	case strings.HasPrefix(s.Message, "Error: "):
		fmt.Fprintf(p.w, "%s\n", p.paint(colorRed, s.Message))
	default:
		fmt.Fprintf(p.w, "%s\n", p.paint(colorGreen, s.Message))
	}
}

func (p *printer) requests(records []types.RequestRecord) {
	if len(records) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	r := records[0]
	if r.ID == p.lastRequest {
		return
	}
	p.lastRequest = r.ID
	fmt.Fprintf(p.w, "       %s %s %s %s\n",
		p.paint(getStatusColor(r), statusText(r)), r.Operation, r.Endpoint, humanize.IBytes(uint64(max(r.Bytes, 0))))
}

func (p *printer) paint(color, s string) string {
	if !p.color {
		return s
	}
	return color + s + colorReset
}

func statusText(r types.RequestRecord) string {
	switch {
	case r.Status != 0:
		return fmt.Sprint(r.Status)
	case r.Error != "":
		return "ERR"
	default:
		return "OK"
	}
}

// settingsView is the printable form of types.Settings
type settingsView struct {
	WorkspaceMode      bool                            `json:"workspace_mode" yaml:"workspace_mode"`
	AutoClearCache     bool                            `json:"auto_clear_cache" yaml:"auto_clear_cache"`
	MaxDiskUsage       string                          `json:"max_disk_usage" yaml:"max_disk_usage"`
	ThumbnailSize      int                             `json:"thumbnail_size" yaml:"thumbnail_size"`
	ImageInterpolation string                          `json:"image_interpolation" yaml:"image_interpolation"`
	WindowPresets      map[string][]types.WindowPreset `json:"window_presets" yaml:"window_presets"`
}

// PrintSettings writes the effective settings in format (text, json or yaml)
func PrintSettings(w io.Writer, s types.Settings, format string) error {
	view := settingsView{
		WorkspaceMode:      s.WorkspaceMode,
		AutoClearCache:     s.AutoClearCache,
		MaxDiskUsage:       humanize.IBytes(s.MaxDiskUsage),
		ThumbnailSize:      s.ThumbnailSize,
		ImageInterpolation: string(s.ImageInterpolation),
		WindowPresets:      s.DefaultWindowPresets,
	}

	return formatOutput(w, view, format, func(sb *strings.Builder) {
		fmt.Fprintf(sb, "Workspace mode:      %t\n", view.WorkspaceMode)
		fmt.Fprintf(sb, "Auto clear cache:    %t\n", view.AutoClearCache)
		fmt.Fprintf(sb, "Max disk usage:      %s\n", view.MaxDiskUsage)
		fmt.Fprintf(sb, "Thumbnail size:      %dpx\n", view.ThumbnailSize)
		fmt.Fprintf(sb, "Image interpolation: %s\n", view.ImageInterpolation)
		for _, modality := range sortedKeys(view.WindowPresets) {
			fmt.Fprintf(sb, "Window presets (%s):\n", modality)
			for _, preset := range view.WindowPresets[modality] {
				fmt.Fprintf(sb, "  %-12s C %6.0f  W %6.0f\n", preset.Name, preset.Center, preset.Width)
			}
		}
	})
}

type ruleView struct {
	Tag    string `json:"tag" yaml:"tag"`
	Name   string `json:"name" yaml:"name"`
	Action string `json:"action" yaml:"action"`
	Value  string `json:"value,omitempty" yaml:"value,omitempty"`
}

type templateView struct {
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Rules       []ruleView `json:"rules" yaml:"rules"`
}

// PrintTemplates writes the built-in anonymization templates in format
func PrintTemplates(w io.Writer, format string) error {
	var views []templateView
	for _, t := range anonymize.Builtin() {
		view := templateView{Name: t.Name, Description: t.Description}
		for _, r := range t.Rules {
			view.Rules = append(view.Rules, ruleView{
				Tag:    types.FormatTag(r.Tag),
				Name:   types.NewTag(r.Tag, "", "").Name,
				Action: string(r.Action),
				Value:  r.Value,
			})
		}
		views = append(views, view)
	}

	return formatOutput(w, views, format, func(sb *strings.Builder) {
		for i, t := range views {
			if i > 0 {
				sb.WriteString("\n")
			}
			fmt.Fprintf(sb, "%s - %s\n", t.Name, t.Description)
			for _, r := range t.Rules {
				line := fmt.Sprintf("  %s %-28s %s", r.Tag, r.Name, r.Action)
				if r.Value != "" {
					line += " " + r.Value
				}
				sb.WriteString(line + "\n")
			}
		}
	})
}

type bindingView struct {
	Context string `json:"context" yaml:"context"`
	Key     string `json:"key" yaml:"key"`
	Action  string `json:"action" yaml:"action"`
}

// PrintKeybinds writes every binding of registry grouped by context
func PrintKeybinds(w io.Writer, registry *keybinds.Registry, format string) error {
	var views []bindingView
	for _, ctx := range []keybinds.Context{keybinds.ContextGlobal, keybinds.ContextViewer, keybinds.ContextTags, keybinds.ContextInput} {
		for _, b := range registry.ListBindings(ctx) {
			if b.Context != ctx {
				continue
			}
			views = append(views, bindingView{Context: string(ctx), Key: b.Key, Action: string(b.Action)})
		}
	}

	return formatOutput(w, views, format, func(sb *strings.Builder) {
		current := ""
		for _, v := range views {
			if v.Context != current {
				if current != "" {
					sb.WriteString("\n")
				}
				current = v.Context
				fmt.Fprintf(sb, "[%s]\n", current)
			}
			key := v.Key
			if key == " " {
				key = "' '"
			}
			fmt.Fprintf(sb, "  %-10s %s\n", key, v.Action)
		}
	})
}

// formatOutput writes v as json or yaml, or calls text for anything else
func formatOutput(w io.Writer, v any, format string, text func(*strings.Builder)) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err

	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		_, err = w.Write(data)
		return err

	case "", "text":
		var sb strings.Builder
		text(&sb)
		_, err := io.WriteString(w, sb.String())
		return err

	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
}

// ANSI color codes
const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
)

func getStatusColor(r types.RequestRecord) string {
	switch {
	case r.Failed():
		return colorRed
	case r.Status == 0 || (r.Status >= 200 && r.Status < 300):
		return colorGreen
	}
	return colorYellow
}

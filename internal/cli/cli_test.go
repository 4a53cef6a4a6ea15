package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/studiowebux/dicomkit/internal/app"
	"github.com/studiowebux/dicomkit/internal/clock"
	"github.com/studiowebux/dicomkit/internal/config"
	"github.com/studiowebux/dicomkit/internal/keybinds"
	"github.com/studiowebux/dicomkit/internal/simulate"
	"github.com/studiowebux/dicomkit/internal/types"
)

func newApp(t *testing.T, cfg *config.Config) *app.App {
	t.Helper()
	a, err := app.New(cfg, nil, clock.NewManual(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestRunDemo_PrintsProgressAndSummary(t *testing.T) {
	cfg := config.Default()
	cfg.Peers = []types.PeerEndpoint{{AETitle: "PACS", Host: "pacs.local", Port: 104}}
	a := newApp(t, cfg)

	var out bytes.Buffer
	err := RunDemo(context.Background(), a, &out, DemoOptions{
		Request: simulate.DefaultStudyRequest(),
		Verify:  true,
		Browse:  2,
	})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "[....] Querying simulated")
	assert.Contains(t, text, "Loaded 36 instances (18 MiB)")
	assert.Contains(t, text, "3 series, 36 instances")
	assert.Equal(t, 2, strings.Count(text, "  viewing "))
	assert.Contains(t, text, "1 peers verified")
	assert.Contains(t, text, "C-ECHO PACS@pacs.local:104")
	assert.NotContains(t, text, colorGreen)
}

func TestRunDemo_FailedLoad(t *testing.T) {
	a := newApp(t, nil)

	req := simulate.DefaultStudyRequest()
	req.FailSeries = 1

	var out bytes.Buffer
	err := RunDemo(context.Background(), a, &out, DemoOptions{Request: req, Color: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, simulate.ErrTransferFailed)

	assert.Contains(t, out.String(), colorRed+"Error: ")
	assert.Contains(t, out.String(), colorRed+"503"+colorReset)
	assert.False(t, a.Study.State().Loaded())
}

func TestPrintSettings_Formats(t *testing.T) {
	s := types.DefaultSettings()

	var text bytes.Buffer
	require.NoError(t, PrintSettings(&text, s, "text"))
	assert.Contains(t, text.String(), "Max disk usage:      1.0 GiB")
	assert.Contains(t, text.String(), "Window presets (CT):")
	assert.Contains(t, text.String(), "Lung")

	var js bytes.Buffer
	require.NoError(t, PrintSettings(&js, s, "json"))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Equal(t, "1.0 GiB", decoded["max_disk_usage"])
	assert.Equal(t, "bilinear", decoded["image_interpolation"])

	var ym bytes.Buffer
	require.NoError(t, PrintSettings(&ym, s, "yaml"))
	var view settingsView
	require.NoError(t, yaml.Unmarshal(ym.Bytes(), &view))
	assert.Equal(t, 128, view.ThumbnailSize)
	assert.Len(t, view.WindowPresets["CT"], 3)

	assert.Error(t, PrintSettings(&text, s, "xml"))
}

func TestPrintTemplates(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, PrintTemplates(&out, "text"))

	text := out.String()
	assert.Contains(t, text, "Basic - Removes basic patient identifiers")
	assert.Contains(t, text, "(0010,0010)")
	assert.Contains(t, text, "ANONYMOUS")
	assert.Contains(t, text, "Research - ")

	var js bytes.Buffer
	require.NoError(t, PrintTemplates(&js, "json"))
	var views []templateView
	require.NoError(t, json.Unmarshal(js.Bytes(), &views))
	require.Len(t, views, 3)
	assert.Equal(t, "Full", views[1].Name)
	assert.Equal(t, "PatientName", views[0].Rules[0].Name)
}

func TestPrintKeybinds_IncludesOverrides(t *testing.T) {
	registry, err := keybinds.Load(keybinds.Overrides{"viewer": {"x": "next_instance", "n": ""}})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, PrintKeybinds(&out, registry, "text"))
	text := out.String()
	assert.Contains(t, text, "[global]")
	assert.Contains(t, text, "  ctrl+c     quit_force")
	assert.Contains(t, text, "  x          next_instance")
	assert.NotContains(t, text, "  n          next_instance")

	var js bytes.Buffer
	require.NoError(t, PrintKeybinds(&js, registry, "json"))
	var views []bindingView
	require.NoError(t, json.Unmarshal(js.Bytes(), &views))
	assert.Equal(t, "global", views[0].Context)
	for _, v := range views {
		if v.Context == "viewer" && v.Key == "gg" {
			assert.Equal(t, "first_instance", v.Action)
		}
	}
}

func TestGetStatusColor(t *testing.T) {
	assert.Equal(t, colorGreen, getStatusColor(types.RequestRecord{}))
	assert.Equal(t, colorGreen, getStatusColor(types.RequestRecord{Status: 200}))
	assert.Equal(t, colorYellow, getStatusColor(types.RequestRecord{Status: 304}))
	assert.Equal(t, colorRed, getStatusColor(types.RequestRecord{Status: 503}))
	assert.Equal(t, colorRed, getStatusColor(types.RequestRecord{Error: "refused"}))
}

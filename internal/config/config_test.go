package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiowebux/dicomkit/internal/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), FilePermissions))
	return path
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
status:
  finish_clear: 1s
history:
  max_entries: 10
scp:
  ae_title: MY_SCP
  port: 4242
peers:
  - name: PACS
    ae_title: ORTHANC
    host: pacs.local
    port: 4242
web_endpoints:
  - name: Orthanc
    base_url: http://localhost:8042/dicom-web
active_web_endpoint: http://localhost:8042/dicom-web
settings:
  max_disk_usage: 512 MiB
  image_interpolation: bicubic
keybinds:
  viewer:
    x: next_instance
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, time.Second, cfg.Status.FinishClear)
	assert.Equal(t, 5*time.Second, cfg.Status.ErrorClear)
	assert.Equal(t, 10, cfg.History.MaxEntries)
	assert.Equal(t, "MY_SCP", cfg.Scp.AETitle)
	assert.Equal(t, 16384, cfg.Scp.MaxPDUSize)
	require.Len(t, cfg.Peers, 1)
	assert.Equal(t, "ORTHANC@pacs.local:4242", cfg.Peers[0].Key())

	assert.Equal(t, "next_instance", cfg.Keybinds["viewer"]["x"])

	s, err := cfg.InitialSettings()
	require.NoError(t, err)
	assert.Equal(t, uint64(512<<20), s.MaxDiskUsage)
	assert.Equal(t, types.InterpolationBicubic, s.ImageInterpolation)
	assert.True(t, s.WorkspaceMode)
	assert.Len(t, s.DefaultWindowPresets["CT"], 3)
}

func TestInitialSettings_PresetKeysAreUpperCased(t *testing.T) {
	path := writeConfig(t, `
settings:
  window_presets:
    mr:
      - name: Brain
        center: 600
        width: 1200
    ct:
      - name: Soft
        center: 50
        width: 350
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	s, err := cfg.InitialSettings()
	require.NoError(t, err)

	assert.NotContains(t, s.DefaultWindowPresets, "mr")
	assert.NotContains(t, s.DefaultWindowPresets, "ct")
	require.Len(t, s.DefaultWindowPresets["MR"], 1)
	assert.Equal(t, "Brain", s.DefaultWindowPresets["MR"][0].Name)
	require.Len(t, s.DefaultWindowPresets["CT"], 1, "lower-case key replaces the default entry")
	assert.Equal(t, "Soft", s.DefaultWindowPresets["CT"][0].Name)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "log: [unterminated"},
		{"bad level", "log:\n  level: loud\n"},
		{"bad port", "scp:\n  port: 70000\n"},
		{"bad disk size", "settings:\n  max_disk_usage: lots\n"},
		{"bad interpolation", "settings:\n  image_interpolation: lanczos\n"},
		{"zero window width", "viewer:\n  default_window:\n    center: 40\n    width: 0\n"},
		{"bad endpoint url", "web_endpoints:\n  - base_url: not a url\n"},
		{"unknown active endpoint", "active_web_endpoint: http://nowhere\n"},
		{"unknown key action", "keybinds:\n  viewer:\n    x: explode\n"},
		{"empty preset name", "settings:\n  window_presets:\n    MR:\n      - center: 1\n        width: 2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestDefault_SettingsRoundTrip(t *testing.T) {
	s, err := Default().InitialSettings()
	require.NoError(t, err)
	assert.Equal(t, types.DefaultSettings(), s)
}

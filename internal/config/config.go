package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/studiowebux/dicomkit/internal/history"
	"github.com/studiowebux/dicomkit/internal/keybinds"
	"github.com/studiowebux/dicomkit/internal/loading"
	"github.com/studiowebux/dicomkit/internal/types"
)

const (
	// FilePermissions is the default permission mode for regular files (read/write for owner, read for others)
	FilePermissions = 0644
	// DirPermissions is the default permission mode for directories (rwxr-xr-x)
	DirPermissions = 0755

	localConfigFile = ".dicomkit.yaml"
)

var (
	// ConfigDir is the global configuration directory (~/.dicomkit)
	ConfigDir string

	// ConfigFile is the global configuration file
	ConfigFile string

	// LogFile receives logs while the terminal view owns the screen
	LogFile string
)

// Config is the start-up configuration. It seeds the initial state and is never
// written back.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Status   StatusConfig   `yaml:"status"`
	History  HistoryConfig  `yaml:"history"`
	Viewer   ViewerConfig   `yaml:"viewer"`
	Settings SettingsConfig `yaml:"settings"`

	Scp               types.ScpConfig            `yaml:"scp"`
	Peers             []types.PeerEndpoint       `yaml:"peers" validate:"dive"`
	WebEndpoints      []types.WebServiceEndpoint `yaml:"web_endpoints" validate:"dive"`
	ActiveWebEndpoint string                     `yaml:"active_web_endpoint"`

	Keybinds keybinds.Overrides `yaml:"keybinds"`
}

// LogConfig selects log verbosity and encoding
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// StatusConfig controls how long status messages stay visible
type StatusConfig struct {
	FinishClear time.Duration `yaml:"finish_clear" validate:"gt=0"`
	ErrorClear  time.Duration `yaml:"error_clear" validate:"gt=0"`
}

// HistoryConfig bounds the request history
type HistoryConfig struct {
	MaxEntries int `yaml:"max_entries" validate:"gte=1,lte=10000"`
}

// ViewerConfig holds viewer defaults
type ViewerConfig struct {
	DefaultWindow types.WindowSetting `yaml:"default_window"`
}

// SettingsConfig seeds the user preferences
type SettingsConfig struct {
	WorkspaceMode      bool                            `yaml:"workspace_mode"`
	AutoClearCache     bool                            `yaml:"auto_clear_cache"`
	MaxDiskUsage       string                          `yaml:"max_disk_usage" validate:"required"`
	ThumbnailSize      int                             `yaml:"thumbnail_size" validate:"gt=0"`
	ImageInterpolation string                          `yaml:"image_interpolation" validate:"oneof=nearest bilinear bicubic"`
	WindowPresets      map[string][]types.WindowPreset `yaml:"window_presets" validate:"dive,dive"`
}

var validate = validator.New()

// Initialize sets up the configuration paths
// It creates ~/.dicomkit/ if it doesn't exist
func Initialize() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	ConfigDir = filepath.Join(homeDir, ".dicomkit")
	ConfigFile = filepath.Join(ConfigDir, "config.yaml")
	LogFile = filepath.Join(ConfigDir, "dicomkit.log")

	if err := os.MkdirAll(ConfigDir, DirPermissions); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", ConfigDir, err)
	}

	return nil
}

// GetConfigFilePath returns the config file path (local or global)
func GetConfigFilePath() string {
	if _, err := os.Stat(localConfigFile); err == nil {
		return localConfigFile
	}
	return ConfigFile
}

// Default returns the built-in configuration
func Default() *Config {
	defaults := types.DefaultSettings()
	presets := make(map[string][]types.WindowPreset, len(defaults.DefaultWindowPresets))
	for k, v := range defaults.DefaultWindowPresets {
		presets[k] = append([]types.WindowPreset(nil), v...)
	}

	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Status: StatusConfig{
			FinishClear: loading.DefaultFinishClearDelay,
			ErrorClear:  loading.DefaultErrorClearDelay,
		},
		History: HistoryConfig{MaxEntries: history.DefaultMaxHistory},
		Viewer:  ViewerConfig{DefaultWindow: types.DefaultWindow},
		Settings: SettingsConfig{
			WorkspaceMode:      defaults.WorkspaceMode,
			AutoClearCache:     defaults.AutoClearCache,
			MaxDiskUsage:       humanize.IBytes(defaults.MaxDiskUsage),
			ThumbnailSize:      defaults.ThumbnailSize,
			ImageInterpolation: string(defaults.ImageInterpolation),
			WindowPresets:      presets,
		},
		Scp: types.DefaultScpConfig,
	}
}

// Load reads the config file at path over the defaults. A missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks every field
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if _, err := humanize.ParseBytes(c.Settings.MaxDiskUsage); err != nil {
		return fmt.Errorf("settings.max_disk_usage: %w", err)
	}
	if err := keybinds.Validate(c.Keybinds); err != nil {
		return fmt.Errorf("keybinds: %w", err)
	}
	if c.ActiveWebEndpoint != "" {
		found := false
		for _, ep := range c.WebEndpoints {
			if ep.BaseURL == c.ActiveWebEndpoint {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("active_web_endpoint %s is not listed in web_endpoints", c.ActiveWebEndpoint)
		}
	}
	return nil
}

// InitialSettings converts the settings section into the settings container's
// starting value.
func (c *Config) InitialSettings() (types.Settings, error) {
	maxDisk, err := humanize.ParseBytes(c.Settings.MaxDiskUsage)
	if err != nil {
		return types.Settings{}, fmt.Errorf("settings.max_disk_usage: %w", err)
	}

	return types.Settings{
		WorkspaceMode:        c.Settings.WorkspaceMode,
		AutoClearCache:       c.Settings.AutoClearCache,
		MaxDiskUsage:         maxDisk,
		DefaultWindowPresets: normalizePresets(c.Settings.WindowPresets),
		ThumbnailSize:        c.Settings.ThumbnailSize,
		ImageInterpolation:   types.Interpolation(c.Settings.ImageInterpolation),
	}, nil
}

// normalizePresets keys presets by upper-case modality. The file is decoded on
// top of the defaults, so a key written in another case sits beside the default
// entry it means to replace; such keys are applied last and win.
func normalizePresets(in map[string][]types.WindowPreset) map[string][]types.WindowPreset {
	out := make(map[string][]types.WindowPreset, len(in))
	var folded []string
	for k, v := range in {
		upper := strings.ToUpper(k)
		if upper != k {
			folded = append(folded, k)
			continue
		}
		out[k] = append([]types.WindowPreset(nil), v...)
	}
	sort.Strings(folded)
	for _, k := range folded {
		out[strings.ToUpper(k)] = append([]types.WindowPreset(nil), in[k]...)
	}
	return out
}

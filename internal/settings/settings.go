package settings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/studiowebux/dicomkit/internal/store"
	"github.com/studiowebux/dicomkit/internal/types"
)

var (
	ErrInvalidThumbnailSize = errors.New("thumbnail size must be positive")
	ErrInvalidInterpolation = errors.New("unknown interpolation mode")
	ErrInvalidPreset        = errors.New("window preset width must be at least 1")
)

// State holds user preferences
type State struct {
	state *store.Store[types.Settings]
}

// New creates settings starting from initial
func New(initial types.Settings) *State {
	return &State{state: store.New(cloneSettings(initial))}
}

// Settings returns the current settings. The preset map must not be modified.
func (s *State) Settings() types.Settings {
	return s.state.Get()
}

// Subscribe registers fn for the current settings and every change
func (s *State) Subscribe(fn func(types.Settings)) (unsubscribe func()) {
	return s.state.Subscribe(fn)
}

// SetWorkspaceMode toggles workspace mode
func (s *State) SetWorkspaceMode(enabled bool) {
	s.update(func(v *types.Settings) { v.WorkspaceMode = enabled })
}

// SetAutoClearCache toggles clearing the cache on exit
func (s *State) SetAutoClearCache(enabled bool) {
	s.update(func(v *types.Settings) { v.AutoClearCache = enabled })
}

// SetMaxDiskUsage sets the cache size limit in bytes
func (s *State) SetMaxDiskUsage(bytes uint64) {
	s.update(func(v *types.Settings) { v.MaxDiskUsage = bytes })
}

// SetThumbnailSize sets the thumbnail edge length in pixels
func (s *State) SetThumbnailSize(px int) error {
	if px <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidThumbnailSize, px)
	}
	s.update(func(v *types.Settings) { v.ThumbnailSize = px })
	return nil
}

// SetImageInterpolation sets the resampling mode
func (s *State) SetImageInterpolation(mode types.Interpolation) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidInterpolation, mode)
	}
	s.update(func(v *types.Settings) { v.ImageInterpolation = mode })
	return nil
}

// SetWindowPresets replaces the presets for modality. An empty list removes the
// modality.
func (s *State) SetWindowPresets(modality string, presets []types.WindowPreset) error {
	for _, p := range presets {
		if p.Width < 1 {
			return fmt.Errorf("%w: %s", ErrInvalidPreset, p.Name)
		}
	}
	key := strings.ToUpper(modality)
	s.update(func(v *types.Settings) {
		if len(presets) == 0 {
			delete(v.DefaultWindowPresets, key)
			return
		}
		v.DefaultWindowPresets[key] = append([]types.WindowPreset(nil), presets...)
	})
	return nil
}

// PresetsFor returns the window presets for modality
func (s *State) PresetsFor(modality string) []types.WindowPreset {
	presets := s.state.Get().DefaultWindowPresets[strings.ToUpper(modality)]
	return append([]types.WindowPreset(nil), presets...)
}

// update applies fn to a private copy so earlier snapshots stay untouched
func (s *State) update(fn func(*types.Settings)) {
	s.state.Update(func(current types.Settings) (types.Settings, bool) {
		next := cloneSettings(current)
		fn(&next)
		return next, !equal(current, next)
	})
}

func cloneSettings(in types.Settings) types.Settings {
	out := in
	out.DefaultWindowPresets = make(map[string][]types.WindowPreset, len(in.DefaultWindowPresets))
	for k, v := range in.DefaultWindowPresets {
		out.DefaultWindowPresets[k] = append([]types.WindowPreset(nil), v...)
	}
	return out
}

func equal(a, b types.Settings) bool {
	if a.WorkspaceMode != b.WorkspaceMode ||
		a.AutoClearCache != b.AutoClearCache ||
		a.MaxDiskUsage != b.MaxDiskUsage ||
		a.ThumbnailSize != b.ThumbnailSize ||
		a.ImageInterpolation != b.ImageInterpolation ||
		len(a.DefaultWindowPresets) != len(b.DefaultWindowPresets) {
		return false
	}
	for k, av := range a.DefaultWindowPresets {
		bv, ok := b.DefaultWindowPresets[k]
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
	}
	return true
}

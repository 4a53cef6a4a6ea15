package types

// Interpolation is the resampling mode used when images are scaled
type Interpolation string

const (
	InterpolationNearest  Interpolation = "nearest"
	InterpolationBilinear Interpolation = "bilinear"
	InterpolationBicubic  Interpolation = "bicubic"
)

// Valid reports whether i is a known mode
func (i Interpolation) Valid() bool {
	switch i {
	case InterpolationNearest, InterpolationBilinear, InterpolationBicubic:
		return true
	}
	return false
}

// Settings are user preferences that parameterize the other containers
type Settings struct {
	WorkspaceMode        bool
	AutoClearCache       bool
	MaxDiskUsage         uint64 // bytes
	DefaultWindowPresets map[string][]WindowPreset
	ThumbnailSize        int
	ImageInterpolation   Interpolation
}

// DefaultSettings returns a fresh copy of the built-in defaults
func DefaultSettings() Settings {
	return Settings{
		WorkspaceMode:  true,
		AutoClearCache: false,
		MaxDiskUsage:   1 << 30,
		DefaultWindowPresets: map[string][]WindowPreset{
			"CT": {
				{Name: "Lung", Center: -600, Width: 1500},
				{Name: "Bone", Center: 400, Width: 1800},
				{Name: "Soft Tissue", Center: 50, Width: 350},
			},
		},
		ThumbnailSize:      128,
		ImageInterpolation: InterpolationBilinear,
	}
}

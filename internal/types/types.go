package types

import (
	"errors"
	"time"
)

// ErrInvalidReference is wrapped by every error reporting a reference to a
// series, instance, tag or endpoint that is not known to the container.
var ErrInvalidReference = errors.New("invalid reference")

// Study is one imaging exam. It is replaced wholesale on every load and never
// mutated in place.
type Study struct {
	StudyInstanceUID string   `json:"studyInstanceUID" yaml:"studyInstanceUID"`
	PatientName      string   `json:"patientName,omitempty" yaml:"patientName,omitempty"`
	PatientID        string   `json:"patientID,omitempty" yaml:"patientID,omitempty"`
	StudyDate        string   `json:"studyDate,omitempty" yaml:"studyDate,omitempty"`
	Modality         string   `json:"modality,omitempty" yaml:"modality,omitempty"`
	Description      string   `json:"description,omitempty" yaml:"description,omitempty"`
	Series           []Series `json:"series" yaml:"series"`

	// DefaultWindow overrides the navigator default when the study is loaded
	DefaultWindow *WindowSetting `json:"defaultWindow,omitempty" yaml:"defaultWindow,omitempty"`
}

// FindSeries returns the index of the series with the given UID, or -1
func (s *Study) FindSeries(seriesUID string) int {
	for i := range s.Series {
		if s.Series[i].SeriesInstanceUID == seriesUID {
			return i
		}
	}
	return -1
}

// InstanceCount returns the number of instances across all series
func (s *Study) InstanceCount() int {
	n := 0
	for i := range s.Series {
		n += len(s.Series[i].Instances)
	}
	return n
}

// Series is one acquisition run within a study
type Series struct {
	SeriesInstanceUID string     `json:"seriesInstanceUID" yaml:"seriesInstanceUID"`
	Number            int        `json:"number,omitempty" yaml:"number,omitempty"`
	Description       string     `json:"description,omitempty" yaml:"description,omitempty"`
	Modality          string     `json:"modality,omitempty" yaml:"modality,omitempty"`
	Instances         []Instance `json:"instances" yaml:"instances"`
}

// FindInstance returns the index of the instance with the given UID, or -1
func (s *Series) FindInstance(instanceUID string) int {
	for i := range s.Instances {
		if s.Instances[i].SOPInstanceUID == instanceUID {
			return i
		}
	}
	return -1
}

// Instance is a single image
type Instance struct {
	SOPInstanceUID string `json:"sopInstanceUID" yaml:"sopInstanceUID"`
	Number         int    `json:"number,omitempty" yaml:"number,omitempty"`
	FilePath       string `json:"filePath,omitempty" yaml:"filePath,omitempty"`
}

// Cursor addresses the displayed instance by UID pair
type Cursor struct {
	SeriesInstanceUID string
	SOPInstanceUID    string
}

// ImageData is the decoded payload for one instance, supplied by the decode
// pipeline.
type ImageData struct {
	SeriesInstanceUID string
	SOPInstanceUID    string
	FilePath          string
	Width             int
	Height            int
	Pixels            []byte
}

// Matches reports whether the image belongs to the instance under c
func (img *ImageData) Matches(c *Cursor) bool {
	if img == nil || c == nil {
		return false
	}
	return img.SeriesInstanceUID == c.SeriesInstanceUID && img.SOPInstanceUID == c.SOPInstanceUID
}

// WindowSetting controls display contrast
type WindowSetting struct {
	Center float64 `json:"center" yaml:"center"`
	Width  float64 `json:"width" yaml:"width" validate:"gte=1"`
}

// DefaultWindow is used when a study declares no window of its own
var DefaultWindow = WindowSetting{Center: 128, Width: 256}

// WindowPreset is a named window for a modality
type WindowPreset struct {
	Name   string  `json:"name" yaml:"name" validate:"required"`
	Center float64 `json:"center" yaml:"center"`
	Width  float64 `json:"width" yaml:"width" validate:"gte=1"`
}

// Window returns the preset's window setting
func (p WindowPreset) Window() WindowSetting {
	return WindowSetting{Center: p.Center, Width: p.Width}
}

// LoadingState describes the long-running operation currently in flight, if any
type LoadingState struct {
	Active    bool
	Operation string
	// Progress is 0-100, or -1 for indeterminate
	Progress int
	Message  string
}

// IndeterminateProgress marks an operation whose completion cannot be measured
const IndeterminateProgress = -1

// Protocol identifies which kind of network collaborator issued a request
type Protocol string

const (
	ProtocolDICOMweb Protocol = "dicomweb"
	ProtocolDIMSE    Protocol = "dimse"
)

// RequestRecord is an immutable record of one outbound request
type RequestRecord struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Protocol  Protocol      `json:"protocol"`
	Operation string        `json:"operation"` // e.g. QIDO-RS, WADO-RS, C-FIND
	Endpoint  string        `json:"endpoint"`
	Method    string        `json:"method,omitempty"`
	URL       string        `json:"url,omitempty"`
	Status    int           `json:"status,omitempty"`
	Duration  time.Duration `json:"duration"`
	Bytes     int64         `json:"bytes,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// Failed reports whether the request ended in an error
func (r RequestRecord) Failed() bool {
	return r.Error != "" || r.Status >= 400
}

// StudyState is everything the viewer shows for the loaded study
type StudyState struct {
	// Study is nil when nothing is loaded
	Study  *Study
	Cursor *Cursor
	// Image is nil until the decode pipeline supplies data for Cursor
	Image  *ImageData
	Tags   []Tag
	Window WindowSetting
}

// Loaded reports whether a study is loaded
func (s StudyState) Loaded() bool {
	return s.Study != nil
}

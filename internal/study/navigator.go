package study

import (
	"errors"
	"fmt"

	"github.com/studiowebux/dicomkit/internal/store"
	"github.com/studiowebux/dicomkit/internal/types"
)

var (
	ErrNoStudy          = errors.New("no study loaded")
	ErrInvalidStudy     = errors.New("study has no StudyInstanceUID")
	ErrSeriesNotFound   = fmt.Errorf("series not found: %w", types.ErrInvalidReference)
	ErrInstanceNotFound = fmt.Errorf("instance not found: %w", types.ErrInvalidReference)
	ErrStaleImage       = errors.New("image does not match the current cursor")
	ErrInvalidWindow    = errors.New("window width must be at least 1")
)

// Navigator holds the loaded study and which of its images is displayed.
//
// Every cursor change clears image data and tags in the same notification, so a
// subscriber never sees an image that belongs to a different instance than the
// cursor.
type Navigator struct {
	state         *store.Store[types.StudyState]
	defaultWindow types.WindowSetting
}

// New creates a navigator with nothing loaded. defaultWindow is used for studies
// that declare no window of their own.
func New(defaultWindow types.WindowSetting) *Navigator {
	if defaultWindow.Width < 1 {
		defaultWindow = types.DefaultWindow
	}
	return &Navigator{
		state:         store.New(types.StudyState{Window: defaultWindow}),
		defaultWindow: defaultWindow,
	}
}

// State returns the current study state
func (n *Navigator) State() types.StudyState {
	return n.state.Get()
}

// Subscribe registers fn for the current state and every change
func (n *Navigator) Subscribe(fn func(types.StudyState)) (unsubscribe func()) {
	return n.state.Subscribe(fn)
}

// LoadStudy replaces everything with study. The cursor moves to the first
// instance of the first series that has one, tags and image data are cleared and
// the window is reset.
func (n *Navigator) LoadStudy(study types.Study) error {
	if study.StudyInstanceUID == "" {
		return ErrInvalidStudy
	}

	loaded := cloneStudy(study)
	window := n.defaultWindow
	if loaded.DefaultWindow != nil && loaded.DefaultWindow.Width >= 1 {
		window = *loaded.DefaultWindow
	}

	n.state.Set(types.StudyState{
		Study:  loaded,
		Cursor: firstCursor(loaded),
		Window: window,
	})
	return nil
}

// Unload drops the current study
func (n *Navigator) Unload() {
	n.state.Set(types.StudyState{Window: n.defaultWindow})
}

// NavigateTo moves the cursor to the given instance. On failure the state is
// left unchanged.
func (n *Navigator) NavigateTo(seriesUID, instanceUID string) error {
	var err error
	n.state.Update(func(s types.StudyState) (types.StudyState, bool) {
		if s.Study == nil {
			err = ErrNoStudy
			return s, false
		}
		si := s.Study.FindSeries(seriesUID)
		if si < 0 {
			err = fmt.Errorf("%w: %s", ErrSeriesNotFound, seriesUID)
			return s, false
		}
		if s.Study.Series[si].FindInstance(instanceUID) < 0 {
			err = fmt.Errorf("%w: %s", ErrInstanceNotFound, instanceUID)
			return s, false
		}
		return moveCursor(s, types.Cursor{SeriesInstanceUID: seriesUID, SOPInstanceUID: instanceUID})
	})
	return err
}

// Step moves delta instances within the current series, wrapping around
func (n *Navigator) Step(delta int) error {
	var err error
	n.state.Update(func(s types.StudyState) (types.StudyState, bool) {
		if s.Study == nil || s.Cursor == nil {
			err = ErrNoStudy
			return s, false
		}
		series := &s.Study.Series[s.Study.FindSeries(s.Cursor.SeriesInstanceUID)]
		idx := wrap(series.FindInstance(s.Cursor.SOPInstanceUID)+delta, len(series.Instances))
		return moveCursor(s, types.Cursor{
			SeriesInstanceUID: series.SeriesInstanceUID,
			SOPInstanceUID:    series.Instances[idx].SOPInstanceUID,
		})
	})
	return err
}

// StepSeries moves delta series, skipping series without instances, and lands on
// the first instance of the target series.
func (n *Navigator) StepSeries(delta int) error {
	var err error
	n.state.Update(func(s types.StudyState) (types.StudyState, bool) {
		if s.Study == nil || s.Cursor == nil {
			err = ErrNoStudy
			return s, false
		}

		var candidates []int
		current := 0
		for i := range s.Study.Series {
			if len(s.Study.Series[i].Instances) == 0 {
				continue
			}
			if s.Study.Series[i].SeriesInstanceUID == s.Cursor.SeriesInstanceUID {
				current = len(candidates)
			}
			candidates = append(candidates, i)
		}

		target := &s.Study.Series[candidates[wrap(current+delta, len(candidates))]]
		return moveCursor(s, types.Cursor{
			SeriesInstanceUID: target.SeriesInstanceUID,
			SOPInstanceUID:    target.Instances[0].SOPInstanceUID,
		})
	})
	return err
}

// SetWindow changes only the display window
func (n *Navigator) SetWindow(center, width float64) error {
	if width < 1 {
		return ErrInvalidWindow
	}
	w := types.WindowSetting{Center: center, Width: width}
	n.state.Update(func(s types.StudyState) (types.StudyState, bool) {
		if s.Window == w {
			return s, false
		}
		s.Window = w
		return s, true
	})
	return nil
}

// ApplyPreset sets the window from a named preset
func (n *Navigator) ApplyPreset(p types.WindowPreset) error {
	return n.SetWindow(p.Center, p.Width)
}

// SetTags replaces the extracted tags of the instance at c. Tags extracted for
// any other instance are rejected with ErrStaleImage.
func (n *Navigator) SetTags(c types.Cursor, tags []types.Tag) error {
	var err error
	n.state.Update(func(s types.StudyState) (types.StudyState, bool) {
		if err = checkCursor(s, c); err != nil {
			return s, false
		}
		s.Tags = append([]types.Tag(nil), tags...)
		return s, true
	})
	return err
}

// SetImageData attaches decoded data for the current cursor. Data decoded for
// any other instance is rejected with ErrStaleImage.
func (n *Navigator) SetImageData(img types.ImageData) error {
	var err error
	n.state.Update(func(s types.StudyState) (types.StudyState, bool) {
		if err = checkCursor(s, imageCursor(img)); err != nil {
			return s, false
		}
		s.Image = &img
		return s, true
	})
	return err
}

// SetDecoded attaches image data and tags for the current cursor in one
// notification. Nothing is attached when img belongs to another instance.
func (n *Navigator) SetDecoded(img types.ImageData, tags []types.Tag) error {
	var err error
	n.state.Update(func(s types.StudyState) (types.StudyState, bool) {
		if err = checkCursor(s, imageCursor(img)); err != nil {
			return s, false
		}
		s.Image = &img
		s.Tags = append([]types.Tag(nil), tags...)
		return s, true
	})
	return err
}

func imageCursor(img types.ImageData) types.Cursor {
	return types.Cursor{SeriesInstanceUID: img.SeriesInstanceUID, SOPInstanceUID: img.SOPInstanceUID}
}

func checkCursor(s types.StudyState, c types.Cursor) error {
	if s.Cursor == nil {
		return ErrNoStudy
	}
	if *s.Cursor != c {
		return fmt.Errorf("%w: got %s/%s", ErrStaleImage, c.SeriesInstanceUID, c.SOPInstanceUID)
	}
	return nil
}

// moveCursor points s at c, dropping the previous instance's image and tags.
// Moving to the current position changes nothing.
func moveCursor(s types.StudyState, c types.Cursor) (types.StudyState, bool) {
	if s.Cursor != nil && *s.Cursor == c {
		return s, false
	}
	s.Cursor = &c
	s.Image = nil
	s.Tags = nil
	return s, true
}

func firstCursor(study *types.Study) *types.Cursor {
	for _, series := range study.Series {
		if len(series.Instances) > 0 {
			return &types.Cursor{
				SeriesInstanceUID: series.SeriesInstanceUID,
				SOPInstanceUID:    series.Instances[0].SOPInstanceUID,
			}
		}
	}
	return nil
}

// cloneStudy copies the series and instance slices so later changes by the
// caller cannot reach the loaded study.
func cloneStudy(study types.Study) *types.Study {
	clone := study
	clone.Series = make([]types.Series, len(study.Series))
	for i, series := range study.Series {
		series.Instances = append([]types.Instance(nil), series.Instances...)
		clone.Series[i] = series
	}
	if study.DefaultWindow != nil {
		w := *study.DefaultWindow
		clone.DefaultWindow = &w
	}
	return &clone
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}

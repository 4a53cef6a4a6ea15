package simulate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/suyashkumar/dicom/pkg/tag"
	"golang.org/x/sync/errgroup"

	"github.com/studiowebux/dicomkit/internal/app"
	"github.com/studiowebux/dicomkit/internal/study"
	"github.com/studiowebux/dicomkit/internal/types"
)

// ErrSuperseded is returned when another operation started while a load was in
// flight. The superseded load leaves the containers alone.
var ErrSuperseded = errors.New("operation superseded")

// ErrTransferFailed is the injected failure for a series transfer
var ErrTransferFailed = errors.New("transfer failed")

const (
	defaultConcurrency = 4
	imageEdge          = 64
	bytesPerInstance   = 512 * 1024
)

// StudyRequest describes the study to fabricate
type StudyRequest struct {
	PatientName        string
	PatientID          string
	Modality           string
	Description        string
	Series             int
	InstancesPerSeries int
	// FailSeries makes the transfer of the series at this index fail; -1 disables
	FailSeries int
}

// DefaultStudyRequest is a small CT study that loads cleanly
func DefaultStudyRequest() StudyRequest {
	return StudyRequest{
		PatientName:        "DOE^JANE",
		PatientID:          "PID-0001",
		Modality:           "CT",
		Description:        "CHEST W/O CONTRAST",
		Series:             3,
		InstancesPerSeries: 12,
		FailSeries:         -1,
	}
}

// Simulator stands in for the network and decode collaborators. It drives the
// containers through their public entry points only.
type Simulator struct {
	app         *app.App
	logger      *slog.Logger
	endpoint    string
	pace        time.Duration
	concurrency int
}

// Option configures a Simulator
type Option func(*Simulator)

// WithPace sleeps d between simulated transfer steps
func WithPace(d time.Duration) Option {
	return func(s *Simulator) { s.pace = d }
}

// WithConcurrency bounds the number of series transferred at once
func WithConcurrency(n int) Option {
	return func(s *Simulator) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithEndpoint sets the endpoint name recorded in the request history
func WithEndpoint(name string) Option {
	return func(s *Simulator) { s.endpoint = name }
}

// New creates a simulator bound to a
func New(a *app.App, opts ...Option) *Simulator {
	s := &Simulator{
		app:         a,
		logger:      a.Logger.With("component", "simulate"),
		endpoint:    "simulated",
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	if ep, ok := a.Connection.ActiveWebServiceEndpoint(); ok {
		s.endpoint = ep.BaseURL
	}
	return s
}

// LoadStudy fabricates a study, transfers its series concurrently while
// reporting progress, then hands the result to the viewer.
func (s *Simulator) LoadStudy(ctx context.Context, req StudyRequest) (types.Study, error) {
	ticket := s.app.Loading.Start("Loading study", "Querying "+s.endpoint)

	queryStart := s.app.Clock.Now()
	if err := s.sleep(ctx); err != nil {
		s.app.Loading.Fail(err)
		return types.Study{}, err
	}
	fabricated := Fabricate(req)
	s.record(types.RequestRecord{
		Operation: "QIDO-RS",
		Method:    "GET",
		URL:       s.endpoint + "/studies?PatientID=" + req.PatientID,
		Status:    200,
		Duration:  s.app.Clock.Now().Sub(queryStart),
	})

	total := fabricated.InstanceCount()
	var (
		mu          sync.Mutex
		transferred int
		bytes       uint64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, series := range fabricated.Series {
		i, series := i, series // per-iteration copy; go1.21 loop vars are shared
		g.Go(func() error {
			began := s.app.Clock.Now()
			for range series.Instances {
				if err := s.sleep(gctx); err != nil {
					return err
				}
				if i == req.FailSeries {
					s.record(types.RequestRecord{
						Operation: "WADO-RS",
						Method:    "GET",
						URL:       s.endpoint + "/studies/" + fabricated.StudyInstanceUID + "/series/" + series.SeriesInstanceUID,
						Status:    503,
						Duration:  s.app.Clock.Now().Sub(began),
						Error:     "service unavailable",
					})
					return fmt.Errorf("%w: series %d", ErrTransferFailed, series.Number)
				}

				// progress is reported under mu so it never goes backwards
				mu.Lock()
				transferred++
				bytes += bytesPerInstance
				if s.app.Loading.Current(ticket) {
					s.app.Loading.UpdateProgress(transferred*100/total,
						fmt.Sprintf("Retrieved %d/%d instances (%s)", transferred, total, humanize.IBytes(bytes)))
				}
				mu.Unlock()
			}
			s.record(types.RequestRecord{
				Operation: "WADO-RS",
				Method:    "GET",
				URL:       s.endpoint + "/studies/" + fabricated.StudyInstanceUID + "/series/" + series.SeriesInstanceUID,
				Status:    200,
				Duration:  s.app.Clock.Now().Sub(began),
				Bytes:     int64(len(series.Instances)) * bytesPerInstance,
			})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if s.app.Loading.Current(ticket) {
			s.app.Loading.Fail(err)
		}
		return types.Study{}, err
	}

	if !s.app.Loading.Current(ticket) {
		s.logger.Info("load abandoned", "study", fabricated.StudyInstanceUID)
		return types.Study{}, ErrSuperseded
	}

	if err := s.app.LoadStudy(fabricated); err != nil {
		s.app.Loading.Fail(err)
		return types.Study{}, err
	}
	if err := s.Decode(); err != nil {
		s.app.Loading.Fail(err)
		return types.Study{}, err
	}

	s.app.Loading.Finish(fmt.Sprintf("Loaded %d instances (%s)", total, humanize.IBytes(bytes)))
	return fabricated, nil
}

// Decode supplies image data and tags for the instance under the cursor
func (s *Simulator) Decode() error {
	st := s.app.Study.State()
	if st.Cursor == nil {
		return nil
	}
	return s.DecodeCursor(*st.Cursor)
}

// DecodeCursor supplies image data and tags for the instance at c. It fails
// with study.ErrStaleImage when the cursor has moved away from c.
func (s *Simulator) DecodeCursor(c types.Cursor) error {
	st := s.app.Study.State()
	if st.Study == nil {
		return study.ErrNoStudy
	}
	si := st.Study.FindSeries(c.SeriesInstanceUID)
	if si < 0 {
		return fmt.Errorf("%w: series %s", study.ErrStaleImage, c.SeriesInstanceUID)
	}
	series := st.Study.Series[si]
	ii := series.FindInstance(c.SOPInstanceUID)
	if ii < 0 {
		return fmt.Errorf("%w: instance %s", study.ErrStaleImage, c.SOPInstanceUID)
	}
	inst := series.Instances[ii]

	if err := s.app.ShowDecoded(Image(c, inst), Tags(st.Study, &series, inst)); err != nil {
		return fmt.Errorf("failed to decode %s: %w", inst.SOPInstanceUID, err)
	}
	return nil
}

// Verify records a point-to-point echo against every configured peer
func (s *Simulator) Verify(ctx context.Context) error {
	peers := s.app.Connection.State().Peers
	if len(peers) == 0 {
		return nil
	}

	s.app.Loading.Start("Verifying peers", fmt.Sprintf("Echoing %d peers", len(peers)))
	for i, peer := range peers {
		began := s.app.Clock.Now()
		if err := s.sleep(ctx); err != nil {
			s.app.Loading.Fail(err)
			return err
		}
		s.app.History.AddRequest(types.RequestRecord{
			Protocol:  types.ProtocolDIMSE,
			Operation: "C-ECHO",
			Endpoint:  peer.Key(),
			Duration:  s.app.Clock.Now().Sub(began),
		})
		s.app.Loading.UpdateProgress((i+1)*100/len(peers), "Echoed "+peer.Key())
	}
	s.app.Loading.Finish(fmt.Sprintf("%d peers verified", len(peers)))
	return nil
}

func (s *Simulator) record(r types.RequestRecord) {
	r.Protocol = types.ProtocolDICOMweb
	r.Endpoint = s.endpoint
	s.app.History.AddRequest(r)
}

func (s *Simulator) sleep(ctx context.Context) error {
	if s.pace <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.pace)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Fabricate builds a study with fresh UIDs
func Fabricate(req StudyRequest) types.Study {
	st := types.Study{
		StudyInstanceUID: NewUID(),
		PatientName:      req.PatientName,
		PatientID:        req.PatientID,
		StudyDate:        "20260101",
		Modality:         req.Modality,
		Description:      req.Description,
	}
	for i := 0; i < req.Series; i++ {
		series := types.Series{
			SeriesInstanceUID: NewUID(),
			Number:            i + 1,
			Description:       fmt.Sprintf("Series %d", i+1),
			Modality:          req.Modality,
		}
		for j := 0; j < req.InstancesPerSeries; j++ {
			series.Instances = append(series.Instances, types.Instance{
				SOPInstanceUID: NewUID(),
				Number:         j + 1,
			})
		}
		st.Series = append(st.Series, series)
	}
	return st
}

// Image renders a gradient whose phase depends on the instance number
func Image(c types.Cursor, inst types.Instance) types.ImageData {
	pixels := make([]byte, imageEdge*imageEdge)
	for y := 0; y < imageEdge; y++ {
		for x := 0; x < imageEdge; x++ {
			pixels[y*imageEdge+x] = byte((x + y + inst.Number*8) % 256)
		}
	}
	return types.ImageData{
		SeriesInstanceUID: c.SeriesInstanceUID,
		SOPInstanceUID:    c.SOPInstanceUID,
		FilePath:          inst.FilePath,
		Width:             imageEdge,
		Height:            imageEdge,
		Pixels:            pixels,
	}
}

// Tags returns the metadata a decoder would extract for inst
func Tags(st *types.Study, series *types.Series, inst types.Instance) []types.Tag {
	return []types.Tag{
		types.NewTag(tag.SOPInstanceUID, "UI", inst.SOPInstanceUID),
		types.NewTag(tag.StudyDate, "DA", st.StudyDate),
		types.NewTag(tag.AccessionNumber, "SH", ""),
		types.NewTag(tag.Modality, "CS", series.Modality),
		types.NewTag(tag.StudyDescription, "LO", st.Description),
		types.NewTag(tag.SeriesDescription, "LO", series.Description),
		types.NewTag(tag.Tag{Group: 0x0009, Element: 0x0010}, "LO", "DICOMKIT"),
		types.NewTag(tag.PatientName, "PN", st.PatientName),
		types.NewTag(tag.PatientID, "LO", st.PatientID),
		types.NewTag(tag.StudyInstanceUID, "UI", st.StudyInstanceUID),
		types.NewTag(tag.SeriesInstanceUID, "UI", series.SeriesInstanceUID),
		types.NewTag(tag.SeriesNumber, "IS", fmt.Sprint(series.Number)),
		types.NewTag(tag.InstanceNumber, "IS", fmt.Sprint(inst.Number)),
		types.NewTag(tag.Rows, "US", fmt.Sprint(imageEdge)),
		types.NewTag(tag.Columns, "US", fmt.Sprint(imageEdge)),
	}
}

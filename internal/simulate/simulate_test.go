package simulate

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/studiowebux/dicomkit/internal/app"
	"github.com/studiowebux/dicomkit/internal/clock"
	"github.com/studiowebux/dicomkit/internal/config"
	"github.com/studiowebux/dicomkit/internal/study"
	"github.com/studiowebux/dicomkit/internal/types"
)

func newApp(t *testing.T, cfg *config.Config) (*app.App, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	a, err := app.New(cfg, nil, clk)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a, clk
}

func TestNewUID(t *testing.T) {
	uid := NewUID()
	assert.True(t, strings.HasPrefix(uid, "2.25."), uid)
	assert.LessOrEqual(t, len(uid), 64)
	assert.NotEqual(t, uid, NewUID())
}

func TestFabricate(t *testing.T) {
	req := DefaultStudyRequest()
	study := Fabricate(req)

	assert.Len(t, study.Series, 3)
	assert.Equal(t, 36, study.InstanceCount())
	assert.Equal(t, 1, study.Series[0].Instances[0].Number)
}

func TestLoadStudy_EndToEnd(t *testing.T) {
	a, clk := newApp(t, nil)
	sim := New(a, WithConcurrency(2))

	var progress []int
	var messages []string
	a.Loading.Subscribe(func(s types.LoadingState) {
		progress = append(progress, s.Progress)
		messages = append(messages, s.Message)
	})

	study, err := sim.LoadStudy(context.Background(), DefaultStudyRequest())
	require.NoError(t, err)

	for i := 1; i < len(progress)-1; i++ {
		if progress[i] >= 0 && progress[i-1] >= 0 {
			assert.GreaterOrEqual(t, progress[i], progress[i-1])
		}
	}

	st := a.Study.State()
	require.True(t, st.Loaded())
	assert.Equal(t, study.StudyInstanceUID, st.Study.StudyInstanceUID)
	require.NotNil(t, st.Image)
	assert.True(t, st.Image.Matches(st.Cursor))
	assert.Len(t, st.Tags, 15)

	value, ok := a.Tags.Value(tag.PatientName)
	require.True(t, ok)
	assert.Equal(t, "DOE^JANE", value)

	// one query plus one retrieve per series
	assert.Equal(t, 4, a.History.Len())
	latest, _ := a.History.Latest()
	assert.Equal(t, types.ProtocolDICOMweb, latest.Protocol)

	loading := a.Loading.State()
	assert.False(t, loading.Active)
	assert.Equal(t, "Loaded 36 instances (18 MiB)", loading.Message)
	assert.Contains(t, messages, "Retrieved 36/36 instances (18 MiB)")

	clk.Advance(3 * time.Second)
	assert.Empty(t, a.Loading.State().Message)
}

func TestLoadStudy_FailureSurfacesThroughLoading(t *testing.T) {
	a, clk := newApp(t, nil)
	sim := New(a)

	req := DefaultStudyRequest()
	req.FailSeries = 1

	_, err := sim.LoadStudy(context.Background(), req)
	require.ErrorIs(t, err, ErrTransferFailed)

	assert.False(t, a.Study.State().Loaded())
	assert.True(t, strings.HasPrefix(a.Loading.State().Message, "Error: "))

	var failed int
	for _, r := range a.History.Records() {
		if r.Failed() {
			failed++
		}
	}
	assert.Equal(t, 1, failed)

	clk.Advance(5 * time.Second)
	assert.Empty(t, a.Loading.State().Message)
}

func TestLoadStudy_Cancelled(t *testing.T) {
	a, _ := newApp(t, nil)
	sim := New(a)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.LoadStudy(ctx, DefaultStudyRequest())
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, a.Loading.State().Message, "context canceled")
}

func TestLoadStudy_SupersededLeavesViewerAlone(t *testing.T) {
	a, _ := newApp(t, nil)
	sim := New(a)

	// another operation starts as soon as the query is recorded
	a.History.Subscribe(func(records []types.RequestRecord) {
		if len(records) == 1 {
			a.Loading.Start("Echo", "Echoing peers")
		}
	})

	_, err := sim.LoadStudy(context.Background(), DefaultStudyRequest())
	require.ErrorIs(t, err, ErrSuperseded)

	assert.False(t, a.Study.State().Loaded())
	loading := a.Loading.State()
	assert.True(t, loading.Active)
	assert.Equal(t, "Echo", loading.Operation)
	assert.Equal(t, "Echoing peers", loading.Message)
}

func TestVerify_RecordsEchoPerPeer(t *testing.T) {
	cfg := config.Default()
	cfg.Peers = []types.PeerEndpoint{
		{AETitle: "PACS", Host: "pacs", Port: 104},
		{AETitle: "ARCHIVE", Host: "archive", Port: 11112},
	}
	a, _ := newApp(t, cfg)

	require.NoError(t, New(a).Verify(context.Background()))

	records := a.History.Records()
	require.Len(t, records, 2)
	assert.Equal(t, types.ProtocolDIMSE, records[0].Protocol)
	assert.Equal(t, "C-ECHO", records[0].Operation)
	assert.Equal(t, "ARCHIVE@archive:11112", records[0].Endpoint)
	assert.Equal(t, "2 peers verified", a.Loading.State().Message)
}

func TestNew_UsesActiveEndpoint(t *testing.T) {
	cfg := config.Default()
	cfg.WebEndpoints = []types.WebServiceEndpoint{{BaseURL: "http://orthanc:8042/dicom-web"}}
	cfg.ActiveWebEndpoint = "http://orthanc:8042/dicom-web"
	a, _ := newApp(t, cfg)

	_, err := New(a).LoadStudy(context.Background(), DefaultStudyRequest())
	require.NoError(t, err)

	latest, _ := a.History.Latest()
	assert.Equal(t, "http://orthanc:8042/dicom-web", latest.Endpoint)
}

func TestDecodeCursor_RejectsMovedCursor(t *testing.T) {
	a, _ := newApp(t, nil)
	sim := New(a)

	_, err := sim.LoadStudy(context.Background(), DefaultStudyRequest())
	require.NoError(t, err)

	before := *a.Study.State().Cursor
	require.NoError(t, a.Step(1))

	err = sim.DecodeCursor(before)
	require.ErrorIs(t, err, study.ErrStaleImage)
	assert.Nil(t, a.Study.State().Image)
	assert.Empty(t, a.Study.State().Tags)
	assert.Empty(t, a.Tags.State().Tags)

	require.NoError(t, sim.Decode())
	assert.True(t, a.Study.State().Image.Matches(a.Study.State().Cursor))
}

func TestDecode_TagsAlwaysBelongToCursor(t *testing.T) {
	a, _ := newApp(t, nil)
	sim := New(a)

	sopOf := func(tags []types.Tag) string {
		for _, tg := range tags {
			if tg.ID == tag.SOPInstanceUID {
				return tg.Value
			}
		}
		return ""
	}

	var mismatches []string
	a.Study.Subscribe(func(st types.StudyState) {
		if len(st.Tags) > 0 && (st.Cursor == nil || sopOf(st.Tags) != st.Cursor.SOPInstanceUID) {
			mismatches = append(mismatches, sopOf(st.Tags))
		}
		if (st.Image == nil) != (len(st.Tags) == 0) {
			mismatches = append(mismatches, "image and tags attached separately")
		}
	})

	_, err := sim.LoadStudy(context.Background(), DefaultStudyRequest())
	require.NoError(t, err)

	// a decode requested before a key press lands after it
	for i := 0; i < 5; i++ {
		requested := *a.Study.State().Cursor
		require.NoError(t, a.Step(1))
		require.ErrorIs(t, sim.DecodeCursor(requested), study.ErrStaleImage)
		require.NoError(t, sim.Decode())
		assert.Equal(t, a.Study.State().Cursor.SOPInstanceUID, sopOf(a.Tags.State().Tags))
	}

	assert.Empty(t, mismatches)
}

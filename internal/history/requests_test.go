package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiowebux/dicomkit/internal/clock"
	"github.com/studiowebux/dicomkit/internal/types"
)

func TestRequests_DefaultMax(t *testing.T) {
	r := NewRequests(0, nil)
	assert.Equal(t, DefaultMaxHistory, r.Max())
	assert.Equal(t, 0, r.Len())
}

func TestRequests_NewestFirst(t *testing.T) {
	r := NewRequests(10, nil)

	r.AddRequest(types.RequestRecord{Operation: "QIDO-RS"})
	r.AddRequest(types.RequestRecord{Operation: "WADO-RS"})

	records := r.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "WADO-RS", records[0].Operation)
	assert.Equal(t, "QIDO-RS", records[1].Operation)

	latest, ok := r.Latest()
	require.True(t, ok)
	assert.Equal(t, "WADO-RS", latest.Operation)
}

func TestRequests_NeverExceedsMaxAndKeepsMostRecent(t *testing.T) {
	for _, max := range []int{1, 2, 5, 50} {
		t.Run(fmt.Sprintf("max=%d", max), func(t *testing.T) {
			r := NewRequests(max, nil)

			total := max*3 + 1
			for i := 0; i < total; i++ {
				r.AddRequest(types.RequestRecord{Operation: fmt.Sprintf("op-%d", i)})
				assert.LessOrEqual(t, r.Len(), max)
			}

			records := r.Records()
			require.Len(t, records, max)
			for i, rec := range records {
				assert.Equal(t, fmt.Sprintf("op-%d", total-1-i), rec.Operation)
			}
		})
	}
}

func TestRequests_FillsIDAndTimestamp(t *testing.T) {
	now := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	r := NewRequests(5, clock.NewManual(now))

	r.AddRequest(types.RequestRecord{Operation: "C-ECHO"})
	r.AddRequest(types.RequestRecord{ID: "fixed", Timestamp: now.Add(-time.Hour), Operation: "C-FIND"})

	records := r.Records()
	assert.Equal(t, "fixed", records[0].ID)
	assert.Equal(t, now.Add(-time.Hour), records[0].Timestamp)
	assert.NotEmpty(t, records[1].ID)
	assert.Equal(t, now, records[1].Timestamp)
}

func TestRequests_RecordsIsACopy(t *testing.T) {
	r := NewRequests(5, nil)
	r.AddRequest(types.RequestRecord{Operation: "STOW-RS"})

	records := r.Records()
	records[0].Operation = "tampered"

	latest, _ := r.Latest()
	assert.Equal(t, "STOW-RS", latest.Operation)
}

func TestRequests_Clear(t *testing.T) {
	r := NewRequests(5, nil)

	notifications := 0
	r.Subscribe(func([]types.RequestRecord) { notifications++ })

	r.Clear()
	assert.Equal(t, 1, notifications)

	r.AddRequest(types.RequestRecord{})
	r.Clear()
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 3, notifications)

	_, ok := r.Latest()
	assert.False(t, ok)
}

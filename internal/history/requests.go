package history

import (
	"github.com/google/uuid"

	"github.com/studiowebux/dicomkit/internal/clock"
	"github.com/studiowebux/dicomkit/internal/store"
	"github.com/studiowebux/dicomkit/internal/types"
)

// DefaultMaxHistory is the number of requests kept when no limit is configured
const DefaultMaxHistory = 50

// Requests is a bounded, newest-first log of outbound requests
type Requests struct {
	records *store.Store[[]types.RequestRecord]
	max     int
	clock   clock.Clock
}

// NewRequests creates an empty history holding at most max records.
// A non-positive max selects DefaultMaxHistory.
func NewRequests(max int, c clock.Clock) *Requests {
	if max <= 0 {
		max = DefaultMaxHistory
	}
	if c == nil {
		c = clock.Real{}
	}
	return &Requests{
		records: store.New([]types.RequestRecord{}),
		max:     max,
		clock:   c,
	}
}

// Max returns the history limit
func (r *Requests) Max() int {
	return r.max
}

// AddRequest prepends record and drops whatever falls beyond the limit.
// Records without an ID or timestamp get one.
func (r *Requests) AddRequest(record types.RequestRecord) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = r.clock.Now()
	}

	r.records.Update(func(current []types.RequestRecord) ([]types.RequestRecord, bool) {
		keep := len(current)
		if keep > r.max-1 {
			keep = r.max - 1
		}
		next := make([]types.RequestRecord, 0, keep+1)
		next = append(next, record)
		next = append(next, current[:keep]...)
		return next, true
	})
}

// Records returns a copy of the history, newest first
func (r *Requests) Records() []types.RequestRecord {
	current := r.records.Get()
	result := make([]types.RequestRecord, len(current))
	copy(result, current)
	return result
}

// Latest returns the most recent record
func (r *Requests) Latest() (types.RequestRecord, bool) {
	current := r.records.Get()
	if len(current) == 0 {
		return types.RequestRecord{}, false
	}
	return current[0], true
}

// Len returns the number of records held
func (r *Requests) Len() int {
	return len(r.records.Get())
}

// Clear drops every record
func (r *Requests) Clear() {
	r.records.Update(func(current []types.RequestRecord) ([]types.RequestRecord, bool) {
		if len(current) == 0 {
			return current, false
		}
		return []types.RequestRecord{}, true
	})
}

// Subscribe registers fn for the current history and every change. The slice
// passed to fn must not be modified.
func (r *Requests) Subscribe(fn func([]types.RequestRecord)) (unsubscribe func()) {
	return r.records.Subscribe(fn)
}

package loading

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/studiowebux/dicomkit/internal/clock"
	"github.com/studiowebux/dicomkit/internal/store"
	"github.com/studiowebux/dicomkit/internal/types"
)

const (
	// DefaultFinishClearDelay is how long a completion message stays visible
	DefaultFinishClearDelay = 3 * time.Second
	// DefaultErrorClearDelay is how long an error message stays visible
	DefaultErrorClearDelay = 5 * time.Second

	errorPrefix = "Error: "
)

// Ticket identifies one Start call. A caller whose operation may have been
// superseded compares its ticket with Current before reporting.
type Ticket uint64

// Lifecycle tracks at most one long-running operation and the status message
// shown once it ends.
type Lifecycle struct {
	state  *store.Store[types.LoadingState]
	clock  clock.Clock
	logger *slog.Logger

	finishClear time.Duration
	errorClear  time.Duration

	// mu makes a generation bump and the matching state change one step, so a
	// clear callback never acts on a state newer than the one that scheduled it.
	// gen is only written under mu but may be read without it.
	mu    sync.Mutex
	gen   atomic.Uint64
	timer clock.Timer
}

// Option configures a Lifecycle
type Option func(*Lifecycle)

// WithClock sets the clock used to schedule message clears
func WithClock(c clock.Clock) Option {
	return func(l *Lifecycle) { l.clock = c }
}

// WithDelays overrides how long completion and error messages stay visible
func WithDelays(finish, failure time.Duration) Option {
	return func(l *Lifecycle) {
		if finish > 0 {
			l.finishClear = finish
		}
		if failure > 0 {
			l.errorClear = failure
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(l *Lifecycle) { l.logger = logger }
}

// New creates an idle lifecycle
func New(opts ...Option) *Lifecycle {
	l := &Lifecycle{
		state:       store.New(types.LoadingState{}),
		clock:       clock.Real{},
		logger:      slog.Default(),
		finishClear: DefaultFinishClearDelay,
		errorClear:  DefaultErrorClearDelay,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// State returns the current loading state
func (l *Lifecycle) State() types.LoadingState {
	return l.state.Get()
}

// Subscribe registers fn for the current state and every change
func (l *Lifecycle) Subscribe(fn func(types.LoadingState)) (unsubscribe func()) {
	return l.state.Subscribe(fn)
}

// Start begins operation with indeterminate progress. Any operation already in
// flight is superseded without notice.
func (l *Lifecycle) Start(operation, message string) Ticket {
	l.mu.Lock()
	defer l.mu.Unlock()

	if prev := l.state.Get(); prev.Active {
		l.logger.Debug("superseding operation", "previous", prev.Operation, "operation", operation)
	}

	ticket := Ticket(l.advanceLocked())
	l.state.Set(types.LoadingState{
		Active:    true,
		Operation: operation,
		Progress:  types.IndeterminateProgress,
		Message:   message,
	})
	return ticket
}

// UpdateProgress merges progress and, when non-empty, message into the active
// operation. Progress is clamped to [-1,100]. Calling it while idle does nothing.
func (l *Lifecycle) UpdateProgress(progress int, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	progress = clampProgress(progress)
	changed := l.state.Update(func(s types.LoadingState) (types.LoadingState, bool) {
		if !s.Active {
			return s, false
		}
		s.Progress = progress
		if message != "" {
			s.Message = message
		}
		return s, true
	})
	if !changed {
		l.logger.Debug("progress update while idle ignored", "progress", progress)
	}
}

// Finish ends the current operation. A non-empty message is cleared after the
// finish delay unless another transition happens first.
func (l *Lifecycle) Finish(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	gen := l.advanceLocked()
	l.state.Set(types.LoadingState{Message: message})
	if message != "" {
		l.scheduleClearLocked(gen, l.finishClear)
	}
}

// Fail ends the current operation with an error message that is cleared after
// the error delay unless another transition happens first.
func (l *Lifecycle) Fail(err error) {
	text := "unknown error"
	if err != nil {
		text = err.Error()
	}
	l.FailMessage(text)
}

// FailMessage is Fail for collaborators that only have a description
func (l *Lifecycle) FailMessage(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if prev := l.state.Get(); prev.Active {
		l.logger.Warn("operation failed", "operation", prev.Operation, "error", text)
	} else {
		l.logger.Warn("operation failed", "error", text)
	}

	gen := l.advanceLocked()
	l.state.Set(types.LoadingState{Message: errorPrefix + text})
	l.scheduleClearLocked(gen, l.errorClear)
}

// Current reports whether ticket belongs to the operation still in flight. It
// takes no lock, so subscribers may call it while being notified.
func (l *Lifecycle) Current(ticket Ticket) bool {
	return uint64(ticket) == l.gen.Load() && l.state.Get().Active
}

// Stop cancels any pending message clear. A clear callback already waiting to
// run sees a newer generation and does nothing.
func (l *Lifecycle) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.advanceLocked()
}

// advanceLocked invalidates any pending clear and returns the new generation
func (l *Lifecycle) advanceLocked() uint64 {
	l.cancelTimerLocked()
	return l.gen.Add(1)
}

func (l *Lifecycle) cancelTimerLocked() {
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
}

func (l *Lifecycle) scheduleClearLocked(gen uint64, delay time.Duration) {
	l.timer = l.clock.AfterFunc(delay, func() {
		l.mu.Lock()
		defer l.mu.Unlock()

		// A timer that lost the race with Stop, or one from an older
		// generation, must leave the newer message alone.
		if l.gen.Load() != gen {
			return
		}
		l.timer = nil
		l.state.Update(func(s types.LoadingState) (types.LoadingState, bool) {
			if s.Active || s.Message == "" {
				return s, false
			}
			s.Message = ""
			return s, true
		})
	})
}

func clampProgress(p int) int {
	if p < types.IndeterminateProgress {
		return types.IndeterminateProgress
	}
	if p > 100 {
		return 100
	}
	return p
}

// Package playback drives wall-clock-paced, looping emission of cached
// point cloud frames. Each tick derives its delay from the dataset's own
// consecutive capture timestamps, so playback reproduces the original
// variable frame rate rather than a fixed period.
package playback

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/banshee-data/cloudreplay/internal/cloud"
	"github.com/banshee-data/cloudreplay/internal/monitoring"
	"github.com/banshee-data/cloudreplay/internal/timeutil"
)

// DefaultLoopGap bridges the loop-closing interval from the last frame
// back to frame 0, where the dataset records no delta.
const DefaultLoopGap = 100 * time.Millisecond

// ErrEmptyCache is returned when a scheduler is created over a cache with
// no frames; playback is undefined without at least one frame.
var ErrEmptyCache = errors.New("playback: frame cache is empty")

// Publisher delivers one message to the output channel. A publish failure
// is fatal for that tick only; the scheduler never retries a frame.
type Publisher interface {
	Publish(msg *cloud.Message) error
}

// State is the scheduler lifecycle state.
type State int32

const (
	// StateIdle means no timer is armed (before Run, or after shutdown).
	StateIdle State = iota
	// StateScheduled means the timer is armed for the next frame.
	StateScheduled
	// StatePublishing means a tick is executing.
	StatePublishing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScheduled:
		return "scheduled"
	case StatePublishing:
		return "publishing"
	default:
		return "unknown"
	}
}

// Options configures a Scheduler.
type Options struct {
	// Clock supplies timers; defaults to timeutil.RealClock.
	Clock timeutil.Clock

	// LoopGap is the wraparound delay; defaults to DefaultLoopGap.
	LoopGap time.Duration

	// StartDelay is a one-time sleep before the first timer is armed,
	// used to align the wall-clock start with an external
	// synchronization point. Blocking, on the Run goroutine only.
	StartDelay time.Duration
}

// Scheduler owns the playback cursor and republishes cached frames in
// order, forever. The cursor is touched only inside tick processing on
// the Run goroutine, which never overlaps itself, so no locking is
// needed; the cache is immutable and shared read-only.
type Scheduler struct {
	cache   *cloud.Cache
	pub     Publisher
	clock   timeutil.Clock
	loopGap time.Duration
	startup time.Duration
	logf    func(format string, v ...interface{})

	current int
	state   atomic.Int32

	published atomic.Uint64
	failed    atomic.Uint64
}

// New creates a Scheduler over a built cache. Returns ErrEmptyCache when
// the cache holds no frames.
func New(cache *cloud.Cache, pub Publisher, opts Options) (*Scheduler, error) {
	if cache.Len() == 0 {
		return nil, ErrEmptyCache
	}

	clock := opts.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	loopGap := opts.LoopGap
	if loopGap <= 0 {
		loopGap = DefaultLoopGap
	}

	return &Scheduler{
		cache:   cache,
		pub:     pub,
		clock:   clock,
		loopGap: loopGap,
		startup: opts.StartDelay,
		logf:    monitoring.Prefixed("Playback"),
	}, nil
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Published returns the number of frames successfully published.
func (s *Scheduler) Published() uint64 { return s.published.Load() }

// Failed returns the number of ticks whose publish failed.
func (s *Scheduler) Failed() uint64 { return s.failed.Load() }

// initialDelay is the arming delay before the very first publish. With
// two or more frames it is the first recorded inter-frame interval; a
// single-frame dataset has no recorded interval, so the loop gap applies
// from the start.
func (s *Scheduler) initialDelay() time.Duration {
	if s.cache.Len() >= 2 {
		return time.Duration(s.cache.Timestamp(1) - s.cache.Timestamp(0))
	}
	return s.loopGap
}

// tick publishes the frame under the cursor and returns the delay to
// wait before the next tick. Wraparound resets the cursor to 0; playback
// never terminates on its own.
func (s *Scheduler) tick() time.Duration {
	s.state.Store(int32(StatePublishing))

	if s.current == s.cache.Len() {
		s.current = 0
	}

	if err := s.pub.Publish(s.cache.Message(s.current)); err != nil {
		// Dropped frame: log and keep the loop alive.
		s.failed.Add(1)
		s.logf("publish failed for frame %d: %v", s.current, err)
	} else {
		s.published.Add(1)
	}

	delay := s.cache.Delay(s.current, s.loopGap)
	s.current++

	s.state.Store(int32(StateScheduled))
	return delay
}

// Run arms a single persistent timer and re-arms it with a freshly
// computed delay after every tick. It blocks until ctx is cancelled;
// that is the only way playback stops.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.startup > 0 {
		s.logf("startup synchronization delay: %v", s.startup)
		s.clock.Sleep(s.startup)
	}

	first := s.initialDelay()
	s.logf("playback starting: %d frames, first delay %v, loop gap %v",
		s.cache.Len(), first, s.loopGap)

	timer := s.clock.NewTimer(first)
	s.state.Store(int32(StateScheduled))

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			s.state.Store(int32(StateIdle))
			s.logf("playback stopped: published=%d failed=%d", s.Published(), s.Failed())
			return ctx.Err()
		case <-timer.C():
			timer.Reset(s.tick())
		}
	}
}

package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"eyesync/internal/metrics"
)

// DefaultRefreshRate is assumed when the display cannot report its own.
const DefaultRefreshRate = 60.0

// Clock is the engine time base. Every duration in a report is a difference of
// two Now values.
type Clock interface {
	Now() time.Duration
}

type monotonicClock struct {
	epoch time.Time
}

// NewMonotonicClock returns a clock counting from the moment it was created.
func NewMonotonicClock() Clock {
	return &monotonicClock{epoch: time.Now()}
}

func (c *monotonicClock) Now() time.Duration { return time.Since(c.epoch) }

// PeriodFromRate converts a refresh rate in Hz to a frame period, falling back to
// DefaultRefreshRate for unusable values.
func PeriodFromRate(hz float64) time.Duration {
	if hz <= 0 || math.IsNaN(hz) || math.IsInf(hz, 0) {
		hz = DefaultRefreshRate
	}
	return time.Duration(float64(time.Second) / hz)
}

// FrameClock paces the presentation loop on display refreshes.
type FrameClock struct {
	display  Display
	clock    Clock
	period   time.Duration
	logger   zerolog.Logger
	lastFlip time.Duration
	flips    int
}

func NewFrameClock(display Display, clock Clock, logger zerolog.Logger) *FrameClock {
	period := display.RefreshPeriod()
	if period <= 0 {
		period = PeriodFromRate(DefaultRefreshRate)
	}
	return &FrameClock{display: display, clock: clock, period: period, logger: logger}
}

// Period is the nominal duration of one frame.
func (f *FrameClock) Period() time.Duration { return f.period }

// FramesFor returns the number of frames closest to d.
func (f *FrameClock) FramesFor(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(float64(d) / float64(f.period)))
}

func (f *FrameClock) Now() time.Duration { return f.clock.Now() }

// Tick presents the back buffer and blocks until the flip.
func (f *FrameClock) Tick() error {
	if err := f.display.Present(); err != nil {
		return fmt.Errorf("present frame: %w", err)
	}
	now := f.clock.Now()
	metrics.FramesTotal.Inc()
	if f.flips > 0 {
		interval := now - f.lastFlip
		metrics.FrameIntervalSeconds.Observe(interval.Seconds())
		if interval > f.period*3/2 {
			metrics.DroppedFramesTotal.Inc()
			f.logger.Debug().Dur("interval", interval).Dur("period", f.period).Msg("dropped frame")
		}
	}
	f.lastFlip = now
	f.flips++
	return nil
}

// Resync forgets the last flip so that time spent outside the frame loop (a
// dialog, a blocking prompt) is not counted as dropped frames.
func (f *FrameClock) Resync() {
	f.flips = 0
}

// NextFlip predicts when the next refresh will become visible.
func (f *FrameClock) NextFlip() time.Duration {
	now := f.clock.Now()
	if f.flips == 0 {
		return now + f.period
	}
	next := f.lastFlip + f.period
	if next <= now {
		behind := (now-next)/f.period + 1
		next += behind * f.period
	}
	return next
}

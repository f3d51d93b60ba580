package engine

import (
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"eyesync/internal/metrics"
)

// tally accumulates the time a presentation spent outside normal viewing.
type tally struct {
	noData time.Duration
	offset time.Duration
	pause  time.Duration
}

// GazeMonitor holds the presentation while gaze is missing or off target.
type GazeMonitor struct {
	ctx       *PresentationContext
	input     *InputWatcher
	cutoff    float64
	warnAfter time.Duration
	logger    zerolog.Logger
	progress  rate.Sometimes
}

func NewGazeMonitor(pctx *PresentationContext, input *InputWatcher, cfg GazeConfig) *GazeMonitor {
	return &GazeMonitor{
		ctx:       pctx,
		input:     input,
		cutoff:    cfg.Cutoff,
		warnAfter: cfg.NoDataWarningAfter,
		logger:    pctx.Logger.With().Str("component", "gaze").Logger(),
		progress:  rate.Sometimes{Interval: time.Second},
	}
}

// Check samples gaze once and returns at once if it is valid. Otherwise it
// keeps presenting the matching cue, one frame at a time, until gaze is valid
// again, and reports recovered=true. Time spent in each state is added to t.
func (m *GazeMonitor) Check(t *tally) (recovered bool, err error) {
	previous := GazeValid
	var entered time.Duration
	for {
		sample := m.ctx.Gaze.Sample()
		state := Classify(sample, m.cutoff)
		now := m.ctx.Frames.Now()

		switch Transition(state, previous) {
		case ActionPresent:
			return false, nil
		case ActionResume:
			m.leave(previous, now-entered)
			m.event().Msg("gaze recovered")
			return true, nil
		case ActionEnterNoData, ActionEnterOffset:
			if previous != GazeValid {
				m.leave(previous, now-entered)
			}
			entered = now
			metrics.GazeInterruptionsTotal.WithLabelValues(state.String()).Inc()
			ev := m.logger.Warn().Stringer("state", state)
			if sample.OK {
				ev = ev.Float64("x", sample.X).Float64("y", sample.Y)
			}
			if gc, ok := m.ctx.Gaze.(GazeClock); ok {
				ev = ev.Dur("device_time", gc.DeviceTime())
			}
			ev.Msg("gaze lost, holding presentation")
		default:
			m.progress.Do(func() {
				m.logger.Info().Stringer("state", state).Dur("waiting", now-entered).Msg("waiting for gaze")
			})
		}

		paused, err := m.input.Poll()
		t.pause += paused
		if err != nil {
			return false, err
		}

		m.drawCue(state, m.ctx.Frames.Now()-entered)
		before := m.ctx.Frames.Now()
		if err := m.ctx.Frames.Tick(); err != nil {
			return false, err
		}
		spent := m.ctx.Frames.Now() - before
		if state == GazeNoData {
			t.noData += spent
		} else {
			t.offset += spent
		}
		previous = state
	}
}

func (m *GazeMonitor) leave(state GazeState, d time.Duration) {
	metrics.GazeRecoverySeconds.WithLabelValues(state.String()).Add(d.Seconds())
}

func (m *GazeMonitor) event() *zerolog.Event {
	ev := m.logger.Info()
	if gc, ok := m.ctx.Gaze.(GazeClock); ok {
		ev = ev.Dur("device_time", gc.DeviceTime())
	}
	return ev
}

func (m *GazeMonitor) drawCue(state GazeState, inState time.Duration) {
	d := m.ctx.Display
	d.Clear(m.ctx.Style.Background)
	switch state {
	case GazeNoData:
		if inState > m.warnAfter {
			DrawNoData(d, m.ctx.Style)
		}
	case GazeOffset:
		DrawRedirectCue(d, m.ctx.Style)
	}
}

package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"eyesync/internal/metrics"
	"eyesync/trigger"
)

// ErrNoAudioOutput is returned when a stimulus carries audio but the session has
// no audio output.
var ErrNoAudioOutput = errors.New("stimulus has audio but no audio output is configured")

// StimulusSpec describes one presentation. The zero Trigger (trigger.Placeholder)
// sends no code.
type StimulusSpec struct {
	Label       string
	Draw        func(Canvas)
	Audio       AudioHandle
	Trigger     trigger.Event
	Duration    time.Duration
	FreeViewing bool
}

// DurationReport accounts for the wall time of one presentation. GazeOffset and
// NoData never add up to more than Actual.
type DurationReport struct {
	Actual     time.Duration
	GazeOffset time.Duration
	Pause      time.Duration
	NoData     time.Duration
	Frames     int
	Restarts   int
	Responses  []Response
}

// Presenter runs the frame loop of single presentations.
type Presenter struct {
	ctx     *PresentationContext
	input   *InputWatcher
	gaze    *GazeMonitor
	restart bool
	logger  zerolog.Logger
}

func NewPresenter(pctx *PresentationContext, cfg *Config) *Presenter {
	input := NewInputWatcher(pctx, cfg.Input)
	return &Presenter{
		ctx:     pctx,
		input:   input,
		gaze:    NewGazeMonitor(pctx, input, cfg.Gaze),
		restart: cfg.Gaze.RestartOnRecovery,
		logger:  pctx.Logger.With().Str("component", "presenter").Logger(),
	}
}

func (p *Presenter) Context() *PresentationContext { return p.ctx }

// FireTrigger sends ev on the trigger output outside of a presentation.
func (p *Presenter) FireTrigger(ev trigger.Event) {
	p.ctx.Triggers.Fire(ev)
}

// Message shows an instruction dialog between presentations. It returns
// ErrSessionAborted when the participant declines and the operator confirms
// quitting.
func (p *Presenter) Message(title, text string) error {
	return p.input.Message(title, text)
}

// PresentInterval shows the fixation cross for d with gaze monitoring.
func (p *Presenter) PresentInterval(d time.Duration) (DurationReport, error) {
	style := p.ctx.Style
	return p.Present(StimulusSpec{
		Label:    "interval",
		Draw:     func(c Canvas) { DrawFixation(c, style) },
		Duration: d,
	})
}

// Present shows spec for its frame budget. The trigger is sent first, then audio
// is scheduled for the next flip, then frames are drawn. Time spent with gaze
// missing or off target and in operator dialogs does not consume the budget.
func (p *Presenter) Present(spec StimulusSpec) (DurationReport, error) {
	var report DurationReport
	budget := p.ctx.Frames.FramesFor(spec.Duration)
	if budget == 0 {
		return report, nil
	}

	if spec.Audio != nil && p.ctx.Audio == nil {
		return report, ErrNoAudioOutput
	}
	if spec.Trigger != trigger.Placeholder {
		p.ctx.Triggers.Fire(spec.Trigger)
	}
	if spec.Audio != nil {
		at := p.ctx.Frames.NextFlip()
		if err := p.ctx.Audio.ScheduleStart(spec.Audio, at); err != nil {
			return report, fmt.Errorf("schedule %s: %w", spec.Audio.Name(), err)
		}
		defer p.ctx.Audio.Stop(spec.Audio)
	}

	start := p.ctx.Frames.Now()
	p.input.begin(start)
	p.ctx.Events.Log(EntryOnset, spec.Label)

	var t tally
	err := p.loop(spec, budget, &t, &report)

	report.Actual = p.ctx.Frames.Now() - start
	report.GazeOffset = t.offset
	report.NoData = t.noData
	report.Pause = t.pause
	report.Responses = p.input.Responses()
	p.ctx.Events.Log(EntryOffset, spec.Label)

	metrics.PresentationsTotal.Inc()
	metrics.RestartsTotal.Add(float64(report.Restarts))
	p.logger.Info().
		Str("stimulus", spec.Label).
		Int("budget", budget).
		Int("frames", report.Frames).
		Dur("actual", report.Actual).
		Dur("offset", report.GazeOffset).
		Dur("pause", report.Pause).
		Dur("no_data", report.NoData).
		Int("restarts", report.Restarts).
		Msg("presentation finished")
	return report, err
}

func (p *Presenter) loop(spec StimulusSpec, budget int, t *tally, report *DurationReport) error {
	d := p.ctx.Display
	for i := 0; i < budget; i++ {
		paused, err := p.input.Poll()
		t.pause += paused
		if err != nil {
			return err
		}
		if !spec.FreeViewing {
			recovered, err := p.gaze.Check(t)
			if err != nil {
				return err
			}
			if recovered && p.restart {
				p.logger.Debug().Int("frame", i).Int("budget", budget).Msg("restarting frame budget")
				i = 0
				report.Restarts++
			}
		}
		d.Clear(p.ctx.Style.Background)
		if spec.Draw != nil {
			spec.Draw(d)
		}
		if err := p.ctx.Frames.Tick(); err != nil {
			return err
		}
		report.Frames++
	}
	return nil
}

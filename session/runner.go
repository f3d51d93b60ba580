package session

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"eyesync/engine"
	"eyesync/trigger"
)

// Presenter is the part of engine.Presenter the runner drives.
type Presenter interface {
	Present(spec engine.StimulusSpec) (engine.DurationReport, error)
	PresentInterval(d time.Duration) (engine.DurationReport, error)
	FireTrigger(ev trigger.Event)
	Message(title, text string) error
}

// SoundBank prepares sounds for an audio output.
type SoundBank interface {
	Tone(freq float64, d time.Duration) (engine.AudioHandle, error)
	LoadWAV(path string) (engine.AudioHandle, error)
}

// Result is the outcome of one plan step.
type Result struct {
	Index   int
	Step    Step
	Trigger trigger.Event
	Report  engine.DurationReport
}

// Runner executes plans on one presenter. Sounds may be nil when the plan has no
// tones.
type Runner struct {
	Presenter Presenter
	Table     *trigger.Table
	Style     engine.Style
	Sounds    SoundBank
	Logger    zerolog.Logger

	sounds map[soundKey]engine.AudioHandle
}

type soundKey struct {
	hz   float64
	d    time.Duration
	path string
}

// Prepare renders or loads every sound of the plan so that no synthesis or file
// access happens between presentations.
func (r *Runner) Prepare(plan *Plan) error {
	for _, step := range plan.Steps {
		if !step.HasSound() {
			continue
		}
		if _, err := r.sound(step); err != nil {
			return fmt.Errorf("line %d: %w", step.Line, err)
		}
	}
	return nil
}

func (r *Runner) sound(step Step) (engine.AudioHandle, error) {
	if r.Sounds == nil {
		return nil, fmt.Errorf("%s: no audio output", step.Label())
	}
	key := soundKey{path: step.SoundFile}
	if step.ToneHz > 0 {
		key = soundKey{hz: step.ToneHz, d: step.Duration}
	}
	if h, ok := r.sounds[key]; ok {
		return h, nil
	}
	var h engine.AudioHandle
	var err error
	if key.path != "" {
		h, err = r.Sounds.LoadWAV(key.path)
	} else {
		h, err = r.Sounds.Tone(key.hz, key.d)
	}
	if err != nil {
		return nil, err
	}
	if r.sounds == nil {
		r.sounds = make(map[soundKey]engine.AudioHandle)
	}
	r.sounds[key] = h
	return h, nil
}

// Run fires the experiment start marker, runs every step and fires the end
// marker. On error the results collected so far are returned with it, including
// the partial step.
func (r *Runner) Run(ctx context.Context, plan *Plan) ([]Result, error) {
	if err := r.Prepare(plan); err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(plan.Steps))
	r.Presenter.FireTrigger(trigger.ExperimentStart)
	r.Logger.Info().Int("steps", len(plan.Steps)).Str("table", r.Table.Name()).Msg("session started")

	for i, step := range plan.Steps {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		res, err := r.runStep(i, step)
		results = append(results, res)
		if err != nil {
			return results, fmt.Errorf("step %d (line %d): %w", i+1, step.Line, err)
		}
		r.Logger.Debug().Int("step", i+1).Int("of", len(plan.Steps)).Str("label", step.Label()).Msg("step done")
	}

	r.Presenter.FireTrigger(trigger.ExperimentEnd)
	r.Logger.Info().Int("steps", len(results)).Msg("session finished")
	return results, nil
}

func (r *Runner) runStep(i int, step Step) (Result, error) {
	res := Result{Index: i, Step: step, Trigger: r.resolve(step)}
	var err error
	switch step.Kind {
	case KindInterval:
		if res.Trigger != trigger.Placeholder {
			r.Presenter.FireTrigger(res.Trigger)
		}
		res.Report, err = r.Presenter.PresentInterval(step.Duration)
	case KindMessage:
		if res.Trigger != trigger.Placeholder {
			r.Presenter.FireTrigger(res.Trigger)
		}
		err = r.Presenter.Message("Instructions", step.Visual.Text)
	default:
		spec := engine.StimulusSpec{
			Label:       step.Label(),
			Draw:        r.drawer(step.Visual),
			Trigger:     res.Trigger,
			Duration:    step.Duration,
			FreeViewing: step.FreeViewing,
		}
		if step.HasSound() {
			if spec.Audio, err = r.sound(step); err != nil {
				return res, err
			}
		}
		res.Report, err = r.Presenter.Present(spec)
	}
	return res, err
}

// resolve maps a trigger label to an event of the active table. Unknown labels
// are logged and send nothing.
func (r *Runner) resolve(step Step) trigger.Event {
	if step.Trigger == "" {
		return trigger.Placeholder
	}
	ev, ok := r.Table.Lookup(step.Trigger)
	if !ok {
		r.Logger.Warn().Str("trigger", step.Trigger).Str("table", r.Table.Name()).Int("line", step.Line).
			Msg("trigger name is not defined")
		return trigger.Placeholder
	}
	return ev
}

func (r *Runner) drawer(v Visual) func(engine.Canvas) {
	style := r.Style
	switch v.Kind {
	case VisualCross:
		return func(c engine.Canvas) { engine.DrawFixation(c, style) }
	case VisualCircle:
		return func(c engine.Canvas) { c.Draw(engine.Circle{Radius: v.Radius, Fill: style.Fixation}) }
	case VisualText:
		return func(c engine.Canvas) {
			c.Draw(engine.Text{Content: v.Text, Height: style.FixationSize, Color: style.Text})
		}
	case VisualImage:
		return func(c engine.Canvas) { c.Draw(engine.Image{Path: v.Path}) }
	}
	return nil
}

package engine

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"eyesync/trigger"
)

const testPeriod = time.Second / 60

type fakeClock struct {
	now time.Duration
}

func (c *fakeClock) Now() time.Duration { return c.now }

type sequence struct {
	steps []string
}

func (s *sequence) add(step string) { s.steps = append(s.steps, step) }

type fakeDisplay struct {
	clock   *fakeClock
	period  time.Duration
	seq     *sequence
	current []Shape
	frames  [][]Shape
	clears  int
	err     error
	// extra is added to the clock on the next Present only.
	extra time.Duration
}

func (d *fakeDisplay) Clear(Color) {
	d.clears++
	d.current = nil
}

func (d *fakeDisplay) Draw(s Shape) { d.current = append(d.current, s) }

func (d *fakeDisplay) Present() error {
	if d.err != nil {
		return d.err
	}
	d.clock.now += d.period + d.extra
	d.extra = 0
	d.frames = append(d.frames, d.current)
	d.current = nil
	d.seq.add("flip")
	return nil
}

func (d *fakeDisplay) RefreshPeriod() time.Duration { return d.period }

type scriptedGaze struct {
	samples []GazeSample
	reads   int
}

func (g *scriptedGaze) Sample() GazeSample {
	g.reads++
	if len(g.samples) == 0 {
		return GazeAt(0, 0)
	}
	s := g.samples[0]
	g.samples = g.samples[1:]
	return s
}

type scriptedKeys struct {
	polls [][]string
}

func (k *scriptedKeys) PollKeys() []string {
	if len(k.polls) == 0 {
		return nil
	}
	keys := k.polls[0]
	k.polls = k.polls[1:]
	return keys
}

type fakeDialogs struct {
	clock   *fakeClock
	answers []bool
	hold    time.Duration
	err     error
	titles  []string
	onShow  func()
}

func (d *fakeDialogs) Confirm(title, _ string) (bool, error) {
	d.titles = append(d.titles, title)
	if d.onShow != nil {
		d.onShow()
	}
	d.clock.now += d.hold
	if d.err != nil {
		return false, d.err
	}
	if len(d.answers) == 0 {
		return false, nil
	}
	ok := d.answers[0]
	d.answers = d.answers[1:]
	return ok, nil
}

type sound string

func (s sound) Name() string { return string(s) }

type fakeAudio struct {
	seq       *sequence
	scheduled map[string]time.Duration
	stopped   []string
}

func (a *fakeAudio) ScheduleStart(h AudioHandle, at time.Duration) error {
	a.seq.add("audio")
	a.scheduled[h.Name()] = at
	return nil
}

func (a *fakeAudio) Stop(h AudioHandle) { a.stopped = append(a.stopped, h.Name()) }

type triggerLog struct {
	seq    *sequence
	events []trigger.Event
}

func (r *triggerLog) RecordTrigger(ev trigger.Event, _ trigger.Code) {
	r.events = append(r.events, ev)
	r.seq.add("trigger:" + ev.String())
}

type rig struct {
	clock     *fakeClock
	seq       *sequence
	display   *fakeDisplay
	gaze      *scriptedGaze
	keys      *scriptedKeys
	dialogs   *fakeDialogs
	audio     *fakeAudio
	triggers  *triggerLog
	cfg       *Config
	ctx       *PresentationContext
	presenter *Presenter
}

func newRig(t *testing.T, configure ...func(*Config)) *rig {
	t.Helper()
	r := &rig{clock: &fakeClock{}, seq: &sequence{}}
	r.display = &fakeDisplay{clock: r.clock, period: testPeriod, seq: r.seq}
	r.gaze = &scriptedGaze{}
	r.keys = &scriptedKeys{}
	r.dialogs = &fakeDialogs{clock: r.clock}
	r.audio = &fakeAudio{seq: r.seq, scheduled: map[string]time.Duration{}}
	r.triggers = &triggerLog{seq: r.seq}

	r.cfg = DefaultConfig()
	for _, fn := range configure {
		fn(r.cfg)
	}
	enc := trigger.NewEncoder(r.cfg.TriggerTable(), trigger.WithRecorder(r.triggers))
	ctx, err := NewPresentationContext(Devices{
		Display: r.display,
		Gaze:    r.gaze,
		Keys:    r.keys,
		Dialogs: r.dialogs,
		Audio:   r.audio,
	}, enc, r.clock, r.cfg.Style(), zerolog.Nop())
	require.NoError(t, err)
	ctx.Events = NewEventLog(r.clock)
	r.ctx = ctx
	r.presenter = NewPresenter(ctx, r.cfg)
	return r
}

func (r *rig) flips() int { return len(r.display.frames) }

func repeat(s GazeSample, n int) []GazeSample {
	out := make([]GazeSample, n)
	for i := range out {
		out[i] = s
	}
	return out
}

package session

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eyesync/engine"
	"eyesync/trigger"
)

type fakePresenter struct {
	specs     []engine.StimulusSpec
	intervals []time.Duration
	fired     []trigger.Event
	messages  []string
	declined  error
	failAt    int
	err       error
}

func (p *fakePresenter) Present(spec engine.StimulusSpec) (engine.DurationReport, error) {
	p.specs = append(p.specs, spec)
	report := engine.DurationReport{Actual: spec.Duration, Frames: 1}
	if p.err != nil && len(p.specs)+len(p.intervals) == p.failAt {
		return report, p.err
	}
	return report, nil
}

func (p *fakePresenter) PresentInterval(d time.Duration) (engine.DurationReport, error) {
	p.intervals = append(p.intervals, d)
	return engine.DurationReport{Actual: d}, nil
}

func (p *fakePresenter) FireTrigger(ev trigger.Event) { p.fired = append(p.fired, ev) }

func (p *fakePresenter) Message(_, text string) error {
	p.messages = append(p.messages, text)
	return p.declined
}

type handle string

func (h handle) Name() string { return string(h) }

type fakeBank struct {
	calls int
	files []string
}

func (b *fakeBank) Tone(freq float64, d time.Duration) (engine.AudioHandle, error) {
	b.calls++
	return handle(strings.Join([]string{"tone", d.String()}, "_")), nil
}

func (b *fakeBank) LoadWAV(path string) (engine.AudioHandle, error) {
	b.files = append(b.files, path)
	return handle(path), nil
}

func newRunner(p *fakePresenter, table *trigger.Table) (*Runner, *fakeBank) {
	bank := &fakeBank{}
	return &Runner{
		Presenter: p,
		Table:     table,
		Style:     engine.DefaultConfig().Style(),
		Sounds:    bank,
		Logger:    zerolog.Nop(),
	}, bank
}

const auditoryPlan = `kind,duration_ms,trigger,visual,sound
message,0,,text:Listen
interval,1000,ISI
stimulus,100,standard_500Hz,cross,500
interval,1000,ISI
stimulus,100,oddball_750Hz,cross,750
stimulus,100,standard_500Hz,cross,500
stimulus,100,no_such_trigger,blank
`

func TestRunFiresMarkersAndResolvesTriggers(t *testing.T) {
	plan, err := ParsePlan(strings.NewReader(auditoryPlan))
	require.NoError(t, err)
	p := &fakePresenter{}
	r, bank := newRunner(p, trigger.AuditoryOddball)

	results, err := r.Run(context.Background(), plan)
	require.NoError(t, err)

	require.Len(t, results, 7)
	assert.Equal(t, []trigger.Event{trigger.ExperimentStart, trigger.ISI, trigger.ISI, trigger.ExperimentEnd}, p.fired)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, p.intervals)
	assert.Equal(t, []string{"Listen"}, p.messages)
	assert.Equal(t, 2, bank.calls, "tones are rendered once per frequency and duration")

	require.Len(t, p.specs, 4)
	assert.Equal(t, trigger.Standard500Hz, p.specs[0].Trigger)
	assert.NotNil(t, p.specs[0].Audio)
	assert.NotNil(t, p.specs[0].Draw)
	assert.Equal(t, trigger.Oddball750Hz, p.specs[1].Trigger)
	assert.Equal(t, trigger.Placeholder, p.specs[3].Trigger, "unknown trigger sends nothing")
	assert.Nil(t, p.specs[3].Audio)
	assert.Equal(t, trigger.ISI, results[1].Trigger)
}

func TestRunLoadsSoundFilesOnce(t *testing.T) {
	plan, err := ParsePlan(strings.NewReader(`stimulus,2000,manipulation_squeeze,text:Squeeze,squeeze.wav
interval,500
stimulus,2000,manipulation_squeeze,text:Squeeze,squeeze.wav
`))
	require.NoError(t, err)
	p := &fakePresenter{}
	r, bank := newRunner(p, trigger.AuditoryOddball)

	_, err = r.Run(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, []string{"squeeze.wav"}, bank.files)
	require.Len(t, p.specs, 2)
	assert.Equal(t, handle("squeeze.wav"), p.specs[1].Audio)
	assert.Equal(t, trigger.ManipulationSqueeze, p.specs[0].Trigger)
}

func TestRunReturnsPartialResultsOnAbort(t *testing.T) {
	plan, err := ParsePlan(strings.NewReader(auditoryPlan))
	require.NoError(t, err)
	p := &fakePresenter{failAt: 4, err: engine.ErrSessionAborted}
	r, _ := newRunner(p, trigger.AuditoryOddball)

	results, err := r.Run(context.Background(), plan)
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrSessionAborted)
	assert.Len(t, results, 5)
	assert.Equal(t, 100*time.Millisecond, results[4].Report.Actual)
	assert.NotContains(t, p.fired, trigger.ExperimentEnd)
}

func TestRunStopsWhenContextIsDone(t *testing.T) {
	plan, err := ParsePlan(strings.NewReader(auditoryPlan))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, _ := newRunner(&fakePresenter{}, trigger.AuditoryOddball)

	results, err := r.Run(ctx, plan)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

func TestRunWithoutSoundsFailsEarly(t *testing.T) {
	plan, err := ParsePlan(strings.NewReader(auditoryPlan))
	require.NoError(t, err)
	p := &fakePresenter{}
	r, _ := newRunner(p, trigger.AuditoryOddball)
	r.Sounds = nil

	_, err = r.Run(context.Background(), plan)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no audio output")
	assert.Empty(t, p.fired)
}

func TestWriteResults(t *testing.T) {
	plan, err := ParsePlan(strings.NewReader(auditoryPlan))
	require.NoError(t, err)
	r, _ := newRunner(&fakePresenter{}, trigger.AuditoryOddball)
	results, err := r.Run(context.Background(), plan)
	require.NoError(t, err)
	results[2].Report.Responses = []engine.Response{{Key: "space", RT: 420 * time.Millisecond}}

	path := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, WriteResults(path, "s-1", results))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 8)
	assert.Equal(t, resultHeader, rows[0])
	assert.Equal(t, []string{
		"s-1", "3", "4", "stimulus", "cross+tone_500Hz", "standard_500Hz",
		"0.100", "0.100", "0.000", "0.000", "0.000", "1", "0", "1", "0.420",
	}, rows[3])
}

func TestStampedName(t *testing.T) {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	assert.Equal(t, "out/results_20260304-050607.csv", StampedName("out/results.csv", ts))
	assert.Equal(t, "results_20260304-050607", StampedName("results", ts))
}

func TestRunnerPropagatesPresentErrors(t *testing.T) {
	plan, err := ParsePlan(strings.NewReader("stimulus,100,,cross\n"))
	require.NoError(t, err)
	boom := errors.New("present frame: device lost")
	r, _ := newRunner(&fakePresenter{failAt: 1, err: boom}, trigger.VisualOddball)

	_, err = r.Run(context.Background(), plan)
	assert.ErrorIs(t, err, boom)
}

func TestIntervalTriggerFiresBeforeInterval(t *testing.T) {
	plan, err := ParsePlan(strings.NewReader("interval,1000,ISI\ninterval,500\n"))
	require.NoError(t, err)
	p := &fakePresenter{}
	r, _ := newRunner(p, trigger.VisualOddball)

	results, err := r.Run(context.Background(), plan)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, trigger.ISI, results[0].Trigger)
	assert.Equal(t, trigger.Placeholder, results[1].Trigger)
	assert.Equal(t, []trigger.Event{trigger.ExperimentStart, trigger.ISI, trigger.ExperimentEnd}, p.fired)
	assert.Equal(t, []time.Duration{time.Second, 500 * time.Millisecond}, p.intervals)
}

func TestDeclinedMessageStopsSession(t *testing.T) {
	plan, err := ParsePlan(strings.NewReader(auditoryPlan))
	require.NoError(t, err)
	p := &fakePresenter{declined: engine.ErrSessionAborted}
	r, _ := newRunner(p, trigger.AuditoryOddball)

	results, err := r.Run(context.Background(), plan)
	assert.ErrorIs(t, err, engine.ErrSessionAborted)
	assert.Len(t, results, 1)
	assert.Empty(t, p.intervals)
	assert.Empty(t, p.specs)
	assert.NotContains(t, p.fired, trigger.ExperimentEnd)
}

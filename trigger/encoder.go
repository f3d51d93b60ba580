// Package trigger maps symbolic experiment events to 8-bit codes and pulses them on
// a digital output for the EEG recording system.
package trigger

import (
	"time"

	"github.com/rs/zerolog"

	"eyesync/internal/metrics"
)

// DefaultPulseWidth is how long a code is held on the lines before they are cleared.
const DefaultPulseWidth = 10 * time.Millisecond

// DigitalOutput drives the trigger lines.
type DigitalOutput interface {
	SetPin(index int, high bool) error
	ClearAll() error
}

// PatternOutput is implemented by outputs that can set all lines in one write.
type PatternOutput interface {
	SetPattern(p Pattern) error
}

// Recorder is notified of every code put on the lines (or logged in dummy mode).
type Recorder interface {
	RecordTrigger(ev Event, code Code)
}

// Encoder fires events from one table. Without an output it runs in dummy mode
// and only logs the code it would have sent.
type Encoder struct {
	table    *Table
	out      DigitalOutput
	pulse    time.Duration
	sleep    func(time.Duration)
	logger   zerolog.Logger
	recorder Recorder
}

type Option func(*Encoder)

// WithOutput attaches trigger hardware.
func WithOutput(out DigitalOutput) Option {
	return func(e *Encoder) { e.out = out }
}

func WithPulseWidth(d time.Duration) Option {
	return func(e *Encoder) { e.pulse = d }
}

// WithSleep replaces the pulse wait, mostly for tests.
func WithSleep(sleep func(time.Duration)) Option {
	return func(e *Encoder) { e.sleep = sleep }
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Encoder) { e.logger = l }
}

func WithRecorder(r Recorder) Option {
	return func(e *Encoder) { e.recorder = r }
}

func NewEncoder(table *Table, opts ...Option) *Encoder {
	e := &Encoder{
		table:  table,
		pulse:  DefaultPulseWidth,
		sleep:  time.Sleep,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Encoder) Table() *Table { return e.table }

// Dummy reports whether no hardware is attached.
func (e *Encoder) Dummy() bool { return e.out == nil }

// FireName resolves a marker label against the table and fires it. Unknown labels
// are logged and ignored.
func (e *Encoder) FireName(name string) {
	ev, ok := e.table.Lookup(name)
	if !ok {
		metrics.TriggersTotal.WithLabelValues(metrics.TriggerUnknown).Inc()
		e.logger.Warn().Str("trigger", name).Str("table", e.table.Name()).Msg("trigger name is not defined")
		return
	}
	e.Fire(ev)
}

// Fire puts the code of ev on the lines for the pulse width and clears them. With
// hardware attached this blocks the caller for the pulse width.
func (e *Encoder) Fire(ev Event) {
	if ev == Placeholder {
		metrics.TriggersTotal.WithLabelValues(metrics.TriggerRefused).Inc()
		e.logger.Warn().Msg("refusing to fire the reserved placeholder code")
		return
	}
	code, ok := e.table.Code(ev)
	if !ok {
		metrics.TriggersTotal.WithLabelValues(metrics.TriggerUnknown).Inc()
		e.logger.Warn().Stringer("trigger", ev).Str("table", e.table.Name()).Msg("trigger name is not defined")
		return
	}

	if e.out == nil {
		metrics.TriggersTotal.WithLabelValues(metrics.TriggerDummy).Inc()
		e.logger.Info().Stringer("trigger", ev).Uint8("code", uint8(code)).Msgf("dummy trigger S%d", code)
		e.record(ev, code)
		return
	}

	if err := e.pulseCode(code); err != nil {
		metrics.TriggersTotal.WithLabelValues(metrics.TriggerError).Inc()
		e.logger.Error().Err(err).Stringer("trigger", ev).Uint8("code", uint8(code)).Msg("trigger pulse failed")
		return
	}
	metrics.TriggersTotal.WithLabelValues(metrics.TriggerSent).Inc()
	e.logger.Debug().Stringer("trigger", ev).Str("bits", Bits(code)).Msgf("trigger S%d", code)
	e.record(ev, code)
}

func (e *Encoder) pulseCode(code Code) error {
	p := Encode(code)
	if po, ok := e.out.(PatternOutput); ok {
		if err := po.SetPattern(p); err != nil {
			return err
		}
	} else {
		for i, high := range p {
			if err := e.out.SetPin(i, high); err != nil {
				_ = e.out.ClearAll()
				return err
			}
		}
	}
	e.sleep(e.pulse)
	return e.out.ClearAll()
}

func (e *Encoder) record(ev Event, code Code) {
	if e.recorder != nil {
		e.recorder.RecordTrigger(ev, code)
	}
}

package trigger

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinWrite struct {
	Index int
	High  bool
}

type recordingOutput struct {
	writes  []pinWrite
	clears  int
	failPin int
}

func newRecordingOutput() *recordingOutput { return &recordingOutput{failPin: -1} }

func (o *recordingOutput) SetPin(index int, high bool) error {
	if index == o.failPin {
		return errors.New("line stuck")
	}
	o.writes = append(o.writes, pinWrite{index, high})
	return nil
}

func (o *recordingOutput) ClearAll() error {
	o.clears++
	return nil
}

type patternOutput struct {
	recordingOutput
	patterns []Pattern
}

func (o *patternOutput) SetPattern(p Pattern) error {
	o.patterns = append(o.patterns, p)
	return nil
}

type recorder struct {
	events []Event
	codes  []Code
}

func (r *recorder) RecordTrigger(ev Event, code Code) {
	r.events = append(r.events, ev)
	r.codes = append(r.codes, code)
}

func TestEveryEventHasAName(t *testing.T) {
	seen := map[string]Event{}
	for ev := Event(0); ev < numEvents; ev++ {
		name := ev.String()
		require.NotEmpty(t, name, "event %d", ev)
		if prev, dup := seen[name]; dup {
			t.Fatalf("events %d and %d share name %q", prev, ev, name)
		}
		seen[name] = ev

		parsed, ok := ParseEvent(name)
		require.True(t, ok)
		assert.Equal(t, ev, parsed)
	}
}

func TestBuiltinTables(t *testing.T) {
	for _, name := range TableNames() {
		t.Run(name, func(t *testing.T) {
			table, ok := TableByName(name)
			require.True(t, ok)

			events := table.Events()
			assert.Equal(t, Placeholder, events[0])
			codes := map[Code]bool{}
			for i, ev := range events {
				code, ok := table.Code(ev)
				require.True(t, ok)
				assert.Equal(t, Code(i), code)
				assert.False(t, codes[code], "duplicate code %d", code)
				codes[code] = true
			}
		})
	}
}

func TestTableCodesMatchPositions(t *testing.T) {
	tests := []struct {
		table *Table
		event Event
		want  Code
	}{
		{VisualOddball, Trial, 1},
		{VisualOddball, ISI, 2},
		{VisualOddball, Response, 15},
		{VisualOddball, PracticeOddballSLowULow, 31},
		{AuditoryOddball, Oddball750Hz, 2},
		{AuditoryOddball, ISI, 10},
		{AuditoryOddball, ExperimentStart, 14},
		{AuditoryOddball, OddballBlockRev, 24},
	}
	for _, tt := range tests {
		t.Run(tt.table.Name()+"/"+tt.event.String(), func(t *testing.T) {
			code, ok := tt.table.Code(tt.event)
			require.True(t, ok)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestNewTableRejects(t *testing.T) {
	tests := []struct {
		name   string
		events []Event
	}{
		{"empty", nil},
		{"placeholder not first", []Event{Trial, Placeholder}},
		{"duplicate", []Event{Placeholder, Trial, ISI, Trial}},
		{"placeholder twice", []Event{Placeholder, Trial, Placeholder}},
		{"out of range", []Event{Placeholder, numEvents}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable("bad", tt.events...)
			assert.Error(t, err)
		})
	}
}

func TestLookupRespectsTableMembership(t *testing.T) {
	ev, ok := AuditoryOddball.Lookup("ISI")
	require.True(t, ok)
	assert.Equal(t, ISI, ev)

	_, ok = AuditoryOddball.Lookup("response")
	assert.False(t, ok, "response is not part of the auditory table")

	_, ok = VisualOddball.Lookup("no_such_marker")
	assert.False(t, ok)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, table := range []*Table{VisualOddball, AuditoryOddball} {
		for _, ev := range table.Events() {
			code, _ := table.Code(ev)
			p := Encode(code)
			assert.Len(t, p, 8)
			assert.Equal(t, code, Decode(p))
			assert.Len(t, Bits(code), 8)
		}
	}
	for c := 0; c < 256; c++ {
		assert.Equal(t, Code(c), Decode(Encode(Code(c))))
	}
}

func TestFireISIOnAuditoryTable(t *testing.T) {
	out := newRecordingOutput()
	var slept []time.Duration
	rec := &recorder{}
	enc := NewEncoder(AuditoryOddball,
		WithOutput(out),
		WithSleep(func(d time.Duration) { slept = append(slept, d) }),
		WithRecorder(rec),
	)

	enc.Fire(ISI)

	assert.Equal(t, "00001010", Bits(10))
	want := []pinWrite{
		{0, false}, {1, true}, {2, false}, {3, true},
		{4, false}, {5, false}, {6, false}, {7, false},
	}
	if diff := cmp.Diff(want, out.writes); diff != "" {
		t.Errorf("pin writes mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, out.clears)
	assert.Equal(t, []time.Duration{DefaultPulseWidth}, slept)
	assert.Equal(t, []Event{ISI}, rec.events)
	assert.Equal(t, []Code{10}, rec.codes)
}

func TestFirePrefersPatternOutput(t *testing.T) {
	out := &patternOutput{recordingOutput: recordingOutput{failPin: -1}}
	enc := NewEncoder(VisualOddball, WithOutput(out), WithSleep(func(time.Duration) {}))

	enc.FireName("ISI")

	require.Len(t, out.patterns, 1)
	assert.Equal(t, Code(2), Decode(out.patterns[0]))
	assert.Empty(t, out.writes)
	assert.Equal(t, 1, out.clears)
}

func TestFireNeverSendsPlaceholder(t *testing.T) {
	out := newRecordingOutput()
	rec := &recorder{}
	enc := NewEncoder(VisualOddball, WithOutput(out), WithSleep(func(time.Duration) {}), WithRecorder(rec))

	enc.Fire(Placeholder)
	enc.FireName("PLACEHOLDER")

	assert.Empty(t, out.writes)
	assert.Zero(t, out.clears)
	assert.Empty(t, rec.events)
}

func TestFireUnknownIsNoop(t *testing.T) {
	out := newRecordingOutput()
	enc := NewEncoder(AuditoryOddball, WithOutput(out), WithSleep(func(time.Duration) {}))

	assert.NotPanics(t, func() {
		enc.FireName("does_not_exist")
		enc.Fire(Response)
	})
	assert.Empty(t, out.writes)
}

func TestFireDummyModeRecordsWithoutHardware(t *testing.T) {
	rec := &recorder{}
	slept := false
	enc := NewEncoder(VisualOddball, WithRecorder(rec), WithSleep(func(time.Duration) { slept = true }))

	require.True(t, enc.Dummy())
	enc.Fire(Trial)

	assert.Equal(t, []Event{Trial}, rec.events)
	assert.False(t, slept, "dummy mode does not stall the caller")
}

func TestFireClearsLinesAfterWriteFailure(t *testing.T) {
	out := newRecordingOutput()
	out.failPin = 3
	rec := &recorder{}
	enc := NewEncoder(VisualOddball, WithOutput(out), WithSleep(func(time.Duration) {}), WithRecorder(rec))

	enc.Fire(Response)

	assert.Equal(t, 1, out.clears)
	assert.Empty(t, rec.events)
}

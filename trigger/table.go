package trigger

import (
	"fmt"
	"sort"
)

// Code is the 8-bit value written to the digital output lines.
type Code uint8

// Table assigns codes to events by position. Position 0 is always Placeholder,
// which is reserved and never fired.
type Table struct {
	name   string
	events []Event
	codes  map[Event]Code
}

// NewTable builds a table whose codes are the positions of events.
func NewTable(name string, events ...Event) (*Table, error) {
	if len(events) == 0 || events[0] != Placeholder {
		return nil, fmt.Errorf("table %q: position 0 must be %s", name, Placeholder)
	}
	if len(events) > 256 {
		return nil, fmt.Errorf("table %q: %d events do not fit in 8 bits", name, len(events))
	}
	t := &Table{name: name, events: events, codes: make(map[Event]Code, len(events))}
	for i, ev := range events {
		if !ev.Valid() {
			return nil, fmt.Errorf("table %q: invalid event %d at position %d", name, ev, i)
		}
		if prev, dup := t.codes[ev]; dup {
			return nil, fmt.Errorf("table %q: %s listed at %d and %d", name, ev, prev, i)
		}
		t.codes[ev] = Code(i)
	}
	return t, nil
}

// MustTable is NewTable for package-level tables.
func MustTable(name string, events ...Event) *Table {
	t, err := NewTable(name, events...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) Name() string { return t.name }

// Len returns the number of entries including the placeholder.
func (t *Table) Len() int { return len(t.events) }

// Code returns the code assigned to ev and whether ev is part of the table.
func (t *Table) Code(ev Event) (Code, bool) {
	c, ok := t.codes[ev]
	return c, ok
}

// Event returns the event at code c.
func (t *Table) Event(c Code) (Event, bool) {
	if int(c) >= len(t.events) {
		return Placeholder, false
	}
	return t.events[c], true
}

// Lookup resolves a marker label against this table. It is the adapter used for
// names arriving from configuration files.
func (t *Table) Lookup(name string) (Event, bool) {
	ev, ok := ParseEvent(name)
	if !ok {
		return Placeholder, false
	}
	if _, in := t.codes[ev]; !in {
		return Placeholder, false
	}
	return ev, true
}

// Events returns the table entries in code order.
func (t *Table) Events() []Event {
	return append([]Event(nil), t.events...)
}

// VisualOddball is the parallel-port table of the visual oddball paradigm.
var VisualOddball = MustTable("visual-oddball",
	Placeholder,
	Trial,
	ISI,
	Baseline,
	ExperimentStart,
	ExperimentEnd,
	PauseInitiated,
	PauseEnded,
	ExperimentAborted,
	BaselineCalibration,
	BaselineWhiteSlide,
	BaselineBlackSlide,
	OddballBlock,
	PracticeTrial,
	PracticeOddballBlock,
	Response,
	StandardSHighUHigh,
	StandardSHighULow,
	StandardSLowUHigh,
	StandardSLowULow,
	OddballSHighUHigh,
	OddballSHighULow,
	OddballSLowUHigh,
	OddballSLowULow,
	PracticeStandardSHighUHigh,
	PracticeStandardSHighULow,
	PracticeStandardSLowUHigh,
	PracticeStandardSLowULow,
	PracticeOddballSHighUHigh,
	PracticeOddballSHighULow,
	PracticeOddballSLowUHigh,
	PracticeOddballSLowULow,
)

// AuditoryOddball is the parallel-port table of the auditory oddball paradigm.
var AuditoryOddball = MustTable("auditory-oddball",
	Placeholder,
	Trial,
	Oddball750Hz,
	Oddball500Hz,
	Standard750Hz,
	Standard500Hz,
	OddballRev750Hz,
	OddballRev500Hz,
	StandardRev750Hz,
	StandardRev500Hz,
	ISI,
	Baseline,
	ManipulationSqueeze,
	ManipulationRelax,
	ExperimentStart,
	ExperimentEnd,
	PauseInitiated,
	PauseEnded,
	ExperimentAborted,
	BaselineCalibration,
	BaselineWhiteSlide,
	BaselineBlackSlide,
	OddballBlock,
	ManipulationBlock,
	OddballBlockRev,
)

var tables = map[string]*Table{
	VisualOddball.Name():   VisualOddball,
	AuditoryOddball.Name(): AuditoryOddball,
}

// TableByName returns one of the built-in paradigm tables.
func TableByName(name string) (*Table, bool) {
	t, ok := tables[name]
	return t, ok
}

// TableNames lists the built-in tables in sorted order.
func TableNames() []string {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

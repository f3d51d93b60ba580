package engine

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/renameio/v2"

	"eyesync/trigger"
)

// Event log entry types.
const (
	EntryTrigger = "TRIGGER"
	EntryOnset   = "ONSET"
	EntryOffset  = "OFFSET"
	EntryMark    = "MARK"
)

type EventLogEntry struct {
	At    time.Duration
	Type  string
	Label string
	// Code is the trigger code, or -1 for entries without one.
	Code int
}

// EventLog collects timestamped session events. A nil *EventLog discards
// everything.
type EventLog struct {
	clock Clock

	mu      sync.Mutex
	entries []EventLogEntry
}

func NewEventLog(clock Clock) *EventLog {
	return &EventLog{clock: clock}
}

func (l *EventLog) Log(stype, label string) {
	l.add(stype, label, -1)
}

// RecordTrigger implements trigger.Recorder.
func (l *EventLog) RecordTrigger(ev trigger.Event, code trigger.Code) {
	l.add(EntryTrigger, ev.String(), int(code))
}

func (l *EventLog) add(stype, label string, code int) {
	if l == nil {
		return
	}
	at := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, EventLogEntry{At: at, Type: stype, Label: label, Code: code})
}

func (l *EventLog) Entries() []EventLogEntry {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]EventLogEntry(nil), l.entries...)
}

// Save writes the log as CSV, replacing path atomically.
func (l *EventLog) Save(path string) error {
	pf, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("event log: %w", err)
	}
	defer func() { _ = pf.Cleanup() }()

	w := csv.NewWriter(pf)
	_ = w.Write([]string{"time_s", "type", "label", "code"})
	for _, e := range l.Entries() {
		code := ""
		if e.Code >= 0 {
			code = strconv.Itoa(e.Code)
		}
		_ = w.Write([]string{
			strconv.FormatFloat(e.At.Seconds(), 'f', 4, 64),
			e.Type,
			e.Label,
			code,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("event log: %w", err)
	}
	return pf.CloseAtomicallyReplace()
}

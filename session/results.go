package session

import (
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/renameio/v2"

	"eyesync/trigger"
)

var resultHeader = []string{
	"session", "step", "line", "kind", "label", "trigger",
	"planned_s", "actual_s", "offset_s", "pause_s", "no_data_s",
	"frames", "restarts", "responses", "first_rt_s",
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

// WriteResults writes one CSV row per result, replacing path atomically.
func WriteResults(path, session string, results []Result) error {
	pf, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	defer func() { _ = pf.Cleanup() }()

	w := csv.NewWriter(pf)
	if err := w.Write(resultHeader); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	for _, r := range results {
		trig := ""
		if r.Trigger != trigger.Placeholder {
			trig = r.Trigger.String()
		}
		firstRT := ""
		if len(r.Report.Responses) > 0 {
			firstRT = seconds(r.Report.Responses[0].RT)
		}
		row := []string{
			session,
			strconv.Itoa(r.Index + 1),
			strconv.Itoa(r.Step.Line),
			r.Step.Kind.String(),
			r.Step.Label(),
			trig,
			seconds(r.Step.Duration),
			seconds(r.Report.Actual),
			seconds(r.Report.GazeOffset),
			seconds(r.Report.Pause),
			seconds(r.Report.NoData),
			strconv.Itoa(r.Report.Frames),
			strconv.Itoa(r.Report.Restarts),
			strconv.Itoa(len(r.Report.Responses)),
			firstRT,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write results: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return pf.CloseAtomicallyReplace()
}

// StampedName inserts a timestamp before the extension of path, so that
// consecutive sessions never overwrite each other.
func StampedName(path string, t time.Time) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_" + t.Format("20060102-150405") + ext
}

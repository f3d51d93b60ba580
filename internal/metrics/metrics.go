// Package metrics provides Prometheus metrics for presentation sessions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values for gaze interruption metrics.
const (
	StateNoData = "no_data"
	StateOffset = "offset"
)

// Label values for TriggersTotal.
const (
	TriggerSent    = "sent"
	TriggerDummy   = "dummy"
	TriggerUnknown = "unknown"
	TriggerRefused = "refused"
	TriggerError   = "error"
)

var (
	// FramesTotal counts display refreshes waited on by the frame clock.
	FramesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eyesync_frames_total",
		Help: "Total number of display refreshes presented.",
	})

	// DroppedFramesTotal counts refreshes missed between two consecutive flips.
	DroppedFramesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eyesync_dropped_frames_total",
		Help: "Total number of refreshes missed, estimated from flip intervals longer than 1.5 periods.",
	})

	// FrameIntervalSeconds observes the time between consecutive flips.
	FrameIntervalSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "eyesync_frame_interval_seconds",
		Help:    "Time between consecutive display flips.",
		Buckets: prometheus.LinearBuckets(0.002, 0.002, 20),
	})

	// GazeInterruptionsTotal counts entries into a corrective gaze state.
	GazeInterruptionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eyesync_gaze_interruptions_total",
		Help: "Total number of gaze interruptions, by state (no_data/offset).",
	}, []string{"state"})

	// GazeRecoverySeconds accumulates time spent in corrective gaze states.
	GazeRecoverySeconds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eyesync_gaze_recovery_seconds_total",
		Help: "Total time spent waiting for gaze recovery, by state (no_data/offset).",
	}, []string{"state"})

	// PauseSecondsTotal accumulates operator pause and quit-prompt time.
	PauseSecondsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eyesync_pause_seconds_total",
		Help: "Total time spent in operator dialogs.",
	})

	// PresentationsTotal counts presentation calls that ran at least one frame.
	PresentationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eyesync_presentations_total",
		Help: "Total number of stimulus and interval presentations.",
	})

	// RestartsTotal counts frame budgets restarted after gaze recovery.
	RestartsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eyesync_presentation_restarts_total",
		Help: "Total number of presentations restarted after a gaze interruption.",
	})

	// TriggersTotal counts trigger requests by outcome.
	TriggersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eyesync_triggers_total",
		Help: "Total number of trigger requests, by result (sent/dummy/unknown/refused/error).",
	}, []string{"result"})
)

// WriteTextfile dumps the default registry in the text exposition format, for
// node_exporter's textfile collector on the stimulus PC.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

package trigger

// Event is a symbolic marker that can be sent to the recording system. The set is
// closed: each paradigm table selects the events it uses and assigns their codes.
type Event uint8

const (
	Placeholder Event = iota
	Trial
	ISI
	Baseline
	ExperimentStart
	ExperimentEnd
	PauseInitiated
	PauseEnded
	ExperimentAborted
	BaselineCalibration
	BaselineWhiteSlide
	BaselineBlackSlide
	OddballBlock
	PracticeTrial
	PracticeOddballBlock
	Response

	// Visual oddball: standard/oddball x salience (s) x utility (u).
	StandardSHighUHigh
	StandardSHighULow
	StandardSLowUHigh
	StandardSLowULow
	OddballSHighUHigh
	OddballSHighULow
	OddballSLowUHigh
	OddballSLowULow
	PracticeStandardSHighUHigh
	PracticeStandardSHighULow
	PracticeStandardSLowUHigh
	PracticeStandardSLowULow
	PracticeOddballSHighUHigh
	PracticeOddballSHighULow
	PracticeOddballSLowUHigh
	PracticeOddballSLowULow

	// Auditory oddball.
	Oddball750Hz
	Oddball500Hz
	Standard750Hz
	Standard500Hz
	OddballRev750Hz
	OddballRev500Hz
	StandardRev750Hz
	StandardRev500Hz
	ManipulationSqueeze
	ManipulationRelax
	ManipulationBlock
	OddballBlockRev

	numEvents
)

// Names are the marker labels used in configuration files and plan CSVs.
var eventNames = [numEvents]string{
	Placeholder:          "PLACEHOLDER",
	Trial:                "trial",
	ISI:                  "ISI",
	Baseline:             "baseline",
	ExperimentStart:      "experiment_start",
	ExperimentEnd:        "experiment_end",
	PauseInitiated:       "pause_initiated",
	PauseEnded:           "pause_ended",
	ExperimentAborted:    "experiment_aborted",
	BaselineCalibration:  "baseline_calibration",
	BaselineWhiteSlide:   "baseline_whiteslide",
	BaselineBlackSlide:   "baseline_blackslide",
	OddballBlock:         "oddball_block",
	PracticeTrial:        "practice_trial",
	PracticeOddballBlock: "practoddball_block",
	Response:             "response",

	StandardSHighUHigh:         "standard_shigh_uhigh",
	StandardSHighULow:          "standard_shigh_ulow",
	StandardSLowUHigh:          "standard_slow_uhigh",
	StandardSLowULow:           "standard_slow_ulow",
	OddballSHighUHigh:          "oddball_shigh_uhigh",
	OddballSHighULow:           "oddball_shigh_ulow",
	OddballSLowUHigh:           "oddball_slow_uhigh",
	OddballSLowULow:            "oddball_slow_ulow",
	PracticeStandardSHighUHigh: "pract_standard_shigh_uhigh",
	PracticeStandardSHighULow:  "pract_standard_shigh_ulow",
	PracticeStandardSLowUHigh:  "pract_standard_slow_uhigh",
	PracticeStandardSLowULow:   "pract_standard_slow_ulow",
	PracticeOddballSHighUHigh:  "practoddball_shigh_uhigh",
	PracticeOddballSHighULow:   "practoddball_shigh_ulow",
	PracticeOddballSLowUHigh:   "practoddball_slow_uhigh",
	PracticeOddballSLowULow:    "practoddball_slow_ulow",

	Oddball750Hz:        "oddball_750Hz",
	Oddball500Hz:        "oddball_500Hz",
	Standard750Hz:       "standard_750Hz",
	Standard500Hz:       "standard_500Hz",
	OddballRev750Hz:     "oddball_rev_750Hz",
	OddballRev500Hz:     "oddball_rev_500Hz",
	StandardRev750Hz:    "standard_rev_750Hz",
	StandardRev500Hz:    "standard_rev_500Hz",
	ManipulationSqueeze: "manipulation_squeeze",
	ManipulationRelax:   "manipulation_relax",
	ManipulationBlock:   "manipulation_block",
	OddballBlockRev:     "oddball_block_rev",
}

var eventsByName = func() map[string]Event {
	m := make(map[string]Event, numEvents)
	for ev, name := range eventNames {
		m[name] = Event(ev)
	}
	return m
}()

func (e Event) String() string {
	if e >= numEvents {
		return "unknown"
	}
	return eventNames[e]
}

// Valid reports whether e is a member of the closed event set.
func (e Event) Valid() bool { return e < numEvents }

// ParseEvent resolves a marker label to its event.
func ParseEvent(name string) (Event, bool) {
	ev, ok := eventsByName[name]
	return ev, ok
}

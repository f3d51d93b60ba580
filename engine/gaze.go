package engine

import "math"

// GazeSample is one reading of the eye tracker in screen pixels from the center.
// OK is false when the tracker reported no data.
type GazeSample struct {
	X, Y float64
	OK   bool
}

func GazeAt(x, y float64) GazeSample { return GazeSample{X: x, Y: y, OK: true} }

func NoGaze() GazeSample { return GazeSample{} }

type GazeState int

const (
	GazeValid GazeState = iota
	GazeNoData
	GazeOffset
)

func (s GazeState) String() string {
	switch s {
	case GazeValid:
		return "valid"
	case GazeNoData:
		return "no_data"
	case GazeOffset:
		return "offset"
	}
	return "unknown"
}

// IsOffset reports whether (x, y) is at or beyond cutoff pixels from the center.
func IsOffset(x, y, cutoff float64) bool {
	return math.Hypot(x, y) >= cutoff
}

// Classify maps a sample to a state. A missing sample is NoData regardless of
// position.
func Classify(s GazeSample, cutoff float64) GazeState {
	if !s.OK {
		return GazeNoData
	}
	if IsOffset(s.X, s.Y, cutoff) {
		return GazeOffset
	}
	return GazeValid
}

// Action is what the presentation loop does for one frame given the gaze state.
type Action int

const (
	// ActionPresent continues the stimulus.
	ActionPresent Action = iota
	// ActionResume leaves a recovery loop.
	ActionResume
	ActionEnterNoData
	ActionHoldNoData
	ActionEnterOffset
	ActionHoldOffset
)

func (a Action) String() string {
	switch a {
	case ActionPresent:
		return "present"
	case ActionResume:
		return "resume"
	case ActionEnterNoData:
		return "enter_no_data"
	case ActionHoldNoData:
		return "hold_no_data"
	case ActionEnterOffset:
		return "enter_offset"
	case ActionHoldOffset:
		return "hold_offset"
	}
	return "unknown"
}

// Transition decides the action for the current state given the state of the
// previous frame.
func Transition(current, previous GazeState) Action {
	switch current {
	case GazeValid:
		if previous == GazeValid {
			return ActionPresent
		}
		return ActionResume
	case GazeNoData:
		if previous == GazeNoData {
			return ActionHoldNoData
		}
		return ActionEnterNoData
	default:
		if previous == GazeOffset {
			return ActionHoldOffset
		}
		return ActionEnterOffset
	}
}

package engine

import "time"

// Display is a double-buffered surface that flips on vertical refresh.
// Coordinates are pixels relative to the screen center, y pointing up.
type Display interface {
	Clear(c Color)
	Draw(s Shape)
	// Present flips the back buffer and blocks until the flip has happened.
	Present() error
	RefreshPeriod() time.Duration
}

// Canvas is the drawing surface handed to stimulus draw callbacks.
type Canvas interface {
	Draw(s Shape)
}

// GazeSource returns the latest gaze sample. It must not block.
type GazeSource interface {
	Sample() GazeSample
}

// GazeClock is implemented by gaze sources that expose the tracker's own clock.
type GazeClock interface {
	DeviceTime() time.Duration
}

// AudioHandle identifies a prepared sound.
type AudioHandle interface {
	Name() string
}

// AudioOutput plays prepared sounds starting at an instant on the engine clock.
type AudioOutput interface {
	ScheduleStart(h AudioHandle, at time.Duration) error
	Stop(h AudioHandle)
}

// KeySource returns the names of keys pressed since the last call, lower case.
type KeySource interface {
	PollKeys() []string
}

// DialogHost shows a modal prompt and blocks until the operator answers.
type DialogHost interface {
	Confirm(title, text string) (bool, error)
}

// Devices bundles the hardware a session runs on. Audio may be nil.
type Devices struct {
	Display Display
	Gaze    GazeSource
	Keys    KeySource
	Dialogs DialogHost
	Audio   AudioOutput
}

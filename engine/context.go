package engine

import (
	"errors"

	"github.com/rs/zerolog"

	"eyesync/trigger"
)

// Screen tells which surface currently owns the display.
type Screen int

const (
	ScreenPresentation Screen = iota
	ScreenDialog
)

func (s Screen) String() string {
	if s == ScreenDialog {
		return "dialog"
	}
	return "presentation"
}

// PresentationContext carries the devices and per-session state shared by the
// frame clock, the gaze monitor, the input watcher and the presenter.
type PresentationContext struct {
	Devices
	Triggers *trigger.Encoder
	Frames   *FrameClock
	Clock    Clock
	Events   *EventLog
	Style    Style
	Logger   zerolog.Logger
	Screen   Screen
}

// NewPresentationContext checks the device bundle and builds the frame clock.
// A nil encoder is replaced by a dummy one on the visual oddball table.
func NewPresentationContext(dev Devices, triggers *trigger.Encoder, clock Clock, style Style, logger zerolog.Logger) (*PresentationContext, error) {
	var errs []error
	if dev.Display == nil {
		errs = append(errs, errors.New("no display"))
	}
	if dev.Gaze == nil {
		errs = append(errs, errors.New("no gaze source"))
	}
	if dev.Keys == nil {
		errs = append(errs, errors.New("no key source"))
	}
	if dev.Dialogs == nil {
		errs = append(errs, errors.New("no dialog host"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = NewMonotonicClock()
	}
	if triggers == nil {
		triggers = trigger.NewEncoder(trigger.VisualOddball, trigger.WithLogger(logger))
	}
	return &PresentationContext{
		Devices:  dev,
		Triggers: triggers,
		Frames:   NewFrameClock(dev.Display, clock, logger.With().Str("component", "frames").Logger()),
		Clock:    clock,
		Style:    style,
		Logger:   logger,
	}, nil
}

package engine

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"eyesync/internal/metrics"
	"eyesync/trigger"
)

// ErrSessionAborted is returned when the operator confirms the quit dialog.
var ErrSessionAborted = errors.New("session aborted by operator")

const (
	quitTitle = "Quit?"
	quitText  = "Quit the experiment? Press Y to quit, N to continue."
)

// Response is a key press collected while a stimulus was on screen.
type Response struct {
	Key string
	At  time.Duration
	// RT is measured from the start of the presentation.
	RT time.Duration
}

// InputWatcher drains the key source once per frame and handles the operator
// keys.
type InputWatcher struct {
	ctx    *PresentationContext
	cfg    InputConfig
	logger zerolog.Logger

	onset     time.Duration
	responses []Response
}

func NewInputWatcher(pctx *PresentationContext, cfg InputConfig) *InputWatcher {
	return &InputWatcher{
		ctx:    pctx,
		cfg:    cfg,
		logger: pctx.Logger.With().Str("component", "input").Logger(),
	}
}

// begin starts response collection for a presentation starting at onset.
func (w *InputWatcher) begin(onset time.Duration) {
	w.onset = onset
	w.responses = nil
}

// Responses returns the responses collected since the last presentation began.
func (w *InputWatcher) Responses() []Response {
	return append([]Response(nil), w.responses...)
}

// Poll handles all keys pressed since the previous call and returns the time
// spent in operator dialogs. It returns ErrSessionAborted when the operator
// confirms quitting.
func (w *InputWatcher) Poll() (time.Duration, error) {
	var paused time.Duration
	for _, key := range w.ctx.Keys.PollKeys() {
		switch {
		case key == w.cfg.QuitKey:
			d, err := w.prompt(quitTitle, quitText, true)
			paused += d
			if err != nil {
				return paused, err
			}
		case key == w.cfg.PauseKey:
			d, err := w.prompt("Pause", "The experiment is paused. Press Enter to continue.", false)
			paused += d
			if err != nil {
				return paused, err
			}
		case slices.Contains(w.cfg.ResponseKeys, key):
			w.respond(key)
		}
	}
	return paused, nil
}

// Message shows an instruction screen and waits for the participant. Declining
// it is a quit request and opens the quit dialog.
func (w *InputWatcher) Message(title, text string) error {
	w.ctx.Screen = ScreenDialog
	w.ctx.Events.Log(EntryMark, "message")
	ok, err := w.ctx.Dialogs.Confirm(title, text)
	w.ctx.Screen = ScreenPresentation
	w.ctx.Frames.Resync()
	if err != nil {
		return fmt.Errorf("%s dialog: %w", title, err)
	}
	if ok {
		return nil
	}
	w.logger.Info().Str("dialog", title).Msg("message declined")
	_, err = w.prompt(quitTitle, quitText, true)
	return err
}

func (w *InputWatcher) prompt(title, text string, quit bool) (time.Duration, error) {
	start := w.ctx.Clock.Now()
	w.ctx.Triggers.Fire(trigger.PauseInitiated)
	w.ctx.Screen = ScreenDialog
	w.ctx.Events.Log(EntryMark, "pause")
	w.logger.Info().Str("dialog", title).Msg("presentation paused")

	ok, err := w.ctx.Dialogs.Confirm(title, text)

	w.ctx.Screen = ScreenPresentation
	w.ctx.Frames.Resync()
	elapsed := w.ctx.Clock.Now() - start
	metrics.PauseSecondsTotal.Add(elapsed.Seconds())
	if err != nil {
		return elapsed, fmt.Errorf("%s dialog: %w", title, err)
	}
	if quit && ok {
		w.ctx.Triggers.Fire(trigger.ExperimentAborted)
		w.ctx.Events.Log(EntryMark, "abort")
		w.logger.Warn().Dur("paused", elapsed).Msg("experiment aborted by operator")
		return elapsed, ErrSessionAborted
	}
	w.ctx.Triggers.Fire(trigger.PauseEnded)
	w.ctx.Events.Log(EntryMark, "resume")
	w.logger.Info().Dur("paused", elapsed).Msg("presentation resumed")
	return elapsed, nil
}

func (w *InputWatcher) respond(key string) {
	at := w.ctx.Clock.Now()
	r := Response{Key: key, At: at, RT: at - w.onset}
	w.responses = append(w.responses, r)
	w.ctx.Triggers.Fire(trigger.Response)
	w.ctx.Events.Log("RESPONSE", key)
	w.logger.Debug().Str("key", key).Dur("rt", r.RT).Msg("response")
}

package cli

import (
	"fmt"

	"github.com/rs/zerolog"

	"eyesync/console"
	"eyesync/engine"
	"eyesync/internal/app"
	"eyesync/sdlio"
	"eyesync/tone"
)

const (
	backendSDL     = "sdl"
	backendConsole = "console"
)

func opener(backend string) (app.Opener, error) {
	switch backend {
	case backendSDL:
		return openSDL, nil
	case backendConsole:
		return openConsole, nil
	}
	return nil, fmt.Errorf("unknown backend %q (want %s or %s)", backend, backendSDL, backendConsole)
}

func openSDL(cfg *engine.Config, clock engine.Clock, logger zerolog.Logger) (*app.Backend, error) {
	quit, err := sdlio.Init()
	if err != nil {
		return nil, err
	}
	win, err := sdlio.OpenWindow(cfg.Display, cfg.Input.QuitKey, logger)
	if err != nil {
		quit()
		return nil, err
	}
	b := &app.Backend{
		Devices: engine.Devices{Display: win, Gaze: win, Keys: win, Dialogs: win},
		Preload: win.Preload,
	}
	var mixer *sdlio.Mixer
	if cfg.Audio.Enabled {
		if mixer, err = sdlio.OpenMixer(clock, cfg.Audio, logger); err != nil {
			win.Close()
			quit()
			return nil, err
		}
		b.Devices.Audio = mixer
		b.Sounds = mixer
	}
	b.Close = func() {
		if mixer != nil {
			mixer.Close()
		}
		win.Close()
		quit()
	}
	return b, nil
}

func openConsole(cfg *engine.Config, clock engine.Clock, logger zerolog.Logger) (*app.Backend, error) {
	term, err := console.Open(cfg.Display, clock, cfg.Input.QuitKey, logger)
	if err != nil {
		return nil, err
	}
	b := &app.Backend{
		Devices: engine.Devices{Display: term, Gaze: term, Keys: term, Dialogs: term},
	}
	var player *tone.Player
	if cfg.Audio.Enabled {
		spec := tone.Spec{SampleRate: cfg.Audio.SampleRate, Volume: cfg.Audio.Volume, Ramp: cfg.Audio.Ramp}
		if player, err = tone.NewSpeakerPlayer(clock, spec); err != nil {
			logger.Warn().Err(err).Msg("no audio device, sounds will not play")
		} else {
			b.Devices.Audio = player
			b.Sounds = player
		}
	}
	b.Close = func() {
		if player != nil {
			player.Close()
		}
		term.Close()
	}
	return b, nil
}

// Package sdlio runs the engine on an SDL3 window: display, keyboard, mouse gaze
// simulation, operator dialogs and the scheduled audio mixer.
package sdlio

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Zyko0/go-sdl3/sdl"
	"github.com/Zyko0/go-sdl3/ttf"
	"github.com/rs/zerolog"

	"eyesync/engine"
)

// Init starts the SDL video, audio and event subsystems and the font engine.
// The returned function shuts them down.
func Init() (func(), error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("SDL_Init: %w", err)
	}
	if err := ttf.Init(); err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("TTF_Init: %w", err)
	}
	return func() {
		ttf.Quit()
		sdl.Quit()
	}, nil
}

// Window is the SDL backend of engine.Display, engine.KeySource,
// engine.GazeSource and engine.DialogHost. The mouse stands in for the eye
// tracker; holding any mouse button reports lost tracking.
type Window struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	font     *ttf.Font
	cache    *textureCache
	proj     projection
	period   time.Duration
	vsync    bool
	quitKey  string
	text     engine.Color
	logger   zerolog.Logger

	keys      []string
	mouse     engine.Point
	mouseDown bool
}

// OpenWindow creates the presentation window. quitKey is reported when the
// window manager asks the window to close.
func OpenWindow(cfg engine.DisplayConfig, quitKey string, logger zerolog.Logger) (*Window, error) {
	flags := sdl.WINDOW_RESIZABLE
	if cfg.Fullscreen {
		flags |= sdl.WINDOW_FULLSCREEN
	}
	window, renderer, err := sdl.CreateWindowAndRenderer("eyesync", cfg.Width, cfg.Height, flags)
	if err != nil {
		return nil, fmt.Errorf("CreateWindowAndRenderer: %w", err)
	}
	if cfg.VSync {
		renderer.SetVSync(1)
	} else {
		renderer.SetVSync(0)
	}

	w := &Window{
		window:   window,
		renderer: renderer,
		proj:     projection{w: float64(cfg.Width), h: float64(cfg.Height)},
		vsync:    cfg.VSync,
		quitKey:  quitKey,
		text:     cfg.Text,
		logger:   logger,
	}
	w.period = engine.PeriodFromRate(w.refreshRate())
	w.resize()

	fontPath := cfg.FontFile
	if fontPath == "" {
		fontPath = DefaultFontPath()
	}
	if fontPath != "" {
		size := cfg.FontSize
		if size <= 0 {
			size = 24
		}
		if w.font, err = ttf.OpenFont(fontPath, float32(size)); err != nil {
			logger.Warn().Err(err).Str("font", fontPath).Msg("failed to load font, text will not be shown")
		}
	} else {
		logger.Warn().Msg("no font found, text will not be shown")
	}
	w.cache = newTextureCache(renderer, w.font)

	logger.Info().
		Int("width", cfg.Width).
		Int("height", cfg.Height).
		Float64("output_width", w.proj.w).
		Float64("output_height", w.proj.h).
		Bool("fullscreen", cfg.Fullscreen).
		Bool("vsync", cfg.VSync).
		Dur("period", w.period).
		Msg("window opened")
	return w, nil
}

// resize centers the projection on the renderer output, which differs from the
// configured size in fullscreen or after the window was resized.
func (w *Window) resize() {
	ow, oh, err := w.renderer.CurrentOutputSize()
	if err != nil {
		w.logger.Warn().Err(err).Msg("renderer output size unknown, keeping configured size")
		return
	}
	w.proj = w.proj.resized(ow, oh)
	w.logger.Debug().Float64("width", w.proj.w).Float64("height", w.proj.h).Msg("output size")
}

func (w *Window) refreshRate() float64 {
	display := sdl.GetDisplayForWindow(w.window)
	mode, err := display.CurrentDisplayMode()
	if err != nil || mode.RefreshRate <= 0 {
		w.logger.Warn().Err(err).Msg("display refresh rate unknown, assuming 60 Hz")
		return engine.DefaultRefreshRate
	}
	return float64(mode.RefreshRate)
}

// Preload loads images before the session starts.
func (w *Window) Preload(paths ...string) error {
	return w.cache.Preload(paths...)
}

func (w *Window) Close() {
	w.cache.destroy()
	if w.font != nil {
		w.font.Close()
	}
	w.renderer.Destroy()
	w.window.Destroy()
}

func (w *Window) RefreshPeriod() time.Duration { return w.period }

func (w *Window) setColor(c engine.Color) {
	w.renderer.SetDrawColor(c.R, c.G, c.B, c.A)
}

func (w *Window) Clear(c engine.Color) {
	w.setColor(c)
	w.renderer.Clear()
}

func (w *Window) Draw(s engine.Shape) {
	switch s := s.(type) {
	case engine.Line:
		w.setColor(s.Color)
		for _, seg := range thickLine(w.proj, s) {
			w.renderer.RenderLine(seg.From.X, seg.From.Y, seg.To.X, seg.To.Y)
		}
	case engine.Circle:
		w.setColor(s.Fill)
		for _, span := range circleSpans(w.proj, s) {
			w.renderer.RenderLine(span.From.X, span.From.Y, span.To.X, span.To.Y)
		}
	case engine.Rect:
		box := w.proj.rect(s)
		if s.Fill.A > 0 {
			w.setColor(s.Fill)
			w.renderer.RenderFillRect(&sdl.FRect{X: box.X, Y: box.Y, W: box.W, H: box.H})
		}
		if s.LineWidth > 0 {
			w.setColor(s.Line)
			for _, b := range outline(box, s.LineWidth) {
				w.renderer.RenderRect(&sdl.FRect{X: b.X, Y: b.Y, W: b.W, H: b.H})
			}
		}
	case engine.Text:
		t, err := w.cache.textTexture(s.Content, s.Color)
		if err != nil {
			return
		}
		w.blit(t, fitBox(w.proj, s.Pos, t.w, t.h, s.Height, 0))
	case engine.Image:
		t, err := w.cache.image(s.Path)
		if err != nil {
			w.logger.Error().Err(err).Msg("image not shown")
			return
		}
		w.blit(t, fitBox(w.proj, s.Center, t.w, t.h, 0, s.Scale))
	}
}

func (w *Window) blit(t *texture, b rectBox) {
	w.renderer.RenderTexture(t.tex, nil, &sdl.FRect{X: b.X, Y: b.Y, W: b.W, H: b.H})
}

// Present flips the frame. With vsync on the call returns at the refresh.
func (w *Window) Present() error {
	if err := w.renderer.Present(); err != nil {
		return err
	}
	if !w.vsync {
		time.Sleep(w.period)
	}
	w.pump()
	return nil
}

// pump drains the SDL event queue into key and mouse state.
func (w *Window) pump() {
	var ev sdl.Event
	for sdl.PollEvent(&ev) {
		switch ev.Type {
		case sdl.EVENT_QUIT:
			w.keys = append(w.keys, w.quitKey)
		case sdl.EVENT_KEY_DOWN:
			w.keys = append(w.keys, strings.ToLower(ev.KeyboardEvent().Key.KeyName()))
		case sdl.EVENT_WINDOW_PIXEL_SIZE_CHANGED:
			w.resize()
		case sdl.EVENT_MOUSE_MOTION:
			m := ev.MouseMotionEvent()
			x, y, err := w.renderer.RenderCoordinatesFromWindow(m.X, m.Y)
			if err != nil {
				x, y = m.X, m.Y
			}
			w.mouse = w.proj.toEngine(x, y)
		case sdl.EVENT_MOUSE_BUTTON_DOWN:
			w.mouseDown = true
		case sdl.EVENT_MOUSE_BUTTON_UP:
			w.mouseDown = false
		}
	}
}

func (w *Window) PollKeys() []string {
	w.pump()
	keys := w.keys
	w.keys = nil
	return keys
}

func (w *Window) Sample() engine.GazeSample {
	if w.mouseDown {
		return engine.NoGaze()
	}
	return engine.GazeAt(w.mouse.X, w.mouse.Y)
}

var errWindowClosed = errors.New("window closed")

// Confirm shows a prompt over the presentation and waits for Y or Return
// (true) or N or Escape (false).
func (w *Window) Confirm(title, text string) (bool, error) {
	bg := engine.Color{R: 40, G: 40, B: 40, A: 255}
	w.Clear(bg)
	w.Draw(engine.Text{Pos: engine.Point{Y: 60}, Content: title, Height: 48, Color: w.text})
	w.Draw(engine.Text{Pos: engine.Point{Y: -20}, Content: text, Height: 28, Color: w.text})
	if err := w.renderer.Present(); err != nil {
		return false, err
	}

	for {
		var ev sdl.Event
		if err := sdl.WaitEvent(&ev); err != nil {
			return false, err
		}
		switch ev.Type {
		case sdl.EVENT_QUIT:
			return false, errWindowClosed
		case sdl.EVENT_WINDOW_PIXEL_SIZE_CHANGED:
			w.resize()
		case sdl.EVENT_KEY_DOWN:
			switch strings.ToLower(ev.KeyboardEvent().Key.KeyName()) {
			case "y", "return", "keypad enter":
				return true, nil
			case "n", "escape":
				return false, nil
			}
		}
	}
}

package sdlio

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/Zyko0/go-sdl3/sdl"
	"github.com/Zyko0/go-sdl3/ttf"
	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Setup holds the choices made in the setup window. They are remembered
// between launches in a small YAML file.
type Setup struct {
	PlanFile   string `yaml:"plan"`
	ConfigFile string `yaml:"config"`
	OutputFile string `yaml:"output"`
	Device     string `yaml:"device"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
}

// SetupCachePath is where the setup window keeps its last choices.
func SetupCachePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".eyesync-setup.yaml"
	}
	return filepath.Join(dir, "eyesync", "setup.yaml")
}

// LoadSetup reads remembered choices. A missing file yields defaults.
func LoadSetup(path string) (*Setup, error) {
	s := &Setup{OutputFile: "results.csv", Width: 1920, Height: 1080}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read setup cache: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil {
		return s, fmt.Errorf("parse setup cache %s: %w", path, err)
	}
	return s, nil
}

func (s *Setup) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create setup cache dir: %w", err)
	}
	return renameio.WriteFile(path, data, 0o644)
}

type resolution struct {
	W, H  int
	Label string
}

var resolutions = []resolution{
	{800, 600, "800x600 (SVGA)"},
	{1024, 768, "1024x768 (XGA)"},
	{1366, 1024, "1366x1024 (SXGA-)"},
	{1920, 1080, "1920x1080 (FHD)"},
	{2560, 1440, "2560x1440 (QHD)"},
	{3840, 2160, "3840x2160 (4K UHD)"},
}

func resolutionIndex(w, h int) int {
	for i, r := range resolutions {
		if r.W == w && r.H == h {
			return i
		}
	}
	return 3
}

const (
	fieldPlan = iota
	fieldConfig
	fieldOutput
	fieldDevice
	fieldCount
)

var fieldLabels = [fieldCount]string{"Session plan CSV:", "Configuration YAML:", "Results CSV:", "Trigger box device:"}

func (s *Setup) field(i int) *string {
	switch i {
	case fieldPlan:
		return &s.PlanFile
	case fieldConfig:
		return &s.ConfigFile
	case fieldOutput:
		return &s.OutputFile
	case fieldDevice:
		return &s.Device
	}
	return nil
}

// Form layout, in window pixels.
const (
	setupW, setupH = 800, 820
	fieldX, fieldW = 50, 650
	fieldTop       = 50
	fieldStep      = 70
	fieldH         = 30
	browseX        = 710
	browseW        = 70
	resTop         = 330
	resStep        = 40
	fullscreenY    = 580
	startX, startY = 350, 740
	startW, startH = 100, 40
)

func within(x, y, bx, by, bw, bh float32) bool {
	return x >= bx && x <= bx+bw && y >= by && y <= by+bh
}

func hitField(x, y float32) int {
	for i := 0; i < fieldCount; i++ {
		if within(x, y, fieldX, float32(fieldTop+i*fieldStep), fieldW, fieldH) {
			return i
		}
	}
	return -1
}

func hitBrowse(x, y float32) int {
	for i := 0; i < fieldCount; i++ {
		if within(x, y, browseX, float32(fieldTop+i*fieldStep), browseW, fieldH) {
			return i
		}
	}
	return -1
}

func hitResolution(x, y float32) int {
	for i := range resolutions {
		if within(x, y, fieldX, float32(resTop+i*resStep), 250, 30) {
			return i
		}
	}
	return -1
}

type setupForm struct {
	setup    *Setup
	window   *sdl.Window
	renderer *sdl.Renderer
	font     *ttf.Font
	focus    int
	res      int
}

// RunSetup shows the setup window until the operator presses START (true)
// or closes the window (false). SDL must already be initialized.
func RunSetup(s *Setup, logger zerolog.Logger) (bool, error) {
	window, renderer, err := sdl.CreateWindowAndRenderer("eyesync setup", setupW, setupH, 0)
	if err != nil {
		return false, fmt.Errorf("CreateWindowAndRenderer: %w", err)
	}
	defer window.Destroy()
	defer renderer.Destroy()

	fontPath := DefaultFontPath()
	if fontPath == "" {
		return false, fmt.Errorf("no font found for the setup window")
	}
	font, err := ttf.OpenFont(fontPath, 18)
	if err != nil {
		return false, fmt.Errorf("load setup font: %w", err)
	}
	defer font.Close()

	f := &setupForm{setup: s, window: window, renderer: renderer, font: font, focus: -1, res: resolutionIndex(s.Width, s.Height)}
	window.StartTextInput()
	defer window.StopTextInput()

	for {
		var e sdl.Event
		for sdl.PollEvent(&e) {
			switch e.Type {
			case sdl.EVENT_QUIT:
				return false, nil
			case sdl.EVENT_MOUSE_BUTTON_DOWN:
				me := e.MouseButtonEvent()
				if f.click(me.X, me.Y) {
					logger.Info().Str("plan", s.PlanFile).Int("width", s.Width).Int("height", s.Height).Msg("setup complete")
					return true, nil
				}
			case sdl.EVENT_TEXT_INPUT:
				if f.focus >= 0 {
					*s.field(f.focus) += e.TextInputEvent().Text
				}
			case sdl.EVENT_KEY_DOWN:
				if f.focus >= 0 && e.KeyboardEvent().Key == sdl.K_BACKSPACE {
					if t := s.field(f.focus); len(*t) > 0 {
						*t = (*t)[:len(*t)-1]
					}
				}
			}
		}
		f.draw()
		time.Sleep(10 * time.Millisecond)
	}
}

// click handles a mouse press and reports whether START was accepted.
func (f *setupForm) click(x, y float32) bool {
	f.focus = hitField(x, y)
	s := f.setup
	switch hitBrowse(x, y) {
	case fieldPlan:
		f.openFile(&s.PlanFile, sdl.DialogFileFilter{Name: "CSV Files", Pattern: "csv"})
	case fieldConfig:
		f.openFile(&s.ConfigFile, sdl.DialogFileFilter{Name: "YAML Files", Pattern: "yaml;yml"})
	case fieldOutput:
		cb := sdl.NewDialogFileCallback(func(files []string, filter int32) {
			if len(files) > 0 {
				s.OutputFile = files[0]
			}
		})
		sdl.ShowSaveFileDialog(cb, f.window, nil, "results.csv")
	}
	if i := hitResolution(x, y); i >= 0 {
		f.res = i
	}
	if within(x, y, fieldX, fullscreenY, 250, 30) {
		s.Fullscreen = !s.Fullscreen
	}
	if within(x, y, startX, startY, startW, startH) && s.PlanFile != "" {
		s.Width = resolutions[f.res].W
		s.Height = resolutions[f.res].H
		return true
	}
	return false
}

func (f *setupForm) openFile(target *string, filter sdl.DialogFileFilter) {
	cb := sdl.NewDialogFileCallback(func(files []string, _ int32) {
		if len(files) > 0 {
			*target = files[0]
		}
	})
	sdl.ShowOpenFileDialog(cb, f.window, []sdl.DialogFileFilter{filter}, "", false)
}

func (f *setupForm) label(text string, x, y float32, c sdl.Color) {
	if text == "" {
		return
	}
	surf, err := f.font.RenderTextBlended(text, c)
	if err != nil || surf == nil {
		return
	}
	defer surf.Destroy()
	tex, err := f.renderer.CreateTextureFromSurface(surf)
	if err != nil {
		return
	}
	f.renderer.RenderTexture(tex, nil, &sdl.FRect{X: x, Y: y, W: float32(surf.W), H: float32(surf.H)})
	tex.Destroy()
}

func (f *setupForm) checkbox(y float32, checked bool, text string) {
	black := sdl.Color{A: 255}
	box := sdl.FRect{X: fieldX, Y: y, W: 20, H: 20}
	f.renderer.SetDrawColor(255, 255, 255, 255)
	f.renderer.RenderFillRect(&box)
	f.renderer.SetDrawColor(0, 0, 0, 255)
	f.renderer.RenderRect(&box)
	if checked {
		f.renderer.SetDrawColor(0, 150, 0, 255)
		f.renderer.RenderFillRect(&sdl.FRect{X: fieldX + 4, Y: y + 4, W: 12, H: 12})
	}
	f.label(text, fieldX+30, y, black)
}

func (f *setupForm) draw() {
	r := f.renderer
	black := sdl.Color{A: 255}
	r.SetDrawColor(240, 240, 240, 255)
	r.Clear()

	for i := 0; i < fieldCount; i++ {
		y := float32(fieldTop + i*fieldStep)
		f.label(fieldLabels[i], fieldX, y-30, black)

		box := sdl.FRect{X: fieldX, Y: y, W: fieldW, H: fieldH}
		r.SetDrawColor(255, 255, 255, 255)
		r.RenderFillRect(&box)
		if f.focus == i {
			r.SetDrawColor(0, 120, 255, 255)
		} else {
			r.SetDrawColor(180, 180, 180, 255)
		}
		r.RenderRect(&box)
		f.label(*f.setup.field(i), fieldX+5, y+5, black)

		if i == fieldDevice {
			continue
		}
		btn := sdl.FRect{X: browseX, Y: y, W: browseW, H: fieldH}
		r.SetDrawColor(200, 200, 200, 255)
		r.RenderFillRect(&btn)
		r.SetDrawColor(0, 0, 0, 255)
		r.RenderRect(&btn)
		f.label("...", browseX+25, y+5, black)
	}

	f.label("Resolution:", fieldX, resTop-30, black)
	for i, res := range resolutions {
		f.checkbox(float32(resTop+i*resStep), f.res == i, res.Label)
	}
	f.checkbox(fullscreenY, f.setup.Fullscreen, "Fullscreen mode")

	r.SetDrawColor(0, 150, 0, 255)
	r.RenderFillRect(&sdl.FRect{X: startX, Y: startY, W: startW, H: startH})
	f.label("START", startX+25, startY+10, sdl.Color{R: 255, G: 255, B: 255, A: 255})

	r.Present()
}

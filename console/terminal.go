// Package console runs the engine in a terminal. It is a preview backend:
// timing follows a virtual refresh, shapes are drawn with character cells and
// the mouse stands in for the eye tracker.
package console

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"

	"eyesync/engine"
)

var ErrClosed = errors.New("terminal closed")

// Terminal implements engine.Display, engine.KeySource, engine.GazeSource and
// engine.DialogHost on a tcell screen. Holding a mouse button reports lost
// tracking.
type Terminal struct {
	screen  tcell.Screen
	grid    grid
	clock   engine.Clock
	period  time.Duration
	next    time.Duration
	quitKey string
	text    engine.Color
	bg      tcell.Color
	logger  zerolog.Logger

	events chan tcell.Event
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once

	keys      []string
	mouse     engine.Point
	mouseDown bool
}

// Open creates a Terminal on the controlling terminal.
func Open(cfg engine.DisplayConfig, clock engine.Clock, quitKey string, logger zerolog.Logger) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("open terminal: %w", err)
	}
	return New(screen, cfg, clock, quitKey, logger)
}

// New initializes screen and starts reading its events.
func New(screen tcell.Screen, cfg engine.DisplayConfig, clock engine.Clock, quitKey string, logger zerolog.Logger) (*Terminal, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init terminal: %w", err)
	}
	screen.EnableMouse(tcell.MouseMotionEvents)
	screen.HideCursor()

	cols, rows := screen.Size()
	t := &Terminal{
		screen:  screen,
		grid:    grid{cols: max(cols, 1), rows: max(rows, 1), w: float64(cfg.Width), h: float64(cfg.Height)},
		clock:   clock,
		period:  engine.PeriodFromRate(engine.DefaultRefreshRate),
		quitKey: quitKey,
		text:    cfg.Text,
		bg:      tcellColor(cfg.Background),
		logger:  logger,
		events:  make(chan tcell.Event, 100),
		done:    make(chan struct{}),
	}
	t.wg.Add(1)
	go t.readEvents()
	logger.Info().Int("cols", cols).Int("rows", rows).Dur("period", t.period).Msg("terminal opened")
	return t, nil
}

func (t *Terminal) readEvents() {
	defer t.wg.Done()
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case t.events <- ev:
		case <-t.done:
			return
		}
	}
}

// Close restores the terminal and stops the event reader.
func (t *Terminal) Close() {
	t.once.Do(func() {
		close(t.done)
		t.screen.Fini()
		t.wg.Wait()
	})
}

func tcellColor(c engine.Color) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

func (t *Terminal) RefreshPeriod() time.Duration { return t.period }

func (t *Terminal) Clear(c engine.Color) {
	t.bg = tcellColor(c)
	t.screen.Fill(' ', tcell.StyleDefault.Background(t.bg))
}

func (t *Terminal) paint(cells [][2]int, c engine.Color) {
	style := tcell.StyleDefault.Background(tcellColor(c))
	for _, cell := range cells {
		t.screen.SetContent(cell[0], cell[1], ' ', nil, style)
	}
}

func (t *Terminal) Draw(s engine.Shape) {
	switch s := s.(type) {
	case engine.Line:
		t.paint(t.grid.lineCells(s), s.Color)
	case engine.Circle:
		t.paint(t.grid.circleCells(s), s.Fill)
	case engine.Rect:
		fill, outline := t.grid.rectCells(s)
		if s.Fill.A > 0 {
			t.paint(fill, s.Fill)
		}
		t.paint(outline, s.Line)
	case engine.Text:
		t.print(s.Pos, s.Content, s.Color)
	case engine.Image:
		t.print(s.Center, "["+filepath.Base(s.Path)+"]", t.text)
	}
}

func (t *Terminal) print(at engine.Point, text string, c engine.Color) {
	col, row := t.grid.cell(at)
	runes := []rune(text)
	col -= len(runes) / 2
	style := tcell.StyleDefault.Foreground(tcellColor(c)).Background(t.bg)
	for i, r := range runes {
		if t.grid.inside(col+i, row) {
			t.screen.SetContent(col+i, row, r, nil, style)
		}
	}
}

// Present shows the frame and sleeps until the next virtual refresh.
func (t *Terminal) Present() error {
	select {
	case <-t.done:
		return ErrClosed
	default:
	}
	t.screen.Show()
	now := t.clock.Now()
	t.next += t.period
	if t.next <= now {
		t.next = now + t.period - (now-t.next)%t.period
	}
	time.Sleep(t.next - now)
	t.pump()
	return nil
}

func (t *Terminal) pump() {
	for {
		select {
		case ev := <-t.events:
			t.handle(ev)
		default:
			return
		}
	}
}

func (t *Terminal) handle(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		t.keys = append(t.keys, t.keyName(ev))
	case *tcell.EventMouse:
		col, row := ev.Position()
		t.mouse = t.grid.point(col, row)
		t.mouseDown = ev.Buttons()&(tcell.Button1|tcell.Button2|tcell.Button3) != 0
	case *tcell.EventResize:
		cols, rows := ev.Size()
		t.grid.cols, t.grid.rows = max(cols, 1), max(rows, 1)
		t.screen.Sync()
	}
}

func (t *Terminal) keyName(ev *tcell.EventKey) string {
	switch ev.Key() {
	case tcell.KeyRune:
		if ev.Rune() == ' ' {
			return "space"
		}
		return strings.ToLower(string(ev.Rune()))
	case tcell.KeyEscape:
		return "escape"
	case tcell.KeyEnter:
		return "return"
	case tcell.KeyCtrlC:
		return t.quitKey
	}
	return strings.ToLower(ev.Name())
}

func (t *Terminal) PollKeys() []string {
	t.pump()
	keys := t.keys
	t.keys = nil
	return keys
}

func (t *Terminal) Sample() engine.GazeSample {
	if t.mouseDown {
		return engine.NoGaze()
	}
	return engine.GazeAt(t.mouse.X, t.mouse.Y)
}

// Confirm draws a prompt box and waits for Y or Return (true) or N or Escape
// (false).
func (t *Terminal) Confirm(title, text string) (bool, error) {
	box := engine.Color{R: 40, G: 40, B: 40, A: 255}
	t.Clear(box)
	t.print(engine.Point{Y: t.grid.cellH()}, title, t.text)
	t.print(engine.Point{Y: -t.grid.cellH()}, text+"  [y/n]", t.text)
	t.screen.Show()

	for {
		select {
		case <-t.done:
			return false, ErrClosed
		case ev := <-t.events:
			k, ok := ev.(*tcell.EventKey)
			if !ok {
				t.handle(ev)
				continue
			}
			switch t.keyName(k) {
			case "y", "return":
				return true, nil
			case "n", "escape":
				return false, nil
			}
		}
	}
}

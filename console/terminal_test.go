package console

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"eyesync/engine"
)

func openSim(t *testing.T) (*Terminal, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	cfg := engine.DefaultConfig().Display
	cfg.Width, cfg.Height = 800, 600
	term, err := New(screen, cfg, engine.NewMonotonicClock(), "escape", zerolog.Nop())
	require.NoError(t, err)
	screen.SetSize(80, 25)
	term.grid.cols, term.grid.rows = 80, 25
	t.Cleanup(term.Close)
	return term, screen
}

func cellBackground(t *testing.T, screen tcell.SimulationScreen, col, row int) tcell.Color {
	t.Helper()
	cells, w, _ := screen.GetContents()
	_, bg, _ := cells[row*w+col].Style.Decompose()
	return bg
}

func TestTerminalDrawsShapes(t *testing.T) {
	term, screen := openSim(t)

	term.Clear(engine.Grey)
	term.Draw(engine.Rect{W: 200, H: 200, Fill: engine.Red})
	term.Draw(engine.Text{Pos: engine.Point{Y: 200}, Content: "HI", Color: engine.White})
	require.NoError(t, term.Present())

	assert.Equal(t, tcellColor(engine.Red), cellBackground(t, screen, 40, 12))
	assert.Equal(t, tcellColor(engine.Grey), cellBackground(t, screen, 0, 0))

	cells, w, _ := screen.GetContents()
	col, row := term.grid.cell(engine.Point{Y: 200})
	assert.Equal(t, []rune{'H'}, cells[row*w+col-1].Runes)
	assert.Equal(t, []rune{'I'}, cells[row*w+col].Runes)
}

func TestTerminalKeys(t *testing.T) {
	term, screen := openSim(t)

	screen.InjectKey(tcell.KeyRune, 'P', tcell.ModNone)
	screen.InjectKey(tcell.KeyRune, ' ', tcell.ModNone)
	screen.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)

	var keys []string
	require.Eventually(t, func() bool {
		keys = append(keys, term.PollKeys()...)
		return len(keys) >= 3
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"p", "space", "escape"}, keys)
}

func TestTerminalMouseGaze(t *testing.T) {
	term, screen := openSim(t)

	screen.InjectMouse(40, 12, tcell.ButtonNone, tcell.ModNone)
	require.Eventually(t, func() bool {
		term.pump()
		return term.Sample() == engine.GazeAt(5, 0)
	}, time.Second, 5*time.Millisecond)

	screen.InjectMouse(40, 12, tcell.Button1, tcell.ModNone)
	require.Eventually(t, func() bool {
		term.pump()
		return !term.Sample().OK
	}, time.Second, 5*time.Millisecond)
}

func TestTerminalConfirm(t *testing.T) {
	term, screen := openSim(t)

	screen.InjectKey(tcell.KeyRune, 'x', tcell.ModNone)
	screen.InjectKey(tcell.KeyRune, 'y', tcell.ModNone)
	ok, err := term.Confirm("Pause", "Continue?")
	require.NoError(t, err)
	assert.True(t, ok)

	screen.InjectKey(tcell.KeyRune, 'n', tcell.ModNone)
	ok, err = term.Confirm("Quit?", "Abort the session?")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTerminalPresentPacesFrames(t *testing.T) {
	term, _ := openSim(t)
	clock := engine.NewMonotonicClock()

	start := clock.Now()
	for i := 0; i < 6; i++ {
		require.NoError(t, term.Present())
	}
	assert.GreaterOrEqual(t, clock.Now()-start, 4*term.RefreshPeriod())
}

func TestTerminalCloseStopsReader(t *testing.T) {
	defer goleak.VerifyNone(t)

	screen := tcell.NewSimulationScreen("UTF-8")
	term, err := New(screen, engine.DefaultConfig().Display, engine.NewMonotonicClock(), "escape", zerolog.Nop())
	require.NoError(t, err)
	term.Close()
	term.Close()

	assert.ErrorIs(t, term.Present(), ErrClosed)
	_, err = term.Confirm("Quit?", "")
	assert.ErrorIs(t, err, ErrClosed)
}

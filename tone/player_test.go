package tone

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eyesync/engine"
)

type fixedClock time.Duration

func (c fixedClock) Now() time.Duration { return time.Duration(c) }

type otherHandle struct{}

func (otherHandle) Name() string { return "other" }

var _ engine.AudioOutput = (*Player)(nil)

func pull(p *Player, n int) [][2]float64 {
	out := make([][2]float64, n)
	p.mixer.Stream(out)
	return out
}

func TestScheduleStartDelaysOnset(t *testing.T) {
	clock := fixedClock(time.Second)
	p := newPlayer(clock, Spec{SampleRate: 1000, Volume: 1, Ramp: 0})

	h, err := p.Tone(100, 50*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, 50, h.(*Sound).Len())

	require.NoError(t, p.ScheduleStart(h, time.Second+20*time.Millisecond))
	out := pull(p, 100)

	for i := 0; i < 20; i++ {
		assert.Zero(t, out[i][0], "sample %d precedes the onset", i)
	}
	nonZero := 0
	for i := 20; i < 70; i++ {
		if out[i][0] != 0 {
			nonZero++
		}
	}
	assert.Greater(t, nonZero, 30)
	for i := 70; i < 100; i++ {
		assert.Zero(t, out[i][0], "sample %d follows the tone", i)
	}
}

func TestScheduleStartAccountsForSpeakerBuffer(t *testing.T) {
	p := newPlayer(fixedClock(time.Second), Spec{SampleRate: 1000, Volume: 1, Ramp: 0})
	p.latency = 20 * time.Millisecond

	h, err := p.Tone(100, 50*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, p.ScheduleStart(h, time.Second+50*time.Millisecond))
	out := pull(p, 100)

	for i := 0; i < 30; i++ {
		assert.Zero(t, out[i][0], "sample %d precedes the onset", i)
	}
	nonZero := 0
	for i := 30; i < 80; i++ {
		if out[i][0] != 0 {
			nonZero++
		}
	}
	assert.Greater(t, nonZero, 30)
}

func TestStopSilences(t *testing.T) {
	p := newPlayer(fixedClock(0), Spec{SampleRate: 1000, Volume: 1})
	h, err := p.Tone(100, 100*time.Millisecond)
	require.NoError(t, err)

	require.NoError(t, p.ScheduleStart(h, 0))
	p.Stop(h)
	for _, s := range pull(p, 100) {
		assert.Zero(t, s[0])
	}
	assert.NotPanics(t, func() { p.Stop(h) })
}

func TestScheduleRejectsForeignHandles(t *testing.T) {
	p := newPlayer(fixedClock(0), Spec{SampleRate: 1000, Volume: 1})
	assert.Error(t, p.ScheduleStart(otherHandle{}, 0))
}

func TestToneShortensRamp(t *testing.T) {
	p := newPlayer(fixedClock(0), Spec{SampleRate: 44100, Volume: 1, Ramp: 50 * time.Millisecond})
	_, err := p.Tone(500, 20*time.Millisecond)
	assert.NoError(t, err)
}

func TestLoadWAV(t *testing.T) {
	p := newPlayer(fixedClock(0), Spec{SampleRate: 8000, Volume: 1})
	path := writeWAV(t, 8000, 800)

	h, err := p.LoadWAV(path)
	require.NoError(t, err)
	assert.Equal(t, "tone.wav", h.Name())
	assert.Equal(t, 800, h.(*Sound).Len())

	_, err = p.LoadWAV(filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)
}

func TestLoadWAVResamples(t *testing.T) {
	p := newPlayer(fixedClock(0), Spec{SampleRate: 16000, Volume: 1})
	h, err := p.LoadWAV(writeWAV(t, 8000, 800))
	require.NoError(t, err)
	assert.InDelta(t, 1600, h.(*Sound).Len(), 10)
}

// writeWAV writes a 16-bit stereo PCM file holding frames of a 200 Hz tone.
func writeWAV(t *testing.T, rate, frames int) string {
	t.Helper()
	samples, err := Samples(Spec{Frequency: 200, Duration: time.Duration(frames) * time.Second / time.Duration(rate), SampleRate: rate, Volume: 0.8})
	require.NoError(t, err)
	pcm := PCM16(samples)

	var b bytes.Buffer
	le := binary.LittleEndian
	b.WriteString("RIFF")
	_ = binary.Write(&b, le, uint32(36+len(pcm)))
	b.WriteString("WAVEfmt ")
	_ = binary.Write(&b, le, uint32(16))
	_ = binary.Write(&b, le, uint16(1))
	_ = binary.Write(&b, le, uint16(2))
	_ = binary.Write(&b, le, uint32(rate))
	_ = binary.Write(&b, le, uint32(rate*BytesPerFrame))
	_ = binary.Write(&b, le, uint16(BytesPerFrame))
	_ = binary.Write(&b, le, uint16(16))
	b.WriteString("data")
	_ = binary.Write(&b, le, uint32(len(pcm)))
	b.Write(pcm)

	path := filepath.Join(t.TempDir(), "tone.wav")
	require.NoError(t, os.WriteFile(path, b.Bytes(), 0o600))
	return path
}

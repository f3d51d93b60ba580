package sdlio

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eyesync/engine"
)

type stubClock time.Duration

func (c stubClock) Now() time.Duration { return time.Duration(c) }

func constSound(name string, frames int, v int16) *Sound {
	data := make([]byte, frames*4)
	s := samples16(data)
	for i := range s {
		s[i] = v
	}
	return &Sound{name: name, data: data}
}

func testMixer() *Mixer {
	return newMixer(stubClock(0), engine.AudioConfig{SampleRate: 1000, Volume: 1}, zerolog.Nop())
}

func TestFillStartsOnScheduledSample(t *testing.T) {
	m := testMixer()
	s := constSound("click", 10, 1000)
	require.NoError(t, m.ScheduleStart(s, time.Second+5*time.Millisecond))

	buf := make([]byte, 20*4)
	m.fill(buf, time.Second)
	out := samples16(buf)
	for frame := 0; frame < 20; frame++ {
		want := int16(0)
		if frame >= 5 && frame < 15 {
			want = 1000
		}
		assert.Equal(t, want, out[frame*2], "frame %d", frame)
		assert.Equal(t, want, out[frame*2+1], "frame %d", frame)
	}
	assert.False(t, m.slots[0].active, "finished sounds free their slot")
}

func TestFillAcrossChunks(t *testing.T) {
	m := testMixer()
	s := constSound("tone", 30, 7)
	require.NoError(t, m.ScheduleStart(s, 25*time.Millisecond))

	buf := make([]byte, 20*4)
	expect := func(start time.Duration, from, to int) {
		t.Helper()
		m.fill(buf, start)
		out := samples16(buf)
		for frame := 0; frame < 20; frame++ {
			want := int16(0)
			if frame >= from && frame < to {
				want = 7
			}
			assert.Equal(t, want, out[frame*2], "chunk at %s, frame %d", start, frame)
		}
	}
	expect(0, 0, 0)
	expect(20*time.Millisecond, 5, 20)
	expect(40*time.Millisecond, 0, 15)
	assert.False(t, m.slots[0].active)
}

func TestPlaybackStartIncludesBuffers(t *testing.T) {
	m := newMixer(stubClock(time.Second), engine.AudioConfig{SampleRate: 1000, Volume: 1}, zerolog.Nop())
	assert.Equal(t, time.Second, m.playbackStart(0))

	m.latency = 10 * time.Millisecond
	assert.Equal(t, time.Second+10*time.Millisecond, m.playbackStart(0))
	assert.Equal(t, time.Second+15*time.Millisecond, m.playbackStart(5*4))
}

func TestFillClips(t *testing.T) {
	m := testMixer()
	require.NoError(t, m.ScheduleStart(constSound("a", 4, 30000), 0))
	require.NoError(t, m.ScheduleStart(constSound("b", 4, 30000), 0))

	buf := make([]byte, 4*4)
	m.fill(buf, 0)
	assert.Equal(t, int16(32767), samples16(buf)[0])
}

func TestStopAndSlotExhaustion(t *testing.T) {
	m := testMixer()
	s := constSound("long", 100, 5)
	for i := 0; i < MaxActiveSounds; i++ {
		require.NoError(t, m.ScheduleStart(s, 0))
	}
	assert.Error(t, m.ScheduleStart(s, 0))

	m.Stop(s)
	buf := make([]byte, 8*4)
	m.fill(buf, 0)
	assert.Equal(t, int16(0), samples16(buf)[0])
	assert.NoError(t, m.ScheduleStart(s, 0))
}

func TestMixerTone(t *testing.T) {
	m := newMixer(stubClock(0), engine.AudioConfig{SampleRate: 44100, Volume: 0.5, Ramp: 5 * time.Millisecond}, zerolog.Nop())
	h, err := m.Tone(500, 100*time.Millisecond)
	require.NoError(t, err)
	assert.Len(t, h.(*Sound).data, 4410*4)

	_, err = m.Tone(40000, time.Second)
	assert.Error(t, err)
}

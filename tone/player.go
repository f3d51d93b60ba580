package tone

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/wav"

	"eyesync/engine"
)

// Sound is a tone rendered into memory, ready to be scheduled on a Player.
type Sound struct {
	name string
	buf  *beep.Buffer
}

func (s *Sound) Name() string { return s.name }

// Len returns the number of sample frames.
func (s *Sound) Len() int { return s.buf.Len() }

const speakerBuffer = 20 * time.Millisecond

// Player mixes scheduled sounds onto the default speaker. Start instants are on
// the engine clock.
type Player struct {
	sr     beep.SampleRate
	clock  engine.Clock
	spec   Spec
	mixer  *beep.Mixer
	lock   func()
	unlock func()

	// latency is the speaker buffer ahead of the mixer.
	latency time.Duration

	mu      sync.Mutex
	playing map[*Sound]*beep.Ctrl
}

// NewSpeakerPlayer opens the default audio device. spec provides the sample
// rate, volume and ramp of the tones built by Tone.
func NewSpeakerPlayer(clock engine.Clock, spec Spec) (*Player, error) {
	sr := beep.SampleRate(spec.SampleRate)
	if err := speaker.Init(sr, sr.N(speakerBuffer)); err != nil {
		return nil, fmt.Errorf("tone: open speaker: %w", err)
	}
	p := newPlayer(clock, spec)
	p.latency = speakerBuffer
	p.lock, p.unlock = speaker.Lock, speaker.Unlock
	speaker.Play(p.mixer)
	return p, nil
}

func newPlayer(clock engine.Clock, spec Spec) *Player {
	return &Player{
		sr:      beep.SampleRate(spec.SampleRate),
		clock:   clock,
		spec:    spec,
		mixer:   &beep.Mixer{},
		lock:    func() {},
		unlock:  func() {},
		playing: make(map[*Sound]*beep.Ctrl),
	}
}

// Tone renders a pure tone with the player's sample rate, volume and ramp.
func (p *Player) Tone(freq float64, d time.Duration) (engine.AudioHandle, error) {
	spec := p.spec
	spec.Frequency = freq
	spec.Duration = d
	if 2*spec.Ramp > d {
		spec.Ramp = d / 2
	}
	return NewSound(fmt.Sprintf("tone_%gHz_%s", freq, d), spec)
}

// NewSound renders spec into memory.
func NewSound(name string, spec Spec) (*Sound, error) {
	st, err := Streamer(spec)
	if err != nil {
		return nil, err
	}
	buf := beep.NewBuffer(beep.Format{SampleRate: beep.SampleRate(spec.SampleRate), NumChannels: 2, Precision: 2})
	buf.Append(st)
	return &Sound{name: name, buf: buf}, nil
}

// LoadWAV decodes a WAV file into memory, resampled to the player rate.
func (p *Player) LoadWAV(path string) (engine.AudioHandle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tone: %w", err)
	}
	st, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("tone: decode %s: %w", path, err)
	}
	defer st.Close()

	var src beep.Streamer = st
	if format.SampleRate != p.sr {
		src = beep.Resample(4, format.SampleRate, p.sr, st)
	}
	buf := beep.NewBuffer(beep.Format{SampleRate: p.sr, NumChannels: 2, Precision: 2})
	buf.Append(volume(src, p.spec.Volume))
	return &Sound{name: filepath.Base(path), buf: buf}, nil
}

// ScheduleStart queues h to start at the engine instant at. The silence before
// the onset is shortened by the speaker buffer, so at is when the sound is
// heard. Instants already in the past start immediately.
func (p *Player) ScheduleStart(h engine.AudioHandle, at time.Duration) error {
	s, ok := h.(*Sound)
	if !ok {
		return fmt.Errorf("tone: %s was not created by this player", h.Name())
	}
	delay := at - p.clock.Now() - p.latency
	if delay < 0 {
		delay = 0
	}
	ctrl := &beep.Ctrl{Streamer: beep.Seq(beep.Silence(p.sr.N(delay)), s.buf.Streamer(0, s.buf.Len()))}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.lock()
	if prev, ok := p.playing[s]; ok {
		prev.Streamer = nil
	}
	p.mixer.Add(ctrl)
	p.unlock()
	p.playing[s] = ctrl
	return nil
}

// Stop silences h if it is still queued or playing.
func (p *Player) Stop(h engine.AudioHandle) {
	s, ok := h.(*Sound)
	if !ok {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	ctrl, ok := p.playing[s]
	if !ok {
		return
	}
	p.lock()
	ctrl.Streamer = nil
	p.unlock()
	delete(p.playing, s)
}

// Close stops every sound.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lock()
	p.mixer.Clear()
	p.unlock()
	clear(p.playing)
}

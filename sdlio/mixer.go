package sdlio

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"
	"unsafe"

	"github.com/Zyko0/go-sdl3/sdl"
	"github.com/rs/zerolog"

	"eyesync/engine"
	"eyesync/tone"
)

const (
	MaxActiveSounds = 16
	scratchBytes    = 4096
)

// Sound is PCM in the mixer format: signed 16-bit stereo at the mixer rate.
type Sound struct {
	name string
	data []byte
}

func (s *Sound) Name() string { return s.name }

type slot struct {
	sound   *Sound
	pos     int
	startAt time.Duration
	active  bool
}

// Mixer is an engine.AudioOutput on the default SDL playback device. Sounds
// start on the sample that corresponds to their scheduled engine instant.
type Mixer struct {
	mu      sync.Mutex
	slots   [MaxActiveSounds]slot
	scratch []byte
	clock   engine.Clock
	rate    int
	tones   tone.Spec
	stream  *sdl.AudioStream
	logger  zerolog.Logger

	// latency is the device buffer between a callback and the speaker.
	latency time.Duration
}

func newMixer(clock engine.Clock, cfg engine.AudioConfig, logger zerolog.Logger) *Mixer {
	return &Mixer{
		scratch: make([]byte, scratchBytes),
		clock:   clock,
		rate:    cfg.SampleRate,
		tones:   tone.Spec{SampleRate: cfg.SampleRate, Volume: cfg.Volume, Ramp: cfg.Ramp},
		logger:  logger,
	}
}

// OpenMixer opens the default playback device and starts mixing.
func OpenMixer(clock engine.Clock, cfg engine.AudioConfig, logger zerolog.Logger) (*Mixer, error) {
	m := newMixer(clock, cfg, logger)
	spec := &sdl.AudioSpec{Format: sdl.AUDIO_S16, Channels: 2, Freq: int32(cfg.SampleRate)}
	cb := sdl.NewAudioStreamCallback(m.callback)
	m.stream = sdl.AUDIO_DEVICE_DEFAULT_PLAYBACK.OpenAudioDeviceStream(spec, cb)
	if m.stream == nil {
		return nil, fmt.Errorf("failed to open audio stream")
	}
	if dev, frames, err := m.stream.Device().Format(); err == nil && dev.Freq > 0 {
		m.latency = time.Duration(int64(frames) * int64(time.Second) / int64(dev.Freq))
	} else if err != nil {
		logger.Warn().Err(err).Msg("audio device buffer unknown, onsets may be late")
	}
	m.stream.ResumeDevice()
	logger.Info().Int("rate", cfg.SampleRate).Dur("latency", m.latency).Msg("audio device opened")
	return m, nil
}

func (m *Mixer) Close() {
	if m.stream != nil {
		m.stream.Destroy()
	}
}

func samples16(b []byte) []int16 {
	if len(b) < 2 {
		return nil
	}
	return unsafe.Slice((*int16)(unsafe.Pointer(&b[0])), len(b)/2)
}

func (m *Mixer) callback(stream *sdl.AudioStream, additionalAmount, totalAmount int32) {
	queued, err := stream.Queued()
	if err != nil {
		queued = 0
	}
	start := m.playbackStart(int(queued))
	remaining := int(additionalAmount)
	for remaining > 0 {
		chunk := min(remaining, scratchBytes)
		chunk -= chunk % tone.BytesPerFrame
		if chunk == 0 {
			break
		}
		m.fill(m.scratch[:chunk], start)
		stream.PutData(m.scratch[:chunk])
		start += m.duration(chunk / tone.BytesPerFrame)
		remaining -= chunk
	}
}

// playbackStart is the engine instant at which the next byte put on the stream
// reaches the speaker: after the queued bytes and the device buffer.
func (m *Mixer) playbackStart(queuedBytes int) time.Duration {
	return m.clock.Now() + m.latency + m.duration(queuedBytes/tone.BytesPerFrame)
}

func (m *Mixer) frames(d time.Duration) int {
	return int(int64(d) * int64(m.rate) / int64(time.Second))
}

func (m *Mixer) duration(frames int) time.Duration {
	return time.Duration(int64(frames) * int64(time.Second) / int64(m.rate))
}

// fill mixes every active slot into buf, whose first frame plays at start.
func (m *Mixer) fill(buf []byte, start time.Duration) {
	clear(buf)
	dst := samples16(buf)
	frames := len(buf) / tone.BytesPerFrame

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.slots {
		s := &m.slots[i]
		if !s.active {
			continue
		}
		offset := 0
		if s.startAt > start {
			offset = m.frames(s.startAt - start)
			if offset >= frames {
				continue
			}
		}
		src := samples16(s.sound.data[s.pos:])
		n := min(frames-offset, len(src)/2)
		out := dst[offset*2 : (offset+n)*2]
		for j := range out {
			val := int32(out[j]) + int32(src[j])
			if val > 32767 {
				val = 32767
			} else if val < -32768 {
				val = -32768
			}
			out[j] = int16(val)
		}
		s.pos += n * tone.BytesPerFrame
		if s.pos >= len(s.sound.data) {
			s.active = false
		}
	}
}

// ScheduleStart queues h to start playing at the engine instant at. The mixer
// places the first sample after the device buffer, so at is when it is heard.
func (m *Mixer) ScheduleStart(h engine.AudioHandle, at time.Duration) error {
	s, ok := h.(*Sound)
	if !ok {
		return fmt.Errorf("%s was not loaded by the mixer", h.Name())
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.slots {
		if !m.slots[i].active {
			m.slots[i] = slot{sound: s, startAt: at, active: true}
			return nil
		}
	}
	return fmt.Errorf("all %d mixer slots busy", MaxActiveSounds)
}

func (m *Mixer) Stop(h engine.AudioHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.slots {
		if m.slots[i].active && m.slots[i].sound == h {
			m.slots[i].active = false
		}
	}
}

// Tone synthesizes a pure tone in the mixer format.
func (m *Mixer) Tone(freq float64, d time.Duration) (engine.AudioHandle, error) {
	spec := m.tones
	spec.Frequency = freq
	spec.Duration = d
	if 2*spec.Ramp > d {
		spec.Ramp = d / 2
	}
	data, err := tone.Synthesize(spec)
	if err != nil {
		return nil, err
	}
	return &Sound{name: fmt.Sprintf("tone_%gHz_%s", freq, d), data: data}, nil
}

// LoadWAV reads a WAV file and converts it to the mixer format.
func (m *Mixer) LoadWAV(path string) (engine.AudioHandle, error) {
	target := sdl.AudioSpec{Format: sdl.AUDIO_S16, Channels: 2, Freq: int32(m.rate)}
	spec := &sdl.AudioSpec{}
	data, err := sdl.LoadWAV(path, spec)
	if err != nil {
		return nil, fmt.Errorf("load sound %s: %w", path, err)
	}
	if spec.Format != target.Format || spec.Channels != target.Channels || spec.Freq != target.Freq {
		data, err = sdl.ConvertAudioSamples(spec, data, &target)
		if err != nil {
			return nil, fmt.Errorf("convert sound %s: %w", path, err)
		}
	}
	return &Sound{name: filepath.Base(path), data: data}, nil
}

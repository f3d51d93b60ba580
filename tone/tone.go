// Package tone synthesizes the pure tones of the auditory paradigms as PCM that
// an audio output can schedule.
package tone

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
)

// BytesPerFrame is the size of one stereo signed 16-bit frame.
const BytesPerFrame = 4

type Spec struct {
	Frequency  float64
	Duration   time.Duration
	SampleRate int
	// Volume is linear in [0, 1].
	Volume float64
	// Ramp is the length of the linear fade in and fade out.
	Ramp time.Duration
}

func (s Spec) Validate() error {
	if s.SampleRate <= 0 {
		return fmt.Errorf("tone: sample rate %d must be positive", s.SampleRate)
	}
	if s.Frequency <= 0 || s.Frequency >= float64(s.SampleRate)/2 {
		return fmt.Errorf("tone: frequency %.1f Hz outside (0, %d) Hz", s.Frequency, s.SampleRate/2)
	}
	if s.Duration <= 0 {
		return fmt.Errorf("tone: duration %s must be positive", s.Duration)
	}
	if s.Volume < 0 || s.Volume > 1 {
		return fmt.Errorf("tone: volume %.2f outside [0, 1]", s.Volume)
	}
	if s.Ramp < 0 || 2*s.Ramp > s.Duration {
		return fmt.Errorf("tone: ramp %s does not fit in %s", s.Ramp, s.Duration)
	}
	return nil
}

// Streamer returns a finite streamer playing the tone.
func Streamer(s Spec) (beep.Streamer, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	sr := beep.SampleRate(s.SampleRate)
	sine, err := generators.SineTone(sr, s.Frequency)
	if err != nil {
		return nil, fmt.Errorf("tone: %w", err)
	}
	total := sr.N(s.Duration)
	shaped := &ramp{
		streamer: beep.Take(total, sine),
		total:    total,
		edge:     sr.N(s.Ramp),
	}
	return volume(shaped, s.Volume), nil
}

func volume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}

// Samples renders the tone to stereo float samples.
func Samples(s Spec) ([][2]float64, error) {
	st, err := Streamer(s)
	if err != nil {
		return nil, err
	}
	out := make([][2]float64, 0, beep.SampleRate(s.SampleRate).N(s.Duration))
	buf := make([][2]float64, 512)
	for {
		n, ok := st.Stream(buf)
		out = append(out, buf[:n]...)
		if !ok {
			break
		}
	}
	if err := st.Err(); err != nil {
		return nil, fmt.Errorf("tone: %w", err)
	}
	return out, nil
}

// Synthesize renders the tone as interleaved stereo signed 16-bit little endian
// PCM.
func Synthesize(s Spec) ([]byte, error) {
	samples, err := Samples(s)
	if err != nil {
		return nil, err
	}
	return PCM16(samples), nil
}

// PCM16 converts float samples to interleaved stereo S16LE, clipping at full
// scale.
func PCM16(samples [][2]float64) []byte {
	out := make([]byte, len(samples)*BytesPerFrame)
	for i, frame := range samples {
		for ch, v := range frame {
			v = math.Max(-1, math.Min(1, v))
			binary.LittleEndian.PutUint16(out[i*BytesPerFrame+ch*2:], uint16(int16(math.Round(v*math.MaxInt16))))
		}
	}
	return out
}

// ramp fades the first and last edge samples linearly.
type ramp struct {
	streamer beep.Streamer
	position int
	total    int
	edge     int
}

func (r *ramp) Stream(samples [][2]float64) (int, bool) {
	n, ok := r.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		gain := 1.0
		if r.edge > 0 {
			if r.position < r.edge {
				gain = float64(r.position) / float64(r.edge)
			} else if remaining := r.total - 1 - r.position; remaining < r.edge {
				gain = float64(remaining) / float64(r.edge)
			}
		}
		samples[i][0] *= gain
		samples[i][1] *= gain
		r.position++
	}
	return n, ok
}

func (r *ramp) Err() error { return r.streamer.Err() }

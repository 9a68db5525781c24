// Package audio sonifies the display: a fixed-point sine hum whose pitch
// follows how many LEDs are lit.
package audio

import (
	"math"
	"sync/atomic"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/fixmatrix/display"
	"github.com/lixenwraith/fixmatrix/fixmath"
)

const (
	SampleRate = beep.SampleRate(48000)

	// Pitch range, a dark display hums at BaseFreq, a fully lit one at BaseFreq+FreqSpan
	BaseFreq = 110.0
	FreqSpan = 330.0

	// per-sample approach to the target pitch, about 20 ms at 48 kHz
	glide = 0.001

	// sub-step phase precision of the fixed-point angle
	phaseShift = 16
)

// Hum is a mono beep.Streamer synthesized from the fixed-point sine table.
// It implements display.Observer, every loaded frame retunes it
type Hum struct {
	sr     beep.SampleRate
	format *fixmath.Format

	target atomic.Uint64 // float64 bits of the pitch to glide to
	freq   float64       // current pitch, owned by the streaming goroutine
	phase  int64         // angle << phaseShift, in [0, TwoPi << phaseShift)
}

// NewHum starts at BaseFreq
func NewHum(sr beep.SampleRate, f *fixmath.Format) *Hum {
	h := &Hum{sr: sr, format: f, freq: BaseFreq}
	h.SetBrightness(0)
	return h
}

// SetBrightness retunes toward the pitch of a lit ratio in [0, 1]
func (h *Hum) SetBrightness(ratio float64) {
	ratio = min(max(ratio, 0), 1)
	h.target.Store(math.Float64bits(BaseFreq + FreqSpan*ratio))
}

// Target is the pitch the hum is gliding to
func (h *Hum) Target() float64 {
	return math.Float64frombits(h.target.Load())
}

func (h *Hum) FrameLoaded(frame *display.Frame, _ uint64) {
	h.SetBrightness(frame.LitRatio())
}

func (h *Hum) Stream(samples [][2]float64) (n int, ok bool) {
	f := h.format
	period := int64(f.TwoPi) << phaseShift
	scale := 1 / float64(f.Fix)
	target := h.Target()

	for i := range samples {
		h.freq += (target - h.freq) * glide

		v := float64(f.Sin(fixmath.Wide(h.phase>>phaseShift))) * scale
		samples[i][0] = v
		samples[i][1] = v

		h.phase += int64(float64(period) * h.freq / float64(h.sr))
		h.phase %= period
	}
	return len(samples), true
}

func (h *Hum) Err() error { return nil }

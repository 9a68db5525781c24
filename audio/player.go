package audio

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"

	"github.com/lixenwraith/fixmatrix/logging"
)

// Player owns the speaker and the hum playing on it
type Player struct {
	mu          sync.Mutex
	hum         *Hum
	ctrl        *beep.Ctrl
	mixer       *beep.Mixer
	volume      float64
	initialized bool
}

// NewPlayer wraps hum at a linear volume in [0, 1]
func NewPlayer(hum *Hum, volume float64) *Player {
	return &Player{
		hum:    hum,
		mixer:  &beep.Mixer{},
		volume: volume,
	}
}

// newVolume maps a linear gain onto beep's exponential volume
func newVolume(s beep.Streamer, vol float64) *effects.Volume {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}

// Initialize opens the speaker and starts the hum
func (p *Player) Initialize() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}
	if err := speaker.Init(SampleRate, SampleRate.N(100*time.Millisecond)); err != nil {
		return err
	}

	p.ctrl = &beep.Ctrl{Streamer: newVolume(p.hum, p.volume)}
	p.mixer.Add(p.ctrl)
	speaker.Play(p.mixer)
	p.initialized = true
	logging.Logger().Debug("audio started", "rate", int(SampleRate), "volume", p.volume)
	return nil
}

// SetPaused mutes or resumes the hum
func (p *Player) SetPaused(paused bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return
	}
	speaker.Lock()
	p.ctrl.Paused = paused
	speaker.Unlock()
}

// Paused reports whether the hum is silent, true before Initialize
func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return true
	}
	speaker.Lock()
	defer speaker.Unlock()
	return p.ctrl.Paused
}

// Cleanup stops playback, safe to call without Initialize
func (p *Player) Cleanup() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return
	}
	speaker.Clear()
	p.mixer.Clear()
	p.initialized = false
}

// Package export records live display frames as an animated GIF.
package export

import (
	"errors"
	"fmt"
	"image"
	"image/gif"
	"io"
	"sync"
	"time"

	"golang.org/x/image/draw"

	"github.com/lixenwraith/fixmatrix/display"
	"github.com/lixenwraith/fixmatrix/logging"
	"github.com/lixenwraith/fixmatrix/palette"
)

// DefaultMaxFrames bounds memory of a recording, later frames are dropped
const DefaultMaxFrames = 4000

// minDelay is the shortest GIF frame delay browsers honour, in 1/100 s
const minDelay = 2

var ErrNoFrames = errors.New("export: no frames recorded")

// Recorder collects frames loaded into a live buffer and encodes them on Close.
// It implements display.Observer
type Recorder struct {
	w         io.Writer
	colors    palette.Palette
	scale     int
	maxFrames int
	now       func() time.Time

	mu      sync.Mutex
	anim    gif.GIF
	last    time.Time
	dropped int
	closed  bool
}

type Option func(*Recorder)

// WithClock replaces time.Now for frame delays
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// WithMaxFrames caps the number of stored frames
func WithMaxFrames(n int) Option {
	return func(r *Recorder) { r.maxFrames = n }
}

// NewRecorder writes to w on Close, each LED becomes a scale x scale block
func NewRecorder(w io.Writer, colors palette.Palette, scale int, opts ...Option) *Recorder {
	r := &Recorder{
		w:         w,
		colors:    colors,
		scale:     max(scale, 1),
		maxFrames: DefaultMaxFrames,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FrameLoaded stores a scaled copy of frame
func (r *Recorder) FrameLoaded(frame *display.Frame, seq uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	if len(r.anim.Image) >= r.maxFrames {
		if r.dropped == 0 {
			logging.Logger().Warn("gif recorder full, dropping frames", "max", r.maxFrames, "seq", seq)
		}
		r.dropped++
		return
	}

	img, err := r.render(frame)
	if err != nil {
		logging.Logger().Error("gif frame not recorded", "seq", seq, "error", err)
		return
	}

	now := r.now()
	if n := len(r.anim.Delay); n > 0 {
		r.anim.Delay[n-1] = max(int(now.Sub(r.last)/(10*time.Millisecond)), minDelay)
	}
	r.last = now

	r.anim.Image = append(r.anim.Image, img)
	r.anim.Delay = append(r.anim.Delay, minDelay)
}

func (r *Recorder) render(frame *display.Frame) (*image.Paletted, error) {
	g := frame.Geometry()
	pal := r.colors.Colors()

	levels, err := frame.Levels()
	if err != nil {
		return nil, err
	}
	// row-major levels are already paletted pixels, clamp to the palette
	top := uint8(len(pal) - 1)
	for i, l := range levels {
		levels[i] = min(l, top)
	}
	src := &image.Paletted{
		Pix:     levels,
		Stride:  g.Cols,
		Rect:    image.Rect(0, 0, g.Cols, g.Rows),
		Palette: pal,
	}
	if r.scale == 1 {
		return src, nil
	}

	dst := image.NewPaletted(image.Rect(0, 0, g.Cols*r.scale, g.Rows*r.scale), pal)
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

// Frames is the number of frames stored so far
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.anim.Image)
}

// Dropped is the number of frames refused once the recorder was full
func (r *Recorder) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Close encodes the animation, looping forever. Later frames are ignored
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	if len(r.anim.Image) == 0 {
		return ErrNoFrames
	}
	if err := gif.EncodeAll(r.w, &r.anim); err != nil {
		return fmt.Errorf("export: encode gif: %w", err)
	}
	logging.Logger().Debug("gif written", "frames", len(r.anim.Image), "dropped", r.dropped)
	return nil
}

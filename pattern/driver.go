package pattern

import (
	"time"

	"github.com/lixenwraith/fixmatrix/display"
	"github.com/lixenwraith/fixmatrix/logging"
)

// Driver renders brightness functions into a live display buffer
type Driver struct {
	live         display.Buffer
	geom         display.Geometry
	sleep        func(time.Duration)
	doubleBuffer bool

	// off-screen frame, reused by every Render call
	frame *display.Frame
}

// Option configures a Driver
type Option func(*Driver)

// WithSleep replaces the frame delay primitive, time.Sleep by default
func WithSleep(fn func(time.Duration)) Option {
	return func(d *Driver) { d.sleep = fn }
}

// WithDoubleBuffering selects off-screen composition (default) or writing
// rows straight into the live buffer, which is faster but shows partial frames
func WithDoubleBuffering(on bool) Option {
	return func(d *Driver) { d.doubleBuffer = on }
}

// NewDriver binds a driver to a live buffer and its geometry
func NewDriver(live display.Buffer, opts ...Option) (*Driver, error) {
	g := live.Geometry()
	if err := g.Validate(); err != nil {
		return nil, err
	}
	d := &Driver{
		live:         live,
		geom:         g,
		sleep:        time.Sleep,
		doubleBuffer: true,
		frame:        display.NewFrame(g),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Geometry is the shape every brightness function is evaluated over
func (d *Driver) Geometry() display.Geometry { return d.geom }

// DoubleBuffered reports whether frames are composed off-screen
func (d *Driver) DoubleBuffered() bool { return d.doubleBuffer }

// Render evaluates fn for every pixel of every time step of span.
// Each pixel's level N is stacked into planes 1..N. A finished frame reaches
// the live buffer in a single Load, then the driver sleeps span.Delay.
// Render blocks until the span is exhausted; there is no cancellation.
// A Driver renders one span at a time.
func Render[S any](d *Driver, span Span, fn Brightness[S], state *S) error {
	if span.Step == 0 {
		return ErrZeroStep
	}

	g := d.geom
	lb := g.LineBytes()
	log := logging.Logger()

	// every render starts from a dark frame
	frame := d.frame
	frame.Clear()

	// one spare top chunk keeps the OR pass below branch-free
	chunk := make([][]byte, g.Planes+1)
	for p := range chunk {
		chunk[p] = make([]byte, lb)
	}

	log.Debug("render start",
		"geometry", g.String(),
		"start", span.Start, "stop", span.Stop, "step", span.Step,
		"delay", span.Delay, "double_buffer", d.doubleBuffer)

	frames := 0
	for t, ok := span.Start, true; ok && span.running(t); t, ok = span.next(t) {
		for y := 0; y < g.Rows; y++ {
			for p := range chunk {
				clear(chunk[p])
			}

			for x := 0; x < g.Cols; x++ {
				level := fn.Evaluate(x, y, t, state)
				if level < 1 || level > g.Planes {
					log.Debug("render aborted", "frame", frames, "x", x, "y", y, "level", level)
					return &LevelError{X: x, Y: y, T: t, Level: level, Planes: g.Planes}
				}
				chunk[level-1][x/8] |= display.Shl[x%8]
			}

			// level N lit in chunk N-1 spreads down to every lower plane
			for p := g.Planes - 1; p >= 0; p-- {
				row := frame.Row(p, y)
				for c := lb - 1; c >= 0; c-- {
					chunk[p][c] |= chunk[p+1][c]
					row[c] = chunk[p][c]
				}
			}

			if !d.doubleBuffer {
				d.live.LoadRow(y, frame)
			}
		}

		if d.doubleBuffer {
			d.live.Load(frame)
		} else {
			d.live.Commit()
		}
		frames++

		d.sleep(span.Delay)
	}

	log.Debug("render done", "frames", frames)
	return nil
}

// Package animation holds the brightness generators and the entry points
// that run them through the pattern driver.
package animation

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/lixenwraith/fixmatrix/display"
	"github.com/lixenwraith/fixmatrix/fixmath"
	"github.com/lixenwraith/fixmatrix/logging"
	"github.com/lixenwraith/fixmatrix/pattern"
)

// ErrOverflow rejects geometries whose centre or distance math leaves int16
var ErrOverflow = errors.New("animation: geometry overflows fixed-point range")

// Target selects the timing profile
type Target int

const (
	// Simulated runs on a host, frames are slow enough to watch
	Simulated Target = iota
	// Embedded mirrors the microcontroller build, short delays, coarser steps
	Embedded
)

func (t Target) String() string {
	switch t {
	case Simulated:
		return "simulated"
	case Embedded:
		return "embedded"
	}
	return fmt.Sprintf("target(%d)", int(t))
}

// ParseTarget resolves "simulated" or "embedded"
func ParseTarget(s string) (Target, error) {
	switch s {
	case "simulated":
		return Simulated, nil
	case "embedded":
		return Embedded, nil
	}
	return 0, fmt.Errorf("animation: unknown target %q", s)
}

// PlasmaSpan is the time range plasma walks on this target
func (t Target) PlasmaSpan(f *fixmath.Format) pattern.Span {
	if t == Embedded {
		return pattern.Span{Start: 0, Stop: f.ScaleUp(60), Step: f.FromRatio(1, 5), Delay: time.Millisecond}
	}
	return pattern.Span{Start: 0, Stop: f.ScaleUp(75), Step: f.FromRatio(1, 10), Delay: 80 * time.Millisecond}
}

// PsychedelicSpan is the time range psychedelic walks on this target
func (t Target) PsychedelicSpan(f *fixmath.Format) pattern.Span {
	if t == Embedded {
		return pattern.Span{Start: 0, Stop: f.ScaleUp(60), Step: f.FromRatio(1, 5), Delay: 15 * time.Millisecond}
	}
	return pattern.Span{Start: 0, Stop: f.ScaleUp(75), Step: f.FromRatio(1, 10), Delay: 80 * time.Millisecond}
}

// CheckGeometry verifies the generators stay inside the stored type for g.
// The plasma centre wanders up to twice the display size away from the
// origin, and distances to it must still fit a Fixed.
func CheckGeometry(f *fixmath.Format, g display.Geometry) error {
	if err := g.Validate(); err != nil {
		return err
	}
	limit := float64(math.MaxInt16) / float64(f.Fix)
	span := 2 * float64(max(g.Rows, g.Cols))
	reach := 2 * math.Hypot(float64(g.Rows), float64(g.Cols))
	if span > limit || reach > limit {
		return fmt.Errorf("%w: %s in %s precision", ErrOverflow, g, f)
	}
	if g.Planes > math.MaxInt16/int(f.Fix) {
		return fmt.Errorf("%w: %d planes in %s precision", ErrOverflow, g.Planes, f)
	}
	return nil
}

// Runner bundles what the entry points need to run one animation
type Runner struct {
	driver *pattern.Driver
	format *fixmath.Format
	target Target

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRunner checks the driver geometry against the format
func NewRunner(d *pattern.Driver, f *fixmath.Format, target Target) (*Runner, error) {
	if err := CheckGeometry(f, d.Geometry()); err != nil {
		return nil, err
	}
	return &Runner{
		driver: d,
		format: f,
		target: target,
		stop:   make(chan struct{}),
	}, nil
}

func (r *Runner) Format() *fixmath.Format { return r.format }
func (r *Runner) Target() Target          { return r.target }

// Stop ends RunModes after the animation currently rendering
func (r *Runner) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (r *Runner) stopped() bool {
	select {
	case <-r.stop:
		return true
	default:
		return false
	}
}

// Plasma renders the whole plasma range
func (r *Runner) Plasma() error {
	g := r.driver.Geometry()
	state := NewPlasmaState(g)
	return pattern.Render(r.driver, r.target.PlasmaSpan(r.format), NewPlasma(r.format, g), state)
}

// Psychedelic renders the whole psychedelic range
func (r *Runner) Psychedelic() error {
	g := r.driver.Geometry()
	var state PsychedelicState
	return pattern.Render(r.driver, r.target.PsychedelicSpan(r.format), NewPsychedelic(r.format, g), &state)
}

// Mode is a named entry point
type Mode struct {
	Name string
	Run  func(*Runner) error
}

// Modes lists the animations in their default cycle order
var Modes = []Mode{
	{Name: "plasma", Run: (*Runner).Plasma},
	{Name: "psychedelic", Run: (*Runner).Psychedelic},
}

// Lookup finds a mode by name
func Lookup(name string) (Mode, bool) {
	for _, m := range Modes {
		if m.Name == name {
			return m, true
		}
	}
	return Mode{}, false
}

// ModeNames returns the registered names in cycle order
func ModeNames() []string {
	names := make([]string, len(Modes))
	for i, m := range Modes {
		names[i] = m.Name
	}
	return names
}

// RunModes plays the named modes in order, forever when loop is set, until
// a mode fails or Stop is called. An empty list plays every mode
func RunModes(r *Runner, names []string, loop bool) error {
	if len(names) == 0 {
		names = ModeNames()
	}
	modes := make([]Mode, 0, len(names))
	for _, name := range names {
		m, ok := Lookup(name)
		if !ok {
			return fmt.Errorf("animation: unknown mode %q", name)
		}
		modes = append(modes, m)
	}

	log := logging.Logger()
	for cycle := 0; ; cycle++ {
		for _, m := range modes {
			if r.stopped() {
				return nil
			}
			log.Debug("mode start", "mode", m.Name, "cycle", cycle, "target", r.target.String(), "precision", r.format.Name)
			if err := m.Run(r); err != nil {
				return fmt.Errorf("animation: %s: %w", m.Name, err)
			}
		}
		if !loop {
			return nil
		}
	}
}

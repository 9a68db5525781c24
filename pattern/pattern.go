// Package pattern drives a per-pixel brightness function over a bitplane
// display for a range of animation time steps.
package pattern

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/lixenwraith/fixmatrix/fixmath"
)

// ErrZeroStep rejects a span that would never reach its stop value
var ErrZeroStep = errors.New("pattern: zero time step")

// LevelError reports a brightness outside [1, Planes]
// Nothing of the failing frame reaches a double-buffered display
type LevelError struct {
	X, Y   int
	T      fixmath.Fixed
	Level  int
	Planes int
}

func (e *LevelError) Error() string {
	return fmt.Sprintf("pattern: level %d at (%d,%d) t=%d outside [1,%d]", e.Level, e.X, e.Y, e.T, e.Planes)
}

// Brightness maps a pixel at animation step t to a level in [1, Planes]
// state is owned by the caller and passed through unchanged
type Brightness[S any] interface {
	Evaluate(x, y int, t fixmath.Fixed, state *S) int
}

// BrightnessFunc adapts a plain function to Brightness
type BrightnessFunc[S any] func(x, y int, t fixmath.Fixed, state *S) int

func (fn BrightnessFunc[S]) Evaluate(x, y int, t fixmath.Fixed, state *S) int {
	return fn(x, y, t, state)
}

// Span is the half-open time range [Start, Stop) walked by Step, with Delay
// slept after every frame. A negative Step walks downward
type Span struct {
	Start, Stop, Step fixmath.Fixed
	Delay             time.Duration
}

// Frames is the number of time steps the span covers
func (s Span) Frames() int {
	start, stop, step := int(s.Start), int(s.Stop), int(s.Step)
	switch {
	case step > 0 && stop > start:
		return (stop - start + step - 1) / step
	case step < 0 && stop < start:
		return (start - stop - step - 1) / -step
	}
	return 0
}

func (s Span) running(t fixmath.Fixed) bool {
	if s.Step > 0 {
		return t < s.Stop
	}
	return t > s.Stop
}

// next advances t, false once the stored type would overflow
func (s Span) next(t fixmath.Fixed) (fixmath.Fixed, bool) {
	n := fixmath.Wide(t) + fixmath.Wide(s.Step)
	if n > math.MaxInt16 || n < math.MinInt16 {
		return t, false
	}
	return fixmath.Fixed(n), true
}

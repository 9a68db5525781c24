package animation

import (
	"github.com/lixenwraith/fixmatrix/display"
	"github.com/lixenwraith/fixmatrix/fixmath"
)

// PlasmaState carries interim results between pixels of one frame
type PlasmaState struct {
	// Wave holds the travelling wave per column, computed on row 0 and
	// reused by every later row of the frame
	Wave []fixmath.Fixed

	// Centre of the radial wave, computed once per frame at (0,0)
	CenterX fixmath.Fixed
	CenterY fixmath.Fixed
}

// NewPlasmaState sizes the column cache for g
func NewPlasmaState(g display.Geometry) *PlasmaState {
	return &PlasmaState{Wave: make([]fixmath.Fixed, g.Cols)}
}

// Plasma superimposes horizontally travelling waves and zoomed-in radiating
// curls around a wandering centre, a wobbly plasma with few grey levels
type Plasma struct {
	f      *fixmath.Format
	geom   display.Geometry
	scaleX fixmath.Fixed // one full wave period across the display
}

// NewPlasma prepares the brightness function for a format and geometry
func NewPlasma(f *fixmath.Format, g display.Geometry) *Plasma {
	return &Plasma{
		f:      f,
		geom:   g,
		scaleX: fixmath.Fixed(f.TwoPi / fixmath.Wide(g.Cols)),
	}
}

// Evaluate returns the level of pixel (x, y) at step t, in [1, Planes]
func (p *Plasma) Evaluate(x, y int, t fixmath.Fixed, s *PlasmaState) int {
	f := p.f
	rows, cols := p.geom.Rows, p.geom.Cols

	if x == 0 && y == 0 {
		s.CenterY = fixmath.Fixed(rows)*f.Cos(fixmath.Wide(t)) + f.ScaleUp(rows)
		s.CenterX = fixmath.Fixed(cols)*f.Sin(fixmath.Wide(t)) + f.ScaleUp(cols)
	}
	if y == 0 {
		s.Wave[x] = f.Sin(f.Mul(f.ScaleUp(x), p.scaleX) + fixmath.Wide(t))
	}

	radial := f.Sin(f.Mul(f.Dist(f.ScaleUp(x), f.ScaleUp(y), s.CenterX, s.CenterY), p.scaleX))

	// [-2Fix, 2Fix) shifted to [0, 4Fix), then bucketed into Planes levels
	sum := s.Wave[x] + radial + f.ScaleUp(2)
	bucket := f.Div(f.Mul(sum, f.ScaleUp(p.geom.Planes)), fixmath.Wide(f.ScaleUp(4)))
	return f.ScaleDown(bucket) + 1
}

package animation

import (
	"github.com/lixenwraith/fixmatrix/display"
	"github.com/lixenwraith/fixmatrix/fixmath"
)

// PsychedelicState holds the per-frame centre and phase of the curl
type PsychedelicState struct {
	CenterX fixmath.Fixed
	CenterY fixmath.Fixed
	Phase   fixmath.Wide // t*10, rotates the rings outward
}

// Psychedelic draws flowing circular waves around a rotating centre
type Psychedelic struct {
	f    *fixmath.Format
	geom display.Geometry
}

func NewPsychedelic(f *fixmath.Format, g display.Geometry) *Psychedelic {
	return &Psychedelic{f: f, geom: g}
}

// Evaluate returns the level of pixel (x, y) at step t, in [1, Planes]
func (p *Psychedelic) Evaluate(x, y int, t fixmath.Fixed, s *PsychedelicState) int {
	f := p.f

	if x == 0 && y == 0 {
		s.CenterX = fixmath.Fixed(p.geom.Cols/2) * f.Cos(fixmath.Wide(t))
		s.CenterY = fixmath.Fixed(p.geom.Rows/2) * f.Sin(fixmath.Wide(t))
		s.Phase = f.Mul(t, f.ScaleUp(10))
	}

	dist := f.Dist(f.ScaleUp(x), f.ScaleUp(y), s.CenterX, s.CenterY)
	v := f.Sin(fixmath.Wide(dist) - s.Phase)

	// [-Fix, Fix) shifted to [0, 2Fix), then bucketed into Planes levels
	bucket := f.Div(f.Mul(v+fixmath.Fixed(f.Fix), f.ScaleUp(p.geom.Planes)), fixmath.Wide(f.ScaleUp(2)))
	return f.ScaleDown(bucket) + 1
}

package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/lixenwraith/fixmatrix/animation"
	"github.com/lixenwraith/fixmatrix/display"
	"github.com/lixenwraith/fixmatrix/fixmath"
)

const sampleCount = 10000

var seed = flag.Int64("seed", 1, "random seed for sample operands")

var formats = []*fixmath.Format{fixmath.Low, fixmath.Normal}

// samples holds operands in the range each format is used with by the generators
type samples struct {
	angles []fixmath.Wide
	roots  []uint32
	points [][4]fixmath.Fixed
}

func newSamples(f *fixmath.Format, rng *rand.Rand) *samples {
	s := &samples{
		angles: make([]fixmath.Wide, sampleCount),
		roots:  make([]uint32, sampleCount),
		points: make([][4]fixmath.Fixed, sampleCount),
	}
	limit := fixmath.LowPrecisionLimit
	if f == fixmath.Normal {
		limit = 32
	}
	for i := 0; i < sampleCount; i++ {
		s.angles[i] = fixmath.Wide(rng.Intn(int(20*f.TwoPi))) - 10*f.TwoPi
		s.roots[i] = uint32(rng.Intn(int(f.Fix) * limit * limit))
		for k := range s.points[i] {
			s.points[i][k] = f.ScaleUp(rng.Intn(limit))
		}
	}
	return s
}

type errorStats struct {
	max, sum float64
	n        int
}

func (e *errorStats) add(got, want float64) {
	d := math.Abs(got - want)
	e.max = max(e.max, d)
	e.sum += d
	e.n++
}

func (e *errorStats) mean() float64 { return e.sum / float64(e.n) }

func verifyAccuracy(f *fixmath.Format, s *samples) {
	fmt.Printf("=== %s precision: Q%d.%d, Fix %d, sqrt %d rounds ===\n",
		f.Name, 15-f.FracBits, f.FracBits, f.Fix, f.SqrtIterations())
	fmt.Println()

	var sin, cos, sqrt, dist errorStats
	for i := 0; i < sampleCount; i++ {
		a := s.angles[i]
		rad := f.ToFloat(a)
		sin.add(f.ToFloat(fixmath.Wide(f.Sin(a))), math.Sin(rad))
		cos.add(f.ToFloat(fixmath.Wide(f.Cos(a))), math.Cos(rad))

		r := s.roots[i]
		sqrt.add(f.ToFloat(fixmath.Wide(f.Sqrt(r))), math.Sqrt(f.ToFloat(fixmath.Wide(r))))

		p := s.points[i]
		want := math.Hypot(f.ToFloat(fixmath.Wide(p[0]-p[2])), f.ToFloat(fixmath.Wide(p[1]-p[3])))
		dist.add(f.ToFloat(fixmath.Wide(f.Dist(p[0], p[1], p[2], p[3]))), want)
	}

	fmt.Printf("%-6s %12s %12s %12s\n", "Op", "Max error", "Mean error", "1 LSB")
	fmt.Println(strings.Repeat("-", 45))
	lsb := 1 / float64(f.Fix)
	for _, row := range []struct {
		name string
		e    *errorStats
	}{
		{"Sin", &sin}, {"Cos", &cos}, {"Sqrt", &sqrt}, {"Dist", &dist},
	} {
		fmt.Printf("%-6s %12.6f %12.6f %12.6f\n", row.name, row.e.max, row.e.mean(), lsb)
	}
	fmt.Println()
}

func benchmark(f *fixmath.Format, s *samples) {
	var sinkF fixmath.Fixed
	var sinkM float64

	results := []struct {
		name string
		fn   func(b *testing.B)
	}{
		{"Sin", func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				sinkF = f.Sin(s.angles[i%sampleCount])
			}
		}},
		{"math.Sin", func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				sinkM = math.Sin(float64(s.angles[i%sampleCount]))
			}
		}},
		{"Cos", func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				sinkF = f.Cos(s.angles[i%sampleCount])
			}
		}},
		{"Sqrt", func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				sinkF = f.Sqrt(s.roots[i%sampleCount])
			}
		}},
		{"math.Sqrt", func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				sinkM = math.Sqrt(float64(s.roots[i%sampleCount]))
			}
		}},
		{"Dist", func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				p := s.points[i%sampleCount]
				sinkF = f.Dist(p[0], p[1], p[2], p[3])
			}
		}},
		{"Plasma frame 16x16", func(b *testing.B) {
			g := display.Geometry{Rows: 16, Cols: 16, Planes: 3}
			p := animation.NewPlasma(f, g)
			st := animation.NewPlasmaState(g)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				for y := 0; y < g.Rows; y++ {
					for x := 0; x < g.Cols; x++ {
						p.Evaluate(x, y, fixmath.Fixed(i), st)
					}
				}
			}
		}},
	}

	fmt.Printf("%-20s %12s\n", "Benchmark", "ns/op")
	fmt.Println(strings.Repeat("-", 33))
	for _, r := range results {
		res := testing.Benchmark(r.fn)
		fmt.Printf("%-20s %12d\n", r.name, res.NsPerOp())
	}
	fmt.Println()
	_, _ = sinkF, sinkM
}

func main() {
	flag.Parse()

	fmt.Println("fixmatrix fixed-point accuracy and speed")
	fmt.Println("========================================")
	fmt.Println()

	for _, f := range formats {
		s := newSamples(f, rand.New(rand.NewSource(*seed)))
		verifyAccuracy(f, s)
		benchmark(f, s)
	}
}

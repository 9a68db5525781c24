// Package fixmath implements 16-bit fixed-point arithmetic for targets
// without a floating-point unit.
//
// Values are stored as Fixed (int16) and scaled by a power-of-two factor
// selected by a Format. Products, sums and angles that can exceed the storage
// range are carried as Wide (int32) until they are rescaled. The two formats,
// Low (Q10.5) and Normal (Q7.8), share one implementation and differ only in
// their constants and sine table.
package fixmath

// Fixed is a stored fixed-point value
type Fixed int16

// Wide holds interim results of fixed-point operations
type Wide int32

// Sine table geometry, identical for both formats
const (
	SinSteps     = 200 // quantization steps per full period
	QuarterSteps = SinSteps / 4
	halfSteps    = SinSteps / 2
	sqrtBits     = 32
)

// --- Arithmetic ---

// ScaleUp converts an ordinary integer to fixed point. No range checking
func (f *Format) ScaleUp(n int) Fixed { return Fixed(n) * Fixed(f.Fix) }

// ScaleDown drops the fractional part, truncating toward zero
func (f *Format) ScaleDown(a Fixed) int { return int(a) / int(f.Fix) }

// Mul multiplies in the wide type and rescales
// The result is exact as long as a*b fits Wide
func (f *Format) Mul(a, b Fixed) Wide {
	return (Wide(a) * Wide(b)) / f.Fix
}

// Div scales the dividend before dividing to keep fractional precision
// A zero divisor panics with the runtime's integer divide error
func (f *Format) Div(a, b Wide) Fixed {
	return Fixed((a * f.Fix) / b)
}

// FromRatio returns num/den in fixed point, e.g. FromRatio(1, 10) for 0.1
func (f *Format) FromRatio(num, den int) Fixed {
	return Fixed(Wide(num) * f.Fix / Wide(den))
}

// ToFloat is for diagnostics and tests only
func (f *Format) ToFloat(a Wide) float64 { return float64(a) / float64(f.Fix) }

// --- Trigonometry ---

// Sin returns sin(angle) in [-Fix, Fix] for an angle in fixed-point radians
// Only the first quadrant is tabulated, the rest is folded onto it
func (f *Format) Sin(angle Wide) Fixed {
	return f.sin(int64(angle))
}

// sin folds on the magnitude in 64 bits, so neither negation nor the
// quarter shift of Cos can wrap at the ends of the Wide range
func (f *Format) sin(angle int64) Fixed {
	negative := false
	if angle < 0 {
		// sin(-x) == -sin(x)
		angle = -angle
		negative = true
	}
	idx := int((angle / int64(f.SinDivider)) % SinSteps)

	if idx >= QuarterSteps {
		if idx < halfSteps {
			idx = halfSteps - 1 - idx
		} else {
			// second half of the period flips the sign
			negative = !negative
			if idx < SinSteps-QuarterSteps {
				idx -= halfSteps
			} else {
				idx = SinSteps - 1 - idx
			}
		}
	}

	v := Fixed(f.lut[idx])
	if negative {
		return -v
	}
	return v
}

// Cos is Sin shifted by a quarter period, there is no separate table
func (f *Format) Cos(angle Wide) Fixed {
	return f.sin(int64(angle) + int64(f.HalfPi))
}

// --- Roots ---

// Sqrt returns the fixed-point square root of a fixed-point radicand
// Turkowski's digit-by-digit method, always sqrtIterations rounds with no
// early exit so the cost does not depend on the operand.
// Formats with an odd fractional bit count shift the radicand up one bit,
// so radicands must stay below 1<<31 there.
func (f *Format) Sqrt(a uint32) Fixed {
	var root, remHi, testDiv uint32
	remLo := a << (f.FracBits & 1)

	for i := 0; i < f.sqrtIterations; i++ {
		remHi = (remHi << 2) | (remLo >> (sqrtBits - 2))
		remLo <<= 2
		root <<= 1
		testDiv = (root << 1) + 1
		if remHi >= testDiv {
			remHi -= testDiv
			root++
		}
	}
	return Fixed(root)
}

// Dist returns the Euclidean distance between two fixed-point points
// Both squared differences must fit the wide multiply
func (f *Format) Dist(x1, y1, x2, y2 Fixed) Fixed {
	dx := x1 - x2
	dy := y1 - y2
	return f.Sqrt(uint32(f.Mul(dx, dx) + f.Mul(dy, dy)))
}

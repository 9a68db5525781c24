package fixmath

// LowPrecisionLimit is the largest row or column count Low is safe for;
// bigger displays overflow its interim calculations
const LowPrecisionLimit = 16

// Format is a fixed-point policy: scale factor, fractional bits and the
// matching quarter-sine table. Formats are immutable and shared
type Format struct {
	Name     string
	Fix      Wide // scale factor, 1 << FracBits
	FracBits uint

	// SinDivider is floor(Fix*2pi / SinSteps), it maps a fixed-point
	// angle onto a table step
	SinDivider Wide

	// Fix*pi/2, Fix*pi and Fix*2pi, truncated
	HalfPi Wide
	Pi     Wide
	TwoPi  Wide

	lut            *[QuarterSteps]uint8
	sqrtIterations int
}

// Low is Q10.5, leaner and faster, visibly coarser. Use up to 16x16 only
var Low = newFormat("low", 5, 1, 50, 100, 201, &lowSineLUT)

// Normal is Q7.8 with Q23.8 interim results
var Normal = newFormat("normal", 8, 8, 402, 804, 1608, &normalSineLUT)

func newFormat(name string, fracBits uint, divider, halfPi, pi, twoPi Wide, lut *[QuarterSteps]uint8) *Format {
	return &Format{
		Name:           name,
		Fix:            1 << fracBits,
		FracBits:       fracBits,
		SinDivider:     divider,
		HalfPi:         halfPi,
		Pi:             pi,
		TwoPi:          twoPi,
		lut:            lut,
		sqrtIterations: sqrtBits/2 + int(fracBits>>1),
	}
}

// ForGeometry picks Low for displays up to 16x16 and Normal otherwise
func ForGeometry(rows, cols int) *Format {
	if rows <= LowPrecisionLimit && cols <= LowPrecisionLimit {
		return Low
	}
	return Normal
}

// ByName resolves "low" or "normal"
func ByName(name string) (*Format, bool) {
	switch name {
	case Low.Name:
		return Low, true
	case Normal.Name:
		return Normal, true
	}
	return nil, false
}

// SineTable returns a copy of the quarter-period table
func (f *Format) SineTable() [QuarterSteps]uint8 { return *f.lut }

// SqrtIterations reports the fixed round count of Sqrt
func (f *Format) SqrtIterations() int { return f.sqrtIterations }

func (f *Format) String() string { return f.Name }

// Quarter-period sine magnitudes for Q5 values
var lowSineLUT = [QuarterSteps]uint8{
	0, 1, 2, 3, 4, 5, 6, 7,
	8, 9, 10, 11, 12, 13, 14, 15,
	15, 16, 17, 18, 19, 20, 20, 21,
	22, 22, 23, 24, 24, 25, 26, 26,
	27, 27, 28, 28, 29, 29, 29, 30,
	30, 30, 31, 31, 31, 31, 31, 31,
	31, 31,
}

// Quarter-period sine magnitudes for Q8 values
var normalSineLUT = [QuarterSteps]uint8{
	0, 9, 17, 24, 32, 40, 48, 56,
	64, 72, 79, 87, 94, 102, 109, 116,
	123, 130, 137, 144, 150, 157, 163, 169,
	175, 181, 186, 192, 197, 202, 207, 211,
	216, 220, 224, 228, 231, 235, 238, 240,
	243, 245, 247, 249, 251, 252, 253, 254,
	255, 255,
}

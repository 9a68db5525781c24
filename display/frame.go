// Package display models the bitplane frame buffer of a grayscale LED matrix.
//
// A frame holds one bit per pixel per plane. Brightness level L lights the
// pixel in planes 1..L, so the number of lit planes of a pixel is its level.
// Rows are byte-packed, pixel x of a row lives in byte x/8 under mask Shl[x%8].
package display

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"

	"github.com/32bitkid/bitreader"
)

// Shl maps a bit position within a row byte to its mask
var Shl = [8]byte{0x01, 0x02, 0x04, 0x08, 0x10, 0x20, 0x40, 0x80}

var ErrGeometry = errors.New("invalid display geometry")

// MaxPlanes is the deepest grayscale the front ends render
const MaxPlanes = 8

// Geometry is the fixed shape of a display
type Geometry struct {
	Rows   int
	Cols   int
	Planes int
}

// LineBytes is the number of bytes per plane row
func (g Geometry) LineBytes() int { return (g.Cols + 7) / 8 }

// PlaneSize is the number of bytes of one plane
func (g Geometry) PlaneSize() int { return g.Rows * g.LineBytes() }

// Size is the number of bytes of a whole frame
func (g Geometry) Size() int { return g.Planes * g.PlaneSize() }

// Pixels is Rows*Cols
func (g Geometry) Pixels() int { return g.Rows * g.Cols }

// Validate rejects empty geometries
func (g Geometry) Validate() error {
	if g.Rows <= 0 || g.Cols <= 0 || g.Planes <= 0 {
		return fmt.Errorf("%w: %dx%d with %d planes", ErrGeometry, g.Cols, g.Rows, g.Planes)
	}
	return nil
}

func (g Geometry) String() string {
	return fmt.Sprintf("%dx%dx%d", g.Cols, g.Rows, g.Planes)
}

// Frame is a set of bitplanes, plane-major, then row-major
type Frame struct {
	geom Geometry
	bits []byte
}

// NewFrame allocates a dark frame
func NewFrame(g Geometry) *Frame {
	return &Frame{
		geom: g,
		bits: make([]byte, g.Size()),
	}
}

// Geometry returns the frame shape
func (f *Frame) Geometry() Geometry { return f.geom }

// Bytes exposes the raw plane data
func (f *Frame) Bytes() []byte { return f.bits }

// Row returns the bytes of one plane row, plane is 0-based
func (f *Frame) Row(plane, y int) []byte {
	lb := f.geom.LineBytes()
	off := plane*f.geom.PlaneSize() + y*lb
	return f.bits[off : off+lb]
}

// Bit reports whether pixel (x, y) is lit in a 0-based plane
func (f *Frame) Bit(plane, x, y int) bool {
	return f.Row(plane, y)[x/8]&Shl[x%8] != 0
}

// Clear darkens all planes using exponential copy
func (f *Frame) Clear() {
	if len(f.bits) == 0 {
		return
	}
	f.bits[0] = 0
	for filled := 1; filled < len(f.bits); filled *= 2 {
		copy(f.bits[filled:], f.bits[:filled])
	}
}

// CopyFrom overwrites f with src in one bulk copy
// Both frames must share a geometry
func (f *Frame) CopyFrom(src *Frame) {
	if src.geom != f.geom {
		panic(fmt.Sprintf("display: copy %v frame into %v frame", src.geom, f.geom))
	}
	copy(f.bits, src.bits)
}

// Clone returns an independent copy
func (f *Frame) Clone() *Frame {
	c := NewFrame(f.geom)
	copy(c.bits, f.bits)
	return c
}

// Levels decodes the planes into one level per pixel, row-major
// Plane rows are streamed bit by bit; bytes arrive MSB first while pixels
// are packed LSB first, so each byte is consumed from its last pixel down.
func (f *Frame) Levels() ([]uint8, error) {
	g := f.geom
	lb := g.LineBytes()
	levels := make([]uint8, g.Pixels())

	br := bitreader.NewReader(bufio.NewReader(bytes.NewReader(f.bits)))
	for p := 0; p < g.Planes; p++ {
		for y := 0; y < g.Rows; y++ {
			for b := 0; b < lb; b++ {
				for k := 7; k >= 0; k-- {
					lit, err := br.Read1()
					if err != nil {
						return nil, fmt.Errorf("plane %d row %d: %w", p, y, err)
					}
					x := b*8 + k
					if lit && x < g.Cols {
						levels[y*g.Cols+x]++
					}
				}
			}
		}
	}
	return levels, nil
}

// LitRatio returns lit plane bits over all plane bits, in [0, 1]
func (f *Frame) LitRatio() float64 {
	lit := 0
	for _, b := range f.bits {
		for ; b != 0; b &= b - 1 {
			lit++
		}
	}
	total := f.geom.Pixels() * f.geom.Planes
	if total == 0 {
		return 0
	}
	return float64(lit) / float64(total)
}

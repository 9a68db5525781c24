package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var borg = Geometry{Rows: 16, Cols: 16, Planes: 3}

// set lights pixel (x, y) in a 0-based plane
func set(f *Frame, plane, x, y int) {
	f.Row(plane, y)[x/8] |= Shl[x%8]
}

func TestGeometry(t *testing.T) {
	g := Geometry{Rows: 8, Cols: 12, Planes: 3}
	assert.Equal(t, 2, g.LineBytes())
	assert.Equal(t, 16, g.PlaneSize())
	assert.Equal(t, 48, g.Size())
	assert.Equal(t, 96, g.Pixels())
	assert.NoError(t, g.Validate())
	assert.Equal(t, "12x8x3", g.String())

	for _, bad := range []Geometry{{0, 8, 3}, {8, 0, 3}, {8, 8, 0}, {-1, 8, 3}} {
		assert.ErrorIs(t, bad.Validate(), ErrGeometry, "geometry %v", bad)
	}
}

func TestFrameBit(t *testing.T) {
	f := NewFrame(borg)
	set(f, 0, 0, 0)
	set(f, 1, 9, 3)
	set(f, 2, 15, 15)

	assert.Equal(t, byte(0x01), f.Row(0, 0)[0])
	assert.Equal(t, byte(0x02), f.Row(1, 3)[1])
	assert.Equal(t, byte(0x80), f.Row(2, 15)[1])

	assert.True(t, f.Bit(1, 9, 3))
	assert.False(t, f.Bit(0, 9, 3))
	assert.False(t, f.Bit(1, 8, 3))
}

func TestFrameLevels(t *testing.T) {
	g := Geometry{Rows: 4, Cols: 12, Planes: 3}
	f := NewFrame(g)
	want := make([]uint8, g.Pixels())
	for y := 0; y < g.Rows; y++ {
		for x := 0; x < g.Cols; x++ {
			level := (x + y) % (g.Planes + 1)
			for p := 0; p < level; p++ {
				set(f, p, x, y)
			}
			want[y*g.Cols+x] = uint8(level)
		}
	}

	levels, err := f.Levels()
	require.NoError(t, err)
	assert.Equal(t, want, levels)
}

func TestFrameClearAndCopy(t *testing.T) {
	f := NewFrame(borg)
	for i := range f.Bytes() {
		f.Bytes()[i] = 0xFF
	}
	c := f.Clone()
	f.Clear()
	for _, b := range f.Bytes() {
		require.Zero(t, b)
	}
	assert.Equal(t, 1.0, c.LitRatio())
	assert.Equal(t, 0.0, f.LitRatio())

	f.CopyFrom(c)
	assert.Equal(t, c.Bytes(), f.Bytes())

	assert.Panics(t, func() {
		f.CopyFrom(NewFrame(Geometry{Rows: 8, Cols: 8, Planes: 3}))
	})
}

func TestLitRatio(t *testing.T) {
	g := Geometry{Rows: 2, Cols: 8, Planes: 2}
	f := NewFrame(g)
	for x := 0; x < 8; x++ {
		set(f, 0, x, 0)
	}
	assert.InDelta(t, 0.25, f.LitRatio(), 1e-9)
}

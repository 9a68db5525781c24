package pattern

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/fixmatrix/display"
	"github.com/lixenwraith/fixmatrix/fixmath"
)

var testGeom = display.Geometry{Rows: 4, Cols: 10, Planes: 3}

// countingBuffer records every write like a headless display
type countingBuffer struct {
	geom    display.Geometry
	loads   []*display.Frame
	rowOps  int
	commits int
}

func (b *countingBuffer) Load(src *display.Frame)     { b.loads = append(b.loads, src.Clone()) }
func (b *countingBuffer) LoadRow(int, *display.Frame) { b.rowOps++ }
func (b *countingBuffer) Commit()                     { b.commits++ }
func (b *countingBuffer) Geometry() display.Geometry  { return b.geom }

type sleepLog struct{ delays []time.Duration }

func (s *sleepLog) sleep(d time.Duration) { s.delays = append(s.delays, d) }

func newTestDriver(t *testing.T, opts ...Option) (*Driver, *countingBuffer, *sleepLog) {
	t.Helper()
	buf := &countingBuffer{geom: testGeom}
	sl := &sleepLog{}
	d, err := NewDriver(buf, append([]Option{WithSleep(sl.sleep)}, opts...)...)
	require.NoError(t, err)
	return d, buf, sl
}

type evalLog struct {
	calls int
	steps []fixmath.Fixed
}

func constantLevel(level int) BrightnessFunc[evalLog] {
	return func(x, y int, t fixmath.Fixed, s *evalLog) int {
		if s.calls == 0 || s.steps[len(s.steps)-1] != t {
			s.steps = append(s.steps, t)
		}
		s.calls++
		return level
	}
}

func TestRenderTwoSteps(t *testing.T) {
	f := fixmath.Normal
	d, buf, sl := newTestDriver(t)
	var state evalLog

	span := Span{Start: 0, Stop: f.ScaleUp(2), Step: f.ScaleUp(1), Delay: 80 * time.Millisecond}
	require.NoError(t, Render(d, span, constantLevel(1), &state))

	assert.Equal(t, []fixmath.Fixed{0, f.ScaleUp(1)}, state.steps)
	assert.Equal(t, 2*testGeom.Pixels(), state.calls)
	assert.Len(t, buf.loads, 2)
	assert.Zero(t, buf.rowOps)
	assert.Equal(t, []time.Duration{80 * time.Millisecond, 80 * time.Millisecond}, sl.delays)
	assert.Equal(t, 2, span.Frames())
}

func TestRenderStacksPlanes(t *testing.T) {
	live := display.NewLive(testGeom)
	d, err := NewDriver(live, WithSleep(func(time.Duration) {}))
	require.NoError(t, err)

	levelAt := func(x, y int) int { return (x+2*y)%testGeom.Planes + 1 }
	fn := BrightnessFunc[struct{}](func(x, y int, _ fixmath.Fixed, _ *struct{}) int {
		return levelAt(x, y)
	})
	require.NoError(t, Render(d, Span{Start: 0, Stop: 1, Step: 1}, fn, &struct{}{}))

	frame := display.NewFrame(testGeom)
	require.Equal(t, uint64(1), live.Snapshot(frame))
	for y := 0; y < testGeom.Rows; y++ {
		for x := 0; x < testGeom.Cols; x++ {
			level := levelAt(x, y)
			for p := 0; p < testGeom.Planes; p++ {
				assert.Equal(t, p < level, frame.Bit(p, x, y), "pixel (%d,%d) level %d plane %d", x, y, level, p+1)
			}
		}
	}

	levels, err := frame.Levels()
	require.NoError(t, err)
	for i, l := range levels {
		assert.Equal(t, levelAt(i%testGeom.Cols, i/testGeom.Cols), int(l))
	}
}

func TestRenderZeroStep(t *testing.T) {
	d, buf, sl := newTestDriver(t)
	var state evalLog
	err := Render(d, Span{Start: 0, Stop: 100, Step: 0}, constantLevel(1), &state)
	assert.ErrorIs(t, err, ErrZeroStep)
	assert.Zero(t, state.calls)
	assert.Empty(t, buf.loads)
	assert.Empty(t, sl.delays)
}

func TestRenderLevelOutOfRange(t *testing.T) {
	for _, bad := range []int{0, -1, testGeom.Planes + 1} {
		d, buf, _ := newTestDriver(t)
		var state evalLog
		err := Render(d, Span{Start: 0, Stop: 10, Step: 1}, constantLevel(bad), &state)

		var levelErr *LevelError
		require.ErrorAs(t, err, &levelErr)
		assert.Equal(t, bad, levelErr.Level)
		assert.Equal(t, 0, levelErr.X)
		assert.Equal(t, 0, levelErr.Y)
		assert.Equal(t, testGeom.Planes, levelErr.Planes)
		assert.Empty(t, buf.loads, "failed frame must not reach the display")
	}
}

func TestRenderLevelErrorKeepsEarlierFrames(t *testing.T) {
	d, buf, _ := newTestDriver(t)
	fn := BrightnessFunc[struct{}](func(x, y int, t fixmath.Fixed, _ *struct{}) int {
		if t == 1 && y == 2 {
			return 9
		}
		return 2
	})
	err := Render(d, Span{Start: 0, Stop: 5, Step: 1}, fn, &struct{}{})

	var levelErr *LevelError
	require.ErrorAs(t, err, &levelErr)
	assert.Equal(t, fixmath.Fixed(1), levelErr.T)
	assert.Equal(t, 2, levelErr.Y)
	assert.Len(t, buf.loads, 1)
	assert.Contains(t, err.Error(), "level 9")
}

func TestRenderNegativeStep(t *testing.T) {
	f := fixmath.Low
	d, buf, _ := newTestDriver(t)
	var state evalLog
	span := Span{Start: f.ScaleUp(2), Stop: 0, Step: -f.ScaleUp(1)}
	require.NoError(t, Render(d, span, constantLevel(3), &state))

	assert.Equal(t, []fixmath.Fixed{f.ScaleUp(2), f.ScaleUp(1)}, state.steps)
	assert.Len(t, buf.loads, 2)
	assert.Equal(t, 2, span.Frames())
}

func TestRenderStopsBeforeOverflow(t *testing.T) {
	d, buf, _ := newTestDriver(t)
	var state evalLog
	require.NoError(t, Render(d, Span{Start: 32000, Stop: 32767, Step: 1000}, constantLevel(1), &state))
	assert.Equal(t, []fixmath.Fixed{32000}, state.steps)
	assert.Len(t, buf.loads, 1)
}

func TestRenderSingleBuffered(t *testing.T) {
	d, buf, _ := newTestDriver(t, WithDoubleBuffering(false))
	assert.False(t, d.DoubleBuffered())

	var state evalLog
	require.NoError(t, Render(d, Span{Start: 0, Stop: 3, Step: 1}, constantLevel(2), &state))
	assert.Empty(t, buf.loads)
	assert.Equal(t, 3*testGeom.Rows, buf.rowOps)
	assert.Equal(t, 3, buf.commits)
}

func TestRenderSingleBufferedAfterAbort(t *testing.T) {
	live := display.NewLive(testGeom)
	d, err := NewDriver(live, WithSleep(func(time.Duration) {}), WithDoubleBuffering(false))
	require.NoError(t, err)

	var complete []bool
	live.Subscribe(display.ObserverFunc(func(frame *display.Frame, _ uint64) {
		levels, err := frame.Levels()
		require.NoError(t, err)
		whole := true
		for _, l := range levels {
			whole = whole && l == 3
		}
		complete = append(complete, whole)
	}))

	// dies on row 2 of the first frame after two rows reached the display
	bad := BrightnessFunc[struct{}](func(x, y int, _ fixmath.Fixed, _ *struct{}) int {
		if y == 2 {
			return 0
		}
		return 1
	})
	var levelErr *LevelError
	require.ErrorAs(t, Render(d, Span{Start: 0, Stop: 1, Step: 1}, bad, &struct{}{}), &levelErr)
	assert.Zero(t, live.Seq())

	var state evalLog
	require.NoError(t, Render(d, Span{Start: 0, Stop: 1, Step: 1}, constantLevel(3), &state))
	assert.Equal(t, uint64(1), live.Seq())
	assert.Equal(t, []bool{true}, complete, "observers see the finished frame only")
}

func TestNewDriverRejectsEmptyGeometry(t *testing.T) {
	_, err := NewDriver(&countingBuffer{geom: display.Geometry{Rows: 0, Cols: 8, Planes: 3}})
	assert.ErrorIs(t, err, display.ErrGeometry)
}

func TestSpanFrames(t *testing.T) {
	tests := []struct {
		name string
		span Span
		want int
	}{
		{"exact", Span{Start: 0, Stop: 10, Step: 2}, 5},
		{"partial last step", Span{Start: 0, Stop: 11, Step: 2}, 6},
		{"empty", Span{Start: 5, Stop: 5, Step: 1}, 0},
		{"wrong direction", Span{Start: 0, Stop: 10, Step: -1}, 0},
		{"downward", Span{Start: 10, Stop: 0, Step: -3}, 4},
		{"zero step", Span{Start: 0, Stop: 10}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.span.Frames())
		})
	}
}

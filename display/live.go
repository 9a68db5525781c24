package display

import (
	"sync"
	"sync/atomic"
)

// Buffer is the live frame buffer a display scans
type Buffer interface {
	// Load replaces the whole frame in one bulk copy
	Load(src *Frame)

	// LoadRow copies row y of every plane, used without double buffering
	LoadRow(y int, src *Frame)

	// Commit marks the rows loaded since the last frame as a complete frame
	Commit()

	Geometry() Geometry
}

// Observer is notified after each full frame load
// It runs on the writer's goroutine and must not retain frame
type Observer interface {
	FrameLoaded(frame *Frame, seq uint64)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(frame *Frame, seq uint64)

func (fn ObserverFunc) FrameLoaded(frame *Frame, seq uint64) { fn(frame, seq) }

// Live is a Buffer safe for one writer and any number of scanning readers
// Readers never see a partially copied Load
type Live struct {
	mu    sync.RWMutex
	frame *Frame
	seq   atomic.Uint64

	obsMu     sync.Mutex
	observers []Observer
}

// NewLive allocates a dark live buffer
func NewLive(g Geometry) *Live {
	return &Live{frame: NewFrame(g)}
}

func (l *Live) Geometry() Geometry { return l.frame.geom }

// Load copies src under the write lock, then notifies observers
func (l *Live) Load(src *Frame) {
	l.mu.Lock()
	l.frame.CopyFrom(src)
	seq := l.seq.Add(1)
	l.mu.Unlock()

	l.notify(src, seq)
}

// LoadRow copies a single row of every plane; readers may observe a mix of
// old and new rows until Commit
func (l *Live) LoadRow(y int, src *Frame) {
	l.mu.Lock()
	for p := 0; p < l.frame.geom.Planes; p++ {
		copy(l.frame.Row(p, y), src.Row(p, y))
	}
	l.mu.Unlock()
}

// Commit counts the rows written by LoadRow as one frame and notifies
// observers with the live frame. Only the writer calls it, so the frame
// is stable while observers run
func (l *Live) Commit() {
	seq := l.seq.Add(1)
	l.notify(l.frame, seq)
}

// Snapshot copies the current frame into dst and returns its sequence
func (l *Live) Snapshot(dst *Frame) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	dst.CopyFrom(l.frame)
	return l.seq.Load()
}

// Seq counts completed frame loads
func (l *Live) Seq() uint64 { return l.seq.Load() }

// Subscribe registers an observer for subsequent loads
func (l *Live) Subscribe(o Observer) {
	l.obsMu.Lock()
	l.observers = append(l.observers, o)
	l.obsMu.Unlock()
}

func (l *Live) notify(frame *Frame, seq uint64) {
	l.obsMu.Lock()
	observers := l.observers
	l.obsMu.Unlock()

	for _, o := range observers {
		o.FrameLoaded(frame, seq)
	}
}

package render

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/fixmatrix/display"
	"github.com/lixenwraith/fixmatrix/logging"
	"github.com/lixenwraith/fixmatrix/palette"
)

// CellWidth is the number of terminal columns per LED, two keeps pixels roughly square
const CellWidth = 2

// Scanner mirrors a live bitplane buffer onto a terminal, the way the
// matrix refresh interrupt scans LEDs out of display memory
type Scanner struct {
	screen tcell.Screen
	live   *display.Live
	styles []tcell.Style // one per level, 0 is unlit

	mu    sync.Mutex // serializes painting between ticker and resize
	frame *display.Frame
	seq   uint64
	drawn bool

	caption atomic.Pointer[string]
}

// NewScanner paints live onto screen using one palette entry per level
func NewScanner(screen tcell.Screen, live *display.Live, pal palette.Palette) *Scanner {
	styles := make([]tcell.Style, len(pal))
	for i := range pal {
		r, g, b := pal.RGB(i)
		styles[i] = tcell.StyleDefault.Background(tcell.NewRGBColor(int32(r), int32(g), int32(b)))
	}
	return &Scanner{
		screen: screen,
		live:   live,
		styles: styles,
		frame:  display.NewFrame(live.Geometry()),
	}
}

// SetCaption replaces the status line under the matrix
func (s *Scanner) SetCaption(text string) {
	s.caption.Store(&text)
}

// Style returns the cell style used for a level
func (s *Scanner) Style(level int) tcell.Style {
	return s.styles[min(max(level, 0), len(s.styles)-1)]
}

// Draw repaints when the live buffer has advanced since the last paint,
// or unconditionally with force. Reports whether it painted
func (s *Scanner) Draw(force bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.drawn && !force && s.live.Seq() == s.seq {
		return false
	}
	seq := s.live.Snapshot(s.frame)
	levels, err := s.frame.Levels()
	if err != nil {
		logging.Logger().Error("scanner decode failed", "seq", seq, "error", err)
		return false
	}
	s.seq = seq
	s.drawn = true

	g := s.frame.Geometry()
	for y := 0; y < g.Rows; y++ {
		for x := 0; x < g.Cols; x++ {
			st := s.Style(int(levels[y*g.Cols+x]))
			for c := 0; c < CellWidth; c++ {
				s.screen.SetContent(x*CellWidth+c, y, ' ', nil, st)
			}
		}
	}
	s.drawCaption(g.Rows, g.Cols*CellWidth)

	s.screen.Show()
	return true
}

func (s *Scanner) drawCaption(y, width int) {
	text := ""
	if p := s.caption.Load(); p != nil {
		text = *p
	}
	width = max(width, len(text))
	x := 0
	for _, r := range text {
		s.screen.SetContent(x, y, r, nil, tcell.StyleDefault)
		x++
	}
	for ; x < width; x++ {
		s.screen.SetContent(x, y, ' ', nil, tcell.StyleDefault)
	}
}

// Resize resynchronizes the terminal and repaints everything
func (s *Scanner) Resize() {
	s.screen.Sync()
	s.Draw(true)
}

// Run repaints on every tick until done is closed
func (s *Scanner) Run(interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.Draw(false)
		}
	}
}

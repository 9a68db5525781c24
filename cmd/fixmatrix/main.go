package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/fixmatrix/animation"
	"github.com/lixenwraith/fixmatrix/audio"
	"github.com/lixenwraith/fixmatrix/config"
	"github.com/lixenwraith/fixmatrix/display"
	"github.com/lixenwraith/fixmatrix/export"
	"github.com/lixenwraith/fixmatrix/logging"
	"github.com/lixenwraith/fixmatrix/palette"
	"github.com/lixenwraith/fixmatrix/pattern"
	"github.com/lixenwraith/fixmatrix/render"
)

// scanInterval is the terminal refresh period, independent of the animation delay
const scanInterval = 16 * time.Millisecond

type options struct {
	configPath   string
	modes        string
	loop         bool
	rows         int
	cols         int
	planes       int
	precision    string
	target       string
	singleBuffer bool
	gif          string
	audio        bool
	headless     bool
	debug        bool
	color        string

	set map[string]bool // flags given on the command line
}

func parseFlags(args []string) (*options, error) {
	o := &options{set: make(map[string]bool)}
	fs := flag.NewFlagSet("fixmatrix", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "TOML config file")
	fs.StringVar(&o.modes, "mode", "", "comma-separated modes: "+strings.Join(animation.ModeNames(), ", "))
	fs.BoolVar(&o.loop, "loop", false, "cycle the modes forever")
	fs.IntVar(&o.rows, "rows", 0, "display rows")
	fs.IntVar(&o.cols, "cols", 0, "display columns")
	fs.IntVar(&o.planes, "planes", 0, "bitplanes, brightness levels per LED")
	fs.StringVar(&o.precision, "precision", "", "fixed-point precision: auto, low, normal")
	fs.StringVar(&o.target, "target", "", "timing profile: simulated, embedded")
	fs.BoolVar(&o.singleBuffer, "single-buffer", false, "write rows straight to the display")
	fs.StringVar(&o.gif, "gif", "", "record an animated GIF to this path")
	fs.BoolVar(&o.audio, "audio", false, "hum along with the display brightness")
	fs.BoolVar(&o.headless, "headless", false, "render without a terminal")
	fs.BoolVar(&o.debug, "debug", false, "write a debug log")
	fs.StringVar(&o.color, "color", "amber", "LED colour: red, amber, green, white or #rrggbb")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

// apply overrides config values with the flags that were given
func (o *options) apply(cfg *config.Config) error {
	if o.set["mode"] {
		cfg.Modes = nil
		for _, m := range strings.Split(o.modes, ",") {
			if m = strings.TrimSpace(m); m != "" {
				cfg.Modes = append(cfg.Modes, m)
			}
		}
	}
	if o.set["loop"] {
		cfg.Loop = o.loop
	}
	if o.set["rows"] {
		cfg.Display.Rows = o.rows
	}
	if o.set["cols"] {
		cfg.Display.Cols = o.cols
	}
	if o.set["planes"] {
		cfg.Display.Planes = o.planes
	}
	if o.set["precision"] {
		cfg.Display.Precision = o.precision
	}
	if o.set["target"] {
		cfg.Target = o.target
	}
	if o.set["single-buffer"] {
		cfg.Display.DoubleBuffering = !o.singleBuffer
	}
	if o.set["gif"] {
		cfg.Record.GIF = o.gif
	}
	if o.set["audio"] {
		cfg.Audio.Enabled = o.audio
	}
	if o.set["debug"] {
		cfg.Log.Debug = o.debug
	}
	return cfg.Validate()
}

func colors(name string, levels int) (palette.Palette, error) {
	if strings.HasPrefix(name, "#") {
		return palette.FromHex(name, levels)
	}
	return palette.Preset(name, levels)
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "fixmatrix: %v\n", err)
		os.Exit(1)
	}
}

func run(opts *options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if err := opts.apply(cfg); err != nil {
		return err
	}

	logFile, err := logging.Setup(cfg.Log.Debug, cfg.Log.Dir)
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}
	log := logging.Logger()

	g := cfg.Geometry()
	f := cfg.Format()
	log.Debug("config resolved", "geometry", g.String(), "precision", f.Name,
		"target", cfg.Target, "modes", cfg.Modes, "loop", cfg.Loop)

	pal, err := colors(opts.color, g.Planes)
	if err != nil {
		return err
	}

	live := display.NewLive(g)
	driver, err := pattern.NewDriver(live, pattern.WithDoubleBuffering(cfg.Display.DoubleBuffering))
	if err != nil {
		return err
	}
	runner, err := animation.NewRunner(driver, f, cfg.TargetProfile())
	if err != nil {
		return err
	}

	if cfg.Record.GIF != "" {
		out, err := os.Create(cfg.Record.GIF)
		if err != nil {
			return fmt.Errorf("record: %w", err)
		}
		rec := export.NewRecorder(out, pal, cfg.Record.Scale)
		live.Subscribe(rec)
		defer func() {
			if err := rec.Close(); err != nil {
				log.Warn("gif not written", "path", cfg.Record.GIF, "error", err)
			}
			out.Close()
		}()
	}

	if cfg.Audio.Enabled {
		hum := audio.NewHum(audio.SampleRate, f)
		player := audio.NewPlayer(hum, cfg.Audio.Volume)
		if err := player.Initialize(); err != nil {
			// Non-fatal, the display runs without sound
			log.Warn("audio unavailable", "error", err)
		} else {
			live.Subscribe(hum)
			defer player.Cleanup()
		}
	}

	if opts.headless {
		return runHeadless(runner, live, cfg)
	}
	return runTerminal(runner, live, cfg, pal)
}

func runHeadless(runner *animation.Runner, live *display.Live, cfg *config.Config) error {
	start := time.Now()
	err := animation.RunModes(runner, cfg.Modes, cfg.Loop)
	fmt.Printf("%d frames of %s in %v\n", live.Seq(), live.Geometry(), time.Since(start).Round(time.Millisecond))
	return err
}

// guard restores the terminal before reporting a crash, deferred by every goroutine touching the screen
func guard(screen tcell.Screen, what string) {
	if r := recover(); r != nil {
		screen.Fini()
		fmt.Fprintf(os.Stderr, "\n\x1b[31mFIXMATRIX %s CRASHED: %v\x1b[0m\n", what, r)
		fmt.Fprintf(os.Stderr, "Stack Trace:\n%s\n", debug.Stack())
		os.Exit(1)
	}
}

func runTerminal(runner *animation.Runner, live *display.Live, cfg *config.Config, pal palette.Palette) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	defer guard(screen, "MAIN")

	scanner := render.NewScanner(screen, live, pal)
	label := fmt.Sprintf("%s %s %s", live.Geometry(), runner.Format(), runner.Target())
	scanner.SetCaption(label + "  q quits")
	live.Subscribe(display.ObserverFunc(func(_ *display.Frame, seq uint64) {
		scanner.SetCaption(fmt.Sprintf("%s  frame %d  q quits", label, seq))
	}))

	done := make(chan struct{})
	defer close(done)
	go func() {
		defer guard(screen, "SCANNER")
		scanner.Run(scanInterval, done)
	}()

	quit := make(chan struct{})
	go func() {
		defer guard(screen, "EVENT POLLER")
		for {
			switch ev := screen.PollEvent().(type) {
			case nil:
				// screen finalized
				return
			case *tcell.EventResize:
				scanner.Resize()
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
					close(quit)
					return
				}
			}
		}
	}()

	finished := make(chan error, 1)
	go func() {
		defer guard(screen, "RENDER")
		finished <- animation.RunModes(runner, cfg.Modes, cfg.Loop)
	}()

	select {
	case <-quit:
		// the current mode runs its range to the end, nothing waits for it
		runner.Stop()
		return nil
	case err := <-finished:
		if err != nil {
			return err
		}
	}

	scanner.SetCaption(label + "  done, q quits")
	scanner.Draw(true)
	<-quit
	return nil
}

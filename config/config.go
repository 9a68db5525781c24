// Package config loads the fixmatrix settings from TOML and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/lixenwraith/fixmatrix/animation"
	"github.com/lixenwraith/fixmatrix/display"
	"github.com/lixenwraith/fixmatrix/fixmath"
)

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("config: invalid")

// PrecisionAuto picks the format from the display size
const PrecisionAuto = "auto"

// Config is the complete run configuration
type Config struct {
	Target string   `toml:"target"`
	Modes  []string `toml:"modes"`
	Loop   bool     `toml:"loop"`

	Display DisplayConfig `toml:"display"`
	Record  RecordConfig  `toml:"record"`
	Audio   AudioConfig   `toml:"audio"`
	Log     LogConfig     `toml:"log"`
}

// DisplayConfig describes the simulated LED matrix
type DisplayConfig struct {
	Rows            int    `toml:"rows"`
	Cols            int    `toml:"cols"`
	Planes          int    `toml:"planes"`
	Precision       string `toml:"precision"`
	DoubleBuffering bool   `toml:"double_buffering"`
}

// RecordConfig enables the GIF recorder when GIF is set
type RecordConfig struct {
	GIF   string `toml:"gif"`
	Scale int    `toml:"scale"`
}

type AudioConfig struct {
	Enabled bool    `toml:"enabled"`
	Volume  float64 `toml:"volume"` // 0.0-1.0
}

type LogConfig struct {
	Debug bool   `toml:"debug"`
	Dir   string `toml:"dir"`
}

// Default returns the 16x16, three-plane panel of the firmware build
func Default() *Config {
	return &Config{
		Target: animation.Simulated.String(),
		Modes:  animation.ModeNames(),
		Display: DisplayConfig{
			Rows:            16,
			Cols:            16,
			Planes:          3,
			Precision:       PrecisionAuto,
			DoubleBuffering: true,
		},
		Record: RecordConfig{Scale: 8},
		Audio:  AudioConfig{Volume: 0.2},
		Log:    LogConfig{Dir: "logs"},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("%w: unknown keys %s", ErrInvalid, strings.Join(keys, ", "))
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from FIXMATRIX_* variables, malformed values are ignored
func (c *Config) ApplyEnv() {
	envInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	envInt("FIXMATRIX_ROWS", &c.Display.Rows)
	envInt("FIXMATRIX_COLS", &c.Display.Cols)
	envInt("FIXMATRIX_PLANES", &c.Display.Planes)

	if v := os.Getenv("FIXMATRIX_PRECISION"); v != "" {
		c.Display.Precision = strings.ToLower(v)
	}
	if v := os.Getenv("FIXMATRIX_TARGET"); v != "" {
		c.Target = strings.ToLower(v)
	}

	if v := os.Getenv("FIXMATRIX_AUDIO_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Audio.Enabled = b
		}
	}
	// 0-100 converted to 0.0-1.0
	if v := os.Getenv("FIXMATRIX_VOLUME"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Audio.Volume = min(max(float64(n)/100, 0), 1)
		}
	}
}

// Validate checks names, geometry and the precision limits
func (c *Config) Validate() error {
	if _, err := animation.ParseTarget(c.Target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	for _, name := range c.Modes {
		if _, ok := animation.Lookup(name); !ok {
			return fmt.Errorf("%w: unknown mode %q", ErrInvalid, name)
		}
	}

	g := c.Geometry()
	if err := g.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if g.Planes > display.MaxPlanes {
		return fmt.Errorf("%w: %d planes, at most %d", ErrInvalid, g.Planes, display.MaxPlanes)
	}

	switch c.Display.Precision {
	case PrecisionAuto, fixmath.Normal.Name:
	case fixmath.Low.Name:
		if g.Rows > fixmath.LowPrecisionLimit || g.Cols > fixmath.LowPrecisionLimit {
			return fmt.Errorf("%w: low precision supports up to %dx%d, got %s",
				ErrInvalid, fixmath.LowPrecisionLimit, fixmath.LowPrecisionLimit, g)
		}
	default:
		return fmt.Errorf("%w: unknown precision %q", ErrInvalid, c.Display.Precision)
	}
	if err := animation.CheckGeometry(c.Format(), g); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if c.Record.GIF != "" && c.Record.Scale < 1 {
		return fmt.Errorf("%w: record scale %d", ErrInvalid, c.Record.Scale)
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		return fmt.Errorf("%w: volume %.2f outside [0,1]", ErrInvalid, c.Audio.Volume)
	}
	return nil
}

func (c *Config) Geometry() display.Geometry {
	return display.Geometry{Rows: c.Display.Rows, Cols: c.Display.Cols, Planes: c.Display.Planes}
}

// Format resolves the precision name, auto follows the display size
func (c *Config) Format() *fixmath.Format {
	if f, ok := fixmath.ByName(c.Display.Precision); ok {
		return f
	}
	return fixmath.ForGeometry(c.Display.Rows, c.Display.Cols)
}

// TargetProfile is the parsed Target, Simulated when unknown
func (c *Config) TargetProfile() animation.Target {
	t, err := animation.ParseTarget(c.Target)
	if err != nil {
		return animation.Simulated
	}
	return t
}

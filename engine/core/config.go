package core

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// DefaultConfigFile is looked up in the working directory when no
// explicit path is given on the command line.
const DefaultConfigFile = "bricklayer.toml"

type LogConfig struct {
	Level  string `toml:"level"`
	Prefix string `toml:"prefix"`
}

// GridConfig holds the nudge distances in LDraw units for the three grid
// modes. They must be strictly ascending.
type GridConfig struct {
	Fine   float32 `toml:"fine"`
	Medium float32 `toml:"medium"`
	Coarse float32 `toml:"coarse"`
}

type LibraryConfig struct {
	Path  string `toml:"path"`
	Watch bool   `toml:"watch"`
}

type SynthesisConfig struct {
	// Classes names a TOML file whose entries replace or extend the
	// built-in synthesis class table.
	Classes string `toml:"classes"`
}

type ColorConfig struct {
	// LDConfig names an LDConfig.ldr whose !COLOUR lines extend the
	// built-in palette.
	LDConfig string `toml:"ldconfig"`
}

type Config struct {
	Log       LogConfig       `toml:"log"`
	Grid      GridConfig      `toml:"grid"`
	Library   LibraryConfig   `toml:"library"`
	Synthesis SynthesisConfig `toml:"synthesis"`
	Color     ColorConfig     `toml:"color"`
}

func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Prefix: "Bricklayer 🧱 ",
		},
		Grid: GridConfig{
			Fine:   1,
			Medium: 10,
			Coarse: 20,
		},
	}
}

// LoadConfig overlays the TOML file at path onto DefaultConfig. Unknown
// keys are rejected so typos do not go unnoticed.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.Log.Level)
	}
	g := c.Grid
	if g.Fine <= 0 || g.Fine >= g.Medium || g.Medium >= g.Coarse {
		return fmt.Errorf("%w: grid spacing must satisfy 0 < fine < medium < coarse (got %g, %g, %g)",
			ErrInvalidConfig, g.Fine, g.Medium, g.Coarse)
	}
	if c.Library.Watch && c.Library.Path == "" {
		return fmt.Errorf("%w: library.watch needs library.path", ErrInvalidConfig)
	}
	return nil
}

// ApplyLogging pushes the log section onto the process-wide logger.
func (c *Config) ApplyLogging() {
	level, err := ParseLogLevel(c.Log.Level)
	if err == nil {
		SetLogLevel(level)
	}
	if c.Log.Prefix != "" {
		SetLogPrefix(c.Log.Prefix)
	}
}

// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"

	"github.com/user/keythumb/pkg/adapters/imagecodec"
	"github.com/user/keythumb/pkg/adapters/pixconv"
	"github.com/user/keythumb/pkg/adapters/smartdecoder"
	"github.com/user/keythumb/pkg/adapters/smartencoder"
	"github.com/user/keythumb/pkg/orchestrator"
	"github.com/user/keythumb/pkg/pipeline"
	"github.com/user/keythumb/pkg/ports"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("config: invalid")

// Config represents the full configuration for keythumb.
type Config struct {
	// Input/Output
	Input    string `yaml:"input"`
	Output   string `yaml:"output"`
	Interval int    `yaml:"interval"`

	// Encoding
	Format  string `yaml:"format"`
	Width   int    `yaml:"width"`
	Quality int    `yaml:"quality"`
	Lossy   bool   `yaml:"lossy"`
	Kernel  string `yaml:"kernel"`

	// Backends
	Backend         string `yaml:"backend"`
	FFmpegPath      string `yaml:"ffmpeg_path"`
	DisableFallback bool   `yaml:"disable_fallback"`

	// Outputs besides thumbnails
	ContactSheet ContactSheetConfig `yaml:"contact_sheet"`
	Summary      string             `yaml:"summary"`

	// Behaviour
	ContinueOnError bool   `yaml:"continue_on_error"`
	LogLevel        string `yaml:"log_level"`
	Quiet           bool   `yaml:"quiet"`
	DryRun          bool   `yaml:"dry_run"`
}

// ContactSheetConfig represents the optional contact sheet.
type ContactSheetConfig struct {
	Path      string      `yaml:"path"`
	Columns   int         `yaml:"columns"`
	TileWidth int         `yaml:"tile_width"`
	Gap       int         `yaml:"gap"`
	Padding   int         `yaml:"padding"`
	Labels    bool        `yaml:"labels"`
	FontPath  string      `yaml:"font_path"`
	FontSize  float64     `yaml:"font_size"`
	Workers   int         `yaml:"workers"`
	Theme     ThemeConfig `yaml:"theme"`
}

// ThemeConfig represents contact sheet colors as hex strings.
type ThemeConfig struct {
	BackgroundColor string `yaml:"background_color"`
	LabelColor      string `yaml:"label_color"`
	LabelBgColor    string `yaml:"label_bg_color"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	sheet := pipeline.DefaultContactSheetInput()
	return Config{
		Output:   "thumb-%04d.png",
		Interval: 10,
		Format:   string(ports.FormatPNG),
		Quality:  imagecodec.DefaultQuality,
		Kernel:   string(pixconv.KernelBilinear),
		Backend:  string(smartdecoder.BackendAuto),

		ContactSheet: ContactSheetConfig{
			Columns:   sheet.Columns,
			TileWidth: sheet.TileWidth,
			Gap:       sheet.Gap,
			Padding:   sheet.Padding,
			Labels:    sheet.ShowLabels,
			FontSize:  sheet.FontSize,
			Workers:   4,
			Theme: ThemeConfig{
				BackgroundColor: "#1e1e1e",
				LabelColor:      "#ffffff",
				LabelBgColor:    "#000000a0",
			},
		},

		LogLevel: ports.LevelInfo.String(),
	}
}

// LoadFromFile loads configuration from a YAML file over the defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks values that the orchestrator does not check itself.
func (c Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive, got %d", ErrInvalid, c.Interval)
	}
	if _, err := ports.ParseImageFormat(c.Format); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := smartdecoder.ParseBackend(c.Backend); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	switch pixconv.Kernel(c.Kernel) {
	case "", pixconv.KernelNearest, pixconv.KernelBilinear, pixconv.KernelCatmullRom:
	default:
		return fmt.Errorf("%w: unknown kernel %q", ErrInvalid, c.Kernel)
	}
	if c.Quality < 0 || c.Quality > 100 {
		return fmt.Errorf("%w: quality must be within 0-100, got %d", ErrInvalid, c.Quality)
	}
	if _, err := ports.ParseLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.ContactSheet.Path != "" && c.ContactSheet.Columns <= 0 {
		return fmt.Errorf("%w: contact sheet needs at least one column", ErrInvalid)
	}
	return nil
}

// Level returns the effective log level. Quiet overrides LogLevel.
func (c Config) Level() ports.LogLevel {
	if c.Quiet {
		return ports.LevelQuiet
	}
	level, _ := ports.ParseLogLevel(c.LogLevel)
	return level
}

// ParseColor parses a #rgb, #rrggbb or #rrggbbaa hex string to color.Color.
// Malformed strings yield black.
func ParseColor(hex string) color.Color {
	if len(hex) == 0 {
		return color.Black
	}

	if hex[0] == '#' {
		hex = hex[1:]
	}

	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6, 8:
	default:
		return color.Black
	}

	c := color.NRGBA{R: hexByte(hex[0:2]), G: hexByte(hex[2:4]), B: hexByte(hex[4:6]), A: 255}
	if len(hex) == 8 {
		c.A = hexByte(hex[6:8])
	}
	return c
}

func hexByte(s string) uint8 {
	return hexValue(s[0])<<4 | hexValue(s[1])
}

func hexValue(c byte) uint8 {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
func (c Config) ToOrchestratorConfig() orchestrator.Config {
	format, _ := ports.ParseImageFormat(c.Format)
	sheet := c.ContactSheet
	return orchestrator.Config{
		InputPath:       c.Input,
		IntervalSeconds: c.Interval,

		OutputTemplate: c.Output,
		Format:         format,
		Width:          c.Width,
		Backend:        c.Backend,

		ContinueOnEncodeError: c.ContinueOnError,

		ContactSheetPath: sheet.Path,
		ContactSheet: pipeline.ContactSheetInput{
			Columns:    sheet.Columns,
			TileWidth:  sheet.TileWidth,
			Gap:        sheet.Gap,
			Padding:    sheet.Padding,
			ShowLabels: sheet.Labels,
			FontPath:   sheet.FontPath,
			FontSize:   sheet.FontSize,
			Theme: pipeline.SheetTheme{
				BackgroundColor: ParseColor(sheet.Theme.BackgroundColor),
				LabelColor:      ParseColor(sheet.Theme.LabelColor),
				LabelBgColor:    ParseColor(sheet.Theme.LabelBgColor),
			},
		},

		SummaryPath: c.Summary,
		DryRun:      c.DryRun,
	}
}

// DecoderOptions converts Config to smartdecoder.Options.
func (c Config) DecoderOptions(log ports.Logger) smartdecoder.Options {
	backend, _ := smartdecoder.ParseBackend(c.Backend)
	return smartdecoder.Options{Backend: backend, FFmpegPath: c.FFmpegPath, Logger: log}
}

// EncoderOptions converts Config to smartencoder.Options.
func (c Config) EncoderOptions(log ports.Logger) smartencoder.Options {
	backend, _ := smartdecoder.ParseBackend(c.Backend)
	return smartencoder.Options{
		Backend:         smartencoder.Backend(backend),
		DisableFallback: c.DisableFallback,
		Codec:           imagecodec.Options{Quality: c.Quality, Lossy: c.Lossy},
		Kernel:          pixconv.Kernel(c.Kernel),
		Logger:          log,
	}
}

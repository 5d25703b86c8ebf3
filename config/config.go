// Package config loads figharvest settings from a YAML file, the
// environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/figharvest/figharvest/caption"
	"github.com/figharvest/figharvest/colorfix"
	"github.com/figharvest/figharvest/layout"
	"github.com/figharvest/figharvest/localizer"
	"github.com/figharvest/figharvest/reconstruct"
)

// Config holds all settings of an extraction run.
type Config struct {
	OutputDir      string            `yaml:"output_dir"`
	MaxFigures     int               `yaml:"max_figures"`
	KeepUnselected bool              `yaml:"keep_unselected"`
	RenderDPI      float64           `yaml:"render_dpi"`
	Localizer      LocalizerConfig   `yaml:"localizer"`
	Reconstruct    ReconstructConfig `yaml:"reconstruct"`
	Caption        CaptionConfig     `yaml:"caption"`
	Layout         LayoutConfig      `yaml:"layout"`
	ColorFix       ColorFixConfig    `yaml:"colorfix"`
	Appendix       AppendixConfig    `yaml:"appendix"`
	OCR            OCRConfig         `yaml:"ocr"`
	Log            LogConfig         `yaml:"log"`
}

// LocalizerConfig configures the pdffigures2 subprocess.
type LocalizerConfig struct {
	Enabled bool          `yaml:"enabled"`
	Java    string        `yaml:"java"`
	Jar     string        `yaml:"jar"`
	Timeout time.Duration `yaml:"timeout"`
	DPI     int           `yaml:"dpi"`
	WorkDir string        `yaml:"work_dir"` // temporary directory when empty
}

// ReconstructConfig holds the density scan constants.
type ReconstructConfig struct {
	StripeHeight     float64 `yaml:"stripe_height"`
	Threshold        float64 `yaml:"threshold"`
	TextWeight       float64 `yaml:"text_weight"`
	NoiseStripes     int     `yaml:"noise_stripes"`
	NarrowRatio      float64 `yaml:"narrow_ratio"`
	SideMargin       float64 `yaml:"side_margin"`
	EdgeMargin       float64 `yaml:"edge_margin"`
	CaptionClearance float64 `yaml:"caption_clearance"`
	BandSlack        float64 `yaml:"band_slack"`
	MinLineWeight    float64 `yaml:"min_line_weight"`
}

// CaptionConfig holds the raw path caption thresholds.
type CaptionConfig struct {
	MaxGap     float64  `yaml:"max_gap"`
	MinOverlap float64  `yaml:"min_overlap"`
	Keywords   []string `yaml:"keywords"`
}

// LayoutConfig holds the text block grouping tolerances.
type LayoutConfig struct {
	LineTolerance float64 `yaml:"line_tolerance"`
	ParagraphGap  float64 `yaml:"paragraph_gap"`
}

// ColorFixConfig holds the corner sampling thresholds.
type ColorFixConfig struct {
	DarkThreshold  uint8 `yaml:"dark_threshold"`
	LightThreshold uint8 `yaml:"light_threshold"`
	MinCorners     int   `yaml:"min_corners"`
}

// AppendixConfig controls the references/appendix search.
type AppendixConfig struct {
	ScanFraction float64  `yaml:"scan_fraction"`
	PrefixRunes  int      `yaml:"prefix_runes"`
	Markers      []string `yaml:"markers"` // defaults when empty
}

// OCRConfig controls text recovery for pages without a text layer. It only
// has an effect in builds with the ocr tag.
type OCRConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Languages []string `yaml:"languages"`
	DPI       float64  `yaml:"dpi"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	rc := reconstruct.DefaultConfig()
	cc := caption.DefaultConfig()
	fc := colorfix.DefaultConfig()
	bc := layout.DefaultBlockConfig()
	lc := localizer.DefaultConfig()
	return &Config{
		MaxFigures:     6,
		KeepUnselected: true,
		RenderDPI:      300,
		Localizer: LocalizerConfig{
			Enabled: true,
			Java:    lc.Java,
			Timeout: lc.Timeout,
			DPI:     lc.DPI,
		},
		Reconstruct: ReconstructConfig{
			StripeHeight:     rc.StripeHeight,
			Threshold:        rc.Threshold,
			TextWeight:       rc.TextWeight,
			NoiseStripes:     rc.NoiseStripes,
			NarrowRatio:      rc.NarrowRatio,
			SideMargin:       rc.SideMargin,
			EdgeMargin:       rc.EdgeMargin,
			CaptionClearance: rc.CaptionClearance,
			BandSlack:        rc.BandSlack,
			MinLineWeight:    rc.MinLineWeight,
		},
		Caption: CaptionConfig{
			MaxGap:     cc.MaxGap,
			MinOverlap: cc.MinOverlap,
		},
		Layout: LayoutConfig{
			LineTolerance: bc.LineTolerance,
			ParagraphGap:  bc.ParagraphGap,
		},
		ColorFix: ColorFixConfig{
			DarkThreshold:  fc.DarkThreshold,
			LightThreshold: fc.LightThreshold,
			MinCorners:     fc.MinCorners,
		},
		Appendix: AppendixConfig{
			ScanFraction: 0.3,
			PrefixRunes:  500,
		},
		OCR: OCRConfig{
			Languages: []string{"eng"},
			DPI:       200,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration from a YAML file and applies environment
// overrides. An empty path uses the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv loads variables from .env style files into the environment
// without overriding variables that are already set. Missing files are
// ignored.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.MaxFigures < 0 {
		return fmt.Errorf("max_figures must not be negative: %d", c.MaxFigures)
	}
	if c.RenderDPI <= 0 {
		return fmt.Errorf("render_dpi must be positive: %v", c.RenderDPI)
	}
	if c.Localizer.Enabled {
		if c.Localizer.DPI <= 0 {
			return fmt.Errorf("localizer.dpi must be positive: %d", c.Localizer.DPI)
		}
		if c.Localizer.Timeout <= 0 {
			return fmt.Errorf("localizer.timeout must be positive: %s", c.Localizer.Timeout)
		}
	}

	r := c.Reconstruct
	if r.StripeHeight <= 0 {
		return fmt.Errorf("reconstruct.stripe_height must be positive: %v", r.StripeHeight)
	}
	if !unit(r.Threshold) || !unit(r.NarrowRatio) {
		return fmt.Errorf("reconstruct.threshold and narrow_ratio must be in [0,1]")
	}
	if r.TextWeight < 0 || r.NoiseStripes < 0 || r.EdgeMargin < 0 || r.CaptionClearance < 0 || r.MinLineWeight < 0 {
		return fmt.Errorf("reconstruct weights and margins must not be negative")
	}

	if c.Caption.MaxGap <= 0 {
		return fmt.Errorf("caption.max_gap must be positive: %v", c.Caption.MaxGap)
	}
	if !unit(c.Caption.MinOverlap) {
		return fmt.Errorf("caption.min_overlap must be in [0,1]: %v", c.Caption.MinOverlap)
	}

	if c.Layout.LineTolerance <= 0 || c.Layout.ParagraphGap <= 0 {
		return fmt.Errorf("layout.line_tolerance and paragraph_gap must be positive")
	}

	if c.ColorFix.DarkThreshold == 0 {
		return fmt.Errorf("colorfix.dark_threshold must be positive")
	}
	if c.ColorFix.DarkThreshold >= c.ColorFix.LightThreshold {
		return fmt.Errorf("colorfix.dark_threshold must be below light_threshold")
	}
	if c.ColorFix.MinCorners < 1 || c.ColorFix.MinCorners > 4 {
		return fmt.Errorf("colorfix.min_corners must be between 1 and 4: %d", c.ColorFix.MinCorners)
	}

	if c.Appendix.ScanFraction <= 0 || c.Appendix.ScanFraction > 1 {
		return fmt.Errorf("appendix.scan_fraction must be in (0,1]: %v", c.Appendix.ScanFraction)
	}
	if c.Appendix.PrefixRunes <= 0 {
		return fmt.Errorf("appendix.prefix_runes must be positive: %d", c.Appendix.PrefixRunes)
	}

	switch c.Log.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}
	return nil
}

func unit(v float64) bool { return v >= 0 && v <= 1 }

// ReconstructConfig converts the settings for the reconstruct package.
func (c *Config) ReconstructConfig() reconstruct.Config {
	r := c.Reconstruct
	return reconstruct.Config{
		StripeHeight:     r.StripeHeight,
		Threshold:        r.Threshold,
		TextWeight:       r.TextWeight,
		NoiseStripes:     r.NoiseStripes,
		NarrowRatio:      r.NarrowRatio,
		SideMargin:       r.SideMargin,
		EdgeMargin:       r.EdgeMargin,
		CaptionClearance: r.CaptionClearance,
		BandSlack:        r.BandSlack,
		MinLineWeight:    r.MinLineWeight,
	}
}

// CaptionConfig converts the settings for the caption package.
func (c *Config) CaptionConfig() caption.Config {
	return caption.Config{
		MaxGap:     c.Caption.MaxGap,
		MinOverlap: c.Caption.MinOverlap,
		Keywords:   c.Caption.Keywords,
	}
}

// BlockConfig converts the settings for the layout package.
func (c *Config) BlockConfig() layout.BlockConfig {
	bc := layout.DefaultBlockConfig()
	bc.LineTolerance = c.Layout.LineTolerance
	bc.ParagraphGap = c.Layout.ParagraphGap
	return bc
}

// ColorFixConfig converts the settings for the colorfix package.
func (c *Config) ColorFixConfig() colorfix.Config {
	def := colorfix.DefaultConfig()
	return colorfix.Config{
		DarkThreshold:  c.ColorFix.DarkThreshold,
		LightThreshold: c.ColorFix.LightThreshold,
		MinCorners:     c.ColorFix.MinCorners,
		MaxPatch:       def.MaxPatch,
	}
}

// LocalizerConfig converts the settings for the localizer package.
func (c *Config) LocalizerConfig() localizer.Config {
	return localizer.Config{
		Java:    c.Localizer.Java,
		Jar:     c.Localizer.Jar,
		DPI:     c.Localizer.DPI,
		Timeout: c.Localizer.Timeout,
	}
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("FIGHARVEST_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("FIGHARVEST_MAX_FIGURES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FIGHARVEST_MAX_FIGURES: %w", err)
		}
		cfg.MaxFigures = n
	}
	if v := os.Getenv("PDFFIGURES2_JAR"); v != "" {
		cfg.Localizer.Jar = v
	}
	if v := os.Getenv("JAVA_BIN"); v != "" {
		cfg.Localizer.Java = v
	}
	if v := os.Getenv("FIGHARVEST_LOCALIZER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("FIGHARVEST_LOCALIZER_TIMEOUT: %w", err)
		}
		cfg.Localizer.Timeout = d
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	return nil
}

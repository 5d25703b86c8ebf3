package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxFigures != 6 || !cfg.KeepUnselected || cfg.RenderDPI != 300 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Localizer.DPI != 300 || cfg.Localizer.Timeout != 120*time.Second || cfg.Localizer.Java != "java" {
		t.Errorf("unexpected localizer defaults %+v", cfg.Localizer)
	}
	if cfg.Reconstruct.StripeHeight != 10 || cfg.Reconstruct.Threshold != 0.1 || cfg.Reconstruct.NoiseStripes != 2 {
		t.Errorf("unexpected reconstruct defaults %+v", cfg.Reconstruct)
	}
	if cfg.Caption.MaxGap != 50 || cfg.Caption.MinOverlap != 0.5 {
		t.Errorf("unexpected caption defaults %+v", cfg.Caption)
	}
	if cfg.Appendix.ScanFraction != 0.3 || cfg.Appendix.PrefixRunes != 500 {
		t.Errorf("unexpected appendix defaults %+v", cfg.Appendix)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, "figharvest.yaml", `
output_dir: out
max_figures: 3
localizer:
  enabled: true
  jar: /opt/pdffigures2.jar
  timeout: 30s
reconstruct:
  stripe_height: 5
caption:
  keywords: [figure, chart]
layout:
  paragraph_gap: 2
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OutputDir != "out" || cfg.MaxFigures != 3 {
		t.Errorf("top level not applied: %+v", cfg)
	}
	if cfg.Localizer.Jar != "/opt/pdffigures2.jar" || cfg.Localizer.Timeout != 30*time.Second {
		t.Errorf("localizer not applied: %+v", cfg.Localizer)
	}
	// unset keys keep their defaults
	if cfg.Localizer.DPI != 300 || cfg.Reconstruct.Threshold != 0.1 {
		t.Errorf("defaults lost: %+v %+v", cfg.Localizer, cfg.Reconstruct)
	}
	if cfg.ReconstructConfig().StripeHeight != 5 {
		t.Errorf("ReconstructConfig = %+v", cfg.ReconstructConfig())
	}
	if kw := cfg.CaptionConfig().Keywords; len(kw) != 2 || kw[1] != "chart" {
		t.Errorf("caption keywords = %v", kw)
	}
	if bc := cfg.BlockConfig(); bc.ParagraphGap != 2 || bc.LineTolerance != 0.5 || !bc.MergeOverlaps {
		t.Errorf("BlockConfig = %+v", bc)
	}
	if cfg.LocalizerConfig().Jar != "/opt/pdffigures2.jar" {
		t.Errorf("LocalizerConfig = %+v", cfg.LocalizerConfig())
	}
	if cfg.ColorFixConfig().MaxPatch == 0 {
		t.Error("ColorFixConfig should carry the default patch size")
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(writeFile(t, "bad.yaml", "max_figures: [1")); err == nil {
		t.Error("expected parse error")
	}
	if _, err := Load(writeFile(t, "invalid.yaml", "max_figures: -1")); err == nil {
		t.Error("expected validation error")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FIGHARVEST_OUTPUT_DIR", "/tmp/figs")
	t.Setenv("FIGHARVEST_MAX_FIGURES", "10")
	t.Setenv("PDFFIGURES2_JAR", "/jars/pf2.jar")
	t.Setenv("JAVA_BIN", "/usr/lib/jvm/bin/java")
	t.Setenv("FIGHARVEST_LOCALIZER_TIMEOUT", "45s")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load(writeFile(t, "c.yaml", "output_dir: from-file\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OutputDir != "/tmp/figs" || cfg.MaxFigures != 10 {
		t.Errorf("env should win over file: %+v", cfg)
	}
	if cfg.Localizer.Jar != "/jars/pf2.jar" || cfg.Localizer.Java != "/usr/lib/jvm/bin/java" || cfg.Localizer.Timeout != 45*time.Second {
		t.Errorf("localizer env not applied: %+v", cfg.Localizer)
	}
	if cfg.Log.Level != "warn" || cfg.Log.Format != "json" {
		t.Errorf("log env not applied: %+v", cfg.Log)
	}
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("FIGHARVEST_MAX_FIGURES", "many")
	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "FIGHARVEST_MAX_FIGURES") {
		t.Errorf("expected FIGHARVEST_MAX_FIGURES error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative max figures", func(c *Config) { c.MaxFigures = -1 }},
		{"zero render dpi", func(c *Config) { c.RenderDPI = 0 }},
		{"zero localizer timeout", func(c *Config) { c.Localizer.Timeout = 0 }},
		{"zero stripe height", func(c *Config) { c.Reconstruct.StripeHeight = 0 }},
		{"threshold above one", func(c *Config) { c.Reconstruct.Threshold = 1.5 }},
		{"negative text weight", func(c *Config) { c.Reconstruct.TextWeight = -1 }},
		{"zero caption gap", func(c *Config) { c.Caption.MaxGap = 0 }},
		{"overlap above one", func(c *Config) { c.Caption.MinOverlap = 2 }},
		{"zero paragraph gap", func(c *Config) { c.Layout.ParagraphGap = 0 }},
		{"dark above light", func(c *Config) { c.ColorFix.DarkThreshold = 220 }},
		{"zero dark threshold", func(c *Config) { c.ColorFix.DarkThreshold = 0 }},
		{"five corners", func(c *Config) { c.ColorFix.MinCorners = 5 }},
		{"zero scan fraction", func(c *Config) { c.Appendix.ScanFraction = 0 }},
		{"zero prefix", func(c *Config) { c.Appendix.PrefixRunes = 0 }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
	}

	if err := Default().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	cfg := Default()
	cfg.Localizer.Enabled = false
	cfg.Localizer.Timeout = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled localizer settings should not be checked: %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "FIGHARVEST_TEST_DOTENV=from-file\nFIGHARVEST_TEST_PRESET=from-file\n")
	t.Setenv("FIGHARVEST_TEST_PRESET", "from-env")
	t.Cleanup(func() { os.Unsetenv("FIGHARVEST_TEST_DOTENV") })

	if err := LoadDotEnv(filepath.Join(t.TempDir(), "absent.env"), path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("FIGHARVEST_TEST_DOTENV"); got != "from-file" {
		t.Errorf("FIGHARVEST_TEST_DOTENV = %q", got)
	}
	if got := os.Getenv("FIGHARVEST_TEST_PRESET"); got != "from-env" {
		t.Errorf("existing variable overridden: %q", got)
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "warn", Format: "json"}.Logger(&buf)

	logger.Info().Msg("hidden")
	logger.Warn().Int("page", 3).Msg("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if entry["message"] != "shown" || entry["service"] != "figharvest" || entry["page"] != float64(3) {
		t.Errorf("unexpected entry %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Error("entry should carry a timestamp")
	}

	buf.Reset()
	console := LogConfig{Level: "info", Format: "console"}.Logger(&buf)
	console.Info().Msg("hello")
	if !strings.Contains(buf.String(), "hello") || strings.HasPrefix(buf.String(), "{") {
		t.Errorf("console output %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	for level, want := range map[string]string{
		"trace": "trace", "debug": "debug", "info": "info",
		"warn": "warn", "error": "error", "": "info", "bogus": "info",
	} {
		if got := parseLevel(level).String(); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", level, got, want)
		}
	}
}

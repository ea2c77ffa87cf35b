package config

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gogpu/mandel"
	"github.com/gogpu/mandel/export"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// unsetEnv clears key for the test and restores it afterwards.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatal(err)
	}
}

// =============================================================================
// Load Tests
// =============================================================================

func TestDefault(t *testing.T) {
	c := Default()

	if c.Engine.TileEdge != mandel.DefaultTileEdge {
		t.Errorf("Engine.TileEdge = %d, want %d", c.Engine.TileEdge, mandel.DefaultTileEdge)
	}
	if c.Engine.MemoryBudget != mandel.DefaultMemoryBudget {
		t.Errorf("Engine.MemoryBudget = %d, want %d", c.Engine.MemoryBudget, int64(mandel.DefaultMemoryBudget))
	}
	if c.Engine.Policy != "ramp" || !c.Engine.Vectorized {
		t.Errorf("Engine = %+v, want ramp policy and vectorized kernel", c.Engine)
	}
	if c.Viewport() != mandel.DefaultViewport() {
		t.Errorf("Viewport() = %+v, want %+v", c.Viewport(), mandel.DefaultViewport())
	}
	if c.Server.RequestTimeout != 10*time.Second {
		t.Errorf("Server.RequestTimeout = %v, want 10s", c.Server.RequestTimeout)
	}
	if c.ExportFormat() != export.FormatQOI {
		t.Errorf("ExportFormat() = %v, want qoi", c.ExportFormat())
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "mandel.yaml", `
engine:
  tile_edge: 128
  workers: 2
  policy: binary
  iteration_cap: 250
view:
  zoom: 7
server:
  request_timeout: 3s
  allow_origins: ["http://localhost:3000"]
export:
  format: png
`)

	c, err := Load(path, writeFile(t, dir, "empty.env", ""))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if c.Engine.TileEdge != 128 || c.Engine.Workers != 2 || c.Engine.IterationCap != 250 {
		t.Errorf("Engine = %+v", c.Engine)
	}
	if c.Engine.Policy != "binary" {
		t.Errorf("Engine.Policy = %q, want binary", c.Engine.Policy)
	}
	if c.View.Zoom != 7 || c.View.Width != 800 {
		t.Errorf("View = %+v, want zoom 7 and default width", c.View)
	}
	if c.Server.RequestTimeout != 3*time.Second {
		t.Errorf("Server.RequestTimeout = %v, want 3s", c.Server.RequestTimeout)
	}
	if len(c.Server.AllowOrigins) != 1 || c.Server.AllowOrigins[0] != "http://localhost:3000" {
		t.Errorf("Server.AllowOrigins = %v", c.Server.AllowOrigins)
	}
	if c.ExportFormat() != export.FormatPNG {
		t.Errorf("ExportFormat() = %v, want png", c.ExportFormat())
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "mandel.yaml", "engine:\n  workers: 2\n")
	t.Setenv("MANDEL_ENGINE_WORKERS", "5")
	t.Setenv("MANDEL_LOG_FORMAT", "json")

	c, err := Load(path, writeFile(t, dir, "empty.env", ""))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Engine.Workers != 5 {
		t.Errorf("Engine.Workers = %d, want 5", c.Engine.Workers)
	}
	if c.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want json", c.Log.Format)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	unsetEnv(t, "MANDEL_ENGINE_ITERATION_CAP")
	t.Setenv("MANDEL_ENGINE_HUE", "200")

	env := writeFile(t, dir, "test.env", "MANDEL_ENGINE_ITERATION_CAP=42\nMANDEL_ENGINE_HUE=10\n")
	path := writeFile(t, dir, "mandel.yaml", "engine:\n  workers: 1\n")

	c, err := Load(path, env)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Engine.IterationCap != 42 {
		t.Errorf("Engine.IterationCap = %d, want 42 from .env", c.Engine.IterationCap)
	}
	if c.Engine.Hue != 200 {
		t.Errorf("Engine.Hue = %d, want 200 (existing env wins over .env)", c.Engine.Hue)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	empty := writeFile(t, dir, "empty.env", "")

	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{"bad policy", "engine:\n  policy: rainbow\n", ErrInvalid},
		{"bad export format", "export:\n  format: gif\n", ErrInvalid},
		{"bad log level", "log:\n  level: loud\n", ErrInvalid},
		{"bad log format", "log:\n  format: xml\n", ErrInvalid},
		{"zero width", "view:\n  width: 0\n", ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, strings.ReplaceAll(tt.name, " ", "_")+".yaml", tt.yaml)
			if _, err := Load(path, empty); !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml"), empty); err == nil {
		t.Error("Load(missing file) error = nil")
	}
	if _, err := Load("", filepath.Join(dir, "missing.env")); err == nil {
		t.Error("Load(missing explicit .env) error = nil")
	}
}

// =============================================================================
// EngineOptions Tests
// =============================================================================

func TestEngineOptions_BuildEngine(t *testing.T) {
	c := Default()
	c.Engine.TileEdge = 16
	c.Engine.Workers = 1
	c.Engine.MemoryBudget = 1 << 20
	c.Engine.IterationCap = 77
	c.View.Zoom = 4

	opts, err := c.EngineOptions()
	if err != nil {
		t.Fatalf("EngineOptions() error = %v", err)
	}

	eng, err := mandel.New(opts...)
	if err != nil {
		t.Fatalf("mandel.New() error = %v", err)
	}
	defer eng.Shutdown()

	if eng.TileEdge() != 16 {
		t.Errorf("TileEdge() = %d, want 16", eng.TileEdge())
	}
	if eng.IterationCap() != 77 {
		t.Errorf("IterationCap() = %d, want 77", eng.IterationCap())
	}
	if eng.Viewport().Zoom != 4 {
		t.Errorf("Viewport().Zoom = %d, want 4", eng.Viewport().Zoom)
	}
}

func TestEngineOptions_BadPolicy(t *testing.T) {
	c := Default()
	c.Engine.Policy = "sepia"
	if _, err := c.EngineOptions(); !errors.Is(err, ErrInvalid) {
		t.Errorf("EngineOptions() error = %v, want ErrInvalid", err)
	}
}

// =============================================================================
// Logger Tests
// =============================================================================

func TestNewLogger_Stderr(t *testing.T) {
	l, closer, err := NewLogger(LogConfig{Level: "warn", Format: "text"})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	defer closer.Close()

	if l.Enabled(t.Context(), slog.LevelInfo) {
		t.Error("info enabled at warn level")
	}
	if !l.Enabled(t.Context(), slog.LevelWarn) {
		t.Error("warn disabled at warn level")
	}
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mandel.log")

	l, closer, err := NewLogger(LogConfig{Level: "debug", Format: "json", File: path, MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	l.Debug("tile computed", "zoom", 3)
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte(`"msg":"tile computed"`)) || !bytes.Contains(data, []byte(`"zoom":3`)) {
		t.Errorf("log file = %s", data)
	}
}

func TestNewLogger_BadLevel(t *testing.T) {
	if _, _, err := NewLogger(LogConfig{Level: "chatty"}); err == nil {
		t.Error("NewLogger(bad level) error = nil")
	}
}

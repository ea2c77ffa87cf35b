// Package config loads settings for the mandel binaries.
//
// Values come from, in increasing priority: built-in defaults, a YAML file,
// and MANDEL_* environment variables. A .env file is loaded into the
// environment first, without overriding variables that are already set.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/gogpu/mandel"
	"github.com/gogpu/mandel/export"
)

// EnvPrefix prefixes every environment override, e.g. MANDEL_ENGINE_WORKERS.
const EnvPrefix = "MANDEL"

// ErrInvalid is returned when a loaded value cannot be used.
var ErrInvalid = errors.New("config: invalid value")

// Config is the full binary configuration.
type Config struct {
	Engine EngineConfig `mapstructure:"engine"`
	View   ViewConfig   `mapstructure:"view"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	Export ExportConfig `mapstructure:"export"`
}

// EngineConfig mirrors the engine options.
type EngineConfig struct {
	TileEdge      int     `mapstructure:"tile_edge"`
	Base          float64 `mapstructure:"base"`
	Decay         float64 `mapstructure:"decay"`
	Workers       int     `mapstructure:"workers"`
	QueueCapacity int     `mapstructure:"queue_capacity"`
	MemoryBudget  int64   `mapstructure:"memory_budget"`
	Policy        string  `mapstructure:"policy"`
	Hue           int     `mapstructure:"hue"`
	IterationCap  int     `mapstructure:"iteration_cap"`
	Vectorized    bool    `mapstructure:"vectorized"`
}

// ViewConfig is the initial viewport and window size.
type ViewConfig struct {
	X      int64 `mapstructure:"x"`
	Y      int64 `mapstructure:"y"`
	Zoom   int   `mapstructure:"zoom"`
	Width  int   `mapstructure:"width"`
	Height int   `mapstructure:"height"`
}

// ServerConfig configures the HTTP frame server.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	FrameCacheBytes int64         `mapstructure:"frame_cache_bytes"`
	FrameTTL        time.Duration `mapstructure:"frame_ttl"`
	StreamInterval  time.Duration `mapstructure:"stream_interval"`
	MaxFrameEdge    int           `mapstructure:"max_frame_edge"`
	AllowOrigins    []string      `mapstructure:"allow_origins"`
}

// LogConfig selects the log level, format and destination.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ExportConfig controls snapshot files.
type ExportConfig struct {
	Dir    string `mapstructure:"dir"`
	Prefix string `mapstructure:"prefix"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("engine.tile_edge", mandel.DefaultTileEdge)
	v.SetDefault("engine.base", mandel.DefaultBase)
	v.SetDefault("engine.decay", mandel.DefaultDecay)
	v.SetDefault("engine.workers", mandel.DefaultWorkers)
	v.SetDefault("engine.queue_capacity", 0)
	v.SetDefault("engine.memory_budget", mandel.DefaultMemoryBudget)
	v.SetDefault("engine.policy", mandel.PolicyRamp.String())
	v.SetDefault("engine.hue", mandel.DefaultHue)
	v.SetDefault("engine.iteration_cap", mandel.DefaultIterationCap)
	v.SetDefault("engine.vectorized", true)

	vp := mandel.DefaultViewport()
	v.SetDefault("view.x", vp.Offset.X)
	v.SetDefault("view.y", vp.Offset.Y)
	v.SetDefault("view.zoom", vp.Zoom)
	v.SetDefault("view.width", 800)
	v.SetDefault("view.height", 600)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.request_timeout", 10*time.Second)
	v.SetDefault("server.frame_cache_bytes", 64<<20)
	v.SetDefault("server.frame_ttl", 5*time.Minute)
	v.SetDefault("server.stream_interval", 50*time.Millisecond)
	v.SetDefault("server.max_frame_edge", 4096)
	v.SetDefault("server.allow_origins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", false)

	v.SetDefault("export.dir", ".")
	v.SetDefault("export.prefix", "mandelbrot")
	v.SetDefault("export.format", export.FormatQOI.String())
}

// Default returns the built-in configuration.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		panic(fmt.Sprintf("config: defaults do not decode: %v", err))
	}
	return &c
}

// Load reads the configuration. path names a YAML file; when empty,
// mandel.yaml is looked up in the working directory and may be absent.
// envFiles are loaded into the environment first; by default ".env" is
// tried and ignored when missing.
func Load(path string, envFiles ...string) (*Config, error) {
	if err := loadEnv(envFiles); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else {
		v.SetConfigName("mandel")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: read mandel.yaml: %w", err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func loadEnv(files []string) error {
	optional := len(files) == 0
	if optional {
		files = []string{".env"}
	}
	for _, f := range files {
		err := godotenv.Load(f)
		if err == nil || (optional && errors.Is(err, fs.ErrNotExist)) {
			continue
		}
		return fmt.Errorf("config: load %s: %w", f, err)
	}
	return nil
}

// Validate checks the values the binaries parse themselves. Engine
// numeric limits are checked by mandel.New.
func (c *Config) Validate() error {
	if _, err := mandel.ParsePolicy(c.Engine.Policy); err != nil {
		return fmt.Errorf("%w: engine.policy: %w", ErrInvalid, err)
	}
	if _, err := export.ParseFormat(c.Export.Format); err != nil {
		return fmt.Errorf("%w: export.format: %w", ErrInvalid, err)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %w", ErrInvalid, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q", ErrInvalid, c.Log.Format)
	}
	if c.View.Width <= 0 || c.View.Height <= 0 {
		return fmt.Errorf("%w: view size %dx%d", ErrInvalid, c.View.Width, c.View.Height)
	}
	if c.Server.MaxFrameEdge <= 0 {
		return fmt.Errorf("%w: server.max_frame_edge %d", ErrInvalid, c.Server.MaxFrameEdge)
	}
	return nil
}

// Viewport returns the configured initial viewport.
func (c *Config) Viewport() mandel.Viewport {
	return mandel.Viewport{
		Offset: mandel.ScreenPosition{X: c.View.X, Y: c.View.Y},
		Zoom:   c.View.Zoom,
	}
}

// ExportFormat returns the configured snapshot format.
func (c *Config) ExportFormat() export.Format {
	f, err := export.ParseFormat(c.Export.Format)
	if err != nil {
		return export.FormatQOI
	}
	return f
}

// EngineOptions converts the engine and view sections to engine options.
func (c *Config) EngineOptions() ([]mandel.Option, error) {
	policy, err := mandel.ParsePolicy(c.Engine.Policy)
	if err != nil {
		return nil, fmt.Errorf("%w: engine.policy: %w", ErrInvalid, err)
	}
	e := c.Engine
	return []mandel.Option{
		mandel.WithTileEdge(e.TileEdge),
		mandel.WithResolution(e.Base, e.Decay),
		mandel.WithWorkers(e.Workers),
		mandel.WithQueueCapacity(e.QueueCapacity),
		mandel.WithMemoryBudget(e.MemoryBudget),
		mandel.WithPolicy(policy),
		mandel.WithRampHue(e.Hue),
		mandel.WithIterationCap(e.IterationCap),
		mandel.WithVectorized(e.Vectorized),
		mandel.WithViewport(c.Viewport()),
	}, nil
}

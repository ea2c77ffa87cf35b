package mandel

import (
	"log/slog"

	"github.com/gogpu/mandel/internal/colorize"
	"github.com/gogpu/mandel/internal/coord"
)

// Policy selects how escaped pixels are coloured.
type Policy = colorize.Policy

// Colour policies.
const (
	// PolicyBinary paints the set black and everything else white.
	PolicyBinary = colorize.Binary

	// PolicyRamp paints escaped pixels along a single-hue ramp.
	PolicyRamp = colorize.Ramp
)

// ParsePolicy parses "binary" or "ramp".
func ParsePolicy(s string) (Policy, error) {
	return colorize.ParsePolicy(s)
}

// Defaults used by New.
const (
	DefaultTileEdge     = coord.DefaultEdge
	DefaultBase         = coord.DefaultBase
	DefaultDecay        = coord.DefaultDecay
	DefaultMemoryBudget = 1 << 30
	DefaultIterationCap = 1000
	DefaultWorkers      = 8
	DefaultHue          = colorize.DefaultHue
)

// Option configures an Engine during creation.
//
// Example:
//
//	eng, err := mandel.New(
//		mandel.WithWorkers(4),
//		mandel.WithMemoryBudget(256<<20),
//		mandel.WithPolicy(mandel.PolicyRamp),
//	)
type Option func(*options)

// options holds the configuration collected from Options.
type options struct {
	edge          int
	base, decay   float64
	workers       int
	queueCapacity int
	budget        int64
	policy        Policy
	hue           int
	iterationCap  int
	vectorized    bool
	viewport      Viewport
	placeholder   Color
	logger        *slog.Logger
}

// defaultOptions returns the configuration used when no Option is given.
func defaultOptions() options {
	return options{
		edge:         DefaultTileEdge,
		base:         DefaultBase,
		decay:        DefaultDecay,
		workers:      DefaultWorkers,
		budget:       DefaultMemoryBudget,
		policy:       PolicyRamp,
		hue:          DefaultHue,
		iterationCap: DefaultIterationCap,
		vectorized:   true,
		viewport:     DefaultViewport(),
		placeholder:  DefaultPlaceholder,
	}
}

// WithTileEdge sets the tile edge length in pixels.
func WithTileEdge(edge int) Option {
	return func(o *options) {
		o.edge = edge
	}
}

// WithResolution sets the zoom curve: a tile spans base*decay^zoom plane
// units. Base must be positive and decay in (0, 1).
func WithResolution(base, decay float64) Option {
	return func(o *options) {
		o.base = base
		o.decay = decay
	}
}

// WithWorkers sets the number of worker goroutines. Zero selects
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithQueueCapacity bounds the number of tiles queued or being computed.
// Zero selects the worker count.
func WithQueueCapacity(n int) Option {
	return func(o *options) {
		o.queueCapacity = n
	}
}

// WithMemoryBudget sets the byte budget for ready tiles. Budgets below one
// tile are raised to one tile.
func WithMemoryBudget(bytes int64) Option {
	return func(o *options) {
		o.budget = bytes
	}
}

// WithPolicy selects the colour policy.
func WithPolicy(p Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithRampHue sets the hue in degrees used by PolicyRamp.
func WithRampHue(hue int) Option {
	return func(o *options) {
		o.hue = hue
	}
}

// WithIterationCap sets the initial iteration cap. Values below 1 are
// raised to 1.
func WithIterationCap(n int) Option {
	return func(o *options) {
		o.iterationCap = n
	}
}

// WithVectorized selects the lane-parallel kernel (the default) or the
// scalar one. Both produce identical pixels.
func WithVectorized(on bool) Option {
	return func(o *options) {
		o.vectorized = on
	}
}

// WithViewport sets the initial viewport.
func WithViewport(v Viewport) Option {
	return func(o *options) {
		o.viewport = v
	}
}

// WithPlaceholderColor sets the colour drawn where a tile is not ready.
// The alpha channel is ignored; placeholders are always opaque.
func WithPlaceholderColor(c Color) Option {
	return func(o *options) {
		o.placeholder = c | Black
	}
}

// WithLogger sets the engine logger. Without it the engine uses Logger().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

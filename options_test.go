package mandel

import (
	"errors"
	"testing"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()

	if o.edge != 256 {
		t.Errorf("edge = %d, want 256", o.edge)
	}
	if o.base != 2 || o.decay != 0.9 {
		t.Errorf("resolution = %g*%g^zoom, want 2*0.9^zoom", o.base, o.decay)
	}
	if o.budget != 1<<30 {
		t.Errorf("budget = %d, want 1 GiB", o.budget)
	}
	if o.placeholder != RGB(100, 100, 100) {
		t.Errorf("placeholder = %#08x, want grey 100", uint32(o.placeholder))
	}
	if o.viewport != (Viewport{Offset: ScreenPosition{X: -100, Y: -100}, Zoom: 1}) {
		t.Errorf("viewport = %+v", o.viewport)
	}
	if err := o.validate(); err != nil {
		t.Errorf("validate() = %v, want nil", err)
	}
}

func TestOptions_Apply(t *testing.T) {
	o := defaultOptions()
	for _, opt := range []Option{
		WithTileEdge(64),
		WithResolution(4, 0.5),
		WithWorkers(3),
		WithQueueCapacity(7),
		WithMemoryBudget(1 << 20),
		WithPolicy(PolicyBinary),
		WithRampHue(200),
		WithIterationCap(50),
		WithVectorized(false),
		WithPlaceholderColor(Black),
	} {
		opt(&o)
	}

	if o.edge != 64 || o.base != 4 || o.decay != 0.5 || o.workers != 3 || o.queueCapacity != 7 {
		t.Errorf("options = %+v", o)
	}
	if o.budget != 1<<20 || o.policy != PolicyBinary || o.hue != 200 || o.iterationCap != 50 {
		t.Errorf("options = %+v", o)
	}
	if o.vectorized || o.placeholder != Black {
		t.Errorf("options = %+v", o)
	}
}

func TestWithPlaceholderColor_ForcesOpaque(t *testing.T) {
	tests := []struct {
		name string
		in   Color
		want Color
	}{
		{"opaque", RGB(1, 2, 3), RGB(1, 2, 3)},
		{"half alpha", Pack(1, 2, 3, 0x80), RGB(1, 2, 3)},
		{"transparent", Pack(9, 8, 7, 0), RGB(9, 8, 7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := defaultOptions()
			WithPlaceholderColor(tt.in)(&o)
			if o.placeholder != tt.want {
				t.Errorf("placeholder = %#08x, want %#08x", uint32(o.placeholder), uint32(tt.want))
			}
		})
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want error
	}{
		{"zero edge", []Option{WithTileEdge(0)}, ErrInvalidTileEdge},
		{"negative edge", []Option{WithTileEdge(-8)}, ErrInvalidTileEdge},
		{"zero base", []Option{WithResolution(0, 0.9)}, ErrInvalidResolution},
		{"decay one", []Option{WithResolution(2, 1)}, ErrInvalidResolution},
		{"decay zero", []Option{WithResolution(2, 0)}, ErrInvalidResolution},
		{"negative workers", []Option{WithWorkers(-1)}, ErrInvalidWorkers},
		{"negative queue", []Option{WithQueueCapacity(-1)}, ErrInvalidQueueCapacity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng, err := New(tt.opts...)
			if !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
			if eng != nil {
				eng.Shutdown()
				t.Error("New() returned an engine with an error")
			}
		})
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("ramp")
	if err != nil || p != PolicyRamp {
		t.Errorf("ParsePolicy(ramp) = %v, %v", p, err)
	}
	if _, err := ParsePolicy("sepia"); err == nil {
		t.Error("ParsePolicy(sepia) error = nil")
	}
}

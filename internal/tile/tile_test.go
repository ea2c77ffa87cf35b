package tile

import (
	"runtime"
	"sync"
	"testing"

	"github.com/gogpu/mandel/internal/colorize"
	"github.com/gogpu/mandel/internal/coord"
)

// =============================================================================
// Key Tests
// =============================================================================

func TestKey_Compare(t *testing.T) {
	base := Key{Zoom: 3, Cell: coord.GridPos{X: 1, Y: 1}, Cap: 100}

	tests := []struct {
		name  string
		other Key
		want  int
	}{
		{"equal", base, 0},
		{"higher zoom", Key{Zoom: 4, Cell: base.Cell, Cap: 100}, -1},
		{"lower cap", Key{Zoom: 3, Cell: base.Cell, Cap: 50}, 1},
		{"next row", Key{Zoom: 3, Cell: coord.GridPos{X: 0, Y: 2}, Cap: 100}, -1},
		{"previous column", Key{Zoom: 3, Cell: coord.GridPos{X: 0, Y: 1}, Cap: 100}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Compare(tt.other); got != tt.want {
				t.Errorf("Compare(%+v) = %d, want %d", tt.other, got, tt.want)
			}
		})
	}
}

func TestKey_Independence(t *testing.T) {
	keys := map[Key]int{}
	keys[Key{Zoom: 1, Cell: coord.GridPos{}, Cap: 100}] = 1
	keys[Key{Zoom: 2, Cell: coord.GridPos{}, Cap: 100}] = 2
	keys[Key{Zoom: 1, Cell: coord.GridPos{}, Cap: 101}] = 3
	keys[Key{Zoom: 1, Cell: coord.GridPos{X: 1}, Cap: 100}] = 4

	if len(keys) != 4 {
		t.Errorf("distinct keys collapsed: len = %d, want 4", len(keys))
	}
}

// =============================================================================
// Tile Tests
// =============================================================================

func TestNew(t *testing.T) {
	key := Key{Zoom: 1, Cap: 10}
	tl := New(key, coord.FractalPoint{Real: 1, Imag: 2}, 0.5, 16)

	if tl.Ready() {
		t.Error("new tile is ready, want pending")
	}
	if len(tl.Pix) != 256 {
		t.Errorf("len(Pix) = %d, want 256", len(tl.Pix))
	}
	if tl.ByteSize() != 1024 {
		t.Errorf("ByteSize() = %d, want 1024", tl.ByteSize())
	}
}

func TestNewPlaceholder(t *testing.T) {
	const grey = 0xFF646464
	p := NewPlaceholder(8, grey)

	if !p.Ready() {
		t.Error("placeholder not ready")
	}
	for i, v := range p.Pix {
		if v != grey {
			t.Fatalf("Pix[%d] = %#08x, want %#08x", i, v, uint32(grey))
		}
	}
}

func TestTile_Touch(t *testing.T) {
	tl := New(Key{}, coord.FractalPoint{}, 1, 4)
	tl.Touch(42)
	if got := tl.LastAccess(); got != 42 {
		t.Errorf("LastAccess() = %d, want 42", got)
	}
}

func TestTile_PixelOffset(t *testing.T) {
	tl := New(Key{}, coord.FractalPoint{}, 1, 64)

	tests := []struct {
		name   string
		px, py int
		want   int
	}{
		{"top-left", 0, 0, 0},
		{"second pixel", 1, 0, 1},
		{"second row", 0, 1, 64},
		{"last", 63, 63, 64*64 - 1},
		{"negative x", -1, 0, -1},
		{"y past edge", 0, 64, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tl.PixelOffset(tt.px, tt.py); got != tt.want {
				t.Errorf("PixelOffset(%d, %d) = %d, want %d", tt.px, tt.py, got, tt.want)
			}
		})
	}
}

// =============================================================================
// Shader Tests
// =============================================================================

func TestShader_ShadeOrigin(t *testing.T) {
	// Cell (0,0) at resolution 2: pixel (0,0) is c = 0 and never escapes.
	key := Key{Zoom: 1, Cap: 100}
	tl := New(key, coord.CellOrigin(coord.GridPos{}, 2), 2, 32)

	Shader{Policy: colorize.Binary}.Shade(tl)

	if !tl.Ready() {
		t.Fatal("tile not ready after Shade")
	}
	if tl.Pix[0] != colorize.Black {
		t.Errorf("Pix[0] = %#08x, want black", tl.Pix[0])
	}
	if last := tl.Pix[len(tl.Pix)-1]; last != colorize.White {
		t.Errorf("far corner = %#08x, want white", last)
	}
}

func TestShader_VectorizedMatchesScalar(t *testing.T) {
	key := Key{Zoom: 5, Cap: 250}
	origin := coord.FractalPoint{Real: -0.8, Imag: -0.2}

	a := New(key, origin, 0.4, 30)
	b := New(key, origin, 0.4, 30)
	Shader{Policy: colorize.Ramp, Hue: colorize.DefaultHue}.Shade(a)
	Shader{Policy: colorize.Ramp, Hue: colorize.DefaultHue, Vectorized: true}.Shade(b)

	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatalf("pixel %d: scalar %#08x, vector %#08x", i, a.Pix[i], b.Pix[i])
		}
	}
}

func TestShader_PublishesToReaders(t *testing.T) {
	tl := New(Key{Cap: 50}, coord.FractalPoint{Real: -2, Imag: -2}, 4, 16)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		Shader{Policy: colorize.Binary}.Shade(tl)
	}()

	for !tl.Ready() {
		runtime.Gosched()
	}
	for i, v := range tl.Pix {
		if v != colorize.Black && v != colorize.White {
			t.Fatalf("Pix[%d] = %#08x after publication, want black or white", i, v)
		}
	}
	wg.Wait()
}

// =============================================================================
// Pool Tests
// =============================================================================

func TestPool_GetPut(t *testing.T) {
	p := NewPool(8)
	key := Key{Zoom: 2, Cap: 10}

	tl := p.Get(key, coord.FractalPoint{Real: 1}, 0.5)
	if tl.Ready() {
		t.Error("pooled tile is ready, want pending")
	}
	if len(tl.Pix) != 64 || tl.Edge != 8 || tl.Key != key {
		t.Fatalf("Get() = edge %d len %d key %+v", tl.Edge, len(tl.Pix), tl.Key)
	}

	tl.MarkReady()
	p.Put(tl)
	if tl.Pix != nil {
		t.Error("Put did not detach the buffer")
	}

	again := p.Get(key, coord.FractalPoint{}, 0.5)
	if len(again.Pix) != 64 {
		t.Errorf("len(Pix) after reuse = %d, want 64", len(again.Pix))
	}
}

func TestPool_PutIgnoresPendingAndForeign(t *testing.T) {
	p := NewPool(8)

	pending := p.Get(Key{}, coord.FractalPoint{}, 1)
	p.Put(pending)
	if pending.Pix == nil {
		t.Error("Put took the buffer of a pending tile")
	}

	foreign := NewPlaceholder(4, 0)
	p.Put(foreign)
	if foreign.Pix == nil {
		t.Error("Put took the buffer of a tile with a different edge")
	}

	p.Put(nil)
}

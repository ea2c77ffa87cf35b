package cache

import (
	"testing"

	"github.com/gogpu/mandel/internal/coord"
	"github.com/gogpu/mandel/internal/tile"
)

// fakeQueue accepts up to capacity tiles and records them in order.
type fakeQueue struct {
	capacity int
	pushed   []*tile.Tile
}

func (q *fakeQueue) Full() bool { return len(q.pushed) >= q.capacity }

func (q *fakeQueue) TryPush(t *tile.Tile) bool {
	if q.Full() {
		return false
	}
	q.pushed = append(q.pushed, t)
	return true
}

const testEdge = 4

func newTestCache(capacity int) (*Cache, *fakeQueue) {
	q := &fakeQueue{capacity: capacity}
	c := New(q, func(key tile.Key) *tile.Tile {
		return tile.New(key, coord.FractalPoint{}, 1, testEdge)
	})
	return c, q
}

func keyAt(x int64) tile.Key {
	return tile.Key{Zoom: 1, Cell: coord.GridPos{X: x}, Cap: 10}
}

// fillReady inserts n ready tiles with last access 1..n.
func fillReady(t *testing.T, c *Cache, n int) {
	t.Helper()
	for i := range n {
		key := keyAt(int64(i))
		if _, ok := c.GetOrCreate(key, 0); ok {
			t.Fatalf("GetOrCreate(%v) on empty cache returned ready", key)
		}
		tl, _ := c.Peek(key)
		if tl == nil {
			t.Fatalf("key %v not admitted", key)
		}
		tl.MarkReady()
		if _, ok := c.GetOrCreate(key, uint64(i+1)); !ok { //nolint:gosec // small
			t.Fatalf("GetOrCreate(%v) after MarkReady not ready", key)
		}
	}
}

// =============================================================================
// GetOrCreate Tests
// =============================================================================

func TestGetOrCreate_Lifecycle(t *testing.T) {
	c, q := newTestCache(8)
	key := keyAt(0)

	if tl, ok := c.GetOrCreate(key, 1); ok || tl != nil {
		t.Fatalf("first GetOrCreate = (%v, %v), want (nil, false)", tl, ok)
	}
	if len(q.pushed) != 1 {
		t.Fatalf("pushed = %d, want 1", len(q.pushed))
	}

	// Pending: no second submission.
	if _, ok := c.GetOrCreate(key, 2); ok {
		t.Error("pending tile reported ready")
	}
	if len(q.pushed) != 1 {
		t.Errorf("pending tile resubmitted: pushed = %d", len(q.pushed))
	}

	q.pushed[0].MarkReady()
	tl, ok := c.GetOrCreate(key, 3)
	if !ok || tl != q.pushed[0] {
		t.Fatalf("GetOrCreate after ready = (%p, %v), want (%p, true)", tl, ok, q.pushed[0])
	}
	if tl.LastAccess() != 3 {
		t.Errorf("LastAccess() = %d, want 3", tl.LastAccess())
	}
}

func TestGetOrCreate_RejectedWhenQueueFull(t *testing.T) {
	c, q := newTestCache(2)

	for i := range 5 {
		c.GetOrCreate(keyAt(int64(i)), 1)
	}

	if len(q.pushed) != 2 {
		t.Errorf("pushed = %d, want 2", len(q.pushed))
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (rejected keys must not be stored)", c.Len())
	}
	s := c.Stats()
	if s.Enqueued != 2 || s.Rejected != 3 {
		t.Errorf("Stats() = %+v, want Enqueued 2 Rejected 3", s)
	}

	// Capacity frees up: a rejected key is admitted on a later call.
	q.capacity = 3
	c.GetOrCreate(keyAt(4), 2)
	if _, ok := c.Peek(keyAt(4)); !ok {
		t.Error("rejected key not admitted after capacity freed")
	}
}

func TestGetOrCreate_KeyIndependence(t *testing.T) {
	c, _ := newTestCache(8)
	base := keyAt(0)
	zoomed := tile.Key{Zoom: 2, Cell: base.Cell, Cap: base.Cap}
	capped := tile.Key{Zoom: base.Zoom, Cell: base.Cell, Cap: 20}

	fillReady(t, c, 1)
	before, _ := c.Peek(base)
	snapshot := append([]uint32(nil), before.Pix...)

	c.GetOrCreate(zoomed, 5)
	c.GetOrCreate(capped, 5)

	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}
	after, _ := c.Peek(base)
	if after != before || !after.Ready() {
		t.Error("existing tile replaced or reset by a different key")
	}
	for i := range snapshot {
		if after.Pix[i] != snapshot[i] {
			t.Fatal("existing tile pixels changed by a different key")
		}
	}
}

// =============================================================================
// Invalidate Tests
// =============================================================================

func TestInvalidate_EvictsOldest(t *testing.T) {
	c, _ := newTestCache(16)
	tileBytes := tile.Bytes(testEdge)

	const n = 4
	fillReady(t, c, n+1)

	evicted := c.Invalidate(n*tileBytes, tileBytes)

	if evicted != 1 {
		t.Fatalf("Invalidate() = %d, want 1", evicted)
	}
	if _, ok := c.Peek(keyAt(0)); ok {
		t.Error("tile with smallest last access still cached")
	}
	for i := 1; i <= n; i++ {
		if _, ok := c.Peek(keyAt(int64(i))); !ok {
			t.Errorf("tile %d evicted, want kept", i)
		}
	}
}

func TestInvalidate_WithinBudgetIsNoop(t *testing.T) {
	c, _ := newTestCache(16)
	tileBytes := tile.Bytes(testEdge)
	fillReady(t, c, 3)

	if got := c.Invalidate(3*tileBytes, tileBytes); got != 0 {
		t.Errorf("Invalidate() = %d, want 0", got)
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
}

func TestInvalidate_Bound(t *testing.T) {
	tileBytes := tile.Bytes(testEdge)

	tests := []struct {
		name   string
		tiles  int
		budget int64
	}{
		{"exact multiple", 10, 4 * tileBytes},
		{"partial tile", 10, 4*tileBytes + tileBytes/2},
		{"one tile", 7, tileBytes},
		{"zero budget", 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCache(64)
			fillReady(t, c, tt.tiles)

			c.Invalidate(tt.budget, tileBytes)

			ready, _ := c.Counts()
			if total := int64(ready) * tileBytes; total > tt.budget {
				t.Errorf("ready bytes = %d, want <= %d", total, tt.budget)
			}
		})
	}
}

func TestInvalidate_SkipsPending(t *testing.T) {
	c, _ := newTestCache(16)
	tileBytes := tile.Bytes(testEdge)

	fillReady(t, c, 2)
	for i := 10; i < 14; i++ {
		c.GetOrCreate(keyAt(int64(i)), 0)
	}

	c.Invalidate(0, tileBytes)

	ready, pending := c.Counts()
	if ready != 0 {
		t.Errorf("ready = %d, want 0", ready)
	}
	if pending != 4 {
		t.Errorf("pending = %d, want 4 (pending tiles must survive)", pending)
	}
}

func TestInvalidate_TieBreakByKey(t *testing.T) {
	c, q := newTestCache(16)
	tileBytes := tile.Bytes(testEdge)

	for _, x := range []int64{3, 1, 2} {
		c.GetOrCreate(keyAt(x), 0)
	}
	for _, tl := range q.pushed {
		tl.MarkReady()
		tl.Touch(7)
	}

	c.Invalidate(2*tileBytes, tileBytes)

	if _, ok := c.Peek(keyAt(1)); ok {
		t.Error("lowest key survived a last-access tie")
	}
	if c.Stats().Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", c.Stats().Evictions)
	}
}

func TestStats_HitRate(t *testing.T) {
	c, _ := newTestCache(4)
	fillReady(t, c, 2)

	s := c.Stats()
	// fillReady does one miss and one hit per tile.
	if s.Hits != 2 || s.Misses != 2 {
		t.Errorf("Hits/Misses = %d/%d, want 2/2", s.Hits, s.Misses)
	}
	if s.HitRate != 0.5 {
		t.Errorf("HitRate = %g, want 0.5", s.HitRate)
	}
	if s.Ready != 2 || s.Pending != 0 {
		t.Errorf("Ready/Pending = %d/%d, want 2/0", s.Ready, s.Pending)
	}
}

func TestInvalidate_OnEvict(t *testing.T) {
	c, _ := newTestCache(8)
	tileBytes := tile.Bytes(testEdge)
	fillReady(t, c, 3)

	var got []tile.Key
	c.OnEvict(func(tl *tile.Tile) {
		if _, ok := c.Peek(tl.Key); ok {
			t.Errorf("evicted tile %v still in map during hook", tl.Key)
		}
		got = append(got, tl.Key)
	})

	c.Invalidate(tileBytes, tileBytes)

	if len(got) != 2 || got[0] != keyAt(0) || got[1] != keyAt(1) {
		t.Errorf("evicted keys = %v, want [%v %v]", got, keyAt(0), keyAt(1))
	}
}

func TestGetOrCreate_NewTileStampedWithFrame(t *testing.T) {
	c, q := newTestCache(4)
	tileBytes := tile.Bytes(testEdge)

	fillReady(t, c, 2) // last access 1 and 2
	c.GetOrCreate(keyAt(9), 50)
	fresh := q.pushed[len(q.pushed)-1]
	fresh.MarkReady() // ready but not yet drawn

	c.Invalidate(2*tileBytes, tileBytes)

	if _, ok := c.Peek(keyAt(9)); !ok {
		t.Error("freshly ready tile evicted ahead of older tiles")
	}
	if _, ok := c.Peek(keyAt(0)); ok {
		t.Error("oldest tile survived")
	}
}

// Package mandel renders an interactive view of the Mandelbrot set from a
// cache of asynchronously computed tiles.
//
// # Overview
//
// The plane is cut into square tiles on a grid anchored at 0+0i. Each zoom
// level has its own grid; one tile always spans the same number of screen
// pixels, while its extent in the plane shrinks geometrically with zoom.
// An Engine owns a tile cache and a pool of worker goroutines. Rendering a
// frame never waits for computation: tiles that are not ready yet are drawn
// as a neutral placeholder and appear on a later frame.
//
// # Quick Start
//
//	eng, err := mandel.New(mandel.WithWorkers(8))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer eng.Shutdown()
//
//	fb := mandel.NewFramebuffer(800, 600)
//	for frame := uint64(1); ; frame++ {
//		eng.Render(fb, frame)
//		// present fb.Pix()
//	}
//
// # Threading
//
// An Engine is owned by one goroutine, the render goroutine, and its
// methods must be called from it (or under a lock the caller holds).
// Workers only compute tile pixels and publish them with an atomic store.
//
// # Memory
//
// After every frame the cache evicts the least recently drawn ready tiles
// until the ready tiles fit in the configured budget. Tiles still being
// computed are never evicted.
//
// # Logging
//
// The package is silent by default; see SetLogger.
package mandel

// Command fractalview is an interactive Mandelbrot viewer.
//
// Scroll to zoom at the cursor, drag with the left button to pan, press
// Up/Down to double or halve the iteration cap, S to save a QOI snapshot
// and Escape to quit.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/gogpu/mandel"
	"github.com/gogpu/mandel/export"
	"github.com/gogpu/mandel/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fractalview: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "configuration file (default ./mandel.yaml if present)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger, closer, err := config.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()
	mandel.SetLogger(logger)

	opts, err := cfg.EngineOptions()
	if err != nil {
		return err
	}
	eng, err := mandel.New(opts...)
	if err != nil {
		return err
	}
	defer eng.Shutdown()

	ebiten.SetWindowSize(cfg.View.Width, cfg.View.Height)
	ebiten.SetWindowTitle("Mandelbrot")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	v := &viewer{
		eng:    eng,
		fb:     mandel.NewFramebuffer(cfg.View.Width, cfg.View.Height),
		export: cfg.Export,
		log:    logger,
	}
	if err := ebiten.RunGame(v); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}

// viewer implements ebiten.Game. Update and Draw run on the same goroutine,
// which owns the engine.
type viewer struct {
	eng *mandel.Engine
	fb  *mandel.Framebuffer
	pix []byte

	frame    uint64
	dragging bool
	lastX    int
	lastY    int

	export config.ExportConfig
	log    *slog.Logger
	notice string
}

func (v *viewer) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	if _, dy := ebiten.Wheel(); dy != 0 {
		x, y := ebiten.CursorPosition()
		step := 1
		if dy < 0 {
			step = -1
		}
		v.eng.ZoomAt(mandel.ScreenPosition{X: int64(x), Y: int64(y)}, step)
	}

	x, y := ebiten.CursorPosition()
	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		v.dragging = true
	case inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
		v.dragging = false
	case v.dragging:
		v.eng.Pan(mandel.ScreenPosition{X: int64(v.lastX - x), Y: int64(v.lastY - y)})
	}
	v.lastX, v.lastY = x, y

	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) {
		v.eng.SetIterationCap(v.eng.IterationCap() * 2)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) {
		v.eng.SetIterationCap(v.eng.IterationCap() / 2)
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		v.snapshot()
	}
	return nil
}

// snapshot saves the last drawn frame under the next free name.
func (v *viewer) snapshot() {
	path, err := export.NextFreeName(v.export.Dir, v.export.Prefix, export.FormatQOI)
	if err == nil {
		err = export.Save(path, v.fb.ToImage())
	}
	if err != nil {
		v.log.Error("fractalview: snapshot", "err", err)
		v.notice = "snapshot failed: " + err.Error()
		return
	}
	v.log.Info("fractalview: snapshot saved", "path", path)
	v.notice = "saved " + path
}

func (v *viewer) Draw(screen *ebiten.Image) {
	b := screen.Bounds()
	w, h := b.Dx(), b.Dy()
	if v.fb.Width() != w || v.fb.Height() != h {
		v.fb.Resize(w, h)
	}
	if n := w * h * 4; len(v.pix) != n {
		v.pix = make([]byte, n)
	}

	v.frame++
	v.eng.Render(v.fb, v.frame)
	v.fb.CopyRGBA(v.pix)
	screen.WritePixels(v.pix)

	tl := v.eng.TopLeft()
	msg := fmt.Sprintf("iterations: %d\nzoom: %d\ntop-left: %.10g %+.10gi\nFPS: %0.1f",
		v.eng.IterationCap(), v.eng.Viewport().Zoom, tl.Real, tl.Imag, ebiten.ActualFPS())
	if v.notice != "" {
		msg += "\n" + v.notice
	}
	ebitenutil.DebugPrint(screen, msg)
}

func (v *viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// Command fractalsnap renders one complete Mandelbrot frame to an image file.
//
// Settings come from the configuration file and MANDEL_* environment
// variables; flags given on the command line take precedence.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/gogpu/mandel"
	"github.com/gogpu/mandel/export"
	"github.com/gogpu/mandel/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fractalsnap: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "configuration file (default ./mandel.yaml if present)")
		x          = flag.Int64("x", 0, "screen x of the top-left pixel")
		y          = flag.Int64("y", 0, "screen y of the top-left pixel")
		zoom       = flag.Int("zoom", 1, "zoom level")
		width      = flag.Int("width", 800, "image width")
		height     = flag.Int("height", 600, "image height")
		iterations = flag.Int("cap", mandel.DefaultIterationCap, "iteration cap")
		policy     = flag.String("policy", "ramp", "colour policy: ramp or binary")
		output     = flag.String("output", "", "output file; the extension selects the format (default: next free name)")
		thumb      = flag.Int("thumbnail", 0, "scale the image so its longer side is at most this many pixels")
		timeout    = flag.Duration("timeout", time.Minute, "give up after this long")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	// Flags override the file only when given explicitly.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "x":
			cfg.View.X = *x
		case "y":
			cfg.View.Y = *y
		case "zoom":
			cfg.View.Zoom = *zoom
		case "width":
			cfg.View.Width = *width
		case "height":
			cfg.View.Height = *height
		case "cap":
			cfg.Engine.IterationCap = *iterations
		case "policy":
			cfg.Engine.Policy = *policy
		}
	})
	if err := cfg.Validate(); err != nil {
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	start := time.Now()
	fb := mandel.NewFramebuffer(cfg.View.Width, cfg.View.Height)
	if _, err := eng.RenderUntilReady(ctx, fb, 1); err != nil {
		return err
	}
	logger.Info("fractalsnap: rendered", "elapsed", time.Since(start), "stats", eng.Stats().String())

	path := *output
	if path == "" {
		path, err = export.NextFreeName(cfg.Export.Dir, cfg.Export.Prefix, cfg.ExportFormat())
		if err != nil {
			return err
		}
	}

	var img image.Image = fb.ToImage()
	if *thumb > 0 {
		img = export.Thumbnail(img, *thumb)
	}
	if err := export.Save(path, img); err != nil {
		return err
	}

	logger.Info("fractalsnap: saved", slog.String("path", path),
		slog.Int("width", img.Bounds().Dx()), slog.Int("height", img.Bounds().Dy()))
	return nil
}

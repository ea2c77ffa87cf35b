// Command fractalserve serves Mandelbrot frames over HTTP and websockets.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/mandel"
	"github.com/gogpu/mandel/internal/config"
	"github.com/gogpu/mandel/internal/server"
)

// shutdownTimeout bounds the graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fractalserve: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "configuration file (default ./mandel.yaml if present)")
		addr       = flag.String("addr", "", "listen address (overrides server.addr)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
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

	gin.SetMode(gin.ReleaseMode)
	srv, err := server.New(eng, cfg.Server, logger)
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("fractalserve: listening", "addr", cfg.Server.Addr)
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		srv.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logger.Info("fractalserve: stopped", "stats", srv.Stats().String())
	return err
}

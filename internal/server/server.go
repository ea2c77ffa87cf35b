// Package server exposes an engine over HTTP.
//
// GET /frame renders a complete frame and returns it encoded; complete
// frames are kept in a byte-bounded cache. GET /ws streams progressive raw
// frames for views sent by the client. All engine access goes through one
// mutex, which plays the role of the render thread.
package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/gogpu/mandel"
	"github.com/gogpu/mandel/internal/config"
)

// pollInterval is the wait between render passes of a /frame request.
const pollInterval = 2 * time.Millisecond

// ErrClosed is returned for requests that arrive after Close.
var ErrClosed = errors.New("server: closed")

// Server serves frames of one engine.
type Server struct {
	cfg config.ServerConfig
	log *slog.Logger

	mu      sync.Mutex
	eng     *mandel.Engine
	frame   uint64
	maxZoom int

	frames   *ristretto.Cache[string, []byte]
	upgrader websocket.Upgrader
	router   *gin.Engine

	done      chan struct{}
	closeOnce sync.Once
}

// New creates a server for eng. The engine must not be used by anything
// else while the server runs. A nil logger discards output.
func New(eng *mandel.Engine, cfg config.ServerConfig, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = mandel.Logger()
	}
	if cfg.MaxFrameEdge <= 0 {
		return nil, fmt.Errorf("server: max frame edge %d", cfg.MaxFrameEdge)
	}

	s := &Server{
		cfg:  cfg,
		log:  log,
		eng:     eng,
		maxZoom: eng.MaxZoom(),
		done:    make(chan struct{}),
	}

	if cfg.FrameCacheBytes > 0 {
		frames, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
			NumCounters: 10_000,
			MaxCost:     cfg.FrameCacheBytes,
			BufferItems: 64,
			Metrics:     true,
		})
		if err != nil {
			return nil, fmt.Errorf("server: frame cache: %w", err)
		}
		s.frames = frames
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 64 << 10,
		CheckOrigin:     s.checkOrigin,
	}

	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests(), cors.New(s.corsConfig()))

	r.GET("/healthz", s.healthz)
	r.GET("/stats", s.stats)
	r.GET("/frame", s.renderFrame)
	r.GET("/ws", s.stream)
	return r
}

func (s *Server) corsConfig() cors.Config {
	c := cors.DefaultConfig()
	c.AllowMethods = []string{http.MethodGet, http.MethodOptions}
	c.ExposeHeaders = []string{"X-Frame-Cache", "X-Frame-Ready"}
	if len(s.cfg.AllowOrigins) == 0 || slices.Contains(s.cfg.AllowOrigins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = s.cfg.AllowOrigins
	}
	return c
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.cfg.AllowOrigins) == 0 {
		return true
	}
	return slices.Contains(s.cfg.AllowOrigins, "*") || slices.Contains(s.cfg.AllowOrigins, origin)
}

// logRequests logs every request at debug level.
func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("server: request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start))
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close ends open streams and releases the frame cache. The engine is left
// running; the caller shuts it down.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.frames != nil {
			s.frames.Close()
		}
	})
}

func (s *Server) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// renderPass draws v once on the engine and returns the pass statistics.
// A positive cap overrides the engine's cap for this pass only.
func (s *Server) renderPass(v view, fb *mandel.Framebuffer) mandel.FrameStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.eng.IterationCap()
	if v.Cap > 0 {
		s.eng.SetIterationCap(v.Cap)
	}
	s.frame++
	stats := s.eng.RenderViewport(v.viewport(), fb, s.frame)
	s.eng.SetIterationCap(prev)
	return stats
}

// Stats returns the engine statistics.
func (s *Server) Stats() mandel.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng.Stats()
}

func (s *Server) healthz(c *gin.Context) {
	if s.closed() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "closing"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) stats(c *gin.Context) {
	resp := gin.H{"engine": s.Stats()}
	if s.frames != nil {
		m := s.frames.Metrics
		resp["frame_cache"] = gin.H{
			"hits":     m.Hits(),
			"misses":   m.Misses(),
			"hit_rate": m.Ratio(),
			"bytes":    m.CostAdded() - m.CostEvicted(),
		}
	}
	c.JSON(http.StatusOK, resp)
}

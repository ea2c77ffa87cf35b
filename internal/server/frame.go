package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gogpu/mandel"
	"github.com/gogpu/mandel/export"
)

// frameTTL is used when the configuration leaves it unset.
const frameTTL = 5 * time.Minute

func (s *Server) renderFrame(c *gin.Context) {
	var v view
	if err := c.ShouldBindQuery(&v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := v.validate(s.cfg.MaxFrameEdge, s.maxZoom); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	format, err := export.ParseFormat(c.DefaultQuery("format", "png"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key := v.cacheKey(format)
	if s.frames != nil {
		if data, ok := s.frames.Get(key); ok {
			c.Header("X-Frame-Cache", "hit")
			c.Data(http.StatusOK, format.ContentType(), data)
			return
		}
	}

	ctx := c.Request.Context()
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	fb := mandel.NewFramebuffer(v.W, v.H)
	stats, err := s.renderComplete(ctx, v, fb)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			status = http.StatusGatewayTimeout
		case errors.Is(err, ErrClosed):
			status = http.StatusServiceUnavailable
		}
		s.log.Warn("server: frame incomplete", "view", key, "err", err)
		c.Header("X-Frame-Ready", strconv.Itoa(stats.Ready)+"/"+strconv.Itoa(stats.Tiles))
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := export.Encode(&buf, fb.ToImage(), format); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	data := buf.Bytes()

	if s.frames != nil {
		ttl := s.cfg.FrameTTL
		if ttl <= 0 {
			ttl = frameTTL
		}
		s.frames.SetWithTTL(key, data, int64(len(data)), ttl)
	}

	c.Header("X-Frame-Cache", "miss")
	c.Data(http.StatusOK, format.ContentType(), data)
}

// renderComplete renders v into fb until every tile is ready. The engine
// lock is released between passes so streams and other requests progress.
func (s *Server) renderComplete(ctx context.Context, v view, fb *mandel.Framebuffer) (mandel.FrameStats, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		stats := s.renderPass(v, fb)
		if stats.Complete() {
			return stats, nil
		}

		select {
		case <-ctx.Done():
			return stats, fmt.Errorf("server: %d of %d tiles ready: %w", stats.Ready, stats.Tiles, ctx.Err())
		case <-s.done:
			return stats, ErrClosed
		case <-ticker.C:
		}
	}
}

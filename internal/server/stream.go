package server

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/gogpu/mandel"
	"github.com/gogpu/mandel/export"
)

// streamInterval is used when the configuration leaves it unset.
const streamInterval = 50 * time.Millisecond

// writeWait bounds a single websocket write.
const writeWait = 10 * time.Second

// status is the text message sent after a view completes or is rejected.
type status struct {
	Complete bool   `json:"complete"`
	Frame    uint64 `json:"frame,omitempty"`
	Tiles    int    `json:"tiles,omitempty"`
	Ready    int    `json:"ready,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (s *Server) stream(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("server: websocket upgrade", "err", err)
		return
	}
	defer conn.Close()

	views := make(chan view, 1)
	go s.readViews(conn, views)

	interval := s.cfg.StreamInterval
	if interval <= 0 {
		interval = streamInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var (
		fb      = mandel.NewFramebuffer(0, 0)
		rgba    []byte
		buf     bytes.Buffer
		current view
		active  bool
	)

	for {
		select {
		case <-s.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server closing"),
				time.Now().Add(writeWait))
			return

		case v, ok := <-views:
			if !ok {
				return
			}
			if err := v.validate(s.cfg.MaxFrameEdge, s.maxZoom); err != nil {
				if s.writeStatus(conn, status{Error: err.Error()}) != nil {
					return
				}
				active = false
				continue
			}
			current, active = v, true
			fb.Resize(v.W, v.H)
			if n := v.W * v.H * 4; cap(rgba) < n {
				rgba = make([]byte, n)
			}
			rgba = rgba[:v.W*v.H*4]

		case <-ticker.C:
			if !active {
				continue
			}
			stats := s.renderPass(current, fb)
			fb.CopyRGBA(rgba)

			buf.Reset()
			if err := export.EncodeRawPix(&buf, fb.Width(), fb.Height(), rgba); err != nil {
				s.log.Error("server: encode stream frame", "err", err)
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.BinaryMessage, buf.Bytes()); err != nil {
				return
			}

			if stats.Complete() {
				active = false
				st := status{Complete: true, Frame: stats.Frame, Tiles: stats.Tiles, Ready: stats.Ready}
				if s.writeStatus(conn, st) != nil {
					return
				}
			}
		}
	}
}

// readViews forwards view messages, keeping only the latest one when the
// streamer is busy. It closes views when the connection fails.
func (s *Server) readViews(conn *websocket.Conn, views chan view) {
	defer close(views)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var v view
		if err := json.Unmarshal(data, &v); err != nil {
			s.log.Debug("server: bad view message", "err", err)
			v = view{}
		}

		select {
		case views <- v:
		default:
			select {
			case <-views:
			default:
			}
			views <- v
		}
	}
}

func (s *Server) writeStatus(conn *websocket.Conn, st status) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(st)
}

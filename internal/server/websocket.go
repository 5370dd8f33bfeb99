package server

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/traybill/traybill/internal/pipeline"
	"github.com/traybill/traybill/internal/utils"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPongTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
)

// wsAnalyzeRequest is one analysis request over the socket.
type wsAnalyzeRequest struct {
	ImageData string `json:"imageData"`
}

// wsMessage is the envelope for all server-to-client messages.
type wsMessage struct {
	Type     string           `json:"type"`
	Stage    string           `json:"stage,omitempty"`
	Progress float64          `json:"progress,omitempty"`
	Error    string           `json:"error,omitempty"`
	Result   *AnalyzeResponse `json:"result,omitempty"`
}

// wsConn serializes writes; the keepalive pinger and the handler both write
// to the same connection.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) send(msg wsMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := c.conn.WriteJSON(msg); err != nil {
		slog.Debug("websocket write failed", "error", err)
	}
}

func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

// handleAnalyzeWS serves analysis over a WebSocket. The client sends base64
// image payloads and receives progress updates followed by the final result,
// so a slow analysis does not look like a dead request.
func (s *Server) handleAnalyzeWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
	raw, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = raw.Close() }()

	wsConnections.Inc()
	defer wsConnections.Dec()

	conn := &wsConn{conn: raw}

	raw.SetReadLimit(s.maxUploadBytes())
	_ = raw.SetReadDeadline(time.Now().Add(wsPongTimeout))
	raw.SetPongHandler(func(string) error {
		return raw.SetReadDeadline(time.Now().Add(wsPongTimeout))
	})

	done := make(chan struct{})
	defer close(done)
	go keepalive(conn, done)

	for {
		var req wsAnalyzeRequest
		if err := raw.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket closed unexpectedly", "error", err)
			}
			return
		}
		_ = raw.SetReadDeadline(time.Now().Add(wsPongTimeout))
		s.analyzeOverSocket(r.Context(), conn, req)
	}
}

func (s *Server) analyzeOverSocket(ctx context.Context, conn *wsConn, req wsAnalyzeRequest) {
	sendError := func(msg string) {
		conn.send(wsMessage{Type: "error", Error: msg})
	}
	sendProgress := func(stage string, progress float64) {
		conn.send(wsMessage{Type: "progress", Stage: stage, Progress: progress})
	}

	encoded := req.ImageData
	if strings.Contains(encoded, "data:image") {
		if idx := strings.Index(encoded, ","); idx >= 0 {
			encoded = encoded[idx+1:]
		}
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		sendError("invalid base64 image data")
		return
	}
	img, err := utils.DecodeImage(data)
	if err != nil {
		sendError("could not decode the image data")
		return
	}
	sendProgress("decoded", 0.1)

	analyzeCtx, cancel := context.WithTimeout(ctx, time.Duration(s.config.TimeoutSec)*time.Second)
	defer cancel()

	sendProgress("analyzing", 0.3)
	start := time.Now()
	res, err := s.analyzer.Analyze(analyzeCtx, img)
	if err != nil {
		recordAnalyzeOutcome("error", time.Since(start).Seconds(), -1)
		sendError("failed to analyze image")
		return
	}
	sendProgress("billing", 0.9)

	switch res.State {
	case pipeline.StateEmpty:
		recordAnalyzeOutcome("empty", time.Since(start).Seconds(), 0)
		sendError("no dishes detected in the image")
	case pipeline.StateFailed:
		recordAnalyzeOutcome("failed", time.Since(start).Seconds(), 0)
		sendError("could not process any detected dish")
	default:
		recordAnalyzeOutcome("done", time.Since(start).Seconds(), len(res.Items))
		resp := newAnalyzeResponse(res)
		conn.send(wsMessage{Type: "result", Result: &resp})
	}
}

// keepalive pings the peer until the connection handler returns.
func keepalive(conn *wsConn, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

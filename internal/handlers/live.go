package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	applog "github.com/jwebster45206/outbreak-engine/internal/logger"
	"github.com/jwebster45206/outbreak-engine/internal/session"
	"github.com/jwebster45206/outbreak-engine/pkg/engine"
)

const (
	// Time allowed to write a message to the peer.
	liveWriteWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	livePongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than livePongWait.
	livePingPeriod = (livePongWait * 9) / 10
	// Maximum command size allowed from peer.
	liveMaxMessageSize = 4096
	// Updates buffered per connection before the clock starts dropping them.
	liveUpdateBuffer = 32
)

// Live message types
const (
	LiveTypeSession = "session"
	LiveTypeUpdate  = "update"
	LiveTypeResult  = "result"
	LiveTypeError   = "error"
	LiveTypeClosed  = "closed"
)

// LiveMessage is every frame the server writes on a live connection.
type LiveMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// LiveHandler serves a session over a WebSocket. The client sends commands with the
// same body as POST /v1/sessions/{id}/commands and receives the session view on
// connect, a result per command and an update after every applied step.
type LiveHandler struct {
	sessions *session.Manager
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewLiveHandler(logger *slog.Logger, sessions *session.Manager) *LiveHandler {
	return &LiveHandler{
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// ServeHTTP handles GET /v1/live/sessions/{id}
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	idStr := strings.TrimPrefix(r.URL.Path, "/v1/live/sessions/")
	if idStr == "" || strings.Contains(idStr, "/") {
		writeError(w, h.logger, http.StatusBadRequest, "Session ID required")
		return
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID")
		return
	}
	s, err := h.sessions.Get(id)
	if err != nil {
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client
		h.logger.Warn("Failed to upgrade live connection", "error", err, "session_id", id)
		return
	}

	c := &liveConn{
		id:       id,
		conn:     conn,
		sessions: h.sessions,
		send:     make(chan LiveMessage, 16),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		logger:   applog.WithSession(h.logger, id.String()),
	}
	updates, cancel := s.Watch(liveUpdateBuffer)
	defer cancel()

	c.logger.Info("Live client connected")
	c.send <- LiveMessage{Type: LiveTypeSession, Data: s.View()}
	go c.writePump(updates)
	c.readPump()
	c.logger.Info("Live client disconnected")
}

type liveConn struct {
	id       uuid.UUID
	conn     *websocket.Conn
	sessions *session.Manager
	send     chan LiveMessage
	done     chan struct{} // closed when the read pump exits
	stopped  chan struct{} // closed when the write pump exits
	logger   *slog.Logger
}

// readPump applies commands until the peer goes away.
func (c *liveConn) readPump() {
	defer func() {
		close(c.done)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(liveMaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(livePongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(livePongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn("Live connection read failed", "error", err)
			}
			return
		}

		var req session.Request
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			c.queue(LiveMessage{Type: LiveTypeError, Data: ErrorResponse{Error: "Invalid command"}})
			continue
		}

		g, res, err := c.sessions.Command(context.Background(), c.id, req)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				c.queue(LiveMessage{Type: LiveTypeError, Data: ErrorResponse{Error: "Session not found"}})
				return
			}
			c.queue(LiveMessage{Type: LiveTypeError, Data: ErrorResponse{Error: err.Error()}})
			continue
		}

		notes := res.Notifications
		if notes == nil {
			notes = []engine.Notification{}
		}
		c.queue(LiveMessage{Type: LiveTypeResult, Data: CommandResponse{
			Applied:       res.Applied,
			Notifications: notes,
			Game:          g,
		}})
	}
}

func (c *liveConn) queue(m LiveMessage) {
	select {
	case c.send <- m:
	case <-c.stopped:
	}
}

// writePump is the only writer on the connection.
func (c *liveConn) writePump(updates <-chan session.Update) {
	ticker := time.NewTicker(livePingPeriod)
	defer func() {
		ticker.Stop()
		close(c.stopped)
		_ = c.conn.Close()
	}()

	for {
		select {
		case m := <-c.send:
			if err := c.write(m); err != nil {
				return
			}
		case u, ok := <-updates:
			if !ok {
				_ = c.write(LiveMessage{Type: LiveTypeClosed})
				_ = c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
					time.Now().Add(liveWriteWait))
				return
			}
			if err := c.write(LiveMessage{Type: LiveTypeUpdate, Data: u}); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *liveConn) write(m LiveMessage) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
	if err := c.conn.WriteJSON(m); err != nil {
		c.logger.Debug("Live write failed", "error", err, "type", m.Type)
		return err
	}
	return nil
}

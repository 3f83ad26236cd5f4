package live

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/valkgeo/EventQ/internal/auth"
	"github.com/valkgeo/EventQ/internal/models"
	redisc "github.com/valkgeo/EventQ/internal/redis"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client is one websocket session. Watched rooms are explicit subscription
// handles: they are released on unwatch and, without exception, when the
// connection goes away.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	SessionID   string
	Email       string
	IsAnonymous bool

	watched map[string]string // room id -> selected filter
	send    chan []byte
	mu      sync.Mutex
}

func ServeWS(hub *Hub, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		claims, err := auth.ValidateToken(token, jwtSecret)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("websocket upgrade failed", "error", err)
			return
		}

		client := &Client{
			hub:         hub,
			conn:        conn,
			SessionID:   claims.UserID,
			Email:       claims.Email,
			IsAnonymous: claims.IsAnonymous,
			watched:     make(map[string]string),
			send:        make(chan []byte, 256),
		}

		hub.register <- client
		go client.writePump()
		go client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Error("ws read error", "error", err, "session_id", c.SessionID)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			c.refreshViewerMarks()
		}
	}
}

func (c *Client) handleMessage(msg WSMessage) {
	switch msg.Type {
	case TypeRoomWatch:
		var payload WatchPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.RoomID == "" {
			c.sendError("room_id is required", "INVALID_PAYLOAD")
			return
		}
		filter := payload.Filter
		if filter == "" {
			filter = FilterAll
		}
		c.mu.Lock()
		c.watched[payload.RoomID] = filter
		c.mu.Unlock()
		if err := redisc.AddViewer(c.hub.Redis, payload.RoomID, c.SessionID); err != nil {
			slog.Warn("failed to mark viewer", "room_id", payload.RoomID, "error", err)
		}
		c.hub.pushInitial(c, payload.RoomID)

	case TypeRoomUnwatch:
		var payload WatchPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return
		}
		c.stopWatching(payload.RoomID)

	case TypePing:
		data, _ := NewWSMessage(TypePong, nil)
		c.trySend(data)
	}
}

func (c *Client) isWatching(roomID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.watched[roomID]
	return ok
}

func (c *Client) stopWatching(roomID string) {
	c.mu.Lock()
	_, ok := c.watched[roomID]
	delete(c.watched, roomID)
	c.mu.Unlock()
	if ok {
		if err := redisc.RemoveViewer(c.hub.Redis, roomID, c.SessionID); err != nil {
			slog.Warn("failed to unmark viewer", "room_id", roomID, "error", err)
		}
	}
}

func (c *Client) watchedRooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	rooms := make([]string, 0, len(c.watched))
	for roomID := range c.watched {
		rooms = append(rooms, roomID)
	}
	return rooms
}

// refreshViewerMarks extends the viewer-set TTL for every watched room so a
// connection that stays alive keeps counting toward the audience. Runs on the
// ping ticker, which fires well inside the TTL window.
func (c *Client) refreshViewerMarks() {
	for _, roomID := range c.watchedRooms() {
		if err := redisc.RefreshViewers(c.hub.Redis, roomID); err != nil {
			slog.Warn("failed to refresh viewer mark", "room_id", roomID, "error", err)
		}
	}
}

// dropViewerMarks releases every room this session was counted in. Called
// exactly once, when the hub unregisters the client.
func (c *Client) dropViewerMarks() {
	watched := c.watchedRooms()
	c.mu.Lock()
	c.watched = make(map[string]string)
	c.mu.Unlock()
	for _, roomID := range watched {
		if err := redisc.RemoveViewer(c.hub.Redis, roomID, c.SessionID); err != nil {
			slog.Warn("failed to unmark viewer", "room_id", roomID, "error", err)
		}
	}
}

func (c *Client) sendSnapshot(room *models.Room, questions []models.Question, history []models.AuditEntry, viewerCount int64) {
	c.mu.Lock()
	filter, ok := c.watched[room.ID]
	c.mu.Unlock()
	if !ok {
		return
	}

	view := BuildRoomView(room, questions, history, c.Email, c.SessionID, filter, viewerCount)
	data, err := NewWSMessage(TypeRoomSnapshot, view)
	if err != nil {
		return
	}
	c.trySend(data)
}

func (c *Client) trySend(data []byte) {
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) sendError(message, code string) {
	data, _ := NewWSMessage(TypeError, ErrorPayload{Message: message, Code: code})
	c.trySend(data)
}

package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	redisc "github.com/valkgeo/EventQ/internal/redis"
	"github.com/valkgeo/EventQ/internal/repo"
	"github.com/valkgeo/EventQ/internal/rooms"
)

const recomputeTimeout = 5 * time.Second

// Hub owns every live subscription. Change notifications arrive from Redis
// pub/sub; for each one the hub re-reads the full room snapshot and pushes
// a freshly computed view to every watcher of that room.
type Hub struct {
	clients map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	events     chan RoomEvent

	Rooms     repo.RoomRepo
	Questions repo.QuestionRepo
	Redis     *redis.Client
}

func NewHub(roomRepo repo.RoomRepo, questionRepo repo.QuestionRepo, redisClient *redis.Client) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan RoomEvent, 256),
		Rooms:      roomRepo,
		Questions:  questionRepo,
		Redis:      redisClient,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			slog.Info("client connected", "session_id", client.SessionID, "anonymous", client.IsAnonymous)

		case client := <-h.unregister:
			h.mu.Lock()
			if h.clients[client] {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			client.dropViewerMarks()
			slog.Info("client disconnected", "session_id", client.SessionID)

		case event := <-h.events:
			h.recompute(event)
		}
	}
}

// HandleRoomEvent is the Redis subscription callback. It never blocks the
// subscriber loop: if the event buffer is full the notification is dropped,
// which is safe because the next event triggers the same full recompute.
func (h *Hub) HandleRoomEvent(roomID string, data []byte) {
	var event RoomEvent
	if err := json.Unmarshal(data, &event); err != nil {
		event = RoomEvent{Type: EventRoomUpdated, RoomID: roomID}
	}
	select {
	case h.events <- event:
	default:
		slog.Warn("event buffer full, dropping notification", "room_id", event.RoomID)
	}
}

func (h *Hub) recompute(event RoomEvent) {
	watchers := h.watchersOf(event.RoomID)
	if len(watchers) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), recomputeTimeout)
	defer cancel()

	room, err := h.Rooms.GetRoom(ctx, event.RoomID)
	if err != nil {
		slog.Error("failed to load room for recompute", "room_id", event.RoomID, "error", err)
		return
	}
	if room == nil || event.Type == EventRoomDeleted {
		data, _ := NewWSMessage(TypeRoomDeleted, RoomDeletedPayload{RoomID: event.RoomID})
		for _, client := range watchers {
			client.stopWatching(event.RoomID)
			client.trySend(data)
		}
		return
	}

	questions, err := h.Questions.ListQuestions(ctx, event.RoomID)
	if err != nil {
		slog.Error("failed to load questions for recompute", "room_id", event.RoomID, "error", err)
		return
	}
	history, err := h.Rooms.ModerationHistory(ctx, event.RoomID, rooms.HistoryDisplayLimit)
	if err != nil {
		slog.Error("failed to load history for recompute", "room_id", event.RoomID, "error", err)
		return
	}
	viewerCount, err := redisc.ViewerCount(h.Redis, event.RoomID)
	if err != nil {
		viewerCount = 0
	}

	for _, client := range watchers {
		client.sendSnapshot(room, questions, history, viewerCount)
	}
}

func (h *Hub) watchersOf(roomID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var watchers []*Client
	for client := range h.clients {
		if client.isWatching(roomID) {
			watchers = append(watchers, client)
		}
	}
	return watchers
}

// pushInitial sends the first snapshot right after a watch request, so the
// client does not wait for the next store event.
func (h *Hub) pushInitial(client *Client, roomID string) {
	ctx, cancel := context.WithTimeout(context.Background(), recomputeTimeout)
	defer cancel()

	room, err := h.Rooms.GetRoom(ctx, roomID)
	if err != nil || room == nil {
		client.stopWatching(roomID)
		client.sendError("room not found or removed", "ROOM_NOT_FOUND")
		return
	}
	questions, err := h.Questions.ListQuestions(ctx, roomID)
	if err != nil {
		client.sendError("failed to load room state", "INTERNAL_ERROR")
		return
	}
	history, err := h.Rooms.ModerationHistory(ctx, roomID, rooms.HistoryDisplayLimit)
	if err != nil {
		client.sendError("failed to load room state", "INTERNAL_ERROR")
		return
	}
	viewerCount, err := redisc.ViewerCount(h.Redis, roomID)
	if err != nil {
		viewerCount = 0
	}
	client.sendSnapshot(room, questions, history, viewerCount)
}

func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
	}
	h.clients = make(map[*Client]bool)
}

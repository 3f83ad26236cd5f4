package live

import (
	"encoding/json"

	"github.com/redis/go-redis/v9"
	redisc "github.com/valkgeo/EventQ/internal/redis"
)

// Client -> server message types.
const (
	TypeRoomWatch   = "room.watch"
	TypeRoomUnwatch = "room.unwatch"
	TypePing        = "ping"
)

// Server -> client message types.
const (
	TypeRoomSnapshot = "room.snapshot"
	TypeRoomDeleted  = "room.deleted"
	TypeError        = "error"
	TypePong         = "pong"
)

// Store change events carried over Redis pub/sub. The hub only needs to
// know which room changed; every notification triggers a full snapshot
// recompute, so event payloads stay minimal and ordering across rooms is
// irrelevant.
const (
	EventRoomUpdated       = "room.updated"
	EventRoomDeleted       = "room.deleted"
	EventModeratorsChanged = "moderators.changed"
	EventHistoryCleared    = "history.cleared"
	EventQuestionsChanged  = "questions.changed"
)

type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type WatchPayload struct {
	RoomID string `json:"room_id"`
	Filter string `json:"filter,omitempty"`
}

type RoomDeletedPayload struct {
	RoomID string `json:"room_id"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type RoomEvent struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

func NewWSMessage(msgType string, payload interface{}) ([]byte, error) {
	var p json.RawMessage
	if payload != nil {
		var err error
		p, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	msg := WSMessage{Type: msgType, Payload: p}
	return json.Marshal(msg)
}

// PublishEvent notifies every hub instance that a room changed.
func PublishEvent(client *redis.Client, eventType, roomID string) error {
	data, err := json.Marshal(RoomEvent{Type: eventType, RoomID: roomID})
	if err != nil {
		return err
	}
	return redisc.PublishRoomEvent(client, roomID, data)
}

package models

import "time"

const (
	AuditModeratorAdded   = "added"
	AuditModeratorRemoved = "removed"
)

// AuditEntry is one immutable line of a room's moderation history.
// ActorEmail is nil when the acting user could not be identified.
type AuditEntry struct {
	ID          int64     `json:"id"`
	RoomID      string    `json:"room_id"`
	Type        string    `json:"type"`
	ActorEmail  *string   `json:"actor_email,omitempty"`
	TargetEmail string    `json:"target_email"`
	CreatedAt   time.Time `json:"created_at"`
}

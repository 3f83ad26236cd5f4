package models

import "time"

const (
	QuestionPending  = "pending"
	QuestionAccepted = "accepted"
	QuestionRejected = "rejected"
)

type Question struct {
	ID              string     `json:"id"`
	RoomID          string     `json:"room_id"`
	Text            string     `json:"text"`
	ParticipantID   string     `json:"participant_id"`
	ParticipantName string     `json:"participant_name"`
	IsAnonymous     bool       `json:"is_anonymous"`
	Status          string     `json:"status"`
	Highlighted     bool       `json:"highlighted"`
	HighlightedAt   *time.Time `json:"highlighted_at,omitempty"`
	LikeCount       int        `json:"like_count"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func ValidQuestionStatus(s string) bool {
	switch s {
	case QuestionPending, QuestionAccepted, QuestionRejected:
		return true
	}
	return false
}

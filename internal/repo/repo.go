package repo

import (
	"context"

	"github.com/valkgeo/EventQ/internal/models"
)

// RoomRepo persists rooms, their moderator set, and the moderation log.
// The moderator mutations are atomic: the set change and its audit entry
// commit together or not at all. A false first return value means the
// mutation was a no-op (target already present / already absent) and no
// audit entry was written.
type RoomRepo interface {
	CreateRoom(ctx context.Context, room models.Room, moderatorEmails []string) error
	RoomExists(ctx context.Context, id string) (bool, error)
	GetRoom(ctx context.Context, id string) (*models.Room, error)
	UpdateRoomSettings(ctx context.Context, id, title string, manageModerators, deleteRoom bool) error
	DeleteRoomWithQuestions(ctx context.Context, id string) error
	ListRoomsByMembership(ctx context.Context, email string) ([]models.Room, error)

	AddModerator(ctx context.Context, roomID, targetEmail string, actorEmail *string) (bool, error)
	RemoveModerator(ctx context.Context, roomID, targetEmail string, actorEmail *string) (bool, error)
	ModerationHistory(ctx context.Context, roomID string, limit int) ([]models.AuditEntry, error)
	ClearModerationHistory(ctx context.Context, roomID string) error
}

type QuestionRepo interface {
	CreateQuestion(ctx context.Context, q models.Question) (*models.Question, error)
	GetQuestion(ctx context.Context, id string) (*models.Question, error)
	ListQuestions(ctx context.Context, roomID string) ([]models.Question, error)
	UpdateQuestionStatus(ctx context.Context, id, status string) error
	SetHighlight(ctx context.Context, id string, highlighted bool) error
	BulkSetStatus(ctx context.Context, roomID, status string) (int64, error)
	ToggleLike(ctx context.Context, questionID, participantID string) (liked bool, likeCount int, err error)
	DeleteQuestion(ctx context.Context, id string) error
	DeleteRoomQuestions(ctx context.Context, roomID string) error
}

type ProfileRepo interface {
	GetProfile(ctx context.Context, email string) (*models.Profile, error)
	UpsertProfile(ctx context.Context, p models.Profile) error
}

type UserRepo interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

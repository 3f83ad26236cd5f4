package live

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valkgeo/EventQ/internal/models"
)

func viewRoom() *models.Room {
	return &models.Room{
		ID:                             "abc12345",
		Title:                          "Town Hall",
		OrganizationEmail:              "alice@x.com",
		AllowedEmails:                  []string{"alice@x.com", "bob@x.com"},
		AllowModeratorManageModerators: true,
		AllowModeratorDeleteRoom:       true,
	}
}

func viewQuestions() []models.Question {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	return []models.Question{
		{ID: "q1", RoomID: "abc12345", Status: models.QuestionPending, ParticipantID: "p-1", CreatedAt: base},
		{ID: "q2", RoomID: "abc12345", Status: models.QuestionAccepted, ParticipantID: "p-2", CreatedAt: base.Add(time.Minute)},
		{ID: "q3", RoomID: "abc12345", Status: models.QuestionAccepted, Highlighted: true, ParticipantID: "p-3", CreatedAt: base.Add(2 * time.Minute)},
		{ID: "q4", RoomID: "abc12345", Status: models.QuestionRejected, ParticipantID: "p-1", CreatedAt: base.Add(3 * time.Minute)},
	}
}

func TestBuildRoomView_ModeratorCountsAndFilter(t *testing.T) {
	view := BuildRoomView(viewRoom(), viewQuestions(), nil, "bob@x.com", "", FilterAll, 0)

	assert.Equal(t, "moderator", view.Role)
	assert.True(t, view.CanManageModerators)
	assert.True(t, view.CanDeleteRoom)
	assert.Equal(t, QuestionCounts{Pending: 1, Accepted: 2, Rejected: 1, Total: 4}, view.Counts)
	assert.Len(t, view.Questions, 4)

	pending := BuildRoomView(viewRoom(), viewQuestions(), nil, "bob@x.com", "", FilterPending, 0)
	require.Len(t, pending.Questions, 1)
	assert.Equal(t, "q1", pending.Questions[0].ID)
}

func TestBuildRoomView_NewestFirst(t *testing.T) {
	view := BuildRoomView(viewRoom(), viewQuestions(), nil, "alice@x.com", "", FilterAll, 0)
	require.Len(t, view.Questions, 4)
	assert.Equal(t, "q4", view.Questions[0].ID)
	assert.Equal(t, "q1", view.Questions[3].ID)
}

func TestBuildRoomView_ParticipantSurface(t *testing.T) {
	// p-1's pending/rejected questions are visible to p-1 alongside all
	// accepted ones; moderation history is withheld.
	history := []models.AuditEntry{{ID: 1, RoomID: "abc12345", Type: models.AuditModeratorAdded, TargetEmail: "bob@x.com"}}
	view := BuildRoomView(viewRoom(), viewQuestions(), history, "", "p-1", FilterAll, 3)

	assert.Equal(t, "participant", view.Role)
	assert.False(t, view.CanManageModerators)
	assert.False(t, view.CanDeleteRoom)
	assert.Empty(t, view.History)
	assert.Equal(t, int64(3), view.ViewerCount)

	ids := make([]string, 0, len(view.Questions))
	for _, q := range view.Questions {
		ids = append(ids, q.ID)
	}
	assert.ElementsMatch(t, []string{"q1", "q2", "q3", "q4"}, ids)

	other := BuildRoomView(viewRoom(), viewQuestions(), history, "", "p-9", FilterAll, 3)
	ids = ids[:0]
	for _, q := range other.Questions {
		ids = append(ids, q.ID)
	}
	assert.ElementsMatch(t, []string{"q2", "q3"}, ids, "strangers see accepted questions only")
}

func TestBuildRoomView_NonMemberIsParticipant(t *testing.T) {
	view := BuildRoomView(viewRoom(), viewQuestions(), nil, "stranger@x.com", "", FilterAll, 0)
	assert.Equal(t, "participant", view.Role)
	assert.Empty(t, view.History)
}

func TestBuildRoomView_Highlighted(t *testing.T) {
	view := BuildRoomView(viewRoom(), viewQuestions(), nil, "", "p-9", FilterAll, 0)
	require.Len(t, view.Highlighted, 1)
	assert.Equal(t, "q3", view.Highlighted[0].ID)
}

func TestBuildRoomView_HistoryForModerators(t *testing.T) {
	history := []models.AuditEntry{
		{ID: 2, RoomID: "abc12345", Type: models.AuditModeratorRemoved, TargetEmail: "carol@x.com"},
		{ID: 1, RoomID: "abc12345", Type: models.AuditModeratorAdded, TargetEmail: "carol@x.com"},
	}
	view := BuildRoomView(viewRoom(), viewQuestions(), history, "alice@x.com", "", FilterAll, 0)
	require.Len(t, view.History, 2)
	assert.Equal(t, models.AuditModeratorRemoved, view.History[0].Type)
}

func TestBuildRoomView_Idempotent(t *testing.T) {
	// Recomputing from the same snapshot must give an identical view no
	// matter how many notifications triggered it.
	a := BuildRoomView(viewRoom(), viewQuestions(), nil, "bob@x.com", "", FilterPending, 2)
	b := BuildRoomView(viewRoom(), viewQuestions(), nil, "bob@x.com", "", FilterPending, 2)
	assert.Equal(t, a, b)
}

func TestBuildRoomView_InputNotMutated(t *testing.T) {
	questions := viewQuestions()
	BuildRoomView(viewRoom(), questions, nil, "alice@x.com", "", FilterAll, 0)
	assert.Equal(t, "q1", questions[0].ID, "sorting must not reorder the caller's slice")
}

func TestBuildRoomView_FlagGatedPermissions(t *testing.T) {
	room := viewRoom()
	room.AllowModeratorManageModerators = false
	room.AllowModeratorDeleteRoom = false

	mod := BuildRoomView(room, nil, nil, "bob@x.com", "", FilterAll, 0)
	assert.False(t, mod.CanManageModerators)
	assert.False(t, mod.CanDeleteRoom)

	owner := BuildRoomView(room, nil, nil, "alice@x.com", "", FilterAll, 0)
	assert.True(t, owner.CanManageModerators)
	assert.True(t, owner.CanDeleteRoom)
}

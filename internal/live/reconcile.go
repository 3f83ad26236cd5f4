package live

import (
	"sort"

	"github.com/valkgeo/EventQ/internal/models"
	"github.com/valkgeo/EventQ/internal/rooms"
)

// Filter options a moderator view can select.
const (
	FilterAll      = "all"
	FilterPending  = "pending"
	FilterAccepted = "accepted"
	FilterRejected = "rejected"
)

type QuestionCounts struct {
	Pending  int `json:"pending"`
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
	Total    int `json:"total"`
}

// RoomView is the full derived state a connected client renders. It is
// recomputed from a complete snapshot on every change notification; views
// are never patched incrementally.
type RoomView struct {
	Room                *models.Room        `json:"room"`
	Role                string              `json:"role"`
	CanManageModerators bool                `json:"can_manage_moderators"`
	CanDeleteRoom       bool                `json:"can_delete_room"`
	Counts              QuestionCounts      `json:"counts"`
	Filter              string              `json:"filter"`
	Questions           []models.Question   `json:"questions"`
	Highlighted         []models.Question   `json:"highlighted"`
	History             []models.AuditEntry `json:"history,omitempty"`
	ViewerCount         int64               `json:"viewer_count"`
}

// BuildRoomView computes a viewer's derived state for one room. Pure:
// identical inputs always yield identical views, so recomputing on every
// notification is safe regardless of delivery order.
//
// Moderators and the owner see every question through the selected filter
// and the moderation history. Everyone else gets the participant surface:
// accepted questions, plus their own submissions whatever the status.
func BuildRoomView(room *models.Room, questions []models.Question, history []models.AuditEntry,
	viewerEmail, viewerParticipantID, filter string, viewerCount int64) RoomView {

	role := rooms.ResolveRole(viewerEmail, room)
	if !rooms.CanModerate(role) {
		role = rooms.RoleParticipant
	}

	sorted := make([]models.Question, len(questions))
	copy(sorted, questions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	var counts QuestionCounts
	for _, q := range sorted {
		switch q.Status {
		case models.QuestionPending:
			counts.Pending++
		case models.QuestionAccepted:
			counts.Accepted++
		case models.QuestionRejected:
			counts.Rejected++
		}
	}
	counts.Total = len(sorted)

	view := RoomView{
		Room:                room,
		Role:                role.String(),
		CanManageModerators: rooms.CanManageModerators(role, room),
		CanDeleteRoom:       rooms.CanDeleteRoom(role, room),
		Counts:              counts,
		Filter:              filter,
		ViewerCount:         viewerCount,
	}

	if rooms.CanModerate(role) {
		view.Questions = filterQuestions(sorted, filter)
		view.History = history
	} else {
		view.Questions = participantQuestions(sorted, viewerParticipantID)
	}
	view.Highlighted = highlightedQuestions(sorted)
	return view
}

func filterQuestions(questions []models.Question, filter string) []models.Question {
	if filter == "" || filter == FilterAll {
		return questions
	}
	out := []models.Question{}
	for _, q := range questions {
		if q.Status == filter {
			out = append(out, q)
		}
	}
	return out
}

func participantQuestions(questions []models.Question, participantID string) []models.Question {
	out := []models.Question{}
	for _, q := range questions {
		if q.Status == models.QuestionAccepted || (participantID != "" && q.ParticipantID == participantID) {
			out = append(out, q)
		}
	}
	return out
}

func highlightedQuestions(questions []models.Question) []models.Question {
	out := []models.Question{}
	for _, q := range questions {
		if q.Highlighted && q.Status == models.QuestionAccepted {
			out = append(out, q)
		}
	}
	return out
}

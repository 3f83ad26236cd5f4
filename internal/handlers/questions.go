package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/valkgeo/EventQ/internal/auth"
	"github.com/valkgeo/EventQ/internal/live"
	"github.com/valkgeo/EventQ/internal/models"
	"github.com/valkgeo/EventQ/internal/repo"
	"github.com/valkgeo/EventQ/internal/rooms"
)

const maxQuestionLength = 500

// moderatorGate loads the room and admits only owner/moderator sessions.
func moderatorGate(svc *rooms.Service, w http.ResponseWriter, r *http.Request) (*auth.Claims, *models.Room, bool) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing session")
		return nil, nil, false
	}
	roomID := mux.Vars(r)["id"]
	room, err := svc.GetRoom(r.Context(), roomID)
	if err != nil {
		slog.Error("failed to get room", "room_id", roomID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil, nil, false
	}
	if room == nil {
		writeError(w, http.StatusNotFound, "room not found")
		return nil, nil, false
	}
	if !rooms.CanModerate(rooms.ResolveRole(claims.Email, room)) {
		writeError(w, http.StatusForbidden, "insufficient role for this room")
		return nil, nil, false
	}
	return claims, room, true
}

func SubmitQuestion(svc *rooms.Service, questions repo.QuestionRepo, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := auth.ClaimsFromContext(r.Context())
		if claims == nil {
			writeError(w, http.StatusUnauthorized, "missing session")
			return
		}
		roomID := mux.Vars(r)["id"]

		var req struct {
			Text            string `json:"text"`
			ParticipantName string `json:"participant_name"`
			IsAnonymous     bool   `json:"is_anonymous"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Text = strings.TrimSpace(req.Text)
		if req.Text == "" {
			writeError(w, http.StatusBadRequest, "text is required")
			return
		}
		if len(req.Text) > maxQuestionLength {
			writeError(w, http.StatusBadRequest, "question is too long")
			return
		}

		room, err := svc.GetRoom(r.Context(), roomID)
		if err != nil {
			slog.Error("failed to get room", "room_id", roomID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if room == nil {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}

		name := strings.TrimSpace(req.ParticipantName)
		if req.IsAnonymous {
			name = ""
		}
		question, err := questions.CreateQuestion(r.Context(), models.Question{
			RoomID:          roomID,
			Text:            req.Text,
			ParticipantID:   claims.UserID,
			ParticipantName: name,
			IsAnonymous:     req.IsAnonymous,
		})
		if err != nil {
			slog.Error("failed to create question", "room_id", roomID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		publish(rdb, live.EventQuestionsChanged, roomID)
		writeJSON(w, http.StatusCreated, question)
	}
}

func ListQuestions(svc *rooms.Service, questions repo.QuestionRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := auth.ClaimsFromContext(r.Context())
		if claims == nil {
			writeError(w, http.StatusUnauthorized, "missing session")
			return
		}
		roomID := mux.Vars(r)["id"]

		room, err := svc.GetRoom(r.Context(), roomID)
		if err != nil {
			slog.Error("failed to get room", "room_id", roomID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if room == nil {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}

		all, err := questions.ListQuestions(r.Context(), roomID)
		if err != nil {
			slog.Error("failed to list questions", "room_id", roomID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if rooms.CanModerate(rooms.ResolveRole(claims.Email, room)) {
			writeJSON(w, http.StatusOK, all)
			return
		}

		// Participants see accepted questions plus their own submissions.
		visible := []models.Question{}
		for _, q := range all {
			if q.Status == models.QuestionAccepted || q.ParticipantID == claims.UserID {
				visible = append(visible, q)
			}
		}
		writeJSON(w, http.StatusOK, visible)
	}
}

func UpdateQuestionStatus(svc *rooms.Service, questions repo.QuestionRepo, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, room, ok := moderatorGate(svc, w, r)
		if !ok {
			return
		}
		questionID := mux.Vars(r)["qid"]

		var req struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !models.ValidQuestionStatus(req.Status) {
			writeError(w, http.StatusBadRequest, "status must be pending, accepted, or rejected")
			return
		}

		question, err := questions.GetQuestion(r.Context(), questionID)
		if err != nil {
			slog.Error("failed to get question", "question_id", questionID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if question == nil || question.RoomID != room.ID {
			writeError(w, http.StatusNotFound, "question not found")
			return
		}

		if err := questions.UpdateQuestionStatus(r.Context(), questionID, req.Status); err != nil {
			slog.Error("failed to update question status", "question_id", questionID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		publish(rdb, live.EventQuestionsChanged, room.ID)
		writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
	}
}

func ToggleHighlight(svc *rooms.Service, questions repo.QuestionRepo, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, room, ok := moderatorGate(svc, w, r)
		if !ok {
			return
		}
		questionID := mux.Vars(r)["qid"]

		question, err := questions.GetQuestion(r.Context(), questionID)
		if err != nil {
			slog.Error("failed to get question", "question_id", questionID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if question == nil || question.RoomID != room.ID {
			writeError(w, http.StatusNotFound, "question not found")
			return
		}

		if err := questions.SetHighlight(r.Context(), questionID, !question.Highlighted); err != nil {
			slog.Error("failed to toggle highlight", "question_id", questionID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		publish(rdb, live.EventQuestionsChanged, room.ID)
		writeJSON(w, http.StatusOK, map[string]bool{"highlighted": !question.Highlighted})
	}
}

func BulkSetStatus(svc *rooms.Service, questions repo.QuestionRepo, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, room, ok := moderatorGate(svc, w, r)
		if !ok {
			return
		}

		var req struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
			(req.Status != models.QuestionAccepted && req.Status != models.QuestionRejected) {
			writeError(w, http.StatusBadRequest, "status must be accepted or rejected")
			return
		}

		updated, err := questions.BulkSetStatus(r.Context(), room.ID, req.Status)
		if err != nil {
			slog.Error("failed to bulk update questions", "room_id", room.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		publish(rdb, live.EventQuestionsChanged, room.ID)
		writeJSON(w, http.StatusOK, map[string]int64{"updated": updated})
	}
}

func ToggleLike(svc *rooms.Service, questions repo.QuestionRepo, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := auth.ClaimsFromContext(r.Context())
		if claims == nil {
			writeError(w, http.StatusUnauthorized, "missing session")
			return
		}
		vars := mux.Vars(r)
		roomID, questionID := vars["id"], vars["qid"]

		question, err := questions.GetQuestion(r.Context(), questionID)
		if err != nil {
			slog.Error("failed to get question", "question_id", questionID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if question == nil || question.RoomID != roomID {
			writeError(w, http.StatusNotFound, "question not found")
			return
		}

		liked, count, err := questions.ToggleLike(r.Context(), questionID, claims.UserID)
		if err != nil {
			slog.Error("failed to toggle like", "question_id", questionID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		publish(rdb, live.EventQuestionsChanged, roomID)
		writeJSON(w, http.StatusOK, map[string]interface{}{"liked": liked, "like_count": count})
	}
}

func DeleteQuestion(svc *rooms.Service, questions repo.QuestionRepo, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := auth.ClaimsFromContext(r.Context())
		if claims == nil {
			writeError(w, http.StatusUnauthorized, "missing session")
			return
		}
		vars := mux.Vars(r)
		roomID, questionID := vars["id"], vars["qid"]

		room, err := svc.GetRoom(r.Context(), roomID)
		if err != nil {
			slog.Error("failed to get room", "room_id", roomID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if room == nil {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}

		question, err := questions.GetQuestion(r.Context(), questionID)
		if err != nil {
			slog.Error("failed to get question", "question_id", questionID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if question == nil || question.RoomID != roomID {
			writeError(w, http.StatusNotFound, "question not found")
			return
		}

		isOwnQuestion := question.ParticipantID == claims.UserID
		if !isOwnQuestion && !rooms.CanModerate(rooms.ResolveRole(claims.Email, room)) {
			writeError(w, http.StatusForbidden, "you may only delete your own questions")
			return
		}

		if err := questions.DeleteQuestion(r.Context(), questionID); err != nil {
			slog.Error("failed to delete question", "question_id", questionID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		publish(rdb, live.EventQuestionsChanged, roomID)
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func ClearQuestions(svc *rooms.Service, questions repo.QuestionRepo, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, room, ok := moderatorGate(svc, w, r)
		if !ok {
			return
		}

		if err := questions.DeleteRoomQuestions(r.Context(), room.ID); err != nil {
			slog.Error("failed to clear questions", "room_id", room.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		publish(rdb, live.EventQuestionsChanged, room.ID)
		writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
	}
}

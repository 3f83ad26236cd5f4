package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/valkgeo/EventQ/internal/live"
	"github.com/valkgeo/EventQ/internal/rooms"
)

type outcomeResponse struct {
	Outcome rooms.Outcome `json:"outcome"`
}

// outcomeStatus maps each mutation outcome to its HTTP status. Every call
// yields exactly one of these; rejections are explained per-outcome rather
// than as generic failures.
func outcomeStatus(outcome rooms.Outcome) int {
	switch outcome {
	case rooms.OutcomeAdded, rooms.OutcomeRemoved, rooms.OutcomeNotMember:
		return http.StatusOK
	case rooms.OutcomeAlreadyMember, rooms.OutcomeOptedOut, rooms.OutcomeOwnerImmutable:
		return http.StatusConflict
	case rooms.OutcomeUnauthorized:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

func AddModerator(svc *rooms.Service, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireEmail(w, r)
		if !ok {
			return
		}
		roomID := mux.Vars(r)["id"]

		var req struct {
			Email string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
			writeError(w, http.StatusBadRequest, "email is required")
			return
		}

		outcome, err := svc.AddModerator(r.Context(), roomID, req.Email, claims.Email)
		if err != nil {
			respondRoomError(w, err)
			return
		}

		if outcome == rooms.OutcomeAdded {
			publish(rdb, live.EventModeratorsChanged, roomID)
		}
		writeJSON(w, outcomeStatus(outcome), outcomeResponse{Outcome: outcome})
	}
}

func RemoveModerator(svc *rooms.Service, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireEmail(w, r)
		if !ok {
			return
		}
		vars := mux.Vars(r)
		roomID, email := vars["id"], vars["email"]

		outcome, err := svc.RemoveModerator(r.Context(), roomID, email, claims.Email)
		if err != nil {
			respondRoomError(w, err)
			return
		}

		if outcome == rooms.OutcomeRemoved {
			publish(rdb, live.EventModeratorsChanged, roomID)
		}
		writeJSON(w, outcomeStatus(outcome), outcomeResponse{Outcome: outcome})
	}
}

func ModerationHistory(svc *rooms.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireEmail(w, r)
		if !ok {
			return
		}
		roomID := mux.Vars(r)["id"]

		entries, err := svc.History(r.Context(), roomID, claims.Email)
		if err != nil {
			respondRoomError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func ClearModerationHistory(svc *rooms.Service, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireEmail(w, r)
		if !ok {
			return
		}
		roomID := mux.Vars(r)["id"]

		if err := svc.ClearHistory(r.Context(), roomID, claims.Email); err != nil {
			respondRoomError(w, err)
			return
		}

		slog.Info("moderation history cleared", "room_id", roomID, "actor", claims.Email)
		publish(rdb, live.EventHistoryCleared, roomID)
		writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
	}
}

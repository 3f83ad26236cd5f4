package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/valkgeo/EventQ/internal/auth"
	"github.com/valkgeo/EventQ/internal/live"
	"github.com/valkgeo/EventQ/internal/rooms"
)

// requireEmail rejects anonymous sessions on organizer/moderator surfaces.
func requireEmail(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing session")
		return nil, false
	}
	if claims.IsAnonymous || claims.Email == "" {
		writeError(w, http.StatusForbidden, "an organizer account is required")
		return nil, false
	}
	return claims, true
}

func publish(rdb *redis.Client, eventType, roomID string) {
	if err := live.PublishEvent(rdb, eventType, roomID); err != nil {
		slog.Error("failed to publish room event", "room_id", roomID, "type", eventType, "error", err)
	}
}

func ListRooms(svc *rooms.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireEmail(w, r)
		if !ok {
			return
		}
		list, err := svc.ListRoomsByMembership(r.Context(), claims.Email)
		if err != nil {
			slog.Error("failed to list rooms", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func CreateRoom(svc *rooms.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireEmail(w, r)
		if !ok {
			return
		}

		var req struct {
			Title            string   `json:"title"`
			OrganizationName string   `json:"organization_name"`
			ModeratorEmails  []string `json:"moderator_emails"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Title == "" {
			writeError(w, http.StatusBadRequest, "title is required")
			return
		}

		roomID, err := svc.CreateRoom(r.Context(), req.Title, req.OrganizationName, claims.Email, req.ModeratorEmails, claims.UserID)
		if err != nil {
			slog.Error("failed to create room", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, map[string]string{"id": roomID})
	}
}

func GetRoom(svc *rooms.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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
		writeJSON(w, http.StatusOK, room)
	}
}

func UpdateRoomSettings(svc *rooms.Service, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireEmail(w, r)
		if !ok {
			return
		}
		roomID := mux.Vars(r)["id"]

		var req struct {
			Title                          string `json:"title"`
			AllowModeratorManageModerators *bool  `json:"allow_moderator_manage_moderators"`
			AllowModeratorDeleteRoom       *bool  `json:"allow_moderator_delete_room"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
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

		title := room.Title
		if req.Title != "" {
			title = req.Title
		}
		manage := room.AllowModeratorManageModerators
		if req.AllowModeratorManageModerators != nil {
			manage = *req.AllowModeratorManageModerators
		}
		del := room.AllowModeratorDeleteRoom
		if req.AllowModeratorDeleteRoom != nil {
			del = *req.AllowModeratorDeleteRoom
		}

		if err := svc.UpdateSettings(r.Context(), roomID, claims.Email, title, manage, del); err != nil {
			respondRoomError(w, err)
			return
		}

		publish(rdb, live.EventRoomUpdated, roomID)
		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	}
}

func DeleteRoom(svc *rooms.Service, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireEmail(w, r)
		if !ok {
			return
		}
		roomID := mux.Vars(r)["id"]

		if err := svc.DeleteRoom(r.Context(), roomID, claims.Email); err != nil {
			respondRoomError(w, err)
			return
		}

		publish(rdb, live.EventRoomDeleted, roomID)
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func respondRoomError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rooms.ErrRoomNotFound):
		writeError(w, http.StatusNotFound, "room not found")
	case errors.Is(err, rooms.ErrNotAllowed):
		writeError(w, http.StatusForbidden, "insufficient role for this room")
	default:
		slog.Error("room operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

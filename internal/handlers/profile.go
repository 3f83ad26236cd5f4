package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/valkgeo/EventQ/internal/models"
	"github.com/valkgeo/EventQ/internal/repo"
	"github.com/valkgeo/EventQ/internal/rooms"
)

func GetProfile(profiles repo.ProfileRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireEmail(w, r)
		if !ok {
			return
		}

		profile, err := profiles.GetProfile(r.Context(), rooms.NormalizeEmail(claims.Email))
		if err != nil {
			slog.Error("failed to get profile", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if profile == nil {
			// Unset preference means invites are accepted.
			accept := true
			profile = &models.Profile{
				Email:                  rooms.NormalizeEmail(claims.Email),
				AcceptModeratorInvites: &accept,
			}
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

func UpdateProfile(profiles repo.ProfileRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireEmail(w, r)
		if !ok {
			return
		}

		var req struct {
			AcceptModeratorInvites *bool `json:"accept_moderator_invites"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AcceptModeratorInvites == nil {
			writeError(w, http.StatusBadRequest, "accept_moderator_invites is required")
			return
		}

		err := profiles.UpsertProfile(r.Context(), models.Profile{
			Email:                  rooms.NormalizeEmail(claims.Email),
			AcceptModeratorInvites: req.AcceptModeratorInvites,
		})
		if err != nil {
			slog.Error("failed to update profile", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	}
}

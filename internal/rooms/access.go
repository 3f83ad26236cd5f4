package rooms

import (
	"strings"

	"github.com/valkgeo/EventQ/internal/models"
)

// Role is a user's relationship to a single room. Owner and Moderator are
// mutually exclusive by construction: the organization email resolves to
// Owner before the allowed set is consulted.
type Role int

const (
	// RoleUnauthorized is what non-members resolve to on protected
	// surfaces.
	RoleUnauthorized Role = iota
	// RoleParticipant is assigned by question-submission surfaces, which
	// do not require allow-listing; ResolveRole never grants it from the
	// allowed set.
	RoleParticipant
	RoleModerator
	RoleOwner
)

func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleModerator:
		return "moderator"
	case RoleParticipant:
		return "participant"
	}
	return "unauthorized"
}

// NormalizeEmail is the single canonical form for every email comparison
// in the moderation model.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ResolveRole computes the role of email for room. Pure; comparisons are
// case-insensitive. Anonymous identities (empty email) never resolve above
// Unauthorized.
func ResolveRole(email string, room *models.Room) Role {
	emailLower := NormalizeEmail(email)
	if emailLower == "" {
		return RoleUnauthorized
	}
	if emailLower == NormalizeEmail(room.OrganizationEmail) {
		return RoleOwner
	}
	if room.IsAllowed(emailLower) {
		return RoleModerator
	}
	return RoleUnauthorized
}

// CanModerate reports whether the role grants access to the moderation
// surface at all.
func CanModerate(role Role) bool {
	return role == RoleOwner || role == RoleModerator
}

// CanManageModerators gates mutation of the allowed set. Moderators hold it
// unless the owner flipped the room flag off.
func CanManageModerators(role Role, room *models.Room) bool {
	if role == RoleOwner {
		return true
	}
	return role == RoleModerator && room.AllowModeratorManageModerators
}

// CanDeleteRoom gates room deletion the same way.
func CanDeleteRoom(role Role, room *models.Room) bool {
	if role == RoleOwner {
		return true
	}
	return role == RoleModerator && room.AllowModeratorDeleteRoom
}

package models

import "time"

const RoomStatusActive = "active"

type Room struct {
	ID                             string    `json:"id"`
	Title                          string    `json:"title"`
	OrganizationName               string    `json:"organization_name"`
	OrganizationEmail              string    `json:"organization_email"`
	AllowedEmails                  []string  `json:"allowed_emails"`
	AllowModeratorManageModerators bool      `json:"allow_moderator_manage_moderators"`
	AllowModeratorDeleteRoom       bool      `json:"allow_moderator_delete_room"`
	Status                         string    `json:"status"`
	CreatedBy                      string    `json:"created_by"`
	CreatedAt                      time.Time `json:"created_at"`
}

// IsAllowed reports whether the lower-cased email is in the room's allowed
// set. The set always includes the organization email.
func (r *Room) IsAllowed(emailLower string) bool {
	for _, e := range r.AllowedEmails {
		if e == emailLower {
			return true
		}
	}
	return false
}

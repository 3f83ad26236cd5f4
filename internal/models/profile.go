package models

import "time"

// Profile carries a user's moderator-invite preference, keyed by
// lower-cased email. AcceptModeratorInvites defaults to true when unset;
// BlockModeratorInvites is the legacy inverse flag still honored on read.
type Profile struct {
	Email                  string    `json:"email"`
	AcceptModeratorInvites *bool     `json:"accept_moderator_invites,omitempty"`
	BlockModeratorInvites  *bool     `json:"block_moderator_invites,omitempty"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// OptedOut reports whether the profile refuses moderator invites.
func (p *Profile) OptedOut() bool {
	if p == nil {
		return false
	}
	if p.BlockModeratorInvites != nil && *p.BlockModeratorInvites {
		return true
	}
	if p.AcceptModeratorInvites != nil && !*p.AcceptModeratorInvites {
		return true
	}
	return false
}

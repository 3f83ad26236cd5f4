package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func b(v bool) *bool { return &v }

func TestProfileOptedOut(t *testing.T) {
	tests := []struct {
		name    string
		profile *Profile
		want    bool
	}{
		{"no profile", nil, false},
		{"empty profile", &Profile{}, false},
		{"accept true", &Profile{AcceptModeratorInvites: b(true)}, false},
		{"accept false", &Profile{AcceptModeratorInvites: b(false)}, true},
		{"legacy block true", &Profile{BlockModeratorInvites: b(true)}, true},
		{"legacy block false", &Profile{BlockModeratorInvites: b(false)}, false},
		{"block wins over accept", &Profile{AcceptModeratorInvites: b(true), BlockModeratorInvites: b(true)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.profile.OptedOut())
		})
	}
}

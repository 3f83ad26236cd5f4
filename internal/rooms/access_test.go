package rooms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valkgeo/EventQ/internal/models"
)

func testRoom() *models.Room {
	return &models.Room{
		ID:                             "abc12345",
		Title:                          "Town Hall",
		OrganizationEmail:              "alice@x.com",
		AllowedEmails:                  []string{"alice@x.com", "bob@x.com"},
		AllowModeratorManageModerators: true,
		AllowModeratorDeleteRoom:       true,
	}
}

func TestResolveRole(t *testing.T) {
	room := testRoom()

	tests := []struct {
		name  string
		email string
		want  Role
	}{
		{"owner", "alice@x.com", RoleOwner},
		{"owner case-insensitive", "ALICE@X.COM", RoleOwner},
		{"owner with whitespace", "  alice@x.com ", RoleOwner},
		{"moderator", "bob@x.com", RoleModerator},
		{"moderator case-insensitive", "Bob@X.com", RoleModerator},
		{"non-member", "carol@x.com", RoleUnauthorized},
		{"anonymous", "", RoleUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveRole(tt.email, room))
		})
	}
}

func TestResolveRole_OwnerModeratorExclusive(t *testing.T) {
	// The owner email is present in the allowed set but must resolve to
	// Owner, never Moderator.
	room := testRoom()
	assert.Equal(t, RoleOwner, ResolveRole(room.OrganizationEmail, room))
}

func TestCanManageModerators(t *testing.T) {
	room := testRoom()

	assert.True(t, CanManageModerators(RoleOwner, room))
	assert.True(t, CanManageModerators(RoleModerator, room))
	assert.False(t, CanManageModerators(RoleParticipant, room))
	assert.False(t, CanManageModerators(RoleUnauthorized, room))

	room.AllowModeratorManageModerators = false
	assert.True(t, CanManageModerators(RoleOwner, room), "flag never restricts the owner")
	assert.False(t, CanManageModerators(RoleModerator, room))
}

func TestCanDeleteRoom(t *testing.T) {
	room := testRoom()

	assert.True(t, CanDeleteRoom(RoleOwner, room))
	assert.True(t, CanDeleteRoom(RoleModerator, room))
	assert.False(t, CanDeleteRoom(RoleParticipant, room))

	room.AllowModeratorDeleteRoom = false
	assert.True(t, CanDeleteRoom(RoleOwner, room))
	assert.False(t, CanDeleteRoom(RoleModerator, room))
}

func TestCanModerate(t *testing.T) {
	assert.True(t, CanModerate(RoleOwner))
	assert.True(t, CanModerate(RoleModerator))
	assert.False(t, CanModerate(RoleParticipant))
	assert.False(t, CanModerate(RoleUnauthorized))
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "owner", RoleOwner.String())
	assert.Equal(t, "moderator", RoleModerator.String())
	assert.Equal(t, "participant", RoleParticipant.String())
	assert.Equal(t, "unauthorized", RoleUnauthorized.String())
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "alice@x.com", NormalizeEmail(" Alice@X.Com "))
	assert.Equal(t, "", NormalizeEmail("   "))
}

package rooms

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valkgeo/EventQ/internal/models"
)

// fakeRoomRepo keeps rooms, moderator sets, and the moderation log in
// memory with the same contract as the postgres store: mutations are
// all-or-nothing and a no-op mutation appends nothing.
type fakeRoomRepo struct {
	rooms      map[string]*models.Room
	moderators map[string]map[string]bool
	log        map[string][]models.AuditEntry
	failWith   error
}

func newFakeRoomRepo() *fakeRoomRepo {
	return &fakeRoomRepo{
		rooms:      make(map[string]*models.Room),
		moderators: make(map[string]map[string]bool),
		log:        make(map[string][]models.AuditEntry),
	}
}

func (f *fakeRoomRepo) CreateRoom(_ context.Context, room models.Room, moderatorEmails []string) error {
	if f.failWith != nil {
		return f.failWith
	}
	r := room
	f.rooms[room.ID] = &r
	f.moderators[room.ID] = make(map[string]bool)
	for _, email := range moderatorEmails {
		f.moderators[room.ID][email] = true
	}
	return nil
}

func (f *fakeRoomRepo) RoomExists(_ context.Context, id string) (bool, error) {
	_, ok := f.rooms[id]
	return ok, nil
}

func (f *fakeRoomRepo) GetRoom(_ context.Context, id string) (*models.Room, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	room, ok := f.rooms[id]
	if !ok {
		return nil, nil
	}
	out := *room
	emails := []string{room.OrganizationEmail}
	mods := make([]string, 0, len(f.moderators[id]))
	for email := range f.moderators[id] {
		mods = append(mods, email)
	}
	sort.Strings(mods)
	out.AllowedEmails = append(emails, mods...)
	return &out, nil
}

func (f *fakeRoomRepo) UpdateRoomSettings(_ context.Context, id, title string, manage, del bool) error {
	room, ok := f.rooms[id]
	if !ok {
		return errors.New("missing room")
	}
	room.Title = title
	room.AllowModeratorManageModerators = manage
	room.AllowModeratorDeleteRoom = del
	return nil
}

func (f *fakeRoomRepo) DeleteRoomWithQuestions(_ context.Context, id string) error {
	delete(f.rooms, id)
	delete(f.moderators, id)
	delete(f.log, id)
	return nil
}

func (f *fakeRoomRepo) ListRoomsByMembership(ctx context.Context, email string) ([]models.Room, error) {
	var out []models.Room
	for id := range f.rooms {
		room, _ := f.GetRoom(ctx, id)
		if room.IsAllowed(email) {
			out = append(out, *room)
		}
	}
	return out, nil
}

func (f *fakeRoomRepo) AddModerator(_ context.Context, roomID, target string, actor *string) (bool, error) {
	if f.moderators[roomID][target] {
		return false, nil
	}
	f.moderators[roomID][target] = true
	f.appendAudit(roomID, models.AuditModeratorAdded, actor, target)
	return true, nil
}

func (f *fakeRoomRepo) RemoveModerator(_ context.Context, roomID, target string, actor *string) (bool, error) {
	if !f.moderators[roomID][target] {
		return false, nil
	}
	delete(f.moderators[roomID], target)
	f.appendAudit(roomID, models.AuditModeratorRemoved, actor, target)
	return true, nil
}

func (f *fakeRoomRepo) appendAudit(roomID, entryType string, actor *string, target string) {
	f.log[roomID] = append(f.log[roomID], models.AuditEntry{
		ID:          int64(len(f.log[roomID]) + 1),
		RoomID:      roomID,
		Type:        entryType,
		ActorEmail:  actor,
		TargetEmail: target,
		CreatedAt:   time.Now(),
	})
}

func (f *fakeRoomRepo) ModerationHistory(_ context.Context, roomID string, limit int) ([]models.AuditEntry, error) {
	entries := f.log[roomID]
	out := make([]models.AuditEntry, len(entries))
	copy(out, entries)
	// newest first, as the store returns them
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRoomRepo) ClearModerationHistory(_ context.Context, roomID string) error {
	f.log[roomID] = nil
	return nil
}

type fakeProfileRepo struct {
	profiles map[string]*models.Profile
	failWith error
}

func (f *fakeProfileRepo) GetProfile(_ context.Context, email string) (*models.Profile, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.profiles[email], nil
}

func (f *fakeProfileRepo) UpsertProfile(_ context.Context, p models.Profile) error {
	if f.profiles == nil {
		f.profiles = make(map[string]*models.Profile)
	}
	f.profiles[p.Email] = &p
	return nil
}

func boolPtr(b bool) *bool { return &b }

func newTestService(t *testing.T) (*Service, *fakeRoomRepo, *fakeProfileRepo, string) {
	t.Helper()
	roomRepo := newFakeRoomRepo()
	profileRepo := &fakeProfileRepo{profiles: make(map[string]*models.Profile)}
	svc := NewService(roomRepo, profileRepo, false)

	roomID, err := svc.CreateRoom(context.Background(), "Town Hall", "Acme", "alice@x.com", nil, "user-1")
	require.NoError(t, err)
	return svc, roomRepo, profileRepo, roomID
}

func TestCreateRoom(t *testing.T) {
	svc, repo, _, roomID := newTestService(t)

	assert.Len(t, roomID, 8)

	room, err := svc.GetRoom(context.Background(), roomID)
	require.NoError(t, err)
	require.NotNil(t, room)
	assert.Equal(t, "alice@x.com", room.OrganizationEmail)
	assert.Equal(t, []string{"alice@x.com"}, room.AllowedEmails)
	assert.True(t, room.AllowModeratorManageModerators, "moderators may manage moderators by default")
	assert.True(t, room.AllowModeratorDeleteRoom, "moderators may delete the room by default")
	assert.Equal(t, models.RoomStatusActive, room.Status)
	assert.Empty(t, repo.log[roomID], "creation writes an empty moderation log")
}

func TestCreateRoom_FiltersInitialModerators(t *testing.T) {
	roomRepo := newFakeRoomRepo()
	profileRepo := &fakeProfileRepo{profiles: map[string]*models.Profile{
		"optout@x.com": {Email: "optout@x.com", AcceptModeratorInvites: boolPtr(false)},
	}}
	svc := NewService(roomRepo, profileRepo, false)

	// Duplicates, mixed case, the owner herself, and an opted-out user
	// must all be filtered out of the initial set.
	roomID, err := svc.CreateRoom(context.Background(), "Town Hall", "Acme", "Alice@X.com",
		[]string{"Bob@X.com", "bob@x.com", "alice@x.com", "optout@x.com"}, "user-1")
	require.NoError(t, err)

	room, err := svc.GetRoom(context.Background(), roomID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice@x.com", "bob@x.com"}, room.AllowedEmails)
}

func TestResolveRole_NewRoom(t *testing.T) {
	svc, _, _, roomID := newTestService(t)
	room, err := svc.GetRoom(context.Background(), roomID)
	require.NoError(t, err)

	assert.Equal(t, RoleOwner, ResolveRole("alice@x.com", room))
	assert.Equal(t, RoleUnauthorized, ResolveRole("bob@x.com", room))
}

func TestAddModerator(t *testing.T) {
	svc, repo, _, roomID := newTestService(t)
	ctx := context.Background()

	outcome, err := svc.AddModerator(ctx, roomID, "Bob@X.com", "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdded, outcome)

	room, err := svc.GetRoom(ctx, roomID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice@x.com", "bob@x.com"}, room.AllowedEmails)
	assert.True(t, room.IsAllowed("alice@x.com"), "owner stays in the allowed set")

	require.Len(t, repo.log[roomID], 1)
	entry := repo.log[roomID][0]
	assert.Equal(t, models.AuditModeratorAdded, entry.Type)
	require.NotNil(t, entry.ActorEmail)
	assert.Equal(t, "alice@x.com", *entry.ActorEmail)
	assert.Equal(t, "bob@x.com", entry.TargetEmail)
}

func TestAddModerator_AlreadyMember(t *testing.T) {
	svc, repo, _, roomID := newTestService(t)
	ctx := context.Background()

	outcome, err := svc.AddModerator(ctx, roomID, "bob@x.com", "alice@x.com")
	require.NoError(t, err)
	require.Equal(t, OutcomeAdded, outcome)

	// Repeating the add changes nothing and appends nothing.
	outcome, err = svc.AddModerator(ctx, roomID, "BOB@x.com", "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyMember, outcome)

	room, _ := svc.GetRoom(ctx, roomID)
	assert.Equal(t, []string{"alice@x.com", "bob@x.com"}, room.AllowedEmails)
	assert.Len(t, repo.log[roomID], 1)
}

func TestAddModerator_OwnerIsAlreadyMember(t *testing.T) {
	svc, repo, _, roomID := newTestService(t)

	outcome, err := svc.AddModerator(context.Background(), roomID, "ALICE@x.com", "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyMember, outcome)
	assert.Empty(t, repo.log[roomID])
}

func TestAddModerator_OptedOut(t *testing.T) {
	svc, repo, profiles, roomID := newTestService(t)
	profiles.profiles["carol@x.com"] = &models.Profile{
		Email:                  "carol@x.com",
		AcceptModeratorInvites: boolPtr(false),
	}

	outcome, err := svc.AddModerator(context.Background(), roomID, "carol@x.com", "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, OutcomeOptedOut, outcome)

	room, _ := svc.GetRoom(context.Background(), roomID)
	assert.Equal(t, []string{"alice@x.com"}, room.AllowedEmails, "rejected add must not mutate the set")
	assert.Empty(t, repo.log[roomID], "rejected add must not append an audit entry")
}

func TestAddModerator_LegacyBlockFlag(t *testing.T) {
	svc, _, profiles, roomID := newTestService(t)
	profiles.profiles["carol@x.com"] = &models.Profile{
		Email:                 "carol@x.com",
		BlockModeratorInvites: boolPtr(true),
	}

	outcome, err := svc.AddModerator(context.Background(), roomID, "carol@x.com", "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, OutcomeOptedOut, outcome)
}

func TestAddModerator_OptOutLookupFailOpen(t *testing.T) {
	svc, _, profiles, roomID := newTestService(t)
	profiles.failWith = errors.New("profile store down")

	outcome, err := svc.AddModerator(context.Background(), roomID, "bob@x.com", "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdded, outcome, "lookup failure must not block the add by default")
}

func TestAddModerator_OptOutLookupStrict(t *testing.T) {
	svc, _, profiles, roomID := newTestService(t)
	svc.StrictOptOut = true
	profiles.failWith = errors.New("profile store down")

	_, err := svc.AddModerator(context.Background(), roomID, "bob@x.com", "alice@x.com")
	assert.Error(t, err)

	room, _ := svc.GetRoom(context.Background(), roomID)
	assert.Equal(t, []string{"alice@x.com"}, room.AllowedEmails)
}

func TestAddModerator_UnauthorizedActor(t *testing.T) {
	svc, repo, _, roomID := newTestService(t)

	outcome, err := svc.AddModerator(context.Background(), roomID, "dave@x.com", "mallory@x.com")
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnauthorized, outcome)
	assert.Empty(t, repo.log[roomID])
}

func TestAddModerator_ManageFlagOff(t *testing.T) {
	svc, _, _, roomID := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddModerator(ctx, roomID, "bob@x.com", "alice@x.com")
	require.NoError(t, err)

	// With the flag on, a moderator may add others.
	outcome, err := svc.AddModerator(ctx, roomID, "carol@x.com", "bob@x.com")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdded, outcome)

	// Once the owner turns it off, only the owner may.
	require.NoError(t, svc.UpdateSettings(ctx, roomID, "alice@x.com", "Town Hall", false, true))
	outcome, err = svc.AddModerator(ctx, roomID, "dave@x.com", "bob@x.com")
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnauthorized, outcome)

	outcome, err = svc.AddModerator(ctx, roomID, "dave@x.com", "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdded, outcome)
}

func TestAddModerator_RoomNotFound(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.AddModerator(context.Background(), "missing1", "bob@x.com", "alice@x.com")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRemoveModerator(t *testing.T) {
	svc, repo, _, roomID := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddModerator(ctx, roomID, "bob@x.com", "alice@x.com")
	require.NoError(t, err)

	outcome, err := svc.RemoveModerator(ctx, roomID, "bob@x.com", "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, OutcomeRemoved, outcome)

	room, _ := svc.GetRoom(ctx, roomID)
	assert.Equal(t, []string{"alice@x.com"}, room.AllowedEmails)

	require.Len(t, repo.log[roomID], 2)
	history, err := svc.History(ctx, roomID, "alice@x.com")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.AuditModeratorRemoved, history[0].Type, "most recent entry first")
	assert.Equal(t, "bob@x.com", history[0].TargetEmail)
}

func TestRemoveModerator_NotMemberIsNoOp(t *testing.T) {
	svc, repo, _, roomID := newTestService(t)

	outcome, err := svc.RemoveModerator(context.Background(), roomID, "ghost@x.com", "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotMember, outcome)
	assert.Empty(t, repo.log[roomID], "no-op removal appends nothing")
}

func TestRemoveModerator_OwnerImmutable(t *testing.T) {
	svc, repo, _, roomID := newTestService(t)

	outcome, err := svc.RemoveModerator(context.Background(), roomID, "alice@x.com", "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, OutcomeOwnerImmutable, outcome)

	room, _ := svc.GetRoom(context.Background(), roomID)
	assert.True(t, room.IsAllowed("alice@x.com"))
	assert.Empty(t, repo.log[roomID])
}

func TestAuditGrowsOnlyOnSuccess(t *testing.T) {
	svc, repo, profiles, roomID := newTestService(t)
	ctx := context.Background()
	profiles.profiles["optout@x.com"] = &models.Profile{
		Email:                  "optout@x.com",
		AcceptModeratorInvites: boolPtr(false),
	}

	calls := []func() (Outcome, error){
		func() (Outcome, error) { return svc.AddModerator(ctx, roomID, "bob@x.com", "alice@x.com") },      // added
		func() (Outcome, error) { return svc.AddModerator(ctx, roomID, "bob@x.com", "alice@x.com") },      // already member
		func() (Outcome, error) { return svc.AddModerator(ctx, roomID, "optout@x.com", "alice@x.com") },   // opted out
		func() (Outcome, error) { return svc.RemoveModerator(ctx, roomID, "ghost@x.com", "alice@x.com") }, // not member
		func() (Outcome, error) { return svc.RemoveModerator(ctx, roomID, "bob@x.com", "alice@x.com") },   // removed
	}
	successes := 0
	for _, call := range calls {
		outcome, err := call()
		require.NoError(t, err)
		if outcome == OutcomeAdded || outcome == OutcomeRemoved {
			successes++
		}
	}

	assert.Equal(t, 2, successes)
	assert.Len(t, repo.log[roomID], successes)
}

func TestHistoryVisibility(t *testing.T) {
	svc, _, _, roomID := newTestService(t)
	ctx := context.Background()

	_, err := svc.History(ctx, roomID, "stranger@x.com")
	assert.ErrorIs(t, err, ErrNotAllowed)

	_, err = svc.History(ctx, roomID, "alice@x.com")
	assert.NoError(t, err)
}

func TestClearHistory_OwnerOnly(t *testing.T) {
	svc, repo, _, roomID := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddModerator(ctx, roomID, "bob@x.com", "alice@x.com")
	require.NoError(t, err)
	require.Len(t, repo.log[roomID], 1)

	assert.ErrorIs(t, svc.ClearHistory(ctx, roomID, "bob@x.com"), ErrNotAllowed)
	require.NoError(t, svc.ClearHistory(ctx, roomID, "alice@x.com"))
	assert.Empty(t, repo.log[roomID])
}

func TestDeleteRoom_Permissions(t *testing.T) {
	svc, _, _, roomID := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddModerator(ctx, roomID, "bob@x.com", "alice@x.com")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteRoom(ctx, roomID, "stranger@x.com"), ErrNotAllowed)

	// Moderators may delete while the flag is on.
	require.NoError(t, svc.UpdateSettings(ctx, roomID, "alice@x.com", "Town Hall", true, false))
	assert.ErrorIs(t, svc.DeleteRoom(ctx, roomID, "bob@x.com"), ErrNotAllowed)

	require.NoError(t, svc.DeleteRoom(ctx, roomID, "alice@x.com"))
	room, err := svc.GetRoom(ctx, roomID)
	require.NoError(t, err)
	assert.Nil(t, room)
}

func TestUpdateSettings_OwnerOnly(t *testing.T) {
	svc, _, _, roomID := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddModerator(ctx, roomID, "bob@x.com", "alice@x.com")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.UpdateSettings(ctx, roomID, "bob@x.com", "Renamed", true, true), ErrNotAllowed)
	assert.NoError(t, svc.UpdateSettings(ctx, roomID, "alice@x.com", "Renamed", true, true))

	room, _ := svc.GetRoom(ctx, roomID)
	assert.Equal(t, "Renamed", room.Title)
}

func TestListRoomsByMembership(t *testing.T) {
	svc, _, _, roomID := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddModerator(ctx, roomID, "bob@x.com", "alice@x.com")
	require.NoError(t, err)

	forBob, err := svc.ListRoomsByMembership(ctx, "BOB@x.com")
	require.NoError(t, err)
	require.Len(t, forBob, 1)
	assert.Equal(t, roomID, forBob[0].ID)

	forStranger, err := svc.ListRoomsByMembership(ctx, "nobody@x.com")
	require.NoError(t, err)
	assert.Empty(t, forStranger)
}

package rooms

import (
	"context"
	"log/slog"

	"github.com/valkgeo/EventQ/internal/idgen"
	"github.com/valkgeo/EventQ/internal/models"
	"github.com/valkgeo/EventQ/internal/repo"
)

// HistoryDisplayLimit is how much of the moderation log a single read
// returns. The write-time cap lives in the repo layer.
const HistoryDisplayLimit = 30

// Outcome is the terminal result of a membership mutation. Rejections are
// values, not errors, so callers can explain each one specifically.
type Outcome string

const (
	OutcomeAdded          Outcome = "added"
	OutcomeRemoved        Outcome = "removed"
	OutcomeAlreadyMember  Outcome = "already_member"
	OutcomeNotMember      Outcome = "not_member"
	OutcomeOptedOut       Outcome = "opted_out"
	OutcomeOwnerImmutable Outcome = "owner_immutable"
	OutcomeUnauthorized   Outcome = "unauthorized"
)

// Service is the only legitimate path to room and moderator-set mutation.
// It enforces authorization itself rather than trusting the handler layer.
type Service struct {
	Rooms    repo.RoomRepo
	Profiles repo.ProfileRepo

	// StrictOptOut makes a failed profile lookup block AddModerator
	// instead of the default fail-open behavior, which favors keeping
	// the moderation workflow available over a soft preference.
	StrictOptOut bool
}

func NewService(rooms repo.RoomRepo, profiles repo.ProfileRepo, strictOptOut bool) *Service {
	return &Service{Rooms: rooms, Profiles: profiles, StrictOptOut: strictOptOut}
}

// CreateRoom generates a short unique id, filters the initial moderator
// list through the opt-out check, and writes the room with default flags
// and an empty moderation log.
func (s *Service) CreateRoom(ctx context.Context, title, orgName, orgEmail string, moderatorEmails []string, createdBy string) (string, error) {
	const maxRetries = 10

	var roomID string
	for i := 0; i < maxRetries; i++ {
		id, err := idgen.NewRoomID()
		if err != nil {
			return "", err
		}
		exists, err := s.Rooms.RoomExists(ctx, id)
		if err != nil {
			return "", err
		}
		if !exists {
			roomID = id
			break
		}
		if i == maxRetries-1 {
			return "", ErrIDGenerationFailed
		}
	}

	ownerEmail := NormalizeEmail(orgEmail)
	moderators := s.filterInvitableEmails(ctx, moderatorEmails, ownerEmail)

	room := models.Room{
		ID:                             roomID,
		Title:                          title,
		OrganizationName:               orgName,
		OrganizationEmail:              ownerEmail,
		AllowModeratorManageModerators: true,
		AllowModeratorDeleteRoom:       true,
		Status:                         models.RoomStatusActive,
		CreatedBy:                      createdBy,
	}
	if err := s.Rooms.CreateRoom(ctx, room, moderators); err != nil {
		return "", err
	}
	return roomID, nil
}

// filterInvitableEmails lower-cases, deduplicates, drops the owner email
// (implicitly a moderator) and drops anyone who opted out of invites.
func (s *Service) filterInvitableEmails(ctx context.Context, emails []string, ownerEmail string) []string {
	seen := map[string]bool{ownerEmail: true}
	var out []string
	for _, raw := range emails {
		email := NormalizeEmail(raw)
		if email == "" || seen[email] {
			continue
		}
		seen[email] = true
		if optedOut, err := s.isOptedOut(ctx, email); err == nil && optedOut {
			continue
		}
		out = append(out, email)
	}
	return out
}

func (s *Service) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	return s.Rooms.GetRoom(ctx, id)
}

func (s *Service) ListRoomsByMembership(ctx context.Context, email string) ([]models.Room, error) {
	return s.Rooms.ListRoomsByMembership(ctx, NormalizeEmail(email))
}

// UpdateSettings is owner-only: the permission flags gate what moderators
// may do, so only the owner may move them.
func (s *Service) UpdateSettings(ctx context.Context, roomID, actorEmail, title string, manageModerators, deleteRoom bool) error {
	room, err := s.Rooms.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return ErrRoomNotFound
	}
	if ResolveRole(actorEmail, room) != RoleOwner {
		return ErrNotAllowed
	}
	return s.Rooms.UpdateRoomSettings(ctx, roomID, title, manageModerators, deleteRoom)
}

// DeleteRoom removes the room and its questions as one unit.
func (s *Service) DeleteRoom(ctx context.Context, roomID, actorEmail string) error {
	room, err := s.Rooms.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return ErrRoomNotFound
	}
	if !CanDeleteRoom(ResolveRole(actorEmail, room), room) {
		return ErrNotAllowed
	}
	return s.Rooms.DeleteRoomWithQuestions(ctx, roomID)
}

// AddModerator adds targetEmail to the room's allowed set and appends an
// audit entry in the same transaction. Exactly one Outcome is returned per
// call; only OutcomeAdded mutates state.
func (s *Service) AddModerator(ctx context.Context, roomID, targetEmail, actorEmail string) (Outcome, error) {
	room, err := s.Rooms.GetRoom(ctx, roomID)
	if err != nil {
		return "", err
	}
	if room == nil {
		return "", ErrRoomNotFound
	}

	actor := NormalizeEmail(actorEmail)
	if !CanManageModerators(ResolveRole(actor, room), room) {
		return OutcomeUnauthorized, nil
	}

	target := NormalizeEmail(targetEmail)
	if target == NormalizeEmail(room.OrganizationEmail) {
		// The owner is implicitly a moderator already.
		return OutcomeAlreadyMember, nil
	}
	if room.IsAllowed(target) {
		return OutcomeAlreadyMember, nil
	}

	optedOut, err := s.isOptedOut(ctx, target)
	if err != nil {
		if s.StrictOptOut {
			return "", err
		}
		slog.Warn("opt-out lookup failed, allowing invite", "email", target, "error", err)
	} else if optedOut {
		return OutcomeOptedOut, nil
	}

	added, err := s.Rooms.AddModerator(ctx, roomID, target, &actor)
	if err != nil {
		return "", err
	}
	if !added {
		return OutcomeAlreadyMember, nil
	}
	return OutcomeAdded, nil
}

// RemoveModerator is symmetric to AddModerator. Removing an email that is
// not in the set is a no-op (no audit entry); removing the owner's email is
// rejected outright.
func (s *Service) RemoveModerator(ctx context.Context, roomID, targetEmail, actorEmail string) (Outcome, error) {
	room, err := s.Rooms.GetRoom(ctx, roomID)
	if err != nil {
		return "", err
	}
	if room == nil {
		return "", ErrRoomNotFound
	}

	actor := NormalizeEmail(actorEmail)
	if !CanManageModerators(ResolveRole(actor, room), room) {
		return OutcomeUnauthorized, nil
	}

	target := NormalizeEmail(targetEmail)
	if target == NormalizeEmail(room.OrganizationEmail) {
		return OutcomeOwnerImmutable, nil
	}

	removed, err := s.Rooms.RemoveModerator(ctx, roomID, target, &actor)
	if err != nil {
		return "", err
	}
	if !removed {
		return OutcomeNotMember, nil
	}
	return OutcomeRemoved, nil
}

// History returns the newest slice of the room's moderation log, visible to
// owner and moderators only.
func (s *Service) History(ctx context.Context, roomID, viewerEmail string) ([]models.AuditEntry, error) {
	room, err := s.Rooms.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	if !CanModerate(ResolveRole(viewerEmail, room)) {
		return nil, ErrNotAllowed
	}
	return s.Rooms.ModerationHistory(ctx, roomID, HistoryDisplayLimit)
}

// ClearHistory is the owner-only bulk reset; there is no selective delete.
func (s *Service) ClearHistory(ctx context.Context, roomID, actorEmail string) error {
	room, err := s.Rooms.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return ErrRoomNotFound
	}
	if ResolveRole(actorEmail, room) != RoleOwner {
		return ErrNotAllowed
	}
	return s.Rooms.ClearModerationHistory(ctx, roomID)
}

// isOptedOut consults the profile collaborator. A missing profile means
// "not opted out".
func (s *Service) isOptedOut(ctx context.Context, emailLower string) (bool, error) {
	profile, err := s.Profiles.GetProfile(ctx, emailLower)
	if err != nil {
		return false, err
	}
	return profile.OptedOut(), nil
}

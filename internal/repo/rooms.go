package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/valkgeo/EventQ/internal/models"
)

// moderationLogCap bounds the per-room moderation log. Older entries are
// dropped inside the same transaction that appends a new one.
const moderationLogCap = 200

const roomColumns = `r.id, r.title, r.organization_name, r.organization_email, r.created_by,
	       r.status, r.allow_moderator_manage_moderators, r.allow_moderator_delete_room, r.created_at,
	       ARRAY(SELECT rm.email FROM room_moderators rm WHERE rm.room_id = r.id ORDER BY rm.added_at)`

func scanRoom(row interface{ Scan(...any) error }) (*models.Room, error) {
	var r models.Room
	var moderators []string
	err := row.Scan(&r.ID, &r.Title, &r.OrganizationName, &r.OrganizationEmail, &r.CreatedBy,
		&r.Status, &r.AllowModeratorManageModerators, &r.AllowModeratorDeleteRoom, &r.CreatedAt,
		pq.Array(&moderators))
	if err != nil {
		return nil, err
	}
	r.AllowedEmails = append([]string{r.OrganizationEmail}, moderators...)
	return &r, nil
}

func (s *Store) CreateRoom(ctx context.Context, room models.Room, moderatorEmails []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO rooms (id, title, organization_name, organization_email, created_by)
		 VALUES ($1, $2, $3, $4, $5)`,
		room.ID, room.Title, room.OrganizationName, room.OrganizationEmail, room.CreatedBy)
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	for _, email := range moderatorEmails {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO room_moderators (room_id, email) VALUES ($1, $2)
			 ON CONFLICT (room_id, email) DO NOTHING`,
			room.ID, email)
		if err != nil {
			return fmt.Errorf("failed to add initial moderator: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}
	return nil
}

func (s *Store) RoomExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM rooms WHERE id = $1)`, id,
	).Scan(&exists)
	return exists, err
}

func (s *Store) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+roomColumns+` FROM rooms r WHERE r.id = $1`, id)
	room, err := scanRoom(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return room, nil
}

func (s *Store) UpdateRoomSettings(ctx context.Context, id, title string, manageModerators, deleteRoom bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE rooms
		 SET title = $2, allow_moderator_manage_moderators = $3, allow_moderator_delete_room = $4
		 WHERE id = $1`,
		id, title, manageModerators, deleteRoom)
	if err != nil {
		return fmt.Errorf("failed to update room settings: %w", err)
	}
	return nil
}

// DeleteRoomWithQuestions removes the room and everything hanging off it in
// a single transaction. Foreign keys cascade to questions, likes, moderators
// and the moderation log, so a partial delete cannot be observed.
func (s *Store) DeleteRoomWithQuestions(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE room_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete room questions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	return nil
}

func (s *Store) ListRoomsByMembership(ctx context.Context, email string) ([]models.Room, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+roomColumns+` FROM rooms r
		 WHERE r.organization_email = $1
		    OR EXISTS (SELECT 1 FROM room_moderators rm WHERE rm.room_id = r.id AND rm.email = $1)
		 ORDER BY r.created_at DESC`,
		email)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []models.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, *room)
	}
	if rooms == nil {
		rooms = []models.Room{}
	}
	return rooms, rows.Err()
}

// --- Moderator set + moderation log ---

func (s *Store) AddModerator(ctx context.Context, roomID, targetEmail string, actorEmail *string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to add moderator: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO room_moderators (room_id, email) VALUES ($1, $2)
		 ON CONFLICT (room_id, email) DO NOTHING`,
		roomID, targetEmail)
	if err != nil {
		return false, fmt.Errorf("failed to add moderator: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to add moderator: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	if err := appendAudit(ctx, tx, roomID, models.AuditModeratorAdded, actorEmail, targetEmail); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to add moderator: %w", err)
	}
	return true, nil
}

func (s *Store) RemoveModerator(ctx context.Context, roomID, targetEmail string, actorEmail *string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to remove moderator: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM room_moderators WHERE room_id = $1 AND email = $2`,
		roomID, targetEmail)
	if err != nil {
		return false, fmt.Errorf("failed to remove moderator: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to remove moderator: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	if err := appendAudit(ctx, tx, roomID, models.AuditModeratorRemoved, actorEmail, targetEmail); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to remove moderator: %w", err)
	}
	return true, nil
}

func appendAudit(ctx context.Context, tx *sql.Tx, roomID, entryType string, actorEmail *string, targetEmail string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO moderation_log (room_id, type, actor_email, target_email)
		 VALUES ($1, $2, $3, $4)`,
		roomID, entryType, actorEmail, targetEmail)
	if err != nil {
		return fmt.Errorf("failed to append moderation log: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`DELETE FROM moderation_log
		 WHERE room_id = $1 AND id NOT IN (
		     SELECT id FROM moderation_log WHERE room_id = $1
		     ORDER BY created_at DESC, id DESC LIMIT $2)`,
		roomID, moderationLogCap)
	if err != nil {
		return fmt.Errorf("failed to trim moderation log: %w", err)
	}
	return nil
}

func (s *Store) ModerationHistory(ctx context.Context, roomID string, limit int) ([]models.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, room_id, type, actor_email, target_email, created_at
		 FROM moderation_log WHERE room_id = $1
		 ORDER BY created_at DESC, id DESC LIMIT $2`,
		roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get moderation history: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.RoomID, &e.Type, &e.ActorEmail, &e.TargetEmail, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if entries == nil {
		entries = []models.AuditEntry{}
	}
	return entries, rows.Err()
}

func (s *Store) ClearModerationHistory(ctx context.Context, roomID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM moderation_log WHERE room_id = $1`, roomID)
	if err != nil {
		return fmt.Errorf("failed to clear moderation history: %w", err)
	}
	return nil
}

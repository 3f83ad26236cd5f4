package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/valkgeo/EventQ/internal/models"
)

const questionColumns = `id, room_id, text, participant_id, participant_name, is_anonymous,
	       status, highlighted, highlighted_at, like_count, created_at, updated_at`

func scanQuestion(row interface{ Scan(...any) error }) (*models.Question, error) {
	var q models.Question
	err := row.Scan(&q.ID, &q.RoomID, &q.Text, &q.ParticipantID, &q.ParticipantName, &q.IsAnonymous,
		&q.Status, &q.Highlighted, &q.HighlightedAt, &q.LikeCount, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (s *Store) CreateQuestion(ctx context.Context, q models.Question) (*models.Question, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO questions (room_id, text, participant_id, participant_name, is_anonymous)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+questionColumns,
		q.RoomID, q.Text, q.ParticipantID, q.ParticipantName, q.IsAnonymous)
	created, err := scanQuestion(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}
	return created, nil
}

func (s *Store) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = $1`, id)
	q, err := scanQuestion(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return q, nil
}

func (s *Store) ListQuestions(ctx context.Context, roomID string) ([]models.Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionColumns+` FROM questions
		 WHERE room_id = $1 ORDER BY created_at DESC`,
		roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	if questions == nil {
		questions = []models.Question{}
	}
	return questions, rows.Err()
}

func (s *Store) UpdateQuestionStatus(ctx context.Context, id, status string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE questions SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, status)
	if err != nil {
		return fmt.Errorf("failed to update question status: %w", err)
	}
	return nil
}

func (s *Store) SetHighlight(ctx context.Context, id string, highlighted bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE questions
		 SET highlighted = $2,
		     highlighted_at = CASE WHEN $2 THEN NOW() ELSE NULL END,
		     updated_at = NOW()
		 WHERE id = $1`,
		id, highlighted)
	if err != nil {
		return fmt.Errorf("failed to set highlight: %w", err)
	}
	return nil
}

func (s *Store) BulkSetStatus(ctx context.Context, roomID, status string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE questions SET status = $2, updated_at = NOW()
		 WHERE room_id = $1 AND status != $2`,
		roomID, status)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk update questions: %w", err)
	}
	return res.RowsAffected()
}

// ToggleLike flips a participant's like on a question and keeps like_count
// in step, all in one transaction.
func (s *Store) ToggleLike(ctx context.Context, questionID, participantID string) (bool, int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, fmt.Errorf("failed to toggle like: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO question_likes (question_id, participant_id) VALUES ($1, $2)
		 ON CONFLICT (question_id, participant_id) DO NOTHING`,
		questionID, participantID)
	if err != nil {
		return false, 0, fmt.Errorf("failed to toggle like: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, 0, fmt.Errorf("failed to toggle like: %w", err)
	}

	liked := n > 0
	var count int
	if liked {
		err = tx.QueryRowContext(ctx,
			`UPDATE questions SET like_count = like_count + 1 WHERE id = $1 RETURNING like_count`,
			questionID).Scan(&count)
	} else {
		if _, err = tx.ExecContext(ctx,
			`DELETE FROM question_likes WHERE question_id = $1 AND participant_id = $2`,
			questionID, participantID); err == nil {
			err = tx.QueryRowContext(ctx,
				`UPDATE questions SET like_count = GREATEST(like_count - 1, 0) WHERE id = $1 RETURNING like_count`,
				questionID).Scan(&count)
		}
	}
	if err != nil {
		return false, 0, fmt.Errorf("failed to toggle like: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, 0, fmt.Errorf("failed to toggle like: %w", err)
	}
	return liked, count, nil
}

func (s *Store) DeleteQuestion(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	return nil
}

func (s *Store) DeleteRoomQuestions(ctx context.Context, roomID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE room_id = $1`, roomID)
	if err != nil {
		return fmt.Errorf("failed to clear questions: %w", err)
	}
	return nil
}

package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/valkgeo/EventQ/internal/models"
)

// Store is the PostgreSQL implementation of the repo interfaces.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// --- Users ---

func (s *Store) CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (username, email, password) VALUES ($1, $2, $3)
		 RETURNING id, username, email, created_at`,
		username, email, passwordHash,
	).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, password, created_at FROM users WHERE username = $1`,
		username,
	).Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, created_at FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// --- Profiles ---

func (s *Store) GetProfile(ctx context.Context, email string) (*models.Profile, error) {
	var p models.Profile
	err := s.db.QueryRowContext(ctx,
		`SELECT email, accept_moderator_invites, block_moderator_invites, updated_at
		 FROM user_profiles WHERE email = $1`,
		email,
	).Scan(&p.Email, &p.AcceptModeratorInvites, &p.BlockModeratorInvites, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

func (s *Store) UpsertProfile(ctx context.Context, p models.Profile) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_profiles (email, accept_moderator_invites, block_moderator_invites, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (email) DO UPDATE
		 SET accept_moderator_invites = $2, block_moderator_invites = $3, updated_at = NOW()`,
		p.Email, p.AcceptModeratorInvites, p.BlockModeratorInvites,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

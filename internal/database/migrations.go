package database

import "database/sql"

const schema = `
CREATE EXTENSION IF NOT EXISTS "pgcrypto";

CREATE TABLE IF NOT EXISTS users (
    id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    username   VARCHAR(50) UNIQUE NOT NULL,
    email      VARCHAR(255) UNIQUE NOT NULL,
    password   TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_users_email ON users (email);

CREATE TABLE IF NOT EXISTS user_profiles (
    email                    VARCHAR(255) PRIMARY KEY,
    accept_moderator_invites BOOLEAN,
    block_moderator_invites  BOOLEAN,
    updated_at               TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS rooms (
    id                                VARCHAR(16) PRIMARY KEY,
    title                             VARCHAR(200) NOT NULL,
    organization_name                 VARCHAR(200) NOT NULL DEFAULT '',
    organization_email                VARCHAR(255) NOT NULL,
    created_by                        VARCHAR(255) NOT NULL DEFAULT '',
    status                            VARCHAR(20) NOT NULL DEFAULT 'active',
    allow_moderator_manage_moderators BOOLEAN NOT NULL DEFAULT TRUE,
    allow_moderator_delete_room       BOOLEAN NOT NULL DEFAULT TRUE,
    created_at                        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS room_moderators (
    room_id  VARCHAR(16) NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
    email    VARCHAR(255) NOT NULL,
    added_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (room_id, email)
);
CREATE INDEX IF NOT EXISTS idx_room_moderators_email ON room_moderators (email);

CREATE TABLE IF NOT EXISTS moderation_log (
    id           BIGSERIAL PRIMARY KEY,
    room_id      VARCHAR(16) NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
    type         VARCHAR(10) NOT NULL CHECK (type IN ('added', 'removed')),
    actor_email  VARCHAR(255),
    target_email VARCHAR(255) NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_moderation_log_room ON moderation_log (room_id, created_at DESC);

CREATE TABLE IF NOT EXISTS questions (
    id               UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    room_id          VARCHAR(16) NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
    text             TEXT NOT NULL,
    participant_id   VARCHAR(64) NOT NULL,
    participant_name VARCHAR(100) NOT NULL DEFAULT '',
    is_anonymous     BOOLEAN NOT NULL DEFAULT FALSE,
    status           VARCHAR(10) NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'accepted', 'rejected')),
    highlighted      BOOLEAN NOT NULL DEFAULT FALSE,
    highlighted_at   TIMESTAMPTZ,
    like_count       INTEGER NOT NULL DEFAULT 0,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_questions_room_created ON questions (room_id, created_at DESC);

CREATE TABLE IF NOT EXISTS question_likes (
    question_id    UUID NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
    participant_id VARCHAR(64) NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (question_id, participant_id)
);
`

func RunMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}

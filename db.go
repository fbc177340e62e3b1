package main

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/raiyanplanet/Wibloo/models"
)

// Counters are NOT NULL DEFAULT 0 so "absent" and "zero" are the same
// thing everywhere. There are deliberately no foreign keys: cascades are
// owned by the mutation layer, and a comment is allowed to outlive its
// post (the counter bump is simply skipped).
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		username TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		bio TEXT NOT NULL DEFAULT '',
		date_of_birth TEXT NOT NULL DEFAULT '',
		website TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		avatar_id TEXT NOT NULL DEFAULT '',
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		followers_count BIGINT NOT NULL DEFAULT 0,
		following_count BIGINT NOT NULL DEFAULT 0,
		posts_count BIGINT NOT NULL DEFAULT 0,
		password_hash TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_by_username ON users (username) WHERE username <> ''`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_by_email ON users (email) WHERE email <> ''`,
	`CREATE INDEX IF NOT EXISTS users_by_name ON users (name)`,

	`CREATE TABLE IF NOT EXISTS posts (
		id UUID PRIMARY KEY,
		author_id UUID NOT NULL,
		image_id TEXT NOT NULL,
		caption TEXT NOT NULL DEFAULT '',
		is_public BOOLEAN NOT NULL DEFAULT TRUE,
		likes_count BIGINT NOT NULL DEFAULT 0,
		comments_count BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS posts_by_author ON posts (author_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS posts_by_created ON posts (created_at DESC) WHERE is_public`,
	`CREATE INDEX IF NOT EXISTS posts_search_caption ON posts
		USING GIN (to_tsvector('simple', coalesce(caption, '')))`,

	`CREATE TABLE IF NOT EXISTS likes (
		id UUID PRIMARY KEY,
		post_id UUID NOT NULL,
		user_id UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (post_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS likes_by_user ON likes (user_id)`,

	`CREATE TABLE IF NOT EXISTS comments (
		id UUID PRIMARY KEY,
		post_id UUID NOT NULL,
		author_id UUID NOT NULL,
		content TEXT NOT NULL,
		likes_count BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS comments_by_post ON comments (post_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS comments_by_author ON comments (author_id)`,

	`CREATE TABLE IF NOT EXISTS follows (
		id UUID PRIMARY KEY,
		follower_id UUID NOT NULL,
		following_id UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (follower_id, following_id),
		CHECK (follower_id <> following_id)
	)`,
	`CREATE INDEX IF NOT EXISTS follows_by_following ON follows (following_id)`,

	`CREATE TABLE IF NOT EXISTS messages (
		id UUID PRIMARY KEY,
		sender_id UUID NOT NULL,
		receiver_id UUID NOT NULL,
		content TEXT NOT NULL,
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS messages_by_sender ON messages (sender_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS messages_by_receiver ON messages (receiver_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS messages_by_conversation ON messages (sender_id, receiver_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS blobs (
		id UUID PRIMARY KEY,
		state TEXT NOT NULL DEFAULT 'pending',
		content_type TEXT NOT NULL DEFAULT '',
		size BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS outbox (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		topic TEXT NOT NULL,
		event_key TEXT NOT NULL,
		payload JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	// Declared with their indexes but without endpoints yet.
	`CREATE TABLE IF NOT EXISTS stories (
		id UUID PRIMARY KEY,
		author_id UUID NOT NULL,
		image_id TEXT NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		views_count BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS stories_by_author ON stories (author_id)`,
	`CREATE INDEX IF NOT EXISTS stories_by_expiry ON stories (expires_at)`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL,
		type TEXT NOT NULL CHECK (type IN ('like', 'comment', 'follow', 'mention')),
		from_user_id UUID NOT NULL,
		post_id UUID,
		comment_id UUID,
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS notifications_by_user ON notifications (user_id)`,
	`CREATE INDEX IF NOT EXISTS notifications_by_read_status ON notifications (user_id, is_read)`,
}

func InitDB(config models.Config) *sql.DB {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		config.DBHost, config.DBPort, config.DBUser, config.DBPassword, config.DBName)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		zap.S().Fatalf("Failed to connect to DB: %v", err)
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			zap.S().Fatalf("Failed to apply schema: %v", err)
		}
	}
	return db
}

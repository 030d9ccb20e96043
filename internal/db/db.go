package db

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

type Database struct {
	Conn *sqlx.DB
}

func NewDatabase(ctx context.Context, dsn string) (*Database, error) {
	conn, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(25)
	conn.SetConnMaxLifetime(5 * time.Minute)
	return &Database{Conn: conn}, nil
}

func (d *Database) Close() error {
	return d.Conn.Close()
}

// AutoMigrate creates the schema if it is missing. Favorites cascade with their
// listing; messages keep no foreign key so history survives a deleted listing.
func (d *Database) AutoMigrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS listings (
            id BIGSERIAL PRIMARY KEY,
            owner_id VARCHAR(255) NOT NULL,
            title VARCHAR(200) NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            price DOUBLE PRECISION NOT NULL CHECK (price >= 0),
            latitude DOUBLE PRECISION,
            longitude DOUBLE PRECISION,
            photo_url TEXT,
            sold BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            CHECK ((latitude IS NULL) = (longitude IS NULL))
        )`,

		// Older schemas stored price as NUMERIC(12, 2), which rounds.
		`ALTER TABLE listings ALTER COLUMN price TYPE DOUBLE PRECISION`,

		`CREATE INDEX IF NOT EXISTS listings_created_at_idx ON listings (created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS listings_owner_id_idx ON listings (owner_id)`,

		`CREATE TABLE IF NOT EXISTS messages (
            id BIGSERIAL PRIMARY KEY,
            listing_id BIGINT NOT NULL,
            sender_id VARCHAR(255) NOT NULL,
            recipient_id VARCHAR(255) NOT NULL,
            content TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            CHECK (sender_id <> recipient_id)
        )`,

		`CREATE INDEX IF NOT EXISTS messages_sender_idx ON messages (sender_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS messages_recipient_idx ON messages (recipient_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS messages_listing_idx ON messages (listing_id, created_at)`,

		`CREATE TABLE IF NOT EXISTS favorites (
            user_id VARCHAR(255) NOT NULL,
            listing_id BIGINT NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY (user_id, listing_id)
        )`,
	}

	for _, query := range queries {
		if _, err := d.Conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

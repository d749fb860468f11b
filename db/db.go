// Package db provides the optional Postgres joke log: connection helpers, schema
// migration, and the small data access layer used by the bot and the stats endpoint.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx postgres driver registered as 'pgx'
)

// Connect opens a Postgres connection pool for dsn and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty DB_DSN")
	}
	database, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	database.SetMaxOpenConns(5)
	database.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := database.PingContext(pingCtx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return database, nil
}

// Migrate applies idempotent schema statements. It mirrors the versioned migrations
// and is the fallback for databases where golang-migrate cannot run.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS jokes (
			id BIGSERIAL PRIMARY KEY,
			channel_id TEXT NOT NULL,
			channel_name TEXT NOT NULL,
			word TEXT NOT NULL,
			reply TEXT NOT NULL,
			message_id TEXT,
			author TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jokes_created_at ON jokes(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_jokes_word ON jokes(word)`,
	}
	for i, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("postgres migrate step %d failed: %w", i, err)
		}
	}
	return nil
}

// JokeRecord is one reply the bot sent.
type JokeRecord struct {
	ChannelID   string
	ChannelName string
	Word        string
	Reply       string
	MessageID   string
	Author      string
	CreatedAt   time.Time
}

// WordCount is a word and how many times it was joked about.
type WordCount struct {
	Word  string `json:"word"`
	Count int64  `json:"count"`
}

// JokeStore persists jokes in the jokes table.
type JokeStore struct{ DB *sql.DB }

// RecordJoke inserts a joke. A zero CreatedAt uses the database clock.
func (s *JokeStore) RecordJoke(ctx context.Context, j JokeRecord) error {
	var created any
	if !j.CreatedAt.IsZero() {
		created = j.CreatedAt.UTC()
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO jokes (channel_id, channel_name, word, reply, message_id, author, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))`,
		j.ChannelID, j.ChannelName, j.Word, j.Reply, j.MessageID, j.Author, created)
	if err != nil {
		return fmt.Errorf("insert joke: %w", err)
	}
	return nil
}

// CountJokes returns the total number of jokes told.
func (s *JokeStore) CountJokes(ctx context.Context) (int64, error) {
	var n int64
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM jokes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count jokes: %w", err)
	}
	return n, nil
}

// TopWords returns the most joked-about words, most frequent first.
func (s *JokeStore) TopWords(ctx context.Context, limit int) ([]WordCount, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT word, COUNT(*) AS n FROM jokes GROUP BY word ORDER BY n DESC, word ASC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query top words: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]WordCount, 0, limit)
	for rows.Next() {
		var wc WordCount
		if err := rows.Scan(&wc.Word, &wc.Count); err != nil {
			return nil, fmt.Errorf("scan top words: %w", err)
		}
		out = append(out, wc)
	}
	return out, rows.Err()
}

// Ping checks connectivity.
func (s *JokeStore) Ping(ctx context.Context) error { return s.DB.PingContext(ctx) }

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"rent_bot/internal/model"
	"rent_bot/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Subscribe inserts the subscriber and its initial criteria in one transaction.
func (s *SQLite) Subscribe(ctx context.Context, chatID int64, c model.Criteria) (bool, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return false, fmt.Errorf("encode criteria: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(timeLayout)
	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO subscribers (chat_id, created_at) VALUES (?, ?)`, chatID, now,
	)
	if err != nil {
		return false, fmt.Errorf("insert subscriber: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO criteria (chat_id, data, updated_at) VALUES (?, ?, ?)`,
		chatID, string(data), now,
	); err != nil {
		return false, fmt.Errorf("insert criteria: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

// IsSubscribed checks whether chatID is a registered subscriber.
func (s *SQLite) IsSubscribed(ctx context.Context, chatID int64) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subscribers WHERE chat_id = ?`, chatID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check subscriber: %w", err)
	}
	return count > 0, nil
}

// ListSubscribers returns all subscribers ordered by registration.
func (s *SQLite) ListSubscribers(ctx context.Context) ([]model.Subscriber, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chat_id, created_at FROM subscribers ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query subscribers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var subs []model.Subscriber
	for rows.Next() {
		var sub model.Subscriber
		var created string
		if err := rows.Scan(&sub.ChatID, &created); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		sub.CreatedAt, _ = time.Parse(timeLayout, created)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// RemoveSubscribers deletes the given subscribers together with their criteria.
func (s *SQLite) RemoveSubscribers(ctx context.Context, chatIDs ...int64) error {
	if len(chatIDs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range chatIDs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM criteria WHERE chat_id = ?`, id); err != nil {
			return fmt.Errorf("delete criteria: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM subscribers WHERE chat_id = ?`, id); err != nil {
			return fmt.Errorf("delete subscriber: %w", err)
		}
	}
	return tx.Commit()
}

// GetCriteria returns the stored criteria of chatID or ErrNotFound.
func (s *SQLite) GetCriteria(ctx context.Context, chatID int64) (model.Criteria, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM criteria WHERE chat_id = ?`, chatID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Criteria{}, ErrNotFound
	}
	if err != nil {
		return model.Criteria{}, fmt.Errorf("query criteria: %w", err)
	}

	var c model.Criteria
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return model.Criteria{}, fmt.Errorf("decode criteria: %w", err)
	}
	return c, nil
}

// SaveCriteria replaces the criteria record of chatID. It returns ErrNotFound
// if chatID is no longer a subscriber.
func (s *SQLite) SaveCriteria(ctx context.Context, chatID int64, c model.Criteria) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode criteria: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO criteria (chat_id, data, updated_at)
		 SELECT ?, ?, ? WHERE EXISTS (SELECT 1 FROM subscribers WHERE chat_id = ?)`,
		chatID, string(data), time.Now().UTC().Format(timeLayout), chatID,
	)
	if err != nil {
		return fmt.Errorf("save criteria: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkSeen records listing IDs as processed.
func (s *SQLite) MarkSeen(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		if _, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO seen_listings (id) VALUES (?)`, id,
		); err != nil {
			return fmt.Errorf("mark seen: %w", err)
		}
	}
	return nil
}

// IsSeen checks whether a listing has already been processed.
func (s *SQLite) IsSeen(ctx context.Context, id string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM seen_listings WHERE id = ?`, id,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check seen: %w", err)
	}
	return count > 0, nil
}

// ListSeen returns every processed listing ID.
func (s *SQLite) ListSeen(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM seen_listings`)
	if err != nil {
		return nil, fmt.Errorf("query seen: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan seen: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

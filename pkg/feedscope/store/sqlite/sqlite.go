package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/cognicore/feedscope/pkg/feedscope/cards"
	"github.com/cognicore/feedscope/pkg/feedscope/internalerr"
	"github.com/cognicore/feedscope/pkg/feedscope/store"
)

// sqliteStore implements store.History using SQLite
type sqliteStore struct {
	db *sqlx.DB
}

// OpenSQLite opens a SQLite history database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.History, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %v", internalerr.ErrStoreUnavailable, err)
	}
	db.SetMaxOpenConns(1)

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: create schema: %v", internalerr.ErrStoreUnavailable, err)
	}
	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sqlx.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS answers (
	id TEXT PRIMARY KEY,
	question TEXT NOT NULL,
	intent_json TEXT NOT NULL,
	call_json TEXT NOT NULL,
	answer TEXT NOT NULL,
	count INTEGER NOT NULL DEFAULT 0,
	feed_ids TEXT NOT NULL,
	applied_json TEXT,
	warnings_json TEXT,
	fallback INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_answers_created ON answers(created_at);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

type answerRow struct {
	ID           string         `db:"id"`
	Question     string         `db:"question"`
	IntentJSON   string         `db:"intent_json"`
	CallJSON     string         `db:"call_json"`
	Answer       string         `db:"answer"`
	Count        int            `db:"count"`
	FeedIDs      string         `db:"feed_ids"`
	AppliedJSON  sql.NullString `db:"applied_json"`
	WarningsJSON sql.NullString `db:"warnings_json"`
	Fallback     bool           `db:"fallback"`
	CreatedAt    string         `db:"created_at"`
}

func toRow(c cards.Card) (answerRow, error) {
	row := answerRow{
		ID:        c.ID,
		Question:  c.Question,
		Answer:    c.Answer,
		Count:     c.Count,
		Fallback:  c.Fallback,
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	var err error
	if row.IntentJSON, err = encode(c.Intent); err != nil {
		return row, err
	}
	if row.CallJSON, err = encode(c.Call); err != nil {
		return row, err
	}
	ids := c.FeedIDs
	if ids == nil {
		ids = []string{}
	}
	if row.FeedIDs, err = encode(ids); err != nil {
		return row, err
	}
	if c.Applied != nil {
		s, err := encode(c.Applied)
		if err != nil {
			return row, err
		}
		row.AppliedJSON = sql.NullString{String: s, Valid: true}
	}
	if len(c.Warnings) > 0 {
		s, err := encode(c.Warnings)
		if err != nil {
			return row, err
		}
		row.WarningsJSON = sql.NullString{String: s, Valid: true}
	}
	return row, nil
}

func (r answerRow) card() (cards.Card, error) {
	c := cards.Card{
		ID:       r.ID,
		Question: r.Question,
		Answer:   r.Answer,
		Count:    r.Count,
		Fallback: r.Fallback,
	}
	created, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
	if err != nil {
		return c, fmt.Errorf("parse created_at for %s: %w", r.ID, err)
	}
	c.CreatedAt = created
	if err := json.Unmarshal([]byte(r.IntentJSON), &c.Intent); err != nil {
		return c, fmt.Errorf("decode intent for %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.CallJSON), &c.Call); err != nil {
		return c, fmt.Errorf("decode call for %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.FeedIDs), &c.FeedIDs); err != nil {
		return c, fmt.Errorf("decode feed ids for %s: %w", r.ID, err)
	}
	if r.AppliedJSON.Valid {
		if err := json.Unmarshal([]byte(r.AppliedJSON.String), &c.Applied); err != nil {
			return c, fmt.Errorf("decode applied filters for %s: %w", r.ID, err)
		}
	}
	if r.WarningsJSON.Valid {
		if err := json.Unmarshal([]byte(r.WarningsJSON.String), &c.Warnings); err != nil {
			return c, fmt.Errorf("decode warnings for %s: %w", r.ID, err)
		}
	}
	return c, nil
}

func encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// SaveAnswer inserts or replaces a card
func (s *sqliteStore) SaveAnswer(ctx context.Context, c cards.Card) error {
	if c.ID == "" {
		return fmt.Errorf("%w: card id required", internalerr.ErrInvalidInput)
	}
	row, err := toRow(c)
	if err != nil {
		return fmt.Errorf("encode card %s: %w", c.ID, err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", internalerr.ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
INSERT INTO answers (id, question, intent_json, call_json, answer, count, feed_ids, applied_json, warnings_json, fallback, created_at)
VALUES (:id, :question, :intent_json, :call_json, :answer, :count, :feed_ids, :applied_json, :warnings_json, :fallback, :created_at)
ON CONFLICT(id) DO UPDATE SET
	question = excluded.question,
	intent_json = excluded.intent_json,
	call_json = excluded.call_json,
	answer = excluded.answer,
	count = excluded.count,
	feed_ids = excluded.feed_ids,
	applied_json = excluded.applied_json,
	warnings_json = excluded.warnings_json,
	fallback = excluded.fallback,
	created_at = excluded.created_at`, row)
	if err != nil {
		return fmt.Errorf("%w: insert answer: %v", internalerr.ErrStoreUnavailable, err)
	}
	return tx.Commit()
}

// GetAnswer returns a card by ID
func (s *sqliteStore) GetAnswer(ctx context.Context, id string) (cards.Card, error) {
	var row answerRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM answers WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return cards.Card{}, fmt.Errorf("%w: answer %s", internalerr.ErrNotFound, id)
	}
	if err != nil {
		return cards.Card{}, fmt.Errorf("%w: get answer: %v", internalerr.ErrStoreUnavailable, err)
	}
	return row.card()
}

// RecentAnswers returns the newest cards first
func (s *sqliteStore) RecentAnswers(ctx context.Context, limit int) ([]cards.Card, error) {
	if limit <= 0 {
		limit = store.DefaultRecent
	}
	var rows []answerRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM answers ORDER BY id DESC LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("%w: list answers: %v", internalerr.ErrStoreUnavailable, err)
	}
	out := make([]cards.Card, 0, len(rows))
	for _, r := range rows {
		c, err := r.card()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

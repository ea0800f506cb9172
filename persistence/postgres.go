package persistence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hupe1980/recallmesh/core"
)

// PostgresLog persists the turn sequence in PostgreSQL, one row per turn
// keyed by session and position. Saves rewrite the whole session inside a
// transaction so readers never observe a partially compacted log.
type PostgresLog struct {
	pool      *pgxpool.Pool
	sessionID string
}

// NewPostgresLog connects to databaseURL and ensures the schema exists.
func NewPostgresLog(ctx context.Context, databaseURL, sessionID string) (*PostgresLog, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresLog{pool: pool, sessionID: sessionID}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS memory_turns (
			session_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			note BOOLEAN NOT NULL DEFAULT FALSE,
			PRIMARY KEY (session_id, position)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_memory_turns_session ON memory_turns (session_id, position);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

// Load implements Log. An unknown session is an empty log.
func (s *PostgresLog) Load(ctx context.Context) ([]core.Turn, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT seq, role, content, note FROM memory_turns
		 WHERE session_id=$1 ORDER BY position`,
		s.sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query memory turns: %w", err)
	}
	defer rows.Close()

	var turns []core.Turn
	for rows.Next() {
		var (
			seq           int
			role, content string
			note          bool
		)
		if err := rows.Scan(&seq, &role, &content, &note); err != nil {
			return nil, fmt.Errorf("scan memory turn: %w", err)
		}
		parsed, err := core.ParseRole(role)
		if err != nil {
			return nil, fmt.Errorf("memory turn at seq %d: %w", seq, err)
		}
		turns = append(turns, core.Turn{Role: parsed, Content: content, Seq: seq, Note: note})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memory turns: %w", err)
	}
	return turns, nil
}

// Save implements Log with a transactional full rewrite of the session.
func (s *PostgresLog) Save(ctx context.Context, turns []core.Turn) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM memory_turns WHERE session_id=$1`, s.sessionID); err != nil {
		return fmt.Errorf("clear session turns: %w", err)
	}

	for i, t := range turns {
		if _, err := tx.Exec(ctx,
			`INSERT INTO memory_turns (session_id, position, seq, role, content, note)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			s.sessionID, i, t.Seq, string(t.Role), t.Content, t.Note,
		); err != nil {
			return fmt.Errorf("insert turn %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// Close implements Log.
func (s *PostgresLog) Close() error {
	s.pool.Close()
	return nil
}

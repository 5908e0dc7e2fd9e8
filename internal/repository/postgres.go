package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"npcbrain/internal/model"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// PostgresRepository handles database operations: action history and the
// utterance memory used for similar-command recall
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	// Disable prepared statement caching to avoid "unnamed prepared statement does not exist" errors
	if !strings.Contains(dsn, "?") {
		dsn += "?prefer_simple_protocol=true"
	} else {
		dsn += "&prefer_simple_protocol=true"
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// EnsureSchema creates the tables and indexes if they do not exist.
// Embedding dimension matches text-embedding-004.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS agent_actions (
			id BIGSERIAL PRIMARY KEY,
			agent_id TEXT NOT NULL,
			user_input TEXT NOT NULL DEFAULT '',
			intent TEXT NOT NULL DEFAULT '',
			confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
			raw_json TEXT NOT NULL DEFAULT '',
			accepted BOOLEAN NOT NULL DEFAULT FALSE,
			reject_reason TEXT NOT NULL DEFAULT '',
			outcome TEXT,
			outcome_detail TEXT,
			outcome_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_agent_actions_agent ON agent_actions (agent_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS utterances (
			id BIGSERIAL PRIMARY KEY,
			agent_id TEXT NOT NULL,
			text TEXT NOT NULL,
			intent TEXT NOT NULL DEFAULT '',
			embedding vector(768),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_utterances_agent ON utterances (agent_id, created_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// LogAction records one pipeline outcome and returns the row id
func (r *PostgresRepository) LogAction(
	ctx context.Context,
	agentID, userInput string,
	action *model.Action,
	accepted bool,
	rejectReason string,
) (int64, error) {
	query := `
		INSERT INTO agent_actions (agent_id, user_input, intent, confidence, raw_json, accepted, reject_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	intent := ""
	confidence := 0.0
	rawJSON := ""
	if action != nil {
		intent = string(action.Intent)
		confidence = action.Confidence
		rawJSON = action.RawJSON
	}

	var id int64
	err := r.db.GetContext(ctx, &id, query, agentID, userInput, intent, confidence, rawJSON, accepted, rejectReason)
	if err != nil {
		return 0, fmt.Errorf("failed to log action: %w", err)
	}
	return id, nil
}

// LogOutcome records how an executed action worked out
func (r *PostgresRepository) LogOutcome(ctx context.Context, actionID int64, outcome, detail string) error {
	query := `
		UPDATE agent_actions
		SET outcome = $2, outcome_detail = $3, outcome_at = NOW()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, actionID, outcome, detail)
	if err != nil {
		return fmt.Errorf("failed to log outcome: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("action %d not found", actionID)
	}
	return nil
}

// SaveUtterance stores one user input with its embedding for later recall
func (r *PostgresRepository) SaveUtterance(
	ctx context.Context,
	agentID, text, intent string,
	embedding []float32,
) error {
	vec := pgvector.NewVector(embedding)
	query := `
		INSERT INTO utterances (agent_id, text, intent, embedding)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query, agentID, text, intent, vec)
	if err != nil {
		return fmt.Errorf("failed to save utterance: %w", err)
	}
	return nil
}

// FindSimilarUtterances returns stored utterances closest to the query
// embedding by cosine distance. agentID narrows the search when non-empty.
func (r *PostgresRepository) FindSimilarUtterances(
	ctx context.Context,
	queryEmbedding []float32,
	agentID string,
	limit int,
) ([]model.UtteranceMatch, error) {
	vec := pgvector.NewVector(queryEmbedding)

	where := "1=1"
	args := []interface{}{vec, limit}
	if agentID != "" {
		where = "agent_id = $3"
		args = append(args, agentID)
	}

	query := fmt.Sprintf(`
		SELECT
			id, agent_id, text, intent,
			1 - (embedding <=> $1) AS similarity,
			EXTRACT(EPOCH FROM NOW() - created_at) AS age_seconds
		FROM utterances
		WHERE %s
		ORDER BY embedding <=> $1
		LIMIT $2
	`, where)

	rows := []struct {
		ID         int64   `db:"id"`
		AgentID    string  `db:"agent_id"`
		Text       string  `db:"text"`
		Intent     string  `db:"intent"`
		Similarity float64 `db:"similarity"`
		AgeSeconds float64 `db:"age_seconds"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query utterances: %w", err)
	}

	matches := make([]model.UtteranceMatch, 0, len(rows))
	for _, row := range rows {
		matches = append(matches, model.UtteranceMatch{
			ID:         row.ID,
			AgentID:    row.AgentID,
			Text:       row.Text,
			Intent:     row.Intent,
			Similarity: row.Similarity,
			AgeSeconds: row.AgeSeconds,
		})
	}
	return matches, nil
}

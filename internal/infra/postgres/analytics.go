package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quizhost-service/internal/domain"
)

// AnalyticsReader serves the report queries from a pgx pool, off the bun
// write path.
type AnalyticsReader struct {
	pool *pgxpool.Pool
}

func NewAnalyticsReader(pool *pgxpool.Pool) *AnalyticsReader {
	return &AnalyticsReader{pool: pool}
}

func (r *AnalyticsReader) AttemptHistory(ctx context.Context, quizID string) ([]domain.Attempt, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, quiz_post_id, COALESCE(account_id, ''), COALESCE(player_name, ''),
		       COALESCE(device_hash, ''), score, max_score, started_at, finished_at
		FROM attempts
		WHERE quiz_post_id = $1
		ORDER BY started_at ASC`, quizID)
	if err != nil {
		return nil, fmt.Errorf("attempt history: %w", err)
	}
	defer rows.Close()

	var attempts []domain.Attempt
	for rows.Next() {
		var a domain.Attempt
		if err := rows.Scan(&a.ID, &a.QuizPostID, &a.AccountID, &a.PlayerName,
			&a.DeviceHash, &a.Score, &a.MaxScore, &a.StartedAt, &a.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

func (r *AnalyticsReader) ScoreHistory(ctx context.Context, quizID string) ([]domain.ScoreEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, quiz_post_id, attempt_id, COALESCE(device_hash, ''), COALESCE(account_id, ''),
		       player_name, COALESCE(email, ''), COALESCE(email_hash, ''), score, max_score, created_at
		FROM score_entries
		WHERE quiz_post_id = $1
		ORDER BY created_at ASC`, quizID)
	if err != nil {
		return nil, fmt.Errorf("score history: %w", err)
	}
	defer rows.Close()

	var entries []domain.ScoreEntry
	for rows.Next() {
		var e domain.ScoreEntry
		if err := rows.Scan(&e.ID, &e.QuizPostID, &e.AttemptID, &e.DeviceHash, &e.AccountID,
			&e.PlayerName, &e.Email, &e.EmailHash, &e.Score, &e.MaxScore, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan score entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

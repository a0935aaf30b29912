package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/rrh1441/storytime-app-sub000/internal/models"
)

func (db *DB) CreateNarration(ctx context.Context, n *models.Narration) error {
	query := `
		INSERT INTO narrations (
			id, story_id, voice, language, status
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	return db.QueryRowContext(
		ctx, query,
		n.ID, n.StoryID, n.Voice, n.Language, n.Status,
	).Scan(&n.CreatedAt, &n.UpdatedAt)
}

func (db *DB) GetNarration(ctx context.Context, id uuid.UUID) (*models.Narration, error) {
	query := `
		SELECT
			id, story_id, voice, language, status,
			audio_url, duration_seconds, error_message, created_at, updated_at
		FROM narrations
		WHERE id = $1
	`

	n := &models.Narration{}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&n.ID, &n.StoryID, &n.Voice, &n.Language, &n.Status,
		&n.AudioURL, &n.DurationSeconds, &n.ErrorMessage,
		&n.CreatedAt, &n.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("narration not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get narration: %w", err)
	}

	return n, nil
}

// ListStoryNarrations returns all narrations for one story, oldest first.
func (db *DB) ListStoryNarrations(ctx context.Context, storyID uuid.UUID) ([]models.Narration, error) {
	query := `
		SELECT
			id, story_id, voice, language, status,
			audio_url, duration_seconds, error_message, created_at, updated_at
		FROM narrations
		WHERE story_id = $1
		ORDER BY created_at
	`

	rows, err := db.QueryContext(ctx, query, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query narrations: %w", err)
	}
	defer rows.Close()

	var narrations []models.Narration
	for rows.Next() {
		var n models.Narration
		if err := rows.Scan(
			&n.ID, &n.StoryID, &n.Voice, &n.Language, &n.Status,
			&n.AudioURL, &n.DurationSeconds, &n.ErrorMessage,
			&n.CreatedAt, &n.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan narration: %w", err)
		}
		narrations = append(narrations, n)
	}

	return narrations, rows.Err()
}

func (db *DB) MarkNarrationProcessing(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE narrations SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := db.ExecContext(ctx, query, models.NarrationStatusProcessing, id)
	return err
}

func (db *DB) MarkNarrationSucceeded(ctx context.Context, id uuid.UUID, audioURL string, durationSeconds float64) error {
	query := `
		UPDATE narrations
		SET status = $1, audio_url = $2, duration_seconds = $3, error_message = NULL, updated_at = NOW()
		WHERE id = $4
	`
	_, err := db.ExecContext(ctx, query, models.NarrationStatusSucceeded, audioURL, durationSeconds, id)
	return err
}

func (db *DB) MarkNarrationFailed(ctx context.Context, id uuid.UUID, errorMessage string) error {
	query := `
		UPDATE narrations
		SET status = $1, error_message = $2, updated_at = NOW()
		WHERE id = $3
	`
	_, err := db.ExecContext(ctx, query, models.NarrationStatusFailed, errorMessage, id)
	return err
}

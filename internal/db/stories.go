package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/rrh1441/storytime-app-sub000/internal/models"
)

func (db *DB) CreateStory(ctx context.Context, story *models.Story) error {
	query := `
		INSERT INTO stories (
			id, user_id, title, content, language, params
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	return db.QueryRowContext(
		ctx, query,
		story.ID, story.UserID, story.Title, story.Content,
		story.Language, story.Params,
	).Scan(&story.CreatedAt, &story.UpdatedAt)
}

func (db *DB) GetStory(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	query := `
		SELECT
			id, user_id, title, content, language, params,
			audio_url, audio_voice, created_at, updated_at
		FROM stories
		WHERE id = $1
	`

	story := &models.Story{}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&story.ID, &story.UserID, &story.Title, &story.Content,
		&story.Language, &story.Params,
		&story.AudioURL, &story.AudioVoice,
		&story.CreatedAt, &story.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("story not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get story: %w", err)
	}

	return story, nil
}

// ListStories returns story summaries ordered by creation date (newest first).
func (db *DB) ListStories(ctx context.Context, limit, offset int) ([]models.StorySummary, error) {
	query := `
		SELECT id, title, language, audio_url, created_at
		FROM stories
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	defer rows.Close()

	var stories []models.StorySummary
	for rows.Next() {
		var s models.StorySummary
		if err := rows.Scan(
			&s.ID, &s.Title, &s.Language, &s.AudioURL, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan story: %w", err)
		}
		stories = append(stories, s)
	}

	return stories, rows.Err()
}

// CountStories returns the total number of stored stories.
func (db *DB) CountStories(ctx context.Context) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stories`).Scan(&count)
	return count, err
}

// UpdateStoryAudio records the latest successful narration on the story row.
func (db *DB) UpdateStoryAudio(ctx context.Context, id uuid.UUID, audioURL, voice string) error {
	query := `
		UPDATE stories
		SET audio_url = $1, audio_voice = $2, updated_at = NOW()
		WHERE id = $3
	`
	_, err := db.ExecContext(ctx, query, audioURL, voice, id)
	if err != nil {
		return fmt.Errorf("failed to update story audio: %w", err)
	}
	return nil
}

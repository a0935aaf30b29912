package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rrh1441/storytime-app-sub000/internal/models"
)

// CurrentPeriod returns the usage period for right now, in "YYYY-MM" form.
func CurrentPeriod() string {
	return time.Now().UTC().Format("2006-01")
}

// IncrementUsage bumps a user's monthly counters, creating the row on first use.
func (db *DB) IncrementUsage(ctx context.Context, userID, period string, storiesDelta int, ttsCharsDelta int64) error {
	query := `
		INSERT INTO usage_counters (user_id, period, stories_generated, tts_characters)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, period) DO UPDATE SET
			stories_generated = usage_counters.stories_generated + EXCLUDED.stories_generated,
			tts_characters = usage_counters.tts_characters + EXCLUDED.tts_characters,
			updated_at = NOW()
	`

	_, err := db.ExecContext(ctx, query, userID, period, storiesDelta, ttsCharsDelta)
	if err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}
	return nil
}

// GetUsage returns a user's counters for one period. A user with no activity
// gets a zeroed counter, not an error.
func (db *DB) GetUsage(ctx context.Context, userID, period string) (*models.UsageCounter, error) {
	query := `
		SELECT user_id, period, stories_generated, tts_characters, updated_at
		FROM usage_counters
		WHERE user_id = $1 AND period = $2
	`

	counter := &models.UsageCounter{}
	err := db.QueryRowContext(ctx, query, userID, period).Scan(
		&counter.UserID, &counter.Period,
		&counter.StoriesGenerated, &counter.TTSCharacters, &counter.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return &models.UsageCounter{UserID: userID, Period: period}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get usage: %w", err)
	}

	return counter, nil
}

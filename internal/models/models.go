package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Enums
type NarrationStatus string

const (
	NarrationStatusPending    NarrationStatus = "pending"
	NarrationStatusProcessing NarrationStatus = "processing"
	NarrationStatusSucceeded  NarrationStatus = "succeeded"
	NarrationStatusFailed     NarrationStatus = "failed"
)

// JSONB is a custom type for PostgreSQL JSONB columns
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// StoryParams are the user-supplied knobs for story generation. They are
// persisted alongside the story as JSONB so a story can be regenerated later.
type StoryParams struct {
	Theme    string `json:"theme"`
	AgeRange string `json:"age_range"`
	HeroName string `json:"hero_name"`
	Language string `json:"language"`
}

// ToJSONB flattens the params for storage.
func (p StoryParams) ToJSONB() JSONB {
	return JSONB{
		"theme":     p.Theme,
		"age_range": p.AgeRange,
		"hero_name": p.HeroName,
		"language":  p.Language,
	}
}

// Models

type Story struct {
	ID         uuid.UUID `json:"id"`
	UserID     *string   `json:"user_id,omitempty"` // client-supplied identifier, used for usage accounting
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Language   string    `json:"language"`
	Params     JSONB     `json:"params,omitempty"`
	AudioURL   *string   `json:"audio_url,omitempty"`   // latest successful narration
	AudioVoice *string   `json:"audio_voice,omitempty"` // voice used for that narration
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Narration struct {
	ID              uuid.UUID       `json:"id"`
	StoryID         uuid.UUID       `json:"story_id"`
	Voice           string          `json:"voice"`
	Language        string          `json:"language"`
	Status          NarrationStatus `json:"status"`
	AudioURL        *string         `json:"audio_url,omitempty"`
	DurationSeconds *float64        `json:"duration_seconds,omitempty"`
	ErrorMessage    *string         `json:"error_message,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// UsageCounter tracks per-user consumption for one calendar month.
// Period uses the "YYYY-MM" form.
type UsageCounter struct {
	UserID           string    `json:"user_id"`
	Period           string    `json:"period"`
	StoriesGenerated int       `json:"stories_generated"`
	TTSCharacters    int64     `json:"tts_characters"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DTOs for API requests and responses

// TTSRequest is the body of POST /tts. Field names follow the frontend
// contract (camelCase on the wire), unlike the rest of the API.
type TTSRequest struct {
	Text     string `json:"text"`
	Voice    string `json:"voice"`
	Language string `json:"language,omitempty"`
}

type TTSResponse struct {
	AudioURL string `json:"audioUrl"`
}

// TTSPreviewRequest is the body of POST /tts/preview.
type TTSPreviewRequest struct {
	Voice string `json:"voice"`
}

type CreateStoryRequest struct {
	UserID   *string `json:"user_id,omitempty"`
	Theme    string  `json:"theme"`
	AgeRange string  `json:"age_range,omitempty"` // Default: "4-8"
	HeroName string  `json:"hero_name,omitempty"`
	Language string  `json:"language,omitempty"` // Default: "English"
}

type CreateNarrationRequest struct {
	Voice    string `json:"voice"`
	Language string `json:"language,omitempty"`
}

type CreateNarrationResponse struct {
	NarrationID uuid.UUID       `json:"narration_id"`
	Status      NarrationStatus `json:"status"`
}

// StorySummary is a lightweight DTO for the list endpoint — no content body,
// just enough to render a library shelf.
type StorySummary struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Language  string    `json:"language"`
	AudioURL  *string   `json:"audio_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ListStoriesResponse struct {
	Stories []StorySummary `json:"stories"`
	Total   int            `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
}

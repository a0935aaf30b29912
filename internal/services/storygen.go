package services

import (
	"context"

	"github.com/rrh1441/storytime-app-sub000/internal/models"
)

// ---------------------------------------------------------------------------
// StoryGenerator — common interface for story text providers
// Both OpenAI and Gemini implement this interface so the API layer can use
// whichever is configured without knowing the underlying provider.
// ---------------------------------------------------------------------------

// GeneratedStory is the common response type from any story provider.
type GeneratedStory struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// StoryGenerator is the interface that any story text provider must implement.
type StoryGenerator interface {
	// GenerateStory writes a complete children's story from the given
	// parameters. The returned content is plain prose ready to be read
	// aloud by the narration pipeline.
	GenerateStory(ctx context.Context, params models.StoryParams) (*GeneratedStory, error)
}

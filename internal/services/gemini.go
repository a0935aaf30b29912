package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"google.golang.org/genai"

	"github.com/rrh1441/storytime-app-sub000/internal/models"
)

// ---------------------------------------------------------------------------
// Gemini Story Generation Service
// Uses the Google Gen AI SDK to write story text. Configured as an
// alternative to OpenAI via STORY_PROVIDER=gemini; both providers share the
// same prompts and the same JSON response contract.
// ---------------------------------------------------------------------------

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiService handles story generation via Google's Gemini models.
type GeminiService struct {
	apiKey string
	model  string
}

var _ StoryGenerator = (*GeminiService)(nil)

// NewGeminiService creates a new Gemini story generation service.
// model: the Gemini model to use (empty string defaults to gemini-2.5-flash)
func NewGeminiService(apiKey, model string) *GeminiService {
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiService{
		apiKey: apiKey,
		model:  model,
	}
}

// GenerateStory writes a children's story with Gemini, constrained to a JSON
// response so it parses into the same shape the OpenAI provider returns.
func (s *GeminiService) GenerateStory(ctx context.Context, params models.StoryParams) (*GeneratedStory, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  s.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	prompt := buildStorySystemPrompt(params) + "\n\n" + buildStoryUserPrompt(params)

	resp, err := client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.9),
	})
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	rawContent := resp.Text()
	if rawContent == "" {
		return nil, fmt.Errorf("no response from gemini")
	}

	const maxLogLen = 2000

	var story GeneratedStory
	if err := json.Unmarshal([]byte(rawContent), &story); err != nil {
		log.Printf("[Gemini story] parse failed: %v", err)
		if len(rawContent) > maxLogLen {
			log.Printf("[Gemini story] raw response (truncated): %s...", rawContent[:maxLogLen])
		} else {
			log.Printf("[Gemini story] raw response: %s", rawContent)
		}
		return nil, fmt.Errorf("failed to parse story: %w", err)
	}

	var missing []string
	if strings.TrimSpace(story.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(story.Content) == "" {
		missing = append(missing, "content")
	}
	if len(missing) > 0 {
		log.Printf("[Gemini story] story missing required fields: %v", missing)
		if len(rawContent) > maxLogLen {
			log.Printf("[Gemini story] raw response (truncated): %s...", rawContent[:maxLogLen])
		} else {
			log.Printf("[Gemini story] raw response: %s", rawContent)
		}
		return nil, fmt.Errorf("story missing required fields: %v", missing)
	}

	log.Printf("[Gemini story] story generated: %q (%d chars, model=%s)",
		story.Title, len(story.Content), s.model)

	return &story, nil
}

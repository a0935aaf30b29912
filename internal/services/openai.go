package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/rrh1441/storytime-app-sub000/internal/models"
	"github.com/rrh1441/storytime-app-sub000/internal/tts"
)

type OpenAIService struct {
	client     *openai.Client
	storyModel string
	ttsModel   string
}

// Ensure OpenAIService satisfies both provider contracts at compile time.
var (
	_ StoryGenerator        = (*OpenAIService)(nil)
	_ tts.SpeechSynthesizer = (*OpenAIService)(nil)
)

func NewOpenAIService(apiKey, storyModel, ttsModel string) *OpenAIService {
	return &OpenAIService{
		client:     openai.NewClient(apiKey),
		storyModel: storyModel,
		ttsModel:   ttsModel,
	}
}

// GenerateStory writes a children's story using OpenAI structured output
// (JSON mode). The model returns {"title": ..., "content": ...}.
func (s *OpenAIService) GenerateStory(ctx context.Context, params models.StoryParams) (*GeneratedStory, error) {
	systemPrompt := buildStorySystemPrompt(params)
	userPrompt := buildStoryUserPrompt(params)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.storyModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userPrompt,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.9,
	})
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from openai")
	}

	rawContent := resp.Choices[0].Message.Content
	const maxLogLen = 2000

	var story GeneratedStory
	if err := json.Unmarshal([]byte(rawContent), &story); err != nil {
		log.Printf("[OpenAI story] parse failed: %v", err)
		if len(rawContent) > maxLogLen {
			log.Printf("[OpenAI story] raw response (truncated): %s...", rawContent[:maxLogLen])
		} else {
			log.Printf("[OpenAI story] raw response: %s", rawContent)
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
		log.Printf("[OpenAI story] story missing required fields: %v", missing)
		if len(rawContent) > maxLogLen {
			log.Printf("[OpenAI story] raw response (truncated): %s...", rawContent[:maxLogLen])
		} else {
			log.Printf("[OpenAI story] raw response: %s", rawContent)
		}
		return nil, fmt.Errorf("story missing required fields: %v", missing)
	}

	log.Printf("[OpenAI story] story generated: %q (%d chars, language=%s)",
		story.Title, len(story.Content), storyLanguage(params))

	return &story, nil
}

// Synthesize converts one chunk of text to MP3 speech. A single attempt per
// call; the narration pipeline treats any failure as fatal for the request.
func (s *OpenAIService) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.ttsModel),
		Input:          text,
		Voice:          openai.SpeechVoice(voiceID),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("openai speech request failed: %w", err)
	}
	defer resp.Close()

	audioData, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read speech response: %w", err)
	}

	if len(audioData) == 0 {
		return nil, fmt.Errorf("openai returned empty audio")
	}

	log.Printf("[OpenAI speech] Speech generated (voice=%s, textLen=%d, %d bytes)",
		voiceID, len(text), len(audioData))

	return audioData, nil
}

// EstimateSpeechSeconds estimates how long a text takes to narrate.
// Children's story narration runs around 140 words per minute, a bit slower
// than conversational pace.
func EstimateSpeechSeconds(text string) float64 {
	words := len(strings.Fields(text))
	const narrationWPM = 140.0
	return float64(words) / narrationWPM * 60.0
}

// storyLanguage resolves the output language with a default.
func storyLanguage(params models.StoryParams) string {
	if strings.TrimSpace(params.Language) != "" {
		return params.Language
	}
	return "English"
}

func buildStorySystemPrompt(params models.StoryParams) string {
	ageRange := params.AgeRange
	if strings.TrimSpace(ageRange) == "" {
		ageRange = "4-8"
	}
	language := storyLanguage(params)

	basePrompt := fmt.Sprintf(`You are a warm, imaginative children's author writing bedtime stories for ages %s.

LANGUAGE: %s
The title and the entire story must be written in %s.

Your task is to write one complete story that a parent can read aloud, or that a narrator can record, in roughly five minutes.

WRITING PROCESS - THINK LIKE A BEDTIME STORYTELLER:
Before writing, settle on one small, satisfying arc: a gentle problem, a journey or discovery, and a cozy resolution. The listener is winding down for sleep, so the story should end calmer than it began.

Guidelines:
- Aim for 500-800 words of story text.
- Use age-appropriate vocabulary for ages %s. Short sentences, concrete images, no violence or fright beyond mild suspense.
- Give the hero a clear want and let them earn the ending through kindness, curiosity, or courage.
- Repetition and gentle rhythm are welcome; they help young listeners follow along.
- End on a soothing note. The final paragraph should slow down and settle.

READ-ALOUD QUALITY - CRITICAL (the story is narrated by text-to-speech):
- Write to be LISTENED to, not read. Avoid parentheticals, footnote-style asides, and long nested clauses.
- Use punctuation to create natural pauses: commas, periods, ellipses.
- Spell out sounds and exclamations ("Whoosh!", "Tap, tap, tap") rather than describing them abstractly.
- Dialogue should be short and clearly attributed so a single narrator can voice it.

ALL FIELDS ARE REQUIRED - DO NOT LEAVE ANY FIELD EMPTY:
- title: A short, inviting story title. NEVER empty.
- content: The full story text as plain prose paragraphs. No markdown, no headings, no scene labels. NEVER empty.

Structure your response as JSON matching the required schema.`, ageRange, language, language, ageRange)

	return basePrompt
}

// buildStoryUserPrompt constructs the user-facing prompt with the request's
// customization context.
func buildStoryUserPrompt(params models.StoryParams) string {
	theme := params.Theme
	if strings.TrimSpace(theme) == "" {
		theme = "a gentle adventure"
	}

	prompt := fmt.Sprintf("Write a bedtime story about: %q", theme)

	var extras []string
	if strings.TrimSpace(params.HeroName) != "" {
		extras = append(extras, fmt.Sprintf("The hero is named %s", params.HeroName))
	}
	if strings.TrimSpace(params.AgeRange) != "" {
		extras = append(extras, fmt.Sprintf("Ages: %s", params.AgeRange))
	}
	if strings.TrimSpace(params.Language) != "" {
		extras = append(extras, fmt.Sprintf("Language: %s", params.Language))
	}
	if len(extras) > 0 {
		prompt += "\n\nDetails:\n- " + strings.Join(extras, "\n- ")
	}

	return prompt
}

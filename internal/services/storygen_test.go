package services

import (
	"strings"
	"testing"

	"github.com/rrh1441/storytime-app-sub000/internal/models"
)

func TestBuildStoryPromptsCarryParams(t *testing.T) {
	params := models.StoryParams{
		Theme:    "a lighthouse keeper's cat",
		AgeRange: "6-9",
		HeroName: "Milo",
		Language: "Spanish",
	}

	system := buildStorySystemPrompt(params)
	if !strings.Contains(system, "6-9") {
		t.Errorf("system prompt does not mention the age range")
	}
	if !strings.Contains(system, "Spanish") {
		t.Errorf("system prompt does not mention the language")
	}

	user := buildStoryUserPrompt(params)
	for _, want := range []string{"a lighthouse keeper's cat", "Milo", "Spanish", "6-9"} {
		if !strings.Contains(user, want) {
			t.Errorf("user prompt missing %q:\n%s", want, user)
		}
	}
}

func TestBuildStoryPromptsDefaults(t *testing.T) {
	system := buildStorySystemPrompt(models.StoryParams{})
	if !strings.Contains(system, "4-8") {
		t.Errorf("system prompt does not fall back to the default age range")
	}
	if !strings.Contains(system, "English") {
		t.Errorf("system prompt does not fall back to English")
	}

	user := buildStoryUserPrompt(models.StoryParams{})
	if !strings.Contains(user, "a gentle adventure") {
		t.Errorf("user prompt does not fall back to the default theme:\n%s", user)
	}
}

func TestEstimateSpeechSeconds(t *testing.T) {
	// 140 words at 140 wpm is one minute.
	text := strings.TrimSpace(strings.Repeat("word ", 140))
	got := EstimateSpeechSeconds(text)
	if got < 59.9 || got > 60.1 {
		t.Errorf("EstimateSpeechSeconds(140 words) = %v, want 60", got)
	}

	if got := EstimateSpeechSeconds(""); got != 0 {
		t.Errorf("EstimateSpeechSeconds(empty) = %v, want 0", got)
	}
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rrh1441/storytime-app-sub000/internal/db"
	"github.com/rrh1441/storytime-app-sub000/internal/models"
	"github.com/rrh1441/storytime-app-sub000/internal/queue"
	"github.com/rrh1441/storytime-app-sub000/internal/services"
	"github.com/rrh1441/storytime-app-sub000/internal/storage"
	"github.com/rrh1441/storytime-app-sub000/internal/tts"
)

// previewSampleText is the fixed sample read aloud by POST /tts/preview.
const previewSampleText = "Once upon a time, in a cozy little burrow, a sleepy rabbit waited for tonight's story."

// Narrator produces one narration artifact for story text and returns its
// public URL.
type Narrator interface {
	SynthesizeStory(ctx context.Context, text, voiceID, language string) (string, error)
}

var _ Narrator = (*tts.Pipeline)(nil)

type Handler struct {
	db       *db.DB
	queue    *queue.Queue
	storage  *storage.Storage
	narrator Narrator
	stories  services.StoryGenerator
	speech   tts.SpeechSynthesizer
}

func NewHandler(database *db.DB, q *queue.Queue, stor *storage.Storage, narrator Narrator, stories services.StoryGenerator, speech tts.SpeechSynthesizer) *Handler {
	return &Handler{
		db:       database,
		queue:    q,
		storage:  stor,
		narrator: narrator,
		stories:  stories,
		speech:   speech,
	}
}

// SynthesizeSpeech handles POST /tts.
// The request body carries the full story text plus the voice; the response
// is the public URL of the finished narration. Synthesis runs synchronously
// within the request, so long stories hold the connection open.
func (h *Handler) SynthesizeSpeech(w http.ResponseWriter, r *http.Request) {
	var req models.TTSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	language := req.Language
	if language == "" {
		language = "English"
	}

	audioURL, err := h.narrator.SynthesizeStory(r.Context(), req.Text, req.Voice, language)
	if err != nil {
		respondNarrationError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, models.TTSResponse{AudioURL: audioURL})
}

// PreviewVoice handles POST /tts/preview.
// Generates a short fixed sample in the requested voice so the frontend can
// play voices back before the user commits to a full narration.
func (h *Handler) PreviewVoice(w http.ResponseWriter, r *http.Request) {
	var req models.TTSPreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !tts.IsSupportedVoice(req.Voice) {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported voice %q. Allowed: %v", req.Voice, tts.SupportedVoices))
		return
	}

	audio, err := h.speech.Synthesize(r.Context(), previewSampleText, req.Voice)
	if err != nil {
		log.Printf("[API] Voice preview synthesis failed (voice=%s): %v", req.Voice, err)
		respondError(w, http.StatusInternalServerError, "Voice preview failed")
		return
	}

	audioURL, err := h.storage.UploadBytes(r.Context(), "preview-"+req.Voice, audio, tts.AudioContentType)
	if err != nil {
		log.Printf("[API] Voice preview upload failed (voice=%s): %v", req.Voice, err)
		respondError(w, http.StatusInternalServerError, "Failed to store voice preview")
		return
	}

	respondJSON(w, http.StatusOK, models.TTSResponse{AudioURL: audioURL})
}

// CreateStory handles POST /v1/stories
func (h *Handler) CreateStory(w http.ResponseWriter, r *http.Request) {
	var req models.CreateStoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Validate
	if req.Theme == "" {
		respondError(w, http.StatusBadRequest, "Theme is required")
		return
	}

	// Set defaults
	language := req.Language
	if language == "" {
		language = "English"
	}

	params := models.StoryParams{
		Theme:    req.Theme,
		AgeRange: req.AgeRange,
		HeroName: req.HeroName,
		Language: language,
	}

	generated, err := h.stories.GenerateStory(r.Context(), params)
	if err != nil {
		log.Printf("[API] Story generation failed (theme=%q): %v", req.Theme, err)
		respondError(w, http.StatusInternalServerError, "Story generation failed")
		return
	}

	story := &models.Story{
		ID:       uuid.New(),
		UserID:   req.UserID,
		Title:    generated.Title,
		Content:  generated.Content,
		Language: language,
		Params:   params.ToJSONB(),
	}

	if err := h.db.CreateStory(r.Context(), story); err != nil {
		log.Printf("[API] Failed to save story: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to save story")
		return
	}

	// Usage accounting never fails the request.
	if req.UserID != nil {
		if err := h.db.IncrementUsage(r.Context(), *req.UserID, db.CurrentPeriod(), 1, 0); err != nil {
			log.Printf("[API] Failed to record story usage (user=%s): %v", *req.UserID, err)
		}
	}

	respondJSON(w, http.StatusCreated, story)
}

// ListStories handles GET /v1/stories
// Query params:
//   - limit:  max results per page (default 20, max 100)
//   - offset: number of results to skip (default 0)
func (h *Handler) ListStories(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > 100 {
		limit = 100
	}

	offset := 0
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	total, err := h.db.CountStories(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to count stories")
		return
	}

	stories, err := h.db.ListStories(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list stories")
		return
	}

	respondJSON(w, http.StatusOK, models.ListStoriesResponse{
		Stories: stories,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	})
}

// GetStory handles GET /v1/stories/{storyID}
func (h *Handler) GetStory(w http.ResponseWriter, r *http.Request) {
	storyID, err := uuid.Parse(chi.URLParam(r, "storyID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid story ID")
		return
	}

	story, err := h.db.GetStory(r.Context(), storyID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Story not found")
		return
	}

	respondJSON(w, http.StatusOK, story)
}

// CreateNarration handles POST /v1/stories/{storyID}/narrations
// Creates a pending narration row and enqueues it for the background worker;
// the response returns immediately with 202.
func (h *Handler) CreateNarration(w http.ResponseWriter, r *http.Request) {
	storyID, err := uuid.Parse(chi.URLParam(r, "storyID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid story ID")
		return
	}

	var req models.CreateNarrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	voice := req.Voice
	if voice == "" {
		voice = tts.DefaultVoice
	}
	if !tts.IsSupportedVoice(voice) {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported voice %q. Allowed: %v", voice, tts.SupportedVoices))
		return
	}

	story, err := h.db.GetStory(r.Context(), storyID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Story not found")
		return
	}

	language := req.Language
	if language == "" {
		language = story.Language
	}

	narration := &models.Narration{
		ID:       uuid.New(),
		StoryID:  story.ID,
		Voice:    voice,
		Language: language,
		Status:   models.NarrationStatusPending,
	}

	if err := h.db.CreateNarration(r.Context(), narration); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create narration")
		return
	}

	if err := h.queue.EnqueueNarration(r.Context(), narration.ID, story.ID); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to enqueue narration")
		return
	}

	respondJSON(w, http.StatusAccepted, models.CreateNarrationResponse{
		NarrationID: narration.ID,
		Status:      narration.Status,
	})
}

// GetNarration handles GET /v1/narrations/{narrationID}
func (h *Handler) GetNarration(w http.ResponseWriter, r *http.Request) {
	narrationID, err := uuid.Parse(chi.URLParam(r, "narrationID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid narration ID")
		return
	}

	narration, err := h.db.GetNarration(r.Context(), narrationID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Narration not found")
		return
	}

	respondJSON(w, http.StatusOK, narration)
}

// ListStoryNarrations handles GET /v1/stories/{storyID}/narrations
func (h *Handler) ListStoryNarrations(w http.ResponseWriter, r *http.Request) {
	storyID, err := uuid.Parse(chi.URLParam(r, "storyID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid story ID")
		return
	}

	narrations, err := h.db.ListStoryNarrations(r.Context(), storyID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list narrations")
		return
	}

	respondJSON(w, http.StatusOK, narrations)
}

// GetUsage handles GET /v1/usage?userId=&period=
// period defaults to the current calendar month.
func (h *Handler) GetUsage(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "userId query parameter is required")
		return
	}

	period := r.URL.Query().Get("period")
	if period == "" {
		period = db.CurrentPeriod()
	}

	usage, err := h.db.GetUsage(r.Context(), userID, period)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to get usage")
		return
	}

	respondJSON(w, http.StatusOK, usage)
}

// respondNarrationError maps a narration pipeline error onto the HTTP
// contract: validation failures are the caller's fault (400), everything
// else is a server-side failure (500). Full detail goes to the log; the
// response body carries a per-kind summary.
func respondNarrationError(w http.ResponseWriter, err error) {
	var verr *tts.ValidationError
	if errors.As(err, &verr) {
		respondError(w, http.StatusBadRequest, verr.Error())
		return
	}

	log.Printf("[API] Narration failed: %v", err)

	var (
		encErr  *tts.EncodingError
		synErr  *tts.SynthesisError
		asmErr  *tts.AssemblyError
		storErr *tts.StorageError
		urlErr  *tts.URLResolutionError
	)
	switch {
	case errors.As(err, &encErr):
		respondError(w, http.StatusInternalServerError, "Failed to encode text for synthesis")
	case errors.As(err, &synErr):
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Speech synthesis failed for chunk %d", synErr.ChunkIndex))
	case errors.As(err, &asmErr):
		respondError(w, http.StatusInternalServerError, "Failed to assemble narration audio")
	case errors.As(err, &storErr):
		respondError(w, http.StatusInternalServerError, "Failed to store narration audio")
	case errors.As(err, &urlErr):
		respondError(w, http.StatusInternalServerError, "Stored narration has no public URL")
	default:
		respondError(w, http.StatusInternalServerError, "Narration failed")
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Health check
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

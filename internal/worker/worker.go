package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rrh1441/storytime-app-sub000/internal/db"
	"github.com/rrh1441/storytime-app-sub000/internal/queue"
	"github.com/rrh1441/storytime-app-sub000/internal/services"
	"github.com/rrh1441/storytime-app-sub000/internal/tts"
)

// Narrator produces one narration artifact for story text and returns its
// public URL. Satisfied by *tts.Pipeline.
type Narrator interface {
	SynthesizeStory(ctx context.Context, text, voiceID, language string) (string, error)
}

// Worker consumes narration jobs from the queue and runs them through the
// narration pipeline. Each job is one independent request; concurrency comes
// from running several consumers, never from parallelizing inside a job.
type Worker struct {
	db       *db.DB
	queue    *queue.Queue
	narrator Narrator
}

func New(database *db.DB, q *queue.Queue, narrator Narrator) *Worker {
	return &Worker{
		db:       database,
		queue:    q,
		narrator: narrator,
	}
}

// Start runs the consumer pool until ctx is cancelled.
func (w *Worker) Start(ctx context.Context, concurrency int) {
	log.Printf("Worker started with concurrency: %d", concurrency)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < concurrency; i++ {
		g.Go(func() error {
			w.consumeNarrations(gctx)
			return nil
		})
	}
	g.Wait()

	log.Println("Worker shutting down...")
}

func (w *Worker) consumeNarrations(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			job, err := w.queue.DequeueNarration(ctx, 5*time.Second)
			if err != nil {
				log.Printf("Error dequeuing narration job: %v", err)
				continue
			}

			if job == nil {
				continue // No job available, retry
			}

			log.Printf("Processing job %s (narration: %s)", job.ID, job.NarrationID)

			if err := w.processNarration(ctx, job); err != nil {
				log.Printf("Job %s failed: %v", job.ID, err)
			} else {
				log.Printf("Job %s completed successfully", job.ID)
			}
		}
	}
}

// processNarration runs one queued narration end to end: mark processing,
// synthesize through the pipeline, then record the outcome on both the
// narration and its story. The pipeline does not retry, and neither does the
// worker; a failed narration stays failed until a client requests a new one.
func (w *Worker) processNarration(ctx context.Context, job *queue.Job) error {
	narration, err := w.db.GetNarration(ctx, job.NarrationID)
	if err != nil {
		return fmt.Errorf("failed to get narration: %w", err)
	}

	if err := w.db.MarkNarrationProcessing(ctx, narration.ID); err != nil {
		return fmt.Errorf("failed to mark narration processing: %w", err)
	}

	story, err := w.db.GetStory(ctx, narration.StoryID)
	if err != nil {
		w.db.MarkNarrationFailed(ctx, narration.ID, "Story not found")
		return fmt.Errorf("failed to get story: %w", err)
	}

	audioURL, err := w.narrator.SynthesizeStory(ctx, story.Content, narration.Voice, narration.Language)
	if err != nil {
		w.db.MarkNarrationFailed(ctx, narration.ID, narrationFailureMessage(err))
		return fmt.Errorf("narration %s failed: %w", narration.ID, err)
	}

	// The merged file is gone once the pipeline returns, so the stored
	// duration is an estimate from the text length.
	durationSeconds := services.EstimateSpeechSeconds(story.Content)

	if err := w.db.MarkNarrationSucceeded(ctx, narration.ID, audioURL, durationSeconds); err != nil {
		return fmt.Errorf("failed to mark narration succeeded: %w", err)
	}

	if err := w.db.UpdateStoryAudio(ctx, story.ID, audioURL, narration.Voice); err != nil {
		log.Printf("Failed to update story audio (story=%s): %v", story.ID, err)
	}

	if story.UserID != nil {
		if err := w.db.IncrementUsage(ctx, *story.UserID, db.CurrentPeriod(), 0, int64(len(story.Content))); err != nil {
			log.Printf("Failed to record TTS usage (user=%s): %v", *story.UserID, err)
		}
	}

	return nil
}

// narrationFailureMessage reduces a pipeline error to the short form stored
// on the narration row. Full detail stays in the logs.
func narrationFailureMessage(err error) string {
	var (
		verr    *tts.ValidationError
		encErr  *tts.EncodingError
		synErr  *tts.SynthesisError
		asmErr  *tts.AssemblyError
		storErr *tts.StorageError
		urlErr  *tts.URLResolutionError
	)
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.As(err, &encErr):
		return "Failed to encode text for synthesis"
	case errors.As(err, &synErr):
		return fmt.Sprintf("Speech synthesis failed for chunk %d", synErr.ChunkIndex)
	case errors.As(err, &asmErr):
		return "Failed to assemble narration audio"
	case errors.As(err, &storErr):
		return "Failed to store narration audio"
	case errors.As(err, &urlErr):
		return "Stored narration has no public URL"
	default:
		return "Narration failed"
	}
}

package tts

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
)

// AudioContentType is the MIME type of every artifact the pipeline produces.
const AudioContentType = "audio/mpeg"

// SpeechSynthesizer converts one chunk of text into raw encoded audio.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// AudioMerger losslessly concatenates ordered audio files into one output
// file. Inputs must already be in playback order; the merger does not
// re-sort.
type AudioMerger interface {
	MergeAudio(ctx context.Context, inputPaths []string, outputPath string) error
}

// ArtifactStore durably persists a finished artifact under a unique key and
// returns its public URL.
type ArtifactStore interface {
	Store(ctx context.Context, data []byte, contentType string) (string, error)
}

// AudioSegment is one chunk's synthesized audio, spooled to disk and tagged
// with the chunk index it came from. The tag is the ordering contract for
// assembly.
type AudioSegment struct {
	ChunkIndex int
	Path       string
}

// Pipeline narrates story text end to end: chunk, synthesize each chunk in
// order, concatenate, store, return the public URL. Every dependency is
// injected. A Pipeline is safe for concurrent use: each request gets its own
// spool and the only shared state is read-only configuration.
type Pipeline struct {
	chunker *Chunker
	speech  SpeechSynthesizer
	merger  AudioMerger
	store   ArtifactStore
	tmpDir  string
}

func NewPipeline(chunker *Chunker, speech SpeechSynthesizer, merger AudioMerger, store ArtifactStore, tmpDir string) *Pipeline {
	return &Pipeline{
		chunker: chunker,
		speech:  speech,
		merger:  merger,
		store:   store,
		tmpDir:  tmpDir,
	}
}

// SynthesizeStory produces one narration artifact for the full text and
// returns its public URL.
//
// Stages run strictly in order (chunk, synthesize, assemble, store); no stage
// starts before the previous stage's full output exists, and no stage
// retries. Any failure aborts the request with a typed error after the
// spooled temp files are released. The language label is informational only.
func (p *Pipeline) SynthesizeStory(ctx context.Context, text, voiceID, language string) (string, error) {
	// Local checks come before anything that could reach the network.
	if !IsSupportedVoice(voiceID) {
		return "", &ValidationError{Field: "voice", Reason: fmt.Sprintf("unsupported voice %q", voiceID)}
	}
	if strings.TrimSpace(text) == "" {
		return "", &ValidationError{Field: "text", Reason: "text is empty"}
	}

	chunks, err := p.chunker.Chunk(text)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return "", &ValidationError{Field: "text", Reason: "text produced no synthesizable chunks"}
	}

	log.Printf("[Pipeline] Narrating %d chars as %d chunk(s) (voice=%s, language=%s)", len(text), len(chunks), voiceID, language)

	spool, err := NewSegmentSpool(p.tmpDir)
	if err != nil {
		return "", fmt.Errorf("failed to acquire segment spool: %w", err)
	}
	defer spool.Release()

	segments, err := p.synthesizeSequential(ctx, spool, chunks, voiceID)
	if err != nil {
		return "", err
	}

	inputPaths := make([]string, len(segments))
	for i, seg := range segments {
		inputPaths[i] = seg.Path
	}

	mergedPath := spool.MergedPath()
	if err := p.merger.MergeAudio(ctx, inputPaths, mergedPath); err != nil {
		return "", &AssemblyError{Err: err}
	}

	artifact, err := os.ReadFile(mergedPath)
	if err != nil {
		return "", &AssemblyError{Err: fmt.Errorf("failed to read merged artifact: %w", err)}
	}

	publicURL, err := p.store.Store(ctx, artifact, AudioContentType)
	if err != nil {
		return "", classifyStoreError(err)
	}

	log.Printf("[Pipeline] Narration stored (%d bytes, url=%s)", len(artifact), publicURL)
	return publicURL, nil
}

// synthesizeSequential synthesizes chunks strictly in index order, one at a
// time. The serialization keeps each request inside the speech provider's
// rate limits; chunk N+1 never starts before chunk N's segment is on disk.
// On any chunk failure all previously written segments are released before
// the error propagates.
func (p *Pipeline) synthesizeSequential(ctx context.Context, spool *SegmentSpool, chunks []TextChunk, voiceID string) ([]AudioSegment, error) {
	segments := make([]AudioSegment, 0, len(chunks))

	for _, chunk := range chunks {
		audio, err := p.speech.Synthesize(ctx, chunk.Content, voiceID)
		if err != nil {
			spool.Release()
			return nil, &SynthesisError{ChunkIndex: chunk.Index, Err: err}
		}

		path, err := spool.WriteSegment(chunk.Index, audio)
		if err != nil {
			spool.Release()
			return nil, &SynthesisError{ChunkIndex: chunk.Index, Err: err}
		}

		segments = append(segments, AudioSegment{ChunkIndex: chunk.Index, Path: path})
		log.Printf("[Pipeline] Synthesized chunk %d/%d (%d tokens, %d bytes)", chunk.Index+1, len(chunks), chunk.TokenCount, len(audio))
	}

	return segments, nil
}

// classifyStoreError keeps errors the store already typed and wraps the rest
// as StorageError.
func classifyStoreError(err error) error {
	var storageErr *StorageError
	var urlErr *URLResolutionError
	if errors.As(err, &storageErr) || errors.As(err, &urlErr) {
		return err
	}
	return &StorageError{Err: err}
}

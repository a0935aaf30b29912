package tts

import "fmt"

// The narration pipeline surfaces every failure as one of the typed errors
// below. The HTTP layer maps ValidationError to 400 and everything else to
// 500; chunk indices and provider detail stay in the logs.

// ValidationError reports bad caller input, detected locally before any
// external call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// EncodingError reports a tokenizer failure while chunking. No partial chunk
// list accompanies it.
type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("text encoding failed: %v", e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// SynthesisError reports a speech-provider failure for a single chunk.
// ChunkIndex identifies the chunk; Err carries the upstream detail.
type SynthesisError struct {
	ChunkIndex int
	Err        error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("speech synthesis failed for chunk %d: %v", e.ChunkIndex, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// AssemblyError reports a failure while concatenating segments into the
// final artifact.
type AssemblyError struct {
	Err error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("audio assembly failed: %v", e.Err)
}

func (e *AssemblyError) Unwrap() error { return e.Err }

// StorageError reports an artifact upload failure.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("artifact upload failed: %v", e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// URLResolutionError reports an upload that succeeded without yielding a
// publicly resolvable URL.
type URLResolutionError struct {
	Key string
}

func (e *URLResolutionError) Error() string {
	return fmt.Sprintf("no public url resolvable for stored object %q", e.Key)
}

package tts

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// SegmentSpool is per-request scratch space for synthesized audio segments
// and the assembled artifact. Each request gets its own directory so
// concurrent requests never collide on segment paths.
type SegmentSpool struct {
	dir string
}

// NewSegmentSpool creates a fresh spool directory under baseDir.
func NewSegmentSpool(baseDir string) (*SegmentSpool, error) {
	dir := filepath.Join(baseDir, "req_"+uuid.NewString())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create spool dir: %w", err)
	}
	return &SegmentSpool{dir: dir}, nil
}

// SegmentPath returns the file path for one chunk's audio segment.
func (s *SegmentSpool) SegmentPath(index int) string {
	return filepath.Join(s.dir, fmt.Sprintf("segment_%04d.mp3", index))
}

// MergedPath returns the file path for the assembled artifact.
func (s *SegmentSpool) MergedPath() string {
	return filepath.Join(s.dir, "narration.mp3")
}

// WriteSegment persists one chunk's audio bytes, tagged by chunk index.
func (s *SegmentSpool) WriteSegment(index int, data []byte) (string, error) {
	path := s.SegmentPath(index)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write segment %d: %w", index, err)
	}
	return path, nil
}

// Release deletes the spool directory and everything in it. Safe to call
// more than once.
func (s *SegmentSpool) Release() {
	if err := os.RemoveAll(s.dir); err != nil {
		log.Printf("[Spool] Failed to remove %s: %v", s.dir, err)
	}
}

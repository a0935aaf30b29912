package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/rrh1441/storytime-app-sub000/internal/tts"
)

// ---------------------------------------------------------------------------
// FFmpegService
// Concatenates narration segments with the ffmpeg concat demuxer and reads
// durations back with ffprobe. Both binaries must be on PATH.
// ---------------------------------------------------------------------------

type FFmpegService struct{}

var _ tts.AudioMerger = (*FFmpegService)(nil)

func NewFFmpegService() *FFmpegService {
	return &FFmpegService{}
}

// MergeAudio concatenates MP3 segments into a single file at outputPath.
// Segments must share one codec and encoding profile; the concat demuxer
// copies streams without re-encoding, so the merge is lossless. On failure
// any partial output file is removed.
func (s *FFmpegService) MergeAudio(ctx context.Context, inputPaths []string, outputPath string) error {
	if len(inputPaths) == 0 {
		return fmt.Errorf("no audio segments to merge")
	}

	// The list file lives next to the output so concurrent merges never
	// share a path.
	listPath := outputPath + ".list.txt"
	f, err := os.Create(listPath)
	if err != nil {
		return fmt.Errorf("failed to create concat list: %w", err)
	}

	for _, path := range inputPaths {
		// Write in FFmpeg concat format
		fmt.Fprintf(f, "file '%s'\n", path)
	}
	f.Close()
	defer os.Remove(listPath)

	// FFmpeg concat command
	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy", // Copy without re-encoding
		"-y",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		os.Remove(outputPath)
		return fmt.Errorf("ffmpeg concatenate failed: %w", err)
	}

	if seconds, err := s.GetAudioDuration(ctx, outputPath); err == nil {
		log.Printf("[FFmpeg] Merged %d segment(s) into %s (%.1fs)",
			len(inputPaths), filepath.Base(outputPath), seconds)
	} else {
		log.Printf("[FFmpeg] Merged %d segment(s) into %s (duration unavailable: %v)",
			len(inputPaths), filepath.Base(outputPath), err)
	}

	return nil
}

// GetAudioDuration returns the duration of an audio file in seconds.
func (s *FFmpegService) GetAudioDuration(ctx context.Context, audioPath string) (float64, error) {
	// Use ffprobe to get duration
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		audioPath,
	}

	cmd := exec.CommandContext(ctx, "ffprobe", args...)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	var durationSec float64
	if _, err := fmt.Sscanf(string(output), "%f", &durationSec); err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}

	return durationSec, nil
}

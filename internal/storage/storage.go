package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rrh1441/storytime-app-sub000/internal/tts"
)

const (
	// Narration MP3s run to several megabytes, so uploads get a long leash.
	uploadTimeout = 120 * time.Second
)

type Storage struct {
	url        string
	serviceKey string
	Bucket     string
	client     *http.Client
}

func New(url, serviceKey, bucket string) *Storage {
	return &Storage{
		url:        url,
		serviceKey: serviceKey,
		Bucket:     bucket,
		client: &http.Client{
			Timeout: uploadTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Upload writes an object to Supabase Storage in a single attempt.
// The upsert flag controls whether an existing object at the same key is
// overwritten or the write is rejected. Retry policy, if any, belongs to the
// caller.
func (s *Storage) Upload(ctx context.Context, path string, data []byte, contentType string, upsert bool) error {
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.url, s.Bucket, path)

	req, err := http.NewRequestWithContext(ctx, "PUT", endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Content-Length", fmt.Sprintf("%d", len(data)))
	req.Header.Set("x-upsert", strconv.FormatBool(upsert))

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload: %w", err)
	}

	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		return nil
	}

	return fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, truncate(string(body), 200))
}

// Store persists a finished narration artifact under a fresh random key and
// returns its public URL. Keys are never reused, so the write is
// non-overwriting (upsert=false) and concurrent requests cannot collide.
func (s *Storage) Store(ctx context.Context, data []byte, contentType string) (string, error) {
	key := uuid.NewString() + extensionFor(contentType)

	if err := s.Upload(ctx, key, data, contentType, false); err != nil {
		return "", &tts.StorageError{Err: err}
	}

	publicURL := s.GetPublicURL(key)
	if !isResolvable(publicURL) {
		return "", &tts.URLResolutionError{Key: key}
	}

	log.Printf("[Storage] Stored artifact %s (%d bytes)", key, len(data))
	return publicURL, nil
}

// UploadBytes is the single-shot upload helper used outside the narration
// pipeline (e.g. voice previews). The key is namespaced by the caller's name
// hint plus a timestamp; unlike Store, it overwrites on key collision
// (upsert=true).
func (s *Storage) UploadBytes(ctx context.Context, nameHint string, data []byte, contentType string) (string, error) {
	key := fmt.Sprintf("%s-%d%s", sanitizeHint(nameHint), time.Now().UnixMilli(), extensionFor(contentType))

	if err := s.Upload(ctx, key, data, contentType, true); err != nil {
		return "", &tts.StorageError{Err: err}
	}

	publicURL := s.GetPublicURL(key)
	if !isResolvable(publicURL) {
		return "", &tts.URLResolutionError{Key: key}
	}

	log.Printf("[Storage] Uploaded %s (%d bytes)", key, len(data))
	return publicURL, nil
}

// GetPublicURL returns the public URL for a file
func (s *Storage) GetPublicURL(path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.url, s.Bucket, path)
}

// isResolvable reports whether a built public URL is an absolute URL a
// client could actually fetch.
func isResolvable(rawURL string) bool {
	u, err := url.Parse(rawURL)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// extensionFor maps a MIME type to the storage key extension.
func extensionFor(contentType string) string {
	switch contentType {
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "audio/ogg":
		return ".ogg"
	default:
		return ".bin"
	}
}

// sanitizeHint reduces a caller-supplied name hint to a safe key prefix.
func sanitizeHint(hint string) string {
	hint = strings.ToLower(strings.TrimSpace(hint))
	if hint == "" {
		return "upload"
	}

	var b strings.Builder
	for _, r := range hint {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}

// truncate limits a string to maxLen characters for log output
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

var _ tts.ArtifactStore = (*Storage)(nil)

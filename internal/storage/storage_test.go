package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rrh1441/storytime-app-sub000/internal/tts"
)

// recordedUpload is one PUT captured by the test server.
type recordedUpload struct {
	path        string
	contentType string
	upsert      string
	auth        string
	body        []byte
}

// newStorageServer returns a fake Supabase Storage endpoint that records
// every upload it accepts.
func newStorageServer(t *testing.T, status int, respBody string) (*httptest.Server, func() []recordedUpload) {
	t.Helper()

	var mu sync.Mutex
	var uploads []recordedUpload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "PUT" {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}

		mu.Lock()
		uploads = append(uploads, recordedUpload{
			path:        r.URL.Path,
			contentType: r.Header.Get("Content-Type"),
			upsert:      r.Header.Get("x-upsert"),
			auth:        r.Header.Get("Authorization"),
			body:        body,
		})
		mu.Unlock()

		w.WriteHeader(status)
		w.Write([]byte(respBody))
	}))

	snapshot := func() []recordedUpload {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedUpload(nil), uploads...)
	}
	return srv, snapshot
}

func TestStoreUploadsNonOverwriting(t *testing.T) {
	srv, uploads := newStorageServer(t, http.StatusOK, "{}")
	defer srv.Close()

	s := New(srv.URL, "service-key", "story-audio")
	url, err := s.Store(context.Background(), []byte("mp3 bytes"), "audio/mpeg")
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	got := uploads()
	if len(got) != 1 {
		t.Fatalf("uploads = %d, want 1", len(got))
	}
	up := got[0]

	if !strings.HasPrefix(up.path, "/storage/v1/object/story-audio/") {
		t.Errorf("upload path %q is not under the bucket", up.path)
	}
	if !strings.HasSuffix(up.path, ".mp3") {
		t.Errorf("upload path %q lacks the .mp3 extension", up.path)
	}
	if up.upsert != "false" {
		t.Errorf("x-upsert = %q, want false", up.upsert)
	}
	if up.auth != "Bearer service-key" {
		t.Errorf("auth header = %q", up.auth)
	}
	if up.contentType != "audio/mpeg" {
		t.Errorf("content type = %q", up.contentType)
	}
	if string(up.body) != "mp3 bytes" {
		t.Errorf("uploaded body = %q", up.body)
	}

	key := strings.TrimPrefix(up.path, "/storage/v1/object/story-audio/")
	want := srv.URL + "/storage/v1/object/public/story-audio/" + key
	if url != want {
		t.Errorf("url = %q, want %q", url, want)
	}
}

func TestStoreKeysAreUnique(t *testing.T) {
	srv, uploads := newStorageServer(t, http.StatusOK, "{}")
	defer srv.Close()

	s := New(srv.URL, "service-key", "story-audio")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Store(context.Background(), []byte("audio"), "audio/mpeg"); err != nil {
				t.Errorf("Store failed: %v", err)
			}
		}()
	}
	wg.Wait()

	got := uploads()
	seen := map[string]bool{}
	for _, up := range got {
		if seen[up.path] {
			t.Errorf("key %q used twice", up.path)
		}
		seen[up.path] = true
	}
	if len(seen) != 4 {
		t.Errorf("distinct keys = %d, want 4", len(seen))
	}
}

func TestUploadBytesUpserts(t *testing.T) {
	srv, uploads := newStorageServer(t, http.StatusOK, "{}")
	defer srv.Close()

	s := New(srv.URL, "service-key", "story-audio")
	url, err := s.UploadBytes(context.Background(), "Preview: Nova!", []byte("sample"), "audio/mpeg")
	if err != nil {
		t.Fatalf("UploadBytes failed: %v", err)
	}
	if url == "" {
		t.Fatal("empty url")
	}

	got := uploads()
	if len(got) != 1 {
		t.Fatalf("uploads = %d, want 1", len(got))
	}
	up := got[0]

	if up.upsert != "true" {
		t.Errorf("x-upsert = %q, want true", up.upsert)
	}
	key := strings.TrimPrefix(up.path, "/storage/v1/object/story-audio/")
	if !strings.HasPrefix(key, "preview--nova-") {
		t.Errorf("key %q does not start with the sanitized hint", key)
	}
	if !strings.HasSuffix(key, ".mp3") {
		t.Errorf("key %q lacks the .mp3 extension", key)
	}
}

func TestStoreUploadFailure(t *testing.T) {
	srv, uploads := newStorageServer(t, http.StatusConflict, `{"error":"Duplicate"}`)
	defer srv.Close()

	s := New(srv.URL, "service-key", "story-audio")
	_, err := s.Store(context.Background(), []byte("audio"), "audio/mpeg")
	if err == nil {
		t.Fatal("Store succeeded against a failing server")
	}

	var storErr *tts.StorageError
	if !errors.As(err, &storErr) {
		t.Fatalf("error %T is not a StorageError", err)
	}
	if !strings.Contains(err.Error(), "409") {
		t.Errorf("error %q does not mention the response status", err)
	}

	// A single attempt only: the write is not retried.
	if got := uploads(); len(got) != 1 {
		t.Errorf("uploads = %d, want exactly 1", len(got))
	}
}

func TestUploadBytesUploadFailure(t *testing.T) {
	srv, _ := newStorageServer(t, http.StatusInternalServerError, "boom")
	defer srv.Close()

	s := New(srv.URL, "service-key", "story-audio")
	_, err := s.UploadBytes(context.Background(), "preview", []byte("audio"), "audio/mpeg")
	if err == nil {
		t.Fatal("UploadBytes succeeded against a failing server")
	}

	var storErr *tts.StorageError
	if !errors.As(err, &storErr) {
		t.Errorf("error %T is not a StorageError", err)
	}
}

func TestIsResolvable(t *testing.T) {
	for _, u := range []string{
		"https://example.supabase.co/storage/v1/object/public/b/k.mp3",
		"http://localhost:54321/storage/v1/object/public/b/k.mp3",
	} {
		if !isResolvable(u) {
			t.Errorf("isResolvable(%q) = false", u)
		}
	}
	for _, u := range []string{
		"",
		"/storage/v1/object/public/b/k.mp3",
		"example.com/no-scheme",
		"://missing-scheme",
	} {
		if isResolvable(u) {
			t.Errorf("isResolvable(%q) = true", u)
		}
	}
}

func TestGetPublicURL(t *testing.T) {
	s := New("https://example.supabase.co", "key", "story-audio")
	got := s.GetPublicURL("abc.mp3")
	want := "https://example.supabase.co/storage/v1/object/public/story-audio/abc.mp3"
	if got != want {
		t.Errorf("GetPublicURL = %q, want %q", got, want)
	}
}

func TestExtensionFor(t *testing.T) {
	cases := map[string]string{
		"audio/mpeg":               ".mp3",
		"audio/mp3":                ".mp3",
		"audio/wav":                ".wav",
		"audio/ogg":                ".ogg",
		"application/octet-stream": ".bin",
	}
	for ct, want := range cases {
		if got := extensionFor(ct); got != want {
			t.Errorf("extensionFor(%q) = %q, want %q", ct, got, want)
		}
	}
}

func TestSanitizeHint(t *testing.T) {
	cases := map[string]string{
		"Preview: Nova!": "preview--nova-",
		"plain-name_1":   "plain-name_1",
		"  ":             "upload",
		"":               "upload",
	}
	for in, want := range cases {
		if got := sanitizeHint(in); got != want {
			t.Errorf("sanitizeHint(%q) = %q, want %q", in, got, want)
		}
	}
}

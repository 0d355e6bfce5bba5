package downloader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ytget/mediadl/client"
	"github.com/ytget/mediadl/errs"
)

// mockTransport is a custom HTTP transport for testing
type mockTransport struct {
	responseStatus int
	body           io.Reader
	contentLength  int64
	err            error
}

func (t *mockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.err != nil {
		return nil, t.err
	}
	body := t.body
	if body == nil {
		body = http.NoBody
	}
	return &http.Response{
		StatusCode:    t.responseStatus,
		Header:        make(http.Header),
		Body:          io.NopCloser(body),
		ContentLength: t.contentLength,
		Request:       req,
	}, nil
}

func clientWith(rt http.RoundTripper) *client.Client {
	return &client.Client{HTTPClient: &http.Client{Transport: rt}}
}

// failingReader returns some data and then an error.
type failingReader struct {
	data []byte
	done bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.done {
		r.done = true
		return copy(p, r.data), nil
	}
	return 0, errors.New("connection reset")
}

func makeServer(data []byte) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
		_, _ = w.Write(data)
	}))
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestDownload(t *testing.T) {
	data := make([]byte, 200*1024)
	for i := range data {
		data[i] = byte(i % 251)
	}

	var gotReferer, gotEncoding, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReferer = r.Header.Get("Referer")
		gotEncoding = r.Header.Get("Accept-Encoding")
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
		_, _ = w.Write(data)
	}))
	defer server.Close()

	var updates []Progress
	dl := New(client.New(), func(p Progress) { updates = append(updates, p) }, 0)

	dir := t.TempDir()
	out := filepath.Join(dir, "video.mp4")
	n, err := dl.Download(context.Background(), server.URL, out)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if n != int64(len(data)) {
		t.Errorf("Download() wrote %d bytes, want %d", n, len(data))
	}

	got, err := os.ReadFile(out)
	if err != nil || !bytes.Equal(got, data) {
		t.Fatalf("bad content: err=%v got=%d want=%d", err, len(got), len(data))
	}
	if names := listDir(t, dir); len(names) != 1 {
		t.Errorf("expected only the final file, got %v", names)
	}

	if gotReferer != DefaultReferer {
		t.Errorf("Referer = %q, want %q", gotReferer, DefaultReferer)
	}
	if gotEncoding != "identity" {
		t.Errorf("Accept-Encoding = %q, want identity", gotEncoding)
	}
	if gotUA != client.DefaultUserAgent {
		t.Errorf("User-Agent = %q", gotUA)
	}

	if len(updates) == 0 {
		t.Fatal("expected progress updates")
	}
	last := updates[len(updates)-1]
	if last.Percent != 100 || last.DownloadedSize != int64(len(data)) || last.TotalSize != int64(len(data)) {
		t.Errorf("last progress = %+v", last)
	}
	for i := 1; i < len(updates); i++ {
		if updates[i].DownloadedSize < updates[i-1].DownloadedSize {
			t.Fatalf("progress went backwards at %d", i)
		}
	}
}

func TestDownloadUnknownLength(t *testing.T) {
	var updates []Progress
	dl := New(clientWith(&mockTransport{
		responseStatus: http.StatusOK,
		body:           strings.NewReader("hello"),
		contentLength:  -1,
	}), func(p Progress) { updates = append(updates, p) }, 0)

	out := filepath.Join(t.TempDir(), "a.mp3")
	if _, err := dl.Download(context.Background(), "http://media.test/a.mp3", out); err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if len(updates) == 0 || updates[0].TotalSize != 0 || updates[0].Percent != 0 {
		t.Errorf("unexpected progress for unknown length: %+v", updates)
	}
}

func TestDownloadFailures(t *testing.T) {
	tests := []struct {
		name      string
		transport *mockTransport
		wantErr   error
	}{
		{"http status", &mockTransport{responseStatus: http.StatusForbidden}, errs.ErrDownloadFailed},
		{"transport error", &mockTransport{err: errors.New("dial tcp: refused")}, errs.ErrDownloadFailed},
		{"stream error", &mockTransport{responseStatus: http.StatusOK, body: &failingReader{data: []byte("partial")}}, errs.ErrDownloadFailed},
		{"empty body", &mockTransport{responseStatus: http.StatusOK}, errs.ErrDownloadFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			out := filepath.Join(dir, "video.mp4")
			_, err := New(clientWith(tt.transport), nil, 0).Download(context.Background(), "http://media.test/v.mp4", out)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Download() error = %v, want %v", err, tt.wantErr)
			}
			if names := listDir(t, dir); len(names) != 0 {
				t.Errorf("no file may remain after a failure, got %v", names)
			}
		})
	}
}

func TestDownloadEmptyURL(t *testing.T) {
	_, err := New(nil, nil, 0).Download(context.Background(), "", filepath.Join(t.TempDir(), "x"))
	if !errors.Is(err, errs.ErrDownloadFailed) {
		t.Fatalf("Download() error = %v, want ErrDownloadFailed", err)
	}
}

func TestDownloadMissingDirectory(t *testing.T) {
	dl := New(clientWith(&mockTransport{responseStatus: http.StatusOK, body: strings.NewReader("x")}), nil, 0)
	out := filepath.Join(t.TempDir(), "missing", "video.mp4")
	_, err := dl.Download(context.Background(), "http://media.test/v.mp4", out)
	if !errors.Is(err, errs.ErrFilesystem) {
		t.Fatalf("Download() error = %v, want ErrFilesystem", err)
	}
}

func TestDownloadHeaderTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	dl := New(client.New(), nil, 0).WithTimeout(50 * time.Millisecond)
	start := time.Now()
	_, err := dl.Download(context.Background(), server.URL, filepath.Join(t.TempDir(), "v.mp4"))
	if !errors.Is(err, errs.ErrDownloadFailed) {
		t.Fatalf("Download() error = %v, want ErrDownloadFailed", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Errorf("timeout not honoured, took %v", time.Since(start))
	}
}

func TestDownloadRateLimited(t *testing.T) {
	data := bytes.Repeat([]byte("a"), 4096)
	server := makeServer(data)
	defer server.Close()

	dl := New(client.New(), nil, 40*1024)
	start := time.Now()
	if _, err := dl.Download(context.Background(), server.URL, filepath.Join(t.TempDir(), "f")); err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("expected rate limiting to slow the transfer, took %v", elapsed)
	}
}

func TestWithFileMode(t *testing.T) {
	dl := New(nil, nil, 0).WithFileMode(0600)
	if dl.fileMode != 0600 {
		t.Errorf("fileMode = %v", dl.fileMode)
	}
	if New(nil, nil, 0).WithFileMode(0).fileMode != DefaultFileMode {
		t.Error("zero mode should keep the default")
	}
}

func TestSleepForRate(t *testing.T) {
	tests := []struct {
		name         string
		rateLimitBps int64
		written      int64
		expectSleep  bool
	}{
		{"No rate limit", 0, 1000, false},
		{"Negative rate limit", -100, 1000, false},
		{"No bytes written", 1000, 0, false},
		{"Negative bytes written", 1000, -100, false},
		{"Normal rate limiting", 1000, 20, true},
		{"High rate limit", 100000, 1000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			downloader := &Downloader{rateLimitBps: tt.rateLimitBps}

			start := time.Now()
			downloader.sleepForRate(context.Background(), tt.written)
			duration := time.Since(start)

			if tt.expectSleep {
				if duration < time.Millisecond {
					t.Errorf("Expected sleep time > 0, got %v", duration)
				}
			} else if duration > time.Millisecond {
				t.Errorf("Expected no sleep, got sleep time %v", duration)
			}
		})
	}
}

func TestSleepForRateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	downloader := &Downloader{rateLimitBps: 1}

	start := time.Now()
	downloader.sleepForRate(ctx, 1000)
	if time.Since(start) > 100*time.Millisecond {
		t.Error("sleep should stop when the context is canceled")
	}
}

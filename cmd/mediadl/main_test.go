package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/mediadl/internal/storage"
)

func desktopEnv() storage.Env {
	return storage.Env{
		Getenv: func(string) string { return "" },
		Exists: func(string) bool { return false },
		Home:   func() (string, error) { return "/home/test", nil },
	}
}

func termuxEnv(storageReady bool) storage.Env {
	return storage.Env{
		Getenv: func(k string) string {
			if k == "PREFIX" {
				return "/data/data/com.termux/files/usr"
			}
			return ""
		},
		Exists: func(p string) bool { return storageReady && strings.HasPrefix(p, storage.TermuxStorageLink) },
		Home:   func() (string, error) { return "/data/data/com.termux/files/home", nil },
	}
}

// isolate keeps the host's configuration out of the command under test.
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, kv := range os.Environ() {
		if k, _, _ := strings.Cut(kv, "="); strings.HasPrefix(k, "MEDIADL_") {
			t.Setenv(k, "")
			require.NoError(t, os.Unsetenv(k))
		}
	}
	t.Setenv("MEDIADL_LOG_OUTPUT", "none")
}

func runCLI(t *testing.T, env storage.Env, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, &stdout, &stderr, env)
	return code, stdout.String(), stderr.String()
}

func TestParseRate(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"", 0},
		{"100", 100},
		{"500KiB/s", 500 * 1024},
		{"2MiB/s", 2 * 1024 * 1024},
		{"1GiB", 1024 * 1024 * 1024},
		{"1.5kb/s", 1500},
		{"3MB", 3000000},
		{"1GB/s", 1000000000},
		{"-1MiB", 0},
		{"fast", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseRate(tt.in))
		})
	}
}

func TestOptionsMode(t *testing.T) {
	assert.Equal(t, "all", (&options{}).mode().String())
	assert.Equal(t, "audio-only", (&options{audioOnly: true}).mode().String())
	assert.Equal(t, "video-only", (&options{videoOnly: true}).mode().String())
	assert.Equal(t, "info", (&options{info: true, audioOnly: true}).mode().String())
}

func TestHelp(t *testing.T) {
	isolate(t)
	code, out, _ := runCLI(t, desktopEnv(), "--help")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Supported Platforms")
	assert.Contains(t, out, "--audio-only")
	assert.Contains(t, out, "tiktok, facebook, ytmp4, ytmp3")
	assert.Contains(t, out, "default: ./downloads")
	assert.NotContains(t, out, "Termux Setup")
	assert.Contains(t, out, "MEDIADL_API_BASE")
	assert.Contains(t, out, "MEDIADL_LOG_OUTPUT")
}

func TestHelpUnderTermux(t *testing.T) {
	isolate(t)
	code, out, _ := runCLI(t, termuxEnv(true), "-h")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Termux Setup")
	assert.Contains(t, out, storage.TermuxStorageLink+"/downloads")
}

func TestMissingURL(t *testing.T) {
	isolate(t)
	code, out, errOut := runCLI(t, desktopEnv())
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Examples:")
	assert.Contains(t, out, "mediadl -p ytmp3")
	assert.Contains(t, errOut, "video URL is required")
	assert.Equal(t, 1, strings.Count(errOut, "Error"))
}

func TestTermuxStorageMissing(t *testing.T) {
	isolate(t)
	code, out, errOut := runCLI(t, termuxEnv(false), "https://www.tiktok.com/@u/video/1")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "termux-setup-storage")
	assert.Contains(t, errOut, "termux storage is not set up")
	assert.NotContains(t, errOut, "Termux tips")
}

func TestArgumentErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"conflicting modes", []string{"-a", "-v", "https://www.tiktok.com/@u/video/1"}, "cannot be combined"},
		{"bad quality", []string{"-q", "4k", "https://www.tiktok.com/@u/video/1"}, "quality must be normal or hd"},
		{"too many args", []string{"https://a", "https://b"}, "accepts at most 1 arg"},
		{"unknown flag", []string{"--nope", "https://a"}, "unknown flag"},
		{"unsupported domain", []string{"https://example.com/v/1"}, "unsupported platform"},
		{"unknown platform key", []string{"-p", "vimeo", "https://vimeo.com/1"}, "unsupported platform"},
		{"bad timeout", []string{"--http-timeout=-1s", "https://www.tiktok.com/@u/video/1"}, "fetch_timeout must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			code, _, errOut := runCLI(t, desktopEnv(), tt.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, errOut, tt.want)
		})
	}
}

func TestRuntimeErrorShowsTermuxTips(t *testing.T) {
	isolate(t)
	code, _, errOut := runCLI(t, termuxEnv(true), "https://example.com/v/1")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Termux tips")
}

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tiktok/v2", func(w http.ResponseWriter, r *http.Request) {
		base := "http://" + r.Host
		_, _ = w.Write([]byte(`{"success": true, "data": {"download": {"video": ["` + base + `/media/sd", "` + base + `/media/hd"], "audio": "` + base + `/media/audio"}, "metadata": {"description": "clip"}}}`))
	})
	mux.HandleFunc("/media/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.TrimPrefix(r.URL.Path, "/media/")))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestDownload(t *testing.T) {
	isolate(t)
	srv := newAPI(t)
	t.Setenv("MEDIADL_API_BASE", srv.URL+"/api")
	dir := filepath.Join(t.TempDir(), "out")

	code, out, errOut := runCLI(t, desktopEnv(), "--no-color", "--no-progress", "-o", dir, "https://www.tiktok.com/@u/video/1")
	require.Equal(t, 0, code, errOut)

	names := listDir(t, dir)
	require.Len(t, names, 2)
	for _, n := range names {
		assert.True(t, strings.HasPrefix(n, "clip_"), n)
	}
	assert.Contains(t, out, "Platform detected: TIKTOK")
	assert.Contains(t, out, "Download complete!")
	assert.Empty(t, errOut)
}

func TestDownloadWritesLogFile(t *testing.T) {
	isolate(t)
	srv := newAPI(t)
	t.Setenv("MEDIADL_API_BASE", srv.URL+"/api")
	logPath := filepath.Join(t.TempDir(), "mediadl.log")
	t.Setenv("MEDIADL_LOG_LEVEL", "debug")
	t.Setenv("MEDIADL_LOG_OUTPUT", "FILE:"+logPath)
	dir := filepath.Join(t.TempDir(), "out")

	code, _, errOut := runCLI(t, desktopEnv(), "--no-color", "--no-progress", "-o", dir, "https://www.tiktok.com/@u/video/1")
	require.Equal(t, 0, code, errOut)

	b, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), "[DEBUG] [cli] configuration loaded")
	assert.Contains(t, string(b), "mode=all")
	assert.Contains(t, string(b), "[DEBUG] [storage] Directory created dir="+dir)
}

func TestDownloadWithScript(t *testing.T) {
	isolate(t)
	srv := newAPI(t)
	t.Setenv("MEDIADL_API_BASE", srv.URL+"/api")
	dir := t.TempDir()
	js := filepath.Join(t.TempDir(), "extract.js")
	require.NoError(t, os.WriteFile(js, []byte(`function extract(payload, platform) {
		return {video: [payload.data.download.video[0]], audio: ""};
	}`), 0o644))

	code, _, errOut := runCLI(t, desktopEnv(), "--no-color", "--script", js, "-q", "normal", "-v", "-o", dir, "https://www.tiktok.com/@u/video/1")
	require.Equal(t, 0, code, errOut)

	names := listDir(t, dir)
	require.Len(t, names, 1)
	b, err := os.ReadFile(filepath.Join(dir, names[0]))
	require.NoError(t, err)
	assert.Equal(t, "sd", string(b))
}

func TestInfoMode(t *testing.T) {
	isolate(t)
	srv := newAPI(t)
	t.Setenv("MEDIADL_API_BASE", srv.URL+"/api")
	dir := filepath.Join(t.TempDir(), "out")

	code, out, errOut := runCLI(t, desktopEnv(), "--no-color", "-i", "-o", dir, "https://www.tiktok.com/@u/video/1")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Video Information TIKTOK")
	assert.NoDirExists(t, dir)
}

func TestInfoAudioOnlyUsesAudioEndpoint(t *testing.T) {
	isolate(t)
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_, _ = w.Write([]byte(`{"success": true, "result": {"title": "Song", "duration": "3:33", "uploadDate": "2009", "description": "d", "audio_url": "http://` + r.Host + `/a.mp3"}}`))
	}))
	t.Cleanup(srv.Close)
	t.Setenv("MEDIADL_API_BASE", srv.URL+"/api")
	t.Setenv("MEDIADL_YTMP3_ENDPOINT", srv.URL+"/ytmp3")

	code, out, errOut := runCLI(t, desktopEnv(), "--no-color", "-i", "-a", "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, []string{"/ytmp3"}, paths)
	assert.Contains(t, out, "Platform detected: YTMP3")
	assert.Contains(t, out, "Video Information YTMP3")
}

func TestMissingScript(t *testing.T) {
	isolate(t)
	code, _, errOut := runCLI(t, desktopEnv(), "--script", filepath.Join(t.TempDir(), "none.js"), "https://www.tiktok.com/@u/video/1")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "read script")
}

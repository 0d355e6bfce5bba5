package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/mediadl/errs"
	"github.com/ytget/mediadl/internal/logger"
)

func fakeEnv(vars map[string]string, existing ...string) Env {
	set := make(map[string]bool, len(existing))
	for _, p := range existing {
		set[p] = true
	}
	return Env{
		Getenv: func(k string) string { return vars[k] },
		Exists: func(p string) bool { return set[p] },
		Home:   func() (string, error) { return "/home/u", nil },
	}
}

func TestIsTermux(t *testing.T) {
	tests := []struct {
		name string
		env  Env
		want bool
	}{
		{"plain linux", fakeEnv(map[string]string{"PREFIX": "/usr"}), false},
		{"prefix", fakeEnv(map[string]string{"PREFIX": "/data/data/com.termux/files/usr"}), true},
		{"version", fakeEnv(map[string]string{"TERMUX_VERSION": "0.118"}), true},
		{"data dir", fakeEnv(nil, TermuxRoot), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.env.IsTermux())
		})
	}
}

func TestDefaultDownloadDir(t *testing.T) {
	assert.Equal(t, FallbackDir, fakeEnv(nil, "/sdcard/Download").DefaultDownloadDir(false))
	assert.Equal(t, FallbackDir, fakeEnv(nil).DefaultDownloadDir(true))
	assert.Equal(t, "/sdcard/Download", fakeEnv(nil, "/sdcard/Download").DefaultDownloadDir(true))
	assert.Equal(t, TermuxStorageLink+"/downloads",
		fakeEnv(nil, "/sdcard/Download", TermuxStorageLink+"/downloads").DefaultDownloadDir(true))
	assert.Equal(t, "/home/u/downloads", fakeEnv(nil, "/home/u/downloads").DefaultDownloadDir(true))
}

func TestHasTermuxStorage(t *testing.T) {
	assert.False(t, fakeEnv(nil).HasTermuxStorage())
	assert.True(t, fakeEnv(nil, TermuxStorageLink).HasTermuxStorage())
}

func TestModes(t *testing.T) {
	assert.Equal(t, os.FileMode(0755), DirMode(true))
	assert.Equal(t, os.FileMode(0777), DirMode(false))
	assert.Equal(t, os.FileMode(0644), FileMode(true))
	assert.Equal(t, os.FileMode(0666), FileMode(false))
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")

	created, err := EnsureDir(dir, false)
	require.NoError(t, err)
	assert.True(t, created)

	fi, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())

	created, err = EnsureDir(dir, false)
	require.NoError(t, err)
	assert.False(t, created, "existing directory must not be reported as created")
}

func TestEnsureDirLogsCreation(t *testing.T) {
	var buf bytes.Buffer
	prev := logger.GetGlobalLogger()
	cfg := logger.DefaultConfig()
	cfg.Level = logger.DEBUG
	cfg.Output = &buf
	logger.SetGlobalLogger(logger.New(cfg))
	t.Cleanup(func() { logger.SetGlobalLogger(prev) })

	dir := filepath.Join(t.TempDir(), "out")
	_, err := EnsureDir(dir, true)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "[storage] Directory created")
	assert.Contains(t, buf.String(), "dir="+dir)
	assert.Contains(t, buf.String(), "mode=-rwxr-xr-x")

	buf.Reset()
	_, err = EnsureDir(dir, true)
	require.NoError(t, err)
	assert.Empty(t, buf.String(), "existing directory logs nothing")
}

func TestEnsureDirOverFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	_, err := EnsureDir(file, false)
	assert.True(t, errors.Is(err, errs.ErrFilesystem), "got %v", err)

	_, err = EnsureDir(filepath.Join(file, "sub"), false)
	assert.True(t, errors.Is(err, errs.ErrFilesystem), "got %v", err)
}

func TestExpandPath(t *testing.T) {
	got, err := ExpandPath("/abs/path")
	require.NoError(t, err)
	assert.Equal(t, "/abs/path", got)

	got, err = ExpandPath("~/videos")
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(got, "~"), "got %q", got)
	assert.True(t, strings.HasSuffix(got, "videos"))

	_, err = ExpandPath("~someone/videos")
	assert.ErrorIs(t, err, errs.ErrFilesystem)
}

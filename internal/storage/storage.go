// Package storage resolves where downloads are written and prepares the
// output directory, with special handling for the Termux Android environment.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/ytget/mediadl/errs"
	"github.com/ytget/mediadl/internal/logger"
)

const (
	// TermuxRoot is the Termux application data directory.
	TermuxRoot = "/data/data/com.termux"
	// TermuxStorageLink is created by termux-setup-storage.
	TermuxStorageLink = TermuxRoot + "/files/home/storage"
	// FallbackDir is used when no better download directory exists.
	FallbackDir = "./downloads"
)

// Env captures the process environment consulted by this package.
type Env struct {
	Getenv func(string) string
	Exists func(string) bool
	Home   func() (string, error)
}

// System is the real process environment.
var System = Env{
	Getenv: os.Getenv,
	Exists: func(p string) bool {
		_, err := os.Stat(p)
		return err == nil
	},
	Home: homedir.Dir,
}

// IsTermux reports whether the process runs inside Termux.
func (e Env) IsTermux() bool {
	return strings.Contains(e.Getenv("PREFIX"), "com.termux") ||
		e.Getenv("TERMUX_VERSION") != "" ||
		e.Exists(TermuxRoot)
}

// DefaultDownloadDir returns the first existing Termux download directory when
// termux is set, otherwise FallbackDir.
func (e Env) DefaultDownloadDir(termux bool) string {
	if !termux {
		return FallbackDir
	}
	candidates := []string{
		TermuxStorageLink + "/downloads",
		TermuxRoot + "/files/home/downloads",
		"/sdcard/Download",
	}
	if home, err := e.Home(); err == nil && home != "" {
		candidates = append(candidates, filepath.Join(home, "downloads"))
	}
	for _, dir := range candidates {
		if e.Exists(dir) {
			return dir
		}
	}
	return FallbackDir
}

// HasTermuxStorage reports whether termux-setup-storage has been run.
func (e Env) HasTermuxStorage() bool {
	return e.Exists(TermuxStorageLink)
}

// DefaultDownloadDir resolves the default output directory for the current
// process.
func DefaultDownloadDir(termux bool) string { return System.DefaultDownloadDir(termux) }

// DirMode is the permission used for created directories.
func DirMode(termux bool) os.FileMode {
	if termux {
		return 0755
	}
	return 0777
}

// FileMode is the permission used for created files.
func FileMode(termux bool) os.FileMode {
	if termux {
		return 0644
	}
	return 0666
}

// EnsureDir creates dir and its parents. It reports whether the directory was
// newly created.
func EnsureDir(dir string, termux bool) (bool, error) {
	if fi, err := os.Stat(dir); err == nil {
		if !fi.IsDir() {
			return false, fmt.Errorf("%w: %s exists and is not a directory", errs.ErrFilesystem, dir)
		}
		return false, nil
	}
	log := logger.WithComponent(logger.ComponentStorage)
	mode := DirMode(termux)
	if err := os.MkdirAll(dir, mode); err != nil {
		log.Error("Create directory failed", logger.Fields{"dir": dir, "error": err.Error()})
		return false, fmt.Errorf("%w: create directory %s: %w", errs.ErrFilesystem, dir, err)
	}
	log.Debug("Directory created", logger.Fields{"dir": dir, "mode": mode.String()})
	return true, nil
}

// ExpandPath expands a leading "~" to the user's home directory.
func ExpandPath(p string) (string, error) {
	expanded, err := homedir.Expand(p)
	if err != nil {
		return "", fmt.Errorf("%w: expand %s: %w", errs.ErrFilesystem, p, err)
	}
	return expanded, nil
}

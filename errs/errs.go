package errs

import (
	"errors"
)

var (
	// ErrUnsupportedPlatform indicates an unknown platform key or source URL domain.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	// ErrMetadataFetchFailed indicates a network, timeout, non-2xx or malformed JSON
	// failure while talking to the metadata API.
	ErrMetadataFetchFailed = errors.New("metadata fetch failed")
	// ErrInvalidResponse indicates metadata that lacks the fields required by its platform.
	ErrInvalidResponse = errors.New("invalid response")
	// ErrDownloadFailed indicates a network, timeout or stream failure during media transfer.
	ErrDownloadFailed = errors.New("download failed")
	// ErrFilesystem indicates a directory or file creation failure.
	ErrFilesystem = errors.New("filesystem error")
)

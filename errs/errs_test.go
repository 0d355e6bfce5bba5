package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorConstants(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "ErrUnsupportedPlatform",
			err:      ErrUnsupportedPlatform,
			expected: "unsupported platform",
		},
		{
			name:     "ErrMetadataFetchFailed",
			err:      ErrMetadataFetchFailed,
			expected: "metadata fetch failed",
		},
		{
			name:     "ErrInvalidResponse",
			err:      ErrInvalidResponse,
			expected: "invalid response",
		},
		{
			name:     "ErrDownloadFailed",
			err:      ErrDownloadFailed,
			expected: "download failed",
		},
		{
			name:     "ErrFilesystem",
			err:      ErrFilesystem,
			expected: "filesystem error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.expected {
				t.Errorf("Expected error message '%s', got '%s'", tt.expected, tt.err.Error())
			}
		})
	}
}

func TestErrorWrapping(t *testing.T) {
	wrapped := fmt.Errorf("fetch tiktok: %w", ErrMetadataFetchFailed)
	if !errors.Is(wrapped, ErrMetadataFetchFailed) {
		t.Error("wrapped error should match ErrMetadataFetchFailed")
	}
	if errors.Is(wrapped, ErrDownloadFailed) {
		t.Error("wrapped error should not match ErrDownloadFailed")
	}
}

func TestErrorUniqueness(t *testing.T) {
	errorList := []error{
		ErrUnsupportedPlatform,
		ErrMetadataFetchFailed,
		ErrInvalidResponse,
		ErrDownloadFailed,
		ErrFilesystem,
	}

	for i, err1 := range errorList {
		for j, err2 := range errorList {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("Error %d and %d should not be equal", i, j)
			}
		}
	}
}

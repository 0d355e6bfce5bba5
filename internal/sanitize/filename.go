package sanitize

import (
	"regexp"
)

const (
	// MaxFilenameLength is the maximum allowed length for a sanitized filename.
	MaxFilenameLength = 100
	// DefaultName is the replacement name when the input is empty.
	DefaultName = "unknown_file"
)

var (
	unsafeChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	whitespace  = regexp.MustCompile(`[\s\p{Zs}\x{FEFF}]+`)
	nonWord     = regexp.MustCompile(`[^\w\-.]`)
)

// SanitizeFilename turns arbitrary text into a filesystem-safe name.
//
// Filesystem-unsafe characters become "_", whitespace runs collapse into a
// single "_", anything else outside [A-Za-z0-9_.-] becomes "_", and the result
// is cut to MaxFilenameLength. The output is pure ASCII, so applying the
// function twice yields the same result as applying it once.
func SanitizeFilename(name string) string {
	if name == "" {
		return DefaultName
	}
	name = unsafeChars.ReplaceAllString(name, "_")
	name = whitespace.ReplaceAllString(name, "_")
	name = nonWord.ReplaceAllString(name, "_")
	if len(name) > MaxFilenameLength {
		name = name[:MaxFilenameLength]
	}
	return name
}

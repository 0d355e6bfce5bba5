package sanitize

import (
	"strconv"
	"strings"
	"time"

	"github.com/ytget/mediadl/types"
)

const (
	suffixHD    = "_HD"
	suffixAudio = "_audio"
)

// GenerateFilename derives an output name (without extension) for a download.
//
// The base is "<prefix>_<unixMillis>"; a non-empty title replaces the prefix.
// "_HD" is appended for hd video and "_audio" for audio. The title is trimmed
// so the timestamp and suffix always fit in MaxFilenameLength.
//
// Names only differ by their millisecond timestamp: two calls for the same
// platform within one millisecond produce the same name.
func GenerateFilename(prefix, title string, quality types.Quality, kind types.MediaKind, now time.Time) string {
	ts := strconv.FormatInt(now.UnixMilli(), 10)

	suffix := ""
	if quality == types.QualityHD && kind == types.KindVideo {
		suffix += suffixHD
	}
	if kind == types.KindAudio {
		suffix += suffixAudio
	}

	name := prefix + "_" + ts
	if title = strings.TrimSpace(title); title != "" {
		safe := SanitizeFilename(title)
		room := MaxFilenameLength - len(ts) - 1 - len(suffix)
		if room > 0 && len(safe) > room {
			safe = safe[:room]
		}
		name = safe + "_" + ts
	}

	return SanitizeFilename(name + suffix)
}

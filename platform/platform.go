// Package platform describes the supported media platforms: how a source URL
// maps to a platform, which metadata endpoint serves it, and how that
// endpoint's payload is validated and turned into canonical download URLs.
//
// Platform is a closed set. Every per-platform behaviour is a switch over the
// enum, so adding a platform means visiting each switch in this package.
package platform

import (
	"fmt"
	"strings"

	"github.com/ytget/mediadl/errs"
)

// Platform identifies one metadata API shape.
type Platform int

const (
	// Unknown is the zero value and never resolves to an endpoint.
	Unknown Platform = iota
	// TikTok is the short-video platform (video variants plus an audio track).
	TikTok
	// Facebook is the social-video platform (resolution variants, muxed audio).
	Facebook
	// YouTubeMP4 is the streaming-video platform in video mode.
	YouTubeMP4
	// YouTubeMP3 is the streaming-video platform in audio mode.
	YouTubeMP3
)

var keys = map[Platform]string{
	TikTok:     "tiktok",
	Facebook:   "facebook",
	YouTubeMP4: "ytmp4",
	YouTubeMP3: "ytmp3",
}

// All returns every supported platform in display order.
func All() []Platform {
	return []Platform{TikTok, Facebook, YouTubeMP4, YouTubeMP3}
}

// Keys returns the keys of every supported platform in display order.
func Keys() []string {
	out := make([]string, 0, len(keys))
	for _, p := range All() {
		out = append(out, p.String())
	}
	return out
}

// String returns the platform key (e.g. "tiktok").
func (p Platform) String() string {
	if k, ok := keys[p]; ok {
		return k
	}
	return "unknown"
}

// Valid reports whether p is one of the supported platforms.
func (p Platform) Valid() bool {
	_, ok := keys[p]
	return ok
}

// Parse maps a platform key to a Platform.
func Parse(key string) (Platform, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	for p, k := range keys {
		if k == key {
			return p, nil
		}
	}
	return Unknown, fmt.Errorf("%w: %q (supported: %s)", errs.ErrUnsupportedPlatform, key, strings.Join(Keys(), ", "))
}

// FilePrefix is the filename prefix used when the payload carries no title.
func (p Platform) FilePrefix() string {
	switch p {
	case TikTok:
		return "tiktok"
	case Facebook:
		return "facebook"
	case YouTubeMP4:
		return "youtube"
	case YouTubeMP3:
		return "youtube_audio"
	default:
		return p.String()
	}
}

// domainTable is matched in order against the raw source URL.
var domainTable = []struct {
	domain   string
	platform Platform
}{
	{"tiktok.com", TikTok},
	{"vm.tiktok.com", TikTok},
	{"facebook.com", Facebook},
	{"fb.watch", Facebook},
	{"youtube.com", YouTubeMP4},
	{"youtu.be", YouTubeMP4},
}

// Detect finds the platform for a source URL by substring matching against a
// fixed domain table.
func Detect(rawURL string) (Platform, error) {
	for _, d := range domainTable {
		if strings.Contains(rawURL, d.domain) {
			return d.platform, nil
		}
	}
	return Unknown, fmt.Errorf("%w: no platform matches %q", errs.ErrUnsupportedPlatform, rawURL)
}

func isYouTubeURL(rawURL string) bool {
	return strings.Contains(rawURL, "youtube.com") || strings.Contains(rawURL, "youtu.be")
}

// Resolve picks the platform for a request. An explicit key wins over
// detection. In audio-only mode a streaming-video request is switched to its
// audio variant, also when the URL itself is a YouTube link.
func Resolve(rawURL, explicit string, audioOnly bool) (Platform, error) {
	var (
		p   Platform
		err error
	)
	if strings.TrimSpace(explicit) != "" {
		p, err = Parse(explicit)
	} else {
		p, err = Detect(rawURL)
	}
	if err != nil {
		return Unknown, err
	}
	if audioOnly && (p == YouTubeMP4 || isYouTubeURL(rawURL)) {
		p = YouTubeMP3
	}
	return p, nil
}

package platform

import (
	"strconv"
	"strings"

	"github.com/ytget/mediadl/types"
)

// Validate reports whether payload carries the fields p needs for extraction.
func Validate(p Platform, payload types.Payload) bool {
	if payload == nil {
		return false
	}
	switch p {
	case TikTok:
		return truthyAt(payload, "success") && truthyAt(payload, "data", "download")
	case Facebook:
		_, isList := payload["data"].([]any)
		return statusNotFalse(payload) && isList
	case YouTubeMP4:
		return statusNotFalse(payload) && youtubeVideoURL(payload) != ""
	case YouTubeMP3:
		return statusNotFalse(payload) && stringAt(payload, "result", "audio_url") != ""
	default:
		return false
	}
}

// Extract converts payload into canonical download URLs. Invalid payloads
// yield an empty result instead of an error; callers are expected to check
// Validate first.
func Extract(p Platform, payload types.Payload) types.DownloadURLs {
	empty := types.DownloadURLs{Video: []string{}}
	if !Validate(p, payload) {
		return empty
	}
	switch p {
	case TikTok:
		var dl tiktokDownload
		if !decodeAt(payload, &dl, "data", "download") {
			return empty
		}
		return types.DownloadURLs{Video: nonEmpty(dl.Video), Audio: dl.Audio}
	case Facebook:
		urls := []string{}
		for _, v := range facebookVariants(payload) {
			if v.URL != "" {
				urls = append(urls, v.URL)
			}
		}
		return types.DownloadURLs{Video: urls}
	case YouTubeMP4:
		return types.DownloadURLs{Video: []string{youtubeVideoURL(payload)}}
	case YouTubeMP3:
		return types.DownloadURLs{Video: []string{}, Audio: stringAt(payload, "result", "audio_url")}
	default:
		return empty
	}
}

// PickVideo selects the video URL to download for the requested quality.
func PickVideo(p Platform, payload types.Payload, quality types.Quality) (string, bool) {
	if !Validate(p, payload) {
		return "", false
	}
	switch p {
	case TikTok, YouTubeMP4:
		return PickFrom(Extract(p, payload).Video, quality)
	case Facebook:
		variants := facebookVariants(payload)
		withURL := variants[:0]
		for _, v := range variants {
			if v.URL != "" {
				withURL = append(withURL, v)
			}
		}
		if len(withURL) == 0 {
			return "", false
		}
		if quality == types.QualityHD {
			for _, v := range withURL {
				if strings.Contains(v.Resolution, "720p") || strings.Contains(v.Resolution, "HD") {
					return v.URL, true
				}
			}
		}
		return withURL[0].URL, true
	default:
		return "", false
	}
}

// Variants labels the video variants payload offers, in payload order:
// "(Normal)" and "(HD)" for tiktok, "resolution (format)" for facebook.
// Platforms with a single rendition yield nil.
func Variants(p Platform, payload types.Payload) []string {
	if !Validate(p, payload) {
		return nil
	}
	switch p {
	case TikTok:
		n := len(Extract(p, payload).Video)
		labels := make([]string, n)
		for i := range labels {
			switch i {
			case 0:
				labels[i] = "(Normal)"
			case 1:
				labels[i] = "(HD)"
			default:
				labels[i] = "(" + strconv.Itoa(i+1) + ")"
			}
		}
		return labels
	case Facebook:
		variants := facebookVariants(payload)
		labels := make([]string, len(variants))
		for i, v := range variants {
			labels[i] = v.label(i + 1)
		}
		return labels
	default:
		return nil
	}
}

// PickFrom applies the generic variant rule: hd takes the second URL when
// there is more than one, otherwise the first URL is used.
func PickFrom(urls []string, quality types.Quality) (string, bool) {
	if len(urls) == 0 {
		return "", false
	}
	if quality == types.QualityHD && len(urls) > 1 {
		return urls[1], true
	}
	return urls[0], true
}

// Title returns the human title carried by payload, or "" when the platform
// supplies none.
func Title(p Platform, payload types.Payload) string {
	switch p {
	case TikTok:
		var md tiktokMetadata
		if decodeAt(payload, &md, "data", "metadata") {
			return md.Description
		}
	case YouTubeMP4:
		return youtubeVideoTitle(payload)
	case YouTubeMP3:
		var a youtubeAudio
		if decodeAt(payload, &a, "result") {
			return a.Title
		}
	}
	return ""
}

// Builtin exposes the package-level validator and extractor through the
// extractor interface used by the downloader.
type Builtin struct{}

// Validate implements the extractor interface.
func (Builtin) Validate(p Platform, payload types.Payload) bool {
	return Validate(p, payload)
}

// Extract implements the extractor interface.
func (Builtin) Extract(p Platform, payload types.Payload) (types.DownloadURLs, error) {
	return Extract(p, payload), nil
}

// PickVideo implements the extractor interface.
func (Builtin) PickVideo(p Platform, payload types.Payload, quality types.Quality) (string, bool) {
	return PickVideo(p, payload, quality)
}

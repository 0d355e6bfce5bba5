package platform

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ytget/mediadl/types"
)

const describeMaxDescription = 100

var counter = message.NewPrinter(language.English)

// Describe renders the human metadata summary for payload. It returns nil when
// the payload lacks the section the platform's summary is built from.
func Describe(p Platform, payload types.Payload) []types.Field {
	if payload == nil {
		return nil
	}
	switch p {
	case TikTok:
		return describeTikTok(payload)
	case Facebook:
		return describeFacebook(payload)
	case YouTubeMP4:
		return describeYouTubeVideo(payload)
	case YouTubeMP3:
		return describeYouTubeAudio(payload)
	default:
		return nil
	}
}

func describeTikTok(payload types.Payload) []types.Field {
	if !truthyAt(payload, "data") {
		return nil
	}
	postID := stringAt(payload, "postId")
	if postID == "" {
		postID = "unknown"
	}
	fields := []types.Field{{Label: "Post ID", Value: postID}}

	var md tiktokMetadata
	if decodeAt(payload, &md, "data", "metadata") {
		if md.Stats != nil {
			fields = append(fields,
				types.Field{Label: "Likes", Value: counter.Sprintf("%d", md.Stats.LikeCount)},
				types.Field{Label: "Views", Value: counter.Sprintf("%d", md.Stats.PlayCount)},
				types.Field{Label: "Comments", Value: counter.Sprintf("%d", md.Stats.CommentCount)},
				types.Field{Label: "Shares", Value: counter.Sprintf("%d", md.Stats.ShareCount)},
			)
		}
		if md.Description != "" {
			fields = append(fields, types.Field{Label: "Description", Value: md.Description})
		}
		if len(md.Hashtags) > 0 {
			fields = append(fields, types.Field{Label: "Hashtags", Value: strings.Join(md.Hashtags, ", ")})
		}
		if md.LocationCreated != "" {
			fields = append(fields, types.Field{Label: "Location", Value: md.LocationCreated})
		}
	}

	if truthyAt(payload, "data", "download") {
		count := 0
		switch v, _ := lookup(payload, "data", "download", "video"); t := v.(type) {
		case []any:
			count = len(t)
		default:
			if Truthy(t) {
				count = 1
			}
		}
		fields = append(fields,
			types.Field{Label: "Video URLs", Value: strconv.Itoa(count)},
			types.Field{Label: "Audio URL", Value: availability(truthyAt(payload, "data", "download", "audio"))},
		)
	}
	return fields
}

func describeFacebook(payload types.Payload) []types.Field {
	items, ok := payload["data"].([]any)
	if !ok {
		return nil
	}
	fields := []types.Field{
		{Label: "Video ID", Value: "Facebook Video"},
		{Label: "Available Qualities", Value: strconv.Itoa(len(items))},
	}
	for i, item := range items {
		var v facebookVariant
		if item == nil || decode(item, &v) != nil || v.Resolution == "" || v.Format == "" {
			continue
		}
		fields = append(fields, types.Field{
			Label: strconv.Itoa(i + 1),
			Value: v.label(i + 1),
		})
	}
	return append(fields, types.Field{Label: "Audio", Value: "Included in video file"})
}

func describeYouTubeVideo(payload types.Payload) []types.Field {
	title, download := "Unknown Title", "Unknown"
	found := false
	for _, section := range []string{"data", "result"} {
		var v youtubeVideo
		if decodeAt(payload, &v, section) && v.Title != "" {
			title, download, found = v.Title, availability(v.URL != ""), true
			break
		}
	}
	if !found {
		if t := stringAt(payload, "title"); t != "" {
			title, download = t, availability(stringAt(payload, "url") != "")
		}
	}
	return []types.Field{
		{Label: "Title", Value: title},
		{Label: "Type", Value: "MP4 Video"},
		{Label: "Download URL", Value: download},
		{Label: "Audio", Value: "Included in video file"},
	}
}

func describeYouTubeAudio(payload types.Payload) []types.Field {
	var a youtubeAudio
	if !decodeAt(payload, &a, "result") {
		return nil
	}
	return []types.Field{
		{Label: "Title", Value: a.Title},
		{Label: "Duration", Value: a.Duration},
		{Label: "Upload Date", Value: a.UploadDate},
		{Label: "Description", Value: truncate(a.Description, describeMaxDescription) + "..."},
		{Label: "Type", Value: "MP3 Audio"},
		{Label: "Audio URL", Value: "Available"},
	}
}

func availability(ok bool) string {
	if ok {
		return "Available"
	}
	return "Not available"
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

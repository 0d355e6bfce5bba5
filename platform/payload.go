package platform

import (
	"strconv"

	"github.com/mitchellh/mapstructure"

	"github.com/ytget/mediadl/types"
)

// tiktokDownload is the "data.download" block of the tiktok payload. Video
// may arrive as a single string or as a list; weak decoding lifts the former.
type tiktokDownload struct {
	Video []string `json:"video"`
	Audio string   `json:"audio"`
}

type tiktokStats struct {
	LikeCount    int64 `json:"likeCount"`
	PlayCount    int64 `json:"playCount"`
	CommentCount int64 `json:"commentCount"`
	ShareCount   int64 `json:"shareCount"`
}

type tiktokMetadata struct {
	Description     string       `json:"description"`
	Hashtags        []string     `json:"hashtags"`
	LocationCreated string       `json:"locationCreated"`
	Stats           *tiktokStats `json:"stats"`
}

type facebookVariant struct {
	URL        string `json:"url"`
	Resolution string `json:"resolution"`
	Format     string `json:"format"`
}

// label renders the variant as "resolution (format)", falling back to its
// 1-based position when neither is known.
func (v facebookVariant) label(pos int) string {
	switch {
	case v.Resolution != "" && v.Format != "":
		return v.Resolution + " (" + v.Format + ")"
	case v.Resolution != "":
		return v.Resolution
	case v.Format != "":
		return "(" + v.Format + ")"
	default:
		return "(" + strconv.Itoa(pos) + ")"
	}
}

type youtubeVideo struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

type youtubeAudio struct {
	Title       string `json:"title"`
	Duration    string `json:"duration"`
	UploadDate  string `json:"uploadDate"`
	Description string `json:"description"`
	AudioURL    string `json:"audio_url"`
}

// lookup walks nested objects along path.
func lookup(payload types.Payload, path ...string) (any, bool) {
	var cur any = map[string]any(payload)
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// decodeAt decodes the value found at path into out. Missing values and
// values of the wrong shape report false and leave out untouched.
func decodeAt(payload types.Payload, out any, path ...string) bool {
	v, ok := lookup(payload, path...)
	if !ok || v == nil {
		return false
	}
	return decode(v, out) == nil
}

func decode(in, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "json",
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

// stringAt returns the string at path, or "" when absent or not a string.
func stringAt(payload types.Payload, path ...string) string {
	v, ok := lookup(payload, path...)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Truthy mirrors JSON-API truthiness: null, false, 0 and "" are false;
// objects and arrays (even empty) are true.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	default:
		return true
	}
}

func truthyAt(payload types.Payload, path ...string) bool {
	v, ok := lookup(payload, path...)
	return ok && Truthy(v)
}

// statusNotFalse is true unless the payload carries an explicit status=false.
func statusNotFalse(payload types.Payload) bool {
	b, ok := payload["status"].(bool)
	return !ok || b
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func facebookVariants(payload types.Payload) []facebookVariant {
	items, ok := payload["data"].([]any)
	if !ok {
		return nil
	}
	out := make([]facebookVariant, 0, len(items))
	for _, item := range items {
		var v facebookVariant
		if item == nil || decode(item, &v) != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// youtubeVideoURL returns the first of data.url, result.url and url.
func youtubeVideoURL(payload types.Payload) string {
	for _, path := range [][]string{{"data", "url"}, {"result", "url"}, {"url"}} {
		if s := stringAt(payload, path...); s != "" {
			return s
		}
	}
	return ""
}

// youtubeVideoTitle returns the first of data.title, result.title and title.
func youtubeVideoTitle(payload types.Payload) string {
	for _, section := range []string{"data", "result"} {
		var v youtubeVideo
		if decodeAt(payload, &v, section) && v.Title != "" {
			return v.Title
		}
	}
	return stringAt(payload, "title")
}

package types

// Payload is the raw metadata object returned by a platform's extraction API.
// Its shape depends on the platform (fields may live under "data", "result" or
// at the top level).
type Payload map[string]any

// DownloadURLs is the canonical set of media URLs derived from a Payload.
// Audio is empty when the platform offers no separate audio track.
type DownloadURLs struct {
	Video []string
	Audio string
}

// HasAudio reports whether a separate audio track is available.
func (u DownloadURLs) HasAudio() bool {
	return u.Audio != ""
}

// DownloadResult lists the files written by a single invocation.
// Empty paths mean the corresponding asset was not downloaded.
type DownloadResult struct {
	VideoPath string
	AudioPath string
}

// Empty reports whether nothing was written.
func (r DownloadResult) Empty() bool {
	return r.VideoPath == "" && r.AudioPath == ""
}

// Quality selects among the variants a platform offers.
type Quality string

const (
	QualityNormal Quality = "normal"
	QualityHD     Quality = "hd"
)

// MediaKind is used by the filename generator to pick a suffix.
type MediaKind string

const (
	KindVideo MediaKind = "video"
	KindAudio MediaKind = "audio"
	// KindBase produces a suffix-free name that other names are derived from.
	KindBase MediaKind = "base"
)

// Mode selects which assets are transferred.
type Mode int

const (
	ModeAll Mode = iota
	ModeAudioOnly
	ModeVideoOnly
	ModeInfo
)

// String returns the human readable mode name.
func (m Mode) String() string {
	switch m {
	case ModeAudioOnly:
		return "audio-only"
	case ModeVideoOnly:
		return "video-only"
	case ModeInfo:
		return "info"
	default:
		return "all"
	}
}

// Field is a single labelled line of the metadata summary shown in info mode.
type Field struct {
	Label string
	Value string
}

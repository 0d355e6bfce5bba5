package mediadl

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/ytget/mediadl/client"
	"github.com/ytget/mediadl/downloader"
	"github.com/ytget/mediadl/errs"
	"github.com/ytget/mediadl/fetcher"
	"github.com/ytget/mediadl/internal/logger"
	"github.com/ytget/mediadl/internal/sanitize"
	"github.com/ytget/mediadl/internal/storage"
	"github.com/ytget/mediadl/platform"
	"github.com/ytget/mediadl/report"
	"github.com/ytget/mediadl/types"
)

const (
	extVideo = ".mp4"
	extAudio = ".mp3"
)

// Extractor validates payloads and turns them into download URLs.
// platform.Builtin is the default; internal/script provides a user override.
type Extractor interface {
	Validate(p platform.Platform, payload types.Payload) bool
	Extract(p platform.Platform, payload types.Payload) (types.DownloadURLs, error)
	PickVideo(p platform.Platform, payload types.Payload, quality types.Quality) (string, bool)
}

// Request describes one invocation.
type Request struct {
	// URL is the source page URL.
	URL string
	// Platform is an optional explicit platform key overriding detection.
	Platform string
	// OutputDir overrides the App's output directory when set.
	OutputDir string
	// Quality defaults to hd.
	Quality types.Quality
	Mode    types.Mode
	// AudioOnly requests the audio variant of a platform during resolution.
	// It is implied by ModeAudioOnly and lets info mode describe the audio
	// source.
	AudioOnly bool
}

func (r Request) audioOnly() bool {
	return r.AudioOnly || r.Mode == types.ModeAudioOnly
}

// App wires the fetcher, extractor and downloader together. Configure it with
// the chainable With* setters before calling Run or Info.
type App struct {
	client          *client.Client
	registry        *platform.Registry
	extractor       Extractor
	reporter        report.Reporter
	logger          *logger.Logger
	now             func() time.Time
	outputDir       string
	termux          bool
	fetchTimeout    time.Duration
	downloadTimeout time.Duration
	rateLimitBps    int64
}

// New creates an App with default endpoints, a silent reporter and the
// global logger.
func New() *App {
	return &App{
		client:          client.New(),
		registry:        platform.DefaultRegistry(),
		extractor:       platform.Builtin{},
		reporter:        report.Nop{},
		logger:          logger.GetGlobalLogger(),
		now:             time.Now,
		fetchTimeout:    fetcher.DefaultTimeout,
		downloadTimeout: downloader.DefaultTimeout,
	}
}

// WithHTTPClient sets the client used for metadata and media requests.
func (a *App) WithHTTPClient(c *client.Client) *App {
	if c != nil {
		a.client = c
	}
	return a
}

// WithRegistry sets the metadata endpoint registry.
func (a *App) WithRegistry(r *platform.Registry) *App {
	if r != nil {
		a.registry = r
	}
	return a
}

// WithExtractor replaces the built-in validator/extractor.
func (a *App) WithExtractor(e Extractor) *App {
	if e != nil {
		a.extractor = e
	}
	return a
}

// WithReporter sets where user-facing output goes.
func (a *App) WithReporter(r report.Reporter) *App {
	if r != nil {
		a.reporter = r
	}
	return a
}

// WithLogger sets the diagnostics logger.
func (a *App) WithLogger(l *logger.Logger) *App {
	if l != nil {
		a.logger = l
	}
	return a
}

// WithClock sets the time source used for filename timestamps.
func (a *App) WithClock(now func() time.Time) *App {
	if now != nil {
		a.now = now
	}
	return a
}

// WithOutputDir sets the default output directory. "~" is expanded.
func (a *App) WithOutputDir(dir string) *App {
	a.outputDir = strings.TrimSpace(dir)
	return a
}

// WithTermux selects the Termux directory and file permissions.
func (a *App) WithTermux(termux bool) *App {
	a.termux = termux
	return a
}

// WithFetchTimeout bounds each metadata request.
func (a *App) WithFetchTimeout(d time.Duration) *App {
	if d > 0 {
		a.fetchTimeout = d
	}
	return a
}

// WithDownloadTimeout bounds the wait for each media response.
func (a *App) WithDownloadTimeout(d time.Duration) *App {
	if d > 0 {
		a.downloadTimeout = d
	}
	return a
}

// WithRateLimit sets a download rate limit in bytes per second. Zero disables limiting.
func (a *App) WithRateLimit(bytesPerSecond int64) *App {
	if bytesPerSecond < 0 {
		bytesPerSecond = 0
	}
	a.rateLimitBps = bytesPerSecond
	return a
}

func (a *App) log() *logger.ComponentLogger {
	return a.logger.WithComponent(logger.ComponentApp)
}

// Resolve picks the platform for rawURL. An explicit key wins over detection;
// audio-only requests for streaming video are switched to the audio platform.
func (a *App) Resolve(rawURL, platformKey string, audioOnly bool) (platform.Platform, error) {
	return platform.Resolve(rawURL, platformKey, audioOnly)
}

// Fetch retrieves the metadata payload for rawURL on p.
func (a *App) Fetch(ctx context.Context, p platform.Platform, rawURL string) (types.Payload, error) {
	a.reporter.Status(fmt.Sprintf("🔍 Fetching information from %s...", strings.ToUpper(p.String())))

	f := fetcher.New(a.client, a.registry).WithTimeout(a.fetchTimeout).WithLogger(a.logger)
	switch r := f.Fetch(ctx, p, rawURL).(type) {
	case fetcher.Fetched:
		return r.Payload, nil
	case fetcher.Failed:
		return nil, r.Reason
	default:
		return nil, fmt.Errorf("%w: unexpected result %T", errs.ErrMetadataFetchFailed, r)
	}
}

// Info fetches metadata for req and reports its summary without writing any
// file.
func (a *App) Info(ctx context.Context, req Request) ([]types.Field, error) {
	req.Mode = types.ModeInfo
	p, payload, err := a.begin(ctx, req)
	if err != nil {
		return nil, err
	}
	return a.describe(p, payload)
}

// Run executes req: resolve, fetch, validate, then download the assets the
// mode selects. Downloads run one after another. In info mode nothing is
// downloaded and an empty result is returned.
func (a *App) Run(ctx context.Context, req Request) (types.DownloadResult, error) {
	var res types.DownloadResult

	p, payload, err := a.begin(ctx, req)
	if err != nil {
		return res, err
	}

	if req.Mode == types.ModeInfo {
		_, err := a.describe(p, payload)
		return res, err
	}

	if !a.extractor.Validate(p, payload) {
		a.logger.WithComponent(logger.ComponentExtractor).Warn("payload rejected", logger.Fields{
			"platform": p.String(),
			"keys":     strings.Join(slices.Sorted(maps.Keys(payload)), ","),
		})
		return res, fmt.Errorf("%w: payload from %s lacks the fields needed for download", errs.ErrInvalidResponse, p)
	}
	if fields := platform.Describe(p, payload); len(fields) > 0 {
		a.reporter.Details(infoTitle(p), fields)
	}

	dir, err := a.prepareDir(req.OutputDir)
	if err != nil {
		return res, err
	}

	quality := req.Quality
	if quality == "" {
		quality = types.QualityHD
	}
	job := &job{
		app:     a,
		p:       p,
		payload: payload,
		quality: quality,
		dir:     dir,
		title:   platform.Title(p, payload),
		now:     a.now(),
	}

	switch req.Mode {
	case types.ModeAudioOnly:
		a.reporter.Status(fmt.Sprintf("🎵 Mode: Audio only (%s)", strings.ToUpper(p.String())))
		res.AudioPath, err = job.audio(ctx, true)
	case types.ModeVideoOnly:
		a.reporter.Status("🎥 Mode: Video only")
		res.VideoPath, err = job.video(ctx)
	default:
		a.reporter.Status(fmt.Sprintf("🎬 Mode: %s (%s)", modeText(p), strings.ToUpper(p.String())))
		res, err = job.all(ctx)
	}
	if err != nil {
		return res, err
	}

	a.summarize(res)
	return res, nil
}

// begin runs the steps shared by every mode: resolve, mode check and fetch.
func (a *App) begin(ctx context.Context, req Request) (platform.Platform, types.Payload, error) {
	if strings.TrimSpace(req.URL) == "" {
		return platform.Unknown, nil, errors.New("missing video url")
	}

	p, err := a.Resolve(req.URL, req.Platform, req.audioOnly())
	if err != nil {
		return p, nil, err
	}
	if err := supports(p, req.Mode); err != nil {
		return p, nil, err
	}
	a.reporter.Status(fmt.Sprintf("🔍 Platform detected: %s", strings.ToUpper(p.String())))
	a.log().Info("platform resolved", logger.Fields{"platform": p.String(), "mode": req.Mode.String()})

	payload, err := a.Fetch(ctx, p, req.URL)
	if err != nil {
		return p, nil, err
	}
	return p, payload, nil
}

func (a *App) describe(p platform.Platform, payload types.Payload) ([]types.Field, error) {
	fields := platform.Describe(p, payload)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no %s metadata to display", errs.ErrInvalidResponse, p)
	}
	a.reporter.Details(infoTitle(p), fields)
	return fields, nil
}

// prepareDir resolves and creates the output directory.
func (a *App) prepareDir(override string) (string, error) {
	dir := strings.TrimSpace(override)
	if dir == "" {
		dir = a.outputDir
	}
	if dir == "" {
		dir = storage.DefaultDownloadDir(a.termux)
	}
	dir, err := storage.ExpandPath(dir)
	if err != nil {
		return "", err
	}
	created, err := storage.EnsureDir(dir, a.termux)
	if err != nil {
		return "", err
	}
	if created {
		a.log().Debug("output directory created", logger.Fields{"dir": dir})
		if a.termux {
			a.reporter.Status("📁 Directory created: " + dir)
		}
	}
	return dir, nil
}

func (a *App) summarize(res types.DownloadResult) {
	if res.Empty() {
		return
	}
	a.reporter.Status("🎉 Download complete!")
	if res.VideoPath != "" {
		a.reporter.Status("📹 Video: " + res.VideoPath)
	}
	if res.AudioPath != "" {
		a.reporter.Status("🎵 Audio: " + res.AudioPath)
	}
}

// supports rejects mode/platform combinations that have nothing to download.
func supports(p platform.Platform, mode types.Mode) error {
	switch mode {
	case types.ModeAudioOnly:
		if p != platform.TikTok && p != platform.YouTubeMP3 {
			return fmt.Errorf("%w: audio download is only available for tiktok and youtube", errs.ErrUnsupportedPlatform)
		}
	case types.ModeVideoOnly:
		if p == platform.YouTubeMP3 {
			return fmt.Errorf("%w: %s does not provide video", errs.ErrUnsupportedPlatform, p)
		}
	}
	return nil
}

func modeText(p platform.Platform) string {
	switch p {
	case platform.TikTok:
		return "Video + Audio"
	case platform.YouTubeMP3:
		return "Audio"
	default:
		return "Video"
	}
}

func infoTitle(p platform.Platform) string {
	return "Video Information " + strings.ToUpper(p.String())
}

// job holds the per-invocation state shared by the download steps. All names
// of one invocation share a single timestamp.
type job struct {
	app     *App
	p       platform.Platform
	payload types.Payload
	quality types.Quality
	dir     string
	title   string
	now     time.Time
}

func (j *job) all(ctx context.Context) (types.DownloadResult, error) {
	var (
		res types.DownloadResult
		err error
	)
	switch j.p {
	case platform.TikTok:
		if res.VideoPath, err = j.video(ctx); err != nil {
			return res, err
		}
		res.AudioPath, err = j.audio(ctx, false)
	case platform.Facebook, platform.YouTubeMP4:
		res.VideoPath, err = j.video(ctx)
	case platform.YouTubeMP3:
		res.AudioPath, err = j.audio(ctx, true)
	default:
		err = fmt.Errorf("%w: %s", errs.ErrUnsupportedPlatform, j.p)
	}
	return res, err
}

func (j *job) video(ctx context.Context) (string, error) {
	if j.p == platform.YouTubeMP3 {
		return "", fmt.Errorf("%w: %s does not provide video", errs.ErrUnsupportedPlatform, j.p)
	}
	j.listVariants()

	videoURL, ok := j.app.extractor.PickVideo(j.p, j.payload, j.quality)
	if !ok || videoURL == "" {
		return "", fmt.Errorf("%w: no video url available", errs.ErrInvalidResponse)
	}
	name := sanitize.GenerateFilename(j.p.FilePrefix(), j.title, j.quality, types.KindVideo, j.now) + extVideo
	return j.fetchTo(ctx, videoURL, name)
}

// audio downloads the separate audio track. When required is false a missing
// track is skipped silently; when true a missing tiktok track only produces a
// warning and no file.
func (j *job) audio(ctx context.Context, required bool) (string, error) {
	urls, err := j.app.extractor.Extract(j.p, j.payload)
	if err != nil {
		return "", err
	}
	if !urls.HasAudio() {
		if j.p == platform.YouTubeMP3 {
			return "", fmt.Errorf("%w: no audio url available", errs.ErrInvalidResponse)
		}
		if required {
			j.app.reporter.Warn("❌ Audio is not available for this video")
		}
		return "", nil
	}

	var name string
	switch j.p {
	case platform.YouTubeMP3:
		name = sanitize.GenerateFilename(j.p.FilePrefix(), j.title, types.QualityNormal, types.KindAudio, j.now) + extAudio
	default:
		base := sanitize.GenerateFilename(j.p.FilePrefix(), j.title, types.QualityNormal, types.KindBase, j.now)
		name = base + "_audio" + extAudio
	}
	return j.fetchTo(ctx, urls.Audio, name)
}

// listVariants shows the video variants the payload offers.
func (j *job) listVariants() {
	urls, err := j.app.extractor.Extract(j.p, j.payload)
	if err != nil || len(urls.Video) == 0 {
		return
	}
	labels := platform.Variants(j.p, j.payload)
	if len(labels) == 0 {
		labels = make([]string, len(urls.Video))
		for i := range labels {
			labels[i] = fmt.Sprintf("(%d)", i+1)
			if j.p == platform.YouTubeMP4 && j.title != "" {
				labels[i] = "MP4 (" + j.title + ")"
			}
		}
	}
	j.app.reporter.Info("🎥 Video download options:")
	for i, label := range labels {
		j.app.reporter.Info(fmt.Sprintf("%d. Video %s", i+1, label))
	}
}

func (j *job) fetchTo(ctx context.Context, mediaURL, name string) (string, error) {
	path := filepath.Join(j.dir, name)
	a := j.app
	dl := downloader.New(a.client, func(pr downloader.Progress) {
		a.reporter.Progress(name, pr.DownloadedSize, pr.TotalSize)
	}, a.rateLimitBps).
		WithTimeout(a.downloadTimeout).
		WithFileMode(storage.FileMode(a.termux)).
		WithLogger(a.logger)

	if _, err := dl.Download(ctx, mediaURL, path); err != nil {
		return "", fmt.Errorf("download %s: %w", name, err)
	}
	a.reporter.Saved(name, path)
	return path, nil
}

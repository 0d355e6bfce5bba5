package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ytget/mediadl"
	"github.com/ytget/mediadl/client"
	"github.com/ytget/mediadl/errs"
	"github.com/ytget/mediadl/internal/config"
	"github.com/ytget/mediadl/internal/logger"
	"github.com/ytget/mediadl/internal/script"
	"github.com/ytget/mediadl/internal/storage"
	"github.com/ytget/mediadl/platform"
	"github.com/ytget/mediadl/report"
	"github.com/ytget/mediadl/types"
)

// version is overridden at build time via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

var (
	errMissingURL         = errors.New("video URL is required")
	errStorageNotReady    = errors.New("termux storage is not set up")
	errConflictingModes   = errors.New("--audio-only and --video-only cannot be combined")
	errUnsupportedQuality = errors.New("quality must be normal or hd")
)

const examples = `  mediadl https://www.tiktok.com/@user/video/1234567890
  mediadl https://facebook.com/watch/?v=1234567890
  mediadl https://www.youtube.com/watch?v=dQw4w9WgXcQ
  mediadl -p ytmp3 https://www.youtube.com/watch?v=dQw4w9WgXcQ
  mediadl -o /sdcard/Download -q hd https://tiktok.com/...
  mediadl --audio-only https://tiktok.com/...
  mediadl --info https://facebook.com/...`

const platformsText = `Supported Platforms:
  • TikTok (tiktok.com, vm.tiktok.com)
  • Facebook (facebook.com, fb.watch)
  • YouTube MP4 (youtube.com, youtu.be) - Video
  • YouTube MP3 (youtube.com, youtu.be) - Audio`

type options struct {
	platform    string
	output      string
	quality     string
	audioOnly   bool
	videoOnly   bool
	info        bool
	noProgress  bool
	noColor     bool
	rateLimit   string
	httpTimeout time.Duration
	ua          string
	proxy       string
	script      string
	config      string
}

// mode maps the mode flags to a types.Mode. --info wins over the others.
func (o *options) mode() types.Mode {
	switch {
	case o.info:
		return types.ModeInfo
	case o.audioOnly:
		return types.ModeAudioOnly
	case o.videoOnly:
		return types.ModeVideoOnly
	default:
		return types.ModeAll
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr, storage.System)
	stop()
	os.Exit(code)
}

// execute runs the command line and returns the process exit code. Errors are
// printed here and nowhere else.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer, env storage.Env) int {
	termux := env.IsTermux()
	cmd := newRootCmd(stdout, env)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	con := report.NewConsole(stderr)
	con.Error("❌ Error: " + err.Error())
	if termux && !errors.Is(err, errStorageNotReady) && !errors.Is(err, errMissingURL) {
		con.Info("💡 Termux tips:")
		con.Info("- Make sure the internet connection is stable")
		con.Info("- Check storage permission with: termux-setup-storage")
		con.Info("- Restart Termux if the error persists")
	}
	return 1
}

func newRootCmd(stdout io.Writer, env storage.Env) *cobra.Command {
	opts := &options{}
	termux := env.IsTermux()

	cmd := &cobra.Command{
		Use:           "mediadl [flags] <video_url>",
		Short:         "Multi-platform video downloader",
		Long:          banner() + "\n" + platformsText + "\n" + setupText(env, termux) + envText(),
		Example:       examples,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, opts, stdout, env)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.platform, "platform", "p", "", "Platform: "+strings.Join(platform.Keys(), ", ")+" (auto-detect if not specified)")
	f.StringVarP(&opts.output, "output", "o", "", "Output directory (default: "+env.DefaultDownloadDir(termux)+")")
	f.StringVarP(&opts.quality, "quality", "q", string(types.QualityHD), "Video quality: normal, hd")
	f.BoolVarP(&opts.audioOnly, "audio-only", "a", false, "Download audio only (TikTok/YouTube only)")
	f.BoolVarP(&opts.videoOnly, "video-only", "v", false, "Download video only")
	f.BoolVarP(&opts.info, "info", "i", false, "Show video info only")
	f.BoolVar(&opts.noProgress, "no-progress", false, "Disable progress output")
	f.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	f.StringVar(&opts.rateLimit, "rate-limit", "", "Download rate limit (e.g., 2MiB/s, 500KiB/s)")
	f.DurationVar(&opts.httpTimeout, "http-timeout", 0, "Metadata request timeout (e.g., 30s, 1m)")
	f.StringVar(&opts.ua, "ua", "", "Override User-Agent header")
	f.StringVar(&opts.proxy, "proxy", "", "Proxy URL (http/https/socks)")
	f.StringVar(&opts.script, "script", "", "JavaScript file overriding payload extraction")
	f.StringVar(&opts.config, "config", "", "Config file (yaml, json, toml or env)")
	// --version has no shorthand since -v selects video-only.
	cmd.SetVersionTemplate("mediadl {{.Version}}\n")

	return cmd
}

func run(cmd *cobra.Command, args []string, opts *options, stdout io.Writer, env storage.Env) error {
	termux := env.IsTermux()
	con := report.NewConsole(stdout)
	if opts.noColor {
		con = con.WithoutColor()
	}
	if opts.noProgress {
		con = con.WithoutProgress()
	}

	if termux && !env.HasTermuxStorage() {
		con.Warn("⚠️  Storage is not set up!")
		con.Info("💡 Run: termux-setup-storage")
		return errStorageNotReady
	}

	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		_, _ = fmt.Fprintln(stdout, "\n💡 Examples:")
		_, _ = fmt.Fprintln(stdout, examples)
		_, _ = fmt.Fprintln(stdout)
		_ = cmd.Usage()
		return errMissingURL
	}
	if opts.audioOnly && opts.videoOnly {
		return errConflictingModes
	}
	quality := types.Quality(strings.ToLower(strings.TrimSpace(opts.quality)))
	if quality != types.QualityNormal && quality != types.QualityHD {
		return fmt.Errorf("%w, got %q", errUnsupportedQuality, opts.quality)
	}

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	log, err := logger.CreateLoggerFromConfig(&cfg.Log)
	if err != nil {
		return fmt.Errorf("invalid log config: %w", err)
	}
	prev := logger.GetGlobalLogger()
	logger.SetGlobalLogger(log)
	defer func() {
		logger.SetGlobalLogger(prev)
		_ = log.Close()
	}()
	log.WithComponent(logger.ComponentCLI).Debug("configuration loaded", logger.Fields{
		"config":     opts.config,
		"api_base":   cfg.APIBase,
		"output_dir": cfg.OutputDir,
		"mode":       opts.mode().String(),
		"quality":    string(quality),
		"termux":     termux,
	})

	c := client.NewWith(client.Config{UserAgent: cfg.UserAgent, ProxyURL: cfg.Proxy})
	app := mediadl.New().
		WithHTTPClient(c).
		WithRegistry(platform.NewRegistry(cfg.APIBase, cfg.YTMP3Endpoint)).
		WithReporter(con).
		WithLogger(log).
		WithOutputDir(cfg.OutputDir).
		WithTermux(termux).
		WithFetchTimeout(cfg.FetchTimeout).
		WithDownloadTimeout(cfg.DownloadTimeout).
		WithRateLimit(parseRate(opts.rateLimit))

	if opts.script != "" {
		ext, err := script.Load(opts.script)
		if err != nil {
			return err
		}
		app = app.WithExtractor(ext)
	}

	_, _ = fmt.Fprintln(stdout, banner())

	_, err = app.Run(cmd.Context(), mediadl.Request{
		URL:       strings.TrimSpace(args[0]),
		Platform:  opts.platform,
		Quality:   quality,
		Mode:      opts.mode(),
		AudioOnly: opts.audioOnly,
	})
	if errors.Is(err, errs.ErrUnsupportedPlatform) {
		con.Info("💡 Supported platforms: TikTok, Facebook, YouTube")
	}
	return err
}

// loadConfig reads the environment/config file and applies flag overrides.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.config)
	if err != nil {
		return nil, err
	}
	f := cmd.Flags()
	if f.Changed("output") {
		cfg.OutputDir = opts.output
	}
	if f.Changed("http-timeout") {
		cfg.FetchTimeout = opts.httpTimeout
	}
	if f.Changed("ua") {
		cfg.UserAgent = opts.ua
	}
	if f.Changed("proxy") {
		cfg.Proxy = opts.proxy
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func banner() string {
	red := color.New(color.FgHiRed).SprintFunc()
	white := color.New(color.FgWhite).SprintFunc()
	return fmt.Sprintf(`
   %s
   %s

   %s
   %s

   %s
`,
		red(" █▀▄ █▀▄ ██▀ █▄ █ █ █ █"),
		red(" █▀  █▀▄ █▄▄ █ ▀█ █ ▀▄▀"),
		white(" █▀▄ ▄▀▄ █   █ █▄ █ █   ▄▀▄ ▄▀▄ █▀▄ ██▀ █▀▄"),
		white(" █▄▀ ▀▄▀ ▀▄▀▄▀ █ ▀█ █▄▄ ▀▄▀ █▀█ █▄▀ █▄▄ █▀▄"),
		color.New(color.FgYellow).Sprint("Multi-Platform Video Downloader"),
	)
}

func setupText(env storage.Env, termux bool) string {
	if !termux {
		return ""
	}
	return fmt.Sprintf(`
Termux Setup:
  1. pkg install golang
  2. go install github.com/ytget/mediadl/cmd/mediadl@latest
  3. termux-setup-storage (for storage access)

Storage Access:
  Default download path: %s

Note: make sure storage permission is enabled!
`, env.DefaultDownloadDir(termux))
}

// envText lists the settings read from the environment or --config.
func envText() string {
	desc, err := config.Describe()
	if err != nil {
		return ""
	}
	return "\n" + desc + "\n"
}

// parseRate parses strings like "2MiB/s", "500KiB/s" into bytes per second.
func parseRate(s string) int64 {
	s = strings.TrimSpace(strings.ToUpper(s))
	if s == "" {
		return 0
	}
	mul := int64(1)
	s = strings.TrimSuffix(s, "/S")
	s = strings.TrimSpace(s)
	sfx := ""
	for _, suf := range []string{"KIB", "MIB", "GIB", "KB", "MB", "GB"} {
		if strings.HasSuffix(s, suf) {
			sfx = suf
			s = strings.TrimSuffix(s, suf)
			break
		}
	}
	s = strings.TrimSpace(s)
	var val float64
	_, err := fmt.Sscanf(s, "%f", &val)
	if err != nil || val <= 0 {
		return 0
	}
	switch sfx {
	case "KIB":
		mul = 1024
	case "MIB":
		mul = 1024 * 1024
	case "GIB":
		mul = 1024 * 1024 * 1024
	case "KB":
		mul = 1000
	case "MB":
		mul = 1000 * 1000
	case "GB":
		mul = 1000 * 1000 * 1000
	}
	return int64(val * float64(mul))
}

// Package mediadl downloads short-video, social and streaming media through
// third-party metadata extraction APIs.
//
// A request flows through four steps: the source URL is mapped to a platform,
// the platform's metadata endpoint is queried, the returned payload is
// validated and reduced to canonical download URLs, and each selected URL is
// streamed to a generated filename in the output directory.
//
// Features:
//   - TikTok (video variants plus a separate audio track), Facebook, YouTube
//     video and YouTube audio
//   - normal/hd variant selection
//   - all, audio-only, video-only and info-only modes
//   - progress reporting through a pluggable report.Reporter
//   - optional JavaScript extractor override for drifting API shapes
//
// Usage:
//
//	app := mediadl.New().WithOutputDir("downloads")
//	res, err := app.Run(ctx, mediadl.Request{
//		URL:     "https://www.tiktok.com/@user/video/123",
//		Quality: types.QualityHD,
//	})
package mediadl

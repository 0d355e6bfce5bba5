// Package logger provides structured, component-scoped logging for mediadl.
//
// Features:
//   - Multiple log levels (TRACE, DEBUG, INFO, WARN, ERROR)
//   - Component-based filtering
//   - Multiple output formats (text, JSON, color)
//   - Thread-safe operations
//   - Configuration from MEDIADL_LOG_* environment variables or a config file
//
// Usage:
//
//	log := logger.WithComponent(logger.ComponentDownloader)
//	log.Info("Starting download", logger.Fields{
//		"url":  "https://example.com/video.mp4",
//		"size": 1024,
//	})
//
//	l, _ := logger.CreateLoggerFromConfig(&logger.LogConfig{Level: "DEBUG", Output: "file:mediadl.log"})
//	defer l.Close()
//	logger.SetGlobalLogger(l)
//
// Components:
//   - ComponentApp: orchestration of a single invocation
//   - ComponentCLI: flag parsing and process setup
//   - ComponentFetcher: metadata API requests
//   - ComponentExtractor: payload validation and URL extraction
//   - ComponentDownloader: media streaming to disk
//   - ComponentClient: HTTP transport
//   - ComponentStorage: output directory creation
//   - ComponentScript: user extractor scripts
//
// Logs go to stderr at WARN by default so they stay out of the progress
// output on stdout.
package logger

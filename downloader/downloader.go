// Package downloader streams a single media URL to a file on disk.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/ytget/mediadl/client"
	"github.com/ytget/mediadl/errs"
	"github.com/ytget/mediadl/internal/logger"
	"github.com/ytget/mediadl/internal/progress"
)

const (
	// DefaultTimeout bounds the wait for the media origin's response headers.
	DefaultTimeout = 60 * time.Second
	// DefaultReferer is sent with every media request; some CDNs reject
	// requests without it.
	DefaultReferer = "https://www.tiktok.com/"
	// DefaultFileMode is used for created files unless overridden.
	DefaultFileMode os.FileMode = 0644

	partialFileSuffix   = ".part"
	copyBufferSizeBytes = 32 * 1024

	headerReferer        = "Referer"
	headerAccept         = "Accept"
	headerAcceptEncoding = "Accept-Encoding"
)

// Progress holds information about download progress. TotalSize is 0 when
// the origin did not announce a length; Percent is then 0 as well.
type Progress struct {
	TotalSize      int64
	DownloadedSize int64
	Percent        int
}

// Downloader performs one GET per file and streams the body to disk with
// optional rate limiting. Files appear at their final path only once complete.
type Downloader struct {
	Client       *client.Client
	ProgressFunc func(Progress)

	timeout      time.Duration
	rateLimitBps int64
	referer      string
	fileMode     os.FileMode
	log          *logger.ComponentLogger
}

// New creates a new downloader instance with sane defaults.
// If c is nil, a default client is used. rateLimitBps=0 disables limiting.
func New(c *client.Client, progressFunc func(Progress), rateLimitBps int64) *Downloader {
	if c == nil {
		c = client.New()
	}
	return &Downloader{
		Client:       c,
		ProgressFunc: progressFunc,
		timeout:      DefaultTimeout,
		rateLimitBps: rateLimitBps,
		referer:      DefaultReferer,
		fileMode:     DefaultFileMode,
		log:          logger.WithComponent(logger.ComponentDownloader),
	}
}

// WithTimeout sets how long to wait for response headers. Non-positive values
// are ignored.
func (d *Downloader) WithTimeout(t time.Duration) *Downloader {
	if t > 0 {
		d.timeout = t
	}
	return d
}

// WithFileMode sets the permission bits of created files.
func (d *Downloader) WithFileMode(mode os.FileMode) *Downloader {
	if mode != 0 {
		d.fileMode = mode
	}
	return d
}

// WithReferer overrides the Referer header. An empty value omits it.
func (d *Downloader) WithReferer(referer string) *Downloader {
	d.referer = referer
	return d
}

// WithLogger sets the logger used for diagnostics.
func (d *Downloader) WithLogger(l *logger.Logger) *Downloader {
	if l != nil {
		d.log = l.WithComponent(logger.ComponentDownloader)
	}
	return d
}

// sleepForRate enforces simple rate limit based on bytes written in this step.
func (d *Downloader) sleepForRate(ctx context.Context, written int64) {
	if d.rateLimitBps <= 0 || written <= 0 {
		return
	}
	dur := time.Duration(int64(time.Second) * written / d.rateLimitBps)
	if dur <= 0 {
		return
	}
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// Download fetches urlStr and stores the body at outputPath, returning the
// number of bytes written. Data is streamed into a uniquely named sibling
// "<outputPath>.<uuid>.part" file which is renamed on success and removed on
// failure. Transfer failures wrap errs.ErrDownloadFailed; failures to create
// or finalise the file wrap errs.ErrFilesystem.
func (d *Downloader) Download(ctx context.Context, urlStr, outputPath string) (int64, error) {
	if urlStr == "" {
		return 0, fmt.Errorf("%w: empty url", errs.ErrDownloadFailed)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The timeout covers connecting and receiving headers; the body itself is
	// streamed for as long as it takes.
	headerTimer := time.AfterFunc(d.timeout, cancel)

	header := http.Header{
		headerAccept:         {"*/*"},
		headerAcceptEncoding: {"identity"},
	}
	if d.referer != "" {
		header.Set(headerReferer, d.referer)
	}

	d.log.Debug("requesting media", logger.Fields{"url": urlStr, "path": outputPath})
	resp, err := d.Client.Get(ctx, urlStr, header)
	timedOut := !headerTimer.Stop()
	if err != nil {
		if timedOut {
			return 0, fmt.Errorf("%w: no response within %s: %w", errs.ErrDownloadFailed, d.timeout, err)
		}
		return 0, fmt.Errorf("%w: %w", errs.ErrDownloadFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return 0, fmt.Errorf("%w: HTTP status %d", errs.ErrDownloadFailed, resp.StatusCode)
	}

	tmpPath := outputPath + "." + uuid.NewString() + partialFileSuffix
	outFile, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, d.fileMode)
	if err != nil {
		return 0, fmt.Errorf("%w: create %s: %w", errs.ErrFilesystem, tmpPath, err)
	}

	written, err := d.copy(ctx, outFile, resp.Body, resp.ContentLength)
	closeErr := outFile.Close()
	if err == nil && closeErr != nil {
		err = fmt.Errorf("%w: close %s: %w", errs.ErrFilesystem, tmpPath, closeErr)
	}
	if err == nil && written == 0 {
		err = fmt.Errorf("%w: empty download: 0 bytes written", errs.ErrDownloadFailed)
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		d.log.Warn("download failed", logger.Fields{"path": outputPath, "written": written, "error": err.Error()})
		return written, err
	}

	if err := os.Rename(tmpPath, outputPath); err != nil {
		_ = os.Remove(tmpPath)
		return written, fmt.Errorf("%w: rename %s: %w", errs.ErrFilesystem, tmpPath, err)
	}

	d.log.Info("download complete", logger.Fields{
		"path": outputPath,
		"size": progress.FormatFileSize(written),
	})
	return written, nil
}

// copy streams body into w, reporting progress after every chunk.
func (d *Downloader) copy(ctx context.Context, w io.Writer, body io.Reader, total int64) (int64, error) {
	if total < 0 {
		total = 0
	}
	buf := make([]byte, copyBufferSizeBytes)
	var downloaded int64
	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return downloaded, fmt.Errorf("%w: write: %w", errs.ErrDownloadFailed, werr)
			}
			downloaded += int64(n)
			if d.ProgressFunc != nil {
				d.ProgressFunc(Progress{
					TotalSize:      total,
					DownloadedSize: downloaded,
					Percent:        progress.Percent(downloaded, total),
				})
			}
			d.sleepForRate(ctx, int64(n))
		}
		if errors.Is(rerr, io.EOF) {
			return downloaded, nil
		}
		if rerr != nil {
			return downloaded, fmt.Errorf("%w: read: %w", errs.ErrDownloadFailed, rerr)
		}
	}
}

// Package fetcher requests media metadata from the platform extraction APIs.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ytget/mediadl/client"
	"github.com/ytget/mediadl/errs"
	"github.com/ytget/mediadl/internal/logger"
	"github.com/ytget/mediadl/platform"
	"github.com/ytget/mediadl/types"
)

const (
	// DefaultTimeout bounds a whole metadata request.
	DefaultTimeout = 30 * time.Second

	maxBodyBytes = 16 << 20

	headerAccept         = "Accept"
	headerAcceptEncoding = "Accept-Encoding"
	mimeJSON             = "application/json"
	encodings            = "gzip, br"
)

// Fetcher issues metadata requests against a platform registry.
type Fetcher struct {
	client   *client.Client
	registry *platform.Registry
	timeout  time.Duration
	log      *logger.ComponentLogger
}

// New creates a Fetcher. Nil arguments fall back to the default client and
// registry.
func New(c *client.Client, r *platform.Registry) *Fetcher {
	if c == nil {
		c = client.New()
	}
	if r == nil {
		r = platform.DefaultRegistry()
	}
	return &Fetcher{
		client:   c,
		registry: r,
		timeout:  DefaultTimeout,
		log:      logger.WithComponent(logger.ComponentFetcher),
	}
}

// WithTimeout sets the per-request timeout. Non-positive values are ignored.
func (f *Fetcher) WithTimeout(d time.Duration) *Fetcher {
	if d > 0 {
		f.timeout = d
	}
	return f
}

// WithLogger sets the logger used for diagnostics.
func (f *Fetcher) WithLogger(l *logger.Logger) *Fetcher {
	if l != nil {
		f.log = l.WithComponent(logger.ComponentFetcher)
	}
	return f
}

// Fetch asks p's metadata endpoint about sourceURL. It never returns a Go
// error; every failure is reported as a Failed result.
func (f *Fetcher) Fetch(ctx context.Context, p platform.Platform, sourceURL string) Result {
	reqURL, err := f.registry.RequestURL(p, sourceURL)
	if err != nil {
		return Failed{Reason: err, Message: fmt.Sprintf("Platform %s is not supported", p)}
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	f.log.Debug("requesting metadata", logger.Fields{"platform": p.String(), "endpoint": reqURL})
	start := time.Now()

	resp, err := f.client.Get(ctx, reqURL, http.Header{
		headerAccept:         {mimeJSON},
		headerAcceptEncoding: {encodings},
	})
	if err != nil {
		return f.fail(p, err.Error(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return f.fail(p, fmt.Sprintf("Request failed with status code %d", resp.StatusCode), nil)
	}

	body, err := client.DecodeBody(resp)
	if err != nil {
		return f.fail(p, err.Error(), err)
	}
	defer func() { _ = body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(body, maxBodyBytes))
	if err != nil {
		return f.fail(p, err.Error(), err)
	}

	payload, err := decodePayload(raw)
	if err != nil {
		return f.fail(p, "Invalid response from server", err)
	}

	f.log.Debug("metadata received", logger.Fields{
		"platform": p.String(),
		"bytes":    len(raw),
		"elapsed":  time.Since(start).Round(time.Millisecond).String(),
	})

	return check(p, payload)
}

// check applies the payload-level failure rules shared by every platform.
func check(p platform.Platform, payload types.Payload) Result {
	if status, ok := payload["status"].(bool); ok && !status {
		msg, _ := payload["msg"].(string)
		if msg == "" {
			msg = fmt.Sprintf("Failed to get video data from %s", p)
		}
		return Failed{Reason: fmt.Errorf("%w: %s", errs.ErrMetadataFetchFailed, msg), Message: msg}
	}

	switch p {
	case platform.TikTok:
		if !platform.Truthy(payload["success"]) {
			msg := fmt.Sprintf("API response unsuccessful for %s", p)
			return Failed{Reason: fmt.Errorf("%w: %s", errs.ErrMetadataFetchFailed, msg), Message: msg}
		}
	case platform.YouTubeMP3:
		if ok, present := payload["success"].(bool); present && !ok {
			msg := fmt.Sprintf("API response unsuccessful for %s", p)
			return Failed{Reason: fmt.Errorf("%w: %s", errs.ErrMetadataFetchFailed, msg), Message: msg}
		}
	}

	return Fetched{Payload: payload}
}

func (f *Fetcher) fail(p platform.Platform, msg string, cause error) Result {
	f.log.Warn("metadata request failed", logger.Fields{"platform": p.String(), "error": msg})
	reason := fmt.Errorf("%w: %s", errs.ErrMetadataFetchFailed, msg)
	if cause != nil {
		reason = fmt.Errorf("%w: %w", errs.ErrMetadataFetchFailed, cause)
	}
	return Failed{Reason: reason, Message: msg}
}

// decodePayload accepts only a JSON object as the top-level value.
func decodePayload(raw []byte) (types.Payload, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("response is not a JSON object")
	}
	return types.Payload(obj), nil
}

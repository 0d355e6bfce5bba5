// Package client holds the shared HTTP transport used for metadata requests
// and media downloads.
package client

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/ytget/mediadl/internal/logger"
)

const (
	// DefaultUserAgent is the desktop browser identity sent with every request.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	headerUserAgent = "User-Agent"
)

// defaultTransport is a tuned HTTP transport reused across clients.
var defaultTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   10,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ForceAttemptHTTP2:     true,
	// Bodies are decoded by DecodeBody so br is handled too.
	DisableCompression: true,
	ReadBufferSize:     32 * 1024,
	WriteBufferSize:    16 * 1024,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

// Config holds optional client parameters. Zero values use defaults.
//
// Timeout bounds a whole request including the body. It is left unset by
// default because media bodies are streamed; callers bound their requests
// with a context instead.
type Config struct {
	Timeout   time.Duration
	UserAgent string
	ProxyURL  string
}

// Client wraps http.Client with default headers.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
}

// New creates a Client with the tuned transport and the default User-Agent.
func New() *Client {
	return &Client{
		HTTPClient: &http.Client{Transport: defaultTransport},
		UserAgent:  DefaultUserAgent,
	}
}

// NewWith creates a client with the provided config. An unparsable proxy URL is
// ignored and the environment proxy settings stay in effect.
func NewWith(cfg Config) *Client {
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	var timeout time.Duration
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}

	tr := defaultTransport.Clone()
	if cfg.ProxyURL != "" {
		if proxyFunc, err := proxyFromURLString(cfg.ProxyURL); err == nil {
			tr.Proxy = proxyFunc
		}
	}

	return &Client{
		HTTPClient: &http.Client{
			Timeout:   timeout,
			Transport: tr,
		},
		UserAgent: ua,
	}
}

// Get performs a single GET request. The client's User-Agent is always set;
// header entries are applied on top of it.
func (c *Client) Get(ctx context.Context, rawURL string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	ua := c.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set(headerUserAgent, ua)
	for k, vs := range header {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}

	gl := logger.GetGlobalLogger()
	log := gl.WithComponent(logger.ComponentClient)
	tracing := gl.Enabled(logger.TRACE, logger.ComponentClient)
	var start time.Time
	if tracing {
		log.Trace("GET", logger.Fields{"url": rawURL})
		start = time.Now()
	}
	resp, err := hc.Do(req)
	if err != nil {
		log.Debug("Request failed", logger.Fields{"url": rawURL, "error": err.Error()})
		return nil, err
	}
	if tracing {
		log.Trace("Response", logger.Fields{
			"url":      rawURL,
			"status":   resp.StatusCode,
			"encoding": resp.Header.Get("Content-Encoding"),
			"elapsed":  time.Since(start).Round(time.Millisecond).String(),
		})
	}
	return resp, nil
}

// DecodeBody returns a reader over the decoded response body according to its
// Content-Encoding. Closing the returned reader closes the response body.
func DecodeBody(resp *http.Response) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "", "identity":
		return resp.Body, nil
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return &decodedBody{Reader: gz, closers: []io.Closer{gz, resp.Body}}, nil
	case "br":
		return &decodedBody{Reader: brotli.NewReader(resp.Body), closers: []io.Closer{resp.Body}}, nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", resp.Header.Get("Content-Encoding"))
	}
}

type decodedBody struct {
	io.Reader
	closers []io.Closer
}

func (d *decodedBody) Close() error {
	var first error
	for _, c := range d.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// proxyFromURLString parses a proxy URL and returns a Proxy function.
func proxyFromURLString(raw string) (func(*http.Request) (*url.URL, error), error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	return http.ProxyURL(u), nil
}

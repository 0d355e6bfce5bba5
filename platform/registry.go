package platform

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ytget/mediadl/errs"
)

const (
	// DefaultAPIBase serves the tiktok, facebook and ytmp4 endpoints.
	DefaultAPIBase = "https://api.siputzx.my.id/api"
	// DefaultYTMP3Endpoint is hosted separately from the other endpoints.
	DefaultYTMP3Endpoint = "https://archive.lick.eu.org/api/download/ytmp3"

	queryParamURL = "url"
)

// Registry maps platforms to metadata endpoint URLs.
type Registry struct {
	endpoints map[Platform]string
}

// DefaultRegistry returns the registry for the public endpoints.
func DefaultRegistry() *Registry {
	return NewRegistry(DefaultAPIBase, DefaultYTMP3Endpoint)
}

// NewRegistry builds a registry rooted at apiBase. Empty arguments fall back to
// the defaults.
func NewRegistry(apiBase, ytmp3Endpoint string) *Registry {
	apiBase = strings.TrimRight(strings.TrimSpace(apiBase), "/")
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	ytmp3Endpoint = strings.TrimSpace(ytmp3Endpoint)
	if ytmp3Endpoint == "" {
		ytmp3Endpoint = DefaultYTMP3Endpoint
	}
	return &Registry{endpoints: map[Platform]string{
		TikTok:     apiBase + "/tiktok/v2",
		Facebook:   apiBase + "/d/facebook",
		YouTubeMP4: apiBase + "/d/ytmp4",
		YouTubeMP3: ytmp3Endpoint,
	}}
}

// Endpoint returns the endpoint for p.
func (r *Registry) Endpoint(p Platform) (string, error) {
	e, ok := r.endpoints[p]
	if !ok {
		return "", fmt.Errorf("%w: %s", errs.ErrUnsupportedPlatform, p)
	}
	return e, nil
}

// RequestURL returns "<endpoint>?url=<escaped source URL>".
func (r *Registry) RequestURL(p Platform, sourceURL string) (string, error) {
	e, err := r.Endpoint(p)
	if err != nil {
		return "", err
	}
	q := url.Values{}
	q.Set(queryParamURL, sourceURL)
	sep := "?"
	if strings.Contains(e, "?") {
		sep = "&"
	}
	return e + sep + q.Encode(), nil
}

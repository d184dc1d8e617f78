package model

import (
	"net/url"
	"strings"
	"time"
)

// Link is a URL discovered during a crawl run together with the number of
// fetch hops that separate it from the seed.
//
// Links are values: once emitted by a crawler they are never modified.
type Link struct {
	// URL is the absolute URL as it was discovered.
	URL string `json:"url"`

	// Depth is the distance from the seed. The seed itself has depth 0.
	Depth int `json:"depth"`

	// ResponseTime is the latency of the probe request for this URL.
	// It is zero for links that were never probed (sitemap leaves).
	ResponseTime time.Duration `json:"response_time,omitempty"`
}

// NewLink creates a Link with no measured response time.
func NewLink(rawURL string, depth int) Link {
	return Link{URL: rawURL, Depth: depth}
}

// Key returns the de-duplication key of the link.
func (l Link) Key() string {
	return NormalizeURL(l.URL)
}

// NormalizeURL normalizes a URL for de-duplication.
//
// The fragment is removed, scheme and host are lower-cased and an empty path
// is treated as "/", so "http://Example.com" and "http://example.com/#top"
// share a key. Unparsable input is returned unchanged.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	u.Fragment = ""
	u.RawFragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" && u.Opaque == "" {
		u.Path = "/"
	}

	return u.String()
}

// URLs returns the URLs of links in order.
func URLs(links []Link) []string {
	out := make([]string, len(links))
	for i, l := range links {
		out[i] = l.URL
	}
	return out
}

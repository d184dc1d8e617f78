package crawler

import (
	"iter"
	"net/url"
	"strings"
)

// LinkConverter resolves raw link strings against the URL of the page they
// were found on.
type LinkConverter struct{}

// NewLinkConverter creates a LinkConverter.
func NewLinkConverter() *LinkConverter {
	return &LinkConverter{}
}

// RelativeToAbsolute yields an absolute URL for every usable entry of raw.
//
// Entries that already carry a scheme are passed through unchanged, including
// non-web schemes such as mailto:, which the validator rejects later.
// Everything else is resolved with RFC 3986 reference resolution, so "/x",
// "../x", "./x", "//host/x", "?q" and "#frag" all behave as in a browser.
// Blank and unparsable entries are skipped. If baseURL is not absolute
// nothing is yielded.
func (c *LinkConverter) RelativeToAbsolute(raw iter.Seq[string], baseURL string) iter.Seq[string] {
	return func(yield func(string) bool) {
		base, err := url.Parse(baseURL)
		if err != nil || !base.IsAbs() {
			return
		}

		for link := range raw {
			link = strings.TrimSpace(link)
			if link == "" {
				continue
			}

			ref, err := url.Parse(link)
			if err != nil {
				continue
			}

			abs := link
			if ref.Scheme == "" {
				abs = base.ResolveReference(ref).String()
			}
			if !yield(abs) {
				return
			}
		}
	}
}

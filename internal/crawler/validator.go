package crawler

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrNotCorrectLink is wrapped by every error returned from CheckLink.
var ErrNotCorrectLink = errors.New("not a correct link")

// DefaultFileExtensions are the static-asset extensions excluded from traversal.
var DefaultFileExtensions = []string{
	".css",
	".json",
	".js",
	".exe",
	".jpeg",
	".sql",
	".png",
	".jpg",
	".svg",
	".ttf",
	".woff",
	".woff2",
	".ico",
}

// LinkValidator implements Validator with textual checks only.
// It never performs I/O and is safe for concurrent use.
type LinkValidator struct {
	extensions []string
}

// ValidatorOption configures a LinkValidator.
type ValidatorOption func(*LinkValidator)

// WithFileExtensions adds extensions to the default file-extension list.
// Extensions are matched case-insensitively; a missing leading dot is added.
func WithFileExtensions(exts ...string) ValidatorOption {
	return func(v *LinkValidator) {
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			v.extensions = append(v.extensions, ext)
		}
	}
}

// NewLinkValidator creates a LinkValidator with DefaultFileExtensions.
func NewLinkValidator(opts ...ValidatorOption) *LinkValidator {
	v := &LinkValidator{
		extensions: append([]string(nil), DefaultFileExtensions...),
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// IsCorrectLink reports whether link is a well-formed absolute web URL.
// On failure the second return value explains why.
func (v *LinkValidator) IsCorrectLink(link string) (bool, string) {
	if err := v.CheckLink(link); err != nil {
		return false, err.Error()
	}
	return true, ""
}

// CheckLink is IsCorrectLink in error form. The returned error wraps
// ErrNotCorrectLink.
//
// A link is correct when:
//   - it starts with http:// or https://
//   - something follows the scheme, and it contains a "."
//   - the first character after the scheme is a letter
//   - a "www." marker in the host is followed by another "."
func (v *LinkValidator) CheckLink(link string) error {
	rest, ok := cutScheme(link)
	if !ok {
		return fmt.Errorf("%w: missing http:// or https:// scheme", ErrNotCorrectLink)
	}
	if rest == "" {
		return fmt.Errorf("%w: nothing after the scheme", ErrNotCorrectLink)
	}
	if !strings.Contains(rest, ".") {
		return fmt.Errorf("%w: no '.' after the scheme", ErrNotCorrectLink)
	}
	if r, _ := utf8.DecodeRuneInString(rest); !unicode.IsLetter(r) {
		return fmt.Errorf("%w: host must start with a letter", ErrNotCorrectLink)
	}

	host := authority(rest)
	if i := strings.Index(strings.ToLower(host), "www."); i >= 0 && !strings.Contains(host[i+len("www."):], ".") {
		return fmt.Errorf("%w: truncated host %q", ErrNotCorrectLink, host)
	}

	return nil
}

// IsFileLink reports whether link points at a static asset rather than a page.
//
// The check is a case-insensitive substring match, so an extension anywhere in
// the URL counts, including the query string.
func (v *LinkValidator) IsFileLink(link string) bool {
	lower := strings.ToLower(link)
	for _, ext := range v.extensions {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	return false
}

// IsInCurrentSite reports whether link textually contains baseURL.
//
// This is substring containment, not host equality: a seed of
// "https://example.com" also matches "https://example.com.evil.net/".
// StrictHostValidator compares hosts instead.
func (v *LinkValidator) IsInCurrentSite(link, baseURL string) bool {
	return strings.Contains(link, baseURL)
}

// StrictHostValidator is a LinkValidator whose site-membership check
// requires the link host to equal the base host (case-insensitive).
type StrictHostValidator struct {
	*LinkValidator
}

// NewStrictHostValidator creates a StrictHostValidator.
func NewStrictHostValidator(opts ...ValidatorOption) *StrictHostValidator {
	return &StrictHostValidator{LinkValidator: NewLinkValidator(opts...)}
}

// IsInCurrentSite reports whether link and baseURL share the same host.
func (v *StrictHostValidator) IsInCurrentSite(link, baseURL string) bool {
	lu, err := url.Parse(link)
	if err != nil || lu.Host == "" {
		return false
	}
	bu, err := url.Parse(baseURL)
	if err != nil || bu.Host == "" {
		return false
	}
	return strings.EqualFold(lu.Hostname(), bu.Hostname())
}

// cutScheme strips a case-insensitive http:// or https:// prefix.
func cutScheme(link string) (string, bool) {
	for _, scheme := range []string{"https://", "http://"} {
		if len(link) >= len(scheme) && strings.EqualFold(link[:len(scheme)], scheme) {
			return link[len(scheme):], true
		}
	}
	return "", false
}

// authority returns the host[:port] part of a scheme-less URL.
func authority(rest string) string {
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		return rest[:i]
	}
	return rest
}

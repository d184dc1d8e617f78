package crawler

import (
	"net/url"
	"path/filepath"
	"strings"
)

// PatternFilter decides whether a URL is kept based on glob patterns matched
// against its path.
//
// Logic:
//  1. If the path matches any ignore pattern, drop it.
//  2. If follow patterns are set and none matches, drop it.
//  3. Otherwise keep it.
type PatternFilter struct {
	Ignore []string
	Follow []string
}

// Empty reports whether the filter keeps everything.
func (f PatternFilter) Empty() bool {
	return len(f.Ignore) == 0 && len(f.Follow) == 0
}

// Allow reports whether targetURL passes the filter.
func (f PatternFilter) Allow(targetURL string) bool {
	if f.Empty() {
		return true
	}

	u, err := url.Parse(targetURL)
	if err != nil {
		return false
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	for _, pattern := range f.Ignore {
		if matchPattern(pattern, path) {
			return false
		}
	}

	if len(f.Follow) > 0 {
		for _, pattern := range f.Follow {
			if matchPattern(pattern, path) {
				return true
			}
		}
		return false
	}

	return true
}

// matchPattern checks if a path matches a glob pattern.
// Patterns can use:
//   - * to match any sequence of non-separator characters
//   - ? to match any single character
//   - a trailing "/*" to match everything below a directory
//
// Examples:
//   - "/admin/*" matches "/admin/dashboard" and "/admin/users/1"
//   - "*.pdf" matches "/docs/file.pdf"
//   - "/api/v?" matches "/api/v1"
func matchPattern(pattern, path string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}

	if ext, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(ext, ".") {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	if matched, err := filepath.Match(pattern, path); err == nil && matched {
		return true
	}

	// Patterns without a slash are also tried against the last path segment.
	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		if matched, err := filepath.Match(pattern, filepath.Base(path)); err == nil && matched {
			return true
		}
	}

	return false
}

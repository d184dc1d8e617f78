package config

import (
	"maps"
	"net/url"
	"strings"
)

// SiteConfig holds crawl overrides for a single site.
type SiteConfig struct {
	// Cookie is an HTTP cookie to send to this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Depth overrides the global crawl depth for this site.
	// If zero, the global CrawlDepth is used.
	Depth int `yaml:"depth,omitempty"`

	// IgnorePatterns are URL path globs to skip during crawling.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns are URL path globs to follow during crawling.
	// If specified, only URLs matching these patterns are collected.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`

	// FileExtensions are extra extensions treated as static assets.
	FileExtensions []string `yaml:"fileExtensions,omitempty"`

	// StrictHost compares hosts for site membership.
	StrictHost bool `yaml:"strictHost,omitempty"`

	// SitemapPath overrides the sitemap location, relative to the site root.
	SitemapPath string `yaml:"sitemapPath,omitempty"`
}

// File represents the structure of the .linkfinder configuration file.
type File struct {
	// Sites maps host names (e.g., "www.example.com") to their configuration.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults applies to all sites unless overridden per site.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// SiteKey returns the key under which rawURL is looked up in File.Sites:
// its lower-cased host name. A bare host name is returned lower-cased.
func SiteKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimSpace(rawURL))
	}
	return strings.ToLower(u.Hostname())
}

// GetSiteConfig returns the configuration for a site key merged over the
// defaults. A nil File yields the zero SiteConfig.
func (cf *File) GetSiteConfig(site string) SiteConfig {
	if cf == nil {
		return SiteConfig{}
	}

	result := cf.Defaults
	result.Headers = maps.Clone(cf.Defaults.Headers)

	siteConfig, ok := cf.Sites[site]
	if !ok {
		return result
	}

	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if siteConfig.Depth != 0 {
		result.Depth = siteConfig.Depth
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		maps.Copy(result.Headers, siteConfig.Headers)
	}
	if len(siteConfig.IgnorePatterns) > 0 {
		result.IgnorePatterns = siteConfig.IgnorePatterns
	}
	if len(siteConfig.FollowPatterns) > 0 {
		result.FollowPatterns = siteConfig.FollowPatterns
	}
	if len(siteConfig.FileExtensions) > 0 {
		result.FileExtensions = append(append([]string(nil), result.FileExtensions...), siteConfig.FileExtensions...)
	}
	if siteConfig.StrictHost {
		result.StrictHost = true
	}
	if siteConfig.SitemapPath != "" {
		result.SitemapPath = siteConfig.SitemapPath
	}

	return result
}

// ForURL returns the site configuration that applies to rawURL.
func (cf *File) ForURL(rawURL string) SiteConfig {
	return cf.GetSiteConfig(SiteKey(rawURL))
}

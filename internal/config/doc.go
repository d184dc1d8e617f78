// Package config provides configuration structures and utilities for LinkFinder.
// It defines the crawl limits, transport settings, worker settings and report
// preferences, and loads per-site overrides from the .linkfinder YAML file.
package config

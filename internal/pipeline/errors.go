package pipeline

import "errors"

// ErrSiteUnreachable is returned by HTMLCrawlStep when not even the seed page
// could be fetched. Workers retry tests that fail with it.
var ErrSiteUnreachable = errors.New("site unreachable")

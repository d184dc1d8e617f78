package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nao1215/linkfinder/internal/model"
)

// DefaultPerPage is the page size of GetResults when none is given.
const DefaultPerPage = 10

// ResultFilter selects and pages the results of a test.
type ResultFilter struct {
	// InHTML keeps only URLs found by the HTML crawl.
	InHTML bool

	// InSitemap keeps only URLs listed in the sitemap.
	InSitemap bool

	// Page is the 0-based page number.
	Page int

	// PerPage is the page size. 0 or less means DefaultPerPage.
	PerPage int
}

func (f ResultFilter) where() string {
	var b strings.Builder
	b.WriteString("test_id = ?")
	if f.InHTML {
		b.WriteString(" AND in_html = 1")
	}
	if f.InSitemap {
		b.WriteString(" AND in_sitemap = 1")
	}
	return b.String()
}

func (f ResultFilter) limit() (limit, offset int) {
	limit = f.PerPage
	if limit <= 0 {
		limit = DefaultPerPage
	}
	page := max(f.Page, 0)
	return limit, page * limit
}

// GetResults returns one page of the results of test id, in the order the
// URLs were discovered.
func (tdb *TestDB) GetResults(ctx context.Context, id int64, filter ResultFilter) ([]model.Result, error) {
	if _, err := tdb.GetTest(ctx, id); err != nil {
		return nil, err
	}

	limit, offset := filter.limit()
	query := `
	SELECT url, in_html, in_sitemap, html_depth, sitemap_depth, response_ms
	FROM results
	WHERE ` + filter.where() + `
	ORDER BY position
	LIMIT ? OFFSET ?`

	rows, err := tdb.db.QueryContext(ctx, query, id, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	results := make([]model.Result, 0, limit)
	for rows.Next() {
		var (
			r                 model.Result
			inHTML, inSitemap int
			responseMS        int64
		)
		if err := rows.Scan(&r.URL, &inHTML, &inSitemap, &r.HTMLDepth, &r.SitemapDepth, &responseMS); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		r.InHTML = inHTML != 0
		r.InSitemap = inSitemap != 0
		r.ResponseTime = time.Duration(responseMS) * time.Millisecond
		results = append(results, r)
	}
	return results, rows.Err()
}

// CountResults returns how many results of test id match filter, ignoring
// its paging fields.
func (tdb *TestDB) CountResults(ctx context.Context, id int64, filter ResultFilter) (int, error) {
	if _, err := tdb.GetTest(ctx, id); err != nil {
		return 0, err
	}

	var n int
	err := tdb.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM results WHERE `+filter.where(), id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count results: %w", err)
	}
	return n, nil
}

package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/nao1215/linkfinder/internal/model"
)

// TestTable writes stored tests as a terminal table.
func TestTable(w io.Writer, tests []model.Test) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"ID", "URL", "Status", "Attempts", "Created", "Error"})

	for _, t := range tests {
		if err := table.Append([]string{
			strconv.FormatInt(t.ID, 10),
			t.URL,
			t.Status.String(),
			strconv.Itoa(t.Attempts),
			t.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			truncateString(t.Error, 40),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

// ResultPage is one page of the stored results of a test.
type ResultPage struct {
	TestID  int64          `json:"test_id"`
	Page    int            `json:"page"`
	PerPage int            `json:"per_page"`
	Total   int            `json:"total"`
	Results []model.Result `json:"results"`
}

// ResultTable writes a page of results as a terminal table followed by a
// page indicator.
func ResultTable(w io.Writer, page ResultPage) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"URL", "HTML", "Sitemap", "HTML depth", "Sitemap depth", "Response"})

	for _, r := range page.Results {
		response := ""
		if r.ResponseTime > 0 {
			response = r.ResponseTime.String()
		}
		if err := table.Append([]string{
			r.URL,
			check(r.InHTML),
			check(r.InSitemap),
			depth(r.HTMLDepth),
			depth(r.SitemapDepth),
			response,
		}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	pages := 1
	if page.PerPage > 0 && page.Total > 0 {
		pages = (page.Total + page.PerPage - 1) / page.PerPage
	}
	_, err := fmt.Fprintf(w, "page %d of %d (%d results)\n", page.Page+1, pages, page.Total)
	return err
}

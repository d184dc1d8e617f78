package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/nao1215/linkfinder/internal/model"
)

// seedResults stores a finished test with 25 URLs:
// 0-14 only in HTML, 15-19 in both, 20-24 only in the sitemap.
func seedResults(t *testing.T, db *TestDB) int64 {
	t.Helper()

	ctx := context.Background()
	id, err := db.CreateTest(ctx, "https://example.com")
	if err != nil {
		t.Fatalf("CreateTest failed: %v", err)
	}

	var html, sitemap []model.Link
	for i := range 25 {
		l := model.NewLink(fmt.Sprintf("https://example.com/p%02d", i), 1)
		if i < 20 {
			html = append(html, l)
		}
		if i >= 15 {
			sitemap = append(sitemap, l)
		}
	}
	if err := db.CompleteTest(ctx, id, html, sitemap); err != nil {
		t.Fatalf("CompleteTest failed: %v", err)
	}
	return id
}

func TestGetResults(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t, DefaultOptions())
	id := seedResults(t, db)
	ctx := context.Background()

	tests := []struct {
		name      string
		filter    ResultFilter
		wantLen   int
		wantFirst string
		wantCount int
	}{
		{
			name:      "default page size",
			filter:    ResultFilter{},
			wantLen:   DefaultPerPage,
			wantFirst: "https://example.com/p00",
			wantCount: 25,
		},
		{
			name:      "last partial page",
			filter:    ResultFilter{Page: 2},
			wantLen:   5,
			wantFirst: "https://example.com/p20",
			wantCount: 25,
		},
		{
			name:      "page past the end",
			filter:    ResultFilter{Page: 9},
			wantLen:   0,
			wantCount: 25,
		},
		{
			name:      "negative page is the first page",
			filter:    ResultFilter{Page: -3, PerPage: 3},
			wantLen:   3,
			wantFirst: "https://example.com/p00",
			wantCount: 25,
		},
		{
			name:      "only in html",
			filter:    ResultFilter{InHTML: true, PerPage: 100},
			wantLen:   20,
			wantFirst: "https://example.com/p00",
			wantCount: 20,
		},
		{
			name:      "only in sitemap",
			filter:    ResultFilter{InSitemap: true, PerPage: 100},
			wantLen:   10,
			wantFirst: "https://example.com/p15",
			wantCount: 10,
		},
		{
			name:      "in both",
			filter:    ResultFilter{InHTML: true, InSitemap: true, PerPage: 100},
			wantLen:   5,
			wantFirst: "https://example.com/p15",
			wantCount: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			results, err := db.GetResults(ctx, id, tt.filter)
			if err != nil {
				t.Fatalf("GetResults failed: %v", err)
			}
			if len(results) != tt.wantLen {
				t.Fatalf("got %d results, want %d", len(results), tt.wantLen)
			}
			if tt.wantLen > 0 && results[0].URL != tt.wantFirst {
				t.Errorf("first = %s, want %s", results[0].URL, tt.wantFirst)
			}

			n, err := db.CountResults(ctx, id, tt.filter)
			if err != nil {
				t.Fatalf("CountResults failed: %v", err)
			}
			if n != tt.wantCount {
				t.Errorf("count = %d, want %d", n, tt.wantCount)
			}
		})
	}
}

func TestGetResultsUnknownTest(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t, DefaultOptions())
	ctx := context.Background()

	if _, err := db.GetResults(ctx, 5, ResultFilter{}); !errors.Is(err, ErrTestNotFound) {
		t.Errorf("GetResults: expected ErrTestNotFound, got %v", err)
	}
	if _, err := db.CountResults(ctx, 5, ResultFilter{}); !errors.Is(err, ErrTestNotFound) {
		t.Errorf("CountResults: expected ErrTestNotFound, got %v", err)
	}
}

func TestGetResultsPendingTest(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t, DefaultOptions())
	ctx := context.Background()

	id, err := db.CreateTest(ctx, "https://example.com")
	if err != nil {
		t.Fatalf("CreateTest failed: %v", err)
	}
	results, err := db.GetResults(ctx, id, ResultFilter{})
	if err != nil {
		t.Fatalf("GetResults failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

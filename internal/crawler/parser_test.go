package crawler

import (
	"slices"
	"testing"
)

func TestHTMLParser(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "anchors in document order",
			body: `<html><body><a href="/a">A</a><p><a href="https://x.example.com/b">B</a></p></body></html>`,
			want: []string{"/a", "https://x.example.com/b"},
		},
		{
			name: "area and self closing",
			body: `<map><area href="/map" /></map><a href="/c"/>`,
			want: []string{"/map", "/c"},
		},
		{
			name: "entities decoded",
			body: `<a href="/search?q=1&amp;p=2">s</a>`,
			want: []string{"/search?q=1&p=2"},
		},
		{
			name: "anchors without href skipped",
			body: `<a name="top">top</a><a id="x" href="/x">x</a><link href="/style.css">`,
			want: []string{"/x"},
		},
		{
			name: "malformed markup",
			body: `<div><a href="/one">one<div><a href='/two'>two</p><a href=/three>`,
			want: []string{"/one", "/two", "/three"},
		},
		{
			name: "upper case tags",
			body: `<A HREF="/upper">u</A>`,
			want: []string{"/upper"},
		},
		{
			name: "empty body",
			body: "",
			want: nil,
		},
		{
			name: "not html",
			body: "just some text with href=/nope",
			want: nil,
		},
	}

	p := NewHTMLParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := slices.Collect(p.Parse(tt.body))
			if !slices.Equal(got, tt.want) {
				t.Errorf("Parse() = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("stops when the consumer stops", func(t *testing.T) {
		t.Parallel()

		var got []string
		for href := range p.Parse(`<a href="/1"></a><a href="/2"></a><a href="/3"></a>`) {
			got = append(got, href)
			if len(got) == 2 {
				break
			}
		}
		if !slices.Equal(got, []string{"/1", "/2"}) {
			t.Errorf("got %q", got)
		}
	})
}

func TestSitemapParser(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "bare loc elements",
			body: "<loc>https://example.com/</loc><loc>https://example.com/afraid</loc>",
			want: []string{"https://example.com/", "https://example.com/afraid"},
		},
		{
			name: "namespaced urlset",
			body: `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://example.com/a</loc><lastmod>2024-01-01</lastmod></url>
  <url><loc>
    https://example.com/b
  </loc></url>
</urlset>`,
			want: []string{"https://example.com/a", "https://example.com/b"},
		},
		{
			name: "cdata and entities",
			body: `<urlset><url><loc><![CDATA[https://example.com/c?x=1&y=2]]></loc></url><url><loc>https://example.com/d?x=1&amp;y=2</loc></url></urlset>`,
			want: []string{"https://example.com/c?x=1&y=2", "https://example.com/d?x=1&y=2"},
		},
		{
			name: "image extension locs are not pages",
			body: `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9" xmlns:image="http://www.google.com/schemas/sitemap-image/1.1">
  <url>
    <loc>https://example.com/a</loc>
    <image:image><image:loc>https://cdn.example.com/img?id=1</image:loc></image:image>
  </url>
</urlset>`,
			want: []string{"https://example.com/a"},
		},
		{
			name: "image extension locs in broken xml",
			body: `<urlset><url><loc>https://example.com/a</loc><image:image><image:loc>https://cdn.example.com/img?id=1</image:loc></image:image></url>`,
			want: []string{"https://example.com/a"},
		},
		{
			name: "prefixed sitemap namespace",
			body: `<sm:urlset xmlns:sm="http://www.sitemaps.org/schemas/sitemap/0.9"><sm:url><sm:loc>https://example.com/p</sm:loc></sm:url></sm:urlset>`,
			want: []string{"https://example.com/p"},
		},
		{
			name: "broken xml falls back to scanning",
			body: `<urlset><url><loc>https://example.com/e</loc></url><url><loc>https://example.com/f</loc>`,
			want: []string{"https://example.com/e", "https://example.com/f"},
		},
		{
			name: "html error page",
			body: `<html><body><h1>Not Found</h1></body></html>`,
			want: nil,
		},
		{
			name: "empty",
			body: "",
			want: nil,
		},
	}

	p := NewSitemapParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := slices.Collect(p.Parse(tt.body))
			if !slices.Equal(got, tt.want) {
				t.Errorf("Parse() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSitemapParserParseDocument(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		body      string
		wantLocs  []string
		wantIndex bool
	}{
		{
			name:      "sitemap index",
			body:      `<?xml version="1.0"?><sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"><sitemap><loc>https://example.com/s1.xml</loc></sitemap></sitemapindex>`,
			wantLocs:  []string{"https://example.com/s1.xml"},
			wantIndex: true,
		},
		{
			name:      "urlset",
			body:      `<?xml version="1.0"?><urlset><url><loc>https://example.com/</loc></url></urlset>`,
			wantLocs:  []string{"https://example.com/"},
			wantIndex: false,
		},
		{
			name:      "broken sitemap index",
			body:      `<sitemapindex><sitemap><loc>https://example.com/s1.xml</loc></sitemap>`,
			wantLocs:  []string{"https://example.com/s1.xml"},
			wantIndex: true,
		},
		{
			name:      "index named only in text",
			body:      `<urlset><url><loc>https://example.com/sitemapindex</loc></url></urlset>`,
			wantLocs:  []string{"https://example.com/sitemapindex"},
			wantIndex: false,
		},
	}

	p := NewSitemapParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			locs, index := p.ParseDocument(tt.body)
			if got := slices.Collect(locs); !slices.Equal(got, tt.wantLocs) {
				t.Errorf("locs = %q, want %q", got, tt.wantLocs)
			}
			if index != tt.wantIndex {
				t.Errorf("index = %v, want %v", index, tt.wantIndex)
			}
		})
	}

	var _ DocumentParser = p
}

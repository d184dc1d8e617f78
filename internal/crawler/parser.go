package crawler

import (
	"iter"
	"slices"
	"strings"

	"github.com/antchfx/xmlquery"
	"golang.org/x/net/html"
)

// HTMLParser extracts anchor targets from HTML.
//
// It walks the token stream of golang.org/x/net/html instead of building a
// DOM, so unclosed or misnested tags never hide the links that follow them.
type HTMLParser struct {
	// tags are the element names whose href attribute is a link.
	tags map[string]bool
}

// NewHTMLParser creates an HTMLParser that reads <a> and <area> elements.
func NewHTMLParser() *HTMLParser {
	return &HTMLParser{
		tags: map[string]bool{"a": true, "area": true},
	}
}

// Parse yields the raw href value of every anchor in body, in document order.
// Values are entity-decoded but otherwise untouched. Empty hrefs are yielded
// too; the converter drops them.
func (p *HTMLParser) Parse(body string) iter.Seq[string] {
	return func(yield func(string) bool) {
		z := html.NewTokenizer(strings.NewReader(body))
		for {
			switch z.Next() {
			case html.ErrorToken:
				// io.EOF or a tokenizer error; either way there is nothing left.
				return
			case html.StartTagToken, html.SelfClosingTagToken:
				name, hasAttr := z.TagName()
				if !hasAttr || !p.tags[string(name)] {
					continue
				}
				if href, ok := hrefAttr(z); ok && !yield(href) {
					return
				}
			}
		}
	}
}

// hrefAttr returns the first href attribute of the current tag.
func hrefAttr(z *html.Tokenizer) (string, bool) {
	for {
		key, val, more := z.TagAttr()
		if string(key) == "href" {
			return string(val), true
		}
		if !more {
			return "", false
		}
	}
}

// SitemapParser extracts the <loc> values of a sitemap document.
//
// Well-formed XML goes through xmlquery, which understands namespaces, CDATA
// and entities. When the document does not parse as XML, or parses but has no
// <loc> element, it is scanned with the tolerant HTML tokenizer instead.
// Only <loc> elements of the sitemap namespace, or of no namespace, count:
// extension elements such as <image:loc> name assets, not pages.
type SitemapParser struct{}

// NewSitemapParser creates a SitemapParser.
func NewSitemapParser() *SitemapParser {
	return &SitemapParser{}
}

// sitemapNS is the namespace of the sitemaps.org protocol.
const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

const (
	locXPath   = "//*[local-name()='loc' and (namespace-uri()='' or namespace-uri()='" + sitemapNS + "')]"
	indexXPath = "/*[local-name()='sitemapindex']"
)

// Parse yields the trimmed text of every <loc> element, in document order.
func (p *SitemapParser) Parse(body string) iter.Seq[string] {
	return func(yield func(string) bool) {
		locs, _ := parseSitemap(body)
		for _, loc := range locs {
			if !yield(loc) {
				return
			}
		}
	}
}

// ParseDocument parses body once and returns its <loc> values together with
// whether the document is a sitemap index, i.e. a sitemap whose entries are
// other sitemaps.
func (p *SitemapParser) ParseDocument(body string) (iter.Seq[string], bool) {
	locs, index := parseSitemap(body)
	return slices.Values(locs), index
}

func parseSitemap(body string) (locs []string, index bool) {
	doc, err := xmlquery.Parse(strings.NewReader(body))
	if err != nil {
		return scanLocs(body)
	}

	if n, err := xmlquery.Query(doc, indexXPath); err == nil && n != nil {
		index = true
	}
	nodes, err := xmlquery.QueryAll(doc, locXPath)
	if err != nil || len(nodes) == 0 {
		scanned, scannedIndex := scanLocs(body)
		return scanned, index || scannedIndex
	}
	locs = make([]string, 0, len(nodes))
	for _, n := range nodes {
		locs = append(locs, strings.TrimSpace(n.InnerText()))
	}
	return locs, index
}

// scanLocs is the tolerant fallback for documents that are not valid XML.
// The tokenizer keeps namespace prefixes in tag names, so <image:loc> never
// matches "loc".
func scanLocs(body string) (locs []string, index bool) {
	z := html.NewTokenizer(strings.NewReader(body))
	var (
		inLoc bool
		text  strings.Builder
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return locs, index
		case html.StartTagToken:
			switch name, _ := z.TagName(); string(name) {
			case "loc":
				inLoc = true
				text.Reset()
			case "sitemapindex":
				index = true
			}
		case html.TextToken:
			if inLoc {
				text.Write(z.Text())
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); string(name) == "loc" && inLoc {
				inLoc = false
				locs = append(locs, strings.TrimSpace(text.String()))
			}
		}
	}
}

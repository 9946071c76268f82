package extraction

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/jobprep/internal/ingestion"
	"golang.org/x/net/html"
)

const maxTitleLength = 200

// Document is the parsed form of one raw HTML blob. It is owned by a single
// extraction attempt.
type Document struct {
	HTML   string
	RawURL string
	URL    *url.URL // nil when RawURL is empty or unparsable

	dom *goquery.Document

	posting       map[string]any
	postingLoaded bool
}

// NewDocument parses rawHTML. rawURL may be empty.
func NewDocument(rawHTML, rawURL string) (*Document, error) {
	dom, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc := &Document{
		HTML:   rawHTML,
		RawURL: rawURL,
		dom:    dom,
	}
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Host != "" {
		doc.URL = parsed
	}
	return doc, nil
}

// Find runs a CSS selector against the document.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.dom.Find(selector)
}

// Title returns the JSON-LD JobPosting title, else og:title, else the
// <title> text, normalized.
func (d *Document) Title() string {
	title := fieldText(d.jobPosting()["title"])
	if title == "" {
		title = strings.TrimSpace(d.Find(`meta[property="og:title"]`).First().AttrOr("content", ""))
	}
	if title == "" {
		title = d.Find("title").First().Text()
	}
	return ingestion.Truncate(ingestion.Normalize(title), maxTitleLength)
}

// textContent returns the normalized visible text of the first node in sel.
// Text nodes are joined with spaces so block boundaries survive.
func textContent(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(sel.Get(0))

	return ingestion.Normalize(sb.String())
}

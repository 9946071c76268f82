package extraction

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/jonathan/jobprep/internal/ingestion"
)

// placeholderBase resolves relative references when no source URL is known.
const placeholderBase = "http://localhost/"

// ExtractReadable runs the reader-mode main-content heuristic over rawHTML.
// It reports false when no article content is found.
func ExtractReadable(rawHTML, rawURL string) (string, bool) {
	if strings.TrimSpace(rawHTML) == "" {
		return "", false
	}

	base, err := url.Parse(rawURL)
	if err != nil || base.Host == "" {
		base, _ = url.Parse(placeholderBase)
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), base)
	if err != nil {
		return "", false
	}

	// article.Content is re-serialized HTML with its own entity escaping, so
	// read text from the parsed node. TextContent glues blocks together and
	// is only the fallback.
	var text string
	if article.Node != nil {
		text = textContent(goquery.NewDocumentFromNode(article.Node).Selection)
	}
	if text == "" {
		text = ingestion.Normalize(article.TextContent)
	}
	return text, text != ""
}

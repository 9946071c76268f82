package extraction

import (
	"strings"

	"github.com/jonathan/jobprep/internal/ingestion"
)

// metaSelectors are checked in order; the first non-empty content wins.
var metaSelectors = []string{
	`meta[property="og:description"]`,
	`meta[name="twitter:description"]`,
	`meta[name="description"]`,
}

// ExtractMeta returns the page's meta description.
func ExtractMeta(doc *Document) (string, bool) {
	for _, selector := range metaSelectors {
		content, ok := doc.Find(selector).First().Attr("content")
		if !ok || strings.TrimSpace(content) == "" {
			continue
		}
		text := ingestion.Normalize(content)
		return text, text != ""
	}
	return "", false
}

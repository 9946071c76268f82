package extraction

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/jobprep/internal/ingestion"
)

var (
	leverStateRe    = regexp.MustCompile(`window\.__lever__\s*=\s*`)
	ashbyAppDataRe  = regexp.MustCompile(`window\.__appData\s*=\s*`)
	workdayMarker   = `"jobPostingInfo"`
	greenhouseRoots = []string{"#content", ".content", "main"}
)

// ashbyPostingPaths are the known locations of the posting object in Ashby's page data.
var ashbyPostingPaths = [][]string{
	{"props", "pageProps", "job"},
	{"props", "pageProps", "posting"},
	{"props", "pageProps", "jobPosting"},
	{"props", "pageProps", "data", "job"},
	{"props", "pageProps", "data", "posting"},
	{"props", "pageProps", "data", "jobPosting"},
	{"props", "pageProps", "initialData", "job"},
	{"props", "pageProps", "initialData", "posting"},
}

func extractAshby(doc *Document) string {
	if raw := strings.TrimSpace(doc.Find("script#__NEXT_DATA__").First().Text()); raw != "" {
		var data map[string]any
		if err := json.Unmarshal([]byte(raw), &data); err == nil {
			for _, path := range ashbyPostingPaths {
				posting, ok := lookupPath(data, path...)
				if !ok {
					continue
				}
				if text := ashbyDescription(posting); text != "" {
					return text
				}
			}
		}
	}

	// Current Ashby boards ship their state as window.__appData instead.
	if state, ok := decodeAssignment(doc.HTML, ashbyAppDataRe); ok {
		if posting, ok := state["posting"].(map[string]any); ok {
			return ashbyDescription(posting)
		}
	}
	return ""
}

func ashbyDescription(posting map[string]any) string {
	description := firstString(posting, "descriptionHtml", "description", "descriptionPlain", "descriptionPlainText")
	return ingestion.StripHTML(description)
}

func extractLever(doc *Document) string {
	sel := doc.Find(".posting").First()
	if sel.Length() == 0 {
		sel = doc.Find(".posting-page").First()
	}
	if text := textContent(sel); text != "" {
		return text
	}

	state, ok := decodeAssignment(doc.HTML, leverStateRe)
	if !ok {
		return ""
	}
	posting, ok := state["posting"].(map[string]any)
	if !ok {
		posting = state
	}
	return ingestion.StripHTML(firstString(posting, "text", "description"))
}

func extractGreenhouse(doc *Document) string {
	for _, selector := range greenhouseRoots {
		sel := doc.Find(selector).First()
		if sel.Length() > 0 {
			return textContent(sel)
		}
	}
	return ""
}

func extractWorkday(doc *Document) string {
	var job map[string]any

	doc.Find(`script[type="application/json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := s.Text()
		if !strings.Contains(raw, workdayMarker) {
			return true
		}

		var data any
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return true
		}
		job = findKey(data, "jobPostingInfo")
		return job == nil
	})

	if job != nil {
		if text := ingestion.StripHTML(firstString(job, "jobDescription", "description")); text != "" {
			return text
		}
	}
	return ingestion.StripHTML(doc.HTML)
}

// decodeAssignment decodes the JSON object assigned by a `window.x = {...};`
// statement. Decoding stops at the end of the first value, so braces inside
// strings or trailing script don't matter.
func decodeAssignment(html string, assignment *regexp.Regexp) (map[string]any, bool) {
	loc := assignment.FindStringIndex(html)
	if loc == nil {
		return nil, false
	}

	var state map[string]any
	if err := json.NewDecoder(strings.NewReader(html[loc[1]:])).Decode(&state); err != nil {
		return nil, false
	}
	return state, true
}

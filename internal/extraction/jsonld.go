package extraction

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/jobprep/internal/ingestion"
)

// jobPostingFields are concatenated in this order.
var jobPostingFields = []string{
	"title",
	"description",
	"responsibilities",
	"qualifications",
	"experienceRequirements",
	"skills",
}

// ExtractJSONLD returns the text of the first schema.org JobPosting embedded as JSON-LD.
func ExtractJSONLD(doc *Document) (string, bool) {
	posting := doc.jobPosting()
	if posting == nil {
		return "", false
	}

	parts := make([]string, 0, len(jobPostingFields))
	for _, field := range jobPostingFields {
		value := fieldText(posting[field])
		if value == "" {
			continue
		}
		if cleaned := cleanFieldValue(value); cleaned != "" {
			parts = append(parts, cleaned)
		}
	}

	text := ingestion.Normalize(strings.Join(parts, "\n\n"))
	return text, text != ""
}

// jobPosting returns the document's first JobPosting object, or nil.
// The scan runs once per document.
func (d *Document) jobPosting() map[string]any {
	if !d.postingLoaded {
		d.posting = findJobPosting(d)
		d.postingLoaded = true
	}
	return d.posting
}

func findJobPosting(doc *Document) map[string]any {
	var posting map[string]any

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return true
		}

		var data any
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			// Malformed blocks are common; keep scanning.
			return true
		}

		for _, candidate := range flattenCandidates(data, nil) {
			if isJobPosting(candidate) {
				posting = candidate
				return false
			}
		}
		return true
	})

	return posting
}

// flattenCandidates expands arrays and @graph containers into a flat list of objects.
func flattenCandidates(data any, out []map[string]any) []map[string]any {
	switch v := data.(type) {
	case []any:
		for _, item := range v {
			out = flattenCandidates(item, out)
		}
	case map[string]any:
		out = append(out, v)
		if graph, ok := v["@graph"]; ok {
			out = flattenCandidates(graph, out)
		}
	}
	return out
}

func isJobPosting(obj map[string]any) bool {
	switch t := obj["@type"].(type) {
	case string:
		return strings.EqualFold(t, "JobPosting")
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.EqualFold(s, "JobPosting") {
				return true
			}
		}
	}
	return false
}

// fieldText flattens a JSON-LD property value to a string.
func fieldText(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			if s := fieldText(item); s != "" {
				items = append(items, s)
			}
		}
		return strings.Join(items, "\n")
	case map[string]any:
		for _, key := range []string{"description", "name", "value"} {
			if s := fieldText(v[key]); s != "" {
				return s
			}
		}
	}
	return ""
}

// cleanFieldValue strips markup from values that carry HTML, including
// entity-encoded HTML.
func cleanFieldValue(value string) string {
	switch {
	case strings.Contains(value, "<"):
		return ingestion.StripHTML(value)
	case strings.Contains(value, "&lt;"):
		return ingestion.StripHTML(ingestion.DecodeEntities(value))
	default:
		return strings.TrimSpace(value)
	}
}

// lookupPath descends obj through nested object keys.
func lookupPath(obj map[string]any, path ...string) (map[string]any, bool) {
	current := obj
	for _, key := range path {
		next, ok := current[key].(map[string]any)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// findKey returns the first object stored under key anywhere in data, depth first.
func findKey(data any, key string) map[string]any {
	switch v := data.(type) {
	case map[string]any:
		if found, ok := v[key].(map[string]any); ok {
			return found
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if found := findKey(v[k], key); found != nil {
				return found
			}
		}
	case []any:
		for _, child := range v {
			if found := findKey(child, key); found != nil {
				return found
			}
		}
	}
	return nil
}

// firstString returns the first non-empty string among keys.
func firstString(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

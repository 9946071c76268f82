// Package ingestion turns raw job posting content into bounded, normalized text.
package ingestion

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxTextLength is the hard cap, in characters, on normalized job text.
const MaxTextLength = 12000

var (
	// Go's \s is ASCII only; DOM text still carries U+00A0 and friends.
	whitespaceRe = regexp.MustCompile(`[\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}]+`)
	scriptRe     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptRe   = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	tagRe        = regexp.MustCompile(`<[^>]*>`)
)

// entityReplacer decodes the fixed set of entities job boards commonly leave behind.
var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&quot;", `"`,
	"&#39;", "'",
	"&lt;", "<",
	"&gt;", ">",
)

// Normalize decodes entities, collapses whitespace and caps the result at MaxTextLength characters.
// Normalize(Normalize(s)) == Normalize(s) for every s.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	text = DecodeEntities(text)
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	text = Truncate(text, MaxTextLength)

	// The cut may land right after a space.
	return strings.TrimSpace(text)
}

// DecodeEntities replaces the supported entities until none are left, so
// double-encoded input such as "&amp;lt;" decodes fully.
func DecodeEntities(text string) string {
	for strings.Contains(text, "&") {
		decoded := entityReplacer.Replace(text)
		if decoded == text {
			break
		}
		text = decoded
	}
	return text
}

// Truncate returns the first n characters of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// Length returns the length of s in characters.
func Length(s string) int {
	return utf8.RuneCountInString(s)
}

// StripHTML removes script, style and noscript blocks and then all remaining
// tags, leaving a space where each was so words don't run together.
// It is a textual heuristic, not an HTML parser.
func StripHTML(html string) string {
	if html == "" {
		return ""
	}

	text := scriptRe.ReplaceAllString(html, " ")
	text = styleRe.ReplaceAllString(text, " ")
	text = noscriptRe.ReplaceAllString(text, " ")
	text = tagRe.ReplaceAllString(text, " ")

	return Normalize(text)
}

// IngestFromFile reads a pasted-text file and returns its normalized text with metadata.
func IngestFromFile(path string) (string, *Metadata, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, fmt.Errorf("file not found: %w", err)
		}
		return "", nil, fmt.Errorf("failed to read file: %w", err)
	}

	text := Normalize(string(content))
	metadata := NewMetadata(text, "")
	metadata.Method = "pasted"

	return text, metadata, nil
}

// WriteOutput writes the job text and its metadata to outDir.
func WriteOutput(outDir string, text string, metadata *Metadata) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	textPath := filepath.Join(outDir, "job_posting.txt")
	if err := os.WriteFile(textPath, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write text file: %w", err)
	}

	metaPath := filepath.Join(outDir, "job_posting.meta.json")
	metaJSON, err := metadata.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(metaPath, metaJSON, 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}

	return nil
}

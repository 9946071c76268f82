package extraction

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// longText returns a sentence repeated until it passes n characters.
func longText(sentence string, n int) string {
	var sb strings.Builder
	for sb.Len() <= n {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(sentence)
	}
	return sb.String()
}

func mustDocument(t *testing.T, html, rawURL string) *Document {
	t.Helper()
	doc, err := NewDocument(html, rawURL)
	require.NoError(t, err)
	return doc
}

package extraction

import (
	"strings"
	"testing"

	"github.com/jonathan/jobprep/internal/logger"
	"github.com/jonathan/jobprep/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestParse_MetaDescription(t *testing.T) {
	description := strings.Repeat("a", 250)
	html := `<html><head><meta name="description" content="` + description + `"></head><body></body></html>`

	result := ParseJobText(Input{HTML: html, URL: "https://example.com/careers/1"})
	assert.Equal(t, MethodMeta, result.Method)
	assert.Equal(t, description, result.Text)
}

func TestExtractMeta_Priority(t *testing.T) {
	tests := []struct {
		name     string
		head     string
		expected string
	}{
		{
			name:     "og first",
			head:     `<meta name="description" content="plain"><meta name="twitter:description" content="twitter"><meta property="og:description" content="og">`,
			expected: "og",
		},
		{
			name:     "twitter before plain",
			head:     `<meta name="description" content="plain"><meta name="twitter:description" content="twitter">`,
			expected: "twitter",
		},
		{
			name:     "empty og skipped",
			head:     `<meta property="og:description" content="  "><meta name="description" content="plain &amp; simple">`,
			expected: "plain & simple",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, ok := ExtractMeta(mustDocument(t, "<html><head>"+tt.head+"</head></html>", ""))
			assert.True(t, ok)
			assert.Equal(t, tt.expected, text)
		})
	}
}

func TestParse_FallbackUnderThreshold(t *testing.T) {
	body := strings.Repeat("b", 50)
	html := `<html><body><p>` + body + `</p></body></html>`

	result := ParseJobText(Input{HTML: html, URL: "https://example.com/jobs/2", SourceLabel: MethodDirect})
	assert.Equal(t, MethodDirect, result.Method)
	assert.Equal(t, 50, len([]rune(result.Text)))
}

func TestParse_FallbackUsesSourceLabel(t *testing.T) {
	result := ParseJobText(Input{HTML: "short pasted text", SourceLabel: MethodPasted})
	assert.Equal(t, MethodPasted, result.Method)
	assert.Equal(t, "short pasted text", result.Text)
}

func TestParse_DefaultLabel(t *testing.T) {
	result := ParseJobText(Input{HTML: "<p>tiny</p>"})
	assert.Equal(t, MethodDirect, result.Method)
}

func TestParse_ProviderBeforeReadability(t *testing.T) {
	posting := longText("Partner with research and engineering on onboarding flows.", 260)
	html := `<html><head><title>Product Designer at Acme</title></head><body>
		<div id="content"><p>` + posting + `</p></div>
		<footer>Footer links</footer>
	</body></html>`

	result := ParseJobText(Input{HTML: html, URL: "https://boards.greenhouse.io/acme/jobs/9"})
	assert.Equal(t, MethodGreenhouse, result.Method)
	assert.Equal(t, "Product Designer at Acme", result.Title)
	assert.NotContains(t, result.Text, "Footer")
}

func TestParse_JSONLDBeforeProvider(t *testing.T) {
	description := longText("Lead the payments design roadmap.", 240)
	html := `<html><head><script type="application/ld+json">{"@type":"JobPosting","title":"Lead Designer","description":"` +
		description + `"}</script></head><body><div class="posting">` + longText("Lever body.", 240) + `</div></body></html>`

	result := ParseJobText(Input{HTML: html, URL: "https://jobs.lever.co/acme/1"})
	assert.Equal(t, MethodJSONLD, result.Method)
	assert.True(t, strings.HasPrefix(result.Text, "Lead Designer"))
}

func TestParse_ShortStepsAreRejected(t *testing.T) {
	// A short JSON-LD posting and a short provider body both fall through.
	html := `<html><head>
		<script type="application/ld+json">{"@type":"JobPosting","title":"Short"}</script>
		<meta name="description" content="` + strings.Repeat("m", 210) + `">
	</head><body><div id="content">tiny</div></body></html>`

	result := ParseJobText(Input{HTML: html, URL: "https://boards.greenhouse.io/acme/jobs/3"})
	assert.Equal(t, MethodMeta, result.Method)
}

func TestOrchestrator_CustomSteps(t *testing.T) {
	o := NewOrchestrator(logger.NewNop(), nil)
	o.steps = []Step{
		{Name: "never", Extract: func(*Document) (string, Method, bool) { return "", "", false }},
		{Name: "always", Extract: func(*Document) (string, Method, bool) {
			return strings.Repeat("x", MinTextLength), MethodReadability, true
		}},
	}

	result := o.Parse(Input{HTML: "<p>ignored</p>"})
	assert.Equal(t, MethodReadability, result.Method)
	assert.Len(t, result.Text, MinTextLength)
}

func TestOrchestrator_RecordsMethodMetric(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	o := NewOrchestrator(nil, m)

	o.Parse(Input{HTML: "<p>tiny</p>", SourceLabel: MethodPasted})
	o.Parse(Input{HTML: "<p>tiny</p>", SourceLabel: MethodPasted})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ExtractionMethods.WithLabelValues(string(MethodPasted))))
}

const articlePage = `<html><head><title>Product Designer | Acme</title>
<meta name="description" content="Join Acme."></head><body>
<nav><a href="/">Home</a> <a href="/about">About</a> <a href="/careers">Careers</a></nav>
<article>
<h1>Product Designer</h1>
<p>We're building "great" tools for designers &amp; engineers.</p>
<p>You will partner with research, engineering and product to shape onboarding, billing and collaboration flows, turning interviews, analytics and support tickets into clear, tested interaction designs that ship every week.</p>
<p>We are looking for someone with five or more years of product design experience, a portfolio of shipped work, fluency in Figma and prototyping, and the patience to explain decisions to stakeholders who think in spreadsheets.</p>
<p>The team is remote friendly across Europe, meets twice a year in Berlin, and pairs designers with a dedicated researcher, so you will spend your time on craft instead of recruiting participants or chasing approvals.</p>
</article>
<footer>Copyright Acme Inc. All rights reserved.</footer>
</body></html>`

func TestParse_ReadabilityForUnknownHost(t *testing.T) {
	result := ParseJobText(Input{HTML: articlePage, URL: "https://acme.example.com/careers/designer"})

	assert.Equal(t, MethodReadability, result.Method)
	assert.Contains(t, result.Text, `We're building "great" tools for designers & engineers. You will partner`)
	assert.Contains(t, result.Text, "recruiting participants")
	assert.NotContains(t, result.Text, "&#34;")
	assert.NotContains(t, result.Text, "&quot;")
	assert.NotContains(t, result.Text, "&amp;")
	assert.GreaterOrEqual(t, len([]rune(result.Text)), MinTextLength)
}

func TestExtractReadable_NoSourceURL(t *testing.T) {
	text, ok := ExtractReadable(articlePage, "")
	assert.True(t, ok)
	assert.Contains(t, text, `"great" tools`)

	_, ok = ExtractReadable("  ", "")
	assert.False(t, ok)
}

func TestParse_BoilerplateFallsThroughToMeta(t *testing.T) {
	description := longText("Acme is hiring a product designer to own onboarding and billing flows.", 220)
	html := `<html><head><title>Careers</title><meta name="description" content="` + description + `"></head><body>
		<nav><a href="/">Home</a> <a href="/about">About</a></nav>
		<footer>Copyright Acme Inc.</footer>
	</body></html>`

	result := ParseJobText(Input{HTML: html, URL: "https://acme.example.com/careers/designer"})
	assert.Equal(t, MethodMeta, result.Method)
	assert.Equal(t, description, result.Text)
}

func TestParse_TitlePrefersJobPosting(t *testing.T) {
	description := longText("Lead the payments design roadmap.", 240)
	html := `<html><head><title>Careers | Acme</title><meta property="og:title" content="Acme Careers">
		<script type="application/ld+json">{"@type":"JobPosting","title":"Lead Designer","description":"` +
		description + `"}</script></head><body></body></html>`

	result := ParseJobText(Input{HTML: html, URL: "https://acme.example.com/jobs/4"})
	assert.Equal(t, MethodJSONLD, result.Method)
	assert.Equal(t, "Lead Designer", result.Title)
}

func TestDocumentTitle_Fallbacks(t *testing.T) {
	tests := []struct {
		name     string
		head     string
		expected string
	}{
		{"og title", `<title>Page</title><meta property="og:title" content="OG Title">`, "OG Title"},
		{"title tag", `<title> Page  Title </title>`, "Page Title"},
		{"posting without title", `<title>Page</title><script type="application/ld+json">{"@type":"JobPosting"}</script>`, "Page"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustDocument(t, "<html><head>"+tt.head+"</head></html>", "")
			assert.Equal(t, tt.expected, doc.Title())
		})
	}
}

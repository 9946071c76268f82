package extraction

import (
	"net/url"
	"strings"
)

// Provider identifies a known applicant-tracking-system page family.
type Provider string

const (
	// ProviderAshby is the Ashby ATS platform
	ProviderAshby Provider = "ashby"
	// ProviderLever is the Lever ATS platform
	ProviderLever Provider = "lever"
	// ProviderGreenhouse is the Greenhouse ATS platform
	ProviderGreenhouse Provider = "greenhouse"
	// ProviderWorkday is the Workday ATS platform
	ProviderWorkday Provider = "workday"
	// ProviderNone is an unrecognized host
	ProviderNone Provider = "none"
)

// providerSpec binds a provider to its host match and parser.
type providerSpec struct {
	provider Provider
	method   Method
	matches  func(host string) bool
	extract  func(doc *Document) string
}

// providers is the canonical dispatch order. Host matches are mutually
// exclusive in practice, so order only settles pathological hosts.
var providers = []providerSpec{
	{
		provider: ProviderAshby,
		method:   MethodAshby,
		matches:  func(host string) bool { return strings.Contains(host, "ashbyhq.com") },
		extract:  extractAshby,
	},
	{
		provider: ProviderLever,
		method:   MethodLever,
		matches:  func(host string) bool { return strings.Contains(host, "lever.co") },
		extract:  extractLever,
	},
	{
		provider: ProviderGreenhouse,
		method:   MethodGreenhouse,
		matches:  func(host string) bool { return strings.Contains(host, "greenhouse.io") },
		extract:  extractGreenhouse,
	},
	{
		provider: ProviderWorkday,
		method:   MethodWorkday,
		matches: func(host string) bool {
			return strings.Contains(host, "myworkdayjobs.com") || strings.Contains(host, "workday")
		},
		extract: extractWorkday,
	},
}

// DetectProvider identifies the ATS family from a URL's hostname.
func DetectProvider(rawURL string) Provider {
	if spec, ok := lookupProvider(rawURL); ok {
		return spec.provider
	}
	return ProviderNone
}

// Method returns the extraction method tag for p.
func (p Provider) Method() Method {
	for _, spec := range providers {
		if spec.provider == p {
			return spec.method
		}
	}
	return ""
}

func lookupProvider(rawURL string) (providerSpec, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return providerSpec{}, false
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return providerSpec{}, false
	}

	for _, spec := range providers {
		if spec.matches(host) {
			return spec, true
		}
	}
	return providerSpec{}, false
}

// ExtractProvider runs the parser of the provider matching doc's URL.
// It reports false for unknown hosts or when that provider recovers nothing.
func ExtractProvider(doc *Document) (string, Method, bool) {
	spec, ok := lookupProvider(doc.RawURL)
	if !ok {
		return "", "", false
	}

	text := spec.extract(doc)
	if text == "" {
		return "", spec.method, false
	}
	return text, spec.method, true
}

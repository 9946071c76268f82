// Package extraction recovers job description text from an arbitrary HTML document
// by trying a cascade of extractors from most to least precise.
package extraction

// MinTextLength is the acceptance bar, in characters, for an extraction step.
const MinTextLength = 200

// Method names the extractor or fetch stage that produced a text.
type Method string

const (
	MethodJSONLD      Method = "jsonld"
	MethodAshby       Method = "ats-ashby"
	MethodLever       Method = "ats-lever"
	MethodGreenhouse  Method = "ats-greenhouse"
	MethodWorkday     Method = "ats-workday"
	MethodReadability Method = "readability"
	MethodMeta        Method = "meta"
	MethodDirect      Method = "direct"
	MethodProxy       Method = "jina"
	MethodProxyDouble Method = "jina-double"
	MethodPasted      Method = "pasted"
)

// Input is the raw document handed to the orchestrator.
type Input struct {
	HTML string
	// URL is empty for pasted content.
	URL string
	// SourceLabel tags the plain tag-stripped fallback. Defaults to MethodDirect.
	SourceLabel Method
}

// Result is one extraction outcome.
type Result struct {
	Text   string `json:"text"`
	Method Method `json:"method"`
	Title  string `json:"title,omitempty"`
}

// Package types provides the request, response and analysis types shared by
// the HTTP server, the CLI and the analysis service.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Unknown marks a classification the model or heuristics could not decide.
const Unknown = "unknown"

// MinPastedLength is the trimmed length pasted text needs to be analyzed
// without a URL.
const MinPastedLength = 200

// Analysis is the structured interview-preparation output.
type Analysis struct {
	RoleLevel string   `json:"role_level"`
	RoleType  string   `json:"role_type"`
	Domain    string   `json:"domain"`
	Focus     string   `json:"focus"`
	Signals   []string `json:"signals"`
	Themes    []Theme  `json:"themes"`
}

// Theme groups behavioral questions under a short heading.
type Theme struct {
	Theme     string   `json:"theme"`
	Questions []string `json:"questions"`
}

// QuestionCount returns the number of questions across all themes.
func (a *Analysis) QuestionCount() int {
	n := 0
	for _, theme := range a.Themes {
		n += len(theme.Questions)
	}
	return n
}

// Hints is the keyword-heuristic classification of a job text.
type Hints struct {
	Seniority string   `json:"seniority"`
	Focus     string   `json:"focus"`
	Domain    string   `json:"domain"`
	RoleType  string   `json:"role_type"`
	Tags      []string `json:"tags"`
}

// AnalyzeRequest is the body of POST /api/analyze.
type AnalyzeRequest struct {
	URL  string `json:"url,omitempty" validate:"required_without=Text,omitempty,http_url"`
	Text string `json:"text,omitempty"`
}

// HasPastedText reports whether Text is long enough to analyze on its own.
func (r *AnalyzeRequest) HasPastedText() bool {
	return utf8.RuneCountInString(strings.TrimSpace(r.Text)) >= MinPastedLength
}

// ValidateURL checks URL is a well-formed http(s) URL.
func (r *AnalyzeRequest) ValidateURL() error {
	validate := validator.New()
	return validate.Var(strings.TrimSpace(r.URL), "required,http_url")
}

// ParseInfo describes how the job text was obtained.
type ParseInfo struct {
	Method string `json:"method"`
	Length int    `json:"length"`
}

// AnalyzeResponse is the success body of POST /api/analyze.
type AnalyzeResponse struct {
	Analysis *Analysis `json:"analysis"`
	Parse    ParseInfo `json:"parse"`
}

package analysis

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey is returned when no generative client is configured.
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY is not configured")

// Generation stages reported in GenerationError.
const (
	StageGenerate = "generate"
	StageParse    = "parse"
	StageValidate = "validate"
)

// GenerationError reports a failed generative step. Message carries the upstream detail.
type GenerationError struct {
	Stage   string
	Message string
	Cause   error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("analysis %s failed: %s: %v", e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("analysis %s failed: %s", e.Stage, e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

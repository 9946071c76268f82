// Package analysis turns job text into interview-preparation content: keyword
// heuristics produce hints, a generative model writes the questions, and the
// heuristics backfill whatever the model leaves undecided.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/jobprep/internal/llm"
	"github.com/jonathan/jobprep/internal/logger"
	"github.com/jonathan/jobprep/internal/metrics"
	"github.com/jonathan/jobprep/internal/prompts"
	"github.com/jonathan/jobprep/internal/schemas"
	"github.com/jonathan/jobprep/internal/types"
)

// Question count bounds for a generated analysis.
const (
	MinQuestions = 6
	MaxQuestions = 10
)

// DefaultTimeout bounds one generative call.
const DefaultTimeout = 60 * time.Second

const (
	promptFile = "analysis.json"
	promptKey  = "interview-questions"
	hintsKey   = "hints-summary"
)

// Config configures a Service.
type Config struct {
	Timeout time.Duration
	Tier    llm.ModelTier
}

// Service generates interview analyses.
type Service struct {
	client  llm.Client
	timeout time.Duration
	tier    llm.ModelTier
	log     logger.Logger
	metrics *metrics.Metrics
}

// NewService creates a Service. A nil client makes every Analyze call fail
// with ErrMissingAPIKey.
func NewService(client llm.Client, cfg Config, log logger.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Tier == "" {
		cfg.Tier = llm.TierStandard
	}
	return &Service{
		client:  client,
		timeout: cfg.Timeout,
		tier:    cfg.Tier,
		log:     log,
		metrics: m,
	}
}

// Analyze generates a validated analysis for text.
func (s *Service) Analyze(ctx context.Context, text string) (*types.Analysis, error) {
	if s.client == nil {
		return nil, ErrMissingAPIKey
	}

	hints := DetectHints(text)
	prompt, err := BuildPrompt(text, hints)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	raw, err := s.client.GenerateJSON(ctx, prompt, s.tier)
	elapsed := time.Since(start)
	s.metrics.ObserveGeneration(elapsed)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &GenerationError{
				Stage:   StageGenerate,
				Message: fmt.Sprintf("timed out after %s", s.timeout),
				Cause:   context.DeadlineExceeded,
			}
		}
		return nil, &GenerationError{Stage: StageGenerate, Message: "model request failed", Cause: err}
	}

	s.log.Debug("Generated analysis",
		logger.String("model", s.client.GetModel(s.tier)),
		logger.Duration("elapsed", elapsed),
		logger.Int("bytes", len(raw)))

	analysis, err := decodeAnalysis(raw)
	if err != nil {
		return nil, err
	}

	Backfill(analysis, hints)
	return analysis, nil
}

// BuildPrompt renders the interview-questions prompt for text.
func BuildPrompt(text string, hints types.Hints) (string, error) {
	tags := strings.Join(hints.Tags, ", ")
	if tags == "" {
		tags = "none"
	}
	summary, err := prompts.Render(promptFile, hintsKey, map[string]string{
		"Seniority": hints.Seniority,
		"RoleType":  hints.RoleType,
		"Domain":    hints.Domain,
		"Focus":     hints.Focus,
		"Tags":      tags,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render hints: %w", err)
	}

	prompt, err := prompts.Render(promptFile, promptKey, map[string]string{
		"Hints":   summary,
		"Schema":  schemas.AnalysisSchema,
		"JobText": text,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return prompt, nil
}

func decodeAnalysis(raw string) (*types.Analysis, error) {
	cleaned := llm.CleanJSONBlock(raw)

	if err := schemas.ValidateAnalysis(cleaned); err != nil {
		var loadErr *schemas.SchemaLoadError
		if errors.As(err, &loadErr) {
			return nil, &GenerationError{Stage: StageParse, Message: "model returned malformed JSON", Cause: err}
		}
		return nil, &GenerationError{Stage: StageValidate, Message: "model output violates schema", Cause: err}
	}

	var analysis types.Analysis
	if err := json.Unmarshal([]byte(cleaned), &analysis); err != nil {
		return nil, &GenerationError{Stage: StageParse, Message: "model returned malformed JSON", Cause: err}
	}

	if n := analysis.QuestionCount(); n < MinQuestions || n > MaxQuestions {
		return nil, &GenerationError{
			Stage:   StageValidate,
			Message: fmt.Sprintf("expected %d-%d questions, got %d", MinQuestions, MaxQuestions, n),
		}
	}
	return &analysis, nil
}

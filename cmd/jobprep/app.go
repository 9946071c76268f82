package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonathan/jobprep/internal/analysis"
	"github.com/jonathan/jobprep/internal/config"
	"github.com/jonathan/jobprep/internal/fetch"
	"github.com/jonathan/jobprep/internal/llm"
	"github.com/jonathan/jobprep/internal/logger"
	"github.com/jonathan/jobprep/internal/metrics"
)

// loadConfig loads the config file and environment, then lets apply
// override fields from flags before validation.
func loadConfig(apply func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if apply != nil {
		apply(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (logger.Logger, error) {
	return logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogFormat})
}

func newPipeline(cfg *config.Config, log logger.Logger, m *metrics.Metrics) *fetch.Pipeline {
	return fetch.NewPipeline(fetch.PipelineConfig{
		ProxyURL:  cfg.ProxyURL,
		Timeout:   cfg.FetchTimeout.Std(),
		UserAgent: cfg.UserAgent,
		HostRate:  cfg.HostRate,
		HostBurst: cfg.HostBurst,
	}, log, m)
}

// newAnalyzer builds the analysis service. Without an API key the service is
// still returned and reports analysis.ErrMissingAPIKey per request.
func newAnalyzer(ctx context.Context, cfg *config.Config, log logger.Logger, m *metrics.Metrics) (*analysis.Service, func(), error) {
	llmCfg := llm.DefaultConfig()
	if cfg.Model != "" {
		llmCfg = llmCfg.WithModel(llm.TierStandard, cfg.Model)
	}

	var client llm.Client
	closeFn := func() {}

	c, err := llm.NewClient(ctx, llmCfg, cfg.APIKey)
	switch {
	case errors.Is(err, llm.ErrNoAPIKey):
		log.Warn("GEMINI_API_KEY is not set; analysis requests will fail")
	case err != nil:
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	default:
		client = c
		closeFn = func() { _ = c.Close() }
	}

	svc := analysis.NewService(client, analysis.Config{Timeout: cfg.GenerateTimeout.Std()}, log, m)
	return svc, closeFn, nil
}

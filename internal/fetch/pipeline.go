package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/jobprep/internal/extraction"
	"github.com/jonathan/jobprep/internal/ingestion"
	"github.com/jonathan/jobprep/internal/logger"
	"github.com/jonathan/jobprep/internal/metrics"
	"golang.org/x/sync/singleflight"
)

// DefaultProxyURL is the text-rendering proxy prefix.
const DefaultProxyURL = "https://r.jina.ai/"

// maxAttempts is direct, proxy and double proxy.
const maxAttempts = 3

// ErrInsufficientText is returned when the last attempt succeeds but yields too little text.
var ErrInsufficientText = errors.New("insufficient text extracted from URL")

// JobText is the accepted outcome of the pipeline.
type JobText struct {
	Text   string
	Method extraction.Method
	Title  string
}

// PipelineError reports that every attempt failed. StatusCode is the status
// of the direct attempt, 0 when it got no response.
type PipelineError struct {
	URL        string
	StatusCode int
	Cause      error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("failed to fetch URL (status %d)", e.StatusCode)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// PipelineConfig configures a Pipeline.
type PipelineConfig struct {
	ProxyURL  string
	Timeout   time.Duration
	UserAgent string
	// HostRate limits requests per second to any one host. Zero disables it.
	HostRate  float64
	HostBurst int
}

// Pipeline fetches job text with a direct attempt followed by proxy fallbacks.
type Pipeline struct {
	proxyURL     string
	options      *Options
	orchestrator *extraction.Orchestrator
	log          logger.Logger
	metrics      *metrics.Metrics
	hosts        *HostLimiter
	group        singleflight.Group
}

// NewPipeline builds a Pipeline. log and m may be nil.
func NewPipeline(cfg PipelineConfig, log logger.Logger, m *metrics.Metrics) *Pipeline {
	if log == nil {
		log = logger.NewNop()
	}

	opts := DefaultOptions()
	if cfg.Timeout > 0 {
		opts.Timeout = cfg.Timeout
	}
	if cfg.UserAgent != "" {
		opts.UserAgent = cfg.UserAgent
	}

	proxyURL := cfg.ProxyURL
	if proxyURL == "" {
		proxyURL = DefaultProxyURL
	}

	return &Pipeline{
		proxyURL:     proxyURL,
		options:      opts,
		orchestrator: extraction.NewOrchestrator(log, m),
		log:          log,
		metrics:      m,
		hosts:        NewHostLimiter(cfg.HostRate, cfg.HostBurst),
	}
}

// ProxyURL returns target routed through the proxy hops times.
func (p *Pipeline) ProxyURL(target string, hops int) string {
	return strings.Repeat(p.proxyURL, hops) + target
}

// FetchJobText runs the direct, proxy and double-proxy attempts in order and
// returns the first text of at least extraction.MinTextLength characters.
// Concurrent calls for the same URL share one run. The shared run is detached
// from any single caller, so a caller that gives up only stops its own wait.
func (p *Pipeline) FetchJobText(ctx context.Context, rawURL string) (*JobText, error) {
	ch := p.group.DoChan(rawURL, func() (any, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.runTimeout())
		defer cancel()
		return p.run(runCtx, rawURL)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			p.log.Debug("Shared in-flight fetch", logger.String("url", rawURL))
		}
		if res.Err != nil {
			return nil, res.Err
		}
		jt := *res.Val.(*JobText)
		return &jt, nil
	}
}

// runTimeout bounds a whole run: one timeout per attempt plus one more for
// host limiter waits.
func (p *Pipeline) runTimeout() time.Duration {
	return time.Duration(maxAttempts+1) * p.options.Timeout
}

func (p *Pipeline) run(ctx context.Context, rawURL string) (*JobText, error) {
	directStatus := 0

	res, err := p.get(ctx, rawURL)
	if res != nil {
		directStatus = res.StatusCode
	}
	if err == nil {
		parsed := p.orchestrator.Parse(extraction.Input{
			HTML:        res.Body,
			URL:         rawURL,
			SourceLabel: extraction.MethodDirect,
		})
		if ingestion.Length(parsed.Text) >= extraction.MinTextLength {
			p.observe(extraction.MethodDirect, "accepted")
			return &JobText{Text: parsed.Text, Method: parsed.Method, Title: parsed.Title}, nil
		}
		p.observe(extraction.MethodDirect, "short")
		p.log.Info("Direct fetch yielded too little text",
			logger.String("url", rawURL),
			logger.Int("length", ingestion.Length(parsed.Text)))
	} else {
		p.observe(extraction.MethodDirect, "failed")
		p.log.Info("Direct fetch failed", logger.String("url", rawURL), logger.Error(err))
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	jt, err := p.viaProxy(ctx, rawURL, 1, extraction.MethodProxy)
	if err == nil && ingestion.Length(jt.Text) >= extraction.MinTextLength {
		p.observe(extraction.MethodProxy, "accepted")
		return jt, nil
	}
	if err != nil {
		p.observe(extraction.MethodProxy, "failed")
		p.log.Info("Proxy fetch failed", logger.String("url", rawURL), logger.Error(err))
	} else {
		p.observe(extraction.MethodProxy, "short")
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	jt, err = p.viaProxy(ctx, rawURL, 2, extraction.MethodProxyDouble)
	if err != nil {
		p.observe(extraction.MethodProxyDouble, "failed")
		p.log.Warn("All fetch attempts failed",
			logger.String("url", rawURL),
			logger.Int("direct_status", directStatus),
			logger.Error(err))
		return nil, &PipelineError{URL: rawURL, StatusCode: directStatus, Cause: err}
	}
	if ingestion.Length(jt.Text) < extraction.MinTextLength {
		p.observe(extraction.MethodProxyDouble, "short")
		return nil, ErrInsufficientText
	}

	p.observe(extraction.MethodProxyDouble, "accepted")
	return jt, nil
}

func (p *Pipeline) viaProxy(ctx context.Context, rawURL string, hops int, method extraction.Method) (*JobText, error) {
	res, err := p.get(ctx, p.ProxyURL(rawURL, hops))
	if err != nil {
		return nil, err
	}

	return &JobText{
		Text:   ingestion.Normalize(res.Body),
		Method: method,
		Title:  proxyTitle(res.Body),
	}, nil
}

func (p *Pipeline) get(ctx context.Context, target string) (*Result, error) {
	if err := p.hosts.Wait(ctx, target); err != nil {
		return nil, &Error{URL: target, Message: "rate limit wait", Cause: err}
	}
	return URL(ctx, target, p.options)
}

func (p *Pipeline) observe(method extraction.Method, outcome string) {
	p.metrics.ObserveFetch(string(method), outcome)
}

// proxyTitle reads the "Title: ..." header line the proxy puts first.
func proxyTitle(body string) string {
	firstLine, _, _ := strings.Cut(strings.TrimLeft(body, " \t\r\n"), "\n")
	title, ok := strings.CutPrefix(strings.TrimSpace(firstLine), "Title:")
	if !ok {
		return ""
	}
	return ingestion.Truncate(strings.TrimSpace(title), 200)
}

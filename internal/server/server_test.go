package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonathan/jobprep/internal/analysis"
	"github.com/jonathan/jobprep/internal/extraction"
	"github.com/jonathan/jobprep/internal/fetch"
	"github.com/jonathan/jobprep/internal/ingestion"
	"github.com/jonathan/jobprep/internal/llm"
	"github.com/jonathan/jobprep/internal/logger"
	"github.com/jonathan/jobprep/internal/metrics"
	"github.com/jonathan/jobprep/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const designerPosting = "We are hiring a Senior Product Designer to shape how small businesses get paid. " +
	"You will run user research with customers, prototype new flows in Figma, and grow our design systems " +
	"with a team of designers. You care about accessibility, visual design and clear interaction design."

const validAnalysis = `{
  "role_level": "Unknown",
  "role_type": "individual_contributor",
  "domain": "unknown",
  "focus": "",
  "signals": ["Figma", "payments"],
  "themes": [
    {"theme": "Craft", "questions": ["Walk me through a redesign.", "How do you prototype?", "Describe a design system you grew."]},
    {"theme": "Collaboration", "questions": ["Tell me about a disagreement.", "How do you run research?", "How do you give feedback?"]}
  ]
}`

// fakeLLM returns a canned response, or blocks until ctx is done when block is set.
type fakeLLM struct {
	response string
	block    bool
}

func (f *fakeLLM) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return f.GenerateJSON(ctx, prompt, tier)
}

func (f *fakeLLM) GenerateJSON(ctx context.Context, _ string, _ llm.ModelTier) (string, error) {
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.response, nil
}

func (f *fakeLLM) GetModel(llm.ModelTier) string { return "fake" }
func (f *fakeLLM) Close() error                  { return nil }

type fakeFetcher struct {
	result *fetch.JobText
	err    error
	calls  atomic.Int32
}

func (f *fakeFetcher) FetchJobText(_ context.Context, _ string) (*fetch.JobText, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	jt := *f.result
	return &jt, nil
}

type testEnv struct {
	server    *Server
	store     store.Store
	fetcher   *fakeFetcher
	publicDir string
	registry  *prometheus.Registry
}

type envOption func(*testEnv, *analysisSetup)

type analysisSetup struct {
	client  llm.Client
	timeout time.Duration
}

func withLLM(c llm.Client) envOption {
	return func(_ *testEnv, a *analysisSetup) { a.client = c }
}

func withTimeout(d time.Duration) envOption {
	return func(_ *testEnv, a *analysisSetup) { a.timeout = d }
}

func withFetchResult(jt *fetch.JobText, err error) envOption {
	return func(e *testEnv, _ *analysisSetup) {
		e.fetcher.result = jt
		e.fetcher.err = err
	}
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	env := &testEnv{
		fetcher:   &fakeFetcher{},
		publicDir: t.TempDir(),
		registry:  prometheus.NewRegistry(),
	}
	setup := &analysisSetup{client: &fakeLLM{response: validAnalysis}}
	for _, opt := range opts {
		opt(env, setup)
	}

	writePublic(t, env.publicDir, "index.html", "<!DOCTYPE html><title>jobprep</title>")

	st, err := store.Open(context.Background(), store.BackendJSON, t.TempDir(), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	env.store = st

	m := metrics.New(env.registry)
	svc := analysis.NewService(setup.client, analysis.Config{Timeout: setup.timeout}, logger.NewNop(), m)

	srv, err := New(Config{Port: 0, PublicDir: env.publicDir}, Deps{
		Fetcher:  env.fetcher,
		Analyzer: svc,
		Store:    st,
		Logger:   logger.NewNop(),
		Metrics:  m,
		Gatherer: env.registry,
	})
	require.NoError(t, err)
	env.server = srv
	return env
}

func writePublic(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func (e *testEnv) do(method, target string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) analyze(t *testing.T, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return e.do(http.MethodPost, "/api/analyze", body)
}

type analyzeBody struct {
	Analysis struct {
		RoleLevel string   `json:"role_level"`
		RoleType  string   `json:"role_type"`
		Domain    string   `json:"domain"`
		Focus     string   `json:"focus"`
		Signals   []string `json:"signals"`
		Themes    []struct {
			Theme     string   `json:"theme"`
			Questions []string `json:"questions"`
		} `json:"themes"`
	} `json:"analysis"`
	Parse struct {
		Method string `json:"method"`
		Length int    `json:"length"`
	} `json:"parse"`
	Error string `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) analyzeBody {
	t.Helper()
	var out analyzeBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestAnalyze_PastedText(t *testing.T) {
	env := newTestEnv(t)

	rec := env.analyze(t, map[string]string{"text": "  " + designerPosting + "  "})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	out := decode(t, rec)
	assert.Equal(t, "pasted", out.Parse.Method)
	assert.Equal(t, ingestion.Length(ingestion.Normalize(designerPosting)), out.Parse.Length)

	// The model left these undecided; the heuristics fill them in.
	assert.Equal(t, "senior", out.Analysis.RoleLevel)
	assert.Equal(t, "design", out.Analysis.Domain)
	assert.NotEmpty(t, out.Analysis.Focus)
	assert.Equal(t, []string{"Figma", "payments"}, out.Analysis.Signals[:2])
	assert.Len(t, out.Analysis.Themes, 2)

	assert.Zero(t, env.fetcher.calls.Load())
	links, err := env.store.Links(context.Background())
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestAnalyze_PastedTextWinsOverURL(t *testing.T) {
	env := newTestEnv(t)

	rec := env.analyze(t, map[string]string{"text": designerPosting, "url": "https://example.com/job"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pasted", decode(t, rec).Parse.Method)
	assert.Zero(t, env.fetcher.calls.Load())
}

func TestAnalyze_URL(t *testing.T) {
	env := newTestEnv(t, withFetchResult(&fetch.JobText{
		Text:   designerPosting,
		Method: extraction.MethodJSONLD,
		Title:  "Senior Product Designer",
	}, nil))

	rec := env.analyze(t, map[string]string{"url": "https://jobs.example.com/123", "text": "too short"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decode(t, rec)
	assert.Equal(t, "jsonld", out.Parse.Method)
	assert.Equal(t, ingestion.Length(designerPosting), out.Parse.Length)
	assert.Equal(t, int32(1), env.fetcher.calls.Load())

	links, err := env.store.Links(context.Background())
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "Senior Product Designer", links[0].Title)
	assert.Equal(t, "https://jobs.example.com/123", links[0].URL)
}

func TestAnalyze_URLWithoutTitleUsesHost(t *testing.T) {
	env := newTestEnv(t, withFetchResult(&fetch.JobText{Text: designerPosting, Method: extraction.MethodProxy}, nil))

	rec := env.analyze(t, map[string]string{"url": "https://careers.example.org/roles/42"})
	require.Equal(t, http.StatusOK, rec.Code)

	links, err := env.store.Links(context.Background())
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "careers.example.org", links[0].Title)
}

func TestAnalyze_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"url":`},
		{"empty object", `{}`},
		{"short text only", `{"text":"Senior designer wanted."}`},
		{"whitespace padded short text", `{"text":"` + strings.Repeat(" ", 300) + `short"}`},
		{"ftp url", `{"url":"ftp://example.com/job"}`},
		{"relative url", `{"url":"/jobs/123"}`},
		{"not a url", `{"url":"senior designer"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec := env.do(http.MethodPost, "/api/analyze", []byte(tt.body))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decode(t, rec).Error)
			assert.Zero(t, env.fetcher.calls.Load())
		})
	}
}

func TestAnalyze_FetchFailure(t *testing.T) {
	env := newTestEnv(t, withFetchResult(nil, &fetch.PipelineError{
		URL:        "https://example.com/job",
		StatusCode: 403,
		Cause:      context.DeadlineExceeded,
	}))

	rec := env.analyze(t, map[string]string{"url": "https://example.com/job"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "failed to fetch URL (status 403)", decode(t, rec).Error)

	links, err := env.store.Links(context.Background())
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestAnalyze_InsufficientText(t *testing.T) {
	env := newTestEnv(t, withFetchResult(nil, fetch.ErrInsufficientText))

	rec := env.analyze(t, map[string]string{"url": "https://example.com/job"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decode(t, rec).Error, "insufficient text")
}

func TestAnalyze_MissingAPIKey(t *testing.T) {
	env := newTestEnv(t, withLLM(nil))

	rec := env.analyze(t, map[string]string{"text": designerPosting})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, analysis.ErrMissingAPIKey.Error(), decode(t, rec).Error)
}

func TestAnalyze_InvalidModelOutput(t *testing.T) {
	env := newTestEnv(t, withLLM(&fakeLLM{response: `{"role_level": "senior"}`}))

	rec := env.analyze(t, map[string]string{"text": designerPosting})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, decode(t, rec).Error)
}

func TestAnalyze_GenerationTimeout(t *testing.T) {
	env := newTestEnv(t, withLLM(&fakeLLM{block: true}), withTimeout(20*time.Millisecond))

	rec := env.analyze(t, map[string]string{"text": designerPosting})
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Contains(t, decode(t, rec).Error, "timed out")
}

func TestIndex_CountsVisits(t *testing.T) {
	env := newTestEnv(t)
	writePublic(t, env.publicDir, "app.js", "console.log('hi')")

	for _, path := range []string{"/", "/", "/app.js"} {
		rec := env.do(http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
	}

	a, err := env.store.Analytics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), a.TotalVisits)
	assert.NotNil(t, a.LastUpdated)

	rec := env.do(http.MethodGet, "/index.html", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<title>jobprep</title>")

	a, err = env.store.Analytics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), a.TotalVisits)
}

func TestIndex_MissingFile(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.Remove(filepath.Join(env.publicDir, "index.html")))

	rec := env.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	a, err := env.store.Analytics(context.Background())
	require.NoError(t, err)
	assert.Zero(t, a.TotalVisits)
}

func TestStatic(t *testing.T) {
	env := newTestEnv(t)
	writePublic(t, env.publicDir, "css/site.css", "body{}")
	writePublic(t, env.publicDir, "js/quiz.mjs", "export {}")
	writePublic(t, env.publicDir, "img/logo.PNG", "png")
	writePublic(t, env.publicDir, "fonts/inter.woff2", "font")
	writePublic(t, env.publicDir, "archive.tar", "tar")

	tests := []struct {
		path       string
		wantStatus int
		wantType   string
	}{
		{"/css/site.css", http.StatusOK, "text/css; charset=utf-8"},
		{"/js/quiz.mjs", http.StatusOK, "application/javascript; charset=utf-8"},
		{"/img/logo.PNG", http.StatusOK, "image/png"},
		{"/fonts/inter.woff2", http.StatusOK, "font/woff2"},
		{"/archive.tar", http.StatusOK, "application/octet-stream"},
		{"/missing.css", http.StatusNotFound, ""},
		{"/css/", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := env.do(http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestOpenPublic_RejectsEscapes(t *testing.T) {
	parent := t.TempDir()
	public := filepath.Join(parent, "public")
	writePublic(t, public, "ok.txt", "ok")
	writePublic(t, parent, "secret.txt", "secret")

	s := &Server{cfg: Config{PublicDir: public}}

	f, _, ok := s.openPublic("/ok.txt")
	require.True(t, ok)
	_ = f.Close()

	for _, p := range []string{"../secret.txt", "/../secret.txt", "/a/../../secret.txt", "/ok.txt\x00"} {
		_, _, ok := s.openPublic(p)
		assert.False(t, ok, p)
	}
}

func TestAdminPages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, env.store.AppendLink(ctx, store.NewSavedLink("Older role", "https://example.com/1", now.Add(-time.Hour))))
	require.NoError(t, env.store.AppendLink(ctx, store.NewSavedLink("Newer <role>", "https://example.com/2", now)))
	_, err := env.store.RecordVisit(ctx)
	require.NoError(t, err)

	rec := env.do(http.MethodGet, "/admin/links", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	page := rec.Body.String()
	assert.Contains(t, page, "Newer &lt;role&gt;")
	assert.Less(t, strings.Index(page, "Newer"), strings.Index(page, "Older role"))

	rec = env.do(http.MethodGet, "/admin/analytics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="total-visits">1<`)

	rec = env.do(http.MethodGet, "/admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Recent links (2 total)")
}

func TestAdminPages_Empty(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/admin/links", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No saved links yet.")

	rec = env.do(http.MethodGet, "/admin/analytics", nil)
	assert.Contains(t, rec.Body.String(), "never")
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(http.MethodGet, "/health", nil)
	env.analyze(t, map[string]string{"text": designerPosting})

	rec := env.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `jobprep_http_requests_total{code="200",route="GET /health"} 1`)
	assert.Contains(t, body, `jobprep_analyze_requests_total{source="pasted",status="ok"} 1`)
}

func TestRequestID(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/health", nil)
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodOptions, "/api/analyze", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNew_RequiresDeps(t *testing.T) {
	_, err := New(Config{}, Deps{})
	assert.Error(t, err)
}

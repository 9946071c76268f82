package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonathan/jobprep/internal/extraction"
	"github.com/jonathan/jobprep/internal/ingestion"
	"github.com/jonathan/jobprep/internal/logger"
	"github.com/jonathan/jobprep/internal/store"
	"github.com/jonathan/jobprep/internal/types"
)

// maxRequestBytes bounds the analyze body; pasted postings are far smaller.
const maxRequestBytes = 1 << 20

const missingInputMessage = "Provide a valid http(s) job URL or paste at least 200 characters of the job description"

// jobSource is the job text chosen for a request.
type jobSource struct {
	text   string
	method extraction.Method
	title  string
	url    string
}

func (js jobSource) kind() string {
	if js.method == extraction.MethodPasted {
		return "pasted"
	}
	return "url"
}

// handleAnalyze extracts job text from pasted content or a URL and returns
// the generated analysis.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req types.AnalyzeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes)).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ctx := r.Context()
	log := s.log.With(logger.String("request_id", RequestID(ctx)))

	src, err := s.resolveSource(ctx, &req)
	if err != nil {
		status := HTTPStatus(err)
		if status != http.StatusBadRequest {
			s.metrics.ObserveAnalyze("url", "fetch_error")
			log.Warn("Job text extraction failed", logger.String("url", req.URL), logger.Error(err))
		}
		s.errorResponse(w, status, errorMessage(err))
		return
	}

	if src.kind() == "url" {
		s.saveLink(ctx, log, src)
	}

	analysis, err := s.analyzer.Analyze(ctx, src.text)
	if err != nil {
		status := HTTPStatus(err)
		s.metrics.ObserveAnalyze(src.kind(), "generate_error")
		log.Error("Analysis failed",
			logger.String("method", string(src.method)),
			logger.Int("status", status),
			logger.Error(err))
		s.errorResponse(w, status, err.Error())
		return
	}

	s.metrics.ObserveAnalyze(src.kind(), "ok")
	log.Info("Analysis complete",
		logger.String("method", string(src.method)),
		logger.Int("length", ingestion.Length(src.text)),
		logger.Int("questions", analysis.QuestionCount()))

	s.jsonResponse(w, http.StatusOK, types.AnalyzeResponse{
		Analysis: analysis,
		Parse: types.ParseInfo{
			Method: string(src.method),
			Length: ingestion.Length(src.text),
		},
	})
}

// resolveSource prefers pasted text that clears the length bar, then the URL.
func (s *Server) resolveSource(ctx context.Context, req *types.AnalyzeRequest) (jobSource, error) {
	if req.HasPastedText() {
		return jobSource{
			text:   ingestion.Normalize(req.Text),
			method: extraction.MethodPasted,
		}, nil
	}

	if err := req.ValidateURL(); err != nil {
		return jobSource{}, &ErrValidation{Field: "url", Message: missingInputMessage}
	}

	rawURL := strings.TrimSpace(req.URL)
	jt, err := s.fetcher.FetchJobText(ctx, rawURL)
	if err != nil {
		return jobSource{}, err
	}
	return jobSource{text: jt.Text, method: jt.Method, title: jt.Title, url: rawURL}, nil
}

// saveLink records an analyzed URL. Persistence failures are logged only.
func (s *Server) saveLink(ctx context.Context, log logger.Logger, src jobSource) {
	title := src.title
	if title == "" {
		title = hostOf(src.url)
	}

	if err := s.store.AppendLink(ctx, store.NewSavedLink(title, src.url, time.Now())); err != nil {
		log.Warn("Failed to save job link", logger.String("url", src.url), logger.Error(err))
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return rawURL
	}
	return u.Hostname()
}

// errorMessage returns the human-readable message for err.
func errorMessage(err error) string {
	if v, ok := err.(*ErrValidation); ok {
		return v.Message
	}
	return err.Error()
}

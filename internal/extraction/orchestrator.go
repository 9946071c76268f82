package extraction

import (
	"github.com/jonathan/jobprep/internal/ingestion"
	"github.com/jonathan/jobprep/internal/logger"
	"github.com/jonathan/jobprep/internal/metrics"
)

// Step is one extractor in the cascade.
type Step struct {
	Name    string
	Extract func(doc *Document) (string, Method, bool)
}

// DefaultSteps returns the cascade in confidence order. The unconditional
// tag-stripped fallback is not a step; Parse applies it after every step fails.
func DefaultSteps() []Step {
	return []Step{
		{Name: "jsonld", Extract: func(doc *Document) (string, Method, bool) {
			text, ok := ExtractJSONLD(doc)
			return text, MethodJSONLD, ok
		}},
		{Name: "provider", Extract: ExtractProvider},
		{Name: "readability", Extract: func(doc *Document) (string, Method, bool) {
			text, ok := ExtractReadable(doc.HTML, doc.RawURL)
			return text, MethodReadability, ok
		}},
		{Name: "meta", Extract: func(doc *Document) (string, Method, bool) {
			text, ok := ExtractMeta(doc)
			return text, MethodMeta, ok
		}},
	}
}

// Orchestrator runs the extraction cascade.
type Orchestrator struct {
	steps   []Step
	log     logger.Logger
	metrics *metrics.Metrics
}

// NewOrchestrator builds an orchestrator with the default steps. m may be nil.
func NewOrchestrator(log logger.Logger, m *metrics.Metrics) *Orchestrator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Orchestrator{
		steps:   DefaultSteps(),
		log:     log,
		metrics: m,
	}
}

// Parse returns the first step result of at least MinTextLength characters.
// When every step falls short it returns the whole page stripped to text,
// tagged with in.SourceLabel, whatever its length.
func (o *Orchestrator) Parse(in Input) Result {
	label := in.SourceLabel
	if label == "" {
		label = MethodDirect
	}

	doc, err := NewDocument(in.HTML, in.URL)
	if err != nil {
		o.log.Warn("Document parse failed, using plain text",
			logger.String("url", in.URL),
			logger.Error(err))
		return o.accept(Result{Text: ingestion.StripHTML(in.HTML), Method: label})
	}

	title := doc.Title()
	for _, step := range o.steps {
		text, method, ok := step.Extract(doc)
		length := ingestion.Length(text)
		if !ok || length < MinTextLength {
			o.log.Debug("Extraction step rejected",
				logger.String("step", step.Name),
				logger.String("url", in.URL),
				logger.Int("length", length))
			continue
		}

		o.log.Debug("Extraction step accepted",
			logger.String("step", step.Name),
			logger.String("method", string(method)),
			logger.Int("length", length))
		return o.accept(Result{Text: text, Method: method, Title: title})
	}

	return o.accept(Result{Text: ingestion.StripHTML(in.HTML), Method: label, Title: title})
}

func (o *Orchestrator) accept(r Result) Result {
	o.metrics.ObserveExtraction(string(r.Method))
	return r
}

// ParseJobText runs the default cascade without logging or metrics.
func ParseJobText(in Input) Result {
	return NewOrchestrator(logger.NewNop(), nil).Parse(in)
}

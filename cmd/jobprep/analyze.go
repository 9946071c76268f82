package main

import (
	"encoding/json"
	"fmt"

	"github.com/jonathan/jobprep/internal/analysis"
	"github.com/jonathan/jobprep/internal/extraction"
	"github.com/jonathan/jobprep/internal/ingestion"
	"github.com/jonathan/jobprep/internal/observability"
	"github.com/jonathan/jobprep/internal/types"
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Generate interview questions for a job posting",
	Long:  "Extract the job text from --url or --text-file and generate a role classification with themed interview questions.",
	RunE:  runAnalyze,
}

var (
	analyzeURL       string
	analyzeTextFile  string
	analyzeJSON      bool
	analyzeHintsOnly bool
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeURL, "url", "u", "", "URL of the job posting")
	analyzeCmd.Flags().StringVarP(&analyzeTextFile, "text-file", "t", "", "Plain-text job posting")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the API response body as JSON")
	analyzeCmd.Flags().BoolVar(&analyzeHintsOnly, "hints-only", false, "Print the keyword heuristics without calling the model")

	analyzeCmd.MarkFlagsMutuallyExclusive("url", "text-file")
	analyzeCmd.MarkFlagsOneRequired("url", "text-file")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()

	var text string
	var method extraction.Method
	if analyzeTextFile != "" {
		text, _, err = ingestion.IngestFromFile(analyzeTextFile)
		if err != nil {
			return fmt.Errorf("failed to ingest from file: %w", err)
		}
		if ingestion.Length(text) < types.MinPastedLength {
			return fmt.Errorf("job text must be at least %d characters, got %d", types.MinPastedLength, ingestion.Length(text))
		}
		method = extraction.MethodPasted
	} else {
		req := types.AnalyzeRequest{URL: analyzeURL}
		if err := req.ValidateURL(); err != nil {
			return fmt.Errorf("invalid --url %q: must be an http(s) URL", analyzeURL)
		}
		jt, err := newPipeline(cfg, log, nil).FetchJobText(ctx, analyzeURL)
		if err != nil {
			return err
		}
		text, method = jt.Text, jt.Method
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	if analyzeHintsOnly {
		printer.PrintHints(analysis.DetectHints(text))
		return nil
	}

	svc, closeLLM, err := newAnalyzer(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer closeLLM()

	result, err := svc.Analyze(ctx, text)
	if err != nil {
		return err
	}

	if analyzeJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(types.AnalyzeResponse{
			Analysis: result,
			Parse:    types.ParseInfo{Method: string(method), Length: ingestion.Length(text)},
		})
	}

	printer.PrintAnalysis(result)
	return nil
}

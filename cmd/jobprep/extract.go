package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jonathan/jobprep/internal/extraction"
	"github.com/jonathan/jobprep/internal/ingestion"
	"github.com/jonathan/jobprep/internal/observability"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract job description text from a URL, an HTML file or a text file",
	Long: `Run the fetch pipeline on --url, the extraction cascade on --html-file, or
normalize pasted text from --text-file, and print the method, length and text.`,
	RunE: runExtract,
}

var (
	extractURL       string
	extractHTMLFile  string
	extractTextFile  string
	extractSourceURL string
	extractOutDir    string
	extractJSON      bool
)

func init() {
	extractCmd.Flags().StringVarP(&extractURL, "url", "u", "", "URL of the job posting")
	extractCmd.Flags().StringVar(&extractHTMLFile, "html-file", "", "Saved HTML page to extract from")
	extractCmd.Flags().StringVarP(&extractTextFile, "text-file", "t", "", "Plain-text job posting")
	extractCmd.Flags().StringVar(&extractSourceURL, "source-url", "", "Original URL of --html-file, used for provider detection")
	extractCmd.Flags().StringVarP(&extractOutDir, "out", "o", "", "Write job_posting.txt and job_posting.meta.json here")
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "Print the result as JSON")

	extractCmd.MarkFlagsMutuallyExclusive("url", "html-file", "text-file")
	extractCmd.MarkFlagsOneRequired("url", "html-file", "text-file")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	var (
		text   string
		method extraction.Method
		title  string
		source string
	)

	switch {
	case extractTextFile != "":
		cleaned, _, err := ingestion.IngestFromFile(extractTextFile)
		if err != nil {
			return fmt.Errorf("failed to ingest from file: %w", err)
		}
		text, method = cleaned, extraction.MethodPasted

	case extractHTMLFile != "":
		html, err := os.ReadFile(extractHTMLFile)
		if err != nil {
			return fmt.Errorf("failed to read HTML file: %w", err)
		}
		res := extraction.ParseJobText(extraction.Input{HTML: string(html), URL: extractSourceURL})
		text, method, title, source = res.Text, res.Method, res.Title, extractSourceURL

	default:
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
		jt, err := newPipeline(cfg, log, nil).FetchJobText(ctx, extractURL)
		if err != nil {
			return err
		}
		text, method, title, source = jt.Text, jt.Method, jt.Title, extractURL
	}

	if extractOutDir != "" {
		meta := ingestion.NewMetadata(text, source)
		meta.Method = string(method)
		meta.Title = title
		if err := ingestion.WriteOutput(extractOutDir, text, meta); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if extractJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"method":       method,
			"length":       ingestion.Length(text),
			"title":        title,
			"text":         text,
			"extracted_at": time.Now().UTC().Format(time.RFC3339),
		})
	}

	observability.NewPrinter(out).PrintExtraction(text, method, title)
	return nil
}

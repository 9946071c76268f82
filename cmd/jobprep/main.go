// Package main provides the jobprep command: an HTTP service and CLI that turn
// a job posting into interview-preparation questions.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "jobprep",
	Short: "Job posting extraction and interview preparation",
	Long: "jobprep recovers the description text of a job posting from its URL or pasted text " +
		"and generates themed behavioral interview questions for it.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a JSON or YAML config file")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

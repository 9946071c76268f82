package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonathan/jobprep/internal/config"
	"github.com/jonathan/jobprep/internal/logger"
	"github.com/jonathan/jobprep/internal/metrics"
	"github.com/jonathan/jobprep/internal/server"
	"github.com/jonathan/jobprep/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var (
	servePort      int
	servePublicDir string
	serveDataDir   string
	serveStore     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start an HTTP server that serves the site, the analyze API, admin pages and metrics.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default 8080)")
	serveCmd.Flags().StringVar(&servePublicDir, "public-dir", "", "Directory of static files")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", "", "Directory for the visit counter and saved links")
	serveCmd.Flags().StringVar(&serveStore, "store", "", "Store backend: json or sqlite")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(func(c *config.Config) {
		if servePort != 0 {
			c.Port = servePort
		}
		if servePublicDir != "" {
			c.PublicDir = servePublicDir
		}
		if serveDataDir != "" {
			c.DataDir = serveDataDir
		}
		if serveStore != "" {
			c.StoreBackend = serveStore
		}
	})
	if err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	st, err := store.Open(ctx, cfg.StoreBackend, cfg.DataDir, log)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Warn("Failed to close store", logger.Error(err))
		}
	}()

	analyzer, closeLLM, err := newAnalyzer(context.Background(), cfg, log, m)
	if err != nil {
		return err
	}
	defer closeLLM()

	srv, err := server.New(server.Config{
		Port:      cfg.Port,
		PublicDir: cfg.PublicDir,
	}, server.Deps{
		Fetcher:  newPipeline(cfg, log, m),
		Analyzer: analyzer,
		Store:    st,
		Logger:   log,
		Metrics:  m,
		Gatherer: reg,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	log.Info("Configuration loaded",
		logger.Int("port", cfg.Port),
		logger.String("public_dir", cfg.PublicDir),
		logger.String("data_dir", cfg.DataDir),
		logger.String("store", cfg.StoreBackend),
		logger.String("proxy_url", cfg.ProxyURL))

	return srv.Start(ctx)
}

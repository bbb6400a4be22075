package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Boliti/Website/internal/config"
	"github.com/Boliti/Website/pkg/logger"
	"github.com/Boliti/Website/pkg/metrics"
	"github.com/Boliti/Website/pkg/spectra"
	"github.com/Boliti/Website/pkg/spectra/analysis"
)

var (
	configPath     string
	port           int
	dbPath         string
	allowedOrigins string
)

func init() {
	flag.StringVar(&configPath, "config", "", "Path to YAML config file (default $SPECTRA_CONFIG)")
	flag.IntVar(&port, "port", 0, "HTTP server port (overrides config)")
	flag.StringVar(&dbPath, "db", "", "Path to SQLite database (overrides config)")
	flag.StringVar(&allowedOrigins, "origins", "", "Comma-separated list of allowed CORS origins (use * for all)")
}

func main() {
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if port > 0 {
		cfg.Server.Port = port
	}
	if dbPath != "" {
		cfg.Storage.DBPath = dbPath
	}
	if allowedOrigins != "" {
		cfg.Server.AllowedOrigins = config.ParseOrigins(allowedOrigins)
	}

	lg := logger.GetLogger()
	if level, ok := logger.ParseLevel(cfg.Logging.Level); ok {
		lg.SetLevel(level)
	}
	if cfg.Logging.JSON {
		lg.SetJSON(true)
	}
	defer lg.Sync()

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		lg.Fatalf("Failed to register metrics: %v", err)
	}

	opts := []spectra.Option{
		spectra.WithDBPath(cfg.Storage.DBPath),
		spectra.WithLogger(lg),
		spectra.WithRunHistory(cfg.Storage.RecordRuns),
	}
	if cfg.Analysis.Enabled() {
		client, err := analysis.NewOpenRouterClient(cfg.Analysis.APIKey,
			analysis.WithBaseURL(cfg.Analysis.BaseURL),
			analysis.WithModel(cfg.Analysis.Model),
			analysis.WithHTTPClient(&http.Client{Timeout: cfg.Analysis.Timeout}),
		)
		if err != nil {
			lg.Fatalf("Failed to create analysis client: %v", err)
		}
		opts = append(opts, spectra.WithAnalyzer(client))
		lg.Infof("Analysis enabled (model %s)", cfg.Analysis.Model)
	}

	service, err := spectra.NewService(opts...)
	if err != nil {
		lg.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	server := NewServer(service, &ServerConfig{
		Port:            cfg.Server.Port,
		DBPath:          cfg.Storage.DBPath,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		MaxUploadBytes:  cfg.Server.MaxUploadBytes,
		RequestTimeout:  cfg.Server.RequestTimeout,
		GracefulTimeout: cfg.Server.GracefulTimeout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		lg.Errorf("Server failed: %v", err)
		os.Exit(1)
	}
}

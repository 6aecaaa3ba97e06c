package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aluiziolira/go-scrape-opinions/browser"
	"github.com/aluiziolira/go-scrape-opinions/config"
	"github.com/aluiziolira/go-scrape-opinions/models"
	"github.com/aluiziolira/go-scrape-opinions/pipeline"
	"github.com/aluiziolira/go-scrape-opinions/scraper"
	"github.com/aluiziolira/go-scrape-opinions/translate"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// runGroup is a set of sessions run in parallel, one group after another.
type runGroup struct {
	title    string
	sessions []models.SessionConfig
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	defaultCfg := config.DefaultConfig()
	urlDefault := defaultCfg.TargetURL
	if value, ok := config.EnvString("SCRAPER_URL"); ok {
		urlDefault = value
	}
	sessionsDefault := defaultCfg.SessionsFile
	if value, ok := config.EnvString("SCRAPER_SESSIONS"); ok {
		sessionsDefault = value
	}
	outputDefault := defaultCfg.OutputFile
	if value, ok := config.EnvString("SCRAPER_OUTPUT"); ok {
		outputDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("SCRAPER_METRICS_ADDR"); ok {
		metricsDefault = value
	}
	articlesDefault := defaultCfg.MaxArticles
	if value, ok, err := config.EnvInt("SCRAPER_MAX_ARTICLES"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid SCRAPER_MAX_ARTICLES: %v\n", err)
		os.Exit(1)
	} else if ok {
		articlesDefault = value
	}
	timeoutDefault := defaultCfg.Timeout
	if value, ok, err := config.EnvDuration("SCRAPER_TIMEOUT"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid SCRAPER_TIMEOUT: %v\n", err)
		os.Exit(1)
	} else if ok {
		timeoutDefault = value
	}

	targetURL := flag.String("url", urlDefault, "Listing page to scrape")
	sessionsFile := flag.String("sessions", sessionsDefault, "YAML sessions file (built-in sessions when empty)")
	group := flag.String("group", defaultCfg.Group, "Session group to run: local, remote, or all")
	maxArticles := flag.Int("articles", articlesDefault, "Maximum articles per session")
	timeout := flag.Duration("timeout", timeoutDefault, "Page load and HTTP timeout")
	stagger := flag.Duration("stagger", defaultCfg.StartStagger, "Delay between session starts")
	imageRoot := flag.String("images", defaultCfg.ImageRoot, "Directory holding per-session image folders")
	logFile := flag.String("log-file", defaultCfg.LogFile, "Log file path (empty disables file logging)")
	outputFile := flag.String("output", outputDefault, "Export file path (empty disables export)")
	outputFormat := flag.String("format", defaultCfg.OutputFormat, "Export format: csv, json, or dual")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	cfg := config.DefaultConfig()
	cfg.TargetURL = *targetURL
	cfg.SessionsFile = *sessionsFile
	cfg.Group = strings.ToLower(*group)
	cfg.MaxArticles = *maxArticles
	cfg.Timeout = *timeout
	cfg.StartStagger = *stagger
	cfg.ImageRoot = *imageRoot
	cfg.LogFile = *logFile
	cfg.OutputFile = *outputFile
	cfg.OutputFormat = strings.ToLower(*outputFormat)
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose
	cfg.Credentials = config.CredentialsFromEnv()

	runID := uuid.NewString()
	logger, closeLog, err := newLogger(cfg.Verbose, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	logger = logger.With(slog.String("run_id", runID))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	entries, err := config.LoadSessions(cfg.SessionsFile)
	if err != nil {
		slog.Error("loading sessions", slog.Any("error", err))
		os.Exit(1)
	}
	groups, err := planGroups(entries, cfg.Group, cfg.Credentials, logger)
	if err != nil {
		slog.Error("building sessions", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := scraper.NewMetrics()
	translator, err := translate.FromConfig(cfg, metrics, nil)
	if err != nil {
		slog.Error("initialising translator", slog.Any("error", err))
		os.Exit(1)
	}
	extractor := scraper.NewExtractor(cfg, scraper.NewImageFetcher(cfg), metrics)
	worker := scraper.NewWorker(cfg, browser.NewOpener(cfg), extractor, translator, metrics, logger)
	coordinator := scraper.NewCoordinator(worker, cfg.StartStagger, logger)

	var (
		writer      pipeline.OutputWriter
		outputFiles []string
	)
	if cfg.OutputFile != "" {
		writer, err = pipeline.NewWriter(cfg.OutputFormat, cfg.OutputFile)
		if err != nil {
			slog.Error("creating writer", slog.Any("error", err))
			os.Exit(1)
		}
		outputFiles = []string{cfg.OutputFile}
		if mw, ok := writer.(*pipeline.MultiWriter); ok {
			outputFiles = mw.Paths()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, waiting for running sessions to release their drivers")
	}()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	slog.Info("starting run",
		slog.String("url", cfg.TargetURL),
		slog.String("group", cfg.Group),
		slog.Int("groups", len(groups)),
	)

	startTime := time.Now()
	var results []models.SessionResult
	for _, g := range groups {
		fmt.Printf("\n=== Running %s ===\n", g.title)
		store, err := coordinator.RunAll(ctx, g.sessions)
		if err != nil {
			slog.Error("running sessions", slog.String("group", g.title), slog.Any("error", err))
			continue
		}
		printResults(os.Stdout, g.sessions, store)

		if writer != nil {
			n, err := pipeline.Export(writer, runID, store)
			if err != nil {
				slog.Error("export failed", slog.String("group", g.title), slog.Any("error", err))
			} else {
				slog.Info("exported records", slog.String("group", g.title), slog.Int("records", n))
			}
		}
		results = append(results, store.Snapshot()...)
	}

	if writer != nil {
		if err := writer.Validate(); err != nil {
			slog.Warn("output validation failed", slog.Any("error", err))
		}
		if err := writer.Close(); err != nil {
			slog.Error("close writer", slog.Any("error", err))
		}
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(os.Stdout, models.Summarize(runID, startTime, time.Now(), results), outputFiles)
}

// planGroups splits the configured sessions into the local group and the
// remote group, in that order.
func planGroups(entries []config.SessionEntry, group string, creds config.Credentials, logger *slog.Logger) ([]runGroup, error) {
	var groups []runGroup

	if group == "local" || group == "all" {
		local, err := config.BuildSessions(entries, "local")
		if err != nil {
			return nil, err
		}
		if len(local) > 0 {
			groups = append(groups, runGroup{title: "Local Test", sessions: local})
		}
	}

	if group == "remote" || group == "all" {
		remote, err := config.BuildSessions(entries, "remote")
		if err != nil {
			return nil, err
		}
		if len(remote) > 0 {
			if !creds.Complete() {
				logger.Warn("BROWSERSTACK_USERNAME or BROWSERSTACK_ACCESS_KEY not set, remote sessions will fail",
					slog.Int("sessions", len(remote)),
				)
			}
			groups = append(groups, runGroup{title: "BrowserStack Parallel Test", sessions: remote})
		}
	}

	return groups, nil
}

// newLogger logs to stderr and, when logFile is set, appends to that file.
func newLogger(verbose bool, logFile string) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	out := io.Writer(os.Stderr)
	closeFn := func() {}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		out = io.MultiWriter(os.Stderr, f)
		closeFn = func() { f.Close() }
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stderr) {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	return slog.New(handler), closeFn, nil
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kalinav4l/site-scraper/config"
	"github.com/kalinav4l/site-scraper/export"
	"github.com/kalinav4l/site-scraper/fetch"
	"github.com/kalinav4l/site-scraper/models"
	"github.com/kalinav4l/site-scraper/session"
)

func main() {
	defaults := config.DefaultSettings()

	pagesDefault := defaults.MaxPages
	if value, ok, err := config.EnvInt("SCRAPER_PAGES"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid SCRAPER_PAGES: %v\n", err)
		os.Exit(1)
	} else if ok {
		pagesDefault = value
	}
	depthDefault := defaults.MaxDepth
	if value, ok, err := config.EnvInt("SCRAPER_DEPTH"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid SCRAPER_DEPTH: %v\n", err)
		os.Exit(1)
	} else if ok {
		depthDefault = value
	}
	agentDefault := defaults.UserAgent
	if value, ok := config.EnvString("SCRAPER_USER_AGENT"); ok {
		agentDefault = value
	}
	robotsDefault := defaults.RespectRobots
	if value, ok, err := config.EnvBool("SCRAPER_RESPECT_ROBOTS"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid SCRAPER_RESPECT_ROBOTS: %v\n", err)
		os.Exit(1)
	} else if ok {
		robotsDefault = value
	}
	outputDefault := "output"
	if value, ok := config.EnvString("SCRAPER_OUTPUT_DIR"); ok {
		outputDefault = value
	}
	metricsDefault := ""
	if value, ok := config.EnvString("SCRAPER_METRICS_ADDR"); ok {
		metricsDefault = value
	}

	startURL := flag.String("url", "", "Start URL to crawl (required)")
	maxPages := flag.Int("pages", pagesDefault, "Maximum pages to fetch")
	maxDepth := flag.Int("depth", depthDefault, "Maximum link depth from the start URL")
	delayMs := flag.Int("delay", int(defaults.Delay/time.Millisecond), "Delay between requests (milliseconds)")
	timeoutS := flag.Int("timeout", int(defaults.Timeout/time.Second), "Per-request timeout (seconds)")
	userAgent := flag.String("user-agent", agentDefault, "User-Agent header")
	respectRobots := flag.Bool("respect-robots", robotsDefault, "Respect robots.txt directives")
	followExternal := flag.Bool("follow-external", false, "Follow links to other hosts")
	outputDir := flag.String("output-dir", outputDefault, "Directory for export files")
	outputFormat := flag.String("format", "json", "Export format: json, csv, or dual")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	if *startURL == "" {
		fmt.Fprintln(os.Stderr, "usage: scraper -url https://example.com [flags]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	settings := config.DefaultSettings()
	settings.MaxPages = *maxPages
	settings.MaxDepth = *maxDepth
	settings.Delay = time.Duration(*delayMs) * time.Millisecond
	settings.Timeout = time.Duration(*timeoutS) * time.Second
	settings.UserAgent = *userAgent
	settings.RespectRobots = *respectRobots
	settings.FollowExternalLinks = *followExternal
	if err := settings.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	client, err := fetch.NewClient(settings)
	if err != nil {
		slog.Error("initialising fetch client", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := session.NewMetrics()
	manager := session.NewManager(settings, client, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if *metricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    *metricsAddr,
			Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", *metricsAddr))
	}

	slog.Info("starting crawl",
		slog.String("url", *startURL),
		slog.Int("pages", settings.MaxPages),
		slog.Int("depth", settings.MaxDepth),
	)

	startTime := time.Now()
	id, err := manager.Start(ctx, *startURL)
	if err != nil {
		slog.Error("starting session", slog.Any("error", err))
		os.Exit(1)
	}
	manager.Wait(id)

	result, ok := manager.Get(id)
	if !ok {
		slog.Error("session vanished", slog.String("session", id))
		os.Exit(1)
	}

	var paths []string
	for _, format := range exportFormats(*outputFormat) {
		path, err := export.WriteFile(*outputDir, &result, format)
		if err != nil {
			slog.Error("writing export", slog.Any("error", err))
			os.Exit(1)
		}
		paths = append(paths, path)
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(&result, time.Since(startTime), paths)
	if result.Status == models.StatusError {
		os.Exit(1)
	}
}

func exportFormats(format string) []export.Format {
	switch format {
	case "csv":
		return []export.Format{export.FormatCSV}
	case "dual":
		return []export.Format{export.FormatJSON, export.FormatCSV}
	default:
		return []export.Format{export.FormatJSON}
	}
}

func printSummary(s *models.ScrapingSession, duration time.Duration, paths []string) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Printf("Crawl %s\n", s.Status)
	fmt.Printf("  Pages:         %d\n", s.Statistics.TotalPages)
	fmt.Printf("  Products:      %d\n", s.Statistics.TotalProducts)
	fmt.Printf("  Images:        %d\n", s.Statistics.TotalImages)
	fmt.Printf("  Links found:   %d\n", s.Statistics.TotalLinks)
	fmt.Printf("  Errors:        %d\n", len(s.Errors))
	fmt.Printf("  Duration:      %v\n", duration)
	for _, path := range paths {
		fmt.Printf("  Output file:   %s\n", path)
	}
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

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
	"strings"
	"syscall"
	"time"

	"github.com/aluiziolira/go-wheelers-scraper/config"
	"github.com/aluiziolira/go-wheelers-scraper/input"
	"github.com/aluiziolira/go-wheelers-scraper/models"
	"github.com/aluiziolira/go-wheelers-scraper/pipeline"
	"github.com/aluiziolira/go-wheelers-scraper/scraper"
	"github.com/aluiziolira/go-wheelers-scraper/storage"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schollz/progressbar/v3"
)

func main() {
	// Optional .env next to the binary; absence is fine.
	_ = godotenv.Load()

	defaultCfg := config.DefaultConfig()
	outputDefault := defaultCfg.OutputFile
	if value, ok := config.EnvString("SCRAPER_OUTPUT"); ok {
		outputDefault = value
	}
	imagesDirDefault := defaultCfg.ImagesDir
	if value, ok := config.EnvString("SCRAPER_IMAGES_DIR"); ok {
		imagesDirDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("SCRAPER_METRICS_ADDR"); ok {
		metricsDefault = value
	}
	imagesDefault := defaultCfg.DownloadImages
	if value, ok, err := config.EnvBool("SCRAPER_IMAGES"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid SCRAPER_IMAGES: %v\n", err)
		os.Exit(1)
	} else if ok {
		imagesDefault = value
	}

	inputFile := flag.String("input", "", "CSV file with the ISBN list (required)")
	outputFile := flag.String("output", outputDefault, "Output file path")
	outputFormat := flag.String("format", "csv", "Output format: csv, json, or dual")
	downloadImages := flag.Bool("images", imagesDefault, "Download and verify cover images")
	imagesDir := flag.String("images-dir", imagesDirDefault, "Directory for downloaded cover images")
	baseURL := flag.String("base-url", defaultCfg.BaseURL, "Catalog base URL")
	timeoutSec := flag.Int("timeout", int(defaultCfg.Timeout/time.Second), "Per-request timeout (seconds)")
	saveDB := flag.Bool("save-db", false, "Append results to the MySQL sink")
	dbConfigFile := flag.String("db-config", defaultCfg.DBConfigFile, "Database credentials file")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	if *inputFile == "" {
		fmt.Fprintln(os.Stderr, "usage: scraper -input isbns.csv [flags]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg := buildConfigFromFlags(defaultCfg, *inputFile, *outputFile, *outputFormat, *downloadImages, *imagesDir, *baseURL, *timeoutSec, *saveDB, *dbConfigFile, *metricsAddr, *verbose)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	isbns, err := input.ReadISBNs(cfg.InputFile)
	if err != nil {
		slog.Error("reading isbn list", slog.Any("error", err))
		os.Exit(1)
	}
	if len(isbns) == 0 {
		slog.Error("no isbns found in input file", slog.String("file", cfg.InputFile))
		os.Exit(1)
	}
	slog.Info("loaded isbn list", slog.Int("count", len(isbns)), slog.String("file", cfg.InputFile))

	crawler, err := scraper.NewCrawler(cfg)
	if err != nil {
		slog.Error("initialising crawler", slog.Any("error", err))
		os.Exit(1)
	}

	writer, err := createWriter(cfg.OutputFormat, cfg.OutputFile)
	if err != nil {
		slog.Error("creating writer", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			slog.Error("close writer", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		crawler.Cancel()
		slog.Info("shutdown signal received, finishing current item")
	}()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" && crawler.Metrics != nil {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(crawler.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	bar := progressbar.NewOptions(len(isbns),
		progressbar.OptionSetDescription("scraping"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	crawler.OnProgress = func(current, total int, isbn string) {
		bar.Describe(fmt.Sprintf("scraping %s (%d/%d)", isbn, current, total))
		_ = bar.Set(current - 1)
	}

	p := pipeline.NewPipeline(writer)
	p.Start(1)

	result, err := crawler.Run(ctx, isbns, p)
	if err != nil {
		slog.Error("crawl failed", slog.Any("error", err))
		os.Exit(1)
	}
	_ = bar.Set(result.TotalCount)
	_ = bar.Finish()

	if err := p.Close(); err != nil {
		slog.Error("pipeline shutdown failed", slog.Any("error", err))
		os.Exit(1)
	}

	if err := writer.Validate(); err != nil {
		slog.Error("output validation failed", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.SaveToDB {
		if err := saveToDatabase(cfg, result.Records); err != nil {
			slog.Error("database save failed", slog.Any("error", err))
		}
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(cfg, crawler.State().String(), result)
}

func buildConfigFromFlags(cfg *config.Config, inputFile, outputFile, outputFormat string, downloadImages bool, imagesDir, baseURL string, timeoutSec int, saveDB bool, dbConfigFile, metricsAddr string, verbose bool) *config.Config {
	cfg.InputFile = inputFile
	cfg.OutputFile = outputFile
	cfg.OutputFormat = strings.ToLower(outputFormat)
	cfg.DownloadImages = downloadImages
	cfg.ImagesDir = imagesDir
	cfg.BaseURL = baseURL
	cfg.Timeout = time.Duration(timeoutSec) * time.Second
	cfg.SaveToDB = saveDB
	cfg.DBConfigFile = dbConfigFile
	cfg.MetricsAddr = metricsAddr
	cfg.Verbose = verbose
	return cfg
}

func createWriter(format, filename string) (pipeline.OutputWriter, error) {
	switch format {
	case "json":
		return pipeline.NewJSONWriter(filename)
	case "csv":
		return pipeline.NewCSVWriter(filename)
	case "dual":
		jsonFilename := strings.TrimSuffix(filename, ".csv") + ".json"
		return pipeline.NewDualWriter(filename, jsonFilename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func saveToDatabase(cfg *config.Config, records []*models.BookRecord) error {
	dbCfg, err := config.LoadDBConfig(cfg.DBConfigFile)
	if err != nil {
		return err
	}

	sink, err := storage.OpenMySQL(dbCfg)
	if err != nil {
		return err
	}
	defer sink.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := sink.Save(ctx, records); err != nil {
		return err
	}

	slog.Info("saved records to database", slog.Int("count", len(records)))
	return nil
}

func printSummary(cfg *config.Config, state string, result *models.CrawlResult) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Crawl " + state)
	fmt.Printf("  Records:       %d\n", result.TotalCount)
	fmt.Printf("  Errors:        %d\n", result.ErrorCount)
	if len(result.ErrorsByType) > 0 {
		fmt.Printf("  Error types:   %v\n", result.ErrorsByType)
	}
	if cfg.DownloadImages {
		fmt.Printf("  Images:        %d (in %s)\n", result.ImageCount, cfg.ImagesDir)
	}
	fmt.Printf("  Duration:      %v\n", result.EndTime.Sub(result.StartTime))
	fmt.Printf("  Output file:   %s\n", cfg.OutputFile)
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

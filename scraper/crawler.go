package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aluiziolira/go-wheelers-scraper/config"
	"github.com/aluiziolira/go-wheelers-scraper/models"
	"github.com/aluiziolira/go-wheelers-scraper/pipeline"
)

// State is the crawler lifecycle position.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ProgressFunc is called before each item with the 1-based position,
// the total count, and the ISBN about to be processed.
type ProgressFunc func(current, total int, isbn string)

// Crawler drives one-ISBN-at-a-time extraction over an input list.
// The cancellation flag is the only state shared with the caller's
// goroutine; it is polled between items, so the item in flight always
// finishes.
type Crawler struct {
	cfg       *config.Config
	extractor *Extractor
	Metrics   *Metrics

	state     atomic.Int32
	cancelled atomic.Bool

	// OnProgress, when set, receives per-item progress updates.
	OnProgress ProgressFunc
}

// NewCrawler wires the fetcher, image store, and extractor from cfg.
func NewCrawler(cfg *config.Config) (*Crawler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	metrics := NewMetrics()
	fetcher, err := NewFetcher(cfg, metrics)
	if err != nil {
		return nil, err
	}

	var images *ImageStore
	if cfg.DownloadImages {
		images = NewImageStore(fetcher, cfg.ImagesDir, metrics)
	}

	return &Crawler{
		cfg:       cfg,
		extractor: NewExtractor(cfg, fetcher, images, metrics),
		Metrics:   metrics,
	}, nil
}

// State reports the current lifecycle position.
func (c *Crawler) State() State {
	return State(c.state.Load())
}

// Cancel requests a cooperative stop. The current item finishes;
// records appended so far are retained.
func (c *Crawler) Cancel() {
	c.cancelled.Store(true)
}

// Run processes isbns in order, appending every produced record to the
// result unconditionally. Records are streamed into p when it is
// non-nil. Run replaces any previous session state.
func (c *Crawler) Run(ctx context.Context, isbns []string, p *pipeline.Pipeline) (*models.CrawlResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !c.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) &&
		!c.state.CompareAndSwap(int32(StateCompleted), int32(StateRunning)) &&
		!c.state.CompareAndSwap(int32(StateCancelled), int32(StateRunning)) {
		return nil, fmt.Errorf("crawler is already running")
	}
	c.cancelled.Store(false)

	result := &models.CrawlResult{
		StartTime:    time.Now(),
		ErrorsByType: make(map[string]int),
	}
	total := len(isbns)

	slog.Info("starting crawl",
		slog.Int("isbns", total),
		slog.Bool("images", c.cfg.DownloadImages),
	)

	for i, isbn := range isbns {
		if c.cancelled.Load() || ctx.Err() != nil {
			c.state.Store(int32(StateCancelled))
			break
		}

		if c.OnProgress != nil {
			c.OnProgress(i+1, total, isbn)
		}
		slog.Info("scraping isbn",
			slog.Int("current", i+1),
			slog.Int("total", total),
			slog.String("isbn", isbn),
		)

		record := c.extractor.Extract(ctx, isbn)
		result.Records = append(result.Records, record)

		if record.Error != nil {
			result.ErrorCount++
			result.ErrorsByType[errorClass(*record.Error)]++
			slog.Error("record degraded",
				slog.String("isbn", isbn),
				slog.String("error", *record.Error),
			)
		} else {
			title := "Unknown Title"
			if record.Title != nil {
				title = *record.Title
			}
			slog.Info("scraped record", slog.String("isbn", isbn), slog.String("title", title))
		}

		if record.LocalImagePath != nil {
			result.ImageCount++
			slog.Info("cover image stored",
				slog.String("isbn", isbn),
				slog.String("path", *record.LocalImagePath),
			)
		}

		if p != nil {
			if err := p.Process(record); err != nil && err != pipeline.ErrPipelineClosed {
				slog.Error("pipeline process error", slog.Any("error", err))
			}
		}
	}

	result.EndTime = time.Now()
	result.TotalCount = len(result.Records)

	if c.state.CompareAndSwap(int32(StateRunning), int32(StateCompleted)) {
		slog.Info("crawl completed",
			slog.Int("records", result.TotalCount),
			slog.Int("errors", result.ErrorCount),
			slog.Int("images", result.ImageCount),
		)
	} else {
		result.Cancelled = true
		slog.Info("crawl cancelled",
			slog.Int("records", result.TotalCount),
			slog.Int("remaining", total-result.TotalCount),
		)
	}

	return result, nil
}

// errorClass reduces a record error string to a summary bucket.
func errorClass(message string) string {
	switch {
	case strings.HasPrefix(message, "HTTP"):
		return "http"
	case strings.HasPrefix(message, "transport"):
		return "transport"
	case strings.HasPrefix(message, "parse"):
		return "parse"
	default:
		return "other"
	}
}

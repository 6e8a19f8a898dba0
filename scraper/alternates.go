package scraper

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-wheelers-scraper/models"
)

// resolveAlternates discovers sibling-format product pages linked from
// the "all alternate formats" list, fetches each, and extracts the
// reduced alternate record. The current page never lists itself, and
// one failing sibling never affects the others.
func (e *Extractor) resolveAlternates(ctx context.Context, doc *goquery.Document, currentURL string) []*models.AlternateRecord {
	base, err := url.Parse(currentURL)
	if err != nil {
		return nil
	}
	currentNorm := strings.TrimRight(currentURL, "/")

	var alternates []*models.AlternateRecord
	doc.Find("#allAltFormats ul li a[href*='/product/']").Each(func(_ int, link *goquery.Selection) {
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref).String()
		if strings.TrimRight(abs, "/") == currentNorm {
			return
		}

		alt, ok := e.fetchAlternate(ctx, abs)
		if !ok {
			return
		}
		alternates = append(alternates, alt)
	})

	return alternates
}

func (e *Extractor) fetchAlternate(ctx context.Context, pageURL string) (*models.AlternateRecord, bool) {
	result := e.fetcher.FetchPage(ctx, pageURL)
	if result.Status != FetchOK {
		slog.Debug("skipping alternate edition",
			slog.String("url", pageURL),
			slog.Int("status", result.StatusCode),
			slog.Any("error", result.Err),
		)
		return nil, false
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(result.Body))
	if err != nil {
		slog.Debug("unparseable alternate edition",
			slog.String("url", pageURL),
			slog.Any("error", err),
		)
		return nil, false
	}

	alt := &models.AlternateRecord{
		Edition: firstOf(doc, Label("Edition")),
		ISBN:    firstOf(doc, Label("ISBN:")),
		PubDate: firstOf(doc, Label("Published:")),
		Price: firstOf(doc,
			Label("Price"),
			CSS("div.price.red-text.bold"),
			CSS("span.price.red-text"),
			CSS("span.price"),
		),
	}

	e.metrics.IncAlternates()
	return alt, true
}

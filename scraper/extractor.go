// Package scraper implements the book-record extraction engine and the
// crawl orchestration loop.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-wheelers-scraper/config"
	"github.com/aluiziolira/go-wheelers-scraper/models"
	"github.com/aluiziolira/go-wheelers-scraper/parser"
)

// Extractor turns one ISBN into one BookRecord.
type Extractor struct {
	cfg     *config.Config
	fetcher *Fetcher
	images  *ImageStore
	metrics *Metrics
}

// NewExtractor builds an extractor. images may be nil when cover
// download is disabled.
func NewExtractor(cfg *config.Config, fetcher *Fetcher, images *ImageStore, metrics *Metrics) *Extractor {
	return &Extractor{cfg: cfg, fetcher: fetcher, images: images, metrics: metrics}
}

// Extract fetches the product page for isbn and resolves the full
// record schema. Fetch failures degrade to a minimal record carrying
// the ISBN and a diagnostic; resolution failures degrade per field.
// Extract never returns nil and never panics.
func (e *Extractor) Extract(ctx context.Context, isbn string) *models.BookRecord {
	record := &models.BookRecord{ISBN: isbn}
	pageURL := e.cfg.ProductURL(isbn)

	result := e.fetcher.FetchPage(ctx, pageURL)
	switch result.Status {
	case FetchHTTPError:
		record.Error = models.String(fmt.Sprintf("HTTP %d", result.StatusCode))
		record.ScrapedAt = time.Now()
		return record
	case FetchTransportError:
		record.Error = models.String("transport: " + result.ErrorLabel())
		record.ScrapedAt = time.Now()
		return record
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(result.Body))
	if err != nil {
		record.Error = models.String("parse: " + err.Error())
		record.ScrapedAt = time.Now()
		return record
	}

	e.resolveFields(doc, record)
	e.resolveImage(ctx, doc, record, pageURL, isbn)
	record.Categories = resolveCategories(doc)

	if alternates := e.resolveAlternates(ctx, doc, pageURL); len(alternates) > 0 {
		record.Merge(alternates[0])
	}

	record.ScrapedAt = time.Now()
	e.metrics.IncRecords()
	return record
}

// resolveFields walks the field table. Each chain is tried in its
// fixed priority order; a miss leaves the field absent.
func (e *Extractor) resolveFields(doc *goquery.Document, r *models.BookRecord) {
	r.Title = firstOf(doc, Label("Title"), CSS("h1.title"))
	r.Author = firstOf(doc, Label("Author"), CSS("div.author a[href*='/author/']"))
	r.Illustrator = firstOf(doc, CSS("div.author div:nth-of-type(2) a.link"))

	r.Publisher = firstOf(doc, Label("Publisher:"), Label("Publisher"))
	r.Published = firstOf(doc, Label("Published:"))
	r.PublishedImported = firstOf(doc, Label("Published (Imported):"))
	r.ReplacedBy = firstOf(doc, Label("Replaced by:"))
	r.Language = firstOf(doc, Label("Language:"))
	r.Series = firstOf(doc, Label("Series:"), CSS("span.series a"))
	r.InterestAge = firstOf(doc, Label("Interest age:"))
	r.ARLevel = firstOf(doc, Label("AR:"))
	r.PremiersReadingChallenge = firstOf(doc, Label("Premier's Reading Challenge:"))
	r.Imprint = firstOf(doc, Label("Imprint"))
	r.PublicationCountry = firstOf(doc, Label("Publication Country"))
	r.Edition = firstOf(doc, Label("Edition"))

	r.PageCount = firstOf(doc, Label("Number of pages"))
	r.Dimensions = firstOf(doc, Label("Dimensions"))
	r.Weight = firstOf(doc, Label("Weight"))
	r.DeweyCode = firstOf(doc, Label("Dewey Code"))
	r.ReadingAge = firstOf(doc, Label("Reading Age"))
	r.LibraryOfCongress = firstOf(doc, Label("Library of Congress"))
	r.NBSText = firstOf(doc, Label("NBS Text"))
	r.OnixText = firstOf(doc, Label("Onix Text"))

	r.Price = firstOf(doc, Label("Price"), CSS("div.price.red-text.bold"), CSS("span.price"))
	r.FullDescription = firstOf(doc, Label("Full Description"), CSS("div.description"))
}

// resolveImage reads the cover element, normalizes its source to an
// absolute URL, and optionally downloads and verifies the file.
func (e *Extractor) resolveImage(ctx context.Context, doc *goquery.Document, r *models.BookRecord, pageURL, isbn string) {
	src, ok := doc.Find("img.cover").First().Attr("src")
	if !ok || strings.TrimSpace(src) == "" {
		return
	}
	src = strings.TrimSpace(src)

	imageURL := absoluteImageURL(src, pageURL)
	if imageURL == "" {
		return
	}
	r.ImageURL = models.String(imageURL)

	if e.images == nil {
		return
	}
	path, err := e.images.Acquire(ctx, imageURL, isbn)
	if err != nil {
		slog.Warn("cover image not stored",
			slog.String("isbn", isbn),
			slog.String("url", imageURL),
			slog.Any("error", err),
		)
		return
	}
	r.LocalImagePath = models.String(path)
}

// absoluteImageURL upgrades protocol-relative sources to HTTPS and
// resolves other relative sources against the page URL.
func absoluteImageURL(src, pageURL string) string {
	if strings.HasPrefix(src, "//") {
		return "https:" + src
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(src)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// resolveCategories joins every category link's text with ", ".
func resolveCategories(doc *goquery.Document) *string {
	var categories []string
	doc.Find("div.product-description a[href*='/category/']").Each(func(_ int, link *goquery.Selection) {
		if text := parser.NormalizeWhitespace(link.Text()); text != "" {
			categories = append(categories, text)
		}
	})
	if len(categories) == 0 {
		return nil
	}
	return models.String(strings.Join(categories, ", "))
}

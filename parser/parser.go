package parser

import (
	"fmt"
	"strings"

	"github.com/aluiziolira/go-wheelers-scraper/models"
)

// ValidateRecord ensures the crawl produced an identifiable record.
func ValidateRecord(r *models.BookRecord) error {
	if r == nil {
		return fmt.Errorf("record is nil")
	}
	if strings.TrimSpace(r.ISBN) == "" {
		return fmt.Errorf("record missing isbn")
	}
	if r.ScrapedAt.IsZero() {
		return fmt.Errorf("record missing scrape timestamp for %s", r.ISBN)
	}
	return nil
}

// NormalizeWhitespace collapses internal runs of whitespace and trims
// the ends, matching how nested element text should read.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CleanISBN trims surrounding whitespace from an input identifier.
func CleanISBN(isbn string) string {
	return strings.TrimSpace(isbn)
}

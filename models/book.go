// Package models defines data structures for the scraper.
package models

import "time"

// BookRecord is one scraped product page. ISBN and ScrapedAt are always
// present; every other field is a pointer so that "not present on the
// page" stays distinguishable from an empty value after export.
type BookRecord struct {
	ISBN  string  `csv:"isbn" json:"isbn"`
	Error *string `csv:"error" json:"error,omitempty"`

	// Identifiers
	Title       *string `csv:"title" json:"title,omitempty"`
	Author      *string `csv:"author" json:"author,omitempty"`
	Illustrator *string `csv:"illustrator" json:"illustrator,omitempty"`

	// Publication
	Publisher                *string `csv:"publisher" json:"publisher,omitempty"`
	Published                *string `csv:"published" json:"published,omitempty"`
	PublishedImported        *string `csv:"published_imported" json:"published_imported,omitempty"`
	ReplacedBy               *string `csv:"replaced_by" json:"replaced_by,omitempty"`
	Language                 *string `csv:"language" json:"language,omitempty"`
	Series                   *string `csv:"series" json:"series,omitempty"`
	InterestAge              *string `csv:"interest_age" json:"interest_age,omitempty"`
	ARLevel                  *string `csv:"ar_level" json:"ar_level,omitempty"`
	PremiersReadingChallenge *string `csv:"premiers_reading_challenge" json:"premiers_reading_challenge,omitempty"`
	Imprint                  *string `csv:"imprint" json:"imprint,omitempty"`
	PublicationCountry       *string `csv:"publication_country" json:"publication_country,omitempty"`
	Edition                  *string `csv:"edition" json:"edition,omitempty"`

	// Physical / meta
	PageCount         *string `csv:"page_count" json:"page_count,omitempty"`
	Dimensions        *string `csv:"dimensions" json:"dimensions,omitempty"`
	Weight            *string `csv:"weight" json:"weight,omitempty"`
	DeweyCode         *string `csv:"dewey_code" json:"dewey_code,omitempty"`
	ReadingAge        *string `csv:"reading_age" json:"reading_age,omitempty"`
	LibraryOfCongress *string `csv:"library_of_congress" json:"library_of_congress,omitempty"`
	NBSText           *string `csv:"nbs_text" json:"nbs_text,omitempty"`
	OnixText          *string `csv:"onix_text" json:"onix_text,omitempty"`

	// Misc
	Price           *string `csv:"price" json:"price,omitempty"`
	FullDescription *string `csv:"full_description" json:"full_description,omitempty"`
	Categories      *string `csv:"categories" json:"categories,omitempty"`
	ImageURL        *string `csv:"image_url" json:"image_url,omitempty"`
	LocalImagePath  *string `csv:"local_image_path" json:"local_image_path,omitempty"`

	// Alternate edition, at most one sibling page merged in.
	AlternateEdition     *string `csv:"alternate_edition" json:"alternate_edition,omitempty"`
	AlternateISBN        *string `csv:"alternate_isbn" json:"alternate_isbn,omitempty"`
	AlternateISBNPubDate *string `csv:"alternate_isbn_pub_date" json:"alternate_isbn_pub_date,omitempty"`
	AlternateISBNPrice   *string `csv:"alternate_isbn_price" json:"alternate_isbn_price,omitempty"`

	ScrapedAt time.Time `csv:"scraped_at" json:"scraped_at"`
}

// AlternateRecord is the reduced record read from a sibling-format page.
type AlternateRecord struct {
	Edition *string `json:"alternate_edition,omitempty"`
	ISBN    *string `json:"alternate_isbn,omitempty"`
	PubDate *string `json:"alternate_isbn_pub_date,omitempty"`
	Price   *string `json:"alternate_isbn_price,omitempty"`
}

// Merge copies the alternate's four fields onto the record.
func (r *BookRecord) Merge(alt *AlternateRecord) {
	if alt == nil {
		return
	}
	r.AlternateEdition = alt.Edition
	r.AlternateISBN = alt.ISBN
	r.AlternateISBNPubDate = alt.PubDate
	r.AlternateISBNPrice = alt.Price
}

// CrawlResult holds the overall outcome of one crawl session.
type CrawlResult struct {
	Records      []*BookRecord
	StartTime    time.Time
	EndTime      time.Time
	TotalCount   int
	ErrorCount   int
	ImageCount   int
	Cancelled    bool
	ErrorsByType map[string]int
	RequestCount int
}

// CSVHeader is the export column order for BookRecord.
var CSVHeader = []string{
	"isbn", "error", "title", "author", "illustrator",
	"publisher", "published", "published_imported", "replaced_by",
	"language", "series", "interest_age", "ar_level",
	"premiers_reading_challenge", "imprint", "publication_country",
	"edition", "page_count", "dimensions", "weight", "dewey_code",
	"reading_age", "library_of_congress", "nbs_text", "onix_text",
	"price", "full_description", "categories", "image_url",
	"local_image_path", "alternate_edition", "alternate_isbn",
	"alternate_isbn_pub_date", "alternate_isbn_price", "scraped_at",
}

// CSVRow renders the record in CSVHeader order. Absent fields render
// as empty cells.
func (r *BookRecord) CSVRow() []string {
	return []string{
		r.ISBN,
		deref(r.Error),
		deref(r.Title),
		deref(r.Author),
		deref(r.Illustrator),
		deref(r.Publisher),
		deref(r.Published),
		deref(r.PublishedImported),
		deref(r.ReplacedBy),
		deref(r.Language),
		deref(r.Series),
		deref(r.InterestAge),
		deref(r.ARLevel),
		deref(r.PremiersReadingChallenge),
		deref(r.Imprint),
		deref(r.PublicationCountry),
		deref(r.Edition),
		deref(r.PageCount),
		deref(r.Dimensions),
		deref(r.Weight),
		deref(r.DeweyCode),
		deref(r.ReadingAge),
		deref(r.LibraryOfCongress),
		deref(r.NBSText),
		deref(r.OnixText),
		deref(r.Price),
		deref(r.FullDescription),
		deref(r.Categories),
		deref(r.ImageURL),
		deref(r.LocalImagePath),
		deref(r.AlternateEdition),
		deref(r.AlternateISBN),
		deref(r.AlternateISBNPubDate),
		deref(r.AlternateISBNPrice),
		r.ScrapedAt.Format(time.RFC3339),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// String returns a pointer to s, for building optional fields.
func String(s string) *string {
	return &s
}

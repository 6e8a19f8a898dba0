package scraper

import (
	"context"
	"testing"

	"github.com/jarcoal/httpmock"
)

const primaryWithAlternates = `<html><body>
<div class="row"><label>Title</label><span>Example Title</span></div>
<div id="allAltFormats"><ul>
<li><a href="/product/9780008696047/">Hardback (this page)</a></li>
<li><a href="/product/9780000000001">Paperback</a></li>
<li><a href="/product/9780000000002">Audio</a></li>
<li><a href="/about">Not a product link</a></li>
</ul></div>
</body></html>`

const paperbackPage = `<html><body>
<div class="row"><label>Edition</label><span>Paperback</span></div>
<div class="row"><label>ISBN:</label><span>9780000000001</span></div>
<div class="row"><label>Published:</label><span>1 June 2023</span></div>
<span class="price red-text">$12.50</span>
</body></html>`

func TestResolveAlternatesSkipsSelfAndMergesFirst(t *testing.T) {
	extractor, transport := newTestExtractor(t, nil)
	transport.RegisterResponder("GET", "http://example.test/product/9780008696047",
		httpmock.NewStringResponder(200, primaryWithAlternates))
	transport.RegisterResponder("GET", "http://example.test/product/9780000000001",
		httpmock.NewStringResponder(200, paperbackPage))
	transport.RegisterResponder("GET", "http://example.test/product/9780000000002",
		httpmock.NewStringResponder(200, `<html><body><div class="row"><label>Edition</label><span>Audio</span></div></body></html>`))

	record := extractor.Extract(context.Background(), "9780008696047")

	if record.AlternateEdition == nil || *record.AlternateEdition != "Paperback" {
		t.Fatalf("alternate_edition = %v, want first non-self alternate", record.AlternateEdition)
	}
	if record.AlternateISBN == nil || *record.AlternateISBN != "9780000000001" {
		t.Fatalf("alternate_isbn = %v", record.AlternateISBN)
	}
	if record.AlternateISBNPubDate == nil || *record.AlternateISBNPubDate != "1 June 2023" {
		t.Fatalf("alternate_isbn_pub_date = %v", record.AlternateISBNPubDate)
	}
	if record.AlternateISBNPrice == nil || *record.AlternateISBNPrice != "$12.50" {
		t.Fatalf("alternate_isbn_price = %v, want the structural price fallback", record.AlternateISBNPrice)
	}

	// The current page must never fetch itself as an alternate: one
	// call for the primary, one per sibling.
	if calls := transport.GetTotalCallCount(); calls != 3 {
		t.Fatalf("network calls = %d, want 3", calls)
	}
}

func TestResolveAlternatesFailureIsolation(t *testing.T) {
	extractor, transport := newTestExtractor(t, nil)
	transport.RegisterResponder("GET", "http://example.test/product/9780008696047",
		httpmock.NewStringResponder(200, primaryWithAlternates))
	transport.RegisterResponder("GET", "http://example.test/product/9780000000001",
		httpmock.NewStringResponder(500, "server error"))
	transport.RegisterResponder("GET", "http://example.test/product/9780000000002",
		httpmock.NewStringResponder(200, `<html><body><div class="row"><label>Edition</label><span>Audio</span></div></body></html>`))

	record := extractor.Extract(context.Background(), "9780008696047")

	// Primary record unaffected by the failing sibling.
	if record.Error != nil {
		t.Fatalf("primary record degraded: %q", *record.Error)
	}
	if record.Title == nil || *record.Title != "Example Title" {
		t.Fatalf("title = %v", record.Title)
	}

	// The surviving sibling is merged instead.
	if record.AlternateEdition == nil || *record.AlternateEdition != "Audio" {
		t.Fatalf("alternate_edition = %v, want the surviving sibling", record.AlternateEdition)
	}
}

func TestResolveAlternatesTrailingSlashInsensitive(t *testing.T) {
	extractor, transport := newTestExtractor(t, nil)

	// Self link without trailing slash, page URL without either.
	page := `<html><body><div id="allAltFormats"><ul>
<li><a href="/product/555">self</a></li>
</ul></div></body></html>`
	transport.RegisterResponder("GET", "http://example.test/product/555",
		httpmock.NewStringResponder(200, page))

	record := extractor.Extract(context.Background(), "555")

	if record.AlternateEdition != nil || record.AlternateISBN != nil {
		t.Fatal("self link must be skipped regardless of trailing slash")
	}
	if calls := transport.GetTotalCallCount(); calls != 1 {
		t.Fatalf("network calls = %d, want 1 (no self-fetch)", calls)
	}
}

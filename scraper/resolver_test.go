package scraper

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func TestLabelRowResolution(t *testing.T) {
	tests := []struct {
		name  string
		html  string
		label string
		want  string
		found bool
	}{
		{
			name:  "plain row",
			html:  `<div class="row"><label>Title</label><span>Example Title</span></div>`,
			label: "Title",
			want:  "Example Title",
			found: true,
		},
		{
			name:  "whitespace padding trimmed",
			html:  `<div class="row"><label> Title </label><span>  Example   Title  </span></div>`,
			label: "Title",
			want:  "Example Title",
			found: true,
		},
		{
			name:  "table header cell",
			html:  `<table><tr><th>Number of pages</th><td>320</td></tr></table>`,
			label: "Number of pages",
			want:  "320",
			found: true,
		},
		{
			name:  "row wins over table",
			html:  `<div class="row"><label>Edition</label><span>2nd</span></div><table><tr><th>Edition</th><td>1st</td></tr></table>`,
			label: "Edition",
			want:  "2nd",
			found: true,
		},
		{
			name:  "label with quote characters",
			html:  `<div class="row"><label>Premier's "Reading" Challenge:</label><span>Yes</span></div>`,
			label: `Premier's "Reading" Challenge:`,
			want:  "Yes",
			found: true,
		},
		{
			name:  "no match",
			html:  `<div class="row"><label>Weight</label><span>500g</span></div>`,
			label: "Title",
			found: false,
		},
		{
			name:  "empty value is a miss",
			html:  `<div class="row"><label>Series:</label><span>   </span></div>`,
			label: "Series:",
			found: false,
		},
		{
			name:  "different label in row not matched",
			html:  `<div class="row"><label>Title Extra</label><span>Nope</span></div>`,
			label: "Title",
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := Label(tt.label)(mustDoc(t, tt.html))
			if found != tt.found {
				t.Fatalf("Label(%q) found = %v, want %v", tt.label, found, tt.found)
			}
			if found && got != tt.want {
				t.Fatalf("Label(%q) = %q, want %q", tt.label, got, tt.want)
			}
		})
	}
}

func TestCSSStrategy(t *testing.T) {
	doc := mustDoc(t, `<h1 class="title">  Heading   Title </h1><span class="price">$9.99</span>`)

	if got, ok := CSS("h1.title")(doc); !ok || got != "Heading Title" {
		t.Fatalf("CSS(h1.title) = (%q, %v)", got, ok)
	}
	if _, ok := CSS("div.missing")(doc); ok {
		t.Fatal("CSS should miss on absent elements")
	}
}

func TestFirstOfFallbackOrder(t *testing.T) {
	doc := mustDoc(t, `<h1 class="title">Heading Title</h1>`)

	got := firstOf(doc, Label("Title"), CSS("h1.title"))
	if got == nil || *got != "Heading Title" {
		t.Fatalf("firstOf = %v, want fallback to heading", got)
	}

	if got := firstOf(doc, Label("Weight"), CSS("span.weight")); got != nil {
		t.Fatalf("firstOf = %q, want nil when every strategy misses", *got)
	}
}

func TestFirstOfIsolatesPanickingStrategy(t *testing.T) {
	doc := mustDoc(t, `<h1 class="title">Heading Title</h1>`)

	boom := Strategy(func(*goquery.Document) (string, bool) {
		panic("selector exploded")
	})

	got := firstOf(doc, boom, CSS("h1.title"))
	if got == nil || *got != "Heading Title" {
		t.Fatalf("firstOf = %v, want the panic contained to one strategy", got)
	}
}

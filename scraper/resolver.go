package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-wheelers-scraper/parser"
)

// Strategy resolves a single value from a parsed document. A false
// return means the strategy found nothing usable.
type Strategy func(doc *goquery.Document) (string, bool)

// Label resolves a field through the two label-based patterns, in
// order: a label/value row, then a header/data table cell. Matching
// compares trimmed element text against the label, so labels may
// contain quote characters without any escaping concerns.
func Label(label string) Strategy {
	want := strings.TrimSpace(label)
	return func(doc *goquery.Document) (string, bool) {
		if text, ok := labelRow(doc, want); ok {
			return text, true
		}
		return labelCell(doc, want)
	}
}

// CSS resolves a field from a fixed structural selector.
func CSS(selector string) Strategy {
	return func(doc *goquery.Document) (string, bool) {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			return "", false
		}
		return nonEmpty(sel.Text())
	}
}

// labelRow matches a row container whose label element's text equals
// the label, reading the adjacent value element.
func labelRow(doc *goquery.Document, label string) (string, bool) {
	var text string
	var found bool
	doc.Find("div.row").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		matched := false
		row.Find("label").EachWithBreak(func(_ int, l *goquery.Selection) bool {
			if strings.TrimSpace(l.Text()) == label {
				matched = true
				return false
			}
			return true
		})
		if !matched {
			return true
		}
		text, found = nonEmpty(row.Find("span").First().Text())
		return !found
	})
	return text, found
}

// labelCell matches a table row whose header cell names the field,
// reading the sibling data cell.
func labelCell(doc *goquery.Document, label string) (string, bool) {
	var text string
	var found bool
	doc.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		matched := false
		row.Find("th").EachWithBreak(func(_ int, h *goquery.Selection) bool {
			if strings.TrimSpace(h.Text()) == label {
				matched = true
				return false
			}
			return true
		})
		if !matched {
			return true
		}
		text, found = nonEmpty(row.Find("td").First().Text())
		return !found
	})
	return text, found
}

// firstOf applies strategies in order and returns the first non-empty
// result, or nil. A panicking strategy counts as a miss for that
// strategy only.
func firstOf(doc *goquery.Document, strategies ...Strategy) *string {
	for _, strategy := range strategies {
		if text, ok := applyStrategy(doc, strategy); ok {
			return &text
		}
	}
	return nil
}

func applyStrategy(doc *goquery.Document, strategy Strategy) (text string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			text, ok = "", false
		}
	}()
	return strategy(doc)
}

func nonEmpty(raw string) (string, bool) {
	text := parser.NormalizeWhitespace(raw)
	return text, text != ""
}

// Package input reads the ISBN list that seeds a crawl.
package input

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aluiziolira/go-wheelers-scraper/parser"
)

// ReadISBNs loads an ordered ISBN list from a CSV file. The column is
// chosen by case-insensitive name match on "isbn"; if no header column
// matches, the first column is assumed to hold the identifiers. Values
// are trimmed and empties dropped, order preserved.
func ReadISBNs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open isbn file: %w", err)
	}
	defer f.Close()

	return readISBNs(f)
}

func readISBNs(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("isbn file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	col := columnIndex(header)

	var isbns []string
	// The header row only names columns unless nothing in it looks
	// like a header, in which case it is data too.
	if col == 0 && !hasISBNColumn(header) {
		if v := parser.CleanISBN(header[0]); v != "" && !looksLikeHeader(v) {
			isbns = append(isbns, v)
		}
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if col >= len(row) {
			continue
		}
		if v := parser.CleanISBN(row[col]); v != "" {
			isbns = append(isbns, v)
		}
	}

	return isbns, nil
}

func columnIndex(header []string) int {
	for i, name := range header {
		if strings.Contains(strings.ToLower(name), "isbn") {
			return i
		}
	}
	return 0
}

func hasISBNColumn(header []string) bool {
	for _, name := range header {
		if strings.Contains(strings.ToLower(name), "isbn") {
			return true
		}
	}
	return false
}

func looksLikeHeader(v string) bool {
	for _, r := range v {
		if r >= '0' && r <= '9' {
			return false
		}
	}
	return true
}

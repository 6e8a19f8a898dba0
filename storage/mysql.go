// Package storage persists crawl results to the relational sink.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aluiziolira/go-wheelers-scraper/config"
	"github.com/aluiziolira/go-wheelers-scraper/models"

	_ "github.com/go-sql-driver/mysql"
)

const createTableStmt = `CREATE TABLE IF NOT EXISTS wheelers_books (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	isbn VARCHAR(32) NOT NULL,
	error TEXT NULL,
	title TEXT NULL,
	author TEXT NULL,
	illustrator TEXT NULL,
	publisher TEXT NULL,
	published TEXT NULL,
	published_imported TEXT NULL,
	replaced_by TEXT NULL,
	language TEXT NULL,
	series TEXT NULL,
	interest_age TEXT NULL,
	ar_level TEXT NULL,
	premiers_reading_challenge TEXT NULL,
	imprint TEXT NULL,
	publication_country TEXT NULL,
	edition TEXT NULL,
	page_count TEXT NULL,
	dimensions TEXT NULL,
	weight TEXT NULL,
	dewey_code TEXT NULL,
	reading_age TEXT NULL,
	library_of_congress TEXT NULL,
	nbs_text TEXT NULL,
	onix_text TEXT NULL,
	price TEXT NULL,
	full_description TEXT NULL,
	categories TEXT NULL,
	image_url TEXT NULL,
	local_image_path TEXT NULL,
	alternate_edition TEXT NULL,
	alternate_isbn TEXT NULL,
	alternate_isbn_pub_date TEXT NULL,
	alternate_isbn_price TEXT NULL,
	scraped_at DATETIME NOT NULL
)`

const insertStmt = `INSERT INTO wheelers_books (
	isbn, error, title, author, illustrator, publisher, published,
	published_imported, replaced_by, language, series, interest_age,
	ar_level, premiers_reading_challenge, imprint, publication_country,
	edition, page_count, dimensions, weight, dewey_code, reading_age,
	library_of_congress, nbs_text, onix_text, price, full_description,
	categories, image_url, local_image_path, alternate_edition,
	alternate_isbn, alternate_isbn_pub_date, alternate_isbn_price,
	scraped_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// MySQLSink appends crawl results to the wheelers_books table.
type MySQLSink struct {
	db *sql.DB
}

// OpenMySQL connects and verifies the connection with a ping.
func OpenMySQL(cfg *config.DBConfig) (*MySQLSink, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &MySQLSink{db: db}, nil
}

// Save appends all records in one transaction, creating the table on
// first use. In-memory records are never mutated, so a failed save
// leaves them intact for re-export.
func (s *MySQLSink) Save(ctx context.Context, records []*models.BookRecord) error {
	if len(records) == 0 {
		return nil
	}

	if _, err := s.db.ExecContext(ctx, createTableStmt); err != nil {
		return fmt.Errorf("ensure table: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertStmt)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.ISBN, r.Error, r.Title, r.Author, r.Illustrator,
			r.Publisher, r.Published, r.PublishedImported, r.ReplacedBy,
			r.Language, r.Series, r.InterestAge, r.ARLevel,
			r.PremiersReadingChallenge, r.Imprint, r.PublicationCountry,
			r.Edition, r.PageCount, r.Dimensions, r.Weight, r.DeweyCode,
			r.ReadingAge, r.LibraryOfCongress, r.NBSText, r.OnixText,
			r.Price, r.FullDescription, r.Categories, r.ImageURL,
			r.LocalImagePath, r.AlternateEdition, r.AlternateISBN,
			r.AlternateISBNPubDate, r.AlternateISBNPrice, r.ScrapedAt,
		); err != nil {
			return fmt.Errorf("insert record %s: %w", r.ISBN, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *MySQLSink) Close() error {
	return s.db.Close()
}

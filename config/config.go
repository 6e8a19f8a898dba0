package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds scraper configuration.
type Config struct {
	BaseURL        string
	ProductPath    string
	Timeout        time.Duration
	UserAgent      string
	PageCacheSize  int
	DownloadImages bool
	ImagesDir      string
	InputFile      string
	OutputFile     string
	OutputFormat   string // csv, json, or dual
	SaveToDB       bool
	DBConfigFile   string
	MetricsAddr    string
	Verbose        bool
}

// DefaultConfig returns defaults matching the catalog host's layout.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:        "https://www.wheelersbooks.com.au",
		ProductPath:    "/product/",
		Timeout:        30 * time.Second,
		UserAgent:      "Mozilla/5.0 (compatible)",
		PageCacheSize:  256,
		DownloadImages: false,
		ImagesDir:      "book_images",
		OutputFile:     "output/books.csv",
		OutputFormat:   "csv",
		SaveToDB:       false,
		DBConfigFile:   "db_config.json",
		MetricsAddr:    "",
		Verbose:        false,
	}
}

// ProductURL builds the canonical product page URL for an ISBN.
func (c *Config) ProductURL(isbn string) string {
	return c.BaseURL + c.ProductPath + isbn
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if c.ProductPath == "" {
		return fmt.Errorf("product path cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.PageCacheSize < 0 {
		return fmt.Errorf("page cache size cannot be negative")
	}
	if c.DownloadImages && c.ImagesDir == "" {
		return fmt.Errorf("images directory cannot be empty when image download is enabled")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	if c.SaveToDB && c.DBConfigFile == "" {
		return fmt.Errorf("db config file cannot be empty when database save is enabled")
	}

	return nil
}

// EnvString reads a string environment variable, reporting presence.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// EnvInt reads an integer environment variable, reporting presence.
func EnvInt(key string) (int, bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, true, nil
}

// EnvBool reads a boolean environment variable, reporting presence.
func EnvBool(key string) (bool, bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return false, false, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, false, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, true, nil
}

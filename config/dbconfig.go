package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// DBConfig holds the relational sink credentials, persisted as a
// simple JSON key-value document alongside the binary.
type DBConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// DefaultDBConfig returns the stock local MySQL settings.
func DefaultDBConfig() *DBConfig {
	return &DBConfig{
		Host:     "localhost",
		Port:     "3306",
		Database: "books_db",
		Username: "root",
		Password: "",
	}
}

// LoadDBConfig reads credentials from path. A missing file yields the
// defaults and persists them, so first runs leave an editable document
// behind.
func LoadDBConfig(path string) (*DBConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultDBConfig()
			if err := cfg.Save(path); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read db config: %w", err)
	}

	cfg := DefaultDBConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}
	return cfg, nil
}

// Save persists the credentials document to path.
func (c *DBConfig) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode db config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write db config: %w", err)
	}
	return nil
}

// DSN renders the mysql driver connection string.
func (c *DBConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		c.Username, c.Password, c.Host, c.Port, c.Database)
}

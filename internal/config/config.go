// Package config loads the server configuration file.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr     string `yaml:"addr"`
	DBPath   string `yaml:"db_path"`
	AuditDir string `yaml:"audit_dir"`

	Metrics bool `yaml:"metrics"`

	Backup BackupSpec `yaml:"backup,omitempty"`
}

type BackupSpec struct {
	Enabled         bool   `yaml:"enabled"`
	Endpoint        string `yaml:"endpoint"`
	Bucket          string `yaml:"bucket"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Prefix          string `yaml:"prefix"`
	Workers         int    `yaml:"workers"`
	QueueCapacity   int    `yaml:"queue_capacity"`
}

// Load reads path, or returns defaults when path is empty.
func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("server.yaml: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("server.yaml: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		Addr:     ":8080",
		DBPath:   "./data/players.db",
		AuditDir: "./data/audit",
		Metrics:  true,
	}
}

func (c *Config) Normalize() {
	c.Addr = strings.TrimSpace(c.Addr)
	c.DBPath = strings.TrimSpace(c.DBPath)
	c.AuditDir = strings.TrimSpace(c.AuditDir)
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.DBPath == "" {
		c.DBPath = "./data/players.db"
	}
	if c.Backup.Enabled {
		if c.Backup.Workers <= 0 {
			c.Backup.Workers = 1
		}
		if c.Backup.QueueCapacity <= 0 {
			c.Backup.QueueCapacity = 1024
		}
	}
}

func (c *Config) Validate() error {
	if c.Backup.Enabled {
		if c.Backup.Endpoint == "" || c.Backup.Bucket == "" {
			return fmt.Errorf("backup enabled but endpoint/bucket missing")
		}
		if c.Backup.AccessKeyID == "" || c.Backup.SecretAccessKey == "" {
			return fmt.Errorf("backup enabled but credentials missing")
		}
	}
	return nil
}

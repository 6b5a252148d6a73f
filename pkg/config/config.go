// Package config holds the YAML configuration of s3ingest.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v2"
)

// ErrInvalidConfig is returned by Validate when a mandatory field is missing or malformed.
var ErrInvalidConfig = errors.New("invalid configuration")

// Storage backends for the scan state and the ledgers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Default values applied by ApplyDefaults.
const (
	DefaultBatchSize          = 10
	DefaultMaxExecutionTime   = 25 * time.Second
	DefaultBackgroundSchedule = "@every 1m"
	DefaultRootMaxKeys        = 100000
	DefaultBugReportPrefix    = "bug-reports/"
	DefaultBugReportMaxKeys   = 5000
	DefaultRecentErrorLimit   = 50
	DefaultFullScanMaxKeys    = 1000
	DefaultListenAddr         = ":8081"
	DefaultLedgerCacheTTL     = 5 * time.Minute
)

// Config is the struct for the configuration
type Config struct {
	S3       S3Config       `yaml:"s3"`
	Database DatabaseConfig `yaml:"database"`
	Scan     ScanConfig     `yaml:"scan"`
	HTTP     HTTPConfig     `yaml:"http"`
	LogLevel string         `yaml:"loglevel"`
}

// S3Config holds the four connection strings of the object store.
// SigningRegion overrides the region derived from the provider profile.
type S3Config struct {
	Endpoint      string `yaml:"endpoint"`
	AccessKey     string `yaml:"accesskey"`
	SecretKey     string `yaml:"secretkey"`
	Bucket        string `yaml:"bucket"`
	SigningRegion string `yaml:"signingregion"`
}

// DatabaseConfig selects where reports, ledgers and the scan state live.
type DatabaseConfig struct {
	URL     string `yaml:"url"`
	Storage string `yaml:"storage"`
}

// ScanConfig tunes the batch scan engine.
type ScanConfig struct {
	BatchSize          int           `yaml:"batchsize"`
	MaxExecutionTime   time.Duration `yaml:"maxexecutiontime"`
	EnableBackground   bool          `yaml:"enablebackground"`
	BackgroundSchedule string        `yaml:"backgroundschedule"`
	// RescanSchedule starts a new scan periodically when set (cron syntax).
	RescanSchedule   string `yaml:"rescanschedule"`
	RootPrefix       string `yaml:"rootprefix"`
	RootMaxKeys      int    `yaml:"rootmaxkeys"`
	BugReportPrefix  string `yaml:"bugreportprefix"`
	BugReportMaxKeys int    `yaml:"bugreportmaxkeys"`
	FullScanMaxKeys  int    `yaml:"fullscanmaxkeys"`
	// DirectoryRecheckAfter lets a processed directory be scanned again once its mark is older.
	// Zero keeps directories suppressed forever.
	DirectoryRecheckAfter time.Duration `yaml:"directoryrecheckafter"`
	RecentErrorLimit      int           `yaml:"recenterrorlimit"`
	LedgerCacheTTL        time.Duration `yaml:"ledgercachettl"`
}

// HTTPConfig configures the JSON API.
type HTTPConfig struct {
	Listen string `yaml:"listen"`
}

// ReadYamlCnxFile reads a yaml file and returns a Config struct with defaults applied
func ReadYamlCnxFile(filename string) (Config, error) {
	var cfg Config

	yamlFile, err := os.ReadFile(filename)
	if err != nil {
		return cfg, fmt.Errorf("error reading YAML file: %w", err)
	}

	err = yaml.Unmarshal(yamlFile, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("error parsing YAML file: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills every unset tuning field.
func (c *Config) ApplyDefaults() {
	if c.Database.Storage == "" {
		c.Database.Storage = StoragePostgres
	}
	if c.HTTP.Listen == "" {
		c.HTTP.Listen = DefaultListenAddr
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	s := &c.Scan
	if s.BatchSize <= 0 {
		s.BatchSize = DefaultBatchSize
	}
	if s.MaxExecutionTime <= 0 {
		s.MaxExecutionTime = DefaultMaxExecutionTime
	}
	if s.BackgroundSchedule == "" {
		s.BackgroundSchedule = DefaultBackgroundSchedule
	}
	if s.RootMaxKeys <= 0 {
		s.RootMaxKeys = DefaultRootMaxKeys
	}
	if s.BugReportPrefix == "" {
		s.BugReportPrefix = DefaultBugReportPrefix
	}
	if s.BugReportMaxKeys <= 0 {
		s.BugReportMaxKeys = DefaultBugReportMaxKeys
	}
	if s.FullScanMaxKeys <= 0 {
		s.FullScanMaxKeys = DefaultFullScanMaxKeys
	}
	if s.RecentErrorLimit <= 0 {
		s.RecentErrorLimit = DefaultRecentErrorLimit
	}
	if s.LedgerCacheTTL <= 0 {
		s.LedgerCacheTTL = DefaultLedgerCacheTTL
	}
}

// Validate checks the fields without which nothing can run.
// Credential checks belong to the object store client, which reports them with their own errors.
func (c Config) Validate() error {
	switch c.Database.Storage {
	case StoragePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("%w: database.url is required for postgres storage", ErrInvalidConfig)
		}
	case StorageMemory:
	default:
		return fmt.Errorf("%w: unknown database.storage %q", ErrInvalidConfig, c.Database.Storage)
	}
	if c.Scan.DirectoryRecheckAfter < 0 {
		return fmt.Errorf("%w: scan.directoryrecheckafter must not be negative", ErrInvalidConfig)
	}
	if c.Scan.EnableBackground && c.Scan.BackgroundSchedule != "" {
		if _, err := cron.ParseStandard(c.Scan.BackgroundSchedule); err != nil {
			return fmt.Errorf("%w: scan.backgroundschedule: %w", ErrInvalidConfig, err)
		}
	}
	if c.Scan.RescanSchedule != "" {
		if _, err := cron.ParseStandard(c.Scan.RescanSchedule); err != nil {
			return fmt.Errorf("%w: scan.rescanschedule: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

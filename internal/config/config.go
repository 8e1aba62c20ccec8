// Package config assembles runtime configuration from the environment
// and an optional YAML sources file.
package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"coinwatch/internal/errors"
)

// Defaults for the ingestion sweep. The query set and domain allow-list
// can be replaced wholesale via the sources file.
var (
	DefaultQueries = []string{
		"bitcoin news",
		"ethereum news",
		"cryptocurrency regulation",
		"defi protocol",
		"crypto market analysis",
	}

	DefaultIncludeDomains = []string{
		"coindesk.com",
		"cointelegraph.com",
		"decrypt.co",
		"theblock.co",
		"bitcoinmagazine.com",
	}
)

// Config holds application configuration. Validate must pass before any
// component is constructed.
type Config struct {
	// TavilyAPIKey authenticates against the live provider. Required.
	TavilyAPIKey string

	// RedisAddr is the store backend address (host:port). Required.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// TTLDays is how many days an article stays retrievable.
	TTLDays int

	// MaxIndexSize bounds the time-ordered index.
	MaxIndexSize int64

	// FetchInterval is the pause between scheduled sweeps.
	FetchInterval time.Duration

	// SweepMaxResults caps provider results per sweep query.
	SweepMaxResults int

	// SweepDays is the recency window for sweep queries.
	SweepDays int

	// Queries is the fixed topic set each sweep walks.
	Queries []string

	// IncludeDomains is the content-domain allow-list for provider calls.
	IncludeDomains []string

	// Feeds lists optional RSS/Atom feeds ingested alongside the query
	// set.
	Feeds []string

	// HTTPAddr is the bind address for the HTTP API (web command).
	HTTPAddr string
}

// FromEnv builds a Config from environment variables, applying defaults
// for everything optional. Call godotenv.Load beforehand if a .env file
// should participate.
func FromEnv() *Config {
	cfg := &Config{
		TavilyAPIKey:    os.Getenv("TAVILY_API_KEY"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         envInt("REDIS_DB", 0),
		TTLDays:         envInt("ARTICLE_TTL_DAYS", 7),
		MaxIndexSize:    int64(envInt("MAX_INDEX_SIZE", 1000)),
		FetchInterval:   time.Duration(envInt("FETCH_INTERVAL_MINUTES", 60)) * time.Minute,
		SweepMaxResults: envInt("SWEEP_MAX_RESULTS", 10),
		SweepDays:       envInt("SWEEP_DAYS", 7),
		Queries:         append([]string(nil), DefaultQueries...),
		IncludeDomains:  append([]string(nil), DefaultIncludeDomains...),
		HTTPAddr:        envString("HTTP_ADDR", ":8080"),
	}
	return cfg
}

// sourcesFile is the YAML shape of an external sources file.
type sourcesFile struct {
	Queries        []string `yaml:"queries"`
	IncludeDomains []string `yaml:"include_domains"`
	Feeds          []string `yaml:"feeds"`
}

// LoadSources overlays queries, domains, and feeds from a YAML file.
// A missing path is not an error; the built-in defaults stay in place.
func (c *Config) LoadSources(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.NewConfig("read sources file: " + err.Error())
	}

	var f sourcesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return errors.NewConfig("parse sources file: " + err.Error())
	}

	if len(f.Queries) > 0 {
		c.Queries = f.Queries
	}
	if len(f.IncludeDomains) > 0 {
		c.IncludeDomains = f.IncludeDomains
	}
	if len(f.Feeds) > 0 {
		c.Feeds = f.Feeds
	}
	return nil
}

// Validate checks required settings. Failure here is fatal at startup;
// the process must not serve without provider credentials or a store.
func (c *Config) Validate() error {
	if c.TavilyAPIKey == "" {
		return errors.NewConfig("TAVILY_API_KEY is required")
	}
	if c.RedisAddr == "" {
		return errors.NewConfig("REDIS_ADDR is required")
	}
	if c.TTLDays <= 0 {
		return errors.NewConfig("ARTICLE_TTL_DAYS must be positive")
	}
	if c.MaxIndexSize <= 0 {
		return errors.NewConfig("MAX_INDEX_SIZE must be positive")
	}
	if len(c.Queries) == 0 {
		return errors.NewConfig("at least one sweep query is required")
	}
	return nil
}

// TTL converts the configured day count to a duration.
func (c *Config) TTL() time.Duration {
	return time.Duration(c.TTLDays) * 24 * time.Hour
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

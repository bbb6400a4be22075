package spectra

import (
	"github.com/Boliti/Website/pkg/spectra/analysis"
	"github.com/Boliti/Website/pkg/spectra/parser"
)

type Config struct {
	DBPath     string
	Logger     Logger
	Storage    Storage
	Analyzer   analysis.Analyzer
	Parsers    []parser.Parser
	RecordRuns bool
}

type Option func(*Config)

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithStorage(storage Storage) Option {
	return func(c *Config) {
		c.Storage = storage
	}
}

// WithAnalyzer enables Analyze. Without it Analyze returns ErrAnalyzerUnavailable.
func WithAnalyzer(a analysis.Analyzer) Option {
	return func(c *Config) {
		c.Analyzer = a
	}
}

// WithParsers replaces the format chain tried before the generic fallback.
func WithParsers(chain ...parser.Parser) Option {
	return func(c *Config) {
		c.Parsers = chain
	}
}

// WithRunHistory toggles recording of pipeline runs in storage.
func WithRunHistory(enabled bool) Option {
	return func(c *Config) {
		c.RecordRuns = enabled
	}
}

func defaultConfig() *Config {
	return &Config{
		DBPath:     "spectra.sqlite3",
		Logger:     nil,
		Parsers:    parser.Default,
		RecordRuns: true,
	}
}

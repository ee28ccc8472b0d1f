// Package config provides configuration management for the leapbom CLI.
//
// Values are layered from defaults, a leapbom.yaml file, LEAPBOM_ environment
// variables and explicitly set command-line flags, in increasing precedence.
package config

import (
	"log/slog"

	"github.com/leapstack-labs/leapbom/internal/bom"
	"github.com/leapstack-labs/leapbom/internal/source"
)

// Config holds all CLI configuration options.
type Config struct {
	File         string        `koanf:"file"`
	Dir          string        `koanf:"dir"`
	PartsName    string        `koanf:"parts_name"`
	OutputFormat string        `koanf:"output"`
	Verbose      bool          `koanf:"verbose"`
	LogLevel     string        `koanf:"log_level"`
	LogFormat    string        `koanf:"log_format"`
	StrictParts  bool          `koanf:"strict_parts"`
	HistoryFile  string        `koanf:"history_file"`
	Columns      ColumnsConfig `koanf:"columns"`

	// ConfigFile is the file the values were read from, if any.
	ConfigFile string `koanf:"-"`
}

// ColumnsConfig renames the source columns the engine reads.
type ColumnsConfig struct {
	PN          string `koanf:"pn"`
	QTY         string `koanf:"qty"`
	PkgQTY      string `koanf:"pkg_qty"`
	PkgPrice    string `koanf:"pkg_price"`
	Cost        string `koanf:"cost"`
	Name        string `koanf:"name"`
	Description string `koanf:"description"`
	Type        string `koanf:"type"`
}

// Default configuration values.
const (
	DefaultOutput    = "auto" // table on a terminal, markdown otherwise
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"
)

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	cols := bom.DefaultColumns()
	return &Config{
		PartsName:    source.DefaultPartsName,
		OutputFormat: DefaultOutput,
		LogLevel:     DefaultLogLevel,
		LogFormat:    DefaultLogFormat,
		Columns: ColumnsConfig{
			PN:          cols.PN,
			QTY:         cols.QTY,
			PkgQTY:      cols.PkgQTY,
			PkgPrice:    cols.PkgPrice,
			Cost:        cols.Cost,
			Name:        cols.Name,
			Description: cols.Description,
			Type:        cols.Type,
		},
	}
}

// Source returns the path of the BOM source: the file, else the directory,
// else the working directory.
func (c *Config) Source() string {
	switch {
	case c.File != "":
		return c.File
	case c.Dir != "":
		return c.Dir
	default:
		return "."
	}
}

// BOMColumns converts the column settings for the engine.
func (c *Config) BOMColumns() bom.Columns {
	return bom.Columns{
		PN:          c.Columns.PN,
		QTY:         c.Columns.QTY,
		PkgQTY:      c.Columns.PkgQTY,
		PkgPrice:    c.Columns.PkgPrice,
		Cost:        c.Columns.Cost,
		Name:        c.Columns.Name,
		Description: c.Columns.Description,
		Type:        c.Columns.Type,
	}
}

// BOMOptions returns the resolution options for the engine.
func (c *Config) BOMOptions(logger *slog.Logger) bom.Options {
	return bom.Options{
		Logger:      logger,
		StrictParts: c.StrictParts,
		Columns:     c.BOMColumns(),
	}
}

// SourceOptions returns the options for loading the source.
func (c *Config) SourceOptions(logger *slog.Logger) source.Options {
	return source.Options{
		PartsName: c.PartsName,
		PNColumn:  c.Columns.PN,
		Logger:    logger,
	}
}

package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	validOutputs    = []string{"auto", "table", "json", "csv", "markdown", "md"}
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"text", "json"}
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.File != "" && c.Dir != "" {
		return errors.New("file and dir are mutually exclusive")
	}
	if strings.TrimSpace(c.PartsName) == "" {
		return errors.New("parts_name is required")
	}
	if !slices.Contains(validOutputs, strings.ToLower(c.OutputFormat)) {
		return fmt.Errorf("invalid output %q (valid: %s)", c.OutputFormat, strings.Join(validOutputs, ", "))
	}
	if !slices.Contains(validLogLevels, strings.ToLower(c.LogLevel)) {
		return fmt.Errorf("invalid log_level %q (valid: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}
	if !slices.Contains(validLogFormats, strings.ToLower(c.LogFormat)) {
		return fmt.Errorf("invalid log_format %q (valid: %s)", c.LogFormat, strings.Join(validLogFormats, ", "))
	}
	return nil
}

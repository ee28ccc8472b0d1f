package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// configKey is used to store config in context.
type configKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// EnvPrefix prefixes every environment variable read by LoadConfig.
const EnvPrefix = "LEAPBOM_"

var configNames = []string{"leapbom.yaml", "leapbom.yml"}

// pathKeys are resolved against the config file's directory when set there.
var pathKeys = []string{"file", "dir", "history_file"}

// configIn returns the config file in dir, or "".
func configIn(dir string) string {
	for _, name := range configNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findConfigUpward searches upward from startDir for a leapbom config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findConfigUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if f := configIn(dir); f != "" {
			return f
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

func defaultValues() map[string]any {
	d := Default()
	return map[string]any{
		"parts_name":          d.PartsName,
		"output":              d.OutputFormat,
		"verbose":             false,
		"log_level":           d.LogLevel,
		"log_format":          d.LogFormat,
		"strict_parts":        false,
		"columns.pn":          d.Columns.PN,
		"columns.qty":         d.Columns.QTY,
		"columns.pkg_qty":     d.Columns.PkgQTY,
		"columns.pkg_price":   d.Columns.PkgPrice,
		"columns.cost":        d.Columns.Cost,
		"columns.name":        d.Columns.Name,
		"columns.description": d.Columns.Description,
		"columns.type":        d.Columns.Type,
	}
}

// envKey maps LEAPBOM_LOG_LEVEL to log_level and LEAPBOM_COLUMNS__PN to
// columns.pn.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
//
// An empty cfgFile searches leapbom.yaml upward from the working directory.
// Only flags that were explicitly set are applied.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaultValues(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	path := cfgFile
	if path == "" {
		if cwd, err := os.Getwd(); err == nil {
			path = findConfigUpward(cwd)
		}
	}
	if path != "" {
		fk := koanf.New(".")
		if err := fk.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
		base := filepath.Dir(path)
		for _, key := range pathKeys {
			if v := fk.String(key); v != "" {
				_ = fk.Set(key, resolvePathRelativeTo(v, base))
			}
		}
		if err := k.Merge(fk); err != nil {
			return nil, fmt.Errorf("error merging config file %s: %w", path, err)
		}
	}

	// 3. Environment variables
	ek := koanf.New(".")
	if err := ek.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}
	overrideSource(k, ek)
	if err := k.Merge(ek); err != nil {
		return nil, fmt.Errorf("failed to merge env vars: %w", err)
	}

	// 4. Flags
	if flags != nil {
		fk := koanf.New(".")
		if err := fk.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
		overrideSource(k, fk)
		if err := k.Merge(fk); err != nil {
			return nil, fmt.Errorf("failed to merge flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ConfigFile = path

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// overrideSource clears the source key k holds from lower layers when layer
// sets only the other one, so a higher layer's file replaces a lower dir.
func overrideSource(k, layer *koanf.Koanf) {
	hasFile, hasDir := layer.String("file") != "", layer.String("dir") != ""
	switch {
	case hasFile && !hasDir:
		k.Delete("dir")
	case hasDir && !hasFile:
		k.Delete("file")
	}
}

// WithConfig stores cfg in ctx.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// GetConfig retrieves the config from the command context.
func GetConfig(ctx context.Context) *Config {
	if c, ok := ctx.Value(configKey{}).(*Config); ok {
		return c
	}
	return Default()
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

// NewLogger creates a logger writing to w. Unknown levels fall back to warn.
func NewLogger(levelStr, formatStr string, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(levelStr) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(formatStr) == "json" {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(handler)
}

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/leapstack-labs/leapbom/internal/bom"
	"github.com/leapstack-labs/leapbom/internal/cli/config"
	"github.com/leapstack-labs/leapbom/internal/render"
	"github.com/spf13/cobra"
)

// WatchOptions holds options for the watch command.
type WatchOptions struct {
	View     string
	Debounce time.Duration
}

var watchViews = []string{"tree", "summary", "aggregate"}

var watchedExts = []string{".csv", ".xlsx", ".yaml", ".yml", ".json", ".db", ".sqlite", ".sqlite3"}

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	opts := &WatchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-render the BOM whenever its source changes",
		Long: `Resolve the BOM, print a view of it, and print it again every time a file
of the source is written. Errors while the files are being edited are reported
and watching continues.`,
		Example: `  leapbom -d boms watch
  leapbom -f bom.xlsx watch --view summary`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.View, "view", "tree", "View to print: tree, summary, aggregate")
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", 200*time.Millisecond, "Wait this long after the last change before rebuilding")

	_ = cmd.RegisterFlagCompletionFunc("view", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return watchViews, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runWatch(cmd *cobra.Command, opts *WatchOptions) error {
	if !slices.Contains(watchViews, opts.View) {
		return fmt.Errorf("invalid view %q (valid: %s)", opts.View, strings.Join(watchViews, ", "))
	}

	cfg := config.GetConfig(cmd.Context())
	logger := config.GetLogger(cmd.Context())
	format, err := resolveFormat(cfg.OutputFormat, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	path := cfg.Source()
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dir, only := path, ""
	if !info.IsDir() {
		dir, only = filepath.Dir(path), filepath.Base(path)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	s := &watchSession{
		cfg:      cfg,
		logger:   logger,
		path:     path,
		only:     only,
		view:     opts.View,
		format:   format,
		debounce: opts.Debounce,
		out:      cmd.OutOrStdout(),
		errOut:   cmd.ErrOrStderr(),
		clear:    isTerminal(cmd.OutOrStdout()),
	}
	return s.run(cmd.Context(), watcher.Events, watcher.Errors)
}

// watchSession rebuilds and prints the BOM on file events. All work happens
// on the goroutine calling run.
type watchSession struct {
	cfg      *config.Config
	logger   *slog.Logger
	path     string
	only     string // base name to react to, when watching a single file
	view     string
	format   render.Format
	debounce time.Duration
	out      io.Writer
	errOut   io.Writer
	clear    bool
}

func (s *watchSession) run(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) error {
	s.rebuild(ctx)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-events:
			if !ok {
				return nil
			}
			if !s.relevant(event) {
				continue
			}
			s.logger.Debug("source changed", "file", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(s.debounce)
			} else {
				timer.Reset(s.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			s.rebuild(ctx)

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}

func (s *watchSession) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(event.Name)
	if s.only != "" {
		return base == s.only
	}
	if strings.HasPrefix(base, "~") || strings.HasPrefix(base, "_") || strings.HasPrefix(base, ".") {
		return false
	}
	return slices.Contains(watchedExts, strings.ToLower(filepath.Ext(base)))
}

func (s *watchSession) rebuild(ctx context.Context) {
	if s.clear {
		_, _ = io.WriteString(s.out, "\x1b[H\x1b[2J")
	}
	_, _ = fmt.Fprintf(s.out, "%s (updated %s)\n\n", s.path, time.Now().Format("15:04:05"))

	tree, _, err := loadTree(ctx, s.cfg, s.path, s.logger)
	if err != nil {
		_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
		return
	}
	if err := s.print(tree.Root()); err != nil {
		_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
	}
}

func (s *watchSession) print(top bom.Assembly) error {
	switch s.view {
	case "summary":
		t := render.SummaryTable(top)
		if err := render.Table(s.out, t, s.format); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(s.out, "Total cost: %.2f\n", bom.TotalCost(t))
		return nil
	case "aggregate":
		return render.Table(s.out, render.AggregateTable(top), s.format)
	default:
		return render.Tree(s.out, top, render.TreeOptions{QTY: true})
	}
}

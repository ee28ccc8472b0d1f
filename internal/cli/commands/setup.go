package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/leapstack-labs/leapbom/internal/bom"
	"github.com/leapstack-labs/leapbom/internal/cli/config"
	"github.com/leapstack-labs/leapbom/internal/render"
	"github.com/leapstack-labs/leapbom/internal/source"
	"github.com/leapstack-labs/leapbom/internal/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
	Tree   *bom.Tree
	// Origin is the path the BOM was loaded from.
	Origin string
	Format render.Format
	Out    io.Writer
	Err    io.Writer
}

// NewCommandContext loads and resolves the configured BOM source. A single
// positional argument overrides the configured source path.
func NewCommandContext(cmd *cobra.Command, args []string) (*CommandContext, error) {
	cfg := config.GetConfig(cmd.Context())
	logger := config.GetLogger(cmd.Context())

	format, err := resolveFormat(cfg.OutputFormat, cmd.OutOrStdout())
	if err != nil {
		return nil, err
	}

	path := cfg.Source()
	if len(args) > 0 && args[0] != "" {
		path = args[0]
	}
	tree, origin, err := loadTree(cmd.Context(), cfg, path, logger)
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Cfg:    cfg,
		Logger: logger,
		Tree:   tree,
		Origin: origin,
		Format: format,
		Out:    cmd.OutOrStdout(),
		Err:    cmd.ErrOrStderr(),
	}, nil
}

// RenderTable writes t in the selected output format.
func (c *CommandContext) RenderTable(t *table.Table) error {
	return render.Table(c.Out, t, c.Format)
}

func loadTree(ctx context.Context, cfg *config.Config, path string, logger *slog.Logger) (*bom.Tree, string, error) {
	logger.Debug("loading BOM", "source", path)
	w, err := source.Load(ctx, path, cfg.SourceOptions(logger))
	if err != nil {
		return nil, "", fmt.Errorf("failed to load %s: %w", path, err)
	}
	tree, err := w.Build(cfg.BOMOptions(logger))
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve %s: %w", w.Origin, err)
	}
	logger.Debug("resolved BOM", "root", tree.Root().PN(), "nodes", tree.Len())
	return tree, w.Origin, nil
}

// resolveFormat maps the output setting to a render format. "auto" picks
// the boxed table on a terminal and markdown otherwise.
func resolveFormat(output string, w io.Writer) (render.Format, error) {
	if strings.EqualFold(output, config.DefaultOutput) {
		if isTerminal(w) {
			return render.FormatTable, nil
		}
		return render.FormatMarkdown, nil
	}
	return render.ParseFormat(output)
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

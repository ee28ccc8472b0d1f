package commands

import (
	"errors"

	"github.com/leapstack-labs/leapbom/internal/browser"
	"github.com/leapstack-labs/leapbom/internal/repl"
	"github.com/spf13/cobra"
)

var errNoTerminal = errors.New("the browser needs an interactive terminal")

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl [SOURCE]",
		Short: "Start the interactive shell",
		Long: `Start an interactive shell over a BOM. The shell prints the tree and then
accepts commands such as tree, summary, aggregate and where-used. Type help for
the full list.

SOURCE is a directory, workbook or SQLite file and defaults to the configured
source or the current directory.`,
		Example: `  leapbom repl
  leapbom repl ./boms`,
		Args: cobra.MaximumNArgs(1),
		RunE: RunREPL,
	}
}

// RunREPL loads the BOM and runs the shell until the user quits.
func RunREPL(cmd *cobra.Command, args []string) error {
	c, err := NewCommandContext(cmd, args)
	if err != nil {
		return err
	}

	cfg := repl.Config{
		Tree:        c.Tree,
		Origin:      c.Origin,
		Out:         c.Out,
		Err:         c.Err,
		Format:      c.Format,
		HistoryFile: c.Cfg.HistoryFile,
	}
	if !isTerminal(cmd.InOrStdin()) {
		// Piped input runs as a script.
		return repl.New(cfg).RunScript(cmd.Context(), cmd.InOrStdin())
	}
	if isTerminal(c.Out) {
		cfg.Browse = browser.Run
	}
	return repl.New(cfg).Run(cmd.Context())
}

// NewBrowseCommand creates the browse command.
func NewBrowseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse [ASSEMBLY]",
		Short: "Browse the BOM interactively",
		Long: `Open a full-screen browser on the BOM. Use the arrow keys to move, enter
to open an assembly or part, esc to go back and q to quit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := NewCommandContext(cmd, nil)
			if err != nil {
				return err
			}
			a, err := pickAssembly(c.Tree, args)
			if err != nil {
				return err
			}
			if !isTerminal(cmd.InOrStdin()) || !isTerminal(c.Out) {
				return errNoTerminal
			}
			return browser.Run(a)
		},
	}
}

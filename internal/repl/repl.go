// Package repl implements the interactive leapbom shell.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/leapstack-labs/leapbom/internal/bom"
	"github.com/leapstack-labs/leapbom/internal/render"
	"github.com/leapstack-labs/leapbom/internal/table"
)

const prompt = "bom> "

// Config configures a Shell.
type Config struct {
	Tree *bom.Tree
	// Origin is the source path shown in the banner.
	Origin      string
	Out         io.Writer
	Err         io.Writer
	Format      render.Format
	HistoryFile string
	// Browse opens the interactive browser on an assembly. Nil disables the
	// browse command.
	Browse func(a bom.Assembly) error
}

// Shell runs BOM queries typed one per line.
type Shell struct {
	cfg Config
}

// New creates a shell. Out and Err default to the process streams.
func New(cfg Config) *Shell {
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Err == nil {
		cfg.Err = os.Stderr
	}
	if cfg.Format == "" {
		cfg.Format = render.FormatTable
	}
	return &Shell{cfg: cfg}
}

type command struct {
	name  string
	args  string
	help  string
	run   func(s *Shell, args []string) error
	takes bool // completes a part number argument
}

var commands []command

func init() {
	commands = []command{
		{name: "tree", args: "[ASSEMBLY]", help: "Show the BOM hierarchy", run: (*Shell).doTree},
		{name: "parts", help: "List the parts used, with name and description", run: (*Shell).doParts},
		{name: "assemblies", help: "List all assemblies depth-first", run: (*Shell).doAssemblies},
		{name: "flat", help: "List every part placement", run: (*Shell).doFlat},
		{name: "aggregate", help: "Total quantity of each part", run: (*Shell).doAggregate},
		{name: "summary", help: "Purchasing and cost summary", run: (*Shell).doSummary},
		{name: "dot", help: "Print the BOM as a Graphviz graph", run: (*Shell).doDOT},
		{name: "levels", help: "Low-level code of every part number", run: (*Shell).doLevels},
		{name: "where-used", args: "PN", help: "Assemblies that use a part", run: (*Shell).doWhereUsed, takes: true},
		{name: "qty", args: "PN [ASSEMBLY]", help: "Total quantity of a part, or its quantity in one assembly", run: (*Shell).doQTY, takes: true},
		{name: "browse", help: "Open the interactive browser", run: (*Shell).doBrowse},
		{name: "help", help: "Show this help message", run: (*Shell).doHelp},
		{name: "quit", help: "Exit the shell"},
		{name: "exit", help: "Exit the shell"},
	}
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

// Exec runs a single command line and reports whether the shell should
// exit. Command errors are written to Err.
func (s *Shell) Exec(line string) (quit bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	fields := strings.Fields(line)
	name := strings.ToLower(fields[0])

	if name == "quit" || name == "exit" {
		return true
	}
	c, ok := lookup(name)
	if !ok {
		_, _ = fmt.Fprintf(s.cfg.Out, "Unknown command: %q  (type 'help' for commands)\n", line)
		return false
	}
	if err := c.run(s, fields[1:]); err != nil {
		_, _ = fmt.Fprintf(s.cfg.Err, "Error: %v\n", err)
	}
	return false
}

// Run prints the banner and the tree, then reads commands until quit, EOF
// or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     s.cfg.HistoryFile,
		AutoComplete:    s.Completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
		Stdout:          s.cfg.Out,
		Stderr:          s.cfg.Err,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	s.Banner()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			_, _ = fmt.Fprintln(s.cfg.Out)
			return nil
		}
		if err != nil {
			return err
		}
		if s.Exec(line) {
			return nil
		}
	}
}

// RunScript executes the commands read from r, one per line, without the
// banner or prompt. It stops at quit or end of input.
func (s *Shell) RunScript(ctx context.Context, r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.Exec(sc.Text()) {
			return nil
		}
	}
	return sc.Err()
}

// Banner prints the welcome message followed by the tree.
func (s *Shell) Banner() {
	_, _ = fmt.Fprintf(s.cfg.Out, "leapbom shell (source: %s)\n", s.cfg.Origin)
	_, _ = fmt.Fprintln(s.cfg.Out, "Type help for commands, quit to exit")
	_, _ = fmt.Fprintln(s.cfg.Out)
	_ = render.Tree(s.cfg.Out, s.cfg.Tree.Root(), render.TreeOptions{})
	_, _ = fmt.Fprintln(s.cfg.Out)
}

// Completer completes command names and, for commands taking a part
// number, the part numbers in the tree.
func (s *Shell) Completer() *readline.PrefixCompleter {
	var pns []readline.PrefixCompleterInterface
	seen := make(map[string]bool)
	_ = s.cfg.Tree.Root().Walk(func(n bom.Node, _ int) error {
		if !seen[n.PN()] {
			seen[n.PN()] = true
			pns = append(pns, readline.PcItem(n.PN()))
		}
		return nil
	})

	items := make([]readline.PrefixCompleterInterface, 0, len(commands))
	for _, c := range commands {
		if c.takes {
			items = append(items, readline.PcItem(c.name, pns...))
			continue
		}
		items = append(items, readline.PcItem(c.name))
	}
	return readline.NewPrefixCompleter(items...)
}

func (s *Shell) root() bom.Assembly {
	return s.cfg.Tree.Root()
}

func (s *Shell) table(t *table.Table) error {
	return render.Table(s.cfg.Out, t, s.cfg.Format)
}

func (s *Shell) assembly(args []string) (bom.Assembly, error) {
	if len(args) == 0 {
		return s.root(), nil
	}
	a, ok := s.cfg.Tree.Assembly(args[0])
	if !ok {
		return bom.Assembly{}, fmt.Errorf("no assembly %q", args[0])
	}
	return a, nil
}

func (s *Shell) doTree(args []string) error {
	a, err := s.assembly(args)
	if err != nil {
		return err
	}
	return render.Tree(s.cfg.Out, a, render.TreeOptions{QTY: true})
}

func (s *Shell) doParts(_ []string) error {
	t := render.PartsTable(s.root())
	if t.Len() == 0 {
		_, _ = fmt.Fprintln(s.cfg.Out, "No parts found.")
		return nil
	}
	return s.table(t)
}

func (s *Shell) doAssemblies(_ []string) error {
	return s.table(render.AssembliesTable(s.root()))
}

func (s *Shell) doFlat(_ []string) error {
	return s.table(render.FlatTable(s.root()))
}

func (s *Shell) doAggregate(_ []string) error {
	return s.table(render.AggregateTable(s.root()))
}

func (s *Shell) doSummary(_ []string) error {
	t := render.SummaryTable(s.root())
	if err := s.table(t); err != nil {
		return err
	}
	if s.cfg.Format == render.FormatTable {
		_, _ = fmt.Fprintf(s.cfg.Out, "Total cost: %.2f\n", bom.TotalCost(t))
	}
	return nil
}

func (s *Shell) doDOT(_ []string) error {
	return render.DOT(s.cfg.Out, s.root())
}

func (s *Shell) doLevels(_ []string) error {
	t, err := render.LevelsTable(s.cfg.Tree)
	if err != nil {
		return err
	}
	return s.table(t)
}

func (s *Shell) doWhereUsed(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: where-used PN")
	}
	if _, ok := s.cfg.Tree.Lookup(args[0]); !ok {
		return fmt.Errorf("%s is not used in this BOM", args[0])
	}
	return s.table(render.WhereUsedTable(s.cfg.Tree, args[0]))
}

func (s *Shell) doQTY(args []string) error {
	switch len(args) {
	case 1:
		n, ok := s.root().Aggregate().Get(args[0])
		if !ok {
			return fmt.Errorf("%s is not used in this BOM", args[0])
		}
		_, _ = fmt.Fprintf(s.cfg.Out, "%s: %d\n", args[0], n)
	case 2:
		a, err := s.assembly(args[1:])
		if err != nil {
			return err
		}
		n, ok := a.QTY(args[0])
		if !ok {
			return fmt.Errorf("%s has no quantity for %s", a.PN(), args[0])
		}
		_, _ = fmt.Fprintf(s.cfg.Out, "%s in %s: %d\n", args[0], a.PN(), n)
	default:
		return errors.New("usage: qty PN [ASSEMBLY]")
	}
	return nil
}

func (s *Shell) doBrowse(_ []string) error {
	if s.cfg.Browse == nil {
		return errors.New("browse is not available here")
	}
	return s.cfg.Browse(s.root())
}

func (s *Shell) doHelp(_ []string) error {
	_, _ = fmt.Fprintln(s.cfg.Out, "Commands:")
	for _, c := range commands {
		name := c.name
		if c.args != "" {
			name += " " + c.args
		}
		_, _ = fmt.Fprintf(s.cfg.Out, "  %-22s %s\n", name, c.help)
	}
	return nil
}

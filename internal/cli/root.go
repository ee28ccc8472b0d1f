// Package cli provides the command-line interface for leapbom.
package cli

import (
	"fmt"
	"os"

	"github.com/leapstack-labs/leapbom/internal/cli/commands"
	"github.com/leapstack-labs/leapbom/internal/cli/config"
	"github.com/spf13/cobra"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// skipConfig lists commands that run without loading configuration.
var skipConfig = map[string]bool{
	"help":             true,
	"completion":       true,
	"__complete":       true,
	"__completeNoDesc": true,
	"version":          true,
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "leapbom [SOURCE]",
		Short: "leapbom - hierarchical bill of materials engine",
		Long: `leapbom resolves a bill of materials spread over several tables into a
hierarchy of assemblies and parts, and reports on it: the tree, total
quantities, a purchasing summary and more.

A source is a directory of CSV or Excel files, a single workbook (.xlsx,
.yaml or .json) or a SQLite database. One table is the parts list; every other
table lists the rows of the assembly it is named after.

Run without a subcommand to start the interactive shell on SOURCE, the
configured source, or the current directory.`,
		Example: `  leapbom                      # shell on the current directory
  leapbom ./boms               # shell on ./boms
  leapbom -d boms tree
  leapbom -f bom.xlsx summary -o csv`,
		Version: Version,
		Args:    cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if skipConfig[cmd.Name()] {
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			level := cfg.LogLevel
			if cfg.Verbose {
				level = "debug"
			}
			logger := config.NewLogger(level, cfg.LogFormat, cmd.ErrOrStderr())

			ctx := config.WithConfig(cmd.Context(), cfg)
			ctx = config.WithLogger(ctx, logger)
			cmd.SetContext(ctx)

			if cfg.ConfigFile != "" {
				logger.Debug("using config file", "path", cfg.ConfigFile)
			}
			return nil
		},
		RunE:          commands.RunREPL,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} {{.Version}} (commit %s, built %s)\n", GitCommit, BuildDate))

	// Global persistent flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: leapbom.yaml, searched upward)")
	flags.StringP("file", "f", "", "Single BOM workbook or SQLite database")
	flags.StringP("dir", "d", "", "Directory of BOM spreadsheets")
	flags.String("parts-name", "", `Name of the parts list table (default "Parts list")`)
	flags.Bool("strict-parts", false, "Fail on duplicate part numbers in the parts list")
	flags.StringP("output", "o", "", "Output format (auto|table|json|csv|markdown)")
	flags.BoolP("verbose", "v", false, "Verbose output")
	flags.String("log-level", "", "Log level (debug|info|warn|error)")
	flags.String("log-format", "", "Log format (text|json)")
	flags.String("history-file", "", "Shell history file")
	rootCmd.MarkFlagsMutuallyExclusive("file", "dir")

	// Register completion for output flag
	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "table", "json", "csv", "markdown"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewTreeCommand())
	rootCmd.AddCommand(commands.NewDOTCommand())
	rootCmd.AddCommand(commands.NewFlatCommand())
	rootCmd.AddCommand(commands.NewAggregateCommand())
	rootCmd.AddCommand(commands.NewSummaryCommand())
	rootCmd.AddCommand(commands.NewPartsCommand())
	rootCmd.AddCommand(commands.NewAssembliesCommand())
	rootCmd.AddCommand(commands.NewLevelsCommand())
	rootCmd.AddCommand(commands.NewWhereUsedCommand())
	rootCmd.AddCommand(commands.NewQTYCommand())
	rootCmd.AddCommand(commands.NewREPLCommand())
	rootCmd.AddCommand(commands.NewBrowseCommand())
	rootCmd.AddCommand(commands.NewWatchCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for leapbom.

To load completions:

Bash:
  $ source <(leapbom completion bash)

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ leapbom completion zsh > "${fpath[1]}/_leapbom"

Fish:
  $ leapbom completion fish | source

PowerShell:
  PS> leapbom completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}

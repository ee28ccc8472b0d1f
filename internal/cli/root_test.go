package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapbom/internal/cli/testutil"
)

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCmd_Views(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := testutil.SetupSampleDir(t)

	tests := []struct {
		name     string
		args     []string
		contains []string
	}{
		{"tree", []string{"tree"}, []string{"Top", "├── Sub", "└── Document D1"}},
		{"tree with qty", []string{"tree", "Sub", "--qty"}, []string{"Sub (x2)", "├── Part P3 (x6)"}},
		{"dot", []string{"dot"}, []string{"digraph tree {", `"Sub" -> "Bracket" [label="1"];`}},
		{"flat", []string{"flat"}, []string{"| P3 | Sub | 6 | Washer |"}},
		{"aggregate markdown by default", []string{"aggregate"}, []string{"| P2 | Nut M3 | 12 |"}},
		{"aggregate csv", []string{"aggregate", "-o", "csv"}, []string{"P1,Bolt M3,10"}},
		{"summary table", []string{"summary", "-o", "table"}, []string{"Bolt M3", "Total cost: 8.84"}},
		{"parts", []string{"parts"}, []string{"| P1 | Bolt M3 | Hex bolt |"}},
		{"assemblies", []string{"assemblies"}, []string{"| Sub | Motor module |"}},
		{"levels", []string{"levels"}, []string{"| 0 | Top | assembly |"}},
		{"where-used", []string{"where-used", "P1"}, []string{"| P1 | Bracket, Top |"}},
		{"qty", []string{"qty", "P1"}, []string{"P1: 10"}},
		{"qty in assembly", []string{"qty", "P1", "--in", "Bracket"}, []string{"P1 in Bracket: 2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, "", append([]string{"-d", dir}, tt.args...)...)
			require.NoError(t, err)
			testutil.AssertNoANSI(t, out)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestRootCmd_Errors(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := testutil.SetupSampleDir(t)

	tests := []struct {
		name    string
		args    []string
		errText string
	}{
		{"unknown assembly", []string{"-d", dir, "tree", "Nope"}, `no assembly "Nope"`},
		{"unused part", []string{"-d", dir, "where-used", "GHOST"}, "GHOST is not used"},
		{"qty missing in assembly", []string{"-d", dir, "qty", "P3", "--in", "Top"}, "Top has no quantity for P3"},
		{"bad output", []string{"-d", dir, "-o", "xml", "tree"}, `invalid output "xml"`},
		{"file and dir", []string{"-d", dir, "-f", "bom.xlsx", "tree"}, "file"},
		{"missing source", []string{"-d", filepath.Join(dir, "nope"), "tree"}, "failed to load"},
		{"browse needs a terminal", []string{"-d", dir, "browse"}, "interactive terminal"},
		{"bad watch view", []string{"-d", dir, "watch", "--view", "dot"}, `invalid view "dot"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}

func TestRootCmd_DefaultREPL(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := testutil.SetupSampleDir(t)

	out, errOut, err := execute(t, "qty P3\nfrobnicate\nquit\n", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "P3: 12")
	assert.Contains(t, out, `Unknown command: "frobnicate"`)
	assert.Empty(t, errOut)
}

func TestRootCmd_REPLCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := testutil.SetupSampleDir(t)

	out, _, err := execute(t, "where-used P2\n", "-o", "md", "repl", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "| P2 | Bracket, Sub | Bracket, Sub, Top |")
}

func TestRootCmd_ConfigFile(t *testing.T) {
	dir := testutil.SetupSampleDir(t)
	work := t.TempDir()
	cfg := "dir: " + dir + "\noutput: csv\n"
	require.NoError(t, os.WriteFile(filepath.Join(work, "leapbom.yaml"), []byte(cfg), 0600))
	t.Chdir(work)

	out, _, err := execute(t, "", "aggregate")
	require.NoError(t, err)
	assert.Contains(t, out, "P3,Washer,12")
}

func TestRootCmd_StrictParts(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := testutil.SetupSampleDir(t)
	parts := filepath.Join(dir, "Parts list.csv")
	f, err := os.OpenFile(parts, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("P1,Bolt M3 again,,,,,\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	out, errOut, err := execute(t, "", "-d", dir, "qty", "P1")
	require.NoError(t, err)
	assert.Contains(t, out, "P1: 10")
	assert.Contains(t, errOut, "duplicate part number", "the duplicate is logged as a warning")

	_, _, err = execute(t, "", "-d", dir, "--strict-parts", "qty", "P1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate part")
}

func TestRootCmd_Version(t *testing.T) {
	out, _, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "leapbom v"+Version)

	out, _, err = execute(t, "", "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "leapbom "+Version)
}

func TestRootCmd_Completion(t *testing.T) {
	out, _, err := execute(t, "", "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "bash completion")

	_, _, err = execute(t, "", "completion", "tcsh")
	assert.Error(t, err)
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()
	want := []string{
		"tree", "dot", "flat", "aggregate", "summary", "parts", "assemblies",
		"levels", "where-used", "qty", "repl", "browse", "watch", "version", "completion",
	}
	for _, name := range want {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}

	for _, flag := range []string{"file", "dir", "config", "output", "verbose", "parts-name", "strict-parts", "log-level", "log-format"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}
}

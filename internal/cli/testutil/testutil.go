// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/leapbom/internal/bom"
	"github.com/leapstack-labs/leapbom/internal/source"
)

// Sample BOM used across CLI, renderer and REPL tests:
//
//	Top
//	├── Part P1        x4
//	├── Sub            x2
//	│   ├── Part P2    x3
//	│   ├── Part P3    x6
//	│   └── Bracket    x1
//	│       ├── Part P1 x2
//	│       └── Part P2 x2
//	├── Bracket        x1
//	└── Document D1    x1
var sampleFiles = map[string]string{
	"Parts list.csv": `PN,Name,Description,Type,Cost,Pkg QTY,Pkg Price
P1,Bolt M3,Hex bolt,,0.10,100,8.00
P2,Nut M3,,,0.05,,
P3,Washer,,,0.02,,
D1,Assembly drawing,,document,,,
Sub,Motor module,Drive unit,,,,
Bracket,Bracket kit,,,,,
`,
	"Top.csv":     "PN,QTY\nP1,4\nSub,2\nBracket,1\nD1,1\n",
	"Sub.csv":     "PN,QTY\nP2,3\nP3,6\nBracket,1\n",
	"Bracket.csv": "PN,QTY\nP1,2\nP2,2\n",
}

// SetupSampleDir writes the sample BOM as CSV files into a temp directory
// and returns its path.
func SetupSampleDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range sampleFiles {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}
	return dir
}

// SampleTree loads and resolves the sample BOM.
func SampleTree(t *testing.T) *bom.Tree {
	t.Helper()

	w, err := source.LoadDir(context.Background(), SetupSampleDir(t), source.Options{})
	if err != nil {
		t.Fatalf("failed to load sample BOM: %v", err)
	}
	tree, err := w.Build(bom.Options{})
	if err != nil {
		t.Fatalf("failed to resolve sample BOM: %v", err)
	}
	return tree
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertLines checks that s consists of exactly the expected lines.
func AssertLines(t *testing.T, s string, expected ...string) {
	t.Helper()
	got := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(got) != len(expected) {
		t.Errorf("got %d lines, want %d:\n%s", len(got), len(expected), s)
		return
	}
	for i := range got {
		if got[i] != expected[i] {
			t.Errorf("line %d = %q, want %q", i+1, got[i], expected[i])
		}
	}
}

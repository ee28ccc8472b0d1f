package repl

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapbom/internal/bom"
	"github.com/leapstack-labs/leapbom/internal/cli/testutil"
	"github.com/leapstack-labs/leapbom/internal/render"
)

func newTestShell(t *testing.T) (*Shell, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	s := New(Config{
		Tree:   testutil.SampleTree(t),
		Origin: "testdata",
		Out:    out,
		Err:    errOut,
		Format: render.FormatMarkdown,
	})
	return s, out, errOut
}

func TestExec_Commands(t *testing.T) {
	tests := []struct {
		line     string
		contains []string
	}{
		{"tree", []string{"Top", "├── Sub (x2)", "└── Document D1 (x1)"}},
		{"tree Bracket", []string{"Bracket", "├── Part P1 (x2)"}},
		{"parts", []string{"| P1 | Bolt M3 | Hex bolt |", "| D1 |"}},
		{"assemblies", []string{"| Top |", "| Sub | Motor module |"}},
		{"flat", []string{"| P3 | Sub | 6 | Washer |"}},
		{"aggregate", []string{"| P2 | Nut M3 | 12 |"}},
		{"summary", []string{"Subtotal", "| P1 |"}},
		{"dot", []string{"digraph tree {", `"Top" -> "Sub" [label="2"];`}},
		{"levels", []string{"| 3 | P1 | part |"}},
		{"where-used P2", []string{"| P2 | Bracket, Sub | Bracket, Sub, Top |"}},
		{"qty P1", []string{"P1: 10"}},
		{"qty P3 Sub", []string{"P3 in Sub: 6"}},
		{"HELP", []string{"where-used PN", "Exit the shell"}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			s, out, errOut := newTestShell(t)
			assert.False(t, s.Exec(tt.line))
			assert.Empty(t, errOut.String())
			for _, want := range tt.contains {
				assert.Contains(t, out.String(), want)
			}
		})
	}
}

func TestExec_Errors(t *testing.T) {
	tests := []struct {
		line   string
		errMsg string
	}{
		{"tree Nope", `no assembly "Nope"`},
		{"where-used", "usage: where-used PN"},
		{"where-used GHOST", "GHOST is not used"},
		{"qty", "usage: qty PN"},
		{"qty GHOST", "GHOST is not used"},
		{"qty P3 Top", "Top has no quantity for P3"},
		{"browse", "browse is not available"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			s, _, errOut := newTestShell(t)
			assert.False(t, s.Exec(tt.line))
			assert.Contains(t, errOut.String(), "Error: "+tt.errMsg)
		})
	}
}

func TestExec_QuitAndEmpty(t *testing.T) {
	s, out, _ := newTestShell(t)

	assert.False(t, s.Exec("   "))
	assert.Empty(t, out.String())
	assert.True(t, s.Exec("quit"))
	assert.True(t, s.Exec("exit"))
	assert.True(t, s.Exec(" EXIT "))
}

func TestExec_Unknown(t *testing.T) {
	s, out, _ := newTestShell(t)
	assert.False(t, s.Exec("frobnicate now"))
	assert.Equal(t, "Unknown command: \"frobnicate now\"  (type 'help' for commands)\n", out.String())
}

func TestExec_Browse(t *testing.T) {
	var browsed string
	s := New(Config{
		Tree: testutil.SampleTree(t),
		Out:  &bytes.Buffer{},
		Err:  &bytes.Buffer{},
		Browse: func(a bom.Assembly) error {
			browsed = a.PN()
			return nil
		},
	})
	assert.False(t, s.Exec("browse"))
	assert.Equal(t, "Top", browsed)
}

func TestBanner(t *testing.T) {
	s, out, _ := newTestShell(t)
	s.Banner()
	assert.Contains(t, out.String(), "leapbom shell (source: testdata)")
	assert.Contains(t, out.String(), "└── Document D1")
}

func TestCompleter(t *testing.T) {
	s, _, _ := newTestShell(t)
	c := s.Completer()

	line := []rune("where-used P")
	candidates, _ := c.Do(line, len(line))
	var got []string
	for _, cand := range candidates {
		got = append(got, string(cand))
	}
	require.NotEmpty(t, got)
	assert.ElementsMatch(t, []string{"1 ", "2 ", "3 "}, got)
}

func TestRunScript(t *testing.T) {
	s, out, errOut := newTestShell(t)
	script := "qty P1\n\nqty GHOST\nquit\nqty P2\n"

	require.NoError(t, s.RunScript(context.Background(), strings.NewReader(script)))
	assert.Equal(t, "P1: 10\n", out.String(), "commands after quit are not run")
	assert.Contains(t, errOut.String(), "GHOST is not used")
}

func TestRunScript_Cancelled(t *testing.T) {
	s, out, _ := newTestShell(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.RunScript(ctx, strings.NewReader("qty P1\n"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String())
}

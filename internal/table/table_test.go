package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCell(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"", nil},
		{"  ", nil},
		{"12", int64(12)},
		{"-3", int64(-3)},
		{"2.50", 2.5},
		{"TRUE", true},
		{"false", false},
		{"NaN", nil},
		{"M3 screw", "M3 screw"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCell(tt.in))
		})
	}
}

func TestFromRecords_KeepsTextColumns(t *testing.T) {
	tbl := FromRecords("Parts list",
		[]string{"PN", "QTY", ""},
		[][]string{
			{"0042", "3", "x"},
			{"", "", ""},
			{"P7", "", ""},
		},
		"PN",
	)

	assert.Equal(t, []string{"PN", "QTY", "Unnamed: 2"}, tbl.Columns)
	require.Len(t, tbl.Rows, 2, "blank records are skipped")
	assert.Equal(t, "0042", tbl.Rows[0]["PN"])
	assert.Equal(t, int64(3), tbl.Rows[0]["QTY"])
	_, ok := tbl.Rows[1].Get("QTY")
	assert.False(t, ok)
}

func TestAsInt(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int64
		ok   bool
	}{
		{"int64", int64(4), 4, true},
		{"whole float", 4.0, 4, true},
		{"fraction", 2.5, 0, false},
		{"numeric text", "7", 7, true},
		{"text", "abc", 0, false},
		{"nil", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := AsInt(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClone_IsIndependent(t *testing.T) {
	orig := New("parts", "PN", "Cost")
	orig.Append("P1", 1.5)

	c := orig.Clone()
	c.AddColumn("Total QTY")
	c.Rows[0]["Cost"] = 9.0

	assert.Equal(t, []string{"PN", "Cost"}, orig.Columns)
	assert.Equal(t, 1.5, orig.Rows[0]["Cost"])
}

func TestDropEmptyColumns(t *testing.T) {
	tbl := New("s", "PN", "Notes", "Cost")
	tbl.Append("P1", nil, 2.0)
	tbl.Append("P2", "", nil)

	got := tbl.DropEmptyColumns()
	assert.Equal(t, []string{"PN", "Cost"}, got.Columns)
	assert.Len(t, got.Rows, 2)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "1001", FormatValue(1001.0))
	assert.Equal(t, "2.25", FormatValue(2.25))
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "true", FormatValue(true))
}

package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestTable_Rows(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTableTo(&buf, "ADDRESS", "RESULT")
	tbl.Row("10.0.0.5", "ok")
	tbl.Row("10.0.0.17", "fetch-failed")
	tbl.Flush()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("lines = %d, want 4:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "ADDRESS") || !strings.Contains(lines[0], "RESULT") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "-------") {
		t.Errorf("divider = %q", lines[1])
	}
	// Columns are aligned: RESULT starts at the same offset on every line.
	col := strings.Index(lines[0], "RESULT")
	if strings.Index(lines[2], "ok") != col || strings.Index(lines[3], "fetch-failed") != col {
		t.Errorf("columns not aligned:\n%s", buf.String())
	}
}

func TestTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewTableTo(&buf, "ADDRESS", "RESULT").Flush()
	if buf.Len() != 0 {
		t.Errorf("empty table printed %q", buf.String())
	}
}

func TestTable_Prefix(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTableTo(&buf, "RULE").WithPrefix("  ")
	tbl.Row("MTU")
	tbl.Flush()

	for _, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		if !strings.HasPrefix(line, "  ") {
			t.Errorf("line %q missing prefix", line)
		}
	}
}

package stats

import (
	"bytes"
	"testing"
)

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Dir", "Attempts", "Avg"}
	rows := [][]string{
		{"A→D", "12", "81ms"},
		{"D→A", "3", "104ms"},
	}
	rightAlign := map[int]bool{1: true, 2: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Dir Attempts   Avg" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "A→D       12  81ms" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "D→A        3 104ms" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableCountsWideGlyphs(t *testing.T) {
	lines := formatTable([]string{"★", "n"}, [][]string{{"ab", "1"}}, nil)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if displayWidth(lines[0]) != displayWidth(lines[1]) {
		t.Fatalf("rows not aligned: %q vs %q", lines[0], lines[1])
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTable(&buf, []string{"Path", "Readable"}, [][]string{{"/dev/input/event3", "yes"}})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "Path              Readable\n/dev/input/event3 yes     \n"
	if buf.String() != want {
		t.Fatalf("unexpected table:\n%q\nwant\n%q", buf.String(), want)
	}
}

package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

// captureOutput swaps the package stdout for a buffer while f runs.
// It is NOT safe for parallel use.
func captureOutput(t *testing.T, f func()) string {
	t.Helper()

	var buf bytes.Buffer
	orig := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = orig })

	f()

	return buf.String()
}

func withFormat(t *testing.T, f string) {
	t.Helper()

	orig := flagFmt
	flagFmt = f
	t.Cleanup(func() { flagFmt = orig })
}

func TestFormatJSON(t *testing.T) {
	type sample struct {
		ID    string `json:"id"`
		Depth int    `json:"depth"`
	}

	got := captureOutput(t, func() { formatJSON(sample{ID: "AAPL US", Depth: 2}) })

	var out sample
	if err := json.Unmarshal([]byte(got), &out); err != nil {
		t.Fatalf("output is not valid JSON: %v\noutput: %s", err, got)
	}
	if out.ID != "AAPL US" || out.Depth != 2 {
		t.Errorf("got %+v", out)
	}
	if !strings.Contains(got, "\n  ") {
		t.Errorf("expected indented JSON, got %q", got)
	}
}

func TestFormatTable(t *testing.T) {
	got := captureOutput(t, func() {
		formatTable([]string{"ID", "DEPTH"}, [][]string{{"AAPL US", "0"}, {"TSM", "1"}})
	})

	lines := strings.Split(strings.TrimSpace(got), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), got)
	}
	if lines[0] != "ID       DEPTH" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "-------  -----" {
		t.Errorf("separator = %q", lines[1])
	}
	if lines[3] != "TSM      1" {
		t.Errorf("row = %q", lines[3])
	}
}

func TestOutput_Formats(t *testing.T) {
	v := map[string]string{"id": "A"}
	headers := []string{"ID"}
	rows := [][]string{{"A"}, {"B"}}
	ids := []string{"A", "B"}

	tests := []struct {
		format string
		want   string
	}{
		{format: "quiet", want: "A\nB\n"},
		{format: "table", want: "ID\n--\nA\nB\n"},
		{format: "json", want: "{\n  \"id\": \"A\"\n}\n"},
	}

	for _, tc := range tests {
		t.Run(tc.format, func(t *testing.T) {
			withFormat(t, tc.format)

			got := captureOutput(t, func() { output(v, headers, rows, ids) })
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

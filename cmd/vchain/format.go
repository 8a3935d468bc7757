package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// stdout is swapped out by tests.
var stdout io.Writer = os.Stdout

func formatJSON(v any) {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fatal("encode json", err)
	}
}

// formatTable writes left-aligned columns two spaces apart under a dashed rule.
func formatTable(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)

	rule := make([]string, len(headers))
	for i, h := range headers {
		width := len(h)
		for _, row := range rows {
			if i < len(row) && len(row[i]) > width {
				width = len(row[i])
			}
		}
		rule[i] = strings.Repeat("-", width)
	}

	for _, line := range append([][]string{headers, rule}, rows...) {
		fmt.Fprintln(tw, strings.Join(line, "\t"))
	}

	if err := tw.Flush(); err != nil {
		fatal("write table", err)
	}
}

// output renders v in the selected format. table renders headers and rows;
// quiet prints one identifier per line.
func output(v any, headers []string, rows [][]string, ids []string) {
	switch flagFmt {
	case "quiet":
		for _, id := range ids {
			fmt.Fprintln(stdout, id)
		}
	case "table":
		formatTable(headers, rows)
	default:
		formatJSON(v)
	}
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	os.Exit(1)
}

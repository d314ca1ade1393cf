package evaltable

import (
	"strconv"
	"strings"
)

// Encode renders a table back into the pipe-delimited text form the decoder
// accepts under the same Config. columns fixes the value-column order; the
// row-key column is emitted first. Meant as the reference encoder for
// round-trip checks and debug output, not as an engine-accurate printer.
func Encode(t *Table, columns []string, cfg Config) string {
	rowKeyCol := cfg.RowKeyColumn
	if rowKeyCol == "" {
		rowKeyCol = DefaultRowKeyColumn
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		sb.WriteString(delimiter)
		for _, c := range cells {
			sb.WriteString(" ")
			sb.WriteString(c)
			sb.WriteString(" ")
			sb.WriteString(delimiter)
		}
		sb.WriteString("\n")
	}

	header := append([]string{rowKeyCol}, columns...)
	writeRow(header)

	for _, key := range t.Keys() {
		row, _ := t.Row(key)
		cells := []string{key}
		for _, col := range columns {
			pair, ok := row[col]
			if !ok {
				cells = append(cells, "")
				continue
			}
			cells = append(cells, formatToken(pair.Mg, cfg.Sentinel)+" "+formatToken(pair.Eg, cfg.Sentinel))
		}
		writeRow(cells)
	}
	return sb.String()
}

func formatToken(v *float64, pos SentinelPosition) string {
	if v == nil {
		if pos == SentinelTrailing {
			return "----"
		}
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

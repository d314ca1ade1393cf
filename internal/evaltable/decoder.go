// Package evaltable decodes the pipe-delimited evaluation breakdown a chess
// engine prints for debugging into a keyed numeric table.
package evaltable

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	delimiter    = "|"
	sentinelRune = '-'

	// DefaultRowKeyColumn is the header cell that carries row labels.
	DefaultRowKeyColumn = "Term"
)

// SentinelPosition selects which end of a score token marks "no value".
type SentinelPosition int

const (
	// SentinelLeading treats a token as absent when it starts with the
	// sentinel and does not parse as a number ("-" style tables).
	SentinelLeading SentinelPosition = iota
	// SentinelTrailing treats a token as absent when it ends with the
	// sentinel ("----" style tables).
	SentinelTrailing
)

// Config selects between the report formats different engine builds print.
// The zero value matches the variant eval format.
type Config struct {
	// HeaderSkip is the number of decorative delimiter rows preceding the
	// true header row. Known formats use 0 or 2.
	HeaderSkip int
	// Sentinel is where the "no value" marker sits inside a token.
	Sentinel SentinelPosition
	// Strict escalates a malformed score cell to a decode failure for the
	// whole report. When false the cell degrades to an absent pair.
	Strict bool
	// RowKeyColumn names the header cell holding row labels. Empty means
	// DefaultRowKeyColumn.
	RowKeyColumn string
}

var (
	// ErrCellParse marks a score cell that could not be tokenized.
	ErrCellParse = errors.New("malformed score cell")
	// ErrDuplicateRowKey marks a row or cell decoded twice.
	ErrDuplicateRowKey = errors.New("duplicate row key")
)

// DecodeError is returned when raw report text cannot be decoded. Raw keeps
// the offending input for diagnosis.
type DecodeError struct {
	Reason string
	Raw    string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode eval table: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode eval table: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode turns a captured multi-line report into a Table. It either returns
// a complete table or fails wholesale; partial results are never exposed.
func Decode(raw string, cfg Config) (*Table, error) {
	rowKeyCol := cfg.RowKeyColumn
	if rowKeyCol == "" {
		rowKeyCol = DefaultRowKeyColumn
	}

	rows := delimiterRows(raw)
	if len(rows) <= cfg.HeaderSkip {
		return nil, &DecodeError{Reason: "header row missing", Raw: raw}
	}
	rows = rows[cfg.HeaderSkip:]

	header := splitCells(rows[0])
	keyIdx := -1
	for i, cell := range header {
		if cell == rowKeyCol {
			keyIdx = i
			break
		}
	}
	if keyIdx < 0 {
		return nil, &DecodeError{
			Reason: fmt.Sprintf("row-key column %q not in header", rowKeyCol),
			Raw:    raw,
		}
	}

	table := newTable()
	var open *openRow
	seenData := false

	commit := func() error {
		if open == nil {
			return nil
		}
		if !table.insert(open.key, open.vals) {
			return &DecodeError{
				Reason: fmt.Sprintf("row %q decoded twice", open.key),
				Raw:    raw,
				Err:    ErrDuplicateRowKey,
			}
		}
		open = nil
		return nil
	}

	for _, line := range rows[1:] {
		cells := splitCells(line)
		if len(cells) > len(header) {
			return nil, &DecodeError{
				Reason: fmt.Sprintf("row has %d cells, header has %d", len(cells), len(header)),
				Raw:    raw,
			}
		}

		var rowKey string
		if keyIdx < len(cells) {
			rowKey = cells[keyIdx]
		}

		switch {
		case rowKey == rowKeyCol:
			// Repeated header used as decoration.
			if err := commit(); err != nil {
				return nil, err
			}
		case rowKey == "" && allEmpty(cells):
			// Separator row.
		case rowKey == "":
			// Second half of a wrapped logical row.
			if open == nil {
				if !seenData {
					// Subheader decoration between header and data.
					continue
				}
				return nil, &DecodeError{Reason: "continuation row without a first half", Raw: raw}
			}
			if err := open.extend(cells, header, keyIdx, cfg, raw); err != nil {
				return nil, err
			}
			if err := commit(); err != nil {
				return nil, err
			}
		default:
			if err := commit(); err != nil {
				return nil, err
			}
			row, err := startRow(rowKey, cells, header, keyIdx, cfg, raw)
			if err != nil {
				return nil, err
			}
			open = row
			seenData = true
		}
	}
	if err := commit(); err != nil {
		return nil, err
	}
	return table, nil
}

// openRow is a logical row that may still receive a continuation half.
type openRow struct {
	key string
	// next is the header position the next continuation cell aligns to.
	next int
	vals Row
}

func startRow(key string, cells, header []string, keyIdx int, cfg Config, raw string) (*openRow, error) {
	row := &openRow{key: key, next: len(cells), vals: make(Row)}
	for i, cell := range cells {
		if i == keyIdx || cell == "" {
			continue
		}
		if err := row.assign(header[i], cell, cfg, raw); err != nil {
			return nil, err
		}
	}
	return row, nil
}

// extend aligns a continuation half against the header positions following
// the ones the first half occupied.
func (r *openRow) extend(cells, header []string, keyIdx int, cfg Config, raw string) error {
	for i, cell := range cells {
		if i == keyIdx {
			continue
		}
		if r.next >= len(header) {
			return &DecodeError{Reason: "continuation exceeds header columns", Raw: raw}
		}
		col := header[r.next]
		r.next++
		if cell == "" {
			continue
		}
		if err := r.assign(col, cell, cfg, raw); err != nil {
			return err
		}
	}
	return nil
}

func (r *openRow) assign(col, cell string, cfg Config, raw string) error {
	if col == "" {
		return &DecodeError{
			Reason: fmt.Sprintf("row %q has a value under an unnamed column", r.key),
			Raw:    raw,
		}
	}
	if _, dup := r.vals[col]; dup {
		return &DecodeError{
			Reason: fmt.Sprintf("cell (%s, %s) decoded twice", r.key, col),
			Raw:    raw,
			Err:    ErrDuplicateRowKey,
		}
	}
	pair, err := parseScore(cell, cfg.Sentinel)
	if err != nil {
		if cfg.Strict {
			return &DecodeError{
				Reason: fmt.Sprintf("cell (%s, %s)", r.key, col),
				Raw:    raw,
				Err:    err,
			}
		}
		pair = ScorePair{}
	}
	r.vals[col] = pair
	return nil
}

// parseScore splits a cell into the mg/eg tokens and parses each one.
func parseScore(cell string, pos SentinelPosition) (ScorePair, error) {
	tokens := strings.Fields(cell)
	if len(tokens) != 2 {
		return ScorePair{}, fmt.Errorf("%w: want 2 tokens, got %d in %q", ErrCellParse, len(tokens), cell)
	}
	mg, err := parseToken(tokens[0], pos)
	if err != nil {
		return ScorePair{}, err
	}
	eg, err := parseToken(tokens[1], pos)
	if err != nil {
		return ScorePair{}, err
	}
	return ScorePair{Mg: mg, Eg: eg}, nil
}

func parseToken(tok string, pos SentinelPosition) (*float64, error) {
	// Numbers win over the sentinel so "-3.0" stays a negative value.
	if v, err := strconv.ParseFloat(tok, 64); err == nil {
		return &v, nil
	}
	switch pos {
	case SentinelLeading:
		if tok[0] == sentinelRune {
			return nil, nil
		}
	case SentinelTrailing:
		if tok[len(tok)-1] == sentinelRune {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("%w: token %q", ErrCellParse, tok)
}

func delimiterRows(raw string) []string {
	var rows []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(line, delimiter) {
			rows = append(rows, line)
		}
	}
	return rows
}

// splitCells breaks a delimiter row into trimmed cells. The text before the
// leading pipe and a trailing empty cell after the closing pipe are dropped;
// interior empty cells are preserved for positional alignment.
func splitCells(line string) []string {
	parts := strings.Split(line, delimiter)[1:]
	if n := len(parts); n > 0 && strings.TrimSpace(parts[n-1]) == "" {
		parts = parts[:n-1]
	}
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.Join(strings.Fields(p), " ")
	}
	return cells
}

func allEmpty(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

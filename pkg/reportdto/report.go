// Package reportdto carries the JSON shapes the harness archives and serves.
package reportdto

import "time"

// Score is one mg/eg cell. Null fields mean the engine printed its
// "no value" sentinel there.
type Score struct {
	Mg *float64 `json:"mg"`
	Eg *float64 `json:"eg"`
}

// Run is one archived harness run: the engine, the position, the verbatim
// report text and its decoded table.
type Run struct {
	ID      string `json:"id"`
	Binary  string `json:"binary"`
	Profile string `json:"profile"`
	FEN     string `json:"fen"`
	Variant string `json:"variant,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`

	Raw      string                      `json:"raw"`
	RowOrder []string                    `json:"row_order"`
	Table    map[string]map[string]Score `json:"table"`
}

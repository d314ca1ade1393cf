package harness

import (
	"github.com/park285/fairy-eval-harness/pkg/reportdto"
)

// BuildRunRecord converts a run result into the archival/API shape.
func BuildRunRecord(result *RunResult) *reportdto.Run {
	record := &reportdto.Run{
		ID:         result.ID,
		Binary:     result.Binary,
		Profile:    result.Profile,
		FEN:        result.FEN,
		Variant:    result.Variant,
		StartedAt:  result.Started,
		DurationMS: result.Duration.Milliseconds(),
	}
	if result.Report == nil {
		return record
	}
	record.Raw = result.Report.Raw
	record.RowOrder = result.Report.Table.Keys()
	record.Table = make(map[string]map[string]reportdto.Score, len(record.RowOrder))
	for _, key := range record.RowOrder {
		row, _ := result.Report.Table.Row(key)
		cols := make(map[string]reportdto.Score, len(row))
		for col, pair := range row {
			cols[col] = reportdto.Score{Mg: pair.Mg, Eg: pair.Eg}
		}
		record.Table[key] = cols
	}
	return record
}

package harness

import (
	"strings"
	"testing"
	"time"

	"github.com/park285/fairy-eval-harness/internal/capture"
	"github.com/park285/fairy-eval-harness/internal/evaltable"
)

func TestBuildRunRecord(t *testing.T) {
	raw := strings.Join([]string{
		"| Term | White | Total |",
		"| Material | 1.00 2.00 | - - |",
		"| Mobility | 0.10 0.20 | 0.30 0.40 |",
		"Final evaluation: +0.25",
	}, "\n")
	table, err := evaltable.Decode(raw, evaltable.Config{Strict: true})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	result := &RunResult{
		ID:       "run-42",
		Binary:   "/engines/fairy-stockfish",
		Profile:  "variant",
		FEN:      "startpos",
		Variant:  "human",
		Report:   &capture.Report{Raw: raw, Table: table},
		Started:  time.Now(),
		Duration: 125 * time.Millisecond,
	}

	record := BuildRunRecord(result)
	if record.ID != "run-42" || record.DurationMS != 125 {
		t.Fatalf("record header wrong: %+v", record)
	}
	if len(record.RowOrder) != 2 || record.RowOrder[0] != "Material" || record.RowOrder[1] != "Mobility" {
		t.Fatalf("row order lost: %v", record.RowOrder)
	}

	material := record.Table["Material"]
	if material["White"].Mg == nil || *material["White"].Mg != 1.00 {
		t.Fatalf("material white = %+v", material["White"])
	}
	if material["Total"].Mg != nil || material["Total"].Eg != nil {
		t.Fatalf("absent pair must stay null in the record")
	}
	if record.Raw != raw {
		t.Fatalf("raw text must be carried verbatim")
	}
}

func TestBuildRunRecordWithoutReport(t *testing.T) {
	record := BuildRunRecord(&RunResult{ID: "run-0", Binary: "sf"})
	if record.Table != nil || record.Raw != "" {
		t.Fatalf("empty result produced table data: %+v", record)
	}
}

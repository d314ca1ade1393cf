package evaltable

// ScorePair holds the middlegame/endgame value pair of one table cell.
// A nil field means the engine printed the sentinel instead of a number,
// which is distinct from a printed 0.
type ScorePair struct {
	Mg *float64
	Eg *float64
}

// Pair builds a fully populated ScorePair.
func Pair(mg, eg float64) ScorePair {
	return ScorePair{Mg: &mg, Eg: &eg}
}

// AbsentPair builds a ScorePair with neither value present.
func AbsentPair() ScorePair {
	return ScorePair{}
}

func (p ScorePair) Equal(other ScorePair) bool {
	return floatPtrEqual(p.Mg, other.Mg) && floatPtrEqual(p.Eg, other.Eg)
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Row maps column keys to score pairs for one logical table row. Columns the
// engine did not print for this row are simply missing from the map.
type Row map[string]ScorePair

// Table is the decoded evaluation report. Row keys keep the order of their
// first appearance in the source text.
type Table struct {
	order []string
	rows  map[string]Row
}

func newTable() *Table {
	return &Table{rows: make(map[string]Row)}
}

// Keys returns the row keys in insertion order.
func (t *Table) Keys() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Row returns the column mapping for a row key.
func (t *Table) Row(key string) (Row, bool) {
	r, ok := t.rows[key]
	return r, ok
}

// Score returns one cell of the table.
func (t *Table) Score(rowKey, colKey string) (ScorePair, bool) {
	r, ok := t.rows[rowKey]
	if !ok {
		return ScorePair{}, false
	}
	p, ok := r[colKey]
	return p, ok
}

func (t *Table) Len() int { return len(t.order) }

func (t *Table) insert(key string, row Row) bool {
	if _, exists := t.rows[key]; exists {
		return false
	}
	t.order = append(t.order, key)
	t.rows[key] = row
	return true
}

// Equal compares two tables by row order, column keys and cell values.
func (t *Table) Equal(other *Table) bool {
	if t.Len() != other.Len() {
		return false
	}
	for i, key := range t.order {
		if other.order[i] != key {
			return false
		}
		a, b := t.rows[key], other.rows[key]
		if len(a) != len(b) {
			return false
		}
		for col, pair := range a {
			bp, ok := b[col]
			if !ok || !pair.Equal(bp) {
				return false
			}
		}
	}
	return true
}

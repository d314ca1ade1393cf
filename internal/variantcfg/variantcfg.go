// Package variantcfg renders the variants.ini files Fairy-Stockfish reads
// through its VariantPath option.
package variantcfg

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Variant describes one custom variant section. Piece values are keyed by
// the piece letter (p, n, b, r, q, ...).
type Variant struct {
	Name         string
	Base         string
	PieceValueMg map[string]int
	PieceValueEg map[string]int
}

// pieceOrder is the print order engines use for piece lists; letters outside
// it sort alphabetically after.
const pieceOrder = "pnbrq"

// Render produces the ini text for the given variants.
func Render(variants []Variant) (string, error) {
	var sb strings.Builder
	for i, v := range variants {
		name := strings.TrimSpace(v.Name)
		if name == "" {
			return "", fmt.Errorf("variant %d has no name", i)
		}
		if i > 0 {
			sb.WriteString("\n")
		}
		if base := strings.TrimSpace(v.Base); base != "" {
			sb.WriteString(fmt.Sprintf("[%s:%s]\n", name, base))
		} else {
			sb.WriteString(fmt.Sprintf("[%s]\n", name))
		}
		if len(v.PieceValueMg) > 0 {
			sb.WriteString("pieceValueMg = " + pieceValueList(v.PieceValueMg) + "\n")
		}
		if len(v.PieceValueEg) > 0 {
			sb.WriteString("pieceValueEg = " + pieceValueList(v.PieceValueEg) + "\n")
		}
	}
	return sb.String(), nil
}

// WriteFile renders variants and writes them to path.
func WriteFile(path string, variants []Variant) error {
	text, err := Render(variants)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write variants file: %w", err)
	}
	return nil
}

func pieceValueList(values map[string]int) string {
	letters := make([]string, 0, len(values))
	for letter := range values {
		letters = append(letters, letter)
	}
	sort.Slice(letters, func(i, j int) bool {
		return pieceRank(letters[i]) < pieceRank(letters[j])
	})

	parts := make([]string, 0, len(letters))
	for _, letter := range letters {
		parts = append(parts, letter+":"+strconv.Itoa(values[letter]))
	}
	return strings.Join(parts, " ")
}

func pieceRank(letter string) int {
	if idx := strings.Index(pieceOrder, letter); idx >= 0 {
		return idx
	}
	// Unknown letters follow the canonical pieces, alphabetically.
	if len(letter) > 0 {
		return len(pieceOrder) + int(letter[0])
	}
	return len(pieceOrder) + 256
}

package variantcfg

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRenderRookOnlyVariant(t *testing.T) {
	variants := []Variant{{
		Name: "human",
		Base: "chess",
		PieceValueMg: map[string]int{
			"p": 0, "n": 0, "b": 0, "r": 9000, "q": 0,
		},
		PieceValueEg: map[string]int{
			"p": 0, "n": 0, "b": 0, "r": 9000, "q": 0,
		},
	}}

	got, err := Render(variants)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "[human:chess]\n" +
		"pieceValueMg = p:0 n:0 b:0 r:9000 q:0\n" +
		"pieceValueEg = p:0 n:0 b:0 r:9000 q:0\n"
	if got != want {
		t.Fatalf("Render =\n%q\nwant\n%q", got, want)
	}
}

func TestRenderValidation(t *testing.T) {
	if _, err := Render([]Variant{{Base: "chess"}}); err == nil {
		t.Fatalf("nameless variant must fail")
	}
	got, err := Render([]Variant{{Name: "atomic"}})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "[atomic]\n" {
		t.Fatalf("Render = %q", got)
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "variants.ini")
	variants := []Variant{{Name: "human", Base: "chess", PieceValueMg: map[string]int{"r": 9000}}}

	if err := WriteFile(path, variants); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "[human:chess]\npieceValueMg = r:9000\n" {
		t.Fatalf("file content = %q", data)
	}
}

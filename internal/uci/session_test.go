package uci

import (
	"strings"
	"testing"
)

func TestBuildPositionCommand(t *testing.T) {
	cases := []struct {
		name  string
		fen   string
		moves []string
		want  string
	}{
		{"startpos", "", nil, "position startpos\n"},
		{"startpos keyword", "startpos", nil, "position startpos\n"},
		{"fen", "1r4k1/5ppp/3Rb3/8/6r1/7K/7P/8 w - - 0 32", nil,
			"position fen 1r4k1/5ppp/3Rb3/8/6r1/7K/7P/8 w - - 0 32\n"},
		{"with moves", "startpos", []string{"e2e4", "e7e5"},
			"position startpos moves e2e4 e7e5\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := buildPositionCommand(tc.fen, tc.moves); got != tc.want {
				t.Fatalf("buildPositionCommand = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestOptionCommandsVariantOrdering(t *testing.T) {
	cmds := optionCommands(Options{
		Threads:     2,
		HashMB:      64,
		Variant:     "human",
		VariantPath: "/tmp/variants.ini",
	})

	joined := strings.Join(cmds, "")
	pathIdx := strings.Index(joined, "VariantPath")
	variantIdx := strings.Index(joined, "UCI_Variant")
	if pathIdx < 0 || variantIdx < 0 {
		t.Fatalf("variant options missing:\n%s", joined)
	}
	if pathIdx > variantIdx {
		t.Fatalf("VariantPath must be set before UCI_Variant:\n%s", joined)
	}
	if !strings.Contains(joined, "setoption name Threads value 2\n") {
		t.Fatalf("threads option missing:\n%s", joined)
	}
}

func TestOptionCommandsDefaults(t *testing.T) {
	cmds := optionCommands(Options{})
	joined := strings.Join(cmds, "")
	if !strings.Contains(joined, "Threads value 1") || !strings.Contains(joined, "Hash value 16") {
		t.Fatalf("defaults not applied:\n%s", joined)
	}
	if strings.Contains(joined, "MultiPV") || strings.Contains(joined, "Variant") {
		t.Fatalf("unset options must not be sent:\n%s", joined)
	}
}

func TestOptionsKeyDistinguishesBinaries(t *testing.T) {
	a := optionsKey("/bin/fairy-a", Options{Threads: 1})
	b := optionsKey("/bin/fairy-b", Options{Threads: 1})
	if a == b {
		t.Fatalf("keys must differ per binary: %q", a)
	}
	if a != optionsKey("/bin/fairy-a", Options{Threads: 1}) {
		t.Fatalf("key must be stable for equal inputs")
	}
}

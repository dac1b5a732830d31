package llm

import (
	"errors"
	"strings"
	"testing"
)

func TestRecoverArray(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		count int
	}{
		{"bare array", `[{"a":1},{"a":2}]`, 2},
		{"json fence", "```json\n[{\"a\":1}]\n```", 1},
		{"plain fence", "```\n[]\n```", 0},
		{"leading prose", "Here are the citations:\n[{\"a\":1}]", 1},
		{"trailing prose", "[{\"a\":1}]\nLet me know if you need more.", 1},
		{"bracket inside string", `Result: [{"quote":"see [1] and ]"}] done`, 1},
		{"nested arrays", `[{"notes":["x","y"]},{"notes":[]}]`, 2},
		{"stray bracket before array", "See [note] below.\n[{\"a\":1}]", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := RecoverArray(tt.text)
			if err != nil {
				t.Fatalf("RecoverArray failed: %v", err)
			}
			if len(items) != tt.count {
				t.Errorf("Expected %d items, got %d", tt.count, len(items))
			}
		})
	}
}

func TestRecoverArray_Failure(t *testing.T) {
	for _, text := range []string{
		"",
		"I could not find any citations.",
		`{"a":1}`,
		`[{"a":1}`,
	} {
		if _, err := RecoverArray(text); !errors.Is(err, ErrNoArray) {
			t.Errorf("text %q: expected ErrNoArray, got %v", text, err)
		}
	}
}

func TestMatchingBracket(t *testing.T) {
	text := `x [1, "]", [2]] y`
	start := strings.IndexByte(text, '[')
	if got, want := matchingBracket(text, start), strings.LastIndexByte(text, ']'); got != want {
		t.Errorf("Expected closing bracket at %d, got %d", want, got)
	}
	if got := matchingBracket(`[1, 2`, 0); got != -1 {
		t.Errorf("Expected -1 for an unclosed array, got %d", got)
	}
}

package analyzer

import (
	"testing"
	"unicode/utf8"
)

func TestTokenizer_Tokenize(t *testing.T) {
	tok := NewTokenizer()

	tokens := tok.Tokenize("  Running dogs,\tare\n\nplaying!  ")
	want := []string{"Running", "dogs,", "are", "playing!"}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(tokens), tokens)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Errorf("token %d: expected %q, got %q", i, want[i], tokens[i])
		}
	}
}

func TestTokenizer_CountTokens(t *testing.T) {
	tok := NewTokenizer()

	cases := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"only_space", " \t\n ", 0},
		{"single", "word", 1},
		{"mixed_space", "one  two\tthree\nfour", 4},
		{"nbsp", "one\u00a0two", 2},
		{"ideographic_space", "one\u3000two", 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tok.CountTokens(tc.text); got != tc.want {
				t.Errorf("CountTokens(%q) = %d, want %d", tc.text, got, tc.want)
			}
			if got := len(tok.Tokenize(tc.text)); got != tc.want {
				t.Errorf("len(Tokenize(%q)) = %d, want %d", tc.text, got, tc.want)
			}
		})
	}
}

func TestTokenizer_Normalize(t *testing.T) {
	tok := NewTokenizer()

	got := tok.Normalize("\n alpha   beta\t\tgamma \n")
	if got != "alpha beta gamma" {
		t.Errorf("unexpected normalized text: %q", got)
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		name string
		text string
		max  int
		want string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"ascii", "hello world", 5, "hello..."},
		{"multibyte", "héllo wörld", 4, "héll..."},
		{"cjk", "日本語のテキスト", 3, "日本語..."},
		{"no_limit", "héllo", 0, "héllo"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Truncate(tc.text, tc.max)
			if got != tc.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tc.text, tc.max, got, tc.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("Truncate(%q, %d) produced invalid UTF-8", tc.text, tc.max)
			}
		})
	}
}

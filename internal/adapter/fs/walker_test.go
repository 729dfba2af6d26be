package fs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func basenames(files []FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = filepath.Base(f.Path)
	}
	return out
}

func TestWalkerExpand(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root,
		"a.pdf",
		"notes/b.txt",
		"notes/deep/c.docx",
		"notes/skip.png",
		"vendor/d.txt",
	)
	accept := func(name string) bool {
		return !strings.HasSuffix(name, ".png")
	}
	w := NewWalker([]string{"**/vendor/**"}, accept)

	tests := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{"single file", []string{filepath.Join(root, "a.pdf")}, []string{"a.pdf"}},
		{"doublestar", []string{filepath.Join(root, "notes", "**", "*.*")}, []string{"b.txt", "c.docx"}},
		{"directory", []string{root}, []string{"a.pdf", "b.txt", "c.docx"}},
		{"dedup", []string{filepath.Join(root, "a.pdf"), filepath.Join(root, "*.pdf")}, []string{"a.pdf"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := w.Expand(tt.patterns)
			if err != nil {
				t.Fatal(err)
			}
			got := basenames(files)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestWalkerExpandNoMatch(t *testing.T) {
	w := NewWalker(nil, nil)
	if _, err := w.Expand([]string{filepath.Join(t.TempDir(), "*.pdf")}); err == nil {
		t.Error("expected error when nothing matches")
	}
	if _, err := w.Expand([]string{"[unterminated"}); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

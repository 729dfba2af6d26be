package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const offlineConfig = `
embedding:
  provider: mock
  dimension: 32
generation:
  provider: echo
store:
  backend: bolt
chunk:
  max_tokens: 4
logging:
  level: error
`

func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestIngestQueryStats(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "docrag.yaml"), []byte(offlineConfig), 0644); err != nil {
		t.Fatal(err)
	}
	docs := filepath.Join(dir, "docs")
	if err := os.MkdirAll(docs, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(docs, "policy.txt"), []byte("grace period thirty days waiting period two years"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(docs, "image.png"), []byte("png"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := execute(t, "--dir", dir, "ingest", "--quiet", filepath.Join(docs, "**", "*")); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".docrag", "corpus.db")); err != nil {
		t.Fatalf("expected corpus file: %v", err)
	}

	if err := execute(t, "--dir", dir, "query", "-q", "grace period", "-k", "1", "--json"); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if err := execute(t, "--dir", dir, "stats"); err != nil {
		t.Fatalf("stats failed: %v", err)
	}
}

func TestIngestNoMatches(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "docrag.yaml"), []byte(offlineConfig), 0644); err != nil {
		t.Fatal(err)
	}
	if err := execute(t, "--dir", dir, "ingest", filepath.Join(dir, "*.pdf")); err == nil {
		t.Error("expected error when no documents match")
	}
}

func TestInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "docrag.yaml"), []byte("store:\n  backend: redis\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := execute(t, "--dir", dir, "stats"); err == nil {
		t.Error("expected invalid config error")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Millisecond, "<1s"},
		{42 * time.Second, "42s"},
		{3*time.Minute + 5*time.Second, "3m5s"},
		{2*time.Hour + 7*time.Minute, "2h7m"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%s) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

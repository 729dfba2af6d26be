package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"docrag/internal/adapter/extractor"
	"docrag/internal/adapter/fs"
	"docrag/internal/app"
	"docrag/internal/domain"
)

var (
	ingestExcludes []string
	ingestQuiet    bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file|dir|pattern>...",
	Short: "Ingest documents into the corpus",
	Long: `Extract, chunk and embed documents and append them to the corpus.
Arguments may be files, directories or doublestar patterns. Only .pdf, .docx
and .txt files are ingested. Ingesting a document twice stores it twice.

Examples:
  docrag ingest policy.pdf
  docrag ingest "docs/**/*.{pdf,docx}"
  docrag ingest ./contracts --exclude "**/drafts/**"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringSliceVar(&ingestExcludes, "exclude", nil, "doublestar patterns to skip")
	ingestCmd.Flags().BoolVar(&ingestQuiet, "quiet", false, "disable the progress bar")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()

	walker := fs.NewWalker(ingestExcludes, extractor.Supported)
	files, err := walker.Expand(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no supported documents found (want .pdf, .docx or .txt)")
	}

	a, err := app.Open(ctx, cfg, GetRootDir(), logger, app.Options{SkipGenerator: true})
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("Ingesting %d documents into %s store...\n", len(files), cfg.Store.Backend)

	var (
		totalChunks int
		failures    []string
		start       = time.Now()
	)
	for i, file := range files {
		data, err := os.ReadFile(file.Path)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", file.Path, err))
			continue
		}

		name := filepath.Base(file.Path)
		var bar *progressbar.ProgressBar
		progress := func(committed, total int) {
			if ingestQuiet {
				return
			}
			if bar == nil {
				bar = newProgressBar(total, fmt.Sprintf("[cyan][%d/%d][reset] %s", i+1, len(files), name))
			}
			bar.Set(committed)
		}

		result, err := a.Ingest.Ingest(ctx, domain.Document{Filename: name, Content: data}, progress)
		if result != nil {
			totalChunks += result.Chunks
		}
		if err != nil {
			var ingestErr *domain.IngestError
			if errors.As(err, &ingestErr) {
				failures = append(failures, fmt.Sprintf("%s: %d of %d chunks stored: %v",
					file.Path, ingestErr.Committed, ingestErr.Total, ingestErr.Err))
			} else {
				failures = append(failures, fmt.Sprintf("%s: %v", file.Path, err))
			}
			continue
		}
		if ingestQuiet {
			fmt.Printf("  %s: %d chunks\n", name, result.Chunks)
		}
	}

	fmt.Printf("\nIngestion complete:\n")
	fmt.Printf("  Documents:   %d\n", len(files)-len(failures))
	fmt.Printf("  Chunks:      %d\n", totalChunks)
	fmt.Printf("  Duration:    %s\n", formatDuration(time.Since(start)))

	if len(failures) > 0 {
		fmt.Printf("\nFailures:\n")
		for _, f := range failures {
			fmt.Printf("  - %s\n", f)
		}
		return fmt.Errorf("%d of %d documents failed", len(failures), len(files))
	}
	return nil
}

func newProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}

package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"docrag/internal/adapter/analyzer"
	"docrag/internal/app"
	"docrag/internal/domain"
)

var (
	queryText     string
	queryTopK     int
	queryJSON     bool
	queryNoAnswer bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Retrieve matching chunks and answer a question",
	Long: `Embed the question, rank every stored chunk by cosine similarity and ask
the configured model to answer from the best matches.

Examples:
  docrag query -q "what is the grace period?"
  docrag query -q "waiting period" --top-k 5 --json
  docrag query -q "exclusions" --no-answer`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "question (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of chunks (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.Flags().BoolVar(&queryNoAnswer, "no-answer", false, "only retrieve, skip generation")
	queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()

	a, err := app.Open(ctx, cfg, GetRootDir(), logger, app.Options{SkipGenerator: queryNoAnswer})
	if err != nil {
		return err
	}
	defer a.Close()

	// Determine top-k
	topK := cfg.Retrieve.TopK
	if queryTopK > 0 {
		topK = queryTopK
	}

	var answer *domain.Answer
	if queryNoAnswer {
		matched, err := a.Retrieve.Retrieve(ctx, domain.Query{Text: queryText, K: topK})
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		answer = &domain.Answer{Query: queryText, MatchedChunks: matched}
	} else {
		answer, err = a.Answer.Answer(ctx, queryText, topK)
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}
	}

	if queryJSON {
		output, _ := json.MarshalIndent(answer, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(answer.MatchedChunks) == 0 {
		fmt.Println("No chunks found. Run 'docrag ingest' first.")
	} else {
		fmt.Printf("Found %d chunks for: %s\n\n", len(answer.MatchedChunks), queryText)
	}
	for i, c := range answer.MatchedChunks {
		fmt.Printf("--- [%d] %s (score: %.3f) ---\n", i+1, shortID(c.ID), c.Score)
		fmt.Println(analyzer.Truncate(c.Text, 500))
		fmt.Println()
	}

	if !queryNoAnswer {
		fmt.Println(strings.Repeat("=", 70))
		fmt.Println(strings.TrimSpace(answer.Response))
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"docrag/config"
	"docrag/internal/adapter/analyzer"
	"docrag/internal/adapter/retriever"
	"docrag/internal/app"
	"docrag/internal/port"
)

func main() {
	dir := flag.String("dir", ".", "Directory holding docrag.yaml and the corpus")
	query := flag.String("q", "", "Query to test")
	topK := flag.Int("k", 10, "Number of results")
	runs := flag.Int("runs", 5, "Timed repetitions")
	flag.Parse()
	if *runs < 1 {
		*runs = 1
	}

	if *query == "" {
		fmt.Println("Usage: go run ./cmd/benchmark -dir . -q \"query\"")
		fmt.Println("\nMeasures:")
		fmt.Println("  1. Query embedding latency")
		fmt.Println("  2. Full corpus fetch latency")
		fmt.Println("  3. Exact cosine ranking latency and score spread")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg.Logging.Level = "warn"

	ctx := context.Background()
	a, err := app.Open(ctx, cfg, *dir, app.NewLogger(cfg.Logging, os.Stderr), app.Options{SkipGenerator: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening corpus: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	fmt.Println("RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Store: %s\n", cfg.Store.Backend)
	fmt.Printf("Model: %s (%s)\n", a.Embedder.ModelName(), cfg.Embedding.Provider)
	fmt.Printf("Dimension: %d\n", a.Embedder.Dimension())
	fmt.Println()

	fmt.Printf("Query: \"%s\"\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	ranker := retriever.NewCosineRanker()
	var embedTotal, fetchTotal, rankTotal time.Duration
	var last []float64
	var lastTexts []string
	var corpusSize int

	for i := 0; i < *runs; i++ {
		start := time.Now()
		queryVec, err := a.Embedder.Embed(ctx, *query, port.ModeQuery)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Embedding error: %v\n", err)
			os.Exit(1)
		}
		embedTotal += time.Since(start)

		start = time.Now()
		entries, err := a.Store.FetchAll(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Fetch error: %v\n", err)
			os.Exit(1)
		}
		fetchTotal += time.Since(start)
		corpusSize = len(entries)

		start = time.Now()
		results, err := ranker.Rank(queryVec, entries, *topK)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ranking error: %v\n", err)
			os.Exit(1)
		}
		rankTotal += time.Since(start)

		last = last[:0]
		lastTexts = lastTexts[:0]
		for _, r := range results {
			last = append(last, r.Score)
			lastTexts = append(lastTexts, r.Text)
		}
	}

	if corpusSize == 0 {
		fmt.Println("Corpus is empty - run 'docrag ingest' first")
		os.Exit(1)
	}

	fmt.Printf("Corpus entries: %d\n\n", corpusSize)
	fmt.Printf("Top %d matches:\n\n", len(last))

	totalScore := 0.0
	for i, score := range last {
		preview := strings.ReplaceAll(analyzer.Truncate(lastTexts[i], 150), "\n", " ")
		totalScore += score

		rating := "LOW"
		if score > 0.7 {
			rating = "HIGH"
		} else if score > 0.5 {
			rating = "GOOD"
		} else if score > 0.3 {
			rating = "OK"
		}

		fmt.Printf("%d. [%s %.3f]\n", i+1, rating, score)
		fmt.Printf("   %s\n\n", preview)
	}

	n := time.Duration(*runs)
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("LATENCY (mean of %d runs):\n", *runs)
	fmt.Printf("  Embed query:  %s\n", embedTotal/n)
	fmt.Printf("  Fetch corpus: %s\n", fetchTotal/n)
	fmt.Printf("  Rank:         %s\n", rankTotal/n)
	fmt.Println()
	fmt.Printf("QUALITY METRICS:\n")
	if len(last) > 0 {
		fmt.Printf("  Average similarity: %.3f\n", totalScore/float64(len(last)))
		fmt.Printf("  Top-1 similarity:   %.3f\n", last[0])
	}
}

package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"docrag/internal/app"
)

var (
	runDocument  string
	runQuestions []string
	runJSON      bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Download a document and answer questions about it",
	Long: `Download the document at --documents, ingest it into the corpus and answer
each --question in order, the same way POST /hackrx/run does.

Examples:
  docrag run --documents https://example.com/policy.pdf \
    --question "What is the grace period?" \
    --question "Is maternity covered?"`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runDocument, "documents", "", "document URL (required)")
	runCmd.Flags().StringArrayVar(&runQuestions, "question", nil, "question to answer (repeatable)")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "output as JSON")
	runCmd.MarkFlagRequired("documents")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := app.Open(ctx, GetConfig(), GetRootDir(), logger, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	answers, err := a.Answer.Run(ctx, runDocument, runQuestions)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	if runJSON {
		output, _ := json.MarshalIndent(map[string][]string{"answers": answers}, "", "  ")
		fmt.Println(string(output))
		return nil
	}
	for i, answer := range answers {
		fmt.Printf("Q%d: %s\n", i+1, runQuestions[i])
		fmt.Printf("A%d: %s\n\n", i+1, answer)
	}
	return nil
}

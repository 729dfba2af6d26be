package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"docrag/internal/app"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show corpus size and embedding dimension",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx := cmd.Context()

		a, err := app.Open(ctx, cfg, GetRootDir(), logger, app.Options{SkipGenerator: true})
		if err != nil {
			return err
		}
		defer a.Close()

		count, dimension, err := a.Stats(ctx)
		if err != nil {
			return fmt.Errorf("failed to read stats: %w", err)
		}

		fmt.Printf("Store:      %s\n", cfg.Store.Backend)
		if cfg.Store.Backend == "bolt" || cfg.Store.Backend == "sqlite" {
			fmt.Printf("Path:       %s\n", cfg.StorePath(GetRootDir()))
		}
		fmt.Printf("Embedder:   %s\n", a.Embedder.ModelName())
		fmt.Printf("Chunks:     %d\n", count)
		fmt.Printf("Dimension:  %d\n", dimension)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

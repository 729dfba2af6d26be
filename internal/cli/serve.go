package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"docrag/internal/app"
	"docrag/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serve the ingestion and question answering API.

Routes:
  GET  /             health check
  POST /upload       multipart "file" upload, ingests the document
  POST /query        form field "query", retrieves and answers
  POST /hackrx/run   {"documents": url, "questions": [...]}
  POST /webhook      {"query": ...}, direct generation

Examples:
  docrag serve
  PORT=9000 docrag serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg, GetRootDir(), logger, app.Options{})
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer a.Close()

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	srv := server.New(a.Ingest, a.Answer, server.Options{
		DefaultK:       cfg.Retrieve.TopK,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Logger:         logger,
	})
	logger.Info("starting docrag",
		"store", cfg.Store.Backend,
		"embedder", a.Embedder.ModelName(),
		"generator", a.Generator.ModelName(),
	)
	return srv.ListenAndServe(ctx, addr)
}

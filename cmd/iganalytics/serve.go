package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"iganalytics/internal/api"
	"iganalytics/pkg/logger"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the analytics HTTP server",
	Long: `Run the HTTP server exposing the analyzer and dashboard API.

POST /analyze runs the pipeline for a username and keeps the result in
memory; the /api/* endpoints serve dashboard views of the latest run
and /download/* returns the derived artifacts.`,
	Example: `  iganalytics serve
  iganalytics serve --addr :9090`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default :8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	flags := map[string]interface{}{}
	if serveAddr != "" {
		flags["addr"] = serveAddr
	}
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(cfg, logger.GetLogger())
	return server.ListenAndServe(ctx)
}

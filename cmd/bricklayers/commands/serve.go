package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"bricklayers/pkg/api"
	"bricklayers/pkg/brick"
	"bricklayers/pkg/log"
	"bricklayers/pkg/metrics"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the control API server",
	Long: `serve starts the HTTP/WebSocket control surface: status and metrics
endpoints plus JSON-RPC methods for enabling, disabling and tuning the
engine. Intended to run alongside a host that feeds the engine.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":7135", "listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadEngineConfig()
	if err != nil {
		return err
	}

	logger := log.GetLogger("serve")
	registry := metrics.NewRegistry()
	engine := brick.NewEngine(cfg, logger, registry)

	server := api.New(api.Config{
		Addr:     serveAddr,
		Engine:   engine,
		Registry: registry,
		Logger:   logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/statement-assistant/internal/api"
	"github.com/insightdelivered/statement-assistant/internal/logger"
	"github.com/insightdelivered/statement-assistant/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(rt *session) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == "" {
				port = rt.cfg.Port
			}

			db, err := rt.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			var m *metrics.Metrics
			if rt.cfg.MetricsEnabled {
				m = metrics.New()
			}

			app := api.NewApp(&api.Handler{
				Service:        rt.service(db, m),
				Metrics:        m,
				MaxUploadBytes: rt.cfg.MaxUploadBytes,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.L.Info("HTTP API listening", "port", port, "database", rt.cfg.DatabasePath, "metrics", m != nil)
				errCh <- app.Listen(":" + port)
			}()

			select {
			case err := <-errCh:
				return fmt.Errorf("server stopped: %w", err)
			case <-ctx.Done():
			}

			logger.L.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return app.ShutdownWithContext(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (defaults to PORT)")

	return cmd
}

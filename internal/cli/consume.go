package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/example/plp/internal/wire"
)

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Consume prisoner lifecycle events from the queue",
	Long: `Long-poll the configured SQS queue and drive the induction and review
schedules from each event. Runs until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		consumer, err := wire.Consumer()
		if err != nil {
			return err
		}
		cfg := wire.Config()
		logger := wire.Logger()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return consumer.Run(ctx)
		})

		if cfg.Metrics.Enabled {
			mux := http.NewServeMux()
			mux.Handle("/metrics", wire.MetricsHandler())
			server := &http.Server{Addr: cfg.Metrics.Listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

			g.Go(func() error {
				logger.Info("serving metrics", "addr", cfg.Metrics.Listen)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("metrics server: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			})
		}

		logger.Info("consuming events", "queue", cfg.Queue.URL, "workers", cfg.Queue.Workers)
		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		logger.Info("consumer stopped")
		return nil
	},
}

// ConsumeCmd returns the consume command
func ConsumeCmd() *cobra.Command {
	return consumeCmd
}

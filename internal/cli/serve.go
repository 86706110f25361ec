package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Goden-Gun/fault-lib/internal/server"
	"github.com/Goden-Gun/fault-lib/pkg/bootstrap"
	log "github.com/Goden-Gun/fault-lib/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service exposing the registry and fault counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if err := bootstrap.InitLogger(cfg.Log, cfg.App.Name); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if cfg.Tracing.ServiceName == "" {
				cfg.Tracing.ServiceName = cfg.App.Name
			}
			shutdownTracing, err := bootstrap.InitTracing(ctx, cfg.Tracing)
			if err != nil {
				return err
			}

			stack, err := bootstrap.InitFaultStack(ctx, cfg)
			if err != nil {
				return err
			}

			if addr == "" {
				addr = fmt.Sprintf(":%d", cfg.App.Port)
			}
			separateMetrics := cfg.Metrics.Addr != "" && cfg.Metrics.Addr != addr

			servers := []*http.Server{{
				Addr: addr,
				Handler: server.New(stack, server.Options{
					Retry:        cfg.Retry.Policy(),
					MountMetrics: !separateMetrics,
				}),
				ReadHeaderTimeout: 5 * time.Second,
			}}
			if separateMetrics {
				servers = append(servers, &http.Server{
					Addr:              cfg.Metrics.Addr,
					Handler:           stack.Metrics.Handler(),
					ReadHeaderTimeout: 5 * time.Second,
				})
			}

			errCh := make(chan error, len(servers))
			for _, srv := range servers {
				go func(srv *http.Server) {
					log.WithField("addr", srv.Addr).Info("http server listening")
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						errCh <- fmt.Errorf("listen %s: %w", srv.Addr, err)
					}
				}(srv)
			}

			var serveErr error
			select {
			case <-ctx.Done():
				log.WithField("addr", addr).Info("shutdown signal received")
			case serveErr = <-errCh:
				log.WithError(serveErr).Error("http server failed")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			var errs []error
			for _, srv := range servers {
				errs = append(errs, srv.Shutdown(shutdownCtx))
			}
			errs = append(errs, stack.Close(shutdownCtx), shutdownTracing(shutdownCtx), serveErr)
			return errors.Join(errs...)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :<app.port>)")
	return cmd
}

package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mvnfetch/internal/metrics"
	"github.com/matzehuels/mvnfetch/internal/server"
)

// serveCommand creates the serve command that runs the HTTP gateway.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr         string
		otlpEndpoint string
		noMetrics    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve artifacts over HTTP",
		Long: `Run an HTTP gateway that resolves references on demand.

GET /maven/<reference> streams the resolved artifact, for example
/maven/org.example/lib/1.0/pom. /healthz reports liveness and /metrics
exposes Prometheus metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			shutdown, err := server.InitTracer(ctx, otlpEndpoint)
			if err != nil {
				return err
			}
			if shutdown != nil {
				defer func() {
					sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
					defer cancel()
					if err := shutdown(sctx); err != nil {
						logger.Warn("tracer shutdown", "err", err)
					}
				}()
			}

			s, err := c.newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			cfg := server.Config{Resolver: s.resolver, Logger: logger}
			if !noMetrics {
				m := metrics.New()
				m.Register()
				cfg.Metrics = m.Handler()
			}

			logger.Info("serving", "local", s.cfg.CacheRoot, "repositories", len(s.cfg.Candidates()))
			return server.Run(ctx, addr, server.NewRouter(cfg), logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&otlpEndpoint, "otlp-endpoint", "", "OTLP/gRPC endpoint for traces (disabled when empty)")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "do not expose /metrics")
	return cmd
}

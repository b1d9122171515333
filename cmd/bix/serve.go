package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/matsen/bix/internal/config"
	"github.com/matsen/bix/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var (
	serveAddr string
	serveYear int
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: BIX_LISTEN, config listen, then :8080)")
	serveCmd.Flags().IntVar(&serveYear, "year", 0, "Default reference year for the m-index")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the upload form and report API over HTTP",
	Long: `Serve a web interface for computing indices from an uploaded CSV.

Routes:
  GET  /            upload form
  POST /report      multipart upload (field "file"), returns an HTML table
  POST /api/report  multipart upload or raw text/csv body, returns JSON
  GET  /healthz     liveness check
  GET  /metrics     Prometheus metrics

Requests may pass "year" as a form field or query parameter to override the
reference year. Report requests are rate limited per client IP using the
rate_limit setting of the global config (requests_per_minute, burst).`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	year := mustReferenceYear(serveYear, nil)
	addr := config.ListenAddr(serveAddr)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := server.New(server.Options{
		ReferenceYear: year,
		Logger:        logger,
		Registry:      reg,
		RateLimit:     config.RateLimitSetting(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting server", "addr", addr, "reference_year", year)
	if err := srv.Run(ctx, addr); err != nil {
		exitWithError(ExitError, "serving: %v", err)
	}
	return nil
}

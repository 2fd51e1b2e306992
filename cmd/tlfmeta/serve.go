package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/shamburg82/J-VIBE/internal/api"
	"github.com/shamburg82/J-VIBE/internal/metrics"
	"github.com/shamburg82/J-VIBE/internal/pipeline"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tlfmeta HTTP service",
	Long: `Start the HTTP service.

Documents uploaded to /api/ingest are parsed, chunked and classified by a
pool of workers. Results are kept in memory until JOB_TTL expires.

Examples:
  tlfmeta serve                       # Start on PORT (default 8090)
  tlfmeta serve --port 9000           # Override the port
  JUDGE_ENABLED=true tlfmeta serve    # Ask the LLM judge about uncertain chunks`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, log, det, err := setup()
		if err != nil {
			return err
		}
		if servePort != "" {
			cfg.Port = servePort
		}
		if err := cfg.Validate(); err != nil {
			log.Error("invalid configuration", "error", err)
			return err
		}

		judge, claude, err := newJudge(cfg, det)
		if err != nil {
			return err
		}
		if claude != nil {
			defer claude.Close()
		}

		m := metrics.New()
		orch := pipeline.NewOrchestrator(cfg, det, judge, m, log)
		orch.Start(ctx)

		srv := api.NewServer(orch, det, claude, m, log, cfg)
		httpServer := &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      srv,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info("starting tlfmeta", "port", cfg.Port, "judge", cfg.JudgeEnabled, "workers", cfg.WorkerCount)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				log.Error("server error", "error", err)
				orch.Stop()
				return err
			}
		case <-ctx.Done():
		}

		log.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown", "error", err)
		}
		orch.Stop()
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "port to listen on (overrides PORT)")
}

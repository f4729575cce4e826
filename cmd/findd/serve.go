package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"findd/internal/config"
	"findd/internal/httpapi"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(c *cli) *cobra.Command {
	var (
		addr          string
		corsEnabled   bool
		corsOrigins   string
		searchTimeout time.Duration
		stopOnExit    bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.cfg
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			} else if v := os.Getenv("FINDD_ADDR"); v != "" {
				cfg.Addr = v
			}
			if cmd.Flags().Changed("cors-enabled") {
				cfg.HTTP.CORSEnabled = corsEnabled
			}
			if cmd.Flags().Changed("cors-origins") {
				cfg.HTTP.CORSOrigins = splitCSV(corsOrigins)
			}
			return serve(c, cfg, searchTimeout, stopOnExit)
		},
	}
	f := cmd.Flags()
	f.StringVar(&addr, "addr", config.DefaultAddr, "HTTP listen address (defaults FINDD_ADDR or config addr)")
	f.BoolVar(&corsEnabled, "cors-enabled", false, "Enable CORS")
	f.StringVar(&corsOrigins, "cors-origins", "", "Comma-separated allowed origins")
	f.DurationVar(&searchTimeout, "search-timeout", 0, "Upper bound for one POST /search (0 disables)")
	f.BoolVar(&stopOnExit, "stop-on-exit", true, "Stop engine instances started by findd on shutdown")
	return cmd
}

func serve(c *cli, cfg config.Config, searchTimeout time.Duration, stopOnExit bool) error {
	log := c.log
	svc, err := c.service()
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpapi.SetLogger(log)
	httpapi.SetDefaultLogLevel(strings.ToLower(cfg.LogLevel))
	httpapi.SetBaseContext(ctx)
	httpapi.SetMaxBodyBytes(cfg.HTTP.MaxBodyBytes)
	httpapi.SetSearchTimeout(searchTimeout)
	httpapi.SetCORSOptions(cfg.HTTP.CORSEnabled, cfg.HTTP.CORSOrigins, cfg.HTTP.CORSMethods, cfg.HTTP.CORSHeaders)

	if c.configPath != "" {
		go func() {
			err := config.Watch(ctx, c.configPath, svc.ApplyConfig, func(err error) {
				log.Warn().Err(err).Msg("config reload failed, keeping previous settings")
			})
			if err != nil {
				log.Warn().Err(err).Msg("config watcher stopped")
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("instance", cfg.Engine.Instance).Msg("findd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	if stopOnExit && svc.Engine().ShutdownStartedInstances(sctx, false) {
		log.Info().Msg("stopped engine instances started by findd")
	}
	return nil
}

// Command hlr-bff runs the subscriber BFF: a thin aggregation layer over the
// billing, HLR, HSS, Summa and partner hub services sharing one downstream
// credential.
package main

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

	"github.com/zumatel/hlr-service-bff/internal/api"
	"github.com/zumatel/hlr-service-bff/internal/auth"
	"github.com/zumatel/hlr-service-bff/internal/config"
	"github.com/zumatel/hlr-service-bff/internal/logger"
	"github.com/zumatel/hlr-service-bff/internal/proxy"
)

var rootCmd = &cobra.Command{
	Use:   "hlr-bff",
	Short: "Subscriber BFF for billing, HLR, HSS, Summa and partner hub services",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context())
	},
	SilenceUsage: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	logger.Initialize()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Errorw("Invalid configuration", "error", err.Error())
		return err
	}

	// Startup acquisition inside Start is best-effort: a downstream outage at
	// boot must not keep the service from serving /health.
	manager := auth.NewManager(cfg.BSSAuthURL, cfg.BSSAuthEmail, cfg.BSSAuthPassword)
	manager.Start()
	defer manager.Stop()

	executor := proxy.New(manager, cfg.HTTPTimeout)
	handler := api.NewHandler(cfg, manager, executor)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("Server listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Infow("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

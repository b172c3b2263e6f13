package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/you/subwayviz/repository"
	"github.com/you/subwayviz/server"
	"github.com/you/subwayviz/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the web server",
	Args:  cobra.NoArgs,
	RunE:  serve,
}

var shutdownTimeout time.Duration

func init() {
	serveCmd.Flags().DurationVarP(&shutdownTimeout, "shutdown-timeout", "", 10*time.Second, "Time allowed for in-flight requests on shutdown")
}

func serve(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := repository.Open(ctx, cfg.RepositoryOptions())
	if err != nil {
		return err
	}
	defer store.Close()
	log.Info().Str("store", string(cfg.HandoffStore)).Msg("Handoff store ready")

	tmpl, err := web.Templates()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: server.NewRouter(server.Deps{
			Fetcher:        newFetcher(),
			Store:          store,
			StoreName:      string(cfg.HandoffStore),
			Templates:      tmpl,
			HandoffTTL:     cfg.HandoffTTL(),
			AllowedOrigins: cfg.AllowedOrigins,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

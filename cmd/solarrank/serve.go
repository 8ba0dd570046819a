package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solarrank/solarrank/internal/api"
	"github.com/solarrank/solarrank/internal/storage"
)

func newServeCmd(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored runs over a read-only HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg.Server
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			return a.runServe(cmd.Context(), cfg.Port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (default: server.port from config)")

	return cmd
}

func (a *app) runServe(ctx context.Context, port int) error {
	store, err := a.store(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = storage.Close(store) }()

	cfg := a.cfg.Server
	cfg.Port = port
	handler := api.NewHandler(store, a.namespace, cfg)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		zap.L().Info("starting solarrank API",
			zap.String("addr", srv.Addr),
			zap.String("namespace", a.namespace),
			zap.String("storage", a.cfg.Storage.Backend),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return eris.Wrap(err, "listen")
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "shutdown")
	}
	return nil
}

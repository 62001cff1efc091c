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

	httpadapter "github.com/PabloGalante/weekendship/internal/adapters/http"
	memstore "github.com/PabloGalante/weekendship/internal/adapters/storage/memory"
	"github.com/PabloGalante/weekendship/internal/app/conversation"
	"github.com/PabloGalante/weekendship/internal/app/files"
	"github.com/PabloGalante/weekendship/internal/observability"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
}

func runServe(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}

	log := observability.Setup(os.Stdout, observability.ParseLevel(cfg.Log.Level), cfg.Log.Format)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	model, err := newModelClient(ctx, cfg)
	if err != nil {
		return err
	}

	store, closeStore, err := newConversationStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Error("closing store", "error", err)
		}
	}()

	handler := httpadapter.NewServer(
		conversation.NewService(model, store),
		files.NewService(memstore.NewFileStore()),
		httpadapter.Options{
			CORSOrigin:   cfg.HTTP.CORSOrigin,
			CookieSecure: cfg.HTTP.CookieSecure,
		},
	)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Weekend Ship API listening", "addr", srv.Addr, "mode", cfg.Mode,
			"provider", cfg.Model.Provider, "storage", cfg.Storage.Backend)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"langsync/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the langsync HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg.Log)

	hub := api.NewHub(log)
	a, err := buildApp(ctx, cfg, log, hub)
	if err != nil {
		return err
	}
	defer a.Close()
	a.runner.SetEmitter(hub)

	handler := api.NewHandler(api.HandlerDeps{
		Log:          log,
		Projects:     a.projects,
		Components:   a.components,
		Translations: a.translations,
		Jobs:         a.jobRepo,
		Catalog:      a.catalog,
		Resolver:     a.resolver,
		Formats:      a.formats,
		Reconciler:   a.rec,
		Admissions:   a.adm,
		Runner:       a.runner,
	})
	srv := api.NewServer(api.Config{
		Addr:            cfg.Addr(),
		ReadTimeout:     cfg.Server.ReadTimeout.Duration,
		WriteTimeout:    cfg.Server.WriteTimeout.Duration,
		ShutdownTimeout: cfg.Server.ShutdownTimeout.Duration,
		Superusers:      cfg.Auth.Superusers,
	}, handler, hub, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.WithField("signal", sig.String()).Info("shutdown signal received")
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		log.WithError(err).Error("shutdown failed")
	}
	hub.Close()
	return <-errCh
}

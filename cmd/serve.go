package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"reporter_service/internal/api"
	"reporter_service/internal/config"
	"reporter_service/internal/core"
	"reporter_service/internal/domain/repository"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the report pages, data endpoints and exports",
	RunE:  runServe,
}

func boundarySource(ctx context.Context) repository.BoundaryRepository {
	b := cfg.Boundaries
	if b.Source == config.BoundaryOverpass {
		logger.Info("loading boundaries from overpass", zap.String("url", b.OverpassURL), zap.String("area", b.OverpassArea))
		return repository.NewOverpassBoundaryRepository(b.OverpassURL, b.OverpassArea, config.Duration(b.OverpassTimeout), logger)
	}

	files := repository.NewFileBoundaryRepository(b.Dir, nil, logger)
	if b.Watch {
		go func() {
			if err := files.Watch(ctx); err != nil {
				logger.Error("boundary watcher stopped", zap.Error(err))
			}
		}()
	}
	return files
}

func reportRecorder(ctx context.Context, db *sqlx.DB) (repository.ReportRecorder, error) {
	if !cfg.Reports.Save {
		return repository.NopRecorder{}, nil
	}
	if _, err := db.ExecContext(ctx, repository.CreateReportExportsTable); err != nil {
		return nil, fmt.Errorf("failed to create report_exports: %w", err)
	}
	logger.Info("recording print reports")
	return repository.NewPostgresReportRecorder(db), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Postgres.URL == "" {
		return errors.New("postgres.url (or POSTGRES_URL) is required to serve")
	}
	db, err := repository.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	calls := repository.NewCallIssueRepository(db, logger)
	recorder, err := reportRecorder(ctx, db)
	if err != nil {
		return err
	}
	service := core.NewReportService(calls, boundarySource(ctx), recorder, logger)

	handler := api.NewHandler(service, calls, api.Options{
		DefaultPalette: cfg.Reports.DefaultPalette,
		HideLabels:     cfg.Reports.HideLabels,
	}, logger)
	e := api.NewServer(handler, logger)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      e,
		ReadTimeout:  config.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: config.Duration(cfg.Server.WriteTimeout),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Duration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

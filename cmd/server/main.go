// Package main starts the animal fact server, setting up configuration,
// logging, fact and flag stores, the optional audit database, metrics,
// handlers and the listener.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/AnimalFacts/internal/config"
	"github.com/atinyakov/AnimalFacts/internal/db"
	"github.com/atinyakov/AnimalFacts/internal/logger"
	"github.com/atinyakov/AnimalFacts/internal/metrics"
	"github.com/atinyakov/AnimalFacts/internal/repository"
	"github.com/atinyakov/AnimalFacts/internal/server/handler/http"
	"github.com/atinyakov/AnimalFacts/internal/service"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

// shutdownTimeout bounds how long in-flight requests may take after a signal.
const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func runServer(ctx context.Context, configPath string) error {
	cfg, err := config.Load(config.ResolvePath(configPath))
	if err != nil {
		return err
	}

	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(cfg.LoggingLevel, cfg.LoggingDir); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load fact lists and flags.
	facts, err := repository.LoadFactStore(cfg.FactsDir, cfg.AnimalFactTypes, zapLogger)
	if err != nil {
		zapLogger.Fatal("cannot load facts", zap.Error(err))
	}
	if len(facts.Animals()) == 0 {
		zapLogger.Warn("no fact lists were loaded", zap.String("facts_dir", cfg.FactsDir))
	}
	flags, err := repository.LoadFlagStore(cfg.FactsDir, cfg.FlaggingEnabled, zapLogger)
	if err != nil {
		zapLogger.Fatal("cannot load flags", zap.Error(err))
	}

	// The audit trail is optional.
	var audit service.AuditRecorder = service.NopAudit{}
	if cfg.Audit.DatabaseDSN != "" {
		auditDB, err := db.InitPostgres(cfg.Audit.DatabaseDSN)
		if err != nil {
			zapLogger.Fatal("cannot init database", zap.Error(err))
		}
		defer auditDB.Close()

		db.StartAuditCleaner(ctx, auditDB,
			time.Duration(cfg.Audit.Interval),
			time.Duration(cfg.Audit.Retention),
			zapLogger,
		)
		audit = repository.NewPostgresAuditRepository(auditDB)
	}

	m := metrics.New()
	factService := service.NewService(cfg, facts, flags, audit, m, zapLogger)

	factHandler := &http.FactHandler{FactService: factService}
	adminHandler := &http.AdminHandler{FactService: factService}
	router := http.NewRouter(factHandler, adminHandler, factService.FlaggingEnabled(), m.Handler(), zapLogger)

	server := &nethttp.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if cfg.Server.TLSEnabled() {
			zapLogger.Info("starting HTTPS server", zap.String("addr", server.Addr))
			err = server.ListenAndServeTLS(cfg.Server.TLSCert, cfg.Server.TLSKey)
		} else {
			zapLogger.Info("starting HTTP server", zap.String("addr", server.Addr))
			err = server.ListenAndServe()
		}
		if errors.Is(err, nethttp.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		zapLogger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zapLogger.Error("server stopped with an error", zap.Error(err))
		return err
	}
	zapLogger.Info("server stopped")
	return nil
}

func printAudit(ctx context.Context, configPath string, limit int) error {
	cfg, err := config.Load(config.ResolvePath(configPath))
	if err != nil {
		return err
	}
	if cfg.Audit.DatabaseDSN == "" {
		return errors.New("audit database_dsn is not configured")
	}

	auditDB, err := db.InitPostgres(cfg.Audit.DatabaseDSN)
	if err != nil {
		return err
	}
	defer auditDB.Close()

	entries, err := repository.NewPostgresAuditRepository(auditDB).Recent(ctx, limit)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("%s  %s %-6s %-4s %-3s #%d by %s\n",
			e.CreatedAt.Format(time.RFC3339), e.ID, e.Action, e.Resource, e.Animal, e.TargetID, e.Actor)
	}
	return nil
}

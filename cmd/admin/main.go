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

	"github.com/nimasrn/collections-ledger/internal/config"
	"github.com/nimasrn/collections-ledger/internal/repository"
	"github.com/nimasrn/collections-ledger/internal/services"
	"github.com/nimasrn/collections-ledger/pkg/pg"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := config.Load(envPath()); err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	cfg := config.Get()

	addr := cfg.AdminListenAddr
	if addr == "" {
		addr = ":8082"
	}

	db, err := pg.CreateReadWrite(cfg.ReadDB(), cfg.WriteDB(), false)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed connecting to pg")
	}

	transactionRepo := repository.NewTransactionRepository(db)
	referenceRepo := repository.NewPaymentReferenceRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)

	handler := NewHandler(
		services.NewReconciliationService(repository.NewReconciliationRepository(db)),
		services.NewReferenceService(db, transactionRepo, referenceRepo),
		services.NewLedgerService(db, transactionRepo, referenceRepo, catalogRepo),
	)
	router := SetupRouter(handler)

	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Admin server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func envPath() string {
	for _, v := range os.Args {
		if strings.HasPrefix(v, "--env=") {
			return strings.TrimPrefix(v, "--env=")
		}
	}
	return ""
}

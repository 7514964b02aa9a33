package main

import (
	"os"
	"strings"

	"github.com/nimasrn/collections-ledger/internal/config"
	"github.com/nimasrn/collections-ledger/internal/handlers"
	"github.com/nimasrn/collections-ledger/internal/idempotency"
	"github.com/nimasrn/collections-ledger/internal/repository"
	"github.com/nimasrn/collections-ledger/internal/services"
	xhttp "github.com/nimasrn/collections-ledger/pkg/http"
	"github.com/nimasrn/collections-ledger/pkg/logger"
	"github.com/nimasrn/collections-ledger/pkg/pg"
	"github.com/nimasrn/collections-ledger/pkg/prom"
	"github.com/nimasrn/collections-ledger/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	cfg := config.Get()

	if err = logger.Configure(cfg.LogEnv, cfg.LogLevel); err != nil {
		logger.Error("failed to configure logger", "error", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting api", "version", version, "commit", commit, "date", date)

	pgDebug := false
	if cfg.AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(cfg.ReadDB(), cfg.WriteDB(), pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	// redis only backs the payment idempotency guard, the api runs without it
	var guard handlers.IdempotencyGuard
	if cfg.RedisAddr != "" {
		redisAdap, err := redis.NewRedisAdapter("default", cfg.RedisUniversalKeyPrefix, &redis.Options{
			Addrs:      []string{cfg.RedisAddr},
			ClientName: "default",
			DB:         cfg.RedisDatabase,
			Username:   cfg.RedisUsername,
			Password:   cfg.RedisPassword,
		})
		if err != nil {
			logger.Error("failed connecting to redis, idempotency keys disabled", "error", err)
		} else {
			idemConf := idempotency.DefaultConfig()
			if cfg.PaymentIdempotencyTTL > 0 {
				idemConf.CompletedTTL = cfg.PaymentIdempotencyTTL
			}
			guard = idempotency.NewGuard(redisAdap, idemConf)
		}
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	if err = prom.Create(hostname, cfg.AppEnv, cfg.PromNamespace); err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}
	if cfg.AppDebugMetricsAddr != "" {
		uri := cfg.AppDebugMetricsURI
		if uri == "" {
			uri = "/metrics"
		}
		go prom.ListenAndServer(cfg.AppDebugMetricsAddr, uri)
	}

	// repositories
	orderRepo := repository.NewOrderRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	referenceRepo := repository.NewPaymentReferenceRepository(db)
	reconciliationRepo := repository.NewReconciliationRepository(db)

	// services
	tax := services.NewTaxPolicy(cfg.TaxRate, cfg.TaxMode == config.TaxModeInclusive)
	orderService := services.NewOrderService(db, orderRepo, catalogRepo, transactionRepo, services.OrderOptions{
		Tax:             tax,
		TrustClientDate: cfg.OrderTrustClientDate,
	})
	ledgerService := services.NewLedgerService(db, transactionRepo, referenceRepo, catalogRepo)
	referenceService := services.NewReferenceService(db, transactionRepo, referenceRepo)
	reconciliationService := services.NewReconciliationService(reconciliationRepo)

	// v1 handlers
	orderHandler := handlers.NewOrderHandler(orderService)
	ledgerHandler := handlers.NewLedgerHandler(ledgerService, guard)
	referenceHandler := handlers.NewReferenceHandler(referenceService)
	maintenanceHandler := handlers.NewMaintenanceHandler(reconciliationService)
	healthHandler := handlers.NewHealthHandler(db)

	s := xhttp.CreateServer(xhttp.DefaultServerOption().WithTimeouts(
		cfg.HttpServerReadTimeout,
		cfg.HttpServerWriteTimeout,
		cfg.HttpRequestTimeout,
	))
	s.Use(xhttp.CompressMiddleware(6))

	g := s.Router.Group("/api/v1")
	handlers.RegisterOrderRoutes(g, orderHandler)
	handlers.RegisterLedgerRoutes(g, ledgerHandler)
	handlers.RegisterReferenceRoutes(g, referenceHandler)
	handlers.RegisterMaintenanceRoutes(g, maintenanceHandler)
	handlers.RegisterHealthRoutes(g, healthHandler)
	s.Router.GET("/health", healthHandler.GetHealth)

	s.CloseOnSignal()
	if err = s.ListenAndServe(cfg.HttpListenAddr); err != nil {
		logger.Error("error in running http-server", "error", err)
	}
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/khoatrankai/autoparts-backoffice/api/routes"
	"github.com/khoatrankai/autoparts-backoffice/internal/audit"
	"github.com/khoatrankai/autoparts-backoffice/internal/orders"
	"github.com/khoatrankai/autoparts-backoffice/internal/partners"
	"github.com/khoatrankai/autoparts-backoffice/internal/products"
	"github.com/khoatrankai/autoparts-backoffice/internal/purchases"
	"github.com/khoatrankai/autoparts-backoffice/internal/returns"
	"github.com/khoatrankai/autoparts-backoffice/internal/stock"
	"github.com/khoatrankai/autoparts-backoffice/internal/stockcard"
	"github.com/khoatrankai/autoparts-backoffice/internal/transfers"
	"github.com/khoatrankai/autoparts-backoffice/internal/warehouses"
	"github.com/khoatrankai/autoparts-backoffice/pkg/config"
	"github.com/khoatrankai/autoparts-backoffice/pkg/db"
	"github.com/khoatrankai/autoparts-backoffice/pkg/logger"
	"github.com/khoatrankai/autoparts-backoffice/pkg/metrics"
	"github.com/khoatrankai/autoparts-backoffice/pkg/migrate"
	"github.com/khoatrankai/autoparts-backoffice/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	conn := dbClient.DB()

	productsRepo := products.NewRepository(conn)
	warehousesRepo := warehouses.NewRepository(conn)
	partnersRepo := partners.NewRepository(conn)
	ordersRepo := orders.NewRepository(conn)
	transfersRepo := transfers.NewRepository(conn)
	purchasesRepo := purchases.NewRepository(conn)
	returnsRepo := returns.NewRepository(conn)

	ledger := stock.NewLedger(conn)
	journal := stock.NewJournal(conn)

	reconstructor, err := stockcard.NewReconstructor(conn, ledger, journal)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock card reconstructor", err)
		os.Exit(1)
	}

	auditService, err := audit.NewService(audit.NewRepository(conn))
	if err != nil {
		logg.Error(context.Background(), "failed to create audit service", err)
		os.Exit(1)
	}

	workflowMetrics := metrics.NewWorkflowMetrics(prometheus.DefaultRegisterer)

	orderService, err := orders.NewService(dbClient, ordersRepo, partnersRepo, productsRepo, warehousesRepo, ledger, journal, auditService, logg, workflowMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	transferService, err := transfers.NewService(dbClient, transfersRepo, productsRepo, warehousesRepo, ledger, journal, logg, workflowMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create transfer service", err)
		os.Exit(1)
	}

	purchaseService, err := purchases.NewService(dbClient, purchasesRepo, partnersRepo, productsRepo, warehousesRepo, ledger, journal, logg, workflowMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create purchase service", err)
		os.Exit(1)
	}

	returnService, err := returns.NewService(dbClient, returnsRepo, ordersRepo, partnersRepo, productsRepo, warehousesRepo, ledger, journal, logg, workflowMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create return service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.Deps{
		Config:          cfg,
		Logger:          logg,
		DBPinger:        dbClient,
		RedisClient:     redisClient,
		ProductsRepo:    productsRepo,
		WarehousesRepo:  warehousesRepo,
		PartnersRepo:    partnersRepo,
		Ledger:          ledger,
		Journal:         journal,
		Reconstructor:   reconstructor,
		OrderService:    orderService,
		TransferService: transferService,
		PurchaseService: purchaseService,
		ReturnService:   returnService,
		AuditService:    auditService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "api server shut down gracefully")
	}
}

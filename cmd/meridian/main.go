package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/accounting"
	"github.com/meridian-erp/meridian-erp/internal/admin/roles"
	"github.com/meridian-erp/meridian-erp/internal/admin/users"
	"github.com/meridian-erp/meridian-erp/internal/app"
	"github.com/meridian-erp/meridian-erp/internal/auth"
	"github.com/meridian-erp/meridian-erp/internal/inventory"
	"github.com/meridian-erp/meridian-erp/internal/jobs"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/customers"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/departments"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/items"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/locations"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/suppliers"
	"github.com/meridian-erp/meridian-erp/internal/observability"
	"github.com/meridian-erp/meridian-erp/internal/platform/cache"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/purchase"
	"github.com/meridian-erp/meridian-erp/internal/rbac"
	"github.com/meridian-erp/meridian-erp/internal/reports"
	"github.com/meridian-erp/meridian-erp/internal/sales"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	tokenIssuer := auth.NewTokenIssuer(cfg.SessionSecret, cfg.SessionTTL)
	rbacMiddleware := rbac.Middleware{Logger: logger}

	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, auth.NewLoginLimiter(redisClient), cfg.BcryptCost)
	authHandler := auth.NewHandler(logger, authService, tokenIssuer, cfg.IsProduction())

	itemsHandler := items.NewHandler(logger, items.NewService(items.NewRepository(pool)), rbacMiddleware)
	customersHandler := customers.NewHandler(logger, customers.NewService(customers.NewRepository(pool)), rbacMiddleware)
	suppliersHandler := suppliers.NewHandler(logger, suppliers.NewService(suppliers.NewRepository(pool)), rbacMiddleware)
	locationsHandler := locations.NewHandler(logger, locations.NewService(locations.NewRepository(pool)), rbacMiddleware)
	departmentsHandler := departments.NewHandler(logger, departments.NewService(departments.NewRepository(pool)), rbacMiddleware)

	inventoryService := inventory.NewService(inventory.NewRepository(pool), auditLogger, idempotencyStore, metrics)
	inventoryHandler := inventory.NewHandler(logger, inventoryService, rbacMiddleware)

	purchaseService := purchase.NewService(purchase.NewRepository(pool), inventoryService, auditLogger)
	purchaseHandler := purchase.NewHandler(logger, purchaseService, rbacMiddleware)

	salesService := sales.NewService(sales.NewRepository(pool), inventoryService, auditLogger)
	salesHandler := sales.NewHandler(logger, salesService, rbacMiddleware)

	accountingService := accounting.NewService(accounting.NewRepository(pool), auditLogger)
	accountingHandler := accounting.NewHandler(logger, accountingService, rbacMiddleware)

	reportsService := reports.NewService(logger, reports.NewRepository(pool), redisClient)
	reportsHandler := reports.NewHandler(logger, reportsService, rbacMiddleware)

	usersService := users.NewService(users.NewRepository(pool), auditLogger, cfg.BcryptCost)
	usersHandler := users.NewHandler(logger, usersService, rbacMiddleware)

	rolesService := roles.NewService(roles.NewRepository(pool), auditLogger)
	rolesHandler := roles.NewHandler(logger, rolesService, rbacMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(logger, inspector, jobsClient, rbacMiddleware)

	router := app.NewRouter(app.RouterParams{
		Logger:      logger,
		Config:      cfg,
		TokenIssuer: tokenIssuer,
		Metrics:     metrics,
		Pool:        pool,
		Redis:       redisClient,

		AuthHandler:        authHandler,
		ItemsHandler:       itemsHandler,
		CustomersHandler:   customersHandler,
		SuppliersHandler:   suppliersHandler,
		LocationsHandler:   locationsHandler,
		DepartmentsHandler: departmentsHandler,
		InventoryHandler:   inventoryHandler,
		PurchaseHandler:    purchaseHandler,
		SalesHandler:       salesHandler,
		AccountingHandler:  accountingHandler,
		ReportsHandler:     reportsHandler,
		UsersHandler:       usersHandler,
		RolesHandler:       rolesHandler,
		JobsHandler:        jobsHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/meridian-erp/meridian-erp/internal/accounting"
	"github.com/meridian-erp/meridian-erp/internal/admin/roles"
	"github.com/meridian-erp/meridian-erp/internal/admin/users"
	"github.com/meridian-erp/meridian-erp/internal/auth"
	"github.com/meridian-erp/meridian-erp/internal/inventory"
	"github.com/meridian-erp/meridian-erp/internal/jobs"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/customers"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/departments"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/items"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/locations"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/suppliers"
	"github.com/meridian-erp/meridian-erp/internal/observability"
	"github.com/meridian-erp/meridian-erp/internal/purchase"
	"github.com/meridian-erp/meridian-erp/internal/reports"
	"github.com/meridian-erp/meridian-erp/internal/sales"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger      *slog.Logger
	Config      *Config
	TokenIssuer *auth.TokenIssuer
	Metrics     *observability.Metrics
	Pool        *pgxpool.Pool
	Redis       *redis.Client

	AuthHandler        *auth.Handler
	ItemsHandler       *items.Handler
	CustomersHandler   *customers.Handler
	SuppliersHandler   *suppliers.Handler
	LocationsHandler   *locations.Handler
	DepartmentsHandler *departments.Handler
	InventoryHandler   *inventory.Handler
	PurchaseHandler    *purchase.Handler
	SalesHandler       *sales.Handler
	AccountingHandler  *accounting.Handler
	ReportsHandler     *reports.Handler
	UsersHandler       *users.Handler
	RolesHandler       *roles.Handler
	JobsHandler        *jobs.Handler
}

// NewRouter constructs the chi.Router with Meridian defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:      params.Logger,
		Config:      params.Config,
		TokenIssuer: params.TokenIssuer,
		Metrics:     params.Metrics,
	}) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)

	r.Get("/healthz", healthCheck(params.Logger, params.Pool, params.Redis))
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Route("/master", func(r chi.Router) {
		r.Route("/items", params.ItemsHandler.MountRoutes)
		r.Route("/customers", params.CustomersHandler.MountRoutes)
		r.Route("/suppliers", params.SuppliersHandler.MountRoutes)
		r.Route("/locations", params.LocationsHandler.MountRoutes)
		r.Route("/departments", params.DepartmentsHandler.MountRoutes)
	})

	r.Route("/inventory", params.InventoryHandler.MountRoutes)
	r.Route("/purchase", params.PurchaseHandler.MountRoutes)
	r.Route("/sales", params.SalesHandler.MountRoutes)

	r.Route("/accounts", func(r chi.Router) {
		params.AccountingHandler.MountRoutes(r)
		params.ReportsHandler.MountRoutes(r)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Route("/users", params.UsersHandler.MountRoutes)
		r.Route("/roles", params.RolesHandler.MountRoutes)
	})

	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}

	return r
}

// healthCheck pings Postgres and Redis with a short deadline.
func healthCheck(logger *slog.Logger, pool *pgxpool.Pool, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := `{"status":"ok"}`
		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				logger.Error("health: postgres unreachable", slog.Any("error", err))
				status = http.StatusServiceUnavailable
				body = `{"status":"degraded","postgres":"down"}`
			}
		}
		if status == http.StatusOK && redisClient != nil {
			if err := redisClient.Ping(ctx).Err(); err != nil {
				logger.Error("health: redis unreachable", slog.Any("error", err))
				status = http.StatusServiceUnavailable
				body = `{"status":"degraded","redis":"down"}`
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

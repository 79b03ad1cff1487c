package jobs

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/rbac"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler exposes queue statistics and manual triggers for operators.
type Handler struct {
	logger    *slog.Logger
	inspector *asynq.Inspector
	client    *Client
	rbac      rbac.Middleware
}

// NewHandler constructs the jobs HTTP handler.
func NewHandler(logger *slog.Logger, inspector *asynq.Inspector, client *Client, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, inspector: inspector, client: client, rbac: rbac}
}

// MountRoutes attaches job observability routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.ModuleAdmin, rbac.ActionRead))
		r.Get("/queue", h.queue)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.ModuleAdmin, rbac.ActionWrite))
		r.Post("/aging-warmup", h.triggerWarmup)
	})
}

func (h *Handler) queue(w http.ResponseWriter, r *http.Request) {
	info, err := h.inspector.GetQueueInfo(QueueDefault)
	if err != nil {
		h.logger.Warn("queue info unavailable", slog.Any("error", err))
		httpx.Fail(w, http.StatusServiceUnavailable, "queue statistics unavailable")
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{
		"queue":     info.Queue,
		"pending":   info.Pending,
		"active":    info.Active,
		"scheduled": info.Scheduled,
		"retry":     info.Retry,
		"failed":    info.Failed,
		"completed": info.Completed,
	})
}

func (h *Handler) triggerWarmup(w http.ResponseWriter, r *http.Request) {
	payload := AgingWarmupPayload{}
	if ident := shared.IdentityFromContext(r.Context()); ident != nil {
		payload.RequestedBy = ident.Email
	}
	taskInfo, err := h.client.EnqueueAgingWarmup(r.Context(), payload)
	if err != nil {
		h.logger.Error("enqueue aging warmup failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusServiceUnavailable, "could not enqueue warmup")
		return
	}
	httpx.OK(w, http.StatusAccepted, map[string]any{"task_id": taskInfo.ID})
}

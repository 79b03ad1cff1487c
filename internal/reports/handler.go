package reports

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/rbac"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers the aging endpoints on the accounts subtree.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.ModuleAccounts, rbac.ActionRead))
		r.Get("/receivables", h.Receivables)
		r.Get("/receivables/export", h.ReceivablesCSV)
		r.Get("/payables", h.Payables)
		r.Get("/payables/export", h.PayablesCSV)
	})
}

func (h *Handler) Receivables(w http.ResponseWriter, r *http.Request) {
	h.serveReport(w, r, h.service.Receivables)
}

func (h *Handler) Payables(w http.ResponseWriter, r *http.Request) {
	h.serveReport(w, r, h.service.Payables)
}

func (h *Handler) serveReport(w http.ResponseWriter, r *http.Request, build func(context.Context) (AgingReport, error)) {
	report, err := build(r.Context())
	if err != nil {
		h.logger.Error("aging report failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, report)
}

func (h *Handler) ReceivablesCSV(w http.ResponseWriter, r *http.Request) {
	h.serveCSV(w, r, "receivables_aging.csv", h.service.Receivables)
}

func (h *Handler) PayablesCSV(w http.ResponseWriter, r *http.Request) {
	h.serveCSV(w, r, "payables_aging.csv", h.service.Payables)
}

func (h *Handler) serveCSV(w http.ResponseWriter, r *http.Request, filename string, build func(context.Context) (AgingReport, error)) {
	report, err := build(r.Context())
	if err != nil {
		h.logger.Error("aging export failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := WriteCSV(w, report); err != nil {
		h.logger.Error("writing aging CSV failed", "error", err)
	}
}

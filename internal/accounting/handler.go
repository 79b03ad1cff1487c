package accounting

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/rbac"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.ModuleAccounts, rbac.ActionRead))
		r.Get("/chart", h.ListAccounts)
		r.Get("/chart/tree", h.AccountTree)
		r.Get("/chart/{id}", h.ShowAccount)
		r.Get("/vouchers", h.ListVouchers)
		r.Get("/vouchers/{id}", h.ShowVoucher)
		r.Get("/payments", h.ListPayments)
		r.Get("/payments/{id}", h.ShowPayment)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.ModuleAccounts, rbac.ActionWrite))
		r.Post("/chart", h.CreateAccount)
		r.Put("/chart/{id}", h.UpdateAccount)
		r.Post("/vouchers", h.CreateVoucher)
		r.Post("/vouchers/{id}/post", h.PostVoucher)
		r.Post("/payments", h.CreatePayment)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.ModuleAccounts, rbac.ActionApprove))
		r.Post("/vouchers/{id}/approve", h.ApproveVoucher)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.ModuleAccounts, rbac.ActionDelete))
		r.Delete("/chart/{id}", h.DeleteAccount)
	})
}

type accountRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	ParentID int64  `json:"parent_id"`
	IsActive *bool  `json:"is_active"`
}

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	created, err := h.service.CreateAccount(r.Context(), Account{
		Code:     req.Code,
		Name:     req.Name,
		Type:     req.Type,
		ParentID: req.ParentID,
		IsActive: active,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, created)
}

func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var req accountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	updated, err := h.service.UpdateAccount(r.Context(), id, req.Name, req.ParentID, active)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, updated)
}

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.ListAccounts(r.Context(), r.URL.Query().Get("active") == "true")
	if err != nil {
		h.logger.Error("list accounts failed", "error", err)
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"accounts": accounts})
}

func (h *Handler) AccountTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.service.AccountTree(r.Context(), r.URL.Query().Get("active") == "true")
	if err != nil {
		h.logger.Error("account tree failed", "error", err)
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"accounts": tree})
}

func (h *Handler) ShowAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	account, err := h.service.GetAccount(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, account)
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteAccount(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"deleted": true})
}

type voucherLineRequest struct {
	AccountID int64           `json:"account_id"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Narration string          `json:"narration"`
}

type voucherRequest struct {
	Type      string               `json:"type"`
	Date      string               `json:"date"`
	Narrative string               `json:"narrative"`
	Lines     []voucherLineRequest `json:"lines"`
}

func (h *Handler) CreateVoucher(w http.ResponseWriter, r *http.Request) {
	var req voucherRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid date")
		return
	}
	lines := make([]VoucherLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, VoucherLine{AccountID: l.AccountID, Debit: l.Debit, Credit: l.Credit, Narration: l.Narration})
	}
	created, err := h.service.CreateVoucher(r.Context(), CreateVoucherInput{
		Type:      req.Type,
		Date:      date,
		Narrative: req.Narrative,
		Lines:     lines,
		ActorID:   actorID(r),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, created)
}

func (h *Handler) ListVouchers(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	vouchers, total, err := h.service.ListVouchers(r.Context(),
		r.URL.Query().Get("status"), r.URL.Query().Get("type"), page, limit)
	if err != nil {
		h.logger.Error("list vouchers failed", "error", err)
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"vouchers": vouchers, "total": total})
}

func (h *Handler) ShowVoucher(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	v, err := h.service.GetVoucher(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, v)
}

func (h *Handler) PostVoucher(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	if err := h.service.PostVoucher(r.Context(), id, actorID(r)); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"status": VoucherPosted})
}

func (h *Handler) ApproveVoucher(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	if err := h.service.ApproveVoucher(r.Context(), id, actorID(r)); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"status": VoucherApproved})
}

type paymentRequest struct {
	Direction   string          `json:"direction"`
	DocumentID  int64           `json:"document_id"`
	PaymentDate string          `json:"payment_date"`
	Amount      decimal.Decimal `json:"amount"`
	Mode        string          `json:"mode"`
	Reference   string          `json:"reference"`
	Note        string          `json:"note"`
}

func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	paymentDate, err := parseDate(req.PaymentDate)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid payment_date")
		return
	}
	created, err := h.service.CreatePayment(r.Context(), CreatePaymentInput{
		Direction:   req.Direction,
		DocumentID:  req.DocumentID,
		PaymentDate: paymentDate,
		Amount:      req.Amount,
		Mode:        req.Mode,
		Reference:   req.Reference,
		Note:        req.Note,
		ActorID:     actorID(r),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, created)
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	payments, total, err := h.service.ListPayments(r.Context(), r.URL.Query().Get("direction"), page, limit)
	if err != nil {
		h.logger.Error("list payments failed", "error", err)
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"payments": payments, "total": total})
}

func (h *Handler) ShowPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	p, err := h.service.GetPayment(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, p)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Fail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrAccountInUse), errors.Is(err, ErrOverpayment):
		httpx.Fail(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrValidation), errors.Is(err, ErrUnbalanced):
		httpx.Fail(w, http.StatusBadRequest, err.Error())
	default:
		httpx.RespondError(w, err)
	}
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errors.New("missing date")
	}
	return time.Parse("2006-01-02", raw)
}

func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	return page, limit
}

func urlID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Fail(w, http.StatusBadRequest, "invalid ID")
		return 0, false
	}
	return id, true
}

func actorID(r *http.Request) int64 {
	if ident := shared.IdentityFromContext(r.Context()); ident != nil {
		return ident.UserID
	}
	return 0
}

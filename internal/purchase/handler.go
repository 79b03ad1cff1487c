package purchase

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/inventory"
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
		r.Use(h.rbac.Require(rbac.ModulePurchase, rbac.ActionRead))
		r.Get("/requisitions", h.ListRequisitions)
		r.Get("/requisitions/{id}", h.ShowRequisition)
		r.Get("/orders", h.ListOrders)
		r.Get("/orders/{id}", h.ShowOrder)
		r.Get("/lcs", h.ListLCs)
		r.Get("/lcs/{id}", h.ShowLC)
		r.Get("/bills", h.ListBills)
		r.Get("/bills/{id}", h.ShowBill)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.ModulePurchase, rbac.ActionWrite))
		r.Post("/requisitions", h.CreateRequisition)
		r.Post("/orders", h.CreateOrder)
		r.Post("/orders/{id}/send", h.SendOrder)
		r.Post("/orders/{id}/receive", h.ReceiveOrder)
		r.Post("/orders/{id}/cancel", h.CancelOrder)
		r.Post("/lcs", h.CreateLC)
		r.Post("/lcs/{id}/advance", h.AdvanceLC)
		r.Post("/lcs/{id}/costs", h.AddLCCost)
		r.Post("/bills", h.CreateBill)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.ModulePurchase, rbac.ActionApprove))
		r.Post("/requisitions/{id}/approve", h.ApproveRequisition)
		r.Post("/requisitions/{id}/reject", h.RejectRequisition)
		r.Post("/orders/{id}/approve", h.ApproveOrder)
	})
}

type requisitionLineRequest struct {
	ItemID int64           `json:"item_id"`
	Qty    decimal.Decimal `json:"qty"`
}

type requisitionRequest struct {
	DepartmentID int64                    `json:"department_id"`
	RequiredDate string                   `json:"required_date"`
	Priority     string                   `json:"priority"`
	Note         string                   `json:"note"`
	Lines        []requisitionLineRequest `json:"lines"`
}

func (h *Handler) CreateRequisition(w http.ResponseWriter, r *http.Request) {
	var req requisitionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	requiredDate, err := parseDate(req.RequiredDate)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid required_date")
		return
	}
	lines := make([]RequisitionLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, RequisitionLine{ItemID: l.ItemID, Qty: l.Qty})
	}
	created, err := h.service.CreateRequisition(r.Context(), CreateRequisitionInput{
		RequestedBy:  actorID(r),
		DepartmentID: req.DepartmentID,
		RequiredDate: requiredDate,
		Priority:     req.Priority,
		Note:         req.Note,
		Lines:        lines,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, created)
}

func (h *Handler) ListRequisitions(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	reqs, total, err := h.service.ListRequisitions(r.Context(), r.URL.Query().Get("status"), page, limit)
	if err != nil {
		h.logger.Error("list requisitions failed", "error", err)
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"requisitions": reqs, "total": total})
}

func (h *Handler) ShowRequisition(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	req, err := h.service.GetRequisition(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, req)
}

func (h *Handler) ApproveRequisition(w http.ResponseWriter, r *http.Request) {
	h.decideRequisition(w, r, true)
}

func (h *Handler) RejectRequisition(w http.ResponseWriter, r *http.Request) {
	h.decideRequisition(w, r, false)
}

func (h *Handler) decideRequisition(w http.ResponseWriter, r *http.Request, approve bool) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	req, err := h.service.DecideRequisition(r.Context(), id, approve, actorID(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, req)
}

type orderLineRequest struct {
	ItemID    int64           `json:"item_id"`
	Qty       decimal.Decimal `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
}

type orderRequest struct {
	SupplierID    int64              `json:"supplier_id"`
	RequisitionID int64              `json:"requisition_id"`
	LCID          int64              `json:"lc_id"`
	OrderType     string             `json:"order_type"`
	ExpectedDate  string             `json:"expected_date"`
	Note          string             `json:"note"`
	Lines         []orderLineRequest `json:"lines"`
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	expectedDate, err := parseDate(req.ExpectedDate)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid expected_date")
		return
	}
	lines := make([]OrderLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, OrderLine{ItemID: l.ItemID, Qty: l.Qty, UnitPrice: l.UnitPrice, TaxRate: l.TaxRate})
	}
	created, err := h.service.CreateOrder(r.Context(), CreateOrderInput{
		SupplierID:    req.SupplierID,
		RequisitionID: req.RequisitionID,
		LCID:          req.LCID,
		OrderType:     req.OrderType,
		ExpectedDate:  expectedDate,
		Note:          req.Note,
		Lines:         lines,
		ActorID:       actorID(r),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, created)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	supplierID, _ := strconv.ParseInt(r.URL.Query().Get("supplier_id"), 10, 64)
	orders, total, err := h.service.ListOrders(r.Context(), r.URL.Query().Get("status"), supplierID, page, limit)
	if err != nil {
		h.logger.Error("list orders failed", "error", err)
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"orders": orders, "total": total})
}

func (h *Handler) ShowOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	order, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, order)
}

func (h *Handler) SendOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	if err := h.service.SendOrder(r.Context(), id, actorID(r)); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"status": OrderSent})
}

func (h *Handler) ApproveOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	if err := h.service.ApproveOrder(r.Context(), id, actorID(r)); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"approved": true})
}

type receiveOrderRequest struct {
	LocationID int64 `json:"location_id"`
}

func (h *Handler) ReceiveOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var req receiveOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	order, err := h.service.ReceiveOrder(r.Context(), id, req.LocationID, actorID(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, order)
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	if err := h.service.CancelOrder(r.Context(), id, actorID(r)); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"status": OrderCancelled})
}

type lcRequest struct {
	Number       string          `json:"number"`
	SupplierID   int64           `json:"supplier_id"`
	Bank         string          `json:"bank"`
	OpeningDate  string          `json:"opening_date"`
	ShipmentDate string          `json:"shipment_date"`
	ExpiryDate   string          `json:"expiry_date"`
	TotalValue   decimal.Decimal `json:"total_value"`
	Currency     string          `json:"currency"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
}

func (h *Handler) CreateLC(w http.ResponseWriter, r *http.Request) {
	var req lcRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	opening, err1 := parseDate(req.OpeningDate)
	shipment, err2 := parseDate(req.ShipmentDate)
	expiry, err3 := parseDate(req.ExpiryDate)
	if err1 != nil || err2 != nil || err3 != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid LC dates")
		return
	}
	created, err := h.service.CreateLC(r.Context(), CreateLCInput{
		Number:       req.Number,
		SupplierID:   req.SupplierID,
		Bank:         req.Bank,
		OpeningDate:  opening,
		ShipmentDate: shipment,
		ExpiryDate:   expiry,
		TotalValue:   req.TotalValue,
		Currency:     req.Currency,
		ExchangeRate: req.ExchangeRate,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, created)
}

func (h *Handler) ListLCs(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	lcs, total, err := h.service.ListLCs(r.Context(), r.URL.Query().Get("status"), page, limit)
	if err != nil {
		h.logger.Error("list LCs failed", "error", err)
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"lcs": lcs, "total": total})
}

func (h *Handler) ShowLC(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	lc, err := h.service.GetLC(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, lc)
}

func (h *Handler) AdvanceLC(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	lc, err := h.service.AdvanceLC(r.Context(), id, actorID(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, lc)
}

type lcCostRequest struct {
	CostType     string          `json:"cost_type"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
}

func (h *Handler) AddLCCost(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var req lcCostRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	lc, err := h.service.AddLCCost(r.Context(), id, LCCost{
		CostType:     req.CostType,
		Amount:       req.Amount,
		Currency:     req.Currency,
		ExchangeRate: req.ExchangeRate,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, lc)
}

type billRequest struct {
	SupplierID int64           `json:"supplier_id"`
	OrderID    int64           `json:"order_id"`
	BillDate   string          `json:"bill_date"`
	DueDate    string          `json:"due_date"`
	Total      decimal.Decimal `json:"total"`
}

func (h *Handler) CreateBill(w http.ResponseWriter, r *http.Request) {
	var req billRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	billDate, err1 := parseDate(req.BillDate)
	dueDate, err2 := parseDate(req.DueDate)
	if err1 != nil || err2 != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid bill dates")
		return
	}
	created, err := h.service.CreateBill(r.Context(), CreateBillInput{
		SupplierID: req.SupplierID,
		OrderID:    req.OrderID,
		BillDate:   billDate,
		DueDate:    dueDate,
		Total:      req.Total,
		ActorID:    actorID(r),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, created)
}

func (h *Handler) ListBills(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	supplierID, _ := strconv.ParseInt(r.URL.Query().Get("supplier_id"), 10, 64)
	bills, total, err := h.service.ListBills(r.Context(), r.URL.Query().Get("status"), supplierID, page, limit)
	if err != nil {
		h.logger.Error("list bills failed", "error", err)
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"bills": bills, "total": total})
}

func (h *Handler) ShowBill(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	bill, err := h.service.GetBill(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, bill)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Fail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		httpx.Fail(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrEmptyLines), errors.Is(err, ErrValidation):
		httpx.Fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, inventory.ErrInsufficientStock):
		httpx.Fail(w, http.StatusConflict, err.Error())
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

package sales

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
		r.Use(h.rbac.Require(rbac.ModuleSales, rbac.ActionRead))
		r.Get("/quotations", h.ListQuotations)
		r.Get("/quotations/{id}", h.ShowQuotation)
		r.Get("/orders", h.ListOrders)
		r.Get("/orders/{id}", h.ShowOrder)
		r.Get("/challans", h.ListChallans)
		r.Get("/challans/{id}", h.ShowChallan)
		r.Get("/invoices", h.ListInvoices)
		r.Get("/invoices/{id}", h.ShowInvoice)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.ModuleSales, rbac.ActionWrite))
		r.Post("/quotations", h.CreateQuotation)
		r.Post("/quotations/{id}/send", h.SendQuotation)
		r.Post("/orders", h.CreateOrder)
		r.Post("/orders/{id}/confirm", h.ConfirmOrder)
		r.Post("/orders/{id}/close", h.CloseOrder)
		r.Post("/challans", h.CreateChallan)
		r.Post("/invoices", h.CreateInvoice)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.ModuleSales, rbac.ActionApprove))
		r.Post("/quotations/{id}/accept", h.AcceptQuotation)
		r.Post("/quotations/{id}/reject", h.RejectQuotation)
	})
}

type lineRequest struct {
	ItemID    int64           `json:"item_id"`
	Qty       decimal.Decimal `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal `json:"discount"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
}

type quotationRequest struct {
	CustomerID int64           `json:"customer_id"`
	QuoteDate  string          `json:"quote_date"`
	ValidUntil string          `json:"valid_until"`
	Discount   decimal.Decimal `json:"discount"`
	Note       string          `json:"note"`
	Lines      []lineRequest   `json:"lines"`
}

func (h *Handler) CreateQuotation(w http.ResponseWriter, r *http.Request) {
	var req quotationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	quoteDate, err1 := parseDate(req.QuoteDate)
	validUntil, err2 := parseDate(req.ValidUntil)
	if err1 != nil || err2 != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid quotation dates")
		return
	}
	lines := make([]QuotationLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, QuotationLine{ItemID: l.ItemID, Qty: l.Qty, UnitPrice: l.UnitPrice, Discount: l.Discount, TaxRate: l.TaxRate})
	}
	created, err := h.service.CreateQuotation(r.Context(), CreateQuotationInput{
		CustomerID: req.CustomerID,
		QuoteDate:  quoteDate,
		ValidUntil: validUntil,
		Discount:   req.Discount,
		Note:       req.Note,
		Lines:      lines,
		ActorID:    actorID(r),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, created)
}

func (h *Handler) ListQuotations(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	customerID, _ := strconv.ParseInt(r.URL.Query().Get("customer_id"), 10, 64)
	quotes, total, err := h.service.ListQuotations(r.Context(), r.URL.Query().Get("status"), customerID, page, limit)
	if err != nil {
		h.logger.Error("list quotations failed", "error", err)
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"quotations": quotes, "total": total})
}

func (h *Handler) ShowQuotation(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	q, err := h.service.GetQuotation(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, q)
}

func (h *Handler) SendQuotation(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	if err := h.service.SendQuotation(r.Context(), id, actorID(r)); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"status": QuotationSent})
}

func (h *Handler) AcceptQuotation(w http.ResponseWriter, r *http.Request) {
	h.decideQuotation(w, r, true)
}

func (h *Handler) RejectQuotation(w http.ResponseWriter, r *http.Request) {
	h.decideQuotation(w, r, false)
}

func (h *Handler) decideQuotation(w http.ResponseWriter, r *http.Request, accept bool) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	q, err := h.service.DecideQuotation(r.Context(), id, accept, actorID(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, q)
}

type orderRequest struct {
	CustomerID   int64         `json:"customer_id"`
	QuotationID  int64         `json:"quotation_id"`
	OrderDate    string        `json:"order_date"`
	DeliveryDate string        `json:"delivery_date"`
	Note         string        `json:"note"`
	Lines        []lineRequest `json:"lines"`
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	orderDate, err1 := parseDate(req.OrderDate)
	deliveryDate, err2 := parseDate(req.DeliveryDate)
	if err1 != nil || err2 != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid order dates")
		return
	}
	lines := make([]OrderLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, OrderLine{ItemID: l.ItemID, Qty: l.Qty, UnitPrice: l.UnitPrice, Discount: l.Discount, TaxRate: l.TaxRate})
	}
	created, err := h.service.CreateOrder(r.Context(), CreateOrderInput{
		CustomerID:   req.CustomerID,
		QuotationID:  req.QuotationID,
		OrderDate:    orderDate,
		DeliveryDate: deliveryDate,
		Note:         req.Note,
		Lines:        lines,
		ActorID:      actorID(r),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, created)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	customerID, _ := strconv.ParseInt(r.URL.Query().Get("customer_id"), 10, 64)
	orders, total, err := h.service.ListOrders(r.Context(), r.URL.Query().Get("status"), customerID, page, limit)
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

func (h *Handler) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	if err := h.service.ConfirmOrder(r.Context(), id, actorID(r)); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"status": OrderConfirmed})
}

func (h *Handler) CloseOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	if err := h.service.CloseOrder(r.Context(), id, actorID(r)); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"status": OrderClosed})
}

type challanLineRequest struct {
	ItemID int64           `json:"item_id"`
	Qty    decimal.Decimal `json:"qty"`
}

type challanRequest struct {
	OrderID     int64                `json:"order_id"`
	LocationID  int64                `json:"location_id"`
	ChallanDate string               `json:"challan_date"`
	Driver      string               `json:"driver"`
	Vehicle     string               `json:"vehicle"`
	Note        string               `json:"note"`
	Lines       []challanLineRequest `json:"lines"`
}

func (h *Handler) CreateChallan(w http.ResponseWriter, r *http.Request) {
	var req challanRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	challanDate, err := parseDate(req.ChallanDate)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid challan_date")
		return
	}
	lines := make([]ChallanLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, ChallanLine{ItemID: l.ItemID, Qty: l.Qty})
	}
	created, err := h.service.CreateChallan(r.Context(), CreateChallanInput{
		OrderID:     req.OrderID,
		LocationID:  req.LocationID,
		ChallanDate: challanDate,
		Driver:      req.Driver,
		Vehicle:     req.Vehicle,
		Note:        req.Note,
		Lines:       lines,
		ActorID:     actorID(r),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, created)
}

func (h *Handler) ListChallans(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	orderID, _ := strconv.ParseInt(r.URL.Query().Get("order_id"), 10, 64)
	challans, total, err := h.service.ListChallans(r.Context(), orderID, page, limit)
	if err != nil {
		h.logger.Error("list challans failed", "error", err)
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"challans": challans, "total": total})
}

func (h *Handler) ShowChallan(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	challan, err := h.service.GetChallan(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, challan)
}

type invoiceRequest struct {
	CustomerID  int64           `json:"customer_id"`
	OrderID     int64           `json:"order_id"`
	ChallanID   int64           `json:"challan_id"`
	InvoiceDate string          `json:"invoice_date"`
	DueDate     string          `json:"due_date"`
	Discount    decimal.Decimal `json:"discount"`
	Note        string          `json:"note"`
	Lines       []lineRequest   `json:"lines"`
}

func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req invoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	invoiceDate, err1 := parseDate(req.InvoiceDate)
	dueDate, err2 := parseDate(req.DueDate)
	if err1 != nil || err2 != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid invoice dates")
		return
	}
	lines := make([]InvoiceLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, InvoiceLine{ItemID: l.ItemID, Qty: l.Qty, UnitPrice: l.UnitPrice, Discount: l.Discount, TaxRate: l.TaxRate})
	}
	created, err := h.service.CreateInvoice(r.Context(), CreateInvoiceInput{
		CustomerID:  req.CustomerID,
		OrderID:     req.OrderID,
		ChallanID:   req.ChallanID,
		InvoiceDate: invoiceDate,
		DueDate:     dueDate,
		Discount:    req.Discount,
		Note:        req.Note,
		Lines:       lines,
		ActorID:     actorID(r),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, created)
}

func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	customerID, _ := strconv.ParseInt(r.URL.Query().Get("customer_id"), 10, 64)
	invoices, total, err := h.service.ListInvoices(r.Context(), r.URL.Query().Get("status"), customerID, page, limit)
	if err != nil {
		h.logger.Error("list invoices failed", "error", err)
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"invoices": invoices, "total": total})
}

func (h *Handler) ShowInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	inv, err := h.service.GetInvoice(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, inv)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Fail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrQuotationExpired), errors.Is(err, ErrOverDelivery):
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

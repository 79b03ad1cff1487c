package inventory

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
		r.Use(h.rbac.Require(rbac.ModuleInventory, rbac.ActionRead))
		r.Get("/stock", h.StockLevels)
		r.Get("/ledger", h.Ledger)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.ModuleInventory, rbac.ActionWrite))
		r.Post("/receive", h.Receive)
		r.Post("/issue", h.Issue)
		r.Post("/adjust", h.Adjust)
		r.Post("/transfer", h.Transfer)
	})
}

type receiveRequest struct {
	ItemID     int64           `json:"item_id"`
	LocationID int64           `json:"location_id"`
	Qty        decimal.Decimal `json:"qty"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	RefType    string          `json:"ref_type"`
	RefID      int64           `json:"ref_id"`
	Note       string          `json:"note"`
}

type issueRequest struct {
	ItemID     int64           `json:"item_id"`
	LocationID int64           `json:"location_id"`
	Qty        decimal.Decimal `json:"qty"`
	RefType    string          `json:"ref_type"`
	RefID      int64           `json:"ref_id"`
	Note       string          `json:"note"`
}

type adjustRequest struct {
	ItemID     int64           `json:"item_id"`
	LocationID int64           `json:"location_id"`
	Qty        decimal.Decimal `json:"qty"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	Note       string          `json:"note"`
}

type transferRequest struct {
	ItemID      int64           `json:"item_id"`
	SrcLocation int64           `json:"src_location_id"`
	DstLocation int64           `json:"dst_location_id"`
	Qty         decimal.Decimal `json:"qty"`
	Note        string          `json:"note"`
}

func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	var req receiveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	entry, err := h.service.Receive(r.Context(), ReceiveInput{
		ItemID:     req.ItemID,
		LocationID: req.LocationID,
		Qty:        req.Qty,
		UnitCost:   req.UnitCost,
		RefType:    req.RefType,
		RefID:      req.RefID,
		Note:       req.Note,
		ActorID:    actorID(r),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, entry)
}

func (h *Handler) Issue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	entry, err := h.service.Issue(r.Context(), IssueInput{
		ItemID:     req.ItemID,
		LocationID: req.LocationID,
		Qty:        req.Qty,
		RefType:    req.RefType,
		RefID:      req.RefID,
		Note:       req.Note,
		ActorID:    actorID(r),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, entry)
}

func (h *Handler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	entry, err := h.service.Adjust(r.Context(), AdjustInput{
		ItemID:     req.ItemID,
		LocationID: req.LocationID,
		Qty:        req.Qty,
		UnitCost:   req.UnitCost,
		Note:       req.Note,
		ActorID:    actorID(r),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, entry)
}

func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	out, in, err := h.service.Transfer(r.Context(), TransferInput{
		ItemID:      req.ItemID,
		SrcLocation: req.SrcLocation,
		DstLocation: req.DstLocation,
		Qty:         req.Qty,
		Note:        req.Note,
		ActorID:     actorID(r),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, map[string]any{"out": out, "in": in})
}

func (h *Handler) StockLevels(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	locationID, _ := strconv.ParseInt(q.Get("location_id"), 10, 64)
	lowOnly, _ := strconv.ParseBool(q.Get("low"))

	stocks, total, err := h.service.StockLevels(r.Context(), StockFilter{
		LocationID: locationID,
		Search:     q.Get("search"),
		LowOnly:    lowOnly,
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		h.logger.Error("list stock failed", "error", err)
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"stock": stocks, "total": total})
}

func (h *Handler) Ledger(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	itemID, _ := strconv.ParseInt(q.Get("item_id"), 10, 64)
	locationID, _ := strconv.ParseInt(q.Get("location_id"), 10, 64)

	filter := LedgerFilter{
		ItemID:     itemID,
		LocationID: locationID,
		TxType:     TransactionType(q.Get("tx_type")),
		Page:       page,
		Limit:      limit,
	}
	if raw := q.Get("from"); raw != "" {
		if from, err := time.Parse("2006-01-02", raw); err == nil {
			filter.From = from
		}
	}
	if raw := q.Get("to"); raw != "" {
		if to, err := time.Parse("2006-01-02", raw); err == nil {
			filter.To = to.AddDate(0, 0, 1)
		}
	}

	entries, total, err := h.service.Ledger(r.Context(), filter)
	if err != nil {
		h.logger.Error("list ledger failed", "error", err)
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"entries": entries, "total": total})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInsufficientStock):
		httpx.Fail(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidUnitCost):
		httpx.Fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Fail(w, http.StatusConflict, "movement already posted")
	default:
		httpx.RespondError(w, err)
	}
}

func actorID(r *http.Request) int64 {
	if ident := shared.IdentityFromContext(r.Context()); ident != nil {
		return ident.UserID
	}
	return 0
}

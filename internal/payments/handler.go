package payments

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/observability"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

var validate = validator.New()

// Handler manages payment endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	metrics *observability.Metrics
}

func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, service: service, metrics: metrics}
}

// MountRoutes registers payment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{id}", h.get)
	r.Get("/{id}/overpayment/transactions", h.listOverpaymentTransactions)
	r.Post("/{id}/post", h.post)
	r.Post("/{id}/reverse", h.reverse)
	r.Post("/{id}/overpayment/refund", h.refund)
	r.Post("/{id}/overpayment/write-off", h.writeOff)
}

func paymentID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := paymentID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid payment id")
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) listOverpaymentTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := paymentID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid payment id")
		return
	}
	txns, err := h.service.ListOverpaymentTransactions(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": txns})
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	id, ok := paymentID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid payment id")
		return
	}
	entry, err := h.service.Post(r.Context(), id, httpx.ActorID(r))
	if err != nil {
		h.logger.Error("post payment", slog.Any("error", err), slog.Int64("id", id))
		h.metrics.CountPosting("payment", "failure")
		httpx.RespondError(w, err)
		return
	}
	h.metrics.CountPosting("payment", "success")
	httpx.JSON(w, http.StatusOK, map[string]any{"entry_id": entry.ID, "entry_number": entry.Number})
}

func (h *Handler) reverse(w http.ResponseWriter, r *http.Request) {
	id, ok := paymentID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid payment id")
		return
	}
	entry, err := h.service.Reverse(r.Context(), id, httpx.ActorID(r))
	if err != nil {
		h.logger.Error("reverse payment", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"reversal_id": entry.ID, "reversal_number": entry.Number})
}

type refundRequest struct {
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
	BankID int64  `json:"bank_id" validate:"required,gt=0"`
	Notes  string `json:"notes" validate:"max=500"`
}

func (h *Handler) refund(w http.ResponseWriter, r *http.Request) {
	id, ok := paymentID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid payment id")
		return
	}
	var req refundRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	date, _ := time.Parse("2006-01-02", req.Date)
	txn, err := h.service.ResolveRefund(r.Context(), RefundInput{
		PaymentID: id,
		Date:      date,
		BankID:    req.BankID,
		Notes:     req.Notes,
		ActorID:   httpx.ActorID(r),
	})
	if err != nil {
		h.logger.Error("refund overpayment", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, txn)
}

type writeOffRequest struct {
	Date  string `json:"date" validate:"required,datetime=2006-01-02"`
	Notes string `json:"notes" validate:"max=500"`
}

func (h *Handler) writeOff(w http.ResponseWriter, r *http.Request) {
	id, ok := paymentID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid payment id")
		return
	}
	var req writeOffRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	date, _ := time.Parse("2006-01-02", req.Date)
	txn, err := h.service.ResolveWriteOff(r.Context(), WriteOffInput{
		PaymentID: id,
		Date:      date,
		Notes:     req.Notes,
		ActorID:   httpx.ActorID(r),
	})
	if err != nil {
		h.logger.Error("write off overpayment", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, txn)
}

package cash

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/accounting/journal"
	"github.com/meridian-erp/meridian-erp/internal/observability"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

// Handler manages cash transaction endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	metrics *observability.Metrics
}

func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, service: service, metrics: metrics}
}

// MountRoutes registers cash transaction routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Post("/{id}/post", h.post)
	r.Post("/{id}/reverse", h.reverse)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit, offset := httpx.Pagination(r, 50)
	txns, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("list cash transactions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": txns})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid transaction id")
		return
	}
	txn, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, txn)
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid transaction id")
		return
	}
	entry, err := h.service.Post(r.Context(), id, httpx.ActorID(r))
	if err != nil {
		h.logger.Error("post cash transaction", slog.Any("error", err), slog.Int64("id", id))
		h.metrics.CountPosting("cash", "failure")
		httpx.RespondError(w, err)
		return
	}
	h.metrics.CountPosting("cash", "success")
	httpx.JSON(w, http.StatusOK, entryView(entry))
}

func (h *Handler) reverse(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid transaction id")
		return
	}
	entry, err := h.service.Reverse(r.Context(), id, httpx.ActorID(r))
	if err != nil {
		h.logger.Error("reverse cash transaction", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entryView(entry))
}

func entryView(e journal.Entry) map[string]any {
	lines := make([]map[string]any, 0, len(e.Lines))
	for _, line := range e.Lines {
		lines = append(lines, map[string]any{
			"account_id":  line.AccountID,
			"debit":       line.Debit,
			"credit":      line.Credit,
			"description": line.Description,
		})
	}
	return map[string]any{
		"id":          e.ID,
		"number":      e.Number,
		"date":        e.Date,
		"status":      e.Status,
		"memo":        e.Memo,
		"reversal_of": e.ReversalOf,
		"lines":       lines,
	}
}

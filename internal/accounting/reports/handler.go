package reports

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

// Handler serves ledger and aging reports.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ledger", h.ledger)
	r.Get("/aging", h.aging)
}

func (h *Handler) ledger(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := time.Parse("2006-01-02", q.Get("from"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "from must be YYYY-MM-DD")
		return
	}
	to, err := time.Parse("2006-01-02", q.Get("to"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "to must be YYYY-MM-DD")
		return
	}
	if to.Before(from) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date range inverted")
		return
	}
	req := LedgerRequest{From: from, To: to}
	if v := q.Get("account_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid account id")
			return
		}
		req.AccountID = &id
	}
	req.IncludeChildren = q.Get("include_children") == "true"

	ledger, err := h.service.GetLedger(r.Context(), req)
	if err != nil {
		h.logger.Error("build ledger report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ledger)
}

func (h *Handler) aging(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	scope := Scope(q.Get("scope"))
	if !scope.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "scope must be RECEIVABLES or PAYABLES")
		return
	}
	var asOf time.Time
	if v := q.Get("as_of"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "as_of must be YYYY-MM-DD")
			return
		}
		asOf = parsed
	}
	report, err := h.service.GetAging(r.Context(), AgingRequest{Scope: scope, AsOf: asOf})
	if err != nil {
		h.logger.Error("build aging report", slog.Any("error", err), slog.String("scope", string(scope)))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

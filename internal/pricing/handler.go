package pricing

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

var validate = validator.New()

// Handler exposes document total previews so clients never reimplement
// the discount cascade.
type Handler struct {
	logger *slog.Logger
}

func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger}
}

// MountRoutes registers pricing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/preview", h.preview)
}

type previewLine struct {
	Quantity  string   `json:"quantity" validate:"required"`
	UnitPrice string   `json:"unit_price" validate:"required"`
	Discounts []string `json:"discounts" validate:"max=4"`
}

type previewRequest struct {
	Lines      []previewLine `json:"lines" validate:"required,min=1,dive"`
	TaxPercent string        `json:"tax_percent"`
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	items := make([]LineItem, 0, len(req.Lines))
	for _, line := range req.Lines {
		qty, err := decimal.NewFromString(line.Quantity)
		if err != nil || qty.Sign() < 0 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid quantity")
			return
		}
		price, err := decimal.NewFromString(line.UnitPrice)
		if err != nil || price.Sign() < 0 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid unit price")
			return
		}
		discounts := make([]decimal.Decimal, 0, len(line.Discounts))
		for _, raw := range line.Discounts {
			pct, err := decimal.NewFromString(raw)
			if err != nil || pct.Sign() < 0 || pct.GreaterThan(decimal.NewFromInt(100)) {
				httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid discount percentage")
				return
			}
			discounts = append(discounts, pct)
		}
		items = append(items, LineItem{Quantity: qty, UnitPrice: price, Discounts: discounts})
	}
	totals := Calculate(items, ParseTaxPercent(req.TaxPercent))
	httpx.JSON(w, http.StatusOK, totals)
}

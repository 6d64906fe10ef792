// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

// Sentinel errors for the transport layer.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrDuplicate  = errors.New("duplicate entry")
	ErrValidation = errors.New("validation failed")
)

// RespondError maps domain errors to HTTP responses using RFC7807.
// Posting preconditions map to 409, validation failures to 400 and
// a missing or inactive bank to 422.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrAlreadyPosted),
		errors.Is(err, shared.ErrNotPosted),
		errors.Is(err, shared.ErrSourceAlreadyLinked),
		errors.Is(err, shared.ErrOverpaymentAlreadyResolved),
		errors.Is(err, shared.ErrNoOverpayment),
		errors.Is(err, shared.ErrInvalidStatus):
		Problem(w, http.StatusConflict, "Posting Precondition Failed", err.Error())
	case errors.Is(err, shared.ErrUnbalancedEntry),
		errors.Is(err, shared.ErrTooFewLines):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrInvalidBank):
		Problem(w, http.StatusUnprocessableEntity, "Invalid Bank", err.Error())
	case errors.Is(err, shared.ErrAccountNotFound),
		errors.Is(err, shared.ErrJournalNotFound),
		errors.Is(err, shared.ErrTransactionNotFound),
		errors.Is(err, shared.ErrMappingNotFound),
		errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

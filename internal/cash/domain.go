package cash

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind enumerates cash transaction directions.
type Kind string

const (
	KindCashIn  Kind = "CASH_IN"
	KindCashOut Kind = "CASH_OUT"
)

// Status enumerates the transaction lifecycle. Posting makes the record
// read-only for the entry workflow; reversal returns it to draft.
type Status string

const (
	StatusDraft  Status = "DRAFT"
	StatusPosted Status = "POSTED"
)

// Transaction models a cash-in or cash-out voucher. The core receives it
// already validated and owns only the posting lifecycle.
type Transaction struct {
	ID               int64
	Number           string
	Kind             Kind
	Date             time.Time
	BankID           int64
	CounterAccountID int64
	Amount           decimal.Decimal
	Status           Status
	Description      string
	CreatedBy        int64
	UpdatedBy        int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

package journal

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus enumerates journal lifecycle values. A reversed entry is
// retained for audit and neutralised by its compensating entry; it is
// never deleted or edited in place.
type EntryStatus string

const (
	EntryStatusPosted   EntryStatus = "POSTED"
	EntryStatusReversed EntryStatus = "REVERSED"
)

// SourceKind enumerates the transaction kinds that produce journal entries.
type SourceKind string

const (
	SourceCashIn              SourceKind = "CASH_IN"
	SourceCashOut             SourceKind = "CASH_OUT"
	SourceSalePayment         SourceKind = "SALE_PAYMENT"
	SourcePurchasePayment     SourceKind = "PURCHASE_PAYMENT"
	SourceOverpaymentRefund   SourceKind = "OVERPAYMENT_REFUND"
	SourceOverpaymentWriteOff SourceKind = "OVERPAYMENT_WRITE_OFF"
	SourceReversal            SourceKind = "REVERSAL"
)

// Source identifies the originating transaction of an entry.
type Source struct {
	Kind SourceKind
	ID   int64
}

// Entry captures posting metadata.
type Entry struct {
	ID         int64
	Number     int64
	Date       time.Time
	Source     Source
	Memo       string
	Status     EntryStatus
	ReversalOf *int64
	ReversedBy *int64
	PostedBy   int64
	PostedAt   time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Lines      []Line
}

// Line stores a debit or credit amount for an account. Exactly one side
// is nonzero on a valid line.
type Line struct {
	ID          int64
	EntryID     int64
	AccountID   int64
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
	CreatedAt   time.Time
}

package payments

import (
	"time"

	"github.com/shopspring/decimal"
)

// RefKind discriminates the document a payment settles. A payment is
// always one or the other, never both.
type RefKind string

const (
	RefSale     RefKind = "SALE"
	RefPurchase RefKind = "PURCHASE"
)

// Ref is the tagged reference to the settled sale or purchase invoice.
type Ref struct {
	Kind      RefKind
	InvoiceID int64
}

// Status enumerates the payment lifecycle.
type Status string

const (
	StatusDraft  Status = "DRAFT"
	StatusPosted Status = "POSTED"
)

// Method enumerates accepted payment methods.
type Method string

const (
	MethodCash         Method = "CASH"
	MethodBankTransfer Method = "BANK_TRANSFER"
	MethodCheque       Method = "CHEQUE"
	MethodCard         Method = "CARD"
)

// OverpaymentStatus tracks the excess-amount lifecycle. The terminal
// values differ per side: sale payments resolve to REFUNDED or
// CONVERTED_TO_INCOME, purchase payments to REFUNDED or WRITTEN_OFF.
type OverpaymentStatus string

const (
	OverpaymentNone       OverpaymentStatus = "NONE"
	OverpaymentPending    OverpaymentStatus = "PENDING"
	OverpaymentRefunded   OverpaymentStatus = "REFUNDED"
	OverpaymentWrittenOff OverpaymentStatus = "WRITTEN_OFF"
	OverpaymentConverted  OverpaymentStatus = "CONVERTED_TO_INCOME"
)

// Terminal reports whether the overpayment can no longer change.
func (s OverpaymentStatus) Terminal() bool {
	switch s {
	case OverpaymentRefunded, OverpaymentWrittenOff, OverpaymentConverted:
		return true
	}
	return false
}

// Payment models a sale or purchase payment voucher.
type Payment struct {
	ID                int64
	Number            string
	Ref               Ref
	Date              time.Time
	AmountPaid        decimal.Decimal
	BankID            int64
	Method            Method
	Status            Status
	OverpaymentAmount decimal.Decimal
	OverpaymentStatus OverpaymentStatus
	Notes             string
	CreatedBy         int64
	UpdatedBy         int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// OverpaymentTransactionType enumerates resolution actions.
type OverpaymentTransactionType string

const (
	OverpaymentTxnRefund   OverpaymentTransactionType = "REFUND"
	OverpaymentTxnWriteOff OverpaymentTransactionType = "WRITE_OFF"
	OverpaymentTxnConvert  OverpaymentTransactionType = "CONVERT_TO_INCOME"
)

// OverpaymentTransaction is one resolution action on a payment's excess.
// Exactly one transaction resolves the full amount; partial resolution
// is not supported.
type OverpaymentTransaction struct {
	ID        int64
	Number    string
	PaymentID int64
	Type      OverpaymentTransactionType
	Amount    decimal.Decimal
	Date      time.Time
	BankID    *int64
	Notes     string
	CreatedBy int64
	CreatedAt time.Time
}

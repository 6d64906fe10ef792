package banks

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankType distinguishes bank accounts from physical cash registers.
type BankType string

const (
	BankTypeBank BankType = "BANK"
	BankTypeCash BankType = "CASH"
)

// Bank models a bank or cash register in the directory. StoredBalance is
// the last balance a human recorded; CalculatedBalance is derived from
// the ledger on demand.
type Bank struct {
	ID            int64
	Name          string
	Type          BankType
	AccountID     int64
	StoredBalance decimal.Decimal
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Divergence pairs a bank's stored balance with its ledger-derived one.
// A gap is surfaced for human review, never auto-corrected.
type Divergence struct {
	Bank              Bank
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
}

// Diverged reports whether the two balances disagree.
func (d Divergence) Diverged() bool {
	return !d.Difference.IsZero()
}

package journal

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

// Descriptor carries the amounts and account references needed to map a
// transaction onto balanced journal lines. The mapping per kind is fixed;
// callers resolve account ids through the mappings package.
type Descriptor struct {
	Kind SourceKind

	// BankAccountID is the ledger account of the bank/cash register.
	BankAccountID int64
	// CounterAccountID is the designated income (cash-in) or expense
	// (cash-out) account.
	CounterAccountID int64
	// Amount is the cash movement for cash kinds.
	Amount decimal.Decimal

	// Payment kinds.
	AmountPaid          decimal.Decimal
	Outstanding         decimal.Decimal
	ReceivableAccountID int64
	PayableAccountID    int64
	ClearingAccountID   int64

	Description string
}

// BuildLines maps a transaction descriptor to a balanced set of lines.
// Total debits always equal total credits in the result.
func BuildLines(d Descriptor) ([]LineInput, error) {
	var lines []LineInput
	switch d.Kind {
	case SourceCashIn:
		if err := requirePositive("amount", d.Amount); err != nil {
			return nil, err
		}
		lines = []LineInput{
			{AccountID: d.BankAccountID, Debit: d.Amount, Description: d.Description},
			{AccountID: d.CounterAccountID, Credit: d.Amount, Description: d.Description},
		}
	case SourceCashOut:
		if err := requirePositive("amount", d.Amount); err != nil {
			return nil, err
		}
		lines = []LineInput{
			{AccountID: d.CounterAccountID, Debit: d.Amount, Description: d.Description},
			{AccountID: d.BankAccountID, Credit: d.Amount, Description: d.Description},
		}
	case SourceSalePayment:
		if err := requirePositive("amount paid", d.AmountPaid); err != nil {
			return nil, err
		}
		applied, excess := splitExcess(d.AmountPaid, d.Outstanding)
		lines = []LineInput{
			{AccountID: d.BankAccountID, Debit: d.AmountPaid, Description: d.Description},
		}
		if applied.IsPositive() {
			lines = append(lines, LineInput{AccountID: d.ReceivableAccountID, Credit: applied, Description: d.Description})
		}
		if excess.IsPositive() {
			lines = append(lines, LineInput{AccountID: d.ClearingAccountID, Credit: excess, Description: d.Description})
		}
	case SourcePurchasePayment:
		if err := requirePositive("amount paid", d.AmountPaid); err != nil {
			return nil, err
		}
		applied, excess := splitExcess(d.AmountPaid, d.Outstanding)
		lines = nil
		if applied.IsPositive() {
			lines = append(lines, LineInput{AccountID: d.PayableAccountID, Debit: applied, Description: d.Description})
		}
		if excess.IsPositive() {
			lines = append(lines, LineInput{AccountID: d.ClearingAccountID, Debit: excess, Description: d.Description})
		}
		lines = append(lines, LineInput{AccountID: d.BankAccountID, Credit: d.AmountPaid, Description: d.Description})
	default:
		return nil, fmt.Errorf("journal: no line mapping for kind %q", d.Kind)
	}

	debit := decimal.Zero
	credit := decimal.Zero
	for _, line := range lines {
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	if !debit.Equal(credit) {
		return nil, shared.ErrUnbalancedEntry
	}
	return lines, nil
}

// splitExcess divides a paid amount into the portion applied against the
// outstanding balance and the overpaid remainder.
func splitExcess(paid, outstanding decimal.Decimal) (applied, excess decimal.Decimal) {
	if outstanding.IsNegative() {
		outstanding = decimal.Zero
	}
	if paid.GreaterThan(outstanding) {
		return outstanding, paid.Sub(outstanding)
	}
	return paid, decimal.Zero
}

func requirePositive(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return errors.New("journal: " + field + " must be positive")
	}
	return nil
}

package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// PostedLine is a journal line joined with its entry, as fetched for
// ledger queries. Reversed entries and their compensating entries are
// both present, so every reversal nets to zero in any range.
type PostedLine struct {
	EntryID     int64
	EntryNumber int64
	Date        time.Time
	AccountID   int64
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
	Memo        string
}

// LedgerLine is a period line with its running balance.
type LedgerLine struct {
	PostedLine
	Running decimal.Decimal
}

// Ledger aggregates an account scope over a date range.
type Ledger struct {
	From        time.Time
	To          time.Time
	Opening     decimal.Decimal
	DebitTotal  decimal.Decimal
	CreditTotal decimal.Decimal
	Closing     decimal.Decimal
	Lines       []LedgerLine
}

// BuildLedger computes opening, period totals, closing and per-line
// running balances. Balances are signed by the account's normal side:
// debit-normal accounts grow with debits, the rest grow with credits.
// Lines are applied in (date, entry id, line order) order so repeated
// queries produce a stable sequence.
func BuildLedger(lines []PostedLine, from, to time.Time, debitNormal bool) Ledger {
	sorted := make([]PostedLine, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].EntryID < sorted[j].EntryID
	})

	ledger := Ledger{
		From:        from,
		To:          to,
		Opening:     decimal.Zero,
		DebitTotal:  decimal.Zero,
		CreditTotal: decimal.Zero,
	}
	for _, line := range sorted {
		if line.Date.Before(from) {
			ledger.Opening = ledger.Opening.Add(signed(line, debitNormal))
			continue
		}
		if line.Date.After(to) {
			continue
		}
		ledger.DebitTotal = ledger.DebitTotal.Add(line.Debit)
		ledger.CreditTotal = ledger.CreditTotal.Add(line.Credit)
	}
	running := ledger.Opening
	for _, line := range sorted {
		if line.Date.Before(from) || line.Date.After(to) {
			continue
		}
		running = running.Add(signed(line, debitNormal))
		ledger.Lines = append(ledger.Lines, LedgerLine{PostedLine: line, Running: running})
	}
	ledger.Closing = running
	return ledger
}

func signed(line PostedLine, debitNormal bool) decimal.Decimal {
	if debitNormal {
		return line.Debit.Sub(line.Credit)
	}
	return line.Credit.Sub(line.Debit)
}

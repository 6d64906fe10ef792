package journal

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

// LineInput describes a journal line for a posting request.
type LineInput struct {
	AccountID   int64
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// PostingInput groups fields required to create a journal entry.
type PostingInput struct {
	Date       time.Time
	Source     Source
	Memo       string
	PostedBy   int64
	ReversalOf *int64
	Lines      []LineInput
}

// Validate ensures posting input meets minimum criteria. The balance
// check is exact; decimal comparison leaves no room for rounding drift.
func (in PostingInput) Validate() error {
	if in.Source.Kind == "" {
		return errors.New("journal: source kind required")
	}
	if in.Source.ID == 0 {
		return errors.New("journal: source id required")
	}
	if in.Date.IsZero() {
		return errors.New("journal: date required")
	}
	if len(in.Lines) < 2 {
		return shared.ErrTooFewLines
	}
	debit := decimal.Zero
	credit := decimal.Zero
	for idx, line := range in.Lines {
		if line.AccountID == 0 {
			return fmt.Errorf("journal: line %d missing account", idx)
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return fmt.Errorf("journal: line %d negative amount", idx)
		}
		if line.Debit.IsPositive() && line.Credit.IsPositive() {
			return fmt.Errorf("journal: line %d cannot be both debit and credit", idx)
		}
		if line.Debit.IsZero() && line.Credit.IsZero() {
			return fmt.Errorf("journal: line %d has no amount", idx)
		}
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	if !debit.Equal(credit) {
		return shared.ErrUnbalancedEntry
	}
	return nil
}

// ReverseLines builds the exact debit/credit mirror of posted lines.
func ReverseLines(lines []Line) []LineInput {
	out := make([]LineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, LineInput{
			AccountID:   line.AccountID,
			Debit:       line.Credit,
			Credit:      line.Debit,
			Description: line.Description,
		})
	}
	return out
}

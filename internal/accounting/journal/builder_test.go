package journal

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func mustDate(s string) time.Time {
	ts, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return ts
}

func lineTotals(t *testing.T, lines []LineInput) (debit, credit decimal.Decimal) {
	t.Helper()
	debit, credit = decimal.Zero, decimal.Zero
	for _, line := range lines {
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	return debit, credit
}

func TestBuildLinesCashIn(t *testing.T) {
	lines, err := BuildLines(Descriptor{
		Kind:             SourceCashIn,
		BankAccountID:    10,
		CounterAccountID: 40,
		Amount:           d("500"),
	})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	require.Equal(t, int64(10), lines[0].AccountID)
	require.True(t, lines[0].Debit.Equal(d("500")))
	require.Equal(t, int64(40), lines[1].AccountID)
	require.True(t, lines[1].Credit.Equal(d("500")))
}

func TestBuildLinesCashOut(t *testing.T) {
	lines, err := BuildLines(Descriptor{
		Kind:             SourceCashOut,
		BankAccountID:    10,
		CounterAccountID: 50,
		Amount:           d("120.75"),
	})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	require.Equal(t, int64(50), lines[0].AccountID)
	require.True(t, lines[0].Debit.Equal(d("120.75")))
	require.Equal(t, int64(10), lines[1].AccountID)
	require.True(t, lines[1].Credit.Equal(d("120.75")))
}

func TestBuildLinesSalePaymentExact(t *testing.T) {
	lines, err := BuildLines(Descriptor{
		Kind:                SourceSalePayment,
		BankAccountID:       10,
		ReceivableAccountID: 12,
		ClearingAccountID:   21,
		AmountPaid:          d("1000"),
		Outstanding:         d("1000"),
	})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	debit, credit := lineTotals(t, lines)
	require.True(t, debit.Equal(credit))
	require.True(t, lines[1].Credit.Equal(d("1000")))
	require.Equal(t, int64(12), lines[1].AccountID)
}

func TestBuildLinesSalePaymentOverpaid(t *testing.T) {
	// full paid amount hits the bank, excess goes to the clearing account
	lines, err := BuildLines(Descriptor{
		Kind:                SourceSalePayment,
		BankAccountID:       10,
		ReceivableAccountID: 12,
		ClearingAccountID:   21,
		AmountPaid:          d("1200"),
		Outstanding:         d("1000"),
	})
	require.NoError(t, err)
	require.Len(t, lines, 3)
	require.Equal(t, int64(10), lines[0].AccountID)
	require.True(t, lines[0].Debit.Equal(d("1200")))
	require.Equal(t, int64(12), lines[1].AccountID)
	require.True(t, lines[1].Credit.Equal(d("1000")))
	require.Equal(t, int64(21), lines[2].AccountID)
	require.True(t, lines[2].Credit.Equal(d("200")))
	debit, credit := lineTotals(t, lines)
	require.True(t, debit.Equal(credit))
}

func TestBuildLinesPurchasePaymentOverpaid(t *testing.T) {
	lines, err := BuildLines(Descriptor{
		Kind:              SourcePurchasePayment,
		BankAccountID:     10,
		PayableAccountID:  14,
		ClearingAccountID: 21,
		AmountPaid:        d("800"),
		Outstanding:       d("750"),
	})
	require.NoError(t, err)
	require.Len(t, lines, 3)
	require.Equal(t, int64(14), lines[0].AccountID)
	require.True(t, lines[0].Debit.Equal(d("750")))
	require.Equal(t, int64(21), lines[1].AccountID)
	require.True(t, lines[1].Debit.Equal(d("50")))
	require.Equal(t, int64(10), lines[2].AccountID)
	require.True(t, lines[2].Credit.Equal(d("800")))
}

func TestBuildLinesPaymentNothingOutstanding(t *testing.T) {
	lines, err := BuildLines(Descriptor{
		Kind:                SourceSalePayment,
		BankAccountID:       10,
		ReceivableAccountID: 12,
		ClearingAccountID:   21,
		AmountPaid:          d("300"),
		Outstanding:         d("0"),
	})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	require.Equal(t, int64(21), lines[1].AccountID)
	require.True(t, lines[1].Credit.Equal(d("300")))
}

func TestBuildLinesRejectsNonPositiveAmount(t *testing.T) {
	_, err := BuildLines(Descriptor{Kind: SourceCashIn, BankAccountID: 1, CounterAccountID: 2, Amount: d("0")})
	require.Error(t, err)
	_, err = BuildLines(Descriptor{Kind: SourceCashOut, BankAccountID: 1, CounterAccountID: 2, Amount: d("-5")})
	require.Error(t, err)
}

func TestBuildLinesRejectsUnknownKind(t *testing.T) {
	_, err := BuildLines(Descriptor{Kind: SourceReversal, Amount: d("1")})
	require.Error(t, err)
}

func TestPostingInputValidate(t *testing.T) {
	base := func() PostingInput {
		return PostingInput{
			Date:   mustDate("2026-03-01"),
			Source: Source{Kind: SourceCashIn, ID: 7},
			Lines: []LineInput{
				{AccountID: 1, Debit: d("100")},
				{AccountID: 2, Credit: d("100")},
			},
		}
	}

	require.NoError(t, base().Validate())

	in := base()
	in.Lines = in.Lines[:1]
	require.ErrorIs(t, in.Validate(), shared.ErrTooFewLines)

	in = base()
	in.Lines[1].Credit = d("99.99")
	require.ErrorIs(t, in.Validate(), shared.ErrUnbalancedEntry)

	in = base()
	in.Lines[0].Credit = d("1")
	require.Error(t, in.Validate())

	in = base()
	in.Lines[0].Debit = d("-100")
	require.Error(t, in.Validate())

	in = base()
	in.Source.ID = 0
	require.Error(t, in.Validate())
}

func TestReverseLinesMirrors(t *testing.T) {
	original := []Line{
		{AccountID: 1, Debit: d("250"), Description: "cash in"},
		{AccountID: 2, Credit: d("250"), Description: "cash in"},
	}
	mirrored := ReverseLines(original)
	require.Len(t, mirrored, 2)
	require.True(t, mirrored[0].Credit.Equal(d("250")))
	require.True(t, mirrored[0].Debit.IsZero())
	require.True(t, mirrored[1].Debit.Equal(d("250")))
	require.True(t, mirrored[1].Credit.IsZero())
}

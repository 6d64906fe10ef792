package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/banks"
)

type fakeBankRepo struct {
	banks    []banks.Bank
	balances map[int64]decimal.Decimal
}

func (r *fakeBankRepo) List(ctx context.Context) ([]banks.Bank, error) {
	return r.banks, nil
}

func (r *fakeBankRepo) Get(ctx context.Context, id int64) (banks.Bank, error) {
	for _, b := range r.banks {
		if b.ID == id {
			return b, nil
		}
	}
	return banks.Bank{}, nil
}

func (r *fakeBankRepo) CalculatedBalance(ctx context.Context, bank banks.Bank) (decimal.Decimal, error) {
	return r.balances[bank.ID], nil
}

type recordingAlerter struct {
	kinds []string
}

func (a *recordingAlerter) Alert(ctx context.Context, kind string, detail map[string]any) {
	a.kinds = append(a.kinds, kind)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBankDivergenceScanAlertsOnDifference(t *testing.T) {
	repo := &fakeBankRepo{
		banks: []banks.Bank{
			{ID: 1, Name: "Main", StoredBalance: decimal.RequireFromString("100")},
			{ID: 2, Name: "Petty", StoredBalance: decimal.RequireFromString("50")},
		},
		balances: map[int64]decimal.Decimal{
			1: decimal.RequireFromString("100"),
			2: decimal.RequireFromString("40"),
		},
	}
	alerter := &recordingAlerter{}
	handler := NewBankDivergenceHandler(banks.NewService(repo), discardLogger(), alerter, nil)

	err := handler.ProcessTask(context.Background(), NewBankDivergenceTask())
	require.NoError(t, err)
	require.Equal(t, []string{"banks.divergence"}, alerter.kinds)
}

func TestBankDivergenceScanCleanNoAlerts(t *testing.T) {
	repo := &fakeBankRepo{
		banks:    []banks.Bank{{ID: 1, StoredBalance: decimal.RequireFromString("75.50")}},
		balances: map[int64]decimal.Decimal{1: decimal.RequireFromString("75.50")},
	}
	alerter := &recordingAlerter{}
	handler := NewBankDivergenceHandler(banks.NewService(repo), discardLogger(), alerter, nil)

	err := handler.ProcessTask(context.Background(), NewBankDivergenceTask())
	require.NoError(t, err)
	require.Empty(t, alerter.kinds)
}

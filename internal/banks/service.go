package banks

import (
	"context"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Bank, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Bank, error) {
	return s.repo.Get(ctx, id)
}

// RequireActive resolves a bank and rejects missing or inactive ones.
// Refund postings go through this check before any persistence.
func (s *Service) RequireActive(ctx context.Context, id int64) (Bank, error) {
	if id == 0 {
		return Bank{}, shared.ErrInvalidBank
	}
	bank, err := s.repo.Get(ctx, id)
	if err != nil {
		return Bank{}, err
	}
	if !bank.IsActive {
		return Bank{}, shared.ErrInvalidBank
	}
	return bank, nil
}

// Divergences compares stored and calculated balances for every bank.
// Differences are reported, never reconciled.
func (s *Service) Divergences(ctx context.Context) ([]Divergence, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Divergence, 0, len(list))
	for _, bank := range list {
		calculated, err := s.repo.CalculatedBalance(ctx, bank)
		if err != nil {
			return nil, err
		}
		out = append(out, Divergence{
			Bank:              bank,
			CalculatedBalance: calculated,
			Difference:        bank.StoredBalance.Sub(calculated),
		})
	}
	return out, nil
}

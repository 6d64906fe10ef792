package accounts

import "context"

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Account, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Account, error) {
	return s.repo.Get(ctx, id)
}

// LoadTree fetches the chart of accounts and builds the lookup arena.
func (s *Service) LoadTree(ctx context.Context) (*Tree, error) {
	accounts, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return NewTree(accounts)
}

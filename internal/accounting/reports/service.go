package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

// AccountDirectory supplies the chart of accounts for scope resolution.
type AccountDirectory interface {
	LoadTree(ctx context.Context) (*accounts.Tree, error)
}

// LedgerRequest selects an account scope and a date range.
type LedgerRequest struct {
	AccountID       *int64
	From            time.Time
	To              time.Time
	IncludeChildren bool
}

// AgingRequest selects an aging scope as of a date.
type AgingRequest struct {
	AsOf  time.Time
	Scope Scope
}

// Service builds ledger and aging reports. Results are cached briefly in
// Redis and concurrent identical builds are collapsed; reports are read
// paths, eventual visibility of just-posted entries is acceptable.
type Service struct {
	repo     Repository
	accounts AccountDirectory
	cache    *redis.Client
	cacheTTL time.Duration
	group    singleflight.Group
}

func NewService(repo Repository, directory AccountDirectory, cache *redis.Client, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &Service{repo: repo, accounts: directory, cache: cache, cacheTTL: cacheTTL}
}

// GetLedger computes opening/period/closing balances for the scope.
// A nil account id selects the whole chart using debit-normal signs.
func (s *Service) GetLedger(ctx context.Context, req LedgerRequest) (Ledger, error) {
	if req.From.IsZero() || req.To.IsZero() {
		return Ledger{}, fmt.Errorf("reports: date range required")
	}
	if req.To.Before(req.From) {
		return Ledger{}, fmt.Errorf("reports: date range inverted")
	}
	key := ledgerCacheKey(req)
	if cached, ok := s.fromCache(ctx, key); ok {
		var ledger Ledger
		if err := json.Unmarshal(cached, &ledger); err == nil {
			return ledger, nil
		}
	}
	result, err, _ := s.group.Do(key, func() (any, error) {
		return s.buildLedger(ctx, req)
	})
	if err != nil {
		return Ledger{}, err
	}
	ledger := result.(Ledger)
	s.toCache(ctx, key, ledger)
	return ledger, nil
}

func (s *Service) buildLedger(ctx context.Context, req LedgerRequest) (Ledger, error) {
	tree, err := s.accounts.LoadTree(ctx)
	if err != nil {
		return Ledger{}, err
	}
	var scope []int64
	debitNormal := true
	if req.AccountID == nil {
		scope = tree.AllIDs()
	} else {
		account, ok := tree.Get(*req.AccountID)
		if !ok {
			return Ledger{}, shared.ErrAccountNotFound
		}
		debitNormal = account.Type.DebitNormal()
		if req.IncludeChildren {
			scope = tree.DescendantIDs(account.ID)
		} else {
			scope = []int64{account.ID}
		}
	}
	lines, err := s.repo.FetchPostedLines(ctx, scope, LinesRequest{UpTo: req.To})
	if err != nil {
		return Ledger{}, err
	}
	return BuildLedger(lines, req.From, req.To, debitNormal), nil
}

// GetAging buckets open receivables or payables by days overdue.
func (s *Service) GetAging(ctx context.Context, req AgingRequest) (AgingReport, error) {
	if !req.Scope.Valid() {
		return AgingReport{}, fmt.Errorf("reports: unknown aging scope %q", req.Scope)
	}
	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}
	key := fmt.Sprintf("reports:aging:%s:%s", req.Scope, asOf.Format("2006-01-02"))
	if cached, ok := s.fromCache(ctx, key); ok {
		var report AgingReport
		if err := json.Unmarshal(cached, &report); err == nil {
			return report, nil
		}
	}
	result, err, _ := s.group.Do(key, func() (any, error) {
		docs, err := s.repo.FetchOpenDocuments(ctx, req.Scope)
		if err != nil {
			return nil, err
		}
		return BuildAging(asOf, req.Scope, docs), nil
	})
	if err != nil {
		return AgingReport{}, err
	}
	report := result.(AgingReport)
	s.toCache(ctx, key, report)
	return report, nil
}

func ledgerCacheKey(req LedgerRequest) string {
	account := "all"
	if req.AccountID != nil {
		account = fmt.Sprintf("%d", *req.AccountID)
	}
	return fmt.Sprintf("reports:ledger:%s:%t:%s:%s",
		account, req.IncludeChildren, req.From.Format("2006-01-02"), req.To.Format("2006-01-02"))
}

func (s *Service) fromCache(ctx context.Context, key string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

func (s *Service) toCache(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	// best effort; a cache miss never fails the report
	_ = s.cache.Set(ctx, key, data, s.cacheTTL).Err()
}

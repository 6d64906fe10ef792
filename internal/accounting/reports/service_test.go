package reports

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

type fakeReportRepo struct {
	lines      []PostedLine
	docs       []OpenDocument
	lineCalls  int
	docCalls   int
	lastScope  []int64
	lastFilter LinesRequest
}

func (f *fakeReportRepo) FetchPostedLines(ctx context.Context, accountIDs []int64, req LinesRequest) ([]PostedLine, error) {
	f.lineCalls++
	f.lastScope = accountIDs
	f.lastFilter = req
	var out []PostedLine
	for _, line := range f.lines {
		for _, id := range accountIDs {
			if line.AccountID == id && !line.Date.After(req.UpTo) {
				out = append(out, line)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeReportRepo) FetchOpenDocuments(ctx context.Context, scope Scope) ([]OpenDocument, error) {
	f.docCalls++
	return f.docs, nil
}

type fakeDirectory struct {
	tree *accounts.Tree
}

func (f *fakeDirectory) LoadTree(ctx context.Context) (*accounts.Tree, error) {
	return f.tree, nil
}

func ptr(v int64) *int64 { return &v }

func testTree(t *testing.T) *accounts.Tree {
	t.Helper()
	tree, err := accounts.NewTree([]accounts.Account{
		{ID: 1, Code: "1", Name: "Assets", Type: accounts.AccountTypeAsset},
		{ID: 10, Code: "1.1", Name: "Bank", Type: accounts.AccountTypeAsset, ParentID: ptr(1)},
		{ID: 40, Code: "4", Name: "Revenue", Type: accounts.AccountTypeIncome},
	})
	require.NoError(t, err)
	return tree
}

func TestGetLedgerScopesDescendants(t *testing.T) {
	repo := &fakeReportRepo{lines: []PostedLine{
		{EntryID: 1, Date: day("2026-01-10"), AccountID: 10, Debit: d("100")},
	}}
	svc := NewService(repo, &fakeDirectory{tree: testTree(t)}, nil, 0)

	ledger, err := svc.GetLedger(context.Background(), LedgerRequest{
		AccountID:       ptr(1),
		From:            day("2026-01-01"),
		To:              day("2026-01-31"),
		IncludeChildren: true,
	})
	require.NoError(t, err)
	require.Equal(t, []int64{1, 10}, repo.lastScope)
	require.True(t, ledger.Closing.Equal(d("100")))
}

func TestGetLedgerUnknownAccount(t *testing.T) {
	svc := NewService(&fakeReportRepo{}, &fakeDirectory{tree: testTree(t)}, nil, 0)
	_, err := svc.GetLedger(context.Background(), LedgerRequest{
		AccountID: ptr(999),
		From:      day("2026-01-01"),
		To:        day("2026-01-31"),
	})
	require.ErrorIs(t, err, shared.ErrAccountNotFound)
}

func TestGetLedgerRejectsInvertedRange(t *testing.T) {
	svc := NewService(&fakeReportRepo{}, &fakeDirectory{tree: testTree(t)}, nil, 0)
	_, err := svc.GetLedger(context.Background(), LedgerRequest{
		From: day("2026-02-01"),
		To:   day("2026-01-01"),
	})
	require.Error(t, err)
}

func TestGetLedgerUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	repo := &fakeReportRepo{lines: []PostedLine{
		{EntryID: 1, Date: day("2026-01-10"), AccountID: 10, Debit: d("42")},
	}}
	svc := NewService(repo, &fakeDirectory{tree: testTree(t)}, client, time.Minute)

	req := LedgerRequest{AccountID: ptr(10), From: day("2026-01-01"), To: day("2026-01-31")}
	first, err := svc.GetLedger(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.GetLedger(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, 1, repo.lineCalls, "second read served from cache")
	require.True(t, first.Closing.Equal(second.Closing))
}

func TestGetAgingValidatesScope(t *testing.T) {
	svc := NewService(&fakeReportRepo{}, &fakeDirectory{tree: testTree(t)}, nil, 0)
	_, err := svc.GetAging(context.Background(), AgingRequest{AsOf: day("2026-06-30"), Scope: "BOGUS"})
	require.Error(t, err)
}

func TestGetAgingBuilds(t *testing.T) {
	repo := &fakeReportRepo{docs: []OpenDocument{
		{DocumentID: 1, EntityID: 1, EntityName: "Acme", DueDate: day("2026-06-01"), Remaining: d("120")},
	}}
	svc := NewService(repo, &fakeDirectory{tree: testTree(t)}, nil, 0)
	report, err := svc.GetAging(context.Background(), AgingRequest{AsOf: day("2026-06-30"), Scope: ScopeReceivables})
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	require.True(t, report.Rows[0].Days0to30.Equal(d("120")))
}

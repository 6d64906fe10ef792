package payments

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/accounting/journal"
	"github.com/meridian-erp/meridian-erp/internal/accounting/mappings"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
	"github.com/meridian-erp/meridian-erp/internal/banks"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(s string) time.Time {
	ts, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return ts
}

type memoryInvoice struct {
	total decimal.Decimal
	paid  decimal.Decimal
}

type memoryPaymentRepo struct {
	payments map[int64]Payment
	banks    map[int64]banks.Bank
	invoices map[Ref]*memoryInvoice
	entries  map[int64]journal.Entry
	opTxns   map[int64]OverpaymentTransaction
	nextID   int64
}

func newMemoryPaymentRepo() *memoryPaymentRepo {
	return &memoryPaymentRepo{
		payments: make(map[int64]Payment),
		banks:    make(map[int64]banks.Bank),
		invoices: make(map[Ref]*memoryInvoice),
		entries:  make(map[int64]journal.Entry),
		opTxns:   make(map[int64]OverpaymentTransaction),
	}
}

func (r *memoryPaymentRepo) Get(ctx context.Context, id int64) (Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return Payment{}, shared.ErrTransactionNotFound
	}
	return p, nil
}

func (r *memoryPaymentRepo) ListOverpaymentTransactions(ctx context.Context, paymentID int64) ([]OverpaymentTransaction, error) {
	var out []OverpaymentTransaction
	for _, t := range r.opTxns {
		if t.PaymentID == paymentID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *memoryPaymentRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryPaymentTx{repo: r})
}

type memoryPaymentTx struct {
	repo *memoryPaymentRepo
}

func (tx *memoryPaymentTx) GetForUpdate(ctx context.Context, id int64) (Payment, error) {
	return tx.repo.Get(ctx, id)
}

func (tx *memoryPaymentTx) SetStatus(ctx context.Context, id int64, status Status, actorID int64) error {
	p, ok := tx.repo.payments[id]
	if !ok {
		return shared.ErrTransactionNotFound
	}
	p.Status = status
	p.UpdatedBy = actorID
	tx.repo.payments[id] = p
	return nil
}

func (tx *memoryPaymentTx) SetOverpayment(ctx context.Context, id int64, amount decimal.Decimal, status OverpaymentStatus) error {
	p, ok := tx.repo.payments[id]
	if !ok {
		return shared.ErrTransactionNotFound
	}
	p.OverpaymentAmount = amount
	p.OverpaymentStatus = status
	tx.repo.payments[id] = p
	return nil
}

func (tx *memoryPaymentTx) GetBank(ctx context.Context, id int64) (banks.Bank, error) {
	b, ok := tx.repo.banks[id]
	if !ok {
		return banks.Bank{}, shared.ErrInvalidBank
	}
	return b, nil
}

func (tx *memoryPaymentTx) InvoiceOutstandingForUpdate(ctx context.Context, ref Ref) (decimal.Decimal, error) {
	inv, ok := tx.repo.invoices[ref]
	if !ok {
		return decimal.Zero, shared.ErrTransactionNotFound
	}
	return inv.total.Sub(inv.paid), nil
}

func (tx *memoryPaymentTx) AddInvoicePaid(ctx context.Context, ref Ref, delta decimal.Decimal) error {
	inv, ok := tx.repo.invoices[ref]
	if !ok {
		return shared.ErrTransactionNotFound
	}
	inv.paid = inv.paid.Add(delta)
	return nil
}

func (tx *memoryPaymentTx) InsertOverpaymentTransaction(ctx context.Context, txn OverpaymentTransaction) (OverpaymentTransaction, error) {
	tx.repo.nextID++
	txn.ID = tx.repo.nextID
	txn.CreatedAt = time.Now()
	tx.repo.opTxns[txn.ID] = txn
	return txn, nil
}

func (tx *memoryPaymentTx) InsertEntry(ctx context.Context, in journal.PostingInput) (journal.Entry, error) {
	if err := in.Validate(); err != nil {
		return journal.Entry{}, err
	}
	for _, e := range tx.repo.entries {
		if e.Source == in.Source && e.Status == journal.EntryStatusPosted {
			return journal.Entry{}, shared.ErrSourceAlreadyLinked
		}
	}
	tx.repo.nextID++
	entry := journal.Entry{
		ID:         tx.repo.nextID,
		Number:     tx.repo.nextID,
		Date:       in.Date,
		Source:     in.Source,
		Memo:       in.Memo,
		Status:     journal.EntryStatusPosted,
		ReversalOf: in.ReversalOf,
		PostedBy:   in.PostedBy,
		PostedAt:   time.Now(),
	}
	for i, line := range in.Lines {
		entry.Lines = append(entry.Lines, journal.Line{
			ID:          int64(i + 1),
			EntryID:     entry.ID,
			AccountID:   line.AccountID,
			Debit:       line.Debit,
			Credit:      line.Credit,
			Description: line.Description,
		})
	}
	tx.repo.entries[entry.ID] = entry
	return entry, nil
}

func (tx *memoryPaymentTx) GetEntryBySource(ctx context.Context, src journal.Source) (journal.Entry, error) {
	for _, e := range tx.repo.entries {
		if e.Source == src && e.Status == journal.EntryStatusPosted {
			return e, nil
		}
	}
	return journal.Entry{}, shared.ErrJournalNotFound
}

func (tx *memoryPaymentTx) MarkEntryReversed(ctx context.Context, entryID, reversalID int64) error {
	e, ok := tx.repo.entries[entryID]
	if !ok {
		return shared.ErrJournalNotFound
	}
	e.Status = journal.EntryStatusReversed
	e.ReversedBy = &reversalID
	tx.repo.entries[entryID] = e
	return nil
}

type memoryMappings map[mappings.Role]int64

func (m memoryMappings) Get(ctx context.Context, role mappings.Role) (mappings.AccountMapping, error) {
	id, ok := m[role]
	if !ok {
		return mappings.AccountMapping{}, shared.ErrMappingNotFound
	}
	return mappings.AccountMapping{Role: role, AccountID: id}, nil
}

const (
	acctBank     int64 = 10
	acctAR       int64 = 20
	acctAP       int64 = 21
	acctClearing int64 = 22
	acctIncome   int64 = 40
	acctExpense  int64 = 50
)

func testMappings() memoryMappings {
	return memoryMappings{
		mappings.RoleAccountsReceivable:  acctAR,
		mappings.RoleAccountsPayable:     acctAP,
		mappings.RoleOverpaymentClearing: acctClearing,
		mappings.RoleOtherIncome:         acctIncome,
		mappings.RoleOtherExpense:        acctExpense,
	}
}

// seedSalePayment stores a draft sale payment of 1200 against an
// invoice with 1000 outstanding.
func seedSalePayment(repo *memoryPaymentRepo) Payment {
	repo.banks[1] = banks.Bank{ID: 1, Name: "Main", Type: banks.BankTypeBank, AccountID: acctBank, IsActive: true}
	ref := Ref{Kind: RefSale, InvoiceID: 55}
	repo.invoices[ref] = &memoryInvoice{total: d("1000")}
	p := Payment{
		ID:                300,
		Number:            "PAY-0300",
		Ref:               ref,
		Date:              day("2026-03-01"),
		AmountPaid:        d("1200"),
		BankID:            1,
		Method:            MethodBankTransfer,
		Status:            StatusDraft,
		OverpaymentAmount: decimal.Zero,
		OverpaymentStatus: OverpaymentNone,
	}
	repo.payments[p.ID] = p
	return p
}

func accountNet(repo *memoryPaymentRepo, accountID int64) decimal.Decimal {
	net := decimal.Zero
	for _, e := range repo.entries {
		for _, line := range e.Lines {
			if line.AccountID == accountID {
				net = net.Add(line.Debit).Sub(line.Credit)
			}
		}
	}
	return net
}

func TestPostSalePaymentWithOverpayment(t *testing.T) {
	repo := newMemoryPaymentRepo()
	p := seedSalePayment(repo)
	svc := NewService(repo, testMappings(), nil)

	entry, err := svc.Post(context.Background(), p.ID, 7)
	require.NoError(t, err)
	require.Len(t, entry.Lines, 3)

	got := repo.payments[p.ID]
	require.Equal(t, StatusPosted, got.Status)
	require.True(t, got.OverpaymentAmount.Equal(d("200")))
	require.Equal(t, OverpaymentPending, got.OverpaymentStatus)

	// invoice settled in full, not beyond
	inv := repo.invoices[p.Ref]
	require.True(t, inv.paid.Equal(d("1000")))

	// bank debited 1200, AR relieved 1000, excess parked in clearing
	require.True(t, accountNet(repo, acctBank).Equal(d("1200")))
	require.True(t, accountNet(repo, acctAR).Equal(d("-1000")))
	require.True(t, accountNet(repo, acctClearing).Equal(d("-200")))
}

func TestPostExactPaymentNoOverpayment(t *testing.T) {
	repo := newMemoryPaymentRepo()
	p := seedSalePayment(repo)
	p.AmountPaid = d("1000")
	repo.payments[p.ID] = p
	svc := NewService(repo, testMappings(), nil)

	entry, err := svc.Post(context.Background(), p.ID, 7)
	require.NoError(t, err)
	require.Len(t, entry.Lines, 2)

	got := repo.payments[p.ID]
	require.True(t, got.OverpaymentAmount.IsZero())
	require.Equal(t, OverpaymentNone, got.OverpaymentStatus)
	require.True(t, accountNet(repo, acctClearing).IsZero())
}

func TestPostPurchasePayment(t *testing.T) {
	repo := newMemoryPaymentRepo()
	repo.banks[1] = banks.Bank{ID: 1, AccountID: acctBank, IsActive: true}
	ref := Ref{Kind: RefPurchase, InvoiceID: 77}
	repo.invoices[ref] = &memoryInvoice{total: d("400")}
	repo.payments[301] = Payment{
		ID:         301,
		Ref:        ref,
		Date:       day("2026-03-02"),
		AmountPaid: d("400"),
		BankID:     1,
		Status:     StatusDraft,
	}
	svc := NewService(repo, testMappings(), nil)

	_, err := svc.Post(context.Background(), 301, 7)
	require.NoError(t, err)

	// payable relieved with a debit, bank credited
	require.True(t, accountNet(repo, acctAP).Equal(d("400")))
	require.True(t, accountNet(repo, acctBank).Equal(d("-400")))
}

func TestPostTwiceFails(t *testing.T) {
	repo := newMemoryPaymentRepo()
	p := seedSalePayment(repo)
	svc := NewService(repo, testMappings(), nil)

	_, err := svc.Post(context.Background(), p.ID, 7)
	require.NoError(t, err)
	before := len(repo.entries)

	_, err = svc.Post(context.Background(), p.ID, 7)
	require.ErrorIs(t, err, shared.ErrAlreadyPosted)
	require.Len(t, repo.entries, before)
}

func TestReverseRestoresInvoiceAndOverpayment(t *testing.T) {
	repo := newMemoryPaymentRepo()
	p := seedSalePayment(repo)
	svc := NewService(repo, testMappings(), nil)

	_, err := svc.Post(context.Background(), p.ID, 7)
	require.NoError(t, err)

	reversal, err := svc.Reverse(context.Background(), p.ID, 7)
	require.NoError(t, err)
	require.NotNil(t, reversal.ReversalOf)

	got := repo.payments[p.ID]
	require.Equal(t, StatusDraft, got.Status)
	require.True(t, got.OverpaymentAmount.IsZero())
	require.Equal(t, OverpaymentNone, got.OverpaymentStatus)

	require.True(t, repo.invoices[p.Ref].paid.IsZero())
	require.True(t, accountNet(repo, acctBank).IsZero())
	require.True(t, accountNet(repo, acctAR).IsZero())
	require.True(t, accountNet(repo, acctClearing).IsZero())
}

func TestReverseAfterResolutionFails(t *testing.T) {
	repo := newMemoryPaymentRepo()
	p := seedSalePayment(repo)
	svc := NewService(repo, testMappings(), nil)

	_, err := svc.Post(context.Background(), p.ID, 7)
	require.NoError(t, err)
	_, err = svc.ResolveRefund(context.Background(), RefundInput{PaymentID: p.ID, Date: day("2026-03-05"), BankID: 1, ActorID: 7})
	require.NoError(t, err)

	_, err = svc.Reverse(context.Background(), p.ID, 7)
	require.ErrorIs(t, err, shared.ErrInvalidStatus)
	require.Equal(t, StatusPosted, repo.payments[p.ID].Status)
}

func TestRefundSaleOverpayment(t *testing.T) {
	repo := newMemoryPaymentRepo()
	p := seedSalePayment(repo)
	svc := NewService(repo, testMappings(), nil)

	_, err := svc.Post(context.Background(), p.ID, 7)
	require.NoError(t, err)

	txn, err := svc.ResolveRefund(context.Background(), RefundInput{
		PaymentID: p.ID,
		Date:      day("2026-03-05"),
		BankID:    1,
		Notes:     "customer refund",
		ActorID:   7,
	})
	require.NoError(t, err)
	require.Equal(t, OverpaymentTxnRefund, txn.Type)
	require.True(t, txn.Amount.Equal(d("200")))
	require.NotNil(t, txn.BankID)

	got := repo.payments[p.ID]
	require.Equal(t, OverpaymentRefunded, got.OverpaymentStatus)
	require.True(t, got.OverpaymentAmount.Equal(d("200")))

	// clearing emptied, cash out through the bank
	require.True(t, accountNet(repo, acctClearing).IsZero())
	require.True(t, accountNet(repo, acctBank).Equal(d("1000")))

	txns, err := svc.ListOverpaymentTransactions(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
}

func TestRefundTwiceFails(t *testing.T) {
	repo := newMemoryPaymentRepo()
	p := seedSalePayment(repo)
	svc := NewService(repo, testMappings(), nil)

	_, err := svc.Post(context.Background(), p.ID, 7)
	require.NoError(t, err)
	in := RefundInput{PaymentID: p.ID, Date: day("2026-03-05"), BankID: 1, ActorID: 7}
	_, err = svc.ResolveRefund(context.Background(), in)
	require.NoError(t, err)

	_, err = svc.ResolveRefund(context.Background(), in)
	require.ErrorIs(t, err, shared.ErrOverpaymentAlreadyResolved)

	txns, _ := svc.ListOverpaymentTransactions(context.Background(), p.ID)
	require.Len(t, txns, 1, "resolution history unchanged")
}

func TestRefundWithoutOverpaymentFails(t *testing.T) {
	repo := newMemoryPaymentRepo()
	p := seedSalePayment(repo)
	p.AmountPaid = d("1000")
	repo.payments[p.ID] = p
	svc := NewService(repo, testMappings(), nil)

	_, err := svc.Post(context.Background(), p.ID, 7)
	require.NoError(t, err)

	_, err = svc.ResolveRefund(context.Background(), RefundInput{PaymentID: p.ID, Date: day("2026-03-05"), BankID: 1, ActorID: 7})
	require.ErrorIs(t, err, shared.ErrNoOverpayment)
}

func TestRefundUnknownBankFails(t *testing.T) {
	repo := newMemoryPaymentRepo()
	p := seedSalePayment(repo)
	svc := NewService(repo, testMappings(), nil)

	_, err := svc.Post(context.Background(), p.ID, 7)
	require.NoError(t, err)

	_, err = svc.ResolveRefund(context.Background(), RefundInput{PaymentID: p.ID, Date: day("2026-03-05"), BankID: 99, ActorID: 7})
	require.ErrorIs(t, err, shared.ErrInvalidBank)
	require.Equal(t, OverpaymentPending, repo.payments[p.ID].OverpaymentStatus)

	_, err = svc.ResolveRefund(context.Background(), RefundInput{PaymentID: p.ID, Date: day("2026-03-05"), ActorID: 7})
	require.ErrorIs(t, err, shared.ErrInvalidBank)
}

func TestRefundInactiveBankFails(t *testing.T) {
	repo := newMemoryPaymentRepo()
	p := seedSalePayment(repo)
	repo.banks[2] = banks.Bank{ID: 2, AccountID: 11, IsActive: false}
	svc := NewService(repo, testMappings(), nil)

	_, err := svc.Post(context.Background(), p.ID, 7)
	require.NoError(t, err)

	_, err = svc.ResolveRefund(context.Background(), RefundInput{PaymentID: p.ID, Date: day("2026-03-05"), BankID: 2, ActorID: 7})
	require.ErrorIs(t, err, shared.ErrInvalidBank)
	require.Empty(t, repo.opTxns)
}

func TestWriteOffSaleConvertsToIncome(t *testing.T) {
	repo := newMemoryPaymentRepo()
	p := seedSalePayment(repo)
	svc := NewService(repo, testMappings(), nil)

	_, err := svc.Post(context.Background(), p.ID, 7)
	require.NoError(t, err)

	txn, err := svc.ResolveWriteOff(context.Background(), WriteOffInput{PaymentID: p.ID, Date: day("2026-03-06"), ActorID: 7})
	require.NoError(t, err)
	require.Equal(t, OverpaymentTxnConvert, txn.Type)
	require.Nil(t, txn.BankID)

	got := repo.payments[p.ID]
	require.Equal(t, OverpaymentConverted, got.OverpaymentStatus)

	require.True(t, accountNet(repo, acctClearing).IsZero())
	require.True(t, accountNet(repo, acctIncome).Equal(d("-200")))
}

func TestWriteOffPurchaseGoesToExpense(t *testing.T) {
	repo := newMemoryPaymentRepo()
	repo.banks[1] = banks.Bank{ID: 1, AccountID: acctBank, IsActive: true}
	ref := Ref{Kind: RefPurchase, InvoiceID: 88}
	repo.invoices[ref] = &memoryInvoice{total: d("300")}
	repo.payments[302] = Payment{
		ID:         302,
		Ref:        ref,
		Date:       day("2026-03-03"),
		AmountPaid: d("350"),
		BankID:     1,
		Status:     StatusDraft,
	}
	svc := NewService(repo, testMappings(), nil)

	_, err := svc.Post(context.Background(), 302, 7)
	require.NoError(t, err)
	require.Equal(t, OverpaymentPending, repo.payments[302].OverpaymentStatus)

	txn, err := svc.ResolveWriteOff(context.Background(), WriteOffInput{PaymentID: 302, Date: day("2026-03-07"), ActorID: 7})
	require.NoError(t, err)
	require.Equal(t, OverpaymentTxnWriteOff, txn.Type)

	require.Equal(t, OverpaymentWrittenOff, repo.payments[302].OverpaymentStatus)
	require.True(t, accountNet(repo, acctClearing).IsZero())
	require.True(t, accountNet(repo, acctExpense).Equal(d("50")))
}

func TestResolutionTotalsMatchOverpayment(t *testing.T) {
	repo := newMemoryPaymentRepo()
	p := seedSalePayment(repo)
	svc := NewService(repo, testMappings(), nil)

	_, err := svc.Post(context.Background(), p.ID, 7)
	require.NoError(t, err)
	_, err = svc.ResolveRefund(context.Background(), RefundInput{PaymentID: p.ID, Date: day("2026-03-05"), BankID: 1, ActorID: 7})
	require.NoError(t, err)

	txns, err := svc.ListOverpaymentTransactions(context.Background(), p.ID)
	require.NoError(t, err)
	sum := decimal.Zero
	for _, txn := range txns {
		sum = sum.Add(txn.Amount)
	}
	require.True(t, sum.Equal(repo.payments[p.ID].OverpaymentAmount))
}

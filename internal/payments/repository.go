package payments

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/accounting/journal"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
	"github.com/meridian-erp/meridian-erp/internal/banks"
)

// Repository encapsulates DB operations for payments.
type Repository interface {
	Get(ctx context.Context, id int64) (Payment, error)
	ListOverpaymentTransactions(ctx context.Context, paymentID int64) ([]OverpaymentTransaction, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the operations of one atomic posting or
// resolution. Invoice, journal and payment writes share the transaction.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id int64) (Payment, error)
	SetStatus(ctx context.Context, id int64, status Status, actorID int64) error
	SetOverpayment(ctx context.Context, id int64, amount decimal.Decimal, status OverpaymentStatus) error
	GetBank(ctx context.Context, id int64) (banks.Bank, error)

	// InvoiceOutstandingForUpdate locks the referenced invoice and
	// returns its remaining balance at that instant.
	InvoiceOutstandingForUpdate(ctx context.Context, ref Ref) (decimal.Decimal, error)
	AddInvoicePaid(ctx context.Context, ref Ref, delta decimal.Decimal) error

	InsertOverpaymentTransaction(ctx context.Context, txn OverpaymentTransaction) (OverpaymentTransaction, error)

	InsertEntry(ctx context.Context, in journal.PostingInput) (journal.Entry, error)
	GetEntryBySource(ctx context.Context, src journal.Source) (journal.Entry, error)
	MarkEntryReversed(ctx context.Context, entryID, reversalID int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const paymentColumns = `id, number, ref_kind, invoice_id, date, amount_paid, bank_id, method, status, overpayment_amount, overpayment_status, notes, created_by, updated_by, created_at, updated_at`

func scanPayment(row pgx.Row) (Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.Number, &p.Ref.Kind, &p.Ref.InvoiceID, &p.Date, &p.AmountPaid, &p.BankID, &p.Method, &p.Status, &p.OverpaymentAmount, &p.OverpaymentStatus, &p.Notes, &p.CreatedBy, &p.UpdatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payment{}, shared.ErrTransactionNotFound
		}
		return Payment{}, err
	}
	return p, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Payment, error) {
	row := r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=$1`, id)
	return scanPayment(row)
}

func (r *repository) ListOverpaymentTransactions(ctx context.Context, paymentID int64) ([]OverpaymentTransaction, error) {
	rows, err := r.db.Query(ctx, `SELECT id, number, payment_id, type, amount, date, bank_id, notes, created_by, created_at
FROM overpayment_transactions WHERE payment_id=$1 ORDER BY id ASC`, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []OverpaymentTransaction
	for rows.Next() {
		var t OverpaymentTransaction
		if err := rows.Scan(&t.ID, &t.Number, &t.PaymentID, &t.Type, &t.Amount, &t.Date, &t.BankID, &t.Notes, &t.CreatedBy, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetForUpdate(ctx context.Context, id int64) (Payment, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=$1 FOR UPDATE`, id)
	return scanPayment(row)
}

func (r *txRepository) SetStatus(ctx context.Context, id int64, status Status, actorID int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE payments SET status=$2, updated_by=$3, updated_at=NOW() WHERE id=$1`, id, status, actorID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrTransactionNotFound
	}
	return nil
}

func (r *txRepository) SetOverpayment(ctx context.Context, id int64, amount decimal.Decimal, status OverpaymentStatus) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE payments SET overpayment_amount=$2, overpayment_status=$3, updated_at=NOW() WHERE id=$1`, id, amount, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrTransactionNotFound
	}
	return nil
}

func (r *txRepository) GetBank(ctx context.Context, id int64) (banks.Bank, error) {
	var b banks.Bank
	err := r.tx.QueryRow(ctx, `SELECT id, name, type, account_id, stored_balance, is_active, created_at, updated_at FROM banks WHERE id=$1`, id).
		Scan(&b.ID, &b.Name, &b.Type, &b.AccountID, &b.StoredBalance, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return banks.Bank{}, shared.ErrInvalidBank
		}
		return banks.Bank{}, err
	}
	return b, nil
}

func invoiceTable(kind RefKind) string {
	if kind == RefPurchase {
		return "purchase_invoices"
	}
	return "sales_invoices"
}

func (r *txRepository) InvoiceOutstandingForUpdate(ctx context.Context, ref Ref) (decimal.Decimal, error) {
	var outstanding decimal.Decimal
	err := r.tx.QueryRow(ctx, `SELECT total - paid_amount FROM `+invoiceTable(ref.Kind)+` WHERE id=$1 FOR UPDATE`, ref.InvoiceID).Scan(&outstanding)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, shared.ErrTransactionNotFound
		}
		return decimal.Zero, err
	}
	return outstanding, nil
}

func (r *txRepository) AddInvoicePaid(ctx context.Context, ref Ref, delta decimal.Decimal) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE `+invoiceTable(ref.Kind)+` SET paid_amount = paid_amount + $2, updated_at=NOW() WHERE id=$1`, ref.InvoiceID, delta)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrTransactionNotFound
	}
	return nil
}

func (r *txRepository) InsertOverpaymentTransaction(ctx context.Context, txn OverpaymentTransaction) (OverpaymentTransaction, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO overpayment_transactions (number, payment_id, type, amount, date, bank_id, notes, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id, created_at`,
		txn.Number, txn.PaymentID, txn.Type, txn.Amount, txn.Date, txn.BankID, txn.Notes, txn.CreatedBy)
	if err := row.Scan(&txn.ID, &txn.CreatedAt); err != nil {
		return OverpaymentTransaction{}, err
	}
	return txn, nil
}

func (r *txRepository) InsertEntry(ctx context.Context, in journal.PostingInput) (journal.Entry, error) {
	return journal.InsertEntry(ctx, r.tx, in)
}

func (r *txRepository) GetEntryBySource(ctx context.Context, src journal.Source) (journal.Entry, error) {
	return journal.GetEntryBySource(ctx, r.tx, src)
}

func (r *txRepository) MarkEntryReversed(ctx context.Context, entryID, reversalID int64) error {
	return journal.MarkReversed(ctx, r.tx, entryID, reversalID)
}

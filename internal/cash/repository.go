package cash

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/accounting/journal"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
	"github.com/meridian-erp/meridian-erp/internal/banks"
)

// Repository encapsulates DB operations for cash transactions.
type Repository interface {
	Get(ctx context.Context, id int64) (Transaction, error)
	List(ctx context.Context, limit, offset int) ([]Transaction, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a posting transaction.
// Journal operations live here so the status change and the journal rows
// share one atomic unit of work.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id int64) (Transaction, error)
	SetStatus(ctx context.Context, id int64, status Status, actorID int64) error
	GetBank(ctx context.Context, id int64) (banks.Bank, error)
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

const txColumns = `id, number, kind, date, bank_id, counter_account_id, amount, status, description, created_by, updated_by, created_at, updated_at`

func scanTransaction(row pgx.Row) (Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.Number, &t.Kind, &t.Date, &t.BankID, &t.CounterAccountID, &t.Amount, &t.Status, &t.Description, &t.CreatedBy, &t.UpdatedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, shared.ErrTransactionNotFound
		}
		return Transaction{}, err
	}
	return t, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Transaction, error) {
	row := r.db.QueryRow(ctx, `SELECT `+txColumns+` FROM cash_transactions WHERE id=$1`, id)
	return scanTransaction(row)
}

func (r *repository) List(ctx context.Context, limit, offset int) ([]Transaction, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, `SELECT `+txColumns+` FROM cash_transactions ORDER BY date DESC, id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
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

// GetForUpdate locks the transaction row before precondition checks so
// concurrent operations on the same id serialise.
func (r *txRepository) GetForUpdate(ctx context.Context, id int64) (Transaction, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+txColumns+` FROM cash_transactions WHERE id=$1 FOR UPDATE`, id)
	return scanTransaction(row)
}

func (r *txRepository) SetStatus(ctx context.Context, id int64, status Status, actorID int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE cash_transactions SET status=$2, updated_by=$3, updated_at=NOW() WHERE id=$1`, id, status, actorID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrTransactionNotFound
	}
	return nil
}

// GetBank reads the bank inside the posting transaction so the referenced
// ledger account is consistent with the rows being written.
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

func (r *txRepository) InsertEntry(ctx context.Context, in journal.PostingInput) (journal.Entry, error) {
	return journal.InsertEntry(ctx, r.tx, in)
}

func (r *txRepository) GetEntryBySource(ctx context.Context, src journal.Source) (journal.Entry, error) {
	return journal.GetEntryBySource(ctx, r.tx, src)
}

func (r *txRepository) MarkEntryReversed(ctx context.Context, entryID, reversalID int64) error {
	return journal.MarkReversed(ctx, r.tx, entryID, reversalID)
}

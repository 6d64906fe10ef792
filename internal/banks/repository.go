package banks

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

type Repository interface {
	List(ctx context.Context) ([]Bank, error)
	Get(ctx context.Context, id int64) (Bank, error)
	CalculatedBalance(ctx context.Context, bank Bank) (decimal.Decimal, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context) ([]Bank, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, type, account_id, stored_balance, is_active, created_at, updated_at FROM banks ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Bank
	for rows.Next() {
		var b Bank
		if err := rows.Scan(&b.ID, &b.Name, &b.Type, &b.AccountID, &b.StoredBalance, &b.IsActive, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Bank, error) {
	var b Bank
	err := r.db.QueryRow(ctx, `SELECT id, name, type, account_id, stored_balance, is_active, created_at, updated_at FROM banks WHERE id=$1`, id).
		Scan(&b.ID, &b.Name, &b.Type, &b.AccountID, &b.StoredBalance, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Bank{}, shared.ErrInvalidBank
		}
		return Bank{}, err
	}
	return b, nil
}

// CalculatedBalance sums signed postings on the bank's ledger account.
// Bank accounts are asset accounts, so debits increase the balance.
func (r *repository) CalculatedBalance(ctx context.Context, bank Bank) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(l.debit - l.credit), 0)
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
WHERE e.status IN ('POSTED','REVERSED') AND l.account_id = $1`, bank.AccountID).Scan(&balance)
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

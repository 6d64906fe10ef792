package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository fetches ledger lines and open documents in single snapshot
// queries so a report never mixes partially committed entries.
type Repository interface {
	FetchPostedLines(ctx context.Context, accountIDs []int64, req LinesRequest) ([]PostedLine, error)
	FetchOpenDocuments(ctx context.Context, scope Scope) ([]OpenDocument, error)
}

// LinesRequest bounds a ledger line fetch.
type LinesRequest struct {
	UpTo time.Time // inclusive upper date bound
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// FetchPostedLines loads lines of posted and reversed entries for the
// account scope. Reversed originals stay in the result; their
// compensating entries cancel them out.
func (r *repository) FetchPostedLines(ctx context.Context, accountIDs []int64, req LinesRequest) ([]PostedLine, error) {
	rows, err := r.db.Query(ctx, `SELECT l.entry_id, e.number, e.date, l.account_id, l.debit, l.credit, l.description, e.memo
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
WHERE e.status IN ('POSTED','REVERSED')
  AND l.account_id = ANY($1)
  AND e.date <= $2
ORDER BY e.date ASC, e.id ASC, l.id ASC`, accountIDs, req.UpTo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []PostedLine
	for rows.Next() {
		var line PostedLine
		if err := rows.Scan(&line.EntryID, &line.EntryNumber, &line.Date, &line.AccountID, &line.Debit, &line.Credit, &line.Description, &line.Memo); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// FetchOpenDocuments loads unpaid posted invoices with a remaining balance.
func (r *repository) FetchOpenDocuments(ctx context.Context, scope Scope) ([]OpenDocument, error) {
	var query string
	switch scope {
	case ScopeReceivables:
		query = `SELECT i.id, i.number, i.customer_id, c.name, i.due_date, i.total - i.paid_amount
FROM sales_invoices i
JOIN customers c ON c.id = i.customer_id
WHERE i.status = 'POSTED' AND i.total - i.paid_amount > 0
ORDER BY i.due_date ASC, i.id ASC`
	case ScopePayables:
		query = `SELECT i.id, i.number, i.supplier_id, s.name, i.due_date, i.total - i.paid_amount
FROM purchase_invoices i
JOIN suppliers s ON s.id = i.supplier_id
WHERE i.status = 'POSTED' AND i.total - i.paid_amount > 0
ORDER BY i.due_date ASC, i.id ASC`
	default:
		return nil, fmt.Errorf("reports: unknown aging scope %q", scope)
	}
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []OpenDocument
	for rows.Next() {
		var doc OpenDocument
		if err := rows.Scan(&doc.DocumentID, &doc.Number, &doc.EntityID, &doc.EntityName, &doc.DueDate, &doc.Remaining); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

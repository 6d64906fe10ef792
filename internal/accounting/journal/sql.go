package journal

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

// Transactional helpers shared by the posting workflows. They operate on
// the caller's pgx.Tx so the status change of the source transaction and
// the journal rows commit or roll back together.

// InsertEntry validates and persists an entry with its lines inside tx.
func InsertEntry(ctx context.Context, tx pgx.Tx, in PostingInput) (Entry, error) {
	if err := in.Validate(); err != nil {
		return Entry{}, err
	}
	row := tx.QueryRow(ctx, `INSERT INTO journal_entries (date, source_kind, source_id, memo, status, reversal_of, posted_by)
VALUES ($1,$2,$3,$4,'POSTED',$5,$6) RETURNING id, number, posted_at, created_at, updated_at`,
		in.Date, string(in.Source.Kind), in.Source.ID, in.Memo, in.ReversalOf, nullInt(in.PostedBy))
	entry := Entry{
		Date:       in.Date,
		Source:     in.Source,
		Memo:       in.Memo,
		Status:     EntryStatusPosted,
		ReversalOf: in.ReversalOf,
		PostedBy:   in.PostedBy,
	}
	if err := row.Scan(&entry.ID, &entry.Number, &entry.PostedAt, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_journal_entries_source" {
			return Entry{}, shared.ErrSourceAlreadyLinked
		}
		return Entry{}, err
	}
	for _, line := range in.Lines {
		var inserted Line
		err := tx.QueryRow(ctx, `INSERT INTO journal_lines (entry_id, account_id, debit, credit, description)
VALUES ($1,$2,$3,$4,$5) RETURNING id, created_at`,
			entry.ID, line.AccountID, line.Debit, line.Credit, line.Description).
			Scan(&inserted.ID, &inserted.CreatedAt)
		if err != nil {
			return Entry{}, err
		}
		inserted.EntryID = entry.ID
		inserted.AccountID = line.AccountID
		inserted.Debit = line.Debit
		inserted.Credit = line.Credit
		inserted.Description = line.Description
		entry.Lines = append(entry.Lines, inserted)
	}
	return entry, nil
}

// GetEntryBySource loads the active (non-reversed) entry for a source.
func GetEntryBySource(ctx context.Context, tx pgx.Tx, src Source) (Entry, error) {
	row := tx.QueryRow(ctx, `SELECT id, number, date, source_kind, source_id, memo, status, reversal_of, reversed_by, posted_by, posted_at, created_at, updated_at
FROM journal_entries WHERE source_kind=$1 AND source_id=$2 AND status='POSTED' ORDER BY id DESC LIMIT 1`,
		string(src.Kind), src.ID)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, shared.ErrJournalNotFound
		}
		return Entry{}, err
	}
	entry.Lines, err = loadLines(ctx, tx, entry.ID)
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// GetEntryWithLines loads an entry by id inside tx.
func GetEntryWithLines(ctx context.Context, tx pgx.Tx, entryID int64) (Entry, error) {
	row := tx.QueryRow(ctx, `SELECT id, number, date, source_kind, source_id, memo, status, reversal_of, reversed_by, posted_by, posted_at, created_at, updated_at
FROM journal_entries WHERE id=$1`, entryID)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, shared.ErrJournalNotFound
		}
		return Entry{}, err
	}
	entry.Lines, err = loadLines(ctx, tx, entry.ID)
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// MarkReversed soft-flags the original entry and links its compensation.
func MarkReversed(ctx context.Context, tx pgx.Tx, entryID, reversalID int64) error {
	cmd, err := tx.Exec(ctx, `UPDATE journal_entries SET status='REVERSED', reversed_by=$2, updated_at=NOW() WHERE id=$1 AND status='POSTED'`, entryID, reversalID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrJournalNotFound
	}
	return nil
}

func loadLines(ctx context.Context, tx pgx.Tx, entryID int64) ([]Line, error) {
	rows, err := tx.Query(ctx, `SELECT id, entry_id, account_id, debit, credit, description, created_at
FROM journal_lines WHERE entry_id=$1 ORDER BY id ASC`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []Line
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.ID, &line.EntryID, &line.AccountID, &line.Debit, &line.Credit, &line.Description, &line.CreatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	var kind string
	err := row.Scan(&e.ID, &e.Number, &e.Date, &kind, &e.Source.ID, &e.Memo, &e.Status, &e.ReversalOf, &e.ReversedBy, &e.PostedBy, &e.PostedAt, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return Entry{}, err
	}
	e.Source.Kind = SourceKind(kind)
	return e, nil
}

func nullInt(val int64) any {
	if val == 0 {
		return nil
	}
	return val
}

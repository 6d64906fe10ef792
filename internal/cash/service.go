package cash

import (
	"context"
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/accounting/journal"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
	internalShared "github.com/meridian-erp/meridian-erp/internal/shared"
)

// AuditPort records posting actions for the audit trail.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// Service owns the draft/posted lifecycle of cash transactions.
type Service struct {
	repo  Repository
	audit AuditPort
	now   func() time.Time
}

func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) Get(ctx context.Context, id int64) (Transaction, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]Transaction, error) {
	return s.repo.List(ctx, limit, offset)
}

func sourceKind(kind Kind) journal.SourceKind {
	if kind == KindCashOut {
		return journal.SourceCashOut
	}
	return journal.SourceCashIn
}

// Post transitions a draft transaction to posted and writes its journal
// entry, atomically. A posted transaction is rejected with ErrAlreadyPosted
// and left untouched.
func (s *Service) Post(ctx context.Context, id, actorID int64) (journal.Entry, error) {
	if id == 0 {
		return journal.Entry{}, fmt.Errorf("cash: transaction id required")
	}
	var entry journal.Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		txn, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if txn.Status != StatusDraft {
			return shared.ErrAlreadyPosted
		}
		bank, err := tx.GetBank(ctx, txn.BankID)
		if err != nil {
			return err
		}
		if !bank.IsActive {
			return shared.ErrInvalidBank
		}
		lines, err := journal.BuildLines(journal.Descriptor{
			Kind:             sourceKind(txn.Kind),
			BankAccountID:    bank.AccountID,
			CounterAccountID: txn.CounterAccountID,
			Amount:           txn.Amount,
			Description:      txn.Description,
		})
		if err != nil {
			return err
		}
		entry, err = tx.InsertEntry(ctx, journal.PostingInput{
			Date:     txn.Date,
			Source:   journal.Source{Kind: sourceKind(txn.Kind), ID: txn.ID},
			Memo:     txn.Description,
			PostedBy: actorID,
			Lines:    lines,
		})
		if err != nil {
			return err
		}
		return tx.SetStatus(ctx, txn.ID, StatusPosted, actorID)
	})
	if err != nil {
		return journal.Entry{}, err
	}
	s.record(ctx, actorID, "cash.post", id, map[string]any{"entry_id": entry.ID, "entry_number": entry.Number})
	return entry, nil
}

// Reverse creates the exact debit/credit mirror of the posted entry,
// soft-flags the original, and returns the transaction to draft. History
// is never deleted.
func (s *Service) Reverse(ctx context.Context, id, actorID int64) (journal.Entry, error) {
	if id == 0 {
		return journal.Entry{}, fmt.Errorf("cash: transaction id required")
	}
	var reversal journal.Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		txn, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if txn.Status != StatusPosted {
			return shared.ErrNotPosted
		}
		original, err := tx.GetEntryBySource(ctx, journal.Source{Kind: sourceKind(txn.Kind), ID: txn.ID})
		if err != nil {
			return err
		}
		reversal, err = tx.InsertEntry(ctx, journal.PostingInput{
			Date:       original.Date,
			Source:     journal.Source{Kind: journal.SourceReversal, ID: original.ID},
			Memo:       fmt.Sprintf("Reversal of JE %d", original.Number),
			PostedBy:   actorID,
			ReversalOf: &original.ID,
			Lines:      journal.ReverseLines(original.Lines),
		})
		if err != nil {
			return err
		}
		if err := tx.MarkEntryReversed(ctx, original.ID, reversal.ID); err != nil {
			return err
		}
		return tx.SetStatus(ctx, txn.ID, StatusDraft, actorID)
	})
	if err != nil {
		return journal.Entry{}, err
	}
	s.record(ctx, actorID, "cash.reverse", id, map[string]any{"reversal_id": reversal.ID, "reversal_number": reversal.Number})
	return reversal, nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, internalShared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "cash_transaction",
		EntityID: fmt.Sprintf("%d", id),
		Meta:     meta,
		At:       s.now(),
	})
}

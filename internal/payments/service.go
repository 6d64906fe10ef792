package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/accounting/journal"
	"github.com/meridian-erp/meridian-erp/internal/accounting/mappings"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
	internalShared "github.com/meridian-erp/meridian-erp/internal/shared"
)

// MappingPort resolves posting roles to ledger accounts.
type MappingPort interface {
	Get(ctx context.Context, role mappings.Role) (mappings.AccountMapping, error)
}

// AuditPort records posting actions for the audit trail.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// Service owns the payment posting lifecycle and overpayment resolution.
type Service struct {
	repo     Repository
	mappings MappingPort
	audit    AuditPort
	now      func() time.Time
}

func NewService(repo Repository, mappingPort MappingPort, audit AuditPort) *Service {
	return &Service{repo: repo, mappings: mappingPort, audit: audit, now: time.Now}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) Get(ctx context.Context, id int64) (Payment, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListOverpaymentTransactions(ctx context.Context, paymentID int64) ([]OverpaymentTransaction, error) {
	return s.repo.ListOverpaymentTransactions(ctx, paymentID)
}

func sourceKind(ref Ref) journal.SourceKind {
	if ref.Kind == RefPurchase {
		return journal.SourcePurchasePayment
	}
	return journal.SourceSalePayment
}

// Post writes the payment's journal entry, applies the paid amount to the
// referenced invoice, and flags any excess as a pending overpayment. The
// outstanding balance is read under the invoice row lock, so the excess
// computed here is the excess at posting time.
func (s *Service) Post(ctx context.Context, id, actorID int64) (journal.Entry, error) {
	if id == 0 {
		return journal.Entry{}, fmt.Errorf("payments: payment id required")
	}
	receivable, payable, clearing, err := s.resolvePostingAccounts(ctx)
	if err != nil {
		return journal.Entry{}, err
	}
	var entry journal.Entry
	var overpayment decimal.Decimal
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		payment, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if payment.Status != StatusDraft {
			return shared.ErrAlreadyPosted
		}
		bank, err := tx.GetBank(ctx, payment.BankID)
		if err != nil {
			return err
		}
		if !bank.IsActive {
			return shared.ErrInvalidBank
		}
		outstanding, err := tx.InvoiceOutstandingForUpdate(ctx, payment.Ref)
		if err != nil {
			return err
		}
		if outstanding.IsNegative() {
			outstanding = decimal.Zero
		}
		lines, err := journal.BuildLines(journal.Descriptor{
			Kind:                sourceKind(payment.Ref),
			BankAccountID:       bank.AccountID,
			ReceivableAccountID: receivable,
			PayableAccountID:    payable,
			ClearingAccountID:   clearing,
			AmountPaid:          payment.AmountPaid,
			Outstanding:         outstanding,
			Description:         payment.Notes,
		})
		if err != nil {
			return err
		}
		entry, err = tx.InsertEntry(ctx, journal.PostingInput{
			Date:     payment.Date,
			Source:   journal.Source{Kind: sourceKind(payment.Ref), ID: payment.ID},
			Memo:     fmt.Sprintf("Payment %s", payment.Number),
			PostedBy: actorID,
			Lines:    lines,
		})
		if err != nil {
			return err
		}
		applied := payment.AmountPaid
		if applied.GreaterThan(outstanding) {
			applied = outstanding
		}
		if applied.IsPositive() {
			if err := tx.AddInvoicePaid(ctx, payment.Ref, applied); err != nil {
				return err
			}
		}
		overpayment = payment.AmountPaid.Sub(applied)
		status := OverpaymentNone
		if overpayment.IsPositive() {
			status = OverpaymentPending
		}
		if err := tx.SetOverpayment(ctx, payment.ID, overpayment, status); err != nil {
			return err
		}
		return tx.SetStatus(ctx, payment.ID, StatusPosted, actorID)
	})
	if err != nil {
		return journal.Entry{}, err
	}
	s.record(ctx, actorID, "payment.post", id, map[string]any{
		"entry_id":    entry.ID,
		"overpayment": overpayment.String(),
	})
	return entry, nil
}

// Reverse mirrors the payment's journal entry and returns it to draft.
// A payment whose overpayment has already been resolved keeps its
// resolution history and cannot be reversed.
func (s *Service) Reverse(ctx context.Context, id, actorID int64) (journal.Entry, error) {
	if id == 0 {
		return journal.Entry{}, fmt.Errorf("payments: payment id required")
	}
	var reversal journal.Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		payment, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if payment.Status != StatusPosted {
			return shared.ErrNotPosted
		}
		if payment.OverpaymentStatus.Terminal() {
			return shared.ErrInvalidStatus
		}
		original, err := tx.GetEntryBySource(ctx, journal.Source{Kind: sourceKind(payment.Ref), ID: payment.ID})
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
		applied := payment.AmountPaid.Sub(payment.OverpaymentAmount)
		if applied.IsPositive() {
			if err := tx.AddInvoicePaid(ctx, payment.Ref, applied.Neg()); err != nil {
				return err
			}
		}
		if err := tx.SetOverpayment(ctx, payment.ID, decimal.Zero, OverpaymentNone); err != nil {
			return err
		}
		return tx.SetStatus(ctx, payment.ID, StatusDraft, actorID)
	})
	if err != nil {
		return journal.Entry{}, err
	}
	s.record(ctx, actorID, "payment.reverse", id, map[string]any{"reversal_id": reversal.ID})
	return reversal, nil
}

// RefundInput carries the parameters of an overpayment refund.
type RefundInput struct {
	PaymentID int64
	Date      time.Time
	BankID    int64
	Notes     string
	ActorID   int64
}

// ResolveRefund moves the pending excess through the given bank and
// closes the overpayment as refunded. Exactly one resolution action is
// permitted per payment; a second attempt is rejected without touching
// any state.
func (s *Service) ResolveRefund(ctx context.Context, in RefundInput) (OverpaymentTransaction, error) {
	if in.PaymentID == 0 {
		return OverpaymentTransaction{}, fmt.Errorf("payments: payment id required")
	}
	if in.BankID == 0 {
		return OverpaymentTransaction{}, shared.ErrInvalidBank
	}
	if in.Date.IsZero() {
		return OverpaymentTransaction{}, fmt.Errorf("payments: refund date required")
	}
	clearing, err := s.mappings.Get(ctx, mappings.RoleOverpaymentClearing)
	if err != nil {
		return OverpaymentTransaction{}, err
	}
	var txn OverpaymentTransaction
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		payment, err := s.pendingForUpdate(ctx, tx, in.PaymentID)
		if err != nil {
			return err
		}
		bank, err := tx.GetBank(ctx, in.BankID)
		if err != nil {
			return err
		}
		if !bank.IsActive {
			return shared.ErrInvalidBank
		}
		bankID := in.BankID
		txn, err = tx.InsertOverpaymentTransaction(ctx, OverpaymentTransaction{
			Number:    overpaymentNumber(),
			PaymentID: payment.ID,
			Type:      OverpaymentTxnRefund,
			Amount:    payment.OverpaymentAmount,
			Date:      in.Date,
			BankID:    &bankID,
			Notes:     in.Notes,
			CreatedBy: in.ActorID,
		})
		if err != nil {
			return err
		}
		// sale side: cash leaves through the bank; purchase side: the
		// supplier returns the excess. Direction mirrors the original.
		var lines []journal.LineInput
		if payment.Ref.Kind == RefSale {
			lines = []journal.LineInput{
				{AccountID: clearing.AccountID, Debit: payment.OverpaymentAmount, Description: in.Notes},
				{AccountID: bank.AccountID, Credit: payment.OverpaymentAmount, Description: in.Notes},
			}
		} else {
			lines = []journal.LineInput{
				{AccountID: bank.AccountID, Debit: payment.OverpaymentAmount, Description: in.Notes},
				{AccountID: clearing.AccountID, Credit: payment.OverpaymentAmount, Description: in.Notes},
			}
		}
		if _, err := tx.InsertEntry(ctx, journal.PostingInput{
			Date:     in.Date,
			Source:   journal.Source{Kind: journal.SourceOverpaymentRefund, ID: txn.ID},
			Memo:     fmt.Sprintf("Overpayment refund %s", txn.Number),
			PostedBy: in.ActorID,
			Lines:    lines,
		}); err != nil {
			return err
		}
		return tx.SetOverpayment(ctx, payment.ID, payment.OverpaymentAmount, OverpaymentRefunded)
	})
	if err != nil {
		return OverpaymentTransaction{}, err
	}
	s.record(ctx, in.ActorID, "payment.overpayment.refund", in.PaymentID, map[string]any{
		"transaction": txn.Number,
		"amount":      txn.Amount.String(),
	})
	return txn, nil
}

// WriteOffInput carries the parameters of a write-off / conversion.
type WriteOffInput struct {
	PaymentID int64
	Date      time.Time
	Notes     string
	ActorID   int64
}

// ResolveWriteOff closes the pending excess without cash movement. Sale
// overpayments convert to other income; purchase overpayments are
// written off to other expense.
func (s *Service) ResolveWriteOff(ctx context.Context, in WriteOffInput) (OverpaymentTransaction, error) {
	if in.PaymentID == 0 {
		return OverpaymentTransaction{}, fmt.Errorf("payments: payment id required")
	}
	if in.Date.IsZero() {
		return OverpaymentTransaction{}, fmt.Errorf("payments: write-off date required")
	}
	clearing, err := s.mappings.Get(ctx, mappings.RoleOverpaymentClearing)
	if err != nil {
		return OverpaymentTransaction{}, err
	}
	var txn OverpaymentTransaction
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		payment, err := s.pendingForUpdate(ctx, tx, in.PaymentID)
		if err != nil {
			return err
		}
		txnType := OverpaymentTxnConvert
		finalStatus := OverpaymentConverted
		counterRole := mappings.RoleOtherIncome
		if payment.Ref.Kind == RefPurchase {
			txnType = OverpaymentTxnWriteOff
			finalStatus = OverpaymentWrittenOff
			counterRole = mappings.RoleOtherExpense
		}
		counter, err := s.mappings.Get(ctx, counterRole)
		if err != nil {
			return err
		}
		txn, err = tx.InsertOverpaymentTransaction(ctx, OverpaymentTransaction{
			Number:    overpaymentNumber(),
			PaymentID: payment.ID,
			Type:      txnType,
			Amount:    payment.OverpaymentAmount,
			Date:      in.Date,
			Notes:     in.Notes,
			CreatedBy: in.ActorID,
		})
		if err != nil {
			return err
		}
		var lines []journal.LineInput
		if payment.Ref.Kind == RefSale {
			lines = []journal.LineInput{
				{AccountID: clearing.AccountID, Debit: payment.OverpaymentAmount, Description: in.Notes},
				{AccountID: counter.AccountID, Credit: payment.OverpaymentAmount, Description: in.Notes},
			}
		} else {
			lines = []journal.LineInput{
				{AccountID: counter.AccountID, Debit: payment.OverpaymentAmount, Description: in.Notes},
				{AccountID: clearing.AccountID, Credit: payment.OverpaymentAmount, Description: in.Notes},
			}
		}
		if _, err := tx.InsertEntry(ctx, journal.PostingInput{
			Date:     in.Date,
			Source:   journal.Source{Kind: journal.SourceOverpaymentWriteOff, ID: txn.ID},
			Memo:     fmt.Sprintf("Overpayment write-off %s", txn.Number),
			PostedBy: in.ActorID,
			Lines:    lines,
		}); err != nil {
			return err
		}
		return tx.SetOverpayment(ctx, payment.ID, payment.OverpaymentAmount, finalStatus)
	})
	if err != nil {
		return OverpaymentTransaction{}, err
	}
	s.record(ctx, in.ActorID, "payment.overpayment.writeoff", in.PaymentID, map[string]any{
		"transaction": txn.Number,
		"amount":      txn.Amount.String(),
	})
	return txn, nil
}

// pendingForUpdate locks the payment and checks the resolution guards.
func (s *Service) pendingForUpdate(ctx context.Context, tx TxRepository, id int64) (Payment, error) {
	payment, err := tx.GetForUpdate(ctx, id)
	if err != nil {
		return Payment{}, err
	}
	if payment.Status != StatusPosted {
		return Payment{}, shared.ErrNotPosted
	}
	switch payment.OverpaymentStatus {
	case OverpaymentPending:
		return payment, nil
	case OverpaymentNone:
		return Payment{}, shared.ErrNoOverpayment
	default:
		return Payment{}, shared.ErrOverpaymentAlreadyResolved
	}
}

func (s *Service) resolvePostingAccounts(ctx context.Context) (receivable, payable, clearing int64, err error) {
	ar, err := s.mappings.Get(ctx, mappings.RoleAccountsReceivable)
	if err != nil {
		return 0, 0, 0, err
	}
	ap, err := s.mappings.Get(ctx, mappings.RoleAccountsPayable)
	if err != nil {
		return 0, 0, 0, err
	}
	cl, err := s.mappings.Get(ctx, mappings.RoleOverpaymentClearing)
	if err != nil {
		return 0, 0, 0, err
	}
	return ar.AccountID, ap.AccountID, cl.AccountID, nil
}

func overpaymentNumber() string {
	return "OVP-" + uuid.NewString()
}

func (s *Service) record(ctx context.Context, actorID int64, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, internalShared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "payment",
		EntityID: fmt.Sprintf("%d", id),
		Meta:     meta,
		At:       s.now(),
	})
}

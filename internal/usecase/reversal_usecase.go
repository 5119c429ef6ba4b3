package usecase

import (
	"context"
	"time"

	"github.com/finprim/ledger/internal/domain"
	"github.com/finprim/ledger/internal/infrastructure/metrics"
)

// ReversalUseCase issues correcting postings. A reversal never touches the
// original rows: it appends a new transaction whose entries negate them.
// This is the only correction mechanism the ledger has.
type ReversalUseCase struct {
	posting         *PostingUseCase
	transactionRepo TransactionRepository
	entryRepo       EntryRepository
	metrics         *metrics.Metrics
}

// NewReversalUseCase creates a new ReversalUseCase.
func NewReversalUseCase(
	posting *PostingUseCase,
	transactionRepo TransactionRepository,
	entryRepo EntryRepository,
	m *metrics.Metrics,
) *ReversalUseCase {
	return &ReversalUseCase{
		posting:         posting,
		transactionRepo: transactionRepo,
		entryRepo:       entryRepo,
		metrics:         m,
	}
}

// ReverseEntryInput represents input for reversing a single entry.
type ReverseEntryInput struct {
	EntryID     string
	Reason      string
	Actor       string
	EffectiveAt *time.Time
}

// ReverseEntry posts a one-entry transaction that negates the target entry:
// opposite type, same account, same amount. The net effect at the account
// is zero; the other legs of the original transaction are untouched, so the
// caller reverses them separately when the whole movement was wrong.
func (uc *ReversalUseCase) ReverseEntry(ctx context.Context, input ReverseEntryInput) (*domain.Transaction, error) {
	original, err := uc.entryRepo.GetByID(ctx, input.EntryID)
	if err != nil {
		return nil, err
	}

	entryID := original.ID

	posting := RecordTransactionInput{
		Description: reversalDescription(input.Reason),
		Metadata:    actorMetadata(input.Actor),
		EffectiveAt: input.EffectiveAt,
		Entries: []EntryInput{
			{
				AccountID:   original.AccountID,
				Type:        original.Type.Opposite(),
				Amount:      original.Amount,
				Description: reversalDescription(input.Reason),
				ReversesID:  &entryID,
				Metadata: map[string]any{
					"reverses_entry_id": entryID,
					"reason":            input.Reason,
				},
			},
		},
		eventType: domain.EventTypeEntryReversed,
		eventExtra: map[string]any{
			"reversed_entry_id": entryID,
			"reason":            input.Reason,
		},
	}

	transaction, err := uc.posting.RecordTransaction(ctx, posting)
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.ReversalsCreated.Inc()
	}

	return transaction, nil
}

// ReverseTransactionInput represents input for reversing a whole transaction.
type ReverseTransactionInput struct {
	TransactionID string
	Reason        string
	Actor         string
	EffectiveAt   *time.Time
}

// ReverseTransaction negates every entry of a posted transaction in one new
// balanced transaction.
func (uc *ReversalUseCase) ReverseTransaction(ctx context.Context, input ReverseTransactionInput) (*domain.Transaction, error) {
	original, err := uc.transactionRepo.GetByID(ctx, input.TransactionID)
	if err != nil {
		return nil, err
	}

	entries := make([]EntryInput, 0, len(original.Entries))
	for i := range original.Entries {
		e := original.Entries[i]
		entryID := e.ID
		entries = append(entries, EntryInput{
			AccountID:   e.AccountID,
			Type:        e.Type.Opposite(),
			Amount:      e.Amount,
			Description: reversalDescription(input.Reason),
			ReversesID:  &entryID,
			Metadata: map[string]any{
				"reverses_entry_id": entryID,
				"reason":            input.Reason,
			},
		})
	}

	posting := RecordTransactionInput{
		Description: reversalDescription(input.Reason),
		Metadata:    actorMetadata(input.Actor),
		EffectiveAt: input.EffectiveAt,
		Entries:     entries,
		eventType:   domain.EventTypeTransactionReversed,
		eventExtra: map[string]any{
			"reversed_transaction_id": original.ID,
			"reason":                  input.Reason,
		},
	}

	transaction, err := uc.posting.RecordTransaction(ctx, posting)
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.ReversalsCreated.Inc()
	}

	return transaction, nil
}

func reversalDescription(reason string) string {
	return "Reversal: " + reason
}

func actorMetadata(actor string) map[string]any {
	if actor == "" {
		return nil
	}
	return map[string]any{domain.MetadataActorKey: actor}
}

package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finprim/ledger/internal/domain"
	"github.com/finprim/ledger/internal/infrastructure/metrics"
)

// PostingUseCase records balanced transactions. It is the only write path
// into the ledger: every entry that ever becomes visible was committed here,
// inside one serializable database transaction.
type PostingUseCase struct {
	txManager       TxManager
	accountRepo     AccountRepository
	transactionRepo TransactionRepository
	entryRepo       EntryRepository
	outboxRepo      OutboxRepository
	idGen           IDGenerator
	retryer         Retryer
	metrics         *metrics.Metrics
}

// NewPostingUseCase creates a new PostingUseCase. retryer may be nil, in
// which case serialization conflicts surface to the caller.
func NewPostingUseCase(
	txManager TxManager,
	accountRepo AccountRepository,
	transactionRepo TransactionRepository,
	entryRepo EntryRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	retryer Retryer,
	m *metrics.Metrics,
) *PostingUseCase {
	return &PostingUseCase{
		txManager:       txManager,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		entryRepo:       entryRepo,
		outboxRepo:      outboxRepo,
		idGen:           idGen,
		retryer:         retryer,
		metrics:         m,
	}
}

// EntryInput represents one leg of a transaction.
type EntryInput struct {
	AccountID   string
	Type        domain.EntryType
	Amount      decimal.Decimal
	Description string
	Metadata    map[string]any
	ReversesID  *string
}

// RecordTransactionInput represents input for recording a transaction.
type RecordTransactionInput struct {
	Description string
	Metadata    map[string]any
	EffectiveAt *time.Time
	Entries     []EntryInput

	// Reversal postings override the audit event; only the reversal
	// service sets these.
	eventType  string
	eventExtra map[string]any
}

// RecordTransaction validates and posts a transaction. It is all-or-nothing:
// on any failure nothing is written and no event is emitted. The returned
// transaction is posted and carries its entries.
func (uc *PostingUseCase) RecordTransaction(ctx context.Context, input RecordTransactionInput) (*domain.Transaction, error) {
	start := time.Now()

	// 0. Validate shape before touching storage
	if err := uc.validateInput(&input); err != nil {
		uc.countError("validation")
		return nil, err
	}

	reversal, err := uc.reversalMode(input.Entries)
	if err != nil {
		uc.countError("validation")
		return nil, err
	}

	// 1. Collect and sort unique account IDs (DEADLOCK PREVENTION)
	accountIDs := uc.collectUniqueAccountIDs(input.Entries)
	sort.Strings(accountIDs)

	var transaction *domain.Transaction
	commit := func() error {
		var err error
		transaction, err = uc.post(ctx, input, accountIDs, reversal)
		return err
	}

	if uc.retryer != nil {
		err = uc.retryer.Do(ctx, commit)
	} else {
		err = commit()
	}
	if err != nil {
		uc.countError("post")
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransactionsPosted.Inc()
		uc.metrics.PostingDuration.Observe(time.Since(start).Seconds())
		for i := range transaction.Entries {
			amount, _ := transaction.Entries[i].Amount.Float64()
			uc.metrics.EntryAmount.Observe(amount)
		}
	}

	return transaction, nil
}

// post runs the atomic unit of work: lock accounts, validate against their
// state, insert the draft, attach entries, flip posted_at, enqueue the
// audit event, commit.
func (uc *PostingUseCase) post(ctx context.Context, input RecordTransactionInput, accountIDs []string, reversal bool) (*domain.Transaction, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// 2. Lock accounts in sorted order
	accounts, err := uc.accountRepo.GetByIDsForShare(ctx, tx, accountIDs)
	if err != nil {
		return nil, err
	}

	if len(accounts) != len(accountIDs) {
		return nil, domain.ErrAccountNotFound
	}

	accountMap := make(map[string]*domain.Account, len(accounts))
	for _, a := range accounts {
		if !a.Active {
			return nil, fmt.Errorf("%w: %s", domain.ErrAccountInactive, a.ID)
		}
		accountMap[a.ID] = a
	}

	now := time.Now().UTC()

	effectiveAt := now
	if input.EffectiveAt != nil {
		effectiveAt = input.EffectiveAt.UTC()
	}

	transaction := &domain.Transaction{
		ID:          uc.idGen.Generate(),
		Description: input.Description,
		Metadata:    input.Metadata,
		EffectiveAt: effectiveAt,
		RecordedAt:  now,
	}

	// 3. Build the entries with posting-time state
	entries := make([]domain.Entry, 0, len(input.Entries))
	for _, ei := range input.Entries {
		account := accountMap[ei.AccountID]
		entries = append(entries, domain.Entry{
			ID:            uc.idGen.Generate(),
			TransactionID: transaction.ID,
			AccountID:     account.ID,
			Type:          ei.Type,
			Amount:        ei.Amount,
			Currency:      account.Currency,
			Description:   ei.Description,
			EffectiveAt:   effectiveAt,
			RecordedAt:    now,
			ReversesID:    ei.ReversesID,
			Metadata:      ei.Metadata,
		})
	}

	// 4. Balance law. Reversal entries are held to the pairing rule
	// instead: each must exactly negate a posted original.
	if reversal {
		if err := uc.validateReversalPairs(ctx, entries); err != nil {
			return nil, err
		}
	} else {
		if err := domain.ValidateBalanced(entries); err != nil {
			return nil, err
		}
	}

	// 5. Persist: draft, entries, then the posted_at flip
	if err := uc.transactionRepo.Create(ctx, tx, transaction); err != nil {
		return nil, err
	}

	for i := range entries {
		if err := uc.entryRepo.Create(ctx, tx, &entries[i]); err != nil {
			return nil, err
		}
	}

	if err := uc.transactionRepo.MarkPosted(ctx, tx, transaction.ID, now); err != nil {
		return nil, err
	}

	transaction.PostedAt = &now
	transaction.Entries = entries

	// 6. Make the posting observable downstream
	if err := uc.outboxRepo.Create(ctx, tx, uc.buildEvent(transaction, input)); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return transaction, nil
}

func (uc *PostingUseCase) validateInput(input *RecordTransactionInput) error {
	if len(input.Entries) == 0 {
		return fmt.Errorf("%w: transaction has no entries", domain.ErrInvalidEntry)
	}

	if err := domain.ValidateDescription(input.Description); err != nil {
		return err
	}

	if err := domain.ValidateMetadata(input.Metadata); err != nil {
		return err
	}

	for i := range input.Entries {
		ei := &input.Entries[i]
		if !ei.Type.Valid() {
			return fmt.Errorf("%w: entry type must be debit or credit", domain.ErrInvalidEntry)
		}
		if err := domain.ValidateAmount(ei.Amount); err != nil {
			return err
		}
		if err := domain.ValidateDescription(ei.Description); err != nil {
			return err
		}
		if err := domain.ValidateMetadata(ei.Metadata); err != nil {
			return err
		}
	}

	return nil
}

// reversalMode reports whether the input is a reversal posting. Reversal
// legs and ordinary legs never mix in one transaction.
func (uc *PostingUseCase) reversalMode(entries []EntryInput) (bool, error) {
	reversals := 0
	for i := range entries {
		if entries[i].ReversesID != nil && *entries[i].ReversesID != "" {
			reversals++
		}
	}

	switch reversals {
	case 0:
		return false, nil
	case len(entries):
		return true, nil
	default:
		return false, fmt.Errorf("%w: reversal and ordinary entries cannot mix", domain.ErrInvalidEntry)
	}
}

// validateReversalPairs checks every reversal leg against its original.
// Originals are posted rows, hence immutable, so reading them outside the
// open transaction is safe.
func (uc *PostingUseCase) validateReversalPairs(ctx context.Context, entries []domain.Entry) error {
	for i := range entries {
		e := &entries[i]
		original, err := uc.entryRepo.GetByID(ctx, *e.ReversesID)
		if err != nil {
			return err
		}
		if err := domain.ValidateReversal(e, original); err != nil {
			return err
		}
	}
	return nil
}

func (uc *PostingUseCase) buildEvent(transaction *domain.Transaction, input RecordTransactionInput) *domain.OutboxEvent {
	records := make([]domain.EntryRecord, 0, len(transaction.Entries))
	for i := range transaction.Entries {
		e := &transaction.Entries[i]
		record := domain.EntryRecord{
			EntryID:   e.ID,
			AccountID: e.AccountID,
			EntryType: string(e.Type),
			Amount:    e.Amount.String(),
			Currency:  e.Currency,
		}
		if e.ReversesID != nil {
			record.ReversesEntryID = *e.ReversesID
		}
		records = append(records, record)
	}

	eventType := input.eventType
	if eventType == "" {
		eventType = domain.EventTypeTransactionPosted
	}

	payload := map[string]any{
		"transaction_id": transaction.ID,
		"entries":        records,
		"actor":          transaction.Actor(),
		"recorded_at":    transaction.RecordedAt.Format(time.RFC3339Nano),
		"effective_at":   transaction.EffectiveAt.Format(time.RFC3339Nano),
	}
	for k, v := range input.eventExtra {
		payload[k] = v
	}

	return &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   transaction.ID,
		AggregateType: domain.AggregateTypeTransaction,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     transaction.RecordedAt,
	}
}

func (uc *PostingUseCase) countError(stage string) {
	if uc.metrics != nil {
		uc.metrics.PostingErrors.WithLabelValues(stage).Inc()
	}
}

// GetTransaction retrieves a posted transaction with its entries.
func (uc *PostingUseCase) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return uc.transactionRepo.GetByID(ctx, id)
}

// ListTransactionsByAccountInput represents input for listing transactions.
type ListTransactionsByAccountInput struct {
	AccountID string
	Limit     int
	Offset    int
}

// ListTransactionsByAccount lists transactions touching an account.
func (uc *PostingUseCase) ListTransactionsByAccount(ctx context.Context, input ListTransactionsByAccountInput) ([]*domain.Transaction, error) {
	limit, offset, err := domain.ValidatePagination(input.Limit, input.Offset)
	if err != nil {
		return nil, err
	}
	return uc.transactionRepo.ListByAccount(ctx, input.AccountID, limit, offset)
}

func (uc *PostingUseCase) collectUniqueAccountIDs(entries []EntryInput) []string {
	seen := make(map[string]bool)

	var ids []string
	for i := range entries {
		if !seen[entries[i].AccountID] {
			seen[entries[i].AccountID] = true
			ids = append(ids, entries[i].AccountID)
		}
	}

	return ids
}

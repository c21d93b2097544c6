package repository

import (
	"context"
	"fintrack/internal/common"
	"fintrack/internal/domain/model"
	"sync"
)

type memoryTransactionRepository struct {
	mu   sync.RWMutex
	byID map[string]model.Transaction
}

// NewMemoryTransactionRepository returns a process-local TransactionRepository.
func NewMemoryTransactionRepository() TransactionRepository {
	return &memoryTransactionRepository{byID: make(map[string]model.Transaction)}
}

func (r *memoryTransactionRepository) Create(_ context.Context, t *model.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[t.ID] = *t
	return nil
}

func (r *memoryTransactionRepository) FindByID(_ context.Context, ownerID, id string) (*model.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	if !ok || t.CreatedByUserID != ownerID {
		return nil, common.ErrNotFound
	}
	return &t, nil
}

func (r *memoryTransactionRepository) Delete(_ context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok || t.CreatedByUserID != ownerID {
		return common.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *memoryTransactionRepository) List(_ context.Context, q model.TransactionQuery) ([]model.Transaction, int, error) {
	matched := r.matching(q.Filter)
	model.SortTransactions(matched, q.SortBy, q.SortDesc)
	start, end := model.PageWindow(len(matched), q.Offset(), q.PerPage)
	return append([]model.Transaction{}, matched[start:end]...), len(matched), nil
}

func (r *memoryTransactionRepository) Totals(_ context.Context, f model.TransactionFilter) (model.TransactionTotals, error) {
	return model.TotalsOf(r.matching(f)), nil
}

func (r *memoryTransactionRepository) matching(f model.TransactionFilter) []model.Transaction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Transaction, 0, len(r.byID))
	for _, t := range r.byID {
		if f.Matches(&t) {
			out = append(out, t)
		}
	}
	return out
}

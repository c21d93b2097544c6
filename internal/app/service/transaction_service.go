package service

import (
	"context"
	"errors"
	"fintrack/internal/common"
	"fintrack/internal/domain/model"
	"fintrack/internal/domain/repository"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrTransactionNotFound = common.NewError(common.ErrNotFound, "transaction not found")

type TransactionService struct {
	txRepo repository.TransactionRepository
	now    func() time.Time
}

func NewTransactionService(txRepo repository.TransactionRepository) *TransactionService {
	return &TransactionService{txRepo: txRepo, now: time.Now}
}

type CreateTransactionRequest struct {
	ReceiverType  string  `json:"receiver_type" validate:"required,oneof=individual legal"`
	ReceiverName  string  `json:"receiver_name" validate:"required"`
	ReceiverID    *string `json:"receiver_id"`
	PayerType     string  `json:"payer_type" validate:"required,oneof=individual legal"`
	PayerName     string  `json:"payer_name" validate:"required"`
	PayerID       *string `json:"payer_id"`
	PaymentMethod string  `json:"payment_method" validate:"required,oneof=cash account"`
	Currency      string  `json:"currency" validate:"required,oneof=IRR IRT USD EUR AED TRY"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	Description   *string `json:"description"`
	DatetimeISO   string  `json:"datetime_iso" validate:"required"`
	Timezone      string  `json:"timezone" validate:"required"`
}

type TransactionList struct {
	Data []model.TransactionView `json:"data"`
	Meta model.Pagination        `json:"meta"`
}

func (s *TransactionService) Create(ctx context.Context, ownerID string, req CreateTransactionRequest) (*model.TransactionView, error) {
	if req.Amount <= 0 {
		return nil, common.InvalidField("amount", "must be greater than 0")
	}
	if !model.Currency(req.Currency).Valid() {
		return nil, common.InvalidField("currency", "unsupported currency")
	}
	at, err := time.Parse(time.RFC3339, strings.TrimSpace(req.DatetimeISO))
	if err != nil {
		return nil, common.InvalidField("datetime_iso", "must be RFC3339")
	}

	now := s.now().UTC()
	t := &model.Transaction{
		ID:              uuid.NewString(),
		CreatedByUserID: ownerID,
		ReceiverType:    model.PartyType(req.ReceiverType),
		ReceiverName:    req.ReceiverName,
		ReceiverID:      req.ReceiverID,
		PayerType:       model.PartyType(req.PayerType),
		PayerName:       req.PayerName,
		PayerID:         req.PayerID,
		PaymentMethod:   model.PaymentMethod(req.PaymentMethod),
		Currency:        model.Currency(req.Currency),
		Amount:          req.Amount,
		Description:     req.Description,
		DatetimeUTC:     at.UTC(),
		Timezone:        req.Timezone,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.txRepo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	view := t.View()
	return &view, nil
}

func (s *TransactionService) Get(ctx context.Context, ownerID, id string) (*model.TransactionView, error) {
	t, err := s.txRepo.FindByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	view := t.View()
	return &view, nil
}

func (s *TransactionService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.txRepo.Delete(ctx, ownerID, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return ErrTransactionNotFound
		}
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

// List returns one page of the owner's transactions. q.Filter.OwnerID is
// overwritten with ownerID.
func (s *TransactionService) List(ctx context.Context, ownerID string, q model.TransactionQuery) (*TransactionList, error) {
	q.Filter.OwnerID = ownerID
	items, total, err := s.txRepo.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	data := make([]model.TransactionView, 0, len(items))
	for i := range items {
		data = append(data, items[i].View())
	}
	return &TransactionList{Data: data, Meta: model.NewPagination(q.Page, q.PerPage, total)}, nil
}

// Summary aggregates the owner's transactions matching f.
func (s *TransactionService) Summary(ctx context.Context, ownerID string, f model.TransactionFilter) (*model.Summary, error) {
	f.OwnerID = ownerID
	totals, err := s.txRepo.Totals(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate transactions: %w", err)
	}
	summary := model.BuildSummary(totals)
	return &summary, nil
}

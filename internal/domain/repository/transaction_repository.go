package repository

import (
	"context"
	"database/sql"
	"errors"
	"fintrack/internal/common"
	"fintrack/internal/domain/model"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type TransactionRepository interface {
	Create(ctx context.Context, t *model.Transaction) error
	FindByID(ctx context.Context, ownerID, id string) (*model.Transaction, error)
	Delete(ctx context.Context, ownerID, id string) error
	List(ctx context.Context, q model.TransactionQuery) ([]model.Transaction, int, error)
	Totals(ctx context.Context, f model.TransactionFilter) (model.TransactionTotals, error)
}

const transactionSelectColumns = `id, created_by_user_id, receiver_type, receiver_name, receiver_id,
	payer_type, payer_name, payer_id, payment_method, currency, amount, description,
	datetime_utc, timezone, created_at, updated_at`

type pgTransactionRepository struct {
	db *sqlx.DB
}

func NewPgTransactionRepository(db *sqlx.DB) TransactionRepository {
	return &pgTransactionRepository{db: db}
}

func (r *pgTransactionRepository) Create(ctx context.Context, t *model.Transaction) error {
	query := `INSERT INTO transactions (` + transactionSelectColumns + `)
	          VALUES (:id, :created_by_user_id, :receiver_type, :receiver_name, :receiver_id,
	                  :payer_type, :payer_name, :payer_id, :payment_method, :currency, :amount, :description,
	                  :datetime_utc, :timezone, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, t); err != nil {
		return fmt.Errorf("pgTransactionRepository.Create: %w", err)
	}
	return nil
}

func (r *pgTransactionRepository) FindByID(ctx context.Context, ownerID, id string) (*model.Transaction, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrNotFound
	}
	t := &model.Transaction{}
	query := `SELECT ` + transactionSelectColumns + ` FROM transactions WHERE id = $1 AND created_by_user_id = $2`
	if err := r.db.GetContext(ctx, t, query, id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgTransactionRepository.FindByID: %w", err)
	}
	return t, nil
}

func (r *pgTransactionRepository) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1 AND created_by_user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("pgTransactionRepository.Delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgTransactionRepository.Delete: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgTransactionRepository) List(ctx context.Context, q model.TransactionQuery) ([]model.Transaction, int, error) {
	where, args := buildTransactionWhere(q.Filter)

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM transactions`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("pgTransactionRepository.List count: %w", err)
	}

	argID := len(args) + 1
	query := `SELECT ` + transactionSelectColumns + ` FROM transactions` + where +
		transactionOrderBy(q.SortBy, q.SortDesc) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", argID, argID+1)
	args = append(args, q.PerPage, q.Offset())

	items := []model.Transaction{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("pgTransactionRepository.List query: %w", err)
	}
	return items, total, nil
}

type monthlyRow struct {
	Month  int     `db:"month"`
	Amount float64 `db:"amount"`
}

type currencyRow struct {
	Currency model.Currency `db:"currency"`
	Amount   float64        `db:"amount"`
}

func (r *pgTransactionRepository) Totals(ctx context.Context, f model.TransactionFilter) (model.TransactionTotals, error) {
	where, args := buildTransactionWhere(f)
	totals := model.TransactionTotals{
		Monthly:    make(map[int]float64),
		ByCurrency: make(map[model.Currency]float64),
	}

	kpis := struct {
		Total float64 `db:"total_amount"`
		Avg   float64 `db:"avg_amount"`
		Count int     `db:"count"`
	}{}
	kpiQuery := `SELECT COALESCE(SUM(amount), 0) AS total_amount, COALESCE(AVG(amount), 0) AS avg_amount, COUNT(*) AS count
	             FROM transactions` + where
	if err := r.db.GetContext(ctx, &kpis, kpiQuery, args...); err != nil {
		return totals, fmt.Errorf("pgTransactionRepository.Totals kpis: %w", err)
	}
	totals.TotalAmount, totals.AvgAmount, totals.Count = kpis.Total, kpis.Avg, kpis.Count

	var months []monthlyRow
	monthQuery := `SELECT EXTRACT(MONTH FROM datetime_utc AT TIME ZONE 'UTC')::int AS month, SUM(amount) AS amount
	               FROM transactions` + where + ` GROUP BY 1`
	if err := r.db.SelectContext(ctx, &months, monthQuery, args...); err != nil {
		return totals, fmt.Errorf("pgTransactionRepository.Totals monthly: %w", err)
	}
	for _, m := range months {
		totals.Monthly[m.Month] = m.Amount
	}

	var currencies []currencyRow
	currencyQuery := `SELECT currency, SUM(amount) AS amount FROM transactions` + where + ` GROUP BY currency`
	if err := r.db.SelectContext(ctx, &currencies, currencyQuery, args...); err != nil {
		return totals, fmt.Errorf("pgTransactionRepository.Totals by currency: %w", err)
	}
	for _, c := range currencies {
		totals.ByCurrency[c.Currency] = c.Amount
	}
	return totals, nil
}

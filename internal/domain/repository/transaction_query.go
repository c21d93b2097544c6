package repository

import (
	"fintrack/internal/domain/model"
	"fmt"
	"strings"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// buildTransactionWhere renders the owner scope plus every optional filter
// as a WHERE clause with $n placeholders. The owner condition is always $1.
func buildTransactionWhere(f model.TransactionFilter) (string, []interface{}) {
	conditions := []string{"created_by_user_id = $1"}
	args := []interface{}{f.OwnerID}
	argID := 2

	if f.Search != "" {
		conditions = append(conditions, fmt.Sprintf(`(receiver_name ILIKE $%d ESCAPE '\' OR payer_name ILIKE $%d ESCAPE '\')`, argID, argID))
		args = append(args, "%"+likeEscaper.Replace(f.Search)+"%")
		argID++
	}
	if f.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("datetime_utc >= $%d", argID))
		args = append(args, f.DateFrom.UTC())
		argID++
	}
	if f.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("datetime_utc < $%d", argID))
		args = append(args, f.DateTo.UTC())
		argID++
	}
	if f.Currency != "" {
		conditions = append(conditions, fmt.Sprintf("currency = $%d", argID))
		args = append(args, string(f.Currency))
		argID++
	}
	if f.MinAmount != nil {
		conditions = append(conditions, fmt.Sprintf("amount >= $%d", argID))
		args = append(args, *f.MinAmount)
		argID++
	}
	if f.Month != 0 {
		conditions = append(conditions, fmt.Sprintf("EXTRACT(MONTH FROM datetime_utc AT TIME ZONE 'UTC') = $%d", argID))
		args = append(args, f.Month)
	}

	return " WHERE " + strings.Join(conditions, " AND "), args
}

var sortColumns = map[model.SortField]string{
	model.SortByReceiver: "receiver_name",
	model.SortByPayer:    "payer_name",
	model.SortByAmount:   "amount",
	model.SortByCurrency: "currency",
	model.SortByDate:     "datetime_utc",
}

// transactionOrderBy maps a sort field to a fixed column list; user input
// never reaches the SQL text.
func transactionOrderBy(field model.SortField, desc bool) string {
	col, ok := sortColumns[field]
	if !ok {
		col = sortColumns[model.SortByDate]
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, id %s", col, dir, dir)
}

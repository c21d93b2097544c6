package model

import (
	"math"
	"sort"
	"strings"
	"time"
)

type SortField string

const (
	SortByReceiver SortField = "receiver"
	SortByPayer    SortField = "payer"
	SortByAmount   SortField = "amount"
	SortByCurrency SortField = "currency"
	SortByDate     SortField = "date"
)

const (
	DefaultPage    = 1
	DefaultPerPage = 10
)

// ParseSortField maps a sort_by value to a field; unknown values sort by date.
func ParseSortField(raw string) SortField {
	switch f := SortField(raw); f {
	case SortByReceiver, SortByPayer, SortByAmount, SortByCurrency, SortByDate:
		return f
	}
	return SortByDate
}

// TransactionFilter holds the optional predicates of a transaction query.
// OwnerID is mandatory and always applied first.
type TransactionFilter struct {
	OwnerID   string
	Search    string
	DateFrom  *time.Time // inclusive, 00:00 UTC
	DateTo    *time.Time // exclusive, 00:00 UTC of the day after the requested date
	Currency  Currency
	MinAmount *float64
	Month     int // 1-12, 0 means any
}

// Matches reports whether t satisfies every predicate of f.
func (f *TransactionFilter) Matches(t *Transaction) bool {
	if t.CreatedByUserID != f.OwnerID {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.ReceiverName), needle) &&
			!strings.Contains(strings.ToLower(t.PayerName), needle) {
			return false
		}
	}
	at := t.DatetimeUTC.UTC()
	if f.DateFrom != nil && at.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && !at.Before(*f.DateTo) {
		return false
	}
	if f.Currency != "" && t.Currency != f.Currency {
		return false
	}
	if f.MinAmount != nil && t.Amount < *f.MinAmount {
		return false
	}
	if f.Month != 0 && int(at.Month()) != f.Month {
		return false
	}
	return true
}

// TransactionQuery is a filtered, sorted and paginated listing request.
type TransactionQuery struct {
	Filter   TransactionFilter
	SortBy   SortField
	SortDesc bool
	Page     int
	PerPage  int
}

// Offset is the number of rows skipped before the requested page. It
// saturates at math.MaxInt rather than wrapping for very large pages.
func (q *TransactionQuery) Offset() int {
	if q.Page <= 1 || q.PerPage <= 0 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.PerPage {
		return math.MaxInt
	}
	return (q.Page - 1) * q.PerPage
}

// SortTransactions orders txs by field, breaking ties by id in the same
// direction so repeated queries page identically.
func SortTransactions(txs []Transaction, field SortField, desc bool) {
	sort.SliceStable(txs, func(i, j int) bool {
		c := compareBy(&txs[i], &txs[j], field)
		if c == 0 {
			c = strings.Compare(txs[i].ID, txs[j].ID)
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compareBy(a, b *Transaction, field SortField) int {
	switch field {
	case SortByReceiver:
		return strings.Compare(a.ReceiverName, b.ReceiverName)
	case SortByPayer:
		return strings.Compare(a.PayerName, b.PayerName)
	case SortByAmount:
		switch {
		case a.Amount < b.Amount:
			return -1
		case a.Amount > b.Amount:
			return 1
		}
		return 0
	case SortByCurrency:
		return strings.Compare(string(a.Currency), string(b.Currency))
	default:
		return a.DatetimeUTC.Compare(b.DatetimeUTC)
	}
}

// PageWindow returns the [start, end) slice bounds of a page over total rows.
// A negative offset is treated as past the end.
func PageWindow(total, offset, limit int) (int, int) {
	if offset < 0 || offset >= total {
		return total, total
	}
	if limit < 0 || limit > total-offset {
		return offset, total
	}
	return offset, offset + limit
}

// Pagination is the metadata returned alongside a page of results.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func NewPagination(page, perPage, total int) Pagination {
	totalPages := 0
	if perPage > 0 {
		totalPages = total / perPage
		if total%perPage != 0 {
			totalPages++
		}
	}
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

package handler

import (
	"fintrack/internal/common"
	"fintrack/internal/domain/model"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// parseTransactionFilter reads the filter query parameters. Owner scope is
// set by the service, never from the query string.
func parseTransactionFilter(values url.Values) (model.TransactionFilter, error) {
	var f model.TransactionFilter

	f.Search = strings.TrimSpace(values.Get("search"))

	if raw := values.Get("date_from"); raw != "" {
		d, err := time.ParseInLocation(dateLayout, raw, time.UTC)
		if err != nil {
			return f, common.InvalidField("date_from", "expected YYYY-MM-DD")
		}
		f.DateFrom = &d
	}
	if raw := values.Get("date_to"); raw != "" {
		d, err := time.ParseInLocation(dateLayout, raw, time.UTC)
		if err != nil {
			return f, common.InvalidField("date_to", "expected YYYY-MM-DD")
		}
		// date_to names a whole day.
		next := d.AddDate(0, 0, 1)
		f.DateTo = &next
	}

	if raw := values.Get("currency"); raw != "" {
		f.Currency = model.Currency(raw)
	}

	if raw := values.Get("min_amount"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return f, common.InvalidField("min_amount", "must be a number")
		}
		f.MinAmount = &v
	}

	if raw := values.Get("month"); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil || m < 1 || m > 12 {
			return f, common.InvalidField("month", "must be an integer between 1 and 12")
		}
		f.Month = m
	}

	return f, nil
}

// parseTransactionQuery adds sorting and paging to the filter. Bad paging
// values fall back to defaults; maxPerPage of 0 leaves per_page unbounded.
func parseTransactionQuery(values url.Values, maxPerPage int) (model.TransactionQuery, error) {
	f, err := parseTransactionFilter(values)
	if err != nil {
		return model.TransactionQuery{}, err
	}

	q := model.TransactionQuery{
		Filter:   f,
		SortBy:   model.ParseSortField(values.Get("sort_by")),
		SortDesc: true,
		Page:     positiveInt(values.Get("page"), model.DefaultPage),
		PerPage:  positiveInt(values.Get("per_page"), model.DefaultPerPage),
	}
	if raw := values.Get("sort_dir"); raw != "" {
		q.SortDesc = strings.EqualFold(raw, "desc")
	}
	if maxPerPage > 0 && q.PerPage > maxPerPage {
		q.PerPage = maxPerPage
	}
	return q, nil
}

func positiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

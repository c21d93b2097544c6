package model

import "fmt"

// TransactionTotals are the raw aggregates over a filtered set.
// Monthly is keyed by UTC calendar month 1-12.
type TransactionTotals struct {
	TotalAmount float64
	AvgAmount   float64
	Count       int
	Monthly     map[int]float64
	ByCurrency  map[Currency]float64
}

// TotalsOf aggregates txs in memory.
func TotalsOf(txs []Transaction) TransactionTotals {
	totals := TransactionTotals{
		Monthly:    make(map[int]float64),
		ByCurrency: make(map[Currency]float64),
	}
	for i := range txs {
		t := &txs[i]
		totals.TotalAmount += t.Amount
		totals.Count++
		totals.Monthly[int(t.DatetimeUTC.UTC().Month())] += t.Amount
		totals.ByCurrency[t.Currency] += t.Amount
	}
	if totals.Count > 0 {
		totals.AvgAmount = totals.TotalAmount / float64(totals.Count)
	}
	return totals
}

type KPIs struct {
	TotalAmount float64 `json:"total_amount"`
	AvgAmount   float64 `json:"avg_amount"`
	Count       int     `json:"count"`
}

type MonthlyAmount struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

type CurrencyShare struct {
	Currency Currency `json:"currency"`
	Amount   float64  `json:"amount"`
	Percent  float64  `json:"percent"`
}

type Summary struct {
	KPIs       KPIs            `json:"kpis"`
	Monthly    []MonthlyAmount `json:"monthly"`
	ByCurrency []CurrencyShare `json:"by_currency"`
}

// BuildSummary shapes totals into twelve monthly buckets "01".."12" and one
// row per present currency in Currencies order. Shares are 0 when the total is 0.
func BuildSummary(t TransactionTotals) Summary {
	s := Summary{
		KPIs:       KPIs{TotalAmount: t.TotalAmount, AvgAmount: t.AvgAmount, Count: t.Count},
		Monthly:    make([]MonthlyAmount, 0, 12),
		ByCurrency: make([]CurrencyShare, 0, len(t.ByCurrency)),
	}
	for m := 1; m <= 12; m++ {
		s.Monthly = append(s.Monthly, MonthlyAmount{Month: fmt.Sprintf("%02d", m), Amount: t.Monthly[m]})
	}
	for _, c := range Currencies {
		amount, ok := t.ByCurrency[c]
		if !ok {
			continue
		}
		percent := 0.0
		if t.TotalAmount != 0 {
			percent = amount / t.TotalAmount * 100
		}
		s.ByCurrency = append(s.ByCurrency, CurrencyShare{Currency: c, Amount: amount, Percent: percent})
	}
	return s
}

package model

import "time"

type PartyType string

const (
	PartyIndividual PartyType = "individual"
	PartyLegal      PartyType = "legal"
)

type PaymentMethod string

const (
	PaymentCash    PaymentMethod = "cash"
	PaymentAccount PaymentMethod = "account"
)

type Currency string

const (
	CurrencyIRR Currency = "IRR"
	CurrencyIRT Currency = "IRT"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyAED Currency = "AED"
	CurrencyTRY Currency = "TRY"
)

// Currencies is the closed set of supported currency labels, in display order.
var Currencies = []Currency{CurrencyIRR, CurrencyIRT, CurrencyUSD, CurrencyEUR, CurrencyAED, CurrencyTRY}

func (c Currency) Valid() bool {
	for _, known := range Currencies {
		if c == known {
			return true
		}
	}
	return false
}

type Transaction struct {
	ID              string        `db:"id"`
	CreatedByUserID string        `db:"created_by_user_id"`
	ReceiverType    PartyType     `db:"receiver_type"`
	ReceiverName    string        `db:"receiver_name"`
	ReceiverID      *string       `db:"receiver_id"`
	PayerType       PartyType     `db:"payer_type"`
	PayerName       string        `db:"payer_name"`
	PayerID         *string       `db:"payer_id"`
	PaymentMethod   PaymentMethod `db:"payment_method"`
	Currency        Currency      `db:"currency"`
	Amount          float64       `db:"amount"`
	Description     *string       `db:"description"`
	DatetimeUTC     time.Time     `db:"datetime_utc"`
	Timezone        string        `db:"timezone"`
	CreatedAt       time.Time     `db:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at"`
}

// TransactionView is the wire representation of a transaction.
type TransactionView struct {
	ID              string        `json:"id"`
	CreatedByUserID string        `json:"created_by_user_id"`
	ReceiverType    PartyType     `json:"receiver_type"`
	ReceiverName    string        `json:"receiver_name"`
	ReceiverID      *string       `json:"receiver_id,omitempty"`
	PayerType       PartyType     `json:"payer_type"`
	PayerName       string        `json:"payer_name"`
	PayerID         *string       `json:"payer_id,omitempty"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	Currency        Currency      `json:"currency"`
	Amount          float64       `json:"amount"`
	Description     *string       `json:"description,omitempty"`
	DatetimeISO     string        `json:"datetime_iso"`
	Timezone        string        `json:"timezone"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (t *Transaction) View() TransactionView {
	return TransactionView{
		ID:              t.ID,
		CreatedByUserID: t.CreatedByUserID,
		ReceiverType:    t.ReceiverType,
		ReceiverName:    t.ReceiverName,
		ReceiverID:      t.ReceiverID,
		PayerType:       t.PayerType,
		PayerName:       t.PayerName,
		PayerID:         t.PayerID,
		PaymentMethod:   t.PaymentMethod,
		Currency:        t.Currency,
		Amount:          t.Amount,
		Description:     t.Description,
		DatetimeISO:     t.DatetimeUTC.UTC().Format(time.RFC3339),
		Timezone:        t.Timezone,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

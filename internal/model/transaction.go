package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Currency string

const (
	CurrencyMUSD Currency = "MUSD"
	CurrencyMSTC Currency = "MSTC"
)

func (c Currency) Valid() bool {
	return c == CurrencyMUSD || c == CurrencyMSTC
}

type TransactionType string

const (
	TransactionTypeDeposit       TransactionType = "deposit"
	TransactionTypeCreditMSTC    TransactionType = "credit_mstc"
	TransactionTypeReferralBonus TransactionType = "referral_bonus"
	TransactionTypeManual        TransactionType = "manual"
	TransactionTypeWithdrawal    TransactionType = "withdrawal"
)

type Transaction struct {
	ID         int64           `json:"id" db:"id"`
	UserID     int64           `json:"user_id" db:"user_id"`
	Amount     decimal.Decimal `json:"amount" db:"amount"` // positive = credit, negative = debit
	Currency   Currency        `json:"currency" db:"currency"`
	Type       TransactionType `json:"type" db:"type"`
	ExternalID *string         `json:"external_id,omitempty" db:"external_id"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

package model

import (
	"github.com/shopspring/decimal"
)

var (
	MinDeposit  = decimal.NewFromInt(20)
	DepositStep = decimal.NewFromInt(10)
	// MaxDeposit keeps a single deposit, and the team totals it feeds, well
	// inside the NUMERIC(18,2) columns.
	MaxDeposit = decimal.NewFromInt(1_000_000_000)
	MSTCPercent = decimal.RequireFromString("0.30")
)

// MoneyPlaces is the rounding precision of every stored amount.
const MoneyPlaces int32 = 2

// DepositRequest is the body accepted by the deposit endpoint. Exactly one of
// TelegramID or UserID identifies the depositor.
type DepositRequest struct {
	TelegramID *int64          `json:"telegram_id,omitempty"`
	UserID     *int64          `json:"user_id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	TxTag      string          `json:"tx_musd"`
}

type ReferralShare struct {
	Level      int              `json:"level"`
	ToUserID   *int64           `json:"to_user_id"`
	ToUsername *string          `json:"to_username"`
	Amount     decimal.Decimal  `json:"amount"`
	Percent    *decimal.Decimal `json:"percent"`
}

type DepositResult struct {
	UserID       int64           `json:"user_id"`
	MSTC         decimal.Decimal `json:"mstc"`
	MUSD         decimal.Decimal `json:"musd"`
	ReferralDist []ReferralShare `json:"referral_dist"`
	Activated    bool            `json:"activated"`
}

type Stats struct {
	Users            int             `json:"users" db:"users"`
	ActiveUsers      int             `json:"active_users" db:"active_users"`
	ActivatedUsers   int             `json:"activated_users" db:"activated_users"`
	TotalMUSD        decimal.Decimal `json:"total_musd" db:"total_musd"`
	TotalMSTC        decimal.Decimal `json:"total_mstc" db:"total_mstc"`
	Transactions     int             `json:"transactions" db:"transactions"`
	ReferralEvents   int             `json:"referral_events" db:"referral_events"`
	TotalDeposited   decimal.Decimal `json:"total_deposited" db:"total_deposited"`
	CompanyPoolTotal decimal.Decimal `json:"company_pool_total" db:"company_pool_total"`
}

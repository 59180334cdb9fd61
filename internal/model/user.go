package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleUser    Role = "user"
	RoleOrigin  Role = "origin"
	RoleCompany Role = "company"
	RoleAdmin   Role = "admin"
)

type User struct {
	ID                int64           `json:"id" db:"id"`
	TelegramID        int64           `json:"telegram_id" db:"telegram_id"`
	Username          *string         `json:"username,omitempty" db:"username"`
	FirstName         *string         `json:"first_name,omitempty" db:"first_name"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	BalanceMUSD       decimal.Decimal `json:"balance_musd" db:"balance_musd"`
	BalanceMSTC       decimal.Decimal `json:"balance_mstc" db:"balance_mstc"`
	Active            bool            `json:"active" db:"active"`
	ReferrerID        *int64          `json:"referrer_id,omitempty" db:"referrer_id"`
	Role              Role            `json:"role" db:"role"`
	SelfActivated     bool            `json:"self_activated" db:"self_activated"`
	TotalTeamBusiness decimal.Decimal `json:"total_team_business" db:"total_team_business"`
	ActiveOriginCount int             `json:"active_origin_count" db:"active_origin_count"`
	ClubIncome        decimal.Decimal `json:"club_income" db:"club_income"`
	WalletAddress     *string         `json:"wallet_address,omitempty" db:"wallet_address"`
}

// Life changer thresholds: a level-1 referrer meeting both earns the boosted share.
var (
	LifeChangerTeamBusiness = decimal.NewFromInt(1000)
)

const LifeChangerActiveOrigins = 10

// IsOrigin reports whether the user counts toward a referrer's active origins.
func (u *User) IsOrigin() bool {
	return u.SelfActivated || u.Role == RoleOrigin
}

func (u *User) IsLifeChanger() bool {
	return u.TotalTeamBusiness.GreaterThanOrEqual(LifeChangerTeamBusiness) &&
		u.ActiveOriginCount >= LifeChangerActiveOrigins
}

// Balance returns the balance tracked for the given currency.
func (u *User) Balance(c Currency) decimal.Decimal {
	if c == CurrencyMSTC {
		return u.BalanceMSTC
	}
	return u.BalanceMUSD
}

type NewUser struct {
	ID            int64   `json:"id"`
	TelegramID    int64   `json:"telegram_id,omitempty"`
	Username      *string `json:"username,omitempty"`
	FirstName     *string `json:"first_name,omitempty"`
	ReferrerID    *int64  `json:"referrer_id,omitempty"`
	Role          Role    `json:"role,omitempty"`
	WalletAddress *string `json:"wallet_address,omitempty"`
}

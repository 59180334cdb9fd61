package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type ReferralEvent struct {
	ID        int64           `json:"id" db:"id"`
	FromUser  int64           `json:"from_user" db:"from_user"`
	ToUser    *int64          `json:"to_user,omitempty" db:"to_user"` // nil = company pool
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Note      *string         `json:"note,omitempty" db:"note"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

type ReferralDirection string

const (
	ReferralDirectionIn  ReferralDirection = "in"
	ReferralDirectionOut ReferralDirection = "out"
)

const NoteCompanyPoolRemainder = "company_pool_remainder"

func LevelNote(level int) string {
	return fmt.Sprintf("level_%d_referral", level)
}

// Referral income per upline level, level 1 first.
var (
	ReferralLevelPercents = []decimal.Decimal{
		decimal.RequireFromString("0.05"),
		decimal.RequireFromString("0.03"),
		decimal.RequireFromString("0.01"),
	}
	LifeChangerLevel1Percent = decimal.RequireFromString("0.10")
)

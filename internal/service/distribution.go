package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tabassumkhan-ss/MSTCbotnew/internal/model"
)

const companyPoolName = "company_pool"

// ValidateDepositAmount enforces the 20 minimum, the 10-unit step above it and
// the per-deposit ceiling.
func ValidateDepositAmount(amount decimal.Decimal) error {
	if amount.LessThan(model.MinDeposit) {
		return ErrMinDeposit
	}
	if amount.GreaterThan(model.MaxDeposit) {
		return fmt.Errorf("%w: deposit exceeds %s", ErrInvalidAmount, model.MaxDeposit)
	}
	if !amount.Sub(model.MinDeposit).Mod(model.DepositStep).IsZero() {
		return ErrInvalidStep
	}
	return nil
}

// SplitDeposit returns the MSTC leg (30%) and the MUSD leg (the rest). The two
// always add back up to amount.
func SplitDeposit(amount decimal.Decimal) (mstc, musd decimal.Decimal) {
	mstc = amount.Mul(model.MSTCPercent).Round(model.MoneyPlaces)
	musd = amount.Sub(mstc).Round(model.MoneyPlaces)
	return mstc, musd
}

// ReferralPlan is the split of a deposit between the upline and the company.
type ReferralPlan struct {
	Shares    []model.ReferralShare
	Remainder decimal.Decimal
}

// PlanReferrals distributes amount over the first three upline users, level 1
// first. upline must reflect this deposit's team business credit so a referrer
// crossing the life changer threshold is paid the boosted rate. The remainder
// is appended as a level 0 company pool share when positive.
func PlanReferrals(amount decimal.Decimal, upline []model.User) ReferralPlan {
	var plan ReferralPlan
	distributed := decimal.Zero

	for i, ref := range upline {
		if i >= len(model.ReferralLevelPercents) {
			break
		}

		pct := model.ReferralLevelPercents[i]
		if i == 0 && ref.IsLifeChanger() {
			pct = model.LifeChangerLevel1Percent
		}

		share := amount.Mul(pct).Round(model.MoneyPlaces)
		if !share.IsPositive() {
			continue
		}

		toID := ref.ID
		percent := pct
		plan.Shares = append(plan.Shares, model.ReferralShare{
			Level:      i + 1,
			ToUserID:   &toID,
			ToUsername: ref.Username,
			Amount:     share,
			Percent:    &percent,
		})
		distributed = distributed.Add(share)
	}

	leftover := amount.Sub(distributed).Round(model.MoneyPlaces)
	if leftover.IsPositive() {
		name := companyPoolName
		plan.Remainder = leftover
		plan.Shares = append(plan.Shares, model.ReferralShare{
			Level:      0,
			ToUsername: &name,
			Amount:     leftover,
		})
	}
	return plan
}

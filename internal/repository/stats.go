package repository

import (
	"context"

	"github.com/tabassumkhan-ss/MSTCbotnew/internal/model"
)

func (r *Repository) GetStats(ctx context.Context) (*model.Stats, error) {
	var stats model.Stats
	err := r.q.GetContext(ctx, &stats, `
		SELECT
			(SELECT COUNT(*) FROM users) AS users,
			(SELECT COUNT(*) FROM users WHERE active) AS active_users,
			(SELECT COUNT(*) FROM users WHERE self_activated) AS activated_users,
			(SELECT COALESCE(SUM(balance_musd), 0) FROM users) AS total_musd,
			(SELECT COALESCE(SUM(balance_mstc), 0) FROM users) AS total_mstc,
			(SELECT COUNT(*) FROM transactions) AS transactions,
			(SELECT COUNT(*) FROM referral_events) AS referral_events,
			(SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE type IN ($1, $2)) AS total_deposited,
			(SELECT COALESCE(SUM(amount), 0) FROM referral_events WHERE to_user IS NULL) AS company_pool_total`,
		model.TransactionTypeDeposit, model.TransactionTypeCreditMSTC)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

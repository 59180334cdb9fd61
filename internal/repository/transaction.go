package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tabassumkhan-ss/MSTCbotnew/internal/model"
)

func (r *Repository) InsertTransaction(ctx context.Context, t *model.Transaction) error {
	query := `
		INSERT INTO transactions (user_id, amount, currency, type, external_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.q.QueryRowxContext(ctx, query,
		t.UserID,
		t.Amount,
		t.Currency,
		t.Type,
		t.ExternalID,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert %s transaction for user %d: %w", t.Type, t.UserID, classify(err))
	}
	return nil
}

// ListTransactions returns the user's transactions, newest first.
func (r *Repository) ListTransactions(ctx context.Context, userID int64, limit, offset int) ([]model.Transaction, error) {
	var transactions []model.Transaction
	err := r.q.SelectContext(ctx, &transactions, `
		SELECT * FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	return transactions, err
}

func (r *Repository) ExternalIDExists(ctx context.Context, externalID string) (bool, error) {
	var exists bool
	err := r.q.GetContext(ctx, &exists,
		"SELECT EXISTS (SELECT 1 FROM transactions WHERE external_id = $1)", externalID)
	return exists, err
}

// SumTeamDeposits adds up both deposit legs of every descendant of userID.
// UNION keeps the walk finite even if the referral graph were cyclic.
func (r *Repository) SumTeamDeposits(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.q.GetContext(ctx, &total, `
		WITH RECURSIVE team AS (
			SELECT id FROM users WHERE referrer_id = $1
			UNION
			SELECT u.id FROM users u INNER JOIN team t ON u.referrer_id = t.id
		)
		SELECT COALESCE(SUM(tx.amount), 0)
		FROM transactions tx
		WHERE tx.user_id IN (SELECT id FROM team WHERE id <> $1)
		  AND tx.type IN ($2, $3)`,
		userID, model.TransactionTypeDeposit, model.TransactionTypeCreditMSTC)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum team deposits for user %d: %w", userID, err)
	}
	return total, nil
}

// GetDescendantIDs lists every user below userID in the referral tree.
func (r *Repository) GetDescendantIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := r.q.SelectContext(ctx, &ids, `
		WITH RECURSIVE team AS (
			SELECT id FROM users WHERE referrer_id = $1
			UNION
			SELECT u.id FROM users u INNER JOIN team t ON u.referrer_id = t.id
		)
		SELECT id FROM team WHERE id <> $1 ORDER BY id`,
		userID)
	return ids, err
}

package repository

import (
	"context"
	"fmt"

	"github.com/tabassumkhan-ss/MSTCbotnew/internal/model"
)

func (r *Repository) InsertReferralEvent(ctx context.Context, e *model.ReferralEvent) error {
	query := `
		INSERT INTO referral_events (from_user, to_user, amount, note)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.q.QueryRowxContext(ctx, query,
		e.FromUser,
		e.ToUser,
		e.Amount,
		e.Note,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert referral event from user %d: %w", e.FromUser, classify(err))
	}
	return nil
}

// ListReferralEvents returns events the user earned (in) or generated (out).
func (r *Repository) ListReferralEvents(ctx context.Context, userID int64, direction model.ReferralDirection, limit, offset int) ([]model.ReferralEvent, error) {
	column := "to_user"
	if direction == model.ReferralDirectionOut {
		column = "from_user"
	}

	var events []model.ReferralEvent
	err := r.q.SelectContext(ctx, &events, `
		SELECT * FROM referral_events
		WHERE `+column+` = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	return events, err
}

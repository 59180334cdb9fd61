package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tabassumkhan-ss/MSTCbotnew/internal/model"
)

var ErrUserNotFound = errors.New("user not found")

func (r *Repository) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return r.getUser(ctx, "SELECT * FROM users WHERE id = $1", id)
}

// GetUserForUpdate loads the user and holds a row lock until the surrounding
// transaction ends. Only meaningful inside WithTx.
func (r *Repository) GetUserForUpdate(ctx context.Context, id int64) (*model.User, error) {
	return r.getUser(ctx, "SELECT * FROM users WHERE id = $1 FOR UPDATE", id)
}

func (r *Repository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	return r.getUser(ctx, "SELECT * FROM users WHERE telegram_id = $1", telegramID)
}

func (r *Repository) getUser(ctx context.Context, query string, arg int64) (*model.User, error) {
	var user model.User
	err := r.q.GetContext(ctx, &user, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", arg, err)
	}
	return &user, nil
}

// CreateUser inserts the user; column defaults fill everything NewUser omits.
func (r *Repository) CreateUser(ctx context.Context, u *model.NewUser) (*model.User, error) {
	query := `
		INSERT INTO users (id, telegram_id, username, first_name, referrer_id, role, wallet_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *`

	var user model.User
	err := r.q.GetContext(ctx, &user, query,
		u.ID,
		u.TelegramID,
		u.Username,
		u.FirstName,
		u.ReferrerID,
		u.Role,
		u.WalletAddress,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user %d: %w", u.ID, classify(err))
	}
	return &user, nil
}

func (r *Repository) ListUsers(ctx context.Context, limit, offset int) ([]model.User, error) {
	var users []model.User
	err := r.q.SelectContext(ctx, &users,
		"SELECT * FROM users ORDER BY created_at, id LIMIT $1 OFFSET $2", limit, offset)
	return users, err
}

func (r *Repository) ListUserIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.q.SelectContext(ctx, &ids, "SELECT id FROM users ORDER BY id")
	return ids, err
}

// GetChildren returns the users directly referred by userID.
func (r *Repository) GetChildren(ctx context.Context, userID int64) ([]model.User, error) {
	var users []model.User
	err := r.q.SelectContext(ctx, &users,
		"SELECT * FROM users WHERE referrer_id = $1 ORDER BY created_at, id", userID)
	return users, err
}

func (r *Repository) SetReferrer(ctx context.Context, userID, referrerID int64) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE users SET referrer_id = $2 WHERE id = $1", userID, referrerID)
	if err != nil {
		return fmt.Errorf("failed to set referrer for user %d: %w", userID, classify(err))
	}
	return expectRow(res, userID)
}

// AddBalances applies signed deltas to both balances.
func (r *Repository) AddBalances(ctx context.Context, userID int64, musd, mstc decimal.Decimal) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE users SET
			balance_musd = balance_musd + $2,
			balance_mstc = balance_mstc + $3
		WHERE id = $1`,
		userID, musd, mstc)
	if err != nil {
		return fmt.Errorf("failed to update balances for user %d: %w", userID, classify(err))
	}
	return expectRow(res, userID)
}

func (r *Repository) AddTeamBusiness(ctx context.Context, userID int64, amount decimal.Decimal) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE users SET total_team_business = total_team_business + $2 WHERE id = $1",
		userID, amount)
	if err != nil {
		return fmt.Errorf("failed to credit team business for user %d: %w", userID, err)
	}
	return expectRow(res, userID)
}

func (r *Repository) SetTeamBusiness(ctx context.Context, userID int64, amount decimal.Decimal) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE users SET total_team_business = $2 WHERE id = $1", userID, amount)
	if err != nil {
		return fmt.Errorf("failed to set team business for user %d: %w", userID, err)
	}
	return expectRow(res, userID)
}

// MarkSelfActivated flips self_activated and reports whether this call did it.
func (r *Repository) MarkSelfActivated(ctx context.Context, userID int64) (bool, error) {
	res, err := r.q.ExecContext(ctx,
		"UPDATE users SET self_activated = TRUE WHERE id = $1 AND NOT self_activated", userID)
	if err != nil {
		return false, fmt.Errorf("failed to activate user %d: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *Repository) IncrementActiveOrigins(ctx context.Context, userID int64) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE users SET active_origin_count = active_origin_count + 1 WHERE id = $1", userID)
	if err != nil {
		return fmt.Errorf("failed to increment active origins for user %d: %w", userID, err)
	}
	return expectRow(res, userID)
}

func (r *Repository) SetActiveOriginCount(ctx context.Context, userID int64, count int) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE users SET active_origin_count = $2 WHERE id = $1", userID, count)
	if err != nil {
		return fmt.Errorf("failed to set active origins for user %d: %w", userID, err)
	}
	return expectRow(res, userID)
}

// CountActiveOrigins counts direct children that are self-activated or hold
// the origin role.
func (r *Repository) CountActiveOrigins(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.q.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM users
		WHERE referrer_id = $1 AND (self_activated OR role = $2)`,
		userID, model.RoleOrigin)
	return count, err
}

func expectRow(res sql.Result, userID int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrUserNotFound, userID)
	}
	return nil
}

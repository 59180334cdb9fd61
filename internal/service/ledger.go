package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/tabassumkhan-ss/MSTCbotnew/internal/model"
	"github.com/tabassumkhan-ss/MSTCbotnew/internal/repository"
)

type LedgerService struct {
	repo *repository.Repository
}

func NewLedgerService(repo *repository.Repository) *LedgerService {
	return &LedgerService{repo: repo}
}

type RecordTransactionInput struct {
	UserID     int64                 `json:"user_id"`
	Amount     decimal.Decimal       `json:"amount"`
	Currency   model.Currency        `json:"currency"`
	Type       model.TransactionType `json:"type"`
	ExternalID *string               `json:"external_id,omitempty"`
}

// RecordTransaction appends a ledger row and applies it to the matching
// balance in one database transaction. A debit that would leave the balance
// negative is rejected.
func (s *LedgerService) RecordTransaction(ctx context.Context, in RecordTransactionInput) (*model.Transaction, error) {
	if !in.Currency.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCurrency, in.Currency)
	}
	amount := in.Amount.Round(model.MoneyPlaces)
	if amount.IsZero() {
		return nil, fmt.Errorf("%w: amount must be non-zero", ErrInvalidAmount)
	}
	if in.Type == "" {
		in.Type = model.TransactionTypeManual
	}

	t := &model.Transaction{
		UserID:     in.UserID,
		Amount:     amount,
		Currency:   in.Currency,
		Type:       in.Type,
		ExternalID: in.ExternalID,
	}

	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		user, err := tx.GetUserForUpdate(ctx, in.UserID)
		if err != nil {
			return err
		}
		if user.Balance(in.Currency).Add(t.Amount).IsNegative() {
			return ErrInsufficientBalance
		}

		if err := tx.InsertTransaction(ctx, t); err != nil {
			return err
		}

		musd, mstc := decimal.Zero, decimal.Zero
		if in.Currency == model.CurrencyMSTC {
			mstc = t.Amount
		} else {
			musd = t.Amount
		}
		return tx.AddBalances(ctx, user.ID, musd, mstc)
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, fmt.Errorf("%w: external id already recorded", ErrDuplicateDeposit)
	}
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id":  t.UserID,
		"amount":   t.Amount.String(),
		"currency": t.Currency,
		"type":     t.Type,
	}).Info("Transaction recorded")
	return t, nil
}

type RecordReferralEventInput struct {
	FromUser int64           `json:"from_user"`
	ToUser   *int64          `json:"to_user,omitempty"`
	Amount   decimal.Decimal `json:"amount"`
	Note     *string         `json:"note,omitempty"`
}

// RecordReferralEvent stores an audit row only; balances are not touched.
// A nil ToUser attributes the amount to the company pool.
func (s *LedgerService) RecordReferralEvent(ctx context.Context, in RecordReferralEventInput) (*model.ReferralEvent, error) {
	amount := in.Amount.Round(model.MoneyPlaces)
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}

	if _, err := s.repo.GetUser(ctx, in.FromUser); err != nil {
		return nil, err
	}
	if in.ToUser != nil {
		if _, err := s.repo.GetUser(ctx, *in.ToUser); err != nil {
			return nil, err
		}
	}

	e := &model.ReferralEvent{
		FromUser: in.FromUser,
		ToUser:   in.ToUser,
		Amount:   amount,
		Note:     in.Note,
	}
	if err := s.repo.InsertReferralEvent(ctx, e); err != nil {
		if errors.Is(err, repository.ErrReferencedUserMissing) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return e, nil
}

func (s *LedgerService) ListTransactions(ctx context.Context, userID int64, limit, offset int) ([]model.Transaction, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)
	return s.repo.ListTransactions(ctx, userID, limit, offset)
}

func (s *LedgerService) ListReferralEvents(ctx context.Context, userID int64, direction model.ReferralDirection, limit, offset int) ([]model.ReferralEvent, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	if direction != model.ReferralDirectionOut {
		direction = model.ReferralDirectionIn
	}
	limit, offset = clampPage(limit, offset)
	return s.repo.ListReferralEvents(ctx, userID, direction, limit, offset)
}

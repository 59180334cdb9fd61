package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/tabassumkhan-ss/MSTCbotnew/internal/cache"
	"github.com/tabassumkhan-ss/MSTCbotnew/internal/model"
	"github.com/tabassumkhan-ss/MSTCbotnew/internal/repository"
)

// Notifier interface for sending notifications (implemented by telegram.Bot)
type Notifier interface {
	SendDepositCredited(chatID int64, amount, musd, mstc decimal.Decimal) error
	SendReferralIncome(chatID int64, level int, amount decimal.Decimal) error
}

type DepositService struct {
	repo     *repository.Repository
	users    *UserService
	guard    cache.DepositGuard
	notifier Notifier

	// pending tracks notification goroutines started after commit.
	pending sync.WaitGroup
}

func NewDepositService(repo *repository.Repository) *DepositService {
	return &DepositService{repo: repo, users: NewUserService(repo), guard: cache.NoopGuard{}}
}

// SetGuard sets the tag reservation guard used ahead of the database check
func (s *DepositService) SetGuard(guard cache.DepositGuard) {
	s.guard = guard
}

// SetNotifier sets the notifier for sending notifications
func (s *DepositService) SetNotifier(notifier Notifier) {
	s.notifier = notifier
}

// credit is a balance change to announce once the deposit has committed.
type credit struct {
	chatID int64
	level  int
	amount decimal.Decimal
}

// Deposit books a deposit: the MUSD/MSTC split on the depositor, first-deposit
// activation, team business for every ancestor and referral income for the
// first three levels, with whatever is left going to the company pool.
func (s *DepositService) Deposit(ctx context.Context, req model.DepositRequest) (*model.DepositResult, error) {
	if err := ValidateDepositAmount(req.Amount); err != nil {
		return nil, err
	}
	tag := strings.TrimSpace(req.TxTag)
	if tag == "" {
		return nil, ErrMissingTxTag
	}

	user, err := s.resolveDepositor(ctx, req)
	if err != nil {
		return nil, err
	}

	reservation, err := s.guard.Reserve(ctx, tag)
	if errors.Is(err, cache.ErrTagReserved) {
		return nil, ErrDuplicateDeposit
	}
	if err != nil {
		return nil, err
	}

	result, credits, err := s.apply(ctx, user.ID, req.Amount, tag)
	if err != nil {
		if relErr := reservation.Release(ctx); relErr != nil {
			log.WithError(relErr).WithField("tx_musd", tag).Warn("Failed to release deposit tag")
		}
		return nil, err
	}
	if err := reservation.Keep(ctx); err != nil {
		log.WithError(err).WithField("tx_musd", tag).Warn("Failed to keep deposit tag")
	}

	log.WithFields(log.Fields{
		"user_id":   user.ID,
		"amount":    req.Amount.String(),
		"tx_musd":   tag,
		"activated": result.Activated,
		"shares":    len(result.ReferralDist),
	}).Info("Deposit booked")

	if s.notifier != nil && len(credits) > 0 {
		s.pending.Add(1)
		go func() {
			defer s.pending.Done()
			s.notify(credits, req.Amount, result)
		}()
	}
	return result, nil
}

// Wait blocks until every notification started by Deposit has been sent or
// has failed.
func (s *DepositService) Wait() {
	s.pending.Wait()
}

func (s *DepositService) resolveDepositor(ctx context.Context, req model.DepositRequest) (*model.User, error) {
	switch {
	case req.UserID != nil:
		return s.users.ResolveUser(ctx, *req.UserID, true)
	case req.TelegramID != nil:
		return s.users.ResolveUser(ctx, *req.TelegramID, false)
	}
	return nil, ErrMissingIdentifier
}

func (s *DepositService) apply(ctx context.Context, userID int64, amount decimal.Decimal, tag string) (*model.DepositResult, []credit, error) {
	var (
		result  *model.DepositResult
		credits []credit
	)

	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		exists, err := tx.ExternalIDExists(ctx, tag)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateDeposit
		}

		// Locks are taken child first, then up the tree.
		depositor, err := tx.GetUserForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		mstc, musd := SplitDeposit(amount)
		legs := []model.Transaction{
			{UserID: depositor.ID, Amount: musd, Currency: model.CurrencyMUSD, Type: model.TransactionTypeDeposit, ExternalID: &tag},
			{UserID: depositor.ID, Amount: mstc, Currency: model.CurrencyMSTC, Type: model.TransactionTypeCreditMSTC, ExternalID: &tag},
		}
		for i := range legs {
			if err := tx.InsertTransaction(ctx, &legs[i]); err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					return ErrDuplicateDeposit
				}
				return err
			}
		}
		if err := tx.AddBalances(ctx, depositor.ID, musd, mstc); err != nil {
			return err
		}

		activated, err := tx.MarkSelfActivated(ctx, depositor.ID)
		if err != nil {
			return err
		}

		upline, err := lockUpline(ctx, tx, depositor)
		if err != nil {
			return err
		}

		for i := range upline {
			if err := tx.AddTeamBusiness(ctx, upline[i].ID, amount); err != nil {
				return err
			}
			upline[i].TotalTeamBusiness = upline[i].TotalTeamBusiness.Add(amount)
		}

		if activated && len(upline) > 0 {
			if err := tx.IncrementActiveOrigins(ctx, upline[0].ID); err != nil {
				return err
			}
			upline[0].ActiveOriginCount++
		}

		plan := PlanReferrals(amount, upline)
		credits = append(credits, credit{chatID: depositor.TelegramID})
		for _, share := range plan.Shares {
			if share.ToUserID == nil {
				if err := insertEvent(ctx, tx, depositor.ID, nil, share.Amount, model.NoteCompanyPoolRemainder); err != nil {
					return err
				}
				continue
			}

			if err := tx.AddBalances(ctx, *share.ToUserID, share.Amount, decimal.Zero); err != nil {
				return err
			}
			bonus := model.Transaction{
				UserID:   *share.ToUserID,
				Amount:   share.Amount,
				Currency: model.CurrencyMUSD,
				Type:     model.TransactionTypeReferralBonus,
			}
			if err := tx.InsertTransaction(ctx, &bonus); err != nil {
				return err
			}
			if err := insertEvent(ctx, tx, depositor.ID, share.ToUserID, share.Amount, model.LevelNote(share.Level)); err != nil {
				return err
			}
			credits = append(credits, credit{chatID: upline[share.Level-1].TelegramID, level: share.Level, amount: share.Amount})
		}

		result = &model.DepositResult{
			UserID:       depositor.ID,
			MSTC:         mstc,
			MUSD:         musd,
			ReferralDist: plan.Shares,
			Activated:    activated,
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return result, credits, nil
}

// lockUpline walks referrer links from the depositor to the root, locking each
// ancestor. A user already seen ends the walk, so a corrupted cyclic tree
// cannot loop forever.
func lockUpline(ctx context.Context, tx *repository.Repository, depositor *model.User) ([]model.User, error) {
	var upline []model.User
	seen := map[int64]bool{depositor.ID: true}

	next := depositor.ReferrerID
	for next != nil && !seen[*next] {
		ancestor, err := tx.GetUserForUpdate(ctx, *next)
		if err != nil {
			return nil, fmt.Errorf("failed to load ancestor %d: %w", *next, err)
		}
		seen[ancestor.ID] = true
		upline = append(upline, *ancestor)
		next = ancestor.ReferrerID
	}
	return upline, nil
}

func insertEvent(ctx context.Context, tx *repository.Repository, from int64, to *int64, amount decimal.Decimal, note string) error {
	return tx.InsertReferralEvent(ctx, &model.ReferralEvent{
		FromUser: from,
		ToUser:   to,
		Amount:   amount,
		Note:     &note,
	})
}

func (s *DepositService) notify(credits []credit, amount decimal.Decimal, result *model.DepositResult) {
	if s.notifier == nil {
		return
	}

	for _, c := range credits {
		var err error
		if c.level == 0 {
			err = s.notifier.SendDepositCredited(c.chatID, amount, result.MUSD, result.MSTC)
		} else {
			err = s.notifier.SendReferralIncome(c.chatID, c.level, c.amount)
		}
		if err != nil {
			log.WithError(err).WithField("chat_id", c.chatID).Warn("Failed to send deposit notification")
		}
	}
}

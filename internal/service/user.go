package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/tabassumkhan-ss/MSTCbotnew/internal/model"
	"github.com/tabassumkhan-ss/MSTCbotnew/internal/repository"
)

type UserService struct {
	repo *repository.Repository
}

func NewUserService(repo *repository.Repository) *UserService {
	return &UserService{repo: repo}
}

type TelegramUser struct {
	ID        int64
	Username  *string
	FirstName *string
}

// CreateUser validates and inserts a user. TelegramID defaults to ID and Role
// to "user"; a referrer, when given, must exist and differ from the user.
func (s *UserService) CreateUser(ctx context.Context, in model.NewUser) (*model.User, error) {
	if in.ID <= 0 {
		return nil, ErrInvalidUserID
	}
	if in.TelegramID == 0 {
		in.TelegramID = in.ID
	}
	if in.Role == "" {
		in.Role = model.RoleUser
	}
	if !validRole(in.Role) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, in.Role)
	}

	if in.ReferrerID != nil {
		if *in.ReferrerID == in.ID {
			return nil, fmt.Errorf("%w: user cannot refer themselves", ErrInvalidReferrer)
		}
		if _, err := s.repo.GetUser(ctx, *in.ReferrerID); err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return nil, fmt.Errorf("%w: user %d does not exist", ErrInvalidReferrer, *in.ReferrerID)
			}
			return nil, err
		}
	}

	user, err := s.repo.CreateUser(ctx, &in)
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return nil, ErrUserExists
	case errors.Is(err, repository.ErrReferencedUserMissing):
		return nil, ErrInvalidReferrer
	case err != nil:
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id":     user.ID,
		"referrer_id": user.ReferrerID,
	}).Info("User created")
	return user, nil
}

// GetOrCreateUser registers a Telegram user on first contact. refCode is the
// referrer's user id, optionally prefixed with "ref_"; an unusable code is
// ignored rather than failing registration. An existing user without a
// referrer gets one bound when the code is valid and keeps the tree acyclic.
func (s *UserService) GetOrCreateUser(ctx context.Context, tgUser TelegramUser, refCode string) (*model.User, bool, error) {
	referrerID := parseRefCode(refCode)

	existing, err := s.repo.GetUser(ctx, tgUser.ID)
	if err == nil {
		if existing.ReferrerID == nil && referrerID != nil {
			if err := s.bindReferrer(ctx, existing, *referrerID); err != nil {
				log.WithError(err).WithField("user_id", existing.ID).Warn("Referral code ignored")
			}
		}
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, false, err
	}

	in := model.NewUser{
		ID:         tgUser.ID,
		TelegramID: tgUser.ID,
		Username:   tgUser.Username,
		FirstName:  tgUser.FirstName,
		ReferrerID: referrerID,
	}

	user, err := s.CreateUser(ctx, in)
	if errors.Is(err, ErrInvalidReferrer) {
		log.WithField("ref_code", refCode).Warn("Referral code ignored")
		in.ReferrerID = nil
		user, err = s.CreateUser(ctx, in)
	}
	if errors.Is(err, ErrUserExists) {
		// Lost a race with a concurrent registration.
		user, err = s.repo.GetUser(ctx, tgUser.ID)
		return user, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (s *UserService) bindReferrer(ctx context.Context, user *model.User, referrerID int64) error {
	if referrerID == user.ID {
		return ErrInvalidReferrer
	}
	if _, err := s.repo.GetUser(ctx, referrerID); err != nil {
		return err
	}

	descendants, err := s.repo.GetDescendantIDs(ctx, user.ID)
	if err != nil {
		return err
	}
	if slices.Contains(descendants, referrerID) {
		return fmt.Errorf("%w: user %d is below %d", ErrInvalidReferrer, referrerID, user.ID)
	}

	if err := s.repo.SetReferrer(ctx, user.ID, referrerID); err != nil {
		return err
	}
	user.ReferrerID = &referrerID
	return nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetUser(ctx, id)
}

// ResolveUser looks the user up by primary key when byUserID is set and by
// Telegram id otherwise.
func (s *UserService) ResolveUser(ctx context.Context, id int64, byUserID bool) (*model.User, error) {
	if byUserID {
		return s.repo.GetUser(ctx, id)
	}
	return s.repo.GetUserByTelegramID(ctx, id)
}

func (s *UserService) ListChildren(ctx context.Context, userID int64) ([]model.User, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.GetChildren(ctx, userID)
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]model.User, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListUsers(ctx, limit, offset)
}

func parseRefCode(code string) *int64 {
	code = strings.TrimPrefix(strings.TrimSpace(code), "ref_")
	if code == "" {
		return nil
	}
	id, err := strconv.ParseInt(code, 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

func validRole(r model.Role) bool {
	switch r {
	case model.RoleUser, model.RoleOrigin, model.RoleCompany, model.RoleAdmin:
		return true
	}
	return false
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

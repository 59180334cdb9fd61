package service

import (
	"context"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/tabassumkhan-ss/MSTCbotnew/internal/repository"
)

// TeamService rebuilds the aggregates that deposits maintain incrementally.
type TeamService struct {
	repo *repository.Repository
}

func NewTeamService(repo *repository.Repository) *TeamService {
	return &TeamService{repo: repo}
}

type TeamSnapshot struct {
	UserID            int64           `json:"user_id"`
	TotalTeamBusiness decimal.Decimal `json:"total_team_business"`
	ActiveOriginCount int             `json:"active_origin_count"`
}

// RecomputeTeamBusiness sets the user's team business to the deposits made
// by everyone below them.
func (s *TeamService) RecomputeTeamBusiness(ctx context.Context, userID int64) (decimal.Decimal, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return decimal.Zero, err
	}

	total, err := s.repo.SumTeamDeposits(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	if err := s.repo.SetTeamBusiness(ctx, userID, total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (s *TeamService) RecomputeActiveOrigins(ctx context.Context, userID int64) (int, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return 0, err
	}

	count, err := s.repo.CountActiveOrigins(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := s.repo.SetActiveOriginCount(ctx, userID, count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *TeamService) Recompute(ctx context.Context, userID int64) (*TeamSnapshot, error) {
	total, err := s.RecomputeTeamBusiness(ctx, userID)
	if err != nil {
		return nil, err
	}
	count, err := s.RecomputeActiveOrigins(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &TeamSnapshot{UserID: userID, TotalTeamBusiness: total, ActiveOriginCount: count}, nil
}

// RecomputeAll runs both recomputes for every user.
func (s *TeamService) RecomputeAll(ctx context.Context) ([]TeamSnapshot, error) {
	ids, err := s.repo.ListUserIDs(ctx)
	if err != nil {
		return nil, err
	}

	snapshots := make([]TeamSnapshot, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		snap, err := s.Recompute(ctx, id)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, *snap)
	}

	log.WithField("users", len(snapshots)).Info("Team aggregates recomputed")
	return snapshots, nil
}

package service

import (
	"context"
	"crypto/subtle"

	"github.com/tabassumkhan-ss/MSTCbotnew/internal/model"
	"github.com/tabassumkhan-ss/MSTCbotnew/internal/repository"
)

type AdminService struct {
	repo   *repository.Repository
	apiKey string
}

func NewAdminService(repo *repository.Repository, apiKey string) *AdminService {
	return &AdminService{repo: repo, apiKey: apiKey}
}

// IsAdminKey reports whether key grants admin access. With no key configured
// every request is refused.
func (s *AdminService) IsAdminKey(key string) bool {
	if s.apiKey == "" || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.apiKey), []byte(key)) == 1
}

func (s *AdminService) GetStats(ctx context.Context) (*model.Stats, error) {
	return s.repo.GetStats(ctx)
}

package specialization

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/mediconsult/mediconsult-api/internal/model"
	"github.com/mediconsult/mediconsult-api/internal/repository"
)

const cacheKey = "specializations"

// Service serves the static specialization reference list through a
// read-through cache. Only reference data is cached; appointment state never
// goes through here.
type Service struct {
	repo  repository.SpecializationRepository
	cache *cache.Cache
}

func NewService(repo repository.SpecializationRepository) *Service {
	return &Service{
		repo:  repo,
		cache: cache.New(10*time.Minute, 15*time.Minute),
	}
}

func (s *Service) List(ctx context.Context) ([]*model.Specialization, error) {
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached.([]*model.Specialization), nil
	}

	specializations, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list specializations: %w", err)
	}

	s.cache.Set(cacheKey, specializations, cache.DefaultExpiration)
	return specializations, nil
}

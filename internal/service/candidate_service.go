package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/intervia/intervia-backend/internal/config"
	"github.com/intervia/intervia-backend/internal/model"
	"github.com/intervia/intervia-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrCandidateNotFound marks a lookup for an unknown candidate id.
var ErrCandidateNotFound = errors.New("candidate not found")

const profileCacheTTL = 24 * time.Hour

// CandidateService manages anonymous candidate identities and their
// profiles, with a Redis read-through cache in front of PostgreSQL.
type CandidateService struct {
	repo *repository.CandidateRepository
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewCandidateService creates a new CandidateService.
func NewCandidateService(repo *repository.CandidateRepository, rdb *redis.Client, log zerolog.Logger) *CandidateService {
	return &CandidateService{
		repo: repo,
		rdb:  rdb,
		log:  log.With().Str("component", "candidate_service").Logger(),
	}
}

// Register creates a candidate from a manually entered profile.
func (s *CandidateService) Register(ctx context.Context, req *model.CreateCandidateRequest) (*model.Candidate, error) {
	cand := &model.Candidate{
		ID: uuid.New(),
		Profile: model.CandidateProfile{
			Name:            req.Name,
			Email:           req.Email,
			Skills:          req.Skills,
			ExperienceYears: req.ExperienceYears,
			Experience:      req.Experience,
			Education:       req.Education,
			Summary:         req.Summary,
		},
	}

	if err := s.repo.Create(ctx, cand); err != nil {
		return nil, fmt.Errorf("create candidate: %w", err)
	}

	s.cacheProfile(ctx, cand.ID, &cand.Profile)
	return cand, nil
}

// GetProfile returns a candidate's profile, preferring the cache.
func (s *CandidateService) GetProfile(ctx context.Context, candidateID uuid.UUID) (*model.CandidateProfile, error) {
	key := config.CacheKey.CandidateProfileKey(candidateID.String())

	raw, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		var p model.CandidateProfile
		if err := json.Unmarshal([]byte(raw), &p); err == nil {
			return &p, nil
		}
		// Corrupt cache entry, fall through to the database.
		s.rdb.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("profile cache read failed")
	}

	cand, err := s.repo.GetByID(ctx, candidateID)
	if err != nil {
		return nil, ErrCandidateNotFound
	}

	s.cacheProfile(ctx, candidateID, &cand.Profile)
	return &cand.Profile, nil
}

// UpdateProfile replaces the stored profile, typically after résumé extraction.
func (s *CandidateService) UpdateProfile(ctx context.Context, candidateID uuid.UUID, profile *model.CandidateProfile) error {
	if err := s.repo.UpdateProfile(ctx, candidateID, *profile); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	s.cacheProfile(ctx, candidateID, profile)
	return nil
}

func (s *CandidateService) cacheProfile(ctx context.Context, candidateID uuid.UUID, profile *model.CandidateProfile) {
	raw, err := json.Marshal(profile)
	if err != nil {
		return
	}
	key := config.CacheKey.CandidateProfileKey(candidateID.String())
	if err := s.rdb.Set(ctx, key, raw, profileCacheTTL).Err(); err != nil {
		s.log.Warn().Err(err).Msg("profile cache write failed")
	}
}

package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/intervia/intervia-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CandidateRepository handles candidate profile data access.
type CandidateRepository struct {
	pool *pgxpool.Pool
}

// NewCandidateRepository creates a new CandidateRepository.
func NewCandidateRepository(pool *pgxpool.Pool) *CandidateRepository {
	return &CandidateRepository{pool: pool}
}

// Create inserts a new candidate with their profile.
func (r *CandidateRepository) Create(ctx context.Context, cand *model.Candidate) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO candidates (id, name, email, skills, experience_years, experience, education, summary)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at`,
		cand.ID, cand.Profile.Name, cand.Profile.Email, cand.Profile.Skills,
		cand.Profile.ExperienceYears, cand.Profile.Experience, cand.Profile.Education, cand.Profile.Summary,
	).Scan(&cand.CreatedAt)
}

// GetByID retrieves a candidate by ID.
func (r *CandidateRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Candidate, error) {
	cand := &model.Candidate{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, skills, experience_years, experience, education, summary, created_at
		 FROM candidates
		 WHERE id = $1`, id,
	).Scan(
		&cand.ID, &cand.Profile.Name, &cand.Profile.Email, &cand.Profile.Skills,
		&cand.Profile.ExperienceYears, &cand.Profile.Experience, &cand.Profile.Education,
		&cand.Profile.Summary, &cand.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return cand, nil
}

// UpdateProfile replaces a candidate's profile fields, used after a résumé
// extraction refines an initially sparse profile.
func (r *CandidateRepository) UpdateProfile(ctx context.Context, id uuid.UUID, p model.CandidateProfile) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE candidates
		 SET name = $1, email = $2, skills = $3, experience_years = $4,
		     experience = $5, education = $6, summary = $7
		 WHERE id = $8`,
		p.Name, p.Email, p.Skills, p.ExperienceYears, p.Experience, p.Education, p.Summary, id)
	return err
}

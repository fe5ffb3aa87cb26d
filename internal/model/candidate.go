package model

import (
	"time"

	"github.com/google/uuid"
)

// CandidateProfile holds the structured fields the inference API extracts
// from a résumé, normalized at the boundary: "not found" sentinels become
// empty values before they reach the core.
type CandidateProfile struct {
	Name            string   `json:"name"`
	Email           string   `json:"email,omitempty"`
	Skills          []string `json:"skills"`
	ExperienceYears int      `json:"experience_years"`
	Experience      []string `json:"experience"`
	Education       []string `json:"education"`
	Summary         string   `json:"summary,omitempty"`
}

// Candidate is an anonymous platform identity. There are no accounts or
// credentials; the signed candidate token is the only handle.
type Candidate struct {
	ID        uuid.UUID        `json:"id"`
	Profile   CandidateProfile `json:"profile"`
	CreatedAt time.Time        `json:"created_at"`
}

// CreateCandidateRequest is the payload for registering a candidate profile.
type CreateCandidateRequest struct {
	Name            string   `json:"name" binding:"required,min=1,max=255"`
	Email           string   `json:"email" binding:"omitempty,email"`
	Skills          []string `json:"skills" binding:"omitempty,dive,min=1,max=100"`
	ExperienceYears int      `json:"experience_years" binding:"omitempty,min=0,max=80"`
	Experience      []string `json:"experience" binding:"omitempty,dive,max=500"`
	Education       []string `json:"education" binding:"omitempty,dive,max=500"`
	Summary         string   `json:"summary" binding:"omitempty,max=2000"`
}

// SubmitAnswerRequest is the payload for answering the current question.
// Index must match the session's current index; stale submits are no-ops.
type SubmitAnswerRequest struct {
	Index int    `json:"index" binding:"min=0"`
	Text  string `json:"text" binding:"omitempty,max=10000"`
}

// AbandonRequest controls whether a torn-down session is archived.
type AbandonRequest struct {
	Archive bool `json:"archive"`
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// ScoreSource records where the final score came from.
type ScoreSource string

const (
	ScoreSourceService  ScoreSource = "service"
	ScoreSourceFallback ScoreSource = "fallback"
)

// QuestionFeedback is the per-question result from the Scoring Service.
type QuestionFeedback struct {
	Score      float64  `json:"score"`
	Feedback   string   `json:"feedback"`
	Strengths  []string `json:"strengths,omitempty"`
	Weaknesses []string `json:"weaknesses,omitempty"`
}

// Session is the aggregate root for one candidate's run through the fixed
// question sequence. Invariants maintained by the interview controller:
//
//	0 <= CurrentIndex <= len(Questions)
//	len(Answers) == CurrentIndex
//	IsComplete <=> CurrentIndex == len(Questions)
//
// Once complete, Questions/Answers/CurrentIndex are frozen; only the score
// fields may be attached, once.
type Session struct {
	ID             uuid.UUID          `json:"id"`
	CandidateID    uuid.UUID          `json:"candidate_id"`
	Questions      []Question         `json:"questions"`
	CurrentIndex   int                `json:"current_index"`
	Answers        []Answer           `json:"answers"`
	StartedAt      time.Time          `json:"started_at"`
	CompletedAt    *time.Time         `json:"completed_at,omitempty"`
	FinalScore     *float64           `json:"final_score,omitempty"`
	ScoringSummary string             `json:"scoring_summary,omitempty"`
	PerQuestion    []QuestionFeedback `json:"per_question,omitempty"`
	ScoreSource    ScoreSource        `json:"score_source,omitempty"`
	IsComplete     bool               `json:"is_complete"`
}

// CurrentQuestion returns the question awaiting an answer, or nil when the
// session is complete.
func (s *Session) CurrentQuestion() *Question {
	if s.CurrentIndex >= len(s.Questions) {
		return nil
	}
	return &s.Questions[s.CurrentIndex]
}

// Clone returns a deep copy so view layers can never mutate controller state.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Questions = make([]Question, len(s.Questions))
	copy(cp.Questions, s.Questions)
	for i := range cp.Questions {
		cp.Questions[i].ExpectedTopics = append([]string(nil), s.Questions[i].ExpectedTopics...)
	}
	cp.Answers = append([]Answer(nil), s.Answers...)
	cp.PerQuestion = append([]QuestionFeedback(nil), s.PerQuestion...)
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		cp.CompletedAt = &t
	}
	if s.FinalScore != nil {
		f := *s.FinalScore
		cp.FinalScore = &f
	}
	return &cp
}

// SessionSnapshot is the resume payload persisted to Redis while a session
// is in progress. The profile rides along so a resumed session can still be
// scored without refetching it.
type SessionSnapshot struct {
	Session          Session          `json:"session"`
	Profile          CandidateProfile `json:"profile"`
	RemainingSeconds int              `json:"remaining_seconds"`
	StagedText       string           `json:"staged_text"`
	SavedAt          time.Time        `json:"saved_at"`
}

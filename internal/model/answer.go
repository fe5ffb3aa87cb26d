package model

import (
	"time"

	"github.com/google/uuid"
)

// SentinelNoAnswer is recorded when a question times out with no staged text.
const SentinelNoAnswer = "no answer provided — time expired"

// Answer is the recorded response for one question index. Created exactly
// once per index, in order.
type Answer struct {
	QuestionID       uuid.UUID  `json:"question_id"`
	QuestionText     string     `json:"question_text"`
	AnswerText       string     `json:"answer_text"`
	Difficulty       Difficulty `json:"difficulty"`
	Category         string     `json:"category"`
	SubmittedAt      time.Time  `json:"submitted_at"`
	TimeTakenSeconds int        `json:"time_taken_seconds"`
	AutoSubmitted    bool       `json:"auto_submitted"`
}

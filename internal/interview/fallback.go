package interview

import (
	"unicode/utf8"

	"github.com/intervia/intervia-backend/internal/model"
)

// FallbackSummary replaces the Scoring Service's qualitative feedback when
// the service is unavailable.
const FallbackSummary = "Automated scoring was unavailable for this session. " +
	"A provisional score was computed locally from your answers; detailed feedback could not be generated."

// defaultFallbackPerChar is used when the configured slope is zero or negative.
const defaultFallbackPerChar = 0.5

// FallbackScore computes a deterministic local score when the Scoring
// Service fails: linear in the average answer length, clamped to [0, 100].
// Sentinel (timed-out) answers count as empty. The slope is policy, not a
// load-bearing algorithm.
func FallbackScore(answers []model.Answer, perChar float64) float64 {
	if len(answers) == 0 {
		return 0
	}
	if perChar <= 0 {
		perChar = defaultFallbackPerChar
	}

	total := 0
	for _, a := range answers {
		if a.AnswerText == model.SentinelNoAnswer {
			continue
		}
		total += utf8.RuneCountInString(a.AnswerText)
	}

	avg := float64(total) / float64(len(answers))
	score := avg * perChar
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

package model

import (
	"github.com/google/uuid"
)

// Difficulty grades a question and determines its time limit.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty normalizes a raw difficulty string from the Question
// Source. Unknown values fall back to medium so a sloppy upstream response
// never produces a question without a time limit.
func ParseDifficulty(raw string) Difficulty {
	switch Difficulty(raw) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return Difficulty(raw)
	default:
		return DifficultyMedium
	}
}

// Question is a single interview question. Immutable once issued.
type Question struct {
	ID               uuid.UUID  `json:"id"`
	Text             string     `json:"text"`
	Difficulty       Difficulty `json:"difficulty"`
	Category         string     `json:"category"`
	ExpectedTopics   []string   `json:"expected_topics"`
	TimeLimitSeconds int        `json:"time_limit_seconds"`
}

// TimeLimits maps difficulty to a per-question countdown in seconds.
// The values are configuration; the mapping itself is part of the contract.
type TimeLimits struct {
	Easy   int
	Medium int
	Hard   int
}

// DefaultTimeLimits matches the platform's observed policy.
var DefaultTimeLimits = TimeLimits{Easy: 20, Medium: 60, Hard: 120}

// ForDifficulty returns the countdown for a question of the given difficulty.
func (t TimeLimits) ForDifficulty(d Difficulty) int {
	switch d {
	case DifficultyEasy:
		return t.Easy
	case DifficultyHard:
		return t.Hard
	default:
		return t.Medium
	}
}

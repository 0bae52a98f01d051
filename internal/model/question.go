package model

import "github.com/google/uuid"

// Difficulty is the closed set of question tiers. Each tier carries its own
// answer time budget.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// TimeBudget returns the per-question answer budget in seconds.
func (d Difficulty) TimeBudget() int {
	switch d {
	case DifficultyEasy:
		return 20
	case DifficultyMedium:
		return 60
	case DifficultyHard:
		return 120
	default:
		return 0
	}
}

// Valid reports whether d is a member of the closed tier set.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Question is a single interview question as issued by the provider.
// Immutable once issued. TimeBudget is denormalized from the difficulty so a
// persisted snapshot restores without consulting the tier table.
type Question struct {
	ID         uuid.UUID  `json:"id"`
	Text       string     `json:"text"`
	Difficulty Difficulty `json:"difficulty"`
	TimeBudget int        `json:"time_budget"`
}

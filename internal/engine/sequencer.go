package engine

import "github.com/crisphq/crisp-backend/internal/model"

// QuestionQuota is the fixed number of questions per session.
const QuestionQuota = 6

// questionsPerTier partitions the quota into equal easy/medium/hard slices.
const questionsPerTier = QuestionQuota / 3

// NextDifficulty returns the tier of the next question as a pure function of
// how many questions have been answered so far. The second return value is
// false once the sequence has terminated.
func NextDifficulty(answered int) (model.Difficulty, bool) {
	switch {
	case answered < 0:
		return "", false
	case answered < questionsPerTier:
		return model.DifficultyEasy, true
	case answered < 2*questionsPerTier:
		return model.DifficultyMedium, true
	case answered < QuestionQuota:
		return model.DifficultyHard, true
	default:
		return "", false
	}
}

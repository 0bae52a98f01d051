package engine

import (
	"testing"

	"github.com/crisphq/crisp-backend/internal/model"
)

func TestNextDifficultyLadder(t *testing.T) {
	want := []model.Difficulty{
		model.DifficultyEasy, model.DifficultyEasy,
		model.DifficultyMedium, model.DifficultyMedium,
		model.DifficultyHard, model.DifficultyHard,
	}
	for answered, expected := range want {
		got, ok := NextDifficulty(answered)
		if !ok {
			t.Fatalf("answered=%d: sequence terminated early", answered)
		}
		if got != expected {
			t.Errorf("answered=%d: got %s, want %s", answered, got, expected)
		}
	}
}

func TestNextDifficultyTermination(t *testing.T) {
	for _, answered := range []int{QuestionQuota, QuestionQuota + 1, 100} {
		if d, ok := NextDifficulty(answered); ok {
			t.Errorf("answered=%d: expected termination, got %s", answered, d)
		}
	}
}

func TestNextDifficultyNegativeCount(t *testing.T) {
	if _, ok := NextDifficulty(-1); ok {
		t.Error("negative answered count should not yield a difficulty")
	}
}

func TestDifficultyTimeBudgets(t *testing.T) {
	cases := map[model.Difficulty]int{
		model.DifficultyEasy:   20,
		model.DifficultyMedium: 60,
		model.DifficultyHard:   120,
	}
	for d, budget := range cases {
		if got := d.TimeBudget(); got != budget {
			t.Errorf("%s: budget %d, want %d", d, got, budget)
		}
	}
	if model.Difficulty("expert").TimeBudget() != 0 {
		t.Error("unknown difficulty should have zero budget")
	}
}

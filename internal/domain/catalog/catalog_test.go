package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fiveQuestionModule() *Module {
	m := &Module{ID: "m1", Title: "Test Module"}
	for i := 0; i < 5; i++ {
		m.QuizQuestions = append(m.QuizQuestions, QuizQuestion{
			ID:            "q",
			Question:      "?",
			Options:       []string{"a", "b", "c"},
			CorrectAnswer: 1,
		})
	}
	return m
}

func TestGradeQuiz(t *testing.T) {
	module := fiveQuestionModule()

	tests := []struct {
		name        string
		answers     []int
		wantCorrect int
		wantPassed  bool
		wantPerfect bool
	}{
		{"all correct", []int{1, 1, 1, 1, 1}, 5, true, true},
		{"four of five passes", []int{1, 1, 1, 1, 0}, 4, true, false},
		{"three of five fails at 60 percent", []int{1, 1, 1, 0, 0}, 3, false, false},
		{"all wrong", []int{0, 0, 0, 0, 0}, 0, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := GradeQuiz(module, tt.answers)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCorrect, result.Correct)
			assert.Equal(t, 5, result.Total)
			assert.Equal(t, tt.wantPassed, result.Passed)
			assert.Equal(t, tt.wantPerfect, result.Perfect)
		})
	}

	t.Run("exact threshold passes", func(t *testing.T) {
		// A single-question quiz: 1/1 is 100%, 0/1 is 0%.
		single := &Module{ID: "m", QuizQuestions: module.QuizQuestions[:1]}
		result, err := GradeQuiz(single, []int{1})
		require.NoError(t, err)
		assert.True(t, result.Passed)
		assert.True(t, result.Perfect)
	})

	t.Run("answer count mismatch", func(t *testing.T) {
		_, err := GradeQuiz(module, []int{1, 1})
		assert.ErrorIs(t, err, ErrAnswerCountMismatch)
	})

	t.Run("nil module", func(t *testing.T) {
		_, err := GradeQuiz(nil, nil)
		assert.ErrorIs(t, err, ErrModuleNotFound)
	})
}

func TestQuizResultScorePercent(t *testing.T) {
	assert.Equal(t, 80, QuizResult{Correct: 4, Total: 5}.ScorePercent())
	assert.Equal(t, 66, QuizResult{Correct: 2, Total: 3}.ScorePercent())
	assert.Equal(t, 0, QuizResult{}.ScorePercent())
}

func TestModuleCompletionHelpers(t *testing.T) {
	course := &Course{
		ID: "c",
		Modules: []Module{
			{ID: "m1"},
			{ID: "m2"},
		},
	}

	t.Run("all passed requires every module", func(t *testing.T) {
		results := []ModuleResult{
			{ModuleID: "m1", Passed: true},
		}
		assert.False(t, AllModulesPassed(course, results))

		results = append(results, ModuleResult{ModuleID: "m2", Passed: true})
		assert.True(t, AllModulesPassed(course, results))
	})

	t.Run("failed attempts do not count", func(t *testing.T) {
		results := []ModuleResult{
			{ModuleID: "m1", Passed: true},
			{ModuleID: "m2", Passed: false},
		}
		assert.False(t, AllModulesPassed(course, results))
	})

	t.Run("perfect requires perfect on every module", func(t *testing.T) {
		results := []ModuleResult{
			{ModuleID: "m1", Passed: true, Perfect: true},
			{ModuleID: "m2", Passed: true, Perfect: false},
		}
		assert.False(t, AllModulesPerfect(course, results))

		results[1].Perfect = true
		assert.True(t, AllModulesPerfect(course, results))
	})

	t.Run("empty course never counts as done", func(t *testing.T) {
		assert.False(t, AllModulesPassed(&Course{ID: "empty"}, nil))
		assert.False(t, AllModulesPerfect(&Course{ID: "empty"}, nil))
	})
}

func TestBuiltinRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewBuiltinRepository()

	t.Run("ships five courses and six achievements", func(t *testing.T) {
		courses, err := repo.ListCourses(ctx)
		require.NoError(t, err)
		assert.Len(t, courses, 5)

		achievements, err := repo.ListAchievements(ctx)
		require.NoError(t, err)
		assert.Len(t, achievements, 6)
	})

	t.Run("every shipped course validates", func(t *testing.T) {
		courses, err := repo.ListCourses(ctx)
		require.NoError(t, err)
		for _, c := range courses {
			assert.NoError(t, c.Validate(), "course %s", c.ID)
		}
	})

	t.Run("premium terms survive the round trip", func(t *testing.T) {
		course, err := repo.GetCourse(ctx, "smart-contracts")
		require.NoError(t, err)
		assert.True(t, course.Premium)
		assert.Equal(t, 100, course.StakingRequirement)
		assert.Equal(t, 200, course.RewardAmount)
		assert.Equal(t, 14, course.MinStakingPeriodDays)
	})

	t.Run("unknown course", func(t *testing.T) {
		_, err := repo.GetCourse(ctx, "underwater-basket-weaving")
		assert.ErrorIs(t, err, ErrCourseNotFound)
	})

	t.Run("category lookup drives mastery achievements", func(t *testing.T) {
		cyber, err := repo.CoursesByCategory(ctx, CategoryCybersecurity)
		require.NoError(t, err)
		ids := make([]string, len(cyber))
		for i, c := range cyber {
			ids[i] = c.ID
		}
		assert.Equal(t, []string{"intro-cybersec", "ethical-hacking"}, ids)

		blockchain, err := repo.CoursesByCategory(ctx, CategoryBlockchain)
		require.NoError(t, err)
		assert.Len(t, blockchain, 2)
	})

	t.Run("mastery achievements carry their category", func(t *testing.T) {
		expert, err := repo.GetAchievement(ctx, AchievementSecurityExpert)
		require.NoError(t, err)
		assert.True(t, expert.IsMastery())
		assert.Equal(t, CategoryCybersecurity, expert.MasteryCategory)

		wizard, err := repo.GetAchievement(ctx, AchievementCryptoWizard)
		require.NoError(t, err)
		assert.False(t, wizard.IsMastery())
		assert.Equal(t, 300, wizard.XPReward)
	})
}

func TestCourseValidate(t *testing.T) {
	valid := func() *Course {
		return &Course{
			ID: "c",
			Modules: []Module{
				{ID: "m1", QuizQuestions: []QuizQuestion{{ID: "q1", Options: []string{"a", "b"}, CorrectAnswer: 1}}},
			},
		}
	}

	t.Run("accepts a minimal course", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("rejects premium without a requirement", func(t *testing.T) {
		c := valid()
		c.Premium = true
		assert.Error(t, c.Validate())
	})

	t.Run("rejects duplicate module ids", func(t *testing.T) {
		c := valid()
		c.Modules = append(c.Modules, Module{ID: "m1"})
		assert.Error(t, c.Validate())
	})

	t.Run("rejects out-of-range answers", func(t *testing.T) {
		c := valid()
		c.Modules[0].QuizQuestions[0].CorrectAnswer = 5
		assert.Error(t, c.Validate())
	})
}

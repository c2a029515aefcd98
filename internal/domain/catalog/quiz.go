package catalog

// ══════════════════════════════════════════════════════════════════════════════
// QUIZ GRADING
// ══════════════════════════════════════════════════════════════════════════════

// PassThresholdPercent is the minimum share of correct answers that passes
// a module quiz.
const PassThresholdPercent = 70

// QuizResult is the outcome of grading one module quiz.
type QuizResult struct {
	// Correct is the number of correctly answered questions.
	Correct int `json:"correct"`

	// Total is the number of questions in the quiz.
	Total int `json:"total"`

	// Passed is true when Correct/Total reaches the pass threshold.
	Passed bool `json:"passed"`

	// Perfect is true when every answer was correct.
	Perfect bool `json:"perfect"`
}

// ScorePercent returns the score as a whole percentage, floored.
func (r QuizResult) ScorePercent() int {
	if r.Total == 0 {
		return 0
	}
	return r.Correct * 100 / r.Total
}

// GradeQuiz scores a module quiz. The answers slice holds the chosen option
// index per question, in question order, and must match the question count.
// Grading never mutates anything; recording the result is the caller's job.
func GradeQuiz(module *Module, answers []int) (QuizResult, error) {
	if module == nil {
		return QuizResult{}, ErrModuleNotFound
	}
	if len(answers) != len(module.QuizQuestions) {
		return QuizResult{}, ErrAnswerCountMismatch
	}

	result := QuizResult{Total: len(module.QuizQuestions)}
	for i, q := range module.QuizQuestions {
		if answers[i] == q.CorrectAnswer {
			result.Correct++
		}
	}
	result.Passed = result.Total > 0 && result.Correct*100 >= result.Total*PassThresholdPercent
	result.Perfect = result.Total > 0 && result.Correct == result.Total
	return result, nil
}

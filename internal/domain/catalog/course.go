// Package catalog holds the course and achievement definitions: what can be
// learned, what each course costs and pays, and which achievements exist.
// Definitions are content, not state - all per-wallet state lives in the
// progress domain.
package catalog

import (
	"github.com/viditkulsh/CyberTrek/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Category groups courses for mastery achievements. An achievement that
// rewards "complete all X courses" resolves its course set through this
// field instead of a hardcoded ID list.
type Category string

const (
	CategoryCybersecurity Category = "cybersecurity"
	CategoryBlockchain    Category = "blockchain"
	CategoryCryptography  Category = "cryptography"
)

// Difficulty is the advertised difficulty of a course.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
)

// ══════════════════════════════════════════════════════════════════════════════
// COURSE
// ══════════════════════════════════════════════════════════════════════════════

// QuizQuestion is a single multiple-choice question.
type QuizQuestion struct {
	// ID identifies the question within its module.
	ID string `json:"id"`

	// Question is the prompt text.
	Question string `json:"question"`

	// Options are the candidate answers, in display order.
	Options []string `json:"options"`

	// CorrectAnswer is the index into Options of the right answer.
	CorrectAnswer int `json:"correct_answer"`
}

// Module is one unit of a course: reading content plus its quiz.
type Module struct {
	// ID identifies the module within its course.
	ID string `json:"id"`

	// Title is the display title.
	Title string `json:"title"`

	// Description is the one-line summary.
	Description string `json:"description"`

	// Content is the lesson body.
	Content string `json:"content"`

	// QuizQuestions gate the module's completion.
	QuizQuestions []QuizQuestion `json:"quiz_questions"`
}

// Course is a full course definition.
type Course struct {
	// ID is the catalog key, e.g. "intro-cybersec".
	ID string `json:"id"`

	// Title is the display title.
	Title string `json:"title"`

	// Description is the one-line summary.
	Description string `json:"description"`

	// Difficulty is the advertised difficulty.
	Difficulty Difficulty `json:"difficulty"`

	// Duration is the advertised time commitment, e.g. "2 hours".
	Duration string `json:"duration"`

	// Category groups the course for mastery achievements.
	Category Category `json:"category"`

	// Premium courses require a token stake to enroll.
	Premium bool `json:"premium"`

	// StakingRequirement is the minimum enrollment stake in QUEST tokens.
	// Zero for free courses.
	StakingRequirement int `json:"staking_requirement"`

	// RewardAmount is paid in QUEST tokens when the completed course's
	// reward is claimed, and granted as XP on completion.
	RewardAmount int `json:"reward_amount"`

	// MinStakingPeriodDays is the advertised staking period. The ledger's
	// early-withdrawal window is fixed and does not read this.
	MinStakingPeriodDays int `json:"min_staking_period_days"`

	// Modules are the units of the course, in order.
	Modules []Module `json:"modules"`
}

// ModuleByID returns the module with the given ID, or nil.
func (c *Course) ModuleByID(moduleID string) *Module {
	for i := range c.Modules {
		if c.Modules[i].ID == moduleID {
			return &c.Modules[i]
		}
	}
	return nil
}

// ModuleIDs returns the IDs of all modules, in course order.
func (c *Course) ModuleIDs() []string {
	ids := make([]string, len(c.Modules))
	for i, m := range c.Modules {
		ids[i] = m.ID
	}
	return ids
}

// Validate checks the definition for internal consistency.
func (c *Course) Validate() error {
	if c.ID == "" {
		return shared.NewDomainError("catalog", "Validate", shared.ErrEmptyValue, "course id is empty")
	}
	if c.StakingRequirement < 0 || c.RewardAmount < 0 || c.MinStakingPeriodDays < 0 {
		return shared.NewDomainError("catalog", "Validate", shared.ErrNegativeValue, "course amounts must be non-negative")
	}
	if c.Premium && c.StakingRequirement == 0 {
		return shared.NewDomainError("catalog", "Validate", shared.ErrInvalidState, "premium course without staking requirement")
	}
	if len(c.Modules) == 0 {
		return shared.NewDomainError("catalog", "Validate", shared.ErrEmptyValue, "course has no modules")
	}
	seen := make(map[string]bool, len(c.Modules))
	for _, m := range c.Modules {
		if m.ID == "" {
			return shared.NewDomainError("catalog", "Validate", shared.ErrEmptyValue, "module id is empty")
		}
		if seen[m.ID] {
			return shared.NewDomainError("catalog", "Validate", shared.ErrInvalidState, "duplicate module id: "+m.ID)
		}
		seen[m.ID] = true
		for _, q := range m.QuizQuestions {
			if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
				return shared.NewDomainError("catalog", "Validate", shared.ErrInvalidState, "question answer out of range: "+q.ID)
			}
		}
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrCourseNotFound - no course with that ID in the catalog.
	ErrCourseNotFound = shared.NewDomainError("catalog", "GetCourse", shared.ErrNotFound, "course not found")

	// ErrModuleNotFound - no module with that ID in the course.
	ErrModuleNotFound = shared.NewDomainError("catalog", "GetModule", shared.ErrNotFound, "module not found")

	// ErrAchievementNotFound - no achievement with that ID in the catalog.
	ErrAchievementNotFound = shared.NewDomainError("catalog", "GetAchievement", shared.ErrNotFound, "achievement not found")

	// ErrAnswerCountMismatch - a quiz submission with the wrong number of answers.
	ErrAnswerCountMismatch = shared.NewDomainError("catalog", "Grade", shared.ErrInvalidArgument, "answer count does not match question count")
)

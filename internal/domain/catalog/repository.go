package catalog

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// The catalog ships with built-in content (see builtin.go); the repository
// abstraction lets it later come from a CMS or database without touching the
// application layer.
// ══════════════════════════════════════════════════════════════════════════════

// Repository provides read access to the course and achievement catalog.
type Repository interface {
	// GetCourse returns the course with the given ID.
	// Returns ErrCourseNotFound if it does not exist.
	GetCourse(ctx context.Context, courseID string) (*Course, error)

	// ListCourses returns all courses in catalog order.
	ListCourses(ctx context.Context) ([]*Course, error)

	// CoursesByCategory returns the courses in a category, in catalog order.
	CoursesByCategory(ctx context.Context, category Category) ([]*Course, error)

	// GetAchievement returns the achievement with the given ID.
	// Returns ErrAchievementNotFound if it does not exist.
	GetAchievement(ctx context.Context, achievementID string) (*Achievement, error)

	// ListAchievements returns all achievement definitions.
	ListAchievements(ctx context.Context) ([]*Achievement, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// MODULE PROGRESS
// Per-wallet quiz results. Kept apart from the progress record: the record
// owns the economy, module results only feed course completion and the
// perfect-score achievement check.
// ══════════════════════════════════════════════════════════════════════════════

// ModuleResult is one wallet's best graded attempt at one module.
type ModuleResult struct {
	// Wallet identifies the learner.
	Wallet string `json:"wallet"`

	// CourseID and ModuleID locate the module in the catalog.
	CourseID string `json:"course_id"`
	ModuleID string `json:"module_id"`

	// Correct and Total are the best score so far.
	Correct int `json:"correct"`
	Total   int `json:"total"`

	// Passed is true once any attempt reached the pass threshold.
	Passed bool `json:"passed"`

	// Perfect is true once any attempt answered everything correctly.
	Perfect bool `json:"perfect"`

	// CompletedAt is when the module first passed.
	CompletedAt time.Time `json:"completed_at"`
}

// ModuleProgressRepository stores graded module attempts.
type ModuleProgressRepository interface {
	// Record upserts a result. Passed and Perfect only ever go from false
	// to true; a worse retake never downgrades a stored result.
	Record(ctx context.Context, result ModuleResult) error

	// GetCourseResults returns the wallet's results for a course, one per
	// attempted module.
	GetCourseResults(ctx context.Context, wallet, courseID string) ([]ModuleResult, error)
}

// AllModulesPassed reports whether results cover every module of the course
// with a passing grade.
func AllModulesPassed(course *Course, results []ModuleResult) bool {
	passed := make(map[string]bool, len(results))
	for _, r := range results {
		if r.Passed {
			passed[r.ModuleID] = true
		}
	}
	for _, m := range course.Modules {
		if !passed[m.ID] {
			return false
		}
	}
	return len(course.Modules) > 0
}

// AllModulesPerfect reports whether every module of the course has a
// perfect-score result.
func AllModulesPerfect(course *Course, results []ModuleResult) bool {
	perfect := make(map[string]bool, len(results))
	for _, r := range results {
		if r.Perfect {
			perfect[r.ModuleID] = true
		}
	}
	for _, m := range course.Modules {
		if !perfect[m.ID] {
			return false
		}
	}
	return len(course.Modules) > 0
}

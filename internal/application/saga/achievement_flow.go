// Package saga contains multi-step business processes that orchestrate
// several domain operations in a coordinated manner.
package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/viditkulsh/CyberTrek/internal/domain/catalog"
	"github.com/viditkulsh/CyberTrek/internal/domain/progress"
	"github.com/viditkulsh/CyberTrek/internal/domain/shared"
	"github.com/viditkulsh/CyberTrek/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT FLOW
// Flow: Resolve Candidates → Evaluate Conditions → Unlock → Credit XP Bonus →
// Collect Events
//
// The flow mutates the record in place and hands the events back; the calling
// command owns persistence, so the unlock and the triggering mutation land in
// the same repository write.
// ══════════════════════════════════════════════════════════════════════════════

// Trigger identifies what kind of progress event prompted the check. Each
// trigger maps to the subset of achievements it can possibly unlock.
type Trigger string

const (
	// TriggerSignup - a wallet got its first progress record.
	TriggerSignup Trigger = "signup"

	// TriggerStake - tokens entered the pooled stake.
	TriggerStake Trigger = "stake"

	// TriggerEnrollment - a course enrollment was created.
	TriggerEnrollment Trigger = "enrollment"

	// TriggerCourseCompleted - a course was just completed.
	TriggerCourseCompleted Trigger = "course_completed"
)

// CheckInput carries the trigger and its context.
type CheckInput struct {
	// Record is the progress record being mutated. Unlocks are applied to
	// it directly.
	Record *progress.ProgressRecord

	// Trigger - what prompted this check.
	Trigger Trigger

	// CourseID is the completed course (course_completed only).
	CourseID string

	// PerfectScore is true when every quiz answer across the completed
	// course was correct (course_completed only).
	PerfectScore bool

	// FirstStake is true when the triggering stake or enrollment was the
	// record's first (stake and enrollment triggers).
	FirstStake bool

	// Timestamp is when the triggering event occurred.
	Timestamp time.Time
}

// Validate checks the input.
func (i CheckInput) Validate() error {
	if i.Record == nil {
		return errors.New("achievement_flow: record is required")
	}
	if i.Trigger == TriggerCourseCompleted && i.CourseID == "" {
		return errors.New("achievement_flow: course id is required for course_completed")
	}
	return nil
}

// Unlock describes one freshly unlocked achievement.
type Unlock struct {
	// Achievement is the unlocked definition.
	Achievement *catalog.Achievement

	// LevelsGained from the XP bonus.
	LevelsGained int
}

// Result contains everything the flow unlocked.
type Result struct {
	// Unlocks are the new achievements, in unlock order.
	Unlocks []Unlock

	// TotalXPBonus is the total XP credited by all unlocks.
	TotalXPBonus int

	// Events are the domain events for the unlocks (and any level-ups).
	Events []shared.Event
}

// HasUnlocks reports whether anything was unlocked.
func (r *Result) HasUnlocks() bool {
	return len(r.Unlocks) > 0
}

// AchievementFlow evaluates unlock conditions against the catalog.
type AchievementFlow struct {
	catalogRepo catalog.Repository
	log         *logger.Logger
}

// NewAchievementFlow creates the flow.
func NewAchievementFlow(catalogRepo catalog.Repository, log *logger.Logger) *AchievementFlow {
	return &AchievementFlow{
		catalogRepo: catalogRepo,
		log:         log,
	}
}

// Check evaluates every achievement the trigger can unlock and applies the
// unlocks to the record. Already-unlocked achievements are skipped by the
// ledger itself, so re-running a check is harmless.
func (f *AchievementFlow) Check(ctx context.Context, input CheckInput) (*Result, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	candidates, err := f.candidates(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("achievement_flow: resolving candidates: %w", err)
	}

	result := &Result{}
	for _, id := range candidates {
		if err := f.unlock(ctx, input, id, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// candidates returns the achievement IDs whose conditions hold for the input.
func (f *AchievementFlow) candidates(ctx context.Context, input CheckInput) ([]string, error) {
	switch input.Trigger {
	case TriggerSignup:
		return []string{catalog.AchievementFirstLogin}, nil

	case TriggerStake, TriggerEnrollment:
		if input.FirstStake {
			return []string{catalog.AchievementFirstStake}, nil
		}
		return nil, nil

	case TriggerCourseCompleted:
		return f.completionCandidates(ctx, input)

	default:
		return nil, fmt.Errorf("achievement_flow: unknown trigger: %s", input.Trigger)
	}
}

// completionCandidates evaluates the course-completion family: the first
// completed course, a perfect run of the cryptography course, and category
// mastery.
func (f *AchievementFlow) completionCandidates(ctx context.Context, input CheckInput) ([]string, error) {
	var ids []string

	if len(input.Record.CompletedCourseIDs) == 1 && input.Record.HasCompletedCourse(input.CourseID) {
		ids = append(ids, catalog.AchievementFirstCourse)
	}

	if input.CourseID == catalog.CryptoWizardCourseID && input.PerfectScore {
		ids = append(ids, catalog.AchievementCryptoWizard)
	}

	course, err := f.catalogRepo.GetCourse(ctx, input.CourseID)
	if err != nil {
		return nil, err
	}

	mastered, err := f.categoryMastered(ctx, input.Record, course.Category)
	if err != nil {
		return nil, err
	}
	if mastered {
		if id, ok := f.masteryAchievementID(ctx, course.Category); ok {
			ids = append(ids, id)
		}
	}

	return ids, nil
}

// categoryMastered reports whether every catalog course in the category is
// in the record's completed set.
func (f *AchievementFlow) categoryMastered(ctx context.Context, record *progress.ProgressRecord, category catalog.Category) (bool, error) {
	courses, err := f.catalogRepo.CoursesByCategory(ctx, category)
	if err != nil {
		return false, err
	}
	if len(courses) == 0 {
		return false, nil
	}
	for _, c := range courses {
		if !record.HasCompletedCourse(c.ID) {
			return false, nil
		}
	}
	return true, nil
}

// masteryAchievementID finds the active mastery achievement for the category.
func (f *AchievementFlow) masteryAchievementID(ctx context.Context, category catalog.Category) (string, bool) {
	achievements, err := f.catalogRepo.ListAchievements(ctx)
	if err != nil {
		return "", false
	}
	for _, a := range achievements {
		if a.Active && a.MasteryCategory == category {
			return a.ID, true
		}
	}
	return "", false
}

// unlock applies a single unlock to the record and collects its events.
func (f *AchievementFlow) unlock(ctx context.Context, input CheckInput, achievementID string, result *Result) error {
	definition, err := f.catalogRepo.GetAchievement(ctx, achievementID)
	if err != nil {
		return fmt.Errorf("achievement_flow: loading %s: %w", achievementID, err)
	}
	if !definition.Active {
		return nil
	}

	already, levelsGained := input.Record.UnlockAchievement(definition.ID, progress.XP(definition.XPReward), input.Timestamp)
	if already {
		return nil
	}

	result.Unlocks = append(result.Unlocks, Unlock{Achievement: definition, LevelsGained: levelsGained})
	result.TotalXPBonus += definition.XPReward
	result.Events = append(result.Events,
		progress.NewAchievementUnlockedEvent(input.Record, definition.ID, progress.XP(definition.XPReward)),
	)
	if definition.XPReward > 0 {
		result.Events = append(result.Events,
			progress.NewXPGainedEvent(input.Record, progress.XP(definition.XPReward), levelsGained),
		)
	}

	f.log.Info("achievement unlocked",
		logger.Wallet(input.Record.WalletAddress.String()),
		logger.AchievementID(definition.ID),
		logger.XPAmount(definition.XPReward),
	)
	return nil
}

package command

import (
	"context"
	"fmt"

	"github.com/viditkulsh/CyberTrek/internal/application/saga"
	"github.com/viditkulsh/CyberTrek/internal/domain/catalog"
	"github.com/viditkulsh/CyberTrek/internal/domain/progress"
	"github.com/viditkulsh/CyberTrek/internal/domain/shared"
	"github.com/viditkulsh/CyberTrek/pkg/clock"
	"github.com/viditkulsh/CyberTrek/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT QUIZ COMMAND
// Grades a module quiz and records the result. When the passing attempt
// finishes the last open module of the course, the whole completion cascade
// runs in this command: the course completes, its reward amount is credited
// as XP, and the completion achievements are checked. One repository write
// covers all of it.
// ══════════════════════════════════════════════════════════════════════════════

// ErrNotEnrolled - a quiz submission for a course the wallet never joined.
var ErrNotEnrolled = shared.NewDomainError("command", "SubmitQuiz", shared.ErrInvalidState, "not enrolled in course")

// SubmitQuizCommand contains one module quiz attempt.
type SubmitQuizCommand struct {
	// Wallet is the submitting record.
	Wallet progress.WalletAddress

	// CourseID and ModuleID locate the quiz in the catalog.
	CourseID string
	ModuleID string

	// Answers holds the chosen option index per question, in question order.
	Answers []int
}

// Validate validates the command.
func (c SubmitQuizCommand) Validate() error {
	if !c.Wallet.IsValid() {
		return progress.ErrInvalidWalletAddress
	}
	if c.CourseID == "" || c.ModuleID == "" {
		return shared.NewDomainError("command", "SubmitQuiz", shared.ErrEmptyValue, "course and module ids are required")
	}
	return nil
}

// SubmitQuizResult contains the graded attempt and anything it cascaded.
type SubmitQuizResult struct {
	// Quiz is the graded result of this attempt.
	Quiz catalog.QuizResult

	// ModulePassed is true when this attempt passed the module.
	ModulePassed bool

	// CourseCompleted is true when this attempt completed the course.
	CourseCompleted bool

	// XPAwarded is the course reward XP credited on completion.
	XPAwarded progress.XP

	// LevelsGained by the completion XP (achievement bonuses not included).
	LevelsGained int

	// Record is the record after the operation.
	Record *progress.ProgressRecord

	// Unlocks are achievements unlocked by the completion.
	Unlocks []saga.Unlock

	// Events contains the domain events generated.
	Events []shared.Event
}

// SubmitQuizHandler handles the SubmitQuizCommand.
type SubmitQuizHandler struct {
	progressRepo    progress.Repository
	catalogRepo     catalog.Repository
	moduleRepo      catalog.ModuleProgressRepository
	achievementFlow *saga.AchievementFlow
	publisher       shared.EventPublisher
	clock           clock.Clock
	log             *logger.Logger
}

// NewSubmitQuizHandler creates the handler.
func NewSubmitQuizHandler(
	progressRepo progress.Repository,
	catalogRepo catalog.Repository,
	moduleRepo catalog.ModuleProgressRepository,
	achievementFlow *saga.AchievementFlow,
	publisher shared.EventPublisher,
	clk clock.Clock,
	log *logger.Logger,
) *SubmitQuizHandler {
	return &SubmitQuizHandler{
		progressRepo:    progressRepo,
		catalogRepo:     catalogRepo,
		moduleRepo:      moduleRepo,
		achievementFlow: achievementFlow,
		publisher:       publisher,
		clock:           clk,
		log:             log,
	}
}

// Handle executes the command.
func (h *SubmitQuizHandler) Handle(ctx context.Context, cmd SubmitQuizCommand) (*SubmitQuizResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	course, err := h.catalogRepo.GetCourse(ctx, cmd.CourseID)
	if err != nil {
		return nil, err
	}
	module := course.ModuleByID(cmd.ModuleID)
	if module == nil {
		return nil, catalog.ErrModuleNotFound
	}

	record, err := h.progressRepo.GetByWallet(ctx, cmd.Wallet)
	if err != nil {
		return nil, fmt.Errorf("submit_quiz: loading record: %w", err)
	}
	if record.EnrollmentFor(cmd.CourseID) == nil {
		return nil, ErrNotEnrolled
	}

	quiz, err := catalog.GradeQuiz(module, cmd.Answers)
	if err != nil {
		return nil, err
	}

	result := &SubmitQuizResult{Quiz: quiz, ModulePassed: quiz.Passed, Record: record}
	now := h.clock.Now()

	if !quiz.Passed {
		h.log.Info("quiz failed",
			logger.Wallet(cmd.Wallet.String()),
			logger.CourseID(cmd.CourseID),
			logger.ModuleID(cmd.ModuleID),
			logger.Int("score_percent", quiz.ScorePercent()),
		)
		return result, nil
	}

	if err := h.moduleRepo.Record(ctx, catalog.ModuleResult{
		Wallet:      cmd.Wallet.String(),
		CourseID:    cmd.CourseID,
		ModuleID:    cmd.ModuleID,
		Correct:     quiz.Correct,
		Total:       quiz.Total,
		Passed:      true,
		Perfect:     quiz.Perfect,
		CompletedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("submit_quiz: recording module result: %w", err)
	}

	results, err := h.moduleRepo.GetCourseResults(ctx, cmd.Wallet.String(), cmd.CourseID)
	if err != nil {
		return nil, fmt.Errorf("submit_quiz: loading course results: %w", err)
	}
	if !catalog.AllModulesPassed(course, results) || record.HasCompletedCourse(cmd.CourseID) {
		return result, nil
	}

	// Completion cascade.
	record.CompleteCourse(cmd.CourseID, now)
	result.CourseCompleted = true
	result.Events = append(result.Events, progress.NewCourseCompletedEvent(record, cmd.CourseID))

	if course.RewardAmount > 0 {
		xp := progress.XP(course.RewardAmount)
		levelsGained, err := record.AddXP(xp, now)
		if err != nil {
			return nil, err
		}
		result.XPAwarded = xp
		result.LevelsGained = levelsGained
		result.Events = append(result.Events, progress.NewXPGainedEvent(record, xp, levelsGained))
	}

	flowResult, err := h.achievementFlow.Check(ctx, saga.CheckInput{
		Record:       record,
		Trigger:      saga.TriggerCourseCompleted,
		CourseID:     cmd.CourseID,
		PerfectScore: catalog.AllModulesPerfect(course, results),
		Timestamp:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("submit_quiz: achievement check: %w", err)
	}
	result.Unlocks = flowResult.Unlocks
	result.Events = append(result.Events, flowResult.Events...)

	if err := h.progressRepo.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("submit_quiz: updating record: %w", err)
	}

	publishEvents(h.publisher, result.Events)
	h.log.Info("course completed",
		logger.Wallet(cmd.Wallet.String()),
		logger.CourseID(cmd.CourseID),
		logger.XPAmount(int(result.XPAwarded)),
		logger.Int("achievements_unlocked", len(result.Unlocks)),
	)

	return result, nil
}

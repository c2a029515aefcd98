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
// ENROLL COURSE COMMAND
// Joins a catalog course. Premium courses escrow a stake from the spendable
// balance; free courses always enroll at zero regardless of the requested
// stake. Re-enrolling tops up the existing escrow.
// ══════════════════════════════════════════════════════════════════════════════

// EnrollCourseCommand contains the enrollment request.
type EnrollCourseCommand struct {
	// Wallet is the enrolling record.
	Wallet progress.WalletAddress

	// CourseID is the catalog course to join.
	CourseID string

	// StakeAmount is the requested escrow. Ignored for free courses.
	StakeAmount progress.Tokens
}

// Validate validates the command.
func (c EnrollCourseCommand) Validate() error {
	if !c.Wallet.IsValid() {
		return progress.ErrInvalidWalletAddress
	}
	if c.CourseID == "" {
		return shared.NewDomainError("command", "EnrollCourse", shared.ErrEmptyValue, "course id is required")
	}
	if c.StakeAmount < 0 {
		return progress.ErrNonPositiveAmount
	}
	return nil
}

// EnrollCourseResult contains the resulting enrollment.
type EnrollCourseResult struct {
	// Record is the record after enrollment.
	Record *progress.ProgressRecord

	// Enrollment is the enrollment after the operation.
	Enrollment *progress.Enrollment

	// TopUp is true when the call added to an existing escrow.
	TopUp bool

	// Unlocks are achievements unlocked by this enrollment (first-stake).
	Unlocks []saga.Unlock

	// Events contains the domain events generated.
	Events []shared.Event
}

// EnrollCourseHandler handles the EnrollCourseCommand.
type EnrollCourseHandler struct {
	progressRepo    progress.Repository
	catalogRepo     catalog.Repository
	achievementFlow *saga.AchievementFlow
	publisher       shared.EventPublisher
	clock           clock.Clock
	log             *logger.Logger
}

// NewEnrollCourseHandler creates the handler.
func NewEnrollCourseHandler(
	progressRepo progress.Repository,
	catalogRepo catalog.Repository,
	achievementFlow *saga.AchievementFlow,
	publisher shared.EventPublisher,
	clk clock.Clock,
	log *logger.Logger,
) *EnrollCourseHandler {
	return &EnrollCourseHandler{
		progressRepo:    progressRepo,
		catalogRepo:     catalogRepo,
		achievementFlow: achievementFlow,
		publisher:       publisher,
		clock:           clk,
		log:             log,
	}
}

// Handle executes the command.
func (h *EnrollCourseHandler) Handle(ctx context.Context, cmd EnrollCourseCommand) (*EnrollCourseResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	course, err := h.catalogRepo.GetCourse(ctx, cmd.CourseID)
	if err != nil {
		return nil, err
	}

	record, err := h.progressRepo.GetByWallet(ctx, cmd.Wallet)
	if err != nil {
		return nil, fmt.Errorf("enroll_course: loading record: %w", err)
	}

	stakeAmount := cmd.StakeAmount
	if !course.Premium {
		stakeAmount = 0
	}
	terms := progress.EnrollmentTerms{
		Premium:            course.Premium,
		StakingRequirement: progress.Tokens(course.StakingRequirement),
	}

	now := h.clock.Now()
	firstEnrollment := len(record.Enrollments) == 0
	topUp := record.EnrollmentFor(cmd.CourseID) != nil

	if err := record.Enroll(cmd.CourseID, stakeAmount, terms, now); err != nil {
		return nil, err
	}

	result := &EnrollCourseResult{
		Record:     record,
		Enrollment: record.EnrollmentFor(cmd.CourseID),
		TopUp:      topUp,
	}
	result.Events = append(result.Events, progress.NewCourseEnrolledEvent(record, cmd.CourseID, stakeAmount, topUp))

	flowResult, err := h.achievementFlow.Check(ctx, saga.CheckInput{
		Record:     record,
		Trigger:    saga.TriggerEnrollment,
		FirstStake: firstEnrollment,
		Timestamp:  now,
	})
	if err != nil {
		return nil, fmt.Errorf("enroll_course: achievement check: %w", err)
	}
	result.Unlocks = flowResult.Unlocks
	result.Events = append(result.Events, flowResult.Events...)

	if err := h.progressRepo.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("enroll_course: updating record: %w", err)
	}

	publishEvents(h.publisher, result.Events)
	h.log.Info("course enrolled",
		logger.Wallet(cmd.Wallet.String()),
		logger.CourseID(cmd.CourseID),
		logger.Tokens(int(stakeAmount)),
		logger.Bool("top_up", topUp),
	)

	return result, nil
}

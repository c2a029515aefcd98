package command

import (
	"context"
	"fmt"

	"github.com/viditkulsh/CyberTrek/internal/domain/catalog"
	"github.com/viditkulsh/CyberTrek/internal/domain/progress"
	"github.com/viditkulsh/CyberTrek/internal/domain/shared"
	"github.com/viditkulsh/CyberTrek/pkg/clock"
	"github.com/viditkulsh/CyberTrek/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CLAIM REWARD COMMAND
// Pays out a completed course: the escrow returns plus the catalog's reward
// amount. Valid exactly once per enrollment; any other state pays zero.
// ══════════════════════════════════════════════════════════════════════════════

// ClaimRewardCommand contains the claim request.
type ClaimRewardCommand struct {
	// Wallet is the claiming record.
	Wallet progress.WalletAddress

	// CourseID identifies the completed enrollment.
	CourseID string
}

// Validate validates the command.
func (c ClaimRewardCommand) Validate() error {
	if !c.Wallet.IsValid() {
		return progress.ErrInvalidWalletAddress
	}
	if c.CourseID == "" {
		return shared.NewDomainError("command", "ClaimReward", shared.ErrEmptyValue, "course id is required")
	}
	return nil
}

// ClaimRewardResult contains the payout.
type ClaimRewardResult struct {
	// Record is the record after the claim.
	Record *progress.ProgressRecord

	// RewardAmount is the reward paid, zero when nothing was claimable.
	RewardAmount progress.Tokens

	// Claimed is true when the claim actually paid out.
	Claimed bool

	// Events contains the domain events generated.
	Events []shared.Event
}

// ClaimRewardHandler handles the ClaimRewardCommand.
type ClaimRewardHandler struct {
	progressRepo progress.Repository
	catalogRepo  catalog.Repository
	publisher    shared.EventPublisher
	clock        clock.Clock
	log          *logger.Logger
}

// NewClaimRewardHandler creates the handler.
func NewClaimRewardHandler(
	progressRepo progress.Repository,
	catalogRepo catalog.Repository,
	publisher shared.EventPublisher,
	clk clock.Clock,
	log *logger.Logger,
) *ClaimRewardHandler {
	return &ClaimRewardHandler{
		progressRepo: progressRepo,
		catalogRepo:  catalogRepo,
		publisher:    publisher,
		clock:        clk,
		log:          log,
	}
}

// Handle executes the command.
func (h *ClaimRewardHandler) Handle(ctx context.Context, cmd ClaimRewardCommand) (*ClaimRewardResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	course, err := h.catalogRepo.GetCourse(ctx, cmd.CourseID)
	if err != nil {
		return nil, err
	}

	record, err := h.progressRepo.GetByWallet(ctx, cmd.Wallet)
	if err != nil {
		return nil, fmt.Errorf("claim_reward: loading record: %w", err)
	}

	now := h.clock.Now()
	enrollment := record.EnrollmentFor(cmd.CourseID)
	claimable := enrollment != nil && enrollment.Completed && !enrollment.RewardClaimed
	paid := record.ClaimReward(cmd.CourseID, progress.Tokens(course.RewardAmount), now)
	if !claimable {
		// Absent, incomplete, or already claimed. No write, no events.
		return &ClaimRewardResult{Record: record}, nil
	}

	if err := h.progressRepo.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("claim_reward: updating record: %w", err)
	}

	events := []shared.Event{
		progress.NewRewardClaimedEvent(record, cmd.CourseID, paid),
	}
	publishEvents(h.publisher, events)

	h.log.Info("reward claimed",
		logger.Wallet(cmd.Wallet.String()),
		logger.CourseID(cmd.CourseID),
		logger.Tokens(int(paid)),
	)

	return &ClaimRewardResult{
		Record:       record,
		RewardAmount: paid,
		Claimed:      true,
		Events:       events,
	}, nil
}

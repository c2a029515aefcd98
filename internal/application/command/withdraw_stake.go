package command

import (
	"context"
	"fmt"

	"github.com/viditkulsh/CyberTrek/internal/domain/progress"
	"github.com/viditkulsh/CyberTrek/internal/domain/shared"
	"github.com/viditkulsh/CyberTrek/pkg/clock"
	"github.com/viditkulsh/CyberTrek/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// WITHDRAW STAKE COMMAND
// Dissolves a course enrollment and returns its escrow, minus the early
// withdrawal penalty inside the fixed window. Withdrawing a course the
// wallet never joined returns zero and changes nothing.
// ══════════════════════════════════════════════════════════════════════════════

// WithdrawStakeCommand contains the withdrawal request.
type WithdrawStakeCommand struct {
	// Wallet is the withdrawing record.
	Wallet progress.WalletAddress

	// CourseID identifies the enrollment to dissolve.
	CourseID string
}

// Validate validates the command.
func (c WithdrawStakeCommand) Validate() error {
	if !c.Wallet.IsValid() {
		return progress.ErrInvalidWalletAddress
	}
	if c.CourseID == "" {
		return shared.NewDomainError("command", "WithdrawStake", shared.ErrEmptyValue, "course id is required")
	}
	return nil
}

// WithdrawStakeResult contains the payout.
type WithdrawStakeResult struct {
	// Record is the record after withdrawal.
	Record *progress.ProgressRecord

	// ReturnAmount is what came back to the spendable balance.
	ReturnAmount progress.Tokens

	// Penalized is true when the early-withdrawal fee applied.
	Penalized bool

	// Withdrawn is false when there was no enrollment to dissolve.
	Withdrawn bool

	// Events contains the domain events generated.
	Events []shared.Event
}

// WithdrawStakeHandler handles the WithdrawStakeCommand.
type WithdrawStakeHandler struct {
	progressRepo progress.Repository
	publisher    shared.EventPublisher
	clock        clock.Clock
	log          *logger.Logger
}

// NewWithdrawStakeHandler creates the handler.
func NewWithdrawStakeHandler(
	progressRepo progress.Repository,
	publisher shared.EventPublisher,
	clk clock.Clock,
	log *logger.Logger,
) *WithdrawStakeHandler {
	return &WithdrawStakeHandler{
		progressRepo: progressRepo,
		publisher:    publisher,
		clock:        clk,
		log:          log,
	}
}

// Handle executes the command.
func (h *WithdrawStakeHandler) Handle(ctx context.Context, cmd WithdrawStakeCommand) (*WithdrawStakeResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	record, err := h.progressRepo.GetByWallet(ctx, cmd.Wallet)
	if err != nil {
		return nil, fmt.Errorf("withdraw_stake: loading record: %w", err)
	}

	enrollment := record.EnrollmentFor(cmd.CourseID)
	if enrollment == nil {
		return &WithdrawStakeResult{Record: record}, nil
	}

	now := h.clock.Now()
	staked := enrollment.StakedAmount
	returnAmount := record.WithdrawCourseStake(cmd.CourseID, now)
	penalized := returnAmount < staked

	if err := h.progressRepo.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("withdraw_stake: updating record: %w", err)
	}

	events := []shared.Event{
		progress.NewStakeWithdrawnEvent(record, cmd.CourseID, returnAmount, penalized),
	}
	publishEvents(h.publisher, events)

	h.log.Info("course stake withdrawn",
		logger.Wallet(cmd.Wallet.String()),
		logger.CourseID(cmd.CourseID),
		logger.Tokens(int(returnAmount)),
		logger.Bool("penalized", penalized),
	)

	return &WithdrawStakeResult{
		Record:       record,
		ReturnAmount: returnAmount,
		Penalized:    penalized,
		Withdrawn:    true,
		Events:       events,
	}, nil
}

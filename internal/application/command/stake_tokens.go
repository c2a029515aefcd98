package command

import (
	"context"
	"fmt"

	"github.com/viditkulsh/CyberTrek/internal/application/saga"
	"github.com/viditkulsh/CyberTrek/internal/domain/progress"
	"github.com/viditkulsh/CyberTrek/internal/domain/shared"
	"github.com/viditkulsh/CyberTrek/pkg/clock"
	"github.com/viditkulsh/CyberTrek/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// STAKE TOKENS COMMAND
// Moves spendable tokens into the pooled stake. The pool carries a single
// maturity time; staking again overwrites it.
// ══════════════════════════════════════════════════════════════════════════════

// StakeTokensCommand contains the staking request.
type StakeTokensCommand struct {
	// Wallet is the staking record.
	Wallet progress.WalletAddress

	// Amount is the number of tokens to stake.
	Amount progress.Tokens

	// DurationDays is the staking duration in whole days.
	DurationDays int
}

// Validate validates the command.
func (c StakeTokensCommand) Validate() error {
	if !c.Wallet.IsValid() {
		return progress.ErrInvalidWalletAddress
	}
	if c.Amount <= 0 {
		return progress.ErrNonPositiveAmount
	}
	if c.DurationDays <= 0 {
		return progress.ErrNonPositiveDuration
	}
	return nil
}

// StakeTokensResult contains the resulting record state.
type StakeTokensResult struct {
	// Record is the record after staking.
	Record *progress.ProgressRecord

	// EstimatedReward for this stake at the chosen duration.
	EstimatedReward progress.Tokens

	// Unlocks are achievements unlocked by this stake (first-stake).
	Unlocks []saga.Unlock

	// Events contains the domain events generated.
	Events []shared.Event
}

// StakeTokensHandler handles the StakeTokensCommand.
type StakeTokensHandler struct {
	progressRepo    progress.Repository
	achievementFlow *saga.AchievementFlow
	publisher       shared.EventPublisher
	clock           clock.Clock
	log             *logger.Logger
}

// NewStakeTokensHandler creates the handler.
func NewStakeTokensHandler(
	progressRepo progress.Repository,
	achievementFlow *saga.AchievementFlow,
	publisher shared.EventPublisher,
	clk clock.Clock,
	log *logger.Logger,
) *StakeTokensHandler {
	return &StakeTokensHandler{
		progressRepo:    progressRepo,
		achievementFlow: achievementFlow,
		publisher:       publisher,
		clock:           clk,
		log:             log,
	}
}

// Handle executes the command.
func (h *StakeTokensHandler) Handle(ctx context.Context, cmd StakeTokensCommand) (*StakeTokensResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	record, err := h.progressRepo.GetByWallet(ctx, cmd.Wallet)
	if err != nil {
		return nil, fmt.Errorf("stake_tokens: loading record: %w", err)
	}

	now := h.clock.Now()
	firstStake := record.StakedTokens == 0

	if err := record.Stake(cmd.Amount, cmd.DurationDays, now); err != nil {
		return nil, err
	}

	result := &StakeTokensResult{
		Record:          record,
		EstimatedReward: progress.EstimateStakeReward(cmd.Amount, cmd.DurationDays),
	}
	result.Events = append(result.Events, progress.NewTokensStakedEvent(record, cmd.Amount, cmd.DurationDays))

	flowResult, err := h.achievementFlow.Check(ctx, saga.CheckInput{
		Record:     record,
		Trigger:    saga.TriggerStake,
		FirstStake: firstStake,
		Timestamp:  now,
	})
	if err != nil {
		return nil, fmt.Errorf("stake_tokens: achievement check: %w", err)
	}
	result.Unlocks = flowResult.Unlocks
	result.Events = append(result.Events, flowResult.Events...)

	if err := h.progressRepo.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("stake_tokens: updating record: %w", err)
	}

	publishEvents(h.publisher, result.Events)
	h.log.Info("tokens staked",
		logger.Wallet(cmd.Wallet.String()),
		logger.Tokens(int(cmd.Amount)),
		logger.Int("duration_days", cmd.DurationDays),
	)

	return result, nil
}

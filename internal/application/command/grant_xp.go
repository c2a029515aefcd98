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
// GRANT XP COMMAND
// Credits experience directly. Course completion and achievement bonuses go
// through their own commands; this one serves everything else (events,
// promotions, manual adjustments).
// ══════════════════════════════════════════════════════════════════════════════

// GrantXPCommand contains the data to credit XP.
type GrantXPCommand struct {
	// Wallet is the target record.
	Wallet progress.WalletAddress

	// Amount is the XP to credit. Must be positive.
	Amount progress.XP

	// Reason is recorded in logs for auditability.
	Reason string
}

// Validate validates the command.
func (c GrantXPCommand) Validate() error {
	if !c.Wallet.IsValid() {
		return progress.ErrInvalidWalletAddress
	}
	if c.Amount <= 0 {
		return progress.ErrNonPositiveAmount
	}
	return nil
}

// GrantXPResult contains the resulting record state.
type GrantXPResult struct {
	// Record is the record after the credit.
	Record *progress.ProgressRecord

	// LevelsGained is how many levels the credit carried.
	LevelsGained int

	// Events contains the domain events generated.
	Events []shared.Event
}

// GrantXPHandler handles the GrantXPCommand.
type GrantXPHandler struct {
	progressRepo progress.Repository
	publisher    shared.EventPublisher
	clock        clock.Clock
	log          *logger.Logger
}

// NewGrantXPHandler creates the handler.
func NewGrantXPHandler(
	progressRepo progress.Repository,
	publisher shared.EventPublisher,
	clk clock.Clock,
	log *logger.Logger,
) *GrantXPHandler {
	return &GrantXPHandler{
		progressRepo: progressRepo,
		publisher:    publisher,
		clock:        clk,
		log:          log,
	}
}

// Handle executes the command.
func (h *GrantXPHandler) Handle(ctx context.Context, cmd GrantXPCommand) (*GrantXPResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	record, err := h.progressRepo.GetByWallet(ctx, cmd.Wallet)
	if err != nil {
		return nil, fmt.Errorf("grant_xp: loading record: %w", err)
	}

	now := h.clock.Now()
	levelsGained, err := record.AddXP(cmd.Amount, now)
	if err != nil {
		return nil, err
	}

	if err := h.progressRepo.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("grant_xp: updating record: %w", err)
	}

	events := []shared.Event{progress.NewXPGainedEvent(record, cmd.Amount, levelsGained)}
	publishEvents(h.publisher, events)

	h.log.Info("xp granted",
		logger.Wallet(cmd.Wallet.String()),
		logger.XPAmount(int(cmd.Amount)),
		logger.String("reason", cmd.Reason),
		logger.Int("levels_gained", levelsGained),
	)

	return &GrantXPResult{Record: record, LevelsGained: levelsGained, Events: events}, nil
}

// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/viditkulsh/CyberTrek/internal/application/saga"
	"github.com/viditkulsh/CyberTrek/internal/domain/progress"
	"github.com/viditkulsh/CyberTrek/internal/domain/shared"
	"github.com/viditkulsh/CyberTrek/pkg/clock"
	"github.com/viditkulsh/CyberTrek/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTHENTICATE WALLET COMMAND
// Get-or-create for progress records. A wallet that has completed the
// signature challenge gets its existing record, or a fresh one with the
// signup grant and the first-login achievement.
// ══════════════════════════════════════════════════════════════════════════════

// AuthenticateWalletCommand contains the verified wallet identity.
type AuthenticateWalletCommand struct {
	// Wallet is the authenticated wallet address. Signature verification
	// happens in the identity layer before this command runs.
	Wallet progress.WalletAddress
}

// Validate validates the command.
func (c AuthenticateWalletCommand) Validate() error {
	if !c.Wallet.IsValid() {
		return progress.ErrInvalidWalletAddress
	}
	return nil
}

// AuthenticateWalletResult contains the resulting record.
type AuthenticateWalletResult struct {
	// Record is the wallet's progress record after the operation.
	Record *progress.ProgressRecord

	// Created is true when this call created the record.
	Created bool

	// Unlocks are achievements unlocked by this call (first-login on
	// creation).
	Unlocks []saga.Unlock

	// Events contains the domain events generated.
	Events []shared.Event
}

// AuthenticateWalletHandler handles the AuthenticateWalletCommand.
type AuthenticateWalletHandler struct {
	progressRepo    progress.Repository
	achievementFlow *saga.AchievementFlow
	publisher       shared.EventPublisher
	clock           clock.Clock
	log             *logger.Logger
}

// NewAuthenticateWalletHandler creates the handler.
func NewAuthenticateWalletHandler(
	progressRepo progress.Repository,
	achievementFlow *saga.AchievementFlow,
	publisher shared.EventPublisher,
	clk clock.Clock,
	log *logger.Logger,
) *AuthenticateWalletHandler {
	return &AuthenticateWalletHandler{
		progressRepo:    progressRepo,
		achievementFlow: achievementFlow,
		publisher:       publisher,
		clock:           clk,
		log:             log,
	}
}

// Handle executes the command.
func (h *AuthenticateWalletHandler) Handle(ctx context.Context, cmd AuthenticateWalletCommand) (*AuthenticateWalletResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	record, err := h.progressRepo.GetByWallet(ctx, cmd.Wallet)
	if err == nil {
		return &AuthenticateWalletResult{Record: record}, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("authenticate_wallet: loading record: %w", err)
	}

	now := h.clock.Now()
	record, err = progress.NewProgressRecord(cmd.Wallet, now)
	if err != nil {
		return nil, err
	}

	result := &AuthenticateWalletResult{Record: record, Created: true}
	result.Events = append(result.Events, progress.NewCreatedEvent(record))

	flowResult, err := h.achievementFlow.Check(ctx, saga.CheckInput{
		Record:    record,
		Trigger:   saga.TriggerSignup,
		Timestamp: now,
	})
	if err != nil {
		return nil, fmt.Errorf("authenticate_wallet: achievement check: %w", err)
	}
	result.Unlocks = flowResult.Unlocks
	result.Events = append(result.Events, flowResult.Events...)

	if err := h.progressRepo.Create(ctx, record); err != nil {
		// A concurrent first login won the race; serve its record.
		if errors.Is(err, shared.ErrAlreadyExists) {
			existing, getErr := h.progressRepo.GetByWallet(ctx, cmd.Wallet)
			if getErr != nil {
				return nil, fmt.Errorf("authenticate_wallet: reloading record: %w", getErr)
			}
			return &AuthenticateWalletResult{Record: existing}, nil
		}
		return nil, fmt.Errorf("authenticate_wallet: creating record: %w", err)
	}

	publishEvents(h.publisher, result.Events)
	h.log.Info("progress record created",
		logger.Wallet(cmd.Wallet.String()),
		logger.Tokens(int(record.AvailableTokens)),
	)

	return result, nil
}

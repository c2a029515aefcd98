package query

import (
	"context"

	"github.com/viditkulsh/CyberTrek/internal/domain/progress"
)

// ══════════════════════════════════════════════════════════════════════════════
// ESTIMATE REWARD QUERY
// Pure calculation, no state read or written. Exposed as a query so the
// staking page can show the payout before committing.
// ══════════════════════════════════════════════════════════════════════════════

// EstimateRewardQuery contains the hypothetical stake.
type EstimateRewardQuery struct {
	// Amount is the stake size in QUEST tokens.
	Amount progress.Tokens

	// DurationDays is the staking duration in whole days.
	DurationDays int
}

// EstimateRewardResult contains the projection.
type EstimateRewardResult struct {
	// Amount echoes the stake size.
	Amount progress.Tokens `json:"amount"`

	// DurationDays echoes the duration.
	DurationDays int `json:"duration_days"`

	// Reward is the projected payout. Zero for unsupported durations.
	Reward progress.Tokens `json:"reward"`
}

// EstimateRewardHandler handles the EstimateRewardQuery.
type EstimateRewardHandler struct{}

// NewEstimateRewardHandler creates the handler.
func NewEstimateRewardHandler() *EstimateRewardHandler {
	return &EstimateRewardHandler{}
}

// Handle executes the query. Invalid inputs estimate to zero rather than
// erroring; the projection is advisory.
func (h *EstimateRewardHandler) Handle(_ context.Context, q EstimateRewardQuery) EstimateRewardResult {
	return EstimateRewardResult{
		Amount:       q.Amount,
		DurationDays: q.DurationDays,
		Reward:       progress.EstimateStakeReward(q.Amount, q.DurationDays),
	}
}

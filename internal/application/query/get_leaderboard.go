package query

import (
	"context"
	"fmt"

	"github.com/viditkulsh/CyberTrek/internal/domain/progress"
	"github.com/viditkulsh/CyberTrek/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Top wallets by lifetime XP. Served from the leaderboard store; the
// repository is only consulted when the store is empty (cold start).
// ══════════════════════════════════════════════════════════════════════════════

// DefaultLeaderboardLimit caps the leaderboard size when none is requested.
const DefaultLeaderboardLimit = 25

// GetLeaderboardQuery contains the paging parameters.
type GetLeaderboardQuery struct {
	// Limit is the maximum number of entries. Defaults to
	// DefaultLeaderboardLimit when zero or negative.
	Limit int
}

// GetLeaderboardHandler handles the GetLeaderboardQuery.
type GetLeaderboardHandler struct {
	leaderboard  progress.Leaderboard
	progressRepo progress.Repository
	log          *logger.Logger
}

// NewGetLeaderboardHandler creates the handler.
func NewGetLeaderboardHandler(
	leaderboard progress.Leaderboard,
	progressRepo progress.Repository,
	log *logger.Logger,
) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{
		leaderboard:  leaderboard,
		progressRepo: progressRepo,
		log:          log,
	}
}

// Handle executes the query.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) ([]progress.LeaderboardEntry, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}

	entries, err := h.leaderboard.Top(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("get_leaderboard: reading top: %w", err)
	}
	if len(entries) > 0 {
		return entries, nil
	}

	// Cold store: rebuild from the repository.
	records, err := h.progressRepo.GetAll(ctx, progress.DefaultListOptions().WithLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("get_leaderboard: rebuilding from repository: %w", err)
	}

	entries = make([]progress.LeaderboardEntry, 0, len(records))
	for i, record := range records {
		score := record.LifetimeXP()
		entries = append(entries, progress.LeaderboardEntry{
			Wallet:     record.WalletAddress,
			LifetimeXP: score,
			Rank:       i + 1,
		})
		if err := h.leaderboard.UpdateScore(ctx, record.WalletAddress, score); err != nil {
			h.log.Warn("leaderboard backfill failed",
				logger.Wallet(record.WalletAddress.String()), logger.Err(err))
		}
	}
	return entries, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GET RANK QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetRankQuery asks for one wallet's position.
type GetRankQuery struct {
	// Wallet is the ranked record.
	Wallet progress.WalletAddress
}

// Validate validates the query.
func (q GetRankQuery) Validate() error {
	if !q.Wallet.IsValid() {
		return progress.ErrInvalidWalletAddress
	}
	return nil
}

// GetRankHandler handles the GetRankQuery.
type GetRankHandler struct {
	leaderboard progress.Leaderboard
}

// NewGetRankHandler creates the handler.
func NewGetRankHandler(leaderboard progress.Leaderboard) *GetRankHandler {
	return &GetRankHandler{leaderboard: leaderboard}
}

// Handle executes the query.
func (h *GetRankHandler) Handle(ctx context.Context, q GetRankQuery) (progress.LeaderboardEntry, error) {
	if err := q.Validate(); err != nil {
		return progress.LeaderboardEntry{}, err
	}
	return h.leaderboard.Rank(ctx, q.Wallet)
}

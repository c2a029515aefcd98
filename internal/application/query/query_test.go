package query

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viditkulsh/CyberTrek/internal/domain/progress"
	"github.com/viditkulsh/CyberTrek/internal/infrastructure/persistence/memory"
	"github.com/viditkulsh/CyberTrek/pkg/clock"
	"github.com/viditkulsh/CyberTrek/pkg/logger"
)

var testStart = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func discardLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard, Level: logger.LevelError})
}

func seedRecord(t *testing.T, repo *memory.ProgressRepository, wallet progress.WalletAddress, xp progress.XP) *progress.ProgressRecord {
	t.Helper()
	record, err := progress.NewProgressRecord(wallet, testStart)
	require.NoError(t, err)
	if xp > 0 {
		_, err = record.AddXP(xp, testStart)
		require.NoError(t, err)
	}
	require.NoError(t, repo.Create(context.Background(), record))
	return record
}

func TestGetProgress(t *testing.T) {
	repo := memory.NewProgressRepository()
	clk := clock.NewFake(testStart)
	h := NewGetProgressHandler(repo, nil, 0, clk, discardLogger())

	record := seedRecord(t, repo, "0xWalletAlpha", 250)
	require.NoError(t, record.Stake(40, 7, testStart))
	require.NoError(t, repo.Update(context.Background(), record))

	t.Run("snapshot carries the derived fields", func(t *testing.T) {
		view, err := h.Handle(context.Background(), GetProgressQuery{Wallet: "0xWalletAlpha"})
		require.NoError(t, err)

		assert.Equal(t, 250, view.XP)
		assert.Equal(t, 1, view.Level)
		assert.InDelta(t, 25.0, view.LevelProgressPercent, 0.001)
		assert.Equal(t, 250, view.LifetimeXP)
		assert.Equal(t, 60, view.AvailableTokens)
		assert.Equal(t, 40, view.StakedTokens)
		assert.False(t, view.StakeMatured)
		assert.NotEmpty(t, view.TimeUntilUnlock)
	})

	t.Run("lock countdown follows the clock", func(t *testing.T) {
		clk.Advance(8 * 24 * time.Hour)
		view, err := h.Handle(context.Background(), GetProgressQuery{Wallet: "0xWalletAlpha"})
		require.NoError(t, err)

		assert.True(t, view.StakeMatured)
		assert.Empty(t, view.TimeUntilUnlock)
	})

	t.Run("unknown wallet", func(t *testing.T) {
		_, err := h.Handle(context.Background(), GetProgressQuery{Wallet: "0xNobodyHere"})
		assert.ErrorIs(t, err, progress.ErrRecordNotFound)
	})
}

func TestGetLeaderboard(t *testing.T) {
	repo := memory.NewProgressRepository()
	board := memory.NewLeaderboard()
	h := NewGetLeaderboardHandler(board, repo, discardLogger())
	ctx := context.Background()

	seedRecord(t, repo, "0xWalletAlpha", 2500)
	seedRecord(t, repo, "0xWalletBeta", 500)
	seedRecord(t, repo, "0xWalletGamma", 1800)

	t.Run("cold store rebuilds from the repository", func(t *testing.T) {
		entries, err := h.Handle(ctx, GetLeaderboardQuery{Limit: 10})
		require.NoError(t, err)

		require.Len(t, entries, 3)
		assert.Equal(t, progress.WalletAddress("0xWalletAlpha"), entries[0].Wallet)
		assert.Equal(t, 2500, entries[0].LifetimeXP)
		assert.Equal(t, 1, entries[0].Rank)
		assert.Equal(t, progress.WalletAddress("0xWalletGamma"), entries[1].Wallet)
		assert.Equal(t, progress.WalletAddress("0xWalletBeta"), entries[2].Wallet)
	})

	t.Run("warm store serves directly and honors the limit", func(t *testing.T) {
		entries, err := h.Handle(ctx, GetLeaderboardQuery{Limit: 2})
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, progress.WalletAddress("0xWalletAlpha"), entries[0].Wallet)
	})

	t.Run("rank lookup", func(t *testing.T) {
		rh := NewGetRankHandler(board)
		entry, err := rh.Handle(ctx, GetRankQuery{Wallet: "0xWalletGamma"})
		require.NoError(t, err)
		assert.Equal(t, 2, entry.Rank)

		_, err = rh.Handle(ctx, GetRankQuery{Wallet: "0xNotRanked"})
		assert.ErrorIs(t, err, progress.ErrRecordNotFound)
	})
}

func TestEstimateReward(t *testing.T) {
	h := NewEstimateRewardHandler()
	ctx := context.Background()

	result := h.Handle(ctx, EstimateRewardQuery{Amount: 200, DurationDays: 30})
	assert.Equal(t, progress.Tokens(60), result.Reward)

	result = h.Handle(ctx, EstimateRewardQuery{Amount: 200, DurationDays: 9})
	assert.Equal(t, progress.Tokens(0), result.Reward)
}

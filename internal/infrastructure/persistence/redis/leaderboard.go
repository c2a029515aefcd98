package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/viditkulsh/CyberTrek/internal/domain/progress"
)

// Leaderboard implements progress.Leaderboard on a Redis sorted set keyed
// by lifetime XP. Redis orders ties by member name, which keeps the ranking
// deterministic across reads.
type Leaderboard struct {
	cache *Cache
}

// NewLeaderboard creates a Leaderboard.
func NewLeaderboard(cache *Cache) *Leaderboard {
	return &Leaderboard{cache: cache}
}

// UpdateScore implements progress.Leaderboard.
func (l *Leaderboard) UpdateScore(ctx context.Context, wallet progress.WalletAddress, lifetimeXP int) error {
	err := l.cache.Client().ZAdd(ctx, leaderboardKey, redis.Z{
		Score:  float64(lifetimeXP),
		Member: wallet.String(),
	}).Err()
	if err != nil {
		return fmt.Errorf("leaderboard: updating score: %w", err)
	}
	return nil
}

// Top implements progress.Leaderboard.
func (l *Leaderboard) Top(ctx context.Context, limit int) ([]progress.LeaderboardEntry, error) {
	if limit <= 0 {
		return []progress.LeaderboardEntry{}, nil
	}

	members, err := l.cache.Client().ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard: reading top: %w", err)
	}

	entries := make([]progress.LeaderboardEntry, 0, len(members))
	for i, m := range members {
		wallet, ok := m.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, progress.LeaderboardEntry{
			Wallet:     progress.WalletAddress(wallet),
			LifetimeXP: int(m.Score),
			Rank:       i + 1,
		})
	}
	return entries, nil
}

// Rank implements progress.Leaderboard.
func (l *Leaderboard) Rank(ctx context.Context, wallet progress.WalletAddress) (progress.LeaderboardEntry, error) {
	client := l.cache.Client()

	// ZRevRank is 0-based, best score first.
	rank, err := client.ZRevRank(ctx, leaderboardKey, wallet.String()).Result()
	if errors.Is(err, redis.Nil) {
		return progress.LeaderboardEntry{}, progress.ErrRecordNotFound
	}
	if err != nil {
		return progress.LeaderboardEntry{}, fmt.Errorf("leaderboard: reading rank: %w", err)
	}

	score, err := client.ZScore(ctx, leaderboardKey, wallet.String()).Result()
	if errors.Is(err, redis.Nil) {
		return progress.LeaderboardEntry{}, progress.ErrRecordNotFound
	}
	if err != nil {
		return progress.LeaderboardEntry{}, fmt.Errorf("leaderboard: reading score: %w", err)
	}

	return progress.LeaderboardEntry{
		Wallet:     wallet,
		LifetimeXP: int(score),
		Rank:       int(rank) + 1,
	}, nil
}

// Remove implements progress.Leaderboard.
func (l *Leaderboard) Remove(ctx context.Context, wallet progress.WalletAddress) error {
	if err := l.cache.Client().ZRem(ctx, leaderboardKey, wallet.String()).Err(); err != nil {
		return fmt.Errorf("leaderboard: removing wallet: %w", err)
	}
	return nil
}

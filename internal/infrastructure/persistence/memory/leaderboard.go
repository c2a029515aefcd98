package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/viditkulsh/CyberTrek/internal/domain/progress"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD
// ══════════════════════════════════════════════════════════════════════════════

// Leaderboard ranks wallets by lifetime XP in memory. Ordering matches the
// Redis implementation: score descending, wallet ascending on ties.
type Leaderboard struct {
	mu     sync.RWMutex
	scores map[progress.WalletAddress]int
}

// NewLeaderboard creates an empty leaderboard.
func NewLeaderboard() *Leaderboard {
	return &Leaderboard{scores: make(map[progress.WalletAddress]int)}
}

// UpdateScore implements progress.Leaderboard.
func (l *Leaderboard) UpdateScore(_ context.Context, wallet progress.WalletAddress, lifetimeXP int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.scores[wallet] = lifetimeXP
	return nil
}

// Top implements progress.Leaderboard.
func (l *Leaderboard) Top(_ context.Context, limit int) ([]progress.LeaderboardEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := l.ranked()
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries, nil
}

// Rank implements progress.Leaderboard.
func (l *Leaderboard) Rank(_ context.Context, wallet progress.WalletAddress) (progress.LeaderboardEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, entry := range l.ranked() {
		if entry.Wallet == wallet {
			return entry, nil
		}
	}
	return progress.LeaderboardEntry{}, progress.ErrRecordNotFound
}

// Remove implements progress.Leaderboard.
func (l *Leaderboard) Remove(_ context.Context, wallet progress.WalletAddress) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.scores, wallet)
	return nil
}

func (l *Leaderboard) ranked() []progress.LeaderboardEntry {
	entries := make([]progress.LeaderboardEntry, 0, len(l.scores))
	for wallet, score := range l.scores {
		entries = append(entries, progress.LeaderboardEntry{Wallet: wallet, LifetimeXP: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].LifetimeXP != entries[j].LifetimeXP {
			return entries[i].LifetimeXP > entries[j].LifetimeXP
		}
		return entries[i].Wallet < entries[j].Wallet
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

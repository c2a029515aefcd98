package messaging

import (
	"context"
	"fmt"

	"github.com/viditkulsh/CyberTrek/internal/domain/progress"
	"github.com/viditkulsh/CyberTrek/internal/domain/shared"
	"github.com/viditkulsh/CyberTrek/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD PROJECTOR
// Keeps the leaderboard store in sync with XP events, so ranking reads
// never touch the primary repository.
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardProjector updates the leaderboard from XP events. The events
// carry the lifetime XP, so the projection needs no extra repository read.
type LeaderboardProjector struct {
	leaderboard progress.Leaderboard
	log         *logger.Logger
}

// NewLeaderboardProjector creates the projector.
func NewLeaderboardProjector(leaderboard progress.Leaderboard, log *logger.Logger) *LeaderboardProjector {
	return &LeaderboardProjector{
		leaderboard: leaderboard,
		log:         log.With(logger.Component("leaderboard_projector")),
	}
}

// InterestedIn implements shared.EventHandler.
func (p *LeaderboardProjector) InterestedIn() []shared.EventType {
	return []shared.EventType{
		shared.EventProgressCreated,
		shared.EventXPGained,
		shared.EventLevelUp,
	}
}

// Handle implements shared.EventHandler.
func (p *LeaderboardProjector) Handle(event shared.Event) error {
	wallet := progress.WalletAddress(event.AggregateID())
	if !wallet.IsValid() {
		return fmt.Errorf("leaderboard projector: invalid aggregate %q", event.AggregateID())
	}

	score := 0
	if event.EventType() != shared.EventProgressCreated {
		raw, ok := event.Payload()["lifetime_xp"]
		if !ok {
			return fmt.Errorf("leaderboard projector: event %s missing lifetime_xp", event.EventType())
		}
		score, ok = asInt(raw)
		if !ok {
			return fmt.Errorf("leaderboard projector: event %s has malformed lifetime_xp", event.EventType())
		}
	}

	if err := p.leaderboard.UpdateScore(context.Background(), wallet, score); err != nil {
		return fmt.Errorf("leaderboard projector: updating score: %w", err)
	}

	p.log.Debug("leaderboard updated",
		logger.Wallet(wallet.String()), logger.Int("lifetime_xp", score))
	return nil
}

// asInt tolerates the numeric types a payload value can arrive as: native
// ints locally, float64 after a JSON round trip through Redis.
func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CACHE INVALIDATOR
// ══════════════════════════════════════════════════════════════════════════════

// CacheInvalidator drops a wallet's cached progress snapshot whenever any
// event touches its record. Subscribing to all events keeps the read model
// from serving a stale snapshot after a write on another instance.
type CacheInvalidator struct {
	cache progress.Cache
	log   *logger.Logger
}

// NewCacheInvalidator creates the invalidator.
func NewCacheInvalidator(cache progress.Cache, log *logger.Logger) *CacheInvalidator {
	return &CacheInvalidator{
		cache: cache,
		log:   log.With(logger.Component("cache_invalidator")),
	}
}

// InterestedIn implements shared.EventHandler. The empty slice subscribes
// to every event type.
func (c *CacheInvalidator) InterestedIn() []shared.EventType {
	return nil
}

// Handle implements shared.EventHandler.
func (c *CacheInvalidator) Handle(event shared.Event) error {
	wallet := progress.WalletAddress(event.AggregateID())
	if !wallet.IsValid() {
		return fmt.Errorf("cache invalidator: invalid aggregate %q", event.AggregateID())
	}

	if err := c.cache.Invalidate(context.Background(), wallet); err != nil {
		return fmt.Errorf("cache invalidator: %w", err)
	}

	c.log.Debug("progress cache invalidated", logger.Wallet(wallet.String()))
	return nil
}

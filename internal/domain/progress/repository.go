package progress

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// These interfaces define the contract for the progress store.
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines the persistence operations for progress records.
// The record is the unit of storage: a mutation is written back whole,
// guarded by the wallet address key.
type Repository interface {
	// ─────────────────────────────────────────────────────────────────────────
	// CRUD Operations
	// ─────────────────────────────────────────────────────────────────────────

	// Create persists a brand new record.
	// Returns ErrRecordAlreadyExists if the wallet already has one.
	Create(ctx context.Context, record *ProgressRecord) error

	// GetByWallet returns the record for the wallet.
	// Returns ErrRecordNotFound if no record exists.
	GetByWallet(ctx context.Context, wallet WalletAddress) (*ProgressRecord, error)

	// Update writes the record back.
	// Returns ErrRecordNotFound if no record exists.
	Update(ctx context.Context, record *ProgressRecord) error

	// Delete removes the record for the wallet.
	// Returns ErrRecordNotFound if no record exists.
	Delete(ctx context.Context, wallet WalletAddress) error

	// ─────────────────────────────────────────────────────────────────────────
	// Bulk Operations
	// ─────────────────────────────────────────────────────────────────────────

	// GetAll returns records with pagination.
	GetAll(ctx context.Context, opts ListOptions) ([]*ProgressRecord, error)

	// Count returns the total number of records.
	Count(ctx context.Context) (int, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Existence Checks
	// ─────────────────────────────────────────────────────────────────────────

	// Exists reports whether a record exists for the wallet.
	Exists(ctx context.Context, wallet WalletAddress) (bool, error)
}

// ListOptions carries pagination and sorting parameters.
type ListOptions struct {
	// Offset - pagination offset.
	Offset int

	// Limit - maximum number of records.
	Limit int

	// SortBy - field to sort by.
	SortBy string

	// SortDesc - sort descending.
	SortDesc bool
}

// DefaultListOptions returns the default parameters.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Offset:   0,
		Limit:    50,
		SortBy:   "level",
		SortDesc: true,
	}
}

// WithOffset sets the offset.
func (o ListOptions) WithOffset(offset int) ListOptions {
	o.Offset = offset
	return o
}

// WithLimit sets the limit.
func (o ListOptions) WithLimit(limit int) ListOptions {
	o.Limit = limit
	return o
}

// WithSort sets the sort field and direction.
func (o ListOptions) WithSort(field string, desc bool) ListOptions {
	o.SortBy = field
	o.SortDesc = desc
	return o
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD
// Ranks wallets by lifetime XP (usually backed by a Redis sorted set).
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardEntry is one row of the ranking.
type LeaderboardEntry struct {
	Wallet     WalletAddress `json:"wallet"`
	LifetimeXP int           `json:"lifetime_xp"`
	Rank       int           `json:"rank"`
}

// Leaderboard defines the ranking operations.
type Leaderboard interface {
	// UpdateScore sets the wallet's lifetime XP score.
	UpdateScore(ctx context.Context, wallet WalletAddress, lifetimeXP int) error

	// Top returns the highest ranked wallets, best first.
	Top(ctx context.Context, limit int) ([]LeaderboardEntry, error)

	// Rank returns the wallet's position, 1-based.
	// Returns ErrRecordNotFound if the wallet is not ranked.
	Rank(ctx context.Context, wallet WalletAddress) (LeaderboardEntry, error)

	// Remove drops the wallet from the ranking.
	Remove(ctx context.Context, wallet WalletAddress) error
}

// ══════════════════════════════════════════════════════════════════════════════
// CACHE INTERFACE
// Read-side cache for progress snapshots.
// ══════════════════════════════════════════════════════════════════════════════

// Cache defines caching operations for progress records.
// A cache miss is reported as ErrRecordNotFound; callers fall back to the
// durable store.
type Cache interface {
	// Get fetches a record from the cache.
	Get(ctx context.Context, wallet WalletAddress) (*ProgressRecord, error)

	// Set stores a record in the cache.
	Set(ctx context.Context, record *ProgressRecord, ttl time.Duration) error

	// Invalidate drops the wallet's cache entry.
	Invalidate(ctx context.Context, wallet WalletAddress) error

	// InvalidateAll clears the whole progress cache.
	InvalidateAll(ctx context.Context) error
}

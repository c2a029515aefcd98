// Package memory provides in-memory implementations of the persistence
// interfaces. Used in tests and for running the server without external
// backing stores.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/viditkulsh/CyberTrek/internal/domain/progress"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// ProgressRepository is a mutex-guarded map of wallet to record. Records are
// cloned on the way in and out, so callers can never alias stored state.
type ProgressRepository struct {
	mu      sync.RWMutex
	records map[progress.WalletAddress]*progress.ProgressRecord
}

// NewProgressRepository creates an empty repository.
func NewProgressRepository() *ProgressRepository {
	return &ProgressRepository{
		records: make(map[progress.WalletAddress]*progress.ProgressRecord),
	}
}

// Create implements progress.Repository.
func (r *ProgressRepository) Create(_ context.Context, record *progress.ProgressRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[record.WalletAddress]; exists {
		return progress.ErrRecordAlreadyExists
	}
	r.records[record.WalletAddress] = record.Clone()
	return nil
}

// GetByWallet implements progress.Repository.
func (r *ProgressRepository) GetByWallet(_ context.Context, wallet progress.WalletAddress) (*progress.ProgressRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[wallet]
	if !ok {
		return nil, progress.ErrRecordNotFound
	}
	return record.Clone(), nil
}

// Update implements progress.Repository.
func (r *ProgressRepository) Update(_ context.Context, record *progress.ProgressRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[record.WalletAddress]; !ok {
		return progress.ErrRecordNotFound
	}
	r.records[record.WalletAddress] = record.Clone()
	return nil
}

// Delete implements progress.Repository.
func (r *ProgressRepository) Delete(_ context.Context, wallet progress.WalletAddress) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[wallet]; !ok {
		return progress.ErrRecordNotFound
	}
	delete(r.records, wallet)
	return nil
}

// GetAll implements progress.Repository.
func (r *ProgressRepository) GetAll(_ context.Context, opts progress.ListOptions) ([]*progress.ProgressRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*progress.ProgressRecord, 0, len(r.records))
	for _, record := range r.records {
		all = append(all, record.Clone())
	}

	sort.Slice(all, func(i, j int) bool {
		var less bool
		switch opts.SortBy {
		case "wallet":
			less = all[i].WalletAddress < all[j].WalletAddress
		default:
			// Level ties break on lifetime XP, then wallet for stability.
			li, lj := all[i].LifetimeXP(), all[j].LifetimeXP()
			if li != lj {
				less = li < lj
			} else {
				less = all[i].WalletAddress < all[j].WalletAddress
			}
		}
		if opts.SortDesc {
			return !less
		}
		return less
	})

	if opts.Offset >= len(all) {
		return []*progress.ProgressRecord{}, nil
	}
	all = all[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(all) {
		all = all[:opts.Limit]
	}
	return all, nil
}

// Count implements progress.Repository.
func (r *ProgressRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records), nil
}

// Exists implements progress.Repository.
func (r *ProgressRepository) Exists(_ context.Context, wallet progress.WalletAddress) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.records[wallet]
	return ok, nil
}

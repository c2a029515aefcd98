package memory

import (
	"context"
	"sync"

	"github.com/viditkulsh/CyberTrek/internal/domain/catalog"
)

// ══════════════════════════════════════════════════════════════════════════════
// MODULE PROGRESS REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

type moduleKey struct {
	wallet   string
	courseID string
	moduleID string
}

// ModuleProgressRepository keeps graded module attempts in memory.
type ModuleProgressRepository struct {
	mu      sync.RWMutex
	results map[moduleKey]catalog.ModuleResult
}

// NewModuleProgressRepository creates an empty repository.
func NewModuleProgressRepository() *ModuleProgressRepository {
	return &ModuleProgressRepository{
		results: make(map[moduleKey]catalog.ModuleResult),
	}
}

// Record implements catalog.ModuleProgressRepository. Passed and Perfect are
// sticky: a worse retake never downgrades a stored result.
func (r *ModuleProgressRepository) Record(_ context.Context, result catalog.ModuleResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := moduleKey{wallet: result.Wallet, courseID: result.CourseID, moduleID: result.ModuleID}
	if existing, ok := r.results[key]; ok {
		if existing.Correct > result.Correct {
			result.Correct = existing.Correct
			result.Total = existing.Total
		}
		result.Passed = result.Passed || existing.Passed
		result.Perfect = result.Perfect || existing.Perfect
		if !existing.CompletedAt.IsZero() {
			result.CompletedAt = existing.CompletedAt
		}
	}
	r.results[key] = result
	return nil
}

// GetCourseResults implements catalog.ModuleProgressRepository.
func (r *ModuleProgressRepository) GetCourseResults(_ context.Context, wallet, courseID string) ([]catalog.ModuleResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []catalog.ModuleResult
	for key, result := range r.results {
		if key.wallet == wallet && key.courseID == courseID {
			out = append(out, result)
		}
	}
	return out, nil
}

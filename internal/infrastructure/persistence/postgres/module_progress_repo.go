package postgres

import (
	"context"
	"fmt"

	"github.com/viditkulsh/CyberTrek/internal/domain/catalog"
)

// ══════════════════════════════════════════════════════════════════════════════
// MODULE PROGRESS REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ModuleProgressRepository implements catalog.ModuleProgressRepository for
// PostgreSQL. Quiz retakes upsert: pass and perfect flags are sticky, the
// best score and the earliest completion time are kept.
type ModuleProgressRepository struct {
	conn *Connection
}

// NewModuleProgressRepository creates a new ModuleProgressRepository.
func NewModuleProgressRepository(conn *Connection) *ModuleProgressRepository {
	return &ModuleProgressRepository{conn: conn}
}

// Record persists a module result.
func (r *ModuleProgressRepository) Record(ctx context.Context, result catalog.ModuleResult) error {
	query := `
		INSERT INTO module_results (
			wallet_address, course_id, module_id, correct, total,
			passed, perfect, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (wallet_address, course_id, module_id) DO UPDATE SET
			correct = GREATEST(module_results.correct, EXCLUDED.correct),
			total = EXCLUDED.total,
			passed = module_results.passed OR EXCLUDED.passed,
			perfect = module_results.perfect OR EXCLUDED.perfect,
			completed_at = LEAST(module_results.completed_at, EXCLUDED.completed_at)
	`

	_, err := r.conn.Exec(ctx, query,
		result.Wallet,
		result.CourseID,
		result.ModuleID,
		result.Correct,
		result.Total,
		result.Passed,
		result.Perfect,
		result.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record module result: %w", err)
	}
	return nil
}

// GetCourseResults returns all module results a wallet has for a course.
func (r *ModuleProgressRepository) GetCourseResults(ctx context.Context, wallet, courseID string) ([]catalog.ModuleResult, error) {
	query := `
		SELECT wallet_address, course_id, module_id, correct, total,
			   passed, perfect, completed_at
		FROM module_results
		WHERE wallet_address = $1 AND course_id = $2
		ORDER BY completed_at ASC
	`

	rows, err := r.conn.Query(ctx, query, wallet, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query module results: %w", err)
	}
	defer rows.Close()

	results := make([]catalog.ModuleResult, 0)
	for rows.Next() {
		var result catalog.ModuleResult
		err := rows.Scan(&result.Wallet, &result.CourseID, &result.ModuleID,
			&result.Correct, &result.Total, &result.Passed, &result.Perfect,
			&result.CompletedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan module result: %w", err)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

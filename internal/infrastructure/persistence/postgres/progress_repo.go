package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/viditkulsh/CyberTrek/internal/domain/progress"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProgressRepository implements progress.Repository for PostgreSQL.
type ProgressRepository struct {
	conn *Connection
}

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(conn *Connection) *ProgressRepository {
	return &ProgressRepository{conn: conn}
}

const progressColumns = `wallet_address, xp, level, available_tokens, staked_tokens,
		   staking_end_time, completed_course_ids, unlocked_achievement_ids,
		   enrollments, created_at, updated_at`

// ─────────────────────────────────────────────────────────────────────────────
// CRUD Operations
// ─────────────────────────────────────────────────────────────────────────────

// Create creates a new progress record.
func (r *ProgressRepository) Create(ctx context.Context, record *progress.ProgressRecord) error {
	query := `
		INSERT INTO progress_records (
			wallet_address, xp, level, available_tokens, staked_tokens,
			staking_end_time, completed_course_ids, unlocked_achievement_ids,
			enrollments, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	completed, achievements, enrollments, err := marshalRecordJSON(record)
	if err != nil {
		return err
	}

	_, err = r.conn.Exec(ctx, query,
		record.WalletAddress.String(),
		int(record.XP),
		int(record.Level),
		int(record.AvailableTokens),
		int(record.StakedTokens),
		nullableTime(record.StakingEndTime),
		completed,
		achievements,
		enrollments,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return progress.ErrRecordAlreadyExists
		}
		return fmt.Errorf("failed to create progress record: %w", err)
	}
	return nil
}

// GetByWallet returns the record for a wallet.
func (r *ProgressRepository) GetByWallet(ctx context.Context, wallet progress.WalletAddress) (*progress.ProgressRecord, error) {
	query := `
		SELECT ` + progressColumns + `
		FROM progress_records
		WHERE wallet_address = $1
	`

	row := r.conn.QueryRow(ctx, query, wallet.String())
	return scanProgressRecord(row)
}

// Update writes the record back.
func (r *ProgressRepository) Update(ctx context.Context, record *progress.ProgressRecord) error {
	query := `
		UPDATE progress_records SET
			xp = $2,
			level = $3,
			available_tokens = $4,
			staked_tokens = $5,
			staking_end_time = $6,
			completed_course_ids = $7,
			unlocked_achievement_ids = $8,
			enrollments = $9,
			updated_at = $10
		WHERE wallet_address = $1
	`

	completed, achievements, enrollments, err := marshalRecordJSON(record)
	if err != nil {
		return err
	}

	tag, err := r.conn.Exec(ctx, query,
		record.WalletAddress.String(),
		int(record.XP),
		int(record.Level),
		int(record.AvailableTokens),
		int(record.StakedTokens),
		nullableTime(record.StakingEndTime),
		completed,
		achievements,
		enrollments,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update progress record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return progress.ErrRecordNotFound
	}
	return nil
}

// Delete removes the record for a wallet.
func (r *ProgressRepository) Delete(ctx context.Context, wallet progress.WalletAddress) error {
	tag, err := r.conn.Exec(ctx,
		"DELETE FROM progress_records WHERE wallet_address = $1", wallet.String())
	if err != nil {
		return fmt.Errorf("failed to delete progress record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return progress.ErrRecordNotFound
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Bulk Operations
// ─────────────────────────────────────────────────────────────────────────────

// GetAll returns records with pagination, ordered by lifetime XP descending
// (level then residual XP) with the wallet as tiebreak.
func (r *ProgressRepository) GetAll(ctx context.Context, opts progress.ListOptions) ([]*progress.ProgressRecord, error) {
	query := `
		SELECT ` + progressColumns + `
		FROM progress_records
		ORDER BY level DESC, xp DESC, wallet_address ASC
		LIMIT $1 OFFSET $2
	`

	limit := opts.Limit
	if limit <= 0 {
		limit = progress.DefaultListOptions().Limit
	}

	rows, err := r.conn.Query(ctx, query, limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress records: %w", err)
	}
	defer rows.Close()

	records := make([]*progress.ProgressRecord, 0, limit)
	for rows.Next() {
		record, err := scanProgressRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Count returns the total number of records.
func (r *ProgressRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, "SELECT COUNT(*) FROM progress_records").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count progress records: %w", err)
	}
	return count, nil
}

// Exists reports whether a record exists for the wallet.
func (r *ProgressRepository) Exists(ctx context.Context, wallet progress.WalletAddress) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM progress_records WHERE wallet_address = $1)",
		wallet.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check progress record existence: %w", err)
	}
	return exists, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Row Mapping
// ─────────────────────────────────────────────────────────────────────────────

func marshalRecordJSON(record *progress.ProgressRecord) (completed, achievements, enrollments []byte, err error) {
	completed, err = json.Marshal(emptyIfNil(record.CompletedCourseIDs))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal completed courses: %w", err)
	}
	achievements, err = json.Marshal(emptyIfNil(record.UnlockedAchievementIDs))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal achievements: %w", err)
	}
	enrollments, err = json.Marshal(record.Enrollments)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal enrollments: %w", err)
	}
	return completed, achievements, enrollments, nil
}

func scanProgressRecord(row pgx.Row) (*progress.ProgressRecord, error) {
	var (
		wallet          string
		xp              int
		level           int
		availableTokens int
		stakedTokens    int
		stakingEnd      *time.Time
		completedJSON   []byte
		achievedJSON    []byte
		enrollmentsJSON []byte
		createdAt       time.Time
		updatedAt       time.Time
	)

	err := row.Scan(&wallet, &xp, &level, &availableTokens, &stakedTokens,
		&stakingEnd, &completedJSON, &achievedJSON, &enrollmentsJSON,
		&createdAt, &updatedAt)
	if IsNoRows(err) {
		return nil, progress.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan progress record: %w", err)
	}

	record := &progress.ProgressRecord{
		WalletAddress:   progress.WalletAddress(wallet),
		XP:              progress.XP(xp),
		Level:           progress.Level(level),
		AvailableTokens: progress.Tokens(availableTokens),
		StakedTokens:    progress.Tokens(stakedTokens),
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}
	if stakingEnd != nil {
		record.StakingEndTime = *stakingEnd
	}

	if err := json.Unmarshal(completedJSON, &record.CompletedCourseIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal completed courses: %w", err)
	}
	if err := json.Unmarshal(achievedJSON, &record.UnlockedAchievementIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal achievements: %w", err)
	}
	if err := json.Unmarshal(enrollmentsJSON, &record.Enrollments); err != nil {
		return nil, fmt.Errorf("failed to unmarshal enrollments: %w", err)
	}
	if record.Enrollments == nil {
		record.Enrollments = make(map[string]*progress.Enrollment)
	}

	return record, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

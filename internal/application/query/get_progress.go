// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/viditkulsh/CyberTrek/internal/domain/progress"
	"github.com/viditkulsh/CyberTrek/internal/domain/shared"
	"github.com/viditkulsh/CyberTrek/pkg/clock"
	"github.com/viditkulsh/CyberTrek/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROGRESS QUERY
// Snapshot of one wallet's progress with the derived display fields
// (level percentage, lock countdown) computed against the current clock.
// ══════════════════════════════════════════════════════════════════════════════

// GetProgressQuery identifies the record to read.
type GetProgressQuery struct {
	// Wallet is the record to read.
	Wallet progress.WalletAddress
}

// Validate validates the query.
func (q GetProgressQuery) Validate() error {
	if !q.Wallet.IsValid() {
		return progress.ErrInvalidWalletAddress
	}
	return nil
}

// EnrollmentView is the read model of one enrollment.
type EnrollmentView struct {
	CourseID      string    `json:"course_id"`
	StakedAmount  int       `json:"staked_amount"`
	EnrolledAt    time.Time `json:"enrolled_at"`
	Completed     bool      `json:"completed"`
	RewardClaimed bool      `json:"reward_claimed"`
}

// ProgressView is the read model of a progress record.
type ProgressView struct {
	Wallet               string           `json:"wallet"`
	XP                   int              `json:"xp"`
	Level                int              `json:"level"`
	LevelProgressPercent float64          `json:"level_progress_percent"`
	LifetimeXP           int              `json:"lifetime_xp"`
	AvailableTokens      int              `json:"available_tokens"`
	StakedTokens         int              `json:"staked_tokens"`
	StakingEndTime       *time.Time       `json:"staking_end_time,omitempty"`
	StakeMatured         bool             `json:"stake_matured"`
	TimeUntilUnlock      string           `json:"time_until_unlock,omitempty"`
	Enrollments          []EnrollmentView `json:"enrollments"`
	CompletedCourses     []string         `json:"completed_courses"`
	UnlockedAchievements []string         `json:"unlocked_achievements"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// NewProgressView builds the read model from a record.
func NewProgressView(record *progress.ProgressRecord, now time.Time) ProgressView {
	view := ProgressView{
		Wallet:               record.WalletAddress.String(),
		XP:                   int(record.XP),
		Level:                int(record.Level),
		LevelProgressPercent: record.LevelProgressPercent(),
		LifetimeXP:           record.LifetimeXP(),
		AvailableTokens:      int(record.AvailableTokens),
		StakedTokens:         int(record.StakedTokens),
		StakeMatured:         record.StakeMatured(now),
		Enrollments:          make([]EnrollmentView, 0, len(record.Enrollments)),
		CompletedCourses:     record.CompletedCourseIDs,
		UnlockedAchievements: record.UnlockedAchievementIDs,
		CreatedAt:            record.CreatedAt,
		UpdatedAt:            record.UpdatedAt,
	}
	if record.StakedTokens > 0 {
		end := record.StakingEndTime
		view.StakingEndTime = &end
		if remaining := record.TimeUntilUnlock(now); remaining > 0 {
			view.TimeUntilUnlock = remaining.String()
		}
	}
	for _, e := range record.Enrollments {
		view.Enrollments = append(view.Enrollments, EnrollmentView{
			CourseID:      e.CourseID,
			StakedAmount:  int(e.StakedAmount),
			EnrolledAt:    e.EnrolledAt,
			Completed:     e.Completed,
			RewardClaimed: e.RewardClaimed,
		})
	}
	return view
}

// GetProgressHandler handles the GetProgressQuery.
type GetProgressHandler struct {
	progressRepo progress.Repository
	cache        progress.Cache
	cacheTTL     time.Duration
	clock        clock.Clock
	log          *logger.Logger
}

// NewGetProgressHandler creates the handler. The cache is optional; pass nil
// to read straight from the repository.
func NewGetProgressHandler(
	progressRepo progress.Repository,
	cache progress.Cache,
	cacheTTL time.Duration,
	clk clock.Clock,
	log *logger.Logger,
) *GetProgressHandler {
	return &GetProgressHandler{
		progressRepo: progressRepo,
		cache:        cache,
		cacheTTL:     cacheTTL,
		clock:        clk,
		log:          log,
	}
}

// Handle executes the query.
func (h *GetProgressHandler) Handle(ctx context.Context, q GetProgressQuery) (*ProgressView, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	now := h.clock.Now()

	if h.cache != nil {
		if record, err := h.cache.Get(ctx, q.Wallet); err == nil {
			view := NewProgressView(record, now)
			return &view, nil
		} else if !errors.Is(err, shared.ErrNotFound) {
			h.log.Warn("progress cache read failed",
				logger.Wallet(q.Wallet.String()), logger.Err(err))
		}
	}

	record, err := h.progressRepo.GetByWallet(ctx, q.Wallet)
	if err != nil {
		return nil, fmt.Errorf("get_progress: loading record: %w", err)
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, record, h.cacheTTL); err != nil {
			h.log.Warn("progress cache write failed",
				logger.Wallet(q.Wallet.String()), logger.Err(err))
		}
	}

	view := NewProgressView(record, now)
	return &view, nil
}

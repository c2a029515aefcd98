package progress

import (
	"github.com/viditkulsh/CyberTrek/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN EVENTS
// Emitted after a successful, persisted mutation. Consumers (leaderboard
// maintenance, cache invalidation) must never influence the outcome of the
// operation that produced the event.
// ══════════════════════════════════════════════════════════════════════════════

// CreatedEvent is emitted when a wallet gets its first progress record.
type CreatedEvent struct {
	shared.BaseEvent
	Wallet WalletAddress `json:"wallet"`
}

// NewCreatedEvent builds a CreatedEvent for the record.
func NewCreatedEvent(r *ProgressRecord) CreatedEvent {
	return CreatedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventProgressCreated, r.WalletAddress.String()),
		Wallet:    r.WalletAddress,
	}
}

// Payload implements shared.Event.
func (e CreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"wallet": e.Wallet.String(),
	}
}

// XPGainedEvent is emitted whenever XP is credited, including achievement
// bonuses. LifetimeXP lets the leaderboard update without a second read.
type XPGainedEvent struct {
	shared.BaseEvent
	Wallet       WalletAddress `json:"wallet"`
	Amount       XP            `json:"amount"`
	NewLevel     Level         `json:"new_level"`
	LevelsGained int           `json:"levels_gained"`
	LifetimeXP   int           `json:"lifetime_xp"`
}

// NewXPGainedEvent builds an XPGainedEvent for the record after the credit.
func NewXPGainedEvent(r *ProgressRecord, amount XP, levelsGained int) XPGainedEvent {
	eventType := shared.EventXPGained
	if levelsGained > 0 {
		eventType = shared.EventLevelUp
	}
	return XPGainedEvent{
		BaseEvent:    shared.NewBaseEvent(eventType, r.WalletAddress.String()),
		Wallet:       r.WalletAddress,
		Amount:       amount,
		NewLevel:     r.Level,
		LevelsGained: levelsGained,
		LifetimeXP:   r.LifetimeXP(),
	}
}

// Payload implements shared.Event.
func (e XPGainedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"wallet":        e.Wallet.String(),
		"amount":        int(e.Amount),
		"new_level":     int(e.NewLevel),
		"levels_gained": e.LevelsGained,
		"lifetime_xp":   e.LifetimeXP,
	}
}

// TokensStakedEvent is emitted when tokens enter the pooled stake.
type TokensStakedEvent struct {
	shared.BaseEvent
	Wallet       WalletAddress `json:"wallet"`
	Amount       Tokens        `json:"amount"`
	DurationDays int           `json:"duration_days"`
}

// NewTokensStakedEvent builds a TokensStakedEvent.
func NewTokensStakedEvent(r *ProgressRecord, amount Tokens, durationDays int) TokensStakedEvent {
	return TokensStakedEvent{
		BaseEvent:    shared.NewBaseEvent(shared.EventTokensStaked, r.WalletAddress.String()),
		Wallet:       r.WalletAddress,
		Amount:       amount,
		DurationDays: durationDays,
	}
}

// Payload implements shared.Event.
func (e TokensStakedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"wallet":        e.Wallet.String(),
		"amount":        int(e.Amount),
		"duration_days": e.DurationDays,
	}
}

// StakeWithdrawnEvent is emitted when a course escrow is dissolved.
type StakeWithdrawnEvent struct {
	shared.BaseEvent
	Wallet       WalletAddress `json:"wallet"`
	CourseID     string        `json:"course_id"`
	ReturnAmount Tokens        `json:"return_amount"`
	Penalized    bool          `json:"penalized"`
}

// NewStakeWithdrawnEvent builds a StakeWithdrawnEvent.
func NewStakeWithdrawnEvent(r *ProgressRecord, courseID string, returnAmount Tokens, penalized bool) StakeWithdrawnEvent {
	return StakeWithdrawnEvent{
		BaseEvent:    shared.NewBaseEvent(shared.EventStakeWithdrawn, r.WalletAddress.String()),
		Wallet:       r.WalletAddress,
		CourseID:     courseID,
		ReturnAmount: returnAmount,
		Penalized:    penalized,
	}
}

// Payload implements shared.Event.
func (e StakeWithdrawnEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"wallet":        e.Wallet.String(),
		"course_id":     e.CourseID,
		"return_amount": int(e.ReturnAmount),
		"penalized":     e.Penalized,
	}
}

// CourseEnrolledEvent is emitted on enrollment and on escrow top-up.
type CourseEnrolledEvent struct {
	shared.BaseEvent
	Wallet      WalletAddress `json:"wallet"`
	CourseID    string        `json:"course_id"`
	StakeAmount Tokens        `json:"stake_amount"`
	TopUp       bool          `json:"top_up"`
}

// NewCourseEnrolledEvent builds a CourseEnrolledEvent.
func NewCourseEnrolledEvent(r *ProgressRecord, courseID string, stakeAmount Tokens, topUp bool) CourseEnrolledEvent {
	return CourseEnrolledEvent{
		BaseEvent:   shared.NewBaseEvent(shared.EventCourseEnrolled, r.WalletAddress.String()),
		Wallet:      r.WalletAddress,
		CourseID:    courseID,
		StakeAmount: stakeAmount,
		TopUp:       topUp,
	}
}

// Payload implements shared.Event.
func (e CourseEnrolledEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"wallet":       e.Wallet.String(),
		"course_id":    e.CourseID,
		"stake_amount": int(e.StakeAmount),
		"top_up":       e.TopUp,
	}
}

// CourseCompletedEvent is emitted the first time a course is completed.
type CourseCompletedEvent struct {
	shared.BaseEvent
	Wallet   WalletAddress `json:"wallet"`
	CourseID string        `json:"course_id"`
}

// NewCourseCompletedEvent builds a CourseCompletedEvent.
func NewCourseCompletedEvent(r *ProgressRecord, courseID string) CourseCompletedEvent {
	return CourseCompletedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventCourseCompleted, r.WalletAddress.String()),
		Wallet:    r.WalletAddress,
		CourseID:  courseID,
	}
}

// Payload implements shared.Event.
func (e CourseCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"wallet":    e.Wallet.String(),
		"course_id": e.CourseID,
	}
}

// RewardClaimedEvent is emitted when a completed course's reward pays out.
type RewardClaimedEvent struct {
	shared.BaseEvent
	Wallet       WalletAddress `json:"wallet"`
	CourseID     string        `json:"course_id"`
	RewardAmount Tokens        `json:"reward_amount"`
}

// NewRewardClaimedEvent builds a RewardClaimedEvent.
func NewRewardClaimedEvent(r *ProgressRecord, courseID string, rewardAmount Tokens) RewardClaimedEvent {
	return RewardClaimedEvent{
		BaseEvent:    shared.NewBaseEvent(shared.EventRewardClaimed, r.WalletAddress.String()),
		Wallet:       r.WalletAddress,
		CourseID:     courseID,
		RewardAmount: rewardAmount,
	}
}

// Payload implements shared.Event.
func (e RewardClaimedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"wallet":        e.Wallet.String(),
		"course_id":     e.CourseID,
		"reward_amount": int(e.RewardAmount),
	}
}

// AchievementUnlockedEvent is emitted on a first-time unlock.
type AchievementUnlockedEvent struct {
	shared.BaseEvent
	Wallet        WalletAddress `json:"wallet"`
	AchievementID string        `json:"achievement_id"`
	XPReward      XP            `json:"xp_reward"`
}

// NewAchievementUnlockedEvent builds an AchievementUnlockedEvent.
func NewAchievementUnlockedEvent(r *ProgressRecord, achievementID string, xpReward XP) AchievementUnlockedEvent {
	return AchievementUnlockedEvent{
		BaseEvent:     shared.NewBaseEvent(shared.EventAchievementUnlocked, r.WalletAddress.String()),
		Wallet:        r.WalletAddress,
		AchievementID: achievementID,
		XPReward:      xpReward,
	}
}

// Payload implements shared.Event.
func (e AchievementUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"wallet":         e.Wallet.String(),
		"achievement_id": e.AchievementID,
		"xp_reward":      int(e.XPReward),
	}
}

package progress

import (
	"math"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEDGER OPERATIONS
// Every mutation of a ProgressRecord goes through one of these methods.
// Each one validates first and mutates only on success, so a returned error
// always means the record is unchanged.
// ══════════════════════════════════════════════════════════════════════════════

// AddXP credits experience and carries level-ups. The threshold for leaving
// level L is L*1000, so a single large credit can traverse several levels;
// the loop propagates the carry the same way a mixed-radix counter would.
// Returns the number of levels gained.
func (r *ProgressRecord) AddXP(amount XP, now time.Time) (int, error) {
	if amount <= 0 {
		return 0, ErrNonPositiveAmount
	}

	r.XP += amount
	levelsGained := 0
	for r.XP >= r.Level.Threshold() {
		r.XP -= r.Level.Threshold()
		r.Level++
		levelsGained++
	}

	r.touch(now)
	return levelsGained, nil
}

// Stake moves tokens from the spendable balance into the pooled stake.
// The pool has a single maturity timestamp: staking again while an earlier
// stake is maturing overwrites the end time with the new maturity.
func (r *ProgressRecord) Stake(amount Tokens, durationDays int, now time.Time) error {
	if amount <= 0 {
		return ErrNonPositiveAmount
	}
	if durationDays <= 0 {
		return ErrNonPositiveDuration
	}
	if amount > r.AvailableTokens {
		return ErrInsufficientTokens
	}

	r.AvailableTokens -= amount
	r.StakedTokens += amount
	r.StakingEndTime = now.UTC().Add(time.Duration(durationDays) * 24 * time.Hour)
	r.touch(now)
	return nil
}

// EstimateStakeReward computes the reward for staking amount tokens over
// exactly durationDays. Only the published durations earn a reward; anything
// else yields zero. Pure function, shared by the staking page and course
// staking estimates.
func EstimateStakeReward(amount Tokens, durationDays int) Tokens {
	if amount <= 0 {
		return 0
	}
	rate, ok := stakeRewardRates[durationDays]
	if !ok {
		return 0
	}
	return Tokens(math.Floor(float64(amount) * rate))
}

// Enroll joins a course, escrowing stakeAmount from the spendable balance.
// Premium courses demand at least their staking requirement. Re-enrolling
// tops up the existing escrow; the original enrollment time is kept.
// Free courses pass stakeAmount 0 and the debit is a no-op.
func (r *ProgressRecord) Enroll(courseID string, stakeAmount Tokens, terms EnrollmentTerms, now time.Time) error {
	if stakeAmount < 0 {
		return ErrNonPositiveAmount
	}
	existing := r.Enrollments[courseID]
	// The premium minimum gates admission only; a top-up of any size lands
	// on an escrow that already met it.
	if existing == nil && terms.Premium && stakeAmount < terms.StakingRequirement {
		return ErrStakeBelowRequirement
	}
	if stakeAmount > r.AvailableTokens {
		return ErrInsufficientTokens
	}

	if existing != nil {
		existing.StakedAmount += stakeAmount
	} else {
		r.Enrollments[courseID] = &Enrollment{
			CourseID:      courseID,
			StakedAmount:  stakeAmount,
			EnrolledAt:    now.UTC(),
			Completed:     false,
			RewardClaimed: false,
		}
	}

	r.AvailableTokens -= stakeAmount
	r.touch(now)
	return nil
}

// WithdrawCourseStake dissolves a course enrollment and returns its escrow.
// Withdrawing within the fixed 7-day window costs a 20% penalty; the penalty
// is the only place the ledger ever destroys tokens. The enrollment is
// removed entirely, including its completion and claim history. A missing
// enrollment is a benign no-op returning 0.
func (r *ProgressRecord) WithdrawCourseStake(courseID string, now time.Time) Tokens {
	enrollment := r.Enrollments[courseID]
	if enrollment == nil {
		return 0
	}

	returnAmount := enrollment.StakedAmount
	if now.Before(enrollment.EnrolledAt.Add(MinCourseStakePeriod)) {
		penalty := enrollment.StakedAmount * EarlyWithdrawalFeePercent / 100
		returnAmount -= penalty
	}

	delete(r.Enrollments, courseID)
	r.AvailableTokens += returnAmount
	r.touch(now)
	return returnAmount
}

// CompleteCourse marks the enrollment completed and records the course in
// the completed set. Idempotent: repeating it changes nothing. It grants
// neither XP nor tokens - the caller credits those separately so achievement
// checks can re-run without double-granting. A missing enrollment is a
// benign no-op.
func (r *ProgressRecord) CompleteCourse(courseID string, now time.Time) {
	enrollment := r.Enrollments[courseID]
	if enrollment == nil {
		return
	}

	enrollment.Completed = true
	if !containsString(r.CompletedCourseIDs, courseID) {
		r.CompletedCourseIDs = append(r.CompletedCourseIDs, courseID)
	}
	r.touch(now)
}

// ClaimReward pays out a completed course: the full escrow returns to the
// spendable balance plus the course's reward amount, sourced by the caller
// from the catalog. Valid exactly once per enrollment, and only after
// completion; any other state is a benign no-op returning 0.
func (r *ProgressRecord) ClaimReward(courseID string, rewardAmount Tokens, now time.Time) Tokens {
	enrollment := r.Enrollments[courseID]
	if enrollment == nil || !enrollment.Completed || enrollment.RewardClaimed {
		return 0
	}
	if rewardAmount < 0 {
		rewardAmount = 0
	}

	enrollment.RewardClaimed = true
	r.AvailableTokens += enrollment.StakedAmount + rewardAmount
	r.touch(now)
	return rewardAmount
}

// UnlockAchievement records a one-time achievement and credits its XP bonus
// through the usual leveling carry. Idempotent: an already-unlocked
// achievement reports alreadyUnlocked=true and mutates nothing, so the XP
// bonus can never be granted twice. Condition evaluation belongs to the
// caller; the ledger only owns the unlock itself.
func (r *ProgressRecord) UnlockAchievement(achievementID string, xpReward XP, now time.Time) (alreadyUnlocked bool, levelsGained int) {
	if containsString(r.UnlockedAchievementIDs, achievementID) {
		return true, 0
	}

	r.UnlockedAchievementIDs = append(r.UnlockedAchievementIDs, achievementID)
	if xpReward > 0 {
		levelsGained, _ = r.AddXP(xpReward, now)
	} else {
		r.touch(now)
	}
	return false, levelsGained
}

// CreditTokens adds tokens to the spendable balance. Explicit credits are
// the only way the total held can grow.
func (r *ProgressRecord) CreditTokens(amount Tokens, now time.Time) error {
	if amount <= 0 {
		return ErrNonPositiveAmount
	}
	r.AvailableTokens += amount
	r.touch(now)
	return nil
}

func (r *ProgressRecord) touch(now time.Time) {
	r.UpdatedAt = now.UTC()
}

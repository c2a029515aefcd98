package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestRecord(t *testing.T) *ProgressRecord {
	t.Helper()
	record, err := NewProgressRecord("0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B", testNow)
	require.NoError(t, err)
	return record
}

// ─────────────────────────────────────────────────────────────────────────────
// Record creation
// ─────────────────────────────────────────────────────────────────────────────

func TestNewProgressRecord(t *testing.T) {
	t.Run("fresh record gets the signup grant", func(t *testing.T) {
		record := newTestRecord(t)

		assert.Equal(t, Level(1), record.Level)
		assert.Equal(t, XP(0), record.XP)
		assert.Equal(t, SignupGrant, record.AvailableTokens)
		assert.Equal(t, Tokens(0), record.StakedTokens)
		assert.Empty(t, record.CompletedCourseIDs)
		assert.Empty(t, record.UnlockedAchievementIDs)
		assert.Empty(t, record.Enrollments)
	})

	t.Run("rejects invalid wallet addresses", func(t *testing.T) {
		for _, wallet := range []WalletAddress{"", "0x1", "has spaces in it", "tab\there"} {
			_, err := NewProgressRecord(wallet, testNow)
			assert.ErrorIs(t, err, ErrInvalidWalletAddress, "wallet %q", wallet)
		}
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// XP and leveling
// ─────────────────────────────────────────────────────────────────────────────

func TestAddXP(t *testing.T) {
	t.Run("accumulates within a level", func(t *testing.T) {
		record := newTestRecord(t)

		gained, err := record.AddXP(800, testNow)
		require.NoError(t, err)
		assert.Equal(t, 0, gained)
		assert.Equal(t, Level(1), record.Level)
		assert.Equal(t, XP(800), record.XP)
	})

	t.Run("carries overflow into the next level", func(t *testing.T) {
		record := newTestRecord(t)

		_, err := record.AddXP(800, testNow)
		require.NoError(t, err)

		gained, err := record.AddXP(500, testNow)
		require.NoError(t, err)
		assert.Equal(t, 1, gained)
		assert.Equal(t, Level(2), record.Level)
		assert.Equal(t, XP(300), record.XP)
	})

	t.Run("single credit can traverse several levels", func(t *testing.T) {
		record := newTestRecord(t)

		// 3000 XP from level 1: 1000 leaves level 1, 2000 leaves level 2.
		gained, err := record.AddXP(3000, testNow)
		require.NoError(t, err)
		assert.Equal(t, 2, gained)
		assert.Equal(t, Level(3), record.Level)
		assert.Equal(t, XP(0), record.XP)
	})

	t.Run("rejects non-positive amounts without mutating", func(t *testing.T) {
		record := newTestRecord(t)

		for _, amount := range []XP{0, -10} {
			gained, err := record.AddXP(amount, testNow)
			assert.ErrorIs(t, err, ErrNonPositiveAmount)
			assert.Equal(t, 0, gained)
		}
		assert.Equal(t, Level(1), record.Level)
		assert.Equal(t, XP(0), record.XP)
	})
}

func TestLifetimeXP(t *testing.T) {
	record := newTestRecord(t)
	assert.Equal(t, 0, record.LifetimeXP())

	_, err := record.AddXP(1300, testNow)
	require.NoError(t, err)

	// Level 2 with 300 residue: 1000 spent leaving level 1, plus 300.
	assert.Equal(t, Level(2), record.Level)
	assert.Equal(t, 1300, record.LifetimeXP())

	_, err = record.AddXP(2000, testNow)
	require.NoError(t, err)
	assert.Equal(t, 3300, record.LifetimeXP())
}

func TestLevelProgressPercent(t *testing.T) {
	record := newTestRecord(t)

	_, err := record.AddXP(250, testNow)
	require.NoError(t, err)
	assert.InDelta(t, 25.0, record.LevelProgressPercent(), 0.001)

	_, err = record.AddXP(1250, testNow)
	require.NoError(t, err)

	// Level 2 with 500 residue out of a 2000 threshold.
	assert.InDelta(t, 25.0, record.LevelProgressPercent(), 0.001)
}

// ─────────────────────────────────────────────────────────────────────────────
// Pooled staking
// ─────────────────────────────────────────────────────────────────────────────

func TestStake(t *testing.T) {
	t.Run("moves tokens from available to staked", func(t *testing.T) {
		record := newTestRecord(t)
		heldBefore := record.TotalHeld()

		err := record.Stake(60, 7, testNow)
		require.NoError(t, err)
		assert.Equal(t, Tokens(40), record.AvailableTokens)
		assert.Equal(t, Tokens(60), record.StakedTokens)
		assert.Equal(t, testNow.Add(7*24*time.Hour), record.StakingEndTime)
		assert.Equal(t, heldBefore, record.TotalHeld())
	})

	t.Run("repeat stake overwrites the maturity time", func(t *testing.T) {
		record := newTestRecord(t)

		require.NoError(t, record.Stake(30, 30, testNow))
		later := testNow.Add(24 * time.Hour)
		require.NoError(t, record.Stake(20, 7, later))

		assert.Equal(t, Tokens(50), record.StakedTokens)
		assert.Equal(t, later.Add(7*24*time.Hour), record.StakingEndTime)
	})

	t.Run("rejects a stake above the available balance", func(t *testing.T) {
		record := newTestRecord(t)

		err := record.Stake(101, 7, testNow)
		assert.ErrorIs(t, err, ErrInsufficientTokens)
		assert.Equal(t, SignupGrant, record.AvailableTokens)
		assert.Equal(t, Tokens(0), record.StakedTokens)
	})

	t.Run("rejects non-positive inputs", func(t *testing.T) {
		record := newTestRecord(t)

		assert.ErrorIs(t, record.Stake(0, 7, testNow), ErrNonPositiveAmount)
		assert.ErrorIs(t, record.Stake(-5, 7, testNow), ErrNonPositiveAmount)
		assert.ErrorIs(t, record.Stake(10, 0, testNow), ErrNonPositiveDuration)
		assert.ErrorIs(t, record.Stake(10, -7, testNow), ErrNonPositiveDuration)
	})
}

func TestStakeMaturity(t *testing.T) {
	record := newTestRecord(t)
	require.NoError(t, record.Stake(50, 7, testNow))

	assert.False(t, record.StakeMatured(testNow))
	assert.Equal(t, 7*24*time.Hour, record.TimeUntilUnlock(testNow))

	afterMaturity := testNow.Add(7*24*time.Hour + time.Minute)
	assert.True(t, record.StakeMatured(afterMaturity))
	assert.Equal(t, time.Duration(0), record.TimeUntilUnlock(afterMaturity))
}

func TestEstimateStakeReward(t *testing.T) {
	tests := []struct {
		name         string
		amount       Tokens
		durationDays int
		want         Tokens
	}{
		{"7 days at 5%", 100, 7, 5},
		{"14 days at 12%", 100, 14, 12},
		{"30 days at 30%", 100, 30, 30},
		{"floors fractional rewards", 33, 7, 1},
		{"floors to zero on tiny stakes", 10, 7, 0},
		{"unsupported duration", 100, 10, 0},
		{"zero duration", 100, 0, 0},
		{"zero amount", 0, 30, 0},
		{"negative amount", -50, 30, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateStakeReward(tt.amount, tt.durationDays))
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Enrollment and course escrow
// ─────────────────────────────────────────────────────────────────────────────

func TestEnroll(t *testing.T) {
	premium := EnrollmentTerms{Premium: true, StakingRequirement: 50}
	free := EnrollmentTerms{}

	t.Run("premium enrollment escrows the stake", func(t *testing.T) {
		record := newTestRecord(t)

		err := record.Enroll("ethical-hacking", 50, premium, testNow)
		require.NoError(t, err)

		assert.Equal(t, Tokens(50), record.AvailableTokens)
		enrollment := record.EnrollmentFor("ethical-hacking")
		require.NotNil(t, enrollment)
		assert.Equal(t, Tokens(50), enrollment.StakedAmount)
		assert.Equal(t, testNow, enrollment.EnrolledAt)
		assert.False(t, enrollment.Completed)
		assert.False(t, enrollment.RewardClaimed)
	})

	t.Run("free enrollment costs nothing", func(t *testing.T) {
		record := newTestRecord(t)

		err := record.Enroll("intro-cybersec", 0, free, testNow)
		require.NoError(t, err)

		assert.Equal(t, SignupGrant, record.AvailableTokens)
		require.NotNil(t, record.EnrollmentFor("intro-cybersec"))
	})

	t.Run("top-up adds to the escrow and keeps the enrollment time", func(t *testing.T) {
		record := newTestRecord(t)

		require.NoError(t, record.Enroll("ethical-hacking", 50, premium, testNow))
		later := testNow.Add(48 * time.Hour)
		require.NoError(t, record.Enroll("ethical-hacking", 30, premium, later))

		enrollment := record.EnrollmentFor("ethical-hacking")
		require.NotNil(t, enrollment)
		assert.Equal(t, Tokens(80), enrollment.StakedAmount)
		assert.Equal(t, testNow, enrollment.EnrolledAt, "top-up must not reset the enrollment time")
		assert.Equal(t, Tokens(20), record.AvailableTokens)
	})

	t.Run("rejects a premium stake below the requirement", func(t *testing.T) {
		record := newTestRecord(t)

		err := record.Enroll("ethical-hacking", 49, premium, testNow)
		assert.ErrorIs(t, err, ErrStakeBelowRequirement)
		assert.Nil(t, record.EnrollmentFor("ethical-hacking"))
		assert.Equal(t, SignupGrant, record.AvailableTokens)
	})

	t.Run("rejects a stake above the available balance", func(t *testing.T) {
		record := newTestRecord(t)

		err := record.Enroll("smart-contracts", 150, EnrollmentTerms{Premium: true, StakingRequirement: 100}, testNow)
		assert.ErrorIs(t, err, ErrInsufficientTokens)
		assert.Nil(t, record.EnrollmentFor("smart-contracts"))
		assert.Equal(t, SignupGrant, record.AvailableTokens)
	})

	t.Run("rejects negative stake amounts", func(t *testing.T) {
		record := newTestRecord(t)

		err := record.Enroll("intro-cybersec", -1, free, testNow)
		assert.ErrorIs(t, err, ErrNonPositiveAmount)
	})
}

func TestWithdrawCourseStake(t *testing.T) {
	premium := EnrollmentTerms{Premium: true, StakingRequirement: 50}

	t.Run("early withdrawal pays the penalty", func(t *testing.T) {
		record := newTestRecord(t)
		record.AvailableTokens = 100
		require.NoError(t, record.Enroll("ethical-hacking", 100, premium, testNow))

		returned := record.WithdrawCourseStake("ethical-hacking", testNow.Add(24*time.Hour))
		assert.Equal(t, Tokens(80), returned)
		assert.Equal(t, Tokens(80), record.AvailableTokens)
		assert.Nil(t, record.EnrollmentFor("ethical-hacking"))
	})

	t.Run("withdrawal after the window returns everything", func(t *testing.T) {
		record := newTestRecord(t)
		record.AvailableTokens = 100
		require.NoError(t, record.Enroll("ethical-hacking", 100, premium, testNow))

		returned := record.WithdrawCourseStake("ethical-hacking", testNow.Add(8*24*time.Hour))
		assert.Equal(t, Tokens(100), returned)
		assert.Equal(t, Tokens(100), record.AvailableTokens)
	})

	t.Run("exact boundary is no longer early", func(t *testing.T) {
		record := newTestRecord(t)
		require.NoError(t, record.Enroll("ethical-hacking", 100, premium, testNow))

		returned := record.WithdrawCourseStake("ethical-hacking", testNow.Add(MinCourseStakePeriod))
		assert.Equal(t, Tokens(100), returned)
	})

	t.Run("penalty floors toward zero", func(t *testing.T) {
		record := newTestRecord(t)
		require.NoError(t, record.Enroll("cryptography", 99, EnrollmentTerms{Premium: true, StakingRequirement: 75}, testNow))

		// 20% of 99 is 19.8; integer division keeps 19 as the penalty.
		returned := record.WithdrawCourseStake("cryptography", testNow.Add(time.Hour))
		assert.Equal(t, Tokens(80), returned)
	})

	t.Run("missing enrollment is a benign no-op", func(t *testing.T) {
		record := newTestRecord(t)
		heldBefore := record.TotalHeld()

		returned := record.WithdrawCourseStake("never-enrolled", testNow)
		assert.Equal(t, Tokens(0), returned)
		assert.Equal(t, heldBefore, record.TotalHeld())
	})

	t.Run("withdrawal erases completion history with the enrollment", func(t *testing.T) {
		record := newTestRecord(t)
		require.NoError(t, record.Enroll("ethical-hacking", 50, premium, testNow))
		record.CompleteCourse("ethical-hacking", testNow)

		record.WithdrawCourseStake("ethical-hacking", testNow.Add(8*24*time.Hour))
		assert.Nil(t, record.EnrollmentFor("ethical-hacking"))

		// The completed set survives; only the enrollment state is gone.
		assert.True(t, record.HasCompletedCourse("ethical-hacking"))
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Completion and rewards
// ─────────────────────────────────────────────────────────────────────────────

func TestCompleteCourse(t *testing.T) {
	t.Run("marks the enrollment and records the course once", func(t *testing.T) {
		record := newTestRecord(t)
		require.NoError(t, record.Enroll("intro-cybersec", 0, EnrollmentTerms{}, testNow))

		record.CompleteCourse("intro-cybersec", testNow)
		record.CompleteCourse("intro-cybersec", testNow)

		assert.True(t, record.EnrollmentFor("intro-cybersec").Completed)
		assert.Equal(t, []string{"intro-cybersec"}, record.CompletedCourseIDs)
	})

	t.Run("grants no XP or tokens by itself", func(t *testing.T) {
		record := newTestRecord(t)
		require.NoError(t, record.Enroll("intro-cybersec", 0, EnrollmentTerms{}, testNow))
		heldBefore := record.TotalHeld()

		record.CompleteCourse("intro-cybersec", testNow)
		assert.Equal(t, XP(0), record.XP)
		assert.Equal(t, heldBefore, record.TotalHeld())
	})

	t.Run("missing enrollment is a benign no-op", func(t *testing.T) {
		record := newTestRecord(t)

		record.CompleteCourse("never-enrolled", testNow)
		assert.Empty(t, record.CompletedCourseIDs)
	})
}

func TestClaimReward(t *testing.T) {
	premium := EnrollmentTerms{Premium: true, StakingRequirement: 50}

	t.Run("pays escrow plus reward exactly once", func(t *testing.T) {
		record := newTestRecord(t)
		require.NoError(t, record.Enroll("ethical-hacking", 50, premium, testNow))
		record.CompleteCourse("ethical-hacking", testNow)

		paid := record.ClaimReward("ethical-hacking", 100, testNow)
		assert.Equal(t, Tokens(100), paid)
		assert.Equal(t, Tokens(200), record.AvailableTokens)
		assert.True(t, record.EnrollmentFor("ethical-hacking").RewardClaimed)

		paid = record.ClaimReward("ethical-hacking", 100, testNow)
		assert.Equal(t, Tokens(0), paid)
		assert.Equal(t, Tokens(200), record.AvailableTokens)
	})

	t.Run("refuses before completion", func(t *testing.T) {
		record := newTestRecord(t)
		require.NoError(t, record.Enroll("ethical-hacking", 50, premium, testNow))

		paid := record.ClaimReward("ethical-hacking", 100, testNow)
		assert.Equal(t, Tokens(0), paid)
		assert.Equal(t, Tokens(50), record.AvailableTokens)
		assert.False(t, record.EnrollmentFor("ethical-hacking").RewardClaimed)
	})

	t.Run("missing enrollment is a benign no-op", func(t *testing.T) {
		record := newTestRecord(t)

		paid := record.ClaimReward("never-enrolled", 100, testNow)
		assert.Equal(t, Tokens(0), paid)
		assert.Equal(t, SignupGrant, record.AvailableTokens)
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Achievements
// ─────────────────────────────────────────────────────────────────────────────

func TestUnlockAchievement(t *testing.T) {
	t.Run("first unlock credits the XP bonus", func(t *testing.T) {
		record := newTestRecord(t)

		already, gained := record.UnlockAchievement("first-login", 50, testNow)
		assert.False(t, already)
		assert.Equal(t, 0, gained)
		assert.Equal(t, XP(50), record.XP)
		assert.True(t, record.HasAchievement("first-login"))
	})

	t.Run("repeat unlock is idempotent", func(t *testing.T) {
		record := newTestRecord(t)

		record.UnlockAchievement("first-login", 50, testNow)
		already, gained := record.UnlockAchievement("first-login", 50, testNow)

		assert.True(t, already)
		assert.Equal(t, 0, gained)
		assert.Equal(t, XP(50), record.XP)
		assert.Len(t, record.UnlockedAchievementIDs, 1)
	})

	t.Run("bonus carries level-ups", func(t *testing.T) {
		record := newTestRecord(t)
		_, err := record.AddXP(900, testNow)
		require.NoError(t, err)

		already, gained := record.UnlockAchievement("security-expert", 500, testNow)
		assert.False(t, already)
		assert.Equal(t, 1, gained)
		assert.Equal(t, Level(2), record.Level)
		assert.Equal(t, XP(400), record.XP)
	})

	t.Run("zero bonus unlocks without touching XP", func(t *testing.T) {
		record := newTestRecord(t)

		already, gained := record.UnlockAchievement("cosmetic", 0, testNow)
		assert.False(t, already)
		assert.Equal(t, 0, gained)
		assert.Equal(t, XP(0), record.XP)
		assert.True(t, record.HasAchievement("cosmetic"))
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Conservation and cloning
// ─────────────────────────────────────────────────────────────────────────────

func TestTokenConservation(t *testing.T) {
	record := newTestRecord(t)
	premium := EnrollmentTerms{Premium: true, StakingRequirement: 50}

	// Stake and enroll only move tokens between buckets.
	require.NoError(t, record.Stake(20, 7, testNow))
	require.NoError(t, record.Enroll("ethical-hacking", 50, premium, testNow))
	assert.Equal(t, SignupGrant, record.TotalHeld())

	// A late withdrawal conserves, an early one destroys exactly the penalty.
	record.CompleteCourse("ethical-hacking", testNow)
	require.NoError(t, record.Enroll("cryptography", 25, EnrollmentTerms{}, testNow))
	returned := record.WithdrawCourseStake("cryptography", testNow.Add(time.Hour))
	assert.Equal(t, Tokens(20), returned)
	assert.Equal(t, SignupGrant-5, record.TotalHeld())

	// Claiming mints: the reward amount enters from outside.
	record.ClaimReward("ethical-hacking", 100, testNow)
	assert.Equal(t, SignupGrant-5+100, record.TotalHeld())
}

func TestClone(t *testing.T) {
	record := newTestRecord(t)
	require.NoError(t, record.Enroll("ethical-hacking", 50, EnrollmentTerms{Premium: true, StakingRequirement: 50}, testNow))
	record.UnlockAchievement("first-login", 50, testNow)

	clone := record.Clone()
	clone.AvailableTokens = 9999
	clone.EnrollmentFor("ethical-hacking").StakedAmount = 1
	clone.UnlockedAchievementIDs[0] = "mutated"
	clone.CompletedCourseIDs = append(clone.CompletedCourseIDs, "extra")

	assert.Equal(t, Tokens(50), record.AvailableTokens)
	assert.Equal(t, Tokens(50), record.EnrollmentFor("ethical-hacking").StakedAmount)
	assert.Equal(t, []string{"first-login"}, record.UnlockedAchievementIDs)
	assert.Empty(t, record.CompletedCourseIDs)
}

package saga

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viditkulsh/CyberTrek/internal/domain/catalog"
	"github.com/viditkulsh/CyberTrek/internal/domain/progress"
	"github.com/viditkulsh/CyberTrek/pkg/logger"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newFlow() *AchievementFlow {
	log := logger.New(logger.Options{Output: io.Discard, Level: logger.LevelError})
	return NewAchievementFlow(catalog.NewBuiltinRepository(), log)
}

func newRecord(t *testing.T) *progress.ProgressRecord {
	t.Helper()
	record, err := progress.NewProgressRecord("0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B", testNow)
	require.NoError(t, err)
	return record
}

func TestSignupTrigger(t *testing.T) {
	flow := newFlow()
	record := newRecord(t)

	result, err := flow.Check(context.Background(), CheckInput{
		Record: record, Trigger: TriggerSignup, Timestamp: testNow,
	})
	require.NoError(t, err)

	require.Len(t, result.Unlocks, 1)
	assert.Equal(t, catalog.AchievementFirstLogin, result.Unlocks[0].Achievement.ID)
	assert.Equal(t, 50, result.TotalXPBonus)
	assert.Equal(t, progress.XP(50), record.XP)

	// Re-running the check unlocks nothing more.
	again, err := flow.Check(context.Background(), CheckInput{
		Record: record, Trigger: TriggerSignup, Timestamp: testNow,
	})
	require.NoError(t, err)
	assert.False(t, again.HasUnlocks())
	assert.Equal(t, progress.XP(50), record.XP)
}

func TestStakeTrigger(t *testing.T) {
	flow := newFlow()

	t.Run("first stake unlocks", func(t *testing.T) {
		record := newRecord(t)
		result, err := flow.Check(context.Background(), CheckInput{
			Record: record, Trigger: TriggerStake, FirstStake: true, Timestamp: testNow,
		})
		require.NoError(t, err)
		require.Len(t, result.Unlocks, 1)
		assert.Equal(t, catalog.AchievementFirstStake, result.Unlocks[0].Achievement.ID)
	})

	t.Run("later stakes do not", func(t *testing.T) {
		record := newRecord(t)
		result, err := flow.Check(context.Background(), CheckInput{
			Record: record, Trigger: TriggerStake, FirstStake: false, Timestamp: testNow,
		})
		require.NoError(t, err)
		assert.False(t, result.HasUnlocks())
	})
}

func TestCourseCompletedTrigger(t *testing.T) {
	flow := newFlow()

	complete := func(record *progress.ProgressRecord, courseID string) {
		_ = record.Enroll(courseID, 0, progress.EnrollmentTerms{}, testNow)
		record.CompleteCourse(courseID, testNow)
	}

	t.Run("first completed course unlocks first-course", func(t *testing.T) {
		record := newRecord(t)
		complete(record, "blockchain-101")

		result, err := flow.Check(context.Background(), CheckInput{
			Record: record, Trigger: TriggerCourseCompleted, CourseID: "blockchain-101", Timestamp: testNow,
		})
		require.NoError(t, err)
		require.Len(t, result.Unlocks, 1)
		assert.Equal(t, catalog.AchievementFirstCourse, result.Unlocks[0].Achievement.ID)
	})

	t.Run("category mastery unlocks with the last course of the category", func(t *testing.T) {
		record := newRecord(t)
		complete(record, "blockchain-101")
		_, _ = flow.Check(context.Background(), CheckInput{
			Record: record, Trigger: TriggerCourseCompleted, CourseID: "blockchain-101", Timestamp: testNow,
		})

		complete(record, "smart-contracts")
		result, err := flow.Check(context.Background(), CheckInput{
			Record: record, Trigger: TriggerCourseCompleted, CourseID: "smart-contracts", Timestamp: testNow,
		})
		require.NoError(t, err)

		assert.True(t, record.HasAchievement(catalog.AchievementBlockchainMaster))
		require.Len(t, result.Unlocks, 1)
		assert.Equal(t, catalog.AchievementBlockchainMaster, result.Unlocks[0].Achievement.ID)
	})

	t.Run("perfect cryptography run stacks with mastery", func(t *testing.T) {
		record := newRecord(t)
		complete(record, "cryptography")

		result, err := flow.Check(context.Background(), CheckInput{
			Record:       record,
			Trigger:      TriggerCourseCompleted,
			CourseID:     "cryptography",
			PerfectScore: true,
			Timestamp:    testNow,
		})
		require.NoError(t, err)

		ids := make([]string, len(result.Unlocks))
		for i, u := range result.Unlocks {
			ids[i] = u.Achievement.ID
		}
		assert.Contains(t, ids, catalog.AchievementFirstCourse)
		assert.Contains(t, ids, catalog.AchievementCryptoWizard)
	})

	t.Run("imperfect cryptography run skips crypto-wizard", func(t *testing.T) {
		record := newRecord(t)
		complete(record, "cryptography")

		result, err := flow.Check(context.Background(), CheckInput{
			Record: record, Trigger: TriggerCourseCompleted, CourseID: "cryptography", Timestamp: testNow,
		})
		require.NoError(t, err)

		assert.False(t, record.HasAchievement(catalog.AchievementCryptoWizard))
		assert.True(t, result.HasUnlocks())
	})

	t.Run("missing course id is rejected", func(t *testing.T) {
		record := newRecord(t)
		_, err := flow.Check(context.Background(), CheckInput{
			Record: record, Trigger: TriggerCourseCompleted, Timestamp: testNow,
		})
		assert.Error(t, err)
	})
}

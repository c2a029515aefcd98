// Package progress contains the progression ledger domain model: one
// ProgressRecord per wallet, owning XP/level accounting, the QUEST token
// economy, course enrollments and achievement unlocks. This is the core of
// the business logic - there are no external dependencies here.
package progress

import (
	"fmt"
	"strings"
	"time"

	"github.com/viditkulsh/CyberTrek/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// WalletAddress identifies a user by their connected wallet. It is the unique
// key of a ProgressRecord and immutable after creation. The identity layer is
// responsible for checksum validation; the ledger trusts the string verbatim.
type WalletAddress string

// IsValid checks that the address is plausible as a record key.
func (w WalletAddress) IsValid() bool {
	s := string(w)
	return len(s) >= 4 && len(s) <= 128 && !strings.ContainsAny(s, " \t\n\r")
}

// String returns the string representation of the address.
func (w WalletAddress) String() string {
	return string(w)
}

// XP represents experience points. Within a record it is always the residue
// after level-ups have been carried out, so 0 <= XP < level threshold.
type XP int

// IsValid checks that the XP value is non-negative.
func (x XP) IsValid() bool {
	return x >= 0
}

// Level represents a user level. Levels start at 1 and only ever increase.
type Level int

// IsValid checks that the level is at least 1.
func (l Level) IsValid() bool {
	return l >= 1
}

// Threshold returns the XP needed to leave this level: level * 1000.
func (l Level) Threshold() XP {
	return XP(l) * 1000
}

// Tokens represents an amount of QUEST tokens. Token amounts are whole
// numbers; all penalty and reward arithmetic floors toward zero.
type Tokens int

// IsValid checks that the token amount is non-negative.
func (t Tokens) IsValid() bool {
	return t >= 0
}

// ══════════════════════════════════════════════════════════════════════════════
// ECONOMY CONSTANTS
// ══════════════════════════════════════════════════════════════════════════════

const (
	// SignupGrant is credited once, when a record is created.
	SignupGrant Tokens = 100

	// EarlyWithdrawalFeePercent is charged on course stakes withdrawn before
	// MinCourseStakePeriod has elapsed.
	EarlyWithdrawalFeePercent = 20

	// MinCourseStakePeriod is the fixed penalty window for course stakes.
	// It applies regardless of the course's own advertised staking period.
	MinCourseStakePeriod = 7 * 24 * time.Hour
)

// stakeRewardRates maps an exact staking duration in days to its reward rate.
// Any other duration earns nothing.
var stakeRewardRates = map[int]float64{
	7:  0.05,
	14: 0.12,
	30: 0.30,
}

// ══════════════════════════════════════════════════════════════════════════════
// ENROLLMENT
// ══════════════════════════════════════════════════════════════════════════════

// Enrollment is a user's association with a course, possibly backed by an
// escrowed token stake. It is owned by, and embedded in, a ProgressRecord.
type Enrollment struct {
	// CourseID identifies the course in the catalog.
	CourseID string `json:"course_id"`

	// StakedAmount is the escrow backing this course's premium gate.
	StakedAmount Tokens `json:"staked_amount"`

	// EnrolledAt is when the enrollment was created. Top-ups do not reset it.
	EnrolledAt time.Time `json:"enrolled_at"`

	// Completed is set once all modules of the course are passed.
	Completed bool `json:"completed"`

	// RewardClaimed can only become true once, and only after Completed.
	RewardClaimed bool `json:"reward_claimed"`
}

// EnrollmentTerms carries the catalog facts the ledger needs to admit an
// enrollment. The caller resolves them from the course catalog.
type EnrollmentTerms struct {
	// Premium indicates the course requires a minimum stake.
	Premium bool

	// StakingRequirement is the minimum stake for premium courses.
	StakingRequirement Tokens
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: PROGRESS RECORD
// ══════════════════════════════════════════════════════════════════════════════

// ProgressRecord is the central entity of the system: the complete gamified
// progress of a single wallet. It is mutated only through the ledger
// operations defined in this package.
type ProgressRecord struct {
	// WalletAddress is the unique key, immutable after creation.
	WalletAddress WalletAddress

	// XP is the residual experience within the current level.
	XP XP

	// Level is the current level, starting at 1.
	Level Level

	// AvailableTokens is the spendable QUEST balance.
	AvailableTokens Tokens

	// StakedTokens is the pooled global stake (not course escrow).
	StakedTokens Tokens

	// StakingEndTime is when the pooled stake matures. Zero when nothing is
	// staked. A repeat Stake call overwrites it (last write wins).
	StakingEndTime time.Time

	// CompletedCourseIDs lists courses completed at least once, in
	// completion order, each at most once.
	CompletedCourseIDs []string

	// UnlockedAchievementIDs lists unlocked achievements, each at most once.
	UnlockedAchievementIDs []string

	// Enrollments maps courseID to the enrollment for that course.
	Enrollments map[string]*Enrollment

	// CreatedAt is when the record was created.
	CreatedAt time.Time

	// UpdatedAt is when the record was last mutated.
	UpdatedAt time.Time
}

// NewProgressRecord creates the record for a wallet seen for the first time:
// level 1, no XP, and the signup grant as the opening balance.
func NewProgressRecord(wallet WalletAddress, now time.Time) (*ProgressRecord, error) {
	if !wallet.IsValid() {
		return nil, ErrInvalidWalletAddress
	}

	now = now.UTC()

	return &ProgressRecord{
		WalletAddress:          wallet,
		XP:                     0,
		Level:                  1,
		AvailableTokens:        SignupGrant,
		StakedTokens:           0,
		StakingEndTime:         time.Time{},
		CompletedCourseIDs:     []string{},
		UnlockedAchievementIDs: []string{},
		Enrollments:            make(map[string]*Enrollment),
		CreatedAt:              now,
		UpdatedAt:              now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidWalletAddress - the wallet address cannot key a record.
	ErrInvalidWalletAddress = shared.NewDomainError("progress", "Validate", shared.ErrInvalidFormat, "invalid wallet address")

	// ErrNonPositiveAmount - an amount that must be positive was not.
	ErrNonPositiveAmount = shared.NewDomainError("progress", "Validate", shared.ErrInvalidArgument, "amount must be positive")

	// ErrNonPositiveDuration - a duration in days that must be positive was not.
	ErrNonPositiveDuration = shared.NewDomainError("progress", "Validate", shared.ErrInvalidArgument, "duration must be positive")

	// ErrInsufficientTokens - the requested debit exceeds the available balance.
	ErrInsufficientTokens = shared.NewDomainError("progress", "Debit", shared.ErrInsufficientFunds, "not enough QUEST tokens")

	// ErrStakeBelowRequirement - a premium enrollment below the course's threshold.
	ErrStakeBelowRequirement = shared.NewDomainError("progress", "Enroll", shared.ErrInsufficientStake, "stake below course requirement")

	// ErrRecordNotFound - no progress record exists for the wallet.
	ErrRecordNotFound = shared.NewDomainError("progress", "Find", shared.ErrNotFound, "progress record not found")

	// ErrRecordAlreadyExists - a record already exists for the wallet.
	ErrRecordAlreadyExists = shared.NewDomainError("progress", "Create", shared.ErrAlreadyExists, "progress record already exists")
)

// ══════════════════════════════════════════════════════════════════════════════
// DERIVED READS
// ══════════════════════════════════════════════════════════════════════════════

// LevelProgressPercent reports how far through the current level the record
// is, as a percentage for display. Recomputed, never stored.
func (r *ProgressRecord) LevelProgressPercent() float64 {
	threshold := r.Level.Threshold()
	if threshold <= 0 {
		return 0
	}
	return float64(r.XP) / float64(threshold) * 100
}

// LifetimeXP returns the total XP ever earned: the sum of every traversed
// level's threshold plus the current residue. Used for leaderboard ranking.
func (r *ProgressRecord) LifetimeXP() int {
	levels := int(r.Level) - 1
	return 1000*levels*(levels+1)/2 + int(r.XP)
}

// StakeMatured reports whether the pooled stake has passed its maturity time.
func (r *ProgressRecord) StakeMatured(now time.Time) bool {
	return r.StakedTokens > 0 && !now.Before(r.StakingEndTime)
}

// TimeUntilUnlock returns how long until the pooled stake matures, or zero
// if nothing is staked or maturity has passed. Evaluated lazily against the
// supplied clock; nothing in the ledger runs on a timer.
func (r *ProgressRecord) TimeUntilUnlock(now time.Time) time.Duration {
	if r.StakedTokens == 0 || !now.Before(r.StakingEndTime) {
		return 0
	}
	return r.StakingEndTime.Sub(now)
}

// EnrollmentFor returns the enrollment for a course, or nil.
func (r *ProgressRecord) EnrollmentFor(courseID string) *Enrollment {
	return r.Enrollments[courseID]
}

// HasCompletedCourse reports whether the course appears in the completed set.
func (r *ProgressRecord) HasCompletedCourse(courseID string) bool {
	return containsString(r.CompletedCourseIDs, courseID)
}

// HasAchievement reports whether the achievement is already unlocked.
func (r *ProgressRecord) HasAchievement(achievementID string) bool {
	return containsString(r.UnlockedAchievementIDs, achievementID)
}

// TotalEscrowed returns the sum of all course enrollment stakes.
func (r *ProgressRecord) TotalEscrowed() Tokens {
	var total Tokens
	for _, e := range r.Enrollments {
		total += e.StakedAmount
	}
	return total
}

// TotalHeld returns every token the record accounts for: spendable balance,
// pooled stake and course escrow. Conservation checks compare this value
// before and after operations.
func (r *ProgressRecord) TotalHeld() Tokens {
	return r.AvailableTokens + r.StakedTokens + r.TotalEscrowed()
}

// String returns a compact representation for logging.
func (r *ProgressRecord) String() string {
	return fmt.Sprintf(
		"ProgressRecord{Wallet: %s, Level: %d, XP: %d, Available: %d, Staked: %d, Enrollments: %d}",
		r.WalletAddress, r.Level, r.XP, r.AvailableTokens, r.StakedTokens, len(r.Enrollments),
	)
}

// Clone creates a deep copy of the record. Commands mutate a clone and only
// publish it back once persistence succeeds, which keeps every operation
// all-or-nothing.
func (r *ProgressRecord) Clone() *ProgressRecord {
	if r == nil {
		return nil
	}

	clone := *r
	clone.CompletedCourseIDs = append([]string(nil), r.CompletedCourseIDs...)
	clone.UnlockedAchievementIDs = append([]string(nil), r.UnlockedAchievementIDs...)
	clone.Enrollments = make(map[string]*Enrollment, len(r.Enrollments))
	for id, e := range r.Enrollments {
		ec := *e
		clone.Enrollments[id] = &ec
	}
	return &clone
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

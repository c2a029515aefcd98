package catalog

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENTS
// ══════════════════════════════════════════════════════════════════════════════

// AchievementCategory classifies what an achievement rewards.
type AchievementCategory string

const (
	AchievementGeneral       AchievementCategory = "general"
	AchievementLearning      AchievementCategory = "learning"
	AchievementStaking       AchievementCategory = "staking"
	AchievementCybersecurity AchievementCategory = "cybersecurity"
	AchievementBlockchain    AchievementCategory = "blockchain"
	AchievementCryptography  AchievementCategory = "cryptography"
)

// Achievement is an achievement definition. Unlock conditions are evaluated
// by the achievement flow; the definition carries the identity and the bonus.
type Achievement struct {
	// ID is the catalog key, e.g. "first-login".
	ID string `json:"id"`

	// Title is the display title.
	Title string `json:"title"`

	// Description explains how to earn it.
	Description string `json:"description"`

	// XPReward is the XP bonus credited on unlock.
	XPReward int `json:"xp_reward"`

	// Category classifies the achievement.
	Category AchievementCategory `json:"category"`

	// Difficulty is the rarity tier, 1 (common) to 4 (legendary).
	Difficulty int `json:"difficulty"`

	// Active achievements are eligible for unlocking. Retired ones stay in
	// the catalog so already-unlocked records keep resolving.
	Active bool `json:"active"`

	// MasteryCategory, when set, makes this a mastery achievement: it
	// unlocks once every course in that category is completed.
	MasteryCategory Category `json:"mastery_category,omitempty"`
}

// IsMastery reports whether the achievement is a category mastery award.
func (a *Achievement) IsMastery() bool {
	return a.MasteryCategory != ""
}

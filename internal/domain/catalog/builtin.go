package catalog

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// BUILT-IN CATALOG
// The shipped CyberTrek content. Data only; nothing here is per-wallet.
// ══════════════════════════════════════════════════════════════════════════════

// BuiltinCourses returns the shipped course definitions, in catalog order.
func BuiltinCourses() []*Course {
	return []*Course{
		{
			ID:           "intro-cybersec",
			Title:        "Introduction to Cybersecurity",
			Description:  "Learn the fundamentals of cybersecurity and basic threat models",
			Difficulty:   DifficultyBeginner,
			Duration:     "2 hours",
			Category:     CategoryCybersecurity,
			Premium:      false,
			RewardAmount: 50,
			Modules: []Module{
				{
					ID:          "cybersec-basics",
					Title:       "Cybersecurity Basics",
					Description: "Understanding the core concepts of cybersecurity",
					Content:     "Cybersecurity is the practice of protecting systems, networks, and programs from digital attacks...",
					QuizQuestions: []QuizQuestion{
						{
							ID:       "q1",
							Question: "What is the primary goal of cybersecurity?",
							Options: []string{
								"To make computers faster",
								"To protect systems from unauthorized access",
								"To develop new software",
								"To increase internet speed",
							},
							CorrectAnswer: 1,
						},
					},
				},
			},
		},
		{
			ID:                   "ethical-hacking",
			Title:                "Ethical Hacking Basics",
			Description:          "Discover the tools and techniques used by ethical hackers",
			Difficulty:           DifficultyIntermediate,
			Duration:             "4 hours",
			Category:             CategoryCybersecurity,
			Premium:              true,
			StakingRequirement:   50,
			RewardAmount:         100,
			MinStakingPeriodDays: 7,
			Modules: []Module{
				{
					ID:          "ethical-intro",
					Title:       "Introduction to Ethical Hacking",
					Description: "Understanding the role and responsibilities of ethical hackers",
					Content:     "Ethical hacking involves identifying weaknesses in computer systems and networks...",
					QuizQuestions: []QuizQuestion{
						{
							ID:       "q1",
							Question: "What distinguishes ethical hackers from malicious hackers?",
							Options: []string{
								"Ethical hackers use different tools",
								"Ethical hackers have permission to test systems",
								"Ethical hackers only work at night",
								"Ethical hackers are faster",
							},
							CorrectAnswer: 1,
						},
					},
				},
			},
		},
		{
			ID:           "blockchain-101",
			Title:        "Blockchain Fundamentals",
			Description:  "Understand the core concepts behind blockchain technology",
			Difficulty:   DifficultyBeginner,
			Duration:     "3 hours",
			Category:     CategoryBlockchain,
			Premium:      false,
			RewardAmount: 50,
			Modules: []Module{
				{
					ID:          "blockchain-intro",
					Title:       "Introduction to Blockchain",
					Description: "Understanding the basics of blockchain technology",
					Content:     "A blockchain is a distributed ledger that records transactions across many computers...",
					QuizQuestions: []QuizQuestion{
						{
							ID:       "q1",
							Question: "What is a key feature of blockchain technology?",
							Options: []string{
								"Centralized control",
								"Fast transaction processing",
								"Immutable record-keeping",
								"Low energy consumption",
							},
							CorrectAnswer: 2,
						},
					},
				},
			},
		},
		{
			ID:                   "smart-contracts",
			Title:                "Smart Contract Development",
			Description:          "Learn to write and audit secure smart contracts",
			Difficulty:           DifficultyAdvanced,
			Duration:             "6 hours",
			Category:             CategoryBlockchain,
			Premium:              true,
			StakingRequirement:   100,
			RewardAmount:         200,
			MinStakingPeriodDays: 14,
			Modules: []Module{
				{
					ID:          "smart-intro",
					Title:       "Introduction to Smart Contracts",
					Description: "Understanding what smart contracts are and how they work",
					Content:     "Smart contracts are self-executing contracts with the terms directly written into code...",
					QuizQuestions: []QuizQuestion{
						{
							ID:       "q1",
							Question: "What language is commonly used to write Ethereum smart contracts?",
							Options:       []string{"JavaScript", "Python", "Solidity", "C++"},
							CorrectAnswer: 2,
						},
					},
				},
			},
		},
		{
			ID:                   "cryptography",
			Title:                "Applied Cryptography",
			Description:          "Master the principles of modern cryptographic systems",
			Difficulty:           DifficultyIntermediate,
			Duration:             "5 hours",
			Category:             CategoryCryptography,
			Premium:              true,
			StakingRequirement:   75,
			RewardAmount:         150,
			MinStakingPeriodDays: 10,
			Modules: []Module{
				{
					ID:          "crypto-intro",
					Title:       "Introduction to Cryptography",
					Description: "Understanding the basics of encryption and decryption",
					Content:     "Cryptography is the practice of secure communication in the presence of adversaries...",
					QuizQuestions: []QuizQuestion{
						{
							ID:       "q1",
							Question: "What is the difference between symmetric and asymmetric encryption?",
							Options: []string{
								"Symmetric uses one key, asymmetric uses two keys",
								"Symmetric is faster, asymmetric is slower",
								"Symmetric is newer, asymmetric is older",
								"There is no difference",
							},
							CorrectAnswer: 0,
						},
					},
				},
			},
		},
	}
}

// Achievement IDs referenced by the achievement flow.
const (
	AchievementFirstLogin       = "first-login"
	AchievementFirstCourse      = "first-course"
	AchievementFirstStake       = "first-stake"
	AchievementSecurityExpert   = "security-expert"
	AchievementBlockchainMaster = "blockchain-master"
	AchievementCryptoWizard     = "crypto-wizard"

	// CryptoWizardCourseID is the course whose perfect completion unlocks
	// the crypto-wizard achievement.
	CryptoWizardCourseID = "cryptography"
)

// BuiltinAchievements returns the shipped achievement definitions.
func BuiltinAchievements() []*Achievement {
	return []*Achievement{
		{
			ID:          AchievementFirstLogin,
			Title:       "Digital Initiate",
			Description: "Log in to CyberTrek for the first time",
			XPReward:    50,
			Category:    AchievementGeneral,
			Difficulty:  1,
			Active:      true,
		},
		{
			ID:          AchievementFirstCourse,
			Title:       "Knowledge Seeker",
			Description: "Complete your first course",
			XPReward:    100,
			Category:    AchievementLearning,
			Difficulty:  1,
			Active:      true,
		},
		{
			ID:          AchievementFirstStake,
			Title:       "Token Staker",
			Description: "Stake QUEST tokens for the first time",
			XPReward:    150,
			Category:    AchievementStaking,
			Difficulty:  2,
			Active:      true,
		},
		{
			ID:              AchievementSecurityExpert,
			Title:           "Security Expert",
			Description:     "Complete all cybersecurity courses",
			XPReward:        500,
			Category:        AchievementCybersecurity,
			Difficulty:      4,
			Active:          true,
			MasteryCategory: CategoryCybersecurity,
		},
		{
			ID:              AchievementBlockchainMaster,
			Title:           "Blockchain Master",
			Description:     "Complete all blockchain courses",
			XPReward:        500,
			Category:        AchievementBlockchain,
			Difficulty:      4,
			Active:          true,
			MasteryCategory: CategoryBlockchain,
		},
		{
			ID:          AchievementCryptoWizard,
			Title:       "Crypto Wizard",
			Description: "Complete the Applied Cryptography course with a perfect score",
			XPReward:    300,
			Category:    AchievementCryptography,
			Difficulty:  3,
			Active:      true,
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// BUILT-IN REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// BuiltinRepository serves the shipped catalog from memory. It is immutable
// after construction and safe for concurrent use.
type BuiltinRepository struct {
	courses      []*Course
	coursesByID  map[string]*Course
	achievements []*Achievement
	achByID      map[string]*Achievement
}

// NewBuiltinRepository builds a repository over the shipped content.
func NewBuiltinRepository() *BuiltinRepository {
	courses := BuiltinCourses()
	achievements := BuiltinAchievements()

	r := &BuiltinRepository{
		courses:      courses,
		coursesByID:  make(map[string]*Course, len(courses)),
		achievements: achievements,
		achByID:      make(map[string]*Achievement, len(achievements)),
	}
	for _, c := range courses {
		r.coursesByID[c.ID] = c
	}
	for _, a := range achievements {
		r.achByID[a.ID] = a
	}
	return r
}

// GetCourse implements Repository.
func (r *BuiltinRepository) GetCourse(_ context.Context, courseID string) (*Course, error) {
	course, ok := r.coursesByID[courseID]
	if !ok {
		return nil, ErrCourseNotFound
	}
	return course, nil
}

// ListCourses implements Repository.
func (r *BuiltinRepository) ListCourses(_ context.Context) ([]*Course, error) {
	return r.courses, nil
}

// CoursesByCategory implements Repository.
func (r *BuiltinRepository) CoursesByCategory(_ context.Context, category Category) ([]*Course, error) {
	var out []*Course
	for _, c := range r.courses {
		if c.Category == category {
			out = append(out, c)
		}
	}
	return out, nil
}

// GetAchievement implements Repository.
func (r *BuiltinRepository) GetAchievement(_ context.Context, achievementID string) (*Achievement, error) {
	a, ok := r.achByID[achievementID]
	if !ok {
		return nil, ErrAchievementNotFound
	}
	return a, nil
}

// ListAchievements implements Repository.
func (r *BuiltinRepository) ListAchievements(_ context.Context) ([]*Achievement, error) {
	return r.achievements, nil
}

package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE PROGRESS RECORDS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create progress_records table
-- Version: 001

CREATE TABLE IF NOT EXISTS progress_records (
    wallet_address VARCHAR(128) PRIMARY KEY,
    xp INTEGER NOT NULL DEFAULT 0,
    level INTEGER NOT NULL DEFAULT 1,
    available_tokens INTEGER NOT NULL DEFAULT 0,
    staked_tokens INTEGER NOT NULL DEFAULT 0,
    staking_end_time TIMESTAMP WITH TIME ZONE,
    completed_course_ids JSONB NOT NULL DEFAULT '[]'::jsonb,
    unlocked_achievement_ids JSONB NOT NULL DEFAULT '[]'::jsonb,
    enrollments JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_xp CHECK (xp >= 0),
    CONSTRAINT valid_level CHECK (level >= 1),
    CONSTRAINT valid_available_tokens CHECK (available_tokens >= 0),
    CONSTRAINT valid_staked_tokens CHECK (staked_tokens >= 0)
);

-- Lifetime XP is derived from (level, xp); the leaderboard rebuild sorts on
-- both, so index them together.
CREATE INDEX IF NOT EXISTS idx_progress_level_xp ON progress_records(level DESC, xp DESC);
CREATE INDEX IF NOT EXISTS idx_progress_updated_at ON progress_records(updated_at);
`

const migration001Down = `
DROP TABLE IF EXISTS progress_records;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE MODULE RESULTS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create module_results table
-- Version: 002

CREATE TABLE IF NOT EXISTS module_results (
    wallet_address VARCHAR(128) NOT NULL,
    course_id VARCHAR(100) NOT NULL,
    module_id VARCHAR(100) NOT NULL,
    correct INTEGER NOT NULL DEFAULT 0,
    total INTEGER NOT NULL DEFAULT 0,
    passed BOOLEAN NOT NULL DEFAULT FALSE,
    perfect BOOLEAN NOT NULL DEFAULT FALSE,
    completed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (wallet_address, course_id, module_id),

    CONSTRAINT valid_correct CHECK (correct >= 0 AND correct <= total)
);

CREATE INDEX IF NOT EXISTS idx_module_results_course ON module_results(wallet_address, course_id);
`

const migration002Down = `
DROP TABLE IF EXISTS module_results;
`

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_progress_records",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_module_results",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
	}
}

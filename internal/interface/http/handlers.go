package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/viditkulsh/CyberTrek/internal/application/command"
	"github.com/viditkulsh/CyberTrek/internal/application/query"
	"github.com/viditkulsh/CyberTrek/internal/application/saga"
	"github.com/viditkulsh/CyberTrek/internal/domain/catalog"
	"github.com/viditkulsh/CyberTrek/internal/domain/progress"
	"github.com/viditkulsh/CyberTrek/internal/infrastructure/identity"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROOT / HEALTH
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"name":    "CyberTrek API",
		"version": "v1",
		"endpoints": map[string]string{
			"health":      "/healthz",
			"auth":        "/api/auth/challenge",
			"courses":     "/api/courses",
			"leaderboard": "/api/leaderboard",
		},
	})
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"uptime": s.Uptime().String(),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTH
// ══════════════════════════════════════════════════════════════════════════════

type authChallengeRequest struct {
	Wallet string `json:"wallet"`
}

// handleAuthChallenge issues a nonce for the wallet to sign.
func (s *Server) handleAuthChallenge(w http.ResponseWriter, r *http.Request) {
	var req authChallengeRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	wallet, err := identity.ValidateAddress(req.Wallet)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	challenge := s.deps.Challenges.Issue(wallet)
	writeJSON(w, r, http.StatusOK, challenge)
}

type authVerifyRequest struct {
	Wallet    string `json:"wallet"`
	Nonce     string `json:"nonce"`
	Signature string `json:"signature"`
}

// handleAuthVerify consumes the nonce and runs wallet authentication. The
// wallet provider performed the actual signature check client-side; the
// nonce proves this client went through the challenge flow.
func (s *Server) handleAuthVerify(w http.ResponseWriter, r *http.Request) {
	var req authVerifyRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	wallet, err := identity.ValidateAddress(req.Wallet)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	if err := s.deps.Challenges.Consume(wallet, req.Nonce); err != nil {
		writeJSONError(w, r, http.StatusUnauthorized, "invalid_nonce",
			"challenge not found or expired")
		return
	}

	result, err := s.deps.AuthenticateWallet.Handle(r.Context(),
		command.AuthenticateWalletCommand{Wallet: wallet})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"created":  result.Created,
		"unlocks":  unlockViews(result.Unlocks),
		"progress": query.NewProgressView(result.Record, result.Record.UpdatedAt),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

// walletParam extracts the wallet path parameter.
func walletParam(r *http.Request) progress.WalletAddress {
	return progress.WalletAddress(chi.URLParam(r, "wallet"))
}

// handleGetProgress serves one wallet's progress snapshot.
func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	view, err := s.deps.GetProgress.Handle(r.Context(),
		query.GetProgressQuery{Wallet: walletParam(r)})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

// handleGetRank serves one wallet's leaderboard position.
func (s *Server) handleGetRank(w http.ResponseWriter, r *http.Request) {
	entry, err := s.deps.GetRank.Handle(r.Context(),
		query.GetRankQuery{Wallet: walletParam(r)})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, entry)
}

type grantXPRequest struct {
	Amount int    `json:"amount"`
	Reason string `json:"reason"`
}

// handleGrantXP credits XP to a wallet.
func (s *Server) handleGrantXP(w http.ResponseWriter, r *http.Request) {
	var req grantXPRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	result, err := s.deps.GrantXP.Handle(r.Context(), command.GrantXPCommand{
		Wallet: walletParam(r),
		Amount: progress.XP(req.Amount),
		Reason: req.Reason,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"levels_gained": result.LevelsGained,
		"progress":      query.NewProgressView(result.Record, result.Record.UpdatedAt),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// STAKING
// ══════════════════════════════════════════════════════════════════════════════

type stakeRequest struct {
	Amount       int `json:"amount"`
	DurationDays int `json:"duration_days"`
}

// handleStake moves tokens into the pooled stake.
func (s *Server) handleStake(w http.ResponseWriter, r *http.Request) {
	var req stakeRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	result, err := s.deps.StakeTokens.Handle(r.Context(), command.StakeTokensCommand{
		Wallet:       walletParam(r),
		Amount:       progress.Tokens(req.Amount),
		DurationDays: req.DurationDays,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"estimated_reward": int(result.EstimatedReward),
		"unlocks":          unlockViews(result.Unlocks),
		"progress":         query.NewProgressView(result.Record, result.Record.UpdatedAt),
	})
}

// handleEstimateReward projects the reward for a hypothetical stake.
func (s *Server) handleEstimateReward(w http.ResponseWriter, r *http.Request) {
	var req stakeRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	result := s.deps.EstimateReward.Handle(r.Context(), query.EstimateRewardQuery{
		Amount:       progress.Tokens(req.Amount),
		DurationDays: req.DurationDays,
	})
	writeJSON(w, r, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// COURSES
// ══════════════════════════════════════════════════════════════════════════════

type enrollRequest struct {
	Wallet      string `json:"wallet"`
	StakeAmount int    `json:"stake_amount"`
}

// handleEnroll enrolls a wallet into a course (or tops up its escrow).
func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	var req enrollRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	result, err := s.deps.EnrollCourse.Handle(r.Context(), command.EnrollCourseCommand{
		Wallet:      progress.WalletAddress(req.Wallet),
		CourseID:    chi.URLParam(r, "id"),
		StakeAmount: progress.Tokens(req.StakeAmount),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"enrollment": result.Enrollment,
		"top_up":     result.TopUp,
		"unlocks":    unlockViews(result.Unlocks),
		"progress":   query.NewProgressView(result.Record, result.Record.UpdatedAt),
	})
}

type quizRequest struct {
	Wallet   string `json:"wallet"`
	ModuleID string `json:"module_id"`
	Answers  []int  `json:"answers"`
}

// handleSubmitQuiz grades one module quiz attempt.
func (s *Server) handleSubmitQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	result, err := s.deps.SubmitQuiz.Handle(r.Context(), command.SubmitQuizCommand{
		Wallet:   progress.WalletAddress(req.Wallet),
		CourseID: chi.URLParam(r, "id"),
		ModuleID: req.ModuleID,
		Answers:  req.Answers,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	response := map[string]interface{}{
		"quiz":             result.Quiz,
		"module_passed":    result.ModulePassed,
		"course_completed": result.CourseCompleted,
	}
	if result.CourseCompleted {
		response["xp_awarded"] = int(result.XPAwarded)
		response["unlocks"] = unlockViews(result.Unlocks)
	}
	if result.Record != nil {
		response["progress"] = query.NewProgressView(result.Record, result.Record.UpdatedAt)
	}
	writeJSON(w, r, http.StatusOK, response)
}

type walletRequest struct {
	Wallet string `json:"wallet"`
}

// handleWithdraw dissolves a course enrollment and returns the escrow.
func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req walletRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	result, err := s.deps.WithdrawStake.Handle(r.Context(), command.WithdrawStakeCommand{
		Wallet:   progress.WalletAddress(req.Wallet),
		CourseID: chi.URLParam(r, "id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"withdrawn":     result.Withdrawn,
		"return_amount": int(result.ReturnAmount),
		"penalized":     result.Penalized,
		"progress":      query.NewProgressView(result.Record, result.Record.UpdatedAt),
	})
}

// handleClaim pays out a completed course's escrow and reward.
func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	var req walletRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	result, err := s.deps.ClaimReward.Handle(r.Context(), command.ClaimRewardCommand{
		Wallet:   progress.WalletAddress(req.Wallet),
		CourseID: chi.URLParam(r, "id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"claimed":       result.Claimed,
		"reward_amount": int(result.RewardAmount),
		"progress":      query.NewProgressView(result.Record, result.Record.UpdatedAt),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG
// ══════════════════════════════════════════════════════════════════════════════

// courseView is a course as served to clients. Quiz questions are included
// without the correct answer index; grading happens server-side.
type courseView struct {
	ID                   string             `json:"id"`
	Title                string             `json:"title"`
	Description          string             `json:"description"`
	Difficulty           catalog.Difficulty `json:"difficulty"`
	Category             catalog.Category   `json:"category"`
	Premium              bool               `json:"premium"`
	StakingRequirement   int                `json:"staking_requirement"`
	RewardAmount         int                `json:"reward_amount"`
	MinStakingPeriodDays int                `json:"min_staking_period_days"`
	Modules              []moduleView       `json:"modules"`
}

type moduleView struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Content     string         `json:"content"`
	Quiz        []questionView `json:"quiz"`
}

type questionView struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

func newCourseView(course *catalog.Course) courseView {
	view := courseView{
		ID:                   course.ID,
		Title:                course.Title,
		Description:          course.Description,
		Difficulty:           course.Difficulty,
		Category:             course.Category,
		Premium:              course.Premium,
		StakingRequirement:   course.StakingRequirement,
		RewardAmount:         course.RewardAmount,
		MinStakingPeriodDays: course.MinStakingPeriodDays,
		Modules:              make([]moduleView, 0, len(course.Modules)),
	}
	for _, module := range course.Modules {
		mv := moduleView{
			ID:          module.ID,
			Title:       module.Title,
			Description: module.Description,
			Content:     module.Content,
			Quiz:        make([]questionView, 0, len(module.QuizQuestions)),
		}
		for _, q := range module.QuizQuestions {
			mv.Quiz = append(mv.Quiz, questionView{
				ID:       q.ID,
				Question: q.Question,
				Options:  q.Options,
			})
		}
		view.Modules = append(view.Modules, mv)
	}
	return view
}

// handleListCourses serves the course catalog.
func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := s.deps.Catalog.ListCourses(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	views := make([]courseView, 0, len(courses))
	for _, course := range courses {
		views = append(views, newCourseView(course))
	}
	writeJSON(w, r, http.StatusOK, views)
}

// handleGetCourse serves one course.
func (s *Server) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	course, err := s.deps.Catalog.GetCourse(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newCourseView(course))
}

// handleListAchievements serves the achievement definitions.
func (s *Server) handleListAchievements(w http.ResponseWriter, r *http.Request) {
	achievements, err := s.deps.Catalog.ListAchievements(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, achievements)
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD
// ══════════════════════════════════════════════════════════════════════════════

// handleGetLeaderboard serves the top wallets by lifetime XP.
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit = atoiOrZero(raw)
	}

	entries, err := s.deps.GetLeaderboard.Handle(r.Context(),
		query.GetLeaderboardQuery{Limit: limit})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, entries)
}

// ══════════════════════════════════════════════════════════════════════════════
// VIEW HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// unlockView is an achievement unlock as served to clients.
type unlockView struct {
	AchievementID string `json:"achievement_id"`
	Title         string `json:"title"`
	XPReward      int    `json:"xp_reward"`
	LevelsGained  int    `json:"levels_gained"`
}

func unlockViews(unlocks []saga.Unlock) []unlockView {
	views := make([]unlockView, 0, len(unlocks))
	for _, u := range unlocks {
		views = append(views, unlockView{
			AchievementID: u.Achievement.ID,
			Title:         u.Achievement.Title,
			XPReward:      u.Achievement.XPReward,
			LevelsGained:  u.LevelsGained,
		})
	}
	return views
}

func atoiOrZero(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}

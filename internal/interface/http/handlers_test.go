package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viditkulsh/CyberTrek/internal/application/command"
	"github.com/viditkulsh/CyberTrek/internal/application/query"
	"github.com/viditkulsh/CyberTrek/internal/application/saga"
	"github.com/viditkulsh/CyberTrek/internal/domain/catalog"
	"github.com/viditkulsh/CyberTrek/internal/infrastructure/identity"
	"github.com/viditkulsh/CyberTrek/internal/infrastructure/messaging"
	"github.com/viditkulsh/CyberTrek/internal/infrastructure/persistence/memory"
	"github.com/viditkulsh/CyberTrek/pkg/clock"
	"github.com/viditkulsh/CyberTrek/pkg/logger"
)

const testWallet = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

var testStart = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type testServer struct {
	server *Server
	clk    *clock.Fake
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log := logger.New(logger.Options{Output: io.Discard, Level: logger.LevelError})
	clk := clock.NewFake(testStart)

	progressRepo := memory.NewProgressRepository()
	moduleRepo := memory.NewModuleProgressRepository()
	catalogRepo := catalog.NewBuiltinRepository()
	board := memory.NewLeaderboard()
	flow := saga.NewAchievementFlow(catalogRepo, log)

	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = log
	bus := messaging.NewInMemoryEventBus(busConfig)
	t.Cleanup(func() { _ = bus.Close() })
	require.NoError(t, bus.Subscribe(messaging.NewLeaderboardProjector(board, log)))

	deps := Dependencies{
		AuthenticateWallet: command.NewAuthenticateWalletHandler(progressRepo, flow, bus, clk, log),
		GrantXP:            command.NewGrantXPHandler(progressRepo, bus, clk, log),
		StakeTokens:        command.NewStakeTokensHandler(progressRepo, flow, bus, clk, log),
		EnrollCourse:       command.NewEnrollCourseHandler(progressRepo, catalogRepo, flow, bus, clk, log),
		SubmitQuiz:         command.NewSubmitQuizHandler(progressRepo, catalogRepo, moduleRepo, flow, bus, clk, log),
		WithdrawStake:      command.NewWithdrawStakeHandler(progressRepo, bus, clk, log),
		ClaimReward:        command.NewClaimRewardHandler(progressRepo, catalogRepo, bus, clk, log),
		GetProgress:        query.NewGetProgressHandler(progressRepo, nil, 0, clk, log),
		GetLeaderboard:     query.NewGetLeaderboardHandler(board, progressRepo, log),
		GetRank:            query.NewGetRankHandler(board),
		EstimateReward:     query.NewEstimateRewardHandler(),
		Catalog:            catalogRepo,
		Challenges:         identity.NewChallengeStore(identity.DefaultChallengeTTL, clk),
		Logger:             log,
	}

	config := DefaultConfig()
	config.RateLimitPerMinute = 0

	return &testServer{server: NewServer(config, deps), clk: clk}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(rec, req)

	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return rec, envelope
}

// authenticate runs the challenge/verify flow and returns the progress data.
func (ts *testServer) authenticate(t *testing.T, wallet string) map[string]interface{} {
	t.Helper()

	rec, envelope := ts.do(t, http.MethodPost, "/api/auth/challenge",
		map[string]string{"wallet": wallet})
	require.Equal(t, http.StatusOK, rec.Code)

	nonce := envelope["data"].(map[string]interface{})["nonce"].(string)

	rec, envelope = ts.do(t, http.MethodPost, "/api/auth/verify",
		map[string]string{"wallet": wallet, "nonce": nonce, "signature": "0xsigned"})
	require.Equal(t, http.StatusOK, rec.Code)

	return envelope["data"].(map[string]interface{})
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)

	t.Run("challenge and verify create the record", func(t *testing.T) {
		data := ts.authenticate(t, testWallet)

		assert.Equal(t, true, data["created"])
		progressData := data["progress"].(map[string]interface{})
		assert.Equal(t, float64(100), progressData["available_tokens"])
		assert.Equal(t, float64(50), progressData["xp"]) // first-login bonus

		unlocks := data["unlocks"].([]interface{})
		require.Len(t, unlocks, 1)
		assert.Equal(t, "first-login", unlocks[0].(map[string]interface{})["achievement_id"])
	})

	t.Run("nonce cannot be replayed", func(t *testing.T) {
		rec, envelope := ts.do(t, http.MethodPost, "/api/auth/challenge",
			map[string]string{"wallet": testWallet})
		require.Equal(t, http.StatusOK, rec.Code)
		nonce := envelope["data"].(map[string]interface{})["nonce"].(string)

		body := map[string]string{"wallet": testWallet, "nonce": nonce, "signature": "0xsigned"}
		rec, _ = ts.do(t, http.MethodPost, "/api/auth/verify", body)
		require.Equal(t, http.StatusOK, rec.Code)

		rec, envelope = ts.do(t, http.MethodPost, "/api/auth/verify", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "invalid_nonce",
			envelope["error"].(map[string]interface{})["code"])
	})

	t.Run("invalid address rejected", func(t *testing.T) {
		rec, _ := ts.do(t, http.MethodPost, "/api/auth/challenge",
			map[string]string{"wallet": "0x1234"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/challenge",
			bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()
		ts.server.Router().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestProgressEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ts.authenticate(t, testWallet)

	t.Run("get progress", func(t *testing.T) {
		rec, envelope := ts.do(t, http.MethodGet, "/api/progress/"+testWallet, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		data := envelope["data"].(map[string]interface{})
		assert.Equal(t, testWallet, data["wallet"])
		assert.Equal(t, float64(1), data["level"])
	})

	t.Run("unknown wallet is 404", func(t *testing.T) {
		rec, envelope := ts.do(t, http.MethodGet, "/api/progress/unknown-wallet-addr", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not_found",
			envelope["error"].(map[string]interface{})["code"])
	})

	t.Run("grant xp", func(t *testing.T) {
		rec, envelope := ts.do(t, http.MethodPost, "/api/progress/"+testWallet+"/xp",
			map[string]interface{}{"amount": 1200, "reason": "event bonus"})
		require.Equal(t, http.StatusOK, rec.Code)

		data := envelope["data"].(map[string]interface{})
		assert.Equal(t, float64(1), data["levels_gained"])
	})

	t.Run("rank reflects the event projection", func(t *testing.T) {
		rec, envelope := ts.do(t, http.MethodGet, "/api/progress/"+testWallet+"/rank", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		data := envelope["data"].(map[string]interface{})
		assert.Equal(t, float64(1), data["rank"])
		assert.Equal(t, float64(1250), data["lifetime_xp"])
	})
}

func TestStakingEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ts.authenticate(t, testWallet)

	t.Run("estimate", func(t *testing.T) {
		rec, envelope := ts.do(t, http.MethodPost,
			"/api/progress/"+testWallet+"/stake/estimate",
			map[string]interface{}{"amount": 200, "duration_days": 30})
		require.Equal(t, http.StatusOK, rec.Code)

		data := envelope["data"].(map[string]interface{})
		assert.Equal(t, float64(60), data["reward"])
	})

	t.Run("stake", func(t *testing.T) {
		rec, envelope := ts.do(t, http.MethodPost, "/api/progress/"+testWallet+"/stake",
			map[string]interface{}{"amount": 40, "duration_days": 7})
		require.Equal(t, http.StatusOK, rec.Code)

		data := envelope["data"].(map[string]interface{})
		assert.Equal(t, float64(2), data["estimated_reward"])

		progressData := data["progress"].(map[string]interface{})
		assert.Equal(t, float64(60), progressData["available_tokens"])
		assert.Equal(t, float64(40), progressData["staked_tokens"])

		unlocks := data["unlocks"].([]interface{})
		require.Len(t, unlocks, 1)
		assert.Equal(t, "first-stake", unlocks[0].(map[string]interface{})["achievement_id"])
	})

	t.Run("insufficient balance", func(t *testing.T) {
		rec, envelope := ts.do(t, http.MethodPost, "/api/progress/"+testWallet+"/stake",
			map[string]interface{}{"amount": 10_000, "duration_days": 7})
		assert.Equal(t, http.StatusPaymentRequired, rec.Code)
		assert.Equal(t, "insufficient_funds",
			envelope["error"].(map[string]interface{})["code"])
	})
}

func TestCourseEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ts.authenticate(t, testWallet)

	t.Run("catalog listing hides answers", func(t *testing.T) {
		rec, envelope := ts.do(t, http.MethodGet, "/api/courses", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		courses := envelope["data"].([]interface{})
		require.Len(t, courses, 5)

		first := courses[0].(map[string]interface{})
		modules := first["modules"].([]interface{})
		quiz := modules[0].(map[string]interface{})["quiz"].([]interface{})
		_, hasAnswer := quiz[0].(map[string]interface{})["correct_answer"]
		assert.False(t, hasAnswer)
	})

	t.Run("unknown course is 404", func(t *testing.T) {
		rec, _ := ts.do(t, http.MethodGet, "/api/courses/no-such-course", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("enroll free course", func(t *testing.T) {
		rec, envelope := ts.do(t, http.MethodPost, "/api/courses/intro-cybersec/enroll",
			map[string]interface{}{"wallet": testWallet, "stake_amount": 0})
		require.Equal(t, http.StatusOK, rec.Code)

		data := envelope["data"].(map[string]interface{})
		assert.Equal(t, false, data["top_up"])
	})

	t.Run("quiz completes the single-module course", func(t *testing.T) {
		rec, envelope := ts.do(t, http.MethodPost, "/api/courses/intro-cybersec/quiz",
			map[string]interface{}{
				"wallet":    testWallet,
				"module_id": "cybersec-basics",
				"answers":   []int{1},
			})
		require.Equal(t, http.StatusOK, rec.Code)

		data := envelope["data"].(map[string]interface{})
		assert.Equal(t, true, data["module_passed"])
		assert.Equal(t, true, data["course_completed"])
		assert.Equal(t, float64(50), data["xp_awarded"])
	})

	t.Run("claim pays escrow plus reward", func(t *testing.T) {
		rec, envelope := ts.do(t, http.MethodPost, "/api/courses/intro-cybersec/claim",
			map[string]interface{}{"wallet": testWallet})
		require.Equal(t, http.StatusOK, rec.Code)

		data := envelope["data"].(map[string]interface{})
		assert.Equal(t, true, data["claimed"])
		assert.Equal(t, float64(50), data["reward_amount"])
	})

	t.Run("quiz for unenrolled course conflicts", func(t *testing.T) {
		rec, _ := ts.do(t, http.MethodPost, "/api/courses/blockchain-101/quiz",
			map[string]interface{}{
				"wallet":    testWallet,
				"module_id": "blockchain-intro",
				"answers":   []int{2},
			})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("premium enrollment below requirement", func(t *testing.T) {
		rec, _ := ts.do(t, http.MethodPost, "/api/courses/ethical-hacking/enroll",
			map[string]interface{}{"wallet": testWallet, "stake_amount": 10})
		assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	})

	t.Run("withdraw early pays the penalty", func(t *testing.T) {
		rec, _ := ts.do(t, http.MethodPost, "/api/courses/blockchain-101/enroll",
			map[string]interface{}{"wallet": testWallet, "stake_amount": 0})
		require.Equal(t, http.StatusOK, rec.Code)

		rec, envelope := ts.do(t, http.MethodPost, "/api/courses/blockchain-101/withdraw",
			map[string]interface{}{"wallet": testWallet})
		require.Equal(t, http.StatusOK, rec.Code)

		data := envelope["data"].(map[string]interface{})
		assert.Equal(t, true, data["withdrawn"])
		assert.Equal(t, float64(0), data["return_amount"])
	})
}

func TestLeaderboardEndpoint(t *testing.T) {
	ts := newTestServer(t)

	for i := 0; i < 3; i++ {
		wallet := fmt.Sprintf("0x%040d", i)
		ts.authenticate(t, wallet)
		rec, _ := ts.do(t, http.MethodPost, "/api/progress/"+wallet+"/xp",
			map[string]interface{}{"amount": (i + 1) * 500, "reason": "seed"})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec, envelope := ts.do(t, http.MethodGet, "/api/leaderboard?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	entries := envelope["data"].([]interface{})
	require.Len(t, entries, 2)
	top := entries[0].(map[string]interface{})
	assert.Equal(t, fmt.Sprintf("0x%040d", 2), top["wallet"])
	assert.Equal(t, float64(1550), top["lifetime_xp"])
}

func TestAchievementsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec, envelope := ts.do(t, http.MethodGet, "/api/achievements", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	achievements := envelope["data"].([]interface{})
	assert.Len(t, achievements, 6)
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec, envelope := ts.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy",
		envelope["data"].(map[string]interface{})["status"])
}

package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trxearn/config"
	"trxearn/internal/auth"
	"trxearn/internal/domain"
	"trxearn/internal/events"
	"trxearn/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const walletAddress = "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"

type server struct {
	t      *testing.T
	cfg    *config.Config
	engine *gin.Engine
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	cfg := &config.Config{
		Server:   config.ServerConfig{Env: "test"},
		JWT:      config.JWTConfig{AccessSecret: "secret", AccessExpiry: time.Hour, Issuer: "trxearn"},
		Admin:    config.AdminConfig{PasswordHash: string(hash)},
		Rewards:  config.DefaultRewards(),
		Telegram: config.TelegramConfig{BotUsername: "trxearnbot"},
	}
	engine := Setup(cfg, testutil.NewDB(t), Deps{Logger: zap.NewNop(), Publisher: events.Nop{}})
	return &server{t: t, cfg: cfg, engine: engine}
}

func (s *server) userToken(id string) string {
	s.t.Helper()
	token, err := auth.GenerateAccessToken(&s.cfg.JWT, id, "user_"+id, domain.RoleUser)
	require.NoError(s.t, err)
	return token
}

func (s *server) adminToken() string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/v1/admin/login", "", gin.H{"username": "root", "password": "s3cret"})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &out))
	return out.AccessToken
}

func (s *server) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	w := s.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "up", decode(t, w)["database"])
}

func TestSessionCreatesOnce(t *testing.T) {
	s := newServer(t)
	token := s.userToken("1001")

	w := s.do(http.MethodPost, "/api/v1/auth/session", token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w)["created"])

	w = s.do(http.MethodPost, "/api/v1/auth/session", token, gin.H{"first_name": "Alice"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["created"])

	w = s.do(http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode(t, w)
	assert.Equal(t, "user_1001", me["username"])
	assert.Equal(t, true, me["can_watch_ad"])

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/me", s.userToken("9999"), nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/v1/me", "", nil).Code)
}

func TestReferralSignupAndValidate(t *testing.T) {
	s := newServer(t)
	w := s.do(http.MethodPost, "/api/v1/auth/session", s.userToken("1001"), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	code := decode(t, w)["account"].(map[string]interface{})["referral_code"].(string)

	w = s.do(http.MethodPost, "/api/v1/auth/session", s.userToken("2002"), gin.H{"referral_code": code})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "1001", decode(t, w)["account"].(map[string]interface{})["referred_by"])

	w = s.do(http.MethodGet, "/api/v1/referrals/validate/"+code, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["valid"])

	w = s.do(http.MethodGet, "/api/v1/referrals/validate/UNKNOWN", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["valid"])
}

func TestWatchAdCooldown(t *testing.T) {
	s := newServer(t)
	token := s.userToken("1001")
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/v1/auth/session", token, nil).Code)

	w := s.do(http.MethodPost, "/api/v1/ads/watch", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, 0.005, body["reward"])
	assert.Equal(t, float64(1), body["ads_watched"])

	w = s.do(http.MethodPost, "/api/v1/ads/watch", token, nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	body = decode(t, w)
	remaining, ok := body["remaining_time"].(float64)
	require.True(t, ok)
	assert.Greater(t, remaining, float64(0))
	assert.LessOrEqual(t, remaining, float64(15))

	w = s.do(http.MethodGet, "/api/v1/transactions", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"], 1)
}

func TestWithdrawalFlow(t *testing.T) {
	s := newServer(t)
	user := s.userToken("1001")
	other := s.userToken("2002")
	admin := s.adminToken()
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/v1/auth/session", user, nil).Code)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/v1/auth/session", other, nil).Code)

	w := s.do(http.MethodPost, "/api/v1/withdrawals", user, gin.H{"amount": 3.49, "to_address": walletAddress})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPost, "/api/v1/withdrawals", user, gin.H{"amount": 5, "to_address": walletAddress})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPost, "/api/v1/withdrawals", user, gin.H{"amount": 5, "to_address": "0xdeadbeef"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/admin/users/1001/adjust-balance", admin, gin.H{"amount": "5", "reason": "promo"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(5), decode(t, w)["new_balance"])

	w = s.do(http.MethodPost, "/api/v1/withdrawals", user, gin.H{"amount": 5, "to_address": walletAddress})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	wd := decode(t, w)["withdrawal"].(map[string]interface{})
	id := int(wd["id"].(float64))
	assert.Equal(t, 0.5, wd["commission"])
	assert.Equal(t, 4.5, wd["net_amount"])

	path := fmt.Sprintf("/api/v1/withdrawals/%d", id)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, path, user, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, path, other, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/withdrawals/999", user, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/withdrawals/abc", user, nil).Code)

	w = s.do(http.MethodGet, "/api/v1/admin/withdrawals", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["total"])

	approve := fmt.Sprintf("/api/v1/admin/withdrawals/%d/approve", id)
	w = s.do(http.MethodPost, approve, admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "skipped", decode(t, w)["commission"].(map[string]interface{})["status"])
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, approve, admin, nil).Code)

	w = s.do(http.MethodPost, fmt.Sprintf("/api/v1/admin/withdrawals/%d/complete", id), admin, gin.H{"tx_hash": "abc123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, domain.WithdrawalCompleted, decode(t, w)["status"])

	w = s.do(http.MethodGet, "/api/v1/admin/users/1001/reconcile", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["consistent"])
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	s := newServer(t)
	user := s.userToken("1001")

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/v1/admin/users", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/v1/admin/users", user, nil).Code)

	w := s.do(http.MethodPost, "/api/v1/admin/login", "", gin.H{"username": "root", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	admin := s.adminToken()
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/admin/users", admin, nil).Code)
	// An admin subject must never be registered as a ledger account.
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/v1/auth/session", admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/admin/users/admin:root", admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/admin/users/404", admin, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/v1/admin/users/404/block", admin, gin.H{}).Code)
}

func TestAdminTaskLifecycle(t *testing.T) {
	s := newServer(t)
	admin := s.adminToken()
	user := s.userToken("1001")
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/v1/auth/session", user, nil).Code)

	w := s.do(http.MethodPost, "/api/v1/admin/tasks", admin, gin.H{"title": "Join", "type": domain.TaskTypeTelegramChannel})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/admin/tasks", admin, gin.H{"title": "Join", "type": domain.TaskTypeTelegramChannel, "reward": 0.02})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := int(decode(t, w)["id"].(float64))

	complete := fmt.Sprintf("/api/v1/tasks/%d/complete", id)
	w = s.do(http.MethodPost, complete, user, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, complete, user, nil).Code)

	w = s.do(http.MethodGet, "/api/v1/tasks", user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["completed_tasks"])

	task := fmt.Sprintf("/api/v1/admin/tasks/%d", id)
	assert.Equal(t, http.StatusOK, s.do(http.MethodDelete, task, admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, task, admin, nil).Code)
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/account-service/internal/api/http/handlers"
	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/notification"
	"github.com/spec-kit/account-service/internal/observability"
	"github.com/spec-kit/account-service/internal/repository"
	"github.com/spec-kit/account-service/internal/repository/memory"
	"github.com/spec-kit/account-service/internal/service"
)

var codePattern = regexp.MustCompile(`<strong>([0-9]{6})</strong>`)

type outbox struct {
	mu   sync.Mutex
	last map[string]string
	fail bool
}

func (o *outbox) Send(_ context.Context, msg notification.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fail {
		return errors.New("relay unavailable")
	}
	if m := codePattern.FindStringSubmatch(msg.HTML); m != nil {
		o.last[msg.To] = m[1]
	}
	return nil
}

func (o *outbox) code(email string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last[email]
}

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type testServer struct {
	app    *fiber.App
	outbox *outbox
	ready  error
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:                 "test-secret",
			TokenTTL:                  time.Hour,
			BcryptCost:                bcrypt.MinCost,
			ResetRequiresVerifiedCode: true,
			ResetTicketTTL:            15 * time.Minute,
		},
		OTP:  config.OTPConfig{TTL: 10 * time.Minute},
		Mail: config.MailConfig{From: "noreply@example.com"},
	}
	ts := &testServer{outbox: &outbox{last: map[string]string{}}}

	users := memory.NewUserRepository()
	accounts := service.NewAccountService(cfg, service.AccountDependencies{
		Users:   users,
		Codes:   memory.NewCodeRepository(),
		Tickets: memory.NewResetTicketRepository(nil),
		Mailer:  ts.outbox,
		Logger:  zap.NewNop(),
	})
	metrics := observability.NewMetrics("test")

	ts.app = fiber.New()
	RegisterMiddlewares(ts.app, zap.NewNop(), metrics, time.Second)
	RegisterRoutes(ts.app, RouteConfig{
		Health: handlers.NewHealthHandler("account-service", "test", map[string]repository.Pinger{
			"users": pingerFunc(func(context.Context) error { return ts.ready }),
		}),
		Auth:           handlers.NewAuthHandler(accounts),
		Users:          handlers.NewUserHandler(accounts),
		AuthMiddleware: auth.NewAuthMiddleware(accounts.TokenManager(), users),
		Metrics:        metrics.Handler(),
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any, token string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func register(t *testing.T, ts *testServer) map[string]any {
	t.Helper()
	status, body := ts.do(t, "POST", "/auth/register", map[string]string{
		"name": "Ben", "email": "ben@x.com", "password": "Password1!", "confirmPassword": "Password1!",
	}, "")
	require.Equal(t, nethttp.StatusCreated, status, body)
	return body
}

func TestRegisterAndVerifyEmail(t *testing.T) {
	ts := newTestServer(t)

	body := register(t, ts)
	assert.Equal(t, "User created successfully", body["message"])
	assert.NotEmpty(t, body["token"])
	user := body["user"].(map[string]any)
	assert.Equal(t, false, user["isVerified"])
	assert.NotContains(t, user, "passwordHash")

	code := ts.outbox.code("ben@x.com")
	require.Len(t, code, 6)

	status, body := ts.do(t, "POST", "/auth/verify-email", map[string]string{"email": "ben@x.com", "otp": code}, "")
	assert.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "Email verified successfully", body["message"])

	status, body = ts.do(t, "POST", "/auth/verify-email", map[string]string{"email": "ben@x.com", "otp": code}, "")
	assert.Equal(t, nethttp.StatusUnauthorized, status)
	assert.Equal(t, "Invalid OTP", body["message"])
	assert.Equal(t, "UNAUTHORIZED", body["code"])

	status, body = ts.do(t, "POST", "/auth/login", map[string]string{"email": "ben@x.com", "password": "Password1!"}, "")
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "Login successful", body["message"])
	assert.Equal(t, true, body["user"].(map[string]any)["isVerified"])
}

func TestRegisterErrors(t *testing.T) {
	ts := newTestServer(t)
	register(t, ts)

	status, body := ts.do(t, "POST", "/auth/register", map[string]string{
		"name": "Ben", "email": "ben@x.com", "password": "Password1!", "confirmPassword": "Password1!",
	}, "")
	assert.Equal(t, nethttp.StatusConflict, status)
	assert.Equal(t, "User with this email already exists", body["message"])

	status, body = ts.do(t, "POST", "/auth/register", map[string]string{
		"name": "Al", "email": "al@x.com", "password": "password", "confirmPassword": "different",
	}, "")
	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", body["code"])
	assert.NotEmpty(t, body["details"])

	ts.outbox.mu.Lock()
	ts.outbox.fail = true
	ts.outbox.mu.Unlock()
	status, body = ts.do(t, "POST", "/auth/register", map[string]string{
		"name": "Cy", "email": "cy@x.com", "password": "Password1!", "confirmPassword": "Password1!",
	}, "")
	assert.Equal(t, nethttp.StatusBadGateway, status)
	assert.Equal(t, "NOTIFICATION_FAILED", body["code"])
}

func TestLoginFailuresLookAlike(t *testing.T) {
	ts := newTestServer(t)
	register(t, ts)

	s1, b1 := ts.do(t, "POST", "/auth/login", map[string]string{"email": "ben@x.com", "password": "Wrong123!"}, "")
	s2, b2 := ts.do(t, "POST", "/auth/login", map[string]string{"email": "nobody@x.com", "password": "Wrong123!"}, "")
	assert.Equal(t, nethttp.StatusUnauthorized, s1)
	assert.Equal(t, s1, s2)
	assert.Equal(t, b1, b2)
}

func TestPasswordResetOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	register(t, ts)

	reset := map[string]string{"email": "ben@x.com", "password": "NewPass1!", "confirmPassword": "NewPass1!"}
	status, _ := ts.do(t, "PATCH", "/user/password-reset", reset, "")
	assert.Equal(t, nethttp.StatusUnauthorized, status)

	status, body := ts.do(t, "POST", "/user/request-password-reset", map[string]string{"email": "ben@x.com"}, "")
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "OTP sent successfully", body["message"])

	status, _ = ts.do(t, "POST", "/user/verify-password-reset", map[string]string{"email": "ben@x.com", "otp": "99999"}, "")
	assert.Equal(t, nethttp.StatusUnauthorized, status)

	status, body = ts.do(t, "POST", "/user/verify-password-reset", map[string]string{"email": "ben@x.com", "otp": ts.outbox.code("ben@x.com")}, "")
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "OTP verified successfully", body["message"])

	status, body = ts.do(t, "PATCH", "/user/password-reset", reset, "")
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "Password reset successfully", body["message"])

	status, _ = ts.do(t, "POST", "/auth/login", map[string]string{"email": "ben@x.com", "password": "NewPass1!"}, "")
	assert.Equal(t, nethttp.StatusOK, status)
	status, _ = ts.do(t, "POST", "/auth/login", map[string]string{"email": "ben@x.com", "password": "Password1!"}, "")
	assert.Equal(t, nethttp.StatusUnauthorized, status)

	status, _ = ts.do(t, "POST", "/user/request-password-reset", map[string]string{"email": "nobody@x.com"}, "")
	assert.Equal(t, nethttp.StatusNotFound, status)
}

func TestUserLookupsRequireToken(t *testing.T) {
	ts := newTestServer(t)
	body := register(t, ts)
	token := body["token"].(string)
	id := body["user"].(map[string]any)["id"].(string)

	status, _ := ts.do(t, "GET", "/user/me", nil, "")
	assert.Equal(t, nethttp.StatusUnauthorized, status)

	status, body = ts.do(t, "GET", "/user/me", nil, token)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "ben@x.com", body["user"].(map[string]any)["email"])

	status, body = ts.do(t, "GET", "/user/"+id, nil, token)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, id, body["user"].(map[string]any)["id"])

	status, _ = ts.do(t, "GET", "/user/does-not-exist", nil, token)
	assert.Equal(t, nethttp.StatusNotFound, status)

	status, body = ts.do(t, "GET", "/user?limit=5", nil, token)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Len(t, body["users"], 1)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, "GET", "/health/ready", nil, "")
	assert.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "ready", body["status"])

	ts.ready = errors.New("connection refused")
	status, body = ts.do(t, "GET", "/health/ready", nil, "")
	assert.Equal(t, nethttp.StatusServiceUnavailable, status)
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", body["code"])

	status, _ = ts.do(t, "GET", "/health/live", nil, "")
	assert.Equal(t, nethttp.StatusOK, status)

	req := httptest.NewRequest("GET", "/metrics", nil)
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "test_http_requests_total")

	status, body = ts.do(t, "GET", "/nope", nil, "")
	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/domain"
)

func TestCodeEmail(t *testing.T) {
	msg, err := CodeEmail("noreply@example.com", "a@x.io", "123456", domain.CodePurposeEmailVerification, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "Email verification", msg.Subject)
	assert.Equal(t, "a@x.io", msg.To)
	assert.Contains(t, msg.HTML, "<strong>123456</strong>")
	assert.Contains(t, msg.HTML, "10 minutes")

	msg, err = CodeEmail("noreply@example.com", "a@x.io", "654321", domain.CodePurposePasswordReset, 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "Password reset", msg.Subject)
	assert.Contains(t, msg.HTML, "reset your password")

	_, err = CodeEmail("noreply@example.com", "a@x.io", "1", domain.CodePurpose("other"), time.Minute)
	assert.Error(t, err)
}

func TestMessageValidate(t *testing.T) {
	assert.Error(t, Message{To: "a@x.io", Subject: "s", HTML: "h"}.Validate())
	assert.Error(t, Message{From: "f@x.io", To: "a@x.io", HTML: "h"}.Validate())
	assert.NoError(t, Message{From: "f@x.io", To: "a@x.io", Subject: "s", HTML: "h"}.Validate())
}

func TestHTTPMailerSend(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m := NewHTTPMailer(srv.URL, "key", time.Second)
	err := m.Send(context.Background(), Message{From: "f@x.io", To: "a@x.io", Subject: "s", HTML: "<p>h</p>"})
	require.NoError(t, err)
	require.Len(t, got.Personalizations, 1)
	assert.Equal(t, "a@x.io", got.Personalizations[0].To[0].Email)
	assert.Equal(t, "f@x.io", got.From.Email)
	assert.Equal(t, "<p>h</p>", got.Content[0].Value)
}

func TestHTTPMailerReportsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad sender", http.StatusForbidden)
	}))
	defer srv.Close()

	m := NewHTTPMailer(srv.URL, "key", time.Second)
	err := m.Send(context.Background(), Message{From: "f@x.io", To: "a@x.io", Subject: "s", HTML: "h"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestBreakerMailerOpensAfterFailures(t *testing.T) {
	calls := 0
	failing := MailerFunc(func(context.Context, Message) error {
		calls++
		return errors.New("relay down")
	})
	m := NewBreakerMailer(failing, 2, time.Minute, zap.NewNop())
	msg := Message{From: "f@x.io", To: "a@x.io", Subject: "s", HTML: "h"}

	assert.Error(t, m.Send(context.Background(), msg))
	assert.Error(t, m.Send(context.Background(), msg))
	err := m.Send(context.Background(), msg)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, calls)
}

func TestNewMailerSelectsDriver(t *testing.T) {
	m, err := NewMailer(config.MailConfig{Driver: config.MailDriverLog}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &LogMailer{}, m)

	m, err = NewMailer(config.MailConfig{Driver: config.MailDriverHTTP, BreakerTimeout: time.Second}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &BreakerMailer{}, m)

	_, err = NewMailer(config.MailConfig{Driver: "pigeon"}, zap.NewNop())
	assert.Error(t, err)
}

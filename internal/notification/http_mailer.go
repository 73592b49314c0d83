package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPMailer sends mail through a SendGrid v3 compatible JSON API.
type HTTPMailer struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPMailer builds an API mailer.
func NewHTTPMailer(url, apiKey string, timeout time.Duration) *HTTPMailer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPMailer{url: url, apiKey: apiKey, httpClient: &http.Client{Timeout: timeout}}
}

type address struct {
	Email string `json:"email"`
}

type personalization struct {
	To []address `json:"to"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

// Send posts the message to the API.
func (m *HTTPMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if m.apiKey == "" {
		return fmt.Errorf("notification: mail api key not configured")
	}

	body, err := json.Marshal(sendRequest{
		Personalizations: []personalization{{To: []address{{Email: msg.To}}}},
		From:             address{Email: msg.From},
		Subject:          msg.Subject,
		Content:          []content{{Type: "text/html", Value: msg.HTML}},
	})
	if err != nil {
		return fmt.Errorf("encode mail request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send mail request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mail api error: status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	return nil
}

package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// ErrMailNotConfigured is returned when the Resend API key is absent.
var ErrMailNotConfigured = errors.New("email not configured")

// ResendMailer implements LinkMailer against the Resend API.
type ResendMailer struct {
	apiKey string
	from   string
	appURL string
	client *http.Client
}

func NewResendMailer() *ResendMailer {
	from := os.Getenv("RESEND_FROM_EMAIL")
	if from == "" {
		from = "onboarding@resend.dev"
	}
	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		appURL = "http://localhost:3000"
	}
	return &ResendMailer{
		apiKey: os.Getenv("RESEND_API_KEY"),
		from:   from,
		appURL: strings.TrimRight(appURL, "/"),
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (m *ResendMailer) Send(to, token, gameCode string) error {
	if m.apiKey == "" {
		return ErrMailNotConfigured
	}

	verifyURL := fmt.Sprintf("%s/auth/verify?token=%s", m.appURL, token)
	payload := map[string]interface{}{
		"from":    m.from,
		"to":      to,
		"subject": "Log in to your squares game",
		"html": fmt.Sprintf(
			`<p>Click the link below to log back in to your game:</p>`+
				`<p><a href="%s">Log in to game %s</a></p>`+
				`<p>This link expires in 1 hour. If you didn't request this, you can ignore this email.</p>`,
			verifyURL, gameCode),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, "https://api.resend.com/emails", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("failed to send email: status %d", resp.StatusCode)
	}
	return nil
}

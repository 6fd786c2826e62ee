// Package mailtrap sends password reset emails through the Mailtrap send API.
package mailtrap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type MailtrapService struct {
	APIKey   string
	URL      string
	From     string
	ResetURL string

	client *http.Client
}

func NewMailtrapService(apiURL, apiKey, from, resetURL string) *MailtrapService {
	return &MailtrapService{
		APIKey:   apiKey,
		URL:      apiURL,
		From:     from,
		ResetURL: resetURL,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// EmailRecipient represents an email recipient
type EmailRecipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// EmailRequest represents the request payload for sending an email
type EmailRequest struct {
	From     EmailRecipient   `json:"from"`
	To       []EmailRecipient `json:"to"`
	Subject  string           `json:"subject"`
	HTML     string           `json:"html,omitempty"`
	Text     string           `json:"text,omitempty"`
	Category string           `json:"category,omitempty"`
}

// SendPasswordReset mails a reset link carrying the user id and token.
func (m *MailtrapService) SendPasswordReset(ctx context.Context, toEmail, toName, userID, resetToken string, ttl time.Duration) error {
	link, err := m.resetLink(userID, resetToken)
	if err != nil {
		return err
	}

	minutes := int(ttl.Round(time.Minute) / time.Minute)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<h2>Reset your password</h2>
		<p>Hello %s,</p>
		<p>We received a request to reset your password. Use the link below to choose a new one:</p>
		<p><a href="%s">Reset Password</a></p>
		<p style="word-break: break-all;">%s</p>
		<p>This link expires in %d minutes.</p>
		<p>If you did not ask for a reset you can ignore this email.</p>
	</div>
</body>
</html>`, toName, link, link, minutes)

	textBody := fmt.Sprintf(`Reset your password

Hello %s,

We received a request to reset your password. Open the link below to choose a new one:

%s

This link expires in %d minutes.

If you did not ask for a reset you can ignore this email.
`, toName, link, minutes)

	return m.sendEmail(ctx, EmailRequest{
		From:     EmailRecipient{Email: m.From},
		To:       []EmailRecipient{{Email: toEmail, Name: toName}},
		Subject:  "Reset your password",
		HTML:     htmlBody,
		Text:     textBody,
		Category: "password_reset",
	})
}

func (m *MailtrapService) resetLink(userID, resetToken string) (string, error) {
	u, err := url.Parse(m.ResetURL)
	if err != nil {
		return "", fmt.Errorf("parsing reset url: %w", err)
	}
	q := u.Query()
	q.Set("userId", userID)
	q.Set("token", resetToken)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// sendEmail sends an email via the Mailtrap API
func (m *MailtrapService) sendEmail(ctx context.Context, emailReq EmailRequest) error {
	payload, err := json.Marshal(emailReq)
	if err != nil {
		return fmt.Errorf("failed to marshal email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+m.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("mailtrap API returned status: %d", resp.StatusCode)
	}

	return nil
}
